package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"storyweave/internal/domain"
)

// ImportReport is the outcome of a bulk content import
type ImportReport struct {
	UpdatedCount int      `json:"updated_count"`
	IgnoredIDs   []string `json:"ignored_ids"`
}

// ImportNodeContent writes the coerced value of each entry to the text
// content of the node with that mermaid ID. Keys that name no node are
// reported in IgnoredIDs; nodes are never created.
func ImportNodeContent(g *domain.Graph, content map[string]any) ImportReport {
	report := ImportReport{IgnoredIDs: make([]string, 0)}
	for key, value := range content {
		n := g.NodeByMermaidID(key)
		if n == nil {
			report.IgnoredIDs = append(report.IgnoredIDs, key)
			continue
		}
		n.TextContent = CoerceText(value)
		report.UpdatedCount++
	}
	sort.Strings(report.IgnoredIDs)
	return report
}

// CoerceText turns an arbitrary decoded JSON value into node text.
//
//	string          as is
//	nil             ""
//	bool            "true" / "false"
//	integral number decimal digits, never an exponent
//	other number    shortest representation
//	anything else   compact JSON
func CoerceText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		if !strings.ContainsAny(t.String(), ".eE") {
			return t.String()
		}
		if f, err := t.Float64(); err == nil {
			return formatNumber(f)
		}
		return t.String()
	case float64:
		return formatNumber(t)
	case float32:
		return formatNumber(float64(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
