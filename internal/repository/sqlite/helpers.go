package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"storyweave/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// ============================================================================
// Time Helpers
// ============================================================================

// timeLayout is RFC3339 with fixed-width nanoseconds so stored values sort
// as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals interface to nullable JSON string
// Returns empty NullString for nil or empty maps
func marshalToNull(v map[string]any) (sql.NullString, error) {
	if len(v) == 0 {
		return sql.NullString{}, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a new column to a child table:
// 1. Add field to the row struct (below)
// 2. Update scanArgs() - APPEND to end to match column order
// 3. Update the columns constant - APPEND to end
// 4. Update toDomain() and the insert args helper
// 5. Add migration in sqlite.go migrate() using addColumnIfNotExists()
//
// CRITICAL: Column order must match between the columns constant, scanArgs()
// and the insert args helper.

// ============================================================================
// Graph Row Scanner
// ============================================================================

type graphRow struct {
	ID         string
	Title      string
	Direction  string
	Source     string
	LayoutJSON sql.NullString
	CreatedAt  string
	UpdatedAt  string
}

// MUST match graphColumns order exactly
func (r *graphRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,         // 1
		&r.Title,      // 2
		&r.Direction,  // 3
		&r.Source,     // 4
		&r.LayoutJSON, // 5
		&r.CreatedAt,  // 6
		&r.UpdatedAt,  // 7
	}
}

func (r *graphRow) toDomain() (*domain.Graph, error) {
	g := &domain.Graph{
		ID:           r.ID,
		Title:        r.Title,
		Direction:    domain.Direction(r.Direction),
		Source:       r.Source,
		Nodes:        make([]*domain.Node, 0),
		Edges:        make([]*domain.Edge, 0),
		StyleClasses: make([]*domain.StyleClass, 0),
		Clusters:     make([]*domain.Cluster, 0),
	}

	var err error
	if g.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if g.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if err := unmarshalJSONField(r.LayoutJSON, &g.Layout); err != nil {
		return nil, fmt.Errorf("unmarshal layout: %w", err)
	}
	return g, nil
}

const graphColumns = `id, title, direction, source, layout, created_at, updated_at`

func graphInsertArgs(g *domain.Graph) ([]interface{}, error) {
	layoutJSON, err := marshalToNull(g.Layout)
	if err != nil {
		return nil, fmt.Errorf("marshal layout: %w", err)
	}
	return []interface{}{
		g.ID,
		g.Title,
		string(g.Direction),
		g.Source,
		layoutJSON,
		formatTime(g.CreatedAt),
		formatTime(g.UpdatedAt),
	}, nil
}

// ============================================================================
// Node Row Scanner
// ============================================================================

type nodeRow struct {
	ID              string
	GraphID         string
	MermaidID       string
	Title           sql.NullString
	TextContent     string
	StyleRef        sql.NullString
	ClusterID       sql.NullString
	ClusterPosition sql.NullInt64
}

// MUST match nodeColumns order exactly
func (r *nodeRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,              // 1
		&r.GraphID,         // 2
		&r.MermaidID,       // 3
		&r.Title,           // 4
		&r.TextContent,     // 5
		&r.StyleRef,        // 6
		&r.ClusterID,       // 7
		&r.ClusterPosition, // 8
	}
}

func (r *nodeRow) toDomain() *domain.Node {
	return &domain.Node{
		ID:          r.ID,
		GraphID:     r.GraphID,
		MermaidID:   r.MermaidID,
		Title:       nullToString(r.Title),
		TextContent: r.TextContent,
		StyleRef:    nullToString(r.StyleRef),
		ClusterID:   nullToString(r.ClusterID),
	}
}

const nodeColumns = `id, graph_id, mermaid_id, title, text_content, style_ref, cluster_id, cluster_position`

// nodeInsertArgs returns nodeColumns values followed by the node position
func nodeInsertArgs(n *domain.Node, position int, clusterPosition sql.NullInt64) []interface{} {
	return []interface{}{
		n.ID,
		n.GraphID,
		n.MermaidID,
		stringToNull(n.Title),
		n.TextContent,
		stringToNull(n.StyleRef),
		stringToNull(n.ClusterID),
		clusterPosition,
		position,
	}
}

// ============================================================================
// Edge Row Scanner
// ============================================================================

type edgeRow struct {
	ID           string
	GraphID      string
	SourceNodeID string
	TargetNodeID string
	Label        sql.NullString
	Color        sql.NullString
	Kind         string
}

// MUST match edgeColumns order exactly
func (r *edgeRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,           // 1
		&r.GraphID,      // 2
		&r.SourceNodeID, // 3
		&r.TargetNodeID, // 4
		&r.Label,        // 5
		&r.Color,        // 6
		&r.Kind,         // 7
	}
}

func (r *edgeRow) toDomain() *domain.Edge {
	return &domain.Edge{
		ID:           r.ID,
		GraphID:      r.GraphID,
		SourceNodeID: r.SourceNodeID,
		TargetNodeID: r.TargetNodeID,
		Label:        nullToString(r.Label),
		Color:        nullToString(r.Color),
		Kind:         domain.EdgeKind(r.Kind),
	}
}

const edgeColumns = `id, graph_id, source_node_id, target_node_id, label, color, kind`

func edgeInsertArgs(e *domain.Edge, position int) []interface{} {
	return []interface{}{
		e.ID,
		e.GraphID,
		e.SourceNodeID,
		e.TargetNodeID,
		stringToNull(e.Label),
		stringToNull(e.Color),
		string(e.Kind),
		position,
	}
}

// ============================================================================
// Style Class and Cluster Rows
// ============================================================================

const styleClassColumns = `id, graph_id, name, raw_definition`

const clusterColumns = `id, graph_id, mermaid_id, title, style_ref`

func clusterInsertArgs(c *domain.Cluster, position int) []interface{} {
	return []interface{}{
		c.ID,
		c.GraphID,
		c.MermaidID,
		stringToNull(c.Title),
		stringToNull(c.StyleRef),
		position,
	}
}
