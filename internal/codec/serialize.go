package codec

import (
	"fmt"
	"strings"

	"storyweave/internal/domain"
)

const indent = "    "

// Serialize renders g as canonical DSL text. Output order is fixed: the
// direction line, one subgraph block per cluster, unclustered nodes, edges,
// linkStyle lines, classDef lines, then class assignments for nodes and
// clusters. Parsing the result yields a graph equivalent to g.
func Serialize(g *domain.Graph) string {
	var b strings.Builder
	fmt.Fprintf(&b, "graph %s\n", g.Direction)

	for _, cl := range g.Clusters {
		b.WriteString(indent + "subgraph " + cl.MermaidID)
		if cl.Title != "" {
			b.WriteString("[" + formatLabel(cl.Title) + "]")
		}
		b.WriteString("\n")
		for _, n := range g.Members(cl) {
			b.WriteString(indent + indent + nodeDecl(n) + "\n")
		}
		b.WriteString(indent + "end\n")
	}

	for _, n := range g.Nodes {
		if n.ClusterID == "" {
			b.WriteString(indent + nodeDecl(n) + "\n")
		}
	}

	byID := make(map[string]*domain.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		byID[n.ID] = n
	}
	for _, e := range g.Edges {
		src, tgt := byID[e.SourceNodeID], byID[e.TargetNodeID]
		if src == nil || tgt == nil {
			continue
		}
		arrow := "-->"
		if e.Kind == domain.EdgeInvisible {
			arrow = "-.->"
		}
		if e.Label != "" {
			arrow += "|" + entityEncoder.Replace(e.Label) + "|"
		}
		fmt.Fprintf(&b, "%s%s %s %s\n", indent, src.MermaidID, arrow, tgt.MermaidID)
	}

	for i, e := range g.Edges {
		if e.Color != "" {
			fmt.Fprintf(&b, "%slinkStyle %d stroke:%s\n", indent, i, e.Color)
		}
	}

	for _, sc := range g.StyleClasses {
		fmt.Fprintf(&b, "%sclassDef %s %s\n", indent, sc.Name, sc.RawDefinition)
	}

	for _, n := range g.Nodes {
		if n.StyleRef != "" {
			fmt.Fprintf(&b, "%sclass %s %s\n", indent, n.MermaidID, n.StyleRef)
		}
	}
	for _, cl := range g.Clusters {
		if cl.StyleRef != "" {
			fmt.Fprintf(&b, "%sclass %s %s\n", indent, cl.MermaidID, cl.StyleRef)
		}
	}

	return b.String()
}

func nodeDecl(n *domain.Node) string {
	if n.Title == "" {
		return n.MermaidID
	}
	return n.MermaidID + "[" + formatLabel(n.Title) + "]"
}

// formatLabel quotes a label unless it is made only of plain characters
func formatLabel(label string) string {
	if !needsQuotes(label) {
		return label
	}
	return `"` + entityEncoder.Replace(label) + `"`
}

func needsQuotes(label string) bool {
	if strings.TrimSpace(label) != label {
		return true
	}
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("_ .,:;!?'-", r):
		default:
			return true
		}
	}
	return false
}
