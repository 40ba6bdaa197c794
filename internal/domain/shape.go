package domain

import (
	"reflect"
	"sort"
)

// Shape is the identity-free form of a graph. Two graphs with equal shapes
// describe the same diagram even if their entity IDs differ.
type Shape struct {
	Direction    Direction
	Nodes        []NodeShape
	Edges        []EdgeShape
	StyleClasses []StyleShape
	Clusters     []ClusterShape
}

// NodeShape is a node keyed by its mermaid ID
type NodeShape struct {
	MermaidID string
	Title     string
	StyleRef  string
	Cluster   string
}

// EdgeShape is an edge with endpoints resolved to mermaid IDs
type EdgeShape struct {
	Source string
	Target string
	Label  string
	Color  string
	Kind   EdgeKind
}

// StyleShape is a style class
type StyleShape struct {
	Name          string
	RawDefinition string
}

// ClusterShape is a cluster with members resolved to mermaid IDs
type ClusterShape struct {
	MermaidID string
	Title     string
	StyleRef  string
	Members   []string
}

// Shape computes the identity-free form of g. Nodes and cluster members are
// sorted by mermaid ID; edges, style classes and clusters keep insertion order.
func (g *Graph) Shape() Shape {
	byID := make(map[string]*Node, len(g.Nodes))
	for _, n := range g.Nodes {
		byID[n.ID] = n
	}
	clusterKey := make(map[string]string, len(g.Clusters))
	for _, c := range g.Clusters {
		clusterKey[c.ID] = c.MermaidID
	}

	s := Shape{Direction: g.Direction}
	for _, n := range g.Nodes {
		s.Nodes = append(s.Nodes, NodeShape{
			MermaidID: n.MermaidID,
			Title:     n.Title,
			StyleRef:  n.StyleRef,
			Cluster:   clusterKey[n.ClusterID],
		})
	}
	sort.Slice(s.Nodes, func(i, j int) bool { return s.Nodes[i].MermaidID < s.Nodes[j].MermaidID })

	for _, e := range g.Edges {
		es := EdgeShape{Label: e.Label, Color: e.Color, Kind: e.Kind}
		if n := byID[e.SourceNodeID]; n != nil {
			es.Source = n.MermaidID
		}
		if n := byID[e.TargetNodeID]; n != nil {
			es.Target = n.MermaidID
		}
		s.Edges = append(s.Edges, es)
	}

	for _, sc := range g.StyleClasses {
		s.StyleClasses = append(s.StyleClasses, StyleShape{Name: sc.Name, RawDefinition: sc.RawDefinition})
	}

	for _, c := range g.Clusters {
		cs := ClusterShape{MermaidID: c.MermaidID, Title: c.Title, StyleRef: c.StyleRef, Members: []string{}}
		for _, id := range c.NodeIDs {
			if n := byID[id]; n != nil {
				cs.Members = append(cs.Members, n.MermaidID)
			}
		}
		sort.Strings(cs.Members)
		s.Clusters = append(s.Clusters, cs)
	}
	return s
}

// Equivalent reports whether a and b describe the same diagram
func Equivalent(a, b *Graph) bool {
	return reflect.DeepEqual(a.Shape(), b.Shape())
}
