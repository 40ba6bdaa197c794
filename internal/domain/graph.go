package domain

import (
	"time"

	"github.com/google/uuid"
)

// Direction is the flow direction declared on the first line of the DSL
type Direction string

const (
	DirectionTD Direction = "TD"
	DirectionTB Direction = "TB"
	DirectionBT Direction = "BT"
	DirectionLR Direction = "LR"
	DirectionRL Direction = "RL"
)

// DefaultSource is the template text a new graph starts from
const DefaultSource = "graph TD"

// ParseDirection returns the Direction for s and whether it is known
func ParseDirection(s string) (Direction, bool) {
	switch d := Direction(s); d {
	case DirectionTD, DirectionTB, DirectionBT, DirectionLR, DirectionRL:
		return d, true
	}
	return "", false
}

// Graph is one narrative diagram: the stored DSL text plus its structured entities.
//
// Source and the structured entities are two views of the same diagram. They
// are only reconciled on a full resync (parse) or an export (serialize);
// partial updates leave Source stale on purpose.
type Graph struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Direction Direction      `json:"direction"`
	Source    string         `json:"source"`
	Layout    map[string]any `json:"layout,omitempty"`

	Nodes        []*Node       `json:"nodes"`
	Edges        []*Edge       `json:"edges"`
	StyleClasses []*StyleClass `json:"style_classes"`
	Clusters     []*Cluster    `json:"clusters"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GraphSummary is the list view of a graph
type GraphSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Direction Direction `json:"direction"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewGraph creates an empty graph with a fresh ID
func NewGraph(title string) *Graph {
	now := time.Now().UTC()
	return &Graph{
		ID:           uuid.NewString(),
		Title:        title,
		Direction:    DirectionTD,
		Source:       DefaultSource,
		Nodes:        make([]*Node, 0),
		Edges:        make([]*Edge, 0),
		StyleClasses: make([]*StyleClass, 0),
		Clusters:     make([]*Cluster, 0),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Summary returns the list view of g
func (g *Graph) Summary() GraphSummary {
	return GraphSummary{
		ID:        g.ID,
		Title:     g.Title,
		Direction: g.Direction,
		NodeCount: len(g.Nodes),
		EdgeCount: len(g.Edges),
		UpdatedAt: g.UpdatedAt,
	}
}

// Touch bumps UpdatedAt
func (g *Graph) Touch() {
	g.UpdatedAt = time.Now().UTC()
}

// AddNode appends a node owned by g
func (g *Graph) AddNode(mermaidID, title string) *Node {
	n := NewNode(g.ID, mermaidID, title)
	g.Nodes = append(g.Nodes, n)
	return n
}

// AddEdge appends an edge between two nodes of g
func (g *Graph) AddEdge(source, target *Node, kind EdgeKind, label string) *Edge {
	e := NewEdge(g.ID, source.ID, target.ID, kind)
	e.Label = label
	g.Edges = append(g.Edges, e)
	return e
}

// AddStyleClass appends a style class owned by g
func (g *Graph) AddStyleClass(name, rawDefinition string) *StyleClass {
	sc := NewStyleClass(g.ID, name, rawDefinition)
	g.StyleClasses = append(g.StyleClasses, sc)
	return sc
}

// AddCluster appends an empty cluster owned by g
func (g *Graph) AddCluster(mermaidID, title string) *Cluster {
	c := NewCluster(g.ID, mermaidID, title)
	g.Clusters = append(g.Clusters, c)
	return c
}

// Node looks up a node by entity ID
func (g *Graph) Node(id string) *Node {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// NodeByMermaidID looks up a node by its DSL identifier
func (g *Graph) NodeByMermaidID(mermaidID string) *Node {
	for _, n := range g.Nodes {
		if n.MermaidID == mermaidID {
			return n
		}
	}
	return nil
}

// Edge looks up an edge by entity ID
func (g *Graph) Edge(id string) *Edge {
	for _, e := range g.Edges {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Cluster looks up a cluster by entity ID
func (g *Graph) Cluster(id string) *Cluster {
	for _, c := range g.Clusters {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// ClusterByMermaidID looks up a cluster by its DSL identifier
func (g *Graph) ClusterByMermaidID(mermaidID string) *Cluster {
	for _, c := range g.Clusters {
		if c.MermaidID == mermaidID {
			return c
		}
	}
	return nil
}

// StyleClass looks up a style class by entity ID
func (g *Graph) StyleClass(id string) *StyleClass {
	for _, sc := range g.StyleClasses {
		if sc.ID == id {
			return sc
		}
	}
	return nil
}

// StyleClassByName looks up a style class by name
func (g *Graph) StyleClassByName(name string) *StyleClass {
	for _, sc := range g.StyleClasses {
		if sc.Name == name {
			return sc
		}
	}
	return nil
}

// Members returns the nodes of cluster c in node insertion order
func (g *Graph) Members(c *Cluster) []*Node {
	members := make([]*Node, 0, len(c.NodeIDs))
	for _, n := range g.Nodes {
		if n.ClusterID == c.ID {
			members = append(members, n)
		}
	}
	return members
}

// ReplaceStructure swaps every structural entity of g for those of other.
// Identity and metadata of g are kept; children are re-owned by g.
func (g *Graph) ReplaceStructure(other *Graph) {
	g.Direction = other.Direction
	g.Nodes = other.Nodes
	g.Edges = other.Edges
	g.StyleClasses = other.StyleClasses
	g.Clusters = other.Clusters

	for _, n := range g.Nodes {
		n.GraphID = g.ID
	}
	for _, e := range g.Edges {
		e.GraphID = g.ID
	}
	for _, sc := range g.StyleClasses {
		sc.GraphID = g.ID
	}
	for _, c := range g.Clusters {
		c.GraphID = g.ID
	}
}

// Clone returns a deep copy of g
func (g *Graph) Clone() *Graph {
	out := *g
	if g.Layout != nil {
		out.Layout = make(map[string]any, len(g.Layout))
		for k, v := range g.Layout {
			out.Layout[k] = v
		}
	}

	out.Nodes = make([]*Node, len(g.Nodes))
	for i, n := range g.Nodes {
		cp := *n
		out.Nodes[i] = &cp
	}
	out.Edges = make([]*Edge, len(g.Edges))
	for i, e := range g.Edges {
		cp := *e
		out.Edges[i] = &cp
	}
	out.StyleClasses = make([]*StyleClass, len(g.StyleClasses))
	for i, sc := range g.StyleClasses {
		cp := *sc
		out.StyleClasses[i] = &cp
	}
	out.Clusters = make([]*Cluster, len(g.Clusters))
	for i, c := range g.Clusters {
		cp := *c
		cp.NodeIDs = append([]string(nil), c.NodeIDs...)
		out.Clusters[i] = &cp
	}
	return &out
}
