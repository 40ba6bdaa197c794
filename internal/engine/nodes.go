package engine

import (
	"fmt"
	"slices"

	"storyweave/internal/domain"
)

// NodeInput describes a node to create. Text defaults to the title, or to
// the mermaid ID when there is no title.
type NodeInput struct {
	MermaidID   string  `json:"mermaid_id"`
	Title       string  `json:"title,omitempty"`
	TextContent *string `json:"text_content,omitempty"`
	StyleRef    string  `json:"style_ref,omitempty"`
	ClusterID   string  `json:"cluster_id,omitempty"`
}

// NodePatch carries the fields of a node update; nil fields are kept.
// An empty StyleRef clears the style.
type NodePatch struct {
	MermaidID   *string `json:"mermaid_id,omitempty"`
	Title       *string `json:"title,omitempty"`
	TextContent *string `json:"text_content,omitempty"`
	StyleRef    *string `json:"style_ref,omitempty"`
}

// checkNodeKey fails unless mermaidID is a usable id not taken by another
// node or by a cluster. exceptID lets an update keep its own id.
func checkNodeKey(g *domain.Graph, mermaidID, exceptID string) error {
	if !domain.ValidMermaidID(mermaidID) {
		return &domain.ValidationError{Field: "mermaid_id", Reason: fmt.Sprintf("%q is not a valid id", mermaidID)}
	}
	if n := g.NodeByMermaidID(mermaidID); n != nil && n.ID != exceptID {
		return &domain.DuplicateIDError{Kind: domain.KindNode, ID: mermaidID}
	}
	if g.ClusterByMermaidID(mermaidID) != nil {
		return &domain.DuplicateIDError{Kind: domain.KindNode, ID: mermaidID}
	}
	return nil
}

// CreateNode adds a node to g, optionally inside an existing cluster
func CreateNode(g *domain.Graph, in NodeInput) (*domain.Node, error) {
	if err := checkNodeKey(g, in.MermaidID, ""); err != nil {
		return nil, err
	}
	if err := domain.CheckLabel("title", in.Title); err != nil {
		return nil, err
	}
	if err := g.AssertStyleExists(in.StyleRef); err != nil {
		return nil, err
	}
	if in.ClusterID != "" {
		if err := g.AssertClusterExists(in.ClusterID); err != nil {
			return nil, err
		}
	}

	n := g.AddNode(in.MermaidID, in.Title)
	if in.TextContent != nil {
		n.TextContent = *in.TextContent
	}
	n.StyleRef = in.StyleRef
	if in.ClusterID != "" {
		g.Cluster(in.ClusterID).Attach(n, nil)
	}
	return n, nil
}

// UpdateNode renames, retitles, rewrites or restyles a node. Edges and
// cluster membership follow the node since they refer to its entity ID.
func UpdateNode(g *domain.Graph, nodeID string, patch NodePatch) (*domain.Node, error) {
	n := g.Node(nodeID)
	if n == nil {
		return nil, &domain.NotFoundError{Kind: domain.KindNode, ID: nodeID}
	}
	if patch.MermaidID != nil {
		if err := checkNodeKey(g, *patch.MermaidID, n.ID); err != nil {
			return nil, err
		}
	}
	if patch.Title != nil {
		if err := domain.CheckLabel("title", *patch.Title); err != nil {
			return nil, err
		}
	}
	if patch.StyleRef != nil {
		if err := g.AssertStyleExists(*patch.StyleRef); err != nil {
			return nil, err
		}
	}

	if patch.MermaidID != nil {
		n.MermaidID = *patch.MermaidID
	}
	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.TextContent != nil {
		n.TextContent = *patch.TextContent
	}
	if patch.StyleRef != nil {
		n.StyleRef = *patch.StyleRef
	}
	return n, nil
}

// DeleteNode removes a node together with every edge touching it and its
// cluster membership. It returns how many edges were removed.
func DeleteNode(g *domain.Graph, nodeID string) (int, error) {
	n := g.Node(nodeID)
	if n == nil {
		return 0, &domain.NotFoundError{Kind: domain.KindNode, ID: nodeID}
	}

	if c := g.Cluster(n.ClusterID); c != nil {
		c.Detach(n)
	}
	before := len(g.Edges)
	g.Edges = slices.DeleteFunc(g.Edges, func(e *domain.Edge) bool {
		return e.SourceNodeID == nodeID || e.TargetNodeID == nodeID
	})
	g.Nodes = slices.DeleteFunc(g.Nodes, func(other *domain.Node) bool { return other.ID == nodeID })
	return before - len(g.Edges), nil
}
