package domain

import (
	"slices"

	"github.com/google/uuid"
)

// Cluster is a named, styled grouping of nodes (a subgraph block)
type Cluster struct {
	ID        string `json:"id"`
	GraphID   string `json:"graph_id"`
	MermaidID string `json:"mermaid_id"`
	Title     string `json:"title,omitempty"`
	StyleRef  string `json:"style_ref,omitempty"`
	// NodeIDs mirrors Node.ClusterID of every member
	NodeIDs []string `json:"node_ids"`
}

// NewCluster creates an empty cluster
func NewCluster(graphID, mermaidID, title string) *Cluster {
	return &Cluster{
		ID:        uuid.NewString(),
		GraphID:   graphID,
		MermaidID: mermaidID,
		Title:     title,
		NodeIDs:   make([]string, 0),
	}
}

// HasMember reports whether nodeID is in the membership set
func (c *Cluster) HasMember(nodeID string) bool {
	return slices.Contains(c.NodeIDs, nodeID)
}

// Attach moves n into c, detaching it from prev when it belonged elsewhere
func (c *Cluster) Attach(n *Node, prev *Cluster) {
	if prev != nil && prev != c {
		prev.detach(n.ID)
	}
	if !c.HasMember(n.ID) {
		c.NodeIDs = append(c.NodeIDs, n.ID)
	}
	n.ClusterID = c.ID
}

// Detach removes n from c
func (c *Cluster) Detach(n *Node) {
	c.detach(n.ID)
	if n.ClusterID == c.ID {
		n.ClusterID = ""
	}
}

func (c *Cluster) detach(nodeID string) {
	c.NodeIDs = slices.DeleteFunc(c.NodeIDs, func(id string) bool { return id == nodeID })
}
