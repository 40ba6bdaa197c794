package domain

import "github.com/google/uuid"

// Node is a single unit of the narrative (a paragraph, a scene) in a graph
type Node struct {
	ID          string `json:"id"`
	GraphID     string `json:"graph_id"`
	MermaidID   string `json:"mermaid_id"`
	Title       string `json:"title,omitempty"`
	TextContent string `json:"text_content"`

	// StyleRef names a StyleClass of the same graph; empty means unstyled
	StyleRef string `json:"style_ref,omitempty"`
	// ClusterID is the entity ID of the owning Cluster; empty means unclustered
	ClusterID string `json:"cluster_id,omitempty"`
}

// NewNode creates a node whose text content defaults to its title, or to its
// mermaid ID when it has no title
func NewNode(graphID, mermaidID, title string) *Node {
	text := title
	if text == "" {
		text = mermaidID
	}
	return &Node{
		ID:          uuid.NewString(),
		GraphID:     graphID,
		MermaidID:   mermaidID,
		Title:       title,
		TextContent: text,
	}
}

// Label returns the text shown in the diagram box
func (n *Node) Label() string {
	if n.Title != "" {
		return n.Title
	}
	return n.MermaidID
}
