package domain

import "github.com/google/uuid"

// EdgeKind is how a link between two nodes is drawn
type EdgeKind string

const (
	EdgeVisible   EdgeKind = "VISIBLE"
	EdgeInvisible EdgeKind = "INVISIBLE"
)

// Valid reports whether k is a known kind
func (k EdgeKind) Valid() bool {
	return k == EdgeVisible || k == EdgeInvisible
}

// Edge is a directed link between two nodes of the same graph
type Edge struct {
	ID           string   `json:"id"`
	GraphID      string   `json:"graph_id"`
	SourceNodeID string   `json:"source_node_id"`
	TargetNodeID string   `json:"target_node_id"`
	Label        string   `json:"label,omitempty"`
	Color        string   `json:"color,omitempty"`
	Kind         EdgeKind `json:"kind"`
}

// NewEdge creates a new edge
func NewEdge(graphID, sourceNodeID, targetNodeID string, kind EdgeKind) *Edge {
	if kind == "" {
		kind = EdgeVisible
	}
	return &Edge{
		ID:           uuid.NewString(),
		GraphID:      graphID,
		SourceNodeID: sourceNodeID,
		TargetNodeID: targetNodeID,
		Kind:         kind,
	}
}
