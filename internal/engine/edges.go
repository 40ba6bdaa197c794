package engine

import (
	"fmt"
	"slices"

	"storyweave/internal/domain"
)

// EdgeInput describes an edge to create. An empty Kind means VISIBLE.
type EdgeInput struct {
	SourceNodeID string          `json:"source_node_id"`
	TargetNodeID string          `json:"target_node_id"`
	Kind         domain.EdgeKind `json:"kind,omitempty"`
	Label        string          `json:"label,omitempty"`
	Color        string          `json:"color,omitempty"`
}

// EdgePatch carries the fields of an edge update; nil fields are kept.
// An empty Label or Color clears it.
type EdgePatch struct {
	SourceNodeID *string          `json:"source_node_id,omitempty"`
	TargetNodeID *string          `json:"target_node_id,omitempty"`
	Kind         *domain.EdgeKind `json:"kind,omitempty"`
	Label        *string          `json:"label,omitempty"`
	Color        *string          `json:"color,omitempty"`
}

// checkEdge fails unless e links two distinct nodes of g and its drawable
// fields can be written in the DSL
func checkEdge(g *domain.Graph, e *domain.Edge) error {
	if err := g.AssertSameGraph(e); err != nil {
		return err
	}
	if e.SourceNodeID == e.TargetNodeID {
		return &domain.ValidationError{Field: "target_node_id", Reason: "source and target must be different nodes"}
	}
	if !e.Kind.Valid() {
		return &domain.ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown edge kind %q", e.Kind)}
	}
	if err := domain.CheckEdgeLabel(e.Label); err != nil {
		return err
	}
	return domain.CheckColor(e.Color)
}

// CreateEdge links two nodes of g
func CreateEdge(g *domain.Graph, in EdgeInput) (*domain.Edge, error) {
	e := domain.NewEdge(g.ID, in.SourceNodeID, in.TargetNodeID, in.Kind)
	e.Label = in.Label
	e.Color = in.Color
	if err := checkEdge(g, e); err != nil {
		return nil, err
	}
	g.Edges = append(g.Edges, e)
	return e, nil
}

// UpdateEdge changes the endpoints, kind, label or colour of an edge. The
// edge keeps its position, so its linkStyle index is stable.
func UpdateEdge(g *domain.Graph, edgeID string, patch EdgePatch) (*domain.Edge, error) {
	e := g.Edge(edgeID)
	if e == nil {
		return nil, &domain.NotFoundError{Kind: domain.KindEdge, ID: edgeID}
	}

	next := *e
	if patch.SourceNodeID != nil {
		next.SourceNodeID = *patch.SourceNodeID
	}
	if patch.TargetNodeID != nil {
		next.TargetNodeID = *patch.TargetNodeID
	}
	if patch.Kind != nil {
		next.Kind = *patch.Kind
	}
	if patch.Label != nil {
		next.Label = *patch.Label
	}
	if patch.Color != nil {
		next.Color = *patch.Color
	}
	if err := checkEdge(g, &next); err != nil {
		return nil, err
	}
	*e = next
	return e, nil
}

// DeleteEdge removes an edge from g
func DeleteEdge(g *domain.Graph, edgeID string) error {
	if g.Edge(edgeID) == nil {
		return &domain.NotFoundError{Kind: domain.KindEdge, ID: edgeID}
	}
	g.Edges = slices.DeleteFunc(g.Edges, func(e *domain.Edge) bool { return e.ID == edgeID })
	return nil
}
