package engine

import (
	"testing"

	"storyweave/internal/codec"
	"storyweave/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEdge(t *testing.T) {
	t.Run("appends a coloured edge", func(t *testing.T) {
		g := startEnd(t)
		a, b := node(t, g, "A"), node(t, g, "B")

		e, err := CreateEdge(g, EdgeInput{SourceNodeID: b.ID, TargetNodeID: a.ID, Label: "back | again", Color: "#f00"})
		require.NoError(t, err)

		assert.Equal(t, domain.EdgeVisible, e.Kind)
		assert.Equal(t, g.ID, e.GraphID)
		text := codec.Serialize(g)
		assert.Contains(t, text, "B -->|back #124; again| A")
		assert.Contains(t, text, "linkStyle 1 stroke:#f00")
		assert.NoError(t, g.Validate())
	})

	t.Run("rejects bad input without changes", func(t *testing.T) {
		g := startEnd(t)
		other := startEnd(t)
		a, b := node(t, g, "A"), node(t, g, "B")

		tests := []struct {
			name string
			in   EdgeInput
		}{
			{"unknown source", EdgeInput{SourceNodeID: "missing", TargetNodeID: b.ID}},
			{"foreign target", EdgeInput{SourceNodeID: a.ID, TargetNodeID: node(t, other, "B").ID}},
			{"self loop", EdgeInput{SourceNodeID: a.ID, TargetNodeID: a.ID}},
			{"unknown kind", EdgeInput{SourceNodeID: a.ID, TargetNodeID: b.ID, Kind: "DOTTED"}},
			{"padded label", EdgeInput{SourceNodeID: a.ID, TargetNodeID: b.ID, Label: " then"}},
			{"multi-line label", EdgeInput{SourceNodeID: a.ID, TargetNodeID: b.ID, Label: "a\nb"}},
			{"colour with comma", EdgeInput{SourceNodeID: a.ID, TargetNodeID: b.ID, Color: "red,blue"}},
		}
		for _, tt := range tests {
			_, err := CreateEdge(g, tt.in)
			assert.True(t, domain.IsInvalid(err), "%s: %v", tt.name, err)
		}
		assert.Len(t, g.Edges, 1)
	})
}

func TestUpdateEdge(t *testing.T) {
	t.Run("changes fields in place", func(t *testing.T) {
		g, err := parseForTest("graph TD\nA --> B\nB --> C")
		require.NoError(t, err)
		first := g.Edges[0]

		kind := domain.EdgeInvisible
		_, err = UpdateEdge(g, first.ID, EdgePatch{
			TargetNodeID: ptr(node(t, g, "C").ID),
			Kind:         &kind,
			Label:        ptr("skip"),
			Color:        ptr("blue"),
		})
		require.NoError(t, err)

		assert.Same(t, first, g.Edges[0])
		text := codec.Serialize(g)
		assert.Contains(t, text, "A -.->|skip| C")
		assert.Contains(t, text, "linkStyle 0 stroke:blue")

		_, err = UpdateEdge(g, first.ID, EdgePatch{Label: ptr(""), Color: ptr("")})
		require.NoError(t, err)
		assert.Empty(t, first.Label)
		assert.Empty(t, first.Color)
		assert.NoError(t, g.Validate())
	})

	t.Run("rejects bad input without changes", func(t *testing.T) {
		g := startEnd(t)
		e := g.Edges[0]
		a := node(t, g, "A")
		bad := domain.EdgeKind("")

		for _, patch := range []EdgePatch{
			{TargetNodeID: ptr(a.ID), Label: ptr("x")},
			{SourceNodeID: ptr("missing")},
			{Kind: &bad},
			{Label: ptr("x\n"), Color: ptr("red")},
			{Color: ptr("a|b")},
		} {
			_, err := UpdateEdge(g, e.ID, patch)
			assert.True(t, domain.IsInvalid(err), "%+v: %v", patch, err)
		}
		assert.Equal(t, a.ID, e.SourceNodeID)
		assert.Equal(t, node(t, g, "B").ID, e.TargetNodeID)
		assert.Equal(t, domain.EdgeVisible, e.Kind)
		assert.Empty(t, e.Label)
		assert.Empty(t, e.Color)

		_, err := UpdateEdge(g, "missing", EdgePatch{})
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestDeleteEdge(t *testing.T) {
	g, err := parseForTest("graph TD\nA --> B\nB --> C\nlinkStyle 1 stroke:red")
	require.NoError(t, err)
	first := g.Edges[0]

	require.NoError(t, DeleteEdge(g, first.ID))

	require.Len(t, g.Edges, 1)
	assert.Equal(t, "red", g.Edges[0].Color)
	assert.Contains(t, codec.Serialize(g), "linkStyle 0 stroke:red")
	assert.Len(t, g.Nodes, 3)
	assert.True(t, domain.IsNotFound(DeleteEdge(g, first.ID)))
}
