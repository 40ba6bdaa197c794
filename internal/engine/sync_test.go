package engine

import (
	"testing"

	"storyweave/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	inputs := []string{
		"graph TD\nA --> B",
		"graph TD\r\nA --> B",
		"graph TD\rA --> B",
		"\n\n  graph TD\r\nA --> B\r\n  \t",
	}
	want := "graph TD\nA --> B"
	for _, in := range inputs {
		got := Normalize(in)
		assert.Equal(t, want, got)
		assert.Equal(t, got, Normalize(got))
	}
}

func TestSync(t *testing.T) {
	t.Run("new text takes the full resync path", func(t *testing.T) {
		g := startEnd(t)
		id := g.ID
		text := "graph LR\nX[One] --> Y[Two]\nY --> Z"

		res, err := Sync(g, SyncRequest{Text: &text, Title: ptr("renamed")})
		require.NoError(t, err)

		assert.Equal(t, PathFullResync, res.Path)
		assert.Same(t, g, res.Graph)
		assert.Equal(t, id, g.ID)
		assert.Equal(t, "renamed", g.Title)
		assert.Equal(t, domain.DirectionLR, g.Direction)
		assert.Equal(t, text, g.Source)
		assert.Len(t, g.Nodes, 3)
		assert.Nil(t, g.NodeByMermaidID("A"))
		for _, n := range g.Nodes {
			assert.Equal(t, id, n.GraphID)
		}
		assert.NoError(t, g.Validate())
	})

	t.Run("line ending changes keep partial updates", func(t *testing.T) {
		g := startEnd(t)
		ImportNodeContent(g, map[string]any{"A": "edited"})
		text := "\r\n" + g.Source + "\r\n\r\n"
		layout := map[string]any{"zoom": 1.0}

		res, err := Sync(g, SyncRequest{Text: &text, Layout: layout})
		require.NoError(t, err)

		assert.Equal(t, PathMetadataOnly, res.Path)
		assert.Equal(t, "edited", node(t, g, "A").TextContent)
		assert.Equal(t, layout, g.Layout)
		assert.NotEqual(t, text, g.Source)
	})

	t.Run("no text is metadata only", func(t *testing.T) {
		g := startEnd(t)
		res, err := Sync(g, SyncRequest{Title: ptr("new title")})
		require.NoError(t, err)
		assert.Equal(t, PathMetadataOnly, res.Path)
		assert.Equal(t, "new title", g.Title)
	})

	t.Run("parse failure leaves graph untouched", func(t *testing.T) {
		g := startEnd(t)
		before := g.Clone()
		text := "graph TD\nA[One]\nA[Two]"

		_, err := Sync(g, SyncRequest{Text: &text, Title: ptr("other")})
		assert.True(t, domain.IsConflict(err))
		assert.Equal(t, before, g)
	})

	t.Run("empty title is rejected", func(t *testing.T) {
		g := startEnd(t)
		text := "graph LR\nQ"

		_, err := Sync(g, SyncRequest{Text: &text, Title: ptr("  ")})
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "title", ve.Field)
		assert.Equal(t, domain.DirectionTD, g.Direction)
	})
}
