package engine

import (
	"testing"

	"storyweave/internal/codec"
	"storyweave/internal/domain"

	"github.com/stretchr/testify/require"
)

// startEnd parses the two-node graph used across the engine tests
func startEnd(t *testing.T) *domain.Graph {
	t.Helper()
	g, err := codec.ParseMermaid("graph TD\nA[Start] --> B[End]")
	require.NoError(t, err)
	g.Title = "story"
	return g
}

func node(t *testing.T, g *domain.Graph, mermaidID string) *domain.Node {
	t.Helper()
	n := g.NodeByMermaidID(mermaidID)
	require.NotNil(t, n, mermaidID)
	return n
}

func ptr[T any](v T) *T { return &v }
