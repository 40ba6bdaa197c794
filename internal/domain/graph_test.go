package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSampleGraph builds A --> B with a style class and one cluster holding A
func newSampleGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph("sample")
	a := g.AddNode("A", "Start")
	b := g.AddNode("B", "End")
	g.AddEdge(a, b, EdgeVisible, "")
	g.AddStyleClass("highlight", "fill:#f9f")
	c := g.AddCluster("sg1", "Act One")
	c.Attach(a, nil)
	require.NoError(t, g.Validate())
	return g
}

func TestNewGraph(t *testing.T) {
	t.Run("creates empty graph with initialized collections", func(t *testing.T) {
		g := NewGraph("story")

		assert.NotEmpty(t, g.ID)
		assert.Equal(t, "story", g.Title)
		assert.Equal(t, DirectionTD, g.Direction)
		assert.Equal(t, DefaultSource, g.Source)
		assert.NotNil(t, g.Nodes)
		assert.NotNil(t, g.Edges)
		assert.NotNil(t, g.StyleClasses)
		assert.NotNil(t, g.Clusters)
		assert.NoError(t, g.Validate())
	})
}

func TestNewNode(t *testing.T) {
	t.Run("text content defaults to title", func(t *testing.T) {
		n := NewNode("g", "A", "Start")
		assert.Equal(t, "Start", n.TextContent)
		assert.Equal(t, "Start", n.Label())
	})

	t.Run("text content falls back to mermaid id", func(t *testing.T) {
		n := NewNode("g", "A", "")
		assert.Equal(t, "A", n.TextContent)
		assert.Equal(t, "A", n.Label())
	})
}

func TestParseDirection(t *testing.T) {
	for _, s := range []string{"TD", "TB", "BT", "LR", "RL"} {
		d, ok := ParseDirection(s)
		assert.True(t, ok, s)
		assert.Equal(t, Direction(s), d)
	}
	_, ok := ParseDirection("XY")
	assert.False(t, ok)
}

func TestClusterAttachDetach(t *testing.T) {
	g := newSampleGraph(t)
	a := g.NodeByMermaidID("A")
	sg1 := g.ClusterByMermaidID("sg1")
	sg2 := g.AddCluster("sg2", "")

	t.Run("attach moves node between clusters", func(t *testing.T) {
		sg2.Attach(a, sg1)
		assert.Equal(t, sg2.ID, a.ClusterID)
		assert.False(t, sg1.HasMember(a.ID))
		assert.True(t, sg2.HasMember(a.ID))
		assert.NoError(t, g.Validate())
	})

	t.Run("attach twice keeps a single membership entry", func(t *testing.T) {
		sg2.Attach(a, sg2)
		assert.Len(t, sg2.NodeIDs, 1)
	})

	t.Run("detach clears both sides", func(t *testing.T) {
		sg2.Detach(a)
		assert.Empty(t, a.ClusterID)
		assert.Empty(t, sg2.NodeIDs)
		assert.NoError(t, g.Validate())
	})
}

func TestGraphMembers(t *testing.T) {
	g := newSampleGraph(t)
	members := g.Members(g.ClusterByMermaidID("sg1"))
	require.Len(t, members, 1)
	assert.Equal(t, "A", members[0].MermaidID)
}

func TestGraphClone(t *testing.T) {
	g := newSampleGraph(t)
	g.Layout = map[string]any{"zoom": 1.5}
	cp := g.Clone()

	cp.Nodes[0].Title = "changed"
	cp.Clusters[0].NodeIDs = nil
	cp.Layout["zoom"] = 2.0

	assert.Equal(t, "Start", g.Nodes[0].Title)
	assert.Len(t, g.Clusters[0].NodeIDs, 1)
	assert.Equal(t, 1.5, g.Layout["zoom"])
	assert.True(t, Equivalent(g, g.Clone()))
}

func TestGraphReplaceStructure(t *testing.T) {
	g := newSampleGraph(t)
	other := NewGraph("other")
	other.Direction = DirectionLR
	other.AddNode("X", "")

	g.ReplaceStructure(other)

	assert.Equal(t, DirectionLR, g.Direction)
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, g.ID, g.Nodes[0].GraphID)
	assert.Empty(t, g.Clusters)
	assert.NoError(t, g.Validate())
}

func TestEquivalent(t *testing.T) {
	t.Run("ignores entity ids and node order", func(t *testing.T) {
		a := NewGraph("a")
		a.AddNode("A", "Start")
		a.AddNode("B", "")

		b := NewGraph("b")
		b.AddNode("B", "")
		b.AddNode("A", "Start")

		assert.True(t, Equivalent(a, b))
	})

	t.Run("detects a different style assignment", func(t *testing.T) {
		a := newSampleGraph(t)
		b := a.Clone()
		b.NodeByMermaidID("B").StyleRef = "highlight"
		assert.False(t, Equivalent(a, b))
	})

	t.Run("detects a different edge kind", func(t *testing.T) {
		a := newSampleGraph(t)
		b := a.Clone()
		b.Edges[0].Kind = EdgeInvisible
		assert.False(t, Equivalent(a, b))
	})
}
