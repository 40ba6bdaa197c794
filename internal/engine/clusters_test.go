package engine

import (
	"regexp"
	"testing"

	"storyweave/internal/codec"
	"storyweave/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseForTest(src string) (*domain.Graph, error) {
	g, err := codec.ParseMermaid(src)
	if err != nil {
		return nil, err
	}
	g.Title = "story"
	return g, nil
}

func TestCreateCluster(t *testing.T) {
	t.Run("generates a mermaid id", func(t *testing.T) {
		g := startEnd(t)
		a := node(t, g, "A")

		c, err := CreateCluster(g, "", "Act One", "", []string{a.ID})
		require.NoError(t, err)

		assert.Regexp(t, regexp.MustCompile(`^sg_[0-9a-f]{8}$`), c.MermaidID)
		assert.Equal(t, c.ID, a.ClusterID)
		assert.NoError(t, g.Validate())
	})

	t.Run("moves nodes out of their previous cluster", func(t *testing.T) {
		g := startEnd(t)
		a := node(t, g, "A")
		first, err := CreateCluster(g, "first", "", "", []string{a.ID})
		require.NoError(t, err)

		second, err := CreateCluster(g, "second", "", "", []string{a.ID})
		require.NoError(t, err)

		assert.Empty(t, first.NodeIDs)
		assert.Equal(t, second.ID, a.ClusterID)
		assert.NoError(t, g.Validate())
	})

	t.Run("rejects bad input without changes", func(t *testing.T) {
		g := startEnd(t)
		_, err := CreateCluster(g, "sg1", "", "", nil)
		require.NoError(t, err)

		_, err = CreateCluster(g, "sg1", "", "", nil)
		assert.True(t, domain.IsConflict(err))

		_, err = CreateCluster(g, "A", "", "", nil)
		assert.True(t, domain.IsConflict(err))

		_, err = CreateCluster(g, "bad id", "", "", nil)
		assert.True(t, domain.IsInvalid(err))

		_, err = CreateCluster(g, "sg4", "Act\nOne", "", nil)
		assert.True(t, domain.IsInvalid(err))

		_, err = CreateCluster(g, "end", "", "", nil)
		assert.True(t, domain.IsInvalid(err))

		_, err = CreateCluster(g, "sg2", "", "ghost", nil)
		var us *domain.UnresolvedStyleReferenceError
		assert.ErrorAs(t, err, &us)

		_, err = CreateCluster(g, "sg3", "", "", []string{"nope"})
		var un *domain.UnresolvedNodeReferenceError
		assert.ErrorAs(t, err, &un)

		assert.Len(t, g.Clusters, 1)
	})
}

func TestUpdateCluster(t *testing.T) {
	g := startEnd(t)
	_, err := CreateStyleClass(g, "hot", "fill:red")
	require.NoError(t, err)
	c, err := CreateCluster(g, "sg1", "Old", "", nil)
	require.NoError(t, err)

	_, err = UpdateCluster(g, c.ID, ClusterPatch{Title: ptr("New"), StyleRef: ptr("hot")})
	require.NoError(t, err)
	assert.Equal(t, "New", c.Title)
	assert.Equal(t, "hot", c.StyleRef)

	_, err = UpdateCluster(g, c.ID, ClusterPatch{Title: ptr("Newer"), StyleRef: ptr("ghost")})
	require.Error(t, err)
	assert.Equal(t, "New", c.Title)

	_, err = UpdateCluster(g, c.ID, ClusterPatch{Title: ptr("two\rlines")})
	assert.True(t, domain.IsInvalid(err))
	assert.Equal(t, "New", c.Title)

	_, err = UpdateCluster(g, c.ID, ClusterPatch{StyleRef: ptr("")})
	require.NoError(t, err)
	assert.Empty(t, c.StyleRef)

	_, err = UpdateCluster(g, "missing", ClusterPatch{})
	assert.True(t, domain.IsNotFound(err))
}

func TestAssignNodesToCluster(t *testing.T) {
	t.Run("strict replace", func(t *testing.T) {
		g := startEnd(t)
		a, b := node(t, g, "A"), node(t, g, "B")
		sg1, err := CreateCluster(g, "sg1", "", "", nil)
		require.NoError(t, err)

		_, err = AssignNodesToCluster(g, sg1.ID, []string{a.ID, b.ID})
		require.NoError(t, err)
		_, err = AssignNodesToCluster(g, sg1.ID, []string{a.ID})
		require.NoError(t, err)

		assert.Empty(t, b.ClusterID)
		assert.Equal(t, sg1.ID, a.ClusterID)
		assert.Equal(t, []string{a.ID}, sg1.NodeIDs)
		assert.NoError(t, g.Validate())
	})

	t.Run("every listed node joins and every dropped member leaves", func(t *testing.T) {
		g, err := parseForTest("graph TD\nsubgraph sg1\nA\nB\nC\nend\nsubgraph sg2\nD\nend\nE")
		require.NoError(t, err)
		sg1 := g.ClusterByMermaidID("sg1")
		sg2 := g.ClusterByMermaidID("sg2")
		ids := []string{node(t, g, "C").ID, node(t, g, "D").ID, node(t, g, "E").ID}

		_, err = AssignNodesToCluster(g, sg1.ID, ids)
		require.NoError(t, err)

		for _, id := range ids {
			assert.Equal(t, sg1.ID, g.Node(id).ClusterID)
		}
		assert.Empty(t, node(t, g, "A").ClusterID)
		assert.Empty(t, node(t, g, "B").ClusterID)
		assert.Empty(t, sg2.NodeIDs)
		assert.NoError(t, g.Validate())
	})

	t.Run("unknown node leaves membership unchanged", func(t *testing.T) {
		g := startEnd(t)
		a := node(t, g, "A")
		sg1, err := CreateCluster(g, "sg1", "", "", []string{a.ID})
		require.NoError(t, err)

		_, err = AssignNodesToCluster(g, sg1.ID, []string{"nope"})
		var un *domain.UnresolvedNodeReferenceError
		require.ErrorAs(t, err, &un)
		assert.Equal(t, sg1.ID, a.ClusterID)
	})

	t.Run("node from another graph is rejected", func(t *testing.T) {
		g := startEnd(t)
		other := startEnd(t)
		sg1, err := CreateCluster(g, "sg1", "", "", nil)
		require.NoError(t, err)

		_, err = AssignNodesToCluster(g, sg1.ID, []string{node(t, other, "A").ID})
		var un *domain.UnresolvedNodeReferenceError
		assert.ErrorAs(t, err, &un)
	})
}

func TestUnassignNodesFromCluster(t *testing.T) {
	g := startEnd(t)
	a, b := node(t, g, "A"), node(t, g, "B")
	sg1, err := CreateCluster(g, "sg1", "", "", []string{a.ID})
	require.NoError(t, err)

	_, err = UnassignNodesFromCluster(g, sg1.ID, []string{a.ID, b.ID})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, sg1.ID, a.ClusterID)

	_, err = UnassignNodesFromCluster(g, sg1.ID, []string{a.ID})
	require.NoError(t, err)
	assert.Empty(t, a.ClusterID)
	assert.Empty(t, sg1.NodeIDs)
}

func TestDeleteCluster(t *testing.T) {
	g, err := parseForTest("graph TD\nsubgraph sg1\nA\nB\nend\nC")
	require.NoError(t, err)
	sg1 := g.ClusterByMermaidID("sg1")

	released, err := DeleteCluster(g, sg1.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, released)
	assert.Empty(t, g.Clusters)
	assert.Len(t, g.Nodes, 3)
	for _, n := range g.Nodes {
		assert.Empty(t, n.ClusterID)
	}
	assert.NoError(t, g.Validate())

	_, err = DeleteCluster(g, sg1.ID)
	assert.True(t, domain.IsNotFound(err))
}
