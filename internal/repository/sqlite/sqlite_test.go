package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"storyweave/internal/codec"
	"storyweave/internal/domain"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	require.NoError(t, err, "failed to create test repository")
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

// sampleGraph parses a graph touching every table
func sampleGraph(t *testing.T, title string) *domain.Graph {
	t.Helper()
	g, err := codec.ParseMermaid(`graph LR
    subgraph act2[Act Two]
        D
        C[Climax]
    end
    subgraph act1
        A[Opening]
    end
    A -->|then| C
    C -.-> D[Ending]
    B --> A
    linkStyle 1 stroke:#f00
    classDef hot fill:#f96
    classDef cold fill:#69f
    class A hot
    class act2 cold
`)
	require.NoError(t, err)
	g.Title = title
	g.Layout = map[string]any{"zoom": 1.5, "pan": map[string]any{"x": 10.0}}
	g.NodeByMermaidID("A").TextContent = "It was a dark and stormy night."
	return g
}

// ============================================================================
// Graph Tests
// ============================================================================

func TestSaveAndGetGraph(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	g := sampleGraph(t, "story")

	require.NoError(t, repo.SaveGraph(ctx, g))

	got, err := repo.GetGraph(ctx, g.ID)
	require.NoError(t, err)

	assert.Equal(t, g.Title, got.Title)
	assert.Equal(t, g.Source, got.Source)
	assert.Equal(t, g.Layout, got.Layout)
	assert.True(t, g.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, g.UpdatedAt.Equal(got.UpdatedAt))

	// Entity IDs, order and membership order survive exactly
	if diff := cmp.Diff(g.Nodes, got.Nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(g.Edges, got.Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(g.StyleClasses, got.StyleClasses); diff != "" {
		t.Errorf("style classes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(g.Clusters, got.Clusters); diff != "" {
		t.Errorf("clusters mismatch (-want +got):\n%s", diff)
	}
	assert.NoError(t, got.Validate())
}

func TestSaveGraph_ReplacesChildren(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	g := sampleGraph(t, "story")
	require.NoError(t, repo.SaveGraph(ctx, g))

	replacement, err := codec.ParseMermaid("graph TD\nX --> Y")
	require.NoError(t, err)
	g.ReplaceStructure(replacement)
	g.Layout = nil
	require.NoError(t, repo.SaveGraph(ctx, g))

	got, err := repo.GetGraph(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionTD, got.Direction)
	assert.Len(t, got.Nodes, 2)
	assert.Len(t, got.Edges, 1)
	assert.Empty(t, got.Clusters)
	assert.Empty(t, got.StyleClasses)
	assert.Nil(t, got.Layout)
}

func TestSaveGraph_RefusesInvalidGraph(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	g := sampleGraph(t, "story")
	require.NoError(t, repo.SaveGraph(ctx, g))

	g.NodeByMermaidID("B").StyleRef = "ghost"
	err := repo.SaveGraph(ctx, g)
	var us *domain.UnresolvedStyleReferenceError
	require.ErrorAs(t, err, &us)

	got, err := repo.GetGraph(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, got.NodeByMermaidID("B").StyleRef)
}

func TestGetGraph_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetGraph(context.Background(), "missing")
	assert.True(t, domain.IsNotFound(err))
}

func TestListGraphs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	empty, err := repo.ListGraphs(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	older := sampleGraph(t, "older")
	older.UpdatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.SaveGraph(ctx, older))

	newer := domain.NewGraph("newer")
	require.NoError(t, repo.SaveGraph(ctx, newer))

	list, err := repo.ListGraphs(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Title)
	assert.Equal(t, 0, list[0].NodeCount)
	assert.Equal(t, "older", list[1].Title)
	assert.Equal(t, 4, list[1].NodeCount)
	assert.Equal(t, 3, list[1].EdgeCount)
	assert.Equal(t, domain.DirectionLR, list[1].Direction)
}

func TestDeleteGraph(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	g := sampleGraph(t, "story")
	require.NoError(t, repo.SaveGraph(ctx, g))

	require.NoError(t, repo.DeleteGraph(ctx, g.ID))

	_, err := repo.GetGraph(ctx, g.ID)
	assert.True(t, domain.IsNotFound(err))

	var orphans int
	require.NoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM nodes`).Scan(&orphans))
	assert.Zero(t, orphans, "children should cascade")

	assert.True(t, domain.IsNotFound(repo.DeleteGraph(ctx, g.ID)))
}

func TestGraphsAreIsolated(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	one := sampleGraph(t, "one")
	two := sampleGraph(t, "two")
	require.NoError(t, repo.SaveGraph(ctx, one))
	require.NoError(t, repo.SaveGraph(ctx, two))

	require.NoError(t, repo.DeleteGraph(ctx, one.ID))

	got, err := repo.GetGraph(ctx, two.ID)
	require.NoError(t, err)
	assert.Len(t, got.Nodes, 4)
	assert.True(t, domain.Equivalent(two, got))
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storyweave.db")
	ctx := context.Background()

	repo, err := New(path)
	require.NoError(t, err)
	g := sampleGraph(t, "story")
	require.NoError(t, repo.SaveGraph(ctx, g))
	require.NoError(t, repo.Close())

	repo, err = New(path)
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.GetGraph(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "#f00", got.Edges[1].Color)
}
