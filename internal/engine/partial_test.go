package engine

import (
	"encoding/json"
	"testing"

	"storyweave/internal/codec"
	"storyweave/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchNodeStyle(t *testing.T) {
	t.Run("sets existing style and serializes a class line", func(t *testing.T) {
		g := startEnd(t)
		_, err := CreateStyleClass(g, "highlight", "fill:#f9f")
		require.NoError(t, err)
		source := g.Source

		a := node(t, g, "A")
		got, err := PatchNodeStyle(g, a.ID, "highlight")
		require.NoError(t, err)

		assert.Equal(t, "highlight", got.StyleRef)
		assert.Contains(t, codec.Serialize(g), "class A highlight")
		assert.Equal(t, source, g.Source)
	})

	t.Run("empty name clears", func(t *testing.T) {
		g := startEnd(t)
		_, err := CreateStyleClass(g, "highlight", "fill:#f9f")
		require.NoError(t, err)
		a := node(t, g, "A")
		a.StyleRef = "highlight"

		_, err = PatchNodeStyle(g, a.ID, "")
		require.NoError(t, err)
		assert.Empty(t, a.StyleRef)
	})

	t.Run("unknown style leaves node unchanged", func(t *testing.T) {
		g := startEnd(t)
		a := node(t, g, "A")

		_, err := PatchNodeStyle(g, a.ID, "ghost")
		var us *domain.UnresolvedStyleReferenceError
		require.ErrorAs(t, err, &us)
		assert.Empty(t, a.StyleRef)
	})

	t.Run("unknown node", func(t *testing.T) {
		g := startEnd(t)
		_, err := PatchNodeStyle(g, "missing", "")
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestImportNodeContent(t *testing.T) {
	t.Run("updates known ids and reports the rest", func(t *testing.T) {
		g := startEnd(t)

		report := ImportNodeContent(g, map[string]any{"A": "new text", "Z": "x"})

		assert.Equal(t, 1, report.UpdatedCount)
		assert.Equal(t, []string{"Z"}, report.IgnoredIDs)
		assert.Equal(t, "new text", node(t, g, "A").TextContent)
		assert.Equal(t, "End", node(t, g, "B").TextContent)
	})

	t.Run("never changes node count", func(t *testing.T) {
		g := startEnd(t)
		input := map[string]any{"A": 1, "B": nil, "C": true, "D": []any{1, 2}, "E": "e"}

		report := ImportNodeContent(g, input)

		assert.Len(t, g.Nodes, 2)
		assert.Equal(t, len(input), report.UpdatedCount+len(report.IgnoredIDs))
		assert.Equal(t, []string{"C", "D", "E"}, report.IgnoredIDs)
	})

	t.Run("empty input", func(t *testing.T) {
		report := ImportNodeContent(startEnd(t), nil)
		assert.Zero(t, report.UpdatedCount)
		assert.NotNil(t, report.IgnoredIDs)
		assert.Empty(t, report.IgnoredIDs)
	})
}

func TestCoerceText(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "hello", "hello"},
		{"nil", nil, ""},
		{"true", true, "true"},
		{"false", false, "false"},
		{"integral float", float64(42), "42"},
		{"large integral float", 1e20, "100000000000000000000"},
		{"negative integral", -3.0, "-3"},
		{"fraction", 1.5, "1.5"},
		{"int", 7, "7"},
		{"json integer beyond float precision", json.Number("12345678901234567890"), "12345678901234567890"},
		{"json fraction", json.Number("1.50"), "1.5"},
		{"object", map[string]any{"b": 1, "a": "x"}, `{"a":"x","b":1}`},
		{"array", []any{"x", 2.0, nil}, `["x",2,null]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceText(tt.in))
		})
	}
}
