package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"storyweave/internal/domain"
)

// JSONCodec handles JSON snapshots of a graph
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return FormatJSON
}

// Parse imports a graph snapshot from JSON. The snapshot must satisfy every
// graph invariant.
func (c *JSONCodec) Parse(r io.Reader) (*domain.Graph, error) {
	var g domain.Graph
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&g); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if g.Nodes == nil {
		g.Nodes = make([]*domain.Node, 0)
	}
	if g.Edges == nil {
		g.Edges = make([]*domain.Edge, 0)
	}
	if g.StyleClasses == nil {
		g.StyleClasses = make([]*domain.StyleClass, 0)
	}
	if g.Clusters == nil {
		g.Clusters = make([]*domain.Cluster, 0)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Export writes g as indented JSON
func (c *JSONCodec) Export(g *domain.Graph, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(g); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
