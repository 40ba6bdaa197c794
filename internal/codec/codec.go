package codec

import (
	"fmt"
	"io"

	"storyweave/internal/domain"
)

// Format names
const (
	FormatMermaid = "mermaid"
	FormatJSON    = "json"
	FormatYAML    = "yaml"
)

// Importer builds a graph from an external representation
type Importer interface {
	Parse(r io.Reader) (*domain.Graph, error)
	Format() string
}

// Exporter writes a graph to an external representation
type Exporter interface {
	Export(g *domain.Graph, w io.Writer) error
	Format() string
}

// Codec both imports and exports one format
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec registered under name
func ForFormat(name string) (Codec, error) {
	switch name {
	case "", FormatMermaid, "mmd":
		return NewMermaidCodec(), nil
	case FormatJSON:
		return NewJSONCodec(), nil
	case FormatYAML, "yml":
		return NewYAMLCodec(), nil
	}
	return nil, &domain.ValidationError{Field: "format", Reason: fmt.Sprintf("unsupported format %q", name)}
}

// ForPath picks a codec from a file extension, defaulting to mermaid
func ForPath(path string) Codec {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			if c, err := ForFormat(path[i+1:]); err == nil {
				return c
			}
			break
		}
	}
	return NewMermaidCodec()
}
