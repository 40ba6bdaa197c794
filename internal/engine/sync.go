package engine

import (
	"strings"

	"storyweave/internal/codec"
	"storyweave/internal/domain"
)

// SyncPath names the branch a sync request took
type SyncPath string

const (
	PathFullResync   SyncPath = "full_resync"
	PathMetadataOnly SyncPath = "metadata_only"
)

// SyncRequest is a submitted edit of a graph. Nil fields are left alone.
type SyncRequest struct {
	Text   *string        `json:"source,omitempty"`
	Title  *string        `json:"title,omitempty"`
	Layout map[string]any `json:"layout,omitempty"`
}

// SyncResult reports which path a sync took
type SyncResult struct {
	Path  SyncPath      `json:"path"`
	Graph *domain.Graph `json:"graph"`
}

// Normalize canonicalizes DSL text for change detection: line endings become
// LF and surrounding whitespace is dropped.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimSpace(text)
}

// Sync applies req to g. When the submitted text differs from the stored
// source after normalization, the structure is rebuilt from a fresh parse;
// otherwise only title and layout change and earlier partial updates are
// preserved. On error g is unchanged.
func Sync(g *domain.Graph, req SyncRequest) (*SyncResult, error) {
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, &domain.ValidationError{Field: "title", Reason: "must not be empty"}
	}

	path := PathMetadataOnly
	if req.Text != nil && Normalize(*req.Text) != Normalize(g.Source) {
		parsed, err := codec.ParseMermaid(*req.Text)
		if err != nil {
			return nil, err
		}
		g.ReplaceStructure(parsed)
		g.Source = *req.Text
		path = PathFullResync
	}

	if req.Title != nil {
		g.Title = *req.Title
	}
	if req.Layout != nil {
		g.Layout = req.Layout
	}
	g.Touch()
	return &SyncResult{Path: path, Graph: g}, nil
}
