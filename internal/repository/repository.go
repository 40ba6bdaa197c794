package repository

import (
	"context"

	"storyweave/internal/domain"
)

// Repository defines the interface for graph persistence
type Repository interface {
	// Read operations
	GetGraph(ctx context.Context, id string) (*domain.Graph, error)
	ListGraphs(ctx context.Context) ([]domain.GraphSummary, error)

	// Write operations

	// SaveGraph stores g and all of its children in one transaction,
	// replacing whatever was stored under g.ID. Graphs failing
	// Validate are refused.
	SaveGraph(ctx context.Context, g *domain.Graph) error
	DeleteGraph(ctx context.Context, id string) error

	// Close releases resources
	Close() error
}
