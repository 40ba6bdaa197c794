package service

import (
	"bytes"
	"context"
	"io"
	"strings"

	"storyweave/internal/codec"
	"storyweave/internal/domain"
	"storyweave/internal/engine"
	"storyweave/internal/logging"
	"storyweave/internal/repository"
)

// GraphService runs every graph operation as load, change in memory, save,
// publish. A failed change is never saved.
type GraphService struct {
	repo     repository.Repository
	eventBus *EventBus
}

// NewGraphService creates a new graph service
func NewGraphService(repo repository.Repository, eventBus *EventBus) *GraphService {
	return &GraphService{
		repo:     repo,
		eventBus: eventBus,
	}
}

// mutate loads a graph, applies fn and saves the result
func (s *GraphService) mutate(ctx context.Context, graphID string, fn func(g *domain.Graph) error) (*domain.Graph, error) {
	g, err := s.repo.GetGraph(ctx, graphID)
	if err != nil {
		return nil, err
	}
	if err := fn(g); err != nil {
		return nil, err
	}
	g.Touch()
	if err := s.repo.SaveGraph(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *GraphService) publish(eventType EventType, graphID string, payload map[string]any) {
	s.eventBus.Publish(Event{Type: eventType, GraphID: graphID, Payload: payload})
}

// ============================================================================
// Graph lifecycle
// ============================================================================

// CreateGraph parses source and stores it as a new graph. An empty source
// starts from the default template.
func (s *GraphService) CreateGraph(ctx context.Context, title, source string) (*domain.Graph, error) {
	if strings.TrimSpace(title) == "" {
		return nil, &domain.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if strings.TrimSpace(source) == "" {
		source = domain.DefaultSource
	}

	parsed, err := codec.ParseMermaid(source)
	if err != nil {
		return nil, err
	}
	g := domain.NewGraph(title)
	g.ReplaceStructure(parsed)
	g.Source = source

	if err := s.repo.SaveGraph(ctx, g); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("created graph", "graph", g.ID, "nodes", len(g.Nodes), "edges", len(g.Edges))
	s.publish(EventGraphCreated, g.ID, map[string]any{"title": g.Title})
	return g, nil
}

// ImportGraph stores a graph decoded from a structured snapshot. The stored
// source is regenerated from the entities.
func (s *GraphService) ImportGraph(ctx context.Context, g *domain.Graph) (*domain.Graph, error) {
	if g.Source == "" {
		g.Source = codec.Serialize(g)
	}
	if err := s.repo.SaveGraph(ctx, g); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("imported graph", "graph", g.ID, "nodes", len(g.Nodes))
	s.publish(EventGraphCreated, g.ID, map[string]any{"title": g.Title})
	return g, nil
}

// GetGraph returns a graph with all of its entities
func (s *GraphService) GetGraph(ctx context.Context, id string) (*domain.Graph, error) {
	return s.repo.GetGraph(ctx, id)
}

// ListGraphs returns summaries of all graphs
func (s *GraphService) ListGraphs(ctx context.Context) ([]domain.GraphSummary, error) {
	return s.repo.ListGraphs(ctx)
}

// DeleteGraph removes a graph and everything it owns
func (s *GraphService) DeleteGraph(ctx context.Context, id string) error {
	if err := s.repo.DeleteGraph(ctx, id); err != nil {
		return err
	}
	s.publish(EventGraphDeleted, id, nil)
	return nil
}

// ============================================================================
// Sync
// ============================================================================

// SyncStructure applies submitted text and metadata to a graph
func (s *GraphService) SyncStructure(ctx context.Context, graphID string, req engine.SyncRequest) (*engine.SyncResult, error) {
	var result *engine.SyncResult
	_, err := s.mutate(ctx, graphID, func(g *domain.Graph) error {
		var err error
		result, err = engine.Sync(g, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Debug("synced graph", "graph", graphID, "path", result.Path)
	eventType := EventStructureSynced
	if result.Path == engine.PathMetadataOnly {
		eventType = EventMetadataUpdated
	}
	s.publish(eventType, graphID, map[string]any{"path": string(result.Path)})
	return result, nil
}

// UpdateMetadata changes title and/or layout without touching the structure
func (s *GraphService) UpdateMetadata(ctx context.Context, graphID string, title *string, layout map[string]any) (*domain.Graph, error) {
	result, err := s.SyncStructure(ctx, graphID, engine.SyncRequest{Title: title, Layout: layout})
	if err != nil {
		return nil, err
	}
	return result.Graph, nil
}

// ============================================================================
// Export
// ============================================================================

// Export writes a graph in the named format
func (s *GraphService) Export(ctx context.Context, graphID, format string, w io.Writer) error {
	exporter, err := codec.ForFormat(format)
	if err != nil {
		return err
	}
	g, err := s.repo.GetGraph(ctx, graphID)
	if err != nil {
		return err
	}
	return exporter.Export(g, w)
}

// ExportMermaid regenerates the DSL text of a graph from its entities
func (s *GraphService) ExportMermaid(ctx context.Context, graphID string) (string, error) {
	var buf bytes.Buffer
	if err := s.Export(ctx, graphID, "mermaid", &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ============================================================================
// Partial updates
// ============================================================================

// PatchNodeStyle sets or clears the style class of one node
func (s *GraphService) PatchNodeStyle(ctx context.Context, graphID, nodeID, styleName string) (*domain.Node, error) {
	var node *domain.Node
	_, err := s.mutate(ctx, graphID, func(g *domain.Graph) error {
		var err error
		node, err = engine.PatchNodeStyle(g, nodeID, styleName)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(EventNodeStyleChanged, graphID, map[string]any{"node_id": nodeID, "style_ref": styleName})
	return node, nil
}

// ImportNodeContent bulk-writes node text keyed by mermaid ID
func (s *GraphService) ImportNodeContent(ctx context.Context, graphID string, content map[string]any) (engine.ImportReport, error) {
	var report engine.ImportReport
	_, err := s.mutate(ctx, graphID, func(g *domain.Graph) error {
		report = engine.ImportNodeContent(g, content)
		return nil
	})
	if err != nil {
		return engine.ImportReport{}, err
	}
	if len(report.IgnoredIDs) > 0 {
		logging.FromContext(ctx).Warn("content import ignored unknown ids", "graph", graphID, "ids", report.IgnoredIDs)
	}
	s.publish(EventContentImported, graphID, map[string]any{"updated_count": report.UpdatedCount})
	return report, nil
}

// ============================================================================
// Nodes and edges
// ============================================================================

// CreateNode adds a node to a graph
func (s *GraphService) CreateNode(ctx context.Context, graphID string, in engine.NodeInput) (*domain.Node, error) {
	var n *domain.Node
	_, err := s.mutate(ctx, graphID, func(g *domain.Graph) error {
		var err error
		n, err = engine.CreateNode(g, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(EventNodeCreated, graphID, map[string]any{"node_id": n.ID, "mermaid_id": n.MermaidID})
	return n, nil
}

// UpdateNode changes the id, title, text or style of a node
func (s *GraphService) UpdateNode(ctx context.Context, graphID, nodeID string, patch engine.NodePatch) (*domain.Node, error) {
	var n *domain.Node
	_, err := s.mutate(ctx, graphID, func(g *domain.Graph) error {
		var err error
		n, err = engine.UpdateNode(g, nodeID, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(EventNodeUpdated, graphID, map[string]any{"node_id": n.ID, "mermaid_id": n.MermaidID})
	return n, nil
}

// DeleteNode removes a node and its edges. It returns how many edges went
// with it.
func (s *GraphService) DeleteNode(ctx context.Context, graphID, nodeID string) (int, error) {
	var removed int
	_, err := s.mutate(ctx, graphID, func(g *domain.Graph) error {
		var err error
		removed, err = engine.DeleteNode(g, nodeID)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.publish(EventNodeDeleted, graphID, map[string]any{"node_id": nodeID, "edges_removed": removed})
	return removed, nil
}

// CreateEdge links two nodes of a graph
func (s *GraphService) CreateEdge(ctx context.Context, graphID string, in engine.EdgeInput) (*domain.Edge, error) {
	var e *domain.Edge
	_, err := s.mutate(ctx, graphID, func(g *domain.Graph) error {
		var err error
		e, err = engine.CreateEdge(g, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(EventEdgeCreated, graphID, map[string]any{"edge_id": e.ID})
	return e, nil
}

// UpdateEdge changes the endpoints, kind, label or colour of an edge
func (s *GraphService) UpdateEdge(ctx context.Context, graphID, edgeID string, patch engine.EdgePatch) (*domain.Edge, error) {
	var e *domain.Edge
	_, err := s.mutate(ctx, graphID, func(g *domain.Graph) error {
		var err error
		e, err = engine.UpdateEdge(g, edgeID, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(EventEdgeUpdated, graphID, map[string]any{"edge_id": e.ID})
	return e, nil
}

// DeleteEdge removes an edge from a graph
func (s *GraphService) DeleteEdge(ctx context.Context, graphID, edgeID string) error {
	_, err := s.mutate(ctx, graphID, func(g *domain.Graph) error {
		return engine.DeleteEdge(g, edgeID)
	})
	if err != nil {
		return err
	}
	s.publish(EventEdgeDeleted, graphID, map[string]any{"edge_id": edgeID})
	return nil
}

// ============================================================================
// Style classes
// ============================================================================

// ListStyleClasses returns the style classes of a graph
func (s *GraphService) ListStyleClasses(ctx context.Context, graphID string) ([]*domain.StyleClass, error) {
	g, err := s.repo.GetGraph(ctx, graphID)
	if err != nil {
		return nil, err
	}
	return g.StyleClasses, nil
}

// CreateStyleClass adds a style class to a graph
func (s *GraphService) CreateStyleClass(ctx context.Context, graphID, name, rawDefinition string) (*domain.StyleClass, error) {
	var sc *domain.StyleClass
	_, err := s.mutate(ctx, graphID, func(g *domain.Graph) error {
		var err error
		sc, err = engine.CreateStyleClass(g, name, rawDefinition)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(EventStyleClassCreated, graphID, map[string]any{"class_id": sc.ID, "name": sc.Name})
	return sc, nil
}

// UpdateStyleClass renames and/or redefines a style class
func (s *GraphService) UpdateStyleClass(ctx context.Context, graphID, classID string, patch engine.StylePatch) (*domain.StyleClass, error) {
	var sc *domain.StyleClass
	_, err := s.mutate(ctx, graphID, func(g *domain.Graph) error {
		var err error
		sc, err = engine.UpdateStyleClass(g, classID, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(EventStyleClassUpdated, graphID, map[string]any{"class_id": sc.ID, "name": sc.Name})
	return sc, nil
}

// DeleteStyleClass removes a style class and clears its references. It
// returns how many references were cleared.
func (s *GraphService) DeleteStyleClass(ctx context.Context, graphID, classID string) (int, error) {
	var cleared int
	_, err := s.mutate(ctx, graphID, func(g *domain.Graph) error {
		var err error
		cleared, err = engine.DeleteStyleClass(g, classID)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.publish(EventStyleClassDeleted, graphID, map[string]any{"class_id": classID, "cleared": cleared})
	return cleared, nil
}

// ============================================================================
// Clusters
// ============================================================================

// ClusterInput describes a cluster to create
type ClusterInput struct {
	MermaidID string   `json:"mermaid_id"`
	Title     string   `json:"title"`
	StyleRef  string   `json:"style_ref"`
	NodeIDs   []string `json:"node_ids"`
}

// CreateCluster adds a cluster to a graph
func (s *GraphService) CreateCluster(ctx context.Context, graphID string, in ClusterInput) (*domain.Cluster, error) {
	var c *domain.Cluster
	_, err := s.mutate(ctx, graphID, func(g *domain.Graph) error {
		var err error
		c, err = engine.CreateCluster(g, in.MermaidID, in.Title, in.StyleRef, in.NodeIDs)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(EventClusterCreated, graphID, map[string]any{"cluster_id": c.ID, "mermaid_id": c.MermaidID})
	return c, nil
}

// UpdateCluster changes the title and/or style of a cluster
func (s *GraphService) UpdateCluster(ctx context.Context, graphID, clusterID string, patch engine.ClusterPatch) (*domain.Cluster, error) {
	var c *domain.Cluster
	_, err := s.mutate(ctx, graphID, func(g *domain.Graph) error {
		var err error
		c, err = engine.UpdateCluster(g, clusterID, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(EventClusterUpdated, graphID, map[string]any{"cluster_id": clusterID})
	return c, nil
}

// AssignNodesToCluster replaces the membership of a cluster
func (s *GraphService) AssignNodesToCluster(ctx context.Context, graphID, clusterID string, nodeIDs []string) (*domain.Cluster, error) {
	return s.changeMembers(ctx, graphID, clusterID, nodeIDs, engine.AssignNodesToCluster)
}

// UnassignNodesFromCluster releases members of a cluster
func (s *GraphService) UnassignNodesFromCluster(ctx context.Context, graphID, clusterID string, nodeIDs []string) (*domain.Cluster, error) {
	return s.changeMembers(ctx, graphID, clusterID, nodeIDs, engine.UnassignNodesFromCluster)
}

func (s *GraphService) changeMembers(ctx context.Context, graphID, clusterID string, nodeIDs []string,
	op func(*domain.Graph, string, []string) (*domain.Cluster, error)) (*domain.Cluster, error) {
	var c *domain.Cluster
	_, err := s.mutate(ctx, graphID, func(g *domain.Graph) error {
		var err error
		c, err = op(g, clusterID, nodeIDs)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(EventClusterMembersChanged, graphID, map[string]any{"cluster_id": clusterID, "members": len(c.NodeIDs)})
	return c, nil
}

// DeleteCluster releases all members of a cluster and removes it
func (s *GraphService) DeleteCluster(ctx context.Context, graphID, clusterID string) (int, error) {
	var released int
	_, err := s.mutate(ctx, graphID, func(g *domain.Graph) error {
		var err error
		released, err = engine.DeleteCluster(g, clusterID)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.publish(EventClusterDeleted, graphID, map[string]any{"cluster_id": clusterID, "released": released})
	return released, nil
}
