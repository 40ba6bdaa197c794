package engine

import (
	"fmt"
	"slices"
	"strings"

	"storyweave/internal/domain"

	"github.com/google/uuid"
)

// ClusterPatch carries the fields of a cluster update; nil fields are kept.
// An empty StyleRef clears the style.
type ClusterPatch struct {
	Title    *string `json:"title,omitempty"`
	StyleRef *string `json:"style_ref,omitempty"`
}

// newClusterMermaidID returns an id of the form sg_xxxxxxxx
func newClusterMermaidID(g *domain.Graph) string {
	for {
		id := "sg_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		if g.ClusterByMermaidID(id) == nil && g.NodeByMermaidID(id) == nil {
			return id
		}
	}
}

// resolveNodes maps entity IDs to nodes of g, dropping repeats
func resolveNodes(g *domain.Graph, nodeIDs []string) ([]*domain.Node, error) {
	nodes := make([]*domain.Node, 0, len(nodeIDs))
	seen := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		if seen[id] {
			continue
		}
		n := g.Node(id)
		if n == nil || n.GraphID != g.ID {
			return nil, &domain.UnresolvedNodeReferenceError{ID: id}
		}
		seen[id] = true
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// CreateCluster adds a cluster and moves the listed nodes into it. An empty
// mermaidID gets a generated one.
func CreateCluster(g *domain.Graph, mermaidID, title, styleRef string, nodeIDs []string) (*domain.Cluster, error) {
	if mermaidID == "" {
		mermaidID = newClusterMermaidID(g)
	}
	if !domain.ValidMermaidID(mermaidID) {
		return nil, &domain.ValidationError{Field: "mermaid_id", Reason: fmt.Sprintf("%q is not a valid id", mermaidID)}
	}
	if err := g.AssertUniqueClusterID(mermaidID); err != nil {
		return nil, err
	}
	if g.NodeByMermaidID(mermaidID) != nil {
		return nil, &domain.DuplicateIDError{Kind: domain.KindCluster, ID: mermaidID}
	}
	if err := domain.CheckLabel("title", title); err != nil {
		return nil, err
	}
	if err := g.AssertStyleExists(styleRef); err != nil {
		return nil, err
	}
	nodes, err := resolveNodes(g, nodeIDs)
	if err != nil {
		return nil, err
	}

	c := g.AddCluster(mermaidID, title)
	c.StyleRef = styleRef
	for _, n := range nodes {
		c.Attach(n, g.Cluster(n.ClusterID))
	}
	return c, nil
}

// UpdateCluster changes the title and/or style of a cluster
func UpdateCluster(g *domain.Graph, clusterID string, patch ClusterPatch) (*domain.Cluster, error) {
	if err := g.AssertClusterExists(clusterID); err != nil {
		return nil, err
	}
	if patch.Title != nil {
		if err := domain.CheckLabel("title", *patch.Title); err != nil {
			return nil, err
		}
	}
	if patch.StyleRef != nil {
		if err := g.AssertStyleExists(*patch.StyleRef); err != nil {
			return nil, err
		}
	}

	c := g.Cluster(clusterID)
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.StyleRef != nil {
		c.StyleRef = *patch.StyleRef
	}
	return c, nil
}

// AssignNodesToCluster makes nodeIDs the exact membership of the cluster.
// Members not listed are released; listed nodes leave any other cluster.
func AssignNodesToCluster(g *domain.Graph, clusterID string, nodeIDs []string) (*domain.Cluster, error) {
	if err := g.AssertClusterExists(clusterID); err != nil {
		return nil, err
	}
	nodes, err := resolveNodes(g, nodeIDs)
	if err != nil {
		return nil, err
	}

	c := g.Cluster(clusterID)
	keep := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		keep[n.ID] = true
	}
	for _, n := range g.Members(c) {
		if !keep[n.ID] {
			c.Detach(n)
		}
	}
	for _, n := range nodes {
		c.Attach(n, g.Cluster(n.ClusterID))
	}
	return c, nil
}

// UnassignNodesFromCluster releases the listed members of the cluster
func UnassignNodesFromCluster(g *domain.Graph, clusterID string, nodeIDs []string) (*domain.Cluster, error) {
	if err := g.AssertClusterExists(clusterID); err != nil {
		return nil, err
	}
	c := g.Cluster(clusterID)
	nodes, err := resolveNodes(g, nodeIDs)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if !slices.Contains(c.NodeIDs, n.ID) {
			return nil, &domain.ValidationError{Field: "node_ids", Reason: fmt.Sprintf("node %s is not in cluster %s", n.MermaidID, c.MermaidID)}
		}
	}

	for _, n := range nodes {
		c.Detach(n)
	}
	return c, nil
}

// DeleteCluster releases every member of the cluster and removes it. It
// returns how many nodes were released.
func DeleteCluster(g *domain.Graph, clusterID string) (int, error) {
	if err := g.AssertClusterExists(clusterID); err != nil {
		return 0, err
	}

	c := g.Cluster(clusterID)
	members := g.Members(c)
	for _, n := range members {
		c.Detach(n)
	}
	g.Clusters = slices.DeleteFunc(g.Clusters, func(other *domain.Cluster) bool { return other.ID == clusterID })
	return len(members), nil
}
