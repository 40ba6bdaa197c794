package engine

import "storyweave/internal/domain"

// PatchNodeStyle sets or clears the style class of a node. An empty name
// clears it.
func PatchNodeStyle(g *domain.Graph, nodeID, styleName string) (*domain.Node, error) {
	n := g.Node(nodeID)
	if n == nil {
		return nil, &domain.NotFoundError{Kind: domain.KindNode, ID: nodeID}
	}
	if err := g.AssertStyleExists(styleName); err != nil {
		return nil, err
	}
	n.StyleRef = styleName
	return n, nil
}
