package domain

import "fmt"

// AssertUniqueNodeID fails when a node of g already uses mermaidID
func (g *Graph) AssertUniqueNodeID(mermaidID string) error {
	if g.NodeByMermaidID(mermaidID) != nil {
		return &DuplicateIDError{Kind: KindNode, ID: mermaidID}
	}
	return nil
}

// AssertUniqueClusterID fails when a cluster of g already uses mermaidID
func (g *Graph) AssertUniqueClusterID(mermaidID string) error {
	if g.ClusterByMermaidID(mermaidID) != nil {
		return &DuplicateIDError{Kind: KindCluster, ID: mermaidID}
	}
	return nil
}

// AssertUniqueStyleName fails when another style class of g is called name.
// exceptID lets an update keep its own name.
func (g *Graph) AssertUniqueStyleName(name, exceptID string) error {
	if sc := g.StyleClassByName(name); sc != nil && sc.ID != exceptID {
		return &DuplicateIDError{Kind: KindStyleClass, ID: name}
	}
	return nil
}

// AssertStyleExists fails unless name is empty or names a style class of g
func (g *Graph) AssertStyleExists(name string) error {
	if name == "" || g.StyleClassByName(name) != nil {
		return nil
	}
	return &UnresolvedStyleReferenceError{Name: name}
}

// AssertSameGraph fails unless both endpoints of e are nodes of g
func (g *Graph) AssertSameGraph(e *Edge) error {
	for _, id := range []string{e.SourceNodeID, e.TargetNodeID} {
		n := g.Node(id)
		if n == nil || n.GraphID != g.ID {
			return &UnresolvedNodeReferenceError{ID: id}
		}
	}
	return nil
}

// AssertClusterExists fails unless id is a cluster of g
func (g *Graph) AssertClusterExists(id string) error {
	if c := g.Cluster(id); c == nil || c.GraphID != g.ID {
		return &NotFoundError{Kind: KindCluster, ID: id}
	}
	return nil
}

// Validate checks every structural invariant of g
func (g *Graph) Validate() error {
	if g.Title == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if _, ok := ParseDirection(string(g.Direction)); !ok {
		return &ValidationError{Field: "direction", Reason: fmt.Sprintf("unknown direction %q", g.Direction)}
	}

	styles := make(map[string]bool, len(g.StyleClasses))
	for _, sc := range g.StyleClasses {
		if sc.GraphID != g.ID {
			return &ValidationError{Field: "style_class", Reason: fmt.Sprintf("%s belongs to another graph", sc.Name)}
		}
		if !ValidStyleName(sc.Name) {
			return &ValidationError{Field: "name", Reason: fmt.Sprintf("%q is not a valid class name", sc.Name)}
		}
		if styles[sc.Name] {
			return &DuplicateIDError{Kind: KindStyleClass, ID: sc.Name}
		}
		if err := CheckStyleDefinition(sc.RawDefinition); err != nil {
			return err
		}
		styles[sc.Name] = true
	}

	clusters := make(map[string]*Cluster, len(g.Clusters))
	clusterKeys := make(map[string]bool, len(g.Clusters))
	for _, c := range g.Clusters {
		if c.GraphID != g.ID {
			return &ValidationError{Field: "cluster", Reason: fmt.Sprintf("%s belongs to another graph", c.MermaidID)}
		}
		if !ValidMermaidID(c.MermaidID) {
			return &ValidationError{Field: "mermaid_id", Reason: fmt.Sprintf("%q is not a valid id", c.MermaidID)}
		}
		if clusterKeys[c.MermaidID] {
			return &DuplicateIDError{Kind: KindCluster, ID: c.MermaidID}
		}
		if err := CheckLabel("title", c.Title); err != nil {
			return err
		}
		if c.StyleRef != "" && !styles[c.StyleRef] {
			return &UnresolvedStyleReferenceError{Name: c.StyleRef}
		}
		clusterKeys[c.MermaidID] = true
		clusters[c.ID] = c
	}

	nodes := make(map[string]*Node, len(g.Nodes))
	nodeKeys := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.GraphID != g.ID {
			return &UnresolvedNodeReferenceError{ID: n.MermaidID}
		}
		if !ValidMermaidID(n.MermaidID) {
			return &ValidationError{Field: "mermaid_id", Reason: fmt.Sprintf("%q is not a valid id", n.MermaidID)}
		}
		if nodeKeys[n.MermaidID] || clusterKeys[n.MermaidID] {
			return &DuplicateIDError{Kind: KindNode, ID: n.MermaidID}
		}
		if err := CheckLabel("title", n.Title); err != nil {
			return err
		}
		if n.StyleRef != "" && !styles[n.StyleRef] {
			return &UnresolvedStyleReferenceError{Name: n.StyleRef}
		}
		if n.ClusterID != "" {
			c, ok := clusters[n.ClusterID]
			if !ok {
				return &NotFoundError{Kind: KindCluster, ID: n.ClusterID}
			}
			if !c.HasMember(n.ID) {
				return &ValidationError{Field: "cluster_id", Reason: fmt.Sprintf("cluster %s does not list node %s", c.MermaidID, n.MermaidID)}
			}
		}
		nodeKeys[n.MermaidID] = true
		nodes[n.ID] = n
	}

	for _, c := range g.Clusters {
		for _, id := range c.NodeIDs {
			n, ok := nodes[id]
			if !ok {
				return &UnresolvedNodeReferenceError{ID: id}
			}
			if n.ClusterID != c.ID {
				return &ValidationError{Field: "node_ids", Reason: fmt.Sprintf("node %s does not point back to cluster %s", n.MermaidID, c.MermaidID)}
			}
		}
	}

	for _, e := range g.Edges {
		if e.GraphID != g.ID {
			return &ValidationError{Field: "edge", Reason: "edge belongs to another graph"}
		}
		if !e.Kind.Valid() {
			return &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown edge kind %q", e.Kind)}
		}
		if err := CheckEdgeLabel(e.Label); err != nil {
			return err
		}
		if err := CheckColor(e.Color); err != nil {
			return err
		}
		if err := g.AssertSameGraph(e); err != nil {
			return err
		}
	}

	return nil
}
