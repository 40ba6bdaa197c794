package codec

import (
	"fmt"
	"io"

	"storyweave/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles portable YAML snapshots. References are written as
// mermaid IDs so a snapshot can be edited by hand and re-imported.
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return FormatYAML
}

// yamlGraph represents the YAML structure for a graph
type yamlGraph struct {
	Title        string           `yaml:"title"`
	Direction    string           `yaml:"direction"`
	Layout       map[string]any   `yaml:"layout,omitempty"`
	StyleClasses []yamlStyleClass `yaml:"style_classes,omitempty"`
	Clusters     []yamlCluster    `yaml:"clusters,omitempty"`
	Nodes        []yamlNode       `yaml:"nodes"`
	Edges        []yamlEdge       `yaml:"edges,omitempty"`
}

type yamlStyleClass struct {
	Name       string `yaml:"name"`
	Definition string `yaml:"definition"`
}

type yamlCluster struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title,omitempty"`
	Style string `yaml:"style,omitempty"`
}

type yamlNode struct {
	ID      string `yaml:"id"`
	Title   string `yaml:"title,omitempty"`
	Text    string `yaml:"text,omitempty"`
	Style   string `yaml:"style,omitempty"`
	Cluster string `yaml:"cluster,omitempty"`
}

type yamlEdge struct {
	From  string `yaml:"from"`
	To    string `yaml:"to"`
	Label string `yaml:"label,omitempty"`
	Color string `yaml:"color,omitempty"`
	Kind  string `yaml:"kind,omitempty"`
}

// Parse imports a graph from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Graph, error) {
	var yg yamlGraph
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&yg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	title := yg.Title
	if title == "" {
		title = UntitledGraph
	}
	g := domain.NewGraph(title)
	g.Layout = yg.Layout
	if yg.Direction != "" {
		dir, ok := domain.ParseDirection(yg.Direction)
		if !ok {
			return nil, &domain.ValidationError{Field: "direction", Reason: fmt.Sprintf("unknown direction %q", yg.Direction)}
		}
		g.Direction = dir
	}

	for _, ys := range yg.StyleClasses {
		if err := g.AssertUniqueStyleName(ys.Name, ""); err != nil {
			return nil, err
		}
		g.AddStyleClass(ys.Name, domain.NormalizeStyleDefinition(ys.Definition))
	}

	for _, yc := range yg.Clusters {
		if err := g.AssertUniqueClusterID(yc.ID); err != nil {
			return nil, err
		}
		cl := g.AddCluster(yc.ID, yc.Title)
		cl.StyleRef = yc.Style
	}

	// Convert nodes
	for _, yn := range yg.Nodes {
		if err := g.AssertUniqueNodeID(yn.ID); err != nil {
			return nil, err
		}
		n := g.AddNode(yn.ID, yn.Title)
		n.StyleRef = yn.Style
		if yn.Text != "" {
			n.TextContent = yn.Text
		}
		if yn.Cluster != "" {
			cl := g.ClusterByMermaidID(yn.Cluster)
			if cl == nil {
				return nil, &domain.NotFoundError{Kind: domain.KindCluster, ID: yn.Cluster}
			}
			cl.Attach(n, nil)
		}
	}

	// Convert edges
	for _, ye := range yg.Edges {
		src := g.NodeByMermaidID(ye.From)
		if src == nil {
			return nil, &domain.UnresolvedNodeReferenceError{ID: ye.From}
		}
		tgt := g.NodeByMermaidID(ye.To)
		if tgt == nil {
			return nil, &domain.UnresolvedNodeReferenceError{ID: ye.To}
		}
		e := g.AddEdge(src, tgt, domain.EdgeKind(ye.Kind), ye.Label)
		e.Color = ye.Color
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	g.Source = Serialize(g)
	return g, nil
}

// Export writes g as YAML
func (c *YAMLCodec) Export(g *domain.Graph, w io.Writer) error {
	byID := make(map[string]*domain.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		byID[n.ID] = n
	}

	yg := yamlGraph{
		Title:     g.Title,
		Direction: string(g.Direction),
		Layout:    g.Layout,
		Nodes:     make([]yamlNode, 0, len(g.Nodes)),
	}
	for _, sc := range g.StyleClasses {
		yg.StyleClasses = append(yg.StyleClasses, yamlStyleClass{Name: sc.Name, Definition: sc.RawDefinition})
	}
	for _, cl := range g.Clusters {
		yg.Clusters = append(yg.Clusters, yamlCluster{ID: cl.MermaidID, Title: cl.Title, Style: cl.StyleRef})
	}
	for _, n := range g.Nodes {
		yn := yamlNode{ID: n.MermaidID, Title: n.Title, Text: n.TextContent, Style: n.StyleRef}
		if cl := g.Cluster(n.ClusterID); cl != nil {
			yn.Cluster = cl.MermaidID
		}
		yg.Nodes = append(yg.Nodes, yn)
	}
	for _, e := range g.Edges {
		src, tgt := byID[e.SourceNodeID], byID[e.TargetNodeID]
		if src == nil || tgt == nil {
			return &domain.UnresolvedNodeReferenceError{ID: e.ID}
		}
		ye := yamlEdge{From: src.MermaidID, To: tgt.MermaidID, Label: e.Label, Color: e.Color}
		if e.Kind != domain.EdgeVisible {
			ye.Kind = string(e.Kind)
		}
		yg.Edges = append(yg.Edges, ye)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&yg); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
