package codec

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"storyweave/internal/domain"
)

// UntitledGraph is the title given to a graph parsed from text alone
const UntitledGraph = "untitled"

// nodeExpr matches `id` or `id[label]` where label may be double-quoted
const nodeExpr = `[A-Za-z0-9_]+\s*(?:\[(?:"[^"]*"|[^\]"]*)\])?`

var (
	headerPattern   = regexp.MustCompile(`^(?:graph|flowchart)\s+(\S+)$`)
	subgraphPattern = regexp.MustCompile(`^subgraph\s+([A-Za-z0-9_]+)\s*(?:\[(.*)\])?$`)
	nodePattern     = regexp.MustCompile(`^([A-Za-z0-9_]+)\s*(?:\[("[^"]*"|[^\]"]*)\])?$`)
	edgePattern     = regexp.MustCompile(`^(` + nodeExpr + `)\s*(-->|-\.->|---)\s*(?:\|([^|]*)\|\s*)?(` + nodeExpr + `)$`)
)

var (
	entityDecoder = strings.NewReplacer("#quot;", `"`, "#124;", "|", "#35;", "#")
	entityEncoder = strings.NewReplacer("#", "#35;", `"`, "#quot;", "|", "#124;")
)

// MermaidCodec reads and writes the flowchart DSL
type MermaidCodec struct{}

// NewMermaidCodec creates a new Mermaid codec
func NewMermaidCodec() *MermaidCodec {
	return &MermaidCodec{}
}

// Format returns the codec format identifier
func (c *MermaidCodec) Format() string {
	return FormatMermaid
}

// Parse reads DSL text from r
func (c *MermaidCodec) Parse(r io.Reader) (*domain.Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read mermaid source: %w", err)
	}
	return ParseMermaid(string(data))
}

// Export writes the canonical DSL text of g
func (c *MermaidCodec) Export(g *domain.Graph, w io.Writer) error {
	if _, err := io.WriteString(w, Serialize(g)); err != nil {
		return fmt.Errorf("failed to write mermaid source: %w", err)
	}
	return nil
}

// lineBreaks folds CRLF and lone CR line endings into LF
var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// ParseMermaid parses DSL text into a new graph titled UntitledGraph.
// The graph is returned only if it satisfies every invariant; the text is
// kept as its Source.
func ParseMermaid(text string) (*domain.Graph, error) {
	s := newParseSession()
	lines := strings.Split(lineBreaks.Replace(text), "\n")
	for i, raw := range lines {
		if err := s.line(i+1, raw); err != nil {
			return nil, err
		}
	}
	if err := s.finish(len(lines)); err != nil {
		return nil, err
	}
	s.g.Source = text
	return s.g, nil
}

type pendingClass struct {
	line    int
	targets []string
	name    string
}

type pendingLink struct {
	line  int
	index int
	color string
}

// parseSession holds the state of one parse call
type parseSession struct {
	g          *domain.Graph
	seenHeader bool
	stack      []*domain.Cluster
	labelled   map[string]bool
	classes    []pendingClass
	links      []pendingLink
}

func newParseSession() *parseSession {
	return &parseSession{
		g:        domain.NewGraph(UntitledGraph),
		labelled: make(map[string]bool),
	}
}

func (s *parseSession) line(num int, raw string) error {
	line := strings.TrimSpace(raw)
	line = strings.TrimSpace(strings.TrimSuffix(line, ";"))
	if line == "" || strings.HasPrefix(line, "%%") {
		return nil
	}

	if !s.seenHeader {
		m := headerPattern.FindStringSubmatch(line)
		if m == nil {
			return &domain.ParseError{Line: num, Message: fmt.Sprintf("expected graph declaration, got %q", line)}
		}
		dir, ok := domain.ParseDirection(strings.ToUpper(m[1]))
		if !ok {
			return &domain.ParseError{Line: num, Message: fmt.Sprintf("unknown direction %q", m[1])}
		}
		s.g.Direction = dir
		s.seenHeader = true
		return nil
	}

	keyword, rest := line, ""
	if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
		keyword, rest = line[:i], strings.TrimSpace(line[i:])
	}
	switch keyword {
	case "subgraph":
		return s.openCluster(num, line)
	case "end":
		if rest != "" {
			break
		}
		if len(s.stack) == 0 {
			return &domain.ParseError{Line: num, Message: "end without matching subgraph"}
		}
		s.stack = s.stack[:len(s.stack)-1]
		return nil
	case "direction":
		if _, ok := domain.ParseDirection(strings.ToUpper(rest)); !ok || len(s.stack) == 0 {
			return &domain.ParseError{Line: num, Message: fmt.Sprintf("unexpected direction line %q", line)}
		}
		return nil
	case "classDef":
		return s.classDef(num, rest)
	case "class":
		return s.class(num, rest)
	case "linkStyle":
		return s.linkStyle(num, rest)
	}

	if m := edgePattern.FindStringSubmatch(line); m != nil {
		return s.edge(num, m[1], m[2], m[3], m[4])
	}
	if m := nodePattern.FindStringSubmatch(line); m != nil {
		_, err := s.node(num, m[1], m[2], strings.Contains(line, "["), true)
		return err
	}
	return &domain.ParseError{Line: num, Message: fmt.Sprintf("unrecognized line %q", line)}
}

func (s *parseSession) openCluster(num int, line string) error {
	m := subgraphPattern.FindStringSubmatch(line)
	if m == nil {
		return &domain.ParseError{Line: num, Message: fmt.Sprintf("malformed subgraph %q", line)}
	}
	id := m[1]
	if domain.IsReservedWord(id) {
		return &domain.ParseError{Line: num, Message: fmt.Sprintf("%q is a reserved word", id)}
	}
	if s.g.NodeByMermaidID(id) != nil {
		return &domain.DuplicateIDError{Kind: domain.KindCluster, ID: id}
	}
	if err := s.g.AssertUniqueClusterID(id); err != nil {
		return err
	}
	cl := s.g.AddCluster(id, decodeLabel(m[2]))
	s.stack = append(s.stack, cl)
	return nil
}

// node declares or references a node. Standalone lines place the node in the
// innermost open block; edge endpoints only do so on first sight or when
// they carry a label.
func (s *parseSession) node(num int, id, rawLabel string, hasLabel, standalone bool) (*domain.Node, error) {
	if domain.IsReservedWord(id) {
		return nil, &domain.ParseError{Line: num, Message: fmt.Sprintf("%q is a reserved word", id)}
	}
	if s.g.ClusterByMermaidID(id) != nil {
		return nil, &domain.DuplicateIDError{Kind: domain.KindNode, ID: id}
	}

	n := s.g.NodeByMermaidID(id)
	created := n == nil
	if created {
		n = s.g.AddNode(id, "")
	}
	if hasLabel {
		if s.labelled[id] {
			return nil, &domain.DuplicateIDError{Kind: domain.KindNode, ID: id}
		}
		s.labelled[id] = true
		n.Title = decodeLabel(rawLabel)
	}

	if len(s.stack) == 0 || !(created || standalone || hasLabel) {
		return n, nil
	}
	cur := s.stack[len(s.stack)-1]
	switch n.ClusterID {
	case "":
		cur.Attach(n, nil)
	case cur.ID:
	default:
		prev := s.g.Cluster(n.ClusterID)
		return nil, &domain.ParseError{Line: num, Message: fmt.Sprintf("node %s is already in subgraph %s", id, prev.MermaidID)}
	}
	return n, nil
}

func (s *parseSession) endpoint(num int, expr string) (*domain.Node, error) {
	m := nodePattern.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return nil, &domain.ParseError{Line: num, Message: fmt.Sprintf("malformed edge endpoint %q", expr)}
	}
	return s.node(num, m[1], m[2], strings.Contains(expr, "["), false)
}

func (s *parseSession) edge(num int, from, arrow, label, to string) error {
	src, err := s.endpoint(num, from)
	if err != nil {
		return err
	}
	tgt, err := s.endpoint(num, to)
	if err != nil {
		return err
	}
	kind := domain.EdgeVisible
	if arrow != "-->" {
		kind = domain.EdgeInvisible
	}
	s.g.AddEdge(src, tgt, kind, entityDecoder.Replace(strings.TrimSpace(label)))
	return nil
}

func (s *parseSession) classDef(num int, rest string) error {
	name, def := rest, ""
	if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
		name, def = rest[:i], domain.NormalizeStyleDefinition(rest[i:])
	}
	if def == "" || !domain.ValidStyleName(name) {
		return &domain.ParseError{Line: num, Message: fmt.Sprintf("malformed classDef %q", rest)}
	}
	if err := s.g.AssertUniqueStyleName(name, ""); err != nil {
		return err
	}
	s.g.AddStyleClass(name, def)
	return nil
}

func (s *parseSession) class(num int, rest string) error {
	fields := strings.Fields(rest)
	if len(fields) != 2 || !domain.ValidStyleName(fields[1]) {
		return &domain.ParseError{Line: num, Message: fmt.Sprintf("malformed class assignment %q", rest)}
	}
	var targets []string
	for _, t := range strings.Split(fields[0], ",") {
		if t = strings.TrimSpace(t); t != "" {
			targets = append(targets, t)
		}
	}
	if len(targets) == 0 {
		return &domain.ParseError{Line: num, Message: "class assignment without targets"}
	}
	s.classes = append(s.classes, pendingClass{line: num, targets: targets, name: fields[1]})
	return nil
}

func (s *parseSession) linkStyle(num int, rest string) error {
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return &domain.ParseError{Line: num, Message: fmt.Sprintf("malformed linkStyle %q", rest)}
	}
	color := ""
	indexes, def := fields[0], strings.Join(fields[1:], " ")
	for _, prop := range strings.Split(def, ",") {
		key, value, _ := strings.Cut(strings.TrimSpace(prop), ":")
		if strings.TrimSpace(key) == "stroke" {
			color = strings.TrimSpace(value)
		}
	}
	if color == "" {
		return &domain.ParseError{Line: num, Message: "linkStyle without stroke colour"}
	}
	if !domain.ValidColor(color) {
		return &domain.ParseError{Line: num, Message: fmt.Sprintf("invalid stroke colour %q", color)}
	}
	for _, raw := range strings.Split(indexes, ",") {
		idx, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || idx < 0 {
			return &domain.ParseError{Line: num, Message: fmt.Sprintf("invalid linkStyle index %q", raw)}
		}
		s.links = append(s.links, pendingLink{line: num, index: idx, color: color})
	}
	return nil
}

// finish resolves deferred references and validates the result
func (s *parseSession) finish(lastLine int) error {
	if !s.seenHeader {
		return &domain.ParseError{Line: 1, Message: "missing graph declaration"}
	}
	if len(s.stack) > 0 {
		open := s.stack[len(s.stack)-1]
		return &domain.ParseError{Line: lastLine, Message: fmt.Sprintf("subgraph %s is not closed", open.MermaidID)}
	}

	for _, pc := range s.classes {
		if err := s.g.AssertStyleExists(pc.name); err != nil {
			return err
		}
		for _, id := range pc.targets {
			if n := s.g.NodeByMermaidID(id); n != nil {
				n.StyleRef = pc.name
			} else if cl := s.g.ClusterByMermaidID(id); cl != nil {
				cl.StyleRef = pc.name
			} else {
				return &domain.UnresolvedNodeReferenceError{ID: id}
			}
		}
	}

	for _, pl := range s.links {
		if pl.index >= len(s.g.Edges) {
			return &domain.ParseError{Line: pl.line, Message: fmt.Sprintf("linkStyle index %d out of range", pl.index)}
		}
		s.g.Edges[pl.index].Color = pl.color
	}

	for _, n := range s.g.Nodes {
		n.TextContent = n.Label()
	}
	return s.g.Validate()
}

// decodeLabel unquotes a label and decodes its entities
func decodeLabel(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		return entityDecoder.Replace(raw[1 : len(raw)-1])
	}
	return entityDecoder.Replace(raw)
}
