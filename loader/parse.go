package loader

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/dgoffredo/tisch/pattern"
	"github.com/dgoffredo/tisch/unit"
	"github.com/dgoffredo/tisch/value"
)

// ParseError is a defect in a pattern document.
type ParseError struct {
	// Source names the document, usually its file name.
	Source string

	// Path locates the offending node, e.g. "pattern.object.tags.array[1]".
	Path string

	// Line is 1-based; 0 when the position is unknown.
	Line int

	Reason string
}

// Error implements the error interface.
//
// The format is "loader: {Source}:{Line}: {Path}: {Reason}".
func (e *ParseError) Error() string {
	var sb strings.Builder
	sb.WriteString("loader: ")
	sb.WriteString(e.Source)
	if e.Line > 0 {
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(e.Line))
	}
	if e.Path != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Path)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Reason)
	return sb.String()
}

// Node keys.
const (
	keyLiteral   = "literal"
	keyType      = "type"
	keyArray     = "array"
	keyObject    = "object"
	keyUnion     = "union"
	keyRef       = "ref"
	keyUse       = "use"
	keyRecursive = "recursive"
	keyEtc       = "etc"

	// restKey introduces the extra-key bound of an open object.
	restKey = "..."
)

var nodeKeys = []string{keyLiteral, keyType, keyArray, keyObject, keyUnion, keyRef, keyUse, keyRecursive, keyEtc}

// Parse decodes one pattern document. name is used in errors and as the unit
// ID when the document has no id.
func Parse(name string, data []byte) (*unit.Unit, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Source: name, Reason: err.Error()}
	}
	if len(doc.Content) == 0 {
		return nil, &ParseError{Source: name, Reason: "empty document"}
	}

	p := &parser{source: name}
	u := p.document(doc.Content[0])
	if p.errs != nil {
		return nil, p.errs
	}
	if u.ID == "" {
		u.ID = name
	}
	return u, nil
}

// ParseNode decodes a single node encoding, such as the value of a document's
// pattern key.
func ParseNode(name string, data []byte) (pattern.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Source: name, Reason: err.Error()}
	}
	if len(doc.Content) == 0 {
		return nil, &ParseError{Source: name, Reason: "empty document"}
	}

	p := &parser{source: name}
	n := p.node(doc.Content[0], "$")
	if p.errs != nil {
		return nil, p.errs
	}
	return n, nil
}

type parser struct {
	source string
	errs   error
}

func (p *parser) fail(n *yaml.Node, path, format string, args ...any) {
	line := 0
	if n != nil {
		line = n.Line
	}
	p.errs = multierr.Append(p.errs, &ParseError{
		Source: p.source,
		Path:   path,
		Line:   line,
		Reason: fmt.Sprintf(format, args...),
	})
}

func (p *parser) document(root *yaml.Node) *unit.Unit {
	root = resolveAlias(root)
	u := &unit.Unit{}
	if root.Kind != yaml.MappingNode {
		p.fail(root, "", "a document must be a mapping with a pattern key")
		return u
	}

	var (
		body    pattern.Node
		defs    []pattern.Definition
		hasBody bool
		hasDefs bool
	)
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], resolveAlias(root.Content[i+1])
		switch k.Value {
		case "id":
			u.ID = p.name(v, "id")
		case "requires":
			u.Requires = p.names(v, "requires")
		case "define":
			defs = p.definitions(v, "define")
			hasDefs = true
		case "pattern":
			body = p.node(v, "pattern")
			hasBody = true
		default:
			p.fail(k, k.Value, "unknown document key; expected id, requires, define or pattern")
		}
	}

	if !hasBody {
		p.fail(root, "", "document has no pattern")
		return u
	}
	if hasDefs {
		u.Pattern = pattern.Rec(body, defs...)
	} else {
		u.Pattern = body
	}
	return u
}

func (p *parser) name(n *yaml.Node, path string) string {
	if n.Kind != yaml.ScalarNode || n.ShortTag() == "!!null" || n.Value == "" {
		p.fail(n, path, "expected a non-empty name")
		return ""
	}
	return n.Value
}

func (p *parser) names(n *yaml.Node, path string) []string {
	if n.Kind != yaml.SequenceNode {
		p.fail(n, path, "expected a list of unit IDs")
		return nil
	}
	out := make([]string, 0, len(n.Content))
	for i, c := range n.Content {
		if id := p.name(resolveAlias(c), index(path, i)); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func (p *parser) definitions(n *yaml.Node, path string) []pattern.Definition {
	if n.Kind != yaml.MappingNode {
		p.fail(n, path, "expected a mapping of names to nodes")
		return nil
	}
	defs := make([]pattern.Definition, 0, len(n.Content)/2)
	seen := make(map[string]bool)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i]
		name := p.name(k, path)
		if name == "" {
			continue
		}
		dpath := path + "." + name
		if seen[name] {
			p.fail(k, dpath, "definition %q appears twice", name)
			continue
		}
		seen[name] = true
		defs = append(defs, pattern.Def(name, p.node(resolveAlias(n.Content[i+1]), dpath)))
	}
	return defs
}

// node decodes one node encoding. On error it records the defect and returns
// a harmless placeholder so that decoding continues.
func (p *parser) node(n *yaml.Node, path string) pattern.Node {
	n = resolveAlias(n)
	switch n.Kind {
	case yaml.ScalarNode:
		return p.literal(n, path)
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			p.fail(n, path, "a node must have exactly one of the keys %s", strings.Join(nodeKeys, ", "))
			return pattern.Or()
		}
		return p.tagged(n.Content[0], resolveAlias(n.Content[1]), path)
	case yaml.SequenceNode:
		p.fail(n, path, "a bare list is not a node; write {array: [...]} or {union: [...]}")
		return pattern.Or()
	default:
		p.fail(n, path, "unexpected YAML node")
		return pattern.Or()
	}
}

func (p *parser) literal(n *yaml.Node, path string) pattern.Node {
	v, err := value.FromYAML(n)
	if err != nil {
		p.fail(n, path, "%v", err)
		return pattern.Or()
	}
	if !v.Kind().IsPrimitive() {
		p.fail(n, path, "a literal must be a string, number, boolean or null, not %s", v.Kind())
		return pattern.Or()
	}
	return pattern.Lit(v)
}

func (p *parser) tagged(k, v *yaml.Node, path string) pattern.Node {
	kpath := path + "." + k.Value
	switch k.Value {
	case keyLiteral:
		if v.Kind != yaml.ScalarNode {
			p.fail(v, kpath, "expected a scalar")
			return pattern.Or()
		}
		return p.literal(v, kpath)

	case keyType:
		tag, ok := pattern.ParseTag(v.Value)
		if v.Kind != yaml.ScalarNode || !ok {
			p.fail(v, kpath, "expected one of String, Number, Boolean, Object, Array")
			return pattern.Or()
		}
		return &pattern.Type{Tag: tag}

	case keyArray:
		if v.Kind != yaml.SequenceNode {
			p.fail(v, kpath, "expected a list of nodes")
			return pattern.Or()
		}
		elements := make([]pattern.Node, len(v.Content))
		for i, c := range v.Content {
			elements[i] = p.node(c, index(kpath, i))
		}
		return pattern.Seq(elements...)

	case keyObject:
		return p.object(v, kpath)

	case keyUnion:
		if v.Kind != yaml.SequenceNode {
			p.fail(v, kpath, "expected a list of alternatives")
			return pattern.Or()
		}
		alternatives := make([]pattern.Node, len(v.Content))
		for i, c := range v.Content {
			alternatives[i] = p.node(c, index(kpath, i))
		}
		return pattern.Or(alternatives...)

	case keyRef:
		return pattern.RefTo(p.name(v, kpath))

	case keyUse:
		return pattern.Import(p.name(v, kpath))

	case keyRecursive:
		return p.recursive(v, kpath)

	case keyEtc:
		return pattern.Etc(p.bounds(v, kpath)...)

	default:
		p.fail(k, kpath, "unknown node key %q; expected one of %s", k.Value, strings.Join(nodeKeys, ", "))
		return pattern.Or()
	}
}

func (p *parser) object(n *yaml.Node, path string) pattern.Node {
	if n.Kind != yaml.MappingNode {
		p.fail(n, path, "expected a mapping of keys to nodes")
		return pattern.Or()
	}

	var (
		fields []pattern.Field
		rest   *pattern.Quantifier
	)
	seen := make(map[string]bool)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], resolveAlias(n.Content[i+1])
		if k.Kind != yaml.ScalarNode {
			p.fail(k, path, "object keys must be scalars")
			continue
		}
		fpath := path + "." + k.Value

		if k.Value == restKey {
			q, ok := p.rest(v, fpath)
			if ok {
				rest = &q
			}
			continue
		}

		f := pattern.Key(k.Value, p.node(v, fpath))
		if seen[f.Key] {
			p.fail(k, fpath, "key %q appears twice", f.Key)
			continue
		}
		seen[f.Key] = true
		fields = append(fields, f)
	}

	if rest != nil {
		return pattern.Open(*rest, fields...)
	}
	return pattern.Obj(fields...)
}

// rest decodes the value of a "..." entry, which must be an etc node.
func (p *parser) rest(n *yaml.Node, path string) (pattern.Quantifier, bool) {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 || n.Content[0].Value != keyEtc {
		p.fail(n, path, "expected {etc: [min, max]}")
		return pattern.Quantifier{}, false
	}
	q, err := pattern.EtcBounds(p.bounds(resolveAlias(n.Content[1]), path+"."+keyEtc))
	if err != nil {
		p.fail(n, path, "%v", err)
		return pattern.Quantifier{}, false
	}
	return q, true
}

// bounds decodes the arguments of etc: null, a single bound, or a list of up
// to two. An unbounded max is returned as -1.
func (p *parser) bounds(n *yaml.Node, path string) []int {
	var items []*yaml.Node
	switch {
	case n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null":
		return nil
	case n.Kind == yaml.ScalarNode:
		items = []*yaml.Node{n}
	case n.Kind == yaml.SequenceNode:
		items = n.Content
	default:
		p.fail(n, path, "expected a list of bounds")
		return nil
	}
	if len(items) > 2 {
		p.fail(n, path, "etc takes at most two bounds, got %d", len(items))
		return nil
	}

	out := make([]int, 0, len(items))
	for i, c := range items {
		c = resolveAlias(c)
		if i == 1 && isInfinite(c) {
			out = append(out, -1)
			continue
		}
		b, err := strconv.Atoi(c.Value)
		if c.Kind != yaml.ScalarNode || err != nil || b < 0 {
			if i == 1 {
				p.fail(c, index(path, i), "max must be a non-negative integer, .inf or \"*\"")
			} else {
				p.fail(c, index(path, i), "min must be a non-negative integer")
			}
			return nil
		}
		out = append(out, b)
	}
	return out
}

func isInfinite(n *yaml.Node) bool {
	if n.Kind != yaml.ScalarNode {
		return false
	}
	switch n.Value {
	case "*", ".inf", ".Inf", ".INF", "+.inf", "+.Inf", "+.INF":
		return true
	}
	return false
}

func (p *parser) recursive(n *yaml.Node, path string) pattern.Node {
	if n.Kind != yaml.MappingNode {
		p.fail(n, path, "expected {define: {...}, pattern: ...}")
		return pattern.Or()
	}
	var (
		defs []pattern.Definition
		body pattern.Node
	)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], resolveAlias(n.Content[i+1])
		switch k.Value {
		case "define":
			defs = p.definitions(v, path+".define")
		case "pattern":
			body = p.node(v, path+".pattern")
		default:
			p.fail(k, path+"."+k.Value, "unknown key; expected define or pattern")
		}
	}
	if body == nil {
		p.fail(n, path, "recursive group has no pattern")
		return pattern.Or()
	}
	return pattern.Rec(body, defs...)
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func index(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}
