// Package compile turns pattern trees into executable matchers.
//
// Compilation is a single bottom-up pass over the tree. Structural defects
// (a stray repetition marker, a wildcard key beside other keys, a reference
// to an undefined name, ...) are reported as *Error values; every defect
// found in one pass is returned, combined with multierr. Match-time
// mismatches are never errors: a matcher returns false and appends
// diagnostics to the caller's log.
//
// The matchers produced are immutable and may be shared between goroutines,
// provided each goroutine passes its own diag.Log.
package compile

import (
	"fmt"
	"reflect"
	"strconv"

	"go.uber.org/multierr"

	"github.com/dgoffredo/tisch/pattern"
)

// Option configures a compilation.
type Option func(*compiler)

// WithUnits resolves pattern.Use nodes against the given compiled units.
func WithUnits(units map[string]pattern.Matcher) Option {
	return func(c *compiler) {
		c.units = units
	}
}

type compiler struct {
	units map[string]pattern.Matcher
	scope *scope
	cells []*cell
	errs  error
}

// Compile compiles n into a matcher.
func Compile(n pattern.Node, opts ...Option) (pattern.Matcher, error) {
	c := &compiler{}
	for _, opt := range opts {
		opt(c)
	}

	m := c.compile(n, "$")
	if c.errs != nil {
		return nil, c.errs
	}
	for _, cl := range c.cells {
		if cl.target == nil {
			return nil, newError("$", ErrUnboundRef, "<%s>", cl.name)
		}
	}
	return m, nil
}

// MustCompile is Compile that panics on error. Intended for patterns fixed
// at program start.
func MustCompile(n pattern.Node, opts ...Option) pattern.Matcher {
	m, err := Compile(n, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

func (c *compiler) fail(path string, kind error, format string, args ...any) pattern.Matcher {
	c.errs = multierr.Append(c.errs, newError(path, kind, format, args...))
	return nil
}

func (c *compiler) compile(n pattern.Node, path string) pattern.Matcher {
	if isNil(n) {
		return c.fail(path, ErrNilNode, "")
	}
	switch n := n.(type) {
	case *pattern.Literal:
		return c.literal(n, path)
	case *pattern.Type:
		return c.typeTag(n, path)
	case *pattern.Sequence:
		return c.sequence(n, path)
	case *pattern.Variadic:
		return c.variadic(n, n.Prefix, n.Repeat, n.Quantifier, path)
	case *pattern.EtcMarker:
		return c.fail(path, ErrMisplacedEtc, "%s may only be the last element of a sequence", n)
	case *pattern.Mapping:
		return c.mapping(n, n.Fields, nil, path)
	case *pattern.OpenMapping:
		rest := n.Rest
		return c.mapping(n, n.Fields, &rest, path)
	case *pattern.Wildcard:
		count := pattern.Exactly(1)
		if n.Count != nil {
			count = *n.Count
		}
		return c.wildcard(n, n.Value, count, path)
	case *pattern.Union:
		return c.union(n, path)
	case *pattern.Ref:
		return c.ref(n, path)
	case *pattern.Recursive:
		return c.recursive(n, path)
	case *pattern.Embed:
		if n.Matcher == nil {
			return c.fail(path, ErrNilNode, "embedded matcher is nil")
		}
		return n.Matcher
	case *pattern.Use:
		m, ok := c.units[n.Unit]
		if !ok {
			return c.fail(path, ErrUnresolvedUse, "%q", n.Unit)
		}
		return m
	default:
		return c.fail(path, ErrNilNode, "unsupported node type %T", n)
	}
}

func (c *compiler) literal(n *pattern.Literal, path string) pattern.Matcher {
	if !n.Value.Kind().IsPrimitive() {
		return c.fail(path, ErrInvalidLiteral, "got %s %s", n.Value.Kind(), n.Value)
	}
	return &literalMatcher{node: node{n}, want: n.Value}
}

func (c *compiler) typeTag(n *pattern.Type, path string) pattern.Matcher {
	kind, ok := n.Tag.Kind()
	if !ok {
		return c.fail(path, ErrInvalidType, "%q", string(n.Tag))
	}
	return &typeMatcher{node: node{n}, kind: kind}
}

func (c *compiler) sequence(n *pattern.Sequence, path string) pattern.Matcher {
	last := len(n.Elements) - 1
	for i, e := range n.Elements {
		etc, ok := e.(*pattern.EtcMarker)
		if !ok {
			continue
		}
		if i != last {
			return c.fail(index(path, i), ErrMisplacedEtc, "%s must be the last element of %s", etc, n)
		}
		if i == 0 {
			return c.fail(index(path, i), ErrMisplacedEtc, "%s has no preceding element to repeat", etc)
		}
		q, err := pattern.EtcBounds(etc.Bounds)
		if err != nil {
			return c.fail(index(path, i), ErrInvalidQuantifier, "%v", err)
		}
		return c.variadic(n, n.Elements[:i-1], n.Elements[i-1], q, path)
	}

	elements, ok := c.all(n.Elements, path)
	if !ok {
		return nil
	}
	return &sequenceMatcher{node: node{n}, elements: elements}
}

func (c *compiler) variadic(src pattern.Node, prefix []pattern.Node, repeat pattern.Node, q pattern.Quantifier, path string) pattern.Matcher {
	if err := q.Validate(); err != nil {
		return c.fail(path, ErrInvalidQuantifier, "%v", err)
	}
	elements, ok := c.all(prefix, path)
	rm := c.compile(repeat, path+".repeat")
	if !ok || rm == nil {
		return nil
	}
	return &variadicMatcher{node: node{src}, prefix: elements, repeat: rm, count: q}
}

// all compiles nodes[i] at path[i], reporting whether every one succeeded.
func (c *compiler) all(nodes []pattern.Node, path string) ([]pattern.Matcher, bool) {
	out := make([]pattern.Matcher, len(nodes))
	ok := true
	for i, e := range nodes {
		out[i] = c.compile(e, index(path, i))
		if out[i] == nil {
			ok = false
		}
	}
	return out, ok
}

func (c *compiler) mapping(src pattern.Node, fields []pattern.Field, rest *pattern.Quantifier, path string) pattern.Matcher {
	for i, f := range fields {
		if !f.Any {
			continue
		}
		if len(fields) > 1 {
			return c.fail(path, ErrWildcardSiblings, "%s", src)
		}
		count := pattern.Exactly(1)
		if rest != nil {
			count = *rest
		}
		return c.wildcard(src, fields[i].Pattern, count, path)
	}

	m := &mappingMatcher{
		node:         node{src},
		requiredKeys: make(map[string]struct{}),
		optional:     make(map[string]pattern.Matcher),
		rest:         pattern.Exactly(0),
	}
	if rest != nil {
		if err := rest.Validate(); err != nil {
			return c.fail(path, ErrInvalidQuantifier, "%v", err)
		}
		m.rest = *rest
		m.open = true
	}

	seen := make(map[string]bool, len(fields))
	ok := true
	for _, f := range fields {
		fpath := path + "." + f.Key
		if seen[f.Key] {
			c.fail(fpath, ErrDuplicateKey, "%q", f.Key)
			ok = false
			continue
		}
		seen[f.Key] = true

		fm := c.compile(f.Pattern, fpath)
		if fm == nil {
			ok = false
			continue
		}
		if f.Optional {
			m.optional[f.Key] = fm
			continue
		}
		m.required = append(m.required, field{key: f.Key, matcher: fm})
		m.requiredKeys[f.Key] = struct{}{}
	}
	if !ok {
		return nil
	}
	return m
}

func (c *compiler) wildcard(src pattern.Node, each pattern.Node, count pattern.Quantifier, path string) pattern.Matcher {
	if err := count.Validate(); err != nil {
		return c.fail(path, ErrInvalidQuantifier, "%v", err)
	}
	em := c.compile(each, path+"."+pattern.AnyKey)
	if em == nil {
		return nil
	}
	return &wildcardMatcher{node: node{src}, each: em, count: count}
}

func (c *compiler) union(n *pattern.Union, path string) pattern.Matcher {
	alternatives := make([]pattern.Matcher, len(n.Alternatives))
	ok := true
	for i, alt := range n.Alternatives {
		alternatives[i] = c.compile(alt, fmt.Sprintf("%s.or[%d]", path, i))
		if alternatives[i] == nil {
			ok = false
		}
	}
	if !ok {
		return nil
	}
	return &unionMatcher{node: node{n}, alternatives: alternatives}
}

// isNil catches both a nil interface and a typed nil pointer.
func isNil(n pattern.Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func index(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}
