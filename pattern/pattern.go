// Package pattern defines the pattern tree consumed by the compiler.
//
// A pattern is an immutable tree of Node values. Every front end (the Go
// builder functions in this package, or the document loader) targets this
// representation; the compiler never sees source text.
//
// # Variants
//
//   - Literal: matches exactly one primitive value
//   - Type: matches any value of a category (String, Number, Boolean, Object, Array)
//   - Sequence: an array of exactly N elements, element-wise
//   - Variadic: a fixed prefix followed by a repeated tail, tail length bounded
//   - Mapping: an object with exactly the given keys, optional ones may be absent
//   - OpenMapping: a Mapping that tolerates a bounded number of extra keys
//   - Wildcard: an object whose every value matches one pattern
//   - Union: the first matching alternative wins; no alternatives matches anything
//   - Ref: a named placeholder bound by an enclosing Recursive group
//   - Recursive: a group of named, possibly mutually recursive definitions
//   - EtcMarker: the raw quantifier marker as written in a sequence
//   - Embed: an already compiled matcher used as a sub-pattern
//   - Use: a reference to another unit, replaced by its matcher before compiling
//
// # Builders
//
//	person := pattern.Obj(
//	    pattern.Key("name", pattern.String),
//	    pattern.Key("age?", pattern.Number),
//	    pattern.Key("tags", pattern.Seq(pattern.String, pattern.Etc())),
//	)
package pattern

import (
	"strings"

	"github.com/dgoffredo/tisch/diag"
	"github.com/dgoffredo/tisch/value"
)

// Node is one node of a pattern tree.
type Node interface {
	// String renders the node in compact pattern notation.
	String() string

	node()
}

// Matcher is the compiled, executable form of a pattern.
//
// Match reports whether v matches. On failure it appends diagnostics to log.
// It never retains log or v.
type Matcher interface {
	Match(v value.Value, log *diag.Log) bool
	String() string
}

// Tag names a category for Type patterns.
type Tag string

// Type tags.
const (
	TagString  Tag = "String"
	TagNumber  Tag = "Number"
	TagBoolean Tag = "Boolean"
	TagObject  Tag = "Object"
	TagArray   Tag = "Array"
)

// Kind returns the value category the tag stands for.
func (t Tag) Kind() (value.Kind, bool) {
	switch t {
	case TagString:
		return value.String, true
	case TagNumber:
		return value.Number, true
	case TagBoolean:
		return value.Boolean, true
	case TagObject:
		return value.Object, true
	case TagArray:
		return value.Array, true
	default:
		return value.Null, false
	}
}

// ParseTag converts a tag name.
func ParseTag(s string) (Tag, bool) {
	t := Tag(s)
	_, ok := t.Kind()
	return t, ok
}

// Literal matches exactly one primitive value.
type Literal struct {
	Value value.Value
}

// Type matches any value of a category.
type Type struct {
	Tag Tag
}

// Sequence matches an array element-wise. A trailing EtcMarker turns the
// preceding element into the repeated part of a Variadic.
type Sequence struct {
	Elements []Node
}

// Variadic matches Prefix element-wise followed by a tail whose every element
// matches Repeat and whose length is within Quantifier.
type Variadic struct {
	Prefix     []Node
	Repeat     Node
	Quantifier Quantifier
}

// EtcMarker is the raw repetition marker. Bounds are interpreted by
// EtcBounds when the enclosing sequence is compiled.
type EtcMarker struct {
	Bounds []int
}

// AnyKey is the key text that designates a wildcard field.
const AnyKey = "[Any]"

// Field is one entry of a mapping pattern.
type Field struct {
	// Key is the member name with any optional marker already stripped.
	Key string

	// Optional fields may be absent.
	Optional bool

	// Any marks the wildcard key. It must be the only field of its mapping.
	Any bool

	Pattern Node
}

// Mapping matches an object with exactly the given fields.
type Mapping struct {
	Fields []Field
}

// OpenMapping is a Mapping that allows extra members, counted by Rest.
type OpenMapping struct {
	Fields []Field
	Rest   Quantifier
}

// Wildcard matches an object whose every value matches Value. Without a
// Count the object must have exactly one member.
type Wildcard struct {
	Value Node
	Count *Quantifier
}

// Union matches if any alternative matches.
type Union struct {
	Alternatives []Node
}

// Ref names a definition of an enclosing Recursive group.
type Ref struct {
	Name string
}

// Definition binds a name inside a Recursive group.
type Definition struct {
	Name    string
	Pattern Node
}

// Recursive introduces named definitions that may refer to each other and to
// themselves through Ref. Body is what the group matches.
type Recursive struct {
	Definitions []Definition
	Body        Node
}

// Embed uses a compiled matcher as a sub-pattern.
type Embed struct {
	Matcher Matcher
}

// Use refers to the compiled matcher of another unit.
type Use struct {
	Unit string
}

func (*Literal) node()     {}
func (*Type) node()        {}
func (*Sequence) node()    {}
func (*Variadic) node()    {}
func (*EtcMarker) node()   {}
func (*Mapping) node()     {}
func (*OpenMapping) node() {}
func (*Wildcard) node()    {}
func (*Union) node()       {}
func (*Ref) node()         {}
func (*Recursive) node()   {}
func (*Embed) node()       {}
func (*Use) node()         {}

// Type patterns for each tag.
var (
	String  = &Type{Tag: TagString}
	Number  = &Type{Tag: TagNumber}
	Boolean = &Type{Tag: TagBoolean}
	Object  = &Type{Tag: TagObject}
	Array   = &Type{Tag: TagArray}
)

// Lit returns a Literal.
func Lit(v value.Value) *Literal {
	return &Literal{Value: v}
}

// Str returns a string Literal.
func Str(s string) *Literal {
	return Lit(value.Str(s))
}

// Int returns a number Literal.
func Int(n int64) *Literal {
	return Lit(value.Int(n))
}

// Bool returns a boolean Literal.
func Bool(b bool) *Literal {
	return Lit(value.Bool(b))
}

// Null returns the null Literal.
func Null() *Literal {
	return Lit(value.NullValue())
}

// Seq returns a Sequence.
func Seq(elements ...Node) *Sequence {
	return &Sequence{Elements: elements}
}

// Etc returns a repetition marker for use as the last element of Seq.
func Etc(bounds ...int) *EtcMarker {
	return &EtcMarker{Bounds: bounds}
}

// Repeat returns a Variadic.
func Repeat(prefix []Node, repeat Node, q Quantifier) *Variadic {
	return &Variadic{Prefix: prefix, Repeat: repeat, Quantifier: q}
}

// OptionalMarker is the key suffix that makes a field optional.
const OptionalMarker = "?"

// Key builds a Field, stripping the optional marker from key and recognizing
// AnyKey.
func Key(key string, n Node) Field {
	if key == AnyKey {
		return Field{Key: key, Any: true, Pattern: n}
	}
	if k, ok := strings.CutSuffix(key, OptionalMarker); ok {
		return Field{Key: k, Optional: true, Pattern: n}
	}
	return Field{Key: key, Pattern: n}
}

// Obj returns a Mapping.
func Obj(fields ...Field) *Mapping {
	return &Mapping{Fields: fields}
}

// Open returns an OpenMapping.
func Open(rest Quantifier, fields ...Field) *OpenMapping {
	return &OpenMapping{Fields: fields, Rest: rest}
}

// Each returns a Wildcard. At most one quantifier is used.
func Each(n Node, count ...Quantifier) *Wildcard {
	w := &Wildcard{Value: n}
	if len(count) > 0 {
		q := count[0]
		w.Count = &q
	}
	return w
}

// Or returns a Union.
func Or(alternatives ...Node) *Union {
	return &Union{Alternatives: alternatives}
}

// RefTo returns a Ref.
func RefTo(name string) *Ref {
	return &Ref{Name: name}
}

// Def returns a Definition.
func Def(name string, n Node) Definition {
	return Definition{Name: name, Pattern: n}
}

// Rec returns a Recursive group.
func Rec(body Node, defs ...Definition) *Recursive {
	return &Recursive{Definitions: defs, Body: body}
}

// Self builds a pattern that refers to itself. build receives the placeholder
// and returns the definition.
func Self(name string, build func(self Node) Node) *Recursive {
	ref := RefTo(name)
	return Rec(ref, Def(name, build(ref)))
}

// Compiled wraps a matcher as a Node.
func Compiled(m Matcher) *Embed {
	return &Embed{Matcher: m}
}

// Import returns a Use.
func Import(unit string) *Use {
	return &Use{Unit: unit}
}
