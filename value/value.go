// Package value defines the candidate values that patterns are matched against.
//
// A Value is an explicit tagged variant over the JSON data model: null,
// boolean, number, string, array and object. Categories are disjoint, so a
// matcher can dispatch on Kind without consulting reflection. Numbers are
// arbitrary-precision decimals, which makes literal comparison exact: 1, 1.0
// and 1e0 are the same number. Objects preserve the order in which their
// entries were decoded.
//
// Values are immutable once built. The slices returned by Items and Members
// share storage with the value and must not be modified.
package value

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind is the runtime category of a Value.
type Kind uint8

// Value kinds. The zero Kind is Null, so the zero Value is null.
const (
	Null Kind = iota
	Boolean
	Number
	String
	Array
	Object
)

// String returns the lower-case category name used in diagnostics.
func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Boolean:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// IsPrimitive reports whether values of this kind are scalars.
func (k Kind) IsPrimitive() bool {
	return k <= String
}

// indexThreshold is the object size above which key lookups use a map.
const indexThreshold = 8

// Member is one key/value entry of an object.
type Member struct {
	Key   string
	Value Value
}

// Value is a JSON-like value.
type Value struct {
	kind    Kind
	b       bool
	n       decimal.Decimal
	s       string
	items   []Value
	members []Member
	index   map[string]int
}

// NullValue returns the null value.
func NullValue() Value {
	return Value{}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	return Value{kind: Boolean, b: b}
}

// Num returns a number value.
func Num(d decimal.Decimal) Value {
	return Value{kind: Number, n: d}
}

// Int returns a number value holding n.
func Int(n int64) Value {
	return Num(decimal.NewFromInt(n))
}

// Float returns a number value holding f.
func Float(f float64) Value {
	return Num(decimal.NewFromFloat(f))
}

// Str returns a string value.
func Str(s string) Value {
	return Value{kind: String, s: s}
}

// Arr returns an array value holding items in order.
func Arr(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: Array, items: items}
}

// Entry is shorthand for building a Member.
func Entry(key string, v Value) Member {
	return Member{Key: key, Value: v}
}

// Obj returns an object value. When a key repeats, the last entry wins but
// keeps the position of the first.
func Obj(members ...Member) Value {
	out := make([]Member, 0, len(members))
	seen := make(map[string]int, len(members))
	for _, m := range members {
		if i, ok := seen[m.Key]; ok {
			out[i].Value = m.Value
			continue
		}
		seen[m.Key] = len(out)
		out = append(out, m)
	}
	v := Value{kind: Object, members: out}
	if len(out) > indexThreshold {
		v.index = seen
	}
	return v
}

// Kind returns the category of v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether v is null.
func (v Value) IsNull() bool {
	return v.kind == Null
}

// Bool returns the boolean payload; false for other kinds.
func (v Value) Bool() bool {
	return v.b
}

// Number returns the numeric payload; zero for other kinds.
func (v Value) Number() decimal.Decimal {
	return v.n
}

// Str returns the string payload; empty for other kinds.
func (v Value) Str() string {
	return v.s
}

// Len returns the number of array items or object members.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.items)
	case Object:
		return len(v.members)
	default:
		return 0
	}
}

// Items returns the elements of an array.
func (v Value) Items() []Value {
	return v.items
}

// Members returns the entries of an object in order.
func (v Value) Members() []Member {
	return v.members
}

// Get looks up key in an object.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}
	if v.index != nil {
		i, ok := v.index[key]
		if !ok {
			return Value{}, false
		}
		return v.members[i].Value, true
	}
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Has reports whether an object contains key.
func (v Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Equal reports deep equality. Object comparison ignores member order.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Null:
		return true
	case Boolean:
		return a.b == b.b
	case Number:
		return a.n.Equal(b.n)
	case String:
		return a.s == b.s
	case Array:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case Object:
		if len(a.members) != len(b.members) {
			return false
		}
		for _, m := range a.members {
			other, ok := b.Get(m.Key)
			if !ok || !Equal(m.Value, other) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders v as compact JSON.
func (v Value) String() string {
	var sb strings.Builder
	v.write(&sb)
	return sb.String()
}

func (v Value) write(sb *strings.Builder) {
	switch v.kind {
	case Null:
		sb.WriteString("null")
	case Boolean:
		if v.b {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case Number:
		sb.WriteString(v.n.String())
	case String:
		sb.WriteString(Quote(v.s))
	case Array:
		sb.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				sb.WriteByte(',')
			}
			item.write(sb)
		}
		sb.WriteByte(']')
	case Object:
		sb.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(Quote(m.Key))
			sb.WriteByte(':')
			m.Value.write(sb)
		}
		sb.WriteByte('}')
	}
}

// Quote returns s as a JSON string literal.
func Quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return `"` + s + `"`
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
