package value

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DecodeError is returned when input cannot be turned into a Value.
type DecodeError struct {
	// Format is the input format ("json", "yaml" or "go").
	Format string

	// Line is the 1-based source line when known.
	Line int

	// Reason explains what went wrong.
	Reason string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("value: cannot decode %s (line %d): %s", e.Format, e.Line, e.Reason)
	}
	return fmt.Sprintf("value: cannot decode %s: %s", e.Format, e.Reason)
}

// ParseJSON decodes one JSON document. Object member order is preserved.
func ParseJSON(data []byte) (Value, error) {
	if !json.Valid(data) {
		return Value{}, &DecodeError{Format: "json", Reason: "malformed document"}
	}
	raw, typ, _, err := jsonparser.Get(data)
	if err != nil {
		return Value{}, &DecodeError{Format: "json", Reason: err.Error()}
	}
	return fromJSON(raw, typ)
}

func fromJSON(raw []byte, typ jsonparser.ValueType) (Value, error) {
	switch typ {
	case jsonparser.Null:
		return Value{}, nil

	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(raw)
		if err != nil {
			return Value{}, &DecodeError{Format: "json", Reason: err.Error()}
		}
		return Bool(b), nil

	case jsonparser.Number:
		d, err := decimal.NewFromString(string(raw))
		if err != nil {
			return Value{}, &DecodeError{Format: "json", Reason: fmt.Sprintf("bad number %q", raw)}
		}
		return Num(d), nil

	case jsonparser.String:
		s, err := jsonparser.ParseString(raw)
		if err != nil {
			return Value{}, &DecodeError{Format: "json", Reason: err.Error()}
		}
		return Str(s), nil

	case jsonparser.Array:
		items := []Value{}
		var inner error
		_, err := jsonparser.ArrayEach(raw, func(elem []byte, t jsonparser.ValueType, _ int, err error) {
			if inner != nil {
				return
			}
			if err != nil {
				inner = err
				return
			}
			v, err := fromJSON(elem, t)
			if err != nil {
				inner = err
				return
			}
			items = append(items, v)
		})
		if inner != nil {
			return Value{}, inner
		}
		if err != nil {
			return Value{}, &DecodeError{Format: "json", Reason: err.Error()}
		}
		return Arr(items...), nil

	case jsonparser.Object:
		var members []Member
		err := jsonparser.ObjectEach(raw, func(key, elem []byte, t jsonparser.ValueType, _ int) error {
			// ObjectEach hands over keys already unescaped.
			k := string(key)
			v, err := fromJSON(elem, t)
			if err != nil {
				return err
			}
			members = append(members, Entry(k, v))
			return nil
		})
		if err != nil {
			return Value{}, err
		}
		return Obj(members...), nil
	}
	return Value{}, &DecodeError{Format: "json", Reason: fmt.Sprintf("unexpected token type %s", typ)}
}

// ParseYAML decodes the first document of a YAML stream.
func ParseYAML(data []byte) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Value{}, &DecodeError{Format: "yaml", Reason: err.Error()}
	}
	if doc.Kind == 0 {
		return Value{}, &DecodeError{Format: "yaml", Reason: "empty document"}
	}
	return FromYAML(&doc)
}

// FromYAML converts a decoded YAML node. Mapping order is preserved and
// aliases are followed.
func FromYAML(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Value{}, nil
		}
		return FromYAML(n.Content[0])

	case yaml.AliasNode:
		return FromYAML(n.Alias)

	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := FromYAML(c)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return Arr(items...), nil

	case yaml.MappingNode:
		members := make([]Member, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return Value{}, &DecodeError{Format: "yaml", Line: k.Line, Reason: "mapping keys must be scalars"}
			}
			v, err := FromYAML(n.Content[i+1])
			if err != nil {
				return Value{}, err
			}
			members = append(members, Entry(k.Value, v))
		}
		return Obj(members...), nil

	case yaml.ScalarNode:
		return yamlScalar(n)
	}
	return Value{}, &DecodeError{Format: "yaml", Line: n.Line, Reason: "unsupported node"}
}

func yamlScalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Value{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, &DecodeError{Format: "yaml", Line: n.Line, Reason: err.Error()}
		}
		return Bool(b), nil
	case "!!int":
		if d, err := decimal.NewFromString(n.Value); err == nil {
			return Num(d), nil
		}
		var i int64
		if err := n.Decode(&i); err != nil {
			return Value{}, &DecodeError{Format: "yaml", Line: n.Line, Reason: err.Error()}
		}
		return Int(i), nil
	case "!!float":
		if d, err := decimal.NewFromString(n.Value); err == nil {
			return Num(d), nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, &DecodeError{Format: "yaml", Line: n.Line, Reason: err.Error()}
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return Value{}, &DecodeError{Format: "yaml", Line: n.Line, Reason: fmt.Sprintf("%s is not a finite number", n.Value)}
		}
		return Float(f), nil
	default:
		return Str(n.Value), nil
	}
}

// FromAny converts Go data as produced by encoding/json or yaml.v3 decoding
// into generic containers. Map keys are sorted since Go maps carry no order.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return Str(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return Num(decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(t)), 0)), nil
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		return Num(decimal.NewFromBigInt(new(big.Int).SetUint64(t), 0)), nil
	case float32:
		return FromAny(float64(t))
	case float64:
		if math.IsInf(t, 0) || math.IsNaN(t) {
			return Value{}, &DecodeError{Format: "go", Reason: fmt.Sprintf("%v is not a finite number", t)}
		}
		return Float(t), nil
	case json.Number:
		d, err := decimal.NewFromString(string(t))
		if err != nil {
			return Value{}, &DecodeError{Format: "go", Reason: fmt.Sprintf("bad number %q", string(t))}
		}
		return Num(d), nil
	case decimal.Decimal:
		return Num(t), nil
	case []any:
		items := make([]Value, 0, len(t))
		for _, e := range t {
			v, err := FromAny(e)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return Arr(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]Member, 0, len(keys))
		for _, k := range keys {
			v, err := FromAny(t[k])
			if err != nil {
				return Value{}, err
			}
			members = append(members, Entry(k, v))
		}
		return Obj(members...), nil
	}
	return Value{}, &DecodeError{Format: "go", Reason: fmt.Sprintf("unsupported type %s", reflect.TypeOf(x))}
}

// MustFromAny is FromAny that panics on error. Intended for tests and
// package-level fixtures.
func MustFromAny(x any) Value {
	v, err := FromAny(x)
	if err != nil {
		panic(err)
	}
	return v
}

// Decoder turns an encoded document into a Value.
type Decoder func(data []byte) (Value, error)

// ParseAuto decodes data as JSON when it is valid JSON and as YAML otherwise.
func ParseAuto(data []byte) (Value, error) {
	if json.Valid(data) {
		return ParseJSON(data)
	}
	return ParseYAML(data)
}

// DecoderFor returns the Decoder for a format name: "json", "yaml" (or
// "yml") and "auto".
func DecoderFor(format string) (Decoder, error) {
	switch strings.ToLower(format) {
	case "json":
		return ParseJSON, nil
	case "yaml", "yml":
		return ParseYAML, nil
	case "", "auto":
		return ParseAuto, nil
	}
	return nil, fmt.Errorf("value: unknown document format %q", format)
}
