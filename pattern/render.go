package pattern

import (
	"strconv"
	"strings"

	"github.com/dgoffredo/tisch/value"
)

func (n *Literal) String() string { return n.Value.String() }

func (n *Type) String() string { return string(n.Tag) }

func (n *Sequence) String() string {
	return "[" + joinNodes(n.Elements) + "]"
}

func (n *Variadic) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for _, p := range n.Prefix {
		sb.WriteString(render(p))
		sb.WriteString(", ")
	}
	sb.WriteString("...")
	sb.WriteString(render(n.Repeat))
	sb.WriteByte('(')
	sb.WriteString(n.Quantifier.String())
	sb.WriteString(")]")
	return sb.String()
}

func (n *EtcMarker) String() string {
	parts := make([]string, len(n.Bounds))
	for i, b := range n.Bounds {
		parts[i] = itoa(b)
	}
	return "...etc(" + strings.Join(parts, ", ") + ")"
}

func (f Field) String() string {
	var sb strings.Builder
	switch {
	case f.Any:
		sb.WriteString(AnyKey)
	case isIdentifier(f.Key):
		sb.WriteString(f.Key)
	default:
		sb.WriteString(value.Quote(f.Key))
	}
	if f.Optional {
		sb.WriteString(OptionalMarker)
	}
	sb.WriteString(": ")
	sb.WriteString(render(f.Pattern))
	return sb.String()
}

func (n *Mapping) String() string {
	return "{" + joinFields(n.Fields) + "}"
}

func (n *OpenMapping) String() string {
	rest := "...(" + n.Rest.String() + ")"
	if len(n.Fields) == 0 {
		return "{" + rest + "}"
	}
	return "{" + joinFields(n.Fields) + ", " + rest + "}"
}

func (n *Wildcard) String() string {
	s := "{" + AnyKey + ": " + render(n.Value)
	if n.Count != nil {
		s += ", ...(" + n.Count.String() + ")"
	}
	return s + "}"
}

func (n *Union) String() string {
	return "Or(" + joinNodes(n.Alternatives) + ")"
}

func (n *Ref) String() string { return "<" + n.Name + ">" }

func (n *Recursive) String() string {
	var sb strings.Builder
	sb.WriteString("Recursive(")
	for i, d := range n.Definitions {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("<" + d.Name + "> = " + render(d.Pattern))
	}
	sb.WriteString("; ")
	sb.WriteString(render(n.Body))
	sb.WriteByte(')')
	return sb.String()
}

func (n *Embed) String() string {
	if n.Matcher == nil {
		return "<nil matcher>"
	}
	return n.Matcher.String()
}

func (n *Use) String() string { return "use(" + value.Quote(n.Unit) + ")" }

// render tolerates nil nodes so that invalid trees can still be described in
// compile errors.
func render(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.String()
}

func joinNodes(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = render(n)
	}
	return strings.Join(parts, ", ")
}

func joinFields(fields []Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.String()
	}
	return strings.Join(parts, ", ")
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func itoa(n int) string {
	if n == Unbounded {
		return "*"
	}
	return strconv.Itoa(n)
}
