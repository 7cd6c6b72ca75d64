package pattern

import (
	"errors"
	"reflect"
)

// VisitorFunc is called for each node during Walk. Return SkipChildren to
// leave the node's children unvisited, or any other error to stop walking
// with that error.
type VisitorFunc func(n Node) error

// SkipChildren tells Walk not to descend into the current node.
var SkipChildren = errors.New("skip children")

// Walk visits n and its descendants depth-first in declaration order. Nil
// nodes are not visited. Embedded matchers are leaves; Recursive groups visit
// their definitions before the body.
func Walk(n Node, visit VisitorFunc) error {
	if n == nil || reflect.ValueOf(n).IsNil() {
		return nil
	}
	if err := visit(n); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}

	switch n := n.(type) {
	case *Sequence:
		return walkAll(n.Elements, visit)
	case *Variadic:
		if err := walkAll(n.Prefix, visit); err != nil {
			return err
		}
		return Walk(n.Repeat, visit)
	case *Mapping:
		return walkFields(n.Fields, visit)
	case *OpenMapping:
		return walkFields(n.Fields, visit)
	case *Wildcard:
		return Walk(n.Value, visit)
	case *Union:
		return walkAll(n.Alternatives, visit)
	case *Recursive:
		for _, d := range n.Definitions {
			if err := Walk(d.Pattern, visit); err != nil {
				return err
			}
		}
		return Walk(n.Body, visit)
	}
	return nil
}

func walkAll(nodes []Node, visit VisitorFunc) error {
	for _, c := range nodes {
		if err := Walk(c, visit); err != nil {
			return err
		}
	}
	return nil
}

func walkFields(fields []Field, visit VisitorFunc) error {
	for _, f := range fields {
		if err := Walk(f.Pattern, visit); err != nil {
			return err
		}
	}
	return nil
}

// Uses returns the unit IDs named by Use nodes in n, each once, in the order
// first seen.
func Uses(n Node) []string {
	var ids []string
	seen := make(map[string]bool)
	_ = Walk(n, func(n Node) error {
		if u, ok := n.(*Use); ok && !seen[u.Unit] {
			seen[u.Unit] = true
			ids = append(ids, u.Unit)
		}
		return nil
	})
	return ids
}
