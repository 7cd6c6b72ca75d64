package compile

import (
	"strings"

	"github.com/dgoffredo/tisch/pattern"
)

// cell is a one-shot binding slot for a named definition. References compiled
// before the definition hold the cell, not the matcher, and read the target at
// match time.
type cell struct {
	name   string
	target pattern.Matcher
}

func (c *cell) bind(m pattern.Matcher) error {
	if c.target != nil {
		return ErrRebind
	}
	c.target = m
	return nil
}

// scope maps the names of one Recursive group to their cells. Inner groups
// shadow outer ones.
type scope struct {
	cells  map[string]*cell
	parent *scope
}

func (s *scope) lookup(name string) (*cell, bool) {
	for ; s != nil; s = s.parent {
		if cl, ok := s.cells[name]; ok {
			return cl, true
		}
	}
	return nil, false
}

func (c *compiler) ref(n *pattern.Ref, path string) pattern.Matcher {
	cl, ok := c.scope.lookup(n.Name)
	if !ok {
		return c.fail(path, ErrUndefinedRef, "<%s>", n.Name)
	}
	return &refMatcher{cell: cl}
}

// recursive creates a cell per definition, compiles every definition (so
// helpers reached only from other definitions are bound too), binds the cells
// and finally compiles the body within the group's scope.
func (c *compiler) recursive(n *pattern.Recursive, path string) pattern.Matcher {
	sc := &scope{cells: make(map[string]*cell, len(n.Definitions)), parent: c.scope}
	cells := make([]*cell, len(n.Definitions))
	for i, d := range n.Definitions {
		if d.Name == "" {
			return c.fail(index(path+".define", i), ErrUndefinedRef, "definition has no name")
		}
		if _, dup := sc.cells[d.Name]; dup {
			return c.fail(path+".define."+d.Name, ErrDuplicateName, "<%s>", d.Name)
		}
		cells[i] = &cell{name: d.Name}
		sc.cells[d.Name] = cells[i]
	}
	c.cells = append(c.cells, cells...)

	outer := c.scope
	c.scope = sc
	defer func() { c.scope = outer }()

	ok := true
	for i, d := range n.Definitions {
		dpath := path + ".define." + d.Name
		m := c.compile(d.Pattern, dpath)
		if m == nil {
			ok = false
			continue
		}
		if err := cells[i].bind(m); err != nil {
			c.fail(dpath, err, "")
			ok = false
		}
	}
	if !ok {
		return nil
	}

	for _, cl := range cells {
		if cycle := unguardedCycle(cl); cycle != nil {
			return c.fail(path+".define."+cl.name, ErrEmptyCycle, "%s", strings.Join(cycle, " -> "))
		}
	}

	return c.compile(n.Body, path+".body")
}

// unguardedCycle looks for a path from start back to itself that passes only
// through references and unions. Such a definition would recurse on the same
// value forever, so it can never match anything. The returned slice names the
// cells along the cycle.
func unguardedCycle(start *cell) []string {
	visited := make(map[pattern.Matcher]bool)
	var trail []string

	var walk func(m pattern.Matcher) bool
	walk = func(m pattern.Matcher) bool {
		switch m := m.(type) {
		case *refMatcher:
			trail = append(trail, "<"+m.cell.name+">")
			if m.cell == start {
				return true
			}
			if m.cell.target != nil && !visited[m] {
				visited[m] = true
				if walk(m.cell.target) {
					return true
				}
			}
			trail = trail[:len(trail)-1]
		case *unionMatcher:
			if visited[m] {
				return false
			}
			visited[m] = true
			for _, alt := range m.alternatives {
				if walk(alt) {
					return true
				}
			}
		}
		return false
	}

	if walk(start.target) {
		return append([]string{"<" + start.name + ">"}, trail...)
	}
	return nil
}
