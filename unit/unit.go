// Package unit compiles named patterns that depend on one another.
//
// A Unit is one named pattern. It lists the IDs of the units it requires and
// either carries a pattern tree (in which pattern.Use nodes name the required
// units) or a Define function that receives the required units' compiled
// matchers and builds its tree from them.
//
// A Resolver loads units from a Source and compiles them. Within one top-level
// compile, every unit is loaded and compiled at most once, and every
// reference to it shares the same matcher. A unit that is requested while it
// is still being compiled is a dependency cycle and is rejected with
// ErrDependencyCycle; recursion belongs inside one unit, as a
// pattern.Recursive group.
package unit

import (
	"errors"
	"strconv"

	"github.com/dgoffredo/tisch/pattern"
)

// Resolution error kinds. Test for them with errors.Is.
var (
	ErrNotFound             = errors.New("unit not found")
	ErrDependencyCycle      = errors.New("dependency cycle")
	ErrUndeclaredDependency = errors.New("use of a unit not listed in requires")
	ErrNoPattern            = errors.New("unit has neither a pattern nor a define function")
	ErrInvalidUnit          = errors.New("unit has both a pattern and a define function")
)

// Unit is a named pattern together with its dependencies.
type Unit struct {
	// ID names the unit. Sources may leave it empty; the resolver always
	// uses the ID it asked for.
	ID string

	// Requires lists the IDs of the units this one embeds.
	Requires []string

	// Pattern is the unit's tree. It may contain pattern.Use nodes naming
	// units in Requires.
	Pattern pattern.Node

	// Define builds the unit's tree from its compiled dependencies. Set
	// either Define or Pattern.
	Define func(deps Deps) (pattern.Node, error)
}

// Deps maps the IDs of a unit's required units to their compiled matchers.
type Deps map[string]pattern.Matcher

// Node returns the dependency id as an embeddable pattern node. An ID missing
// from d becomes a pattern.Use, which fails to compile as unresolved.
func (d Deps) Node(id string) pattern.Node {
	if m, ok := d[id]; ok {
		return pattern.Compiled(m)
	}
	return pattern.Import(id)
}

// Source loads units by ID. Load returns an error wrapping ErrNotFound when
// there is no such unit.
type Source interface {
	Load(id string) (*Unit, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(id string) (*Unit, error)

// Load calls f(id).
func (f SourceFunc) Load(id string) (*Unit, error) {
	return f(id)
}

// Map is a Source backed by units built in Go.
type Map map[string]*Unit

// Load returns m[id].
func (m Map) Load(id string) (*Unit, error) {
	u, ok := m[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

// Error reports a failure to compile a unit. Failures in a dependency are
// nested: unit "order": unit "address": ...
type Error struct {
	Unit string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return "unit " + strconv.Quote(e.Unit) + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}
