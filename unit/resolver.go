package unit

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/multierr"

	"github.com/dgoffredo/tisch/compile"
	"github.com/dgoffredo/tisch/pattern"
	"github.com/dgoffredo/tisch/pkg/logger"
)

// Resolver compiles units loaded from a Source.
//
// A Resolver holds no state between calls, so it is safe for concurrent use
// if its Source is.
type Resolver struct {
	source Source
	log    *logger.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for debug output. The default is
// logger.Default().
func WithLogger(l *logger.Logger) Option {
	return func(r *Resolver) {
		r.log = l
	}
}

// NewResolver creates a Resolver over source.
func NewResolver(source Source, opts ...Option) *Resolver {
	r := &Resolver{source: source, log: logger.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Compile compiles the unit id and, first, everything it requires.
func (r *Resolver) Compile(id string) (pattern.Matcher, error) {
	return r.newSession().compile(id)
}

// CompileAll compiles several units in one session, so units they share are
// loaded and compiled once. Every failure is reported; the returned map holds
// the units that compiled.
func (r *Resolver) CompileAll(ids ...string) (map[string]pattern.Matcher, error) {
	s := r.newSession()
	out := make(map[string]pattern.Matcher, len(ids))
	var errs error
	for _, id := range ids {
		m, err := s.compile(id)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		out[id] = m
	}
	return out, errs
}

// session is the memo of one top-level compile.
type session struct {
	r      *Resolver
	memo   map[string]pattern.Matcher
	failed map[string]error
	stack  []string
}

func (r *Resolver) newSession() *session {
	return &session{
		r:      r,
		memo:   make(map[string]pattern.Matcher),
		failed: make(map[string]error),
	}
}

func (s *session) compile(id string) (pattern.Matcher, error) {
	if m, ok := s.memo[id]; ok {
		s.r.log.Debug("unit %q: reusing compiled matcher", id)
		return m, nil
	}
	if err, ok := s.failed[id]; ok {
		return nil, err
	}
	if i := slices.Index(s.stack, id); i >= 0 {
		chain := append(slices.Clone(s.stack[i:]), id)
		return nil, &Error{Unit: id, Err: fmt.Errorf("%w: %s", ErrDependencyCycle, strings.Join(chain, " -> "))}
	}

	s.stack = append(s.stack, id)
	m, err := s.build(id)
	s.stack = s.stack[:len(s.stack)-1]

	if err != nil {
		s.failed[id] = err
		return nil, err
	}
	s.memo[id] = m
	return m, nil
}

func (s *session) build(id string) (pattern.Matcher, error) {
	u, err := s.r.source.Load(id)
	if err != nil {
		return nil, &Error{Unit: id, Err: err}
	}
	if u == nil {
		return nil, &Error{Unit: id, Err: ErrNotFound}
	}
	if u.Pattern != nil && u.Define != nil {
		return nil, &Error{Unit: id, Err: ErrInvalidUnit}
	}

	deps := make(Deps, len(u.Requires))
	for _, dep := range u.Requires {
		m, err := s.compile(dep)
		if err != nil {
			return nil, &Error{Unit: id, Err: err}
		}
		deps[dep] = m
	}

	n := u.Pattern
	if u.Define != nil {
		if n, err = u.Define(deps); err != nil {
			return nil, &Error{Unit: id, Err: err}
		}
	}
	if n == nil {
		return nil, &Error{Unit: id, Err: ErrNoPattern}
	}

	for _, used := range pattern.Uses(n) {
		if _, ok := deps[used]; !ok {
			return nil, &Error{Unit: id, Err: fmt.Errorf("%w: %q", ErrUndeclaredDependency, used)}
		}
	}

	m, err := compile.Compile(n, compile.WithUnits(deps))
	if err != nil {
		return nil, &Error{Unit: id, Err: err}
	}
	s.r.log.Debug("unit %q: compiled with %d dependencies", id, len(deps))
	return m, nil
}
