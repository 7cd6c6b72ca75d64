// Package tisch validates JSON-like values against structural patterns.
//
// A pattern describes the shape of a value: literals, type tags, fixed and
// variadic arrays, closed, open and wildcard objects, unions, and
// self-referential definitions. Patterns are built with package pattern or
// loaded from YAML/JSON pattern documents with package loader, compiled into
// matchers by package compile, and checked through package engine. A failed
// match is never an error: it yields false and a trail of diagnostics.
//
// # Quick Start
//
//	import (
//	    "github.com/dgoffredo/tisch/compile"
//	    "github.com/dgoffredo/tisch/engine"
//	    p "github.com/dgoffredo/tisch/pattern"
//	    "github.com/dgoffredo/tisch/value"
//	)
//
//	point := p.Obj(p.Key("x", p.Number), p.Key("y", p.Number), p.Key("label?", p.String))
//
//	v := engine.NewValidator(compile.MustCompile(point))
//	doc, _ := value.ParseJSON([]byte(`{"x": 1, "y": "2"}`))
//	if !v.Validate(doc) {
//	    fmt.Println(strings.Join(v.Errors(), "\n"))
//	}
//
// # Units and the Engine
//
// Larger schemas are split into units, one pattern document per file, that
// require one another:
//
//	e, err := engine.New(loader.Dir("patterns"),
//	    tisch.WithCacheSize(64),
//	    tisch.WithWorkerCount(runtime.NumCPU()),
//	)
//
//	br, err := e.ValidateBatch(ctx, "order", documents)
//	defer br.Release()
//
// This package holds what the other packages share: Options, Metrics, the
// pooled per-document Result and ValidationError.
package tisch
