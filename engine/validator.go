// Package engine is the public validation surface: Validators wrap compiled
// patterns, and an Engine compiles units on demand, caches their Validators
// and validates batches of documents on a worker pool.
package engine

import (
	"time"

	"github.com/dgoffredo/tisch"
	"github.com/dgoffredo/tisch/diag"
	"github.com/dgoffredo/tisch/pattern"
	"github.com/dgoffredo/tisch/value"
)

// Validator checks values against one compiled pattern.
//
// Validate, Errors and Enforce share the Validator's diagnostic log and must
// not be called concurrently. Check keeps its diagnostics to itself and may
// be called from any number of goroutines.
type Validator struct {
	unit    string
	matcher pattern.Matcher
	log     *diag.Log
	metrics *tisch.Metrics
}

// NewValidator wraps a compiled matcher.
func NewValidator(m pattern.Matcher) *Validator {
	return &Validator{matcher: m, log: diag.New()}
}

// Unit returns the ID of the unit v was compiled from, or "".
func (v *Validator) Unit() string {
	return v.unit
}

// Matcher returns the compiled pattern.
func (v *Validator) Matcher() pattern.Matcher {
	return v.matcher
}

// String renders the pattern.
func (v *Validator) String() string {
	return v.matcher.String()
}

// Clone returns a Validator sharing v's pattern with a log of its own.
func (v *Validator) Clone() *Validator {
	clone := *v
	clone.log = diag.New()
	return &clone
}

// Validate reports whether val matches. On failure Errors holds the
// diagnostics; on success it is empty.
func (v *Validator) Validate(val value.Value) bool {
	start := time.Now()
	v.log.Clear()
	ok := v.matcher.Match(val, v.log)
	if ok {
		v.log.Clear()
	}
	v.record(start, ok, v.log.Len())
	return ok
}

// Errors returns the diagnostics of the most recent Validate or Enforce.
func (v *Validator) Errors() []string {
	return v.log.Entries()
}

// Enforce returns val if it matches, and otherwise a *tisch.ValidationError
// whose message is the diagnostics, one per line.
func (v *Validator) Enforce(val value.Value) (value.Value, error) {
	if v.Validate(val) {
		return val, nil
	}
	return value.Value{}, &tisch.ValidationError{Unit: v.unit, Diagnostics: v.log.Entries()}
}

// Check reports whether val matches and, if not, why. It does not touch the
// shared log.
func (v *Validator) Check(val value.Value) (bool, []string) {
	start := time.Now()
	log := diag.New()
	ok := v.matcher.Match(val, log)
	if ok {
		v.record(start, true, 0)
		return true, nil
	}
	v.record(start, false, log.Len())
	return false, log.Entries()
}

// ValidateJSON decodes a JSON document and validates it. The error is set
// only when data is not JSON.
func (v *Validator) ValidateJSON(data []byte) (bool, error) {
	val, err := value.ParseJSON(data)
	if err != nil {
		v.log.Clear()
		if v.metrics != nil {
			v.metrics.RecordDecodeError()
		}
		return false, err
	}
	return v.Validate(val), nil
}

func (v *Validator) record(start time.Time, ok bool, diagnostics int) {
	if v.metrics != nil {
		v.metrics.RecordValidation(time.Since(start), ok, diagnostics)
	}
}
