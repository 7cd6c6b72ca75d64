package tisch

import (
	"errors"
	"strings"
)

// ErrInvalid matches every *ValidationError under errors.Is.
var ErrInvalid = errors.New("value does not match pattern")

// ValidationError reports that a value did not match a pattern. It is the
// only error a mismatch produces; compile failures have their own types.
type ValidationError struct {
	// Unit names the pattern's unit, if it came from one.
	Unit string

	// Diagnostics is the failure trail, innermost mismatch first.
	Diagnostics []string
}

// Error returns the diagnostics, one per line.
func (e *ValidationError) Error() string {
	if len(e.Diagnostics) == 0 {
		return ErrInvalid.Error()
	}
	return strings.Join(e.Diagnostics, "\n")
}

// Is reports whether target is ErrInvalid.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}
