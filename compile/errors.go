package compile

import (
	"errors"
	"fmt"
)

// Compile error kinds. Test for them with errors.Is.
var (
	ErrNilNode           = errors.New("nil pattern node")
	ErrInvalidLiteral    = errors.New("literal must be a string, number, boolean or null")
	ErrInvalidType       = errors.New("unknown type tag")
	ErrInvalidQuantifier = errors.New("invalid quantifier")
	ErrMisplacedEtc      = errors.New("misplaced repetition marker")
	ErrWildcardSiblings  = errors.New("wildcard key must be the only key of its mapping")
	ErrDuplicateKey      = errors.New("duplicate mapping key")
	ErrUndefinedRef      = errors.New("reference to undefined name")
	ErrDuplicateName     = errors.New("name defined twice in one group")
	ErrEmptyCycle        = errors.New("recursive definition matches no structure")
	ErrUnboundRef        = errors.New("placeholder left unbound")
	ErrRebind            = errors.New("placeholder bound twice")
	ErrUnresolvedUse     = errors.New("unit reference was not resolved")
)

// Error is a structural defect in a pattern tree. Path locates the
// offending node from the root, e.g. "$.items[1].or[0]".
type Error struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return "compile: " + e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error kind.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(path string, kind error, format string, args ...any) *Error {
	if format == "" {
		return &Error{Path: path, Err: kind}
	}
	return &Error{Path: path, Err: fmt.Errorf("%w: "+format, append([]any{kind}, args...)...)}
}
