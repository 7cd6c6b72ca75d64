package tisch

import (
	"strconv"
	"sync"
	"time"
)

// Result is the outcome of validating one document.
//
// Results handed out by AcquireResult come from a sync.Pool; call Release
// when done with one. Results are not safe for concurrent mutation.
type Result struct {
	// Unit is the ID of the unit the document was validated against.
	Unit string `json:"unit,omitempty"`

	// Source names the document, e.g. a file path.
	Source string `json:"source,omitempty"`

	// Valid reports whether the document matched.
	Valid bool `json:"valid"`

	// Diagnostics is the failure trail. It is empty when Valid.
	Diagnostics []string `json:"diagnostics,omitempty"`

	// Omitted counts diagnostics dropped by Limit.
	Omitted int `json:"omitted,omitempty"`

	// Duration is the time spent decoding and matching.
	Duration time.Duration `json:"-"`

	pooled bool
}

var resultPool = sync.Pool{
	New: func() any {
		return &Result{Diagnostics: make([]string, 0, 8)}
	},
}

// AcquireResult gets a reset Result from the pool.
func AcquireResult() *Result {
	r := resultPool.Get().(*Result)
	r.Reset()
	r.pooled = true
	return r
}

// NewResult returns a valid, unpooled Result.
func NewResult() *Result {
	return &Result{Valid: true}
}

// Release returns r to the pool. r must not be used afterwards. Releasing an
// unpooled Result does nothing.
func (r *Result) Release() {
	if r == nil || !r.pooled {
		return
	}
	r.pooled = false
	// Don't keep large diagnostic trails alive in the pool.
	if cap(r.Diagnostics) > 256 {
		r.Diagnostics = nil
	}
	resultPool.Put(r)
}

// Reset makes r a valid, empty Result.
func (r *Result) Reset() {
	r.Unit = ""
	r.Source = ""
	r.Valid = true
	r.Diagnostics = r.Diagnostics[:0]
	r.Omitted = 0
	r.Duration = 0
}

// Fail marks r invalid and appends diagnostics.
func (r *Result) Fail(diagnostics ...string) {
	r.Valid = false
	r.Diagnostics = append(r.Diagnostics, diagnostics...)
}

// Limit keeps at most max diagnostics, counting the rest in Omitted. max <= 0
// keeps them all.
func (r *Result) Limit(max int) {
	if max <= 0 || len(r.Diagnostics) <= max {
		return
	}
	r.Omitted += len(r.Diagnostics) - max
	r.Diagnostics = r.Diagnostics[:max]
}

// Err returns nil if r is valid and a *ValidationError otherwise.
func (r *Result) Err() error {
	if r.Valid {
		return nil
	}
	diagnostics := make([]string, len(r.Diagnostics), len(r.Diagnostics)+1)
	copy(diagnostics, r.Diagnostics)
	if r.Omitted > 0 {
		diagnostics = append(diagnostics, "... "+strconv.Itoa(r.Omitted)+" more")
	}
	return &ValidationError{Unit: r.Unit, Diagnostics: diagnostics}
}

// Clone returns an unpooled copy of r.
func (r *Result) Clone() *Result {
	clone := *r
	clone.pooled = false
	clone.Diagnostics = append([]string(nil), r.Diagnostics...)
	return &clone
}
