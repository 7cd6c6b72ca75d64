package pattern

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Unbounded is the Max of a quantifier without an upper limit.
const Unbounded = math.MaxInt

// ErrBadBounds is returned for quantifier bounds that cannot be satisfied or
// were malformed by the front end.
var ErrBadBounds = errors.New("invalid quantifier bounds")

// Quantifier bounds a repetition count, inclusive on both ends.
type Quantifier struct {
	Min int
	Max int
}

// Between returns {min, max}.
func Between(min, max int) Quantifier {
	return Quantifier{Min: min, Max: max}
}

// AtLeast returns {min, unbounded}.
func AtLeast(min int) Quantifier {
	return Quantifier{Min: min, Max: Unbounded}
}

// Exactly returns {n, n}.
func Exactly(n int) Quantifier {
	return Quantifier{Min: n, Max: n}
}

// ZeroOrMore returns {0, unbounded}.
func ZeroOrMore() Quantifier {
	return AtLeast(0)
}

// Validate checks 0 <= Min <= Max.
func (q Quantifier) Validate() error {
	if q.Min < 0 {
		return fmt.Errorf("%w: min %d is negative", ErrBadBounds, q.Min)
	}
	if q.Max < q.Min {
		return fmt.Errorf("%w: max %s is less than min %d", ErrBadBounds, q.maxString(), q.Min)
	}
	return nil
}

// Allows reports whether n is within bounds.
func (q Quantifier) Allows(n int) bool {
	return n >= q.Min && n <= q.Max
}

// Bounded reports whether the quantifier has an upper limit.
func (q Quantifier) Bounded() bool {
	return q.Max != Unbounded
}

// String renders the bounds as "min..max", using "*" for no upper limit.
func (q Quantifier) String() string {
	return strconv.Itoa(q.Min) + ".." + q.maxString()
}

func (q Quantifier) maxString() string {
	if q.Max == Unbounded {
		return "*"
	}
	return strconv.Itoa(q.Max)
}

// EtcBounds interprets raw marker bounds the way etc() does: no arguments is
// zero or more, one argument is a minimum, two are minimum and maximum. A
// negative maximum means unbounded.
func EtcBounds(bounds []int) (Quantifier, error) {
	var q Quantifier
	switch len(bounds) {
	case 0:
		q = ZeroOrMore()
	case 1:
		q = AtLeast(bounds[0])
	case 2:
		q = Between(bounds[0], bounds[1])
		if bounds[1] < 0 {
			q.Max = Unbounded
		}
	default:
		return Quantifier{}, fmt.Errorf("%w: expected at most 2 bounds, got %d", ErrBadBounds, len(bounds))
	}
	if err := q.Validate(); err != nil {
		return Quantifier{}, err
	}
	return q, nil
}
