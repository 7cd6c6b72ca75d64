package tisch

import (
	"errors"
	"sync"
	"testing"
)

func TestResult_Basic(t *testing.T) {
	r := NewResult()

	if !r.Valid {
		t.Error("NewResult should be valid initially")
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v; want nil", r.Err())
	}
}

func TestResult_Fail(t *testing.T) {
	r := NewResult()
	r.Unit = "point"
	r.Fail("expected Number but got null", `in field "x"`)

	if r.Valid {
		t.Error("Result should be invalid after Fail")
	}
	if len(r.Diagnostics) != 2 {
		t.Errorf("len(Diagnostics) = %d; want 2", len(r.Diagnostics))
	}

	err := r.Err()
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("Err() = %v; want ErrInvalid", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Unit != "point" {
		t.Errorf("Err() = %#v; want a ValidationError for point", err)
	}
}

func TestResult_Limit(t *testing.T) {
	r := NewResult()
	r.Fail("a", "b", "c", "d")
	r.Limit(2)

	if len(r.Diagnostics) != 2 || r.Omitted != 2 {
		t.Errorf("Limit(2) left %v, omitted %d; want 2 kept, 2 omitted", r.Diagnostics, r.Omitted)
	}
	if got, want := r.Err().Error(), "a\nb\n... 2 more"; got != want {
		t.Errorf("Err() = %q; want %q", got, want)
	}

	r.Limit(0)
	if len(r.Diagnostics) != 2 {
		t.Errorf("Limit(0) changed diagnostics to %v", r.Diagnostics)
	}
}

func TestResult_Pool(t *testing.T) {
	r := AcquireResult()
	r.Unit = "u"
	r.Source = "a.json"
	r.Fail("x")
	r.Release()

	r2 := AcquireResult()
	defer r2.Release()
	if !r2.Valid || r2.Unit != "" || r2.Source != "" || len(r2.Diagnostics) != 0 {
		t.Errorf("AcquireResult() = %+v; want a reset result", r2)
	}
}

func TestResult_ReleaseUnpooled(t *testing.T) {
	r := NewResult()
	r.Fail("x")
	r.Release()
	if r.Valid || len(r.Diagnostics) != 1 {
		t.Error("Release should not touch an unpooled result")
	}

	var nilResult *Result
	nilResult.Release()
}

func TestResult_Clone(t *testing.T) {
	r := AcquireResult()
	r.Fail("x")
	clone := r.Clone()
	r.Release()

	clone.Diagnostics[0] = "y"
	if clone.Valid || len(clone.Diagnostics) != 1 {
		t.Errorf("Clone() = %+v; want an invalid copy", clone)
	}
	clone.Release()
}

func TestResult_ConcurrentPool(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := AcquireResult()
			if !r.Valid || len(r.Diagnostics) != 0 {
				t.Error("AcquireResult() returned a dirty result")
			}
			r.Fail("x")
			r.Release()
		}()
	}
	wg.Wait()
}
