package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dgoffredo/tisch/worker"
)

// containsOK accepts documents containing "ok", slowly for the early ones so
// results finish out of order.
var containsOK = worker.CheckerFunc(func(ctx context.Context, doc []byte) (bool, []string, error) {
	if bytes.Contains(doc, []byte("slow")) {
		time.Sleep(20 * time.Millisecond)
	}
	if bytes.Contains(doc, []byte("ok")) {
		return true, nil, nil
	}
	return false, []string{"no ok in " + string(doc)}, nil
})

func collect(t *testing.T, s Splitter) []string {
	t.Helper()
	var docs []string
	for {
		doc, err := s.Next()
		if err == io.EOF {
			return docs
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		docs = append(docs, strings.TrimSpace(string(doc)))
	}
}

func TestJSON(t *testing.T) {
	got := collect(t, JSON(strings.NewReader("{\"a\": 1}\n[1, 2]\n\"x\" 3\n")))
	want := []string{`{"a": 1}`, `[1, 2]`, `"x"`, `3`}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("JSON() = %q; want %q", got, want)
	}
}

func TestJSONArray(t *testing.T) {
	got := collect(t, JSONArray(strings.NewReader(` [ {"a": [1]}, 2, "three" ] `)))
	want := []string{`{"a": [1]}`, `2`, `"three"`}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("JSONArray() = %q; want %q", got, want)
	}

	if got := collect(t, JSONArray(strings.NewReader(`[]`))); len(got) != 0 {
		t.Errorf("JSONArray([]) = %q; want nothing", got)
	}
}

func TestJSONArray_Errors(t *testing.T) {
	for _, input := range []string{`{"a": 1}`, `[1, `, ``} {
		s := JSONArray(strings.NewReader(input))
		var err error
		for err == nil {
			_, err = s.Next()
		}
		var se *SplitError
		if !errors.As(err, &se) {
			t.Errorf("JSONArray(%q) error = %v; want a *SplitError", input, err)
		}
		if _, err := s.Next(); err != io.EOF {
			t.Errorf("Next() after failure = %v; want io.EOF", err)
		}
	}
}

func TestYAML(t *testing.T) {
	got := collect(t, YAML(strings.NewReader("a: 1\n---\n- x\n- y\n---\nok\n")))
	want := []string{"a: 1", "- x\n- y", "ok"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("YAML() = %q; want %q", got, want)
	}
}

func TestFor(t *testing.T) {
	tests := []struct {
		format string
		input  string
		want   int
	}{
		{"json", `1 2 3`, 3},
		{"array", `[1, 2]`, 2},
		{"yaml", "a\n---\nb\n", 2},
		{"auto", "\n  {\"a\": 1}\n{\"b\": 2}\n", 2},
		{"auto", "a: 1\n---\nb: 2\n", 2},
	}
	for _, tt := range tests {
		s, err := For(tt.format, strings.NewReader(tt.input))
		if err != nil {
			t.Fatalf("For(%q) error = %v", tt.format, err)
		}
		if got := collect(t, s); len(got) != tt.want {
			t.Errorf("For(%q) split %q into %q; want %d documents", tt.format, tt.input, got, tt.want)
		}
	}

	if _, err := For("csv", strings.NewReader("")); err == nil {
		t.Error("For(csv) should fail")
	}
}

func TestValidateStream_Ordered(t *testing.T) {
	input := `"slow ok" "bad" "ok" "slow bad" "ok" "ok"`
	v := NewValidator(containsOK).WithWorkerCount(3).WithBufferSize(2)
	results := v.ValidateStream(context.Background(), "in", JSON(strings.NewReader(input)))

	var valid []bool
	i := 0
	for r := range results {
		if r.Index != i {
			t.Errorf("result %d has Index %d", i, r.Index)
		}
		if want := "in[" + string(rune('0'+i)) + "]"; r.ID != want {
			t.Errorf("result %d has ID %q; want %q", i, r.ID, want)
		}
		if r.Error != nil {
			t.Fatalf("result %d error = %v", i, r.Error)
		}
		valid = append(valid, r.Result.Valid)
		r.Result.Release()
		i++
	}

	want := []bool{true, false, true, false, true, true}
	if len(valid) != len(want) {
		t.Fatalf("got %d results; want %d", len(valid), len(want))
	}
	for i := range want {
		if valid[i] != want[i] {
			t.Errorf("valid[%d] = %v; want %v", i, valid[i], want[i])
		}
	}
}

func TestValidateStream_SplitError(t *testing.T) {
	v := NewValidator(containsOK)
	br := Aggregate(v.ValidateStream(context.Background(), "in", JSON(strings.NewReader(`"ok" "ok" {oops`))))
	defer br.Release()

	if br.TotalJobs != 3 || br.FailedJobs != 1 {
		t.Fatalf("Aggregate() = %+v; want 2 documents and 1 stream error", br)
	}
	last := br.Results[2]
	var se *SplitError
	if !errors.As(last.Error, &se) || se.Index != 2 {
		t.Errorf("last error = %v; want a SplitError at document 2", last.Error)
	}
	if last.ID != "in[2]" {
		t.Errorf("last ID = %q; want in[2]", last.ID)
	}
}

func TestValidateStream_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := NewValidator(containsOK)
	br := Aggregate(v.ValidateStream(ctx, "in", JSON(strings.NewReader(`"ok" "ok" "ok"`))))
	defer br.Release()

	if br.Valid() {
		t.Fatalf("Aggregate() = %+v; want a failure", br)
	}
	last := br.Results[len(br.Results)-1]
	if !errors.Is(last.Error, context.Canceled) {
		t.Errorf("last error = %v; want context.Canceled", last.Error)
	}
}

func TestAggregate(t *testing.T) {
	v := NewValidator(containsOK)
	br := Aggregate(v.ValidateStream(context.Background(), "in", YAML(strings.NewReader("ok\n---\nno\n---\nok\n"))))
	defer br.Release()

	if br.TotalJobs != 3 || br.InvalidJobs != 1 || br.FailedJobs != 0 {
		t.Errorf("Aggregate() = %+v; want 3 documents, 1 invalid", br)
	}
}
