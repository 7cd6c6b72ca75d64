package worker

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

// mockChecker accepts documents containing "ok" and rejects the rest.
type mockChecker struct {
	callCount atomic.Int32
	delay     time.Duration
	err       error
}

func (m *mockChecker) Check(ctx context.Context, doc []byte) (bool, []string, error) {
	m.callCount.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return false, nil, ctx.Err()
		}
	}
	if m.err != nil {
		return false, nil, m.err
	}
	if bytes.Contains(doc, []byte("ok")) {
		return true, nil, nil
	}
	return false, []string{"not ok: " + string(doc)}, nil
}

func docs(items ...string) [][]byte {
	out := make([][]byte, len(items))
	for i, s := range items {
		out[i] = []byte(s)
	}
	return out
}

func TestPool_DefaultWorkers(t *testing.T) {
	pool := NewPool(context.Background(), &mockChecker{}, 0)
	defer pool.Stop()

	if pool.workers <= 0 {
		t.Errorf("workers = %d; want > 0", pool.workers)
	}
}

func TestPool_SubmitAndReceive(t *testing.T) {
	pool := NewPool(context.Background(), &mockChecker{}, 2)

	if !pool.Submit(Job{ID: "a.json", Document: []byte("ok")}) {
		t.Fatal("Submit returned false")
	}
	pool.Close()

	r := <-pool.Results()
	if r == nil || r.ID != "a.json" {
		t.Fatalf("result = %+v; want a.json", r)
	}
	if r.Error != nil || r.Result == nil || !r.Result.Valid {
		t.Errorf("result = %+v; want a valid result", r)
	}
	if r.Result.Source != "a.json" {
		t.Errorf("Source = %q; want a.json", r.Result.Source)
	}
	r.Result.Release()

	if _, ok := <-pool.Results(); ok {
		t.Error("Results should be closed after Close")
	}
}

func TestPool_SubmitAfterClose(t *testing.T) {
	pool := NewPool(context.Background(), &mockChecker{}, 1)
	pool.Close()
	pool.Close()

	if pool.Submit(Job{ID: "x"}) {
		t.Error("Submit after Close should return false")
	}
}

func TestPool_CloseAndWait(t *testing.T) {
	checker := &mockChecker{}
	pool := NewPool(context.Background(), checker, 3)

	for i := 0; i < 5; i++ {
		doc := "ok"
		if i%2 == 1 {
			doc = "bad"
		}
		pool.Submit(Job{ID: strconv.Itoa(i), Index: i, Document: []byte(doc)})
	}

	br := pool.CloseAndWait()
	defer br.Release()

	if br.TotalJobs != 5 || br.CompletedJobs != 5 {
		t.Errorf("TotalJobs, CompletedJobs = %d, %d; want 5, 5", br.TotalJobs, br.CompletedJobs)
	}
	if br.InvalidJobs != 2 || br.FailedJobs != 0 {
		t.Errorf("InvalidJobs, FailedJobs = %d, %d; want 2, 0", br.InvalidJobs, br.FailedJobs)
	}
	if br.DiagnosticCount() != 2 {
		t.Errorf("DiagnosticCount() = %d; want 2", br.DiagnosticCount())
	}
	if br.Valid() {
		t.Error("Valid() = true; want false")
	}
	if got := checker.callCount.Load(); got != 5 {
		t.Errorf("Check called %d times; want 5", got)
	}
	if stats := pool.Stats(); stats.JobsCompleted != 5 || stats.Workers != 3 {
		t.Errorf("Stats() = %+v; want 5 jobs on 3 workers", stats)
	}
}

func TestPool_NoChecker(t *testing.T) {
	pool := NewPool(context.Background(), nil, 1)
	pool.Submit(Job{ID: "x"})
	br := pool.CloseAndWait()

	if br.FailedJobs != 1 || !errors.Is(br.Results[0].Error, ErrNoChecker) {
		t.Errorf("results = %+v; want one ErrNoChecker failure", br.Results)
	}
}

func TestPool_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, &mockChecker{delay: time.Second}, 1)

	pool.Submit(Job{ID: "slow"})
	cancel()

	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after cancellation")
	}
	if pool.Submit(Job{ID: "late"}) {
		t.Error("Submit after cancellation should return false")
	}
}

func TestRunBatch_Ordered(t *testing.T) {
	input := docs("ok-0", "bad-1", "ok-2", "ok-3", "bad-4", "ok-5", "ok-6", "bad-7")
	br := RunBatch(context.Background(), &mockChecker{}, input, 4)
	defer br.Release()

	if len(br.Results) != len(input) {
		t.Fatalf("len(Results) = %d; want %d", len(br.Results), len(input))
	}
	for i, r := range br.Results {
		if r.Index != i || r.ID != strconv.Itoa(i) {
			t.Errorf("Results[%d] = {ID: %s, Index: %d}; want index %d", i, r.ID, r.Index, i)
		}
		wantValid := bytes.HasPrefix(input[i], []byte("ok"))
		if r.Result.Valid != wantValid {
			t.Errorf("Results[%d].Valid = %v; want %v", i, r.Result.Valid, wantValid)
		}
	}
	if br.InvalidJobs != 3 || br.CompletedJobs != 8 {
		t.Errorf("InvalidJobs, CompletedJobs = %d, %d; want 3, 8", br.InvalidJobs, br.CompletedJobs)
	}
}

func TestRunBatch_Sequential(t *testing.T) {
	br := RunBatch(context.Background(), &mockChecker{}, docs("ok", "ok"), 8)
	if !br.Valid() || br.CompletedJobs != 2 {
		t.Errorf("RunBatch() = %+v; want 2 valid results", br)
	}
	br.Release()
	if br.Results[0].Result != nil {
		t.Error("Release should clear results")
	}
}

func TestRunBatch_Empty(t *testing.T) {
	br := RunBatch(context.Background(), &mockChecker{}, nil, 4)
	if len(br.Results) != 0 || !br.Valid() {
		t.Errorf("RunBatch(nil) = %+v; want an empty valid batch", br)
	}
}

func TestRunBatch_Errors(t *testing.T) {
	boom := errors.New("boom")
	br := RunBatch(context.Background(), &mockChecker{err: boom}, docs("a", "b", "c"), 2)

	if br.FailedJobs != 3 {
		t.Errorf("FailedJobs = %d; want 3", br.FailedJobs)
	}
	for i, r := range br.Results {
		if !errors.Is(r.Error, boom) || r.Result != nil {
			t.Errorf("Results[%d] = %+v; want boom", i, r)
		}
	}
}

func TestRunBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	br := RunBatch(ctx, &mockChecker{}, docs("ok", "ok", "ok", "ok"), 2)
	if br.Valid() {
		t.Error("a cancelled batch should not be valid")
	}
	for i, r := range br.Results {
		if r == nil {
			t.Fatalf("Results[%d] = nil; want a result", i)
		}
		if r.Error == nil && r.Result == nil {
			t.Errorf("Results[%d] has neither a result nor an error", i)
		}
	}
}

func TestRunJobs_KeepsIndexes(t *testing.T) {
	jobs := []Job{
		{ID: "b.json", Index: 10, Document: []byte("ok")},
		{ID: "a.json", Index: 20, Document: []byte("bad")},
		{ID: "c.json", Index: 30, Document: []byte("ok")},
	}
	br := RunJobs(context.Background(), CheckerFunc((&mockChecker{}).Check), jobs, 3)

	for i, r := range br.Results {
		if r.ID != jobs[i].ID || r.Index != jobs[i].Index {
			t.Errorf("Results[%d] = {%s, %d}; want {%s, %d}", i, r.ID, r.Index, jobs[i].ID, jobs[i].Index)
		}
	}
}

func TestBatchResult_Add(t *testing.T) {
	br := &BatchResult{}
	br.Add(&JobResult{ID: "a", Error: errors.New("x")})
	br.Add(&JobResult{ID: "b", Duration: time.Millisecond})

	if br.TotalJobs != 2 || br.CompletedJobs != 2 || br.FailedJobs != 1 {
		t.Errorf("counters = %+v; want 2 total, 2 completed, 1 failed", br)
	}
	if br.TotalDuration != time.Millisecond {
		t.Errorf("TotalDuration = %s; want 1ms", br.TotalDuration)
	}
}
