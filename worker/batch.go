package worker

import (
	"context"
	"runtime"
	"strconv"
)

// RunBatch checks docs on up to workers goroutines and returns their results
// in input order. Job IDs are the document indexes.
func RunBatch(ctx context.Context, checker Checker, docs [][]byte, workers int) *BatchResult {
	jobs := make([]Job, len(docs))
	for i, doc := range docs {
		jobs[i] = Job{ID: strconv.Itoa(i), Index: i, Document: doc}
	}
	return RunJobs(ctx, checker, jobs, workers)
}

// RunJobs checks jobs on up to workers goroutines. Results are ordered as
// jobs are, whatever their Index fields. Jobs left unchecked because ctx was
// cancelled get ctx's error.
func RunJobs(ctx context.Context, checker Checker, jobs []Job, workers int) *BatchResult {
	br := &BatchResult{
		Results:   make([]*JobResult, len(jobs)),
		TotalJobs: len(jobs),
	}
	if len(jobs) == 0 {
		return br
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(jobs))

	// Small batches aren't worth the goroutines.
	if workers == 1 || len(jobs) <= 2 {
		runSequential(ctx, checker, jobs, br)
	} else {
		runParallel(ctx, checker, jobs, workers, br)
	}

	for i, r := range br.Results {
		if r == nil {
			r = &JobResult{ID: jobs[i].ID, Index: jobs[i].Index, Error: context.Cause(ctx)}
			br.Results[i] = r
			br.FailedJobs++
		}
	}
	return br
}

func runSequential(ctx context.Context, checker Checker, jobs []Job, br *BatchResult) {
	for i, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		r := check(ctx, checker, job)
		br.Results[i] = r
		br.count(r)
	}
}

func runParallel(ctx context.Context, checker Checker, jobs []Job, workers int, br *BatchResult) {
	// The pool sees positions, so results land in job order.
	pool := NewPool(ctx, checker, workers)
	defer pool.cancel()

	go func() {
		defer pool.Close()
		for i, job := range jobs {
			job.Index = i
			if !pool.Submit(job) {
				return
			}
		}
	}()

	for r := range pool.Results() {
		pos := r.Index
		r.Index = jobs[pos].Index
		br.Results[pos] = r
		br.count(r)
	}
}
