package worker

import (
	"context"
	"time"

	"github.com/dgoffredo/tisch"
)

// Checker validates one encoded document. It returns whether the document
// matched and, if not, its diagnostics. An error means the document could
// not be checked at all, e.g. it failed to decode.
//
// Check is called from several goroutines at once.
type Checker interface {
	Check(ctx context.Context, doc []byte) (bool, []string, error)
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, doc []byte) (bool, []string, error)

// Check calls f(ctx, doc).
func (f CheckerFunc) Check(ctx context.Context, doc []byte) (bool, []string, error) {
	return f(ctx, doc)
}

// Job is one document to check.
type Job struct {
	// ID names the document, e.g. its file path.
	ID string

	// Index is the document's position in its batch.
	Index int

	// Document is the encoded document.
	Document []byte
}

// JobResult is the outcome of one Job.
type JobResult struct {
	// ID and Index are copied from the Job.
	ID    string
	Index int

	// Result is set when the document was checked. It comes from the
	// tisch result pool.
	Result *tisch.Result

	// Error is set when the document could not be checked.
	Error error

	// Duration is the time taken by the check.
	Duration time.Duration
}

// BatchResult aggregates the results of a batch.
type BatchResult struct {
	// Results holds one entry per job. In results returned by RunBatch and
	// RunJobs it is ordered by Job.Index.
	Results []*JobResult

	// TotalJobs is the number of jobs submitted.
	TotalJobs int

	// CompletedJobs is the number of jobs that ran, including failed ones.
	CompletedJobs int

	// FailedJobs is the number of jobs that ended with an error.
	FailedJobs int

	// InvalidJobs is the number of documents that did not match.
	InvalidJobs int

	// TotalDuration sums the jobs' durations.
	TotalDuration time.Duration
}

// Valid reports whether every job ran and every document matched.
func (br *BatchResult) Valid() bool {
	return br.CompletedJobs == br.TotalJobs && br.FailedJobs == 0 && br.InvalidJobs == 0
}

// HasErrors reports whether any job failed or any document did not match.
func (br *BatchResult) HasErrors() bool {
	return !br.Valid()
}

// DiagnosticCount returns the number of diagnostics across all results.
func (br *BatchResult) DiagnosticCount() int {
	count := 0
	for _, r := range br.Results {
		if r != nil && r.Result != nil {
			count += len(r.Result.Diagnostics)
		}
	}
	return count
}

// Release returns every Result to the tisch result pool.
func (br *BatchResult) Release() {
	for _, r := range br.Results {
		if r != nil && r.Result != nil {
			r.Result.Release()
			r.Result = nil
		}
	}
}

// Add appends r to the batch.
func (br *BatchResult) Add(r *JobResult) {
	br.Results = append(br.Results, r)
	br.TotalJobs++
	br.count(r)
}

// count records r in the counters.
func (br *BatchResult) count(r *JobResult) {
	br.CompletedJobs++
	br.TotalDuration += r.Duration
	switch {
	case r.Error != nil:
		br.FailedJobs++
	case r.Result != nil && !r.Result.Valid:
		br.InvalidJobs++
	}
}
