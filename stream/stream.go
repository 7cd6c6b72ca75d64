// Package stream validates streams of documents, such as newline-delimited
// JSON or multi-document YAML, without reading the whole stream first.
package stream

import (
	"context"
	"fmt"
	"io"

	"github.com/dgoffredo/tisch/worker"
)

// Validator checks each document of a stream with a worker.Checker.
type Validator struct {
	checker     worker.Checker
	bufferSize  int
	workerCount int
}

// NewValidator creates a stream validator.
func NewValidator(checker worker.Checker) *Validator {
	return &Validator{
		checker:     checker,
		bufferSize:  100,
		workerCount: 4,
	}
}

// WithBufferSize sets the result channel buffer size.
func (v *Validator) WithBufferSize(size int) *Validator {
	if size > 0 {
		v.bufferSize = size
	}
	return v
}

// WithWorkerCount sets the number of parallel workers.
func (v *Validator) WithWorkerCount(count int) *Validator {
	if count > 0 {
		v.workerCount = count
	}
	return v
}

// ValidateStream checks the documents of s, emitting their results in stream
// order. Job IDs are name[i]. If s fails, or ctx is cancelled, a final result
// carrying the error is emitted and the channel is closed.
func (v *Validator) ValidateStream(ctx context.Context, name string, s Splitter) <-chan *worker.JobResult {
	results := make(chan *worker.JobResult, v.bufferSize)
	pool := worker.NewPool(ctx, v.checker, v.workerCount)

	// Owned by the reader until readDone is closed.
	var read int
	var readErr error
	readDone := make(chan struct{})

	go func() {
		defer close(readDone)
		defer pool.Close()
		for {
			doc, err := s.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				readErr = err
				return
			}
			if !pool.Submit(worker.Job{ID: jobID(name, read), Index: read, Document: doc}) {
				readErr = context.Cause(ctx)
				return
			}
			read++
		}
	}()

	go func() {
		defer close(results)

		// Workers finish out of order; hold results until their turn.
		pending := make(map[int]*worker.JobResult)
		next := 0
		for r := range pool.Results() {
			pending[r.Index] = r
			for {
				r, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				results <- r
				next++
			}
		}
		<-readDone
		pool.Stop()

		if next < read && readErr == nil {
			readErr = context.Cause(ctx)
		}
		for _, r := range pending {
			r.Result.Release()
		}
		if readErr != nil {
			results <- &worker.JobResult{ID: jobID(name, next), Index: next, Error: readErr}
		}
	}()

	return results
}

func jobID(name string, i int) string {
	return fmt.Sprintf("%s[%d]", name, i)
}

// Aggregate collects every result of a stream.
func Aggregate(results <-chan *worker.JobResult) *worker.BatchResult {
	br := &worker.BatchResult{}
	for r := range results {
		br.Add(r)
	}
	return br
}
