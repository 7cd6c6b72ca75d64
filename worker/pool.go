package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgoffredo/tisch"
)

// ErrNoChecker is returned for every job of a pool that has no Checker.
var ErrNoChecker = errors.New("no checker configured")

// Pool manages worker goroutines checking documents in parallel.
//
// Submit blocks while the job queue is full, and workers block while the
// result queue is full, so Results must be drained concurrently with
// submission. CloseAndWait drains it itself once submission is over.
type Pool struct {
	workers    int
	jobsChan   chan Job
	resultChan chan *JobResult
	checker    Checker
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	closed     atomic.Bool
	closeOnce  sync.Once

	jobsSubmitted atomic.Uint64
	jobsCompleted atomic.Uint64
	totalDuration atomic.Int64
}

// NewPool starts a pool of workers checking jobs with checker. If workers
// <= 0, it defaults to runtime.NumCPU(). Cancelling ctx stops the workers.
func NewPool(ctx context.Context, checker Checker, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(ctx)

	p := &Pool{
		workers:    workers,
		jobsChan:   make(chan Job, workers*2),
		resultChan: make(chan *JobResult, workers*2),
		checker:    checker,
		ctx:        ctx,
		cancel:     cancel,
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	go func() {
		p.wg.Wait()
		close(p.resultChan)
	}()

	return p
}

// Submit queues a job, blocking while the queue is full. It returns false if
// the pool is closed or its context is done.
func (p *Pool) Submit(job Job) bool {
	if p.closed.Load() {
		return false
	}

	select {
	case <-p.ctx.Done():
		return false
	case p.jobsChan <- job:
		p.jobsSubmitted.Add(1)
		return true
	}
}

// Results returns the channel of job results. It is closed once the pool is
// closed and every worker has finished.
func (p *Pool) Results() <-chan *JobResult {
	return p.resultChan
}

// Close stops accepting jobs. Workers finish the queued ones.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.jobsChan)
	})
}

// Stop cancels the pool's context, abandoning queued jobs, and discards
// any results nobody has read.
func (p *Pool) Stop() {
	p.cancel()
	p.Close()
	for r := range p.resultChan {
		r.Result.Release()
	}
}

// CloseAndWait closes the pool and collects every remaining result, in
// completion order.
func (p *Pool) CloseAndWait() *BatchResult {
	p.Close()

	br := &BatchResult{}
	for r := range p.resultChan {
		br.Results = append(br.Results, r)
		br.count(r)
	}
	br.TotalJobs = int(p.jobsSubmitted.Load())
	p.cancel()
	return br
}

// Stats returns current pool statistics.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:       p.workers,
		JobsSubmitted: p.jobsSubmitted.Load(),
		JobsCompleted: p.jobsCompleted.Load(),
		AvgDuration:   p.averageDuration(),
	}
}

// PoolStats contains pool statistics.
type PoolStats struct {
	Workers       int
	JobsSubmitted uint64
	JobsCompleted uint64
	AvgDuration   time.Duration
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for job := range p.jobsChan {
		if p.ctx.Err() != nil {
			return
		}

		result := p.processJob(job)
		p.jobsCompleted.Add(1)
		p.totalDuration.Add(int64(result.Duration))

		select {
		case <-p.ctx.Done():
			result.Result.Release()
			return
		case p.resultChan <- result:
		}
	}
}

func (p *Pool) processJob(job Job) *JobResult {
	return check(p.ctx, p.checker, job)
}

// check runs one job through checker.
func check(ctx context.Context, checker Checker, job Job) *JobResult {
	start := time.Now()
	result := &JobResult{ID: job.ID, Index: job.Index}

	if checker == nil {
		result.Error = ErrNoChecker
		result.Duration = time.Since(start)
		return result
	}

	valid, diagnostics, err := checker.Check(ctx, job.Document)
	if err != nil {
		result.Error = err
	} else {
		r := tisch.AcquireResult()
		r.Source = job.ID
		if !valid {
			r.Fail(diagnostics...)
		}
		result.Result = r
	}

	result.Duration = time.Since(start)
	if result.Result != nil {
		result.Result.Duration = result.Duration
	}
	return result
}

func (p *Pool) averageDuration() time.Duration {
	completed := p.jobsCompleted.Load()
	if completed == 0 {
		return 0
	}
	return time.Duration(uint64(p.totalDuration.Load()) / completed)
}
