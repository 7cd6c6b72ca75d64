package engine

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgoffredo/tisch"
	"github.com/dgoffredo/tisch/cache"
	"github.com/dgoffredo/tisch/compile"
	"github.com/dgoffredo/tisch/pattern"
	"github.com/dgoffredo/tisch/pkg/logger"
	"github.com/dgoffredo/tisch/stream"
	"github.com/dgoffredo/tisch/unit"
	"github.com/dgoffredo/tisch/value"
	"github.com/dgoffredo/tisch/worker"
)

// Engine compiles units from a Source on demand and keeps their Validators
// in an LRU cache. All methods are safe for concurrent use.
type Engine struct {
	source  unit.Source
	options *tisch.Options
	log     *logger.Logger
	decode  value.Decoder

	validators *cache.Cache[string, *Validator]
	metrics    *tisch.Metrics
}

// New creates an Engine over source.
func New(source unit.Source, opts ...tisch.Option) (*Engine, error) {
	options := tisch.Apply(opts...)

	decode, err := value.DecoderFor(options.InputFormat)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	log := options.Logger
	if log == nil {
		log = logger.New(os.Stderr, options.LogLevel)
	}

	e := &Engine{
		source:  source,
		options: options,
		log:     log.With("engine"),
		decode:  decode,
		metrics: tisch.NewMetrics(),
	}
	e.validators = cache.New[string, *Validator](options.CacheSize, cache.OnEvict(func(id string, _ *Validator) {
		e.log.Debug("evicted validator for unit %q", id)
	}))
	return e, nil
}

// Options returns the Engine's configuration.
func (e *Engine) Options() *tisch.Options {
	return e.options
}

// Metrics returns the Engine's counters. They stay at zero when metrics
// collection is disabled.
func (e *Engine) Metrics() *tisch.Metrics {
	return e.metrics
}

// recorder returns the metrics to record into, or nil.
func (e *Engine) recorder() *tisch.Metrics {
	if !e.options.CollectMetrics {
		return nil
	}
	return e.metrics
}

// Validator returns the Validator for unit id, compiling the unit and its
// dependencies on first use. The Validator is shared: use Check from
// concurrent goroutines, or Clone it for a log of its own.
func (e *Engine) Validator(id string) (*Validator, error) {
	v, hit, err := e.validators.GetOrLoad(id, e.compileUnit)
	if m := e.recorder(); m != nil {
		if hit {
			m.RecordCacheHit()
		} else {
			m.RecordCacheMiss()
		}
	}
	if hit {
		e.log.Debug("validator for unit %q: cache hit", id)
	}
	return v, err
}

func (e *Engine) compileUnit(id string) (*Validator, error) {
	start := time.Now()
	r := unit.NewResolver(e.source, unit.WithLogger(e.log.With("unit")))
	m, err := r.Compile(id)
	e.recordCompile(start, err)
	if err != nil {
		return nil, err
	}
	e.log.Debug("compiled unit %q in %s", id, time.Since(start))

	v := NewValidator(m)
	v.unit = id
	v.metrics = e.recorder()
	return v, nil
}

func (e *Engine) recordCompile(start time.Time, err error) {
	if m := e.recorder(); m != nil {
		m.RecordCompile(time.Since(start), err == nil)
	}
}

// Compile compiles an ad hoc pattern tree. Its pattern.Use nodes are resolved
// to the Engine's units.
func (e *Engine) Compile(n pattern.Node) (*Validator, error) {
	units := make(map[string]pattern.Matcher)
	for _, id := range pattern.Uses(n) {
		v, err := e.Validator(id)
		if err != nil {
			return nil, err
		}
		units[id] = v.matcher
	}

	start := time.Now()
	m, err := compile.Compile(n, compile.WithUnits(units))
	e.recordCompile(start, err)
	if err != nil {
		return nil, err
	}

	v := NewValidator(m)
	v.metrics = e.recorder()
	return v, nil
}

// Invalidate drops the cached Validator for id, reporting whether there was
// one. Units that embed id keep their compiled copy until invalidated too.
func (e *Engine) Invalidate(id string) bool {
	return e.validators.Delete(id)
}

// Purge drops every cached Validator.
func (e *Engine) Purge() {
	e.validators.Clear()
}

// Cached returns the IDs of the units with cached Validators, most recently
// used first.
func (e *Engine) Cached() []string {
	return e.validators.Keys()
}

// checker adapts a Validator to worker.Checker.
type checker struct {
	v       *Validator
	decode  value.Decoder
	metrics *tisch.Metrics
}

func (c *checker) Check(ctx context.Context, doc []byte) (bool, []string, error) {
	if err := ctx.Err(); err != nil {
		return false, nil, err
	}
	val, err := c.decode(doc)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordDecodeError()
		}
		return false, nil, err
	}
	ok, diagnostics := c.v.Check(val)
	return ok, diagnostics, nil
}

// Checker returns a worker.Checker that decodes documents in the Engine's
// input format and checks them against unit id.
func (e *Engine) Checker(id string) (worker.Checker, error) {
	v, err := e.Validator(id)
	if err != nil {
		return nil, err
	}
	return &checker{v: v, decode: e.decode, metrics: e.recorder()}, nil
}

// Check decodes and validates one document against unit id. The error is
// set when the unit fails to compile or the document fails to decode.
func (e *Engine) Check(ctx context.Context, id string, doc []byte) (*tisch.Result, error) {
	c, err := e.Checker(id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ok, diagnostics, err := c.Check(ctx, doc)
	if err != nil {
		return nil, err
	}

	r := tisch.AcquireResult()
	r.Unit = id
	if !ok {
		r.Fail(diagnostics...)
		r.Limit(e.options.MaxDiagnostics)
	}
	r.Duration = time.Since(start)
	return r, nil
}

// ValidateBatch checks docs against unit id on the worker pool. Results are
// in input order and their job IDs are the document indexes. The error is
// set only when the unit fails to compile.
func (e *Engine) ValidateBatch(ctx context.Context, id string, docs [][]byte) (*worker.BatchResult, error) {
	jobs := make([]worker.Job, len(docs))
	for i, doc := range docs {
		jobs[i] = worker.Job{ID: strconv.Itoa(i), Index: i, Document: doc}
	}
	return e.ValidateJobs(ctx, id, jobs)
}

// ValidateJobs is ValidateBatch for named documents.
func (e *Engine) ValidateJobs(ctx context.Context, id string, jobs []worker.Job) (*worker.BatchResult, error) {
	c, err := e.Checker(id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	e.log.Debug("batch of %d documents against unit %q on %d workers", len(jobs), id, e.options.WorkerCount)
	br := worker.RunJobs(ctx, c, jobs, e.options.WorkerCount)

	for _, r := range br.Results {
		if r.Result != nil {
			r.Result.Unit = id
			r.Result.Limit(e.options.MaxDiagnostics)
		}
	}
	if m := e.recorder(); m != nil {
		m.RecordBatch()
	}
	e.log.Debug("batch against unit %q: %d invalid, %d failed in %s", id, br.InvalidJobs, br.FailedJobs, time.Since(start))
	return br, nil
}

// ValidateStream checks each document of s against unit id, emitting results
// in stream order as they complete. Job IDs are name[i]. The error is set only
// when the unit fails to compile.
func (e *Engine) ValidateStream(ctx context.Context, id, name string, s stream.Splitter) (<-chan *worker.JobResult, error) {
	c, err := e.Checker(id)
	if err != nil {
		return nil, err
	}

	e.log.Debug("streaming %s against unit %q", name, id)
	in := stream.NewValidator(c).WithWorkerCount(e.options.WorkerCount).ValidateStream(ctx, name, s)
	out := make(chan *worker.JobResult)
	go func() {
		defer close(out)
		for r := range in {
			if r.Result != nil {
				r.Result.Unit = id
				r.Result.Limit(e.options.MaxDiagnostics)
			}
			out <- r
		}
		if m := e.recorder(); m != nil {
			m.RecordBatch()
		}
	}()
	return out, nil
}
