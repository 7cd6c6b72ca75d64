package tisch

import (
	"sync/atomic"
	"time"
)

// Metrics tracks validation and compilation counters using lock-free atomic
// operations. All methods are safe for concurrent use.
type Metrics struct {
	// Validation counts
	validationsTotal atomic.Uint64
	validationsValid atomic.Uint64
	diagnosticsTotal atomic.Uint64

	// Timing (stored as nanoseconds)
	validationTimeTotal atomic.Uint64
	validationTimeMin   atomic.Uint64
	validationTimeMax   atomic.Uint64

	// Compilation
	compilesTotal  atomic.Uint64
	compilesFailed atomic.Uint64
	compileTime    atomic.Uint64

	// Validator cache
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64

	// Batches
	batchesTotal atomic.Uint64
	decodeErrors atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// Initialize min to max uint64 so first value becomes the minimum
	m.validationTimeMin.Store(^uint64(0))
	return m
}

// --- Recording Methods ---

// RecordValidation records one document matched against a validator and the
// number of diagnostics it produced.
func (m *Metrics) RecordValidation(duration time.Duration, valid bool, diagnostics int) {
	m.validationsTotal.Add(1)
	if valid {
		m.validationsValid.Add(1)
	}
	if diagnostics > 0 {
		m.diagnosticsTotal.Add(uint64(diagnostics))
	}

	ns := nanos(duration)
	m.validationTimeTotal.Add(ns)

	for {
		old := m.validationTimeMin.Load()
		if ns >= old || m.validationTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.validationTimeMax.Load()
		if ns <= old || m.validationTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordCompile records a top-level unit compilation.
func (m *Metrics) RecordCompile(duration time.Duration, ok bool) {
	m.compilesTotal.Add(1)
	if !ok {
		m.compilesFailed.Add(1)
	}
	m.compileTime.Add(nanos(duration))
}

// RecordCacheHit records a validator cache hit.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss records a validator cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// RecordBatch records a completed batch.
func (m *Metrics) RecordBatch() {
	m.batchesTotal.Add(1)
}

// RecordDecodeError records a document that could not be decoded.
func (m *Metrics) RecordDecodeError() {
	m.decodeErrors.Add(1)
}

func nanos(d time.Duration) uint64 {
	if d < 0 {
		return 0
	}
	return uint64(d.Nanoseconds())
}

// --- Query Methods ---

// ValidationsTotal returns the total number of validations performed.
func (m *Metrics) ValidationsTotal() uint64 {
	return m.validationsTotal.Load()
}

// ValidationsValid returns the number of validations that matched.
func (m *Metrics) ValidationsValid() uint64 {
	return m.validationsValid.Load()
}

// ValidationRate returns the fraction of validations that matched (0.0 to 1.0).
func (m *Metrics) ValidationRate() float64 {
	total := m.validationsTotal.Load()
	if total == 0 {
		return 0
	}
	return float64(m.validationsValid.Load()) / float64(total)
}

// DiagnosticsTotal returns the number of diagnostics reported.
func (m *Metrics) DiagnosticsTotal() uint64 {
	return m.diagnosticsTotal.Load()
}

// AverageValidationTime returns the average validation duration.
func (m *Metrics) AverageValidationTime() time.Duration {
	total := m.validationsTotal.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.validationTimeTotal.Load() / total) //nolint:gosec // nanoseconds within int64 range
}

// MinValidationTime returns the minimum validation duration.
func (m *Metrics) MinValidationTime() time.Duration {
	minVal := m.validationTimeMin.Load()
	if minVal == ^uint64(0) {
		return 0
	}
	return time.Duration(minVal) //nolint:gosec // nanoseconds within int64 range
}

// MaxValidationTime returns the maximum validation duration.
func (m *Metrics) MaxValidationTime() time.Duration {
	return time.Duration(m.validationTimeMax.Load()) //nolint:gosec // nanoseconds within int64 range
}

// CompilesTotal returns the number of top-level compilations.
func (m *Metrics) CompilesTotal() uint64 {
	return m.compilesTotal.Load()
}

// CompilesFailed returns the number of compilations that returned an error.
func (m *Metrics) CompilesFailed() uint64 {
	return m.compilesFailed.Load()
}

// CacheHits returns the total cache hits.
func (m *Metrics) CacheHits() uint64 {
	return m.cacheHits.Load()
}

// CacheMisses returns the total cache misses.
func (m *Metrics) CacheMisses() uint64 {
	return m.cacheMisses.Load()
}

// CacheHitRate returns the cache hit rate (0.0 to 1.0).
func (m *Metrics) CacheHitRate() float64 {
	hits := m.cacheHits.Load()
	total := hits + m.cacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// BatchesTotal returns the number of completed batches.
func (m *Metrics) BatchesTotal() uint64 {
	return m.batchesTotal.Load()
}

// DecodeErrors returns the number of documents that failed to decode.
func (m *Metrics) DecodeErrors() uint64 {
	return m.decodeErrors.Load()
}

// --- Export Methods ---

// Snapshot represents a point-in-time snapshot of all metrics.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`

	ValidationsTotal uint64  `json:"validations_total"`
	ValidationsValid uint64  `json:"validations_valid"`
	ValidationRate   float64 `json:"validation_rate"`
	DiagnosticsTotal uint64  `json:"diagnostics_total"`

	AvgValidationTimeNs uint64 `json:"avg_validation_time_ns"`
	MinValidationTimeNs uint64 `json:"min_validation_time_ns"`
	MaxValidationTimeNs uint64 `json:"max_validation_time_ns"`

	CompilesTotal  uint64  `json:"compiles_total"`
	CompilesFailed uint64  `json:"compiles_failed"`
	CompileTimeNs  uint64  `json:"compile_time_ns"`
	CacheHits      uint64  `json:"cache_hits"`
	CacheMisses    uint64  `json:"cache_misses"`
	CacheHitRate   float64 `json:"cache_hit_rate"`
	BatchesTotal   uint64  `json:"batches_total"`
	DecodeErrors   uint64  `json:"decode_errors"`
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	total := m.validationsTotal.Load()
	var avg uint64
	if total > 0 {
		avg = m.validationTimeTotal.Load() / total
	}
	minTime := m.validationTimeMin.Load()
	if minTime == ^uint64(0) {
		minTime = 0
	}

	return Snapshot{
		Timestamp:           time.Now(),
		ValidationsTotal:    total,
		ValidationsValid:    m.validationsValid.Load(),
		ValidationRate:      m.ValidationRate(),
		DiagnosticsTotal:    m.diagnosticsTotal.Load(),
		AvgValidationTimeNs: avg,
		MinValidationTimeNs: minTime,
		MaxValidationTimeNs: m.validationTimeMax.Load(),
		CompilesTotal:       m.compilesTotal.Load(),
		CompilesFailed:      m.compilesFailed.Load(),
		CompileTimeNs:       m.compileTime.Load(),
		CacheHits:           m.cacheHits.Load(),
		CacheMisses:         m.cacheMisses.Load(),
		CacheHitRate:        m.CacheHitRate(),
		BatchesTotal:        m.batchesTotal.Load(),
		DecodeErrors:        m.decodeErrors.Load(),
	}
}

// Export returns metrics as a flat map suitable for external systems.
func (m *Metrics) Export() map[string]any {
	s := m.Snapshot()
	return map[string]any{
		"validations_total":      s.ValidationsTotal,
		"validations_valid":      s.ValidationsValid,
		"validation_rate":        s.ValidationRate,
		"diagnostics_total":      s.DiagnosticsTotal,
		"avg_validation_time_ns": s.AvgValidationTimeNs,
		"min_validation_time_ns": s.MinValidationTimeNs,
		"max_validation_time_ns": s.MaxValidationTimeNs,
		"compiles_total":         s.CompilesTotal,
		"compiles_failed":        s.CompilesFailed,
		"compile_time_ns":        s.CompileTimeNs,
		"cache_hits":             s.CacheHits,
		"cache_misses":           s.CacheMisses,
		"cache_hit_rate":         s.CacheHitRate,
		"batches_total":          s.BatchesTotal,
		"decode_errors":          s.DecodeErrors,
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.validationsTotal.Store(0)
	m.validationsValid.Store(0)
	m.diagnosticsTotal.Store(0)
	m.validationTimeTotal.Store(0)
	m.validationTimeMin.Store(^uint64(0))
	m.validationTimeMax.Store(0)
	m.compilesTotal.Store(0)
	m.compilesFailed.Store(0)
	m.compileTime.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.batchesTotal.Store(0)
	m.decodeErrors.Store(0)
}
