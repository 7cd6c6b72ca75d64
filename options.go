package tisch

import (
	"runtime"

	"github.com/dgoffredo/tisch/pkg/logger"
)

// Option configures an Engine.
type Option func(*Options)

// Options holds all configuration for an Engine.
type Options struct {
	// CacheSize bounds how many compiled validators are kept, by unit ID.
	CacheSize int

	// WorkerCount is the number of goroutines used for batch validation.
	WorkerCount int

	// MaxDiagnostics truncates the diagnostics reported per document.
	// 0 keeps them all.
	MaxDiagnostics int

	// InputFormat selects how batch documents are decoded: "json", "yaml"
	// or "auto".
	InputFormat string

	// Logging
	LogLevel logger.Level
	Logger   *logger.Logger

	// CollectMetrics enables timing and counters. Disabled, Metrics stays at
	// zero.
	CollectMetrics bool
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		CacheSize:      256,
		WorkerCount:    runtime.NumCPU(),
		MaxDiagnostics: 0, // unlimited
		InputFormat:    "auto",
		LogLevel:       logger.LevelInfo,
		CollectMetrics: true,
	}
}

// Apply returns DefaultOptions with opts applied in order.
func Apply(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithCacheSize sets how many compiled validators an Engine keeps.
func WithCacheSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.CacheSize = size
		}
	}
}

// WithWorkerCount sets the number of workers for batch validation.
// Defaults to runtime.NumCPU().
func WithWorkerCount(count int) Option {
	return func(o *Options) {
		if count > 0 {
			o.WorkerCount = count
		}
	}
}

// WithMaxDiagnostics truncates each document's diagnostics to max entries.
// Use 0 for unlimited.
func WithMaxDiagnostics(max int) Option {
	return func(o *Options) {
		if max >= 0 {
			o.MaxDiagnostics = max
		}
	}
}

// WithInputFormat sets the format of documents passed to batch validation.
func WithInputFormat(format string) Option {
	return func(o *Options) {
		o.InputFormat = format
	}
}

// WithLogLevel sets the level of the Engine's logger.
func WithLogLevel(level logger.Level) Option {
	return func(o *Options) {
		o.LogLevel = level
	}
}

// WithLogger makes the Engine log through l instead of a logger of its own.
// The log level option is then ignored.
func WithLogger(l *logger.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithMetrics enables or disables metrics collection.
func WithMetrics(enable bool) Option {
	return func(o *Options) {
		o.CollectMetrics = enable
	}
}

// --- Presets ---

// BatchOptions returns options suited to validating many documents against
// few units.
func BatchOptions() []Option {
	return []Option{
		WithWorkerCount(runtime.NumCPU() * 2),
		WithCacheSize(64),
		WithMaxDiagnostics(20),
	}
}

// DebugOptions returns options useful for debugging patterns.
func DebugOptions() []Option {
	return []Option{
		WithLogLevel(logger.LevelDebug),
		WithWorkerCount(1),
		WithMetrics(true),
	}
}
