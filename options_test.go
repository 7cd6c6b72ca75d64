package tisch

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/dgoffredo/tisch/pkg/logger"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.CacheSize != 256 {
		t.Errorf("CacheSize = %d; want 256", opts.CacheSize)
	}
	if opts.WorkerCount != runtime.NumCPU() {
		t.Errorf("WorkerCount = %d; want %d", opts.WorkerCount, runtime.NumCPU())
	}
	if opts.MaxDiagnostics != 0 {
		t.Errorf("MaxDiagnostics = %d; want 0", opts.MaxDiagnostics)
	}
	if opts.InputFormat != "auto" {
		t.Errorf("InputFormat = %q; want auto", opts.InputFormat)
	}
	if opts.LogLevel != logger.LevelInfo {
		t.Errorf("LogLevel = %s; want INFO", opts.LogLevel)
	}
	if !opts.CollectMetrics {
		t.Error("CollectMetrics should be true by default")
	}
	if opts.Logger != nil {
		t.Error("Logger should be nil by default")
	}
}

func TestOptions_Apply(t *testing.T) {
	l := logger.New(&bytes.Buffer{}, logger.LevelError)
	opts := Apply(
		WithCacheSize(10),
		WithWorkerCount(3),
		WithMaxDiagnostics(5),
		WithInputFormat("yaml"),
		WithLogLevel(logger.LevelDebug),
		WithLogger(l),
		WithMetrics(false),
	)

	if opts.CacheSize != 10 {
		t.Errorf("CacheSize = %d; want 10", opts.CacheSize)
	}
	if opts.WorkerCount != 3 {
		t.Errorf("WorkerCount = %d; want 3", opts.WorkerCount)
	}
	if opts.MaxDiagnostics != 5 {
		t.Errorf("MaxDiagnostics = %d; want 5", opts.MaxDiagnostics)
	}
	if opts.InputFormat != "yaml" {
		t.Errorf("InputFormat = %q; want yaml", opts.InputFormat)
	}
	if opts.LogLevel != logger.LevelDebug {
		t.Errorf("LogLevel = %s; want DEBUG", opts.LogLevel)
	}
	if opts.Logger != l {
		t.Error("Logger was not set")
	}
	if opts.CollectMetrics {
		t.Error("CollectMetrics should be false")
	}
}

func TestOptions_IgnoreInvalid(t *testing.T) {
	opts := Apply(WithCacheSize(0), WithWorkerCount(-1), WithMaxDiagnostics(-3))
	def := DefaultOptions()

	if opts.CacheSize != def.CacheSize {
		t.Errorf("CacheSize = %d; want default %d", opts.CacheSize, def.CacheSize)
	}
	if opts.WorkerCount != def.WorkerCount {
		t.Errorf("WorkerCount = %d; want default %d", opts.WorkerCount, def.WorkerCount)
	}
	if opts.MaxDiagnostics != 0 {
		t.Errorf("MaxDiagnostics = %d; want 0", opts.MaxDiagnostics)
	}
}

func TestPresets(t *testing.T) {
	batch := Apply(BatchOptions()...)
	if batch.WorkerCount != runtime.NumCPU()*2 {
		t.Errorf("BatchOptions WorkerCount = %d; want %d", batch.WorkerCount, runtime.NumCPU()*2)
	}
	if batch.MaxDiagnostics != 20 {
		t.Errorf("BatchOptions MaxDiagnostics = %d; want 20", batch.MaxDiagnostics)
	}

	debug := Apply(DebugOptions()...)
	if debug.LogLevel != logger.LevelDebug || debug.WorkerCount != 1 {
		t.Errorf("DebugOptions = %+v", debug)
	}
}
