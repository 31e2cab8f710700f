package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/radload-io/radload/internal/metrics"
)

// ConstantRate dispatches requests at a fixed rate for a fixed duration.
//
// This is an open-model executor: a leaky-bucket-paced producer feeds
// a bounded queue and a fixed worker pool drains it. The request
// budget is rate x duration; if the server cannot keep up, queue
// backpressure stretches the run rather than dropping requests, which
// shows up as achieved RPS falling below the target.
//
// Use cases:
//   - SLA validation (the server must hold N RPS)
//   - Soak testing at a known arrival rate
//   - Measuring latency under controlled load
//
// Example:
//
//	config:
//	  type: constant-rate
//	  rate: 100
//	  duration: 5m
//	  workers: 50
type ConstantRate struct {
	config  *Config
	pool    *WorkerPool
	metrics *metrics.Engine

	// State
	startTime     time.Time
	iterations    atomic.Int64
	activeWorkers atomic.Int32
	running       atomic.Bool

	// Cancellation
	cancelMu   sync.Mutex // Protects cancelFunc
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewConstantRate creates a new constant rate executor.
func NewConstantRate() *ConstantRate {
	return &ConstantRate{}
}

// Type returns the executor type.
func (e *ConstantRate) Type() Type {
	return TypeConstantRate
}

// Init initializes the executor with configuration.
func (e *ConstantRate) Init(ctx context.Context, config *Config) error {
	if config.Type != TypeConstantRate {
		return fmt.Errorf("invalid config type: expected %s, got %s", TypeConstantRate, config.Type)
	}

	if err := config.Validate(); err != nil {
		return err
	}

	// Default worker pool size
	if config.Workers <= 0 {
		config.Workers = 50
	}

	e.config = config
	return nil
}

// Run starts the executor and blocks until the request budget is
// dispatched and drained.
func (e *ConstantRate) Run(ctx context.Context, pool *WorkerPool, metricsEngine *metrics.Engine) error {
	e.pool = pool
	e.metrics = metricsEngine
	e.running.Store(true)
	e.startTime = time.Now()

	e.wg.Add(1)
	defer e.wg.Done()

	// Create cancellable context
	runCtx, cancel := context.WithCancel(ctx)
	e.cancelMu.Lock()
	e.cancelFunc = cancel
	e.cancelMu.Unlock()
	defer cancel()

	// Cancellation is a graceful end, not a run failure
	_ = dispatchWindow(runCtx, pool, metricsEngine,
		e.config.Rate, e.config.Duration, e.config.Workers,
		&e.iterations, &e.activeWorkers)

	e.metrics.SetPhase(metrics.PhaseDone)
	e.running.Store(false)

	return nil
}

// GetProgress returns current progress (0.0 to 1.0).
func (e *ConstantRate) GetProgress() float64 {
	if !e.running.Load() {
		if e.startTime.IsZero() {
			return 0.0
		}
		return 1.0
	}

	if e.config.Duration == 0 {
		return 1.0
	}

	elapsed := time.Since(e.startTime)
	progress := float64(elapsed) / float64(e.config.Duration)
	if progress > 1.0 {
		progress = 1.0
	}
	return progress
}

// GetActiveWorkers returns current active worker count.
func (e *ConstantRate) GetActiveWorkers() int {
	return int(e.activeWorkers.Load())
}

// GetStats returns executor statistics.
func (e *ConstantRate) GetStats() *Stats {
	var elapsed time.Duration
	if !e.startTime.IsZero() {
		elapsed = time.Since(e.startTime)
	}

	// Achieved rate so far
	currentRate := 0.0
	if elapsed.Seconds() > 0 {
		currentRate = float64(e.iterations.Load()) / elapsed.Seconds()
	}

	return &Stats{
		StartTime:     e.startTime,
		CurrentTime:   time.Now(),
		Elapsed:       elapsed,
		TotalDuration: e.config.Duration,
		ActiveWorkers: int(e.activeWorkers.Load()),
		TargetWorkers: e.config.Workers,
		Iterations:    e.iterations.Load(),
		CurrentRate:   currentRate,
		TargetRate:    e.config.Rate,
	}
}

// Steps returns nil: constant rate runs have no step structure.
func (e *ConstantRate) Steps() []StepResult {
	return nil
}

// Stop gracefully stops the executor.
func (e *ConstantRate) Stop(ctx context.Context) error {
	e.cancelMu.Lock()
	if e.cancelFunc != nil {
		e.cancelFunc()
	}
	e.cancelMu.Unlock()

	// Wait for in-flight requests with timeout
	graceful := e.config.GracefulStop
	if graceful == 0 {
		graceful = 30 * time.Second
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		// Run finished
	case <-time.After(graceful):
		// Timeout expired
	}

	return nil
}

// Ensure ConstantRate implements Executor
var _ Executor = (*ConstantRate)(nil)
