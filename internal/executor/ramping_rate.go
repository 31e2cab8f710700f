package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/radload-io/radload/internal/metrics"
)

// RampingRate sweeps the dispatch rate upward in fixed steps until the
// P95 latency ceiling breaks or the maximum rate completes.
//
// Each step runs as an isolated constant-rate window: fresh workers, a
// reset metrics engine, and a step-scoped snapshot recorded before the
// next step begins. The sweep stops at the first step whose P95
// exceeds the SLO ceiling; that step is flagged in its result and
// marks the server's breaking point.
//
// Use cases:
//   - Finding the highest sustainable rate under an SLO
//   - Sizing server capacity before a campaign
//   - Regression-checking capacity across server changes
//
// Example:
//
//	config:
//	  type: ramping-rate
//	  startRate: 50
//	  stepRate: 25
//	  maxRate: 500
//	  stepDuration: 30s
//	  sloMillis: 200
type RampingRate struct {
	config  *Config
	pool    *WorkerPool
	metrics *metrics.Engine

	// State
	startTime     time.Time
	iterations    atomic.Int64
	activeWorkers atomic.Int32
	currentStep   atomic.Int32
	currentRate   atomic.Int64 // Stored as rate * 1000 for precision
	running       atomic.Bool

	// Completed step results
	steps   []StepResult
	stepsMu sync.RWMutex

	// Cancellation
	cancelMu   sync.Mutex // Protects cancelFunc
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewRampingRate creates a new ramping rate executor.
func NewRampingRate() *RampingRate {
	return &RampingRate{}
}

// Type returns the executor type.
func (e *RampingRate) Type() Type {
	return TypeRampingRate
}

// Init initializes the executor with configuration.
func (e *RampingRate) Init(ctx context.Context, config *Config) error {
	if config.Type != TypeRampingRate {
		return fmt.Errorf("invalid config type: expected %s, got %s", TypeRampingRate, config.Type)
	}

	if err := config.Validate(); err != nil {
		return err
	}

	// Defaults
	if config.Workers <= 0 {
		config.Workers = 50
	}
	if config.SLOMillis <= 0 {
		config.SLOMillis = 200
	}

	e.config = config
	return nil
}

// sloCeiling returns the P95 ceiling as a duration.
func (e *RampingRate) sloCeiling() time.Duration {
	return time.Duration(e.config.SLOMillis * float64(time.Millisecond))
}

// Run starts the sweep and blocks until the SLO breaks, the maximum
// rate completes, or the context is cancelled.
func (e *RampingRate) Run(ctx context.Context, pool *WorkerPool, metricsEngine *metrics.Engine) error {
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

	step := 0
	for r := e.config.StartRate; r <= e.config.MaxRate+1e-9; r += e.config.StepRate {
		e.currentStep.Store(int32(step))
		e.currentRate.Store(int64(r * 1000))

		// Each step is measured in isolation
		metricsEngine.Reset()
		metricsEngine.SetPhase(metrics.PhaseRampUp)

		stepStart := time.Now()
		err := dispatchWindow(runCtx, pool, metricsEngine,
			r, e.config.StepDuration, e.config.Workers,
			&e.iterations, &e.activeWorkers)
		if err != nil {
			// Cancelled mid-step; partial data is discarded
			break
		}

		snapshot := metricsEngine.GetSnapshot()
		violated := snapshot.Latency.P95 > e.sloCeiling()

		e.stepsMu.Lock()
		e.steps = append(e.steps, StepResult{
			Index:       step,
			TargetRate:  r,
			Duration:    time.Since(stepStart),
			Metrics:     snapshot,
			SLOViolated: violated,
		})
		e.stepsMu.Unlock()

		if violated {
			// Breaking point found
			break
		}
		step++
	}

	e.metrics.SetPhase(metrics.PhaseDone)
	e.running.Store(false)

	return nil
}

// GetProgress returns current progress (0.0 to 1.0).
//
// Progress is measured against the full planned sweep; an early SLO
// stop jumps it to 1.0.
func (e *RampingRate) GetProgress() float64 {
	if !e.running.Load() {
		if e.startTime.IsZero() {
			return 0.0
		}
		return 1.0
	}

	totalDuration := e.config.TotalDuration()
	if totalDuration == 0 {
		return 1.0
	}

	elapsed := time.Since(e.startTime)
	progress := float64(elapsed) / float64(totalDuration)
	if progress > 1.0 {
		progress = 1.0
	}
	return progress
}

// GetActiveWorkers returns current active worker count.
func (e *RampingRate) GetActiveWorkers() int {
	return int(e.activeWorkers.Load())
}

// GetStats returns executor statistics.
func (e *RampingRate) GetStats() *Stats {
	var elapsed time.Duration
	if !e.startTime.IsZero() {
		elapsed = time.Since(e.startTime)
	}

	return &Stats{
		StartTime:     e.startTime,
		CurrentTime:   time.Now(),
		Elapsed:       elapsed,
		TotalDuration: e.config.TotalDuration(),
		ActiveWorkers: int(e.activeWorkers.Load()),
		TargetWorkers: e.config.Workers,
		Iterations:    e.iterations.Load(),
		CurrentStep:   int(e.currentStep.Load()),
		TotalSteps:    e.config.RampSteps(),
		CurrentRate:   float64(e.currentRate.Load()) / 1000.0,
		TargetRate:    e.config.MaxRate,
	}
}

// Steps returns the completed step results so far.
func (e *RampingRate) Steps() []StepResult {
	e.stepsMu.RLock()
	defer e.stepsMu.RUnlock()

	result := make([]StepResult, len(e.steps))
	copy(result, e.steps)
	return result
}

// Stop gracefully stops the executor.
func (e *RampingRate) Stop(ctx context.Context) error {
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

// Ensure RampingRate implements Executor
var _ Executor = (*RampingRate)(nil)
