package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/radload-io/radload/internal/metrics"
)

// Replay replays an hourly rate profile, compressed in time.
//
// Each profile hour runs as an isolated constant-rate window of
// hourDuration: fresh workers, a reset metrics engine, and an
// hour-scoped snapshot recorded before the next hour begins. A 24-hour
// profile replayed at 150 seconds per hour finishes in an hour of wall
// time. Hours with a zero rate have nothing to dispatch and complete
// immediately.
//
// Use cases:
//   - Rehearsing a production traffic shape before a migration
//   - Validating capacity against a recorded daily curve
//
// Example:
//
//	config:
//	  type: replay
//	  profile:
//	    - hour: 0
//	      rate: 12
//	    - hour: 1
//	      rate: 8
//	  hourDuration: 150s
//	  workers: 50
type Replay struct {
	config  *Config
	pool    *WorkerPool
	metrics *metrics.Engine

	// State
	startTime     time.Time
	iterations    atomic.Int64
	activeWorkers atomic.Int32
	currentStep   atomic.Int32
	running       atomic.Bool

	// Completed hour results
	steps   []StepResult
	stepsMu sync.RWMutex

	// Cancellation
	cancelMu   sync.Mutex // Protects cancelFunc
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewReplay creates a new replay executor.
func NewReplay() *Replay {
	return &Replay{}
}

// Type returns the executor type.
func (e *Replay) Type() Type {
	return TypeReplay
}

// Init initializes the executor with configuration.
func (e *Replay) Init(ctx context.Context, config *Config) error {
	if config.Type != TypeReplay {
		return fmt.Errorf("invalid config type: expected %s, got %s", TypeReplay, config.Type)
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

// Run starts the replay and blocks until every profile hour has
// completed or the context is cancelled.
func (e *Replay) Run(ctx context.Context, pool *WorkerPool, metricsEngine *metrics.Engine) error {
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

	for i, point := range e.config.Profile {
		e.currentStep.Store(int32(i))

		// Each hour is measured in isolation
		metricsEngine.Reset()

		hourStart := time.Now()
		err := dispatchWindow(runCtx, pool, metricsEngine,
			point.Rate, e.config.HourDuration, e.config.Workers,
			&e.iterations, &e.activeWorkers)
		if err != nil {
			// Cancelled mid-hour; partial data is discarded
			break
		}

		snapshot := metricsEngine.GetSnapshot()

		e.stepsMu.Lock()
		e.steps = append(e.steps, StepResult{
			Index:      i,
			Hour:       point.Hour,
			TargetRate: point.Rate,
			Duration:   time.Since(hourStart),
			Metrics:    snapshot,
		})
		e.stepsMu.Unlock()
	}

	e.metrics.SetPhase(metrics.PhaseDone)
	e.running.Store(false)

	return nil
}

// GetProgress returns current progress (0.0 to 1.0).
func (e *Replay) GetProgress() float64 {
	if !e.running.Load() {
		if e.startTime.IsZero() {
			return 0.0
		}
		return 1.0
	}

	total := len(e.config.Profile)
	if total == 0 {
		return 1.0
	}

	progress := float64(e.currentStep.Load()) / float64(total)
	if progress > 1.0 {
		progress = 1.0
	}
	return progress
}

// GetActiveWorkers returns current active worker count.
func (e *Replay) GetActiveWorkers() int {
	return int(e.activeWorkers.Load())
}

// GetStats returns executor statistics.
func (e *Replay) GetStats() *Stats {
	var elapsed time.Duration
	if !e.startTime.IsZero() {
		elapsed = time.Since(e.startTime)
	}

	stepIdx := int(e.currentStep.Load())
	currentRate := 0.0
	if stepIdx < len(e.config.Profile) {
		currentRate = e.config.Profile[stepIdx].Rate
	}

	return &Stats{
		StartTime:     e.startTime,
		CurrentTime:   time.Now(),
		Elapsed:       elapsed,
		TotalDuration: e.config.TotalDuration(),
		ActiveWorkers: int(e.activeWorkers.Load()),
		TargetWorkers: e.config.Workers,
		Iterations:    e.iterations.Load(),
		CurrentStep:   stepIdx,
		TotalSteps:    len(e.config.Profile),
		CurrentRate:   currentRate,
		TargetRate:    currentRate,
	}
}

// Steps returns the completed hour results so far.
func (e *Replay) Steps() []StepResult {
	e.stepsMu.RLock()
	defer e.stepsMu.RUnlock()

	result := make([]StepResult, len(e.steps))
	copy(result, e.steps)
	return result
}

// Stop gracefully stops the executor.
func (e *Replay) Stop(ctx context.Context) error {
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

// Ensure Replay implements Executor
var _ Executor = (*Replay)(nil)
