package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/radload-io/radload/internal/metrics"
)

// Batch splits a fixed request total evenly across a fixed number of
// workers.
//
// Each worker sends total/workers requests back to back, as fast as
// the tool completes them, then exits. The run ends when every worker
// has finished its share - a closed model with a join barrier at the
// end. Integer division decides the share: workers never send a
// partial remainder, so a total smaller than the worker count
// dispatches nothing.
//
// Use cases:
//   - Reproducing a fixed-size campaign (N requests, M clients)
//   - Timing how long a server takes to absorb a known volume
//   - Comparing elapsed time across server configurations
//
// Example:
//
//	config:
//	  type: batch
//	  total: 10000
//	  workers: 10
type Batch struct {
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

// NewBatch creates a new batch executor.
func NewBatch() *Batch {
	return &Batch{}
}

// Type returns the executor type.
func (e *Batch) Type() Type {
	return TypeBatch
}

// Init initializes the executor with configuration.
func (e *Batch) Init(ctx context.Context, config *Config) error {
	if config.Type != TypeBatch {
		return fmt.Errorf("invalid config type: expected %s, got %s", TypeBatch, config.Type)
	}

	if err := config.Validate(); err != nil {
		return err
	}

	e.config = config
	return nil
}

// share returns the per-worker request count (integer division).
func (e *Batch) share() int64 {
	return e.config.Total / int64(e.config.Workers)
}

// planned returns the number of requests that will actually be sent.
func (e *Batch) planned() int64 {
	return e.share() * int64(e.config.Workers)
}

// Run starts the executor and blocks until every worker has finished
// its share.
func (e *Batch) Run(ctx context.Context, pool *WorkerPool, metricsEngine *metrics.Engine) error {
	e.pool = pool
	e.metrics = metricsEngine
	e.running.Store(true)
	e.startTime = time.Now()

	// Create cancellable context
	runCtx, cancel := context.WithCancel(ctx)
	e.cancelMu.Lock()
	e.cancelFunc = cancel
	e.cancelMu.Unlock()
	defer cancel()

	share := e.share()

	e.metrics.SetPhase(metrics.PhaseSteady)

	// A total smaller than the worker count truncates to a zero share,
	// so nothing is dispatched.
	if share > 0 {
		workers := make([]*Worker, 0, e.config.Workers)
		for i := 0; i < e.config.Workers; i++ {
			w := pool.SpawnWorker()
			workers = append(workers, w)

			e.wg.Add(1)
			e.activeWorkers.Add(1)
			go e.runWorker(runCtx, w, share)
		}
		pool.UpdateMetrics()

		// Join barrier: block until every worker has sent its share
		e.wg.Wait()

		for _, w := range workers {
			w.MarkStopped()
			pool.RemoveWorker(w.ID)
		}
		pool.UpdateMetrics()
	}

	e.metrics.SetPhase(metrics.PhaseDone)
	e.running.Store(false)

	return nil
}

// runWorker sends the worker's share of the total, one request at a
// time, stopping early only on cancellation.
func (e *Batch) runWorker(ctx context.Context, w *Worker, share int64) {
	defer e.wg.Done()
	defer e.activeWorkers.Add(-1)

	for i := int64(0); i < share; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.RunIteration(ctx); err != nil {
			// Cancelled or stopping
			return
		}
		e.iterations.Add(1)
	}
}

// GetProgress returns current progress (0.0 to 1.0).
func (e *Batch) GetProgress() float64 {
	if !e.running.Load() {
		if e.startTime.IsZero() {
			return 0.0
		}
		return 1.0
	}

	planned := e.planned()
	if planned == 0 {
		return 1.0
	}

	progress := float64(e.iterations.Load()) / float64(planned)
	if progress > 1.0 {
		progress = 1.0
	}
	return progress
}

// GetActiveWorkers returns current active worker count.
func (e *Batch) GetActiveWorkers() int {
	return int(e.activeWorkers.Load())
}

// GetStats returns executor statistics.
func (e *Batch) GetStats() *Stats {
	var elapsed time.Duration
	if !e.startTime.IsZero() {
		elapsed = time.Since(e.startTime)
	}

	return &Stats{
		StartTime:       e.startTime,
		CurrentTime:     time.Now(),
		Elapsed:         elapsed,
		ActiveWorkers:   int(e.activeWorkers.Load()),
		TargetWorkers:   e.config.Workers,
		Iterations:      e.iterations.Load(),
		TotalIterations: e.planned(),
	}
}

// Steps returns nil: batch runs have no step structure.
func (e *Batch) Steps() []StepResult {
	return nil
}

// Stop gracefully stops the executor.
func (e *Batch) Stop(ctx context.Context) error {
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
		// All workers finished
	case <-time.After(graceful):
		// Timeout expired
	}

	return nil
}

// Ensure Batch implements Executor
var _ Executor = (*Batch)(nil)
