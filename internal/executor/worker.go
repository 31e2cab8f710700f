package executor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/radload-io/radload/internal/metrics"
	"github.com/radload-io/radload/internal/radius"
)

// WorkerState represents the lifecycle state of a dispatch worker.
type WorkerState int32

const (
	// WorkerIdle indicates the worker is ready but not currently sending.
	WorkerIdle WorkerState = iota
	// WorkerRunning indicates the worker is actively sending a request.
	WorkerRunning
	// WorkerStopping indicates the worker has been requested to stop.
	WorkerStopping
	// WorkerStopped indicates the worker has fully stopped.
	WorkerStopped
)

func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "idle"
	case WorkerRunning:
		return "running"
	case WorkerStopping:
		return "stopping"
	case WorkerStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Worker is a single dispatch slot that sends requests one at a time.
//
// Each worker has its own:
// - Sender (one tool invocation context per worker)
// - Iteration counter
// - Lifecycle management
//
// Workers are created by the WorkerPool and driven by executors.
type Worker struct {
	// Unique identifier for this worker
	ID int

	// Sender performs one request per iteration
	Sender radius.Sender

	// Metrics engine for recording outcomes
	Metrics *metrics.Engine

	// Lifecycle state (atomic for lock-free reads)
	state atomic.Int32

	// Stop signal
	stopCh chan struct{}

	// Done signal (closed when worker fully stops)
	doneCh chan struct{}

	// Iteration counter
	iteration atomic.Int64

	// Last iteration timing
	lastIterStart time.Time
	lastIterEnd   time.Time
}

// NewWorker creates a new dispatch worker.
func NewWorker(id int, sender radius.Sender, metricsEngine *metrics.Engine) *Worker {
	return &Worker{
		ID:      id,
		Sender:  sender,
		Metrics: metricsEngine,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// GetState returns the current worker state.
func (w *Worker) GetState() WorkerState {
	return WorkerState(w.state.Load())
}

// GetIteration returns the current iteration number.
func (w *Worker) GetIteration() int64 {
	return w.iteration.Load()
}

// RunIteration sends a single request and records its outcome.
//
// Returns:
//   - nil if the iteration completed (regardless of request outcome)
//   - error if the iteration was cancelled before sending
func (w *Worker) RunIteration(ctx context.Context) error {
	currentState := w.GetState()
	if currentState == WorkerStopping || currentState == WorkerStopped {
		return fmt.Errorf("worker %d is stopping or stopped", w.ID)
	}

	// Check for stop signal before sending
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.stopCh:
		return nil // Graceful stop
	default:
	}

	w.state.Store(int32(WorkerRunning))
	w.lastIterStart = time.Now()
	w.iteration.Add(1)

	resp := w.Sender.Send(ctx)
	w.Metrics.Record(resp.Status, resp.Latency)

	w.lastIterEnd = time.Now()
	w.state.Store(int32(WorkerIdle))
	return nil
}

// RequestStop signals the worker to stop after its current iteration.
func (w *Worker) RequestStop() {
	currentState := WorkerState(w.state.Load())
	if currentState == WorkerStopped {
		return
	}

	// Try to transition to stopping state
	if w.state.CompareAndSwap(int32(WorkerRunning), int32(WorkerStopping)) ||
		w.state.CompareAndSwap(int32(WorkerIdle), int32(WorkerStopping)) {
		close(w.stopCh)
	}
}

// WaitForStop waits for the worker to stop with a timeout.
//
// Returns true if the worker stopped within the timeout, false otherwise.
func (w *Worker) WaitForStop(timeout time.Duration) bool {
	select {
	case <-w.doneCh:
		return true
	case <-time.After(timeout):
		return false
	}
}

// MarkStopped marks the worker as fully stopped.
// Should be called by the executor when the worker goroutine exits.
func (w *Worker) MarkStopped() {
	w.state.Store(int32(WorkerStopped))
	select {
	case <-w.doneCh:
		// Already closed
	default:
		close(w.doneCh)
	}
}
