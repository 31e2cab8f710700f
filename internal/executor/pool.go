package executor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/radload-io/radload/internal/metrics"
	"github.com/radload-io/radload/internal/radius"
)

// WorkerPool manages the lifecycle of dispatch workers.
//
// It provides:
// - Worker registration (spawning / stopping workers)
// - One sender per worker, built from a shared factory
// - Graceful shutdown coordination
//
// The pool is used by executors to create and track workers; executors
// own the goroutines that drive them.
type WorkerPool struct {
	// Factory builds one sender per worker
	factory radius.SenderFactory

	// Metrics engine shared by all workers
	metrics *metrics.Engine

	// Active workers
	workers   map[int]*Worker
	workersMu sync.RWMutex

	// Worker ID counter
	nextID atomic.Int32
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(factory radius.SenderFactory, metricsEngine *metrics.Engine) *WorkerPool {
	return &WorkerPool{
		factory: factory,
		metrics: metricsEngine,
		workers: make(map[int]*Worker),
	}
}

// SpawnWorker creates and registers a new worker.
//
// The worker is registered with the pool but not started.
// The caller is responsible for driving the worker.
func (p *WorkerPool) SpawnWorker() *Worker {
	id := int(p.nextID.Add(1))
	worker := NewWorker(id, p.factory(), p.metrics)

	p.workersMu.Lock()
	p.workers[id] = worker
	p.workersMu.Unlock()

	return worker
}

// GetWorker returns a worker by ID, or nil if not found.
func (p *WorkerPool) GetWorker(id int) *Worker {
	p.workersMu.RLock()
	defer p.workersMu.RUnlock()
	return p.workers[id]
}

// GetActiveWorkers returns all currently active workers.
func (p *WorkerPool) GetActiveWorkers() []*Worker {
	p.workersMu.RLock()
	defer p.workersMu.RUnlock()

	result := make([]*Worker, 0, len(p.workers))
	for _, w := range p.workers {
		if w.GetState() != WorkerStopped {
			result = append(result, w)
		}
	}
	return result
}

// GetActiveWorkerCount returns the count of non-stopped workers.
func (p *WorkerPool) GetActiveWorkerCount() int {
	p.workersMu.RLock()
	defer p.workersMu.RUnlock()

	count := 0
	for _, w := range p.workers {
		if w.GetState() != WorkerStopped {
			count++
		}
	}
	return count
}

// StopWorker requests a specific worker to stop.
func (p *WorkerPool) StopWorker(id int) {
	p.workersMu.RLock()
	w, exists := p.workers[id]
	p.workersMu.RUnlock()

	if exists {
		w.RequestStop()
	}
}

// StopAllWorkers requests all workers to stop.
func (p *WorkerPool) StopAllWorkers() {
	p.workersMu.RLock()
	defer p.workersMu.RUnlock()

	for _, w := range p.workers {
		w.RequestStop()
	}
}

// RemoveWorker removes a worker from the pool.
// The worker should be stopped before calling this.
func (p *WorkerPool) RemoveWorker(id int) {
	p.workersMu.Lock()
	defer p.workersMu.Unlock()

	if w, exists := p.workers[id]; exists {
		w.MarkStopped()
		delete(p.workers, id)
	}
}

// WaitForAllWorkers waits for all workers to stop with a timeout.
//
// Returns the number of workers that did not stop within the timeout.
func (p *WorkerPool) WaitForAllWorkers(timeout time.Duration) int {
	deadline := time.Now().Add(timeout)

	p.workersMu.RLock()
	workers := make([]*Worker, 0, len(p.workers))
	for _, w := range p.workers {
		workers = append(workers, w)
	}
	p.workersMu.RUnlock()

	notStopped := 0
	for _, w := range workers {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			// Timeout expired
			notStopped++
			continue
		}

		if !w.WaitForStop(remaining) {
			notStopped++
		}
	}

	return notStopped
}

// UpdateMetrics updates the metrics engine with the current worker count.
func (p *WorkerPool) UpdateMetrics() {
	p.metrics.SetActiveWorkers(p.GetActiveWorkerCount())
}

// Shutdown gracefully shuts down all workers.
func (p *WorkerPool) Shutdown(timeout time.Duration) {
	p.StopAllWorkers()
	p.WaitForAllWorkers(timeout)
	p.UpdateMetrics()
}
