package executor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/radload-io/radload/internal/metrics"
	"github.com/radload-io/radload/internal/rate"
)

// dispatchWindow drives one paced dispatch window: it spawns a fresh
// set of workers, feeds them through a bounded queue at the target
// rate until the request budget (rate x duration) is exhausted, then
// closes the queue and waits for the workers to drain it.
//
// The queue is bounded at twice the worker count: deep enough to keep
// workers busy, shallow enough that the producer cannot run unbounded
// ahead of a slow server. Backpressure from a full queue stretches the
// window rather than dropping requests. Shutdown is signalled by
// closing the queue, so workers never see a sentinel value.
//
// Returns the context error if the window was cancelled mid-dispatch,
// nil otherwise.
func dispatchWindow(
	ctx context.Context,
	pool *WorkerPool,
	metricsEngine *metrics.Engine,
	targetRate float64,
	duration time.Duration,
	workerCount int,
	iterations *atomic.Int64,
	activeWorkers *atomic.Int32,
) error {
	budget := int64(targetRate * duration.Seconds())
	if budget <= 0 {
		// A zero-rate window has nothing to dispatch
		return ctx.Err()
	}

	tasks := make(chan struct{}, 2*workerCount)

	var wg sync.WaitGroup
	workers := make([]*Worker, 0, workerCount)
	for i := 0; i < workerCount; i++ {
		w := pool.SpawnWorker()
		workers = append(workers, w)

		wg.Add(1)
		activeWorkers.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			defer activeWorkers.Add(-1)

			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-tasks:
					if !ok {
						return
					}
					if err := w.RunIteration(ctx); err != nil {
						return
					}
					iterations.Add(1)
				}
			}
		}(w)
	}
	pool.UpdateMetrics()

	metricsEngine.SetPhase(metrics.PhaseSteady)

	// Producer: the leaky bucket paces dispatch at the target rate.
	bucket := rate.NewLeakyBucket(targetRate)

	var produceErr error
	for i := int64(0); i < budget; i++ {
		if err := bucket.Wait(ctx); err != nil {
			produceErr = err
			break
		}

		select {
		case tasks <- struct{}{}:
		case <-ctx.Done():
			produceErr = ctx.Err()
		}
		if produceErr != nil {
			break
		}
	}
	close(tasks)

	// Drain: let workers finish what is already queued
	metricsEngine.SetPhase(metrics.PhaseDrain)
	wg.Wait()

	for _, w := range workers {
		w.MarkStopped()
		pool.RemoveWorker(w.ID)
	}
	pool.UpdateMetrics()

	return produceErr
}
