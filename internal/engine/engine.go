// Package engine orchestrates load runs: it wires the sender factory,
// worker pool, executor and metrics engine together and turns one run
// into one result document.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/radload-io/radload/internal/executor"
	"github.com/radload-io/radload/internal/metrics"
	"github.com/radload-io/radload/internal/radius"
)

// Config describes one load run.
type Config struct {
	// Name labels the run in results and history
	Name string

	// Executor selects the mode and its parameters
	Executor *executor.Config

	// SenderFactory builds one sender per dispatch worker
	SenderFactory radius.SenderFactory

	// SLOs are threshold expressions evaluated against the run's
	// metrics, e.g. "p95 < 200ms"
	SLOs []string

	// RecordSamples enables the per-request sample log backing CSV
	// export
	RecordSamples bool
}

// Engine runs a single load run to completion.
//
// It coordinates:
//   - Executor creation and initialization
//   - Worker pool and metrics engine wiring
//   - Threshold evaluation
//   - Result assembly
//
// Example usage:
//
//	eng, _ := engine.New(&engine.Config{
//		Executor:      cfg,
//		SenderFactory: factory,
//	})
//	result, _ := eng.Run(context.Background())
//	fmt.Printf("Run passed: %v\n", result.Passed)
type Engine struct {
	config *Config

	// Live state, readable while the run is in flight
	metricsEngine *metrics.Engine
	exec          executor.Executor
	mu            sync.RWMutex

	startTime time.Time
	running   bool
}

// New creates an engine for one run.
//
// The executor configuration and every SLO expression are validated up
// front, so a bad run fails before any request is dispatched.
func New(cfg *Config) (*Engine, error) {
	if cfg == nil || cfg.Executor == nil {
		return nil, fmt.Errorf("executor configuration is required")
	}
	if cfg.SenderFactory == nil {
		return nil, fmt.Errorf("sender factory is required")
	}

	if err := cfg.Executor.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run configuration: %w", err)
	}

	for _, expr := range cfg.SLOs {
		if _, err := ParseThreshold(expr); err != nil {
			return nil, fmt.Errorf("invalid SLO expression: %w", err)
		}
	}

	return &Engine{config: cfg}, nil
}

// Run executes the run and blocks until it completes.
//
// The context can be used for cancellation - the executor stops
// gracefully and the partial result is still assembled and returned.
func (e *Engine) Run(ctx context.Context) (*RunResult, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, fmt.Errorf("engine is already running")
	}
	e.running = true
	e.startTime = time.Now()
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	engineConfig := metrics.DefaultEngineConfig()
	engineConfig.RecordSamples = e.config.RecordSamples
	metricsEngine := metrics.NewEngineWithConfig(engineConfig)
	defer metricsEngine.Stop()

	exec, err := executor.CreateAndInitExecutor(ctx, e.config.Executor)
	if err != nil {
		return nil, fmt.Errorf("failed to create executor: %w", err)
	}

	pool := executor.NewWorkerPool(e.config.SenderFactory, metricsEngine)

	e.mu.Lock()
	e.metricsEngine = metricsEngine
	e.exec = exec
	e.mu.Unlock()

	runErr := exec.Run(ctx, pool, metricsEngine)

	endTime := time.Now()

	// Stop the emitter before reading, so the final bucket makes it
	// into the time series.
	metricsEngine.Stop()

	// For stepped modes the engine was reset per step, so the final
	// snapshot covers only the last step; the per-step results carry
	// the isolated windows and Totals aggregates across them.
	snapshot := metricsEngine.GetSnapshot()
	steps := exec.Steps()
	stats := exec.GetStats()

	thresholds := EvaluateThresholds(e.config.SLOs, snapshot, steps)

	passed := runErr == nil
	for _, tr := range thresholds {
		if !tr.Passed {
			passed = false
		}
	}
	for _, step := range steps {
		if step.SLOViolated {
			passed = false
		}
	}

	pool.Shutdown(30 * time.Second)

	result := &RunResult{
		ID:         uuid.New().String(),
		Name:       e.config.Name,
		Mode:       string(exec.Type()),
		StartTime:  e.startTime,
		EndTime:    endTime,
		Duration:   endTime.Sub(e.startTime),
		Config:     e.config.Executor,
		Iterations: stats.Iterations,
		Totals:     runTotals(snapshot, steps),
		Metrics:    snapshot,
		Steps:      steps,
		TimeSeries: metricsEngine.GetTimeSeries(),
		Samples:    metricsEngine.Samples(),
		Thresholds: thresholds,
		Passed:     passed,
	}
	if runErr != nil {
		result.Error = runErr.Error()
	}

	return result, runErr
}

// IsRunning returns true while a run is in flight.
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// GetProgress returns the run progress (0.0 to 1.0).
func (e *Engine) GetProgress() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.exec == nil {
		return 0.0
	}
	return e.exec.GetProgress()
}

// GetStats returns the executor's live statistics, or nil before the
// run starts.
func (e *Engine) GetStats() *executor.Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.exec == nil {
		return nil
	}
	return e.exec.GetStats()
}

// GetSnapshot returns the current metrics snapshot, or nil before the
// run starts.
func (e *Engine) GetSnapshot() *metrics.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.metricsEngine == nil {
		return nil
	}
	return e.metricsEngine.GetSnapshot()
}

// Stop gracefully stops the run.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.RLock()
	exec := e.exec
	running := e.running
	e.mu.RUnlock()

	if !running || exec == nil {
		return nil
	}
	return exec.Stop(ctx)
}
