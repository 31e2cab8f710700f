package executor_test

import (
	"context"
	"testing"
	"time"

	"github.com/radload-io/radload/internal/executor"
	"github.com/radload-io/radload/internal/metrics"
	"github.com/radload-io/radload/internal/radius"
)

// createConstantRateTestConfig creates a constant-rate config for testing.
func createConstantRateTestConfig(rate float64, duration time.Duration) *executor.Config {
	return &executor.Config{
		Type:     executor.TypeConstantRate,
		Rate:     rate,
		Duration: duration,
		Workers:  5,
	}
}

func TestNewConstantRate(t *testing.T) {
	e := executor.NewConstantRate()
	if e == nil {
		t.Fatal("NewConstantRate() returned nil")
	}
}

func TestConstantRate_Type(t *testing.T) {
	e := executor.NewConstantRate()
	if e.Type() != executor.TypeConstantRate {
		t.Errorf("Type() = %v, want %v", e.Type(), executor.TypeConstantRate)
	}
}

func TestConstantRate_Init_ValidConfig(t *testing.T) {
	e := executor.NewConstantRate()

	err := e.Init(context.Background(), createConstantRateTestConfig(100, 1*time.Minute))
	if err != nil {
		t.Fatalf("Init() error = %v, want nil", err)
	}
}

func TestConstantRate_Init_InvalidType(t *testing.T) {
	e := executor.NewConstantRate()

	config := &executor.Config{
		Type:    executor.TypeBatch, // Wrong type
		Total:   100,
		Workers: 10,
	}

	err := e.Init(context.Background(), config)
	if err == nil {
		t.Fatal("Init() expected error for wrong type, got nil")
	}
}

func TestConstantRate_Init_ZeroRate(t *testing.T) {
	e := executor.NewConstantRate()

	err := e.Init(context.Background(), createConstantRateTestConfig(0, 1*time.Minute))
	if err == nil {
		t.Fatal("Init() expected error for zero rate, got nil")
	}
}

func TestConstantRate_Init_ZeroDuration(t *testing.T) {
	e := executor.NewConstantRate()

	err := e.Init(context.Background(), createConstantRateTestConfig(100, 0))
	if err == nil {
		t.Fatal("Init() expected error for zero duration, got nil")
	}
}

func TestConstantRate_Init_DefaultWorkers(t *testing.T) {
	e := executor.NewConstantRate()

	config := &executor.Config{
		Type:     executor.TypeConstantRate,
		Rate:     100,
		Duration: 1 * time.Minute,
	}

	if err := e.Init(context.Background(), config); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if config.Workers != 50 {
		t.Errorf("Workers after Init() = %d, want default 50", config.Workers)
	}
}

func TestConstantRate_Run_DispatchesBudget(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	pool := executor.NewWorkerPool(stubFactory(radius.StatusSucceeded, time.Millisecond), metricsEngine)

	e := executor.NewConstantRate()

	// Budget is rate x duration = 50 requests
	config := createConstantRateTestConfig(200, 250*time.Millisecond)
	if err := e.Init(context.Background(), config); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	err := e.Run(ctx, pool, metricsEngine)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	stats := e.GetStats()
	if stats.Iterations != 50 {
		t.Errorf("Iterations = %d, want 50", stats.Iterations)
	}

	snapshot := metricsEngine.GetSnapshot()
	if snapshot.Sent != 50 {
		t.Errorf("Snapshot.Sent = %d, want 50", snapshot.Sent)
	}

	// Pacing should stretch the run to approximately the duration
	if elapsed < 200*time.Millisecond || elapsed > 2*time.Second {
		t.Errorf("Run() elapsed = %v, want ~250ms", elapsed)
	}
}

func TestConstantRate_Run_RecordsOutcomes(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	pool := executor.NewWorkerPool(stubFactory(radius.StatusNoReply, 50*time.Millisecond), metricsEngine)

	e := executor.NewConstantRate()
	if err := e.Init(context.Background(), createConstantRateTestConfig(100, 100*time.Millisecond)); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if err := e.Run(context.Background(), pool, metricsEngine); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	snapshot := metricsEngine.GetSnapshot()
	if snapshot.Sent == 0 {
		t.Fatal("Snapshot.Sent = 0, want > 0")
	}
	if snapshot.NoReply != snapshot.Sent {
		t.Errorf("Snapshot.NoReply = %d, want %d (all timeouts)", snapshot.NoReply, snapshot.Sent)
	}
	if snapshot.SuccessRate != 0.0 {
		t.Errorf("Snapshot.SuccessRate = %v, want 0.0", snapshot.SuccessRate)
	}
}

func TestConstantRate_GetProgress_BeforeRun(t *testing.T) {
	e := executor.NewConstantRate()
	_ = e.Init(context.Background(), createConstantRateTestConfig(100, 1*time.Second))

	// Before running
	progress := e.GetProgress()
	if progress != 0.0 {
		t.Errorf("Before Run(), GetProgress() = %v, want 0.0", progress)
	}
}

func TestConstantRate_GetProgress_AfterRun(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	pool := executor.NewWorkerPool(stubFactory(radius.StatusSucceeded, time.Millisecond), metricsEngine)

	e := executor.NewConstantRate()
	_ = e.Init(context.Background(), createConstantRateTestConfig(100, 100*time.Millisecond))
	_ = e.Run(context.Background(), pool, metricsEngine)

	// After completion
	progress := e.GetProgress()
	if progress != 1.0 {
		t.Errorf("After Run(), GetProgress() = %v, want 1.0", progress)
	}
}

func TestConstantRate_GetActiveWorkers_AfterRun(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	pool := executor.NewWorkerPool(stubFactory(radius.StatusSucceeded, time.Millisecond), metricsEngine)

	e := executor.NewConstantRate()
	_ = e.Init(context.Background(), createConstantRateTestConfig(100, 100*time.Millisecond))
	_ = e.Run(context.Background(), pool, metricsEngine)

	if active := e.GetActiveWorkers(); active != 0 {
		t.Errorf("After Run(), GetActiveWorkers() = %d, want 0", active)
	}
}

func TestConstantRate_GetStats(t *testing.T) {
	e := executor.NewConstantRate()
	_ = e.Init(context.Background(), createConstantRateTestConfig(100, 5*time.Minute))

	stats := e.GetStats()
	if stats.TotalDuration != 5*time.Minute {
		t.Errorf("Stats.TotalDuration = %v, want 5m", stats.TotalDuration)
	}
	if stats.TargetRate != 100 {
		t.Errorf("Stats.TargetRate = %v, want 100", stats.TargetRate)
	}
	if stats.TargetWorkers != 5 {
		t.Errorf("Stats.TargetWorkers = %d, want 5", stats.TargetWorkers)
	}
}

func TestConstantRate_GetStats_AfterRun(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	pool := executor.NewWorkerPool(stubFactory(radius.StatusSucceeded, time.Millisecond), metricsEngine)

	e := executor.NewConstantRate()
	_ = e.Init(context.Background(), createConstantRateTestConfig(100, 200*time.Millisecond))
	_ = e.Run(context.Background(), pool, metricsEngine)

	stats := e.GetStats()
	if stats.Iterations != 20 {
		t.Errorf("Stats.Iterations = %d, want 20", stats.Iterations)
	}
	if stats.CurrentRate <= 0 {
		t.Errorf("Stats.CurrentRate = %v, want > 0", stats.CurrentRate)
	}
}

func TestConstantRate_Steps_Nil(t *testing.T) {
	e := executor.NewConstantRate()
	_ = e.Init(context.Background(), createConstantRateTestConfig(100, 1*time.Second))

	if steps := e.Steps(); steps != nil {
		t.Errorf("Steps() = %v, want nil", steps)
	}
}

func TestConstantRate_Stop(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	pool := executor.NewWorkerPool(stubFactory(radius.StatusSucceeded, time.Millisecond), metricsEngine)

	e := executor.NewConstantRate()
	// Long duration
	if err := e.Init(context.Background(), createConstantRateTestConfig(100, 10*time.Second)); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	done := make(chan struct{})
	var runErr error
	go func() {
		runErr = e.Run(context.Background(), pool, metricsEngine)
		close(done)
	}()

	time.Sleep(150 * time.Millisecond)
	if err := e.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	select {
	case <-done:
		if runErr != nil {
			t.Fatalf("Run() error after Stop = %v", runErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not complete after Stop")
	}
}

func TestConstantRate_Stop_BeforeRun(t *testing.T) {
	e := executor.NewConstantRate()
	_ = e.Init(context.Background(), createConstantRateTestConfig(100, 1*time.Second))

	// Stop before Run should not panic
	if err := e.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v, want nil", err)
	}
}

func TestConstantRate_ContextCancellation(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	pool := executor.NewWorkerPool(stubFactory(radius.StatusSucceeded, time.Millisecond), metricsEngine)

	e := executor.NewConstantRate()
	if err := e.Init(context.Background(), createConstantRateTestConfig(100, 10*time.Second)); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	var runErr error
	go func() {
		runErr = e.Run(ctx, pool, metricsEngine)
		close(done)
	}()

	time.Sleep(150 * time.Millisecond)
	cancel()

	select {
	case <-done:
		// Cancellation is a graceful end, not a run failure
		if runErr != nil {
			t.Fatalf("Run() error after cancel = %v", runErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not complete after cancel")
	}
}

func TestConstantRate_ContextTimeout(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	pool := executor.NewWorkerPool(stubFactory(radius.StatusSucceeded, time.Millisecond), metricsEngine)

	e := executor.NewConstantRate()
	// Budget of 1000, but the context expires long before the duration
	if err := e.Init(context.Background(), createConstantRateTestConfig(100, 10*time.Second)); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := e.Run(ctx, pool, metricsEngine)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if elapsed > 2*time.Second {
		t.Errorf("Run() elapsed = %v, want well under the 10s duration", elapsed)
	}

	stats := e.GetStats()
	if stats.Iterations >= 1000 {
		t.Errorf("Iterations = %d, want < 1000 after early timeout", stats.Iterations)
	}
}

func TestConstantRate_Interface(t *testing.T) {
	var _ executor.Executor = (*executor.ConstantRate)(nil)
	var _ executor.Executor = executor.NewConstantRate()
}

func BenchmarkConstantRate_Run(b *testing.B) {
	for i := 0; i < b.N; i++ {
		metricsEngine := metrics.NewEngine()
		pool := executor.NewWorkerPool(stubFactory(radius.StatusSucceeded, time.Millisecond), metricsEngine)

		e := executor.NewConstantRate()
		_ = e.Init(context.Background(), createConstantRateTestConfig(1000, 10*time.Millisecond))
		_ = e.Run(context.Background(), pool, metricsEngine)

		metricsEngine.Stop()
	}
}
