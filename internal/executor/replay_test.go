package executor_test

import (
	"context"
	"testing"
	"time"

	"github.com/radload-io/radload/internal/executor"
	"github.com/radload-io/radload/internal/metrics"
	"github.com/radload-io/radload/internal/radius"
)

// createReplayTestConfig creates a three-hour profile for testing, with
// a dead hour in the middle.
func createReplayTestConfig() *executor.Config {
	return &executor.Config{
		Type: executor.TypeReplay,
		Profile: []executor.ProfilePoint{
			{Hour: 0, Rate: 30},
			{Hour: 1, Rate: 0},
			{Hour: 2, Rate: 10},
		},
		HourDuration: 100 * time.Millisecond,
		Workers:      4,
	}
}

func TestNewReplay(t *testing.T) {
	e := executor.NewReplay()
	if e == nil {
		t.Fatal("NewReplay() returned nil")
	}
}

func TestReplay_Type(t *testing.T) {
	e := executor.NewReplay()
	if e.Type() != executor.TypeReplay {
		t.Errorf("Type() = %v, want %v", e.Type(), executor.TypeReplay)
	}
}

func TestReplay_Init_ValidConfig(t *testing.T) {
	e := executor.NewReplay()

	err := e.Init(context.Background(), createReplayTestConfig())
	if err != nil {
		t.Fatalf("Init() error = %v, want nil", err)
	}
}

func TestReplay_Init_InvalidType(t *testing.T) {
	e := executor.NewReplay()

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

func TestReplay_Init_EmptyProfile(t *testing.T) {
	e := executor.NewReplay()

	config := createReplayTestConfig()
	config.Profile = nil

	err := e.Init(context.Background(), config)
	if err == nil {
		t.Fatal("Init() expected error for empty profile, got nil")
	}
}

func TestReplay_Init_NegativeRate(t *testing.T) {
	e := executor.NewReplay()

	config := createReplayTestConfig()
	config.Profile[1].Rate = -5

	err := e.Init(context.Background(), config)
	if err == nil {
		t.Fatal("Init() expected error for negative profile rate, got nil")
	}
}

func TestReplay_Init_ZeroHourDuration(t *testing.T) {
	e := executor.NewReplay()

	config := createReplayTestConfig()
	config.HourDuration = 0

	err := e.Init(context.Background(), config)
	if err == nil {
		t.Fatal("Init() expected error for zero hourDuration, got nil")
	}
}

func TestReplay_Init_DefaultWorkers(t *testing.T) {
	e := executor.NewReplay()

	config := createReplayTestConfig()
	config.Workers = 0

	if err := e.Init(context.Background(), config); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if config.Workers != 50 {
		t.Errorf("Workers after Init() = %d, want default 50", config.Workers)
	}
}

func TestReplay_Run_CompletesEveryHour(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	pool := executor.NewWorkerPool(stubFactory(radius.StatusSucceeded, time.Millisecond), metricsEngine)

	e := executor.NewReplay()
	if err := e.Init(context.Background(), createReplayTestConfig()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if err := e.Run(context.Background(), pool, metricsEngine); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	steps := e.Steps()
	if len(steps) != 3 {
		t.Fatalf("len(Steps()) = %d, want 3", len(steps))
	}

	wantHours := []int{0, 1, 2}
	wantRates := []float64{30, 0, 10}
	for i, step := range steps {
		if step.Hour != wantHours[i] {
			t.Errorf("steps[%d].Hour = %d, want %d", i, step.Hour, wantHours[i])
		}
		if step.TargetRate != wantRates[i] {
			t.Errorf("steps[%d].TargetRate = %v, want %v", i, step.TargetRate, wantRates[i])
		}
	}
}

func TestReplay_Run_HoursAreIsolated(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	pool := executor.NewWorkerPool(stubFactory(radius.StatusSucceeded, time.Millisecond), metricsEngine)

	e := executor.NewReplay()
	if err := e.Init(context.Background(), createReplayTestConfig()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if err := e.Run(context.Background(), pool, metricsEngine); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	steps := e.Steps()
	if len(steps) != 3 {
		t.Fatalf("len(Steps()) = %d, want 3", len(steps))
	}

	// Each hour's snapshot covers only its own budget (rate x 100ms)
	wantSent := []int64{3, 0, 1}
	for i, step := range steps {
		if step.Metrics == nil {
			t.Fatalf("steps[%d].Metrics = nil", i)
		}
		if step.Metrics.Sent != wantSent[i] {
			t.Errorf("steps[%d].Metrics.Sent = %d, want %d", i, step.Metrics.Sent, wantSent[i])
		}
	}
}

func TestReplay_Run_ZeroRateHourCompletesImmediately(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	pool := executor.NewWorkerPool(stubFactory(radius.StatusSucceeded, time.Millisecond), metricsEngine)

	e := executor.NewReplay()

	config := &executor.Config{
		Type: executor.TypeReplay,
		Profile: []executor.ProfilePoint{
			{Hour: 3, Rate: 0},
		},
		HourDuration: 10 * time.Second, // Would be a long wait if the hour ran
		Workers:      4,
	}

	if err := e.Init(context.Background(), config); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	start := time.Now()
	err := e.Run(context.Background(), pool, metricsEngine)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if elapsed > 2*time.Second {
		t.Errorf("Run() elapsed = %v, want immediate completion for a zero-rate hour", elapsed)
	}

	steps := e.Steps()
	if len(steps) != 1 {
		t.Fatalf("len(Steps()) = %d, want 1", len(steps))
	}
	if steps[0].Metrics.Sent != 0 {
		t.Errorf("steps[0].Metrics.Sent = %d, want 0", steps[0].Metrics.Sent)
	}
}

func TestReplay_GetProgress_BeforeRun(t *testing.T) {
	e := executor.NewReplay()
	_ = e.Init(context.Background(), createReplayTestConfig())

	// Before running
	progress := e.GetProgress()
	if progress != 0.0 {
		t.Errorf("Before Run(), GetProgress() = %v, want 0.0", progress)
	}
}

func TestReplay_GetProgress_AfterRun(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	pool := executor.NewWorkerPool(stubFactory(radius.StatusSucceeded, time.Millisecond), metricsEngine)

	e := executor.NewReplay()
	_ = e.Init(context.Background(), createReplayTestConfig())
	_ = e.Run(context.Background(), pool, metricsEngine)

	// After completion
	progress := e.GetProgress()
	if progress != 1.0 {
		t.Errorf("After Run(), GetProgress() = %v, want 1.0", progress)
	}
}

func TestReplay_GetStats(t *testing.T) {
	e := executor.NewReplay()
	_ = e.Init(context.Background(), createReplayTestConfig())

	stats := e.GetStats()
	if stats.TotalSteps != 3 {
		t.Errorf("Stats.TotalSteps = %d, want 3", stats.TotalSteps)
	}
	if stats.TotalDuration != 300*time.Millisecond {
		t.Errorf("Stats.TotalDuration = %v, want 300ms", stats.TotalDuration)
	}
	if stats.TargetWorkers != 4 {
		t.Errorf("Stats.TargetWorkers = %d, want 4", stats.TargetWorkers)
	}
}

func TestReplay_Stop(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	pool := executor.NewWorkerPool(stubFactory(radius.StatusSucceeded, time.Millisecond), metricsEngine)

	e := executor.NewReplay()

	config := createReplayTestConfig()
	config.HourDuration = 10 * time.Second // Long hours

	if err := e.Init(context.Background(), config); err != nil {
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

func TestReplay_Stop_BeforeRun(t *testing.T) {
	e := executor.NewReplay()
	_ = e.Init(context.Background(), createReplayTestConfig())

	// Stop before Run should not panic
	if err := e.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v, want nil", err)
	}
}

func TestReplay_ContextCancellation(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	pool := executor.NewWorkerPool(slowFactory(20*time.Millisecond), metricsEngine)

	e := executor.NewReplay()

	config := &executor.Config{
		Type: executor.TypeReplay,
		Profile: []executor.ProfilePoint{
			{Hour: 0, Rate: 50},
		},
		HourDuration: 10 * time.Second, // Long hour
		Workers:      4,
	}

	if err := e.Init(context.Background(), config); err != nil {
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
		if runErr != nil {
			t.Fatalf("Run() error after cancel = %v", runErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not complete after cancel")
	}

	// The interrupted hour's partial data is discarded
	if steps := e.Steps(); len(steps) != 0 {
		t.Errorf("len(Steps()) = %d, want 0 after mid-hour cancel", len(steps))
	}
}

func TestReplay_Interface(t *testing.T) {
	var _ executor.Executor = (*executor.Replay)(nil)
	var _ executor.Executor = executor.NewReplay()
}

func BenchmarkReplay_Run(b *testing.B) {
	for i := 0; i < b.N; i++ {
		metricsEngine := metrics.NewEngine()
		pool := executor.NewWorkerPool(stubFactory(radius.StatusSucceeded, time.Millisecond), metricsEngine)

		e := executor.NewReplay()
		_ = e.Init(context.Background(), &executor.Config{
			Type:         executor.TypeReplay,
			Profile:      []executor.ProfilePoint{{Hour: 0, Rate: 100}},
			HourDuration: 10 * time.Millisecond,
			Workers:      4,
		})
		_ = e.Run(context.Background(), pool, metricsEngine)

		metricsEngine.Stop()
	}
}
