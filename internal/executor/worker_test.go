package executor_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/radload-io/radload/internal/executor"
	"github.com/radload-io/radload/internal/metrics"
	"github.com/radload-io/radload/internal/radius"
)

func TestNewWorker(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	sender := &stubSender{status: radius.StatusSucceeded}
	w := executor.NewWorker(7, sender, metricsEngine)

	if w == nil {
		t.Fatal("NewWorker() returned nil")
	}
	if w.ID != 7 {
		t.Errorf("ID = %d, want 7", w.ID)
	}
	if w.GetState() != executor.WorkerIdle {
		t.Errorf("GetState() = %v, want idle", w.GetState())
	}
	if w.GetIteration() != 0 {
		t.Errorf("GetIteration() = %d, want 0", w.GetIteration())
	}
}

func TestWorkerState_String(t *testing.T) {
	tests := []struct {
		state executor.WorkerState
		want  string
	}{
		{executor.WorkerIdle, "idle"},
		{executor.WorkerRunning, "running"},
		{executor.WorkerStopping, "stopping"},
		{executor.WorkerStopped, "stopped"},
		{executor.WorkerState(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("WorkerState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestWorker_RunIteration_RecordsOutcome(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	sender := &stubSender{status: radius.StatusSucceeded, latency: 5 * time.Millisecond}
	w := executor.NewWorker(1, sender, metricsEngine)

	if err := w.RunIteration(context.Background()); err != nil {
		t.Fatalf("RunIteration() error = %v", err)
	}

	if w.GetIteration() != 1 {
		t.Errorf("GetIteration() = %d, want 1", w.GetIteration())
	}
	if w.GetState() != executor.WorkerIdle {
		t.Errorf("GetState() after iteration = %v, want idle", w.GetState())
	}

	snapshot := metricsEngine.GetSnapshot()
	if snapshot.Sent != 1 {
		t.Errorf("Snapshot.Sent = %d, want 1", snapshot.Sent)
	}
	if snapshot.Succeeded != 1 {
		t.Errorf("Snapshot.Succeeded = %d, want 1", snapshot.Succeeded)
	}
}

func TestWorker_RunIteration_RecordsNoReply(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	sender := &stubSender{status: radius.StatusNoReply, latency: 5 * time.Second}
	w := executor.NewWorker(1, sender, metricsEngine)

	if err := w.RunIteration(context.Background()); err != nil {
		t.Fatalf("RunIteration() error = %v", err)
	}

	snapshot := metricsEngine.GetSnapshot()
	if snapshot.NoReply != 1 {
		t.Errorf("Snapshot.NoReply = %d, want 1", snapshot.NoReply)
	}
}

func TestWorker_RunIteration_ContextCancelled(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	sender := &stubSender{status: radius.StatusSucceeded}
	w := executor.NewWorker(1, sender, metricsEngine)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.RunIteration(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RunIteration() error = %v, want context.Canceled", err)
	}

	// Nothing was sent or recorded
	if w.GetIteration() != 0 {
		t.Errorf("GetIteration() = %d, want 0", w.GetIteration())
	}
	if snapshot := metricsEngine.GetSnapshot(); snapshot.Sent != 0 {
		t.Errorf("Snapshot.Sent = %d, want 0", snapshot.Sent)
	}
}

func TestWorker_RunIteration_AfterRequestStop(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	sender := &stubSender{status: radius.StatusSucceeded}
	w := executor.NewWorker(1, sender, metricsEngine)

	w.RequestStop()

	err := w.RunIteration(context.Background())
	if err == nil {
		t.Fatal("RunIteration() after RequestStop() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "stopping or stopped") {
		t.Errorf("RunIteration() error = %q, want mention of stopping", err)
	}
}

func TestWorker_RunIteration_AfterMarkStopped(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	sender := &stubSender{status: radius.StatusSucceeded}
	w := executor.NewWorker(1, sender, metricsEngine)

	w.MarkStopped()

	if err := w.RunIteration(context.Background()); err == nil {
		t.Fatal("RunIteration() after MarkStopped() expected error, got nil")
	}
}

func TestWorker_RequestStop_SetsStopping(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	w := executor.NewWorker(1, &stubSender{status: radius.StatusSucceeded}, metricsEngine)

	w.RequestStop()

	if w.GetState() != executor.WorkerStopping {
		t.Errorf("GetState() after RequestStop() = %v, want stopping", w.GetState())
	}
}

func TestWorker_RequestStop_Idempotent(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	w := executor.NewWorker(1, &stubSender{status: radius.StatusSucceeded}, metricsEngine)

	// A second call must not close the stop channel again
	w.RequestStop()
	w.RequestStop()

	if w.GetState() != executor.WorkerStopping {
		t.Errorf("GetState() = %v, want stopping", w.GetState())
	}
}

func TestWorker_MarkStopped_Idempotent(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	w := executor.NewWorker(1, &stubSender{status: radius.StatusSucceeded}, metricsEngine)

	w.MarkStopped()
	w.MarkStopped()

	if w.GetState() != executor.WorkerStopped {
		t.Errorf("GetState() = %v, want stopped", w.GetState())
	}
}

func TestWorker_WaitForStop_AfterMarkStopped(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	w := executor.NewWorker(1, &stubSender{status: radius.StatusSucceeded}, metricsEngine)
	w.MarkStopped()

	if !w.WaitForStop(100 * time.Millisecond) {
		t.Error("WaitForStop() = false, want true for a stopped worker")
	}
}

func TestWorker_WaitForStop_Timeout(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	w := executor.NewWorker(1, &stubSender{status: radius.StatusSucceeded}, metricsEngine)

	if w.WaitForStop(50 * time.Millisecond) {
		t.Error("WaitForStop() = true, want false for a worker that never stops")
	}
}

func TestWorker_MultipleIterations(t *testing.T) {
	metricsEngine := metrics.NewEngine()
	defer metricsEngine.Stop()

	sender := &stubSender{status: radius.StatusSucceeded, latency: time.Millisecond}
	w := executor.NewWorker(1, sender, metricsEngine)

	for i := 0; i < 5; i++ {
		if err := w.RunIteration(context.Background()); err != nil {
			t.Fatalf("RunIteration() #%d error = %v", i+1, err)
		}
	}

	if w.GetIteration() != 5 {
		t.Errorf("GetIteration() = %d, want 5", w.GetIteration())
	}
	if snapshot := metricsEngine.GetSnapshot(); snapshot.Sent != 5 {
		t.Errorf("Snapshot.Sent = %d, want 5", snapshot.Sent)
	}
}
