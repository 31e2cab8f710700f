package executor_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/radload-io/radload/internal/config"
	"github.com/radload-io/radload/internal/executor"
)

func TestNewExecutor(t *testing.T) {
	tests := []struct {
		executorType executor.Type
		wantErr      bool
	}{
		{executor.TypeBatch, false},
		{executor.TypeConstantRate, false},
		{executor.TypeRampingRate, false},
		{executor.TypeReplay, false},
		{executor.Type("flood"), true},
		{executor.Type(""), true},
	}

	for _, tt := range tests {
		t.Run(string(tt.executorType), func(t *testing.T) {
			e, err := executor.NewExecutor(tt.executorType)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewExecutor() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewExecutor() error = %v, want nil", err)
			}
			if e.Type() != tt.executorType {
				t.Errorf("Type() = %v, want %v", e.Type(), tt.executorType)
			}
		})
	}
}

func TestNewExecutorFromString(t *testing.T) {
	e, err := executor.NewExecutorFromString("batch")
	if err != nil {
		t.Fatalf("NewExecutorFromString() error = %v", err)
	}
	if e.Type() != executor.TypeBatch {
		t.Errorf("Type() = %v, want batch", e.Type())
	}

	if _, err := executor.NewExecutorFromString("bogus"); err == nil {
		t.Fatal("NewExecutorFromString(bogus) error = nil, want error")
	}
}

func TestCreateAndInitExecutor(t *testing.T) {
	cfg := &executor.Config{
		Type:    executor.TypeBatch,
		Total:   10000,
		Workers: 10,
	}

	e, err := executor.CreateAndInitExecutor(context.Background(), cfg)
	if err != nil {
		t.Fatalf("CreateAndInitExecutor() error = %v", err)
	}
	if e.Type() != executor.TypeBatch {
		t.Errorf("Type() = %v, want batch", e.Type())
	}
}

func TestCreateAndInitExecutor_InvalidConfig(t *testing.T) {
	cfg := &executor.Config{
		Type:    executor.TypeBatch,
		Total:   0, // Invalid
		Workers: 10,
	}

	_, err := executor.CreateAndInitExecutor(context.Background(), cfg)
	if err == nil {
		t.Fatal("CreateAndInitExecutor() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "failed to initialize") {
		t.Errorf("error = %q, want initialization failure", err)
	}
}

func TestCreateAndInitExecutor_UnknownType(t *testing.T) {
	cfg := &executor.Config{Type: "flood"}

	_, err := executor.CreateAndInitExecutor(context.Background(), cfg)
	if err == nil {
		t.Fatal("CreateAndInitExecutor() error = nil, want error")
	}
}

func TestConfigFromScenario_Batch(t *testing.T) {
	sc := &config.Scenario{
		Name:    "nightly-batch",
		Mode:    config.ModeBatch,
		Workers: 50,
		Batch:   &config.BatchConfig{Total: 5000, Parallel: 25},
	}

	cfg, err := executor.ConfigFromScenario(sc)
	if err != nil {
		t.Fatalf("ConfigFromScenario() error = %v", err)
	}

	if cfg.Type != executor.TypeBatch {
		t.Errorf("Type = %v, want batch", cfg.Type)
	}
	if cfg.Name != "nightly-batch" {
		t.Errorf("Name = %q, want nightly-batch", cfg.Name)
	}
	if cfg.Total != 5000 {
		t.Errorf("Total = %d, want 5000", cfg.Total)
	}
	// Parallel overrides the scenario-level worker count
	if cfg.Workers != 25 {
		t.Errorf("Workers = %d, want 25", cfg.Workers)
	}
}

func TestConfigFromScenario_BatchWithoutParallel(t *testing.T) {
	sc := &config.Scenario{
		Mode:    config.ModeBatch,
		Workers: 50,
		Batch:   &config.BatchConfig{Total: 5000},
	}

	cfg, err := executor.ConfigFromScenario(sc)
	if err != nil {
		t.Fatalf("ConfigFromScenario() error = %v", err)
	}

	if cfg.Workers != 50 {
		t.Errorf("Workers = %d, want scenario-level 50", cfg.Workers)
	}
}

func TestConfigFromScenario_Run(t *testing.T) {
	sc := &config.Scenario{
		Mode:     config.ModeRun,
		Workers:  20,
		Rate:     100,
		Duration: config.Duration(30 * time.Second),
	}

	cfg, err := executor.ConfigFromScenario(sc)
	if err != nil {
		t.Fatalf("ConfigFromScenario() error = %v", err)
	}

	if cfg.Type != executor.TypeConstantRate {
		t.Errorf("Type = %v, want constant-rate", cfg.Type)
	}
	if cfg.Rate != 100 {
		t.Errorf("Rate = %v, want 100", cfg.Rate)
	}
	if cfg.Duration != 30*time.Second {
		t.Errorf("Duration = %v, want 30s", cfg.Duration)
	}
	if cfg.Workers != 20 {
		t.Errorf("Workers = %d, want 20", cfg.Workers)
	}
}

func TestConfigFromScenario_Ramp(t *testing.T) {
	sc := &config.Scenario{
		Mode:    config.ModeRamp,
		Workers: 50,
		Ramp: &config.RampConfig{
			StartRate:    50,
			StepRate:     25,
			MaxRate:      500,
			StepDuration: config.Duration(30 * time.Second),
			SLOMillis:    200,
		},
	}

	cfg, err := executor.ConfigFromScenario(sc)
	if err != nil {
		t.Fatalf("ConfigFromScenario() error = %v", err)
	}

	if cfg.Type != executor.TypeRampingRate {
		t.Errorf("Type = %v, want ramping-rate", cfg.Type)
	}
	if cfg.StartRate != 50 || cfg.StepRate != 25 || cfg.MaxRate != 500 {
		t.Errorf("rates = %v/%v/%v, want 50/25/500", cfg.StartRate, cfg.StepRate, cfg.MaxRate)
	}
	if cfg.StepDuration != 30*time.Second {
		t.Errorf("StepDuration = %v, want 30s", cfg.StepDuration)
	}
	if cfg.SLOMillis != 200 {
		t.Errorf("SLOMillis = %v, want 200", cfg.SLOMillis)
	}
}

func TestConfigFromScenario_Replay(t *testing.T) {
	sc := &config.Scenario{
		Mode:    config.ModeReplay,
		Workers: 50,
		Replay: &config.ReplayConfig{
			Profile:      "traffic.csv",
			HourDuration: config.Duration(150 * time.Second),
		},
	}

	cfg, err := executor.ConfigFromScenario(sc)
	if err != nil {
		t.Fatalf("ConfigFromScenario() error = %v", err)
	}

	if cfg.Type != executor.TypeReplay {
		t.Errorf("Type = %v, want replay", cfg.Type)
	}
	if cfg.HourDuration != 150*time.Second {
		t.Errorf("HourDuration = %v, want 150s", cfg.HourDuration)
	}
	// The profile CSV is parsed by the caller, not the factory
	if cfg.Profile != nil {
		t.Errorf("Profile = %v, want nil", cfg.Profile)
	}
}

func TestConfigFromScenario_UnknownMode(t *testing.T) {
	sc := &config.Scenario{Mode: "flood"}

	_, err := executor.ConfigFromScenario(sc)
	if err == nil {
		t.Fatal("ConfigFromScenario() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "unknown scenario mode") {
		t.Errorf("error = %q, want unknown mode", err)
	}
}

func TestIsValidExecutorType(t *testing.T) {
	valid := []string{"batch", "constant-rate", "ramping-rate", "replay"}
	for _, typ := range valid {
		if !executor.IsValidExecutorType(typ) {
			t.Errorf("IsValidExecutorType(%q) = false, want true", typ)
		}
	}

	invalid := []string{"", "flood", "constant_rate", "BATCH"}
	for _, typ := range invalid {
		if executor.IsValidExecutorType(typ) {
			t.Errorf("IsValidExecutorType(%q) = true, want false", typ)
		}
	}
}

func TestGetSupportedExecutors(t *testing.T) {
	supported := executor.GetSupportedExecutors()
	if len(supported) != 4 {
		t.Fatalf("len(GetSupportedExecutors()) = %d, want 4", len(supported))
	}

	for _, typ := range supported {
		if !executor.IsValidExecutorType(string(typ)) {
			t.Errorf("supported type %q is not valid", typ)
		}
	}
}

func TestGetExecutorDescription(t *testing.T) {
	for _, typ := range executor.GetSupportedExecutors() {
		desc := executor.GetExecutorDescription(typ)
		if desc == nil {
			t.Fatalf("GetExecutorDescription(%q) = nil", typ)
		}
		if desc.Type != typ {
			t.Errorf("desc.Type = %v, want %v", desc.Type, typ)
		}
		if desc.Name == "" || desc.Description == "" {
			t.Errorf("desc for %q has empty name or description", typ)
		}
		if len(desc.UseCases) == 0 {
			t.Errorf("desc for %q has no use cases", typ)
		}
	}

	if desc := executor.GetExecutorDescription("flood"); desc != nil {
		t.Errorf("GetExecutorDescription(flood) = %v, want nil", desc)
	}
}
