package executor

import (
	"context"
	"fmt"

	"github.com/radload-io/radload/internal/config"
)

// NewExecutor creates a new executor of the specified type.
//
// Supported types:
//   - "batch" - Fixed request total split evenly across workers
//   - "constant-rate" - Fixed dispatch rate for a duration
//   - "ramping-rate" - Stepped rate sweep until an SLO breaks
//   - "replay" - Hourly rate profile replay, compressed in time
//
// Returns an uninitialized executor. Call Init() before Run().
func NewExecutor(executorType Type) (Executor, error) {
	switch executorType {
	case TypeBatch:
		return NewBatch(), nil
	case TypeConstantRate:
		return NewConstantRate(), nil
	case TypeRampingRate:
		return NewRampingRate(), nil
	case TypeReplay:
		return NewReplay(), nil
	default:
		return nil, fmt.Errorf("unknown executor type: %s", executorType)
	}
}

// NewExecutorFromString creates a new executor from a string type name.
//
// This is a convenience wrapper around NewExecutor that accepts string input.
func NewExecutorFromString(executorType string) (Executor, error) {
	return NewExecutor(Type(executorType))
}

// CreateAndInitExecutor creates and initializes an executor with the given config.
//
// This is a convenience function that combines NewExecutor and Init.
func CreateAndInitExecutor(ctx context.Context, cfg *Config) (Executor, error) {
	exec, err := NewExecutor(cfg.Type)
	if err != nil {
		return nil, err
	}

	if err := exec.Init(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize executor: %w", err)
	}

	return exec, nil
}

// ConfigFromScenario converts a scenario file into an executor config.
//
// Replay scenarios name a profile CSV rather than inline rates; the
// caller parses that file and fills Config.Profile before initializing
// the executor.
func ConfigFromScenario(sc *config.Scenario) (*Config, error) {
	cfg := &Config{
		Name:    sc.Name,
		Workers: sc.Workers,
	}

	switch sc.Mode {
	case config.ModeBatch:
		cfg.Type = TypeBatch
		if sc.Batch != nil {
			cfg.Total = sc.Batch.Total
			if sc.Batch.Parallel > 0 {
				cfg.Workers = sc.Batch.Parallel
			}
		}

	case config.ModeRun:
		cfg.Type = TypeConstantRate
		cfg.Rate = sc.Rate
		cfg.Duration = sc.Duration.GetDuration(0)

	case config.ModeRamp:
		cfg.Type = TypeRampingRate
		if sc.Ramp != nil {
			cfg.StartRate = sc.Ramp.StartRate
			cfg.StepRate = sc.Ramp.StepRate
			cfg.MaxRate = sc.Ramp.MaxRate
			cfg.StepDuration = sc.Ramp.StepDuration.GetDuration(0)
			cfg.SLOMillis = sc.Ramp.SLOMillis
		}

	case config.ModeReplay:
		cfg.Type = TypeReplay
		if sc.Replay != nil {
			cfg.HourDuration = sc.Replay.HourDuration.GetDuration(0)
		}

	default:
		return nil, fmt.Errorf("unknown scenario mode: %q", sc.Mode)
	}

	return cfg, nil
}

// IsValidExecutorType returns true if the type is a valid executor type.
func IsValidExecutorType(executorType string) bool {
	switch Type(executorType) {
	case TypeBatch, TypeConstantRate, TypeRampingRate, TypeReplay:
		return true
	default:
		return false
	}
}

// GetSupportedExecutors returns a list of all supported executor types.
func GetSupportedExecutors() []Type {
	return []Type{
		TypeBatch,
		TypeConstantRate,
		TypeRampingRate,
		TypeReplay,
	}
}

// ExecutorDescription provides documentation for an executor type.
type ExecutorDescription struct {
	Type        Type
	Name        string
	Description string
	UseCases    []string
}

// GetExecutorDescription returns documentation for an executor type.
func GetExecutorDescription(executorType Type) *ExecutorDescription {
	switch executorType {
	case TypeBatch:
		return &ExecutorDescription{
			Type:        TypeBatch,
			Name:        "Batch",
			Description: "Splits a fixed request total evenly across workers. Each worker sends its share as fast as the tool completes requests (closed model).",
			UseCases: []string{
				"Reproducing a fixed-size campaign",
				"Timing how long a server takes to absorb a known volume",
				"Comparing elapsed time across server configurations",
			},
		}
	case TypeConstantRate:
		return &ExecutorDescription{
			Type:        TypeConstantRate,
			Name:        "Constant Rate",
			Description: "Dispatches requests at a fixed rate for a duration, regardless of response time. This is an open model with a bounded dispatch queue.",
			UseCases: []string{
				"SLA validation (the server must hold N RPS)",
				"Soak testing at a known arrival rate",
				"Measuring latency under controlled load",
			},
		}
	case TypeRampingRate:
		return &ExecutorDescription{
			Type:        TypeRampingRate,
			Name:        "Ramping Rate",
			Description: "Sweeps the dispatch rate upward in fixed steps until the P95 latency ceiling breaks, isolating each step's metrics.",
			UseCases: []string{
				"Finding the highest sustainable rate under an SLO",
				"Sizing server capacity before a campaign",
			},
		}
	case TypeReplay:
		return &ExecutorDescription{
			Type:        TypeReplay,
			Name:        "Replay",
			Description: "Replays an hourly rate profile with each hour compressed to a fixed window, isolating each hour's metrics.",
			UseCases: []string{
				"Rehearsing a production traffic shape before a migration",
				"Validating capacity against a recorded daily curve",
			},
		}
	default:
		return nil
	}
}
