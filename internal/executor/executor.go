// Package executor provides load dispatch strategies for RADIUS testing.
package executor

import (
	"context"
	"time"

	"github.com/radload-io/radload/internal/metrics"
)

// Type identifies the type of executor.
type Type string

const (
	// TypeBatch splits a fixed request total across a fixed worker count.
	TypeBatch Type = "batch"

	// TypeConstantRate dispatches requests at a fixed rate for a duration.
	TypeConstantRate Type = "constant-rate"

	// TypeRampingRate sweeps the rate upward in steps until an SLO breaks.
	TypeRampingRate Type = "ramping-rate"

	// TypeReplay replays an hourly rate profile, compressed in time.
	TypeReplay Type = "replay"
)

// Executor defines the interface for load dispatch strategies.
//
// Executors control HOW load is generated - whether by splitting a
// fixed total across workers or by pacing dispatch to a target rate.
// Each executor implements a different strategy suitable for different
// testing scenarios.
type Executor interface {
	// Type returns the executor type.
	Type() Type

	// Init initializes the executor with configuration.
	// Called once before Run().
	Init(ctx context.Context, config *Config) error

	// Run starts the executor and blocks until completion.
	// The executor should respect context cancellation for graceful shutdown.
	Run(ctx context.Context, pool *WorkerPool, metrics *metrics.Engine) error

	// GetProgress returns current progress (0.0 to 1.0).
	GetProgress() float64

	// GetActiveWorkers returns current active worker count.
	GetActiveWorkers() int

	// GetStats returns executor-specific statistics.
	GetStats() *Stats

	// Steps returns per-step results for stepped executors (ramp,
	// replay). Single-window executors return nil.
	Steps() []StepResult

	// Stop gracefully stops the executor.
	// Called when the run needs to end early.
	Stop(ctx context.Context) error
}

// Config contains configuration for an executor.
type Config struct {
	// Name is the name of this executor instance
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Type is the executor type
	Type Type `json:"type" yaml:"type"`

	// Workers is the dispatch concurrency (all executors)
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`

	// Batch executor
	Total int64 `json:"total,omitempty" yaml:"total,omitempty"`

	// Rate-driven executors
	Rate     float64       `json:"rate,omitempty" yaml:"rate,omitempty"` // requests/second
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`

	// Ramping-rate executor
	StartRate    float64       `json:"startRate,omitempty" yaml:"startRate,omitempty"`
	StepRate     float64       `json:"stepRate,omitempty" yaml:"stepRate,omitempty"`
	MaxRate      float64       `json:"maxRate,omitempty" yaml:"maxRate,omitempty"`
	StepDuration time.Duration `json:"stepDuration,omitempty" yaml:"stepDuration,omitempty"`

	// SLOMillis is the P95 latency ceiling, in milliseconds, that stops
	// a ramp sweep when exceeded
	SLOMillis float64 `json:"sloMillis,omitempty" yaml:"sloMillis,omitempty"`

	// Replay executor
	Profile      []ProfilePoint `json:"profile,omitempty" yaml:"profile,omitempty"`
	HourDuration time.Duration  `json:"hourDuration,omitempty" yaml:"hourDuration,omitempty"`

	// Graceful stop timeout
	GracefulStop time.Duration `json:"gracefulStop,omitempty" yaml:"gracefulStop,omitempty"`
}

// ProfilePoint is one hour of a replay profile.
type ProfilePoint struct {
	// Hour is the hour-of-day label from the profile (0-23)
	Hour int `json:"hour" yaml:"hour"`

	// Rate is the target request rate for this hour
	Rate float64 `json:"rate" yaml:"rate"`
}

// StepResult captures the isolated metrics of one completed step.
//
// Ramp and replay executors reset the metrics engine between steps, so
// each step's snapshot covers only that step's requests.
type StepResult struct {
	// Index is the zero-based step position within the run
	Index int `json:"index"`

	// Hour is the profile hour label (replay only)
	Hour int `json:"hour,omitempty"`

	// TargetRate is the rate this step was paced at
	TargetRate float64 `json:"targetRate"`

	// Duration is how long the step actually took, including drain
	Duration time.Duration `json:"duration"`

	// Metrics is the step-scoped metrics snapshot
	Metrics *metrics.Snapshot `json:"metrics"`

	// SLOViolated is true when the step's P95 exceeded the configured
	// ceiling (ramp only)
	SLOViolated bool `json:"sloViolated,omitempty"`
}

// Stats contains real-time executor statistics.
type Stats struct {
	// Timing
	StartTime     time.Time     `json:"startTime"`
	CurrentTime   time.Time     `json:"currentTime"`
	Elapsed       time.Duration `json:"elapsed"`
	TotalDuration time.Duration `json:"totalDuration"`

	// Worker stats
	ActiveWorkers int `json:"activeWorkers"`
	TargetWorkers int `json:"targetWorkers"`

	// Iteration stats
	Iterations      int64 `json:"iterations"`
	TotalIterations int64 `json:"totalIterations"` // For batch; 0 when open-ended

	// Step info (for stepped executors)
	CurrentStep int `json:"currentStep"`
	TotalSteps  int `json:"totalSteps"`

	// Rate info (for rate-driven executors)
	CurrentRate float64 `json:"currentRate"`
	TargetRate  float64 `json:"targetRate"`
}

// Validate validates the executor configuration.
func (c *Config) Validate() error {
	if c.Type == "" {
		return &ValidationError{Field: "type", Message: "executor type is required"}
	}

	switch c.Type {
	case TypeBatch:
		if c.Total <= 0 {
			return &ValidationError{Field: "total", Message: "total must be > 0"}
		}
		if c.Workers <= 0 {
			return &ValidationError{Field: "workers", Message: "workers must be > 0"}
		}

	case TypeConstantRate:
		if c.Rate <= 0 {
			return &ValidationError{Field: "rate", Message: "rate must be > 0"}
		}
		if c.Duration <= 0 {
			return &ValidationError{Field: "duration", Message: "duration must be > 0"}
		}

	case TypeRampingRate:
		if c.StartRate <= 0 {
			return &ValidationError{Field: "startRate", Message: "startRate must be > 0"}
		}
		if c.StepRate <= 0 {
			return &ValidationError{Field: "stepRate", Message: "stepRate must be > 0"}
		}
		if c.MaxRate < c.StartRate {
			return &ValidationError{Field: "maxRate", Message: "maxRate must be >= startRate"}
		}
		if c.StepDuration <= 0 {
			return &ValidationError{Field: "stepDuration", Message: "stepDuration must be > 0"}
		}

	case TypeReplay:
		if len(c.Profile) == 0 {
			return &ValidationError{Field: "profile", Message: "at least one profile point is required"}
		}
		for _, p := range c.Profile {
			if p.Rate < 0 {
				return &ValidationError{Field: "profile", Message: "profile rates must be >= 0"}
			}
		}
		if c.HourDuration <= 0 {
			return &ValidationError{Field: "hourDuration", Message: "hourDuration must be > 0"}
		}

	default:
		return &ValidationError{Field: "type", Message: "unknown executor type: " + string(c.Type)}
	}

	return nil
}

// RampSteps returns the number of steps a ramping-rate sweep will run
// if no SLO violation stops it early.
func (c *Config) RampSteps() int {
	if c.StepRate <= 0 || c.MaxRate < c.StartRate {
		return 0
	}
	// Small epsilon guards against float accumulation dropping the
	// final step.
	return int((c.MaxRate-c.StartRate+1e-9)/c.StepRate) + 1
}

// TotalDuration calculates the total planned duration for this executor.
//
// Batch runs have no planned duration: they end when the request budget
// is exhausted.
func (c *Config) TotalDuration() time.Duration {
	switch c.Type {
	case TypeConstantRate:
		return c.Duration

	case TypeRampingRate:
		return time.Duration(c.RampSteps()) * c.StepDuration

	case TypeReplay:
		return time.Duration(len(c.Profile)) * c.HourDuration

	default:
		return 0
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error on field '" + e.Field + "': " + e.Message
}
