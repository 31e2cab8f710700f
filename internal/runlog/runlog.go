// Package runlog writes the structured run log: one JSON line per
// event, suitable for tailing during long runs and for post-hoc
// analysis.
package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/radload-io/radload/internal/engine"
	"github.com/radload-io/radload/internal/executor"
)

// Log records run lifecycle events to a file.
type Log struct {
	logger zerolog.Logger
	file   *os.File
}

// Open returns a log appending to path. An empty path returns a
// disabled log whose methods are no-ops, so callers never have to
// branch on whether logging was requested.
func Open(path string) (*Log, error) {
	if path == "" {
		return &Log{logger: zerolog.Nop()}, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}

	return &Log{
		logger: zerolog.New(f).With().Timestamp().Logger(),
		file:   f,
	}, nil
}

// Close flushes and closes the log file.
func (l *Log) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// RunStarted records the beginning of a run.
func (l *Log) RunStarted(name string, cfg *executor.Config) {
	ev := l.logger.Info().
		Str("event", "run_started").
		Str("mode", string(cfg.Type))
	if name != "" {
		ev = ev.Str("name", name)
	}

	switch cfg.Type {
	case executor.TypeBatch:
		ev = ev.Int64("total", cfg.Total).Int("workers", cfg.Workers)
	case executor.TypeConstantRate:
		ev = ev.Float64("rate", cfg.Rate).Dur("duration", cfg.Duration).Int("workers", cfg.Workers)
	case executor.TypeRampingRate:
		ev = ev.Float64("startRps", cfg.StartRate).
			Float64("stepRps", cfg.StepRate).
			Float64("maxRps", cfg.MaxRate).
			Dur("stepDuration", cfg.StepDuration).
			Float64("sloMs", cfg.SLOMillis)
	case executor.TypeReplay:
		ev = ev.Int("hours", len(cfg.Profile)).Dur("hourDuration", cfg.HourDuration)
	}

	ev.Msg("run started")
}

// StepCompleted records one finished ramp step or replay hour.
func (l *Log) StepCompleted(step executor.StepResult) {
	ev := l.logger.Info().
		Str("event", "step_completed").
		Int("step", step.Index).
		Int("hour", step.Hour).
		Float64("targetRps", step.TargetRate).
		Dur("duration", step.Duration)

	if m := step.Metrics; m != nil {
		ev = ev.Int64("sent", m.Sent).
			Int64("succeeded", m.Succeeded).
			Int64("failed", m.Failed).
			Int64("noReply", m.NoReply).
			Float64("actualRps", m.RPS).
			Float64("p95Ms", float64(m.Latency.P95)/float64(time.Millisecond)).
			Float64("p99Ms", float64(m.Latency.P99)/float64(time.Millisecond))
	}

	ev.Msg("step completed")

	if step.SLOViolated {
		l.logger.Warn().
			Str("event", "slo_violated").
			Int("step", step.Index).
			Float64("targetRps", step.TargetRate).
			Msg("step exceeded the latency ceiling")
	}
}

// ThresholdFailed records one broken SLO expression.
func (l *Log) ThresholdFailed(tr engine.ThresholdResult) {
	l.logger.Warn().
		Str("event", "threshold_failed").
		Str("expression", tr.Expression).
		Str("value", tr.Value).
		Msg(tr.Message)
}

// RunCompleted records the end of a run.
func (l *Log) RunCompleted(result *engine.RunResult) {
	ev := l.logger.Info()
	if result.Error != "" {
		ev = l.logger.Error().Str("error", result.Error)
	}

	ev.Str("event", "run_completed").
		Str("id", result.ID).
		Bool("passed", result.Passed).
		Dur("duration", result.Duration).
		Int64("sent", result.Totals.Sent).
		Int64("succeeded", result.Totals.Succeeded).
		Int64("failed", result.Totals.Failed).
		Int64("noReply", result.Totals.NoReply).
		Float64("successRate", result.Totals.SuccessRate).
		Msg("run completed")
}
