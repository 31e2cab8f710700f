// Package config provides scenario file parsing and validation for radload.
package config

import (
	"fmt"
	"time"
)

// Mode identifies the load generation strategy a scenario runs.
type Mode string

const (
	// ModeBatch splits a fixed request total across parallel workers.
	ModeBatch Mode = "batch"

	// ModeRun dispatches at a constant rate for a fixed duration.
	ModeRun Mode = "run"

	// ModeRamp sweeps the rate upward in steps until an SLO breaks.
	ModeRamp Mode = "ramp"

	// ModeReplay replays an hourly rate profile, compressed in time.
	ModeReplay Mode = "replay"
)

// Scenario is the root configuration for a single radload run.
//
// Example YAML:
//
//	name: "Nightly auth soak"
//	mode: run
//	target:
//	  server: radius.example.com
//	  port: 1812
//	  secret: ${RADIUS_SECRET}
//	client:
//	  binary: radclient
//	  timeout: 5s
//	  retries: 2
//	workers: 50
//	rate: 100
//	duration: 10m
//	slos:
//	  - "p95 < 200ms"
//	outputs:
//	  json: results/soak.json
type Scenario struct {
	// Name of the scenario (for reporting)
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Mode selects the load strategy: batch, run, ramp, or replay
	Mode Mode `json:"mode" yaml:"mode"`

	// Target is the RADIUS server under test
	Target TargetConfig `json:"target,omitempty" yaml:"target,omitempty"`

	// Client configures the external RADIUS client tool
	Client ClientConfig `json:"client,omitempty" yaml:"client,omitempty"`

	// Workers is the dispatch pool size for the rate-driven modes
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`

	// Rate is the target requests per second (run mode)
	Rate float64 `json:"rate,omitempty" yaml:"rate,omitempty"`

	// Duration is how long to hold the rate (run mode)
	Duration Duration `json:"duration,omitempty" yaml:"duration,omitempty"`

	// Batch holds batch-mode parameters
	Batch *BatchConfig `json:"batch,omitempty" yaml:"batch,omitempty"`

	// Ramp holds ramp-mode parameters
	Ramp *RampConfig `json:"ramp,omitempty" yaml:"ramp,omitempty"`

	// Replay holds replay-mode parameters
	Replay *ReplayConfig `json:"replay,omitempty" yaml:"replay,omitempty"`

	// SLOs are pass/fail expressions evaluated against the final
	// metrics snapshot, e.g. "p95 < 200ms" or "rate > 90"
	SLOs []string `json:"slos,omitempty" yaml:"slos,omitempty"`

	// Outputs names the export files to write after the run
	Outputs OutputConfig `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// TargetConfig identifies the RADIUS server under test.
type TargetConfig struct {
	// Server is the hostname or IP of the RADIUS server
	Server string `json:"server,omitempty" yaml:"server,omitempty"`

	// Port is the authentication port
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// Secret is the shared secret
	Secret string `json:"secret,omitempty" yaml:"secret,omitempty"`
}

// ClientConfig configures the external RADIUS client tool.
type ClientConfig struct {
	// Binary is the client executable to invoke
	Binary string `json:"binary,omitempty" yaml:"binary,omitempty"`

	// Timeout is passed through to the tool's per-request timeout
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// Retries is passed through to the tool's retry count
	Retries int `json:"retries,omitempty" yaml:"retries,omitempty"`
}

// BatchConfig holds batch-mode parameters.
type BatchConfig struct {
	// Total is the number of requests to split across workers
	Total int64 `json:"total,omitempty" yaml:"total,omitempty"`

	// Parallel is the number of concurrent workers
	Parallel int `json:"parallel,omitempty" yaml:"parallel,omitempty"`
}

// RampConfig holds ramp-mode parameters.
type RampConfig struct {
	// StartRate is the first step's requests per second
	StartRate float64 `json:"startRps,omitempty" yaml:"startRps,omitempty"`

	// StepRate is the rate increase between steps
	StepRate float64 `json:"stepRps,omitempty" yaml:"stepRps,omitempty"`

	// MaxRate is the highest step attempted
	MaxRate float64 `json:"maxRps,omitempty" yaml:"maxRps,omitempty"`

	// StepDuration is how long each step holds its rate
	StepDuration Duration `json:"stepDuration,omitempty" yaml:"stepDuration,omitempty"`

	// SLOMillis is the P95 latency ceiling in milliseconds; the
	// sweep stops at the first step whose P95 exceeds it
	SLOMillis float64 `json:"sloMs,omitempty" yaml:"sloMs,omitempty"`
}

// ReplayConfig holds replay-mode parameters.
type ReplayConfig struct {
	// Profile is the path to the hourly rate CSV
	Profile string `json:"profile,omitempty" yaml:"profile,omitempty"`

	// HourDuration is the compressed wall-clock window per profile hour
	HourDuration Duration `json:"hourDuration,omitempty" yaml:"hourDuration,omitempty"`

	// Hours limits the replay to the first N profile rows (0 = all)
	Hours int `json:"hours,omitempty" yaml:"hours,omitempty"`
}

// OutputConfig names the export files written after a run.
type OutputConfig struct {
	// CSV is the per-request (or per-hour, in replay mode) export path
	CSV string `json:"csv,omitempty" yaml:"csv,omitempty"`

	// JSON is the full result document export path
	JSON string `json:"json,omitempty" yaml:"json,omitempty"`

	// HTML is the report page export path
	HTML string `json:"html,omitempty" yaml:"html,omitempty"`

	// Log is the structured run log path
	Log string `json:"log,omitempty" yaml:"log,omitempty"`
}

// Duration is a time.Duration that can be unmarshaled from JSON/YAML
// strings ("30s", "2m") or bare numbers (seconds).
type Duration time.Duration

// ParseDurationString parses a duration string with support for common formats.
//
// Supported formats:
//   - Standard Go duration: "30s", "2m", "1h30m", "500ms"
//   - Seconds as integer: "30" (treated as 30 seconds)
//
// Returns the parsed duration or an error.
func ParseDurationString(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	// Try standard Go duration parsing first
	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}

	// Try parsing as integer seconds
	var seconds int
	if _, err := fmt.Sscanf(s, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}

	return 0, fmt.Errorf("invalid duration format: %s", s)
}

// GetDuration returns the duration or a default if empty.
func (d Duration) GetDuration(defaultValue time.Duration) time.Duration {
	if d == 0 {
		return defaultValue
	}
	return time.Duration(d)
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	// Remove quotes if present
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	if s == "" || s == "null" {
		*d = 0
		return nil
	}

	dur, err := ParseDurationString(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		// Bare numbers are read as seconds
		var seconds float64
		if numErr := unmarshal(&seconds); numErr != nil {
			return err
		}
		*d = Duration(time.Duration(seconds * float64(time.Second)))
		return nil
	}

	if s == "" {
		*d = 0
		return nil
	}

	dur, err := ParseDurationString(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// String returns the duration as a string.
func (d Duration) String() string {
	return time.Duration(d).String()
}
