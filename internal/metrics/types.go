package metrics

import (
	"time"

	"github.com/radload-io/radload/internal/radius"
)

// Phase represents a phase of the load run.
type Phase string

const (
	// PhaseInit is the initialization phase before dispatch starts
	PhaseInit Phase = "init"

	// PhaseRampUp is active while the target rate is increasing
	PhaseRampUp Phase = "ramp-up"

	// PhaseSteady is the steady-state phase at the target rate
	PhaseSteady Phase = "steady"

	// PhaseRampDown is active while the target rate is decreasing
	PhaseRampDown Phase = "ramp-down"

	// PhaseDrain is the period after dispatch stops while queued
	// requests finish
	PhaseDrain Phase = "drain"

	// PhaseDone indicates the run has completed
	PhaseDone Phase = "done"
)

// Snapshot contains a point-in-time view of all metrics.
type Snapshot struct {
	// Outcome counters. Sent is always the sum of the other three.
	Sent      int64 `json:"sent"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	NoReply   int64 `json:"noReply"`

	// SuccessRate is the fraction of sent requests that succeeded
	// (0.0 to 1.0)
	SuccessRate float64 `json:"successRate"`

	// Latency contains latency statistics
	Latency LatencyStats `json:"latency"`

	// RPS is the achieved rate: sent divided by elapsed time
	RPS float64 `json:"rps"`

	// Distribution is the latency histogram table, one row per band
	Distribution []DistributionBucket `json:"distribution"`

	// ActiveWorkers is the current number of dispatch workers
	ActiveWorkers int `json:"activeWorkers"`

	// CurrentPhase is the current run phase
	CurrentPhase Phase `json:"currentPhase"`

	// Elapsed is the time elapsed since the run (or step) started
	Elapsed time.Duration `json:"elapsed"`

	// StartTime is when the run (or step) started
	StartTime time.Time `json:"startTime"`

	// Timestamp is when this snapshot was taken
	Timestamp time.Time `json:"timestamp"`
}

// LatencyStats contains latency statistics.
type LatencyStats struct {
	Min    time.Duration `json:"min"`
	Max    time.Duration `json:"max"`
	Mean   time.Duration `json:"mean"`
	StdDev time.Duration `json:"stdDev"`
	P50    time.Duration `json:"p50"`
	P90    time.Duration `json:"p90"`
	P95    time.Duration `json:"p95"`
	P99    time.Duration `json:"p99"`
	Count  int64         `json:"count"`
}

// LatencyPercentiles holds latency percentile values.
type LatencyPercentiles struct {
	Min time.Duration
	Max time.Duration
	P50 time.Duration
	P90 time.Duration
	P95 time.Duration
	P99 time.Duration
}

// DistributionBucket is one row of the latency distribution table.
type DistributionBucket struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// Sample is a single request observation retained for per-request export.
//
// Start is the offset from the engine start time rather than an absolute
// timestamp, so exported rows stay comparable across runs.
type Sample struct {
	ID      int64
	Status  radius.Status
	Start   time.Duration
	Latency time.Duration
}

// TimeBucket represents metrics for a 1-second interval.
//
// Each bucket captures both cumulative totals and interval-specific
// deltas, giving a continuous time series even when no requests
// complete during an interval.
type TimeBucket struct {
	// Timestamp when this bucket was created
	Timestamp time.Time `json:"timestamp"`

	// Cumulative counters (total since run start)
	TotalSent      int64 `json:"totalSent"`
	TotalSucceeded int64 `json:"totalSucceeded"`
	TotalFailed    int64 `json:"totalFailed"`
	TotalNoReply   int64 `json:"totalNoReply"`

	// Interval metrics (for this bucket only)
	IntervalRequests int64   `json:"intervalRequests"`
	IntervalRPS      float64 `json:"intervalRPS"`

	// Latency percentiles at this point in time
	LatencyMin time.Duration `json:"latencyMin"`
	LatencyMax time.Duration `json:"latencyMax"`
	LatencyP50 time.Duration `json:"latencyP50"`
	LatencyP90 time.Duration `json:"latencyP90"`
	LatencyP95 time.Duration `json:"latencyP95"`
	LatencyP99 time.Duration `json:"latencyP99"`

	// Active state
	ActiveWorkers int   `json:"activeWorkers"`
	Phase         Phase `json:"phase"`

	// Error rate for this interval (failed + no reply over sent)
	IntervalErrorRate float64 `json:"intervalErrorRate"`
}

// PhaseChange records when a phase transition occurred.
type PhaseChange struct {
	// Phase is the phase that was entered
	Phase Phase

	// Timestamp is when the phase change occurred
	Timestamp time.Time

	// Requests is the total sent count at the time of the change
	Requests int64
}

// EngineConfig contains configuration for the metrics engine.
type EngineConfig struct {
	// BucketInterval is the interval for time-series buckets (default: 1s)
	BucketInterval time.Duration

	// MaxBuckets is the maximum number of buckets to retain (default: 3600)
	MaxBuckets int

	// HistogramMin is the minimum recordable value in microseconds
	// (default: 1)
	HistogramMin int64

	// HistogramMax is the maximum recordable value in microseconds
	// (default: 3600000000 = 1 hour)
	HistogramMax int64

	// HistogramSigFigs is the number of significant figures (default: 3)
	HistogramSigFigs int

	// RecordSamples enables per-request sample capture for CSV export.
	// Off by default: a long soak at high rate would otherwise hold
	// every observation in memory.
	RecordSamples bool
}

// DefaultEngineConfig returns the default configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		BucketInterval:   time.Second,
		MaxBuckets:       3600,
		HistogramMin:     1,
		HistogramMax:     3600000000, // 1 hour in microseconds
		HistogramSigFigs: 3,
	}
}
