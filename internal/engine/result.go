package engine

import (
	"time"

	"github.com/radload-io/radload/internal/executor"
	"github.com/radload-io/radload/internal/metrics"
)

// RunResult is the complete record of one load run. It is the document
// written to JSON exports and the history store.
type RunResult struct {
	// ID uniquely identifies the run
	ID string `json:"id"`

	// Name is the optional run label
	Name string `json:"name,omitempty"`

	// Mode is the executor type that produced the run
	Mode string `json:"mode"`

	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Duration  time.Duration `json:"duration"`

	// Config echoes the executor configuration the run used
	Config *executor.Config `json:"config"`

	// Iterations is the total number of requests dispatched across
	// the whole run, including every step of stepped modes
	Iterations int64 `json:"iterations"`

	// Totals aggregates outcome counters across the whole run
	Totals Totals `json:"totals"`

	// Metrics is the final snapshot. For stepped modes it covers only
	// the last step's window; Steps carries the isolated windows.
	Metrics *metrics.Snapshot `json:"metrics"`

	// Steps holds per-step results for ramp and replay runs
	Steps []executor.StepResult `json:"steps,omitempty"`

	// TimeSeries is the per-second bucket history
	TimeSeries []*metrics.TimeBucket `json:"timeSeries,omitempty"`

	// Samples holds per-request observations when sample capture was
	// on. They feed the CSV exporter and are deliberately kept out of
	// the JSON document: a large run would bloat every history entry.
	Samples []metrics.Sample `json:"-"`

	// Thresholds holds the SLO evaluation outcomes
	Thresholds []ThresholdResult `json:"thresholds,omitempty"`

	// Passed is true when the run completed without error, every
	// threshold held, and no ramp step violated its ceiling
	Passed bool `json:"passed"`

	// Error is the run error, if any
	Error string `json:"error,omitempty"`
}

// Totals aggregates outcome counters across a whole run.
//
// For single-window runs these equal the final snapshot's counters.
// For stepped runs the metrics engine is reset between steps, so the
// totals are summed across the per-step snapshots instead.
type Totals struct {
	Sent        int64   `json:"sent"`
	Succeeded   int64   `json:"succeeded"`
	Failed      int64   `json:"failed"`
	NoReply     int64   `json:"noReply"`
	SuccessRate float64 `json:"successRate"`
}

func runTotals(final *metrics.Snapshot, steps []executor.StepResult) Totals {
	var t Totals
	if len(steps) == 0 {
		if final == nil {
			return t
		}
		t.Sent = final.Sent
		t.Succeeded = final.Succeeded
		t.Failed = final.Failed
		t.NoReply = final.NoReply
	} else {
		for _, step := range steps {
			if step.Metrics == nil {
				continue
			}
			t.Sent += step.Metrics.Sent
			t.Succeeded += step.Metrics.Succeeded
			t.Failed += step.Metrics.Failed
			t.NoReply += step.Metrics.NoReply
		}
	}
	if t.Sent > 0 {
		t.SuccessRate = float64(t.Succeeded) / float64(t.Sent)
	}
	return t
}
