// Command generate-sample-report renders the HTML report template with
// fabricated run data, so template changes can be eyeballed without
// driving an actual load run.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/radload-io/radload/internal/engine"
	"github.com/radload-io/radload/internal/executor"
	"github.com/radload-io/radload/internal/metrics"
	"github.com/radload-io/radload/internal/report"
)

func main() {
	result := createSampleRunResult()

	outputPath := "sample-report.html"
	if len(os.Args) > 1 {
		outputPath = os.Args[1]
	}

	err := report.GenerateHTML(result, outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Sample report generated: %s\n", outputPath)
}

func createSampleRunResult() *engine.RunResult {
	now := time.Now()

	return &engine.RunResult{
		ID:        "9f2c1a40-55aa-4d21-8b3c-1d2e4f50a6b7",
		Name:      "Auth Soak - Sample Data",
		Mode:      string(executor.TypeConstantRate),
		StartTime: now.Add(-2 * time.Minute),
		EndTime:   now,
		Duration:  2 * time.Minute,
		Passed:    true,
		Config: &executor.Config{
			Type:     executor.TypeConstantRate,
			Workers:  50,
			Rate:     50,
			Duration: 2 * time.Minute,
		},
		Iterations: 5847,
		Totals: engine.Totals{
			Sent:        5847,
			Succeeded:   5789,
			Failed:      33,
			NoReply:     25,
			SuccessRate: 5789.0 / 5847.0,
		},
		Metrics: &metrics.Snapshot{
			Sent:        5847,
			Succeeded:   5789,
			Failed:      33,
			NoReply:     25,
			SuccessRate: 5789.0 / 5847.0,
			RPS:         48.73,
			Latency: metrics.LatencyStats{
				Min:    8 * time.Millisecond,
				Max:    892 * time.Millisecond,
				Mean:   47 * time.Millisecond,
				StdDev: 38 * time.Millisecond,
				P50:    39 * time.Millisecond,
				P90:    89 * time.Millisecond,
				P95:    124 * time.Millisecond,
				P99:    287 * time.Millisecond,
				Count:  5847,
			},
			Distribution: []metrics.DistributionBucket{
				{Label: "< 10ms", Count: 312},
				{Label: "< 50ms", Count: 3678},
				{Label: "< 100ms", Count: 1320},
				{Label: "< 200ms", Count: 361},
				{Label: "< 500ms", Count: 132},
				{Label: "< 1s", Count: 44},
				{Label: ">= 1s", Count: 0},
			},
			ActiveWorkers: 50,
			CurrentPhase:  metrics.PhaseDone,
		},
		TimeSeries: createSampleTimeSeries(120),
		Thresholds: []engine.ThresholdResult{
			{
				Metric:     "p95",
				Expression: "p95 < 200ms",
				Passed:     true,
				Value:      "124ms",
			},
			{
				Metric:     "p99",
				Expression: "p99 < 500ms",
				Passed:     true,
				Value:      "287ms",
			},
			{
				Metric:     "rate",
				Expression: "rate > 45",
				Passed:     true,
				Value:      "48.73",
			},
		},
	}
}

func createSampleTimeSeries(seconds int) []*metrics.TimeBucket {
	buckets := make([]*metrics.TimeBucket, seconds)
	baseTime := time.Now().Add(-time.Duration(seconds) * time.Second)

	rampUpEnd := 10
	drainStart := seconds - 5

	for i := 0; i < seconds; i++ {
		var phase metrics.Phase
		var workers int
		var rps float64

		if i < rampUpEnd {
			phase = metrics.PhaseRampUp
			progress := float64(i) / float64(rampUpEnd)
			workers = int(progress * 50)
			rps = progress * 50
		} else if i < drainStart {
			phase = metrics.PhaseSteady
			workers = 50
			rps = 48 + float64(i%5) - 2
		} else {
			phase = metrics.PhaseDrain
			progress := float64(seconds-i) / 5.0
			workers = int(progress * 50)
			rps = progress * 20
		}

		if workers < 1 {
			workers = 1
		}
		if rps < 1 {
			rps = 1
		}

		buckets[i] = &metrics.TimeBucket{
			Timestamp:         baseTime.Add(time.Duration(i) * time.Second),
			TotalSent:         int64(float64(i) * 48.7),
			TotalSucceeded:    int64(float64(i) * 48.2),
			TotalFailed:       int64(float64(i) * 0.3),
			TotalNoReply:      int64(float64(i) * 0.2),
			IntervalRequests:  int64(rps),
			IntervalRPS:       rps,
			LatencyMin:        8 * time.Millisecond,
			LatencyMax:        time.Duration(100+i*3) * time.Millisecond,
			LatencyP50:        time.Duration(35+i%10) * time.Millisecond,
			LatencyP90:        time.Duration(80+i%20) * time.Millisecond,
			LatencyP95:        time.Duration(110+i%30) * time.Millisecond,
			LatencyP99:        time.Duration(250+i%50) * time.Millisecond,
			ActiveWorkers:     workers,
			Phase:             phase,
			IntervalErrorRate: 0.01 + float64(i%3)*0.002,
		}
	}

	return buckets
}
