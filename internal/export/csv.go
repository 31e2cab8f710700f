// Package export writes run results to CSV and JSON files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/radload-io/radload/internal/executor"
	"github.com/radload-io/radload/internal/metrics"
)

// requestHeader matches the historical per-request export format.
var requestHeader = []string{"pkt_id", "status", "start_time", "duration"}

// hourlyHeader matches the historical per-hour replay export format.
var hourlyHeader = []string{
	"hour", "target_rps", "actual_rps", "sent", "succeeded", "failed",
	"timeout", "success_rate", "p95_ms", "p99_ms",
}

// RequestsCSV writes one row per request, ordered by packet ID.
// Start offsets and durations are in seconds with microsecond
// precision.
func RequestsCSV(w io.Writer, samples []metrics.Sample) error {
	ordered := make([]metrics.Sample, len(samples))
	copy(ordered, samples)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	cw := csv.NewWriter(w)
	if err := cw.Write(requestHeader); err != nil {
		return err
	}

	for _, s := range ordered {
		record := []string{
			strconv.FormatInt(s.ID, 10),
			string(s.Status),
			strconv.FormatFloat(s.Start.Seconds(), 'f', 6, 64),
			strconv.FormatFloat(s.Latency.Seconds(), 'f', 6, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// HourlyCSV writes one row per replay hour.
//
// success_rate is a percentage and the latency columns are
// milliseconds, both to one decimal, matching the rows the simulation
// has always produced.
func HourlyCSV(w io.Writer, steps []executor.StepResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(hourlyHeader); err != nil {
		return err
	}

	for _, step := range steps {
		m := step.Metrics
		if m == nil {
			continue
		}

		record := []string{
			strconv.Itoa(step.Hour),
			strconv.FormatFloat(step.TargetRate, 'f', -1, 64),
			fmt.Sprintf("%.1f", m.RPS),
			strconv.FormatInt(m.Sent, 10),
			strconv.FormatInt(m.Succeeded, 10),
			strconv.FormatInt(m.Failed, 10),
			strconv.FormatInt(m.NoReply, 10),
			fmt.Sprintf("%.1f", m.SuccessRate*100),
			fmt.Sprintf("%.1f", float64(m.Latency.P95)/float64(time.Millisecond)),
			fmt.Sprintf("%.1f", float64(m.Latency.P99)/float64(time.Millisecond)),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteRequestsCSV writes the per-request export to path, creating
// parent directories as needed.
func WriteRequestsCSV(path string, samples []metrics.Sample) error {
	return writeFile(path, func(w io.Writer) error {
		return RequestsCSV(w, samples)
	})
}

// WriteHourlyCSV writes the per-hour export to path, creating parent
// directories as needed.
func WriteHourlyCSV(path string, steps []executor.StepResult) error {
	return writeFile(path, func(w io.Writer) error {
		return HourlyCSV(w, steps)
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
