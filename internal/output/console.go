// Package output renders run progress and results to the terminal.
package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/radload-io/radload/internal/engine"
	"github.com/radload-io/radload/internal/executor"
	"github.com/radload-io/radload/internal/metrics"
)

// ANSI sequences for the live display.
const (
	cursorUp  = "\033[%dA" // Move cursor up N lines
	clearLine = "\033[2K"  // Clear entire line

	// Box drawing characters
	boxHorizontal  = "━"
	boxVertical    = "│"
	boxTopLeft     = "┌"
	boxTopRight    = "┐"
	boxBottomLeft  = "└"
	boxBottomRight = "┘"

	// Progress bar characters
	progressFilled = "█"
	progressEmpty  = "░"
)

// LiveStats contains real-time statistics for display.
type LiveStats struct {
	// Progress tracking
	Progress  float64       // 0.0 to 1.0
	Elapsed   time.Duration // Time elapsed since run start
	Remaining time.Duration // Estimated time remaining

	// Worker stats
	ActiveWorkers int
	TargetWorkers int

	// Request stats
	CurrentRPS float64 // Achieved requests per second
	TargetRPS  float64 // Paced rate; 0 for batch runs
	Sent       int64
	Errors     int64   // failed + no-reply
	ErrorRate  float64 // Errors over Sent (0.0 to 1.0)

	// Latency stats
	LatencyP95 time.Duration
	LatencyAvg time.Duration

	// Step info (ramp and replay)
	CurrentStep int // 1-indexed for display
	TotalSteps  int
}

// Console manages live console output during a run and renders the
// final summary.
type Console struct {
	name    string
	mode    string
	writer  io.Writer
	scheme  *ColorScheme
	noColor bool
	isTTY   bool
	quiet   bool

	// State
	mu          sync.Mutex
	lastStats   *LiveStats
	linesOutput int // Number of lines in the live display
}

// ConsoleConfig contains configuration for Console.
type ConsoleConfig struct {
	Name     string
	Mode     string
	Writer   io.Writer
	Quiet    bool
	NoColor  bool
	ForceTTY bool
}

// NewConsole creates a console output handler.
func NewConsole(config ConsoleConfig) *Console {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}

	scheme := DefaultColorScheme()
	if config.NoColor {
		scheme = NoColorScheme()
	}

	return &Console{
		name:    config.Name,
		mode:    config.Mode,
		writer:  config.Writer,
		scheme:  scheme,
		noColor: config.NoColor,
		isTTY:   config.ForceTTY || isTerminal(config.Writer),
		quiet:   config.Quiet,
	}
}

// isTerminal checks if the writer is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// IsTTY returns whether the output is a terminal.
func (c *Console) IsTTY() bool {
	return c.isTTY
}

// PrintHeader prints the run banner and the mode's start line.
func (c *Console) PrintHeader(cfg *executor.Config) {
	if c.quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	line := strings.Repeat(boxHorizontal, 56)
	title := fmt.Sprintf("%s - Running [%s]", c.name, c.mode)

	c.writeln(c.scheme.Title.Sprint(line))
	c.writeln(c.scheme.Value.Sprint(title))
	c.writeln(c.scheme.Title.Sprint(line))
	c.writeln("")

	if cfg == nil {
		return
	}
	switch cfg.Type {
	case executor.TypeConstantRate:
		c.writeln(fmt.Sprintf("🚀 Starting test: %s RPS for %d seconds with %d workers...",
			formatRate(cfg.Rate), int(cfg.Duration.Seconds()), cfg.Workers))
	case executor.TypeReplay:
		c.writeln(fmt.Sprintf("Starting simulation at %s", time.Now().Format("2006-01-02 15:04:05")))
		c.writeln(strings.Repeat("=", 60))
	}
}

// Update updates the live display with new statistics.
func (c *Console) Update(stats *LiveStats) {
	if c.quiet || !c.isTTY {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastStats = stats
	c.clearLive()

	lines := c.renderLiveStats(stats)
	c.linesOutput = len(lines)

	for _, line := range lines {
		c.writeln(line)
	}
}

// clearLive erases the previous live display. Callers hold c.mu.
func (c *Console) clearLive() {
	if c.linesOutput == 0 {
		return
	}
	c.write(fmt.Sprintf(cursorUp, c.linesOutput))
	for i := 0; i < c.linesOutput; i++ {
		c.write(clearLine)
		if i < c.linesOutput-1 {
			c.write("\n")
		}
	}
	if c.linesOutput > 1 {
		c.write(fmt.Sprintf(cursorUp, c.linesOutput-1))
	}
	c.write("\r")
	c.linesOutput = 0
}

// renderLiveStats renders the live statistics display.
func (c *Console) renderLiveStats(stats *LiveStats) []string {
	var lines []string

	// Progress bar
	progressBar := c.renderProgressBar(stats.Progress, 40)
	progressPercent := fmt.Sprintf("%.0f%%", stats.Progress*100)
	timeInfo := fmt.Sprintf("%s / %s", formatDuration(stats.Elapsed), formatDuration(stats.Elapsed+stats.Remaining))

	lines = append(lines, fmt.Sprintf("Progress: %s %s | %s",
		c.scheme.Success.Sprint(progressBar),
		c.scheme.Value.Sprint(progressPercent),
		c.scheme.Dim.Sprint(timeInfo)))

	// Step info for stepped modes
	if stats.TotalSteps > 0 {
		stepInfo := fmt.Sprintf("%d/%d @ %s RPS", stats.CurrentStep, stats.TotalSteps, formatRate(stats.TargetRPS))
		lines = append(lines, fmt.Sprintf("Step:     %s", c.scheme.Value.Sprint(stepInfo)))
	}
	lines = append(lines, "")

	// Stats box
	boxWidth := 55

	lines = append(lines, c.scheme.Dim.Sprint(boxTopLeft+strings.Repeat(boxHorizontal, boxWidth-2)+boxTopRight))

	workersStr := fmt.Sprintf("Workers: %s / %s",
		c.scheme.Title.Sprintf("%d", stats.ActiveWorkers),
		fmt.Sprintf("%d", stats.TargetWorkers))
	sentStr := fmt.Sprintf("Sent:        %s", c.scheme.Title.Sprint(formatNumber(stats.Sent)))
	lines = append(lines, c.formatBoxRow(workersStr, sentStr, boxWidth))

	rpsStr := fmt.Sprintf("RPS:     %s", c.scheme.Success.Sprintf("%.1f", stats.CurrentRPS))
	errColor := c.scheme.Success
	if stats.ErrorRate > 0.01 {
		errColor = c.scheme.Warning
	}
	if stats.ErrorRate > 0.05 {
		errColor = c.scheme.Error
	}
	errStr := fmt.Sprintf("Errors:      %s (%s)",
		errColor.Sprintf("%d", stats.Errors),
		errColor.Sprintf("%.1f%%", stats.ErrorRate*100))
	lines = append(lines, c.formatBoxRow(rpsStr, errStr, boxWidth))

	p95Str := fmt.Sprintf("P95:     %s", c.scheme.Value.Sprint(formatDurationShort(stats.LatencyP95)))
	avgStr := fmt.Sprintf("Avg:         %s", c.scheme.Value.Sprint(formatDurationShort(stats.LatencyAvg)))
	lines = append(lines, c.formatBoxRow(p95Str, avgStr, boxWidth))

	lines = append(lines, c.scheme.Dim.Sprint(boxBottomLeft+strings.Repeat(boxHorizontal, boxWidth-2)+boxBottomRight))

	return lines
}

// formatBoxRow formats a row inside the stats box with two columns.
func (c *Console) formatBoxRow(left, right string, boxWidth int) string {
	// Account for ANSI codes when calculating padding
	leftVisible := stripANSI(left)
	rightVisible := stripANSI(right)

	colWidth := (boxWidth - 4) / 2 // 4 = 2 borders + 2 padding

	leftPadding := colWidth - len(leftVisible)
	if leftPadding < 0 {
		leftPadding = 0
	}

	rightPadding := colWidth - len(rightVisible)
	if rightPadding < 0 {
		rightPadding = 0
	}

	return fmt.Sprintf("%s %s%s%s %s%s %s",
		c.scheme.Dim.Sprint(boxVertical),
		left, strings.Repeat(" ", leftPadding),
		c.scheme.Dim.Sprint(boxVertical),
		right, strings.Repeat(" ", rightPadding),
		c.scheme.Dim.Sprint(boxVertical))
}

// renderProgressBar renders a progress bar.
func (c *Console) renderProgressBar(progress float64, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	filled := int(progress * float64(width))
	empty := width - filled

	return "[" + strings.Repeat(progressFilled, filled) + strings.Repeat(progressEmpty, empty) + "]"
}

// PrintNonInteractiveUpdate prints a one-line status update.
// Used when output is not a TTY (e.g., piped to a file or CI/CD).
func (c *Console) PrintNonInteractiveUpdate(stats *LiveStats) {
	if c.quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.writeln(fmt.Sprintf("[%s] Progress: %.0f%% | Workers: %d | Sent: %d | RPS: %.1f | Errors: %d (%.1f%%) | P95: %s",
		formatDuration(stats.Elapsed),
		stats.Progress*100,
		stats.ActiveWorkers,
		stats.Sent,
		stats.CurrentRPS,
		stats.Errors,
		stats.ErrorRate*100,
		formatDurationShort(stats.LatencyP95)))
}

// PrintSummary prints the final run summary.
//
// The body is mode-specific: batch runs lead with the one-line elapsed
// time summary, ramp runs print per-step results and the SLO verdict,
// replay runs print per-hour results and the simulation totals.
func (c *Console) PrintSummary(result *engine.RunResult) {
	if c.quiet {
		// In quiet mode, just print passed/failed status
		if result.Passed {
			c.writeln(c.scheme.Success.Sprint("PASSED"))
		} else {
			c.writeln(c.scheme.Error.Sprint("FAILED"))
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isTTY {
		c.clearLive()
	}

	line := strings.Repeat(boxHorizontal, 56)
	status := c.scheme.Success.Sprint("Completed ✓")
	if !result.Passed {
		status = c.scheme.Error.Sprint("Failed ✗")
	}

	name := result.Name
	if name == "" {
		name = c.name
	}

	c.writeln("")
	c.writeln(c.scheme.Title.Sprint(line))
	c.writeln(fmt.Sprintf("%s - %s", c.scheme.Value.Sprint(name), status))
	c.writeln(c.scheme.Title.Sprint(line))
	c.writeln("")

	c.writeln(fmt.Sprintf("Duration:      %s", c.scheme.Title.Sprint(formatDuration(result.Duration))))
	c.writeln(fmt.Sprintf("Total Reqs:    %s", c.scheme.Title.Sprint(formatNumber(result.Totals.Sent))))
	rateColor := c.scheme.successRateColor(result.Totals.SuccessRate)
	c.writeln(fmt.Sprintf("Success Rate:  %s", rateColor.Sprintf("%.1f%%", result.Totals.SuccessRate*100)))

	switch executor.Type(result.Mode) {
	case executor.TypeBatch:
		c.printBatchSummary(result)
	case executor.TypeRampingRate:
		c.printRampSummary(result)
	case executor.TypeReplay:
		c.printReplaySummary(result)
	default:
		c.printStatistics(result.Metrics, result.Duration)
	}

	c.printThresholds(result.Thresholds)
}

// printBatchSummary prints the batch elapsed-time line followed by the
// statistics block.
//
// The summary line reports the configured total and parallelism, not
// the dispatched count: a total that does not divide evenly is
// truncated by the workers, and the line still echoes what was asked
// for.
func (c *Console) printBatchSummary(result *engine.RunResult) {
	var total int64
	var parallel int
	if result.Config != nil {
		total = result.Config.Total
		parallel = result.Config.Workers
	}

	c.writeln("")
	c.writeln(BatchSummaryLine(total, parallel, result.Duration))
	c.printStatistics(result.Metrics, result.Duration)
}

// printRampSummary prints one results block per completed step and the
// sweep verdict.
func (c *Console) printRampSummary(result *engine.RunResult) {
	violated := false
	var sloMillis float64
	if result.Config != nil {
		sloMillis = result.Config.SLOMillis
	}

	for _, step := range result.Steps {
		c.writeln("")
		c.writeln(c.scheme.Title.Sprintf("--- 📋 Results for %s RPS ---", formatRate(step.TargetRate)))
		c.printStatistics(step.Metrics, step.Duration)

		if step.SLOViolated {
			violated = true
			p95 := 0.0
			if step.Metrics != nil {
				p95 = float64(step.Metrics.Latency.P95) / float64(time.Millisecond)
			}
			c.writeln(c.scheme.Error.Sprintf("🚨 SLO VIOLATED! P95 Latency (%.2fms) > SLO (%sms) at %s RPS.",
				p95, formatRate(sloMillis), formatRate(step.TargetRate)))
		}
	}

	c.writeln("")
	if violated {
		c.writeln(c.scheme.Warning.Sprint("--- 🏁 Ramping Test Stopped ---"))
	} else {
		c.writeln(c.scheme.Success.Sprint("--- ✅ Ramping Test Completed without violating SLO ---"))
	}
}

// printReplaySummary prints per-hour results and the simulation totals.
func (c *Console) printReplaySummary(result *engine.RunResult) {
	for _, step := range result.Steps {
		c.writeln("")
		c.writeln(fmt.Sprintf("Hour %02d: RPS=%s", step.Hour, formatRate(step.TargetRate)))

		m := step.Metrics
		if m == nil {
			continue
		}
		c.writeln(fmt.Sprintf("  Sent: %d, Success: %d, Failed: %d, Timeout: %d",
			m.Sent, m.Succeeded, m.Failed, m.NoReply))
		c.writeln(fmt.Sprintf("  Success Rate: %.1f%%, P95: %.1fms, P99: %.1fms",
			m.SuccessRate*100,
			float64(m.Latency.P95)/float64(time.Millisecond),
			float64(m.Latency.P99)/float64(time.Millisecond)))
	}

	c.writeln("")
	c.writeln(strings.Repeat("=", 60))
	c.writeln(c.scheme.Value.Sprint("SIMULATION SUMMARY"))
	c.writeln(fmt.Sprintf("Total Requests: %d", result.Totals.Sent))
	c.writeln(fmt.Sprintf("Total Succeeded: %d", result.Totals.Succeeded))
	c.writeln(fmt.Sprintf("Total Failed: %d", result.Totals.Failed))
	c.writeln(fmt.Sprintf("Total Timeout: %d", result.Totals.NoReply))
	if result.Totals.Sent > 0 {
		c.writeln(fmt.Sprintf("Overall Success Rate: %.2f%%", result.Totals.SuccessRate*100))
	}
}

// printStatistics prints the statistics block for one metrics window.
func (c *Console) printStatistics(m *metrics.Snapshot, totalTime time.Duration) {
	if m == nil {
		return
	}

	c.writeln("")
	c.writeln(c.scheme.Title.Sprint("--- 📊 Test Statistics ---"))
	if totalTime > 0 {
		c.writeln(fmt.Sprintf("    - Actual RPS        : %.2f", float64(m.Sent)/totalTime.Seconds()))
	}
	c.writeln(fmt.Sprintf("    - Total Sent        : %d", m.Sent))
	c.writeln(fmt.Sprintf("    - Succeeded         : %d", m.Succeeded))
	c.writeln(fmt.Sprintf("    - Failed            : %d", m.Failed))
	c.writeln(fmt.Sprintf("    - No Reply (Timeout): %d", m.NoReply))
	c.writeln(fmt.Sprintf("    - Total Time        : %.2f s", totalTime.Seconds()))

	c.writeln("")
	c.writeln(c.scheme.Title.Sprint("--- ⏱️ Response Time Distribution ---"))
	for _, bucket := range m.Distribution {
		percentage := 0.0
		if m.Sent > 0 {
			percentage = float64(bucket.Count) / float64(m.Sent) * 100
		}
		c.writeln(fmt.Sprintf("    - %-10s: %-6d (%.2f%%)", bucket.Label, bucket.Count, percentage))
	}

	if m.Latency.Count > 0 {
		c.writeln("")
		c.writeln(c.scheme.Title.Sprint("--- 📈 Percentile Latencies ---"))
		c.writeln(fmt.Sprintf("    - P95 Latency       : %.2f ms", float64(m.Latency.P95)/float64(time.Millisecond)))
		c.writeln(fmt.Sprintf("    - P99 Latency       : %.2f ms", float64(m.Latency.P99)/float64(time.Millisecond)))
	}

	c.writeln(strings.Repeat("-", 25))
}

// printThresholds prints one verdict row per threshold.
func (c *Console) printThresholds(thresholds []engine.ThresholdResult) {
	if len(thresholds) == 0 {
		return
	}

	c.writeln("")
	c.writeln(c.scheme.Value.Sprint("Thresholds:"))
	for _, t := range thresholds {
		icon := PassIcon(c.noColor)
		if !t.Passed {
			icon = FailIcon(c.noColor)
		}
		row := fmt.Sprintf("  %s %s (actual: %s)", icon, t.Expression, t.Value)
		if !t.Passed && t.Message != "" {
			row = fmt.Sprintf("  %s %s (actual: %s) - %s", icon, t.Expression, t.Value, t.Message)
		}
		c.writeln(row)
	}
	c.writeln("")
}

// PrintSavedFiles reports where exports were written.
func (c *Console) PrintSavedFiles(paths ...string) {
	if c.quiet || len(paths) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(paths) == 1 {
		c.writeln(fmt.Sprintf("Results saved to %s", paths[0]))
		return
	}

	c.writeln("")
	c.writeln("Results saved to:")
	for _, p := range paths {
		c.writeln(fmt.Sprintf("  - %s", p))
	}
}

// PrintError reports a run-level failure.
func (c *Console) PrintError(err error) {
	if err == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.writeln(c.scheme.Error.Sprintf("Error: %v", err))
}

// BatchSummaryLine renders the batch mode summary line.
func BatchSummaryLine(total int64, parallel int, elapsed time.Duration) string {
	return fmt.Sprintf("Total time for %d radclient requests with %d parallel clients: %d seconds",
		total, parallel, int(elapsed.Seconds()))
}

// write writes to the output without a newline.
func (c *Console) write(s string) {
	fmt.Fprint(c.writer, s)
}

// writeln writes to the output with a newline.
func (c *Console) writeln(s string) {
	fmt.Fprintln(c.writer, s)
}

// Helper functions

// formatRate renders a rate without trailing zeros, so whole-number
// rates print the way they were configured.
func formatRate(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// formatDuration formats a duration in a human-readable format.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %02ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
}

// formatDurationShort formats a duration in a short format.
func formatDurationShort(d time.Duration) string {
	if d < time.Microsecond {
		return "0ms"
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}

// formatNumber formats a number with thousands separators.
func formatNumber(n int64) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	offset := len(str) % 3
	if offset > 0 {
		result.WriteString(str[:offset])
	}
	for i := offset; i < len(str); i += 3 {
		if result.Len() > 0 {
			result.WriteString(",")
		}
		result.WriteString(str[i : i+3])
	}
	return result.String()
}

// stripANSI removes ANSI escape codes from a string.
func stripANSI(s string) string {
	var result strings.Builder
	inEscape := false

	for i := 0; i < len(s); i++ {
		if s[i] == '\033' {
			inEscape = true
			continue
		}
		if inEscape {
			if (s[i] >= 'a' && s[i] <= 'z') || (s[i] >= 'A' && s[i] <= 'Z') {
				inEscape = false
			}
			continue
		}
		result.WriteByte(s[i])
	}

	return result.String()
}

// StatsFromSnapshot builds LiveStats from a metrics snapshot and the
// executor's live statistics.
func StatsFromSnapshot(snapshot *metrics.Snapshot, progress float64, execStats *executor.Stats) *LiveStats {
	stats := &LiveStats{Progress: progress}

	if execStats != nil {
		stats.TargetWorkers = execStats.TargetWorkers
		stats.TargetRPS = execStats.TargetRate
		stats.CurrentStep = execStats.CurrentStep + 1
		stats.TotalSteps = execStats.TotalSteps
		stats.Elapsed = execStats.Elapsed

		if execStats.TotalDuration > 0 {
			remaining := execStats.TotalDuration - execStats.Elapsed
			if remaining > 0 {
				stats.Remaining = remaining
			}
		} else if progress > 0 && progress < 1 {
			stats.Remaining = time.Duration(float64(execStats.Elapsed) * (1 - progress) / progress)
		}
	}

	if snapshot == nil {
		return stats
	}

	errors := snapshot.Failed + snapshot.NoReply
	errorRate := 0.0
	if snapshot.Sent > 0 {
		errorRate = float64(errors) / float64(snapshot.Sent)
	}

	stats.ActiveWorkers = snapshot.ActiveWorkers
	stats.CurrentRPS = snapshot.RPS
	stats.Sent = snapshot.Sent
	stats.Errors = errors
	stats.ErrorRate = errorRate
	stats.LatencyP95 = snapshot.Latency.P95
	stats.LatencyAvg = snapshot.Latency.Mean

	return stats
}
