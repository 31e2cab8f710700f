package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/radload-io/radload/internal/executor"
	"github.com/radload-io/radload/internal/metrics"
)

// thresholdPattern matches expressions like "p95 < 200ms" or
// "rate >= 45".
var thresholdPattern = regexp.MustCompile(`^(\w+)\s*([<>=!]+)\s*(.+)$`)

// Threshold is one parsed SLO expression.
//
// Supported metrics:
//   - min, max, avg, med, p50, p90, p95, p99 - latency, compared
//     against a duration literal like "200ms"
//   - rate - achieved requests per second
//   - count - total requests sent
//
// Supported operators: <, <=, >, >=, ==, =, !=, <>
type Threshold struct {
	// Metric is the metric name from the expression
	Metric string

	// Operator is the comparison operator
	Operator string

	// Expression is the original text, kept for reporting
	Expression string

	value    float64
	duration bool
}

// ThresholdResult is the outcome of evaluating one threshold.
type ThresholdResult struct {
	Metric     string `json:"metric"`
	Expression string `json:"expression"`
	Passed     bool   `json:"passed"`
	Value      string `json:"value"`
	Message    string `json:"message,omitempty"`
}

// ParseThreshold parses an SLO expression.
func ParseThreshold(expr string) (*Threshold, error) {
	matches := thresholdPattern.FindStringSubmatch(strings.TrimSpace(expr))
	if len(matches) != 4 {
		return nil, fmt.Errorf("invalid threshold expression: %q (expected e.g. \"p95 < 200ms\")", expr)
	}

	t := &Threshold{
		Metric:     matches[1],
		Operator:   matches[2],
		Expression: strings.TrimSpace(expr),
	}

	switch t.Operator {
	case "<", "<=", ">", ">=", "==", "=", "!=", "<>":
	default:
		return nil, fmt.Errorf("unknown operator in threshold expression: %q", t.Operator)
	}

	raw := strings.TrimSpace(matches[3])
	switch t.Metric {
	case "min", "max", "avg", "med", "p50", "p90", "p95", "p99":
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid duration in threshold expression %q: %w", expr, err)
		}
		t.value = float64(d)
		t.duration = true
	case "rate", "count":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number in threshold expression %q: %w", expr, err)
		}
		t.value = f
	default:
		return nil, fmt.Errorf("unknown metric in threshold expression: %q", t.Metric)
	}

	return t, nil
}

// Evaluate checks the threshold against one snapshot.
func (t *Threshold) Evaluate(snapshot *metrics.Snapshot) ThresholdResult {
	actual := t.actual(snapshot)
	passed := compareValues(actual, t.Operator, t.value)

	result := ThresholdResult{
		Metric:     t.Metric,
		Expression: t.Expression,
		Passed:     passed,
		Value:      t.format(actual),
	}
	if !passed {
		result.Message = fmt.Sprintf("%s is %s, threshold: %s %s",
			t.Metric, result.Value, t.Operator, t.format(t.value))
	}
	return result
}

// actual extracts the metric's current value from a snapshot.
//
// Latency metrics come back as nanoseconds so they compare directly
// against the parsed duration literal.
func (t *Threshold) actual(s *metrics.Snapshot) float64 {
	switch t.Metric {
	case "min":
		return float64(s.Latency.Min)
	case "max":
		return float64(s.Latency.Max)
	case "avg":
		return float64(s.Latency.Mean)
	case "med", "p50":
		return float64(s.Latency.P50)
	case "p90":
		return float64(s.Latency.P90)
	case "p95":
		return float64(s.Latency.P95)
	case "p99":
		return float64(s.Latency.P99)
	case "rate":
		return s.RPS
	case "count":
		return float64(s.Sent)
	}
	return 0
}

func (t *Threshold) format(v float64) string {
	if t.duration {
		return time.Duration(v).String()
	}
	if t.Metric == "count" {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// compareValues applies a comparison operator to two values.
func compareValues(actual float64, operator string, expected float64) bool {
	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected
	case "==", "=":
		return actual == expected
	case "!=", "<>":
		return actual != expected
	default:
		return false
	}
}

// EvaluateThresholds evaluates every expression against the run's
// metrics.
//
// Single-window runs are judged on the final snapshot. Stepped runs
// are judged per step: an expression passes only when every step
// passes, and a failure reports the first step that broke it.
// Unparseable expressions surface as failed results rather than being
// dropped silently.
func EvaluateThresholds(exprs []string, final *metrics.Snapshot, steps []executor.StepResult) []ThresholdResult {
	if len(exprs) == 0 {
		return nil
	}

	results := make([]ThresholdResult, 0, len(exprs))
	for _, expr := range exprs {
		t, err := ParseThreshold(expr)
		if err != nil {
			results = append(results, ThresholdResult{
				Expression: expr,
				Passed:     false,
				Message:    err.Error(),
			})
			continue
		}

		if len(steps) == 0 {
			results = append(results, t.Evaluate(final))
			continue
		}

		results = append(results, evaluateSteps(t, steps))
	}
	return results
}

func evaluateSteps(t *Threshold, steps []executor.StepResult) ThresholdResult {
	var last ThresholdResult
	for _, step := range steps {
		if step.Metrics == nil {
			continue
		}
		last = t.Evaluate(step.Metrics)
		if !last.Passed {
			last.Message = fmt.Sprintf("step %d: %s", step.Index, last.Message)
			return last
		}
	}
	if last.Expression == "" {
		// No step carried metrics; nothing to judge against.
		last = ThresholdResult{
			Metric:     t.Metric,
			Expression: t.Expression,
			Passed:     true,
			Value:      "n/a",
		}
	}
	return last
}
