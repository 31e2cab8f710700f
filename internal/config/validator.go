package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a scenario validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate validates the scenario semantically.
//
// Returns nil if valid, or a ValidationErrors containing all problems
// found, not just the first.
func (s *Scenario) Validate() error {
	errs := &ValidationErrors{}

	validModes := map[Mode]bool{
		ModeBatch:  true,
		ModeRun:    true,
		ModeRamp:   true,
		ModeReplay: true,
	}

	if s.Mode == "" {
		errs.Add("mode", "mode is required")
	} else if !validModes[s.Mode] {
		errs.Add("mode", fmt.Sprintf("unknown mode: %s", s.Mode))
	}

	validateTarget(&s.Target, errs)
	validateClient(&s.Client, errs)

	// Mode-specific validation
	switch s.Mode {
	case ModeBatch:
		validateBatch(s, errs)
	case ModeRun:
		validateRun(s, errs)
	case ModeRamp:
		validateRamp(s, errs)
	case ModeReplay:
		validateReplay(s, errs)
	}

	for i, expr := range s.SLOs {
		if err := validateSLOExpression(expr); err != nil {
			errs.Add(fmt.Sprintf("slos[%d]", i), err.Error())
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// validateTarget validates the RADIUS server settings.
func validateTarget(t *TargetConfig, errs *ValidationErrors) {
	if t.Server == "" {
		errs.Add("target.server", "server is required")
	}
	if t.Port < 1 || t.Port > 65535 {
		errs.Add("target.port", "port must be between 1 and 65535")
	}
	if t.Secret == "" {
		errs.Add("target.secret", "secret is required")
	}
}

// validateClient validates the external client tool settings.
func validateClient(c *ClientConfig, errs *ValidationErrors) {
	if c.Binary == "" {
		errs.Add("client.binary", "binary is required")
	}
	if c.Timeout.GetDuration(0) <= 0 {
		errs.Add("client.timeout", "timeout must be greater than 0")
	}
	if c.Retries < 0 {
		errs.Add("client.retries", "retries cannot be negative")
	}
}

// validateBatch validates batch-mode parameters.
func validateBatch(s *Scenario, errs *ValidationErrors) {
	if s.Batch == nil {
		errs.Add("batch", "batch settings are required for batch mode")
		return
	}
	if s.Batch.Total <= 0 {
		errs.Add("batch.total", "total must be greater than 0")
	}
	if s.Batch.Parallel <= 0 {
		errs.Add("batch.parallel", "parallel must be greater than 0")
	}
}

// validateRun validates run-mode parameters.
func validateRun(s *Scenario, errs *ValidationErrors) {
	if s.Rate <= 0 {
		errs.Add("rate", "rate must be greater than 0 for run mode")
	}
	if s.Duration.GetDuration(0) <= 0 {
		errs.Add("duration", "duration is required for run mode")
	}
	if s.Workers <= 0 {
		errs.Add("workers", "workers must be greater than 0")
	}
}

// validateRamp validates ramp-mode parameters.
func validateRamp(s *Scenario, errs *ValidationErrors) {
	if s.Workers <= 0 {
		errs.Add("workers", "workers must be greater than 0")
	}
	if s.Ramp == nil {
		errs.Add("ramp", "ramp settings are required for ramp mode")
		return
	}
	if s.Ramp.StartRate <= 0 {
		errs.Add("ramp.startRps", "startRps must be greater than 0")
	}
	if s.Ramp.StepRate <= 0 {
		errs.Add("ramp.stepRps", "stepRps must be greater than 0")
	}
	if s.Ramp.MaxRate < s.Ramp.StartRate {
		errs.Add("ramp.maxRps", "maxRps must be greater than or equal to startRps")
	}
	if s.Ramp.StepDuration.GetDuration(0) <= 0 {
		errs.Add("ramp.stepDuration", "stepDuration must be greater than 0")
	}
	if s.Ramp.SLOMillis <= 0 {
		errs.Add("ramp.sloMs", "sloMs must be greater than 0")
	}
}

// validateReplay validates replay-mode parameters.
func validateReplay(s *Scenario, errs *ValidationErrors) {
	if s.Workers <= 0 {
		errs.Add("workers", "workers must be greater than 0")
	}
	if s.Replay == nil {
		errs.Add("replay", "replay settings are required for replay mode")
		return
	}
	if s.Replay.Profile == "" {
		errs.Add("replay.profile", "profile path is required for replay mode")
	}
	if s.Replay.HourDuration.GetDuration(0) <= 0 {
		errs.Add("replay.hourDuration", "hourDuration must be greater than 0")
	}
	if s.Replay.Hours < 0 {
		errs.Add("replay.hours", "hours cannot be negative")
	}
}

// validateSLOExpression validates a threshold expression's shape.
//
// Valid formats:
//   - "p95 < 200ms"
//   - "avg < 50ms"
//   - "rate > 90"
//   - "count >= 1000"
func validateSLOExpression(expr string) error {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return fmt.Errorf("threshold expression cannot be empty")
	}

	// Valid metrics
	validMetrics := []string{"p50", "p90", "p95", "p99", "min", "max", "avg", "med", "rate", "count"}

	// Valid operators
	validOps := []string{"<", ">", "<=", ">=", "==", "!="}

	// Check if expression starts with a valid metric
	found := false
	for _, metric := range validMetrics {
		if strings.HasPrefix(expr, metric) {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("threshold must start with a valid metric (p50, p90, p95, p99, min, max, avg, med, rate, count)")
	}

	// Check for valid operator
	hasOp := false
	for _, op := range validOps {
		if strings.Contains(expr, op) {
			hasOp = true
			break
		}
	}
	if !hasOp {
		return fmt.Errorf("threshold must contain a comparison operator (<, >, <=, >=, ==, !=)")
	}

	return nil
}
