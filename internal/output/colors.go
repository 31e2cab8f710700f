package output

import (
	"github.com/fatih/color"
)

// ColorScheme holds the colors used by the console renderer. Keeping them in
// one place means a single switch turns every ANSI sequence off at once.
type ColorScheme struct {
	Title   *color.Color
	Label   *color.Color
	Value   *color.Color
	Success *color.Color
	Warning *color.Color
	Error   *color.Color
	Dim     *color.Color
}

// DefaultColorScheme returns the scheme used for interactive terminals.
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Title:   color.New(color.FgCyan, color.Bold),
		Label:   color.New(color.FgWhite),
		Value:   color.New(color.FgHiWhite, color.Bold),
		Success: color.New(color.FgGreen, color.Bold),
		Warning: color.New(color.FgYellow, color.Bold),
		Error:   color.New(color.FgRed, color.Bold),
		Dim:     color.New(color.FgHiBlack),
	}
}

// NoColorScheme returns a scheme with every color disabled, for pipes and
// --no-color runs.
func NoColorScheme() *ColorScheme {
	scheme := &ColorScheme{
		Title:   color.New(),
		Label:   color.New(),
		Value:   color.New(),
		Success: color.New(),
		Warning: color.New(),
		Error:   color.New(),
		Dim:     color.New(),
	}
	scheme.Title.DisableColor()
	scheme.Label.DisableColor()
	scheme.Value.DisableColor()
	scheme.Success.DisableColor()
	scheme.Warning.DisableColor()
	scheme.Error.DisableColor()
	scheme.Dim.DisableColor()
	return scheme
}

// successRateColor picks the color band for a success rate in [0, 1]:
// green at 99% and above, yellow at 95%, red below that.
func (cs *ColorScheme) successRateColor(rate float64) *color.Color {
	switch {
	case rate >= 0.99:
		return cs.Success
	case rate >= 0.95:
		return cs.Warning
	default:
		return cs.Error
	}
}

// PassIcon returns the marker for a satisfied threshold.
func PassIcon(noColor bool) string {
	if noColor {
		return "PASS"
	}
	return color.GreenString("✓")
}

// FailIcon returns the marker for a violated threshold.
func FailIcon(noColor bool) string {
	if noColor {
		return "FAIL"
	}
	return color.RedString("✗")
}
