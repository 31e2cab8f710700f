// Package profile parses hourly rate profiles for replay runs.
//
// A profile is a CSV file with a header row naming at least the "hour"
// and "rps_modified" columns. Additional columns are ignored, so a
// profile exported from a traffic analysis sheet works without
// trimming:
//
//	hour,rps_original,rps_modified
//	0,312.4,280
//	1,198.0,170
//
// Rows are replayed in file order.
package profile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/radload-io/radload/internal/executor"
)

const (
	hourColumn = "hour"
	rateColumn = "rps_modified"
)

// Load reads and parses a profile file.
func Load(path string) ([]executor.ProfilePoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile: %w", err)
	}
	defer f.Close()

	points, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	return points, nil
}

// Parse reads an hourly profile from r.
func Parse(r io.Reader) ([]executor.ProfilePoint, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("profile is empty")
	}
	if err != nil {
		return nil, err
	}

	hourIdx, rateIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case hourColumn:
			hourIdx = i
		case rateColumn:
			rateIdx = i
		}
	}
	if hourIdx < 0 {
		return nil, fmt.Errorf("profile is missing the %q column", hourColumn)
	}
	if rateIdx < 0 {
		return nil, fmt.Errorf("profile is missing the %q column", rateColumn)
	}

	var points []executor.ProfilePoint
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		row := len(points) + 1
		hour, err := strconv.Atoi(strings.TrimSpace(record[hourIdx]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid hour %q", row, record[hourIdx])
		}

		rate, err := strconv.ParseFloat(strings.TrimSpace(record[rateIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid rate %q", row, record[rateIdx])
		}
		if rate < 0 {
			return nil, fmt.Errorf("row %d: rate must be >= 0, got %v", row, rate)
		}

		points = append(points, executor.ProfilePoint{Hour: hour, Rate: rate})
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("profile has no data rows")
	}
	return points, nil
}

// Limit truncates a profile to its first n hours. Zero or negative n
// keeps the whole profile.
func Limit(points []executor.ProfilePoint, n int) []executor.ProfilePoint {
	if n <= 0 || n >= len(points) {
		return points
	}
	return points[:n]
}
