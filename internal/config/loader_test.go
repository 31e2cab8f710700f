package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeScenario(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create scenario file: %v", err)
	}
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeScenario(t, "run.yaml", `
name: "Auth soak"
mode: run
target:
  server: radius.example.com
  port: 1645
  secret: s3cr3t
client:
  binary: /usr/bin/radclient
  timeout: 3s
  retries: 1
workers: 20
rate: 100
duration: 2m
slos:
  - "p95 < 200ms"
outputs:
  json: out/result.json
`)

	sc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if sc.Name != "Auth soak" {
		t.Errorf("Name = %v, want %v", sc.Name, "Auth soak")
	}
	if sc.Mode != ModeRun {
		t.Errorf("Mode = %v, want %v", sc.Mode, ModeRun)
	}
	if sc.Target.Server != "radius.example.com" {
		t.Errorf("Target.Server = %v, want %v", sc.Target.Server, "radius.example.com")
	}
	if sc.Target.Port != 1645 {
		t.Errorf("Target.Port = %v, want %v", sc.Target.Port, 1645)
	}
	if sc.Client.Timeout.GetDuration(0) != 3*time.Second {
		t.Errorf("Client.Timeout = %v, want %v", sc.Client.Timeout, 3*time.Second)
	}
	if sc.Client.Retries != 1 {
		t.Errorf("Client.Retries = %v, want %v", sc.Client.Retries, 1)
	}
	if sc.Workers != 20 {
		t.Errorf("Workers = %v, want %v", sc.Workers, 20)
	}
	if sc.Rate != 100 {
		t.Errorf("Rate = %v, want %v", sc.Rate, 100)
	}
	if sc.Duration.GetDuration(0) != 2*time.Minute {
		t.Errorf("Duration = %v, want %v", sc.Duration, 2*time.Minute)
	}
	if len(sc.SLOs) != 1 || sc.SLOs[0] != "p95 < 200ms" {
		t.Errorf("SLOs = %v, want [p95 < 200ms]", sc.SLOs)
	}
	if sc.Outputs.JSON != "out/result.json" {
		t.Errorf("Outputs.JSON = %v, want %v", sc.Outputs.JSON, "out/result.json")
	}
}

func TestLoad_JSON(t *testing.T) {
	path := writeScenario(t, "batch.json", `{
		"mode": "batch",
		"batch": {"total": 5000, "parallel": 25}
	}`)

	sc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if sc.Mode != ModeBatch {
		t.Errorf("Mode = %v, want %v", sc.Mode, ModeBatch)
	}
	if sc.Batch == nil {
		t.Fatal("Batch should not be nil")
	}
	if sc.Batch.Total != 5000 {
		t.Errorf("Batch.Total = %v, want %v", sc.Batch.Total, 5000)
	}
	if sc.Batch.Parallel != 25 {
		t.Errorf("Batch.Parallel = %v, want %v", sc.Batch.Parallel, 25)
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/scenario.yaml")
	if err == nil {
		t.Error("Load() should return error for nonexistent file")
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeScenario(t, "minimal.yaml", `
mode: batch
`)

	sc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if sc.Target.Server != DefaultServer {
		t.Errorf("Target.Server = %v, want default %v", sc.Target.Server, DefaultServer)
	}
	if sc.Target.Port != DefaultPort {
		t.Errorf("Target.Port = %v, want default %v", sc.Target.Port, DefaultPort)
	}
	if sc.Target.Secret != DefaultSecret {
		t.Errorf("Target.Secret = %v, want default %v", sc.Target.Secret, DefaultSecret)
	}
	if sc.Client.Binary != DefaultBinary {
		t.Errorf("Client.Binary = %v, want default %v", sc.Client.Binary, DefaultBinary)
	}
	if sc.Client.Timeout.GetDuration(0) != DefaultTimeout {
		t.Errorf("Client.Timeout = %v, want default %v", sc.Client.Timeout, DefaultTimeout)
	}
	if sc.Batch == nil {
		t.Fatal("Batch should be filled with defaults")
	}
	if sc.Batch.Total != DefaultBatchTotal {
		t.Errorf("Batch.Total = %v, want default %v", sc.Batch.Total, DefaultBatchTotal)
	}
	if sc.Batch.Parallel != DefaultBatchParallel {
		t.Errorf("Batch.Parallel = %v, want default %v", sc.Batch.Parallel, DefaultBatchParallel)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("RADLOAD_TEST_SECRET", "from-env")

	path := writeScenario(t, "env.yaml", `
mode: batch
target:
  secret: ${RADLOAD_TEST_SECRET}
`)

	sc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if sc.Target.Secret != "from-env" {
		t.Errorf("Target.Secret = %v, want %v", sc.Target.Secret, "from-env")
	}
}

func TestLoad_UnsetEnvExpandsEmpty(t *testing.T) {
	path := writeScenario(t, "env.yaml", `
mode: batch
target:
  secret: "${RADLOAD_TEST_UNSET_VAR}"
`)

	sc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Empty after expansion, so the default fills in
	if sc.Target.Secret != DefaultSecret {
		t.Errorf("Target.Secret = %v, want default %v", sc.Target.Secret, DefaultSecret)
	}
}

func TestParse_SchemaRejectsUnknownField(t *testing.T) {
	_, err := Parse([]byte(`
mode: run
rate: 100
duration: 30s
totl: 500
`), "bad.yaml")
	if err == nil {
		t.Fatal("Parse() should reject unknown fields")
	}
	if !strings.Contains(err.Error(), "schema") {
		t.Errorf("Error should mention schema validation, got: %v", err)
	}
}

func TestParse_SchemaRejectsBadMode(t *testing.T) {
	_, err := Parse([]byte(`mode: flood`), "bad.yaml")
	if err == nil {
		t.Fatal("Parse() should reject unknown modes")
	}
}

func TestParse_SchemaRequiresMode(t *testing.T) {
	_, err := Parse([]byte(`name: no mode here`), "bad.yaml")
	if err == nil {
		t.Fatal("Parse() should require mode")
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("mode: [unclosed"), "bad.yaml")
	if err == nil {
		t.Error("Parse() should return error for invalid YAML")
	}
}

func TestParse_DurationAsBareSeconds(t *testing.T) {
	sc, err := Parse([]byte(`
mode: run
rate: 10
duration: 90
`), "run.yaml")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if sc.Duration.GetDuration(0) != 90*time.Second {
		t.Errorf("Duration = %v, want %v", sc.Duration.GetDuration(0), 90*time.Second)
	}
}

func TestParse_SemanticValidationRuns(t *testing.T) {
	// Schema-valid but semantically wrong: run mode with no rate.
	_, err := Parse([]byte(`
mode: run
duration: 30s
`), "run.yaml")
	if err == nil {
		t.Fatal("Parse() should reject run mode without a rate")
	}
	if !strings.Contains(err.Error(), "rate") {
		t.Errorf("Error should mention rate, got: %v", err)
	}
}

func TestApplyDefaults_Ramp(t *testing.T) {
	sc := &Scenario{Mode: ModeRamp}
	ApplyDefaults(sc)

	if sc.Ramp == nil {
		t.Fatal("Ramp should be filled with defaults")
	}
	if sc.Ramp.StartRate != DefaultStartRate {
		t.Errorf("StartRate = %v, want %v", sc.Ramp.StartRate, DefaultStartRate)
	}
	if sc.Ramp.StepRate != DefaultStepRate {
		t.Errorf("StepRate = %v, want %v", sc.Ramp.StepRate, DefaultStepRate)
	}
	if sc.Ramp.MaxRate != DefaultMaxRate {
		t.Errorf("MaxRate = %v, want %v", sc.Ramp.MaxRate, DefaultMaxRate)
	}
	if sc.Ramp.StepDuration.GetDuration(0) != DefaultStepDuration {
		t.Errorf("StepDuration = %v, want %v", sc.Ramp.StepDuration, DefaultStepDuration)
	}
	if sc.Ramp.SLOMillis != DefaultSLOMillis {
		t.Errorf("SLOMillis = %v, want %v", sc.Ramp.SLOMillis, DefaultSLOMillis)
	}
	if sc.Workers != DefaultWorkers {
		t.Errorf("Workers = %v, want %v", sc.Workers, DefaultWorkers)
	}
}

func TestApplyDefaults_Replay(t *testing.T) {
	sc := &Scenario{Mode: ModeReplay, Replay: &ReplayConfig{Profile: "profile.csv"}}
	ApplyDefaults(sc)

	if sc.Replay.HourDuration.GetDuration(0) != DefaultHourDuration {
		t.Errorf("HourDuration = %v, want %v", sc.Replay.HourDuration, DefaultHourDuration)
	}
	if sc.Replay.Profile != "profile.csv" {
		t.Errorf("Profile = %v, want unchanged", sc.Replay.Profile)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	sc := &Scenario{
		Mode:    ModeBatch,
		Target:  TargetConfig{Server: "10.0.0.1", Port: 1645, Secret: "x"},
		Workers: 3,
		Batch:   &BatchConfig{Total: 7, Parallel: 2},
	}
	ApplyDefaults(sc)

	if sc.Target.Server != "10.0.0.1" || sc.Target.Port != 1645 || sc.Target.Secret != "x" {
		t.Errorf("Target should be unchanged, got %+v", sc.Target)
	}
	if sc.Workers != 3 {
		t.Errorf("Workers = %v, want 3", sc.Workers)
	}
	if sc.Batch.Total != 7 || sc.Batch.Parallel != 2 {
		t.Errorf("Batch should be unchanged, got %+v", sc.Batch)
	}
}

func TestParseDurationString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{
			name:     "standard seconds",
			input:    "30s",
			expected: 30 * time.Second,
		},
		{
			name:     "standard minutes",
			input:    "2m",
			expected: 2 * time.Minute,
		},
		{
			name:     "milliseconds",
			input:    "500ms",
			expected: 500 * time.Millisecond,
		},
		{
			name:     "combined duration",
			input:    "1h30m",
			expected: 90 * time.Minute,
		},
		{
			name:     "integer as seconds",
			input:    "150",
			expected: 150 * time.Second,
		},
		{
			name:     "empty string",
			input:    "",
			expected: 0,
		},
		{
			name:    "invalid format",
			input:   "abc",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDurationString(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDurationString() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.expected {
				t.Errorf("ParseDurationString() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Duration
		wantErr  bool
	}{
		{
			name:     "quoted duration",
			input:    `"30s"`,
			expected: Duration(30 * time.Second),
		},
		{
			name:     "bare number as seconds",
			input:    `150`,
			expected: Duration(150 * time.Second),
		},
		{
			name:     "unquoted null",
			input:    `null`,
			expected: Duration(0),
		},
		{
			name:     "quoted empty",
			input:    `""`,
			expected: Duration(0),
		},
		{
			name:    "invalid duration",
			input:   `"invalid"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalJSON([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalJSON() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if d != tt.expected {
				t.Errorf("UnmarshalJSON() = %v, want %v", d, tt.expected)
			}
		})
	}
}

func TestDuration_MarshalJSON(t *testing.T) {
	d := Duration(90 * time.Second)
	got, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}

	expected := `"1m30s"`
	if string(got) != expected {
		t.Errorf("MarshalJSON() = %v, want %v", string(got), expected)
	}
}

func TestDir(t *testing.T) {
	tests := []struct {
		scenarioPath string
		expected     string
	}{
		{
			scenarioPath: "/path/to/scenario.yaml",
			expected:     "/path/to",
		},
		{
			scenarioPath: "scenario.yaml",
			expected:     ".",
		},
		{
			scenarioPath: "./scenario.yaml",
			expected:     ".",
		},
	}

	for _, tt := range tests {
		t.Run(tt.scenarioPath, func(t *testing.T) {
			result := filepath.ToSlash(Dir(tt.scenarioPath))
			if result != tt.expected {
				t.Errorf("Dir() = %v, want %v", result, tt.expected)
			}
		})
	}
}
