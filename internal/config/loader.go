package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/radload-io/radload/pkg/jsonschema"
)

// Defaults mirror the tool's historical constants. The CLI uses the
// same values for its flag defaults.
const (
	DefaultServer        = "127.0.0.1"
	DefaultPort          = 1812
	DefaultSecret        = "testing123"
	DefaultBinary        = "radclient"
	DefaultTimeout       = 5 * time.Second
	DefaultRetries       = 2
	DefaultWorkers       = 50
	DefaultBatchTotal    = 10000
	DefaultBatchParallel = 10
	DefaultStartRate     = 50
	DefaultStepRate      = 25
	DefaultMaxRate       = 500
	DefaultStepDuration  = 30 * time.Second
	DefaultSLOMillis     = 200
	DefaultHourDuration  = 150 * time.Second
)

// scenarioSchema is the embedded JSON Schema every scenario file must
// satisfy before semantic validation runs. Duration-valued fields accept
// either a duration string ("30s") or a bare number of seconds.
const scenarioSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "radload scenario",
	"type": "object",
	"required": ["mode"],
	"additionalProperties": false,
	"properties": {
		"name": {"type": "string"},
		"mode": {"type": "string", "enum": ["batch", "run", "ramp", "replay"]},
		"target": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"server": {"type": "string"},
				"port": {"type": "integer", "minimum": 1, "maximum": 65535},
				"secret": {"type": "string"}
			}
		},
		"client": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"binary": {"type": "string"},
				"timeout": {"$ref": "#/definitions/duration"},
				"retries": {"type": "integer", "minimum": 0}
			}
		},
		"workers": {"type": "integer", "minimum": 1},
		"rate": {"type": "number", "exclusiveMinimum": 0},
		"duration": {"$ref": "#/definitions/duration"},
		"batch": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"total": {"type": "integer", "minimum": 1},
				"parallel": {"type": "integer", "minimum": 1}
			}
		},
		"ramp": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"startRps": {"type": "number", "exclusiveMinimum": 0},
				"stepRps": {"type": "number", "exclusiveMinimum": 0},
				"maxRps": {"type": "number", "exclusiveMinimum": 0},
				"stepDuration": {"$ref": "#/definitions/duration"},
				"sloMs": {"type": "number", "exclusiveMinimum": 0}
			}
		},
		"replay": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"profile": {"type": "string"},
				"hourDuration": {"$ref": "#/definitions/duration"},
				"hours": {"type": "integer", "minimum": 0}
			}
		},
		"slos": {"type": "array", "items": {"type": "string"}},
		"outputs": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"csv": {"type": "string"},
				"json": {"type": "string"},
				"html": {"type": "string"},
				"log": {"type": "string"}
			}
		}
	},
	"definitions": {
		"duration": {
			"anyOf": [
				{"type": "string"},
				{"type": "number", "minimum": 0}
			]
		}
	}
}`

// Load reads, expands, validates, and parses a scenario file.
//
// The file format is determined by extension:
//   - .yaml, .yml -> YAML
//   - .json -> JSON
//
// Values may reference environment variables as ${VAR}; references are
// expanded before parsing, so secrets can stay out of the file. The
// parsed scenario has defaults applied and passes semantic validation.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	return Parse(expandEnv(data), path)
}

// Parse parses scenario data, validating it against the embedded JSON
// Schema first and then semantically.
//
// The format is determined by the file extension in path, or defaults
// to YAML if the path is empty or has an unknown extension.
func Parse(data []byte, path string) (*Scenario, error) {
	if err := checkSchema(data); err != nil {
		return nil, err
	}

	var sc Scenario

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &sc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON scenario: %w", err)
		}
	default:
		// YAML is a JSON superset, so .yaml, .yml, and unknown
		// extensions all go through the YAML parser.
		if err := yaml.Unmarshal(data, &sc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML scenario: %w", err)
		}
	}

	ApplyDefaults(&sc)

	if err := sc.Validate(); err != nil {
		return nil, err
	}

	return &sc, nil
}

// checkSchema validates raw scenario data against the embedded schema.
//
// The data is decoded generically and re-encoded as JSON so YAML and
// JSON files share one schema.
func checkSchema(data []byte) error {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse scenario file: %w", err)
	}

	doc, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to encode scenario for schema validation: %w", err)
	}

	ok, errs := jsonschema.ValidateWithErrors(string(doc), scenarioSchema)
	if !ok {
		return fmt.Errorf("scenario file failed schema validation: %w", errs)
	}

	return nil
}

// expandEnv substitutes ${VAR} references with environment values.
// Unset variables expand to the empty string.
func expandEnv(data []byte) []byte {
	return []byte(os.Expand(string(data), os.Getenv))
}

// ApplyDefaults fills unset scenario fields with the tool defaults.
func ApplyDefaults(sc *Scenario) {
	if sc.Target.Server == "" {
		sc.Target.Server = DefaultServer
	}
	if sc.Target.Port == 0 {
		sc.Target.Port = DefaultPort
	}
	if sc.Target.Secret == "" {
		sc.Target.Secret = DefaultSecret
	}

	if sc.Client.Binary == "" {
		sc.Client.Binary = DefaultBinary
	}
	if sc.Client.Timeout == 0 {
		sc.Client.Timeout = Duration(DefaultTimeout)
	}
	if sc.Client.Retries == 0 {
		sc.Client.Retries = DefaultRetries
	}

	if sc.Workers == 0 {
		sc.Workers = DefaultWorkers
	}

	// Mode-specific defaults
	switch sc.Mode {
	case ModeBatch:
		if sc.Batch == nil {
			sc.Batch = &BatchConfig{}
		}
		if sc.Batch.Total == 0 {
			sc.Batch.Total = DefaultBatchTotal
		}
		if sc.Batch.Parallel == 0 {
			sc.Batch.Parallel = DefaultBatchParallel
		}

	case ModeRamp:
		if sc.Ramp == nil {
			sc.Ramp = &RampConfig{}
		}
		if sc.Ramp.StartRate == 0 {
			sc.Ramp.StartRate = DefaultStartRate
		}
		if sc.Ramp.StepRate == 0 {
			sc.Ramp.StepRate = DefaultStepRate
		}
		if sc.Ramp.MaxRate == 0 {
			sc.Ramp.MaxRate = DefaultMaxRate
		}
		if sc.Ramp.StepDuration == 0 {
			sc.Ramp.StepDuration = Duration(DefaultStepDuration)
		}
		if sc.Ramp.SLOMillis == 0 {
			sc.Ramp.SLOMillis = DefaultSLOMillis
		}

	case ModeReplay:
		if sc.Replay == nil {
			sc.Replay = &ReplayConfig{}
		}
		if sc.Replay.HourDuration == 0 {
			sc.Replay.HourDuration = Duration(DefaultHourDuration)
		}
	}
}

// Dir returns the directory containing the scenario file, for resolving
// relative paths (such as a replay profile) against it.
func Dir(scenarioPath string) string {
	return filepath.Dir(scenarioPath)
}
