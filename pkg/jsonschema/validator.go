// Package jsonschema validates JSON documents against JSON Schema
// definitions. The scenario loader runs every decoded scenario file
// through it before semantic validation, so typos and type mismatches
// surface with the offending location attached.
package jsonschema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidationErrors collects every schema violation found in one
// document. It implements error so callers can wrap the whole set.
type ValidationErrors []error

func (ve ValidationErrors) Error() string {
	msgs := make([]string, len(ve))
	for i, err := range ve {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// ValidateWithErrors checks doc against schema and reports every
// violation rather than stopping at the first. It returns true and a
// nil slice when doc conforms. A malformed schema or undecodable doc
// comes back as a single-element slice.
func ValidateWithErrors(doc, schema string) (bool, ValidationErrors) {
	compiled, err := compile(schema)
	if err != nil {
		return false, ValidationErrors{err}
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(doc), &decoded); err != nil {
		return false, ValidationErrors{fmt.Errorf("invalid JSON: %w", err)}
	}

	if err := compiled.Validate(decoded); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return false, flatten(verr)
		}
		return false, ValidationErrors{err}
	}
	return true, nil
}

// compile parses and compiles a schema held in a string. The resource
// name only shows up in error output.
func compile(schema string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return compiled, nil
}

// flatten walks the cause tree of a validation error and returns one
// entry per node that carries a message, each prefixed with the JSON
// location it refers to.
func flatten(verr *jsonschema.ValidationError) ValidationErrors {
	var out ValidationErrors
	if verr.Message != "" {
		out = append(out, fmt.Errorf("validation error at %s: %s", verr.InstanceLocation, verr.Message))
	}
	for _, cause := range verr.Causes {
		out = append(out, flatten(cause)...)
	}
	return out
}
