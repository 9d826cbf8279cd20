package topology

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const bundledSchemaURL = "https://ieslh.github.io/buildcheck/topology.schema.json"

// MaxItemCount is the largest count accepted for one item type in a room.
const MaxItemCount = 1000

// bundledSchema describes floors.json: floor -> room -> item type -> count.
const bundledSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "Building topology",
  "type": "object",
  "propertyNames": { "minLength": 1 },
  "additionalProperties": {
    "type": "object",
    "propertyNames": { "minLength": 1 },
    "additionalProperties": {
      "type": "object",
      "propertyNames": { "minLength": 1 },
      "additionalProperties": { "type": "integer", "minimum": 1, "maximum": 1000 }
    }
  }
}`

// ValidationError is a schema violation at a location in the document.
type ValidationError struct {
	Path string // dotted path to the offending value
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Valid    bool
	Errors   []error
	Warnings []string
	// Schema is the schema location that was applied.
	Schema string
}

// Validate checks a decoded JSON document against the topology schema.
// A schemaPath that cannot be read or compiled produces a warning and the
// bundled schema is used instead.
func Validate(doc any, schemaPath string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	schema, location, warning := compileSchema(schemaPath)
	if warning != "" {
		result.Warnings = append(result.Warnings, warning)
	}
	if schema == nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Errorf("bundled topology schema does not compile"))
		return result
	}
	result.Schema = location

	if err := schema.Validate(doc); err != nil {
		result.Valid = false
		appendSchemaErrors(result, err)
	}
	return result
}

func compileSchema(schemaPath string) (*jsonschema.Schema, string, string) {
	var warning string
	if schemaPath != "" {
		absPath, err := filepath.Abs(schemaPath)
		switch {
		case err != nil:
			warning = fmt.Sprintf("invalid schema path: %v", err)
		default:
			if _, statErr := os.Stat(absPath); statErr != nil {
				if os.IsNotExist(statErr) {
					warning = fmt.Sprintf("schema file not found, using bundled schema: %s", absPath)
				} else {
					warning = fmt.Sprintf("failed to read schema file, using bundled schema: %v", statErr)
				}
				break
			}
			compiler := jsonschema.NewCompiler()
			compiler.AssertFormat = true
			schema, compileErr := compiler.Compile(absPath)
			if compileErr == nil {
				return schema, absPath, ""
			}
			warning = fmt.Sprintf("invalid schema file, using bundled schema: %v", compileErr)
		}
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(bundledSchemaURL, strings.NewReader(bundledSchema)); err != nil {
		return nil, "", warning
	}
	schema, err := compiler.Compile(bundledSchemaURL)
	if err != nil {
		return nil, "", warning
	}
	return schema, "bundled", warning
}

func appendSchemaErrors(result *ValidationResult, err error) {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		result.Errors = append(result.Errors, err)
		return
	}
	collectSchemaErrors(result, ve)
}

func collectSchemaErrors(result *ValidationResult, err *jsonschema.ValidationError) {
	if len(err.Causes) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Path: pointerToPath(err.InstanceLocation),
			Err:  fmt.Errorf("%s", err.Message),
		})
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(result, cause)
	}
}

// pointerToPath turns "/1/Room 101/Window" into "1.Room 101.Window".
func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}
	parts := strings.Split(ptr, "/")
	for i, part := range parts {
		part = strings.ReplaceAll(part, "~1", "/")
		parts[i] = strings.ReplaceAll(part, "~0", "~")
	}
	return strings.Join(parts, ".")
}
