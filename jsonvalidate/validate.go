// Package jsonvalidate checks JSON data against JSON Schema documents, either as a hard error
// or as a soft assertion on a test's timeline.
package jsonvalidate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/launchdarkly/go-test-timeline/checkmate"
)

const (
	failedHeader  = "JSON Schema validation failed:"
	passedMessage = "JSON Schema validation passed"
	errorPrefix   = "JSON Schema validation error: "
)

// ErrNoSchema is returned when validation is requested without a schema.
var ErrNoSchema = errors.New("no JSON schema was provided")

// Schema is a compiled JSON Schema.
type Schema struct {
	compiled *jsonschema.Schema
}

// Compile compiles a schema from its JSON text.
func Compile(raw []byte) (*Schema, error) {
	return compile("schema.json", bytes.NewReader(raw))
}

// CompileValue compiles a schema given as a Go value, such as a map[string]interface{}.
func CompileValue(v interface{}) (*Schema, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("unable to encode schema: %w", err)
	}
	return Compile(raw)
}

// CompileFile compiles a schema file. Files ending in .yaml or .yml are read as YAML.
func CompileFile(path string) (*Schema, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve schema path: %w", err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("schema file not found: %s", path)
		}
		return nil, fmt.Errorf("unable to read schema file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(absPath)) {
	case ".yaml", ".yml":
		var v interface{}
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("invalid YAML in schema file %s: %w", path, err)
		}
		return CompileValue(v)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("invalid JSON in schema file: %s", path)
	}
	return compile(absPath, bytes.NewReader(data))
}

func compile(location string, r *bytes.Reader) (*Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(location, r); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	s, err := compiler.Compile(location)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{compiled: s}, nil
}

// ValidationError lists every way the data failed to match the schema.
type ValidationError struct {
	// Violations holds one line per failed constraint, formatted as "\t- (path) message".
	Violations []string
}

func (e *ValidationError) Error() string {
	return failedHeader + "\n" + strings.Join(e.Violations, "\n")
}

// Validate returns nil if data matches, a *ValidationError if it does not, or another error if
// data cannot be treated as JSON. data may be raw JSON ([]byte or json.RawMessage) or any
// value that encoding/json can marshal.
func (s *Schema) Validate(data interface{}) error {
	if s == nil || s.compiled == nil {
		return ErrNoSchema
	}
	doc, err := normalize(data)
	if err != nil {
		return err
	}
	err = s.compiled.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	return &ValidationError{Violations: violations(ve)}
}

func normalize(data interface{}) (interface{}, error) {
	var raw []byte
	switch d := data.(type) {
	case []byte:
		raw = d
	case json.RawMessage:
		raw = d
	default:
		var err error
		if raw, err = json.Marshal(data); err != nil {
			return nil, fmt.Errorf("data is not JSON-encodable: %w", err)
		}
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("data is not valid JSON: %w", err)
	}
	return doc, nil
}

// violations flattens the error tree to its leaves, which carry the specific messages.
func violations(ve *jsonschema.ValidationError) []string {
	var lines []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			lines = append(lines, fmt.Sprintf("\t- (%s) %s", instancePath(e.InstanceLocation), e.Message))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	sort.Strings(lines)
	return lines
}

// instancePath turns a JSON pointer such as "/items/0/id" into "items/0/id".
func instancePath(pointer string) string {
	parts := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	for i, p := range parts {
		parts[i] = strings.NewReplacer("~1", "/", "~0", "~").Replace(p)
	}
	return strings.Join(parts, "/")
}

// Strict validates data and returns an error describing any mismatch.
func Strict(data interface{}, schema *Schema) error {
	if schema == nil {
		return ErrNoSchema
	}
	return schema.Validate(data)
}

// Soft validates data as a soft assertion on t with the default recorder. See SoftOn.
func Soft(t checkmate.TestingT, data interface{}, schema *Schema) bool {
	return SoftOn(checkmate.Default(), t, data, schema)
}

// SoftOn records exactly one soft check for t whose message is the validation outcome, and
// returns whether the data matched.
func SoftOn(rec *checkmate.Recorder, t checkmate.TestingT, data interface{}, schema *Schema) bool {
	passed, message := outcome(Strict(data, schema))
	return rec.SoftAssert(t, passed, checkmate.Message(message), checkmate.Details())
}

func outcome(err error) (bool, string) {
	if err == nil {
		return true, passedMessage
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return false, ve.Error()
	}
	return false, errorPrefix + err.Error()
}
