package jsonvalidate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/go-test-timeline/checkmate"
	"github.com/launchdarkly/go-test-timeline/framework"
)

var userSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"id":   map[string]interface{}{"type": "integer"},
		"name": map[string]interface{}{"type": "string"},
	},
	"required": []string{"id", "name"},
}

func mustCompile(t *testing.T) *Schema {
	s, err := CompileValue(userSchema)
	require.NoError(t, err)
	return s
}

func TestStrictPasses(t *testing.T) {
	s := mustCompile(t)
	assert.NoError(t, Strict(map[string]interface{}{"id": 1, "name": "alice"}, s))
	assert.NoError(t, Strict([]byte(`{"id": 2, "name": "bob"}`), s))

	type user struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	assert.NoError(t, Strict(user{ID: 3, Name: "carol"}, s))
}

func TestStrictReportsEveryViolation(t *testing.T) {
	err := Strict(map[string]interface{}{"id": "not a number"}, mustCompile(t))
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Violations, 2)
	assert.True(t, strings.HasPrefix(ve.Violations[0], "\t- () "))
	assert.Contains(t, ve.Violations[0], "name")
	assert.True(t, strings.HasPrefix(ve.Violations[1], "\t- (id) "))
	assert.Contains(t, ve.Violations[1], "expected integer")

	assert.True(t, strings.HasPrefix(err.Error(), "JSON Schema validation failed:\n\t- "))
	assert.Equal(t, "JSON Schema validation failed:\n"+strings.Join(ve.Violations, "\n"), err.Error())
}

func TestNestedViolationPath(t *testing.T) {
	s, err := Compile([]byte(`{
		"type": "object",
		"properties": {"items": {"type": "array", "items": {"type": "object", "properties": {"id": {"type": "integer"}}}}}
	}`))
	require.NoError(t, err)
	err = s.Validate([]byte(`{"items": [{"id": 1}, {"id": "x"}]}`))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Violations, 1)
	assert.True(t, strings.HasPrefix(ve.Violations[0], "\t- (items/1/id) "))
}

func TestStrictWithoutSchema(t *testing.T) {
	assert.ErrorIs(t, Strict(map[string]interface{}{}, nil), ErrNoSchema)
	var s *Schema
	assert.ErrorIs(t, s.Validate(nil), ErrNoSchema)
}

func TestStrictInvalidData(t *testing.T) {
	err := Strict([]byte(`{"id":`), mustCompile(t))
	require.Error(t, err)
	_, isViolation := err.(*ValidationError)
	assert.False(t, isViolation)

	err = Strict(func() {}, mustCompile(t))
	assert.Error(t, err)
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile([]byte(`{"type": 12}`))
	assert.Error(t, err)
	_, err = Compile([]byte(`{not json`))
	assert.Error(t, err)
	_, err = CompileValue(map[string]interface{}{"bad": func() {}})
	assert.Error(t, err)
}

func TestCompileFile(t *testing.T) {
	for _, name := range []string{"user.schema.json", "user.schema.yaml"} {
		t.Run(name, func(t *testing.T) {
			s, err := CompileFile(filepath.Join("testdata", name))
			require.NoError(t, err)
			assert.NoError(t, s.Validate(map[string]interface{}{"id": 1, "name": "a"}))
			assert.Error(t, s.Validate(map[string]interface{}{"id": 1}))
		})
	}
}

func TestCompileFileErrors(t *testing.T) {
	_, err := CompileFile(filepath.Join("testdata", "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema file not found")

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err = CompileFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON in schema file")
}

func recorderFor(t *testing.T) (*checkmate.Recorder, framework.TestID) {
	rec := checkmate.New()
	id := framework.NewTestID(t.Name())
	rec.Registry().Begin(id)
	return rec, id
}

func TestSoftRecordsOneCheck(t *testing.T) {
	rec, id := recorderFor(t)
	s := mustCompile(t)

	assert.True(t, SoftOn(rec, t, map[string]interface{}{"id": 1, "name": "a"}, s))
	assert.False(t, SoftOn(rec, t, map[string]interface{}{"id": "x", "name": "a"}, s))
	assert.False(t, SoftOn(rec, t, map[string]interface{}{}, nil))

	checks := rec.Registry().Drain(id).SoftChecks()
	require.Len(t, checks, 3)

	assert.True(t, checks[0].Passed)
	assert.Equal(t, "JSON Schema validation passed", checks[0].Message)
	assert.Empty(t, checks[0].Details)

	assert.False(t, checks[1].Passed)
	assert.True(t, strings.HasPrefix(checks[1].Message, "JSON Schema validation failed:\n\t- (id) "))

	assert.False(t, checks[2].Passed)
	assert.Equal(t, "JSON Schema validation error: "+ErrNoSchema.Error(), checks[2].Message)
}

func TestSoftUsesDefaultRecorder(t *testing.T) {
	id := framework.NewTestID(t.Name())
	checkmate.Default().Registry().Begin(id)
	assert.True(t, Soft(t, []byte(`{"id": 1, "name": "a"}`), mustCompile(t)))
	assert.Len(t, checkmate.Default().Registry().Drain(id).SoftChecks(), 1)
}

func TestInstancePath(t *testing.T) {
	assert.Equal(t, "", instancePath(""))
	assert.Equal(t, "a/0/b", instancePath("/a/0/b"))
	assert.Equal(t, "a~b/c/d", instancePath("/a~0b/c~1d"))
}
