package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulekit/rulekit"
	"github.com/rulekit/rulekit/pkg/types"
)

func writeEnvironment(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEnvironmentEmptyPath(t *testing.T) {
	env, err := loadEnvironment("")
	require.NoError(t, err)
	assert.Nil(t, env.Thing)

	opts, err := env.options()
	require.NoError(t, err)
	assert.Empty(t, opts)
}

func TestLoadEnvironment(t *testing.T) {
	path := writeEnvironment(t, `
timezone: UTC
default: null
types:
  age: FLOAT
  name: STRING
thing:
  age: 21
  name: Luke
`)
	env, err := loadEnvironment(path)
	require.NoError(t, err)
	opts, err := env.options()
	require.NoError(t, err)

	rule, err := rulekit.New("age >= 21 and name == 'Luke'", opts...)
	require.NoError(t, err)
	matched, err := rule.Matches(env.Thing)
	require.NoError(t, err)
	assert.True(t, matched)

	// Declared types reject incompatible usage at compile time.
	_, err = rulekit.New("age > 'young'", opts...)
	require.Error(t, err)

	// With a type table every symbol must be declared.
	_, err = rulekit.New("missing > 1", opts...)
	require.Error(t, err)
	var sre *types.SymbolResolutionError
	assert.ErrorAs(t, err, &sre)
}

func TestLoadEnvironmentDefaultValue(t *testing.T) {
	path := writeEnvironment(t, "default: null\nthing: {}\n")
	env, err := loadEnvironment(path)
	require.NoError(t, err)
	opts, err := env.options()
	require.NoError(t, err)
	require.Len(t, opts, 1, "an explicit null default still configures the context")

	// The default value resolves symbols missing from the thing.
	rule, err := rulekit.New("missing == null", opts...)
	require.NoError(t, err)
	matched, err := rule.Matches(env.Thing)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestLoadEnvironmentBadTimezone(t *testing.T) {
	path := writeEnvironment(t, "timezone: Mars/Olympus\n")
	env, err := loadEnvironment(path)
	require.NoError(t, err)
	_, err = env.options()
	assert.Error(t, err)
}

func TestLoadEnvironmentBadType(t *testing.T) {
	path := writeEnvironment(t, "types: {age: INTEGER}\n")
	env, err := loadEnvironment(path)
	require.NoError(t, err)
	_, err = env.options()
	assert.ErrorContains(t, err, "unknown data type")
}

func TestDataTypeByName(t *testing.T) {
	dt, err := dataTypeByName("FLOAT")
	require.NoError(t, err)
	assert.Equal(t, types.KindFloat, dt.Kind())

	_, err = dataTypeByName("float")
	assert.Error(t, err)
}
