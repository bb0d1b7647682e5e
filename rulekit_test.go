package rulekit

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulekit/rulekit/pkg/types"
)

func comic(publisher string, issue int) map[string]interface{} {
	return map[string]interface{}{"publisher": publisher, "issue": issue}
}

func TestNew(t *testing.T) {
	rule, err := New(`publisher == "DC" and issue >= 1`)
	require.NoError(t, err)
	assert.Equal(t, `publisher == "DC" and issue >= 1`, rule.Text())
	assert.Equal(t, rule.Text(), rule.String())

	_, err = New("publisher ==")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrSyntax)
}

func TestMustNew(t *testing.T) {
	assert.NotPanics(t, func() { MustNew("true") })
	assert.Panics(t, func() { MustNew("1 +") })
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("age > 21"))
	assert.False(t, IsValid("age >"))
	assert.False(t, IsValid(`"text" > 1`))

	// Symbol type information extends the check to symbol usage.
	withTypes := WithTypes(map[string]types.DataType{"age": types.Float})
	assert.True(t, IsValid("age > 21", withTypes))
	assert.False(t, IsValid(`age > "21"`, withTypes))
}

func TestMatches(t *testing.T) {
	rule := MustNew(`publisher == "DC" and issue >= 1`)

	matched, err := rule.Matches(comic("DC", 5))
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = rule.Matches(comic("Marvel", 5))
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestMatchesTruthiness(t *testing.T) {
	// Rules with an undefined static result type match on truthiness.
	rule := MustNew("name")

	matched, err := rule.Matches(map[string]interface{}{"name": "Luke"})
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = rule.Matches(map[string]interface{}{"name": ""})
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestMatchesRequiresBooleanResult(t *testing.T) {
	rule := MustNew("1 + 2")
	_, err := rule.Matches(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrEvaluation)
}

func TestMatchesUnresolvedSymbol(t *testing.T) {
	rule := MustNew("missing > 1")
	_, err := rule.Matches(map[string]interface{}{})
	require.Error(t, err)
	var sre *types.SymbolResolutionError
	assert.ErrorAs(t, err, &sre)

	// A configured default value resolves the symbol instead.
	rule = MustNew("missing == null", WithDefaultValue(nil))
	matched, err := rule.Matches(map[string]interface{}{})
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestEvaluate(t *testing.T) {
	rule := MustNew("price * quantity")
	value, err := rule.Evaluate(map[string]interface{}{"price": 2.5, "quantity": 4})
	require.NoError(t, err)
	assert.True(t, types.NewFloatFromInt64(10).Equal(value))
}

func TestSymbols(t *testing.T) {
	rule := MustNew("first_name == last_name and age > 21")
	assert.Equal(t, []string{"age", "first_name", "last_name"}, rule.Symbols())
}

func TestComment(t *testing.T) {
	rule := MustNew("age >= 21 # of drinking age")
	assert.Equal(t, "of drinking age", rule.Comment())
}

func TestFilter(t *testing.T) {
	rule := MustNew(`publisher == "DC"`)
	things := []interface{}{comic("DC", 1), comic("Marvel", 2), comic("DC", 3)}

	var matches []interface{}
	for thing, err := range rule.Filter(slices.Values(things)) {
		require.NoError(t, err)
		matches = append(matches, thing)
	}
	require.Len(t, matches, 2)
	assert.Equal(t, comic("DC", 1), matches[0])
	assert.Equal(t, comic("DC", 3), matches[1])
}

func TestFilterStopsOnError(t *testing.T) {
	rule := MustNew("issue > 1")
	things := []interface{}{comic("DC", 5), map[string]interface{}{}, comic("DC", 9)}

	var seen int
	var lastErr error
	for _, err := range rule.Filter(slices.Values(things)) {
		seen++
		lastErr = err
	}
	assert.Equal(t, 2, seen, "the erroring member terminates the sequence")
	require.Error(t, lastErr)
	assert.ErrorIs(t, lastErr, types.ErrEvaluation)
}

func TestFilterIsLazy(t *testing.T) {
	rule := MustNew("true")
	things := []interface{}{comic("DC", 1), comic("DC", 2)}

	for range rule.Filter(slices.Values(things)) {
		break // Stopping early must not panic or run the rest
	}
}

func TestFilterSlice(t *testing.T) {
	rule := MustNew("issue >= 2")
	things := []interface{}{comic("DC", 1), comic("DC", 2), comic("DC", 3)}

	matches, err := rule.FilterSlice(things)
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	_, err = rule.FilterSlice([]interface{}{map[string]interface{}{}})
	require.Error(t, err)
}

func TestGraphviz(t *testing.T) {
	rule := MustNew("age > 21")
	rendered := rule.Graphviz().String()
	assert.Contains(t, rendered, "digraph")
	assert.Contains(t, rendered, "gt")
	assert.Contains(t, rendered, "age")
}
