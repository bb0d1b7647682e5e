package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorsSatisfyErrorInterface(t *testing.T) {
	// Every concrete error type must be usable as a plain error value.
	cases := []error{
		NewRuleSyntaxError("unexpected token", 3, "@"),
		NewStringSyntaxError("invalid escape sequence", `\q`),
		NewRegexSyntaxError("invalid regular expression", "(", errors.New("missing closing )")),
		NewEvaluationError("data type mismatch"),
		NewSymbolResolutionError("missing", "", "mission"),
		NewSymbolTypeError("age", Float, String),
		NewAttributeResolutionError("lenght", String, "length"),
		NewAttributeTypeError("length", String, Float, String),
		NewLookupError("index out of range"),
		NewFunctionCallError("expected at least 1 positional arguments", "sum", nil),
	}
	for _, err := range cases {
		assert.NotEmpty(t, err.Error())
	}
}

func TestErrorsUnwrapToFamilies(t *testing.T) {
	assert.ErrorIs(t, NewRuleSyntaxError("unexpected token", 0, "@"), ErrSyntax)
	assert.ErrorIs(t, NewBytesSyntaxError("invalid escape sequence", `\q`), ErrSyntax)
	assert.ErrorIs(t, NewRegexSyntaxError("invalid regular expression", "(", nil), ErrSyntax)

	assert.ErrorIs(t, NewEvaluationError("data type mismatch"), ErrEvaluation)
	assert.ErrorIs(t, NewLookupError("key does not exist"), ErrEvaluation)
	assert.ErrorIs(t, NewSymbolTypeError("age", Float, String), ErrEvaluation)

	// never both families
	assert.NotErrorIs(t, NewEvaluationError("data type mismatch"), ErrSyntax)
	assert.NotErrorIs(t, NewRuleSyntaxError("unexpected token", 0, "@"), ErrEvaluation)
}

func TestErrorsUnwrapCause(t *testing.T) {
	cause := errors.New("missing closing )")
	err := NewRegexSyntaxError("invalid regular expression", "(", cause)
	assert.ErrorIs(t, err, cause)

	var rse *RegexSyntaxError
	require.ErrorAs(t, error(err), &rse)
	assert.Equal(t, "(", rse.Pattern)
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, `unexpected token (at "@", position 3)`,
		NewRuleSyntaxError("unexpected token", 3, "@").Error())
	assert.Equal(t, `symbol can not be resolved: "missing", did you mean "mission"?`,
		NewSymbolResolutionError("missing", "", "mission").Error())
	assert.Equal(t, "data type mismatch",
		NewEvaluationError("data type mismatch").Error())
}
