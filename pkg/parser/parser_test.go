package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulekit/rulekit/pkg/engine"
	"github.com/rulekit/rulekit/pkg/types"
)

func evalRule(t *testing.T, text string, thing interface{}) types.Value {
	t.Helper()
	ctx := engine.NewContext()
	statement, err := Parse(text, ctx)
	require.NoError(t, err)
	value, err := statement.Evaluate(engine.NewState(ctx, thing))
	require.NoError(t, err)
	return value
}

func assertRule(t *testing.T, text string, thing interface{}, expected bool) {
	t.Helper()
	value := evalRule(t, text, thing)
	assert.Equal(t, types.BoolValue(expected), value, text)
}

func TestLexerTokens(t *testing.T) {
	cases := []struct {
		input string
		types []TokenType
	}{
		{"1 + 2", []TokenType{TokenFloat, TokenAdd, TokenFloat}},
		{"a ** b // c", []TokenType{TokenSymbol, TokenPow, TokenSymbol, TokenFDiv, TokenSymbol}},
		{"a << 1 >> 2", []TokenType{TokenSymbol, TokenBwLsh, TokenFloat, TokenBwRsh, TokenFloat}},
		{"a =~ b !~~ c", []TokenType{TokenSymbol, TokenEqFzm, TokenSymbol, TokenNeFzs, TokenSymbol}},
		{"a&.b&[0]", []TokenType{TokenSymbol, TokenSafeAttr, TokenSymbol, TokenSafeLBracket, TokenFloat, TokenRBracket}},
		{"$now", []TokenType{TokenSymbol}},
		{"$re_groups[0]", []TokenType{TokenSymbol, TokenLBracket, TokenFloat, TokenRBracket}},
		{`s"x" b"y" d"z" t"w"`, []TokenType{TokenString, TokenBytes, TokenDatetime, TokenTimedelta}},
		{"x # note", []TokenType{TokenSymbol, TokenComment}},
		{"not in for if", []TokenType{TokenNot, TokenIn, TokenFor, TokenIf}},
	}
	for _, tc := range cases {
		lexer := NewLexer(tc.input)
		for i, expected := range tc.types {
			token := lexer.Next()
			assert.Equal(t, expected, token.Type, "%s token #%d", tc.input, i+1)
		}
		assert.Equal(t, TokenEOF, lexer.Next().Type, tc.input)
	}
}

func TestLexerIllegalCharacter(t *testing.T) {
	lexer := NewLexer("a @ b")
	lexer.Next() // a
	token := lexer.Next()
	assert.Equal(t, TokenError, token.Type)
	assert.ErrorIs(t, lexer.Error(), types.ErrSyntax)

	// a bare $ is not a symbol
	lexer = NewLexer("$ + 1")
	assert.Equal(t, TokenError, lexer.Next().Type)
	assert.ErrorIs(t, lexer.Error(), types.ErrSyntax)
}

func TestParsePrecedence(t *testing.T) {
	assertRule(t, "1 + 2 * 3 == 7", nil, true)
	assertRule(t, "(1 + 2) * 3 == 9", nil, true)
	assertRule(t, "2 ** 3 ** 2 == 64", nil, true) // left associative
	assertRule(t, "-2 ** 2 == -4", nil, true)     // ** binds tighter than unary minus
	assertRule(t, "7 // 2 == 3", nil, true)
	assertRule(t, "7 % 3 == 1", nil, true)
	assertRule(t, "1 | 2 ^ 3 & 2 == 1", nil, true) // & then ^ then |
	assertRule(t, "true and false or true", nil, true)
	assertRule(t, "not true == false", nil, true) // not binds looser than ==
}

func TestParseChainedComparisonIsAnError(t *testing.T) {
	_, err := Parse("1 < 2 < 3", engine.NewContext())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrSyntax)

	_, err = Parse("1 == 2 == 3", engine.NewContext())
	assert.ErrorIs(t, err, types.ErrSyntax)
}

func TestParseFloatLiterals(t *testing.T) {
	assertRule(t, "0x1F == 31", nil, true)
	assertRule(t, "0b101 == 5", nil, true)
	assertRule(t, "0o17 == 15", nil, true)
	assertRule(t, ".5 == 0.5", nil, true)
	assertRule(t, "1e2 == 100", nil, true)
	assertRule(t, "inf > 1e308", nil, true)
	assertRule(t, "nan != nan", nil, true)
}

func TestParseStringLiterals(t *testing.T) {
	// both quote styles delimit the same STRING kind
	assertRule(t, `"double" == 'double'`, nil, true)
	assertRule(t, `s"same" == "same"`, nil, true)
	assertRule(t, `"tab\there" == 'tab\there'`, nil, true)
	assertRule(t, `"\x41" == "A"`, nil, true)
	assertRule(t, `"é" == "é"`, nil, true)
}

func TestParseBytesLiterals(t *testing.T) {
	assertRule(t, `b"\x01\x02" == b"\x01\x02"`, nil, true)
	assertRule(t, `b"ab" != "ab"`, nil, true)
	assertRule(t, `b"spam" + b"!" == b"spam!"`, nil, true)
	assertRule(t, `b"am" in b"spam"`, nil, true)
	assertRule(t, `b"spam"[1:3] == b"pa"`, nil, true)
	assertRule(t, `b"spam".length == 4`, nil, true)

	_, err := Parse(`b"\q"`, engine.NewContext())
	require.Error(t, err)
	var lse *types.LiteralSyntaxError
	assert.ErrorAs(t, err, &lse)
}

func TestParseDatetimeLiterals(t *testing.T) {
	assertRule(t, `d"2019-09-01" < d"2019-09-02"`, nil, true)
	assertRule(t, `d"2019-09-01 13:00:00" - d"2019-09-01 12:00:00" == t"PT1H"`, nil, true)

	_, err := Parse(`d"not a date"`, engine.NewContext())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrSyntax)
}

func TestParseTimedeltaLiterals(t *testing.T) {
	assertRule(t, `t"PT2H" > t"PT1H"`, nil, true)
	assertRule(t, `t"P1D" == t"PT24H"`, nil, true)

	_, err := Parse(`t"1 hour"`, engine.NewContext())
	assert.ErrorIs(t, err, types.ErrSyntax)
}

func TestParseSymbols(t *testing.T) {
	assertRule(t, "first_name == 'Luke'", map[string]interface{}{"first_name": "Luke"}, true)
	assertRule(t, "$pi > 3 and $pi < 4", nil, true)
}

func TestParseAttributes(t *testing.T) {
	assertRule(t, "'hello'.length == 5", nil, true)
	assertRule(t, "'HELLO'.as_lower == 'hello'", nil, true)
	assertRule(t, "null&.length == null", nil, true)
	assertRule(t, "email&.domain == null", map[string]interface{}{"email": nil}, true)
}

func TestParseItemAndSliceAccess(t *testing.T) {
	assertRule(t, "[1, 2, 3][-1] == 3", nil, true)
	assertRule(t, "[1, 2, 3]&[9] == null", nil, true)
	assertRule(t, "'hello world'[6:] == 'world'", nil, true)
	assertRule(t, "'hello world'[:5] == 'hello'", nil, true)
	assertRule(t, "[1, 2, 3][1:2] == [2]", nil, true)
	assertRule(t, "[1, 2, 3][:] == [1, 2, 3]", nil, true)
	assertRule(t, "{'one': 1}['one'] == 1", nil, true)
}

func TestParseContainment(t *testing.T) {
	assertRule(t, "'a' in 'abc'", nil, true)
	assertRule(t, "1 in [1, 2]", nil, true)
	assertRule(t, "1 not in [2, 3]", nil, true)
	assertRule(t, "'one' in {'one': 1}", nil, true)
}

func TestParseTernary(t *testing.T) {
	assertRule(t, "(age >= 21 ? 'adult' : 'minor') == 'adult'", map[string]interface{}{"age": 30}, true)
	// right associative
	assertRule(t, "(false ? 1 : false ? 2 : 3) == 3", nil, true)
}

func TestParseFuzzyOperators(t *testing.T) {
	assertRule(t, "name =~ 'L.*'", map[string]interface{}{"name": "Luke"}, true)
	assertRule(t, "name =~~ 'uk'", map[string]interface{}{"name": "Luke"}, true)
	assertRule(t, "name !~ 'L.*'", map[string]interface{}{"name": "Luke"}, false)
	assertRule(t, "name =~ 'uk'", map[string]interface{}{"name": "Luke"}, false)

	// capture groups are scoped to the evaluation that produced them
	assertRule(t, `'abc' =~~ '(a)(b)' and $re_groups == ["a", "b"]`, nil, true)
	assertRule(t, "$re_groups == null", nil, true)
}

func TestParseConstructors(t *testing.T) {
	assertRule(t, "[1, 2,] == [1, 2]", nil, true)
	assertRule(t, "{1, 2} == {2, 1}", nil, true)
	assertRule(t, "({1, 2} | {3}) == {1, 2, 3}", nil, true)
	assertRule(t, "({1, 2} & {2, 3}) == {2}", nil, true)
	assertRule(t, "{'a': 1, 'b': 2}.length == 2", nil, true)
	assertRule(t, "{}.is_empty", nil, true)
	assertRule(t, "[].is_empty", nil, true)
}

func TestParseComprehension(t *testing.T) {
	thing := map[string]interface{}{"numbers": []interface{}{1, 2, 3}}
	assertRule(t, "[v * 2 for v in numbers] == [2, 4, 6]", thing, true)
	assertRule(t, "[v for v in numbers if v > 1] == [2, 3]", thing, true)
	assertRule(t, "[c for c in 'ab'] == ['a', 'b']", nil, true)
}

func TestParseFunctionCalls(t *testing.T) {
	assertRule(t, "$sum([1, 2, 3]) == 6", nil, true)
	assertRule(t, "$max([1, 9, 3]) == 9", nil, true)
	assertRule(t, "$split('a b c').length == 3", nil, true)
	assertRule(t, "$all([v > 0 for v in [1, 2]])", nil, true)
}

func TestParseComment(t *testing.T) {
	ctx := engine.NewContext()
	statement, err := Parse("age > 21 # drinking age", ctx)
	require.NoError(t, err)
	assert.Equal(t, "drinking age", statement.Comment)
}

func TestParseSyntaxErrors(t *testing.T) {
	cases := []string{
		"",
		"1 +",
		"(1",
		"[1, 2",
		"{1: 2",
		"1 ? 2",
		"'unterminated",
		"else",
		"a @ b",
		"1 2",
	}
	for _, text := range cases {
		_, err := Parse(text, engine.NewContext())
		require.Error(t, err, "%q", text)
		assert.ErrorIs(t, err, types.ErrSyntax, "%q", text)
	}
}

func TestParseConstantFoldingErrorsSurfaceEarly(t *testing.T) {
	_, err := Parse("1 / 0", engine.NewContext())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrEvaluation)
}

func TestParseReservedKeyword(t *testing.T) {
	for _, word := range []string{"elif", "else", "while"} {
		_, err := Parse("x == "+word, engine.NewContext())
		require.Error(t, err, word)
		assert.ErrorIs(t, err, types.ErrSyntax, word)
	}
}
