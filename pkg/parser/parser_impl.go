package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rulekit/rulekit/pkg/ast"
	"github.com/rulekit/rulekit/pkg/engine"
	"github.com/rulekit/rulekit/pkg/types"
)

// builder defers the construction of an expression node until the whole
// rule has been parsed, so comprehension scopes can be established before
// their bodies are built.
type builder func(env *ast.Env) (ast.Expression, error)

// Parser implements a recursive descent parser for the rule grammar.
// It uses Pratt's "Top Down Operator Precedence" algorithm to handle
// operator precedence correctly.
type Parser struct {
	lexer   *Lexer
	current Token
}

// NewParser creates a new parser for the given input string.
func NewParser(input string) *Parser {
	p := &Parser{
		lexer: NewLexer(input),
	}

	// Read the first token
	p.advance()

	return p
}

// Operator precedence table (binding power)
// Higher values bind more tightly
const (
	precTernary        = 10  // ? :
	precOr             = 20  // or
	precAnd            = 30  // and
	precNot            = 35  // not (prefix)
	precEquality       = 40  // == != (nonassociative)
	precComparison     = 50  // < <= > >= =~ =~~ !~ !~~ in (nonassociative)
	precBwOr           = 60  // |
	precBwXor          = 70  // ^
	precBwAnd          = 80  // &
	precShift          = 90  // << >>
	precAdditive       = 100 // + -
	precMultiplicative = 110 // * / // %
	precUnaryMinus     = 120 // - (prefix)
	precPow            = 130 // **
	precAccessor       = 140 // . &. [ &[ (
)

var precedence = map[TokenType]int{
	TokenQmark:        precTernary,
	TokenOr:           precOr,
	TokenAnd:          precAnd,
	TokenEq:           precEquality,
	TokenNe:           precEquality,
	TokenLt:           precComparison,
	TokenLe:           precComparison,
	TokenGt:           precComparison,
	TokenGe:           precComparison,
	TokenEqFzm:        precComparison,
	TokenEqFzs:        precComparison,
	TokenNeFzm:        precComparison,
	TokenNeFzs:        precComparison,
	TokenIn:           precComparison,
	TokenNot:          precComparison, // "not in"
	TokenBwOr:         precBwOr,
	TokenBwXor:        precBwXor,
	TokenBwAnd:        precBwAnd,
	TokenBwLsh:        precShift,
	TokenBwRsh:        precShift,
	TokenAdd:          precAdditive,
	TokenSub:          precAdditive,
	TokenMul:          precMultiplicative,
	TokenTDiv:         precMultiplicative,
	TokenFDiv:         precMultiplicative,
	TokenMod:          precMultiplicative,
	TokenPow:          precPow,
	TokenAttr:         precAccessor,
	TokenSafeAttr:     precAccessor,
	TokenLBracket:     precAccessor,
	TokenSafeLBracket: precAccessor,
	TokenLParen:       precAccessor,
}

// getPrecedence returns the precedence of a token type.
func (p *Parser) getPrecedence(tt TokenType) int {
	if prec, ok := precedence[tt]; ok {
		return prec
	}
	return 0
}

// nonAssociative reports whether operators of the precedence level can not
// be chained, making e.g. "a < b < c" a syntax error.
func nonAssociative(prec int) bool {
	return prec == precEquality || prec == precComparison
}

// advance moves to the next token.
func (p *Parser) advance() {
	p.current = p.lexer.Next()
}

// expect checks if the current token matches the expected type and advances.
func (p *Parser) expect(tt TokenType) error {
	if p.current.Type != tt {
		return p.syntaxError(fmt.Sprintf("syntax error (expected %s but got %s)", tt.String(), p.current.Type.String()))
	}
	p.advance()
	return nil
}

// syntaxError creates a parser error at the current token.
func (p *Parser) syntaxError(message string) error {
	if p.current.Type == TokenError {
		return p.lexer.Error()
	}
	return types.NewRuleSyntaxError(message, p.current.Position, p.current.Value)
}

// parseStatement parses a whole rule: one expression, optionally followed
// by a trailing # comment.
func (p *Parser) parseStatement() (builder, string, error) {
	if p.current.Type == TokenEOF {
		return nil, "", p.syntaxError("syntax error (empty rule)")
	}

	expression, err := p.parseExpression(0)
	if err != nil {
		return nil, "", err
	}

	var comment string
	if p.current.Type == TokenComment {
		comment = strings.TrimSpace(strings.TrimPrefix(p.current.Value, "#"))
		p.advance()
	}

	if p.current.Type != TokenEOF {
		return nil, "", p.syntaxError(fmt.Sprintf("syntax error (unexpected token %s)", p.current.Type.String()))
	}

	return expression, comment, nil
}

// parseExpression parses an expression with operator precedence.
// rbp is the right binding power (minimum precedence).
func (p *Parser) parseExpression(rbp int) (builder, error) {
	// Parse prefix expression (nud - null denotation)
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	// Parse infix expressions while precedence allows (led - left denotation)
	for rbp < p.getPrecedence(p.current.Type) {
		left, err = p.parseInfix(left)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

// parsePrefix parses a prefix expression (nud - null denotation).
// These are expressions that don't require a left-hand side.
func (p *Parser) parsePrefix() (builder, error) {
	token := p.current

	switch token.Type {
	case TokenFloat:
		return p.parseFloat()
	case TokenString:
		return p.parseString()
	case TokenBytes:
		return p.parseBytes()
	case TokenDatetime:
		return p.parseDatetime()
	case TokenTimedelta:
		return p.parseTimedelta()
	case TokenBoolean:
		return p.parseBoolean()
	case TokenNull:
		return p.parseNull()
	case TokenSymbol:
		return p.parseSymbol()
	case TokenSub:
		return p.parseUnary("uminus", precUnaryMinus)
	case TokenNot:
		return p.parseUnary("not", precNot)
	case TokenLParen:
		return p.parseGrouping()
	case TokenLBracket:
		return p.parseArrayConstructor()
	case TokenLBrace:
		return p.parseBraceConstructor()
	case TokenError:
		return nil, p.lexer.Error()
	default:
		return nil, p.syntaxError(fmt.Sprintf("syntax error (unexpected token %s)", token.Type.String()))
	}
}

// parseInfix parses an infix expression (led - left denotation).
// These are expressions that require a left-hand side.
func (p *Parser) parseInfix(left builder) (builder, error) {
	token := p.current

	switch token.Type {
	case TokenQmark:
		return p.parseTernary(left)
	case TokenAttr, TokenSafeAttr:
		return p.parseGetAttribute(left)
	case TokenLBracket, TokenSafeLBracket:
		return p.parseBrackets(left)
	case TokenLParen:
		return p.parseCall(left)
	case TokenNot:
		return p.parseNotIn(left)
	default:
		return p.parseBinaryOp(left)
	}
}

// Literal expressions

// parseFloat parses a FLOAT literal, including the inf and nan keywords.
func (p *Parser) parseFloat() (builder, error) {
	text := p.current.Value
	p.advance()
	return func(env *ast.Env) (ast.Expression, error) {
		value, err := types.ParseFloatLiteral(text)
		if err != nil {
			return nil, err
		}
		return ast.NewLiteral(value), nil
	}, nil
}

// parseString parses a STRING literal, decoding its escape sequences.
func (p *Parser) parseString() (builder, error) {
	value, err := unescapeString(p.current.Value)
	if err != nil {
		return nil, types.NewStringSyntaxError("invalid string literal", p.current.Value)
	}
	p.advance()
	return literalBuilder(types.StringValue(value)), nil
}

// parseBytes parses a BYTES literal. Only the \t, \n, \r, \", \', \\ and
// \xHH escapes are recognized.
func (p *Parser) parseBytes() (builder, error) {
	value, err := unescapeBytes(p.current.Value)
	if err != nil {
		return nil, types.NewBytesSyntaxError(err.Error(), p.current.Value)
	}
	p.advance()
	return literalBuilder(types.BytesValue(value)), nil
}

// parseDatetime parses a DATETIME literal. The text is interpreted when
// the node is built, in the Context's timezone.
func (p *Parser) parseDatetime() (builder, error) {
	text := p.current.Value
	p.advance()
	return func(env *ast.Env) (ast.Expression, error) {
		value, err := types.ParseDatetimeLiteral(text, env.Context().Timezone())
		if err != nil {
			return nil, err
		}
		return ast.NewLiteral(value), nil
	}, nil
}

// parseTimedelta parses a TIMEDELTA literal in ISO 8601 period form.
func (p *Parser) parseTimedelta() (builder, error) {
	text := p.current.Value
	p.advance()
	return func(env *ast.Env) (ast.Expression, error) {
		value, err := types.ParseTimedeltaLiteral(text)
		if err != nil {
			return nil, err
		}
		return ast.NewLiteral(value), nil
	}, nil
}

// parseBoolean parses a boolean literal.
func (p *Parser) parseBoolean() (builder, error) {
	value := p.current.Value == "true"
	p.advance()
	return literalBuilder(types.BoolValue(value)), nil
}

// parseNull parses a null literal.
func (p *Parser) parseNull() (builder, error) {
	p.advance()
	return literalBuilder(types.NullValue{}), nil
}

func literalBuilder(value types.Value) builder {
	return func(env *ast.Env) (ast.Expression, error) {
		return ast.NewLiteral(value), nil
	}
}

// parseSymbol parses a symbol reference. A $ prefix addresses the builtin
// scope.
func (p *Parser) parseSymbol() (builder, error) {
	name := p.current.Value
	scope := ""
	if strings.HasPrefix(name, "$") {
		scope = engine.BuiltinScope
		name = name[1:]
	}
	p.advance()
	return func(env *ast.Env) (ast.Expression, error) {
		return ast.NewSymbol(env, name, scope)
	}, nil
}

// parseUnary parses the prefix operators not and unary minus.
func (p *Parser) parseUnary(op string, prec int) (builder, error) {
	p.advance()
	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}
	return func(env *ast.Env) (ast.Expression, error) {
		operand, err := right(env)
		if err != nil {
			return nil, err
		}
		return ast.NewUnary(env, op, operand)
	}, nil
}

// parseGrouping parses a parenthesized expression.
func (p *Parser) parseGrouping() (builder, error) {
	p.advance() // Skip '('
	expression, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return expression, nil
}

// parseArrayConstructor parses an array constructor [...] or a
// comprehension [result for variable in iterable if condition].
func (p *Parser) parseArrayConstructor() (builder, error) {
	p.advance() // Skip '['

	if p.current.Type == TokenRBracket {
		p.advance()
		return func(env *ast.Env) (ast.Expression, error) {
			return ast.NewArray(env, nil)
		}, nil
	}

	first, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if p.current.Type == TokenFor {
		return p.parseComprehension(first)
	}

	members, err := p.parseMemberList(first, TokenRBracket)
	if err != nil {
		return nil, err
	}
	return func(env *ast.Env) (ast.Expression, error) {
		built, err := buildAll(env, members)
		if err != nil {
			return nil, err
		}
		return ast.NewArray(env, built)
	}, nil
}

// parseComprehension parses the remainder of a comprehension after its
// result expression. The loop variable is bound in a construction scope
// around the result and condition while the nodes are built.
func (p *Parser) parseComprehension(result builder) (builder, error) {
	p.advance() // Skip 'for'

	if p.current.Type != TokenSymbol || strings.HasPrefix(p.current.Value, "$") {
		return nil, p.syntaxError("syntax error (expected a loop variable name)")
	}
	variable := p.current.Value
	p.advance()

	if err := p.expect(TokenIn); err != nil {
		return nil, err
	}
	iterable, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	var condition builder
	if p.current.Type == TokenIf {
		p.advance()
		condition, err = p.parseExpression(0)
		if err != nil {
			return nil, err
		}
	}

	if err := p.expect(TokenRBracket); err != nil {
		return nil, err
	}

	return func(env *ast.Env) (ast.Expression, error) {
		iterableExpr, err := iterable(env)
		if err != nil {
			return nil, err
		}
		bindType := iterableExpr.ResultType().IterableType()
		if iterableExpr.ResultType().Kind() == types.KindString {
			bindType = types.String
		}
		env.PushScope(map[string]types.DataType{variable: bindType})
		defer env.PopScope()

		var conditionExpr ast.Expression
		if condition != nil {
			conditionExpr, err = condition(env)
			if err != nil {
				return nil, err
			}
		}
		resultExpr, err := result(env)
		if err != nil {
			return nil, err
		}
		return ast.NewComprehension(env, resultExpr, variable, iterableExpr, conditionExpr)
	}, nil
}

// parseBraceConstructor parses a set constructor {...} or a mapping
// constructor {key: value, ...}. An empty {} is an empty mapping.
func (p *Parser) parseBraceConstructor() (builder, error) {
	p.advance() // Skip '{'

	if p.current.Type == TokenRBrace {
		p.advance()
		return func(env *ast.Env) (ast.Expression, error) {
			return ast.NewMapping(env, nil)
		}, nil
	}

	first, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if p.current.Type == TokenColon {
		return p.parseMappingConstructor(first)
	}

	members, err := p.parseMemberList(first, TokenRBrace)
	if err != nil {
		return nil, err
	}
	return func(env *ast.Env) (ast.Expression, error) {
		built, err := buildAll(env, members)
		if err != nil {
			return nil, err
		}
		return ast.NewSet(env, built)
	}, nil
}

// parseMappingConstructor parses the remainder of a mapping constructor
// after its first key.
func (p *Parser) parseMappingConstructor(firstKey builder) (builder, error) {
	type entry struct {
		key   builder
		value builder
	}
	var entries []entry

	key := firstKey
	for {
		if err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		value, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{key: key, value: value})

		if p.current.Type == TokenRBrace {
			p.advance()
			break
		}
		if err := p.expect(TokenComma); err != nil {
			return nil, err
		}
		// Trailing comma
		if p.current.Type == TokenRBrace {
			p.advance()
			break
		}
		key, err = p.parseExpression(0)
		if err != nil {
			return nil, err
		}
	}

	return func(env *ast.Env) (ast.Expression, error) {
		built := make([]ast.MappingEntry, len(entries))
		for i, e := range entries {
			k, err := e.key(env)
			if err != nil {
				return nil, err
			}
			v, err := e.value(env)
			if err != nil {
				return nil, err
			}
			built[i] = ast.MappingEntry{Key: k, Value: v}
		}
		return ast.NewMapping(env, built)
	}, nil
}

// parseMemberList parses the remainder of a comma separated member list
// opened by first, up to the closing token. A trailing comma is permitted.
func (p *Parser) parseMemberList(first builder, closing TokenType) ([]builder, error) {
	members := []builder{first}
	for {
		if p.current.Type == closing {
			p.advance()
			return members, nil
		}
		if err := p.expect(TokenComma); err != nil {
			return nil, err
		}
		// Trailing comma
		if p.current.Type == closing {
			p.advance()
			return members, nil
		}
		member, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
}

// Infix expressions

// parseTernary parses a conditional expression.
// Syntax: condition ? case_true : case_false (right-associative)
func (p *Parser) parseTernary(condition builder) (builder, error) {
	p.advance() // Skip '?'

	caseTrue, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenColon); err != nil {
		return nil, err
	}
	caseFalse, err := p.parseExpression(precTernary - 1)
	if err != nil {
		return nil, err
	}

	return func(env *ast.Env) (ast.Expression, error) {
		c, err := condition(env)
		if err != nil {
			return nil, err
		}
		t, err := caseTrue(env)
		if err != nil {
			return nil, err
		}
		f, err := caseFalse(env)
		if err != nil {
			return nil, err
		}
		return ast.NewTernary(env, c, t, f)
	}, nil
}

// parseGetAttribute parses an attribute access.
// Syntax: object.name or object&.name
func (p *Parser) parseGetAttribute(object builder) (builder, error) {
	safe := p.current.Type == TokenSafeAttr
	p.advance()

	if p.current.Type != TokenSymbol || strings.HasPrefix(p.current.Value, "$") {
		return nil, p.syntaxError("syntax error (expected an attribute name)")
	}
	name := p.current.Value
	p.advance()

	return func(env *ast.Env) (ast.Expression, error) {
		obj, err := object(env)
		if err != nil {
			return nil, err
		}
		return ast.NewGetAttribute(env, obj, name, safe)
	}, nil
}

// parseBrackets parses an item access or a slice.
// Syntax: container[item], container[start:stop], and the &[ safe forms.
// Either slice endpoint may be omitted.
func (p *Parser) parseBrackets(container builder) (builder, error) {
	safe := p.current.Type == TokenSafeLBracket
	p.advance()

	var start, stop builder
	var err error
	isSlice := false

	if p.current.Type == TokenColon {
		isSlice = true
	} else {
		start, err = p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		isSlice = p.current.Type == TokenColon
	}

	if isSlice {
		p.advance() // Skip ':'
		if p.current.Type != TokenRBracket {
			stop, err = p.parseExpression(0)
			if err != nil {
				return nil, err
			}
		}
	}

	if err := p.expect(TokenRBracket); err != nil {
		return nil, err
	}

	if !isSlice {
		item := start
		return func(env *ast.Env) (ast.Expression, error) {
			c, err := container(env)
			if err != nil {
				return nil, err
			}
			i, err := item(env)
			if err != nil {
				return nil, err
			}
			return ast.NewGetItem(env, c, i, safe)
		}, nil
	}

	return func(env *ast.Env) (ast.Expression, error) {
		c, err := container(env)
		if err != nil {
			return nil, err
		}
		var startExpr, stopExpr ast.Expression
		if start != nil {
			if startExpr, err = start(env); err != nil {
				return nil, err
			}
		}
		if stop != nil {
			if stopExpr, err = stop(env); err != nil {
				return nil, err
			}
		}
		return ast.NewGetSlice(env, c, startExpr, stopExpr, safe)
	}, nil
}

// parseCall parses a function call.
// Syntax: function(arg1, arg2, ...)
func (p *Parser) parseCall(function builder) (builder, error) {
	p.advance() // Skip '('

	var arguments []builder
	if p.current.Type != TokenRParen {
		for {
			argument, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}
			arguments = append(arguments, argument)

			if p.current.Type == TokenRParen {
				break
			}
			if err := p.expect(TokenComma); err != nil {
				return nil, err
			}
		}
	}
	p.advance() // Skip ')'

	return func(env *ast.Env) (ast.Expression, error) {
		fn, err := function(env)
		if err != nil {
			return nil, err
		}
		args, err := buildAll(env, arguments)
		if err != nil {
			return nil, err
		}
		return ast.NewCall(env, fn, args)
	}, nil
}

// parseNotIn parses the negated membership test.
// Syntax: member not in container
func (p *Parser) parseNotIn(member builder) (builder, error) {
	p.advance() // Skip 'not'
	if err := p.expect(TokenIn); err != nil {
		return nil, err
	}

	container, err := p.parseExpression(precComparison)
	if err != nil {
		return nil, err
	}
	if err := p.checkNonAssociative(precComparison); err != nil {
		return nil, err
	}

	return func(env *ast.Env) (ast.Expression, error) {
		m, err := member(env)
		if err != nil {
			return nil, err
		}
		c, err := container(env)
		if err != nil {
			return nil, err
		}
		contains, err := ast.NewContains(env, m, c)
		if err != nil {
			return nil, err
		}
		return ast.NewUnary(env, "not", contains)
	}, nil
}

// parseBinaryOp parses a binary operator expression.
func (p *Parser) parseBinaryOp(left builder) (builder, error) {
	op := p.current
	prec := p.getPrecedence(op.Type)
	if prec == 0 {
		return nil, p.syntaxError(fmt.Sprintf("syntax error (unexpected token %s)", op.Type.String()))
	}
	p.advance()

	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}
	if nonAssociative(prec) {
		if err := p.checkNonAssociative(prec); err != nil {
			return nil, err
		}
	}

	return func(env *ast.Env) (ast.Expression, error) {
		l, err := left(env)
		if err != nil {
			return nil, err
		}
		r, err := right(env)
		if err != nil {
			return nil, err
		}
		return buildBinary(env, op.Type, l, r)
	}, nil
}

// checkNonAssociative rejects chained operators of a nonassociative
// precedence level.
func (p *Parser) checkNonAssociative(prec int) error {
	if p.getPrecedence(p.current.Type) == prec {
		return p.syntaxError(fmt.Sprintf("syntax error (%s can not be chained)", p.current.Type.String()))
	}
	return nil
}

// buildBinary constructs the expression node for a binary operator.
func buildBinary(env *ast.Env, tt TokenType, left, right ast.Expression) (ast.Expression, error) {
	switch tt {
	case TokenAdd:
		return ast.NewAdd(env, left, right)
	case TokenSub:
		return ast.NewSubtract(env, left, right)
	case TokenMul:
		return ast.NewArithmetic(env, "mul", left, right)
	case TokenTDiv:
		return ast.NewArithmetic(env, "tdiv", left, right)
	case TokenFDiv:
		return ast.NewArithmetic(env, "fdiv", left, right)
	case TokenMod:
		return ast.NewArithmetic(env, "mod", left, right)
	case TokenPow:
		return ast.NewArithmetic(env, "pow", left, right)
	case TokenBwAnd:
		return ast.NewBitwise(env, "bwand", left, right)
	case TokenBwOr:
		return ast.NewBitwise(env, "bwor", left, right)
	case TokenBwXor:
		return ast.NewBitwise(env, "bwxor", left, right)
	case TokenBwLsh:
		return ast.NewBitwise(env, "bwlsh", left, right)
	case TokenBwRsh:
		return ast.NewBitwise(env, "bwrsh", left, right)
	case TokenAnd:
		return ast.NewLogic(env, "and", left, right)
	case TokenOr:
		return ast.NewLogic(env, "or", left, right)
	case TokenEq:
		return ast.NewEquality(env, false, left, right)
	case TokenNe:
		return ast.NewEquality(env, true, left, right)
	case TokenLt:
		return ast.NewComparison(env, "lt", left, right)
	case TokenLe:
		return ast.NewComparison(env, "le", left, right)
	case TokenGt:
		return ast.NewComparison(env, "gt", left, right)
	case TokenGe:
		return ast.NewComparison(env, "ge", left, right)
	case TokenEqFzm:
		return ast.NewFuzzy(env, false, false, left, right)
	case TokenEqFzs:
		return ast.NewFuzzy(env, true, false, left, right)
	case TokenNeFzm:
		return ast.NewFuzzy(env, false, true, left, right)
	case TokenNeFzs:
		return ast.NewFuzzy(env, true, true, left, right)
	case TokenIn:
		return ast.NewContains(env, left, right)
	}
	return nil, types.NewRuleSyntaxError(fmt.Sprintf("syntax error (unexpected operator %s)", tt.String()), 0, "")
}

// buildAll constructs the nodes of a builder list.
func buildAll(env *ast.Env, builders []builder) ([]ast.Expression, error) {
	built := make([]ast.Expression, len(builders))
	for i, b := range builders {
		expr, err := b(env)
		if err != nil {
			return nil, err
		}
		built[i] = expr
	}
	return built, nil
}

// unescapeString processes escape sequences in a string literal.
// Handles the common escapes plus \xHH and \uXXXX Unicode escapes.
func unescapeString(s string) (string, error) {
	if !strings.Contains(s, "\\") {
		return s, nil // Fast path: no escapes
	}

	var result strings.Builder
	result.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			result.WriteByte(s[i])
			continue
		}

		i++ // Skip backslash
		if i >= len(s) {
			return "", fmt.Errorf("invalid escape sequence at end of string")
		}

		switch s[i] {
		case 'n':
			result.WriteByte('\n')
		case 't':
			result.WriteByte('\t')
		case 'r':
			result.WriteByte('\r')
		case 'b':
			result.WriteByte('\b')
		case 'f':
			result.WriteByte('\f')
		case '0':
			result.WriteByte(0)
		case '\\':
			result.WriteByte('\\')
		case '"':
			result.WriteByte('"')
		case '\'':
			result.WriteByte('\'')
		case 'x':
			if i+2 >= len(s) {
				return "", fmt.Errorf("invalid \\x escape: not enough characters")
			}
			b, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				return "", fmt.Errorf("invalid \\x escape: %s", s[i+1:i+3])
			}
			result.WriteByte(byte(b))
			i += 2
		case 'u':
			if i+4 >= len(s) {
				return "", fmt.Errorf("invalid \\u escape: not enough characters")
			}
			codePoint, err := strconv.ParseUint(s[i+1:i+5], 16, 32)
			if err != nil {
				return "", fmt.Errorf("invalid \\u escape: %s", s[i+1:i+5])
			}
			result.WriteRune(rune(codePoint))
			i += 4
		default:
			return "", fmt.Errorf("invalid escape sequence: \\%c", s[i])
		}
	}

	return result.String(), nil
}

// unescapeBytes processes escape sequences in a bytes literal. The escape
// set is restricted to \t, \n, \r, \", \', \\ and \xHH.
func unescapeBytes(s string) ([]byte, error) {
	result := make([]byte, 0, len(s))

	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return nil, fmt.Errorf("invalid bytes literal (non-ASCII character at position %d)", i)
		}
		if s[i] != '\\' {
			result = append(result, s[i])
			continue
		}

		i++ // Skip backslash
		if i >= len(s) {
			return nil, fmt.Errorf("invalid bytes literal (invalid escape at position %d)", i-1)
		}

		switch s[i] {
		case 't':
			result = append(result, '\t')
		case 'n':
			result = append(result, '\n')
		case 'r':
			result = append(result, '\r')
		case '"':
			result = append(result, '"')
		case '\'':
			result = append(result, '\'')
		case '\\':
			result = append(result, '\\')
		case 'x':
			if i+2 >= len(s) {
				return nil, fmt.Errorf("invalid bytes literal (invalid escape at position %d)", i-1)
			}
			b, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				return nil, fmt.Errorf("invalid bytes literal (invalid escape at position %d)", i-1)
			}
			result = append(result, byte(b))
			i += 2
		default:
			return nil, fmt.Errorf("invalid bytes literal (invalid escape at position %d)", i-1)
		}
	}

	return result, nil
}
