// Package parser compiles rule text into an expression tree.
//
// The parser consists of two main components:
//   - Lexer: tokenizes the rule text into a stream of tokens
//   - Parser: builds the expression tree from tokens using Pratt's
//     "Top Down Operator Precedence" algorithm
//
// Parsing happens in two phases. The token stream is first consumed into a
// tree of deferred builders, checking the syntax; the builders then
// construct the expression nodes bottom-up under a Context, which performs
// construction-time type checking and constant folding. The second phase is
// what lets comprehension loop variables be in scope while their bodies are
// built, even though the body appears before the variable in the text.
package parser

import (
	"github.com/rulekit/rulekit/pkg/ast"
	"github.com/rulekit/rulekit/pkg/engine"
)

// Parse compiles rule text into a statement under ctx.
//
// Syntax errors are reported with position information. Because constant
// subexpressions fold during construction, evaluation errors in constant
// expressions (e.g. a literal division by zero) are also reported here.
func Parse(text string, ctx *engine.Context) (*ast.Statement, error) {
	p := NewParser(text)
	build, comment, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	expression, err := build(ast.NewEnv(ctx))
	if err != nil {
		return nil, err
	}
	return &ast.Statement{Expression: expression, Comment: comment}, nil
}
