// Package ast defines the expression tree rules compile to.
//
// Nodes are built bottom-up by the parser through the New* constructors,
// which perform construction-time type checking against the static result
// types of their operands and fold constant subtrees into [Literal] nodes.
// A built tree is immutable and safe to evaluate concurrently; everything
// mutable lives on the per-evaluation [engine.State].
package ast

import (
	"github.com/rulekit/rulekit/pkg/engine"
	"github.com/rulekit/rulekit/pkg/types"
)

// Expression is a node of a compiled rule. The node set is closed.
type Expression interface {
	// ResultType returns the static type of the value the expression
	// evaluates to, UNDEFINED when it can not be known before evaluation.
	ResultType() types.DataType
	// Evaluate computes the value of the expression for one application
	// of the rule.
	Evaluate(state *engine.State) (types.Value, error)

	isExpression()
}

// Env carries the construction-time environment: the Context rules are
// built under and the stack of loop-variable type bindings opened by
// comprehension expressions.
type Env struct {
	ctx    *engine.Context
	scopes []map[string]types.DataType
}

// NewEnv returns a construction environment for ctx.
func NewEnv(ctx *engine.Context) *Env {
	return &Env{ctx: ctx}
}

// Context returns the Context rules are built under.
func (e *Env) Context() *engine.Context { return e.ctx }

// PushScope binds loop-variable types for the construction of a
// comprehension body.
func (e *Env) PushScope(bindings map[string]types.DataType) {
	e.scopes = append(e.scopes, bindings)
}

// PopScope removes the innermost construction scope.
func (e *Env) PopScope() {
	e.scopes = e.scopes[:len(e.scopes)-1]
}

// ResolveType returns the static type of a symbol, consulting loop-variable
// bindings before the Context.
func (e *Env) ResolveType(name, scope string) (types.DataType, error) {
	if scope == "" {
		for i := len(e.scopes) - 1; i >= 0; i-- {
			if dt, ok := e.scopes[i][name]; ok {
				return dt, nil
			}
		}
	}
	return e.ctx.ResolveType(name, scope)
}

// scopedType reports whether name is bound by an enclosing comprehension.
func (e *Env) scopedType(name string) bool {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if _, ok := e.scopes[i][name]; ok {
			return true
		}
	}
	return false
}

// Literal is a value known at construction time. Constant folding rewrites
// subtrees whose operands are all literals into a single Literal.
type Literal struct {
	Value types.Value
	typ   types.DataType
}

// NewLiteral wraps a value as an expression node.
func NewLiteral(value types.Value) *Literal {
	return &Literal{Value: value, typ: types.FromValue(value)}
}

func (l *Literal) ResultType() types.DataType { return l.typ }
func (l *Literal) Evaluate(*engine.State) (types.Value, error) {
	return l.Value, nil
}
func (*Literal) isExpression() {}

// isReduced reports whether every expression is a literal, making the
// parent expression constant.
func isReduced(exprs ...Expression) bool {
	for _, expr := range exprs {
		if expr == nil {
			continue
		}
		if _, ok := expr.(*Literal); !ok {
			return false
		}
	}
	return true
}

// fold evaluates expr at construction time and replaces it with a Literal
// when operands are all literals. Evaluation failures become construction
// errors, surfacing bad constant expressions when the rule is built.
func fold(env *Env, expr Expression, operands ...Expression) (Expression, error) {
	if !isReduced(operands...) {
		return expr, nil
	}
	value, err := expr.Evaluate(engine.NewState(env.ctx, nil))
	if err != nil {
		return nil, err
	}
	return NewLiteral(value), nil
}

// memberResultType derives the common static member type of container
// member expressions: the shared type when they agree (NULL members aside),
// UNDEFINED otherwise.
func memberResultType(members []Expression) types.DataType {
	var found *types.DataType
	for _, member := range members {
		mt := member.ResultType()
		if mt.Kind() == types.KindNull {
			continue
		}
		if found == nil {
			found = &mt
		} else if !found.Equal(mt) {
			return types.Undefined
		}
	}
	if found == nil {
		return types.Undefined
	}
	return *found
}

// Array is an array constructor expression.
type Array struct {
	Members []Expression
	typ     types.DataType
}

// NewArray builds an array constructor, folding it when every member is a
// literal.
func NewArray(env *Env, members []Expression) (Expression, error) {
	a := &Array{Members: members, typ: types.ArrayOf(memberResultType(members))}
	return fold(env, a, members...)
}

func (a *Array) ResultType() types.DataType { return a.typ }
func (a *Array) Evaluate(state *engine.State) (types.Value, error) {
	values := make(types.ArrayValue, len(a.Members))
	for i, member := range a.Members {
		v, err := member.Evaluate(state)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
func (*Array) isExpression() {}

// Set is a set constructor expression. Members deduplicate on their
// canonical representation, so {1, 1.0} has one member.
type Set struct {
	Members []Expression
	typ     types.DataType
}

// NewSet builds a set constructor, folding it when every member is a
// literal. Unhashable members fail, at construction when they are constant.
func NewSet(env *Env, members []Expression) (Expression, error) {
	for _, member := range members {
		if mt := member.ResultType(); mt.IsCompound() || mt.Kind() == types.KindFunction {
			return nil, types.NewEvaluationError("data type mismatch (unhashable member type: " + mt.Name() + ")")
		}
	}
	s := &Set{Members: members, typ: types.SetOf(memberResultType(members))}
	return fold(env, s, members...)
}

func (s *Set) ResultType() types.DataType { return s.typ }
func (s *Set) Evaluate(state *engine.State) (types.Value, error) {
	values := make([]types.Value, len(s.Members))
	for i, member := range s.Members {
		v, err := member.Evaluate(state)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return types.NewSet(values...)
}
func (*Set) isExpression() {}

// MappingEntry is one key-value pair of a mapping constructor.
type MappingEntry struct {
	Key   Expression
	Value Expression
}

// Mapping is a mapping constructor expression.
type Mapping struct {
	Entries []MappingEntry
	typ     types.DataType
}

// NewMapping builds a mapping constructor. Keys must be scalar; a repeated
// key keeps its position and takes the last value.
func NewMapping(env *Env, entries []MappingEntry) (Expression, error) {
	keys := make([]Expression, 0, len(entries))
	values := make([]Expression, 0, len(entries))
	for _, entry := range entries {
		if kt := entry.Key.ResultType(); kt.IsCompound() || kt.Kind() == types.KindFunction {
			return nil, types.NewEvaluationError("data type mismatch (unhashable key type: " + kt.Name() + ")")
		}
		keys = append(keys, entry.Key)
		values = append(values, entry.Value)
	}
	m := &Mapping{
		Entries: entries,
		typ:     types.MappingOf(memberResultType(keys), memberResultType(values)),
	}
	operands := append(keys, values...)
	return fold(env, m, operands...)
}

func (m *Mapping) ResultType() types.DataType { return m.typ }
func (m *Mapping) Evaluate(state *engine.State) (types.Value, error) {
	mapping := types.NewMapping()
	for _, entry := range m.Entries {
		key, err := entry.Key.Evaluate(state)
		if err != nil {
			return nil, err
		}
		value, err := entry.Value.Evaluate(state)
		if err != nil {
			return nil, err
		}
		if err := mapping.Put(key, value); err != nil {
			return nil, err
		}
	}
	return mapping, nil
}
func (*Mapping) isExpression() {}

// Statement is the top level node of a parsed rule.
type Statement struct {
	Expression Expression
	// Comment is the text of the trailing # comment, when one exists.
	Comment string
}

// Evaluate applies the statement to the evaluation state.
func (s *Statement) Evaluate(state *engine.State) (types.Value, error) {
	return s.Expression.Evaluate(state)
}
