// Package rulekit is an embeddable expression language for filtering and
// matching arbitrary host objects against boolean rules written in a small,
// typed grammar. Rules are never compiled to Go code; all evaluation happens
// inside a closed interpreter, so rule text from untrusted authors can be
// evaluated safely.
//
// # Quick Start
//
//	// Compile once, match many times
//	rule, err := rulekit.New(`publisher == "DC" and issue >= 1`)
//	ok, _ := rule.Matches(map[string]interface{}{"publisher": "DC", "issue": 5})
//
//	// With a configured context
//	rule, err := rulekit.New("price > threshold",
//	    rulekit.WithTypes(map[string]types.DataType{
//	        "price":     types.Float,
//	        "threshold": types.Float,
//	    }),
//	)
//
// A compiled Rule is safe for concurrent use; every evaluation runs with its
// own private state.
//
// For detailed documentation, see:
//   - Types and values: github.com/rulekit/rulekit/pkg/types
//   - Expression nodes: github.com/rulekit/rulekit/pkg/ast
//   - Resolution and builtins: github.com/rulekit/rulekit/pkg/engine
//   - Grammar: github.com/rulekit/rulekit/pkg/parser
package rulekit

import (
	"fmt"
	"iter"

	"github.com/emicklei/dot"

	"github.com/rulekit/rulekit/pkg/ast"
	"github.com/rulekit/rulekit/pkg/engine"
	"github.com/rulekit/rulekit/pkg/parser"
	"github.com/rulekit/rulekit/pkg/types"
)

// Option configures the engine context a rule is compiled and evaluated
// under. See the With functions in package engine.
type Option = engine.Option

// Re-exported context options, so simple embeddings only import rulekit.
var (
	WithResolver     = engine.WithResolver
	WithTypeResolver = engine.WithTypeResolver
	WithTypes        = engine.WithTypes
	WithDefaultValue = engine.WithDefaultValue
	WithTimezone     = engine.WithTimezone
)

// Rule is a compiled logical expression that can be evaluated against
// arbitrary objects. The zero value is not usable; obtain a Rule from New,
// NewWithContext or MustNew.
type Rule struct {
	text      string
	context   *engine.Context
	statement *ast.Statement
}

// New compiles rule text under a fresh context configured by opts.
//
// Compilation verifies the grammar and performs static type checking for
// literals and for symbols with known types. Constant subexpressions are
// folded, so e.g. a literal division by zero is also reported here.
func New(text string, opts ...Option) (*Rule, error) {
	return NewWithContext(text, engine.NewContext(opts...))
}

// NewWithContext compiles rule text under an existing context. The context
// may be shared between rules; it must not be mutated once rules compiled
// under it are being evaluated.
func NewWithContext(text string, ctx *engine.Context) (*Rule, error) {
	statement, err := parser.Parse(text, ctx)
	if err != nil {
		return nil, err
	}
	return &Rule{text: text, context: ctx, statement: statement}, nil
}

// MustNew is like New but panics if the rule cannot be compiled. It
// simplifies safe initialization of global variables.
func MustNew(text string, opts ...Option) *Rule {
	rule, err := New(text, opts...)
	if err != nil {
		panic(fmt.Sprintf("rulekit: New(%q): %v", text, err))
	}
	return rule
}

// IsValid reports whether the rule text is syntactically correct and free of
// static type violations. Symbol type information can be supplied through
// opts (see WithTypes) to extend the check to symbol usage.
func IsValid(text string, opts ...Option) bool {
	_, err := New(text, opts...)
	return err == nil
}

// Text returns the original rule text.
func (r *Rule) Text() string { return r.text }

// String returns the original rule text.
func (r *Rule) String() string { return r.text }

// Comment returns the trailing # comment of the rule text, if any.
func (r *Rule) Comment() string { return r.statement.Comment }

// Context returns the context the rule was compiled under.
func (r *Rule) Context() *engine.Context { return r.context }

// ResultType returns the statically known result type of the rule, which is
// Undefined when it depends on unresolved symbols.
func (r *Rule) ResultType() types.DataType {
	return r.statement.Expression.ResultType()
}

// Symbols returns the sorted names of the symbols the rule refers to. Hosts
// can use this to validate rules against the data they intend to supply
// before evaluating anything.
func (r *Rule) Symbols() []string { return r.context.Symbols() }

// Evaluate applies the rule to thing and returns the resulting value. Unlike
// Matches, the result is not necessarily a boolean.
func (r *Rule) Evaluate(thing interface{}) (types.Value, error) {
	return r.statement.Evaluate(engine.NewState(r.context, thing))
}

// Matches reports whether thing satisfies the rule. The rule's static result
// type must be compatible with BOOLEAN; the evaluated value's truthiness is
// returned, so e.g. a rule reducing to a non-empty string matches.
func (r *Rule) Matches(thing interface{}) (bool, error) {
	if !types.IsCompatible(r.ResultType(), types.Boolean) {
		return false, types.NewEvaluationError(
			fmt.Sprintf("data type mismatch (rule result is %s, not BOOLEAN)", r.ResultType()))
	}
	value, err := r.Evaluate(thing)
	if err != nil {
		return false, err
	}
	return value.IsTruthy(), nil
}

// Filter lazily yields the members of things that match the rule, with the
// error of the match that produced them (nil for matches). Iteration stops
// after yielding the first erroring member. The returned sequence is
// restartable iff things is.
func (r *Rule) Filter(things iter.Seq[interface{}]) iter.Seq2[interface{}, error] {
	return func(yield func(interface{}, error) bool) {
		for thing := range things {
			matched, err := r.Matches(thing)
			if err != nil {
				yield(thing, err)
				return
			}
			if matched && !yield(thing, nil) {
				return
			}
		}
	}
}

// FilterSlice returns the members of things that match the rule, preserving
// order. The first match error aborts the filtering.
func (r *Rule) FilterSlice(things []interface{}) ([]interface{}, error) {
	var matches []interface{}
	for _, thing := range things {
		matched, err := r.Matches(thing)
		if err != nil {
			return nil, err
		}
		if matched {
			matches = append(matches, thing)
		}
	}
	return matches, nil
}

// Graphviz renders the rule's expression tree as a DOT directed graph,
// suitable for feeding to the graphviz dot tool.
func (r *Rule) Graphviz() *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("label", r.text)
	ast.ToGraphviz(graph, r.statement)
	return graph
}
