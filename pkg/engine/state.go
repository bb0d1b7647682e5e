package engine

import (
	"github.com/rulekit/rulekit/pkg/types"
)

// State carries the mutable, per-evaluation data of a single rule
// application. A fresh State is created for every evaluation so a Context
// and its compiled rules stay safe for concurrent use; nothing evaluation
// scoped is ever stored on the Context.
type State struct {
	ctx   *Context
	thing interface{}

	// regexGroups holds the capture groups of the most recent fuzzy
	// comparison, exposed through the $re_groups builtin.
	regexGroups types.Value

	// scopes is the stack of loop-variable bindings pushed by
	// comprehension evaluation, innermost last.
	scopes []map[string]types.Value
}

// NewState builds the evaluation state for applying a rule to thing.
func NewState(ctx *Context, thing interface{}) *State {
	return &State{ctx: ctx, thing: thing, regexGroups: types.NullValue{}}
}

// Context returns the Context the evaluation runs under.
func (s *State) Context() *Context { return s.ctx }

// Thing returns the object the rule is being applied to.
func (s *State) Thing() interface{} { return s.thing }

// RegexGroups returns the capture groups of the most recent fuzzy
// comparison in this evaluation, or NULL before any has run.
func (s *State) RegexGroups() types.Value { return s.regexGroups }

// SetRegexGroups records the capture groups of a fuzzy comparison.
func (s *State) SetRegexGroups(groups types.Value) { s.regexGroups = groups }

// PushScope binds loop variables for the duration of a comprehension body.
func (s *State) PushScope(bindings map[string]types.Value) {
	s.scopes = append(s.scopes, bindings)
}

// PopScope removes the innermost binding scope.
func (s *State) PopScope() {
	s.scopes = s.scopes[:len(s.scopes)-1]
}

// lookupScoped resolves name against the binding scopes, innermost first.
func (s *State) lookupScoped(name string) (types.Value, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if v, ok := s.scopes[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}
