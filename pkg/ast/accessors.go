package ast

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/rulekit/rulekit/pkg/engine"
	"github.com/rulekit/rulekit/pkg/types"
)

// integerIndex converts a FLOAT value used as an index into an int64,
// rejecting values with a fractional part.
func integerIndex(v types.Value) (int64, error) {
	if !types.IsIntegerNumber(v) {
		return 0, errTypeMismatch("not an integer number")
	}
	return v.(types.FloatValue).Int64()
}

// Contains is the in operator. Membership in a MAPPING checks its keys.
type Contains struct {
	Container Expression
	Member    Expression
}

// NewContains builds a membership test. STRING and BYTES containers
// require a member of the same kind.
func NewContains(env *Env, member, container Expression) (Expression, error) {
	ct := container.ResultType()
	switch ct.Kind() {
	case types.KindString, types.KindBytes:
		if mt := member.ResultType(); !mt.IsUndefined() && mt.Kind() != ct.Kind() {
			return nil, errTypeMismatch("")
		}
	default:
		if !ct.IsUndefined() && ct.IsScalar() {
			return nil, errTypeMismatch("")
		}
	}
	return fold(env, &Contains{Container: container, Member: member}, container, member)
}

func (c *Contains) ResultType() types.DataType { return types.Boolean }
func (c *Contains) Evaluate(state *engine.State) (types.Value, error) {
	container, err := c.Container.Evaluate(state)
	if err != nil {
		return nil, err
	}
	member, err := c.Member.Evaluate(state)
	if err != nil {
		return nil, err
	}
	switch cv := container.(type) {
	case types.StringValue:
		mv, ok := member.(types.StringValue)
		if !ok {
			return nil, errTypeMismatch("")
		}
		return types.BoolValue(strings.Contains(string(cv), string(mv))), nil
	case types.BytesValue:
		mv, ok := member.(types.BytesValue)
		if !ok {
			return nil, errTypeMismatch("")
		}
		return types.BoolValue(bytes.Contains(cv, mv)), nil
	case types.ArrayValue:
		return types.BoolValue(cv.Contains(member)), nil
	case *types.SetValue:
		return types.BoolValue(cv.Contains(member)), nil
	case *types.MappingValue:
		return types.BoolValue(cv.ContainsKey(member)), nil
	}
	return nil, errTypeMismatch("")
}
func (*Contains) isExpression() {}

// GetAttribute retrieves a named attribute of an object. Mapping keys
// resolve before the attributes of the mapping itself, so a key named
// length shadows the length attribute. The safe variant yields NULL for a
// NULL object instead of failing.
type GetAttribute struct {
	Object Expression
	Name   string
	Safe   bool
	typ    types.DataType
}

// NewGetAttribute builds an attribute access expression. When the object's
// type is known at construction, an attribute unknown for that type fails
// immediately, except on MAPPING objects whose keys can not be known yet.
func NewGetAttribute(env *Env, object Expression, name string, safe bool) (Expression, error) {
	g := &GetAttribute{Object: object, Name: name, Safe: safe, typ: types.Undefined}
	ot := object.ResultType()
	if !ot.IsUndefined() && !(ot.Kind() == types.KindNull && safe) {
		dt, ok := env.Context().AttributeType(ot, name)
		if ok {
			g.typ = dt
		} else if ot.Kind() != types.KindMapping {
			return nil, types.NewAttributeResolutionError(name, ot, types.Suggest(name, engine.AttributeNames(ot.Kind())))
		}
	}
	return fold(env, g, object)
}

func (g *GetAttribute) ResultType() types.DataType { return g.typ }
func (g *GetAttribute) Evaluate(state *engine.State) (types.Value, error) {
	object, err := g.Object.Evaluate(state)
	if err != nil {
		return nil, err
	}
	if _, isNull := object.(types.NullValue); isNull && g.Safe {
		return types.NullValue{}, nil
	}

	ctx := state.Context()
	value, nestedErr := ctx.ResolveNested(object, g.Name)
	if nestedErr == nil {
		return value, nil
	}
	value, attrErr := ctx.ResolveAttribute(state, object, g.Name)
	if attrErr == nil {
		return value, nil
	}
	if dv, ok := ctx.DefaultValue(); ok {
		return dv, nil
	}

	// Surface the attribute error, carrying the better of the two
	// suggestions.
	var are *types.AttributeResolutionError
	var sre *types.SymbolResolutionError
	if errors.As(attrErr, &are) && errors.As(nestedErr, &sre) && sre.Suggestion != "" {
		if are.Suggestion == "" {
			are.Suggestion = sre.Suggestion
		} else {
			are.Suggestion = types.Suggest(g.Name, []string{are.Suggestion, sre.Suggestion})
		}
	}
	return nil, attrErr
}
func (*GetAttribute) isExpression() {}

// GetItem retrieves an item of a container by index or key. STRING, BYTES
// and ARRAY containers index by integer, negative values counting from the
// end; MAPPING containers look up by key. The safe variant yields NULL for
// a NULL container or a failed lookup.
type GetItem struct {
	Container Expression
	Item      Expression
	Safe      bool
	typ       types.DataType
}

// NewGetItem builds an item access expression.
func NewGetItem(env *Env, container, item Expression, safe bool) (Expression, error) {
	g := &GetItem{Container: container, Item: item, Safe: safe, typ: types.Undefined}
	ct := container.ResultType()
	switch ct.Kind() {
	case types.KindString:
		if !types.IsCompatible(types.Float, item.ResultType()) {
			return nil, errTypeMismatch("not an integer number")
		}
		g.typ = types.String
	case types.KindBytes:
		if !types.IsCompatible(types.Float, item.ResultType()) {
			return nil, errTypeMismatch("not an integer number")
		}
		g.typ = types.Bytes
	case types.KindArray:
		if !types.IsCompatible(types.Float, item.ResultType()) {
			return nil, errTypeMismatch("not an integer number")
		}
		g.typ = ct.ValueType()
	case types.KindMapping:
		if !types.IsCompatible(ct.KeyType(), item.ResultType()) {
			// The key can never be present, so the safe access is a
			// constant NULL and the strict one a constant failure.
			if safe {
				return NewLiteral(types.NullValue{}), nil
			}
			return nil, types.NewLookupError("key is not compatible with the mapping")
		}
		g.typ = ct.ValueType()
	case types.KindSet:
		return nil, errTypeMismatch("container is a set")
	case types.KindUndefined:
	default:
		if !(ct.Kind() == types.KindNull && safe) {
			return nil, errTypeMismatch("")
		}
	}
	return fold(env, g, container, item)
}

func (g *GetItem) ResultType() types.DataType { return g.typ }
func (g *GetItem) Evaluate(state *engine.State) (types.Value, error) {
	container, err := g.Container.Evaluate(state)
	if err != nil {
		return nil, err
	}
	if _, isNull := container.(types.NullValue); isNull {
		if g.Safe {
			return types.NullValue{}, nil
		}
		return nil, errTypeMismatch("container is null")
	}
	item, err := g.Item.Evaluate(state)
	if err != nil {
		return nil, err
	}
	value, err := g.lookup(container, item)
	if err != nil {
		var le *types.LookupError
		if g.Safe && errors.As(err, &le) {
			return types.NullValue{}, nil
		}
		return nil, err
	}
	return value, nil
}

func (g *GetItem) lookup(container, item types.Value) (types.Value, error) {
	switch cv := container.(type) {
	case types.StringValue:
		i, err := integerIndex(item)
		if err != nil {
			return nil, err
		}
		runes := []rune(string(cv))
		idx, err := types.ResolveIndex(i, len(runes))
		if err != nil {
			return nil, err
		}
		return types.StringValue(runes[idx]), nil
	case types.BytesValue:
		i, err := integerIndex(item)
		if err != nil {
			return nil, err
		}
		idx, err := types.ResolveIndex(i, len(cv))
		if err != nil {
			return nil, err
		}
		return types.BytesValue{cv[idx]}, nil
	case types.ArrayValue:
		i, err := integerIndex(item)
		if err != nil {
			return nil, err
		}
		idx, err := types.ResolveIndex(i, len(cv))
		if err != nil {
			return nil, err
		}
		return cv[idx], nil
	case *types.MappingValue:
		value, ok := cv.Get(item)
		if !ok {
			return nil, types.NewLookupError(fmt.Sprintf("key %s does not exist", item))
		}
		return value, nil
	case *types.SetValue:
		return nil, errTypeMismatch("container is a set")
	}
	return nil, errTypeMismatch("")
}
func (*GetItem) isExpression() {}

// GetSlice retrieves a contiguous range of a STRING, BYTES or ARRAY container.
// Either endpoint may be absent or NULL, meaning the respective boundary,
// and negative endpoints count from the end. The safe variant yields NULL
// for a NULL container.
type GetSlice struct {
	Container Expression
	Start     Expression
	Stop      Expression
	Safe      bool
	typ       types.DataType
}

// NewGetSlice builds a slice expression. Start and stop may be nil.
func NewGetSlice(env *Env, container, start, stop Expression, safe bool) (Expression, error) {
	g := &GetSlice{Container: container, Start: start, Stop: stop, Safe: safe, typ: types.Undefined}
	ct := container.ResultType()
	switch ct.Kind() {
	case types.KindString:
		g.typ = types.String
	case types.KindBytes:
		g.typ = types.Bytes
	case types.KindArray:
		g.typ = ct
	case types.KindSet:
		return nil, errTypeMismatch("container is a set")
	case types.KindUndefined:
	default:
		if !(ct.Kind() == types.KindNull && safe) {
			return nil, errTypeMismatch("")
		}
	}
	return fold(env, g, container, start, stop)
}

func (g *GetSlice) ResultType() types.DataType { return g.typ }
func (g *GetSlice) Evaluate(state *engine.State) (types.Value, error) {
	container, err := g.Container.Evaluate(state)
	if err != nil {
		return nil, err
	}
	if _, isNull := container.(types.NullValue); isNull {
		if g.Safe {
			return types.NullValue{}, nil
		}
		return nil, errTypeMismatch("container is null")
	}
	start, err := g.endpoint(state, g.Start)
	if err != nil {
		return nil, err
	}
	stop, err := g.endpoint(state, g.Stop)
	if err != nil {
		return nil, err
	}
	switch cv := container.(type) {
	case types.StringValue:
		runes := []rune(string(cv))
		lo, hi := types.ResolveSlice(start, stop, len(runes))
		return types.StringValue(runes[lo:hi]), nil
	case types.BytesValue:
		lo, hi := types.ResolveSlice(start, stop, len(cv))
		return cv[lo:hi], nil
	case types.ArrayValue:
		lo, hi := types.ResolveSlice(start, stop, len(cv))
		return cv[lo:hi], nil
	case *types.SetValue:
		return nil, errTypeMismatch("container is a set")
	}
	return nil, errTypeMismatch("")
}

// endpoint evaluates a slice endpoint, nil or NULL meaning the boundary.
func (g *GetSlice) endpoint(state *engine.State, expr Expression) (*int64, error) {
	if expr == nil {
		return nil, nil
	}
	value, err := expr.Evaluate(state)
	if err != nil {
		return nil, err
	}
	if _, isNull := value.(types.NullValue); isNull {
		return nil, nil
	}
	i, err := integerIndex(value)
	if err != nil {
		return nil, err
	}
	return &i, nil
}
func (*GetSlice) isExpression() {}

// Symbol is a name resolved at evaluation time, optionally qualified by a
// scope. The unqualified scope resolves against the thing the rule is
// applied to, shadowed by comprehension loop variables.
type Symbol struct {
	Name  string
	Scope string
	typ   types.DataType
}

// NewSymbol builds a symbol expression. With a type resolver configured,
// unknown symbols fail here instead of at evaluation.
func NewSymbol(env *Env, name, scope string) (Expression, error) {
	if scope == "" {
		env.Context().TrackSymbol(name)
	}
	dt, err := env.ResolveType(name, scope)
	if err != nil {
		return nil, err
	}
	return &Symbol{Name: name, Scope: scope, typ: dt}, nil
}

func (s *Symbol) ResultType() types.DataType { return s.typ }
func (s *Symbol) Evaluate(state *engine.State) (types.Value, error) {
	value, err := state.Context().ResolveSymbol(state, s.Name, s.Scope)
	if err != nil {
		var sre *types.SymbolResolutionError
		if !errors.As(err, &sre) {
			return nil, err
		}
		dv, ok := state.Context().DefaultValue()
		if !ok {
			return nil, err
		}
		value = dv
	}
	if s.typ.IsUndefined() {
		return value, nil
	}

	// NULL satisfies every declared type.
	vt := types.FromValue(value)
	if vt.Kind() == types.KindNull {
		return value, nil
	}
	if !types.IsCompatible(s.typ, vt) {
		return nil, types.NewSymbolTypeError(s.Name, s.typ, vt)
	}
	if s.typ.IsCompound() && !s.typ.ValueType().IsUndefined() && !s.typ.ValueTypeNullable() && hasNullMember(value) {
		return nil, types.NewSymbolTypeError(s.Name, s.typ, vt)
	}
	return value, nil
}
func (*Symbol) isExpression() {}

// hasNullMember reports whether any member of a container value (a mapping
// key for mappings) is NULL.
func hasNullMember(v types.Value) bool {
	var members []types.Value
	switch tv := v.(type) {
	case types.ArrayValue:
		members = tv
	case *types.SetValue:
		members = tv.Members()
	case *types.MappingValue:
		members = tv.Keys()
	default:
		return false
	}
	for _, member := range members {
		if _, ok := member.(types.NullValue); ok {
			return true
		}
	}
	return false
}

// Call applies a FUNCTION value to arguments. Arity and argument types are
// validated against the function's signature at construction when the
// callee's type is known, and against the actual values at evaluation.
type Call struct {
	Function  Expression
	Arguments []Expression
	typ       types.DataType
}

// NewCall builds a function call expression. Calls are never folded; there
// is no syntax for defining functions, so the callee is never constant.
func NewCall(env *Env, function Expression, arguments []Expression) (Expression, error) {
	c := &Call{Function: function, Arguments: arguments, typ: types.Undefined}
	if ft := function.ResultType(); !ft.IsUndefined() {
		argTypes := make([]types.DataType, len(arguments))
		for i, argument := range arguments {
			argTypes[i] = argument.ResultType()
		}
		if err := validateCall(ft, argTypes); err != nil {
			return nil, err
		}
		c.typ = ft.ReturnType()
	}
	return c, nil
}

func validateCall(ft types.DataType, argTypes []types.DataType) error {
	if ft.Kind() != types.KindFunction {
		return errTypeMismatch("not a callable value")
	}
	name := ft.FunctionName()
	if min, ok := ft.MinimumArguments(); ok && len(argTypes) < min {
		return types.NewFunctionCallError(
			fmt.Sprintf("expected at least %d positional arguments", min), name, nil)
	}
	declared, ok := ft.ArgumentTypes()
	if !ok {
		return nil
	}
	if len(argTypes) > len(declared) {
		return types.NewFunctionCallError(
			fmt.Sprintf("expected at most %d positional arguments", len(declared)), name, nil)
	}
	for i, at := range argTypes {
		if !types.IsCompatible(declared[i], at) {
			return types.NewFunctionCallError(
				fmt.Sprintf("data type mismatch (argument #%d)", i+1), name, nil)
		}
	}
	return nil
}

func (c *Call) ResultType() types.DataType { return c.typ }
func (c *Call) Evaluate(state *engine.State) (types.Value, error) {
	callee, err := c.Function.Evaluate(state)
	if err != nil {
		return nil, err
	}
	function, ok := callee.(types.FunctionValue)
	if !ok {
		return nil, errTypeMismatch("not a callable value")
	}
	arguments := make([]types.Value, len(c.Arguments))
	argTypes := make([]types.DataType, len(c.Arguments))
	for i, argument := range c.Arguments {
		value, err := argument.Evaluate(state)
		if err != nil {
			return nil, err
		}
		arguments[i] = value
		argTypes[i] = types.FromValue(value)
	}
	if err := validateCall(function.Type(), argTypes); err != nil {
		return nil, err
	}
	return function.Call(arguments...)
}
func (*Call) isExpression() {}

// Comprehension is the [result for variable in iterable if condition]
// expression. Iteration visits ARRAY and SET members, MAPPING keys, and the
// characters of a STRING; the condition filters members before the result
// is computed. The value is always an ARRAY.
type Comprehension struct {
	Result    Expression
	Variable  string
	Iterable  Expression
	Condition Expression
	typ       types.DataType
}

// NewComprehension builds a comprehension. Result and condition must have
// been constructed under an Env scope binding variable to the iterable's
// member type.
func NewComprehension(env *Env, result Expression, variable string, iterable Expression, condition Expression) (Expression, error) {
	if it := iterable.ResultType(); !it.IsUndefined() && !it.IsIterable() && it.Kind() != types.KindString {
		return nil, errTypeMismatch("comprehension requires an iterable")
	}
	c := &Comprehension{
		Result:    result,
		Variable:  variable,
		Iterable:  iterable,
		Condition: condition,
		typ:       types.ArrayOf(result.ResultType()),
	}
	// Folding would need constant result and condition expressions too,
	// but those refer to the loop variable, so only an empty constant
	// iterable reduces.
	if lit, ok := iterable.(*Literal); ok {
		members, err := iterationMembers(lit.Value)
		if err != nil {
			return nil, err
		}
		if len(members) == 0 {
			return NewLiteral(types.ArrayValue{}), nil
		}
	}
	return c, nil
}

func (c *Comprehension) ResultType() types.DataType { return c.typ }
func (c *Comprehension) Evaluate(state *engine.State) (types.Value, error) {
	iterable, err := c.Iterable.Evaluate(state)
	if err != nil {
		return nil, err
	}
	members, err := iterationMembers(iterable)
	if err != nil {
		return nil, err
	}
	output := make(types.ArrayValue, 0, len(members))
	for _, member := range members {
		state.PushScope(map[string]types.Value{c.Variable: member})
		value, keep, err := c.apply(state)
		state.PopScope()
		if err != nil {
			return nil, err
		}
		if keep {
			output = append(output, value)
		}
	}
	return output, nil
}

func (c *Comprehension) apply(state *engine.State) (types.Value, bool, error) {
	if c.Condition != nil {
		condition, err := c.Condition.Evaluate(state)
		if err != nil {
			return nil, false, err
		}
		if !condition.IsTruthy() {
			return nil, false, nil
		}
	}
	value, err := c.Result.Evaluate(state)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}
func (*Comprehension) isExpression() {}

// iterationMembers enumerates the values a comprehension visits.
func iterationMembers(v types.Value) ([]types.Value, error) {
	switch tv := v.(type) {
	case types.ArrayValue:
		return tv, nil
	case *types.SetValue:
		return tv.Members(), nil
	case *types.MappingValue:
		return tv.Keys(), nil
	case types.StringValue:
		runes := []rune(string(tv))
		members := make([]types.Value, len(runes))
		for i, r := range runes {
			members[i] = types.StringValue(r)
		}
		return members, nil
	}
	return nil, errTypeMismatch("comprehension requires an iterable")
}
