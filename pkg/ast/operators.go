package ast

import (
	"github.com/cockroachdb/apd/v3"
	"github.com/dlclark/regexp2"

	"github.com/rulekit/rulekit/pkg/engine"
	"github.com/rulekit/rulekit/pkg/types"
)

func errTypeMismatch(detail string) error {
	if detail == "" {
		return types.NewEvaluationError("data type mismatch")
	}
	return types.NewEvaluationError("data type mismatch (" + detail + ")")
}

// assertCompatible checks an operand's static type against the kinds an
// operator accepts. UNDEFINED operands always pass and are checked again at
// evaluation.
func assertCompatible(operand Expression, kinds ...types.Kind) error {
	dt := operand.ResultType()
	if dt.IsUndefined() {
		return nil
	}
	for _, kind := range kinds {
		if dt.Kind() == kind {
			return nil
		}
	}
	return errTypeMismatch("")
}

// Add is the + operator: FLOAT addition, STRING and BYTES concatenation,
// and the DATETIME/TIMEDELTA combinations.
type Add struct {
	Left, Right Expression
	typ         types.DataType
}

// NewAdd builds an addition expression.
func NewAdd(env *Env, left, right Expression) (Expression, error) {
	kinds := []types.Kind{types.KindFloat, types.KindString, types.KindBytes, types.KindDatetime, types.KindTimedelta}
	if err := assertCompatible(left, kinds...); err != nil {
		return nil, err
	}
	if err := assertCompatible(right, kinds...); err != nil {
		return nil, err
	}
	a := &Add{Left: left, Right: right, typ: types.Undefined}
	lt, rt := left.ResultType(), right.ResultType()
	if !lt.IsUndefined() && !rt.IsUndefined() {
		switch lt.Kind() {
		case types.KindDatetime:
			if rt.Kind() != types.KindTimedelta {
				return nil, errTypeMismatch("")
			}
			a.typ = types.Datetime
		case types.KindTimedelta:
			if rt.Kind() != types.KindDatetime && rt.Kind() != types.KindTimedelta {
				return nil, errTypeMismatch("")
			}
			a.typ = rt
		default:
			if lt.Kind() != rt.Kind() {
				return nil, errTypeMismatch("")
			}
			a.typ = lt
		}
	}
	return fold(env, a, left, right)
}

func (a *Add) ResultType() types.DataType { return a.typ }
func (a *Add) Evaluate(state *engine.State) (types.Value, error) {
	left, err := a.Left.Evaluate(state)
	if err != nil {
		return nil, err
	}
	right, err := a.Right.Evaluate(state)
	if err != nil {
		return nil, err
	}
	switch lv := left.(type) {
	case types.DatetimeValue:
		rv, ok := right.(types.TimedeltaValue)
		if !ok {
			return nil, errTypeMismatch("not a timedelta value")
		}
		return types.DatetimeValue{Time: lv.Time.Add(rv.Duration)}, nil
	case types.TimedeltaValue:
		switch rv := right.(type) {
		case types.TimedeltaValue:
			return types.TimedeltaValue{Duration: lv.Duration + rv.Duration}, nil
		case types.DatetimeValue:
			return types.DatetimeValue{Time: rv.Time.Add(lv.Duration)}, nil
		}
		return nil, errTypeMismatch("not a datetime or timedelta value")
	case types.StringValue:
		rv, ok := right.(types.StringValue)
		if !ok {
			return nil, errTypeMismatch("not a string value")
		}
		return lv + rv, nil
	case types.BytesValue:
		rv, ok := right.(types.BytesValue)
		if !ok {
			return nil, errTypeMismatch("not a bytes value")
		}
		joined := make(types.BytesValue, 0, len(lv)+len(rv))
		joined = append(joined, lv...)
		return append(joined, rv...), nil
	}
	return evalDecimalOp(state, "add", left, right)
}
func (*Add) isExpression() {}

// Subtract is the - operator: FLOAT subtraction and the DATETIME/TIMEDELTA
// combinations. Subtracting two DATETIME values yields a TIMEDELTA.
type Subtract struct {
	Left, Right Expression
	typ         types.DataType
}

// NewSubtract builds a subtraction expression.
func NewSubtract(env *Env, left, right Expression) (Expression, error) {
	kinds := []types.Kind{types.KindFloat, types.KindDatetime, types.KindTimedelta}
	if err := assertCompatible(left, kinds...); err != nil {
		return nil, err
	}
	if err := assertCompatible(right, kinds...); err != nil {
		return nil, err
	}
	s := &Subtract{Left: left, Right: right, typ: types.Undefined}
	lt, rt := left.ResultType(), right.ResultType()
	if !lt.IsUndefined() && !rt.IsUndefined() {
		switch lt.Kind() {
		case types.KindDatetime:
			switch rt.Kind() {
			case types.KindDatetime:
				s.typ = types.Timedelta
			case types.KindTimedelta:
				s.typ = types.Datetime
			default:
				return nil, errTypeMismatch("")
			}
		case types.KindTimedelta:
			if rt.Kind() != types.KindTimedelta {
				return nil, errTypeMismatch("")
			}
			s.typ = types.Timedelta
		default:
			if lt.Kind() != rt.Kind() {
				return nil, errTypeMismatch("")
			}
			s.typ = lt
		}
	}
	return fold(env, s, left, right)
}

func (s *Subtract) ResultType() types.DataType { return s.typ }
func (s *Subtract) Evaluate(state *engine.State) (types.Value, error) {
	left, err := s.Left.Evaluate(state)
	if err != nil {
		return nil, err
	}
	right, err := s.Right.Evaluate(state)
	if err != nil {
		return nil, err
	}
	switch lv := left.(type) {
	case types.DatetimeValue:
		switch rv := right.(type) {
		case types.DatetimeValue:
			return types.TimedeltaValue{Duration: lv.Time.Sub(rv.Time)}, nil
		case types.TimedeltaValue:
			return types.DatetimeValue{Time: lv.Time.Add(-rv.Duration)}, nil
		}
		return nil, errTypeMismatch("not a datetime or timedelta value")
	case types.TimedeltaValue:
		rv, ok := right.(types.TimedeltaValue)
		if !ok {
			return nil, errTypeMismatch("not a timedelta value")
		}
		return types.TimedeltaValue{Duration: lv.Duration - rv.Duration}, nil
	}
	return evalDecimalOp(state, "sub", left, right)
}
func (*Subtract) isExpression() {}

// Arithmetic covers the FLOAT-only operators: * / // % **.
type Arithmetic struct {
	Op          string
	Left, Right Expression
}

// NewArithmetic builds a multiplicative or exponentiation expression. Op is
// one of "mul", "tdiv", "fdiv", "mod" and "pow".
func NewArithmetic(env *Env, op string, left, right Expression) (Expression, error) {
	if err := assertCompatible(left, types.KindFloat); err != nil {
		return nil, err
	}
	if err := assertCompatible(right, types.KindFloat); err != nil {
		return nil, err
	}
	return fold(env, &Arithmetic{Op: op, Left: left, Right: right}, left, right)
}

func (a *Arithmetic) ResultType() types.DataType { return types.Float }
func (a *Arithmetic) Evaluate(state *engine.State) (types.Value, error) {
	left, err := a.Left.Evaluate(state)
	if err != nil {
		return nil, err
	}
	right, err := a.Right.Evaluate(state)
	if err != nil {
		return nil, err
	}
	return evalDecimalOp(state, a.Op, left, right)
}
func (*Arithmetic) isExpression() {}

// evalDecimalOp applies a decimal arithmetic operator under the Context's
// decimal settings. Both operands must be FLOAT values.
func evalDecimalOp(state *engine.State, op string, left, right types.Value) (types.Value, error) {
	lv, ok := left.(types.FloatValue)
	if !ok {
		return nil, errTypeMismatch("not a numeric value")
	}
	rv, ok := right.(types.FloatValue)
	if !ok {
		return nil, errTypeMismatch("not a numeric value")
	}
	decCtx := state.Context().DecimalContext()
	result := new(apd.Decimal)
	var cond apd.Condition
	var err error
	switch op {
	case "add":
		cond, err = decCtx.Add(result, lv.Dec, rv.Dec)
	case "sub":
		cond, err = decCtx.Sub(result, lv.Dec, rv.Dec)
	case "mul":
		cond, err = decCtx.Mul(result, lv.Dec, rv.Dec)
	case "tdiv":
		cond, err = decCtx.Quo(result, lv.Dec, rv.Dec)
	case "fdiv":
		cond, err = decCtx.QuoInteger(result, lv.Dec, rv.Dec)
	case "mod":
		cond, err = decCtx.Rem(result, lv.Dec, rv.Dec)
	case "pow":
		cond, err = decCtx.Pow(result, lv.Dec, rv.Dec)
	default:
		return nil, types.NewEvaluationError("unsupported operator: " + op)
	}
	if err != nil {
		return nil, types.NewEvaluationError("arithmetic failed: " + err.Error())
	}
	if cond.DivisionByZero() {
		return nil, types.NewEvaluationError("arithmetic failed (division by zero)")
	}
	return types.FloatValue{Dec: result}, nil
}

// Bitwise covers & | ^ over natural-number FLOAT operands and the set
// algebra over SET operands, and the shifts << >> over naturals only.
type Bitwise struct {
	Op          string
	Left, Right Expression
	typ         types.DataType
}

// NewBitwise builds a bitwise expression. Op is one of "bwand", "bwor",
// "bwxor", "bwlsh" and "bwrsh"; the shifts accept FLOAT operands only.
func NewBitwise(env *Env, op string, left, right Expression) (Expression, error) {
	kinds := []types.Kind{types.KindFloat, types.KindSet}
	shift := op == "bwlsh" || op == "bwrsh"
	if shift {
		kinds = []types.Kind{types.KindFloat}
	}
	if err := assertCompatible(left, kinds...); err != nil {
		return nil, err
	}
	if err := assertCompatible(right, kinds...); err != nil {
		return nil, err
	}
	lt, rt := left.ResultType(), right.ResultType()
	if !lt.IsUndefined() && !rt.IsUndefined() && lt.Kind() != rt.Kind() {
		return nil, errTypeMismatch("")
	}
	b := &Bitwise{Op: op, Left: left, Right: right, typ: types.Undefined}
	switch {
	case shift, lt.Kind() == types.KindFloat, rt.Kind() == types.KindFloat:
		b.typ = types.Float
	case lt.Kind() == types.KindSet, rt.Kind() == types.KindSet:
		b.typ = types.Set
	}
	// Constant FLOAT operands must be natural numbers; fail at
	// construction instead of on first evaluation.
	for _, operand := range []Expression{left, right} {
		if lit, ok := operand.(*Literal); ok {
			if _, isFloat := lit.Value.(types.FloatValue); isFloat && !types.IsNaturalNumber(lit.Value) {
				return nil, errTypeMismatch("not a natural number")
			}
		}
	}
	return fold(env, b, left, right)
}

func (b *Bitwise) ResultType() types.DataType { return b.typ }
func (b *Bitwise) Evaluate(state *engine.State) (types.Value, error) {
	left, err := b.Left.Evaluate(state)
	if err != nil {
		return nil, err
	}
	right, err := b.Right.Evaluate(state)
	if err != nil {
		return nil, err
	}
	if ls, ok := left.(*types.SetValue); ok {
		rs, ok := right.(*types.SetValue)
		if !ok {
			return nil, errTypeMismatch("")
		}
		switch b.Op {
		case "bwand":
			return ls.Intersection(rs), nil
		case "bwor":
			return ls.Union(rs), nil
		case "bwxor":
			return ls.SymmetricDifference(rs), nil
		}
		return nil, errTypeMismatch("")
	}
	li, err := naturalInt(left)
	if err != nil {
		return nil, err
	}
	ri, err := naturalInt(right)
	if err != nil {
		return nil, err
	}
	var result int64
	switch b.Op {
	case "bwand":
		result = li & ri
	case "bwor":
		result = li | ri
	case "bwxor":
		result = li ^ ri
	case "bwlsh":
		if ri >= 63 || (li<<ri)>>ri != li {
			return nil, types.NewEvaluationError("arithmetic failed (shift result out of range)")
		}
		result = li << ri
	case "bwrsh":
		if ri >= 63 {
			result = 0
		} else {
			result = li >> ri
		}
	default:
		return nil, types.NewEvaluationError("unsupported operator: " + b.Op)
	}
	return types.NewFloatFromInt64(result), nil
}
func (*Bitwise) isExpression() {}

func naturalInt(v types.Value) (int64, error) {
	if !types.IsNaturalNumber(v) {
		return 0, errTypeMismatch("not a natural number")
	}
	return v.(types.FloatValue).Int64()
}

// Logic is the and/or operator. Operands are interpreted through
// truthiness, evaluation short-circuits, and the result is always BOOLEAN.
type Logic struct {
	Op          string
	Left, Right Expression
}

// NewLogic builds a logical conjunction or disjunction. Op is "and" or
// "or".
func NewLogic(env *Env, op string, left, right Expression) (Expression, error) {
	return fold(env, &Logic{Op: op, Left: left, Right: right}, left, right)
}

func (l *Logic) ResultType() types.DataType { return types.Boolean }
func (l *Logic) Evaluate(state *engine.State) (types.Value, error) {
	left, err := l.Left.Evaluate(state)
	if err != nil {
		return nil, err
	}
	if l.Op == "and" {
		if !left.IsTruthy() {
			return types.BoolValue(false), nil
		}
	} else if left.IsTruthy() {
		return types.BoolValue(true), nil
	}
	right, err := l.Right.Evaluate(state)
	if err != nil {
		return nil, err
	}
	return types.BoolValue(right.IsTruthy()), nil
}
func (*Logic) isExpression() {}

// Equality is the == and != operator. Values of different kinds are never
// equal; comparing them is not an error.
type Equality struct {
	Negated     bool
	Left, Right Expression
}

// NewEquality builds an equality comparison.
func NewEquality(env *Env, negated bool, left, right Expression) (Expression, error) {
	// Functions have no value identity and can not be compared.
	if left.ResultType().Kind() == types.KindFunction || right.ResultType().Kind() == types.KindFunction {
		return nil, errTypeMismatch("")
	}
	return fold(env, &Equality{Negated: negated, Left: left, Right: right}, left, right)
}

func (e *Equality) ResultType() types.DataType { return types.Boolean }
func (e *Equality) Evaluate(state *engine.State) (types.Value, error) {
	left, err := e.Left.Evaluate(state)
	if err != nil {
		return nil, err
	}
	right, err := e.Right.Evaluate(state)
	if err != nil {
		return nil, err
	}
	equal := left.Equal(right)
	if e.Negated {
		return types.BoolValue(!equal), nil
	}
	return types.BoolValue(equal), nil
}
func (*Equality) isExpression() {}

// Comparison is the ordering operator family < <= > >=. Operands must be of
// the same orderable kind; two NULL values compare as equal.
type Comparison struct {
	Op          string
	Left, Right Expression
}

// NewComparison builds an ordering comparison. Op is one of "lt", "le",
// "gt" and "ge".
func NewComparison(env *Env, op string, left, right Expression) (Expression, error) {
	kinds := []types.Kind{
		types.KindArray, types.KindBoolean, types.KindDatetime,
		types.KindTimedelta, types.KindFloat, types.KindNull, types.KindString,
	}
	if err := assertCompatible(left, kinds...); err != nil {
		return nil, err
	}
	if err := assertCompatible(right, kinds...); err != nil {
		return nil, err
	}
	lt, rt := left.ResultType(), right.ResultType()
	if !lt.IsUndefined() && !rt.IsUndefined() && lt.Kind() != rt.Kind() {
		return nil, errTypeMismatch("")
	}
	return fold(env, &Comparison{Op: op, Left: left, Right: right}, left, right)
}

func (c *Comparison) ResultType() types.DataType { return types.Boolean }
func (c *Comparison) Evaluate(state *engine.State) (types.Value, error) {
	left, err := c.Left.Evaluate(state)
	if err != nil {
		return nil, err
	}
	right, err := c.Right.Evaluate(state)
	if err != nil {
		return nil, err
	}
	cmp, err := types.Compare(left, right)
	if err != nil {
		return nil, err
	}
	var result bool
	switch c.Op {
	case "lt":
		result = cmp < 0
	case "le":
		result = cmp <= 0
	case "gt":
		result = cmp > 0
	case "ge":
		result = cmp >= 0
	default:
		return nil, types.NewEvaluationError("unsupported operator: " + c.Op)
	}
	return types.BoolValue(result), nil
}
func (*Comparison) isExpression() {}

// Fuzzy is the regular expression comparison family: =~ (full match), =~~
// (search), and their negations !~ and !~~. The left side is the subject
// and must be STRING or NULL; the right side is the pattern. A successful
// match stores its capture groups for the $re_groups builtin.
type Fuzzy struct {
	Search  bool
	Negated bool
	Left    Expression
	Right   Expression

	// compiled is set when the pattern is a constant.
	compiled *regexp2.Regexp
}

// NewFuzzy builds a fuzzy comparison. Constant patterns compile at
// construction, surfacing bad regular expressions as syntax errors.
func NewFuzzy(env *Env, search, negated bool, left, right Expression) (Expression, error) {
	kinds := []types.Kind{types.KindNull, types.KindString}
	if err := assertCompatible(left, kinds...); err != nil {
		return nil, err
	}
	if err := assertCompatible(right, kinds...); err != nil {
		return nil, err
	}
	f := &Fuzzy{Search: search, Negated: negated, Left: left, Right: right}
	if lit, ok := right.(*Literal); ok {
		if pattern, ok := lit.Value.(types.StringValue); ok {
			compiled, err := f.compile(env.ctx, string(pattern))
			if err != nil {
				return nil, err
			}
			f.compiled = compiled
		}
	}
	// Constant subjects still evaluate at runtime: matching mutates the
	// capture group state, which folding would lose.
	return f, nil
}

func (f *Fuzzy) compile(ctx *engine.Context, pattern string) (*regexp2.Regexp, error) {
	source := pattern
	if !f.Search {
		// A match comparison must consume the whole subject.
		source = `\A(?:` + pattern + `)\z`
	}
	compiled, err := regexp2.Compile(source, ctx.RegexOptions())
	if err != nil {
		return nil, types.NewRegexSyntaxError("invalid regular expression", pattern, err)
	}
	return compiled, nil
}

func (f *Fuzzy) ResultType() types.DataType { return types.Boolean }
func (f *Fuzzy) Evaluate(state *engine.State) (types.Value, error) {
	left, err := f.Left.Evaluate(state)
	if err != nil {
		return nil, err
	}
	var subject *string
	switch lv := left.(type) {
	case types.StringValue:
		s := string(lv)
		subject = &s
	case types.NullValue:
	default:
		return nil, errTypeMismatch("")
	}

	pattern := f.compiled
	patternNull := false
	if pattern == nil {
		right, err := f.Right.Evaluate(state)
		if err != nil {
			return nil, err
		}
		switch rv := right.(type) {
		case types.StringValue:
			pattern, err = f.compile(state.Context(), string(rv))
			if err != nil {
				return nil, err
			}
		case types.NullValue:
			patternNull = true
		default:
			return nil, errTypeMismatch("")
		}
	}

	// A null subject or pattern matches only when both are null.
	if subject == nil || patternNull {
		matched := subject == nil && patternNull
		return types.BoolValue(matched != f.Negated), nil
	}

	match, err := pattern.FindStringMatch(*subject)
	if err != nil {
		return nil, types.NewEvaluationError("regular expression matching failed: " + err.Error())
	}
	if match != nil {
		groups := match.Groups()[1:]
		captured := make(types.ArrayValue, len(groups))
		for i, group := range groups {
			if len(group.Captures) == 0 {
				captured[i] = types.NullValue{}
			} else {
				captured[i] = types.StringValue(group.String())
			}
		}
		state.SetRegexGroups(captured)
	}
	return types.BoolValue((match != nil) != f.Negated), nil
}
func (*Fuzzy) isExpression() {}

// Unary is the not and unary minus operator. Negation accepts FLOAT and
// TIMEDELTA operands.
type Unary struct {
	Op    string
	Right Expression
	typ   types.DataType
}

// NewUnary builds a unary expression. Op is "not" or "uminus".
func NewUnary(env *Env, op string, right Expression) (Expression, error) {
	u := &Unary{Op: op, Right: right}
	switch op {
	case "not":
		u.typ = types.Boolean
	case "uminus":
		if err := assertCompatible(right, types.KindFloat, types.KindTimedelta); err != nil {
			return nil, errTypeMismatch("not a numeric or timedelta value")
		}
		u.typ = right.ResultType()
	default:
		return nil, types.NewEvaluationError("unsupported operator: " + op)
	}
	return fold(env, u, right)
}

func (u *Unary) ResultType() types.DataType { return u.typ }
func (u *Unary) Evaluate(state *engine.State) (types.Value, error) {
	right, err := u.Right.Evaluate(state)
	if err != nil {
		return nil, err
	}
	if u.Op == "not" {
		return types.BoolValue(!right.IsTruthy()), nil
	}
	switch rv := right.(type) {
	case types.FloatValue:
		result := new(apd.Decimal)
		result.Neg(rv.Dec)
		return types.FloatValue{Dec: result}, nil
	case types.TimedeltaValue:
		return types.TimedeltaValue{Duration: -rv.Duration}, nil
	}
	return nil, errTypeMismatch("not a numeric or timedelta value")
}
func (*Unary) isExpression() {}

// Ternary is the condition ? caseTrue : caseFalse operator.
type Ternary struct {
	Condition Expression
	CaseTrue  Expression
	CaseFalse Expression
	typ       types.DataType
}

// NewTernary builds a ternary expression. A constant condition reduces to
// the selected branch.
func NewTernary(env *Env, condition, caseTrue, caseFalse Expression) (Expression, error) {
	if lit, ok := condition.(*Literal); ok {
		if lit.Value.IsTruthy() {
			return caseTrue, nil
		}
		return caseFalse, nil
	}
	t := &Ternary{Condition: condition, CaseTrue: caseTrue, CaseFalse: caseFalse, typ: types.Undefined}
	tt, ft := caseTrue.ResultType(), caseFalse.ResultType()
	switch {
	case tt.Equal(ft):
		t.typ = tt
	case tt.Kind() == ft.Kind() && tt.IsCompound():
		t.typ = types.FromKind(tt.Kind())
	}
	return t, nil
}

func (t *Ternary) ResultType() types.DataType { return t.typ }
func (t *Ternary) Evaluate(state *engine.State) (types.Value, error) {
	condition, err := t.Condition.Evaluate(state)
	if err != nil {
		return nil, err
	}
	if condition.IsTruthy() {
		return t.CaseTrue.Evaluate(state)
	}
	return t.CaseFalse.Evaluate(state)
}
func (*Ternary) isExpression() {}
