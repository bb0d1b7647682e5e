package types

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Value is the interface implemented by every runtime value kind. The set of
// implementations is closed: the unexported key method prevents host code
// from adding new kinds, so evaluator switches over value kinds are
// exhaustive.
//
// Values are immutable once constructed and safe to share across concurrent
// evaluations.
type Value interface {
	// Type returns the most specific DataType of the value.
	Type() DataType
	// Equal reports whether the value equals another. Cross-kind equality
	// is always false, never an error.
	Equal(other Value) bool
	// IsTruthy reports the boolean interpretation of the value: NULL,
	// false, zero, empty containers and empty strings/bytes are falsey.
	IsTruthy() bool
	// String returns a readable representation for diagnostics.
	String() string

	// key returns a canonical hash key used for SET membership and MAPPING
	// keys. The second return is false for kinds that can not be hashed.
	key() (string, bool)
}

// NullValue represents the null value. It compares equal only to itself and
// is falsey.
type NullValue struct{}

func (NullValue) Type() DataType     { return Null }
func (NullValue) IsTruthy() bool     { return false }
func (NullValue) String() string     { return "null" }
func (NullValue) key() (string, bool) { return "null:", true }
func (NullValue) Equal(other Value) bool {
	_, ok := other.(NullValue)
	return ok
}

// BoolValue represents a boolean value.
type BoolValue bool

func (b BoolValue) Type() DataType { return Boolean }
func (b BoolValue) IsTruthy() bool { return bool(b) }
func (b BoolValue) String() string { return strconv.FormatBool(bool(b)) }
func (b BoolValue) key() (string, bool) {
	return "bool:" + strconv.FormatBool(bool(b)), true
}
func (b BoolValue) Equal(other Value) bool {
	o, ok := other.(BoolValue)
	return ok && b == o
}

// StringValue represents a string value.
type StringValue string

func (s StringValue) Type() DataType      { return String }
func (s StringValue) IsTruthy() bool      { return len(s) > 0 }
func (s StringValue) String() string      { return strconv.Quote(string(s)) }
func (s StringValue) key() (string, bool) { return "str:" + string(s), true }
func (s StringValue) Equal(other Value) bool {
	o, ok := other.(StringValue)
	return ok && s == o
}

// BytesValue represents a byte string value.
type BytesValue []byte

func (b BytesValue) Type() DataType      { return Bytes }
func (b BytesValue) IsTruthy() bool      { return len(b) > 0 }
func (b BytesValue) String() string      { return fmt.Sprintf("b%q", string(b)) }
func (b BytesValue) key() (string, bool) { return "bytes:" + string(b), true }
func (b BytesValue) Equal(other Value) bool {
	o, ok := other.(BytesValue)
	if !ok || len(b) != len(o) {
		return false
	}
	for i := range b {
		if b[i] != o[i] {
			return false
		}
	}
	return true
}

// FloatValue represents a numeric value as an arbitrary-precision decimal.
// It is never backed by native binary floating point: construction from a
// float64 goes through the shortest round-trip decimal string so that a host
// 0.1 and a rule literal 0.1 normalize identically.
type FloatValue struct {
	Dec *apd.Decimal
}

// NewFloatFromString parses a decimal string (including "inf", "-inf" and
// "nan") into a FloatValue.
func NewFloatFromString(s string) (FloatValue, error) {
	dec, _, err := apd.NewFromString(s)
	if err != nil {
		return FloatValue{}, NewFloatSyntaxError("invalid floating point literal", s)
	}
	return FloatValue{Dec: dec}, nil
}

// NewFloatFromInt64 returns the FloatValue for an integer.
func NewFloatFromInt64(i int64) FloatValue {
	return FloatValue{Dec: apd.New(i, 0)}
}

// NewFloatFromUint64 returns the FloatValue for an unsigned integer,
// including values above MaxInt64.
func NewFloatFromUint64(u uint64) FloatValue {
	d := new(apd.Decimal)
	d.Coeff.SetUint64(u)
	return FloatValue{Dec: d}
}

// NewFloatFromFloat64 converts a native binary float through its shortest
// round-trip decimal representation.
func NewFloatFromFloat64(f float64) FloatValue {
	switch {
	case math.IsNaN(f):
		return FloatValue{Dec: &apd.Decimal{Form: apd.NaN}}
	case math.IsInf(f, 1):
		return FloatValue{Dec: &apd.Decimal{Form: apd.Infinite}}
	case math.IsInf(f, -1):
		return FloatValue{Dec: &apd.Decimal{Form: apd.Infinite, Negative: true}}
	}
	dec, _, err := apd.NewFromString(strconv.FormatFloat(f, 'g', -1, 64))
	if err != nil {
		// FormatFloat output of a finite float64 always parses
		panic("types: unreachable float conversion failure: " + err.Error())
	}
	return FloatValue{Dec: dec}
}

func (f FloatValue) Type() DataType { return Float }

// IsTruthy reports whether the value is non-zero. NaN is truthy.
func (f FloatValue) IsTruthy() bool { return !f.Dec.IsZero() }

func (f FloatValue) String() string {
	if f.Dec.Form == apd.NaN || f.Dec.Form == apd.NaNSignaling {
		return "nan"
	}
	if f.Dec.Form == apd.Infinite {
		if f.Dec.Negative {
			return "-inf"
		}
		return "inf"
	}
	return f.Dec.String()
}

func (f FloatValue) key() (string, bool) {
	switch f.Dec.Form {
	case apd.NaN, apd.NaNSignaling:
		return "float:nan", true
	case apd.Infinite:
		if f.Dec.Negative {
			return "float:-inf", true
		}
		return "float:inf", true
	}
	if f.Dec.IsZero() {
		return "float:0", true
	}
	// Reduce strips trailing zeros so numerically equal decimals share a
	// canonical representation.
	var reduced apd.Decimal
	reduced.Reduce(f.Dec)
	return "float:" + reduced.String(), true
}

// Equal reports numeric equality. NaN never equals anything, including
// itself.
func (f FloatValue) Equal(other Value) bool {
	o, ok := other.(FloatValue)
	if !ok {
		return false
	}
	if isNaN(f.Dec) || isNaN(o.Dec) {
		return false
	}
	return f.Dec.Cmp(o.Dec) == 0
}

// IsNaN reports whether the value is NaN.
func (f FloatValue) IsNaN() bool { return isNaN(f.Dec) }

// Int64 returns the value as an int64, failing when it has a fractional
// component or is out of range.
func (f FloatValue) Int64() (int64, error) {
	i, err := f.Dec.Int64()
	if err != nil {
		return 0, NewEvaluationError("data type mismatch (not an integer number)")
	}
	return i, nil
}

func isNaN(d *apd.Decimal) bool {
	return d.Form == apd.NaN || d.Form == apd.NaNSignaling
}

// DatetimeValue represents a specific point in time.
type DatetimeValue struct {
	Time time.Time
}

func (d DatetimeValue) Type() DataType { return Datetime }

// IsTruthy is always true for datetime values.
func (d DatetimeValue) IsTruthy() bool { return true }

func (d DatetimeValue) String() string { return "d" + strconv.Quote(d.Time.Format(time.RFC3339Nano)) }
func (d DatetimeValue) key() (string, bool) {
	return "dt:" + strconv.FormatInt(d.Time.UnixNano(), 10), true
}

// Equal compares the instants in time, ignoring location.
func (d DatetimeValue) Equal(other Value) bool {
	o, ok := other.(DatetimeValue)
	return ok && d.Time.Equal(o.Time)
}

// TimedeltaValue represents an offset from a point in time.
type TimedeltaValue struct {
	Duration time.Duration
}

func (t TimedeltaValue) Type() DataType { return Timedelta }
func (t TimedeltaValue) IsTruthy() bool { return t.Duration != 0 }
func (t TimedeltaValue) String() string { return "t\"" + t.Duration.String() + "\"" }
func (t TimedeltaValue) key() (string, bool) {
	return "td:" + strconv.FormatInt(int64(t.Duration), 10), true
}
func (t TimedeltaValue) Equal(other Value) bool {
	o, ok := other.(TimedeltaValue)
	return ok && t.Duration == o.Duration
}

// Days returns the whole-day component, rounding toward negative infinity
// with the remaining components kept non-negative.
func (t TimedeltaValue) Days() int64 {
	return floorDiv(int64(t.Duration), int64(24*time.Hour))
}

// Seconds returns the whole seconds remaining after the day component, in
// the range [0, 86400).
func (t TimedeltaValue) Seconds() int64 {
	return floorMod(int64(t.Duration), int64(24*time.Hour)) / int64(time.Second)
}

// Microseconds returns the sub-second component in microseconds.
func (t TimedeltaValue) Microseconds() int64 {
	return floorMod(int64(t.Duration), int64(time.Second)) / int64(time.Microsecond)
}

// TotalSeconds returns the entire offset expressed in seconds.
func (t TimedeltaValue) TotalSeconds() FloatValue {
	return NewFloatFromFloat64(t.Duration.Seconds())
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m != 0 && ((a < 0) != (b < 0)) {
		m += b
	}
	return m
}

// FunctionImpl is the signature of host functions exposed to rules.
// Arguments are passed positionally and the implementation reports failures
// with an error, typically a FunctionCallError.
type FunctionImpl func(args ...Value) (Value, error)

// FunctionValue represents a host-registered callable. Signature must be a
// FUNCTION-kinded DataType; when it declares argument types or arity they
// are enforced by the evaluator.
type FunctionValue struct {
	Signature DataType
	Impl      FunctionImpl
}

// NewFunction builds a FunctionValue with a declared signature. minArgs
// follows FunctionOf semantics.
func NewFunction(name string, impl FunctionImpl, ret DataType, minArgs int, args ...DataType) FunctionValue {
	return FunctionValue{Signature: FunctionOf(name, ret, minArgs, args...), Impl: impl}
}

func (f FunctionValue) Type() DataType {
	if f.Signature.Kind() == KindFunction {
		return f.Signature
	}
	return Function
}
func (f FunctionValue) IsTruthy() bool      { return true }
func (f FunctionValue) String() string      { return "<function " + f.Name() + ">" }
func (f FunctionValue) key() (string, bool) { return "", false }

// Equal is always false for functions; they have no value identity.
func (f FunctionValue) Equal(other Value) bool { return false }

// Name returns the declared function name, or "?" when anonymous.
func (f FunctionValue) Name() string {
	if name := f.Signature.FunctionName(); name != "" {
		return name
	}
	return "?"
}

// Call invokes the function with the supplied arguments, wrapping any
// failure that is not already an engine error in a FunctionCallError.
func (f FunctionValue) Call(args ...Value) (Value, error) {
	if f.Impl == nil {
		return nil, NewFunctionCallError("function has no implementation", f.Name(), nil)
	}
	result, err := f.Impl(args...)
	if err != nil {
		if fce, ok := err.(*FunctionCallError); ok {
			if fce.FunctionName == "" {
				fce.FunctionName = f.Name()
			}
			return nil, fce
		}
		if isEngineError(err) {
			return nil, err
		}
		return nil, NewFunctionCallError("function call failed", f.Name(), err)
	}
	return Coerce(result)
}

// Coerce converts a native Go value into a Value. It is used at the engine
// boundaries, e.g. when a resolver returns a host value. Numeric inputs are
// normalized per FloatValue rules and container members are coerced
// recursively. A Value passes through unchanged; values of unsupported
// types fail with an evaluation error.
func Coerce(v interface{}) (Value, error) {
	switch tv := v.(type) {
	case nil:
		return NullValue{}, nil
	case Value:
		return tv, nil
	case bool:
		return BoolValue(tv), nil
	case string:
		return StringValue(tv), nil
	case []byte:
		return BytesValue(tv), nil
	case int:
		return NewFloatFromInt64(int64(tv)), nil
	case int8:
		return NewFloatFromInt64(int64(tv)), nil
	case int16:
		return NewFloatFromInt64(int64(tv)), nil
	case int32:
		return NewFloatFromInt64(int64(tv)), nil
	case int64:
		return NewFloatFromInt64(tv), nil
	case uint:
		return NewFloatFromUint64(uint64(tv)), nil
	case uint8:
		return NewFloatFromInt64(int64(tv)), nil
	case uint16:
		return NewFloatFromInt64(int64(tv)), nil
	case uint32:
		return NewFloatFromInt64(int64(tv)), nil
	case uint64:
		return NewFloatFromUint64(tv), nil
	case float32:
		return NewFloatFromFloat64(float64(tv)), nil
	case float64:
		return NewFloatFromFloat64(tv), nil
	case *apd.Decimal:
		return FloatValue{Dec: tv}, nil
	case apd.Decimal:
		return FloatValue{Dec: &tv}, nil
	case time.Time:
		return DatetimeValue{Time: tv}, nil
	case time.Duration:
		return TimedeltaValue{Duration: tv}, nil
	case FunctionImpl:
		return FunctionValue{Signature: Function, Impl: tv}, nil
	case func(args ...Value) (Value, error):
		return FunctionValue{Signature: Function, Impl: tv}, nil
	case []interface{}:
		members := make([]Value, len(tv))
		for i, member := range tv {
			coerced, err := Coerce(member)
			if err != nil {
				return nil, err
			}
			members[i] = coerced
		}
		return ArrayValue(members), nil
	case map[string]interface{}:
		mapping := NewMapping()
		for _, k := range sortedKeys(tv) {
			val, err := Coerce(tv[k])
			if err != nil {
				return nil, err
			}
			if err := mapping.Put(StringValue(k), val); err != nil {
				return nil, err
			}
		}
		return mapping, nil
	}
	return coerceReflect(v)
}

// coerceReflect handles the remaining slice, array and map shapes through
// reflection.
func coerceReflect(v interface{}) (Value, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		members := make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			coerced, err := Coerce(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			members[i] = coerced
		}
		return ArrayValue(members), nil
	case reflect.Map:
		mapping := NewMapping()
		keys := rv.MapKeys()
		entries := make(map[string]reflect.Value, len(keys))
		order := make([]string, 0, len(keys))
		for _, k := range keys {
			ks := fmt.Sprint(k.Interface())
			entries[ks] = k
			order = append(order, ks)
		}
		sortStrings(order)
		for _, ks := range order {
			k := entries[ks]
			key, err := Coerce(k.Interface())
			if err != nil {
				return nil, err
			}
			val, err := Coerce(rv.MapIndex(k).Interface())
			if err != nil {
				return nil, err
			}
			if err := mapping.Put(key, val); err != nil {
				return nil, err
			}
		}
		return mapping, nil
	}
	return nil, NewEvaluationError(fmt.Sprintf("can not coerce value of type %T to a compatible data type", v))
}
