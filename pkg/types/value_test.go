package types

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFloat(t *testing.T, s string) FloatValue {
	t.Helper()
	f, err := NewFloatFromString(s)
	require.NoError(t, err)
	return f
}

func TestFloatNormalization(t *testing.T) {
	// A host float64 and the equivalent decimal literal must be equal and
	// share one canonical hash key.
	fromHost := NewFloatFromFloat64(0.1)
	fromText := mustFloat(t, "0.1")
	assert.True(t, fromHost.Equal(fromText))

	hk, ok := fromHost.key()
	require.True(t, ok)
	tk, ok := fromText.key()
	require.True(t, ok)
	assert.Equal(t, tk, hk)
}

func TestFloatTrailingZerosShareKey(t *testing.T) {
	a := mustFloat(t, "1.0")
	b := mustFloat(t, "1.00")
	c := NewFloatFromInt64(1)
	ka, _ := a.key()
	kb, _ := b.key()
	kc, _ := c.key()
	assert.Equal(t, ka, kb)
	assert.Equal(t, ka, kc)

	zeroPos := mustFloat(t, "0.0")
	zeroNeg := mustFloat(t, "-0.0")
	kp, _ := zeroPos.key()
	kn, _ := zeroNeg.key()
	assert.Equal(t, kp, kn)
}

func TestFloatNaN(t *testing.T) {
	nan := mustFloat(t, "nan")
	assert.False(t, nan.Equal(nan), "NaN must not equal itself")
	assert.True(t, nan.IsTruthy(), "NaN is truthy")

	_, err := Compare(nan, NewFloatFromInt64(1))
	assert.Error(t, err)
}

func TestTruthiness(t *testing.T) {
	set, err := NewSet()
	require.NoError(t, err)
	falsey := []Value{
		NullValue{},
		BoolValue(false),
		NewFloatFromInt64(0),
		mustFloat(t, "-0.0"),
		StringValue(""),
		BytesValue(nil),
		ArrayValue(nil),
		set,
		NewMapping(),
		TimedeltaValue{},
	}
	for _, v := range falsey {
		assert.False(t, v.IsTruthy(), "expected falsey: %s", v)
	}

	fullSet, err := NewSet(NewFloatFromInt64(1))
	require.NoError(t, err)
	truthy := []Value{
		BoolValue(true),
		NewFloatFromInt64(-1),
		mustFloat(t, "inf"),
		StringValue("x"),
		BytesValue("x"),
		ArrayValue{NullValue{}},
		fullSet,
		DatetimeValue{Time: time.Time{}},
		TimedeltaValue{Duration: time.Second},
	}
	for _, v := range truthy {
		assert.True(t, v.IsTruthy(), "expected truthy: %s", v)
	}
}

func TestCrossKindEqualityIsFalse(t *testing.T) {
	assert.False(t, StringValue("1").Equal(NewFloatFromInt64(1)))
	assert.False(t, BoolValue(true).Equal(NewFloatFromInt64(1)))
	assert.False(t, NullValue{}.Equal(BoolValue(false)))
}

func TestCompare(t *testing.T) {
	lt := func(a, b Value) bool {
		c, err := Compare(a, b)
		require.NoError(t, err)
		return c < 0
	}

	assert.True(t, lt(NewFloatFromInt64(1), NewFloatFromInt64(2)))
	assert.True(t, lt(StringValue("abc"), StringValue("abd")))
	assert.True(t, lt(BoolValue(false), BoolValue(true)))
	assert.True(t, lt(
		DatetimeValue{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		DatetimeValue{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
	))
	assert.True(t, lt(TimedeltaValue{Duration: time.Second}, TimedeltaValue{Duration: time.Minute}))

	// null orders only against null, as equal.
	c, err := Compare(NullValue{}, NullValue{})
	require.NoError(t, err)
	assert.Zero(t, c)

	// arrays are lexicographic and recursive; a prefix sorts first.
	c, err = Compare(
		ArrayValue{NewFloatFromInt64(1), NewFloatFromInt64(2)},
		ArrayValue{NewFloatFromInt64(1), NewFloatFromInt64(3)},
	)
	require.NoError(t, err)
	assert.Negative(t, c)

	c, err = Compare(
		ArrayValue{NewFloatFromInt64(1)},
		ArrayValue{NewFloatFromInt64(1), NewFloatFromInt64(0)},
	)
	require.NoError(t, err)
	assert.Negative(t, c)

	_, err = Compare(NewFloatFromInt64(1), StringValue("1"))
	assert.Error(t, err)

	_, err = Compare(BytesValue("a"), BytesValue("b"))
	assert.NoError(t, err)
}

func TestSetDeduplicatesOnCanonicalKey(t *testing.T) {
	s, err := NewSet(mustFloat(t, "1.0"), mustFloat(t, "1.00"), NewFloatFromInt64(1))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Contains(NewFloatFromInt64(1)))
}

func TestSetRejectsUnhashableMembers(t *testing.T) {
	_, err := NewSet(ArrayValue{NewFloatFromInt64(1)})
	assert.Error(t, err)
	inner, err := NewSet()
	require.NoError(t, err)
	_, err = NewSet(inner)
	assert.Error(t, err)
}

func TestSetAlgebra(t *testing.T) {
	a, err := NewSet(NewFloatFromInt64(1), NewFloatFromInt64(2), NewFloatFromInt64(3))
	require.NoError(t, err)
	b, err := NewSet(NewFloatFromInt64(2), NewFloatFromInt64(3), NewFloatFromInt64(4))
	require.NoError(t, err)

	union := a.Union(b)
	assert.Equal(t, 4, union.Len())
	inter := a.Intersection(b)
	assert.Equal(t, 2, inter.Len())
	sym := a.SymmetricDifference(b)
	assert.Equal(t, 2, sym.Len())
	assert.True(t, sym.Contains(NewFloatFromInt64(1)))
	assert.True(t, sym.Contains(NewFloatFromInt64(4)))
}

func TestSetEqualityIgnoresOrder(t *testing.T) {
	a, err := NewSet(NewFloatFromInt64(1), NewFloatFromInt64(2))
	require.NoError(t, err)
	b, err := NewSet(NewFloatFromInt64(2), NewFloatFromInt64(1))
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestMappingScalarKeysOnly(t *testing.T) {
	m := NewMapping()
	require.NoError(t, m.Put(StringValue("k"), NewFloatFromInt64(1)))
	require.NoError(t, m.Put(NewFloatFromInt64(2), StringValue("two")))

	err := m.Put(ArrayValue{StringValue("k")}, NullValue{})
	assert.Error(t, err)
}

func TestMappingKeyNormalization(t *testing.T) {
	m := NewMapping()
	require.NoError(t, m.Put(mustFloat(t, "1.0"), StringValue("first")))
	require.NoError(t, m.Put(NewFloatFromInt64(1), StringValue("second")))
	assert.Equal(t, 1, m.Len())
	v, ok := m.Get(mustFloat(t, "1.00"))
	require.True(t, ok)
	assert.True(t, StringValue("second").Equal(v))
}

func TestCoerce(t *testing.T) {
	v, err := Coerce(map[string]interface{}{
		"name": "alice",
		"age":  30,
		"tags": []interface{}{"a", "b"},
	})
	require.NoError(t, err)
	m, ok := v.(*MappingValue)
	require.True(t, ok)
	age, ok := m.Get(StringValue("age"))
	require.True(t, ok)
	assert.True(t, NewFloatFromInt64(30).Equal(age))
	tags, ok := m.Get(StringValue("tags"))
	require.True(t, ok)
	assert.True(t, ArrayValue{StringValue("a"), StringValue("b")}.Equal(tags))

	v, err = Coerce([]int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, KindArray, v.Type().Kind())

	v, err = Coerce(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, KindDatetime, v.Type().Kind())

	v, err = Coerce(90 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, KindTimedelta, v.Type().Kind())

	_, err = Coerce(struct{}{})
	assert.Error(t, err)
}

func TestCoerceLargeUnsigned(t *testing.T) {
	// unsigned values above MaxInt64 must not wrap negative
	v, err := Coerce(uint64(math.MaxUint64))
	require.NoError(t, err)
	assert.True(t, mustFloat(t, "18446744073709551615").Equal(v), "got %s", v)

	v, err = Coerce(uint(math.MaxUint))
	require.NoError(t, err)
	f, ok := v.(FloatValue)
	require.True(t, ok)
	assert.Equal(t, 1, f.Dec.Sign())
}

func TestTimedeltaComponents(t *testing.T) {
	d := TimedeltaValue{Duration: 26*time.Hour + 3*time.Second + 5*time.Microsecond}
	assert.EqualValues(t, 1, d.Days())
	assert.EqualValues(t, 2*3600+3, d.Seconds())
	assert.EqualValues(t, 5, d.Microseconds())

	// Negative offsets floor the day component and keep the rest
	// non-negative.
	n := TimedeltaValue{Duration: -time.Second}
	assert.EqualValues(t, -1, n.Days())
	assert.EqualValues(t, 86399, n.Seconds())
	assert.EqualValues(t, 0, n.Microseconds())
}

func TestNumericPredicates(t *testing.T) {
	assert.True(t, IsRealNumber(NewFloatFromInt64(-3)))
	assert.False(t, IsRealNumber(mustFloat(t, "inf")))
	assert.False(t, IsRealNumber(mustFloat(t, "nan")))
	assert.False(t, IsRealNumber(StringValue("3")))

	assert.True(t, IsIntegerNumber(NewFloatFromInt64(-3)))
	assert.False(t, IsIntegerNumber(mustFloat(t, "3.5")))
	assert.True(t, IsIntegerNumber(mustFloat(t, "3.0")))

	assert.True(t, IsNaturalNumber(NewFloatFromInt64(3)))
	assert.False(t, IsNaturalNumber(NewFloatFromInt64(-3)))
}

func TestResolveIndex(t *testing.T) {
	i, err := ResolveIndex(-1, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, i)

	_, err = ResolveIndex(3, 3)
	assert.Error(t, err)
	_, err = ResolveIndex(-4, 3)
	assert.Error(t, err)
}

func TestResolveSlice(t *testing.T) {
	two := int64(2)
	negOne := int64(-1)
	lo, hi := ResolveSlice(nil, &two, 4)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 2, hi)

	lo, hi = ResolveSlice(&negOne, nil, 4)
	assert.Equal(t, 3, lo)
	assert.Equal(t, 4, hi)

	// Out of range endpoints clamp instead of failing.
	ten := int64(10)
	lo, hi = ResolveSlice(&two, &ten, 4)
	assert.Equal(t, 2, lo)
	assert.Equal(t, 4, hi)
}

func TestSuggest(t *testing.T) {
	options := []string{"first_name", "last_name", "email"}
	assert.Equal(t, "first_name", Suggest("first_nam", options))
	assert.Equal(t, "", Suggest("zzzzzz", options))
	assert.Equal(t, "", Suggest("x", nil))
}
