package types

import (
	"bytes"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Orderable reports whether values of kind k support the ordering
// comparisons.
func Orderable(k Kind) bool {
	switch k {
	case KindArray, KindBoolean, KindDatetime, KindTimedelta, KindFloat, KindNull, KindString:
		return true
	}
	return false
}

// Compare orders two values of the same kind, returning a negative, zero or
// positive result. It fails with an evaluation error when the kinds differ,
// when the kind is not orderable, or when a NaN is involved. Arrays compare
// lexicographically, recursing into members; two null values compare equal.
func Compare(a, b Value) (int, error) {
	ka, kb := a.Type().Kind(), b.Type().Kind()
	if ka != kb {
		return 0, NewEvaluationError("data type mismatch (can not order values of different types)")
	}
	switch av := a.(type) {
	case NullValue:
		return 0, nil
	case BoolValue:
		bv := b.(BoolValue)
		switch {
		case av == bv:
			return 0, nil
		case bool(av):
			return 1, nil
		}
		return -1, nil
	case StringValue:
		return strings.Compare(string(av), string(b.(StringValue))), nil
	case BytesValue:
		return bytes.Compare(av, b.(BytesValue)), nil
	case FloatValue:
		bv := b.(FloatValue)
		if isNaN(av.Dec) || isNaN(bv.Dec) {
			return 0, NewEvaluationError("data type mismatch (can not order NaN values)")
		}
		return av.Dec.Cmp(bv.Dec), nil
	case DatetimeValue:
		bv := b.(DatetimeValue)
		switch {
		case av.Time.Before(bv.Time):
			return -1, nil
		case av.Time.After(bv.Time):
			return 1, nil
		}
		return 0, nil
	case TimedeltaValue:
		bv := b.(TimedeltaValue)
		switch {
		case av.Duration < bv.Duration:
			return -1, nil
		case av.Duration > bv.Duration:
			return 1, nil
		}
		return 0, nil
	case ArrayValue:
		bv := b.(ArrayValue)
		for i := 0; i < len(av) && i < len(bv); i++ {
			c, err := Compare(av[i], bv[i])
			if err != nil {
				return 0, err
			}
			if c != 0 {
				return c, nil
			}
		}
		return len(av) - len(bv), nil
	}
	return 0, NewEvaluationError("data type mismatch (values of this type have no ordering)")
}

// IsRealNumber reports whether v is a FLOAT that is neither NaN nor
// infinite.
func IsRealNumber(v Value) bool {
	f, ok := v.(FloatValue)
	if !ok {
		return false
	}
	return !isNaN(f.Dec) && f.Dec.Form != apd.Infinite
}

// IsIntegerNumber reports whether v is a real FLOAT with no fractional
// component.
func IsIntegerNumber(v Value) bool {
	f, ok := v.(FloatValue)
	if !ok || !IsRealNumber(v) {
		return false
	}
	var integ, frac apd.Decimal
	f.Dec.Modf(&integ, &frac)
	return frac.IsZero()
}

// IsNaturalNumber reports whether v is a non-negative integer FLOAT.
func IsNaturalNumber(v Value) bool {
	if !IsIntegerNumber(v) {
		return false
	}
	return !v.(FloatValue).Dec.Negative
}
