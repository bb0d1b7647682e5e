package engine

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/rulekit/rulekit/pkg/types"
)

// attributeResolver resolves one builtin attribute for one value kind.
// resultType maps the object's static type to the attribute's static type;
// most attributes have a fixed result, the to_ary/to_set conversions carry
// the member type through.
type attributeResolver struct {
	resultType func(object types.DataType) types.DataType
	resolve    func(c *Context, object types.Value) (types.Value, error)
}

func fixedType(dt types.DataType) func(types.DataType) types.DataType {
	return func(types.DataType) types.DataType { return dt }
}

// AttributeNames returns the sorted builtin attribute names available on
// values of the specified kind.
func AttributeNames(kind types.Kind) []string {
	table := attributeTable[kind]
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AttributeType returns the static result type of a builtin attribute on an
// object of the specified type, and whether the attribute exists for that
// kind.
func (c *Context) AttributeType(object types.DataType, name string) (types.DataType, bool) {
	resolver, ok := attributeTable[object.Kind()][name]
	if !ok {
		return types.Undefined, false
	}
	return resolver.resultType(object), true
}

// ResolveAttribute resolves a builtin attribute on object. A name that does
// not exist for the object's kind fails with an AttributeResolutionError
// carrying a suggestion; a result contradicting the attribute's declared
// type fails with an AttributeTypeError.
func (c *Context) ResolveAttribute(state *State, object types.Value, name string) (types.Value, error) {
	objectType := object.Type()
	resolver, ok := attributeTable[objectType.Kind()][name]
	if !ok {
		return nil, types.NewAttributeResolutionError(name, objectType, types.Suggest(name, AttributeNames(objectType.Kind())))
	}
	result, err := resolver.resolve(c, object)
	if err != nil {
		return nil, err
	}
	expected := resolver.resultType(objectType)
	if err := types.Verify(expected, result); err != nil {
		return nil, types.NewAttributeTypeError(name, objectType, expected, types.FromValue(result))
	}
	return result, nil
}

var attributeTable = buildAttributeTable()

func buildAttributeTable() map[types.Kind]map[string]attributeResolver {
	table := map[types.Kind]map[string]attributeResolver{
		types.KindDatetime:  datetimeAttributes(),
		types.KindTimedelta: timedeltaAttributes(),
		types.KindFloat:     floatAttributes(),
		types.KindString:    stringAttributes(),
		types.KindBytes:     map[string]attributeResolver{},
		types.KindArray:     sequenceAttributes(),
		types.KindSet:       sequenceAttributes(),
		types.KindMapping:   mappingAttributes(),
	}

	// is_empty and length apply to every sized kind.
	for _, kind := range []types.Kind{types.KindArray, types.KindSet, types.KindMapping, types.KindString, types.KindBytes} {
		table[kind]["is_empty"] = attributeResolver{
			resultType: fixedType(types.Boolean),
			resolve: func(c *Context, object types.Value) (types.Value, error) {
				n, err := sizeOf(object)
				if err != nil {
					return nil, err
				}
				return types.BoolValue(n == 0), nil
			},
		}
		table[kind]["length"] = attributeResolver{
			resultType: fixedType(types.Float),
			resolve: func(c *Context, object types.Value) (types.Value, error) {
				n, err := sizeOf(object)
				if err != nil {
					return nil, err
				}
				return types.NewFloatFromInt64(int64(n)), nil
			},
		}
	}
	return table
}

func sizeOf(object types.Value) (int, error) {
	switch tv := object.(type) {
	case types.ArrayValue:
		return len(tv), nil
	case *types.SetValue:
		return tv.Len(), nil
	case *types.MappingValue:
		return tv.Len(), nil
	case types.StringValue:
		return len([]rune(string(tv))), nil
	case types.BytesValue:
		return len(tv), nil
	}
	return 0, types.NewEvaluationError("value has no length")
}

func datetimeAttributes() map[string]attributeResolver {
	floatAttr := func(get func(t time.Time) float64) attributeResolver {
		return attributeResolver{
			resultType: fixedType(types.Float),
			resolve: func(c *Context, object types.Value) (types.Value, error) {
				return types.NewFloatFromFloat64(get(object.(types.DatetimeValue).Time)), nil
			},
		}
	}
	return map[string]attributeResolver{
		"date": {
			resultType: fixedType(types.Datetime),
			resolve: func(c *Context, object types.Value) (types.Value, error) {
				t := object.(types.DatetimeValue).Time
				y, m, d := t.Date()
				return types.DatetimeValue{Time: time.Date(y, m, d, 0, 0, 0, 0, t.Location())}, nil
			},
		},
		"day":         floatAttr(func(t time.Time) float64 { return float64(t.Day()) }),
		"hour":        floatAttr(func(t time.Time) float64 { return float64(t.Hour()) }),
		"microsecond": floatAttr(func(t time.Time) float64 { return float64(t.Nanosecond() / 1000) }),
		"millisecond": floatAttr(func(t time.Time) float64 { return float64(t.Nanosecond()/1000) / 1000 }),
		"minute":      floatAttr(func(t time.Time) float64 { return float64(t.Minute()) }),
		"month":       floatAttr(func(t time.Time) float64 { return float64(t.Month()) }),
		"second":      floatAttr(func(t time.Time) float64 { return float64(t.Second()) }),
		"year":        floatAttr(func(t time.Time) float64 { return float64(t.Year()) }),
		"weekday": {
			resultType: fixedType(types.String),
			resolve: func(c *Context, object types.Value) (types.Value, error) {
				return types.StringValue(object.(types.DatetimeValue).Time.Weekday().String()), nil
			},
		},
		"zone_name": {
			resultType: fixedType(types.String),
			resolve: func(c *Context, object types.Value) (types.Value, error) {
				name, _ := object.(types.DatetimeValue).Time.Zone()
				if name == "" {
					return types.NullValue{}, nil
				}
				return types.StringValue(name), nil
			},
		},
		"to_epoch": floatAttr(func(t time.Time) float64 {
			return float64(t.UnixNano()) / float64(time.Second)
		}),
	}
}

func timedeltaAttributes() map[string]attributeResolver {
	floatAttr := func(get func(d types.TimedeltaValue) types.FloatValue) attributeResolver {
		return attributeResolver{
			resultType: fixedType(types.Float),
			resolve: func(c *Context, object types.Value) (types.Value, error) {
				return get(object.(types.TimedeltaValue)), nil
			},
		}
	}
	return map[string]attributeResolver{
		"days":          floatAttr(func(d types.TimedeltaValue) types.FloatValue { return types.NewFloatFromInt64(d.Days()) }),
		"seconds":       floatAttr(func(d types.TimedeltaValue) types.FloatValue { return types.NewFloatFromInt64(d.Seconds()) }),
		"microseconds":  floatAttr(func(d types.TimedeltaValue) types.FloatValue { return types.NewFloatFromInt64(d.Microseconds()) }),
		"total_seconds": floatAttr(func(d types.TimedeltaValue) types.FloatValue { return d.TotalSeconds() }),
	}
}

func floatAttributes() map[string]attributeResolver {
	roundAttr := func(round func(c *apd.Context, d, x *apd.Decimal) (apd.Condition, error)) attributeResolver {
		return attributeResolver{
			resultType: fixedType(types.Float),
			resolve: func(c *Context, object types.Value) (types.Value, error) {
				f := object.(types.FloatValue)
				result := new(apd.Decimal)
				if _, err := round(c.decCtx, result, f.Dec); err != nil {
					return nil, types.NewEvaluationError("data type mismatch (value can not be rounded)")
				}
				return types.FloatValue{Dec: result}, nil
			},
		}
	}
	return map[string]attributeResolver{
		"ceiling": roundAttr(func(c *apd.Context, d, x *apd.Decimal) (apd.Condition, error) { return c.Ceil(d, x) }),
		"floor":   roundAttr(func(c *apd.Context, d, x *apd.Decimal) (apd.Condition, error) { return c.Floor(d, x) }),
		"is_nan": {
			resultType: fixedType(types.Boolean),
			resolve: func(c *Context, object types.Value) (types.Value, error) {
				return types.BoolValue(object.(types.FloatValue).IsNaN()), nil
			},
		},
		"to_flt": {
			resultType: fixedType(types.Float),
			resolve: func(c *Context, object types.Value) (types.Value, error) {
				return object, nil
			},
		},
		"to_int": {
			resultType: fixedType(types.Float),
			resolve: func(c *Context, object types.Value) (types.Value, error) {
				if !types.IsIntegerNumber(object) {
					return nil, types.NewEvaluationError("data type mismatch (not an integer number)")
				}
				return object, nil
			},
		},
		"to_str": {
			resultType: fixedType(types.String),
			resolve: func(c *Context, object types.Value) (types.Value, error) {
				return types.StringValue(object.(types.FloatValue).String()), nil
			},
		},
	}
}

func stringAttributes() map[string]attributeResolver {
	toFloat := func(c *Context, object types.Value) (types.Value, error) {
		text := strings.TrimSpace(string(object.(types.StringValue)))
		f, err := types.ParseFloatLiteral(text)
		if err != nil {
			// Unparseable text converts to NaN rather than failing.
			return types.NewFloatFromFloat64(math.NaN()), nil
		}
		return f, nil
	}
	return map[string]attributeResolver{
		"as_lower": {
			resultType: fixedType(types.String),
			resolve: func(c *Context, object types.Value) (types.Value, error) {
				return types.StringValue(strings.ToLower(string(object.(types.StringValue)))), nil
			},
		},
		"as_upper": {
			resultType: fixedType(types.String),
			resolve: func(c *Context, object types.Value) (types.Value, error) {
				return types.StringValue(strings.ToUpper(string(object.(types.StringValue)))), nil
			},
		},
		"to_ary": {
			resultType: fixedType(types.ArrayOf(types.String)),
			resolve: func(c *Context, object types.Value) (types.Value, error) {
				runes := []rune(string(object.(types.StringValue)))
				chars := make(types.ArrayValue, len(runes))
				for i, r := range runes {
					chars[i] = types.StringValue(string(r))
				}
				return chars, nil
			},
		},
		"to_set": {
			resultType: fixedType(types.SetOf(types.String)),
			resolve: func(c *Context, object types.Value) (types.Value, error) {
				var members []types.Value
				for _, r := range string(object.(types.StringValue)) {
					members = append(members, types.StringValue(string(r)))
				}
				return types.NewSet(members...)
			},
		},
		"to_flt": {
			resultType: fixedType(types.Float),
			resolve:    toFloat,
		},
		"to_int": {
			resultType: fixedType(types.Float),
			resolve: func(c *Context, object types.Value) (types.Value, error) {
				f, err := toFloat(c, object)
				if err != nil {
					return nil, err
				}
				if !types.IsIntegerNumber(f) {
					return nil, types.NewEvaluationError("data type mismatch (not an integer number)")
				}
				return f, nil
			},
		},
		"to_str": {
			resultType: fixedType(types.String),
			resolve: func(c *Context, object types.Value) (types.Value, error) {
				return object, nil
			},
		},
	}
}

func sequenceAttributes() map[string]attributeResolver {
	return map[string]attributeResolver{
		"to_ary": {
			resultType: func(object types.DataType) types.DataType {
				return types.ArrayOf(object.ValueType())
			},
			resolve: func(c *Context, object types.Value) (types.Value, error) {
				switch tv := object.(type) {
				case types.ArrayValue:
					return tv, nil
				case *types.SetValue:
					return types.ArrayValue(tv.Members()), nil
				}
				return nil, types.NewEvaluationError("value is not a sequence")
			},
		},
		"to_set": {
			resultType: func(object types.DataType) types.DataType {
				return types.SetOf(object.ValueType())
			},
			resolve: func(c *Context, object types.Value) (types.Value, error) {
				switch tv := object.(type) {
				case *types.SetValue:
					return tv, nil
				case types.ArrayValue:
					return types.NewSet(tv...)
				}
				return nil, types.NewEvaluationError("value is not a sequence")
			},
		},
	}
}

func mappingAttributes() map[string]attributeResolver {
	return map[string]attributeResolver{
		"keys": {
			resultType: func(object types.DataType) types.DataType {
				return types.ArrayOf(object.KeyType())
			},
			resolve: func(c *Context, object types.Value) (types.Value, error) {
				return types.ArrayValue(object.(*types.MappingValue).Keys()), nil
			},
		},
		"values": {
			resultType: func(object types.DataType) types.DataType {
				return types.ArrayOf(object.ValueType())
			},
			resolve: func(c *Context, object types.Value) (types.Value, error) {
				return types.ArrayValue(object.(*types.MappingValue).Values()), nil
			},
		},
	}
}
