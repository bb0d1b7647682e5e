// Package types defines the core type system for rulekit.
//
// This package contains:
//   - DataType: static type descriptors with structural compatibility rules
//   - Value: runtime values as a closed tagged union over the same kinds
//   - Numeric predicates gating bitwise and range-style operations
//   - Error types: the structured syntax and evaluation error taxonomy
package types

import (
	"fmt"
	"strings"
)

// Kind identifies one of the closed set of data kinds supported by the engine.
type Kind uint8

const (
	// KindUndefined is the sentinel meaning "no static type known". It
	// disables construction-time compatibility checks for that value.
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindBytes
	KindString
	KindFloat
	KindDatetime
	KindTimedelta
	KindArray
	KindSet
	KindMapping
	KindFunction
)

// String returns the canonical upper-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "UNDEFINED"
	case KindNull:
		return "NULL"
	case KindBoolean:
		return "BOOLEAN"
	case KindBytes:
		return "BYTES"
	case KindString:
		return "STRING"
	case KindFloat:
		return "FLOAT"
	case KindDatetime:
		return "DATETIME"
	case KindTimedelta:
		return "TIMEDELTA"
	case KindArray:
		return "ARRAY"
	case KindSet:
		return "SET"
	case KindMapping:
		return "MAPPING"
	case KindFunction:
		return "FUNCTION"
	}
	return fmt.Sprintf("KIND(%d)", uint8(k))
}

// DataType describes the static type of a value or of an expression result.
//
// Compound kinds (ARRAY, SET, MAPPING) optionally carry member types;
// FUNCTION carries an argument/return signature. A zero parameter slot means
// "unspecified" and compares compatible with anything, exactly like the
// UNDEFINED sentinel. DataType values are immutable and safe to share.
type DataType struct {
	kind Kind

	// member is the value type of ARRAY/SET members and MAPPING values.
	member *DataType
	// key is the key type of MAPPING entries.
	key *DataType
	// memberNullable records whether members may also be NULL.
	memberNullable bool

	// FUNCTION signature. args is nil when unspecified; minArgs is -1 when
	// unspecified.
	fnName  string
	ret     *DataType
	args    []DataType
	minArgs int
}

// The scalar type constants and the unparameterized compound constants.
// Use ArrayOf, SetOf, MappingOf and FunctionOf to attach parameters.
var (
	Undefined = DataType{kind: KindUndefined, minArgs: -1}
	Null      = DataType{kind: KindNull, minArgs: -1}
	Boolean   = DataType{kind: KindBoolean, minArgs: -1}
	Bytes     = DataType{kind: KindBytes, minArgs: -1}
	String    = DataType{kind: KindString, minArgs: -1}
	Float     = DataType{kind: KindFloat, minArgs: -1}
	Datetime  = DataType{kind: KindDatetime, minArgs: -1}
	Timedelta = DataType{kind: KindTimedelta, minArgs: -1}
	Array     = DataType{kind: KindArray, memberNullable: true, minArgs: -1}
	Set       = DataType{kind: KindSet, memberNullable: true, minArgs: -1}
	Mapping   = DataType{kind: KindMapping, memberNullable: true, minArgs: -1}
	Function  = DataType{kind: KindFunction, minArgs: -1}
)

// ArrayOf returns an ARRAY type whose members are of the specified type.
// Members are implicitly allowed to also be NULL; use NonNullable to forbid
// that.
func ArrayOf(member DataType) DataType {
	return DataType{kind: KindArray, member: &member, memberNullable: true, minArgs: -1}
}

// SetOf returns a SET type whose members are of the specified type.
func SetOf(member DataType) DataType {
	return DataType{kind: KindSet, member: &member, memberNullable: true, minArgs: -1}
}

// MappingOf returns a MAPPING type with the specified key and value types.
// Only scalar kinds may be used as mapping keys.
func MappingOf(key, value DataType) DataType {
	if key.IsCompound() || key.kind == KindFunction {
		panic(fmt.Sprintf("the %s data type may not be used for mapping keys", key.Name()))
	}
	return DataType{kind: KindMapping, key: &key, member: &value, memberNullable: true, minArgs: -1}
}

// FunctionOf returns a FUNCTION type describing a named callable. minArgs is
// the number of leading required arguments; the remaining declared arguments
// are optional. Pass minArgs equal to len(args) when every argument is
// required, or -1 to leave the arity unspecified.
func FunctionOf(name string, ret DataType, minArgs int, args ...DataType) DataType {
	if args != nil && minArgs > len(args) {
		panic("minArgs can not be greater than the number of argument types")
	}
	if args != nil && minArgs < 0 {
		minArgs = len(args)
	}
	return DataType{kind: KindFunction, fnName: name, ret: &ret, args: args, minArgs: minArgs}
}

// NonNullable returns a copy of a compound type whose members may not be
// NULL. It has no effect on scalar types.
func (dt DataType) NonNullable() DataType {
	dt.memberNullable = false
	return dt
}

// Kind returns the kind tag of the type.
func (dt DataType) Kind() Kind { return dt.kind }

// IsUndefined reports whether the type is the UNDEFINED sentinel.
func (dt DataType) IsUndefined() bool { return dt.kind == KindUndefined }

// IsScalar reports whether the type is a scalar (non-compound) kind.
func (dt DataType) IsScalar() bool { return !dt.IsCompound() }

// IsCompound reports whether the type is ARRAY, SET or MAPPING.
func (dt DataType) IsCompound() bool {
	return dt.kind == KindArray || dt.kind == KindSet || dt.kind == KindMapping
}

// IsIterable reports whether values of the type can be iterated over, e.g.
// by a comprehension.
func (dt DataType) IsIterable() bool { return dt.IsCompound() }

// IterableType returns the type bound to a loop variable iterating over a
// value of this type: the member type for ARRAY and SET, the key type for
// MAPPING, and UNDEFINED otherwise.
func (dt DataType) IterableType() DataType {
	switch dt.kind {
	case KindArray, KindSet:
		return dt.ValueType()
	case KindMapping:
		return dt.KeyType()
	}
	return Undefined
}

// ValueType returns the member type of an ARRAY or SET, or the value type of
// a MAPPING. It returns UNDEFINED when unspecified.
func (dt DataType) ValueType() DataType {
	if dt.member == nil {
		return Undefined
	}
	return *dt.member
}

// KeyType returns the key type of a MAPPING, or UNDEFINED when unspecified.
func (dt DataType) KeyType() DataType {
	if dt.key == nil {
		return Undefined
	}
	return *dt.key
}

// ValueTypeNullable reports whether compound members may also be NULL.
func (dt DataType) ValueTypeNullable() bool { return dt.memberNullable }

// FunctionName returns the declared name of a FUNCTION type, e.g. "split".
func (dt DataType) FunctionName() string { return dt.fnName }

// ReturnType returns the declared return type of a FUNCTION type, or
// UNDEFINED when unspecified.
func (dt DataType) ReturnType() DataType {
	if dt.ret == nil {
		return Undefined
	}
	return *dt.ret
}

// ArgumentTypes returns the declared argument types of a FUNCTION type and
// whether they are specified at all.
func (dt DataType) ArgumentTypes() ([]DataType, bool) {
	return dt.args, dt.args != nil
}

// MinimumArguments returns the required argument count of a FUNCTION type
// and whether it is specified.
func (dt DataType) MinimumArguments() (int, bool) {
	return dt.minArgs, dt.minArgs >= 0
}

// Name returns the kind name of the type, e.g. "ARRAY".
func (dt DataType) Name() string { return dt.kind.String() }

// String returns a readable description including compound parameters.
func (dt DataType) String() string {
	switch dt.kind {
	case KindArray, KindSet:
		if dt.member != nil {
			return fmt.Sprintf("%s(%s)", dt.kind, dt.member)
		}
	case KindMapping:
		if dt.key != nil || dt.member != nil {
			return fmt.Sprintf("%s(%s, %s)", dt.kind, dt.KeyType(), dt.ValueType())
		}
	case KindFunction:
		if dt.ret != nil || dt.args != nil {
			names := make([]string, len(dt.args))
			for i, arg := range dt.args {
				names[i] = arg.String()
			}
			return fmt.Sprintf("%s(%s(%s) -> %s)", dt.kind, dt.fnName, strings.Join(names, ", "), dt.ReturnType())
		}
	}
	return dt.kind.String()
}

// Equal reports whether two types are exactly equal, including compound
// parameters. Use IsCompatible for the looser check that treats UNDEFINED as
// a wildcard.
func (dt DataType) Equal(other DataType) bool {
	if dt.kind != other.kind {
		return false
	}
	switch dt.kind {
	case KindArray, KindSet:
		return dt.ValueType().Equal(other.ValueType()) && dt.memberNullable == other.memberNullable
	case KindMapping:
		return dt.KeyType().Equal(other.KeyType()) &&
			dt.ValueType().Equal(other.ValueType()) &&
			dt.memberNullable == other.memberNullable
	case KindFunction:
		if !dt.ReturnType().Equal(other.ReturnType()) {
			return false
		}
		if len(dt.args) != len(other.args) || (dt.args == nil) != (other.args == nil) {
			return false
		}
		for i := range dt.args {
			if !dt.args[i].Equal(other.args[i]) {
				return false
			}
		}
		return dt.minArgs == other.minArgs
	}
	return true
}

// IsCompatible checks whether two types are compatible without conversion.
// This is true when either side is UNDEFINED or both kinds match; compound
// parameters, when both sides specify them, are checked recursively in the
// same manner.
func IsCompatible(a, b DataType) bool {
	if a.kind == KindUndefined || b.kind == KindUndefined {
		return true
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindArray, KindSet:
		return memberCompatible(a.member, b.member)
	case KindMapping:
		return memberCompatible(a.key, b.key) && memberCompatible(a.member, b.member)
	case KindFunction:
		if !memberCompatible(a.ret, b.ret) {
			return false
		}
		if a.args != nil && b.args != nil {
			if len(a.args) != len(b.args) {
				return false
			}
			for i := range a.args {
				if !IsCompatible(a.args[i], b.args[i]) {
					return false
				}
			}
		}
		if a.minArgs >= 0 && b.minArgs >= 0 && a.minArgs != b.minArgs {
			return false
		}
		return true
	}
	return true
}

func memberCompatible(a, b *DataType) bool {
	if a == nil || b == nil {
		return true
	}
	return IsCompatible(*a, *b)
}

// FromKind returns the unparameterized DataType for a kind tag.
func FromKind(k Kind) DataType {
	switch k {
	case KindNull:
		return Null
	case KindBoolean:
		return Boolean
	case KindBytes:
		return Bytes
	case KindString:
		return String
	case KindFloat:
		return Float
	case KindDatetime:
		return Datetime
	case KindTimedelta:
		return Timedelta
	case KindArray:
		return Array
	case KindSet:
		return Set
	case KindMapping:
		return Mapping
	case KindFunction:
		return Function
	}
	return Undefined
}

// iterableMemberType returns the common type of the members when they are
// all of the same type (NULL members are permitted alongside any other type)
// and UNDEFINED otherwise. It never returns NULL, so an iterable can not be
// typed as containing only NULL values.
func iterableMemberType(members []Value) DataType {
	var found *DataType
	mixed := false
	for _, member := range members {
		mt := FromValue(member)
		if mt.kind == KindNull {
			continue
		}
		if found == nil {
			found = &mt
		} else if !found.Equal(mt) {
			mixed = true
		}
	}
	if found == nil || mixed {
		return Undefined
	}
	return *found
}

// FromValue infers the most specific DataType of a runtime value, including
// compound member types when they are homogeneous.
func FromValue(v Value) DataType {
	switch tv := v.(type) {
	case nil, NullValue:
		return Null
	case BoolValue:
		return Boolean
	case BytesValue:
		return Bytes
	case StringValue:
		return String
	case FloatValue:
		return Float
	case DatetimeValue:
		return Datetime
	case TimedeltaValue:
		return Timedelta
	case ArrayValue:
		return ArrayOf(iterableMemberType(tv))
	case *SetValue:
		return SetOf(iterableMemberType(tv.Members()))
	case *MappingValue:
		return MappingOf(iterableMemberType(tv.Keys()), iterableMemberType(tv.Values()))
	case FunctionValue:
		return tv.Signature
	}
	return Undefined
}

// Verify checks that a value matches the specified type. NULL values match
// any type. It returns an evaluation error naming both types on mismatch.
func Verify(dt DataType, v Value) error {
	vt := FromValue(v)
	if vt.kind == KindNull {
		return nil
	}
	if !IsCompatible(dt, vt) {
		return NewEvaluationError(fmt.Sprintf("data type mismatch (is: %s, expected: %s)", vt.Name(), dt.Name()))
	}
	return nil
}
