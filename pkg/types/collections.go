package types

import (
	"sort"
	"strconv"
	"strings"
)

// ArrayValue is an ordered sequence of values. Members may be of mixed
// kinds; the array's DataType is then ARRAY of UNDEFINED members.
type ArrayValue []Value

func (a ArrayValue) Type() DataType { return FromValue(a) }
func (a ArrayValue) IsTruthy() bool { return len(a) > 0 }

func (a ArrayValue) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, member := range a {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(member.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

func (a ArrayValue) key() (string, bool) { return "", false }

func (a ArrayValue) Equal(other Value) bool {
	o, ok := other.(ArrayValue)
	if !ok || len(a) != len(o) {
		return false
	}
	for i := range a {
		if !a[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Contains reports whether the array has a member equal to v.
func (a ArrayValue) Contains(v Value) bool {
	for _, member := range a {
		if member.Equal(v) {
			return true
		}
	}
	return false
}

// SetValue is an unordered collection of unique hashable values. Iteration
// follows insertion order so evaluation stays deterministic. Uniqueness is
// judged on the canonical key, so 1.0 and 1.00 occupy one slot.
type SetValue struct {
	members []Value
	index   map[string]int
}

// NewSet builds a set from members, dropping duplicates. It fails when a
// member is unhashable (ARRAY, SET, MAPPING or FUNCTION).
func NewSet(members ...Value) (*SetValue, error) {
	s := &SetValue{index: make(map[string]int, len(members))}
	for _, member := range members {
		if err := s.add(member); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *SetValue) add(member Value) error {
	k, ok := member.key()
	if !ok {
		return NewEvaluationError("unhashable value can not be a set member")
	}
	if _, exists := s.index[k]; exists {
		return nil
	}
	s.index[k] = len(s.members)
	s.members = append(s.members, member)
	return nil
}

func (s *SetValue) Type() DataType { return FromValue(s) }
func (s *SetValue) IsTruthy() bool { return len(s.members) > 0 }
func (s *SetValue) Len() int       { return len(s.members) }

// Members returns the members in insertion order. The slice must not be
// modified.
func (s *SetValue) Members() []Value { return s.members }

func (s *SetValue) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, member := range s.members {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(member.String())
	}
	sb.WriteByte('}')
	return sb.String()
}

func (s *SetValue) key() (string, bool) { return "", false }

// Equal reports whether both sets hold the same members, regardless of
// insertion order.
func (s *SetValue) Equal(other Value) bool {
	o, ok := other.(*SetValue)
	if !ok || len(s.members) != len(o.members) {
		return false
	}
	for k := range s.index {
		if _, exists := o.index[k]; !exists {
			return false
		}
	}
	return true
}

// Contains reports membership by canonical key. Unhashable probes are
// simply not members.
func (s *SetValue) Contains(v Value) bool {
	k, ok := v.key()
	if !ok {
		return false
	}
	_, exists := s.index[k]
	return exists
}

// Union returns a new set with the members of both sets.
func (s *SetValue) Union(o *SetValue) *SetValue {
	out := &SetValue{index: make(map[string]int, len(s.members)+len(o.members))}
	for _, m := range s.members {
		out.add(m) //nolint:errcheck // members are already hashable
	}
	for _, m := range o.members {
		out.add(m) //nolint:errcheck
	}
	return out
}

// Intersection returns a new set with the members present in both sets.
func (s *SetValue) Intersection(o *SetValue) *SetValue {
	out := &SetValue{index: make(map[string]int)}
	for _, m := range s.members {
		if o.Contains(m) {
			out.add(m) //nolint:errcheck
		}
	}
	return out
}

// SymmetricDifference returns a new set with the members present in exactly
// one of the sets.
func (s *SetValue) SymmetricDifference(o *SetValue) *SetValue {
	out := &SetValue{index: make(map[string]int)}
	for _, m := range s.members {
		if !o.Contains(m) {
			out.add(m) //nolint:errcheck
		}
	}
	for _, m := range o.members {
		if !s.Contains(m) {
			out.add(m) //nolint:errcheck
		}
	}
	return out
}

type mappingEntry struct {
	key   Value
	value Value
}

// MappingValue is an associative container from scalar keys to values.
// Iteration follows insertion order; a repeated key keeps its original slot
// and takes the latest value.
type MappingValue struct {
	entries []mappingEntry
	index   map[string]int
}

// NewMapping returns an empty mapping.
func NewMapping() *MappingValue {
	return &MappingValue{index: make(map[string]int)}
}

// Put inserts or replaces an entry. Keys must be hashable scalars.
func (m *MappingValue) Put(key, value Value) error {
	if !key.Type().IsScalar() {
		return NewEvaluationError("mapping keys must be scalar values")
	}
	k, ok := key.key()
	if !ok {
		return NewEvaluationError("unhashable value can not be a mapping key")
	}
	if i, exists := m.index[k]; exists {
		m.entries[i].value = value
		return nil
	}
	m.index[k] = len(m.entries)
	m.entries = append(m.entries, mappingEntry{key: key, value: value})
	return nil
}

// Get returns the value stored under key, or false when absent or when the
// key is unhashable.
func (m *MappingValue) Get(key Value) (Value, bool) {
	k, ok := key.key()
	if !ok {
		return nil, false
	}
	i, exists := m.index[k]
	if !exists {
		return nil, false
	}
	return m.entries[i].value, true
}

// ContainsKey reports whether key is present.
func (m *MappingValue) ContainsKey(key Value) bool {
	_, ok := m.Get(key)
	return ok
}

func (m *MappingValue) Type() DataType { return FromValue(m) }
func (m *MappingValue) IsTruthy() bool { return len(m.entries) > 0 }
func (m *MappingValue) Len() int       { return len(m.entries) }

// Keys returns the keys in insertion order.
func (m *MappingValue) Keys() []Value {
	keys := make([]Value, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.key
	}
	return keys
}

// Values returns the values in insertion order.
func (m *MappingValue) Values() []Value {
	values := make([]Value, len(m.entries))
	for i, e := range m.entries {
		values[i] = e.value
	}
	return values
}

func (m *MappingValue) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.key.String())
		sb.WriteString(": ")
		sb.WriteString(e.value.String())
	}
	sb.WriteByte('}')
	return sb.String()
}

func (m *MappingValue) key() (string, bool) { return "", false }

func (m *MappingValue) Equal(other Value) bool {
	o, ok := other.(*MappingValue)
	if !ok || len(m.entries) != len(o.entries) {
		return false
	}
	for _, e := range m.entries {
		ov, exists := o.Get(e.key)
		if !exists || !e.value.Equal(ov) {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortStrings(s []string) { sort.Strings(s) }

// ResolveIndex resolves a possibly negative index against length, the way
// sequence indexing works in the grammar: -1 addresses the last member.
// It fails with a LookupError when out of range.
func ResolveIndex(idx int64, length int) (int, error) {
	i := idx
	if i < 0 {
		i += int64(length)
	}
	if i < 0 || i >= int64(length) {
		return 0, NewLookupError("index out of range: " + strconv.FormatInt(idx, 10))
	}
	return int(i), nil
}

// ResolveSlice clamps a half-open [start, stop) slice against length,
// resolving negative endpoints. Nil endpoints mean the respective boundary.
func ResolveSlice(start, stop *int64, length int) (int, int) {
	lo, hi := int64(0), int64(length)
	if start != nil {
		lo = *start
		if lo < 0 {
			lo += int64(length)
		}
	}
	if stop != nil {
		hi = *stop
		if hi < 0 {
			hi += int64(length)
		}
	}
	if lo < 0 {
		lo = 0
	}
	if hi > int64(length) {
		hi = int64(length)
	}
	if lo > hi {
		lo = hi
	}
	return int(lo), int(hi)
}
