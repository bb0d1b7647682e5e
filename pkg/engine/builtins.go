package engine

import (
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/rulekit/rulekit/pkg/types"
)

// BuiltinScope is the resolution scope of $-prefixed symbols.
const BuiltinScope = "built-in"

// BuiltinGenerator produces a builtin value on demand, once per reference
// during an evaluation. Generators back builtins whose value depends on the
// evaluation itself, e.g. $now or $re_groups.
type BuiltinGenerator func(state *State) (types.Value, error)

type builtinEntry struct {
	value types.Value
	gen   BuiltinGenerator
	table *Builtins
	typ   types.DataType
}

// Builtins is a table of named values addressable through the $ prefix.
// Entries are static values, generators, or nested tables addressed with
// attribute access ($net.ipv4). Tables are extended at setup time and must
// not be modified once rules evaluate against them.
type Builtins struct {
	namespace string
	entries   map[string]builtinEntry
}

// NewBuiltins returns an empty table. namespace is the dotted path of the
// table for diagnostics, empty for the root.
func NewBuiltins(namespace string) *Builtins {
	return &Builtins{namespace: namespace, entries: make(map[string]builtinEntry)}
}

// Namespace returns the dotted path of the table.
func (b *Builtins) Namespace() string { return b.namespace }

// Names returns the sorted entry names.
func (b *Builtins) Names() []string {
	names := make([]string, 0, len(b.entries))
	for name := range b.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Add registers a static value, coercing host values.
func (b *Builtins) Add(name string, value interface{}) error {
	v, err := types.Coerce(value)
	if err != nil {
		return err
	}
	b.entries[name] = builtinEntry{value: v, typ: types.FromValue(v)}
	return nil
}

// AddGenerator registers a value produced on demand, with its declared
// static type.
func (b *Builtins) AddGenerator(name string, dt types.DataType, gen BuiltinGenerator) {
	b.entries[name] = builtinEntry{gen: gen, typ: dt}
}

// AddFunction registers a callable under the name declared by its
// signature.
func (b *Builtins) AddFunction(fn types.FunctionValue) {
	b.entries[fn.Name()] = builtinEntry{value: fn, typ: fn.Type()}
}

// AddTable registers a nested table, addressable with attribute access.
func (b *Builtins) AddTable(name string, table *Builtins) {
	b.entries[name] = builtinEntry{table: table, typ: types.Mapping}
}

// Table returns the nested table registered under name, or nil.
func (b *Builtins) Table(name string) *Builtins {
	return b.entries[name].table
}

// Resolve returns the value of the named builtin, invoking generators and
// materializing nested tables into mappings. A missing name fails with a
// SymbolResolutionError in the builtin scope.
func (b *Builtins) Resolve(state *State, name string) (types.Value, error) {
	entry, ok := b.entries[name]
	if !ok {
		scope := BuiltinScope
		if b.namespace != "" {
			scope = BuiltinScope + ":" + b.namespace
		}
		return nil, types.NewSymbolResolutionError(name, scope, types.Suggest(name, b.Names()))
	}
	switch {
	case entry.gen != nil:
		return entry.gen(state)
	case entry.table != nil:
		return entry.table.materialize(state)
	}
	return entry.value, nil
}

// ResolveType returns the declared static type of the named builtin, or
// UNDEFINED when the name is unknown. Unknown builtins fail at evaluation,
// not construction, since the host may extend the table after rules are
// built.
func (b *Builtins) ResolveType(name string) (types.DataType, error) {
	entry, ok := b.entries[name]
	if !ok {
		return types.Undefined, nil
	}
	return entry.typ, nil
}

func (b *Builtins) materialize(state *State) (types.Value, error) {
	mapping := types.NewMapping()
	for _, name := range b.Names() {
		v, err := b.Resolve(state, name)
		if err != nil {
			return nil, err
		}
		if err := mapping.Put(types.StringValue(name), v); err != nil {
			return nil, err
		}
	}
	return mapping, nil
}

// defaultBuiltins builds the stock table: the constants $e and $pi, the
// generated values $now, $today and $re_groups, and the builtin functions.
func defaultBuiltins(c *Context) *Builtins {
	b := NewBuiltins("")

	e, _, _ := apd.NewFromString("2.718281828459045235360287471")
	pi, _, _ := apd.NewFromString("3.141592653589793238462643383")
	b.entries["e"] = builtinEntry{value: types.FloatValue{Dec: e}, typ: types.Float}
	b.entries["pi"] = builtinEntry{value: types.FloatValue{Dec: pi}, typ: types.Float}

	b.AddGenerator("now", types.Datetime, func(*State) (types.Value, error) {
		return types.DatetimeValue{Time: time.Now().In(c.timezone)}, nil
	})
	b.AddGenerator("today", types.Datetime, func(*State) (types.Value, error) {
		now := time.Now().In(c.timezone)
		y, m, d := now.Date()
		return types.DatetimeValue{Time: time.Date(y, m, d, 0, 0, 0, 0, c.timezone)}, nil
	})
	b.AddGenerator("re_groups", types.ArrayOf(types.String), func(state *State) (types.Value, error) {
		return state.RegexGroups(), nil
	})

	for _, fn := range builtinFunctions(c) {
		b.AddFunction(fn)
	}
	return b
}

func builtinFunctions(c *Context) []types.FunctionValue {
	return []types.FunctionValue{
		types.NewFunction("abs", func(args ...types.Value) (types.Value, error) {
			f := args[0].(types.FloatValue)
			result := new(apd.Decimal)
			if _, err := c.decCtx.Abs(result, f.Dec); err != nil {
				return nil, types.NewFunctionCallError("argument is invalid", "abs", err)
			}
			return types.FloatValue{Dec: result}, nil
		}, types.Float, 1, types.Float),

		types.NewFunction("all", func(args ...types.Value) (types.Value, error) {
			members, err := iterableMembers("all", args[0])
			if err != nil {
				return nil, err
			}
			for _, member := range members {
				if !member.IsTruthy() {
					return types.BoolValue(false), nil
				}
			}
			return types.BoolValue(true), nil
		}, types.Boolean, 1, types.Undefined),

		types.NewFunction("any", func(args ...types.Value) (types.Value, error) {
			members, err := iterableMembers("any", args[0])
			if err != nil {
				return nil, err
			}
			for _, member := range members {
				if member.IsTruthy() {
					return types.BoolValue(true), nil
				}
			}
			return types.BoolValue(false), nil
		}, types.Boolean, 1, types.Undefined),

		types.NewFunction("sum", func(args ...types.Value) (types.Value, error) {
			members, err := iterableMembers("sum", args[0])
			if err != nil {
				return nil, err
			}
			total := new(apd.Decimal)
			for _, member := range members {
				f, ok := member.(types.FloatValue)
				if !ok {
					return nil, types.NewFunctionCallError("members must be FLOAT values", "sum", nil)
				}
				if _, err := c.decCtx.Add(total, total, f.Dec); err != nil {
					return nil, types.NewFunctionCallError("addition failed", "sum", err)
				}
			}
			return types.FloatValue{Dec: total}, nil
		}, types.Float, 1, types.Undefined),

		types.NewFunction("min", builtinExtreme("min", -1), types.Undefined, 1, types.Undefined),
		types.NewFunction("max", builtinExtreme("max", 1), types.Undefined, 1, types.Undefined),

		types.NewFunction("map", func(args ...types.Value) (types.Value, error) {
			fn, ok := args[0].(types.FunctionValue)
			if !ok {
				return nil, types.NewFunctionCallError("first argument must be a FUNCTION", "map", nil)
			}
			members, err := iterableMembers("map", args[1])
			if err != nil {
				return nil, err
			}
			results := make(types.ArrayValue, len(members))
			for i, member := range members {
				result, err := fn.Call(member)
				if err != nil {
					return nil, err
				}
				results[i] = result
			}
			return results, nil
		}, types.Array, 2, types.Function, types.Undefined),

		types.NewFunction("filter", func(args ...types.Value) (types.Value, error) {
			fn, ok := args[0].(types.FunctionValue)
			if !ok {
				return nil, types.NewFunctionCallError("first argument must be a FUNCTION", "filter", nil)
			}
			members, err := iterableMembers("filter", args[1])
			if err != nil {
				return nil, err
			}
			results := make(types.ArrayValue, 0, len(members))
			for _, member := range members {
				keep, err := fn.Call(member)
				if err != nil {
					return nil, err
				}
				if keep.IsTruthy() {
					results = append(results, member)
				}
			}
			return results, nil
		}, types.Array, 2, types.Function, types.Undefined),

		types.NewFunction("split", func(args ...types.Value) (types.Value, error) {
			s := string(args[0].(types.StringValue))
			maxSplit := int64(-1)
			if len(args) > 2 {
				var err error
				maxSplit, err = requireInteger("split", args[2])
				if err != nil {
					return nil, err
				}
			}
			var parts []string
			if len(args) > 1 {
				sep := string(args[1].(types.StringValue))
				n := -1
				if maxSplit >= 0 {
					n = int(maxSplit) + 1
				}
				parts = strings.SplitN(s, sep, n)
			} else {
				parts = strings.Fields(s)
				if maxSplit >= 0 && int64(len(parts)) > maxSplit+1 {
					head := parts[:maxSplit]
					parts = append(head, strings.Join(parts[maxSplit:], " "))
				}
			}
			results := make(types.ArrayValue, len(parts))
			for i, part := range parts {
				results[i] = types.StringValue(part)
			}
			return results, nil
		}, types.ArrayOf(types.String), 1, types.String, types.String, types.Float),

		types.NewFunction("range", func(args ...types.Value) (types.Value, error) {
			start, stop, step := int64(0), int64(0), int64(1)
			var err error
			switch len(args) {
			case 1:
				stop, err = requireInteger("range", args[0])
			case 2, 3:
				if start, err = requireInteger("range", args[0]); err == nil {
					stop, err = requireInteger("range", args[1])
				}
				if err == nil && len(args) == 3 {
					step, err = requireInteger("range", args[2])
				}
			}
			if err != nil {
				return nil, err
			}
			if step == 0 {
				return nil, types.NewFunctionCallError("step must not be zero", "range", nil)
			}
			results := types.ArrayValue{}
			if step > 0 {
				for i := start; i < stop; i += step {
					results = append(results, types.NewFloatFromInt64(i))
				}
			} else {
				for i := start; i > stop; i += step {
					results = append(results, types.NewFloatFromInt64(i))
				}
			}
			return results, nil
		}, types.ArrayOf(types.Float), 1, types.Float, types.Float, types.Float),

		types.NewFunction("random", func(args ...types.Value) (types.Value, error) {
			if len(args) == 0 {
				return types.NewFloatFromFloat64(rand.Float64()), nil
			}
			boundary, err := requireInteger("random", args[0])
			if err != nil {
				return nil, err
			}
			if boundary < 0 {
				return nil, types.NewFunctionCallError("boundary must be a natural number", "random", nil)
			}
			return types.NewFloatFromInt64(rand.Int64N(boundary + 1)), nil
		}, types.Float, 0, types.Float),

		types.NewFunction("parse_datetime", func(args ...types.Value) (types.Value, error) {
			return types.ParseDatetimeLiteral(string(args[0].(types.StringValue)), c.timezone)
		}, types.Datetime, 1, types.String),

		types.NewFunction("parse_float", func(args ...types.Value) (types.Value, error) {
			return types.ParseFloatLiteral(string(args[0].(types.StringValue)))
		}, types.Float, 1, types.String),

		types.NewFunction("parse_timedelta", func(args ...types.Value) (types.Value, error) {
			return types.ParseTimedeltaLiteral(string(args[0].(types.StringValue)))
		}, types.Timedelta, 1, types.String),
	}
}

func builtinExtreme(name string, keepSign int) types.FunctionImpl {
	return func(args ...types.Value) (types.Value, error) {
		members, err := iterableMembers(name, args[0])
		if err != nil {
			return nil, err
		}
		if len(members) == 0 {
			return nil, types.NewFunctionCallError("iterable is empty", name, nil)
		}
		best := members[0]
		for _, member := range members[1:] {
			cmp, err := types.Compare(member, best)
			if err != nil {
				return nil, types.NewFunctionCallError("members are not orderable", name, err)
			}
			if (keepSign > 0 && cmp > 0) || (keepSign < 0 && cmp < 0) {
				best = member
			}
		}
		return best, nil
	}
}

func iterableMembers(fname string, v types.Value) ([]types.Value, error) {
	switch tv := v.(type) {
	case types.ArrayValue:
		return tv, nil
	case *types.SetValue:
		return tv.Members(), nil
	}
	return nil, types.NewFunctionCallError("argument is not iterable", fname, nil)
}

func requireInteger(fname string, v types.Value) (int64, error) {
	if !types.IsIntegerNumber(v) {
		return 0, types.NewFunctionCallError("argument must be an integer number", fname, nil)
	}
	i, err := v.(types.FloatValue).Int64()
	if err != nil {
		return 0, types.NewFunctionCallError("argument is out of range", fname, err)
	}
	return i, nil
}
