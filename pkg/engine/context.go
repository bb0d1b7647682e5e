// Package engine provides the evaluation context for rules: symbol and
// attribute resolution, builtin symbols, default values, timezone and
// decimal settings, and the per-evaluation State.
//
// A [Context] is configured once, shared by any number of compiled rules,
// and is safe for concurrent evaluations. All per-evaluation data lives on
// a [State].
package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/dlclark/regexp2"

	"github.com/rulekit/rulekit/pkg/types"
)

// SymbolResolver resolves a symbol name to a value from the thing a rule is
// being applied to. The returned value is coerced into the engine type
// system, so host values (ints, maps, structs of supported field types) are
// accepted. A missing symbol is reported with a
// [types.SymbolResolutionError].
type SymbolResolver func(thing interface{}, name string) (interface{}, error)

// TypeResolver declares the static type of a symbol at rule construction
// time. Unknown symbols are reported with a [types.SymbolResolutionError],
// which makes rule construction fail early instead of at evaluation.
type TypeResolver func(name string) (types.DataType, error)

// TypeResolverFromMap builds a TypeResolver from a symbol-to-type table.
// Symbols absent from the table fail to resolve.
func TypeResolverFromMap(symbolTypes map[string]types.DataType) TypeResolver {
	names := make([]string, 0, len(symbolTypes))
	for name := range symbolTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return func(name string) (types.DataType, error) {
		dt, ok := symbolTypes[name]
		if !ok {
			return types.Undefined, types.NewSymbolResolutionError(name, "", types.Suggest(name, names))
		}
		return dt, nil
	}
}

// Context defines how rules resolve symbols and attributes and which
// settings govern their evaluation. The zero value is not usable; use
// [NewContext].
type Context struct {
	resolver     SymbolResolver
	typeResolver TypeResolver

	defaultValue types.Value
	hasDefault   bool

	timezone     *time.Location
	decCtx       *apd.Context
	regexOptions regexp2.RegexOptions

	builtins *Builtins

	mu      sync.Mutex
	symbols map[string]struct{}
}

// Option configures a Context.
type Option func(*Context)

// WithResolver replaces the symbol resolver. The default is [ResolveItem].
func WithResolver(r SymbolResolver) Option {
	return func(c *Context) { c.resolver = r }
}

// WithTypeResolver installs a construction-time symbol type resolver.
func WithTypeResolver(r TypeResolver) Option {
	return func(c *Context) { c.typeResolver = r }
}

// WithTypes installs a construction-time type resolver from a symbol type
// table, equivalent to WithTypeResolver(TypeResolverFromMap(symbolTypes)).
func WithTypes(symbolTypes map[string]types.DataType) Option {
	return func(c *Context) { c.typeResolver = TypeResolverFromMap(symbolTypes) }
}

// WithDefaultValue sets the value substituted when a symbol or attribute
// fails to resolve, instead of surfacing the resolution error. value is
// coerced; coercion failures panic since they indicate host misuse at setup
// time.
func WithDefaultValue(value interface{}) Option {
	return func(c *Context) {
		v, err := types.Coerce(value)
		if err != nil {
			panic("engine: invalid default value: " + err.Error())
		}
		c.defaultValue = v
		c.hasDefault = true
	}
}

// WithTimezone sets the timezone applied to DATETIME literals and values
// that carry no explicit offset. The default is the system local zone.
func WithTimezone(loc *time.Location) Option {
	return func(c *Context) { c.timezone = loc }
}

// WithDecimalContext sets the apd context governing FLOAT arithmetic,
// precision and rounding for every evaluation under this Context.
func WithDecimalContext(decCtx *apd.Context) Option {
	return func(c *Context) { c.decCtx = decCtx }
}

// WithRegexOptions sets the options applied when compiling the patterns of
// fuzzy comparison expressions, e.g. [regexp2.IgnoreCase].
func WithRegexOptions(options regexp2.RegexOptions) Option {
	return func(c *Context) { c.regexOptions = options }
}

// NewContext builds a Context, applying options over the defaults: item
// style symbol resolution, no type resolver, no default value, the local
// timezone, and 28 digit half-even decimal arithmetic.
func NewContext(opts ...Option) *Context {
	c := &Context{
		resolver: ResolveItem,
		timezone: time.Local,
		symbols:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.decCtx == nil {
		decCtx := apd.BaseContext.WithPrecision(28)
		decCtx.Rounding = apd.RoundHalfEven
		c.decCtx = decCtx
	}
	c.builtins = defaultBuiltins(c)
	return c
}

// DecimalContext returns the apd context used for FLOAT arithmetic.
func (c *Context) DecimalContext() *apd.Context { return c.decCtx }

// Timezone returns the default timezone.
func (c *Context) Timezone() *time.Location { return c.timezone }

// RegexOptions returns the options for compiling fuzzy match patterns.
func (c *Context) RegexOptions() regexp2.RegexOptions { return c.regexOptions }

// Builtins returns the builtin symbol table, which may be extended by the
// host before rules are built.
func (c *Context) Builtins() *Builtins { return c.builtins }

// DefaultValue returns the configured fallback for failed resolutions and
// whether one is set.
func (c *Context) DefaultValue() (types.Value, bool) {
	return c.defaultValue, c.hasDefault
}

// TrackSymbol records that a rule built under this Context refers to the
// named symbol. Symbols in the builtin scope are not tracked.
func (c *Context) TrackSymbol(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.symbols[name] = struct{}{}
}

// Symbols returns the sorted names of every symbol referred to by the rules
// built under this Context. Hosts can use this to validate that their data
// will satisfy a rule before evaluating it.
func (c *Context) Symbols() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.symbols))
	for name := range c.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveSymbol resolves a symbol during evaluation. Scoped loop bindings
// shadow the resolver; the builtin scope resolves against the builtin
// table. The result is coerced into the engine type system.
func (c *Context) ResolveSymbol(state *State, name, scope string) (types.Value, error) {
	if scope == BuiltinScope {
		return c.builtins.Resolve(state, name)
	}
	if scope != "" {
		return nil, types.NewSymbolResolutionError(name, scope, "")
	}
	if v, ok := state.lookupScoped(name); ok {
		return v, nil
	}
	raw, err := c.resolver(state.Thing(), name)
	if err != nil {
		return nil, err
	}
	return types.Coerce(raw)
}

// ResolveNested resolves a name on an arbitrary object value through the
// symbol resolver, as attribute access does for mapping keys. The result is
// coerced into the engine type system.
func (c *Context) ResolveNested(object types.Value, name string) (types.Value, error) {
	raw, err := c.resolver(object, name)
	if err != nil {
		return nil, err
	}
	return types.Coerce(raw)
}

// ResolveType resolves the static type of a symbol at rule construction
// time. Without a type resolver every thing symbol is UNDEFINED.
func (c *Context) ResolveType(name, scope string) (types.DataType, error) {
	if scope == BuiltinScope {
		return c.builtins.ResolveType(name)
	}
	if c.typeResolver == nil {
		return types.Undefined, nil
	}
	return c.typeResolver(name)
}
