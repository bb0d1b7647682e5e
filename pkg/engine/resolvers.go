package engine

import (
	"reflect"
	"sort"

	"github.com/rulekit/rulekit/pkg/types"
)

// ResolveItem is the default symbol resolver. It treats the thing as an
// associative container and looks the symbol up as a key: engine mappings,
// map[string]interface{} and other maps with string keys are supported. A
// missing or unsupported thing fails with a SymbolResolutionError carrying
// a suggestion when a close key exists.
func ResolveItem(thing interface{}, name string) (interface{}, error) {
	switch tv := thing.(type) {
	case map[string]interface{}:
		if v, ok := tv[name]; ok {
			return v, nil
		}
		return nil, symbolNotFound(name, mapKeys(tv))
	case *types.MappingValue:
		if v, ok := tv.Get(types.StringValue(name)); ok {
			return v, nil
		}
		return nil, symbolNotFound(name, mappingKeys(tv))
	}

	rv := reflect.ValueOf(thing)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		mv := rv.MapIndex(reflect.ValueOf(name))
		if mv.IsValid() {
			return mv.Interface(), nil
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, symbolNotFound(name, keys)
	}
	return nil, types.NewSymbolResolutionError(name, "", "")
}

// ResolveAttribute resolves symbols as fields of a struct (or pointer to
// struct). A field is addressed by its exported name, or by a `rule` tag
// when one is present. Use this resolver when things are host structs
// instead of maps.
func ResolveAttribute(thing interface{}, name string) (interface{}, error) {
	rv := reflect.ValueOf(thing)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, types.NewSymbolResolutionError(name, "", "")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, types.NewSymbolResolutionError(name, "", "")
	}
	rt := rv.Type()
	names := make([]string, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		fieldName := field.Name
		if tag, ok := field.Tag.Lookup("rule"); ok && tag != "" {
			fieldName = tag
		}
		if fieldName == name {
			return rv.Field(i).Interface(), nil
		}
		names = append(names, fieldName)
	}
	return nil, symbolNotFound(name, names)
}

func symbolNotFound(name string, known []string) error {
	return types.NewSymbolResolutionError(name, "", types.Suggest(name, known))
}

func mapKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func mappingKeys(m *types.MappingValue) []string {
	keys := make([]string, 0, m.Len())
	for _, k := range m.Keys() {
		if s, ok := k.(types.StringValue); ok {
			keys = append(keys, string(s))
		}
	}
	sort.Strings(keys)
	return keys
}
