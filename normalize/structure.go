package normalize

import (
	"fmt"

	"github.com/eugenenazirov/castenv/value"
)

// Structure casts every string leaf of v. Map keys and non-string leaves are
// left untouched.
func Structure(v value.Value, opts Options, r Resolver) (value.Value, error) {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		return Cast(s, opts, r)
	case value.KindList:
		items, _ := v.AsList()
		for i, item := range items {
			out, err := Structure(item, opts, r)
			if err != nil {
				return value.None(), fmt.Errorf("index %d: %w", i, err)
			}
			items[i] = out
		}
		return value.List(items...), nil
	case value.KindMap:
		entries, _ := v.AsMap()
		for k, item := range entries {
			out, err := Structure(item, opts, r)
			if err != nil {
				return value.None(), fmt.Errorf("key %q: %w", k, err)
			}
			entries[k] = out
		}
		return value.Map(entries), nil
	}
	return v, nil
}

// StructureAny is Structure over plain Go data such as decoded YAML or JSON.
// Mappings and sequences are rebuilt; string leaves are replaced by the plain
// form of their cast value and other leaves pass through as they are.
func StructureAny(x any, opts Options, r Resolver) (any, error) {
	switch t := x.(type) {
	case string:
		v, err := Cast(t, opts, r)
		if err != nil {
			return nil, err
		}
		return v.Interface(), nil
	case value.Value:
		v, err := Structure(t, opts, r)
		if err != nil {
			return nil, err
		}
		return v, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			n, err := StructureAny(item, opts, r)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case map[any]any:
		out := make(map[any]any, len(t))
		for k, item := range t {
			n, err := StructureAny(item, opts, r)
			if err != nil {
				return nil, fmt.Errorf("key %v: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			n, err := StructureAny(item, opts, r)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	}
	return x, nil
}
