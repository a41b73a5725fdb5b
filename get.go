package castenv

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/eugenenazirov/castenv/normalize"
	"github.com/eugenenazirov/castenv/source"
	"github.com/eugenenazirov/castenv/value"
)

// Resolution describes how a key was resolved.
type Resolution struct {
	Key   string
	Raw   string
	Layer source.Layer
	Found bool
	Value value.Value
}

// Explain resolves key and reports the raw text and layer alongside the cast
// value. When key is absent def is used: a string default is cast like a raw
// value, any other default is returned unchanged.
func (c *Context) Explain(key string, def any, opts ...normalize.Option) (Resolution, error) {
	chain := c.Chain()
	o := normalize.NewOptions(opts...)

	raw, layer, found := chain.Explain(key)
	res := Resolution{Key: key, Raw: raw, Layer: layer, Found: found}

	var err error
	if found {
		res.Value, err = normalize.CastKey(key, raw, o, chain)
	} else {
		res.Value, err = normalize.CastAny(def, o, chain)
	}
	if err != nil {
		return res, fmt.Errorf("%s: %w", key, err)
	}
	return res, nil
}

// Get resolves key to a typed value. See Explain for default handling.
func (c *Context) Get(key string, def any, opts ...normalize.Option) (value.Value, error) {
	res, err := c.Explain(key, def, opts...)
	return res.Value, err
}

// resolved returns the cast value of key, or ok=false when it is absent or none.
func (c *Context) resolved(key string, opts []normalize.Option) (value.Value, bool, error) {
	res, err := c.Explain(key, nil, opts...)
	if err != nil {
		return value.None(), false, err
	}
	if !res.Found || res.Value.IsNone() {
		return value.None(), false, nil
	}
	return res.Value, true, nil
}

// GetBool resolves key as a boolean. def is returned when key is absent or none.
func (c *Context) GetBool(key string, def bool, opts ...normalize.Option) (bool, error) {
	v, ok, err := c.resolved(key, opts)
	if err != nil || !ok {
		return def, err
	}
	if b, isBool := v.AsBool(); isBool {
		return b, nil
	}
	if b, isWord := normalize.ParseBool(v.String()); isWord && v.Kind() != value.KindList && v.Kind() != value.KindMap {
		return b, nil
	}
	return def, &CoercionError{Key: key, Value: v, Target: "bool"}
}

// GetInt resolves key as an integer. Booleans count as 1 and 0 and floats
// without a fractional part are accepted.
func (c *Context) GetInt(key string, def int64, opts ...normalize.Option) (int64, error) {
	v, ok, err := c.resolved(key, opts)
	if err != nil || !ok {
		return def, err
	}
	switch v.Kind() {
	case value.KindInt:
		i, _ := v.AsInt()
		return i, nil
	case value.KindBool:
		if b, _ := v.AsBool(); b {
			return 1, nil
		}
		return 0, nil
	case value.KindFloat:
		f, _ := v.AsFloat()
		if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
			return int64(f), nil
		}
	case value.KindString:
		s, _ := v.AsString()
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return i, nil
		}
	}
	return def, &CoercionError{Key: key, Value: v, Target: "int"}
}

// GetFloat resolves key as a float. Integers and booleans are widened.
func (c *Context) GetFloat(key string, def float64, opts ...normalize.Option) (float64, error) {
	v, ok, err := c.resolved(key, opts)
	if err != nil || !ok {
		return def, err
	}
	switch v.Kind() {
	case value.KindFloat:
		f, _ := v.AsFloat()
		return f, nil
	case value.KindInt:
		i, _ := v.AsInt()
		return float64(i), nil
	case value.KindBool:
		if b, _ := v.AsBool(); b {
			return 1, nil
		}
		return 0, nil
	case value.KindString:
		s, _ := v.AsString()
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, nil
		}
	}
	return def, &CoercionError{Key: key, Value: v, Target: "float"}
}

// GetString resolves key and renders the cast value as text.
func (c *Context) GetString(key string, def string, opts ...normalize.Option) (string, error) {
	v, ok, err := c.resolved(key, opts)
	if err != nil || !ok {
		return def, err
	}
	return v.String(), nil
}

// GetList resolves key with list parsing enabled. separators override the
// configured separators when non-empty. The raw default def is cast the same
// way; a scalar result is wrapped in a one-item list and none yields nil.
func (c *Context) GetList(key, def string, separators []string, opts ...normalize.Option) ([]value.Value, error) {
	listOpts := append(append([]normalize.Option(nil), opts...), normalize.WithLists(true))
	if len(separators) > 0 {
		listOpts = append(listOpts, normalize.WithSeparators(separators...))
	}

	v, err := c.Get(key, def, listOpts...)
	if err != nil {
		return nil, err
	}
	if v.IsNone() {
		return nil, nil
	}
	if items, ok := v.AsList(); ok {
		return items, nil
	}
	return []value.Value{v}, nil
}

// GetAll resolves every key, taking defaults from defaults.
func (c *Context) GetAll(keys []string, defaults map[string]any, opts ...normalize.Option) (map[string]value.Value, error) {
	out := make(map[string]value.Value, len(keys))
	for _, key := range keys {
		v, err := c.Get(key, defaults[key], opts...)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

// NormalizeStructure casts every string leaf of v, interpolating through the
// active config.
func (c *Context) NormalizeStructure(v value.Value, opts ...normalize.Option) (value.Value, error) {
	return normalize.Structure(v, normalize.NewOptions(opts...), c.Chain())
}

// NormalizeAny is NormalizeStructure over decoded Go data.
func (c *Context) NormalizeAny(x any, opts ...normalize.Option) (any, error) {
	return normalize.StructureAny(x, normalize.NewOptions(opts...), c.Chain())
}
