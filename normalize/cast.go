package normalize

import (
	"slices"
	"strings"

	"github.com/eugenenazirov/castenv/value"
)

// Cast runs raw through the cast stages selected by opts. Variable references
// resolve through r, which may be nil.
func Cast(raw string, opts Options, r Resolver) (value.Value, error) {
	return CastKey("", raw, opts, r)
}

// CastKey is Cast for a value read under key. A reference back to key is
// reported as an interpolation cycle.
func CastKey(key, raw string, opts Options, r Resolver) (value.Value, error) {
	s := strings.TrimSpace(raw)

	if opts.StripQuotes {
		if inner, ok := unquote(s); ok {
			s = inner
			if opts.UnescapeInQuotes {
				s = unescape(s)
			}
		}
	}

	if opts.InterpolateEnv {
		var stack []string
		if key != "" {
			stack = []string{key}
		}
		expanded, err := interpolate(s, r, stack)
		if err != nil {
			return value.None(), err
		}
		s = expanded
	}

	if opts.ExpandUser {
		s = expandUser(s)
	}

	v := castText(s, opts, true)

	if err := checkEnum(v, opts.Enum); err != nil {
		return value.None(), err
	}
	return v, nil
}

// CastAny casts strings and returns every other input unchanged. Non-string Go
// values are converted with value.FromAny.
func CastAny(x any, opts Options, r Resolver) (value.Value, error) {
	switch t := x.(type) {
	case string:
		return Cast(t, opts, r)
	case value.Value:
		return t, nil
	}
	return value.FromAny(x)
}

func castText(s string, opts Options, allowLists bool) value.Value {
	if s == "" {
		if opts.CoerceEmptyToNone {
			return value.None()
		}
		return value.Str("")
	}

	lower := strings.ToLower(s)
	if opts.CoerceNullStrings && isNullWord(lower) {
		return value.None()
	}

	if opts.ParseBooleans {
		if b, ok := parseBool(lower); ok {
			return value.Bool(b)
		}
	}

	if opts.ParseJSON {
		if v, ok := parseJSONContainer(s); ok {
			return v
		}
	}

	if allowLists && opts.ParseLists {
		if sep := firstSeparator(s, opts.ListSeparators); sep != "" {
			parts := strings.Split(s, sep)
			items := make([]value.Value, len(parts))
			for i, part := range parts {
				items[i] = castText(strings.TrimSpace(part), opts, false)
			}
			return value.List(items...)
		}
	}

	if opts.ParseNumbers {
		if v, ok := parseNumber(s); ok {
			return v
		}
	}

	if opts.ParseDuration {
		if secs, ok := parseDuration(s); ok {
			return value.Float(secs)
		}
	}

	if opts.ParseByteSize {
		if n, ok := parseByteSize(s); ok {
			return value.Int(n)
		}
	}

	switch opts.PercentMode {
	case PercentNumber:
		if f, ok := parsePercent(s); ok {
			return value.Float(f)
		}
	case PercentFraction:
		if f, ok := parsePercent(s); ok {
			return value.Float(f / 100)
		}
	}

	if opts.LowercaseStrings {
		return value.Str(lower)
	}
	return value.Str(s)
}

// parseJSONContainer accepts JSON objects and arrays, including ones wrapped
// in a JSON string literal.
func parseJSONContainer(s string) (value.Value, bool) {
	switch s[0] {
	case '{', '[':
		v, err := value.ParseJSON([]byte(s))
		if err != nil {
			return value.None(), false
		}
		return v, true
	case '"':
		v, err := value.ParseJSON([]byte(s))
		if err != nil {
			return value.None(), false
		}
		inner, ok := v.AsString()
		inner = strings.TrimSpace(inner)
		if !ok || inner == "" || (inner[0] != '{' && inner[0] != '[') {
			return value.None(), false
		}
		nested, err := value.ParseJSON([]byte(inner))
		if err != nil {
			return value.None(), false
		}
		return nested, true
	}
	return value.None(), false
}

func firstSeparator(s string, seps []string) string {
	for _, sep := range seps {
		if sep != "" && strings.Contains(s, sep) {
			return sep
		}
	}
	return ""
}

func checkEnum(v value.Value, allowed []string) error {
	if allowed == nil || v.IsNone() {
		return nil
	}
	if items, ok := v.AsList(); ok {
		for _, item := range items {
			if err := checkEnum(item, allowed); err != nil {
				return err
			}
		}
		return nil
	}
	if !slices.Contains(allowed, v.String()) {
		return &ValidationError{Value: v, Allowed: slices.Clone(allowed)}
	}
	return nil
}
