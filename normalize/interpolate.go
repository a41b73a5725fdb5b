package normalize

import (
	"regexp"
	"slices"
	"strings"
)

// Resolver looks up variables referenced from ${NAME} and $NAME expressions.
type Resolver interface {
	Lookup(name string) (string, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(name string) (string, bool)

func (f ResolverFunc) Lookup(name string) (string, bool) { return f(name) }

// MapResolver resolves names from a fixed map.
type MapResolver map[string]string

func (m MapResolver) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// Interpolate expands variable references in s through r. A nil r resolves
// nothing, so references fall back to their inline default or the empty string.
func Interpolate(s string, r Resolver) (string, error) {
	return interpolate(s, r, nil)
}

func interpolate(s string, r Resolver, stack []string) (string, error) {
	if !strings.Contains(s, "$") {
		return s, nil
	}
	matches := envRef.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		last = m[1]

		var name, def string
		hasDefault := false
		if m[2] >= 0 {
			name = s[m[2]:m[3]]
			if m[4] >= 0 {
				def = s[m[4]:m[5]]
				hasDefault = true
			}
		} else {
			name = s[m[6]:m[7]]
		}

		if slices.Contains(stack, name) {
			chain := append(slices.Clone(stack), name)
			return "", &CycleError{Chain: chain}
		}

		resolved, ok := "", false
		if r != nil {
			resolved, ok = r.Lookup(name)
		}
		switch {
		case ok:
			expanded, err := interpolate(resolved, r, append(slices.Clone(stack), name))
			if err != nil {
				return "", err
			}
			b.WriteString(expanded)
		case hasDefault:
			b.WriteString(def)
		}
	}
	b.WriteString(s[last:])
	return b.String(), nil
}
