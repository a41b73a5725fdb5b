package api

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/eugenenazirov/castenv/normalize"
)

var boolParams = []struct {
	name string
	opt  func(bool) normalize.Option
}{
	{name: "lowercase", opt: normalize.WithLowercase},
	{name: "parse_lists", opt: normalize.WithLists},
	{name: "parse_json", opt: normalize.WithJSON},
	{name: "parse_numbers", opt: normalize.WithNumbers},
	{name: "parse_booleans", opt: normalize.WithBooleans},
	{name: "parse_duration", opt: normalize.WithDurations},
	{name: "parse_bytes", opt: normalize.WithByteSizes},
	{name: "interpolate", opt: normalize.WithInterpolation},
	{name: "expand_user", opt: normalize.WithExpandUser},
	{name: "strip_quotes", opt: normalize.WithQuotes},
}

// optionsFromQuery maps query parameters onto cast options. Enum values may be
// repeated or comma separated; separators are taken verbatim.
func optionsFromQuery(q url.Values) ([]normalize.Option, error) {
	var opts []normalize.Option

	if raw := q.Get("percent_mode"); raw != "" {
		mode, err := normalize.ParsePercentMode(raw)
		if err != nil {
			return nil, err
		}
		opts = append(opts, normalize.WithPercentMode(mode))
	}

	for _, p := range boolParams {
		if !q.Has(p.name) {
			continue
		}
		b, ok := normalize.ParseBool(q.Get(p.name))
		if !ok {
			return nil, fmt.Errorf("%s must be a boolean, got %q", p.name, q.Get(p.name))
		}
		opts = append(opts, p.opt(b))
	}

	if raw, ok := q["enum"]; ok {
		var allowed []string
		for _, item := range raw {
			for _, part := range strings.Split(item, ",") {
				if part = strings.TrimSpace(part); part != "" {
					allowed = append(allowed, part)
				}
			}
		}
		opts = append(opts, normalize.WithEnum(allowed...))
	}

	if seps, ok := q["separator"]; ok {
		opts = append(opts, normalize.WithSeparators(seps...))
	}

	return opts, nil
}
