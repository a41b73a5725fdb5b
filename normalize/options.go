package normalize

import (
	"fmt"
	"strings"
)

// PercentMode controls how "<number>%" strings are cast.
type PercentMode uint8

const (
	// PercentNone leaves percent strings untouched.
	PercentNone PercentMode = iota
	// PercentNumber casts "50%" to 50.0.
	PercentNumber
	// PercentFraction casts "50%" to 0.5.
	PercentFraction
)

func (m PercentMode) String() string {
	switch m {
	case PercentNumber:
		return "number"
	case PercentFraction:
		return "fraction"
	}
	return "none"
}

// ParsePercentMode accepts "none", "number" or "fraction" (case-insensitive).
// An empty string selects PercentNone.
func ParsePercentMode(s string) (PercentMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return PercentNone, nil
	case "number":
		return PercentNumber, nil
	case "fraction":
		return PercentFraction, nil
	}
	return PercentNone, fmt.Errorf("unknown percent mode %q", s)
}

// Options toggles the individual cast stages.
type Options struct {
	CoerceEmptyToNone bool
	CoerceNullStrings bool
	ParseBooleans     bool
	ParseNumbers      bool
	ParseJSON         bool
	ParseLists        bool
	ListSeparators    []string
	StripQuotes       bool
	UnescapeInQuotes  bool
	InterpolateEnv    bool
	ExpandUser        bool
	ParseDuration     bool
	ParseByteSize     bool
	PercentMode       PercentMode
	LowercaseStrings  bool
	// Enum, when non-nil, restricts non-none results to these canonical texts.
	Enum []string
}

// DefaultOptions enables every stage except lowercasing and percent parsing.
func DefaultOptions() Options {
	return Options{
		CoerceEmptyToNone: true,
		CoerceNullStrings: true,
		ParseBooleans:     true,
		ParseNumbers:      true,
		ParseJSON:         true,
		ParseLists:        true,
		ListSeparators:    []string{","},
		StripQuotes:       true,
		UnescapeInQuotes:  true,
		InterpolateEnv:    true,
		ExpandUser:        true,
		ParseDuration:     true,
		ParseByteSize:     true,
		PercentMode:       PercentNone,
	}
}

// Option adjusts Options for a single call.
type Option func(*Options)

// NewOptions applies opts on top of DefaultOptions.
func NewOptions(opts ...Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Apply returns a copy of o with opts applied.
func (o Options) Apply(opts ...Option) Options {
	out := o.clone()
	for _, opt := range opts {
		if opt != nil {
			opt(&out)
		}
	}
	return out
}

func (o Options) clone() Options {
	out := o
	if o.ListSeparators != nil {
		out.ListSeparators = append([]string(nil), o.ListSeparators...)
	}
	if o.Enum != nil {
		out.Enum = append([]string{}, o.Enum...)
	}
	return out
}

// WithEmptyAsNone toggles casting empty text to none.
func WithEmptyAsNone(enabled bool) Option {
	return func(o *Options) { o.CoerceEmptyToNone = enabled }
}

// WithNullStrings toggles casting null, none, nil and undefined to none.
func WithNullStrings(enabled bool) Option {
	return func(o *Options) { o.CoerceNullStrings = enabled }
}

// WithBooleans toggles the boolean word stage.
func WithBooleans(enabled bool) Option {
	return func(o *Options) { o.ParseBooleans = enabled }
}

// WithNumbers toggles integer and float parsing.
func WithNumbers(enabled bool) Option {
	return func(o *Options) { o.ParseNumbers = enabled }
}

// WithJSON toggles parsing of JSON objects and arrays.
func WithJSON(enabled bool) Option {
	return func(o *Options) { o.ParseJSON = enabled }
}

// WithLists toggles splitting delimited text into lists.
func WithLists(enabled bool) Option {
	return func(o *Options) { o.ParseLists = enabled }
}

// WithSeparators sets the ordered list separators. Empty separators are ignored.
func WithSeparators(seps ...string) Option {
	return func(o *Options) {
		o.ListSeparators = append([]string(nil), seps...)
	}
}

// WithQuotes toggles stripping one pair of matching quotes.
func WithQuotes(enabled bool) Option {
	return func(o *Options) { o.StripQuotes = enabled }
}

// WithUnescape toggles resolving backslash escapes inside stripped quotes.
func WithUnescape(enabled bool) Option {
	return func(o *Options) { o.UnescapeInQuotes = enabled }
}

// WithInterpolation toggles ${NAME} and $NAME expansion.
func WithInterpolation(enabled bool) Option {
	return func(o *Options) { o.InterpolateEnv = enabled }
}

// WithExpandUser toggles expanding a leading ~ to the home directory.
func WithExpandUser(enabled bool) Option {
	return func(o *Options) { o.ExpandUser = enabled }
}

// WithDurations toggles casting duration text to float seconds.
func WithDurations(enabled bool) Option {
	return func(o *Options) { o.ParseDuration = enabled }
}

// WithByteSizes toggles casting sizes such as 10KB to integer bytes.
func WithByteSizes(enabled bool) Option {
	return func(o *Options) { o.ParseByteSize = enabled }
}

// WithPercentMode selects how text such as 50% is cast.
func WithPercentMode(mode PercentMode) Option {
	return func(o *Options) { o.PercentMode = mode }
}

// WithLowercase lowercases string results.
func WithLowercase(enabled bool) Option {
	return func(o *Options) { o.LowercaseStrings = enabled }
}

// WithEnum restricts results to allowed. Calling it with no values rejects
// every non-none result.
func WithEnum(allowed ...string) Option {
	return func(o *Options) {
		o.Enum = append([]string{}, allowed...)
	}
}

// WithoutEnum clears a previously set enum restriction.
func WithoutEnum() Option {
	return func(o *Options) { o.Enum = nil }
}
