package castenv

import (
	"sync"

	"github.com/eugenenazirov/castenv/envfile"
	"github.com/eugenenazirov/castenv/normalize"
	"github.com/eugenenazirov/castenv/source"
	"github.com/eugenenazirov/castenv/value"
)

var (
	defaultOnce sync.Once
	defaultCtx  *Context
)

// Default returns the process-wide Context used by the package-level
// functions. It is created on first use with source.DefaultConfig and a
// settings.ini provider when one is found above the working directory.
func Default() *Context {
	defaultOnce.Do(func() {
		defaultCtx = New(DetectProvider())
	})
	return defaultCtx
}

// Configure replaces the active config of the default Context.
func Configure(cfg source.Config) { Default().Configure(cfg) }

// CurrentConfig returns the active config of the default Context.
func CurrentConfig() source.Config { return Default().Config() }

// Scoped pushes cfg onto the default Context until the Scope is released.
func Scoped(cfg source.Config) *Scope { return Default().Scope(cfg) }

// Using scopes the default Context to its current config with opts applied.
func Using(opts ...source.Option) *Scope { return Default().Using(opts...) }

// With runs fn with cfg active on the default Context.
func With(cfg source.Config, fn func() error) error { return Default().With(cfg, fn) }

// RefreshCache drops the env files cached by the default Context.
func RefreshCache() { Default().RefreshCache() }

// Files lists the env files the default Context reads.
func Files() ([]envfile.Candidate, error) { return Default().Files() }

// Get resolves key through the default Context.
func Get(key string, def any, opts ...normalize.Option) (value.Value, error) {
	return Default().Get(key, def, opts...)
}

// Explain resolves key through the default Context and reports its layer.
func Explain(key string, def any, opts ...normalize.Option) (Resolution, error) {
	return Default().Explain(key, def, opts...)
}

// GetBool resolves key as a boolean.
func GetBool(key string, def bool, opts ...normalize.Option) (bool, error) {
	return Default().GetBool(key, def, opts...)
}

// GetInt resolves key as an integer.
func GetInt(key string, def int64, opts ...normalize.Option) (int64, error) {
	return Default().GetInt(key, def, opts...)
}

// GetFloat resolves key as a float.
func GetFloat(key string, def float64, opts ...normalize.Option) (float64, error) {
	return Default().GetFloat(key, def, opts...)
}

// GetString resolves key as canonical text.
func GetString(key string, def string, opts ...normalize.Option) (string, error) {
	return Default().GetString(key, def, opts...)
}

// GetList resolves key as a list.
func GetList(key, def string, separators []string, opts ...normalize.Option) ([]value.Value, error) {
	return Default().GetList(key, def, separators, opts...)
}

// GetAll resolves every key through the default Context.
func GetAll(keys []string, defaults map[string]any, opts ...normalize.Option) (map[string]value.Value, error) {
	return Default().GetAll(keys, defaults, opts...)
}

// NormalizeStructure casts every string leaf of v.
func NormalizeStructure(v value.Value, opts ...normalize.Option) (value.Value, error) {
	return Default().NormalizeStructure(v, opts...)
}

// NormalizeAny casts every string leaf of decoded Go data.
func NormalizeAny(x any, opts ...normalize.Option) (any, error) {
	return Default().NormalizeAny(x, opts...)
}

// Load decodes env-tagged fields of dst from the default Context.
func Load(dst any, opts ...normalize.Option) error { return Default().Load(dst, opts...) }
