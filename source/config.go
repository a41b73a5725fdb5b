package source

import (
	"slices"
	"strconv"
	"strings"

	"github.com/eugenenazirov/castenv/envfile"
)

// Config controls where values are looked up and in which order.
type Config struct {
	SearchDirs             []string
	EnvName                string
	Filenames              []string
	StopAtFirstFoundDir    bool
	PreferOSOverDotenv     bool
	UseProviderIfAvailable bool
}

// DefaultConfig searches the working directory, stops at the first directory
// holding env files, prefers the process environment and consults a provider
// when one is present.
func DefaultConfig() Config {
	return Config{
		StopAtFirstFoundDir:    true,
		PreferOSOverDotenv:     true,
		UseProviderIfAvailable: true,
	}
}

// Plan returns the env file discovery plan of c.
func (c Config) Plan() envfile.Plan {
	return envfile.Plan{
		SearchDirs:          slices.Clone(c.SearchDirs),
		EnvName:             c.EnvName,
		Filenames:           slices.Clone(c.Filenames),
		StopAtFirstFoundDir: c.StopAtFirstFoundDir,
	}
}

// Fingerprint identifies the resolution behaviour of c.
func (c Config) Fingerprint() string {
	return c.Plan().Fingerprint() + "\x02" +
		strconv.FormatBool(c.PreferOSOverDotenv) +
		strconv.FormatBool(c.UseProviderIfAvailable)
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.SearchDirs = slices.Clone(c.SearchDirs)
	out.Filenames = slices.Clone(c.Filenames)
	return out
}

// With returns a copy of c with opts applied.
func (c Config) With(opts ...Option) Config {
	out := c.Clone()
	for _, opt := range opts {
		if opt != nil {
			opt(&out)
		}
	}
	return out
}

// Option adjusts a Config.
type Option func(*Config)

// WithSearchDirs sets the directories discovery starts from.
func WithSearchDirs(dirs ...string) Option {
	return func(c *Config) { c.SearchDirs = slices.Clone(dirs) }
}

// WithEnvName sets the name substituted for {env} in filename templates.
func WithEnvName(name string) Option {
	return func(c *Config) { c.EnvName = name }
}

// WithFilenames sets the filename templates, lowest precedence first.
func WithFilenames(names ...string) Option {
	return func(c *Config) { c.Filenames = slices.Clone(names) }
}

// WithStopAtFirstFoundDir ends discovery at the first directory holding env files.
func WithStopAtFirstFoundDir(enabled bool) Option {
	return func(c *Config) { c.StopAtFirstFoundDir = enabled }
}

// WithPreferOSOverDotenv orders the process environment ahead of env files.
func WithPreferOSOverDotenv(enabled bool) Option {
	return func(c *Config) { c.PreferOSOverDotenv = enabled }
}

// WithProvider toggles consulting the credential-store provider.
func WithProvider(enabled bool) Option {
	return func(c *Config) { c.UseProviderIfAvailable = enabled }
}

var envNameKeys = []string{"ENV", "APP_ENV", "FLASK_ENV", "DJANGO_ENV", "PY_ENV", "NODE_ENV"}

// DetectEnvName returns the lowercased value of the first non-empty
// conventional environment-name variable, or "" when none is set.
func DetectEnvName(env Environ) string {
	if env == nil {
		env = Process
	}
	for _, key := range envNameKeys {
		if v, ok := env.Lookup(key); ok {
			if v = strings.TrimSpace(v); v != "" {
				return strings.ToLower(v)
			}
		}
	}
	return ""
}
