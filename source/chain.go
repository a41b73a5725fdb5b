package source

import "os"

// Layer names where a value was found.
type Layer string

const (
	LayerNone     Layer = "none"
	LayerProvider Layer = "provider"
	LayerDotenv   Layer = "dotenv"
	LayerProcess  Layer = "process"
)

// Provider is an optional credential store consulted before every other layer.
type Provider interface {
	Lookup(key string) (string, bool)
}

// Environ exposes the process environment.
type Environ interface {
	Lookup(key string) (string, bool)
}

type processEnviron struct{}

func (processEnviron) Lookup(key string) (string, bool) { return os.LookupEnv(key) }

// Process reads the real process environment.
var Process Environ = processEnviron{}

// Static is a fixed set of pairs usable as a Provider or an Environ.
type Static map[string]string

func (s Static) Lookup(key string) (string, bool) {
	v, ok := s[key]
	return v, ok
}

// Chain resolves keys across the provider, env file and process layers.
type Chain struct {
	provider Provider
	dotenv   map[string]string
	environ  Environ
	preferOS bool
}

// NewChain builds a chain over the given layers. provider is consulted only
// when non-nil and cfg allows it. A nil environ reads the process environment.
func NewChain(cfg Config, provider Provider, dotenv map[string]string, environ Environ) *Chain {
	if !cfg.UseProviderIfAvailable {
		provider = nil
	}
	if environ == nil {
		environ = Process
	}
	if dotenv == nil {
		dotenv = map[string]string{}
	}
	return &Chain{
		provider: provider,
		dotenv:   dotenv,
		environ:  environ,
		preferOS: cfg.PreferOSOverDotenv,
	}
}

// Lookup returns the raw value of key.
func (c *Chain) Lookup(key string) (string, bool) {
	v, _, ok := c.Explain(key)
	return v, ok
}

// Explain returns the raw value of key together with the layer that supplied it.
func (c *Chain) Explain(key string) (string, Layer, bool) {
	if c.provider != nil {
		if v, ok := c.provider.Lookup(key); ok {
			return v, LayerProvider, true
		}
	}

	if c.preferOS {
		if v, ok := c.environ.Lookup(key); ok {
			return v, LayerProcess, true
		}
		if v, ok := c.dotenv[key]; ok {
			return v, LayerDotenv, true
		}
		return "", LayerNone, false
	}

	if v, ok := c.dotenv[key]; ok {
		return v, LayerDotenv, true
	}
	if v, ok := c.environ.Lookup(key); ok {
		return v, LayerProcess, true
	}
	return "", LayerNone, false
}
