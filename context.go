package castenv

import (
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/eugenenazirov/castenv/envfile"
	"github.com/eugenenazirov/castenv/source"
)

// Context holds the active resolution config, the stack of scoped overrides
// and the env file cache. It is safe for concurrent use.
type Context struct {
	mu     sync.RWMutex
	active source.Config
	stack  []frame

	provider source.Provider
	environ  source.Environ
	reader   envfile.Reader
	cache    *envfile.Cache
	logger   *zap.Logger
}

// Option configures a Context.
type Option func(*Context)

// WithConfig sets the initial config. The default is source.DefaultConfig.
func WithConfig(cfg source.Config) Option {
	return func(c *Context) { c.active = cfg.Clone() }
}

// WithProvider installs a credential store consulted before every other layer.
func WithProvider(p source.Provider) Option {
	return func(c *Context) { c.provider = p }
}

// WithEnviron replaces the process environment, primarily for tests.
func WithEnviron(env source.Environ) Option {
	return func(c *Context) { c.environ = env }
}

// WithReader replaces the env file reader.
func WithReader(r envfile.Reader) Option {
	return func(c *Context) { c.reader = r }
}

// WithLogger sets the logger used for discovery and scope events.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Context) { c.logger = logger }
}

// DetectProvider loads a settings.ini found from the working directory upward
// as the provider. Nothing is installed when no file is found or it cannot be read.
func DetectProvider() Option {
	return func(c *Context) {
		wd, err := os.Getwd()
		if err != nil {
			return
		}
		path, ok := source.FindINI(wd)
		if !ok {
			return
		}
		provider, err := source.LoadINI(path, "")
		if err != nil {
			if c.logger != nil {
				c.logger.Warn("settings file ignored", zap.String("path", path), zap.Error(err))
			}
			return
		}
		c.provider = provider
	}
}

// New builds a Context.
func New(opts ...Option) *Context {
	c := &Context{
		active:  source.DefaultConfig(),
		environ: source.Process,
		reader:  envfile.DotenvReader{},
		cache:   envfile.NewCache(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Config returns a copy of the active config.
func (c *Context) Config() source.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active.Clone()
}

// Configure replaces the active config. Inside a scope the replacement lasts
// until the scope is released.
func (c *Context) Configure(cfg source.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.install(cfg.Clone())
}

// RefreshCache forgets every cached env file read.
func (c *Context) RefreshCache() {
	c.cache.Clear()
	c.logger.Debug("env file cache cleared")
}

// Files lists the env files the active config resolves to, lowest precedence first.
func (c *Context) Files() ([]envfile.Candidate, error) {
	return envfile.Discover(c.Config().Plan())
}

// Chain returns a resolver over the active config.
func (c *Context) Chain() *source.Chain {
	cfg := c.Config()
	return source.NewChain(cfg, c.provider, c.dotenv(cfg), c.environ)
}

// install must be called with mu held.
func (c *Context) install(cfg source.Config) {
	if cfg.Fingerprint() != c.active.Fingerprint() {
		c.cache.Clear()
	}
	c.active = cfg
}

func (c *Context) dotenv(cfg source.Config) map[string]string {
	plan := cfg.Plan()
	key := plan.Fingerprint()
	if pairs, ok := c.cache.Get(key); ok {
		return pairs
	}

	candidates, err := envfile.Discover(plan)
	if err != nil {
		c.logger.Warn("env file discovery failed", zap.Error(err))
		return map[string]string{}
	}
	pairs := envfile.Load(candidates, c.reader, c.logger)
	c.cache.Set(key, pairs)
	return pairs
}
