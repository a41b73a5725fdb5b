package castenv

import (
	"sync"

	"go.uber.org/zap"

	"github.com/eugenenazirov/castenv/source"
)

// Scope is a temporary config override. Release restores the config that was
// active when the scope began.
type Scope struct {
	ctx  *Context
	once sync.Once
}

type frame struct {
	scope *Scope
	prev  source.Config
}

// Scope installs cfg until the returned Scope is released.
func (c *Context) Scope(cfg source.Config) *Scope {
	s := &Scope{ctx: c}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stack = append(c.stack, frame{scope: s, prev: c.active})
	c.install(cfg.Clone())
	c.logger.Debug("config scope entered", zap.Int("depth", len(c.stack)))
	return s
}

// Using scopes a copy of the active config with opts applied.
func (c *Context) Using(opts ...source.Option) *Scope {
	return c.Scope(c.Config().With(opts...))
}

// With runs fn with cfg active and restores the previous config when fn
// returns or panics.
func (c *Context) With(cfg source.Config, fn func() error) error {
	s := c.Scope(cfg)
	defer s.Release()
	return fn()
}

// Depth reports how many scopes are open.
func (c *Context) Depth() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.stack)
}

// Release restores the previous config. Scopes opened inside s and not yet
// released are discarded as well. Calling Release more than once is a no-op.
func (s *Scope) Release() {
	if s == nil || s.ctx == nil {
		return
	}
	s.once.Do(func() {
		c := s.ctx
		c.mu.Lock()
		defer c.mu.Unlock()

		for i := len(c.stack) - 1; i >= 0; i-- {
			if c.stack[i].scope != s {
				continue
			}
			prev := c.stack[i].prev
			c.stack = c.stack[:i]
			c.install(prev)
			c.logger.Debug("config scope released", zap.Int("depth", i+1))
			return
		}
	})
}
