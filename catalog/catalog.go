// Package catalog caches the tool list exposed by the active tool provider.
//
// A fetched list is served for five minutes. Swapping the provider bumps the
// catalog version and drops the cache at once; turns that already captured a
// Handle keep talking to the provider they started with.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mcpchat/config"
	"mcpchat/model"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/sahilm/fuzzy"
)

// DefaultExpiry is how long a fetched tool list stays valid.
const DefaultExpiry = 5 * time.Minute

// ErrProviderUnavailable is returned when the provider fails and there is no
// cached list to fall back on.
var ErrProviderUnavailable = errors.New("provider unavailable")

type Catalog struct {
	mu sync.Mutex

	provider model.ToolProvider
	version  uint64 // bumped on every provider swap
	gen      uint64 // bumped on every invalidation

	tools     []mcptypes.Tool
	fetchedAt time.Time
	cached    bool

	expiry   time.Duration
	now      func() time.Time
	excluded map[string]bool
}

type Option func(*Catalog)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

func WithExpiry(d time.Duration) Option {
	return func(c *Catalog) {
		if d > 0 {
			c.expiry = d
		}
	}
}

// WithExcluded hides tools by name from every list the catalog returns.
func WithExcluded(names ...string) Option {
	return func(c *Catalog) {
		for _, n := range names {
			c.excluded[n] = true
		}
	}
}

// New creates a catalog over provider. provider may be nil, in which case
// the catalog reports no tools until SetProvider is called.
func New(provider model.ToolProvider, opts ...Option) *Catalog {
	c := &Catalog{
		provider: provider,
		expiry:   DefaultExpiry,
		now:      time.Now,
		excluded: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tools returns the tool list for the current provider.
func (c *Catalog) Tools(ctx context.Context) ([]mcptypes.Tool, error) {
	return c.Current().Tools(ctx)
}

// Invalidate drops the cached list unconditionally.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked()
}

func (c *Catalog) invalidateLocked() {
	c.tools = nil
	c.cached = false
	c.fetchedAt = time.Time{}
	c.gen++
}

// SetProvider swaps the tool provider and invalidates the cache in one step.
// In-progress turns are not interrupted.
func (c *Catalog) SetProvider(p model.ToolProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.provider = p
	c.version++
	c.invalidateLocked()

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Catalog] Provider swapped, version=%d", c.version)
	}
}

// Current captures the active provider and its version.
func (c *Catalog) Current() Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Handle{catalog: c, provider: c.provider, version: c.version}
}

// Find fuzzy-matches query against the names of the cached tools. It never
// fetches; an empty cache yields no matches.
func (c *Catalog) Find(query string) []mcptypes.Tool {
	c.mu.Lock()
	tools := c.filter(c.tools)
	c.mu.Unlock()

	if query == "" {
		return tools
	}

	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}

	matches := fuzzy.Find(query, names)
	result := make([]mcptypes.Tool, 0, len(matches))
	for _, m := range matches {
		result = append(result, tools[m.Index])
	}
	return result
}

// toolsFor serves a handle. Handles from an older provider version bypass the
// cache entirely so they never read or overwrite the new provider's list.
func (c *Catalog) toolsFor(ctx context.Context, version uint64, provider model.ToolProvider) ([]mcptypes.Tool, error) {
	if provider == nil {
		return nil, nil
	}

	c.mu.Lock()
	if version != c.version {
		c.mu.Unlock()
		tools, err := provider.ListTools(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		return c.filterWithLock(tools), nil
	}

	now := c.now()
	if c.cached && now.Sub(c.fetchedAt) < c.expiry {
		tools := c.filter(c.tools)
		c.mu.Unlock()
		return tools, nil
	}
	gen := c.gen
	c.mu.Unlock()

	fetched, err := provider.ListTools(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		if c.cached {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Catalog] Refresh failed, serving stale list of %d tools: %v", len(c.tools), err)
			}
			return c.filter(c.tools), nil
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	// Only store if nothing invalidated the cache while we were fetching.
	if gen == c.gen && version == c.version {
		c.tools = fetched
		c.fetchedAt = now
		c.cached = true
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Catalog] Fetched %d tools", len(fetched))
	}

	return c.filter(fetched), nil
}

// filterWithLock takes the lock to read the exclusion set.
func (c *Catalog) filterWithLock(tools []mcptypes.Tool) []mcptypes.Tool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter(tools)
}

// filter returns a copy of tools without excluded names. Caller holds mu.
func (c *Catalog) filter(tools []mcptypes.Tool) []mcptypes.Tool {
	out := make([]mcptypes.Tool, 0, len(tools))
	for _, t := range tools {
		if c.excluded[t.Name] {
			continue
		}
		out = append(out, t)
	}
	return out
}
