package scan

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/GoCodeAlone/modscan/assembly"
)

// Enumerator lists the loadable types of an assembly.
type Enumerator func(assembly.Assembly) ([]*assembly.TypeInfo, error)

// Option configures a Cache.
type Option func(*Cache)

// WithChecks replaces DefaultChecks. A cache is bound to one filter for
// its whole life, so entries are keyed by assembly ID alone.
func WithChecks(checks ...Check) Option {
	return func(c *Cache) {
		c.checks = slices.Clone(checks)
	}
}

// WithEnumerator replaces assembly.LoadableTypes.
func WithEnumerator(e Enumerator) Option {
	return func(c *Cache) {
		c.enumerate = e
	}
}

// Stats counts cache traffic.
type Stats struct {
	Hits         int64
	Misses       int64
	Computations int64
}

// Cache memoizes eligible types per assembly ID. Entries never expire and
// are never evicted. Concurrent first scans of one assembly run a single
// computation and every caller sees its result.
type Cache struct {
	store     *gocache.Cache
	flight    singleflight.Group
	checks    []Check
	enumerate Enumerator

	hits         atomic.Int64
	misses       atomic.Int64
	computations atomic.Int64
}

// NewCache returns an empty cache.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		// A non-positive cleanup interval starts no janitor goroutine.
		store:     gocache.New(gocache.NoExpiration, 0),
		checks:    DefaultChecks,
		enumerate: assembly.LoadableTypes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var shared = sync.OnceValue(func() *Cache { return NewCache() })

// Shared returns the process-wide cache, created on first use.
func Shared() *Cache {
	return shared()
}

// Checks returns the filter the cache applies.
func (c *Cache) Checks() []Check {
	return slices.Clone(c.checks)
}

// EligibleTypes returns the types of a that pass the cache's checks, in
// declaration order. The returned slice is a copy; its elements are shared
// with every other caller.
func (c *Cache) EligibleTypes(a assembly.Assembly) ([]*assembly.TypeInfo, error) {
	if a == nil || a.ID() == "" {
		return nil, assembly.ErrInvalidAssembly
	}
	id := a.ID()

	if types, ok := c.load(id); ok {
		c.hits.Add(1)
		return slices.Clone(types), nil
	}
	c.misses.Add(1)

	v, err, _ := c.flight.Do(id, func() (any, error) {
		// A flight that finished between our miss and this call has
		// already stored the entry.
		if types, ok := c.load(id); ok {
			return types, nil
		}

		loaded, err := c.enumerate(a)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", id, err)
		}
		eligible := Eligible(c.checks, loaded)
		c.computations.Add(1)

		if err := c.store.Add(id, eligible, gocache.NoExpiration); err != nil {
			if types, ok := c.load(id); ok {
				return types, nil
			}
		}
		return eligible, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]*assembly.TypeInfo)), nil
}

// Contains reports whether a has been scanned.
func (c *Cache) Contains(id string) bool {
	_, ok := c.store.Get(id)
	return ok
}

// Len returns the number of scanned assemblies.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Computations: c.computations.Load(),
	}
}

func (c *Cache) load(id string) ([]*assembly.TypeInfo, bool) {
	v, ok := c.store.Get(id)
	if !ok {
		return nil, false
	}
	types, ok := v.([]*assembly.TypeInfo)
	return types, ok
}
