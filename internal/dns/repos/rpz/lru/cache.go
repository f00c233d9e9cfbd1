// Package lru caches RPZ policy decisions by canonical name.
package lru

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/rr-zonecheck/internal/dns/repos/rpz"
)

// decisionCache is an LRU-backed implementation of rpz.DecisionCache.
// It tracks hits, misses, and evictions.
type decisionCache struct {
	lru       *lru.Cache[string, rpz.CachedDecision]
	capacity  int
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// disabledCache is a no-op DecisionCache used when size <= 0.
type disabledCache struct{}

// New creates a DecisionCache holding up to size decisions. If size <= 0, a
// disabled cache is returned that always misses and tracks nothing.
func New(size int) (rpz.DecisionCache, error) {
	if size <= 0 {
		return disabledCache{}, nil
	}

	dc := &decisionCache{capacity: size}
	// NewWithEvict observes evictions, including Purge-induced ones.
	cache, err := lru.NewWithEvict(size, func(string, rpz.CachedDecision) {
		dc.evictions.Add(1)
	})
	if err != nil {
		return nil, err
	}
	dc.lru = cache
	return dc, nil
}

func (c *decisionCache) Get(name string) (rpz.CachedDecision, bool) {
	if val, ok := c.lru.Get(name); ok {
		c.hits.Add(1)
		return val, true
	}
	c.misses.Add(1)
	return rpz.CachedDecision{}, false
}

func (c *decisionCache) Put(name string, d rpz.CachedDecision) { c.lru.Add(name, d) }

func (c *decisionCache) Len() int { return c.lru.Len() }

// Purge clears all entries. Evictions are counted via the eviction callback.
func (c *decisionCache) Purge() { c.lru.Purge() }

func (c *decisionCache) Stats() rpz.CacheStats {
	return rpz.CacheStats{
		Capacity:  c.capacity,
		Size:      c.lru.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

func (disabledCache) Get(string) (rpz.CachedDecision, bool) { return rpz.CachedDecision{}, false }
func (disabledCache) Put(string, rpz.CachedDecision)        {}
func (disabledCache) Len() int                              { return 0 }
func (disabledCache) Purge()                                {}
func (disabledCache) Stats() rpz.CacheStats                 { return rpz.CacheStats{} }

var _ rpz.DecisionCache = (*decisionCache)(nil)
var _ rpz.DecisionCache = disabledCache{}
