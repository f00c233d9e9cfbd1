// Package rpz stores validated Response Policy Zone rules and answers policy
// lookups for names. Reads go through a decision cache and a Bloom prefilter
// before touching the persistent store.
package rpz

import (
	"time"

	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

// BloomSizer computes Bloom filter parameters from capacity (n) and target FP rate (p).
// It returns m (number of bits) and k (number of hash functions).
type BloomSizer interface {
	Size(n uint64, p float64) (m uint64, k uint8)
}

// BloomFilter is the minimal interface the repository needs from Bloom filters.
type BloomFilter interface {
	Add(key []byte)
	MightContain(key []byte) bool
}

// BloomFactory builds filters sized for a rule count.
type BloomFactory interface {
	New(capacity uint64, fpRate float64) BloomFilter
}

// CachedDecision is a decision plus the instant it stops being valid. A zero
// NotAfter never expires.
type CachedDecision struct {
	Decision domain.PolicyDecision
	NotAfter time.Time
}

// ValidAt reports whether the cached decision can still be served at now.
func (c CachedDecision) ValidAt(now time.Time) bool {
	return c.NotAfter.IsZero() || now.Before(c.NotAfter)
}

// DecisionCache caches policy decisions by canonical name.
type DecisionCache interface {
	Get(name string) (CachedDecision, bool)
	Put(name string, d CachedDecision)
	Len() int
	Purge()
	Stats() CacheStats
}

// Store is the persistent rule index.
//   - FirstMatch: the exact rule for name, else the wildcard rule of the
//     nearest proper parent, skipping rules live rejects
//   - Upsert: add or replace rules keyed by their stored domain
//   - ReplaceAll: swap the whole rule set in one transaction
//   - Visit: iterate all stored rules (exact first, then wildcard)
type Store interface {
	FirstMatch(name string, live func(domain.ValidatedRPZRule) bool) (domain.ValidatedRPZRule, bool, error)
	Upsert(rules []domain.ValidatedRPZRule, updatedUnix int64) error
	ReplaceAll(rules []domain.ValidatedRPZRule, version uint64, updatedUnix int64) error
	Visit(visit func(domain.ValidatedRPZRule) bool) error
	Stats() StoreStats
	Close() error
}

// RepoStats exposes repository-level counters and underlying store stats.
type RepoStats struct {
	Cache CacheStats
	Store StoreStats
}

// Repository composes cache, Bloom filter and store.
// Decide returns the policy decision for a name at the repository clock's now.
// Import upserts rules; ReplaceAll swaps the rule set. Both refresh the Bloom
// filter and clear the cache.
type Repository interface {
	Decide(name string) domain.PolicyDecision
	Import(rules []domain.ValidatedRPZRule) error
	ReplaceAll(rules []domain.ValidatedRPZRule, version uint64) error
	Stats() RepoStats
}
