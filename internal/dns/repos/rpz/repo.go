package rpz

import (
	"fmt"
	"sync"
	"time"

	"github.com/haukened/rr-zonecheck/internal/dns/common/clock"
	"github.com/haukened/rr-zonecheck/internal/dns/common/log"
	"github.com/haukened/rr-zonecheck/internal/dns/common/utils"
	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

// repository implements Repository with a bloom → cache → store pipeline on
// reads. Writes go to the store first, then the Bloom filter is rebuilt and
// swapped and the cache purged under lock.
type repository struct {
	mu      sync.RWMutex
	store   Store
	cache   DecisionCache
	bloom   BloomFilter
	factory BloomFactory
	fpRate  float64
	clock   clock.Clock
	logger  log.Logger

	// generation counts swaps; a lookup started under an older generation
	// must not cache its result.
	generation uint64
}

// NewRepository constructs a Repository over an opened store and builds the
// initial Bloom filter from the rules already stored. fpRate is the target
// false-positive rate used whenever the filter is rebuilt. A nil clock uses
// wall time; a nil logger uses the global one.
func NewRepository(store Store, cache DecisionCache, factory BloomFactory, fpRate float64, clk clock.Clock, logger log.Logger) (Repository, error) {
	if clk == nil {
		clk = clock.RealClock{}
	}
	r := &repository{
		store:   store,
		cache:   cache,
		factory: factory,
		fpRate:  fpRate,
		clock:   clk,
		logger:  log.WithComponent(logger, "rpz"),
	}
	if err := r.rebuildFromStore(); err != nil {
		return nil, err
	}
	return r, nil
}

// Decide returns the policy decision for name. An exact rule wins over any
// wildcard; otherwise the wildcard on the nearest parent applies. Wildcards
// never match their own apex. Expired rules are ignored.
// On store errors the name is treated as unmatched.
func (r *repository) Decide(name string) domain.PolicyDecision {
	cn := utils.CanonicalDNSName(name)
	now := r.clock.Now()
	gen := r.currentGeneration()

	// 1) checkBloom: early no-match when definitively negative
	if !r.checkBloom(cn) {
		return domain.NoMatch()
	}
	// 2) checkCache
	if d, ok := r.checkCache(cn, now); ok {
		return d
	}
	// 3) checkStore
	cd, ok := r.checkStore(cn, now)
	if !ok {
		return cd.Decision
	}
	// 4) updateCache
	r.updateCache(cn, cd, gen)
	return cd.Decision
}

// Import adds or replaces rules by their stored domain.
func (r *repository) Import(rules []domain.ValidatedRPZRule) error {
	if err := r.store.Upsert(rules, r.clock.Now().Unix()); err != nil {
		return fmt.Errorf("rpz import: %w", err)
	}
	return r.rebuildFromStore()
}

// ReplaceAll performs an atomic snapshot update across store, bloom, and cache.
func (r *repository) ReplaceAll(rules []domain.ValidatedRPZRule, version uint64) error {
	// 1) Rebuild the persistent store first.
	if err := r.store.ReplaceAll(rules, version, r.clock.Now().Unix()); err != nil {
		return fmt.Errorf("rpz replace: %w", err)
	}

	// 2) Build a fresh Bloom filter sized for the dataset.
	bf := r.factory.New(uint64(len(rules)), r.fpRate)
	for _, ru := range rules {
		bf.Add(bloomKey(ru))
	}

	// 3) Swap bloom and purge decision cache under lock.
	r.swap(bf)
	return nil
}

func (r *repository) Stats() RepoStats {
	r.mu.RLock()
	cs := r.cache.Stats()
	r.mu.RUnlock()
	return RepoStats{Cache: cs, Store: r.store.Stats()}
}

func (r *repository) rebuildFromStore() error {
	bf := r.factory.New(r.store.Stats().Rules(), r.fpRate)
	if err := r.store.Visit(func(ru domain.ValidatedRPZRule) bool {
		bf.Add(bloomKey(ru))
		return true
	}); err != nil {
		return fmt.Errorf("rpz bloom rebuild: %w", err)
	}
	r.swap(bf)
	return nil
}

func (r *repository) swap(bf BloomFilter) {
	r.mu.Lock()
	r.bloom = bf
	r.cache.Purge()
	r.generation++
	r.mu.Unlock()
}

func (r *repository) currentGeneration() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}

// bloomKey is the stored domain: "name" for exact rules, "*.name" for wildcards.
// Both forms stay distinct because '*' never appears inside a name.
func bloomKey(ru domain.ValidatedRPZRule) []byte {
	if ru.Wildcard {
		return []byte("*." + ru.Name)
	}
	return []byte(ru.Name)
}

// checkBloom returns true if we should consult the store (maybe-positive),
// or false if no rule can apply. Without a filter it always returns true.
func (r *repository) checkBloom(cn string) bool {
	r.mu.RLock()
	bf := r.bloom
	r.mu.RUnlock()
	if bf == nil {
		return true
	}
	if bf.MightContain([]byte(cn)) {
		return true
	}
	// wildcard anchors, most-specific → apex
	for _, p := range utils.ParentNames(cn) {
		if bf.MightContain([]byte("*." + p)) {
			return true
		}
	}
	return false
}

// checkCache returns a cached decision that is still valid at now.
func (r *repository) checkCache(cn string, now time.Time) (domain.PolicyDecision, bool) {
	r.mu.RLock()
	d, ok := r.cache.Get(cn)
	r.mu.RUnlock()
	if !ok || !d.ValidAt(now) {
		return domain.PolicyDecision{}, false
	}
	return d.Decision, true
}

// checkStore consults the authoritative store. A matched decision is only
// cacheable until the matched rule expires. ok is false when the store failed;
// the returned no-match must then not be cached.
func (r *repository) checkStore(cn string, now time.Time) (CachedDecision, bool) {
	live := func(ru domain.ValidatedRPZRule) bool { return !ru.IsExpired(now) }
	rule, found, err := r.store.FirstMatch(cn, live)
	if err != nil {
		r.logger.Error(map[string]any{"name": cn, "error": err.Error()}, "rpz store lookup failed")
		return CachedDecision{Decision: domain.NoMatch()}, false
	}
	if !found {
		return CachedDecision{Decision: domain.NoMatch()}, true
	}
	cd := CachedDecision{Decision: domain.DecisionFor(rule)}
	if rule.Rule.ExpiresAt != nil {
		cd.NotAfter = *rule.Rule.ExpiresAt
	}
	return cd, true
}

// updateCache writes the final decision unless the rules were swapped since
// the lookup began.
func (r *repository) updateCache(cn string, cd CachedDecision, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation != gen {
		return
	}
	r.cache.Put(cn, cd)
}
