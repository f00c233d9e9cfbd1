package rpz

// CacheStats reports lightweight cache metrics.
// All fields are best-effort snapshots and may be updated concurrently.
type CacheStats struct {
	Capacity  int    // configured capacity (0 for disabled cache)
	Size      int    // current number of entries
	Hits      uint64 // total cache hits since construction
	Misses    uint64 // total cache misses since construction
	Evictions uint64 // total evictions since construction
}

// StoreStats reports store counts and metadata.
type StoreStats struct {
	Version       uint64 // snapshot version set by ReplaceAll (0 if never set)
	UpdatedUnix   int64  // last write, unix seconds (0 if unknown)
	ExactCount    uint64 // rules keyed by a plain name
	WildcardCount uint64 // rules keyed by a "*." name
}

// Rules returns the total number of stored rules.
func (s StoreStats) Rules() uint64 { return s.ExactCount + s.WildcardCount }
