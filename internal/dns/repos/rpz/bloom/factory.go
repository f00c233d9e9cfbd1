// Package bloom provides the negative prefilter for RPZ lookups, backed by
// bits-and-blooms.
package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/rr-zonecheck/internal/dns/repos/rpz"
)

// factory implements rpz.BloomFactory using a BloomSizer for m and k.
type factory struct {
	sizer rpz.BloomSizer
}

// NewFactory returns a BloomFactory that sizes filters from capacity and FP rate.
func NewFactory() rpz.BloomFactory { return factory{sizer: NewSizer()} }

// New constructs an empty filter sized for capacity rules at fpRate.
func (f factory) New(capacity uint64, fpRate float64) rpz.BloomFilter {
	m, k := f.sizer.Size(capacity, fpRate)
	return &filter{bf: bitsbloom.New(uint(m), uint(k))}
}
