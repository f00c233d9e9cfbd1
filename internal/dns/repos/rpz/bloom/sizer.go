package bloom

import (
	"math"

	"github.com/haukened/rr-zonecheck/internal/dns/repos/rpz"
)

// DefaultFPRate applies when the configured rate is outside (0, 1).
const DefaultFPRate = 0.01

// sizer implements rpz.BloomSizer using the standard formulas:
//
//	m = - (n * ln p) / (ln 2)^2
//	k = (m / n) * ln 2
//
// An empty rule set is sized as one rule; m and k are at least 1.
type sizer struct{}

// NewSizer returns a BloomSizer implementation.
func NewSizer() rpz.BloomSizer { return sizer{} }

func (sizer) Size(n uint64, p float64) (uint64, uint8) {
	if n == 0 {
		n = 1
	}
	if !(p > 0 && p < 1) {
		p = DefaultFPRate
	}
	ln2 := math.Ln2
	m := uint64(math.Ceil(-float64(n) * math.Log(p) / (ln2 * ln2)))
	if m == 0 {
		m = 1
	}
	k := math.Max(1, math.Round((float64(m)/float64(n))*ln2))
	if k > math.MaxUint8 {
		k = math.MaxUint8
	}
	return m, uint8(k)
}
