package domain

import (
	"strconv"
	"strings"
)

// ResourceRecord is a candidate record as supplied by the caller (API or zone file).
// Strings are expected to be pre-trimmed. Optional numeric fields are nil when absent;
// whether they must be present depends on Type.
type ResourceRecord struct {
	ID       string // identifies the stored record this candidate replaces; empty for inserts
	Name     string // owner name: relative, absolute (trailing dot) or "@"
	Type     RRType
	Value    string // type-specific presentation payload
	TTL      *int   // nil inherits the zone default
	Priority *int
	Weight   *int
	Port     *int
}

// ValidatedRecord is a record that passed every check. Names are canonical:
// lowercase, fully qualified, no trailing dot.
type ValidatedRecord struct {
	ID       string
	Name     string
	Type     RRType
	Value    string
	TTL      uint32 // effective TTL, inherited when the candidate omitted it
	Priority *uint16
	Weight   *uint16
	Port     *uint16
	Warnings []Warning
}

// RDataKey returns the identity of the record data used for duplicate detection.
// TTL is deliberately excluded: two records differing only in TTL are the same RR.
func (r ValidatedRecord) RDataKey() string {
	var b strings.Builder
	b.WriteString(r.Type.String())
	b.WriteByte('|')
	b.WriteString(r.Value)
	for _, f := range []*uint16{r.Priority, r.Weight, r.Port} {
		b.WriteByte('|')
		if f != nil {
			b.WriteString(strconv.FormatUint(uint64(*f), 10))
		}
	}
	return b.String()
}

// HasWarnings reports whether any non-fatal findings were attached.
func (r ValidatedRecord) HasWarnings() bool { return len(r.Warnings) > 0 }

// IntPtr is a small helper for building candidates with optional fields.
func IntPtr(v int) *int { return &v }

// Uint16Ptr mirrors IntPtr for validated fields.
func Uint16Ptr(v uint16) *uint16 { return &v }
