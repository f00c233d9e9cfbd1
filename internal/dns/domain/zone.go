package domain

import (
	"strconv"
	"strings"
)

// SOAFields holds the authoritative parameters of a zone.
// AdminEmail is in DNS dotted form (hostmaster.example.com), not mailbox form.
type SOAFields struct {
	PrimaryNS  string
	AdminEmail string
	Serial     uint32
	Refresh    uint32
	Retry      uint32
	Expire     uint32
	Minimum    uint32
}

// ValidatedSOA is an SOA that passed field and serial checks.
type ValidatedSOA struct {
	SOAFields
	Warnings []Warning
}

// Zone is the authoritative context owning a set of records.
type Zone struct {
	Name       string     // zone apex, e.g. "example.com"
	DefaultTTL uint32     // inherited by records without a TTL; 0 defers to the engine default
	SOA        *SOAFields // nil when the zone has no stored SOA yet
}

// ZoneSnapshot is a read-only view of the records currently stored for a zone.
// The caller owns the records; the snapshot only indexes them by owner name.
type ZoneSnapshot struct {
	Zone    Zone
	Records []ValidatedRecord
	byName  map[string][]int
}

// NewZoneSnapshot builds a snapshot and its owner-name index.
// Records are expected to carry canonical names (as produced by validation).
func NewZoneSnapshot(zone Zone, records []ValidatedRecord) ZoneSnapshot {
	idx := make(map[string][]int, len(records))
	for i, r := range records {
		idx[r.Name] = append(idx[r.Name], i)
	}
	return ZoneSnapshot{Zone: zone, Records: records, byName: idx}
}

// RecordsAt returns the records stored at the given canonical owner name.
// Snapshots built as struct literals (no index) fall back to a linear scan.
func (s ZoneSnapshot) RecordsAt(name string) []ValidatedRecord {
	if s.byName == nil {
		var out []ValidatedRecord
		for _, r := range s.Records {
			if r.Name == name {
				out = append(out, r)
			}
		}
		return out
	}
	ids := s.byName[name]
	out := make([]ValidatedRecord, 0, len(ids))
	for _, i := range ids {
		out = append(out, s.Records[i])
	}
	return out
}

// Put adds r to the snapshot, replacing the stored record with the same ID
// when r carries one. A zone holds a single SOA: an SOA replaces any stored
// one. Only the owner building a snapshot may call Put; views handed to
// validation are read-only.
func (s *ZoneSnapshot) Put(r ValidatedRecord) {
	if s.byName == nil {
		*s = NewZoneSnapshot(s.Zone, s.Records)
	}
	if r.Type == RRTypeSOA {
		s.dropSOA()
	}
	if r.ID != "" {
		for i, old := range s.Records {
			if old.ID != r.ID {
				continue
			}
			s.Records[i] = r
			if old.Name != r.Name {
				s.byName[old.Name] = removeIndex(s.byName[old.Name], i)
				s.byName[r.Name] = append(s.byName[r.Name], i)
			}
			return
		}
	}
	s.Records = append(s.Records, r)
	s.byName[r.Name] = append(s.byName[r.Name], len(s.Records)-1)
}

// dropSOA removes every stored SOA record and rebuilds the index.
func (s *ZoneSnapshot) dropSOA() {
	kept := make([]ValidatedRecord, 0, len(s.Records))
	for _, r := range s.Records {
		if r.Type != RRTypeSOA {
			kept = append(kept, r)
		}
	}
	if len(kept) != len(s.Records) {
		*s = NewZoneSnapshot(s.Zone, kept)
	}
}

func removeIndex(ids []int, target int) []int {
	out := ids[:0]
	for _, i := range ids {
		if i != target {
			out = append(out, i)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// PreviousSerial returns the serial currently in force for the zone: the
// highest of the zone's SOA parameters and any stored SOA record.
func (s ZoneSnapshot) PreviousSerial() (uint32, bool) {
	var serial uint32
	found := false
	if s.Zone.SOA != nil {
		serial, found = s.Zone.SOA.Serial, true
	}
	for _, r := range s.Records {
		if r.Type != RRTypeSOA {
			continue
		}
		if v, ok := ParseStoredSOASerial(r.Value); ok && (!found || v > serial) {
			serial, found = v, true
		}
	}
	return serial, found
}

// ParseStoredSOASerial extracts the serial from a normalized SOA value
// ("mname rname serial refresh retry expire minimum").
func ParseStoredSOASerial(value string) (uint32, bool) {
	fields := strings.Fields(value)
	if len(fields) != 7 {
		return 0, false
	}
	v, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}
