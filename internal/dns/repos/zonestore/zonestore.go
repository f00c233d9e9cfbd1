// Package zonestore holds the validated records of each zone in memory.
// Writes to a zone are serialized so every candidate is validated against
// exactly the state it is written into; reads and other zones proceed
// concurrently.
package zonestore

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/haukened/rr-zonecheck/internal/dns/common/log"
	"github.com/haukened/rr-zonecheck/internal/dns/common/rrdata"
	"github.com/haukened/rr-zonecheck/internal/dns/common/utils"
	"github.com/haukened/rr-zonecheck/internal/dns/domain"
	"github.com/haukened/rr-zonecheck/internal/dns/services/engine"
)

// ErrZoneNotFound is returned when writing to a zone that was never loaded.
var ErrZoneNotFound = errors.New("zone not found")

// Validator is the part of the engine the store drives.
type Validator interface {
	ValidateRecord(candidate domain.ResourceRecord, snapshot domain.ZoneSnapshot) (domain.ValidatedRecord, error)
	ValidateZone(zone domain.Zone, records []domain.ResourceRecord) engine.Report
}

// Store is an in-memory zone store safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	zones     map[string]*zoneState
	validator Validator
	logger    log.Logger
}

// zoneState guards one zone. mu is held across snapshot, validate and write.
type zoneState struct {
	mu       sync.Mutex
	snapshot domain.ZoneSnapshot
}

// New creates an empty store. A nil logger uses the global one.
func New(v Validator, logger log.Logger) *Store {
	return &Store{
		zones:     make(map[string]*zoneState),
		validator: v,
		logger:    log.WithComponent(logger, "zonestore"),
	}
}

// LoadZone validates records as one batch and replaces the zone's contents
// with the accepted ones. When the zone is already loaded and the caller gives
// no SOA parameters, the stored serial carries over, so a reload must not
// move the serial backwards.
func (s *Store) LoadZone(zone domain.Zone, records []domain.ResourceRecord) engine.Report {
	zone.Name = utils.CanonicalDNSName(zone.Name)

	s.mu.Lock()
	st, ok := s.zones[zone.Name]
	if !ok {
		st = &zoneState{snapshot: domain.NewZoneSnapshot(zone, nil)}
		s.zones[zone.Name] = st
	}
	s.mu.Unlock()

	st.mu.Lock()
	defer st.mu.Unlock()

	if zone.SOA == nil {
		zone.SOA = st.snapshot.Zone.SOA
	}
	report := s.validator.ValidateZone(zone, records)

	for _, v := range report.Accepted {
		if v.Type != domain.RRTypeSOA {
			continue
		}
		if soa, err := rrdata.ParseSOA(v.Value); err == nil {
			zone.SOA = &soa
		}
	}
	st.snapshot = domain.NewZoneSnapshot(zone, report.Accepted)

	s.logger.Info(map[string]any{
		"zone":       zone.Name,
		"accepted":   len(report.Accepted),
		"duplicates": len(report.Duplicates),
		"rejected":   len(report.Rejected),
		"warnings":   report.Warnings(),
	}, "zone loaded")
	return report
}

// Apply validates one candidate against the zone's current records and writes
// it when accepted. A candidate that is already stored leaves the zone
// unchanged and is not an error; changed reports whether anything was written.
// An accepted SOA replaces the zone's previous SOA record.
func (s *Store) Apply(zoneName string, candidate domain.ResourceRecord) (v domain.ValidatedRecord, changed bool, err error) {
	st, ok := s.lookup(zoneName)
	if !ok {
		return domain.ValidatedRecord{}, false, fmt.Errorf("%w: %s", ErrZoneNotFound, utils.CanonicalDNSName(zoneName))
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	v, err = s.validator.ValidateRecord(candidate, st.snapshot)
	switch {
	case domain.IsDuplicate(err):
		return domain.ValidatedRecord{}, false, nil
	case err != nil:
		return domain.ValidatedRecord{}, false, err
	}

	st.write(v)
	s.logger.Debug(map[string]any{
		"zone": st.snapshot.Zone.Name,
		"name": v.Name,
		"type": v.Type.String(),
		"id":   v.ID,
	}, "record written")
	return v, true, nil
}

// Delete removes the record with the given ID. The zone's SOA serial is kept
// even when the SOA record itself is deleted.
func (s *Store) Delete(zoneName, id string) (bool, error) {
	st, ok := s.lookup(zoneName)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrZoneNotFound, utils.CanonicalDNSName(zoneName))
	}
	if id == "" {
		return false, nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	n := len(st.snapshot.Records)
	st.keep(func(r domain.ValidatedRecord) bool { return r.ID != id })
	return len(st.snapshot.Records) != n, nil
}

// Snapshot returns a copy of the zone's current state.
func (s *Store) Snapshot(zoneName string) (domain.ZoneSnapshot, bool) {
	st, ok := s.lookup(zoneName)
	if !ok {
		return domain.ZoneSnapshot{}, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	zone := st.snapshot.Zone
	if zone.SOA != nil {
		soa := *zone.SOA
		zone.SOA = &soa
	}
	records := make([]domain.ValidatedRecord, len(st.snapshot.Records))
	copy(records, st.snapshot.Records)
	return domain.NewZoneSnapshot(zone, records), true
}

// RemoveZone drops a zone and all of its records.
func (s *Store) RemoveZone(zoneName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.zones, utils.CanonicalDNSName(zoneName))
}

// Zones returns the loaded zone apexes in sorted order.
func (s *Store) Zones() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	zones := make([]string, 0, len(s.zones))
	for name := range s.zones {
		zones = append(zones, name)
	}
	sort.Strings(zones)
	return zones
}

// Count returns the total number of records across all zones.
func (s *Store) Count() int {
	s.mu.RLock()
	states := make([]*zoneState, 0, len(s.zones))
	for _, st := range s.zones {
		states = append(states, st)
	}
	s.mu.RUnlock()

	count := 0
	for _, st := range states {
		st.mu.Lock()
		count += len(st.snapshot.Records)
		st.mu.Unlock()
	}
	return count
}

func (s *Store) lookup(zoneName string) (*zoneState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.zones[utils.CanonicalDNSName(zoneName)]
	return st, ok
}

// write stores an accepted record. Callers hold st.mu.
func (st *zoneState) write(v domain.ValidatedRecord) {
	if v.Type == domain.RRTypeSOA {
		if soa, err := rrdata.ParseSOA(v.Value); err == nil {
			st.snapshot.Zone.SOA = &soa
		}
	}
	st.snapshot.Put(v)
}

// keep rebuilds the snapshot with the records pred accepts. Callers hold st.mu.
func (st *zoneState) keep(pred func(domain.ValidatedRecord) bool) {
	kept := make([]domain.ValidatedRecord, 0, len(st.snapshot.Records))
	for _, r := range st.snapshot.Records {
		if pred(r) {
			kept = append(kept, r)
		}
	}
	st.snapshot = domain.NewZoneSnapshot(st.snapshot.Zone, kept)
}

var _ Validator = (*engine.Engine)(nil)
