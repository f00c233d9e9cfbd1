// Package consistency checks a validated candidate record against the records
// already stored for its zone: duplicates, CNAME exclusivity, SOA serial
// monotonicity, plus non-fatal placement warnings.
package consistency

import (
	"fmt"
	"strings"

	"github.com/haukened/rr-zonecheck/internal/dns/common/rrdata"
	"github.com/haukened/rr-zonecheck/internal/dns/common/utils"
	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

// Check returns the candidate, possibly with warnings attached, or the first
// consistency violation. Stored records carrying candidateID are the record
// being replaced and are ignored. The snapshot is never modified.
func Check(candidate domain.ValidatedRecord, candidateID string, snapshot domain.ZoneSnapshot) (domain.ValidatedRecord, error) {
	existing := excludeID(snapshot.RecordsAt(candidate.Name), candidateID)

	key := candidate.RDataKey()
	for _, r := range existing {
		if r.RDataKey() == key {
			return domain.ValidatedRecord{}, &domain.DuplicateRecordError{Name: candidate.Name, Type: candidate.Type, Value: candidate.Value}
		}
	}

	if err := checkCNAMEExclusivity(candidate, existing); err != nil {
		return domain.ValidatedRecord{}, err
	}

	if candidate.Type == domain.RRTypeSOA {
		if err := checkSOASerial(candidate, snapshot); err != nil {
			return domain.ValidatedRecord{}, err
		}
	}

	out := candidate
	out.Warnings = append(append([]domain.Warning(nil), candidate.Warnings...), placementWarnings(candidate, candidateID, snapshot)...)
	return out, nil
}

// CheckSerial enforces strictly increasing SOA serials. Plain unsigned
// comparison; RFC 1982 wraparound is not applied.
func CheckSerial(previous, candidate uint32) error {
	if candidate <= previous {
		return &domain.SerialRegressionError{Previous: previous, Candidate: candidate}
	}
	return nil
}

// A CNAME owner may hold no other data (RFC 1034 3.6.2), and only one CNAME.
func checkCNAMEExclusivity(candidate domain.ValidatedRecord, existing []domain.ValidatedRecord) error {
	for _, r := range existing {
		if candidate.Type == domain.RRTypeCNAME || r.Type == domain.RRTypeCNAME {
			return &domain.ConflictError{ExistingType: r.Type, CandidateType: candidate.Type, Name: candidate.Name}
		}
	}
	return nil
}

func checkSOASerial(candidate domain.ValidatedRecord, snapshot domain.ZoneSnapshot) error {
	prev, ok := snapshot.PreviousSerial()
	if !ok {
		return nil
	}
	serial, ok := domain.ParseStoredSOASerial(candidate.Value)
	if !ok {
		return &domain.StructuralError{FieldName: "value", ExpectedTokens: 7, ActualTokens: len(strings.Fields(candidate.Value))}
	}
	return CheckSerial(prev, serial)
}

func placementWarnings(candidate domain.ValidatedRecord, candidateID string, snapshot domain.ZoneSnapshot) []domain.Warning {
	var warnings []domain.Warning
	zone := utils.CanonicalDNSName(snapshot.Zone.Name)

	if zone != "" && !utils.IsSubdomainOf(candidate.Name, zone) {
		msg := fmt.Sprintf("owner %q is outside zone %q", candidate.Name, zone)
		if candidate.Type == domain.RRTypeSRV {
			if rest, ok := rrdata.SRVRestOfName(candidate.Name); ok {
				msg = fmt.Sprintf("service domain %q is outside zone %q", rest, zone)
			}
		}
		warnings = append(warnings, domain.Warning{Kind: domain.WarningOutOfZone, Field: "name", Message: msg})
	}

	switch candidate.Type {
	case domain.RRTypeMX, domain.RRTypeNS, domain.RRTypeSRV:
		// RFC 2181 10.3: these must name a host, not an alias
		for _, r := range excludeID(snapshot.RecordsAt(candidate.Value), candidateID) {
			if r.Type == domain.RRTypeCNAME {
				warnings = append(warnings, domain.Warning{
					Kind:    domain.WarningAliasTarget,
					Field:   "value",
					Message: fmt.Sprintf("%s target %q is an alias for %q", candidate.Type, candidate.Value, r.Value),
				})
				break
			}
		}
	case domain.RRTypeCNAME:
		for _, r := range excludeID(snapshot.Records, candidateID) {
			if isHostTarget(r.Type) && r.Value == candidate.Name {
				warnings = append(warnings, domain.Warning{
					Kind:    domain.WarningAliasTarget,
					Field:   "name",
					Message: fmt.Sprintf("%s record at %q targets this alias", r.Type, r.Name),
				})
			}
		}
	}
	return warnings
}

func isHostTarget(t domain.RRType) bool {
	return t == domain.RRTypeMX || t == domain.RRTypeNS || t == domain.RRTypeSRV
}

func excludeID(records []domain.ValidatedRecord, id string) []domain.ValidatedRecord {
	if id == "" {
		return records
	}
	out := make([]domain.ValidatedRecord, 0, len(records))
	for _, r := range records {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}
