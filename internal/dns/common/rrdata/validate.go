package rrdata

import (
	"github.com/haukened/rr-zonecheck/internal/dns/common/utils"
	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

// recordInput is what a per-type validator sees once the generic checks passed.
type recordInput struct {
	owner    Name    // validated owner name
	zone     string  // canonical zone apex; empty when validating without a zone
	value    string  // raw presentation value
	priority *uint16 // already range-checked
}

// Validate checks a candidate record in isolation: field constraints, TTL
// policy, owner name and type grammar, in that order. The first failure is
// returned. Zone-level consistency is not checked here.
func Validate(rr domain.ResourceRecord, zone string, defaultTTL uint32) (domain.ValidatedRecord, error) {
	if !rr.Type.IsValid() {
		return domain.ValidatedRecord{}, &domain.SyntaxError{FieldName: "type", Value: rr.Type.String(), Reason: "unsupported record type"}
	}

	priority, weight, port, err := checkFields(rr)
	if err != nil {
		return domain.ValidatedRecord{}, err
	}

	ttl, err := checkTTL(rr.TTL, defaultTTL)
	if err != nil {
		return domain.ValidatedRecord{}, err
	}

	owner, err := domainField("name", QualifyOwner(rr.Name, zone))
	if err != nil {
		return domain.ValidatedRecord{}, err
	}

	value, err := validateValue(rr.Type, recordInput{
		owner:    owner,
		zone:     utils.CanonicalDNSName(zone),
		value:    rr.Value,
		priority: priority,
	})
	if err != nil {
		return domain.ValidatedRecord{}, err
	}

	return domain.ValidatedRecord{
		ID:       rr.ID,
		Name:     owner.String(),
		Type:     rr.Type,
		Value:    value,
		TTL:      ttl,
		Priority: priority,
		Weight:   weight,
		Port:     port,
	}, nil
}

// validateValue dispatches to the grammar for t and returns the normalized value.
func validateValue(t domain.RRType, in recordInput) (string, error) {
	switch t {
	case domain.RRTypeA:
		return validateA(in)
	case domain.RRTypeNS:
		return validateNS(in)
	case domain.RRTypeCNAME:
		return validateCNAME(in)
	case domain.RRTypeSOA:
		return validateSOA(in)
	case domain.RRTypePTR:
		return validatePTR(in)
	case domain.RRTypeMX:
		return validateMX(in)
	case domain.RRTypeTXT:
		return validateTXT(in)
	case domain.RRTypeAAAA:
		return validateAAAA(in)
	case domain.RRTypeSRV:
		return validateSRV(in)
	case domain.RRTypeSSHFP:
		return validateSSHFP(in)
	case domain.RRTypeCAA:
		return validateCAA(in)
	default:
		return "", &domain.SyntaxError{FieldName: "type", Value: t.String(), Reason: "unsupported record type"}
	}
}
