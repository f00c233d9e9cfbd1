package rrdata

import (
	"math"
	"strings"

	"github.com/haukened/rr-zonecheck/internal/dns/common/utils"
	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

// TTL policy bounds, in seconds.
const (
	MinTTL = 60
	MaxTTL = 86400
)

// FieldConstraint describes whether an optional numeric field applies to a
// record type, and its bounds when it does.
type FieldConstraint struct {
	Field       string
	Requirement domain.Requirement
	Min         int64
	Max         int64
}

type fieldRule struct {
	priority domain.Requirement
	weight   domain.Requirement
	port     domain.Requirement
}

// Types absent from the table forbid all three fields.
var fieldRules = map[domain.RRType]fieldRule{
	domain.RRTypeMX:  {priority: domain.Required, weight: domain.Forbidden, port: domain.Forbidden},
	domain.RRTypeSRV: {priority: domain.Required, weight: domain.Required, port: domain.Required},
}

// FieldConstraints returns the priority, weight and port rules for t, in that order.
func FieldConstraints(t domain.RRType) []FieldConstraint {
	rule := fieldRules[t]
	return []FieldConstraint{
		{Field: "priority", Requirement: rule.priority, Min: 0, Max: math.MaxUint16},
		{Field: "weight", Requirement: rule.weight, Min: 0, Max: math.MaxUint16},
		{Field: "port", Requirement: rule.port, Min: 1, Max: math.MaxUint16},
	}
}

// checkFields enforces FieldConstraints against the candidate and converts the
// present fields to their validated width.
func checkFields(rr domain.ResourceRecord) (priority, weight, port *uint16, err error) {
	values := []*int{rr.Priority, rr.Weight, rr.Port}
	out := make([]*uint16, len(values))
	for i, c := range FieldConstraints(rr.Type) {
		v := values[i]
		switch {
		case c.Requirement == domain.Required && v == nil:
			return nil, nil, nil, &domain.FieldRequirementError{FieldName: c.Field, RecordType: rr.Type.String(), Requirement: domain.Required}
		case c.Requirement == domain.Forbidden && v != nil:
			return nil, nil, nil, &domain.FieldRequirementError{FieldName: c.Field, RecordType: rr.Type.String(), Requirement: domain.Forbidden}
		case v != nil:
			if err := checkRange(c.Field, int64(*v), c.Min, c.Max); err != nil {
				return nil, nil, nil, err
			}
			u := uint16(*v)
			out[i] = &u
		}
	}
	return out[0], out[1], out[2], nil
}

// checkTTL returns the effective TTL. An explicit TTL must lie in
// [MinTTL, MaxTTL]; an omitted one inherits defaultTTL unchecked.
func checkTTL(ttl *int, defaultTTL uint32) (uint32, error) {
	if ttl == nil {
		return defaultTTL, nil
	}
	if err := checkRange("ttl", int64(*ttl), MinTTL, MaxTTL); err != nil {
		return 0, err
	}
	return uint32(*ttl), nil
}

// QualifyOwner turns an owner name as written into an absolute name (with a
// trailing dot stripped later by validation). "@" is the zone apex, a trailing
// dot marks an absolute name, and a relative name already ending in the zone
// is left alone. Everything else is relative to zone.
func QualifyOwner(name, zone string) string {
	zone = utils.CanonicalDNSName(zone)
	if name == "@" {
		return zone
	}
	if strings.HasSuffix(name, ".") || zone == "" {
		return name
	}
	lower := strings.ToLower(name)
	if lower == zone || strings.HasSuffix(lower, "."+zone) {
		return name
	}
	return name + "." + zone
}
