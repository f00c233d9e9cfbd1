package domain

import "fmt"

// WarningKind classifies a non-fatal finding.
type WarningKind uint8

const (
	// WarningOutOfZone flags an owner name that is not the zone apex or below it.
	WarningOutOfZone WarningKind = iota + 1
	// WarningStaleRule flags an RPZ rule whose expiration already passed.
	WarningStaleRule
	// WarningAliasTarget flags an MX/NS/SRV target that is a CNAME owner in the zone.
	WarningAliasTarget
	// WarningBroadScope flags a wildcard RPZ rule over a public suffix.
	WarningBroadScope
)

// String returns a stable token for the kind.
func (k WarningKind) String() string {
	switch k {
	case WarningOutOfZone:
		return "out-of-zone"
	case WarningStaleRule:
		return "stale-rule"
	case WarningAliasTarget:
		return "alias-target"
	case WarningBroadScope:
		return "broad-scope"
	default:
		return fmt.Sprintf("WarningKind(%d)", k)
	}
}

// Warning is a finding that does not reject the candidate. Callers decide how
// to present it.
type Warning struct {
	Kind    WarningKind
	Field   string
	Message string
}

func (w Warning) String() string {
	return w.Kind.String() + ": " + w.Field + ": " + w.Message
}
