package domain

import (
	"fmt"
	"strings"
	"time"
)

// RPZAction is the policy applied when an RPZ rule matches.
type RPZAction string

const (
	RPZActionBlock    RPZAction = "block"
	RPZActionRedirect RPZAction = "redirect"
	RPZActionPassthru RPZAction = "passthru"
	RPZActionNXDomain RPZAction = "nxdomain"
	RPZActionNoData   RPZAction = "nodata"
	RPZActionDrop     RPZAction = "drop"
	RPZActionTCPOnly  RPZAction = "tcp-only"
)

// String returns the action token.
func (a RPZAction) String() string { return string(a) }

// IsValid reports whether a is one of the known actions.
func (a RPZAction) IsValid() bool {
	switch a {
	case RPZActionBlock, RPZActionRedirect, RPZActionPassthru, RPZActionNXDomain,
		RPZActionNoData, RPZActionDrop, RPZActionTCPOnly:
		return true
	default:
		return false
	}
}

// RequiresTarget reports whether the action carries a redirect target.
func (a RPZAction) RequiresTarget() bool { return a == RPZActionRedirect }

// ParseRPZAction converts a string into an RPZAction.
// Accepts the action tokens case-insensitively; "tcp_only" is tolerated as an alias.
func ParseRPZAction(s string) (RPZAction, error) {
	a := RPZAction(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	if !a.IsValid() {
		return "", fmt.Errorf("unsupported RPZ action: %q", s)
	}
	return a, nil
}

// RPZRule is a candidate Response Policy Zone rule.
//
// Notes:
// - Domain may carry a leading "*." wildcard marker which is preserved on the stored rule.
// - RedirectTarget is meaningful only for the redirect action.
// - Category and Source are free-form tags (e.g. "malware", a feed alias).
type RPZRule struct {
	Domain         string
	Action         RPZAction
	RedirectTarget string
	Category       string
	Source         string
	ExpiresAt      *time.Time // nil means the rule never expires
}

// ValidatedRPZRule is an RPZ rule that passed validation.
type ValidatedRPZRule struct {
	Rule     RPZRule // normalized copy; Rule.Domain keeps the wildcard marker
	Name     string  // canonical domain without the wildcard marker
	Wildcard bool
	Warnings []Warning
}

// IsExpired reports whether the rule had expired at now.
func (r ValidatedRPZRule) IsExpired(now time.Time) bool {
	return r.Rule.ExpiresAt != nil && !r.Rule.ExpiresAt.After(now)
}

// PolicyDecision represents the outcome of evaluating a name against stored RPZ rules.
// Pure value type, no external dependencies.
type PolicyDecision struct {
	Matched        bool   // true if any live rule matched
	MatchedRule    string // stored rule domain, including "*." for wildcard rules
	Action         RPZAction
	RedirectTarget string
	Category       string
	Source         string
}

// IsMatched is a convenience accessor.
func (d PolicyDecision) IsMatched() bool { return d.Matched }

// NoMatch returns a decision for a name no rule applies to.
func NoMatch() PolicyDecision { return PolicyDecision{Matched: false} }

// DecisionFor builds a matched decision from a stored rule.
func DecisionFor(r ValidatedRPZRule) PolicyDecision {
	return PolicyDecision{
		Matched:        true,
		MatchedRule:    r.Rule.Domain,
		Action:         r.Rule.Action,
		RedirectTarget: r.Rule.RedirectTarget,
		Category:       r.Rule.Category,
		Source:         r.Rule.Source,
	}
}
