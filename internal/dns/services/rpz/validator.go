// Package rpz validates Response Policy Zone rules before they are stored.
package rpz

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/haukened/rr-zonecheck/internal/dns/common/clock"
	"github.com/haukened/rr-zonecheck/internal/dns/common/rrdata"
	"github.com/haukened/rr-zonecheck/internal/dns/common/utils"
	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

// Validator checks RPZ rules. The clock decides whether a rule's expiration
// has already passed.
type Validator struct {
	clock clock.Clock
}

// NewValidator returns a Validator using c, or the wall clock when c is nil.
func NewValidator(c clock.Clock) *Validator {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Validator{clock: c}
}

// Validate returns the normalized rule or the first violation: domain grammar,
// then action and redirect target coupling, then required tags. Expired rules
// and wildcards over a public suffix are accepted with warnings.
func (v *Validator) Validate(rule domain.RPZRule) (domain.ValidatedRPZRule, error) {
	name, err := rrdata.ValidateDomain(strings.TrimSpace(rule.Domain))
	if err != nil {
		return domain.ValidatedRPZRule{}, err
	}

	action, err := domain.ParseRPZAction(string(rule.Action))
	if err != nil {
		return domain.ValidatedRPZRule{}, &domain.SyntaxError{FieldName: "action", Value: string(rule.Action), Reason: "unknown RPZ action"}
	}

	target, err := checkRedirectTarget(action, strings.TrimSpace(rule.RedirectTarget))
	if err != nil {
		return domain.ValidatedRPZRule{}, err
	}

	category := strings.TrimSpace(rule.Category)
	if category == "" {
		return domain.ValidatedRPZRule{}, &domain.FieldRequirementError{FieldName: "category", RecordType: "RPZ", Requirement: domain.Required}
	}
	source := strings.TrimSpace(rule.Source)
	if source == "" {
		return domain.ValidatedRPZRule{}, &domain.FieldRequirementError{FieldName: "source", RecordType: "RPZ", Requirement: domain.Required}
	}

	out := domain.ValidatedRPZRule{
		Rule: domain.RPZRule{
			Domain:         name.String(),
			Action:         action,
			RedirectTarget: target,
			Category:       category,
			Source:         source,
			ExpiresAt:      rule.ExpiresAt,
		},
		Name:     name.Value,
		Wildcard: name.Wildcard,
	}

	if out.IsExpired(v.clock.Now()) {
		out.Warnings = append(out.Warnings, domain.Warning{
			Kind:    domain.WarningStaleRule,
			Field:   "expires_at",
			Message: fmt.Sprintf("rule expired at %s", rule.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z")),
		})
	}
	if name.Wildcard && utils.IsPublicSuffix(name.Value) {
		out.Warnings = append(out.Warnings, domain.Warning{
			Kind:    domain.WarningBroadScope,
			Field:   "domain",
			Message: fmt.Sprintf("wildcard covers every domain under public suffix %q", name.Value),
		})
	}
	return out, nil
}

// checkRedirectTarget enforces that only redirect carries a target, and that
// the target is an IP literal or a host name.
func checkRedirectTarget(action domain.RPZAction, target string) (string, error) {
	if !action.RequiresTarget() {
		if target != "" {
			return "", &domain.ActionFieldMismatchError{Action: action, FieldName: "redirect_target", Present: true}
		}
		return "", nil
	}
	if target == "" {
		return "", &domain.ActionFieldMismatchError{Action: action, FieldName: "redirect_target", Present: false}
	}
	if addr, err := netip.ParseAddr(target); err == nil && addr.Zone() == "" {
		return addr.String(), nil
	}
	return rrdata.ValidateTarget("redirect_target", target)
}
