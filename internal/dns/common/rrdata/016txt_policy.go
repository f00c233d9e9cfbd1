package rrdata

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

// RFC 7208 4.6.4
const maxSPFLookups = 10

func checkTXTPolicy(text string) error {
	lower := strings.ToLower(text)
	switch {
	case hasVersionTag(lower, "v=spf1", ' '):
		return checkSPF(text)
	case hasVersionTag(lower, "v=dkim1", ';'):
		return checkDKIM(text)
	case hasVersionTag(lower, "v=dmarc1", ';'):
		return checkDMARC(text)
	}
	return nil
}

func hasVersionTag(s, tag string, sep byte) bool {
	if !strings.HasPrefix(s, tag) {
		return false
	}
	rest := s[len(tag):]
	return rest == "" || rest[0] == sep || rest[0] == ' '
}

func checkSPF(text string) error {
	terms := strings.Fields(text)[1:]
	lookups := 0
	seen := map[string]bool{}

	for _, term := range terms {
		lt := strings.ToLower(term)

		if name, arg, ok := strings.Cut(lt, "="); ok && isSPFModifierName(name) {
			switch name {
			case "redirect", "exp":
				if seen[name] {
					return &domain.SyntaxError{FieldName: "spf", Value: term, Reason: fmt.Sprintf("%s modifier may appear only once", name)}
				}
				seen[name] = true
				if err := checkSPFDomainSpec(name, arg); err != nil {
					return err
				}
				if name == "redirect" {
					lookups++
				}
			}
			// unknown modifiers are ignored (RFC 7208 6)
			continue
		}

		if lt[0] == '+' || lt[0] == '-' || lt[0] == '~' || lt[0] == '?' {
			lt = lt[1:]
		}
		mech, arg := lt, ""
		if i := strings.IndexAny(lt, ":/"); i >= 0 {
			mech, arg = lt[:i], lt[i:]
		}

		switch mech {
		case "all":
			if arg != "" {
				return &domain.SyntaxError{FieldName: "spf", Value: term, Reason: "all takes no argument"}
			}
		case "include", "exists":
			if !strings.HasPrefix(arg, ":") || len(arg) == 1 {
				return &domain.SyntaxError{FieldName: "spf", Value: term, Reason: mech + " requires a domain"}
			}
			if err := checkSPFDomainSpec(mech, arg[1:]); err != nil {
				return err
			}
			lookups++
		case "a", "mx":
			spec, cidr := arg, ""
			if strings.HasPrefix(spec, ":") {
				spec = spec[1:]
				if i := strings.Index(spec, "/"); i >= 0 {
					spec, cidr = spec[:i], spec[i:]
				}
				if err := checkSPFDomainSpec(mech, spec); err != nil {
					return err
				}
			} else {
				cidr = spec
			}
			if err := checkSPFDualCIDR(term, cidr); err != nil {
				return err
			}
			lookups++
		case "ptr":
			if arg != "" {
				if !strings.HasPrefix(arg, ":") {
					return &domain.SyntaxError{FieldName: "spf", Value: term, Reason: "ptr takes an optional domain"}
				}
				if err := checkSPFDomainSpec(mech, arg[1:]); err != nil {
					return err
				}
			}
			lookups++
		case "ip4", "ip6":
			if !strings.HasPrefix(arg, ":") {
				return &domain.SyntaxError{FieldName: "spf", Value: term, Reason: mech + " requires an address"}
			}
			if err := checkSPFNetwork(mech, arg[1:]); err != nil {
				return err
			}
		default:
			return &domain.SyntaxError{FieldName: "spf", Value: term, Reason: "unknown SPF mechanism"}
		}
	}

	if lookups > maxSPFLookups {
		return &domain.RangeError{FieldName: "spf dns lookups", Min: 0, Max: maxSPFLookups, Actual: int64(lookups)}
	}
	return nil
}

func isSPFModifierName(name string) bool {
	if name == "" || name[0] < 'a' || name[0] > 'z' {
		return false
	}
	for i := 1; i < len(name); i++ {
		c := name[i]
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' || c == '_' || c == '.') {
			return false
		}
	}
	return true
}

// checkSPFDomainSpec validates a domain-spec. Specs containing macros
// ("%{i}.example.com") are only expandable at query time and pass as-is.
func checkSPFDomainSpec(mech, spec string) error {
	if spec == "" {
		return &domain.SyntaxError{FieldName: "spf " + mech, Value: spec, Reason: "empty domain"}
	}
	if strings.Contains(spec, "%") {
		return nil
	}
	_, err := targetField("spf "+mech, spec)
	return err
}

// checkSPFDualCIDR checks the "/24", "//64" or "/24//64" suffix of a or mx.
func checkSPFDualCIDR(term, cidr string) error {
	if cidr == "" {
		return nil
	}
	if !strings.HasPrefix(cidr, "/") {
		return &domain.SyntaxError{FieldName: "spf", Value: term, Reason: "malformed prefix length"}
	}
	cidr = cidr[1:]
	v4, v6, dual := strings.Cut(cidr, "//")
	if strings.HasPrefix(cidr, "/") {
		v4, v6, dual = "", cidr[1:], true
	}
	// only "//64" may omit the ip4 length
	if v4 != "" || !dual {
		if _, err := parseIntField("spf ip4-cidr-length", v4, 0, 32); err != nil {
			return err
		}
	}
	if dual {
		if _, err := parseIntField("spf ip6-cidr-length", v6, 0, 128); err != nil {
			return err
		}
	}
	return nil
}

func checkSPFNetwork(mech, arg string) error {
	addr, prefix, hasPrefix := strings.Cut(arg, "/")
	maxBits := int64(32)
	if mech == "ip4" {
		if _, err := ipv4Field("spf ip4", addr); err != nil {
			return err
		}
	} else {
		maxBits = 128
		if _, err := ipv6Field("spf ip6", addr); err != nil {
			return err
		}
	}
	if hasPrefix {
		if _, err := parseIntField("spf "+mech+"-cidr-length", prefix, 0, maxBits); err != nil {
			return err
		}
	}
	return nil
}

// parseTagList splits "tag=value; tag=value" (RFC 6376 3.2). Tag names are
// lowercased; a repeated tag is an error.
func parseTagList(field, text string) (map[string]string, error) {
	tags := map[string]string{}
	for _, part := range strings.Split(text, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, &domain.SyntaxError{FieldName: field, Value: part, Reason: "expected tag=value"}
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if _, dup := tags[name]; dup {
			return nil, &domain.SyntaxError{FieldName: field, Value: part, Reason: "duplicate tag " + name}
		}
		tags[name] = strings.TrimSpace(value)
	}
	return tags, nil
}

func checkDKIM(text string) error {
	tags, err := parseTagList("dkim", text)
	if err != nil {
		return err
	}
	k, ok := tags["k"]
	if !ok {
		return &domain.SyntaxError{FieldName: "dkim k", Value: text, Reason: "DKIM record requires k="}
	}
	switch strings.ToLower(k) {
	case "rsa", "ed25519":
	default:
		return &domain.SyntaxError{FieldName: "dkim k", Value: k, Reason: "key type must be rsa or ed25519"}
	}
	p, ok := tags["p"]
	if !ok {
		return &domain.SyntaxError{FieldName: "dkim p", Value: text, Reason: "DKIM record requires p="}
	}
	// empty p= means the key was revoked
	p = strings.Join(strings.Fields(p), "")
	if p == "" {
		return nil
	}
	if _, err := base64.StdEncoding.DecodeString(p); err != nil {
		return &domain.SyntaxError{FieldName: "dkim p", Value: p, Reason: "public key is not valid base64"}
	}
	return nil
}

var dmarcPolicies = map[string]bool{"none": true, "quarantine": true, "reject": true}

func checkDMARC(text string) error {
	tags, err := parseTagList("dmarc", text)
	if err != nil {
		return err
	}
	p, ok := tags["p"]
	if !ok {
		return &domain.SyntaxError{FieldName: "dmarc p", Value: text, Reason: "DMARC record requires p="}
	}
	if !dmarcPolicies[strings.ToLower(p)] {
		return &domain.SyntaxError{FieldName: "dmarc p", Value: p, Reason: "policy must be none, quarantine or reject"}
	}
	if sp, ok := tags["sp"]; ok && !dmarcPolicies[strings.ToLower(sp)] {
		return &domain.SyntaxError{FieldName: "dmarc sp", Value: sp, Reason: "policy must be none, quarantine or reject"}
	}
	if pct, ok := tags["pct"]; ok {
		if _, err := parseIntField("dmarc pct", pct, 0, 100); err != nil {
			return err
		}
	}
	return nil
}
