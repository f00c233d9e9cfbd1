package utils

import "strings"

// CanonicalDNSName returns a DNS name in canonical form:
// - Lowercased
// - Trimmed of surrounding whitespace
// - No trailing dot because it doesn't add any runtime benefit, only legacy baggage.
func CanonicalDNSName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	// remove all trailing dots
	for strings.HasSuffix(name, ".") {
		name = strings.TrimSuffix(name, ".")
	}
	return name
}

// IsSubdomainOf reports whether name equals zone or sits below it.
// Both arguments are canonicalized first; an empty zone contains nothing.
func IsSubdomainOf(name, zone string) bool {
	name = CanonicalDNSName(name)
	zone = CanonicalDNSName(zone)
	if zone == "" {
		return false
	}
	return name == zone || strings.HasSuffix(name, "."+zone)
}

// ParentNames returns the proper ancestors of name, most specific first.
// "a.b.example.com" yields ["b.example.com", "example.com", "com"].
func ParentNames(name string) []string {
	name = CanonicalDNSName(name)
	var out []string
	for {
		i := strings.IndexByte(name, '.')
		if i < 0 {
			return out
		}
		name = name[i+1:]
		if name == "" {
			return out
		}
		out = append(out, name)
	}
}
