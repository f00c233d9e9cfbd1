package rrdata

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"net/netip"
	"strconv"
	"strings"

	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

const (
	maxNameLength   = 253
	maxLabelLength  = 63
	maxStringLength = 255
)

// Name is a validated, normalized domain name. Value is lowercase without a
// trailing dot and without the wildcard marker; Wildcard records whether the
// input began with "*.".
type Name struct {
	Value    string
	Wildcard bool
}

// String returns the name with its wildcard marker restored.
func (n Name) String() string {
	if n.Wildcard {
		return "*." + n.Value
	}
	return n.Value
}

// ValidateDomain checks domain name grammar and returns the normalized name.
// A single leading "*." is accepted as a wildcard marker and is not itself
// grammar-checked.
func ValidateDomain(s string) (Name, error) {
	return domainField("domain", s)
}

// ValidateIPv4 accepts a strict dotted-quad literal (no leading zeros).
func ValidateIPv4(s string) (netip.Addr, error) {
	return ipv4Field("address", s)
}

// ValidateIPv6 accepts an IPv6 literal with standard compression. Zone
// identifiers ("%eth0") are rejected.
func ValidateIPv6(s string) (netip.Addr, error) {
	return ipv6Field("address", s)
}

// ValidateHex checks that s is exactly expectedLen hexadecimal characters and
// returns it lowercased.
func ValidateHex(field, s string, expectedLen int) (string, error) {
	return hexField(field, s, expectedLen)
}

// ValidateQuotedString checks a double-quoted character-string and returns the
// unescaped content, which must not exceed maxLen bytes.
func ValidateQuotedString(field, s string, maxLen int) (string, error) {
	return quotedField(field, s, maxLen)
}

// ValidateTarget checks a name used as a pointer (CNAME target, redirect
// destination). Wildcards are rejected. field names the input in errors.
func ValidateTarget(field, s string) (string, error) {
	return targetField(field, s)
}

func domainField(field, s string) (Name, error) {
	if s == "" {
		return Name{}, &domain.DomainFormatError{FieldName: field, Name: s, Reason: "name must not be empty"}
	}
	if s == "." {
		return Name{}, &domain.DomainFormatError{FieldName: field, Name: s, Reason: "root name is not allowed here"}
	}

	name := strings.TrimSuffix(strings.ToLower(s), ".")
	wildcard := false
	if name == "*" {
		return Name{}, &domain.DomainFormatError{FieldName: field, Name: s, Reason: "wildcard requires a parent name"}
	}
	if strings.HasPrefix(name, "*.") {
		wildcard = true
		name = name[2:]
	}

	total := len(name)
	if wildcard {
		total += 2
	}
	if total > maxNameLength {
		return Name{}, &domain.DomainFormatError{FieldName: field, Name: s, Reason: fmt.Sprintf("name exceeds %d characters", maxNameLength)}
	}

	for _, label := range strings.Split(name, ".") {
		if reason := checkLabel(label); reason != "" {
			return Name{}, &domain.DomainFormatError{FieldName: field, Name: s, Reason: reason}
		}
	}
	return Name{Value: name, Wildcard: wildcard}, nil
}

// checkLabel returns a reason when label breaks the grammar, or "".
// Underscores are allowed for service labels (_sip, _dmarc, _domainkey).
func checkLabel(label string) string {
	if label == "" {
		return "empty label"
	}
	if len(label) > maxLabelLength {
		return fmt.Sprintf("label %q exceeds %d characters", label, maxLabelLength)
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return fmt.Sprintf("label %q starts or ends with a hyphen", label)
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		case c == '*':
			return "wildcard is only allowed as the leading label"
		default:
			return fmt.Sprintf("label %q contains invalid character %q", label, c)
		}
	}
	return ""
}

// targetField validates a name a record points at. Wildcards are meaningless
// as targets and are rejected.
func targetField(field, s string) (string, error) {
	n, err := domainField(field, s)
	if err != nil {
		return "", err
	}
	if n.Wildcard {
		return "", &domain.DomainFormatError{FieldName: field, Name: s, Reason: "wildcard is not allowed in a target name"}
	}
	return n.Value, nil
}

func ipv4Field(field, s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return netip.Addr{}, &domain.AddressFormatError{FieldName: field, Kind: "IPv4", Value: s}
	}
	return addr, nil
}

func ipv6Field(field, s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is6() || addr.Zone() != "" {
		return netip.Addr{}, &domain.AddressFormatError{FieldName: field, Kind: "IPv6", Value: s}
	}
	return addr, nil
}

func hexField(field, s string, expectedLen int) (string, error) {
	if len(s) != expectedLen {
		return "", &domain.RangeError{FieldName: field + " length", Min: int64(expectedLen), Max: int64(expectedLen), Actual: int64(len(s))}
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", &domain.SyntaxError{FieldName: field, Value: s, Reason: "not a hexadecimal string"}
	}
	return strings.ToLower(s), nil
}

// quotedField unescapes a double-quoted character-string. Supported escapes are
// \X (literal X) and \DDD (decimal byte value).
func quotedField(field, s string, maxLen int) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", &domain.SyntaxError{FieldName: field, Value: s, Reason: "must be a double-quoted string"}
	}
	inner := s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch c {
		case '\\':
			if i+1 >= len(inner) {
				return "", &domain.SyntaxError{FieldName: field, Value: s, Reason: "dangling escape"}
			}
			if i+3 < len(inner) && isDigits(inner[i+1:i+4]) {
				v, _ := strconv.Atoi(inner[i+1 : i+4])
				if v > 255 {
					return "", &domain.SyntaxError{FieldName: field, Value: s, Reason: "decimal escape exceeds 255"}
				}
				b.WriteByte(byte(v))
				i += 3
				continue
			}
			i++
			b.WriteByte(inner[i])
		case '"':
			return "", &domain.SyntaxError{FieldName: field, Value: s, Reason: "unescaped quote inside string"}
		default:
			b.WriteByte(c)
		}
	}
	if b.Len() > maxLen {
		return "", &domain.RangeError{FieldName: field + " length", Min: 0, Max: int64(maxLen), Actual: int64(b.Len())}
	}
	return b.String(), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// tokenize splits s on whitespace, keeping double-quoted strings (with their
// quotes and escapes) together as single tokens.
func tokenize(s string) ([]string, error) {
	var tokens []string
	i := 0
	for i < len(s) {
		if isSpace(s[i]) {
			i++
			continue
		}
		start := i
		if s[i] == '"' {
			i++
			closed := false
			for i < len(s) {
				if s[i] == '\\' {
					i += 2
					continue
				}
				if s[i] == '"' {
					closed = true
					i++
					break
				}
				i++
			}
			if !closed || i > len(s) {
				return nil, &domain.SyntaxError{FieldName: "value", Value: s, Reason: "unterminated quoted string"}
			}
			if i < len(s) && !isSpace(s[i]) {
				return nil, &domain.SyntaxError{FieldName: "value", Value: s, Reason: "unexpected character after closing quote"}
			}
		} else {
			for i < len(s) && !isSpace(s[i]) {
				i++
			}
		}
		tokens = append(tokens, s[start:i])
	}
	return tokens, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// parseIntField parses a base-10 integer token and checks it against [min, max].
// Non-numeric input is a SyntaxError; numeric input outside the bounds
// (including negatives and values beyond int64) is a RangeError.
func parseIntField(field, token string, min, max int64) (int64, error) {
	v, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			actual := int64(math.MaxInt64)
			if strings.HasPrefix(token, "-") {
				actual = math.MinInt64
			}
			return 0, &domain.RangeError{FieldName: field, Min: min, Max: max, Actual: actual}
		}
		return 0, &domain.SyntaxError{FieldName: field, Value: token, Reason: "not an integer"}
	}
	if err := checkRange(field, v, min, max); err != nil {
		return 0, err
	}
	return v, nil
}

// parseUint32Field parses one of the unsigned 32-bit SOA counters.
func parseUint32Field(field, token string) (uint32, error) {
	v, err := parseIntField(field, token, 0, math.MaxUint32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func checkRange(field string, v, min, max int64) error {
	if v < min || v > max {
		return &domain.RangeError{FieldName: field, Min: min, Max: max, Actual: v}
	}
	return nil
}
