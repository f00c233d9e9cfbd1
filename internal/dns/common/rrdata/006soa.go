package rrdata

import (
	"fmt"
	"math"
	"strings"

	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

const soaTokens = 7

// ParseSOA splits an SOA value into its seven fields and validates them.
func ParseSOA(value string) (domain.SOAFields, error) {
	// value = "mname rname serial refresh retry expire minimum"
	parts := strings.Fields(value)
	if len(parts) != soaTokens {
		return domain.SOAFields{}, &domain.StructuralError{FieldName: "value", ExpectedTokens: soaTokens, ActualTokens: len(parts)}
	}

	names := [5]string{"serial", "refresh", "retry", "expire", "minimum"}
	var nums [5]uint32
	for i, field := range names {
		v, err := parseUint32Field(field, parts[i+2])
		if err != nil {
			return domain.SOAFields{}, err
		}
		nums[i] = v
	}

	return CheckSOAFields(domain.SOAFields{
		PrimaryNS:  parts[0],
		AdminEmail: parts[1],
		Serial:     nums[0],
		Refresh:    nums[1],
		Retry:      nums[2],
		Expire:     nums[3],
		Minimum:    nums[4],
	})
}

// CheckSOAFields validates structured SOA parameters and returns them with
// normalized names. Serial monotonicity is a zone-level concern and is not
// checked here.
func CheckSOAFields(f domain.SOAFields) (domain.SOAFields, error) {
	mname, err := targetField("mname", f.PrimaryNS)
	if err != nil {
		return domain.SOAFields{}, err
	}
	rname, err := mailboxField("rname", f.AdminEmail)
	if err != nil {
		return domain.SOAFields{}, err
	}
	if err := checkSOATimers(f); err != nil {
		return domain.SOAFields{}, err
	}
	f.PrimaryNS = mname
	f.AdminEmail = rname
	return f, nil
}

func checkSOATimers(f domain.SOAFields) error {
	for _, t := range []struct {
		field string
		v     uint32
	}{
		{"refresh", f.Refresh},
		{"retry", f.Retry},
		{"expire", f.Expire},
	} {
		if err := checkRange(t.field, int64(t.v), 1, math.MaxUint32); err != nil {
			return err
		}
	}
	if err := checkRange("minimum", int64(f.Minimum), 0, MaxTTL); err != nil {
		return err
	}
	// secondaries retry faster than they refresh, and give up only after
	// several refresh cycles (RFC 1912 2.2)
	if f.Retry >= f.Refresh {
		return &domain.RangeError{FieldName: "retry", Min: 1, Max: int64(f.Refresh) - 1, Actual: int64(f.Retry)}
	}
	if f.Expire <= f.Refresh {
		return &domain.RangeError{FieldName: "expire", Min: int64(f.Refresh) + 1, Max: math.MaxUint32, Actual: int64(f.Expire)}
	}
	return nil
}

// mailboxField validates an SOA RNAME: a mailbox in DNS form where the first
// label is the local part. Dots inside the local part are escaped ("john\.doe").
func mailboxField(field, s string) (string, error) {
	if strings.Contains(s, "@") {
		return "", &domain.DomainFormatError{FieldName: field, Name: s, Reason: "mailbox must use DNS form (hostmaster.example.com), not @"}
	}

	split := -1
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == '.' {
			split = i
			break
		}
	}
	if split <= 0 {
		return "", &domain.DomainFormatError{FieldName: field, Name: s, Reason: "mailbox needs a local part and a domain"}
	}

	local := strings.ReplaceAll(s[:split], `\.`, ".")
	if len(local) > maxLabelLength {
		return "", &domain.DomainFormatError{FieldName: field, Name: s, Reason: fmt.Sprintf("local part exceeds %d characters", maxLabelLength)}
	}
	for i := 0; i < len(local); i++ {
		c := local[i]
		if c <= ' ' || c > '~' || c == '\\' {
			return "", &domain.DomainFormatError{FieldName: field, Name: s, Reason: fmt.Sprintf("local part contains invalid character %q", c)}
		}
	}

	host, err := targetField(field, s[split+1:])
	if err != nil {
		return "", err
	}
	return strings.ToLower(s[:split]) + "." + host, nil
}

// validateSOA checks an SOA record. The owner must be the zone apex when the
// zone is known.
func validateSOA(in recordInput) (string, error) {
	if in.owner.Wildcard || (in.zone != "" && in.owner.Value != in.zone) {
		return "", &domain.DomainFormatError{FieldName: "name", Name: in.owner.String(), Reason: "SOA record must be at the zone apex"}
	}
	f, err := ParseSOA(in.value)
	if err != nil {
		return "", err
	}
	return FormatSOA(f), nil
}

// FormatSOA renders SOA parameters in the normalized single-line value form.
func FormatSOA(f domain.SOAFields) string {
	return fmt.Sprintf("%s %s %d %d %d %d %d", f.PrimaryNS, f.AdminEmail, f.Serial, f.Refresh, f.Retry, f.Expire, f.Minimum)
}
