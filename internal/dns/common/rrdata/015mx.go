package rrdata

import "github.com/haukened/rr-zonecheck/internal/dns/domain"

// validateMX checks the exchange host. The preference travels in the priority
// field, which the field resolver has already required and range-checked.
//
// A lone "." is a null MX (RFC 7505): the domain accepts no mail. It is only
// meaningful with preference 0.
func validateMX(in recordInput) (string, error) {
	// value = "mail.example.com."
	if in.value == "." {
		if in.priority != nil && *in.priority != 0 {
			return "", &domain.RangeError{FieldName: "priority", Min: 0, Max: 0, Actual: int64(*in.priority)}
		}
		return ".", nil
	}
	return targetField("value", in.value)
}
