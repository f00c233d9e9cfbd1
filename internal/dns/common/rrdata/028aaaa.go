package rrdata

// validateAAAA checks an AAAA record value. The address is returned in its
// compressed RFC 5952 form so equal addresses compare equal.
func validateAAAA(in recordInput) (string, error) {
	// value = "2001:db8::1"
	addr, err := ipv6Field("value", in.value)
	if err != nil {
		return "", err
	}
	return addr.String(), nil
}
