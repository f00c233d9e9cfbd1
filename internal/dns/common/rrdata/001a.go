package rrdata

// validateA checks an A record value and returns the canonical address text.
func validateA(in recordInput) (string, error) {
	// value = "192.168.0.1"
	addr, err := ipv4Field("value", in.value)
	if err != nil {
		return "", err
	}
	return addr.String(), nil
}
