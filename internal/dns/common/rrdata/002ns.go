package rrdata

// validateNS checks the name server host an NS record delegates to.
func validateNS(in recordInput) (string, error) {
	// value = "ns1.example.com."
	return targetField("value", in.value)
}
