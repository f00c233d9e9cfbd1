package rrdata

// validatePTR checks a PTR target. The owner is usually under in-addr.arpa or
// ip6.arpa but that is not enforced; reverse zones are ordinary zones here.
func validatePTR(in recordInput) (string, error) {
	// value = "host.example.com."
	return targetField("value", in.value)
}
