package rrdata

func validateCNAME(in recordInput) (string, error) {
	// value = "target.example.com."
	return targetField("value", in.value)
}
