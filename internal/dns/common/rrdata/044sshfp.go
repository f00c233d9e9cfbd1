package rrdata

import (
	"fmt"
	"strings"

	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

// fingerprint hex length by SSHFP fingerprint type (RFC 4255, RFC 6594)
var sshfpLength = map[int64]int{
	1: 40, // SHA-1
	2: 64, // SHA-256
}

// validateSSHFP checks "algorithm fptype fingerprint".
func validateSSHFP(in recordInput) (string, error) {
	// value = "4 2 123456789abcdef67890123456789abcdef67890123456789abcdef123456789"
	parts := strings.Fields(in.value)
	if len(parts) != 3 {
		return "", &domain.StructuralError{FieldName: "value", ExpectedTokens: 3, ActualTokens: len(parts)}
	}
	// 1 RSA, 2 DSA, 3 ECDSA, 4 Ed25519
	alg, err := parseIntField("algorithm", parts[0], 1, 4)
	if err != nil {
		return "", err
	}
	fpType, err := parseIntField("fptype", parts[1], 1, 2)
	if err != nil {
		return "", err
	}
	fp, err := hexField("fingerprint", parts[2], sshfpLength[fpType])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d %s", alg, fpType, fp), nil
}
