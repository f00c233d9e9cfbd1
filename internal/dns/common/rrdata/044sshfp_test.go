package rrdata

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

var (
	hex40 = strings.Repeat("ab", 20)
	hex64 = strings.Repeat("cd", 32)
)

func TestValidateSSHFP(t *testing.T) {
	got, err := validateSSHFP(recordInput{value: "1 1 " + strings.ToUpper(hex40)})
	require.NoError(t, err)
	assert.Equal(t, "1 1 "+hex40, got)

	got, err = validateSSHFP(recordInput{value: "4 2 " + hex64})
	require.NoError(t, err)
	assert.Equal(t, "4 2 "+hex64, got)
}

func TestValidateSSHFP_LengthCoupling(t *testing.T) {
	tests := []struct {
		value string
		field string
	}{
		{"1 1 " + hex64, "fingerprint length"},
		{"1 2 " + hex40, "fingerprint length"},
		{"0 1 " + hex40, "algorithm"},
		{"5 1 " + hex40, "algorithm"},
		{"1 3 " + hex40, "fptype"},
	}
	for _, tt := range tests {
		_, err := validateSSHFP(recordInput{value: tt.value})
		var re *domain.RangeError
		require.True(t, errors.As(err, &re), tt.value)
		assert.Equal(t, tt.field, re.Field())
	}
}

func TestValidateSSHFP_Malformed(t *testing.T) {
	_, err := validateSSHFP(recordInput{value: "1 1"})
	var st *domain.StructuralError
	require.True(t, errors.As(err, &st))
	assert.Equal(t, 3, st.ExpectedTokens)
	assert.Equal(t, 2, st.ActualTokens)

	_, err = validateSSHFP(recordInput{value: "1 1 " + strings.Repeat("g", 40)})
	var se *domain.SyntaxError
	assert.True(t, errors.As(err, &se))

	_, err = validateSSHFP(recordInput{value: "rsa 1 " + hex40})
	assert.True(t, errors.As(err, &se))
}
