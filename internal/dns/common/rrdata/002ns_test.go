package rrdata

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

// NS, CNAME and PTR share the target grammar.
func TestHostTargets(t *testing.T) {
	validators := map[string]func(recordInput) (string, error){
		"NS":    validateNS,
		"CNAME": validateCNAME,
		"PTR":   validatePTR,
	}
	for name, fn := range validators {
		t.Run(name, func(t *testing.T) {
			got, err := fn(recordInput{value: "NS1.Example.com."})
			require.NoError(t, err)
			assert.Equal(t, "ns1.example.com", got)

			for _, in := range []string{"", ".", "*.example.com", "bad_host..com", "-x.example.com"} {
				_, err := fn(recordInput{value: in})
				var dfe *domain.DomainFormatError
				require.True(t, errors.As(err, &dfe), in)
				assert.Equal(t, "value", dfe.Field())
			}
		})
	}
}
