package rrdata

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

const testZone = "example.com"

func record(name string, t domain.RRType, value string) domain.ResourceRecord {
	return domain.ResourceRecord{Name: name, Type: t, Value: value}
}

// validRecords holds one accepted candidate per supported type.
var validRecords = map[domain.RRType]domain.ResourceRecord{
	domain.RRTypeA:     record("www", domain.RRTypeA, "192.0.2.1"),
	domain.RRTypeNS:    record("@", domain.RRTypeNS, "ns1.example.com."),
	domain.RRTypeCNAME: record("alias", domain.RRTypeCNAME, "www.example.com."),
	domain.RRTypeSOA:   record("@", domain.RRTypeSOA, "ns1.example.com. hostmaster.example.com. 2024010101 7200 3600 1209600 3600"),
	domain.RRTypePTR:   record("1.2.0.192.in-addr.arpa.", domain.RRTypePTR, "host.example.com."),
	domain.RRTypeMX:    {Name: "@", Type: domain.RRTypeMX, Value: "mail.example.com.", Priority: domain.IntPtr(10)},
	domain.RRTypeTXT:   record("@", domain.RRTypeTXT, `"v=spf1 mx -all"`),
	domain.RRTypeAAAA:  record("www", domain.RRTypeAAAA, "2001:db8::1"),
	domain.RRTypeSRV: {
		Name: "_sip._tcp", Type: domain.RRTypeSRV, Value: "sip.example.com.",
		Priority: domain.IntPtr(10), Weight: domain.IntPtr(5), Port: domain.IntPtr(5060),
	},
	domain.RRTypeSSHFP: record("host", domain.RRTypeSSHFP, "4 1 "+hex40),
	domain.RRTypeCAA:   record("@", domain.RRTypeCAA, `0 issue "letsencrypt.org"`),
}

func TestValidate_EveryTypeDispatches(t *testing.T) {
	for _, rt := range domain.AllRRTypes {
		rr, ok := validRecords[rt]
		require.True(t, ok, "no fixture for %s", rt)
		got, err := Validate(rr, testZone, 3600)
		require.NoError(t, err, rt.String())
		assert.Equal(t, rt, got.Type)
		assert.Equal(t, uint32(3600), got.TTL)
	}
}

func TestValidate_UnknownType(t *testing.T) {
	_, err := Validate(record("www", domain.RRType(99), "x"), testZone, 3600)
	var se *domain.SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "type", se.Field())
}

func TestValidate_Deterministic(t *testing.T) {
	for _, rr := range validRecords {
		first, err1 := Validate(rr, testZone, 3600)
		second, err2 := Validate(rr, testZone, 3600)
		assert.Equal(t, err1, err2)
		assert.Equal(t, first, second)
	}
}

func TestValidate_TTLBoundary(t *testing.T) {
	tests := []struct {
		ttl     int
		wantErr bool
	}{
		{59, true},
		{60, false},
		{86400, false},
		{86401, true},
	}
	for _, tt := range tests {
		rr := record("www", domain.RRTypeA, "192.0.2.1")
		rr.TTL = domain.IntPtr(tt.ttl)
		got, err := Validate(rr, testZone, 3600)
		if tt.wantErr {
			var re *domain.RangeError
			require.True(t, errors.As(err, &re), "ttl %d", tt.ttl)
			assert.Equal(t, "ttl", re.Field())
			continue
		}
		require.NoError(t, err, "ttl %d", tt.ttl)
		assert.Equal(t, uint32(tt.ttl), got.TTL)
	}
}

func TestValidate_InheritedTTLNotRangeChecked(t *testing.T) {
	got, err := Validate(record("www", domain.RRTypeA, "192.0.2.1"), testZone, 30)
	require.NoError(t, err)
	assert.Equal(t, uint32(30), got.TTL)
}

func TestValidate_Normalization(t *testing.T) {
	rr := record("WWW", domain.RRTypeCNAME, "Target.Example.NET.")
	rr.ID = "rec-1"
	got, err := Validate(rr, "Example.COM.", 300)
	require.NoError(t, err)
	assert.Equal(t, "rec-1", got.ID)
	assert.Equal(t, "www.example.com", got.Name)
	assert.Equal(t, "target.example.net", got.Value)
	assert.Nil(t, got.Priority)
}

func TestValidate_WildcardOwner(t *testing.T) {
	got, err := Validate(record("*", domain.RRTypeA, "192.0.2.1"), testZone, 300)
	require.NoError(t, err)
	assert.Equal(t, "*.example.com", got.Name)

	got, err = Validate(record("*.dev", domain.RRTypeA, "192.0.2.1"), testZone, 300)
	require.NoError(t, err)
	assert.Equal(t, "*.dev.example.com", got.Name)

	_, err = Validate(record("*", domain.RRTypeA, "192.0.2.1"), "", 300)
	var dfe *domain.DomainFormatError
	assert.True(t, errors.As(err, &dfe))
}

// Constraint errors come before grammar errors.
func TestValidate_CheckOrder(t *testing.T) {
	rr := record("bad..name", domain.RRTypeA, "not-an-ip")
	rr.Priority = domain.IntPtr(5)
	rr.TTL = domain.IntPtr(1)

	_, err := Validate(rr, testZone, 300)
	var fre *domain.FieldRequirementError
	require.True(t, errors.As(err, &fre))

	rr.Priority = nil
	_, err = Validate(rr, testZone, 300)
	var re *domain.RangeError
	require.True(t, errors.As(err, &re))

	rr.TTL = nil
	_, err = Validate(rr, testZone, 300)
	var dfe *domain.DomainFormatError
	require.True(t, errors.As(err, &dfe))
	assert.Equal(t, "name", dfe.Field())

	rr.Name = "ok"
	_, err = Validate(rr, testZone, 300)
	var afe *domain.AddressFormatError
	require.True(t, errors.As(err, &afe))
	assert.Equal(t, "value", afe.Field())
}
