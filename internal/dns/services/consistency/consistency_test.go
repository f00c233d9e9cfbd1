package consistency

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-zonecheck/internal/dns/common/rrdata"
	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

const zoneName = "example.com"

func mustValidate(t *testing.T, rr domain.ResourceRecord) domain.ValidatedRecord {
	t.Helper()
	v, err := rrdata.Validate(rr, zoneName, 3600)
	require.NoError(t, err)
	return v
}

func rec(id, name string, typ domain.RRType, value string) domain.ResourceRecord {
	return domain.ResourceRecord{ID: id, Name: name, Type: typ, Value: value}
}

func snapshot(t *testing.T, rrs ...domain.ResourceRecord) domain.ZoneSnapshot {
	t.Helper()
	var out []domain.ValidatedRecord
	for _, rr := range rrs {
		out = append(out, mustValidate(t, rr))
	}
	return domain.NewZoneSnapshot(domain.Zone{Name: zoneName, DefaultTTL: 3600}, out)
}

func TestCheck_Accepts(t *testing.T) {
	snap := snapshot(t, rec("1", "www", domain.RRTypeA, "192.0.2.1"))
	cand := mustValidate(t, rec("", "www", domain.RRTypeA, "192.0.2.2"))

	got, err := Check(cand, "", snap)
	require.NoError(t, err)
	assert.Equal(t, cand.Value, got.Value)
	assert.False(t, got.HasWarnings())
}

func TestCheck_CNAMEExclusivity(t *testing.T) {
	t.Run("CNAME after A", func(t *testing.T) {
		snap := snapshot(t, rec("1", "www", domain.RRTypeA, "192.0.2.1"))
		cand := mustValidate(t, rec("", "www", domain.RRTypeCNAME, "other.example.com."))
		_, err := Check(cand, "", snap)
		var ce *domain.ConflictError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, domain.RRTypeA, ce.ExistingType)
		assert.Equal(t, domain.RRTypeCNAME, ce.CandidateType)
		assert.Equal(t, "www.example.com", ce.Name)
	})

	t.Run("A after CNAME", func(t *testing.T) {
		snap := snapshot(t, rec("1", "www", domain.RRTypeCNAME, "other.example.com."))
		cand := mustValidate(t, rec("", "www", domain.RRTypeA, "192.0.2.1"))
		_, err := Check(cand, "", snap)
		var ce *domain.ConflictError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, domain.RRTypeCNAME, ce.ExistingType)
		assert.Equal(t, domain.RRTypeA, ce.CandidateType)
	})

	t.Run("second CNAME", func(t *testing.T) {
		snap := snapshot(t, rec("1", "www", domain.RRTypeCNAME, "one.example.com."))
		cand := mustValidate(t, rec("", "www", domain.RRTypeCNAME, "two.example.com."))
		_, err := Check(cand, "", snap)
		assert.True(t, errors.As(err, new(*domain.ConflictError)))
	})

	t.Run("other owner unaffected", func(t *testing.T) {
		snap := snapshot(t, rec("1", "www", domain.RRTypeA, "192.0.2.1"))
		cand := mustValidate(t, rec("", "ftp", domain.RRTypeCNAME, "www.example.com."))
		_, err := Check(cand, "", snap)
		assert.NoError(t, err)
	})
}

func TestCheck_Duplicate(t *testing.T) {
	snap := snapshot(t, rec("1", "www", domain.RRTypeCNAME, "other.example.com."))
	cand := mustValidate(t, rec("", "WWW.example.com.", domain.RRTypeCNAME, "Other.Example.com"))

	_, err := Check(cand, "", snap)
	var de *domain.DuplicateRecordError
	require.True(t, errors.As(err, &de))
	assert.True(t, de.IsNoop())
	assert.True(t, domain.IsDuplicate(err))
}

func TestCheck_DuplicateIgnoresTTL(t *testing.T) {
	stored := rec("1", "www", domain.RRTypeA, "192.0.2.1")
	stored.TTL = domain.IntPtr(300)
	snap := snapshot(t, stored)

	cand := rec("", "www", domain.RRTypeA, "192.0.2.1")
	cand.TTL = domain.IntPtr(600)
	_, err := Check(mustValidate(t, cand), "", snap)
	assert.True(t, domain.IsDuplicate(err))
}

func TestCheck_MXPriorityIsPartOfIdentity(t *testing.T) {
	mx := func(prio int) domain.ResourceRecord {
		return domain.ResourceRecord{Name: "@", Type: domain.RRTypeMX, Value: "mail.example.com.", Priority: domain.IntPtr(prio)}
	}
	snap := snapshot(t, mx(10))
	_, err := Check(mustValidate(t, mx(20)), "", snap)
	assert.NoError(t, err)
	_, err = Check(mustValidate(t, mx(10)), "", snap)
	assert.True(t, domain.IsDuplicate(err))
}

func TestCheck_MutationIgnoresReplacedRecord(t *testing.T) {
	snap := snapshot(t, rec("rec-1", "www", domain.RRTypeA, "192.0.2.1"))

	// turning the A record into a CNAME replaces it rather than conflicting
	cand := mustValidate(t, rec("rec-1", "www", domain.RRTypeCNAME, "other.example.com."))
	_, err := Check(cand, "rec-1", snap)
	assert.NoError(t, err)

	// re-submitting the stored value under its own ID is not a duplicate
	same := mustValidate(t, rec("rec-1", "www", domain.RRTypeA, "192.0.2.1"))
	_, err = Check(same, "rec-1", snap)
	assert.NoError(t, err)
}

func TestCheck_SOASerial(t *testing.T) {
	soa := func(serial string) domain.ResourceRecord {
		return rec("soa", "@", domain.RRTypeSOA, "ns1.example.com. hostmaster.example.com. "+serial+" 7200 3600 1209600 3600")
	}
	snap := snapshot(t, soa("2024010101"))

	_, err := Check(mustValidate(t, soa("2024010101")), "soa", snap)
	var sre *domain.SerialRegressionError
	require.True(t, errors.As(err, &sre))
	assert.Equal(t, uint32(2024010101), sre.Previous)
	assert.Equal(t, uint32(2024010101), sre.Candidate)

	_, err = Check(mustValidate(t, soa("2024010100")), "soa", snap)
	assert.True(t, errors.As(err, &sre))

	_, err = Check(mustValidate(t, soa("2024010102")), "soa", snap)
	assert.NoError(t, err)
}

func TestCheck_SOASerialFromZone(t *testing.T) {
	snap := domain.NewZoneSnapshot(domain.Zone{
		Name: zoneName,
		SOA:  &domain.SOAFields{Serial: 50},
	}, nil)
	cand := mustValidate(t, rec("", "@", domain.RRTypeSOA, "ns1.example.com. hostmaster.example.com. 49 7200 3600 1209600 3600"))
	_, err := Check(cand, "", snap)
	assert.True(t, errors.As(err, new(*domain.SerialRegressionError)))
}

func TestCheckSerial(t *testing.T) {
	assert.NoError(t, CheckSerial(0, 1))
	assert.NoError(t, CheckSerial(2024010101, 2024010102))
	assert.Error(t, CheckSerial(0, 0))
	assert.Error(t, CheckSerial(2024010101, 2024010101))
	assert.Error(t, CheckSerial(2024010102, 2024010101))
}

func TestCheck_OutOfZoneWarning(t *testing.T) {
	snap := snapshot(t)

	got, err := Check(mustValidate(t, rec("", "www.other.org.", domain.RRTypeA, "192.0.2.1")), "", snap)
	require.NoError(t, err)
	require.Len(t, got.Warnings, 1)
	assert.Equal(t, domain.WarningOutOfZone, got.Warnings[0].Kind)

	srv := domain.ResourceRecord{
		Name: "_sip._tcp.other.org.", Type: domain.RRTypeSRV, Value: "sip.example.com.",
		Priority: domain.IntPtr(10), Weight: domain.IntPtr(5), Port: domain.IntPtr(5060),
	}
	got, err = Check(mustValidate(t, srv), "", snap)
	require.NoError(t, err)
	require.Len(t, got.Warnings, 1)
	assert.Equal(t, domain.WarningOutOfZone, got.Warnings[0].Kind)
	assert.Contains(t, got.Warnings[0].Message, `"other.org"`)

	got, err = Check(mustValidate(t, rec("", "@", domain.RRTypeA, "192.0.2.1")), "", snap)
	require.NoError(t, err)
	assert.Empty(t, got.Warnings)
}

func TestCheck_AliasTargetWarning(t *testing.T) {
	snap := snapshot(t, rec("1", "mail", domain.RRTypeCNAME, "mx.provider.net."))
	mx := domain.ResourceRecord{Name: "@", Type: domain.RRTypeMX, Value: "mail.example.com.", Priority: domain.IntPtr(10)}

	got, err := Check(mustValidate(t, mx), "", snap)
	require.NoError(t, err)
	require.Len(t, got.Warnings, 1)
	assert.Equal(t, domain.WarningAliasTarget, got.Warnings[0].Kind)
	assert.Equal(t, "value", got.Warnings[0].Field)
}

func TestCheck_AliasTargetWarningReverse(t *testing.T) {
	mx := domain.ResourceRecord{ID: "1", Name: "@", Type: domain.RRTypeMX, Value: "mail.example.com.", Priority: domain.IntPtr(10)}
	snap := snapshot(t, mx)

	got, err := Check(mustValidate(t, rec("", "mail", domain.RRTypeCNAME, "mx.provider.net.")), "", snap)
	require.NoError(t, err)
	require.Len(t, got.Warnings, 1)
	assert.Equal(t, domain.WarningAliasTarget, got.Warnings[0].Kind)
	assert.Equal(t, "name", got.Warnings[0].Field)
}

func TestCheck_DoesNotMutateSnapshot(t *testing.T) {
	snap := snapshot(t, rec("1", "www", domain.RRTypeA, "192.0.2.1"))
	before := len(snap.Records)
	_, _ = Check(mustValidate(t, rec("", "ftp", domain.RRTypeA, "192.0.2.9")), "", snap)
	assert.Len(t, snap.Records, before)
}
