package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

func TestObserveValidation(t *testing.T) {
	r := New()

	r.ObserveValidation("record", nil, nil)
	r.ObserveValidation("record", nil, nil)
	r.ObserveValidation("record", []domain.Warning{{Kind: domain.WarningOutOfZone}}, nil)
	r.ObserveValidation("record", nil, &domain.DuplicateRecordError{Name: "www.example.com"})
	r.ObserveValidation("record", nil, &domain.ConflictError{Name: "www.example.com"})
	r.ObserveValidation("soa", nil, &domain.SerialRegressionError{Previous: 2, Candidate: 1})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.validations.WithLabelValues("record", ResultAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.validations.WithLabelValues("record", ResultWarning)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.validations.WithLabelValues("record", ResultDuplicate)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.validations.WithLabelValues("record", ResultRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.validations.WithLabelValues("soa", ResultRejected)))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.errors.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errors.WithLabelValues("serial_regression")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.warnings.WithLabelValues("out-of-zone")))
}

func TestRecordersAreIsolated(t *testing.T) {
	a, b := New(), New()
	a.ObserveValidation("rpz", nil, nil)
	assert.Equal(t, 1, testutil.CollectAndCount(a.validations))
	assert.Equal(t, 0, testutil.CollectAndCount(b.validations))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.ObserveValidation("record", nil, &domain.RangeError{FieldName: "ttl"})

	path := filepath.Join(t.TempDir(), "zonecheck.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `zonecheck_validations_total{kind="record",result="rejected"} 1`)
	assert.Contains(t, string(data), `zonecheck_validation_errors_total{class="range"} 1`)
}
