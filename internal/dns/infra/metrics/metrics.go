// Package metrics counts validation outcomes with Prometheus collectors held in
// a private registry, so several recorders can coexist in one process.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

// Outcome label values.
const (
	ResultAccepted  = "accepted"
	ResultWarning   = "accepted_with_warnings"
	ResultDuplicate = "duplicate"
	ResultRejected  = "rejected"
)

// Recorder implements the engine's metrics hook.
type Recorder struct {
	registry    *prometheus.Registry
	validations *prometheus.CounterVec
	errors      *prometheus.CounterVec
	warnings    *prometheus.CounterVec
}

// New creates a Recorder and registers its collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zonecheck_validations_total",
			Help: "Number of validations by kind (record, soa, rpz) and result",
		}, []string{"kind", "result"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zonecheck_validation_errors_total",
			Help: "Number of rejected candidates by error class",
		}, []string{"class"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zonecheck_validation_warnings_total",
			Help: "Number of warnings attached to accepted candidates by warning kind",
		}, []string{"kind"}),
	}
	r.registry.MustRegister(r.validations, r.errors, r.warnings)
	return r
}

// ObserveValidation records one validation outcome. A duplicate is counted as
// its own result, not as a rejection.
func (r *Recorder) ObserveValidation(kind string, warnings []domain.Warning, err error) {
	switch {
	case err == nil && len(warnings) > 0:
		r.validations.WithLabelValues(kind, ResultWarning).Inc()
	case err == nil:
		r.validations.WithLabelValues(kind, ResultAccepted).Inc()
	case domain.IsDuplicate(err):
		r.validations.WithLabelValues(kind, ResultDuplicate).Inc()
	default:
		r.validations.WithLabelValues(kind, ResultRejected).Inc()
		r.errors.WithLabelValues(domain.ErrorClass(err)).Inc()
	}
	for _, w := range warnings {
		r.warnings.WithLabelValues(w.Kind.String()).Inc()
	}
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile dumps the current values in the node-exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
