// Package engine is the entry point for validating DNS records, SOA updates
// and RPZ rules. It composes the per-type grammars, the zone consistency
// checker and the RPZ validator, and holds no mutable state.
package engine

import (
	"github.com/haukened/rr-zonecheck/internal/dns/common/clock"
	"github.com/haukened/rr-zonecheck/internal/dns/common/log"
	"github.com/haukened/rr-zonecheck/internal/dns/common/rrdata"
	"github.com/haukened/rr-zonecheck/internal/dns/domain"
	"github.com/haukened/rr-zonecheck/internal/dns/services/consistency"
	"github.com/haukened/rr-zonecheck/internal/dns/services/rpz"
)

// DefaultTTL is used when neither the zone nor the options set one.
const DefaultTTL = 3600

// Validation kinds reported to the metrics hook.
const (
	KindRecord = "record"
	KindSOA    = "soa"
	KindRPZ    = "rpz"
)

// MetricsRecorder receives one call per validation.
type MetricsRecorder interface {
	ObserveValidation(kind string, warnings []domain.Warning, err error)
}

type Engine struct {
	logger     log.Logger
	metrics    MetricsRecorder
	rpz        *rpz.Validator
	defaultTTL uint32
}

type Options struct {
	Logger     log.Logger
	Clock      clock.Clock
	Metrics    MetricsRecorder
	DefaultTTL uint32
}

func New(opts Options) *Engine {
	ttl := opts.DefaultTTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Engine{
		logger:     log.WithComponent(opts.Logger, "engine"),
		metrics:    opts.Metrics,
		rpz:        rpz.NewValidator(opts.Clock),
		defaultTTL: ttl,
	}
}

// ValidateRecord validates a candidate in isolation and then against the
// snapshot. A DuplicateRecordError means the record is already stored.
func (e *Engine) ValidateRecord(candidate domain.ResourceRecord, snapshot domain.ZoneSnapshot) (domain.ValidatedRecord, error) {
	ttl := snapshot.Zone.DefaultTTL
	if ttl == 0 {
		ttl = e.defaultTTL
	}

	v, err := rrdata.Validate(candidate, snapshot.Zone.Name, ttl)
	if err == nil {
		v, err = consistency.Check(v, candidate.ID, snapshot)
	}

	e.observe(KindRecord, v.Warnings, err, map[string]any{
		"zone": snapshot.Zone.Name,
		"name": candidate.Name,
		"type": candidate.Type.String(),
	})
	if err != nil {
		return domain.ValidatedRecord{}, err
	}
	return v, nil
}

// ValidateZoneSOA validates new SOA parameters for a zone whose current serial
// is previousSerial. A zone without an SOA yet passes 0.
func (e *Engine) ValidateZoneSOA(candidate domain.SOAFields, previousSerial uint32) (domain.ValidatedSOA, error) {
	f, err := rrdata.CheckSOAFields(candidate)
	if err == nil {
		err = consistency.CheckSerial(previousSerial, f.Serial)
	}

	e.observe(KindSOA, nil, err, map[string]any{
		"serial":          candidate.Serial,
		"previous_serial": previousSerial,
	})
	if err != nil {
		return domain.ValidatedSOA{}, err
	}
	return domain.ValidatedSOA{SOAFields: f}, nil
}

// ValidateRPZRule validates a policy rule.
func (e *Engine) ValidateRPZRule(candidate domain.RPZRule) (domain.ValidatedRPZRule, error) {
	v, err := e.rpz.Validate(candidate)

	e.observe(KindRPZ, v.Warnings, err, map[string]any{
		"domain": candidate.Domain,
		"action": string(candidate.Action),
	})
	if err != nil {
		return domain.ValidatedRPZRule{}, err
	}
	return v, nil
}

func (e *Engine) observe(kind string, warnings []domain.Warning, err error, fields map[string]any) {
	if e.metrics != nil {
		e.metrics.ObserveValidation(kind, warnings, err)
	}

	fields["kind"] = kind
	switch {
	case err == nil:
		if len(warnings) > 0 {
			ws := make([]string, 0, len(warnings))
			for _, w := range warnings {
				ws = append(ws, w.String())
			}
			fields["warnings"] = ws
		}
		e.logger.Debug(fields, "candidate accepted")
	case domain.IsDuplicate(err):
		e.logger.Debug(fields, "candidate already stored")
	default:
		fields["error"] = err.Error()
		fields["class"] = domain.ErrorClass(err)
		e.logger.Debug(fields, "candidate rejected")
	}
}
