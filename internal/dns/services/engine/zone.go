package engine

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

// Rejection pairs a refused candidate with its position in the batch.
type Rejection struct {
	Index  int
	Record domain.ResourceRecord
	Err    error
}

func (r Rejection) Error() string {
	return fmt.Sprintf("record %d (%s %s): %v", r.Index, r.Record.Type, r.Record.Name, r.Err)
}

func (r Rejection) Unwrap() error { return r.Err }

// Report is the outcome of validating a batch of records.
type Report struct {
	Accepted   []domain.ValidatedRecord
	Duplicates []domain.ResourceRecord
	Rejected   []Rejection
}

// Err combines every rejection, or returns nil when none occurred.
// Duplicates are not errors.
func (r Report) Err() error {
	var err error
	for _, rej := range r.Rejected {
		err = multierr.Append(err, rej)
	}
	return err
}

// Warnings returns the number of warnings across accepted records.
func (r Report) Warnings() int {
	n := 0
	for _, v := range r.Accepted {
		n += len(v.Warnings)
	}
	return n
}

// ValidateZone validates records in order as if each accepted record were
// written before the next is checked. Later records are therefore checked
// against earlier ones (a CNAME after an A at the same name is rejected).
// The zone's SOA, when set, seeds the serial check.
func (e *Engine) ValidateZone(zone domain.Zone, records []domain.ResourceRecord) Report {
	var report Report
	snapshot := domain.NewZoneSnapshot(zone, nil)

	for i, rr := range records {
		v, err := e.ValidateRecord(rr, snapshot)
		switch {
		case err == nil:
			snapshot.Put(v)
		case domain.IsDuplicate(err):
			report.Duplicates = append(report.Duplicates, rr)
		default:
			report.Rejected = append(report.Rejected, Rejection{Index: i, Record: rr, Err: err})
		}
	}

	report.Accepted = snapshot.Records
	return report
}
