package domain

import (
	"errors"
	"fmt"
)

// ValidationError is implemented by every error the engine returns for a rejected
// candidate. Field names the input the error refers to so callers can render
// field-precise messages.
type ValidationError interface {
	error
	Field() string
}

// Requirement says whether an optional record field must be present or absent.
type Requirement uint8

const (
	Forbidden Requirement = iota
	Required
)

func (r Requirement) String() string {
	if r == Required {
		return "required"
	}
	return "not allowed"
}

// DomainFormatError reports a domain name grammar violation.
type DomainFormatError struct {
	FieldName string
	Name      string
	Reason    string
}

func (e *DomainFormatError) Error() string {
	return fmt.Sprintf("%s: invalid domain name %q: %s", e.FieldName, e.Name, e.Reason)
}

func (e *DomainFormatError) Field() string { return e.FieldName }

// AddressFormatError reports a malformed IPv4 or IPv6 literal.
type AddressFormatError struct {
	FieldName string
	Kind      string // "IPv4" or "IPv6"
	Value     string
}

func (e *AddressFormatError) Error() string {
	return fmt.Sprintf("%s: %q is not a valid %s address", e.FieldName, e.Value, e.Kind)
}

func (e *AddressFormatError) Field() string { return e.FieldName }

// FieldRequirementError reports a required field that is missing or a forbidden
// field that is present. RecordType is the record type name, or "RPZ" for rules.
type FieldRequirementError struct {
	FieldName   string
	RecordType  string
	Requirement Requirement
}

func (e *FieldRequirementError) Error() string {
	if e.Requirement == Required {
		return fmt.Sprintf("%s is required for %s", e.FieldName, e.RecordType)
	}
	return fmt.Sprintf("%s is not allowed for %s", e.FieldName, e.RecordType)
}

func (e *FieldRequirementError) Field() string { return e.FieldName }

// RangeError reports a numeric value (or a length) outside [Min, Max].
type RangeError struct {
	FieldName string
	Min       int64
	Max       int64
	Actual    int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %d out of range [%d, %d]", e.FieldName, e.Actual, e.Min, e.Max)
}

func (e *RangeError) Field() string { return e.FieldName }

// StructuralError reports a token-count mismatch in a multi-token value.
type StructuralError struct {
	FieldName      string
	ExpectedTokens int
	ActualTokens   int
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: expected %d tokens, got %d", e.FieldName, e.ExpectedTokens, e.ActualTokens)
}

func (e *StructuralError) Field() string { return e.FieldName }

// ConflictError reports a CNAME exclusivity violation at an owner name.
type ConflictError struct {
	ExistingType  RRType
	CandidateType RRType
	Name          string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s record at %q conflicts with existing %s record", e.CandidateType, e.Name, e.ExistingType)
}

func (e *ConflictError) Field() string { return "name" }

// DuplicateRecordError reports an exact duplicate of a stored record. It is not a
// failure: callers with upsert semantics treat it as a successful no-op.
type DuplicateRecordError struct {
	Name  string
	Type  RRType
	Value string
}

func (e *DuplicateRecordError) Error() string {
	return fmt.Sprintf("duplicate %s record at %q: %s", e.Type, e.Name, e.Value)
}

func (e *DuplicateRecordError) Field() string { return "value" }

// IsNoop reports that the candidate is already stored.
func (e *DuplicateRecordError) IsNoop() bool { return true }

// SerialRegressionError reports an SOA serial that does not strictly increase.
type SerialRegressionError struct {
	Previous  uint32
	Candidate uint32
}

func (e *SerialRegressionError) Error() string {
	return fmt.Sprintf("serial: %d must be greater than previous serial %d", e.Candidate, e.Previous)
}

func (e *SerialRegressionError) Field() string { return "serial" }

// ActionFieldMismatchError reports an RPZ field whose presence contradicts the action.
type ActionFieldMismatchError struct {
	Action    RPZAction
	FieldName string
	Present   bool // true when the field was supplied but the action forbids it
}

func (e *ActionFieldMismatchError) Error() string {
	if e.Present {
		return fmt.Sprintf("%s must be empty for action %q", e.FieldName, e.Action)
	}
	return fmt.Sprintf("%s is required for action %q", e.FieldName, e.Action)
}

func (e *ActionFieldMismatchError) Field() string { return e.FieldName }

// SyntaxError reports a malformed token that fits none of the other classes:
// non-numeric integers, non-hex fingerprints, unknown tags, SPF/DKIM/DMARC grammar.
type SyntaxError struct {
	FieldName string
	Value     string
	Reason    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %q: %s", e.FieldName, e.Value, e.Reason)
}

func (e *SyntaxError) Field() string { return e.FieldName }

// IsDuplicate reports whether err is (or wraps) a DuplicateRecordError.
func IsDuplicate(err error) bool {
	var dup *DuplicateRecordError
	return errors.As(err, &dup)
}

// ErrorClass returns a short stable name for the error's class, used for metrics
// and log fields. Unknown errors yield "other".
func ErrorClass(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.As(err, new(*DomainFormatError)):
		return "domain_format"
	case errors.As(err, new(*AddressFormatError)):
		return "address_format"
	case errors.As(err, new(*FieldRequirementError)):
		return "field_requirement"
	case errors.As(err, new(*RangeError)):
		return "range"
	case errors.As(err, new(*StructuralError)):
		return "structural"
	case errors.As(err, new(*ConflictError)):
		return "conflict"
	case errors.As(err, new(*DuplicateRecordError)):
		return "duplicate"
	case errors.As(err, new(*SerialRegressionError)):
		return "serial_regression"
	case errors.As(err, new(*ActionFieldMismatchError)):
		return "action_field_mismatch"
	case errors.As(err, new(*SyntaxError)):
		return "syntax"
	default:
		return "other"
	}
}
