package rrdata

import (
	"strings"

	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

// validateSRV checks the owner layout and the target host. Priority, weight and
// port are carried as fields and were checked by the field resolver.
func validateSRV(in recordInput) (string, error) {
	// name = "_sip._tcp.example.com", value = "sipserver.example.com."
	if err := checkSRVOwner(in.owner); err != nil {
		return "", err
	}
	// "." means the service is decidedly not available (RFC 2782)
	if in.value == "." {
		return ".", nil
	}
	return targetField("value", in.value)
}

func checkSRVOwner(owner Name) error {
	if owner.Wildcard {
		return &domain.DomainFormatError{FieldName: "name", Name: owner.String(), Reason: "SRV owner name must not be a wildcard"}
	}
	if _, ok := SRVRestOfName(owner.Value); !ok {
		return &domain.DomainFormatError{FieldName: "name", Name: owner.Value, Reason: "SRV owner name must have the form _service._proto.name"}
	}
	return nil
}

// SRVRestOfName returns the domain an SRV owner name advertises a service for:
// "example.com" for "_sip._tcp.example.com". ok is false when name does not
// start with two underscore labels followed by a non-empty remainder.
func SRVRestOfName(name string) (rest string, ok bool) {
	labels := strings.SplitN(name, ".", 3)
	if len(labels) != 3 || labels[2] == "" {
		return "", false
	}
	if !isServiceLabel(labels[0]) || !isServiceLabel(labels[1]) {
		return "", false
	}
	return labels[2], true
}

func isServiceLabel(label string) bool {
	return len(label) > 1 && label[0] == '_'
}
