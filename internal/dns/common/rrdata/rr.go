package rrdata

import (
	"fmt"
	"net"
	"strings"

	"github.com/miekg/dns"

	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

// ToRR converts a validated record into a miekg/dns resource record for
// serving or rendering layers. The record must have come out of Validate;
// values are re-split but not re-validated.
func ToRR(r domain.ValidatedRecord) (dns.RR, error) {
	hdr := dns.RR_Header{
		Name:   dns.Fqdn(r.Name),
		Rrtype: uint16(r.Type),
		Class:  dns.ClassINET,
		Ttl:    r.TTL,
	}

	switch r.Type {
	case domain.RRTypeA:
		return &dns.A{Hdr: hdr, A: net.ParseIP(r.Value).To4()}, nil
	case domain.RRTypeAAAA:
		return &dns.AAAA{Hdr: hdr, AAAA: net.ParseIP(r.Value)}, nil
	case domain.RRTypeNS:
		return &dns.NS{Hdr: hdr, Ns: dns.Fqdn(r.Value)}, nil
	case domain.RRTypeCNAME:
		return &dns.CNAME{Hdr: hdr, Target: dns.Fqdn(r.Value)}, nil
	case domain.RRTypePTR:
		return &dns.PTR{Hdr: hdr, Ptr: dns.Fqdn(r.Value)}, nil
	case domain.RRTypeMX:
		return &dns.MX{Hdr: hdr, Preference: deref(r.Priority), Mx: dns.Fqdn(r.Value)}, nil
	case domain.RRTypeSRV:
		return &dns.SRV{
			Hdr:      hdr,
			Priority: deref(r.Priority),
			Weight:   deref(r.Weight),
			Port:     deref(r.Port),
			Target:   dns.Fqdn(r.Value),
		}, nil
	case domain.RRTypeTXT:
		segments, err := TXTSegments(r.Value)
		if err != nil {
			return nil, err
		}
		return &dns.TXT{Hdr: hdr, Txt: segments}, nil
	case domain.RRTypeSOA:
		f, err := ParseSOA(r.Value)
		if err != nil {
			return nil, err
		}
		return &dns.SOA{
			Hdr:     hdr,
			Ns:      dns.Fqdn(f.PrimaryNS),
			Mbox:    dns.Fqdn(f.AdminEmail),
			Serial:  f.Serial,
			Refresh: f.Refresh,
			Retry:   f.Retry,
			Expire:  f.Expire,
			Minttl:  f.Minimum,
		}, nil
	case domain.RRTypeSSHFP:
		var alg, fpType uint8
		var fp string
		if _, err := fmt.Sscanf(r.Value, "%d %d %s", &alg, &fpType, &fp); err != nil {
			return nil, fmt.Errorf("sshfp value %q: %w", r.Value, err)
		}
		return &dns.SSHFP{Hdr: hdr, Algorithm: alg, Type: fpType, FingerPrint: strings.ToUpper(fp)}, nil
	case domain.RRTypeCAA:
		tokens, err := tokenize(r.Value)
		if err != nil {
			return nil, err
		}
		if len(tokens) != 3 {
			return nil, &domain.StructuralError{FieldName: "value", ExpectedTokens: 3, ActualTokens: len(tokens)}
		}
		value, err := quotedField("value", tokens[2], maxStringLength)
		if err != nil {
			return nil, err
		}
		var flag uint8
		if _, err := fmt.Sscanf(tokens[0], "%d", &flag); err != nil {
			return nil, fmt.Errorf("caa flags %q: %w", tokens[0], err)
		}
		return &dns.CAA{Hdr: hdr, Flag: flag, Tag: tokens[1], Value: value}, nil
	default:
		return nil, &domain.SyntaxError{FieldName: "type", Value: r.Type.String(), Reason: "unsupported record type"}
	}
}

func deref(v *uint16) uint16 {
	if v == nil {
		return 0
	}
	return *v
}
