package rrdata

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

var caaTags = map[string]bool{
	"issue":     true,
	"issuewild": true,
	"iodef":     true,
}

// validateCAA checks `flags tag "value"` (RFC 8659).
func validateCAA(in recordInput) (string, error) {
	// value = "0 issue \"letsencrypt.org\""
	tokens, err := tokenize(in.value)
	if err != nil {
		return "", err
	}
	if len(tokens) != 3 {
		return "", &domain.StructuralError{FieldName: "value", ExpectedTokens: 3, ActualTokens: len(tokens)}
	}

	flags, err := parseIntField("flags", tokens[0], 0, 255)
	if err != nil {
		return "", err
	}

	tag := strings.ToLower(tokens[1])
	if !caaTags[tag] {
		return "", &domain.SyntaxError{FieldName: "tag", Value: tokens[1], Reason: "CAA tag must be issue, issuewild or iodef"}
	}

	value, err := quotedField("value", tokens[2], maxStringLength)
	if err != nil {
		return "", err
	}
	if tag == "iodef" {
		err = checkCAAIodef(value)
	} else {
		err = checkCAAIssuer(value)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %s %s", flags, tag, tokens[2]), nil
}

// checkCAAIssuer accepts ";" or an empty value (no CA may issue), or an issuer
// domain optionally followed by "; key=value" parameters.
func checkCAAIssuer(v string) error {
	issuer, _, _ := strings.Cut(v, ";")
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		return nil
	}
	_, err := targetField("value", issuer)
	return err
}

// checkCAAIodef accepts mailto: and http(s):// report URLs.
func checkCAAIodef(v string) error {
	u, err := url.Parse(v)
	if err == nil {
		switch strings.ToLower(u.Scheme) {
		case "mailto":
			if strings.Contains(u.Opaque, "@") {
				return nil
			}
		case "http", "https":
			if u.Host != "" {
				return nil
			}
		}
	}
	return &domain.SyntaxError{FieldName: "value", Value: v, Reason: "iodef must be a mailto: or http(s):// URL"}
}
