package rrdata

import (
	"strings"
	"unicode/utf8"

	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

// validateTXT checks a TXT value. Unquoted input is taken as a single
// character-string; quoted input may hold several ("part one" "part two").
// The joined text is then checked against the SPF, DKIM and DMARC grammars
// when it announces one of them.
func validateTXT(in recordInput) (string, error) {
	// value = "\"v=spf1 include:_spf.example.com ~all\""
	segments, err := TXTSegments(in.value)
	if err != nil {
		return "", err
	}
	if err := checkTXTPolicy(strings.Join(segments, "")); err != nil {
		return "", err
	}
	return in.value, nil
}

// TXTSegments returns the unescaped character-strings of a TXT value.
func TXTSegments(value string) ([]string, error) {
	if value == "" {
		return nil, &domain.SyntaxError{FieldName: "value", Value: value, Reason: "TXT value must not be empty"}
	}
	if !utf8.ValidString(value) {
		return nil, &domain.SyntaxError{FieldName: "value", Value: value, Reason: "TXT value is not valid UTF-8"}
	}
	if value[0] != '"' {
		if len(value) > maxStringLength {
			return nil, &domain.RangeError{FieldName: "value segment length", Min: 0, Max: maxStringLength, Actual: int64(len(value))}
		}
		return []string{value}, nil
	}

	tokens, err := tokenize(value)
	if err != nil {
		return nil, err
	}
	segments := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		seg, err := quotedField("value segment", tok, maxStringLength)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, nil
}
