package parsers

import (
	"bytes"
	"strings"
	"testing"

	"github.com/haukened/rr-zonecheck/internal/dns/common/log"
	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

func TestParseHostsFile_Basic(t *testing.T) {
	input := `
# comment
127.0.0.1 localhost
::1 localhost ip6-localhost ip6-loopback
0.0.0.0 example.com example.org # inline comment
# wildcard-like entries should be ignored
0.0.0.0 *.bad.example.com .also.bad.example.com
192.168.1.1 sub.Example.com
:: v6sink.example
not-an-ip ignored.example
1.2.3.4 . .
255.255.255.255 broadcasthost
`
	defaults := Defaults{Category: "ads", Source: "hosts-src"}
	got, err := ParseHostsFile(bytes.NewBufferString(input), defaults, log.NewNoopLogger())
	if err != nil {
		t.Fatalf("ParseHostsFile returned error: %v", err)
	}

	want := []struct {
		line   int
		name   string
		action domain.RPZAction
		target string
	}{
		{5, "example.com", domain.RPZActionBlock, ""},
		{5, "example.org", domain.RPZActionBlock, ""},
		{8, "sub.example.com", domain.RPZActionRedirect, "192.168.1.1"},
		{9, "v6sink.example", domain.RPZActionBlock, ""},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d rules, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		r := got[i].Rule
		if got[i].Line != w.line || r.Domain != w.name || r.Action != w.action || r.RedirectTarget != w.target {
			t.Fatalf("rule[%d] = line %d %+v; want %+v", i, got[i].Line, r, w)
		}
		if r.Source != "hosts-src" || r.Category != "ads" {
			t.Fatalf("rule[%d] defaults not applied: %+v", i, r)
		}
	}
}

func TestParseHostsFile_SinkUsesDefaultAction(t *testing.T) {
	defaults := Defaults{Action: domain.RPZActionNXDomain, Category: "c", Source: "s"}
	got, err := ParseHostsFile(strings.NewReader("0.0.0.0 a.example\n"), defaults, log.NewNoopLogger())
	if err != nil || len(got) != 1 {
		t.Fatalf("unexpected: %v %v", got, err)
	}
	if got[0].Rule.Action != domain.RPZActionNXDomain {
		t.Fatalf("sink should take the default action, got %s", got[0].Rule.Action)
	}

	// A redirect default makes no sense for a sink address.
	defaults.Action, defaults.RedirectTarget = domain.RPZActionRedirect, "192.0.2.1"
	got, _ = ParseHostsFile(strings.NewReader("0.0.0.0 a.example\n"), defaults, log.NewNoopLogger())
	if got[0].Rule.Action != domain.RPZActionBlock || got[0].Rule.RedirectTarget != "" {
		t.Fatalf("sink with redirect default should block: %+v", got[0].Rule)
	}
}

func TestParseHostsFile_DuplicatesAndScannerError(t *testing.T) {
	input := "0.0.0.0 dup.example.com dup.example.com\n0.0.0.0 DUP.example.com.\n"
	got, err := ParseHostsFile(bytes.NewBufferString(input), Defaults{}, log.NewNoopLogger())
	if err != nil {
		t.Fatalf("ParseHostsFile returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 rule after dedupe, got %d", len(got))
	}

	long := "0.0.0.0 " + strings.Repeat("a", 70*1024) + ".example\n"
	if _, err := ParseHostsFile(strings.NewReader(long), Defaults{}, log.NewNoopLogger()); err == nil {
		t.Fatalf("expected scanner error for oversized line")
	}
}
