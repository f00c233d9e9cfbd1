package parsers

import (
	"bufio"
	"io"
	"net/netip"
	"strings"

	logpkg "github.com/haukened/rr-zonecheck/internal/dns/common/log"
	"github.com/haukened/rr-zonecheck/internal/dns/common/utils"
	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

// ParseHostsFile parses /etc/hosts-style files into exact candidate rules.
//
// Rules:
// - The address decides the action: a sink address (0.0.0.0, ::, loopback)
//   takes the default action (block when none is set); any other address
//   becomes a redirect to that address
// - Skip comments (whole-line or inline after '#'), blank lines and lines
//   whose first field is not an IP address
// - Skip wildcard tokens, names starting with '.', and single-label names
// - De-duplicate by canonical name, preserving first-seen order
func ParseHostsFile(r io.Reader, defaults Defaults, logger logpkg.Logger) ([]Entry, error) {
	scanner := bufio.NewScanner(r)

	seen := make(map[string]struct{})
	out := make([]Entry, 0, 256)

	logger.Debug(map[string]any{"source": defaults.Source}, "parse_hosts_start")

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := stripLineBOM(scanner.Text())

		if isEmpty, isComment := classifyLine(line); isEmpty || isComment {
			continue
		}

		fields := strings.Fields(stripInlineComment(line))
		if len(fields) < 2 {
			logger.Debug(map[string]any{"line": lineNum}, "hosts_no_hostnames")
			continue
		}

		addr, err := netip.ParseAddr(fields[0])
		if err != nil {
			logger.Debug(map[string]any{"line": lineNum, "addr": fields[0]}, "hosts_skip_bad_address")
			continue
		}

		for _, raw := range fields[1:] {
			if strings.HasPrefix(raw, ".") || strings.Contains(raw, "*") {
				logger.Debug(map[string]any{"line": lineNum, "raw": raw}, "hosts_skip_invalid_token")
				continue
			}

			name := utils.CanonicalDNSName(raw)
			if !isMultiLabel(name) {
				logger.Debug(map[string]any{"line": lineNum, "name": name}, "hosts_skip_local_name")
				continue
			}
			if _, ok := seen[name]; ok {
				logger.Debug(map[string]any{"line": lineNum, "name": name}, "hosts_skip_duplicate")
				continue
			}
			seen[name] = struct{}{}

			out = append(out, Entry{Line: lineNum, Rule: hostsRule(defaults, name, addr)})
		}
	}

	if err := scanner.Err(); err != nil {
		logger.Debug(map[string]any{"source": defaults.Source, "error": err.Error()}, "parse_hosts_scan_error")
		return nil, err
	}

	logger.Debug(map[string]any{"source": defaults.Source, "count": len(out)}, "parse_hosts_done")
	return out, nil
}

func hostsRule(defaults Defaults, name string, addr netip.Addr) domain.RPZRule {
	rule := defaults.rule(name)
	if isSink(addr) {
		if rule.Action == "" || rule.Action == domain.RPZActionRedirect {
			rule.Action = domain.RPZActionBlock
		}
		rule.RedirectTarget = ""
		return rule
	}
	rule.Action = domain.RPZActionRedirect
	rule.RedirectTarget = addr.String()
	return rule
}

func isSink(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsUnspecified() || addr.IsLoopback()
}
