package parsers

import (
	"bufio"
	"io"
	"strings"

	logpkg "github.com/haukened/rr-zonecheck/internal/dns/common/log"
)

// ParsePlainList parses a newline-delimited list of domains into candidate
// rules carrying the defaults.
//
// Behavior:
// - Supports comments starting with '#' (inline or whole-line)
// - Skips empty lines after trimming and stripping comments
// - "*.x" is a wildcard rule; ".x" yields an exact rule and a wildcard rule
// - De-duplicates by stored domain while preserving first-seen order
// - Malformed names are kept; validation reports them with their line
func ParsePlainList(r io.Reader, defaults Defaults, logger logpkg.Logger) ([]Entry, error) {
	scanner := bufio.NewScanner(r)

	seen := make(map[string]struct{})
	out := make([]Entry, 0, 256)
	logger.Debug(map[string]any{"source": defaults.Source}, "parse_plain_list_start")

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := stripLineBOM(scanner.Text())

		if isEmpty, isComment := classifyLine(line); isEmpty || isComment {
			continue
		}

		token := strings.TrimSpace(stripInlineComment(line))
		if token == "" {
			continue
		}

		for _, name := range listNames(token) {
			if _, ok := seen[name]; ok {
				logger.Debug(map[string]any{"line": lineNum, "name": name}, "skip_duplicate")
				continue
			}
			seen[name] = struct{}{}
			out = append(out, Entry{Line: lineNum, Rule: defaults.rule(name)})
		}
	}

	if err := scanner.Err(); err != nil {
		logger.Debug(map[string]any{"source": defaults.Source, "error": err.Error()}, "parse_plain_list_scan_error")
		return nil, err
	}
	logger.Debug(map[string]any{"source": defaults.Source, "count": len(out)}, "parse_plain_list_done")
	return out, nil
}
