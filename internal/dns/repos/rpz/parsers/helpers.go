// Package parsers reads RPZ rule sources (plain domain lists, hosts files and
// structured rule files) into candidate rules. Parsers only split and
// normalize input; the engine validates every rule before it is stored.
package parsers

import (
	"strings"
	"time"

	"github.com/haukened/rr-zonecheck/internal/dns/common/utils"
	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

// Defaults supplies the fields a list format cannot express.
type Defaults struct {
	Action         domain.RPZAction
	RedirectTarget string
	Category       string
	Source         string
	ExpiresAt      *time.Time
}

// Entry is a candidate rule and the line (or list position, 1-based) it came from.
type Entry struct {
	Line int
	Rule domain.RPZRule
}

// rule builds a candidate for name from the defaults.
func (d Defaults) rule(name string) domain.RPZRule {
	return domain.RPZRule{
		Domain:         name,
		Action:         d.Action,
		RedirectTarget: d.RedirectTarget,
		Category:       d.Category,
		Source:         d.Source,
		ExpiresAt:      d.ExpiresAt,
	}
}

// stripLineBOM removes a UTF-8 byte order mark at the start of a line.
func stripLineBOM(line string) string {
	return strings.TrimPrefix(line, "\uFEFF")
}

// classifyLine reports whether line is blank or a whole-line comment.
func classifyLine(line string) (isEmpty, isComment bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true, false
	}
	return false, strings.HasPrefix(trimmed, "#")
}

// stripInlineComment drops everything from the first '#'.
func stripInlineComment(line string) string {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		return line[:idx]
	}
	return line
}

// listNames expands one plain-list token into stored rule domains.
// "*.x" is a wildcard over x's subdomains; ".x" covers x and its subdomains
// and yields both rules. Anything else is an exact name.
func listNames(token string) []string {
	switch {
	case strings.HasPrefix(token, "*."):
		return []string{"*." + utils.CanonicalDNSName(token[2:])}
	case strings.HasPrefix(token, ".") && len(token) > 1:
		name := utils.CanonicalDNSName(token[1:])
		return []string{name, "*." + name}
	default:
		return []string{utils.CanonicalDNSName(token)}
	}
}

// isMultiLabel reports whether name has at least two labels. Hosts files use
// single-label names for local aliases (localhost, broadcasthost).
func isMultiLabel(name string) bool {
	i := strings.IndexByte(name, '.')
	return i > 0 && i < len(name)-1
}
