package parsers

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"

	logpkg "github.com/haukened/rr-zonecheck/internal/dns/common/log"
	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

// ParseRulesFile reads a structured rule file (YAML, JSON or TOML):
//
//	source: feed-a
//	category: malware
//	rules:
//	  - domain: bad.example
//	    action: block
//	  - domain: "*.ads.example"
//	    action: redirect
//	    redirect_target: 192.0.2.1
//	    expires_at: "2027-01-01T00:00:00Z"
//
// Top-level action, category and source override defaults; per-rule fields
// override both. Entry.Line is the rule's 1-based position in the list.
func ParseRulesFile(path string, defaults Defaults, logger logpkg.Logger) ([]Entry, error) {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	case ".toml":
		parser = toml.Parser()
	default:
		return nil, fmt.Errorf("unsupported rule file type %q", filepath.Ext(path))
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load rule file %s: %w", path, err)
	}

	if v := k.String("action"); v != "" {
		defaults.Action = domain.RPZAction(v)
	}
	if v := k.String("category"); v != "" {
		defaults.Category = v
	}
	if v := k.String("source"); v != "" {
		defaults.Source = v
	}

	items, err := ruleItems(k.Get("rules"))
	if err != nil {
		return nil, fmt.Errorf("rule file %s: %w", path, err)
	}

	out := make([]Entry, 0, len(items))
	for i, item := range items {
		rule, err := ruleFromMap(item, defaults)
		if err != nil {
			return nil, fmt.Errorf("rule file %s: rules[%d]: %w", path, i, err)
		}
		out = append(out, Entry{Line: i + 1, Rule: rule})
	}

	logger.Debug(map[string]any{"path": path, "count": len(out)}, "parse_rules_file_done")
	return out, nil
}

// ruleItems accepts the list shapes the three parsers produce.
func ruleItems(v any) ([]map[string]any, error) {
	switch list := v.(type) {
	case nil:
		return nil, fmt.Errorf("missing 'rules' list")
	case []map[string]any:
		return list, nil
	case []any:
		out := make([]map[string]any, 0, len(list))
		for i, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("rules[%d] must be an object, got %T", i, item)
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("'rules' must be a list, got %T", v)
	}
}

func ruleFromMap(m map[string]any, defaults Defaults) (domain.RPZRule, error) {
	str := func(key string) (string, bool, error) {
		v, ok := m[key]
		if !ok {
			return "", false, nil
		}
		s, isStr := v.(string)
		if !isStr {
			return "", false, fmt.Errorf("%s must be a string, got %T", key, v)
		}
		return s, true, nil
	}

	name, _, err := str("domain")
	if err != nil {
		return domain.RPZRule{}, err
	}
	rule := defaults.rule(name)

	for _, f := range []struct {
		key string
		set func(string)
	}{
		{"action", func(s string) { rule.Action = domain.RPZAction(s) }},
		{"redirect_target", func(s string) { rule.RedirectTarget = s }},
		{"category", func(s string) { rule.Category = s }},
		{"source", func(s string) { rule.Source = s }},
	} {
		s, ok, err := str(f.key)
		if err != nil {
			return domain.RPZRule{}, err
		}
		if ok {
			f.set(s)
		}
	}

	if raw, ok := m["expires_at"]; ok {
		exp, err := parseExpiry(raw)
		if err != nil {
			return domain.RPZRule{}, err
		}
		rule.ExpiresAt = &exp
	}
	return rule, nil
}

// parseExpiry accepts an RFC 3339 string or a native timestamp (TOML).
func parseExpiry(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		exp, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("expires_at: %w", err)
		}
		return exp, nil
	default:
		return time.Time{}, fmt.Errorf("expires_at must be an RFC 3339 timestamp, got %T", v)
	}
}
