// Package zone loads zone files (YAML, JSON or TOML) into candidate records.
//
// A zone file names its apex under zone_root and maps owner names to record
// types. Each type holds a value, a list of values, or record objects:
//
//	zone_root: example.com
//	default_ttl: 3600
//	"@":
//	  NS: [ns1.example.com., ns2.example.com.]
//	  MX: "10 mail.example.com."
//	www:
//	  A: 192.0.2.10
//	_sip._tcp:
//	  SRV: {value: sip.example.com., priority: 10, weight: 5, port: 5060, ttl: 300}
//
// Owner names are returned as written. Qualification against the apex and all
// validation happen in the engine, so a file with bad records still loads.
// TOML files must quote owner names containing dots.
package zone

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"

	"github.com/haukened/rr-zonecheck/internal/dns/common/rrdata"
	"github.com/haukened/rr-zonecheck/internal/dns/common/utils"
	"github.com/haukened/rr-zonecheck/internal/dns/domain"
)

const (
	keyZoneRoot   = "zone_root"
	keyDefaultTTL = "default_ttl"

	// Owner names contain dots, so keys are split on a character names never carry.
	keyDelim = "/"
)

// File is the content of one zone: its settings and candidate records in a
// stable order (owner name, then type, then file order).
type File struct {
	Zone    domain.Zone
	Records []domain.ResourceRecord
}

// LoadZoneDirectory walks dir and loads every supported zone file. Files sharing
// a zone_root are merged in path order. Zones are returned sorted by apex.
// Any unreadable or malformed file fails the whole load.
func LoadZoneDirectory(dir string) ([]File, error) {
	zones := make(map[string]*File)

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		f, ok, err := LoadZoneFile(path)
		if err != nil {
			return fmt.Errorf("error parsing zone file %s: %w", path, err)
		}
		if !ok {
			return nil
		}

		existing, found := zones[f.Zone.Name]
		if !found {
			zones[f.Zone.Name] = &f
			return nil
		}
		if existing.Zone.DefaultTTL == 0 {
			existing.Zone.DefaultTTL = f.Zone.DefaultTTL
		}
		existing.Records = append(existing.Records, f.Records...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]File, 0, len(zones))
	for _, f := range zones {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Zone.Name < out[j].Zone.Name })
	return out, nil
}

// LoadZoneFile parses a single zone file. ok is false for extensions that are
// not zone files.
func LoadZoneFile(path string) (f File, ok bool, err error) {
	parser := parserFor(path)
	if parser == nil {
		return File{}, false, nil
	}

	k := koanf.New(keyDelim)
	if err := k.Load(file.Provider(path), parser); err != nil {
		return File{}, false, fmt.Errorf("failed to load zone file %s: %w", path, err)
	}

	root := utils.CanonicalDNSName(k.String(keyZoneRoot))
	if root == "" {
		return File{}, false, fmt.Errorf("zone file %s missing '%s'", path, keyZoneRoot)
	}

	ttl, err := defaultTTL(k)
	if err != nil {
		return File{}, false, fmt.Errorf("zone file %s: %w", path, err)
	}

	records, err := buildZoneRecords(k.Raw())
	if err != nil {
		return File{}, false, fmt.Errorf("invalid record in %s: %w", path, err)
	}

	return File{
		Zone:    domain.Zone{Name: root, DefaultTTL: ttl},
		Records: records,
	}, true, nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	case ".toml":
		return toml.Parser()
	default:
		return nil
	}
}

func defaultTTL(k *koanf.Koanf) (uint32, error) {
	if !k.Exists(keyDefaultTTL) {
		return 0, nil
	}
	ttl, ok := toInt(k.Get(keyDefaultTTL))
	if !ok {
		return 0, fmt.Errorf("%s must be an integer", keyDefaultTTL)
	}
	if ttl < rrdata.MinTTL || ttl > rrdata.MaxTTL {
		return 0, fmt.Errorf("%s %d out of range [%d, %d]", keyDefaultTTL, ttl, rrdata.MinTTL, rrdata.MaxTTL)
	}
	return uint32(ttl), nil
}

// buildZoneRecords walks the owner → type → value tree in sorted order so the
// same file always yields the same sequence.
func buildZoneRecords(raw map[string]any) ([]domain.ResourceRecord, error) {
	names := make([]string, 0, len(raw))
	for name := range raw {
		if name == keyZoneRoot || name == keyDefaultTTL {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var records []domain.ResourceRecord
	for _, name := range names {
		byType, ok := raw[name].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("owner %q must map record types to values", name)
		}

		types := make([]domain.RRType, 0, len(byType))
		keys := make(map[domain.RRType]string, len(byType))
		for key := range byType {
			t := domain.RRTypeFromString(key)
			if !t.IsValid() {
				return nil, fmt.Errorf("owner %q: unsupported record type %q", name, key)
			}
			if _, dup := keys[t]; dup {
				return nil, fmt.Errorf("owner %q: record type %s listed twice", name, t)
			}
			keys[t] = key
			types = append(types, t)
		}
		sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

		for _, t := range types {
			recs, err := buildRecords(name, t, byType[keys[t]])
			if err != nil {
				return nil, err
			}
			records = append(records, recs...)
		}
	}
	return records, nil
}

// buildRecords expands one type entry, which may be a single value or a list.
// Empty strings are skipped.
func buildRecords(name string, t domain.RRType, raw any) ([]domain.ResourceRecord, error) {
	items, ok := raw.([]any)
	if !ok {
		items = []any{raw}
	}

	out := make([]domain.ResourceRecord, 0, len(items))
	for i, item := range items {
		rr, ok, err := buildRecord(name, t, item)
		if err != nil {
			return nil, fmt.Errorf("%s %s[%d]: %w", name, t, i, err)
		}
		if ok {
			out = append(out, rr)
		}
	}
	return out, nil
}

func buildRecord(name string, t domain.RRType, item any) (domain.ResourceRecord, bool, error) {
	rr := domain.ResourceRecord{Name: name, Type: t}
	switch v := item.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return rr, false, nil
		}
		applyShorthand(&rr, s)
		return rr, true, nil
	case map[string]any:
		if err := fillFromObject(&rr, v); err != nil {
			return rr, false, err
		}
		return rr, true, nil
	default:
		return rr, false, fmt.Errorf("unsupported value of type %T", item)
	}
}

// fillFromObject reads the record object form. Numeric fields left out of the
// object may still come from the value shorthand.
func fillFromObject(rr *domain.ResourceRecord, obj map[string]any) error {
	value, ok := obj["value"].(string)
	if !ok || strings.TrimSpace(value) == "" {
		return fmt.Errorf("record object needs a non-empty string 'value'")
	}
	value = strings.TrimSpace(value)

	if id, present := obj["id"]; present {
		s, ok := id.(string)
		if !ok {
			return fmt.Errorf("id must be a string")
		}
		rr.ID = s
	}

	fields := []struct {
		key string
		dst **int
	}{
		{"ttl", &rr.TTL},
		{"priority", &rr.Priority},
		{"weight", &rr.Weight},
		{"port", &rr.Port},
	}
	explicit := false
	for _, f := range fields {
		raw, present := obj[f.key]
		if !present {
			continue
		}
		n, ok := toInt(raw)
		if !ok {
			return fmt.Errorf("%s must be an integer", f.key)
		}
		*f.dst = &n
		if f.key != "ttl" {
			explicit = true
		}
	}

	if explicit {
		rr.Value = value
	} else {
		applyShorthand(rr, value)
	}
	return nil
}

// applyShorthand splits the numeric prefix of MX ("10 mail.example.com.") and
// SRV ("10 5 5060 sip.example.com.") values into their fields. Anything else
// is kept whole and left to validation.
func applyShorthand(rr *domain.ResourceRecord, s string) {
	rr.Value = s
	tokens := strings.Fields(s)

	var want int
	switch rr.Type {
	case domain.RRTypeMX:
		want = 2
	case domain.RRTypeSRV:
		want = 4
	default:
		return
	}
	if len(tokens) != want {
		return
	}

	nums := make([]*int, 0, want-1)
	for _, tok := range tokens[:want-1] {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return
		}
		nums = append(nums, &n)
	}

	rr.Priority = nums[0]
	if rr.Type == domain.RRTypeSRV {
		rr.Weight, rr.Port = nums[1], nums[2]
	}
	rr.Value = tokens[want-1]
}

// toInt accepts the integer shapes the three parsers produce: int (YAML),
// int64 (TOML) and whole float64 (JSON).
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case uint64:
		if n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case float64:
		if n != math.Trunc(n) || n < math.MinInt32 || n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
