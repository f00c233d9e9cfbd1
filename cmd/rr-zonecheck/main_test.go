package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validZone = `zone_root: example.com
"@":
  SOA: "ns1.example.com. hostmaster.example.com. 2024010101 7200 3600 1209600 3600"
  NS: ns1.example.com.
  MX: "10 mail.example.com."
ns1:
  A: 192.0.2.1
mail:
  A: 192.0.2.20
www:
  A: 192.0.2.10
`

const conflictingZone = `zone_root: example.org
www:
  A: 192.0.2.10
  CNAME: web.example.org.
`

// testEnv points configuration at temporary paths and returns the directory.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ZC_ENV", "dev")
	t.Setenv("ZC_LOG_LEVEL", "error")
	t.Setenv("ZC_ZONE_DIR", filepath.Join(dir, "zones"))
	t.Setenv("ZC_RPZ_DB", filepath.Join(dir, "rpz.db"))
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestZoneCheck_ConfiguredDirectory(t *testing.T) {
	dir := testEnv(t)
	writeFile(t, filepath.Join(dir, "zones"), "example.com.yaml", validZone)

	out, err := execute(t, "zone", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "zone example.com: 6 accepted, 0 duplicate, 0 rejected")
	assert.Contains(t, out, "1 zones ok")
}

func TestZoneCheck_Rejection(t *testing.T) {
	dir := testEnv(t)
	zones := filepath.Join(dir, "other")
	writeFile(t, zones, "example.com.yaml", validZone)
	writeFile(t, zones, "example.org.yaml", conflictingZone)

	out, err := execute(t, "zone", "check", zones)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 zones have rejected records")
	assert.Contains(t, out, "zone example.org: 1 accepted, 0 duplicate, 1 rejected")
	assert.Contains(t, out, "rejected: record 1 (CNAME www)")
}

func TestZoneCheck_MissingDirectory(t *testing.T) {
	dir := testEnv(t)

	_, err := execute(t, "zone", "check", filepath.Join(dir, "nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load zone directory")
}

func TestZoneCheck_BadConfig(t *testing.T) {
	testEnv(t)
	t.Setenv("ZC_DEFAULT_TTL", "5")

	_, err := execute(t, "zone", "check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration error")
}

func TestSOACheck(t *testing.T) {
	testEnv(t)
	const soa = "ns1.example.com. hostmaster.example.com. 2024010102 7200 3600 1209600 3600"

	tests := []struct {
		name    string
		args    []string
		wantErr string
		wantOut string
	}{
		{name: "new zone", args: []string{"soa", "check", soa}, wantOut: "soa ok: ns1.example.com hostmaster.example.com 2024010102"},
		{name: "serial advances", args: []string{"soa", "check", "--previous", "2024010101", soa}, wantOut: "soa ok"},
		{name: "serial regression", args: []string{"soa", "check", "--previous", "2024010102", soa}, wantErr: "SOA rejected"},
		{name: "malformed", args: []string{"soa", "check", "ns1.example.com. 1 2 3"}, wantErr: "invalid SOA"},
		{name: "missing argument", args: []string{"soa", "check"}, wantErr: "accepts 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestRPZ_ImportAndLookup(t *testing.T) {
	dir := testEnv(t)
	list := writeFile(t, dir, "ads.txt", "# ads\nads.example\n*.tracker.example\nbad..name\n")

	out, err := execute(t, "rpz", "import", list, "--category", "ads")
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 rules from "+list+", rejected 1")
	assert.Contains(t, out, "rejected: line 4: bad..name")

	out, err = execute(t, "rpz", "lookup", "ads.example", "a.tracker.example", "tracker.example", "example.net")
	require.NoError(t, err)
	assert.Contains(t, out, "ads.example: block (rule ads.example, category ads, source "+list+")")
	assert.Contains(t, out, "a.tracker.example: block (rule *.tracker.example")
	assert.Contains(t, out, "tracker.example: no match")
	assert.Contains(t, out, "example.net: no match")
}

func TestRPZ_ImportStrict(t *testing.T) {
	dir := testEnv(t)
	list := writeFile(t, dir, "ads.txt", "ads.example\nbad..name\n")

	_, err := execute(t, "rpz", "import", list, "--category", "ads", "--strict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 rules rejected")
}

func TestRPZ_ImportHostsRedirect(t *testing.T) {
	dir := testEnv(t)
	hosts := writeFile(t, dir, "hosts", "0.0.0.0 ads.example\n192.0.2.53 portal.example\n")

	_, err := execute(t, "rpz", "import", hosts, "--format", "hosts", "--category", "malware", "--source", "hosts-feed")
	require.NoError(t, err)

	out, err := execute(t, "rpz", "lookup", "portal.example", "ads.example")
	require.NoError(t, err)
	assert.Contains(t, out, "portal.example: redirect (rule portal.example, category malware, source hosts-feed, target 192.0.2.53)")
	assert.Contains(t, out, "ads.example: block")
}

func TestRPZ_ImportRulesFileReplace(t *testing.T) {
	dir := testEnv(t)
	list := writeFile(t, dir, "ads.txt", "ads.example\ntrack.example\n")
	rules := writeFile(t, dir, "rules.yaml", `category: phishing
source: feed
rules:
  - domain: "*.phish.example"
    action: nxdomain
`)

	_, err := execute(t, "rpz", "import", list, "--category", "ads")
	require.NoError(t, err)

	out, err := execute(t, "rpz", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "rules: 2 (2 exact, 0 wildcard)")
	assert.Contains(t, out, "version: 0")

	_, err = execute(t, "rpz", "import", rules, "--format", "rules", "--replace")
	require.NoError(t, err)

	out, err = execute(t, "rpz", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "rules: 1 (0 exact, 1 wildcard)")
	assert.Contains(t, out, "version: 1")

	out, err = execute(t, "rpz", "lookup", "ads.example", "login.phish.example")
	require.NoError(t, err)
	assert.Contains(t, out, "ads.example: no match")
	assert.Contains(t, out, "login.phish.example: nxdomain (rule *.phish.example, category phishing, source feed)")
}

func TestRPZ_ImportErrors(t *testing.T) {
	dir := testEnv(t)
	list := writeFile(t, dir, "ads.txt", "ads.example\n")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown format", []string{"rpz", "import", list, "--format", "csv"}, "unknown rule file format"},
		{"missing file", []string{"rpz", "import", filepath.Join(dir, "none.txt"), "--category", "ads"}, "failed to open rule file"},
		{"plain without category", []string{"rpz", "import", list}, "--category is required for plain files"},
		{"hosts without category", []string{"rpz", "import", list, "--format", "hosts"}, "--category is required for hosts files"},
		{"bad expiry", []string{"rpz", "import", list, "--expires", "tomorrow"}, "invalid --expires"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRPZ_ImportWithoutCategoryStoresNothing(t *testing.T) {
	dir := testEnv(t)
	list := writeFile(t, dir, "ads.txt", "ads.example\ntrack.example\n")

	_, err := execute(t, "rpz", "import", list)
	require.Error(t, err)

	out, err := execute(t, "rpz", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "rules: 0 (0 exact, 0 wildcard)")
}

func TestMetricsFileWritten(t *testing.T) {
	dir := testEnv(t)
	metricsFile := filepath.Join(dir, "zonecheck.prom")
	t.Setenv("ZC_METRICS_FILE", metricsFile)

	_, err := execute(t, "soa", "check", "--previous", "2024010102", "ns1.example.com. hostmaster.example.com. 2024010101 7200 3600 1209600 3600")
	require.Error(t, err)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "zonecheck_validations_total")
	assert.Contains(t, string(data), `zonecheck_validation_errors_total{class="serial_regression"} 1`)
}
