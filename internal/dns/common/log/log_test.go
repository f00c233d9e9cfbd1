package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

type entry struct {
	level  string
	fields map[string]any
	msg    string
}

type testLogger struct {
	entries []entry
}

func (l *testLogger) add(level string, f map[string]any, msg string) {
	l.entries = append(l.entries, entry{level: level, fields: f, msg: msg})
}

func (l *testLogger) Info(f map[string]any, msg string)  { l.add("INFO", f, msg) }
func (l *testLogger) Error(f map[string]any, msg string) { l.add("ERROR", f, msg) }
func (l *testLogger) Debug(f map[string]any, msg string) { l.add("DEBUG", f, msg) }
func (l *testLogger) Warn(f map[string]any, msg string)  { l.add("WARN", f, msg) }
func (l *testLogger) Fatal(f map[string]any, msg string) { l.add("FATAL", f, msg) }

func withTestLogger(t *testing.T) *testLogger {
	t.Helper()
	orig := GetLogger()
	t.Cleanup(func() { SetLogger(orig) })
	tlog := &testLogger{}
	SetLogger(tlog)
	return tlog
}

func TestActualZapLogger(t *testing.T) {
	l := newZapLogger(true, zapcore.DebugLevel)
	l.Debug(map[string]any{"key1": "value1", "key2": 42}, "test debug")
	l.Info(nil, "test info")
	l.Warn(nil, "test warn")
	l.Error(nil, "test error")
}

func TestGlobalLogging(t *testing.T) {
	tlog := withTestLogger(t)

	Info(nil, "info msg")
	Error(nil, "error msg")
	Debug(nil, "debug msg")
	Warn(nil, "warn msg")

	require.Len(t, tlog.entries, 4)
	got := make([]string, 0, 4)
	for _, e := range tlog.entries {
		got = append(got, e.level+":"+e.msg)
	}
	assert.Equal(t, []string{"INFO:info msg", "ERROR:error msg", "DEBUG:debug msg", "WARN:warn msg"}, got)
}

func TestWithComponent(t *testing.T) {
	tlog := &testLogger{}
	l := WithComponent(tlog, "engine")

	orig := map[string]any{"zone": "example.com"}
	l.Warn(orig, "record_rejected")

	require.Len(t, tlog.entries, 1)
	assert.Equal(t, "engine", tlog.entries[0].fields["component"])
	assert.Equal(t, "example.com", tlog.entries[0].fields["zone"])
	assert.NotContains(t, orig, "component", "caller map must not be mutated")
}

func TestWithComponent_NilUsesGlobal(t *testing.T) {
	tlog := withTestLogger(t)

	WithComponent(nil, "rpz").Info(nil, "hello")

	require.Len(t, tlog.entries, 1)
	assert.Equal(t, "rpz", tlog.entries[0].fields["component"])
}

func TestConfigure(t *testing.T) {
	withTestLogger(t)

	assert.NoError(t, Configure("dev", "debug"))
	assert.NoError(t, Configure("prod", "INFO"))
	assert.Error(t, Configure("dev", "notalevel"))
	assert.Error(t, Configure("staging", "info"))
}

func TestNoopLogger(t *testing.T) {
	l := NewNoopLogger()
	l.Debug(nil, "debug message")
	l.Info(nil, "info message")
	l.Warn(nil, "warn message")
	l.Error(nil, "error message")
	l.Fatal(nil, "fatal message")
}
