package compat

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/toastlog"
)

// createTestLogger creates a debug-level json logger writing to a temp file
func createTestLogger(t *testing.T) (*toastlog.Logger, string) {
	t.Helper()
	tmpDir := t.TempDir()
	logger, err := toastlog.NewBuilder().
		Directory(tmpDir).
		Name("compat").
		Format("json").
		LevelString("debug").
		EnableFile(true).
		EnableConsole(false).
		Build()
	require.NoError(t, err)
	require.NoError(t, logger.Start())
	t.Cleanup(func() { _ = logger.Shutdown() })
	return logger, filepath.Join(tmpDir, "compat.log")
}

type logEntry struct {
	Level  string `json:"level"`
	Fields []any  `json:"fields"`
}

func readEntries(t *testing.T, logger *toastlog.Logger, path string) []logEntry {
	t.Helper()
	require.NoError(t, logger.Flush(time.Second))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var e logEntry
		require.NoError(t, json.Unmarshal([]byte(line), &e), line)
		entries = append(entries, e)
	}
	return entries
}

func TestGnetAdapter(t *testing.T) {
	logger, path := createTestLogger(t)

	var fatalMsg string
	adapter := NewGnetAdapter(logger, WithFatalHandler(func(msg string) { fatalMsg = msg }))

	adapter.Debugf("gnet debug id=%d", 1)
	adapter.Infof("gnet info id=%d", 2)
	adapter.Warnf("gnet warn id=%d", 3)
	adapter.Errorf("gnet error id=%d", 4)
	adapter.Fatalf("gnet fatal id=%d", 5)

	entries := readEntries(t, logger, path)
	require.Len(t, entries, 5)

	expected := []struct{ level, msg string }{
		{"DEBUG", "gnet debug id=1"},
		{"INFO", "gnet info id=2"},
		{"WARN", "gnet warn id=3"},
		{"ERROR", "gnet error id=4"},
		{"ERROR", "gnet fatal id=5"},
	}
	for i, e := range entries {
		assert.Equal(t, expected[i].level, e.Level)
		assert.Equal(t, "gnet:", e.Fields[0])
		assert.Equal(t, expected[i].msg, e.Fields[1])
	}
	assert.Equal(t, "fatal", entries[4].Fields[2])
	assert.Equal(t, "gnet fatal id=5", fatalMsg)
}

func TestGnetAdapterPrefix(t *testing.T) {
	logger, path := createTestLogger(t)
	adapter := NewGnetAdapter(logger, WithGnetPrefix("stream:"))

	adapter.Errorf("accept failed")

	entries := readEntries(t, logger, path)
	require.Len(t, entries, 1)
	assert.Equal(t, []any{"stream:", "accept failed"}, entries[0].Fields)
}

func TestFastHTTPAdapter(t *testing.T) {
	logger, path := createTestLogger(t)
	adapter := NewFastHTTPAdapter(logger)

	messages := []string{
		"this is some informational message",
		"a debug message for the developers",
		"warning: something might be wrong",
		"an error occurred while processing",
	}
	for _, msg := range messages {
		adapter.Printf("%s", msg)
	}

	entries := readEntries(t, logger, path)
	require.Len(t, entries, 4)

	levels := []string{"INFO", "DEBUG", "WARN", "ERROR"}
	for i, e := range entries {
		assert.Equal(t, levels[i], e.Level)
		assert.Equal(t, []any{"fasthttp:", messages[i]}, e.Fields)
	}
}

func TestFastHTTPAdapterOptions(t *testing.T) {
	logger, path := createTestLogger(t)
	adapter := NewFastHTTPAdapter(logger,
		WithDefaultLevel(toastlog.LevelWarn),
		WithLevelDetector(func(msg string) int64 {
			if strings.Contains(msg, "connection cannot be served") {
				return toastlog.LevelError
			}
			return LevelUnknown
		}),
	)

	adapter.Printf("plain")
	adapter.Printf("connection cannot be served: %s", "too many")

	entries := readEntries(t, logger, path)
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0].Level)
	assert.Equal(t, "ERROR", entries[1].Level)
}

func TestDetectLogLevel(t *testing.T) {
	assert.Equal(t, toastlog.LevelError, DetectLogLevel("Failed to read"))
	assert.Equal(t, toastlog.LevelWarn, DetectLogLevel("deprecated option"))
	assert.Equal(t, toastlog.LevelDebug, DetectLogLevel("trace id"))
	assert.Equal(t, LevelUnknown, DetectLogLevel("hello"))
}
