package toastlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, LevelInfo, cfg.Level)
	assert.Equal(t, "txt", cfg.Format)
	assert.Equal(t, "stderr", cfg.ConsoleTarget)
	assert.True(t, cfg.EnableConsole)
	assert.False(t, cfg.EnableFile)
	assert.NoError(t, cfg.Validate())

	// Copies are independent
	cfg.Name = "changed"
	assert.Equal(t, "roomshell", DefaultConfig().Name)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad level", func(c *Config) { c.Level = 3 }},
		{"empty name", func(c *Config) { c.Name = " " }},
		{"bad format", func(c *Config) { c.Format = "xml" }},
		{"dotted extension", func(c *Config) { c.Extension = ".log" }},
		{"empty timestamp format", func(c *Config) { c.TimestampFormat = "" }},
		{"bad console target", func(c *Config) { c.ConsoleTarget = "tty" }},
		{"zero buffer", func(c *Config) { c.BufferSize = 0 }},
		{"zero flush interval", func(c *Config) { c.FlushIntervalMs = 0 }},
		{"trace depth too large", func(c *Config) { c.TraceDepth = 11 }},
		{"file without directory", func(c *Config) { c.EnableFile = true; c.Directory = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewConfigFromDefaults(t *testing.T) {
	cfg, err := NewConfigFromDefaults(map[string]any{
		"level":       LevelError,
		"format":      "json",
		"buffer_size": 64,
	})
	require.NoError(t, err)
	assert.Equal(t, LevelError, cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, int64(64), cfg.BufferSize)

	_, err = NewConfigFromDefaults(map[string]any{"unknown": 1})
	assert.Error(t, err)

	_, err = NewConfigFromDefaults(map[string]any{"format": 1})
	assert.Error(t, err)
}

func TestNewConfigFromFile(t *testing.T) {
	t.Run("missing file uses defaults", func(t *testing.T) {
		cfg, err := NewConfigFromFile(filepath.Join(t.TempDir(), "absent.toml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("values from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.toml")
		content := "[log]\nlevel = 8\nformat = \"json\"\nenable_console = false\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg, err := NewConfigFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, LevelError, cfg.Level)
		assert.Equal(t, "json", cfg.Format)
		assert.False(t, cfg.EnableConsole)
	})
}

func TestApplyConfigString(t *testing.T) {
	tests := []struct {
		name      string
		overrides []string
		verify    func(t *testing.T, cfg *Config)
		wantError bool
	}{
		{
			name:      "named level and format",
			overrides: []string{"level=debug", "format=json"},
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, LevelDebug, cfg.Level)
				assert.Equal(t, "json", cfg.Format)
			},
		},
		{
			name:      "numeric level",
			overrides: []string{"level=4"},
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, LevelWarn, cfg.Level)
			},
		},
		{
			name:      "booleans",
			overrides: []string{"show_timestamp=false", "internal_errors_to_stderr=true"},
			verify: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.ShowTimestamp)
				assert.True(t, cfg.InternalErrorsToStderr)
			},
		},
		{name: "missing equals", overrides: []string{"invalid"}, wantError: true},
		{name: "unknown key", overrides: []string{"unknown_key=value"}, wantError: true},
		{name: "bad integer", overrides: []string{"buffer_size=lots"}, wantError: true},
		{name: "fails validation", overrides: []string{"format=xml"}, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger()
			require.NoError(t, logger.ApplyConfig(DefaultConfig()))

			err := logger.ApplyConfigString(tt.overrides...)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.verify(t, logger.GetConfig())
		})
	}
}

func TestCombineConfigErrors(t *testing.T) {
	logger := NewLogger()
	err := logger.ApplyConfigString("nope", "buffer_size=x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple configuration errors")
	assert.Contains(t, err.Error(), "1. ")
	assert.Contains(t, err.Error(), "2. ")
}

func TestLevelParsing(t *testing.T) {
	for name, want := range map[string]int64{
		"debug": LevelDebug, "INFO": LevelInfo, " warn ": LevelWarn, "warning": LevelWarn, "error": LevelError,
	} {
		got, err := Level(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := Level("fatal")
	assert.Error(t, err)
}

func TestBuilderInvalidLevel(t *testing.T) {
	_, err := NewBuilder().LevelString("loud").Build()
	assert.Error(t, err)

	_, err = NewBuilder().Format("yaml").Build()
	assert.Error(t, err)
}
