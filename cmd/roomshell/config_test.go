package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/toastlog"
	"github.com/lixenwraith/toastlog/notify"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, toastlog.LevelInfo, cfg.Log.Level)
	assert.Equal(t, notify.DefaultOptions(), cfg.Toast)
	assert.True(t, cfg.Server.EnableHTTP)
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roomshell.toml")
	content := `
[log]
level = 8
format = "json"

[toast]
autoclose_ms = 5000
position = "bottom-left"
limit = 3

[server]
http_addr = "127.0.0.1:18080"
enable_stream = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, toastlog.LevelError, cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, int64(5000), cfg.Toast.AutoCloseMs)
	assert.Equal(t, notify.BottomLeft, cfg.Toast.Position)
	assert.Equal(t, int64(3), cfg.Toast.Limit)
	assert.Equal(t, notify.ThemeAuto, cfg.Toast.Theme)
	assert.Equal(t, "127.0.0.1:18080", cfg.Server.HTTPAddr)
	assert.False(t, cfg.Server.EnableStream)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, err := loadConfig(path,
		"log.level=debug",
		"toast.theme=dark",
		"server.enable_http=false",
		"server.sse_keepalive_ms=500",
	)
	require.NoError(t, err)
	assert.Equal(t, toastlog.LevelDebug, cfg.Log.Level)
	assert.Equal(t, notify.ThemeDark, cfg.Toast.Theme)
	assert.False(t, cfg.Server.EnableHTTP)
	assert.Equal(t, int64(500), cfg.Server.SSEKeepaliveMs)

	tests := []string{
		"nosection",
		"bogus.key=1",
		"log.level=loud",
		"toast.position=middle",
		"server.enable_http=maybe",
		"server.unknown=1",
	}
	for _, o := range tests {
		t.Run(o, func(t *testing.T) {
			_, err := loadConfig(path, o)
			assert.Error(t, err)
		})
	}
}
