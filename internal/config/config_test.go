package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Empty(t, cfg.Token)
	assert.Equal(t, 3*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 10*time.Second, cfg.CommandTimeout)
	assert.Equal(t, 2*time.Second, cfg.PingTimeout)
	assert.Equal(t, 25*time.Second, cfg.KeepaliveInterval)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "http://127.0.0.1:7899", cfg.BaseURL())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `host: 192.168.1.50
port: 9000
token: abc123
command_timeout: 30s
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.50", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "abc123", cfg.Token)
	assert.Equal(t, 30*time.Second, cfg.CommandTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Unset keys keep their defaults.
	assert.Equal(t, 2*time.Second, cfg.PingTimeout)
	assert.Equal(t, "http://192.168.1.50:9000", cfg.BaseURL())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9000\n"), 0o644))

	t.Setenv("RIPTIDE_PORT", "7500")
	t.Setenv("RIPTIDE_LOG_LEVEL", "trace")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7500, cfg.Port)
	assert.Equal(t, "trace", cfg.Log.Level)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()

	write := func(name, data string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
		return p
	}

	_, err := Load(write("badport.yaml", "port: 99999\n"))
	assert.Error(t, err)

	_, err = Load(write("badhost.yaml", "host: \"\"\n"))
	assert.Error(t, err)

	_, err = Load(write("badyaml.yaml", "port: [unclosed\n"))
	assert.Error(t, err)
}
