package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000/api", cfg.Server.BaseURL)
	assert.Equal(t, 30, cfg.Server.TimeoutSec)
	assert.Equal(t, 30, cfg.Sync.PollIntervalSec)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NotEmpty(t, cfg.Storage.DBPath)
}

func TestLoadConfigOverridesAndFillsGaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  base_url: https://tasks.example.com/api
sync:
  poll_interval_sec: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://tasks.example.com/api", cfg.Server.BaseURL)
	assert.Equal(t, 10, cfg.Sync.PollIntervalSec)
	assert.Equal(t, 30, cfg.Server.TimeoutSec)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigRejectsNonPositiveIntervals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
sync:
  poll_interval_sec: -5
server:
  timeout_sec: 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Sync.PollIntervalSec)
	assert.Equal(t, 30, cfg.Server.TimeoutSec)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	in := defaultAppConfig()
	in.Server.BaseURL = "https://tasks.example.com/api"
	in.Sync.PollIntervalSec = 15
	require.NoError(t, SaveConfig(path, in))

	out, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, in.Server.BaseURL, out.Server.BaseURL)
	assert.Equal(t, in.Sync.PollIntervalSec, out.Sync.PollIntervalSec)
}
