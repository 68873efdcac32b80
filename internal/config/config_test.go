package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFillsDefaults(t *testing.T) {
	path := writeConfig(t, "panel_width = 40\nbackground = \"#101010\"\nwatch = false\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.PanelWidth)
	assert.Equal(t, "#101010", cfg.Background)
	assert.Equal(t, "none", cfg.Filter)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Watching())
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load(writeConfig(t, "filter = \"blur\"\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "panel_width = \"wide\"\n"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Watching())
}

func TestLogPath(t *testing.T) {
	cfg := Default()
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "layerview.log")

	path, err := cfg.LogPath()
	require.NoError(t, err)
	assert.Equal(t, cfg.LogFile, path)
	assert.DirExists(t, filepath.Dir(path))
}
