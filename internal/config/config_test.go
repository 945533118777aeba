package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.Site)
	assert.Equal(t, "layers.yaml", cfg.Layers.Manifest)
	assert.Equal(t, 50.0, cfg.Viewport.Padding)
	assert.Equal(t, 15.0, cfg.Interact.NoteRadius)
	assert.Equal(t, 30.0, cfg.Interact.LabelRadius)
	assert.Equal(t, 5.0, cfg.Interact.DragThreshold)
	assert.Equal(t, 50, cfg.Interact.HistoryCap)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
site: ridgeline
viewport:
  width: 1920
  height: 1080
store:
  driver: postgres
  database_url: postgres://localhost/sitetrack
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ridgeline", cfg.Site)
	assert.Equal(t, 1920.0, cfg.Viewport.Width)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, 50.0, cfg.Viewport.Padding)
}

func TestLoad_EnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SITETRACK_SITE", "west-field")
	t.Setenv("SITETRACK_SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "west-field", cfg.Site)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("site: [unclosed"), 0o644))
	chdir(t, dir)

	_, err := Load()
	require.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
