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
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "missing.json"))
	t.Setenv("MEDIA_LIBRARY_PATH", filepath.Join(dir, "media"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:44556", cfg.ServerAddress)
	assert.Equal(t, 5*time.Minute, cfg.Staleness())
	assert.Equal(t, 8*time.Second, cfg.ResolveTimeout())
	assert.Equal(t, 200, cfg.Thumbnail.Width)
	assert.Equal(t, 80, cfg.Thumbnail.JPEGQuality)

	// The media directory must exist after a successful load.
	info, err := os.Stat(cfg.Library.Path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")
	content := `{
		"serverAddress": "127.0.0.1:9999",
		"library": {"path": "` + filepath.ToSlash(filepath.Join(dir, "photos")) + `", "stalenessMinutes": 10},
		"thumbnail": {"width": 300, "height": 300, "jpegQuality": 90, "timeoutSeconds": 4}
	}`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
	t.Setenv("CONFIG_PATH", configPath)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9999", cfg.ServerAddress)
	assert.Equal(t, 10*time.Minute, cfg.Staleness())
	assert.Equal(t, 4*time.Second, cfg.ResolveTimeout())
	assert.Equal(t, 300, cfg.Thumbnail.Width)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"serverAddress": "127.0.0.1:9999"}`), 0o644))

	t.Setenv("CONFIG_PATH", configPath)
	t.Setenv("SERVER_ADDRESS", "127.0.0.1:8888")
	t.Setenv("MEDIA_LIBRARY_PATH", filepath.Join(dir, "media"))
	t.Setenv("THUMBNAIL_TIMEOUT_SECONDS", "3")
	t.Setenv("LIBRARY_STALENESS_MINUTES", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8888", cfg.ServerAddress)
	assert.Equal(t, 3*time.Second, cfg.ResolveTimeout())
	assert.Equal(t, 2*time.Minute, cfg.Staleness())
}

func TestInvalidEnvValuesIgnored(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "missing.json"))
	t.Setenv("MEDIA_LIBRARY_PATH", filepath.Join(dir, "media"))
	t.Setenv("THUMBNAIL_TIMEOUT_SECONDS", "not-a-number")
	t.Setenv("THUMBNAIL_JPEG_QUALITY", "500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8*time.Second, cfg.ResolveTimeout())
	assert.Equal(t, 80, cfg.Thumbnail.JPEGQuality)
}
