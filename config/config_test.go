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
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Storage.Driver)
	assert.Equal(t, "generated_posts.json", cfg.Storage.PostsFile)
	assert.Equal(t, "https://graph.facebook.com/v23.0", cfg.Graph.Endpoint())
	assert.Equal(t, 95, cfg.Watermark.Quality)
	assert.Equal(t, 2*time.Minute, cfg.Redis.LockTTL)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("graph:\n  api_version: v19.0\nstorage:\n  driver: sqlite\n  dsn: file.db\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644))

	t.Setenv("FB_PAGE_ID", "1234567890")
	t.Setenv("STORAGE_RETENTION", "720h")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "v19.0", cfg.Graph.APIVersion)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "1234567890", cfg.Graph.DefaultPageID)
	assert.Equal(t, 720*time.Hour, cfg.Storage.Retention)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidateWarnings(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Len(t, cfg.Validate(), 2)

	cfg.Graph.DefaultPageID = "1"
	cfg.Security.JWTSecret = "s"
	cfg.Storage.PagesFile = "pages.json"
	warnings := cfg.Validate()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "token_key")
}
