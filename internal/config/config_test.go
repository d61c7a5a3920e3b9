package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "./data/marquee.db", cfg.Database.Path)
	assert.Equal(t, "hd", cfg.Library.QualityPreset)
	assert.Equal(t, "skipped", cfg.Library.Status)
	assert.Equal(t, "wanted", cfg.Library.StatusAfter)
	assert.True(t, cfg.Library.SeasonFolders)
	assert.Equal(t, 1, cfg.Queue.Workers)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9000
library:
  quality_preset: hd1080p
  anime: true
  root_dirs:
    - /mnt/shows
    - /mnt/anime
queue:
  workers: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("MARQUEE_SERVER_PORT", "9100")
	t.Setenv("MARQUEE_QUEUE_RETENTION", "2h")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "hd1080p", cfg.Library.QualityPreset)
	assert.True(t, cfg.Library.Anime)
	assert.Equal(t, []string{"/mnt/shows", "/mnt/anime"}, cfg.Library.RootDirs)
	assert.Equal(t, 3, cfg.Queue.Workers)
	assert.Equal(t, 2*time.Hour, cfg.Queue.Retention)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MARQUEE_LOGGING_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("MARQUEE_LOGGING_LEVEL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Queue.Workers = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())
}

func TestServerConfig_Address(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8081}
	assert.Equal(t, "127.0.0.1:8081", s.Address())
}
