package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/course-extract-go/internal/domain"
)

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9100
site:
  request_timeout: 30s
download:
  base_dir: ` + dir + `/data
  workers: 3
queue:
  database_path: ` + dir + `/runs.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("SITE_USER", "student@example.com")
	t.Setenv("SITE_PASSWORD", "hunter2")
	t.Setenv("COURSEX_DOWNLOAD_RESOLVE_WORKERS", "6")

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, config.Server.Port)
	assert.Equal(t, 30*time.Second, config.Site.RequestTimeout)
	assert.Equal(t, filepath.Join(dir, "data"), config.Download.BaseDir)
	assert.Equal(t, 3, config.Download.Workers)
	assert.Equal(t, 6, config.Download.ResolveWorkers)
	assert.Equal(t, "student@example.com", config.Site.Username)
	assert.Equal(t, "hunter2", config.Site.Password)
	assert.Equal(t, "146684", config.Site.SchoolID)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("download:\n  workers: 0\n"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfig_OmitsCredentials(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	config := domain.DefaultConfig()
	config.Download.BaseDir = filepath.Join(dir, "data")
	config.Download.Workers = 2
	config.Site.Username = "student@example.com"
	config.Site.Password = "hunter2"
	require.NoError(t, SaveConfig(config, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2")
	assert.NotContains(t, string(data), "student@example.com")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Download.Workers)
	assert.Equal(t, config.Download.BaseDir, loaded.Download.BaseDir)
	assert.Equal(t, config.Site.RequestTimeout, loaded.Site.RequestTimeout)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x"), expandPath("~/x"))
	assert.Equal(t, home+"/y", expandPath("$HOME/y"))
	assert.Equal(t, "/abs", expandPath("/abs"))
}
