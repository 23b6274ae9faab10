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

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, "./uploads", cfg.Uploads.Dir)
	assert.False(t, cfg.Spaces.Enabled)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SERVER_ADDRESS", ":9090")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("DATABASE_DRIVER", "sqlite3")
	t.Setenv("DATABASE_URL", "file:buddy.db")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")
	t.Setenv("VIMEO_ACCESS_TOKEN", "tok")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 3*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "file:buddy.db", cfg.Database.URL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, "tok", cfg.Vimeo.AccessToken)
}

func TestLoadConfigFileAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
log_level: debug
uploads:
  dir: /srv/uploads
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PUBLIC_BASE_URL=https://buddy.example\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("PUBLIC_BASE_URL") })

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/srv/uploads", cfg.Uploads.Dir)
	assert.Equal(t, "https://buddy.example", cfg.Server.PublicBaseURL)
}

func TestValidate(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mysql")
	_, err := Load(t.TempDir())
	assert.Error(t, err)

	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("USE_SPACES", "true")
	_, err = Load(t.TempDir())
	assert.Error(t, err)

	t.Setenv("SPACES_ENDPOINT", "https://nyc3.digitaloceanspaces.com")
	t.Setenv("SPACES_BUCKET", "buddy")
	t.Setenv("SPACES_CDN_URL", "https://buddy.nyc3.cdn.digitaloceanspaces.com")
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.True(t, cfg.Spaces.Enabled)
}
