package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8*time.Hour, cfg.TokenDuration())
	assert.NotEmpty(t, cfg.CORSOrigins)
	assert.NotEmpty(t, cfg.AIBaseURL)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":9000"
store_driver: fs
data_dir: /var/lib/quizmastro
token_ttl: 30m
cors_origins:
  - https://app.example.com
`), 0o644))

	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_DSN", "postgres://db/quizzes")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.StoreDriver, "env wins over file")
	assert.Equal(t, "postgres://db/quizzes", cfg.DBDSN)
	assert.Equal(t, 30*time.Minute, cfg.TokenDuration())
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORSOrigins)
}

func TestLoadMissingFileIsFine(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
}

func TestTokenDurationFallback(t *testing.T) {
	cfg := Config{TokenTTL: "not-a-duration"}
	assert.Equal(t, 8*time.Hour, cfg.TokenDuration())
}

func TestCORSOriginsFromEnv(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com ,")
	cfg := FromEnv()
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
}
