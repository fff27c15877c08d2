package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "APP_ENV", "LOG_LEVEL", "STORE_DRIVER", "DATABASE_URL", "MONGODB_URI",
	"MONGODB_DATABASE", "REDIS_URL", "CACHE_TTL", "APP_TIMEZONE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func writeEnvFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromDotEnv(t *testing.T) {
	clearEnv(t)
	path := writeEnvFile(t, `
# local settings
PORT=9090
DATABASE_URL="postgres://localhost/bizledger"
export APP_TIMEZONE=Asia/Karachi
CACHE_TTL=30s
`)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "postgres://localhost/bizledger", cfg.DatabaseURL)
	assert.Equal(t, "Asia/Karachi", cfg.Location.String())
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.False(t, cfg.Production())
}

func TestEnvironmentOverridesDotEnv(t *testing.T) {
	clearEnv(t)
	path := writeEnvFile(t, "PORT=9090\nDATABASE_URL=postgres://file\n")
	t.Setenv("PORT", "7000")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "postgres://file", cfg.DatabaseURL)
}

func TestMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "bizledger", cfg.MongoDatabase)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"postgres without url": {},
		"mongo without uri":    {"STORE_DRIVER": "mongo"},
		"unknown driver":       {"STORE_DRIVER": "sqlite"},
		"bad port":             {"STORE_DRIVER": "memory", "PORT": "-1"},
		"bad ttl":              {"STORE_DRIVER": "memory", "CACHE_TTL": "soon"},
		"bad timezone":         {"STORE_DRIVER": "memory", "APP_TIMEZONE": "Mars/Olympus"},
		"bad env":              {"STORE_DRIVER": "memory", "APP_ENV": "staging"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for key, value := range env {
				t.Setenv(key, value)
			}
			_, err := LoadFrom(filepath.Join(t.TempDir(), ".env"))
			assert.Error(t, err)
		})
	}
}
