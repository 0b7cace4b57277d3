package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"superforecaster/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SUPERFORECASTER_CONFIG", "")
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 2*time.Second, cfg.Storage.Redis.DialTimeout)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: redis
  keyPrefix: team-a
  redis:
    addr: cache:6379
    db: 2
    dialTimeout: 500ms
logging:
  level: debug
  json: true
output:
  format: json
locale:
  timezone: America/Los_Angeles
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "team-a", cfg.Storage.KeyPrefix)
	assert.Equal(t, "cache:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 2, cfg.Storage.Redis.DB)
	assert.Equal(t, 500*time.Millisecond, cfg.Storage.Redis.DialTimeout)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, "json", cfg.Output.Format)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Los_Angeles", loc.String())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "storage:\n  driver: file\n  path: /tmp/a\n")
	t.Setenv("SUPERFORECASTER_STORAGE_DRIVER", "memory")
	t.Setenv("SUPERFORECASTER_LOG_FORMAT", "json")
	t.Setenv("SUPERFORECASTER_REDIS_DB", "not-a-number")
	t.Setenv("SUPERFORECASTER_TIMEZONE", "UTC")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, 0, cfg.Storage.Redis.DB)
	assert.Equal(t, "UTC", cfg.Locale.Timezone)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"UnknownDriver":   "storage:\n  driver: mongo\n",
		"UnknownFormat":   "output:\n  format: pdf\n",
		"XLSXWithoutPath": "output:\n  format: xlsx\n",
		"FileWithoutPath": "storage:\n  driver: file\n  path: \"\"\n",
		"BadLevel":        "logging:\n  level: loud\n",
		"BadTimezone":     "locale:\n  timezone: Mars/Olympus\n",
		"BadYAML":         "storage: [unterminated\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "not found")
}
