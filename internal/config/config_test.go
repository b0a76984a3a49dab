package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
api:
  base_url: "https://api.example.test"
  request_timeout: 5s
  max_concurrency: 2

resources:
  fallbacks:
    profiles: "/2.3/networks/{id}/profiles"

sync:
  schedule: "*/10 * * * *"
  networks: ["123", " 456 ", ""]
  timezone: "Europe/Berlin"

server:
  port: 8080
  host: "0.0.0.0"

database:
  enabled: true
  host: "localhost"
  name: "testdb"
  user: "testuser"
  password: "testpass"

logging:
  level: "debug"
`)

	config, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, "https://api.example.test", config.API.BaseURL)
	assert.Equal(t, 5*time.Second, config.API.RequestTimeout)
	assert.Equal(t, 2, config.API.MaxConcurrency)
	assert.Equal(t, "/2.3/networks/{id}/profiles", config.Resources.Fallbacks["profiles"])
	assert.Equal(t, "*/10 * * * *", config.Sync.Schedule)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "localhost", config.Database.Host)
	assert.Equal(t, "debug", config.Logging.Level)

	// untouched keys keep their defaults
	assert.Equal(t, "/2.2/login/refresh", config.API.RefreshPath)
	assert.Equal(t, 5432, config.Database.Port)
	assert.Equal(t, "json", config.Logging.Format)
	assert.Equal(t, 24, config.Sync.TimelineHours)

	assert.Equal(t, map[string]struct{}{"123": {}, "456": {}}, config.Sync.NetworkFilter())
	loc, err := config.Sync.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoadDefaults(t *testing.T) {
	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api-user.e2ro.com", config.API.BaseURL)
	assert.Equal(t, "s", config.API.AuthCookie)
	assert.Equal(t, 20*time.Second, config.API.RequestTimeout)
	assert.Equal(t, "*/5 * * * *", config.Sync.Schedule)
	assert.Equal(t, 16, config.Cache.Size)
	assert.Equal(t, 15*time.Minute, config.Sync.StaleAfter)
	assert.False(t, config.Database.Enabled)
	assert.Nil(t, config.Sync.NetworkFilter())
}

func TestLoadWithEnvExpansion(t *testing.T) {
	t.Setenv("SNAP_DATABASE_HOST", "envhost")
	t.Setenv("SNAP_DATABASE_PORT", "5433")

	configPath := writeConfig(t, `
database:
  enabled: true
  host: $SNAP_DATABASE_HOST
  port: $SNAP_DATABASE_PORT
  name: "testdb"
`)

	config, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "envhost", config.Database.Host)
	assert.Equal(t, 5433, config.Database.Port)
}

func TestLoadWithPrefixedEnvOverride(t *testing.T) {
	t.Setenv("EEROSNAP_AUTH_TOKEN", "from-env")
	t.Setenv("EEROSNAP_LOGGING_LEVEL", "warn")

	configPath := writeConfig(t, `
logging:
  level: "debug"
`)

	config, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "from-env", config.Auth.Token)
	assert.Equal(t, "warn", config.Logging.Level)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "relative base url",
			content: "api:\n  base_url: \"/relative\"\n",
			wantErr: "api.base_url",
		},
		{
			name:    "unknown timezone",
			content: "sync:\n  timezone: \"Mars/Olympus\"\n",
			wantErr: "sync.timezone",
		},
		{
			name:    "database without host",
			content: "database:\n  enabled: true\n",
			wantErr: "database.host",
		},
		{
			name:    "zero cache",
			content: "cache:\n  size: 0\n",
			wantErr: "cache.size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestConnString(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable", ConnectionTimeout: 5}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable connect_timeout=5", d.ConnString())
}
