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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: test-activities
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "test-activities", cfg.App.Name)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, ":8000", cfg.Server.Addr())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "activities.roster", cfg.Events.RedisChannel)
	assert.Equal(t, "signup_events", cfg.Events.AuditTable)
	assert.Equal(t, "test-activities", cfg.Observability.ServiceName)
	assert.Equal(t, 1.0, cfg.Observability.TraceSampleRate)
	assert.False(t, cfg.Registry.EnforceCapacity)
	assert.Equal(t, 3*time.Second, GetDuration(cfg.Events.Timeout))
}

func TestLoadFromFile_Values(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9090
registry:
  catalog_path: configs/activities.json
  enforce_capacity: true
database:
  redis:
    enabled: true
    address: localhost:6379
logging:
  level: debug
  format: console
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr())
	assert.Equal(t, "configs/activities.json", cfg.Registry.CatalogPath)
	assert.True(t, cfg.Registry.EnforceCapacity)
	assert.True(t, cfg.Database.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Database.Redis.Address)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9191")
	t.Setenv("REDIS_ADDR_FOR_TEST", "cache:6379")

	path := writeConfig(t, `
server:
  port: 8000
database:
  redis:
    enabled: true
    address: ${REDIS_ADDR_FOR_TEST}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "cache:6379", cfg.Database.Redis.Address)
}

func TestLoadFromFile_UnsetPlaceholder(t *testing.T) {
	path := writeConfig(t, `
database:
  redis:
    enabled: true
    address: ${REDIS_ADDR_NEVER_SET}
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.redis.address is required")
}

func TestLoadFromFile_TraceSampleRate(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		expected float64
	}{
		{name: "unset defaults to always sample", yaml: "server:\n  port: 8000\n", expected: 1.0},
		{name: "explicit zero disables sampling", yaml: "observability:\n  trace_sample_rate: 0\n", expected: 0},
		{name: "fraction kept", yaml: "observability:\n  trace_sample_rate: 0.25\n", expected: 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFromFile(writeConfig(t, tt.yaml))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg.Observability.TraceSampleRate)
		})
	}
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		errMsg string
	}{
		{
			name: "postgres enabled without host",
			yaml: `
database:
  postgres:
    enabled: true
    database: activities
    user: app
`,
			errMsg: "database.postgres.host is required",
		},
		{
			name: "redis enabled without address",
			yaml: `
database:
  redis:
    enabled: true
`,
			errMsg: "database.redis.address is required",
		},
		{
			name: "mail without region",
			yaml: `
events:
  mail_enabled: true
`,
			errMsg: "integrations.aws.region is required",
		},
		{
			name: "mail without sender",
			yaml: `
events:
  mail_enabled: true
integrations:
  aws:
    region: us-east-1
`,
			errMsg: "from_email is required",
		},
		{
			name: "bad port",
			yaml: `
server:
  port: 70000
`,
			errMsg: "server.port must be between 1 and 65535",
		},
		{
			name: "bad sample rate",
			yaml: `
observability:
  trace_sample_rate: 2
`,
			errMsg: "trace_sample_rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AWS_REGION", "")

			_, err := LoadFromFile(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGetDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=d sslmode=disable", p.GetDSN())
}
