package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/sopflow/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sopflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.LoadWithEnv("", env(nil))
	require.NoError(t, err)
	assert.Equal(t, config.Default().DataDir, cfg.DataDir)
	assert.Equal(t, config.BackendFile, cfg.Store.Backend)
	assert.True(t, cfg.Runtime.EnforceRoles)
	assert.Equal(t, ":8080", cfg.HTTP.Addr())
	assert.Equal(t, filepath.Join(".sopflow", "cases"), cfg.CasesDir())
	assert.Equal(t, filepath.Join(".sopflow", "audit.db"), cfg.AuditPath())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
dataDir: /var/lib/sopflow
definitionsDir: /etc/sopflow/sops
logLevel: debug
store:
  backend: redis
  redis:
    address: redis:6379
    db: 2
    ttl: 72h
    lock: true
audit:
  driver: sqlite
  path: /var/lib/sopflow/audit.sqlite
http:
  port: 9000
runtime:
  checkFieldTypes: true
security:
  piiFields: ["(?i)ssn", "email"]
catalog:
  roles: [manager, clerk]
  fieldTypes: [string, number]
`)

	cfg, err := config.LoadWithEnv(path, env(nil))
	require.NoError(t, err)

	assert.Equal(t, "/etc/sopflow/sops", cfg.DefinitionsDir)
	assert.Equal(t, config.BackendRedis, cfg.Store.Backend)
	assert.Equal(t, 2, cfg.Store.Redis.DB)
	assert.Equal(t, 72*time.Hour, cfg.Store.Redis.TTL)
	assert.True(t, cfg.Store.Redis.Lock)
	assert.Equal(t, "sopflow:case:", cfg.Store.Redis.Prefix, "unset keys keep their default")
	assert.Equal(t, "/var/lib/sopflow/audit.sqlite", cfg.AuditPath())
	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.True(t, cfg.Runtime.EnforceRoles)
	assert.True(t, cfg.Runtime.CheckFieldTypes)
	assert.Equal(t, []string{"(?i)ssn", "email"}, cfg.Security.PIIFields)
	assert.Equal(t, []string{"manager", "clerk"}, cfg.Catalog.Roles)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "store:\n  backend: file\n")

	cfg, err := config.LoadWithEnv(path, env(map[string]string{
		config.EnvStore:           "memory",
		config.EnvPort:            "9090",
		config.EnvEnforceRoles:    "false",
		config.EnvRedisTTL:        "15m",
		config.EnvEncryptionKey:   "abc",
		config.EnvDefinitionsDir:  "",
		config.EnvCheckFieldTypes: "1",
	}))
	require.NoError(t, err)

	assert.Equal(t, config.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.False(t, cfg.Runtime.EnforceRoles)
	assert.True(t, cfg.Runtime.CheckFieldTypes)
	assert.Equal(t, 15*time.Minute, cfg.Store.Redis.TTL)
	assert.Equal(t, "abc", cfg.Security.EncryptionKey)
	assert.Equal(t, "definitions", cfg.DefinitionsDir, "empty variables are ignored")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
		want string
	}{
		{"Unknown Backend", "store:\n  backend: postgres\n", nil, "Config.Store.Backend failed on oneof"},
		{"Bad Port", "http:\n  port: 70000\n", nil, "Config.HTTP.Port failed on max"},
		{"Bad Log Level", "logLevel: loud\n", nil, "Config.LogLevel failed on oneof"},
		{"Redis Without Address", "store:\n  backend: redis\n  redis:\n    address: \"\"\n", nil, "Config.Store.Redis.Address failed on required_if"},
		{"Bad YAML", "store: [", nil, "failed to parse config"},
		{"Bad Env Port", "", map[string]string{config.EnvPort: "http"}, config.EnvPort},
		{"Bad Env Bool", "", map[string]string{config.EnvEnforceRoles: "maybe"}, config.EnvEnforceRoles},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadWithEnv(writeConfig(t, tt.body), env(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := config.LoadWithEnv(filepath.Join(t.TempDir(), "nope.yaml"), env(nil))
	assert.ErrorContains(t, err, "failed to read config")
}
