package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CONFIG_FILE", "DISCORD_TOKEN", "STORAGE_DRIVER", "DB_PATH", "DATABASE_URL",
	"DATABASE_NAME", "CALL_TIMEOUT", "NATS_SERVERS", "DEBUG_API_ADDR",
	"OTEL_ENABLED", "OTEL_ENDPOINT", "LOG_LEVEL", "LOG_FORMAT", "ENVIRONMENT",
}

// clearEnv blanks every key load reads so the host environment cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "tok")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, "tok", cfg.DiscordToken)
	assert.Equal(t, "sqlite", cfg.StorageDriver)
	assert.Equal(t, "./channels.db", cfg.DBPath)
	assert.Equal(t, DefaultCallTimeout, cfg.CallTimeout)
	assert.Equal(t, "development", cfg.Environment)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoad_RequiresToken(t *testing.T) {
	clearEnv(t)

	_, err := load()
	assert.ErrorContains(t, err, "DISCORD_TOKEN is required")
}

func TestLoad_TokenOptionalInTest(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "test")

	_, err := load()
	assert.NoError(t, err)
}

func TestLoad_TOMLFileWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.toml", `
discord_token = "from-file"
db_path = "/var/lib/absbot/channels.db"
call_timeout = "3s"
log_level = "debug"
otel_enabled = true
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.DiscordToken)
	assert.Equal(t, "/var/lib/absbot/channels.db", cfg.DBPath)
	assert.Equal(t, 3*time.Second, cfg.CallTimeout)
	assert.Equal(t, "warn", cfg.LogLevel, "environment wins over file")
	assert.True(t, cfg.OTelEnabled)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
discord_token: yaml-token
storage_driver: postgres
database_url: postgres://u:p@db:5432
database_name: absbot
`)
	t.Setenv("CONFIG_FILE", path)

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, "yaml-token", cfg.DiscordToken)
	assert.Equal(t, "postgres", cfg.StorageDriver)
	assert.Equal(t, "postgres://u:p@db:5432/absbot?sslmode=disable", cfg.GetDatabaseURL())
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "tok")
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.toml"))

	_, err := load()
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown driver",
			env:     map[string]string{"STORAGE_DRIVER": "mongo"},
			wantErr: "unknown STORAGE_DRIVER",
		},
		{
			name:    "postgres without url",
			env:     map[string]string{"STORAGE_DRIVER": "postgres"},
			wantErr: "DATABASE_URL is required",
		},
		{
			name:    "bad timeout",
			env:     map[string]string{"CALL_TIMEOUT": "soon"},
			wantErr: "invalid CALL_TIMEOUT",
		},
		{
			name:    "non-positive timeout",
			env:     map[string]string{"CALL_TIMEOUT": "0s"},
			wantErr: "CALL_TIMEOUT must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DISCORD_TOKEN", "tok")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := load()
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoad_DriverIsNormalised(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "tok")
	t.Setenv("STORAGE_DRIVER", " Memory ")

	cfg, err := load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.StorageDriver)
}

func TestGet_UsesTestConfig(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)

	testCfg := NewTestConfig()
	SetTestConfig(testCfg)

	assert.Same(t, testCfg, Get())
}

func TestLoad_SendRateAndAuditSchedule(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "tok")

	cfg, err := load()
	require.NoError(t, err)
	assert.Equal(t, DefaultSendRatePerSec, cfg.SendRatePerSec)
	assert.Empty(t, cfg.AuditSchedule)

	t.Setenv("SEND_RATE_PER_SEC", "0")
	t.Setenv("AUDIT_SCHEDULE", "@daily")
	cfg, err = load()
	require.NoError(t, err)
	assert.Zero(t, cfg.SendRatePerSec)
	assert.Equal(t, "@daily", cfg.AuditSchedule)

	t.Setenv("AUDIT_SCHEDULE", "every so often")
	_, err = load()
	assert.ErrorContains(t, err, "invalid AUDIT_SCHEDULE")

	t.Setenv("AUDIT_SCHEDULE", "")
	t.Setenv("SEND_RATE_PER_SEC", "-1")
	_, err = load()
	assert.ErrorContains(t, err, "cannot be negative")
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	clearEnv(t)
	ResetConfig()
	t.Cleanup(ResetConfig)

	path := writeFile(t, "config.toml", "discord_token = \"tok\"\nlog_level = \"info\"\n")
	t.Setenv("CONFIG_FILE", path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) { reloaded <- c })
	}()

	// Keep rewriting until the watcher is registered and picks a change up
	deadline := time.After(10 * time.Second)
	var got *Config
	for got == nil {
		require.NoError(t, os.WriteFile(path, []byte("discord_token = \"tok\"\nlog_level = \"debug\"\n"), 0o600))
		select {
		case got = <-reloaded:
		case <-time.After(500 * time.Millisecond):
		case <-deadline:
			t.Fatal("config change was not picked up")
		}
	}

	assert.Equal(t, "debug", got.LogLevel)
	assert.Same(t, got, Get())

	cancel()
	assert.NoError(t, <-done)
}

func TestWatch_IgnoresInvalidEdit(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.toml", "discord_token = \"tok\"\n")
	t.Setenv("CONFIG_FILE", path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 8)
	go func() { _ = Watch(ctx, path, func(c *Config) { reloaded <- c }) }()

	for i := 0; i < 4; i++ {
		require.NoError(t, os.WriteFile(path, []byte("call_timeout = \"not a duration\"\n"), 0o600))
		time.Sleep(200 * time.Millisecond)
	}

	select {
	case <-reloaded:
		t.Fatal("invalid config must not be published")
	case <-time.After(500 * time.Millisecond):
	}
}
