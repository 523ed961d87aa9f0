package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Minute, cfg.Chat.EditWindow.Std())
	assert.Equal(t, 10*time.Minute, cfg.Chat.DeleteWindow.Std())
	assert.Equal(t, 5*time.Second, cfg.WebSocket.AuthTimeout.Std())
	assert.Equal(t, 30*time.Second, cfg.WebSocket.PingInterval.Std())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 8081
  env: production
database:
  driver: mysql
  url: "user:pass@tcp(localhost:3306)/talkio"
jwt:
  secret: file-secret
  ttl: 15
websocket:
  ping_interval: 10s
  auth_mode: jwt
chat:
  edit_window: 45m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, 10*time.Second, cfg.WebSocket.PingInterval.Std())
	assert.Equal(t, 45*time.Minute, cfg.Chat.EditWindow.Std())
	// untouched keys keep defaults
	assert.Equal(t, 10*time.Minute, cfg.Chat.DeleteWindow.Std())
	assert.Equal(t, 256, cfg.WebSocket.SendBuffer)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DATABASE_URL", "postgres://localhost/talkio")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/talkio", cfg.Database.DSN)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "sqlite" }},
		{"postgres without url", func(c *Config) { c.Database.Driver = "postgres" }},
		{"empty secret in production", func(c *Config) { c.Server.Env = "production"; c.JWT.Secret = "" }},
		{"trust mode in production", func(c *Config) { c.Server.Env = "production"; c.WebSocket.AuthMode = "trust" }},
		{"zero ping interval", func(c *Config) { c.WebSocket.PingInterval = 0 }},
		{"zero edit window", func(c *Config) { c.Chat.EditWindow = 0 }},
		{"s3 without bucket", func(c *Config) { c.Storage.Type = "s3" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
