package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
backend:
  base_url: http://localhost:8080
database:
  host: localhost
  name: estate
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	require.Equal(t, "disable", cfg.Database.SSLMode)
	require.Equal(t, 10, cfg.Database.MaxConnections)
	require.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	require.Equal(t, "10s", cfg.Backend.RequestTimeout().String())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: from-file
`)
	t.Setenv("BOT_TOKEN", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Telegram.Token)
}

func TestNormalizeRejectsUnknownRunMode(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.RunMode = "carrier-pigeon"
	require.Error(t, Normalize(cfg))
}

func TestNormalizeWebhookRequiresEndpoint(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.RunMode = RunModeWebhook
	require.Error(t, Normalize(cfg))

	cfg.Webhook.URL = "https://bot.example.com/hook"
	cfg.Webhook.Listen = "0.0.0.0"
	cfg.Webhook.Port = 8443
	require.NoError(t, Normalize(cfg))
}

func TestValidateBot(t *testing.T) {
	cfg := &Config{}
	require.Error(t, ValidateBot(cfg))

	cfg.Telegram.Token = "123:abc"
	require.Error(t, ValidateBot(cfg))

	cfg.Backend.BaseURL = "http://localhost:8080"
	require.NoError(t, ValidateBot(cfg))
}

func TestValidateAPI(t *testing.T) {
	cfg := &Config{}
	require.Error(t, ValidateAPI(cfg))

	cfg.Database.Host = "localhost"
	cfg.Database.Name = "estate"
	require.NoError(t, ValidateAPI(cfg))
}
