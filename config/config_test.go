package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twingatebot/models"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// godotenv writes into the process environment; register every key with
// t.Setenv first so it is restored after the test.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadEnvCfg_Defaults(t *testing.T) {
	clearEnv(t, "TOKEN", "KEYCHAIN_ACCOUNT", "REQUEST_TIMEOUT", "POLL_TIMEOUT", "PARSE_MODE", "LOG_OUTPUT_PATHS")
	path := writeEnvFile(t, "TOKEN=123:abc\n")

	cfg, err := LoadEnvCfg(path)
	require.NoError(t, err)
	require.Equal(t, "123:abc", cfg.Token)
	require.Equal(t, "https://api.telegram.org", cfg.APIEndpoint)
	require.Equal(t, 10*time.Second, cfg.RequestTimeout)
	require.Equal(t, 30*time.Second, cfg.PollTimeout)
	require.Equal(t, 5*time.Second, cfg.ErrorBackoff)
	require.Equal(t, time.Second, cfg.IdleDelay)
	require.Equal(t, models.FormatHTML, cfg.Formatting())
	require.Equal(t, []string{"stdout"}, cfg.Logger.OutputPaths)
	require.False(t, cfg.JournalEnabled())
	require.False(t, cfg.Debug())
}

func TestLoadEnvCfg_Overrides(t *testing.T) {
	clearEnv(t, "TOKEN", "ADMIN_CHAT_ID", "POLL_TIMEOUT", "PARSE_MODE", "BOT_ENV", "CONNECTION_STRING", "LOG_OUTPUT_PATHS")
	path := writeEnvFile(t, `TOKEN=t
ADMIN_CHAT_ID=589541800
POLL_TIMEOUT=45s
PARSE_MODE=plain
BOT_ENV=debug
CONNECTION_STRING=postgres://localhost/bot
LOG_OUTPUT_PATHS=stdout,/tmp/bot.log
`)

	cfg, err := LoadEnvCfg(path)
	require.NoError(t, err)
	require.Equal(t, int64(589541800), cfg.AdminChatID)
	require.Equal(t, 45*time.Second, cfg.PollTimeout)
	require.Equal(t, models.FormatPlain, cfg.Formatting())
	require.True(t, cfg.Debug())
	require.True(t, cfg.JournalEnabled())
	require.Equal(t, []string{"stdout", "/tmp/bot.log"}, cfg.Logger.OutputPaths)
}

func TestLoadEnvCfg_MissingFileUsesEnvironment(t *testing.T) {
	clearEnv(t, "KEYCHAIN_ACCOUNT")
	t.Setenv("TOKEN", "from-env")

	cfg, err := LoadEnvCfg(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Token)
}

func TestLoadEnvCfg_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  string
	}{
		{name: "no token source", env: "PARSE_MODE=HTML\n"},
		{name: "bad parse mode", env: "TOKEN=t\nPARSE_MODE=BBCode\n"},
		{name: "markdown replies", env: "TOKEN=t\nPARSE_MODE=MarkdownV2\n"},
		{name: "zero request timeout", env: "TOKEN=t\nREQUEST_TIMEOUT=0s\n"},
		{name: "bad duration", env: "TOKEN=t\nPOLL_TIMEOUT=soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t, "TOKEN", "KEYCHAIN_ACCOUNT", "PARSE_MODE", "REQUEST_TIMEOUT", "POLL_TIMEOUT")
			_, err := LoadEnvCfg(writeEnvFile(t, tt.env))
			require.Error(t, err)
		})
	}
}
