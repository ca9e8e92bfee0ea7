package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/MrArkon/Rustic/rustic"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnvFile(t *testing.T) {
	// Save the original environment
	originalEnv := os.Environ()
	t.Cleanup(
		func() {
			os.Clearenv()
			for _, envVar := range originalEnv {
				parts := strings.SplitN(envVar, "=", 2)
				os.Setenv(parts[0], parts[1])
			}
		},
	)

	// Clear the environment before the test
	os.Clearenv()
	t.Cleanup(viper.Reset)

	tmpdir := t.TempDir()

	// Set up the test environment file
	envFile := filepath.Join(tmpdir, "test.env")

	envContent := `
# General/database config

RUSTIC_DATABASE=/home/foo/rustic.sqlite3
RUSTIC_DATABASE_TYPE=sqlite
RUSTIC_DATABASE_LOG_LEVEL=INFO
RUSTIC_DATABASE_SLOW_THRESHOLD=200ms
RUSTIC_LOG_LEVEL=INFO
RUSTIC_STARTUP_TIMEOUT=30s
RUSTIC_SHUTDOWN_TIMEOUT=60s
RUSTIC_USER_AGENT=RusticTest
RUSTIC_HTTP_REQUESTS_PER_SECOND=4

# Discord bot config

RUSTIC_DISCORD_TOKEN=your-discord-bot-token
RUSTIC_DISCORD_DEFAULT_PREFIX=!!
RUSTIC_DISCORD_DM_POLICY=mention
RUSTIC_DISCORD_SUGGEST_COMMANDS=false
RUSTIC_DISCORD_STATUS_MESSAGE="!!help"
RUSTIC_DISCORD_LOG_LEVEL=WARN
RUSTIC_DISCORD_DISCORDGO_LOG_LEVEL=WARN
RUSTIC_DISCORD_GATEWAY_INTENTS=33283

# Status API server

RUSTIC_API_ENABLED=true
RUSTIC_API_LISTEN=127.0.0.1:5000
RUSTIC_API_LISTEN_NETWORK=tcp
RUSTIC_API_LOG_LEVEL=DEBUG
RUSTIC_API_CORS_ALLOW_ORIGINS=https://127.0.0.1:5000 https://localhost:5000
RUSTIC_API_READ_TIMEOUT=5s
RUSTIC_API_READ_HEADER_TIMEOUT=5s
RUSTIC_API_WRITE_TIMEOUT=10s
RUSTIC_API_IDLE_TIMEOUT=30s
`

	err := os.WriteFile(envFile, []byte(envContent), 0644)
	assert.NoError(t, err)

	rootCmd.SetArgs([]string{fmt.Sprintf("--config=%s", envFile), "version"})
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, "/home/foo/rustic.sqlite3", cfg.Database)
	assert.Equal(t, "/home/foo/rustic.sqlite3", viper.GetString("database"))
	assert.Equal(t, "sqlite", viper.GetString("database_type"))
	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, 200*time.Millisecond, cfg.DatabaseSlowThreshold)
	assert.Equal(t, 30*time.Second, cfg.StartupTimeout)
	assert.Equal(t, 60*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "RusticTest", cfg.UserAgent)
	assert.Equal(t, float64(4), cfg.HTTPRequestsPerSecond)

	assertLogLevel(t, slog.LevelInfo, viper.Get("log_level"))
	assertLogLevel(t, slog.LevelInfo, viper.Get("database_log_level"))
	assertLogLevel(t, slog.LevelWarn, viper.Get("discord.log_level"))
	assertLogLevel(t, slog.LevelWarn, viper.Get("discord.discordgo_log_level"))
	assertLogLevel(t, slog.LevelDebug, viper.Get("api.log_level"))

	discord := cfg.Discord
	require.NotNil(t, discord)
	assert.Equal(t, "your-discord-bot-token", discord.Token)
	assert.Equal(t, "!!", discord.DefaultPrefix)
	assert.Equal(t, rustic.DMPolicyMention, discord.DMPolicy)
	assert.False(t, discord.SuggestCommands)
	assert.Equal(t, "!!help", discord.StatusMessage)

	api := cfg.API
	require.NotNil(t, api)
	assert.True(t, api.Enabled)
	assert.Equal(t, "127.0.0.1:5000", api.Listen)
	assert.Equal(t, "tcp", api.ListenNetwork)
	assert.Equal(
		t,
		[]string{"https://127.0.0.1:5000", "https://localhost:5000"},
		api.CORSAllowOrigins,
	)
	assert.Equal(t, 5*time.Second, api.ReadTimeout)
	assert.Equal(t, 5*time.Second, api.ReadHeaderTimeout)
	assert.Equal(t, 10*time.Second, api.WriteTimeout)
	assert.Equal(t, 30*time.Second, api.IdleTimeout)
}

func TestEnvPrefixOverride(t *testing.T) {
	t.Setenv(rustic.EnvvarSetEnvPrefix, "RB")
	t.Setenv("RB_DISCORD_DEFAULT_PREFIX", "??")

	initConfig()
	t.Cleanup(viper.Reset)

	assert.Equal(t, "??", viper.GetString("discord.default_prefix"))
}

func TestLevelToStringHook(t *testing.T) {
	hook := LevelToStringHookFunc()

	out, err := hook(
		stringType(),
		levelVarPtrType(),
		"DEBUG",
	)
	require.NoError(t, err)
	lvl, ok := out.(*slog.LevelVar)
	require.True(t, ok)
	assert.Equal(t, slog.LevelDebug, lvl.Level())

	_, err = hook(
		stringType(),
		levelVarPtrType(),
		"LOUD",
	)
	assert.Error(t, err)
}

func stringType() reflect.Type {
	return reflect.TypeOf("")
}

func levelVarPtrType() reflect.Type {
	return reflect.TypeOf(&slog.LevelVar{})
}

func assertLogLevel(t testing.TB, expected slog.Level, v any) {
	t.Helper()

	lvl, ok := v.(*slog.LevelVar)
	require.Truef(t, ok, "could not convert %#v (%T) to *slog.LevelVar", v, v)
	assert.Equal(t, expected, lvl.Level())
}
