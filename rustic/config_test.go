package rustic

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultDatabaseType, cfg.DatabaseType)
	assert.Equal(t, DefaultDatabase, cfg.Database)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel.Level())

	require.NotNil(t, cfg.Discord)
	assert.Equal(t, DefaultPrefix, cfg.Discord.DefaultPrefix)
	assert.Equal(t, DMPolicyDeny, cfg.Discord.DMPolicy)
	assert.True(t, cfg.Discord.SuggestCommands)
	assert.Equal(t, DefaultDiscordGatewayIntent, cfg.Discord.GatewayIntents)

	require.NotNil(t, cfg.API)
	assert.False(t, cfg.API.Enabled)
	assert.Equal(t, DefaultAPIListen, cfg.API.Listen)
}

func TestValidateConfig(t *testing.T) {
	t.Run(
		"valid", func(t *testing.T) {
			bot, _ := newTestBot(t)
			assert.NoError(t, bot.ValidateConfig())
		},
	)

	t.Run(
		"missing token", func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Database = filepath.Join(t.TempDir(), "test.sqlite3")
			bot, err := New(cfg)
			require.NoError(t, err)
			assert.Error(t, bot.ValidateConfig())
		},
	)

	t.Run(
		"bad dm policy", func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Database = filepath.Join(t.TempDir(), "test.sqlite3")
			cfg.Discord.Token = "test-token"
			cfg.Discord.DMPolicy = "sometimes"
			bot, err := New(cfg)
			require.NoError(t, err)
			assert.Error(t, bot.ValidateConfig())
		},
	)

	t.Run(
		"bad database type", func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DatabaseType = "mariadb"
			_, err := New(cfg)
			assert.Error(t, err)
		},
	)
}

func TestConfigLogValueRedactsToken(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Discord.Token = "hunter2"

	v := cfg.LogValue().String()
	assert.NotContains(t, v, "hunter2")
	assert.Contains(t, v, "[redacted]")
}
