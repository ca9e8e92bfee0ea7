//nolint:lll // struct tags can't be split
package rustic

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	EnvvarSetEnvPrefix = "RUSTIC_ENV_PREFIX"
	DefaultEnvPrefix   = "RUSTIC"

	DefaultDatabaseType          = "sqlite"
	DefaultDatabase              = "rustic.sqlite3"
	DefaultDatabaseSlowThreshold = 200 * time.Millisecond
	DefaultDatabaseLogLevel      = slog.LevelInfo

	DefaultLogLevel          = slog.LevelInfo
	DefaultDiscordLogLevel   = slog.LevelWarn
	DefaultDiscordgoLogLevel = slog.LevelWarn
	DefaultAPILogLevel       = slog.LevelInfo

	DefaultStartupTimeout  = 30 * time.Second
	DefaultShutdownTimeout = 60 * time.Second

	// DefaultPrefix is the process-wide command prefix, used whenever a
	// guild has no stored prefix (or the store is unreachable).
	DefaultPrefix = "~"

	// DMPolicyDeny ignores command invocations outside guilds entirely.
	DMPolicyDeny = "deny"

	// DMPolicyMention allows invocation in direct messages, but only when
	// the message starts with a mention of the bot user.
	DMPolicyMention = "mention"

	DefaultDMPolicy      = DMPolicyDeny
	DefaultStatusMessage = "@Rustic help"

	// BucketBasic is the shared rate-limit bucket most commands use.
	BucketBasic          = "basic"
	DefaultBucketLimit   = 1
	DefaultBucketWindow  = 5 * time.Second
	DefaultSuggestionMax = 2

	DefaultHTTPRequestsPerSecond = 2
	DefaultUserAgent             = "Rustic (https://github.com/MrArkon/Rustic)"

	DefaultDiscordGatewayIntent = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	DefaultAPIListen         = "127.0.0.1:5000"
	defaultListenNetwork     = "tcp"
	DefaultReadTimeout       = 5 * time.Second
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultIdleTimeout       = 30 * time.Second

	// embedColor is the accent color used on every rich embed the bot sends.
	embedColor = 0xF05B4A

	discordMaxMessageLength = 2000
)

var DefaultCORSAllowMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodOptions,
}

// Config is the top-level process configuration, loaded once at startup.
type Config struct {
	// Database connection string, or SQLite file path
	Database string `yaml:"database" mapstructure:"database" json:"database" binding:"required"`

	// DatabaseType specifies the type of database, either 'sqlite' or 'postgres'
	DatabaseType string `yaml:"database_type" mapstructure:"database_type" json:"database_type" binding:"oneof=sqlite postgres"`

	// DatabaseLogLevel sets the log level for database operations
	DatabaseLogLevel *slog.LevelVar `yaml:"database_log_level" mapstructure:"database_log_level" json:"database_log_level"`

	// DatabaseSlowThreshold is the duration threshold for identifying slow database queries
	DatabaseSlowThreshold time.Duration `yaml:"database_slow_threshold" mapstructure:"database_slow_threshold" json:"database_slow_threshold"`

	// Discord configures the bot itself
	Discord *DiscordConfig `yaml:"discord" mapstructure:"discord" json:"discord"`

	// API configures the optional status API server
	API *APIConfig `yaml:"api" mapstructure:"api" json:"api"`

	// LogLevel is the base log level, for the default logger
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// StartupTimeout limits how long the bot has to connect and migrate
	// before startup is aborted.
	StartupTimeout time.Duration `yaml:"startup_timeout" mapstructure:"startup_timeout" json:"startup_timeout"`

	// ShutdownTimeout is the time to allow for a graceful shutdown. After
	// this elapses, remaining connections are force-closed.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" json:"shutdown_timeout"`

	// UserAgent is sent on outbound HTTP lookups (cat/urban/avatar fetches)
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent" json:"user_agent"`

	// HTTPRequestsPerSecond throttles outbound HTTP lookups across all
	// command invocations.
	HTTPRequestsPerSecond float64 `yaml:"http_requests_per_second" mapstructure:"http_requests_per_second" json:"http_requests_per_second"`

	HTTPClient *http.Client `log:"[redacted]"`
}

func (c Config) LogValue() slog.Value {
	return structToSlogValue(c)
}

// DiscordConfig configures the discord connection and command dispatch.
//
//nolint:lll // can't break tags
type DiscordConfig struct {
	// Discord bot token (from the 'Bot' tab in the discord dev portal)
	Token string `yaml:"token" mapstructure:"token" json:"token" log:"[redacted]" binding:"required"`

	// DefaultPrefix is used for guilds with no stored prefix, and as the
	// fallback when the guild store is unreachable.
	DefaultPrefix string `yaml:"default_prefix" mapstructure:"default_prefix" json:"default_prefix" binding:"required"`

	// DMPolicy controls invocation outside guilds: 'deny' ignores direct
	// messages entirely, 'mention' allows mention-prefixed invocation.
	DMPolicy string `yaml:"dm_policy" mapstructure:"dm_policy" json:"dm_policy" binding:"oneof=deny mention"`

	// SuggestCommands enables 'did you mean' replies for unknown commands
	// (edit distance at most 2 against registered names).
	SuggestCommands bool `yaml:"suggest_commands" mapstructure:"suggest_commands" json:"suggest_commands"`

	// StatusMessage is set as the bot's 'listening' status after connecting.
	StatusMessage string `yaml:"status_message" mapstructure:"status_message" json:"status_message"`

	// Discord gateway intents. See: https://discord.com/developers/docs/topics/gateway#gateway-intents
	GatewayIntents discordgo.Intent `yaml:"gateway_intents" mapstructure:"gateway_intents" json:"gateway_intents"`

	// Base discord logging level
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// Log level for the `discordgo` library's logger
	DiscordGoLogLevel *slog.LevelVar `yaml:"discordgo_log_level" mapstructure:"discordgo_log_level" json:"discordgo_log_level"`

	httpClient *http.Client
}

// APIConfig configures the read-only status API server.
//
//nolint:lll // can't break tags
type APIConfig struct {
	// Determines if the status API should be active.
	Enabled bool `yaml:"enabled" mapstructure:"enabled" json:"enabled"`

	// The address and port on which the server should listen (e.g., "127.0.0.1:5000").
	Listen string `yaml:"listen" mapstructure:"listen" json:"listen" binding:"required_if=Enabled true,hostname|filepath"`

	// The network type for listening (e.g., "tcp", "tcp4", "tcp6", "unix").
	ListenNetwork string `yaml:"listen_network" mapstructure:"listen_network" json:"listen_network" binding:"required_if=Enabled true,oneof=tcp tcp4 tcp6 unix"`

	// The logging level for the API server.
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// Origins allowed on cross-origin requests. Empty disallows all.
	CORSAllowOrigins []string `yaml:"cors_allow_origins" mapstructure:"cors_allow_origins" json:"cors_allow_origins"`

	// Maximum duration for reading the entire request, including the body.
	ReadTimeout time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" json:"read_timeout" binding:"required_if=Enabled true,min=1s"`

	// Amount of time allowed to read request headers.
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" mapstructure:"read_header_timeout" json:"read_header_timeout" binding:"required_if=Enabled true,min=1s"`

	// Maximum duration before timing out writes of the response.
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" json:"write_timeout" binding:"required_if=Enabled true,min=1s"`

	// Maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" json:"idle_timeout" binding:"required_if=Enabled true,min=1s"`
}

// DefaultConfig returns a Config with all default settings populated
func DefaultConfig() *Config {
	mainLogLevel := &slog.LevelVar{}
	discordLogLevel := &slog.LevelVar{}
	discordgoLogLevel := &slog.LevelVar{}
	dbLogLevel := &slog.LevelVar{}
	apiLogLevel := &slog.LevelVar{}

	mainLogLevel.Set(DefaultLogLevel)
	discordLogLevel.Set(DefaultDiscordLogLevel)
	discordgoLogLevel.Set(DefaultDiscordgoLogLevel)
	dbLogLevel.Set(DefaultDatabaseLogLevel)
	apiLogLevel.Set(DefaultAPILogLevel)

	return &Config{
		DatabaseType:          DefaultDatabaseType,
		Database:              DefaultDatabase,
		DatabaseLogLevel:      dbLogLevel,
		DatabaseSlowThreshold: DefaultDatabaseSlowThreshold,
		LogLevel:              mainLogLevel,
		StartupTimeout:        DefaultStartupTimeout,
		ShutdownTimeout:       DefaultShutdownTimeout,
		UserAgent:             DefaultUserAgent,
		HTTPRequestsPerSecond: DefaultHTTPRequestsPerSecond,
		Discord: &DiscordConfig{
			DefaultPrefix:     DefaultPrefix,
			DMPolicy:          DefaultDMPolicy,
			SuggestCommands:   true,
			StatusMessage:     DefaultStatusMessage,
			GatewayIntents:    DefaultDiscordGatewayIntent,
			LogLevel:          discordLogLevel,
			DiscordGoLogLevel: discordgoLogLevel,
		},
		API: &APIConfig{
			Enabled:           false,
			Listen:            DefaultAPIListen,
			ListenNetwork:     defaultListenNetwork,
			LogLevel:          apiLogLevel,
			ReadTimeout:       DefaultReadTimeout,
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			WriteTimeout:      DefaultWriteTimeout,
			IdleTimeout:       DefaultIdleTimeout,
		},
	}
}
