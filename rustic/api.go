package rustic

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
)

// API is a small read-only HTTP server exposing bot health and runtime
// statistics. It never accepts writes and holds no state of its own.
type API struct {
	config     *APIConfig
	httpServer *http.Server
	listener   net.Listener
	engine     *gin.Engine
	logger     *slog.Logger
	bot        *Bot
}

type healthResponse struct {
	Status string `json:"status"`
}

type statusResponse struct {
	Version   string    `json:"version"`
	StartedAt time.Time `json:"started_at"`
	Uptime    string    `json:"uptime"`

	Connected   bool  `json:"connected"`
	Guilds      int   `json:"guilds"`
	Members     int   `json:"members"`
	Connects    int64 `json:"connects"`
	Disconnects int64 `json:"disconnects"`

	MessagesSeen    int64 `json:"messages_seen"`
	CommandsRun     int64 `json:"commands_run"`
	CommandErrors   int64 `json:"command_errors"`
	RateLimited     int64 `json:"rate_limited"`
	UnknownCommands int64 `json:"unknown_commands"`

	Commands []string `json:"commands"`
}

func newAPI(b *Bot, config *APIConfig) *API {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	if len(config.CORSAllowOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = config.CORSAllowOrigins
		corsConfig.AllowMethods = DefaultCORSAllowMethods
		corsConfig.MaxAge = 12 * time.Hour
		engine.Use(cors.New(corsConfig))
	}

	api := &API{
		config: config,
		engine: engine,
		logger: slog.New(
			tint.NewHandler(
				defaultLogWriter, &tint.Options{
					Level:     config.LogLevel,
					AddSource: true,
				},
			),
		).With(loggerNameKey, "api"),
		bot: b,
	}

	engine.GET("/healthz", api.getHealth)
	engine.GET("/api/status", api.getStatus)

	api.httpServer = &http.Server{
		Addr:              config.Listen,
		Handler:           engine,
		ReadTimeout:       config.ReadTimeout,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
	}
	return api
}

func (a *API) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}

func (a *API) getStatus(c *gin.Context) {
	b := a.bot
	guilds, members := 0, 0
	connected := false
	var connects, disconnects int64

	if b.discord != nil {
		connected = b.discord.connected.Load()
		connects = b.discord.metricConnects.Load()
		disconnects = b.discord.metricDisconnects.Load()
		if b.discord.session != nil {
			guilds, members = b.discord.session.GuildCount()
		}
	}

	c.JSON(
		http.StatusOK, statusResponse{
			Version:         Version,
			StartedAt:       b.startedAt,
			Uptime:          time.Since(b.startedAt).Round(time.Second).String(),
			Connected:       connected,
			Guilds:          guilds,
			Members:         members,
			Connects:        connects,
			Disconnects:     disconnects,
			MessagesSeen:    b.dispatcher.metricMessagesSeen.Load(),
			CommandsRun:     b.dispatcher.metricCommandsRun.Load(),
			CommandErrors:   b.dispatcher.metricCommandErrors.Load(),
			RateLimited:     b.dispatcher.metricRateLimited.Load(),
			UnknownCommands: b.dispatcher.metricUnknownCommands.Load(),
			Commands:        b.registry.Names(),
		},
	)
}

// Serve listens on the configured address and serves until the context is
// canceled or Shutdown is called.
func (a *API) Serve(ctx context.Context) error {
	listenCfg := net.ListenConfig{}
	listener, err := listenCfg.Listen(
		ctx,
		a.config.ListenNetwork,
		a.config.Listen,
	)
	if err != nil {
		return err
	}
	a.listener = listener

	a.logger.LogAttrs(
		ctx,
		slog.LevelInfo,
		"status API listening",
		slog.String("listen", a.config.Listen),
		slog.String("listen_network", a.config.ListenNetwork),
	)
	return a.httpServer.Serve(listener)
}

// Shutdown gracefully stops the HTTP server.
func (a *API) Shutdown(ctx context.Context) error {
	return a.httpServer.Shutdown(ctx)
}
