package rustic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-playground/validator/v10"
	"github.com/lmittmann/tint"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

var (
	// When building, set these like:
	// -ldflags "-X github.com/MrArkon/Rustic/rustic.Version=$$(date +'%Y%m%d')"

	Version   = "dev"
	CommitSHA = "unknown"
	BuildTime = "unknown"
)

var (
	defaultLogWriter io.Writer = os.Stdout

	structValidator = validator.New()
)

func init() {
	structValidator.SetTagName("binding")
}

// Bot is the main application struct: it owns the configuration, the
// database connection, the discord session, and the command dispatch
// pipeline. Construct one with New, then call Run.
type Bot struct {
	config *Config

	// Standard logger. Missing loggers fall back to slog.Default()
	logger     *slog.Logger
	logHandler slog.Handler

	db    *gorm.DB
	store *GuildStore

	// Handles the discord gateway connection and sessions
	discord *Discord

	dispatcher *Dispatcher
	registry   *Registry
	limiter    *BucketLimiter

	// Shared client for outbound lookups, throttled by httpLimiter
	httpClient  *http.Client
	httpLimiter *rate.Limiter

	// Optional read-only status API
	api *API

	startedAt time.Time

	// prevents Run from executing concurrently
	runMu sync.Mutex

	// signalStop enables an explicit stop signal to be sent to the bot
	signalStop chan struct{}

	// signalReady has a value sent on it once the gateway session is open
	// and the message handler is registered
	signalReady chan struct{}
}

// New creates and initializes a Bot from the given configuration: loggers
// for each component, the command registry, rate-limit buckets, and the
// optional status API. Database and gateway connections are deferred to
// Run.
func New(config *Config) (*Bot, error) {
	var errs []error

	switch config.DatabaseType {
	case dbTypeSQLite, dbTypePostgres:
		//
	default:
		errs = append(
			errs,
			errors.New("invalid database type (must be 'sqlite' or 'postgres')"),
		)
	}

	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}

	b := &Bot{
		config:      config,
		signalReady: make(chan struct{}, 1),
		signalStop:  make(chan struct{}, 1),
	}

	b.logHandler = tint.NewHandler(
		defaultLogWriter, &tint.Options{
			Level:     config.LogLevel,
			AddSource: true,
		},
	)
	b.logger = slog.New(b.logHandler)
	slog.SetDefault(b.logger)

	discordgo.Logger = discordgoLoggerFunc(
		context.Background(),
		tint.NewHandler(
			defaultLogWriter, &tint.Options{
				Level:     config.Discord.DiscordGoLogLevel,
				AddSource: true,
			},
		).WithAttrs([]slog.Attr{slog.String(loggerNameKey, "discordgo")}),
	)

	config.Discord.httpClient = config.HTTPClient

	disc := newDiscord(config.Discord)
	disc.logger = slog.New(
		tint.NewHandler(
			defaultLogWriter, &tint.Options{
				Level:     config.Discord.LogLevel,
				AddSource: true,
			},
		),
	).With(loggerNameKey, "discord")
	disc.bot = b
	b.discord = disc

	b.limiter = NewBucketLimiter()
	b.limiter.AddBucket(BucketBasic, DefaultBucketLimit, DefaultBucketWindow)

	b.httpClient = config.HTTPClient
	if config.HTTPRequestsPerSecond > 0 {
		b.httpLimiter = rate.NewLimiter(rate.Limit(config.HTTPRequestsPerSecond), 1)
	}

	b.registry = b.buildRegistry()
	b.dispatcher = newDispatcher(
		b.registry,
		b.limiter,
		nil, // store is attached in Run, once the database is up
		config.Discord,
		disc.logger,
	)
	b.dispatcher.bot = b

	if config.API != nil && config.API.Enabled {
		b.api = newAPI(b, config.API)
	}

	return b, errors.Join(errs...)
}

// ValidateConfig checks the configuration against its binding tags.
func (b *Bot) ValidateConfig() error {
	return structValidator.Struct(b.config)
}

// buildRegistry wires up every command. Registration happens once; the
// dispatcher treats the registry as immutable afterwards.
func (b *Bot) buildRegistry() *Registry {
	return NewRegistry(
		&Command{
			Name:        "ping",
			Description: "Check if the bot is working.",
			Args:        ArgsNone,
			Run:         b.cmdPing,
		},
		&Command{
			Name:        "about",
			Aliases:     []string{"statistics", "stats"},
			Description: "Tells you information about the bot itself.",
			Args:        ArgsNone,
			Run:         b.cmdAbout,
		},
		&Command{
			Name:        "help",
			Description: "Lists commands, or shows details for one.",
			Usage:       "[command]",
			Args:        ArgsSingle,
			Run:         b.cmdHelp,
		},
		&Command{
			Name:        "cat",
			Description: "Find some cute cat pictures!",
			Bucket:      BucketBasic,
			Args:        ArgsNone,
			Run:         b.cmdCat,
		},
		&Command{
			Name:        "eightball",
			Aliases:     []string{"8ball", "8b"},
			Description: "Ask a question to the magic 8ball",
			Usage:       "<question>",
			Bucket:      BucketBasic,
			Args:        ArgsRest,
			MinArgs:     1,
			Run:         b.cmdEightball,
		},
		&Command{
			Name:        "urban",
			Description: "Searches urban dictionary.",
			Usage:       "<word>",
			Bucket:      BucketBasic,
			Args:        ArgsRest,
			Run:         b.cmdUrban,
		},
		&Command{
			Name:        "grayscale",
			Aliases:     []string{"gray", "grey", "greyscale"},
			Description: "Adds a grayscale filter to your avatar or the mentioned member.",
			Usage:       "[member]",
			Bucket:      BucketBasic,
			Args:        ArgsRest,
			Run:         b.cmdGrayscale,
		},
		&Command{
			Name: "prefix",
			Description: "Not providing the prefix will show the current prefix. " +
				"Providing the prefix will set it to that prefix. To use spaces in " +
				"your prefix surround it with double quotation marks \"an example \"",
			Usage:     "[prefix]",
			GuildOnly: true,
			Args:      ArgsSingle,
			Run:       b.cmdPrefix,
		},
	)
}

// httpGet performs a throttled GET with the configured User-Agent. Callers
// own the response body.
func (b *Bot) httpGet(
	ctx context.Context,
	rawURL string,
	query url.Values,
) (*http.Response, error) {
	if b.httpLimiter != nil {
		if err := b.httpLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}
	if b.config.UserAgent != "" {
		req.Header.Set("User-Agent", b.config.UserAgent)
	}
	return b.httpClient.Do(req)
}

// Run starts the bot: it validates the configuration, connects to the
// database, opens the gateway session, and blocks until the context is
// canceled (or a stop signal is received), then shuts down gracefully.
func (b *Bot) Run(ctx context.Context) error {
	// prevents concurrent runs
	b.runMu.Lock()
	defer b.runMu.Unlock()

	b.startedAt = time.Now()
	logger := b.logger

	if err := b.ValidateConfig(); err != nil {
		logger.Error("invalid config", tint.Err(err))
		return err
	}

	ctx = WithLogger(ctx, logger)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-b.signalStop:
			logger.Warn("got stop signal, canceling")
			cancel()
		case <-ctx.Done():
			//
		}
	}()

	logger.LogAttrs(ctx, slog.LevelInfo, "starting", slog.Any("config", b.config))

	startCtx, startCancel := context.WithTimeout(ctx, b.config.StartupTimeout)
	defer startCancel()

	if err := b.initDB(startCtx); err != nil {
		logger.Error("database init failed", tint.Err(err))
		return err
	}

	session, err := b.discord.newSession()
	if err != nil {
		logger.Error("error creating discord session", tint.Err(err))
		return err
	}
	b.discord.session = session
	b.dispatcher.session = session

	runtimeWG := &sync.WaitGroup{}

	b.discord.discordgoRemoveHandlerFuncs = append(
		b.discord.discordgoRemoveHandlerFuncs,
		session.AddHandler(b.discord.handlerReady()),
		session.AddHandler(b.discord.handlerConnect()),
		session.AddHandler(b.discord.handlerDisconnect()),
		session.AddHandler(b.discord.handlerResumed()),
		session.AddHandler(
			func(_ *discordgo.Session, m *discordgo.MessageCreate) {
				runtimeWG.Add(1)
				go func() {
					defer runtimeWG.Done()
					b.dispatcher.HandleMessage(ctx, m)
				}()
			},
		),
	)

	if err = session.Open(); err != nil {
		logger.Error("error opening discord session", tint.Err(err))
		return fmt.Errorf("error opening discord session: %w", err)
	}

	if b.api != nil {
		go func() {
			if httpErr := b.api.Serve(ctx); httpErr != nil &&
				!errors.Is(httpErr, http.ErrServerClosed) {
				logger.ErrorContext(ctx, "error serving status API", tint.Err(httpErr))
			}
		}()
	}

	select {
	case b.signalReady <- struct{}{}:
	default:
	}
	logger.InfoContext(ctx, "ready")

	<-ctx.Done()

	return b.shutdown(runtimeWG)
}

// Stop signals a running bot to begin a graceful shutdown.
func (b *Bot) Stop() {
	select {
	case b.signalStop <- struct{}{}:
	default:
	}
}

// initDB connects to the configured database, applies migrations, and
// attaches the guild store to the dispatcher.
func (b *Bot) initDB(ctx context.Context) error {
	dbHandler := tint.NewHandler(
		defaultLogWriter, &tint.Options{
			Level:     b.config.DatabaseLogLevel,
			AddSource: true,
		},
	)
	db, err := CreateDB(
		ctx,
		b.config.DatabaseType,
		b.config.Database,
		dbHandler,
		b.config.DatabaseSlowThreshold,
	)
	if err != nil {
		return err
	}
	b.db = db
	b.store = NewGuildStore(
		db,
		b.logger,
		b.config.Discord.DefaultPrefix,
		b.config.DatabaseType == dbTypePostgres,
	)
	b.dispatcher.store = b.store
	return nil
}

// shutdown closes the gateway session and the status API, then waits for
// in-flight message handlers, bounded by the shutdown timeout.
func (b *Bot) shutdown(runtimeWG *sync.WaitGroup) error {
	logger := b.logger
	logger.Warn("shutting down")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		b.config.ShutdownTimeout,
	)
	defer cancel()

	for _, removeHandler := range b.discord.discordgoRemoveHandlerFuncs {
		removeHandler()
	}

	if b.discord.session != nil {
		if err := b.discord.session.Close(); err != nil {
			logger.Error("error closing discord session", tint.Err(err))
		}
	}

	if b.api != nil {
		if err := b.api.Shutdown(shutdownCtx); err != nil {
			logger.Error("error shutting down status API", tint.Err(err))
		}
	}

	done := make(chan struct{})
	go func() {
		runtimeWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
		return nil
	case <-shutdownCtx.Done():
		logger.Error("shutdown timed out with handlers still in flight")
		return shutdownCtx.Err()
	}
}
