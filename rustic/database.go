package rustic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	dbTypeSQLite   = "sqlite"
	dbTypePostgres = "postgres"
)

var (
	sqliteMaxOpenConns    = 1
	sqliteMaxIdleConns    = 1
	sqliteMaxConnLifetime = 5 * time.Minute
	sqliteExecPragma      = []string{
		"pragma journal_mode=WAL;",
		"pragma synchronous = normal;",
		"pragma temp_store = memory;",
		"pragma foreign_keys = ON;",
	}
	dbOperationTimeout = 30 * time.Second
)

// ErrEmptyPrefix is returned by [GuildStore.SetPrefix] when the new prefix
// is empty after normalization. An empty prefix would make every guild
// message a candidate command invocation, so it's rejected outright.
var ErrEmptyPrefix = errors.New("prefix must not be empty")

// ModelUnixTime is an embeddable model with Unix timestamps for
// creation and update, stored in milliseconds.
type ModelUnixTime struct {
	CreatedAt int64 `gorm:"autoCreateTime:milli" json:"created_at,omitempty"`
	UpdatedAt int64 `gorm:"autoUpdateTime:milli" json:"updated_at,omitempty"`
}

// GuildConfig holds per-guild settings: currently just the custom command
// prefix. One row per guild, created the first time an operator sets a
// prefix. A null Prefix means "use the default".
type GuildConfig struct {
	GuildID string  `gorm:"primaryKey;column:guild_id" json:"guild_id"`
	Prefix  *string `gorm:"column:prefix" json:"prefix,omitempty"`
	ModelUnixTime
}

func (GuildConfig) TableName() string {
	return "guilds"
}

func (g GuildConfig) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("guild_id", g.GuildID)}
	if g.Prefix != nil {
		attrs = append(attrs, slog.String("prefix", *g.Prefix))
	}
	return slog.GroupValue(attrs...)
}

// GuildStore reads and writes per-guild configuration.
//
// Reads degrade rather than fail: GetPrefix always returns a usable prefix,
// falling back to the configured default when no row exists or the database
// is unreachable. Writes surface their errors, since the invoking command
// must report failure to the user.
//
// When concurrent writes are disabled (SQLite), a mutex serializes write
// operations, mirroring how the rest of the bot treats the write path.
type GuildStore struct {
	db                     *gorm.DB
	mu                     sync.Mutex
	logger                 *slog.Logger
	defaultPrefix          string
	enableConcurrentWrites bool
}

// NewGuildStore initializes a GuildStore on the given GORM connection.
func NewGuildStore(
	db *gorm.DB,
	log *slog.Logger,
	defaultPrefix string,
	enableConcurrentWrites bool,
) *GuildStore {
	if log == nil {
		log = slog.Default()
	}
	return &GuildStore{
		db:                     db,
		logger:                 log.With(loggerNameKey, "guild_store"),
		defaultPrefix:          defaultPrefix,
		enableConcurrentWrites: enableConcurrentWrites,
	}
}

// GetPrefix returns the stored prefix for the given guild, or the default
// prefix if no row exists, the row has no prefix set, or the query fails.
// Query failures are logged and never propagated - prefix resolution must
// not block message handling.
func (s *GuildStore) GetPrefix(ctx context.Context, guildID string) string {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dbOperationTimeout)
		defer cancel()
	}

	var guild GuildConfig
	err := s.db.WithContext(ctx).Take(&guild, "guild_id = ?", guildID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.defaultPrefix
	case err != nil:
		s.logger.ErrorContext(
			ctx,
			"couldn't query guild prefix, using default",
			"guild_id", guildID,
			tint.Err(err),
		)
		return s.defaultPrefix
	}
	if guild.Prefix == nil || *guild.Prefix == "" {
		return s.defaultPrefix
	}
	return *guild.Prefix
}

// SetPrefix upserts the prefix for the given guild. The prefix is trimmed
// of surrounding whitespace; an empty result is rejected with
// [ErrEmptyPrefix]. Storage errors are returned to the caller.
func (s *GuildStore) SetPrefix(
	ctx context.Context,
	guildID string,
	prefix string,
) error {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return ErrEmptyPrefix
	}

	if !s.enableConcurrentWrites {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dbOperationTimeout)
		defer cancel()
	}

	guild := GuildConfig{GuildID: guildID, Prefix: &prefix}
	rv := s.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "guild_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"prefix", "updated_at"}),
		},
	).Create(&guild)
	if rv.Error != nil {
		s.logger.ErrorContext(
			ctx,
			"error upserting guild prefix",
			"guild", guild,
			tint.Err(rv.Error),
		)
		return rv.Error
	}
	s.logger.InfoContext(ctx, "updated guild prefix", "guild", guild)
	return nil
}

// CreateDB initializes a GORM database connection based on the specified
// database type, and migrates the guild table.
func CreateDB(
	ctx context.Context,
	databaseType string,
	database string,
	handler slog.Handler,
	slowThreshold time.Duration,
) (*gorm.DB, error) {
	gormLogger := newGORMLogger(handler, slowThreshold)
	dbLogger := slog.New(handler)

	dbLogger.InfoContext(
		ctx,
		"initializing database",
		"database_type", databaseType,
		"database", database,
	)
	db, err := getDB(databaseType, database, gormLogger)
	if err != nil {
		return db, err
	}

	if databaseType == dbTypeSQLite {
		sqlDB, sqlErr := db.DB()
		if sqlErr != nil {
			return db, sqlErr
		}
		sqlDB.SetMaxOpenConns(sqliteMaxOpenConns)
		sqlDB.SetMaxIdleConns(sqliteMaxIdleConns)
		sqlDB.SetConnMaxLifetime(sqliteMaxConnLifetime)
		for _, pragma := range sqliteExecPragma {
			if execErr := db.WithContext(ctx).Exec(pragma).Error; execErr != nil {
				return db, fmt.Errorf("error executing %q: %w", pragma, execErr)
			}
		}
	}

	if err = db.WithContext(ctx).Migrator().AutoMigrate(&GuildConfig{}); err != nil {
		return db, err
	}
	return db, nil
}

// getDB opens a GORM connection for 'sqlite' or 'postgres'.
func getDB(
	databaseType string,
	database string,
	gormLogger *gormStructuredLogger,
) (*gorm.DB, error) {
	switch databaseType {
	case dbTypeSQLite:
		parentDir := filepath.Dir(database)
		if parentDir != "" {
			if err := os.MkdirAll(parentDir, 0755); err != nil {
				if !errors.Is(err, os.ErrExist) {
					return nil, err
				}
			}
		}
		return gorm.Open(
			sqlite.Open(database),
			&gorm.Config{
				Logger: gormLogger,
				NowFunc: func() time.Time {
					return time.Now().UTC()
				},
			},
		)
	case dbTypePostgres:
		return gorm.Open(
			postgres.Open(database), &gorm.Config{
				Logger: gormLogger,
				NowFunc: func() time.Time {
					return time.Now().UTC()
				},
			},
		)
	default:
		return nil, fmt.Errorf(
			"unsupported database type: %s (must be %q or %q)",
			databaseType, dbTypeSQLite, dbTypePostgres,
		)
	}
}
