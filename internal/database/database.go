package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"sportsmatch/internal/config"
	"sportsmatch/internal/logger"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// New opens the configured database, sizes its pool and applies migrations.
func New(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "sqlite":
		log.Info().Str("path", cfg.Database.SQLitePath).Msg("connecting to sqlite")
		dialector = sqlite.Open(cfg.Database.SQLitePath + "?_foreign_keys=on&_busy_timeout=5000")
	default:
		log.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("connecting to postgres")
		dialector = postgres.Open(cfg.GetDSN())
	}

	db, err := Open(dialector, log)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Database.Driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		sqlDB.SetConnMaxIdleTime(2 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(sqlDB, dialect(cfg.Database.Driver), log); err != nil {
		return nil, err
	}

	log.Info().
		Int("max_open", cfg.Database.MaxOpenConns).
		Int("max_idle", cfg.Database.MaxIdleConns).
		Msg("database connection established")
	return db, nil
}

// Open wraps gorm.Open with the shared gorm settings. Timestamps are kept in UTC and
// driver constraint errors are translated to gorm.ErrDuplicatedKey and
// gorm.ErrForeignKeyViolated.
func Open(dialector gorm.Dialector, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.NewGormLogger(log, gormlogger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded goose migrations.
func Migrate(sqlDB *sql.DB, dialect string, log zerolog.Logger) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{log: log.With().Str("component", "goose").Logger()})

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(sqlDB, "migrations"); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}

	log.Info().Msg("migrations completed successfully")
	return nil
}

func dialect(driver string) string {
	if driver == "sqlite" {
		return "sqlite3"
	}
	return "postgres"
}

type gooseLogger struct {
	log zerolog.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Debug().Msgf(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Fatal().Msgf(format, v...)
}
