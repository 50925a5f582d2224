package db

import (
	"fmt"
	"net/url"
	"time"

	"marketplace_console_go/config"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the hosted libSQL database when TURSO_DATABASE_URL is set,
// otherwise to the local SQLite file with WAL mode enabled.
// The returned handle is shared by every service; callers own Close.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	// Determine log level based on environment
	logLevel := logger.Info
	if cfg.IsProduction() {
		logLevel = logger.Warn
	}
	gormCfg := &gorm.Config{
		Logger:  logger.Default.LogMode(logLevel),
		NowFunc: UTCNow,
	}

	var dialector gorm.Dialector
	if cfg.UsesTurso() {
		dsn, err := tursoDSN(cfg.TursoDatabaseURL, cfg.TursoAuthToken)
		if err != nil {
			return nil, err
		}
		dialector = sqlite.New(sqlite.Config{DriverName: "libsql", DSN: dsn})
	} else {
		dialector = sqlite.Open(cfg.DBPath + "?_journal_mode=WAL&_foreign_keys=on")
	}

	database, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.UsesTurso() {
		log.Info("database connection established", zap.String("driver", "libsql"))
	} else {
		log.Info("database connection established", zap.String("driver", "sqlite"), zap.String("path", cfg.DBPath))
	}
	return database, nil
}

// UTCNow is gorm's clock. Window queries bind UTC bounds and SQLite compares
// timestamps as text, so every stamped column must be UTC too.
func UTCNow() time.Time {
	return time.Now().UTC()
}

// tursoDSN appends the auth token to the libSQL URL the way the libsql driver expects it.
func tursoDSN(rawURL, token string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid TURSO_DATABASE_URL: %w", err)
	}
	if token != "" {
		q := u.Query()
		q.Set("authToken", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// AutoMigrate runs database migrations for the provided models
func AutoMigrate(database *gorm.DB, models ...interface{}) error {
	if database == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := database.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection
func Close(database *gorm.DB) error {
	if database == nil {
		return nil
	}

	sqlDB, err := database.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}
