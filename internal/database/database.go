// Package database opens the gorm connection backing the pin catalog.
package database

import (
	"fmt"
	"log/slog"

	"github.com/OCAP2/compass/internal/config"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported catalog types
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Open connects to the backend selected by cfg.Type. An unreachable
// postgres server falls back to the sqlite file so the compass still starts.
func Open(cfg config.CatalogConfig, log *slog.Logger) (*gorm.DB, error) {
	if log == nil {
		log = slog.Default()
	}

	switch cfg.Type {
	case TypeSQLite, "":
		return OpenSqlite(cfg.SQLite.Path, log)
	case TypePostgres:
		db, err := OpenPostgres(cfg.Postgres, log)
		if err == nil {
			return db, nil
		}
		log.Error("Failed to connect to Postgres DB, trying SQLite", "error", err)
		return OpenSqlite(cfg.SQLite.Path, log)
	default:
		return nil, fmt.Errorf("unknown catalog type: %s", cfg.Type)
	}
}

// OpenPostgres returns a connection to the Postgres database and verifies it.
func OpenPostgres(cfg config.PostgresConfig, log *slog.Logger) (*gorm.DB, error) {
	if log == nil {
		log = slog.Default()
	}
	dsn := fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(4)

	log.Info("Connected to Postgres catalog", "host", cfg.Host, "database", cfg.Database)
	return db, nil
}

// OpenSqlite returns a connection to a SQLite database.
// If path is empty, uses a private in-memory database.
func OpenSqlite(path string, log *slog.Logger) (*gorm.DB, error) {
	if log == nil {
		log = slog.Default()
	}
	dsn := path
	if dsn == "" {
		dsn = "file::memory:"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// a single connection keeps an in-memory database alive and shared
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA cache_size = -8000;",
		"PRAGMA temp_store = MEMORY;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	if path == "" {
		log.Info("Using in-memory SQLite catalog")
	} else {
		log.Info("Using local SQLite catalog", "path", path)
	}
	return db, nil
}
