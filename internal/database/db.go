// Package database persists contact inquiries and assistant topic hits in SQLite.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/protech/repairbot/migrations"

	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

// NewDB opens the inquiry store at dbPath and brings its schema up to date.
func NewDB(dbPath string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open inquiry store: %w", err)
	}

	// One writer at a time; the relay, the purge and the front-ends share it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	version, err := ApplyMigrations(db.DB, ExtractDBNameFromPath(dbPath))
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("Failed to close inquiry store after schema error", "error", closeErr)
		}
		return nil, err
	}

	slog.Info("Inquiry store ready", "path", dbPath, "schema_version", version)
	return db, nil
}

// CloseDB closes the inquiry store, logging rather than returning errors.
func CloseDB(db *sqlx.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		slog.Error("Failed to close inquiry store", "error", err)
		return
	}
	slog.Debug("Inquiry store closed")
}

// ApplyMigrations upgrades the inquiry and topic-hit tables to the latest
// embedded schema and returns the resulting schema version.
func ApplyMigrations(db *sql.DB, dbName string) (uint, error) {
	if db == nil {
		return 0, errors.New("migrate inquiry store: nil connection")
	}
	if dbName == "" {
		return 0, errors.New("migrate inquiry store: empty database name")
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return 0, fmt.Errorf("migrate inquiry store: load embedded schema: %w", err)
	}
	target, err := sqlite.WithInstance(db, &sqlite.Config{DatabaseName: dbName})
	if err != nil {
		return 0, fmt.Errorf("migrate inquiry store: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", source, "sqlite", target)
	if err != nil {
		return 0, fmt.Errorf("migrate inquiry store: %w", err)
	}

	before, _, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("migrate inquiry store: read version: %w", err)
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migrate inquiry store from version %d: %w", before, err)
	}

	after, dirty, err := migrator.Version()
	if err != nil {
		return 0, fmt.Errorf("migrate inquiry store: read version: %w", err)
	}
	if dirty {
		return after, fmt.Errorf("migrate inquiry store: schema version %d is dirty", after)
	}
	if after != before {
		slog.Info("Inquiry store schema upgraded", "from", before, "to", after)
	}
	return after, nil
}

// ExtractDBNameFromPath extracts the database file path from a possibly URL-formatted path.
// This handles both simple file paths and paths with URL-style encoding.
func ExtractDBNameFromPath(path string) string {
	path = strings.TrimPrefix(path, "file:")

	if idx := strings.Index(path, "?"); idx != -1 {
		path = path[:idx]
	}

	if decoded, err := url.PathUnescape(path); err == nil {
		return decoded
	}

	return path
}
