// Package db opens the PostgreSQL database that records scan runs and keeps its
// schema current.
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/sevigo/diff-warden/internal/config"
)

const connectTimeout = 5 * time.Second

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	// ErrNotConfigured means no database host is set; scan history is disabled.
	ErrNotConfigured = errors.New("database is not configured")
	// ErrDirtySchema means an earlier migration stopped halfway and needs `migrate force`.
	ErrDirtySchema = errors.New("scan_runs schema is dirty")
)

// DB is the scan run database.
type DB struct {
	*sqlx.DB
}

// NewDatabase connects, migrates the scan_runs schema and returns a cleanup that
// closes the pool. The cleanup is never nil.
func NewDatabase(cfg *config.DBConfig, logger *slog.Logger) (*DB, func(), error) {
	noop := func() {}
	if !cfg.Enabled() {
		return nil, noop, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	conn, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, noop, fmt.Errorf("failed to connect to %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := migrateUp(conn.DB, logger); err != nil {
		_ = conn.Close()
		return nil, noop, err
	}

	return &DB{DB: conn}, func() {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}, nil
}

func migrateUp(conn *sql.DB, logger *slog.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to prepare migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to prepare migrations: %w", err)
	}

	from, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case dirty:
		return fmt.Errorf("%w at version %d", ErrDirtySchema, from)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate scan_runs schema: %w", err)
	}
	to, _, _ := m.Version()
	logger.Info("database schema ready", "from_version", from, "version", to)
	return nil
}
