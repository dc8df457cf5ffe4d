package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"scribblescan/pkg/config"
)

// Open connects to the embedded per-device database and ensures the
// schema exists. The connection pool is pinned to a single connection:
// SQLite has one writer anyway and serializing everything through one
// connection is what keeps position assignment race-free.
func Open(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}

	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info("Database opened", zap.String("path", cfg.Path))

	return db, nil
}

// Timestamps are stored as fixed-width UTC ISO-8601 strings so that
// lexicographic order equals chronological order.
func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS doc(
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		page_count INTEGER NOT NULL DEFAULT 0
	)
	`)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS page(
		id TEXT NOT NULL PRIMARY KEY,
		doc_id TEXT NOT NULL REFERENCES doc(id),
		position INTEGER NOT NULL,
		text TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(doc_id, position)
	)
	`)
	return err
}
