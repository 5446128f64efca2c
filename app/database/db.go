package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// DB is the single store handle shared by every repository. The schema is
// applied on first use; Initialize may also be called eagerly at startup.
type DB struct {
	*sql.DB
	path string

	mu          sync.Mutex
	initialized bool
}

func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Writes are single-row statements from one user; one connection keeps
	// SQLite free of writer contention.
	sqlDB.SetMaxOpenConns(1)

	return &DB{DB: sqlDB, path: path}, nil
}

func (db *DB) Path() string {
	return db.path
}

// Initialize applies the schema once. Concurrent callers block until the
// first run finishes; a failed run leaves the handle uninitialized so the
// next caller retries.
func (db *DB) Initialize(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.initialized {
		return nil
	}

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	version, dirty, err := RunMigrations(db)
	if err != nil {
		return err
	}

	slog.Debug("Database initialized", "path", db.path, "schema_version", version, "dirty", dirty)
	db.initialized = true

	return nil
}

func (db *DB) ClearAll(ctx context.Context) error {
	if err := db.Initialize(ctx); err != nil {
		return writeErr("clear_all", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return writeErr("clear_all", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"surveys", "vlogs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return writeErr("clear_all", fmt.Errorf("failed to clear %s: %w", table, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return writeErr("clear_all", err)
	}

	slog.Info("All journal data cleared")
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func (db *DB) timestampRange(ctx context.Context, op, query string) (string, string, error) {
	if err := db.Initialize(ctx); err != nil {
		return "", "", readErr(op, err)
	}

	var first, last sql.NullString
	if err := db.QueryRowContext(ctx, query).Scan(&first, &last); err != nil {
		return "", "", readErr(op, err)
	}
	return first.String, last.String, nil
}
