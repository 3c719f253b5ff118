package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"minewatch/internal/metrics"
	"minewatch/internal/models"
)

// SQLiteStore persists key-value entries in a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite initializes the database connection, creating parent
// directories and the schema as needed.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// The modernc driver is single-writer; one connection avoids
	// SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(5 * time.Minute)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// initSchema ensures the kv table exists.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	stmt := `CREATE TABLE IF NOT EXISTS kv_entries (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	);`

	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	return nil
}

// Get returns the payload stored under key, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()

	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv_entries WHERE key = ?`, key,
	).Scan(&value)

	metrics.StoreOpDuration.WithLabelValues("get").Observe(time.Since(start).Seconds())

	if errors.Is(err, sql.ErrNoRows) {
		metrics.StoreOpsTotal.WithLabelValues("get", "ok").Inc()
		return nil, ErrNotFound
	}

	if err != nil {
		metrics.StoreOpsTotal.WithLabelValues("get", "error").Inc()
		return nil, fmt.Errorf("%w: get %q: %v", models.ErrStorage, key, err)
	}

	metrics.StoreOpsTotal.WithLabelValues("get", "ok").Inc()

	return value, nil
}

// Set stores the payload under key, replacing any previous value.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value, updated_at)
		 VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		 ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		key, value,
	)

	metrics.StoreOpDuration.WithLabelValues("set").Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.StoreOpsTotal.WithLabelValues("set", "error").Inc()
		return fmt.Errorf("%w: set %q: %v", models.ErrStorage, key, err)
	}

	metrics.StoreOpsTotal.WithLabelValues("set", "ok").Inc()

	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
