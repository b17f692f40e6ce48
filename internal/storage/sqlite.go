package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteBackend implements Backend using SQLite. Set members are returned in
// insertion order.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	inMemory := isMemoryPath(dbPath)
	if !inMemory {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if inMemory {
		// Each connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

const memoryPath = ":memory:"

func isMemoryPath(p string) bool {
	return p == memoryPath || strings.HasPrefix(p, "file::memory:")
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS set_members (
		set_name TEXT NOT NULL,
		member TEXT NOT NULL,
		PRIMARY KEY (set_name, member)
	);

	CREATE INDEX IF NOT EXISTS idx_set_members_set ON set_members(set_name);
	`
	_, err := db.Exec(schema)
	return err
}

// Get returns the value at key, or ErrNotFound.
func (s *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get %s: %w", key, err)
	}
	return value, nil
}

// Set inserts or replaces the value at key.
func (s *SQLiteBackend) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("sqlite set %s: %w", key, err)
	}
	return nil
}

// Del removes values and sets stored under keys.
func (s *SQLiteBackend) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite del: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
			return fmt.Errorf("sqlite del %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM set_members WHERE set_name = ?`, key); err != nil {
			return fmt.Errorf("sqlite del set %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// SAdd adds member to set. Adding an existing member is a no-op.
func (s *SQLiteBackend) SAdd(ctx context.Context, set, member string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO set_members (set_name, member) VALUES (?, ?)`, set, member)
	if err != nil {
		return fmt.Errorf("sqlite sadd %s: %w", set, err)
	}
	return nil
}

// SRem removes member from set.
func (s *SQLiteBackend) SRem(ctx context.Context, set, member string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM set_members WHERE set_name = ? AND member = ?`, set, member)
	if err != nil {
		return fmt.Errorf("sqlite srem %s: %w", set, err)
	}
	return nil
}

// SMembers returns the members of set in insertion order.
func (s *SQLiteBackend) SMembers(ctx context.Context, set string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT member FROM set_members WHERE set_name = ? ORDER BY rowid`, set)
	if err != nil {
		return nil, fmt.Errorf("sqlite smembers %s: %w", set, err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// Ping checks the database connection.
func (s *SQLiteBackend) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}

var _ Backend = (*SQLiteBackend)(nil)
