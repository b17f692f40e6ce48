// Package storage defines the key-value and set-membership capability the
// cache engine persists through, its Redis and SQLite backends, and the
// entry-level adapter on top of them.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Backend.Get when the key does not exist.
var ErrNotFound = errors.New("storage: key not found")

// Backend is a byte-level key-value store with named sets.
//
// Individual operations are atomic; nothing spans several calls.
type Backend interface {
	// Key-value operations
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Del removes the given keys, whether they hold a value or a set.
	Del(ctx context.Context, keys ...string) error

	// Set operations
	SAdd(ctx context.Context, set, member string) error
	SRem(ctx context.Context, set, member string) error
	SMembers(ctx context.Context, set string) ([]string, error)

	// Connection lifecycle
	Ping(ctx context.Context) error
	Close() error
}

// Backend names accepted in configuration.
const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)
