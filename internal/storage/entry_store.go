package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/semcache/internal/models"
)

// EntryStore persists cache entries and the index set that lists their keys.
// It adds no atomicity over Backend: writing an entry and indexing it are two
// separate calls.
type EntryStore struct {
	backend  Backend
	indexKey string
}

// NewEntryStore returns an EntryStore whose index set is named indexKey.
func NewEntryStore(backend Backend, indexKey string) *EntryStore {
	return &EntryStore{backend: backend, indexKey: indexKey}
}

// Backend returns the underlying backend.
func (s *EntryStore) Backend() Backend {
	return s.backend
}

// PutEntry writes entry at key, replacing any previous entry.
func (s *EntryStore) PutEntry(ctx context.Context, key string, entry *models.CacheEntry) error {
	data, err := models.MarshalEntry(entry)
	if err != nil {
		return err
	}
	return s.backend.Set(ctx, key, data)
}

// GetEntry returns the entry at key, or nil with no error when the key is absent.
func (s *EntryStore) GetEntry(ctx context.Context, key string) (*models.CacheEntry, error) {
	data, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	entry, err := models.UnmarshalEntry(data)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", key, err)
	}
	return entry, nil
}

// AddToIndex records key in the index. Adding an indexed key is a no-op.
func (s *EntryStore) AddToIndex(ctx context.Context, key string) error {
	return s.backend.SAdd(ctx, s.indexKey, key)
}

// RemoveFromIndex drops key from the index.
func (s *EntryStore) RemoveFromIndex(ctx context.Context, key string) error {
	return s.backend.SRem(ctx, s.indexKey, key)
}

// IndexMembers returns every key currently in the index.
func (s *EntryStore) IndexMembers(ctx context.Context) ([]string, error) {
	return s.backend.SMembers(ctx, s.indexKey)
}

// RemoveEntry deletes the entry at key. It does not touch the index.
func (s *EntryStore) RemoveEntry(ctx context.Context, key string) error {
	return s.backend.Del(ctx, key)
}

// RemoveIndex deletes the index set itself.
func (s *EntryStore) RemoveIndex(ctx context.Context) error {
	return s.backend.Del(ctx, s.indexKey)
}

// Close closes the backend connection.
func (s *EntryStore) Close() error {
	return s.backend.Close()
}
