// Package models defines the cache entry record and the request/response shapes of the API.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// CacheEntry is the unit of persistence: one answered query and its embedding.
// Entries are never mutated in place; a second insert of the same text replaces the record.
type CacheEntry struct {
	Text      string          `json:"text"`
	Embedding []float32       `json:"embedding"`
	Response  json.RawMessage `json:"response"`
	Timestamp int64           `json:"timestamp"` // epoch milliseconds
}

// NewCacheEntry builds an entry stamped with createdAt.
func NewCacheEntry(text string, embedding []float32, response json.RawMessage, createdAt time.Time) *CacheEntry {
	return &CacheEntry{
		Text:      text,
		Embedding: embedding,
		Response:  response,
		Timestamp: createdAt.UnixMilli(),
	}
}

// MarshalEntry encodes e to its JSON wire form.
func MarshalEntry(e *CacheEntry) ([]byte, error) {
	if e == nil {
		return nil, errors.New("nil cache entry")
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	return data, nil
}

// UnmarshalEntry decodes a JSON wire form produced by MarshalEntry (or by any
// writer of the same shape).
func UnmarshalEntry(data []byte) (*CacheEntry, error) {
	var e CacheEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return &e, nil
}
