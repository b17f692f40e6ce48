package semcache

import "errors"

var (
	// ErrNotInitialized is returned by cache operations before Initialize succeeds.
	ErrNotInitialized = errors.New("semcache: not initialized")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("semcache: closed")
	// ErrInvalidThreshold is returned by New for a threshold outside [0, 1].
	ErrInvalidThreshold = errors.New("semcache: threshold must be within [0, 1]")
	// ErrInvalidResponse is returned by SetCache when the response cannot be
	// encoded as JSON.
	ErrInvalidResponse = errors.New("semcache: response is not JSON-encodable")
	// ErrDimensionMismatch is returned by a lookup that meets an entry whose
	// embedding length differs from the query's, as happens when a store holds
	// entries written with another model.
	ErrDimensionMismatch = errors.New("semcache: embedding dimension mismatch")
)
