// Package semcache is a semantic cache: responses are stored under the
// embedding of the query that produced them, and a later query is answered
// from the most similar stored query when the cosine similarity reaches the
// configured threshold.
package semcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/semcache/internal/cachekey"
	"github.com/hyperjump/semcache/internal/embedding"
	"github.com/hyperjump/semcache/internal/models"
	"github.com/hyperjump/semcache/internal/storage"
	"github.com/hyperjump/semcache/internal/telemetry"
	"github.com/hyperjump/semcache/internal/vector"
)

// Engine is the cache. Create it with New and call Initialize before use.
// Cache operations take no locks and may run concurrently.
type Engine struct {
	threshold float64
	modelName string
	namespace string

	store       *storage.EntryStore
	factory     embedding.Factory
	logger      *zap.Logger
	metrics     *telemetry.Metrics
	pingTimeout time.Duration
	now         func() time.Time

	// mu serializes Initialize and Close.
	mu       sync.Mutex
	state    atomic.Int32
	embedder embedding.Embedder
}

// Match is the entry a lookup selected.
type Match struct {
	Key       string
	Text      string
	Score     float64
	Response  json.RawMessage
	Timestamp int64
}

// Stats describes the cache contents and configuration.
type Stats struct {
	Entries    int
	Threshold  float64
	ModelName  string
	Dimensions int
	Namespace  string
	// MemoizedEmbeddings counts query embeddings held by the embedder's
	// memo; zero when the embedder does not memoize.
	MemoizedEmbeddings int
}

// memoizer is implemented by embedders that keep a query-embedding memo.
type memoizer interface {
	Len() int
}

// New creates an uninitialized engine over store. The engine owns store and
// closes it on Close. factory is invoked once, by Initialize.
func New(cfg Options, store storage.Backend, factory embedding.Factory, opts ...Option) (*Engine, error) {
	threshold := DefaultThreshold
	if cfg.Threshold != nil {
		threshold = *cfg.Threshold
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}
	if store == nil {
		return nil, errors.New("semcache: nil store")
	}
	if factory == nil {
		return nil, errors.New("semcache: nil embedding factory")
	}
	if cfg.ModelName == "" {
		cfg.ModelName = embedding.DefaultModel
	}
	if cfg.Namespace == "" {
		cfg.Namespace = cachekey.DefaultNamespace
	}

	e := &Engine{
		threshold:   threshold,
		modelName:   cfg.ModelName,
		namespace:   cfg.Namespace,
		store:       storage.NewEntryStore(store, cachekey.IndexKey(cfg.Namespace)),
		factory:     factory,
		logger:      zap.NewNop(),
		pingTimeout: DefaultPingTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Initialize loads the embedding model and checks the store is reachable.
// It is idempotent once it has succeeded; after Close it returns ErrClosed.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.State() {
	case StateReady:
		return nil
	case StateClosed:
		return ErrClosed
	}

	start := time.Now()
	emb, err := e.factory(ctx, e.modelName)
	if err != nil {
		return fmt.Errorf("load embedding model %s: %w", e.modelName, err)
	}
	if err := storage.PingWithBackoff(ctx, e.store.Backend(), e.pingTimeout, e.logger); err != nil {
		_ = emb.Close()
		return fmt.Errorf("connect to store: %w", err)
	}

	e.embedder = emb
	e.state.Store(int32(StateReady))
	e.logger.Info("Semantic cache initialized",
		zap.String("model", emb.ModelName()),
		zap.Int("dimensions", emb.Dimensions()),
		zap.Float64("threshold", e.threshold),
		zap.String("namespace", e.namespace),
		zap.Duration("took", time.Since(start)))
	return nil
}

// Close releases the embedder and the store. Closing twice is a no-op.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.State() == StateClosed {
		return nil
	}
	e.state.Store(int32(StateClosed))

	var errs []error
	if e.embedder != nil {
		if err := e.embedder.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close embedder: %w", err))
		}
	}
	if err := e.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}

// State returns the lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Ready reports whether cache operations are allowed.
func (e *Engine) Ready() bool {
	return e.State() == StateReady
}

// Threshold returns the minimum similarity for a hit.
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// Namespace returns the key prefix.
func (e *Engine) Namespace() string {
	return e.namespace
}

func (e *Engine) checkReady() error {
	switch e.State() {
	case StateReady:
		return nil
	case StateClosed:
		return ErrClosed
	default:
		return ErrNotInitialized
	}
}

// SetCache stores response under the embedding of text, replacing any entry
// for the same text. Writing the entry and indexing it are separate steps;
// a failure between them leaves an entry no lookup will find.
func (e *Engine) SetCache(ctx context.Context, text string, response any) (err error) {
	if err := e.checkReady(); err != nil {
		return err
	}
	defer func() { e.metrics.RecordWrite(ctx, err) }()

	raw, err := encodeResponse(response)
	if err != nil {
		return err
	}
	emb, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed text: %w", err)
	}

	entry := models.NewCacheEntry(text, emb, raw, e.now())
	key := cachekey.Derive(e.namespace, text)
	if err := e.store.PutEntry(ctx, key, entry); err != nil {
		return fmt.Errorf("store entry: %w", err)
	}
	if err := e.store.AddToIndex(ctx, key); err != nil {
		return fmt.Errorf("index entry: %w", err)
	}
	e.logger.Debug("Cached response", zap.String("key", key), zap.String("query", text))
	return nil
}

func encodeResponse(response any) (json.RawMessage, error) {
	if raw, ok := response.(json.RawMessage); ok {
		if !json.Valid(raw) {
			return nil, fmt.Errorf("%w: invalid raw JSON", ErrInvalidResponse)
		}
		return raw, nil
	}
	data, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return data, nil
}

// GetCache returns the response of the most similar cached query when its
// similarity reaches the threshold. A miss returns (nil, false, nil).
func (e *Engine) GetCache(ctx context.Context, text string) (json.RawMessage, bool, error) {
	m, err := e.Lookup(ctx, text)
	if err != nil {
		return nil, false, err
	}
	if m == nil {
		return nil, false, nil
	}
	return m.Response, true, nil
}

// Lookup scans every indexed entry and returns the best one scoring at least
// the threshold, or nil. Of equally scored entries the first enumerated wins.
// Index members whose entry is gone are skipped.
func (e *Engine) Lookup(ctx context.Context, text string) (*Match, error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}
	start := time.Now()
	m, scanned, err := e.scan(ctx, text)
	switch {
	case err != nil:
		e.metrics.RecordLookup(ctx, telemetry.ResultError, time.Since(start), scanned, 0)
		return nil, err
	case m == nil:
		e.metrics.RecordLookup(ctx, telemetry.ResultMiss, time.Since(start), scanned, 0)
		e.logger.Info("Cache miss", zap.String("query", text), zap.Int("scanned", scanned))
		return nil, nil
	default:
		e.metrics.RecordLookup(ctx, telemetry.ResultHit, time.Since(start), scanned, m.Score)
		e.logger.Info("Cache hit",
			zap.String("similarity", fmt.Sprintf("%.2f%%", m.Score*100)),
			zap.String("query", text),
			zap.String("cached", m.Text))
		return m, nil
	}
}

func (e *Engine) scan(ctx context.Context, text string) (*Match, int, error) {
	query, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, 0, fmt.Errorf("embed query: %w", err)
	}
	keys, err := e.store.IndexMembers(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list index: %w", err)
	}

	var (
		best      *Match
		bestScore float64
		scanned   int
	)
	for _, key := range keys {
		entry, err := e.store.GetEntry(ctx, key)
		if err != nil {
			return nil, scanned, fmt.Errorf("fetch entry %s: %w", key, err)
		}
		if entry == nil {
			e.logger.Debug("Skipping stale index member", zap.String("key", key))
			continue
		}
		scanned++
		if len(entry.Embedding) != len(query) {
			return nil, scanned, fmt.Errorf("%w: entry %s has %d dimensions, query has %d",
				ErrDimensionMismatch, key, len(entry.Embedding), len(query))
		}
		score := vector.Cosine(query, entry.Embedding)
		if score > bestScore && score >= e.threshold {
			bestScore = score
			best = &Match{
				Key:       key,
				Text:      entry.Text,
				Score:     score,
				Response:  entry.Response,
				Timestamp: entry.Timestamp,
			}
		}
	}
	return best, scanned, nil
}

// ClearCache deletes every indexed entry, then the index. Entries written
// concurrently may survive as unindexed strays.
func (e *Engine) ClearCache(ctx context.Context) error {
	if err := e.checkReady(); err != nil {
		return err
	}
	keys, err := e.store.IndexMembers(ctx)
	if err != nil {
		return fmt.Errorf("list index: %w", err)
	}
	for _, key := range keys {
		if err := e.store.RemoveEntry(ctx, key); err != nil {
			return fmt.Errorf("delete entry %s: %w", key, err)
		}
	}
	if err := e.store.RemoveIndex(ctx); err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	e.metrics.RecordClear(ctx, len(keys))
	e.logger.Info("Cache cleared", zap.Int("entries", len(keys)))
	return nil
}

// DeleteCache removes the entry stored for exactly text, if any.
func (e *Engine) DeleteCache(ctx context.Context, text string) error {
	if err := e.checkReady(); err != nil {
		return err
	}
	key := cachekey.Derive(e.namespace, text)
	if err := e.store.RemoveEntry(ctx, key); err != nil {
		return fmt.Errorf("delete entry %s: %w", key, err)
	}
	if err := e.store.RemoveFromIndex(ctx, key); err != nil {
		return fmt.Errorf("unindex entry %s: %w", key, err)
	}
	e.metrics.RecordDelete(ctx)
	e.logger.Debug("Deleted cache entry", zap.String("key", key))
	return nil
}

// Embed returns the embedding of text under the loaded model.
func (e *Engine) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}
	return e.embedder.Embed(ctx, text)
}

// Stats returns the index size and the cache configuration.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	if err := e.checkReady(); err != nil {
		return Stats{}, err
	}
	keys, err := e.store.IndexMembers(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list index: %w", err)
	}
	stats := Stats{
		Entries:    len(keys),
		Threshold:  e.threshold,
		ModelName:  e.embedder.ModelName(),
		Dimensions: e.embedder.Dimensions(),
		Namespace:  e.namespace,
	}
	if m, ok := e.embedder.(memoizer); ok {
		stats.MemoizedEmbeddings = m.Len()
	}
	return stats, nil
}

// GetAs looks up text and decodes the cached response into T.
func GetAs[T any](ctx context.Context, e *Engine, text string) (T, bool, error) {
	var out T
	raw, ok, err := e.GetCache(ctx, text)
	if err != nil || !ok {
		return out, false, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false, fmt.Errorf("decode cached response: %w", err)
	}
	return out, true, nil
}
