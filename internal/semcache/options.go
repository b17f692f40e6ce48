package semcache

import (
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/semcache/internal/telemetry"
)

// DefaultThreshold is the minimum similarity for a hit when none is configured.
const DefaultThreshold = 0.85

// DefaultPingTimeout bounds how long Initialize waits for the store.
const DefaultPingTimeout = 10 * time.Second

// Options are the cache settings.
type Options struct {
	// Threshold is the minimum cosine similarity for a hit, in [0, 1].
	// Nil selects DefaultThreshold; zero is a valid threshold.
	Threshold *float64
	// ModelName is passed to the embedding factory. Empty selects
	// embedding.DefaultModel.
	ModelName string
	// Namespace prefixes every key. Empty selects cachekey.DefaultNamespace.
	Namespace string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records cache activity on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithPingTimeout sets how long Initialize retries an unreachable store.
// Zero pings once.
func WithPingTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.pingTimeout = d
	}
}

// WithClock replaces the time source used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
