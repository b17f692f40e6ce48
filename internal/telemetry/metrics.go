// Package telemetry records cache metrics with OpenTelemetry and exposes them
// in Prometheus text format.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Lookup outcomes.
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

// Metrics holds the cache instruments. A nil *Metrics records nothing.
type Metrics struct {
	lookups        metric.Int64Counter
	lookupDuration metric.Float64Histogram
	scanned        metric.Int64Histogram
	score          metric.Float64Histogram
	writes         metric.Int64Counter
	deletes        metric.Int64Counter
	clears         metric.Int64Counter
}

// NewMetrics creates the cache instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error
	if m.lookups, err = meter.Int64Counter(
		"semcache.lookup.total",
		metric.WithDescription("Cache lookups by result"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return nil, err
	}
	if m.lookupDuration, err = meter.Float64Histogram(
		"semcache.lookup.duration_ms",
		metric.WithDescription("Lookup duration in milliseconds, embedding included"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.scanned, err = meter.Int64Histogram(
		"semcache.lookup.scanned",
		metric.WithDescription("Entries scored per lookup"),
		metric.WithUnit("{entry}"),
	); err != nil {
		return nil, err
	}
	if m.score, err = meter.Float64Histogram(
		"semcache.lookup.score",
		metric.WithDescription("Similarity of the returned entry on a hit"),
	); err != nil {
		return nil, err
	}
	if m.writes, err = meter.Int64Counter(
		"semcache.write.total",
		metric.WithDescription("Cache writes by result"),
		metric.WithUnit("{write}"),
	); err != nil {
		return nil, err
	}
	if m.deletes, err = meter.Int64Counter(
		"semcache.delete.total",
		metric.WithDescription("Single-entry deletions"),
		metric.WithUnit("{delete}"),
	); err != nil {
		return nil, err
	}
	if m.clears, err = meter.Int64Counter(
		"semcache.clear.entries",
		metric.WithDescription("Entries removed by cache clears"),
		metric.WithUnit("{entry}"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordLookup records one lookup. score is ignored unless result is ResultHit.
func (m *Metrics) RecordLookup(ctx context.Context, result string, duration time.Duration, scanned int, score float64) {
	if m == nil {
		return
	}
	opt := metric.WithAttributes(attribute.String("result", result))
	m.lookups.Add(ctx, 1, opt)
	m.lookupDuration.Record(ctx, float64(duration.Microseconds())/1000.0, opt)
	if result == ResultError {
		return
	}
	m.scanned.Record(ctx, int64(scanned))
	if result == ResultHit {
		m.score.Record(ctx, score)
	}
}

// RecordWrite records one write attempt.
func (m *Metrics) RecordWrite(ctx context.Context, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = ResultError
	}
	m.writes.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordDelete records one single-entry deletion.
func (m *Metrics) RecordDelete(ctx context.Context) {
	if m == nil {
		return
	}
	m.deletes.Add(ctx, 1)
}

// RecordClear records a clear that removed n entries.
func (m *Metrics) RecordClear(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.clears.Add(ctx, int64(n))
}
