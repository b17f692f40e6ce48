package storage

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// PingWithBackoff pings b until it answers, ctx is done, or maxElapsed passes.
// A maxElapsed of zero pings exactly once.
func PingWithBackoff(ctx context.Context, b Backend, maxElapsed time.Duration, logger *zap.Logger) error {
	if maxElapsed <= 0 {
		return b.Ping(ctx)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxInterval = 2 * time.Second
	policy.MaxElapsedTime = maxElapsed

	return backoff.RetryNotify(
		func() error { return b.Ping(ctx) },
		backoff.WithContext(policy, ctx),
		func(err error, wait time.Duration) {
			logger.Warn("store not reachable, retrying", zap.Duration("wait", wait), zap.Error(err))
		},
	)
}
