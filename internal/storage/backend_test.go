package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runBackendSuite exercises the Backend contract shared by every implementation.
func runBackendSuite(t *testing.T, newBackend func(t *testing.T) Backend) {
	t.Run("get_missing_returns_not_found", func(t *testing.T) {
		b := newBackend(t)
		_, err := b.Get(context.Background(), "nope")
		assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
	})

	t.Run("set_get_overwrite", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		require.NoError(t, b.Set(ctx, "k", []byte("v1")))
		got, err := b.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)

		require.NoError(t, b.Set(ctx, "k", []byte("v2")))
		got, err = b.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)
	})

	t.Run("del", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		require.NoError(t, b.Set(ctx, "a", []byte("1")))
		require.NoError(t, b.Set(ctx, "b", []byte("2")))
		require.NoError(t, b.Del(ctx, "a", "b", "missing"))
		_, err := b.Get(ctx, "a")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = b.Get(ctx, "b")
		assert.ErrorIs(t, err, ErrNotFound)
		require.NoError(t, b.Del(ctx))
	})

	t.Run("set_membership", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		members, err := b.SMembers(ctx, "idx")
		require.NoError(t, err)
		assert.Empty(t, members)

		require.NoError(t, b.SAdd(ctx, "idx", "x"))
		require.NoError(t, b.SAdd(ctx, "idx", "y"))
		require.NoError(t, b.SAdd(ctx, "idx", "x"))
		members, err = b.SMembers(ctx, "idx")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"x", "y"}, members)

		require.NoError(t, b.SRem(ctx, "idx", "x"))
		require.NoError(t, b.SRem(ctx, "idx", "absent"))
		members, err = b.SMembers(ctx, "idx")
		require.NoError(t, err)
		assert.Equal(t, []string{"y"}, members)
	})

	t.Run("del_removes_set", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		require.NoError(t, b.SAdd(ctx, "idx", "x"))
		require.NoError(t, b.Del(ctx, "idx"))
		members, err := b.SMembers(ctx, "idx")
		require.NoError(t, err)
		assert.Empty(t, members)
	})

	t.Run("ping", func(t *testing.T) {
		b := newBackend(t)
		assert.NoError(t, b.Ping(context.Background()))
	})
}
