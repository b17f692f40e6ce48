package embedding

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the memo capacity used when none is configured.
const DefaultCacheSize = 10000

// CachingEmbedder memoizes embeddings by text in an LRU and collapses
// concurrent requests for the same text into one call to the wrapped embedder.
// Returned slices are copies.
type CachingEmbedder struct {
	Embedder
	cache *lru.Cache[string, []float32]
	group singleflight.Group
}

// NewCachingEmbedder wraps inner with a memo of size entries.
func NewCachingEmbedder(inner Embedder, size int) (*CachingEmbedder, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &CachingEmbedder{Embedder: inner, cache: cache}, nil
}

// Embed returns the memoized embedding of text, computing it on a miss.
// Concurrent callers for the same text share one call, which ignores
// cancellation of the caller that started it. A caller whose ctx is done
// returns ctx.Err() without affecting the others.
func (c *CachingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := c.cache.Get(text); ok {
		return clone(cached), nil
	}
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(text, func() (any, error) {
		emb, err := c.Embedder.Embed(shared, text)
		if err != nil {
			return nil, err
		}
		c.cache.Add(text, emb)
		return emb, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return clone(res.Val.([]float32)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of memoized embeddings.
func (c *CachingEmbedder) Len() int {
	return c.cache.Len()
}

// Close purges the memo and closes the wrapped embedder.
func (c *CachingEmbedder) Close() error {
	c.cache.Purge()
	return c.Embedder.Close()
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
