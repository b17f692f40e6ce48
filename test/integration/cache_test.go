// Package integration provides end-to-end tests over the HTTP API and a real store.
package integration

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/hyperjump/semcache/internal/cli"
	"github.com/hyperjump/semcache/internal/config"
	"github.com/hyperjump/semcache/internal/embedding"
	"github.com/hyperjump/semcache/internal/semcache"
	"github.com/hyperjump/semcache/internal/server"
	"github.com/hyperjump/semcache/internal/storage"
	"github.com/hyperjump/semcache/internal/telemetry"
)

func mockFactory(opts embedding.ProviderOptions) embedding.Factory {
	opts.Provider = embedding.ProviderMock
	return embedding.NewFactory(opts, nil)
}

func startServer(t *testing.T, store storage.Backend, backendName string, diskPaths ...string) *cli.Client {
	t.Helper()
	provider, err := telemetry.NewPrometheusProvider()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	engine, err := semcache.New(semcache.Options{}, store, mockFactory(embedding.ProviderOptions{CacheSize: 100}),
		semcache.WithMetrics(provider.Metrics()))
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = engine.Close() })

	srv := server.NewServer(engine, &config.ServerConfig{Host: "127.0.0.1", Port: 0}, nil,
		server.WithBackendInfo(backendName, diskPaths...),
		server.WithMetrics("/metrics", provider.Handler()))
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return cli.NewClient(ts.URL)
}

func exerciseCache(t *testing.T, c *cli.Client) {
	ctx := context.Background()

	resp, err := c.Lookup(ctx, "What is the capital of France?")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Hit {
		t.Fatal("expected miss on empty cache")
	}

	if err := c.Store(ctx, "What is the capital of France?", json.RawMessage(`{"answer":"Paris"}`)); err != nil {
		t.Fatal(err)
	}
	if err := c.Store(ctx, "How tall is Everest?", json.RawMessage(`"8849 m"`)); err != nil {
		t.Fatal(err)
	}

	resp, err = c.Lookup(ctx, "What is the capital of France?")
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Hit || resp.Score < 0.999 {
		t.Fatalf("expected exact hit, got %+v", resp)
	}
	var answer struct{ Answer string }
	if err := json.Unmarshal(resp.Response, &answer); err != nil || answer.Answer != "Paris" {
		t.Errorf("response = %s", resp.Response)
	}

	status, err := c.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !status.Ready || status.Entries != 2 {
		t.Errorf("status = %+v", status)
	}
	if status.MemoizedEmbeddings < 2 {
		t.Errorf("memoized embeddings = %d, want at least 2", status.MemoizedEmbeddings)
	}

	if err := c.Delete(ctx, "How tall is Everest?"); err != nil {
		t.Fatal(err)
	}
	if status, _ = c.Status(ctx); status.Entries != 1 {
		t.Errorf("entries after delete = %d, want 1", status.Entries)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	resp, err = c.Lookup(ctx, "What is the capital of France?")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Hit {
		t.Error("expected miss after clear")
	}

	emb, err := c.Embed(ctx, "hello")
	if err != nil {
		t.Fatal(err)
	}
	if emb.Dimensions != 384 {
		t.Errorf("dimensions = %d, want 384", emb.Dimensions)
	}
}

func TestIntegration_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semcache.db")
	store, err := storage.NewSQLiteBackend(path)
	if err != nil {
		t.Fatal(err)
	}
	c := startServer(t, store, storage.BackendSQLite, storage.SQLiteFiles(path)...)
	exerciseCache(t, c)

	status, err := c.Status(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if status.DiskUsage == nil || *status.DiskUsage == 0 {
		t.Errorf("expected disk usage for sqlite, got %+v", status.DiskUsage)
	}
}

func TestIntegration_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	store := storage.NewRedisBackendFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	c := startServer(t, store, storage.BackendRedis)
	exerciseCache(t, c)

	if mr.Exists("cache:keys") {
		t.Error("index set should be gone after clear")
	}
}
