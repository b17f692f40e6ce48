package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/semcache/internal/config"
	"github.com/hyperjump/semcache/internal/embedding"
	"github.com/hyperjump/semcache/internal/semcache"
	"github.com/hyperjump/semcache/internal/storage"
	"github.com/hyperjump/semcache/internal/telemetry"
)

const defaultConfigPath = "/usr/local/etc/semcache/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// When neither exists, built-in defaults are used. Returns the config and the path
// that was actually loaded (empty for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg := config.Default()
			config.ApplyEnv(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// openStore connects the configured backend. diskPaths lists the files whose
// size is reported as disk usage.
func openStore(cfg *config.StoreConfig) (store storage.Backend, diskPaths []string, err error) {
	switch cfg.Backend {
	case storage.BackendRedis:
		return storage.NewRedisBackend(storage.RedisOptions{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}), nil, nil
	case storage.BackendSQLite:
		b, err := storage.NewSQLiteBackend(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		return b, storage.SQLiteFiles(cfg.SQLite.Path), nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func providerOptions(cfg *config.EmbeddingConfig) embedding.ProviderOptions {
	return embedding.ProviderOptions{
		Provider:         cfg.Provider,
		ModelDir:         cfg.ModelDir,
		MaxTokens:        cfg.MaxTokens,
		CacheSize:        cfg.CacheSize,
		LibraryPath:      cfg.LibraryPath,
		GeminiAPIKey:     cfg.Gemini.APIKey,
		GeminiModel:      cfg.Gemini.Model,
		GeminiDimensions: cfg.Gemini.Dimensions,
	}
}

// Components holds initialized services.
type Components struct {
	Engine    *semcache.Engine
	Telemetry *telemetry.Provider
	Backend   string
	// DiskPaths are the store files on disk, if any.
	DiskPaths []string
}

func (c *Components) Close() {
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
	if c.Telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.Telemetry.Shutdown(ctx)
	}
}

// initializeComponents opens the store, builds the engine and initializes it.
// withMetrics also creates the Prometheus provider when metrics are enabled.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, withMetrics bool) (*Components, error) {
	store, diskPaths, err := openStore(&cfg.Store)
	if err != nil {
		return nil, err
	}
	c := &Components{Backend: cfg.Store.Backend, DiskPaths: diskPaths}

	opts := []semcache.Option{
		semcache.WithLogger(logger),
		semcache.WithPingTimeout(time.Duration(cfg.Store.ConnectTimeoutSeconds) * time.Second),
	}
	if withMetrics && cfg.Metrics.EnabledOrDefault() {
		c.Telemetry, err = telemetry.NewPrometheusProvider()
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		opts = append(opts, semcache.WithMetrics(c.Telemetry.Metrics()))
	}

	c.Engine, err = semcache.New(semcache.Options{
		Threshold: cfg.Cache.Threshold,
		ModelName: cfg.Embedding.ModelName,
		Namespace: cfg.Cache.Namespace,
	}, store, embedding.NewFactory(providerOptions(&cfg.Embedding), logger), opts...)
	if err != nil {
		_ = store.Close()
		c.Close()
		return nil, err
	}
	if err := c.Engine.Initialize(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	return c, nil
}
