// Package config provides configuration loading and structs for the semcache server and CLI.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted when the file leaves the secret empty.
const (
	EnvRedisPassword = "SEMCACHE_REDIS_PASSWORD"
	EnvGeminiAPIKey  = "GEMINI_API_KEY"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend string       `yaml:"backend"`
	Redis   RedisConfig  `yaml:"redis"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
	// ConnectTimeoutSeconds bounds how long startup retries an unreachable store.
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SQLiteConfig holds the SQLite database location.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`
	ModelName string `yaml:"model_name"`
	ModelDir  string `yaml:"model_dir"`
	MaxTokens int    `yaml:"max_tokens"`
	CacheSize int    `yaml:"cache_size"`
	// LibraryPath points at the onnxruntime shared library; empty uses the system default.
	LibraryPath string       `yaml:"library_path"`
	Gemini      GeminiConfig `yaml:"gemini"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// CacheConfig holds semantic cache settings.
type CacheConfig struct {
	// Threshold is the minimum similarity for a hit. Unset selects 0.85;
	// an explicit 0 is kept.
	Threshold *float64 `yaml:"threshold"`
	Namespace string   `yaml:"namespace"`
}

// ThresholdOrDefault returns the configured threshold, or 0.85 when unset.
func (c *CacheConfig) ThresholdOrDefault() float64 {
	if c.Threshold == nil {
		return 0.85
	}
	return *c.Threshold
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EnabledOrDefault returns whether metrics are served; defaults to true when unset.
func (m *MetricsConfig) EnabledOrDefault() bool {
	if m.Enabled != nil {
		return *m.Enabled
	}
	return true
}

// Load reads and parses the config file at path, expands paths, applies
// environment overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Store.SQLite.Path = expandPath(cfg.Store.SQLite.Path, configDir)
	cfg.Embedding.ModelDir = expandPath(cfg.Embedding.ModelDir, configDir)
	if cfg.Embedding.LibraryPath != "" {
		cfg.Embedding.LibraryPath = expandPath(cfg.Embedding.LibraryPath, configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv fills secrets the file leaves empty from the environment.
func ApplyEnv(cfg *Config) {
	if cfg.Store.Redis.Password == "" {
		cfg.Store.Redis.Password = os.Getenv(EnvRedisPassword)
	}
	if cfg.Embedding.Gemini.APIKey == "" {
		cfg.Embedding.Gemini.APIKey = os.Getenv(EnvGeminiAPIKey)
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Store.Backend {
	case "redis":
		if c.Store.Redis.Port < 1 || c.Store.Redis.Port > 65535 {
			errs = append(errs, fmt.Errorf("store.redis.port %d out of range", c.Store.Redis.Port))
		}
		if c.Store.Redis.DB < 0 {
			errs = append(errs, fmt.Errorf("store.redis.db must not be negative"))
		}
	case "sqlite":
		if c.Store.SQLite.Path == "" {
			errs = append(errs, errors.New("store.sqlite.path is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend %q must be redis or sqlite", c.Store.Backend))
	}
	switch c.Embedding.Provider {
	case "onnx", "gemini", "mock":
	default:
		errs = append(errs, fmt.Errorf("embedding.provider %q must be onnx, gemini or mock", c.Embedding.Provider))
	}
	if c.Embedding.MaxTokens < 2 {
		errs = append(errs, fmt.Errorf("embedding.max_tokens must be at least 2"))
	}
	if th := c.Cache.ThresholdOrDefault(); math.IsNaN(th) || th < 0 || th > 1 {
		errs = append(errs, fmt.Errorf("cache.threshold %v must be within [0, 1]", th))
	}
	if strings.ContainsAny(c.Cache.Namespace, " \t\n") {
		errs = append(errs, fmt.Errorf("cache.namespace %q must not contain whitespace", c.Cache.Namespace))
	}
	if c.Metrics.EnabledOrDefault() && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path %q must start with /", c.Metrics.Path))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// URL returns the base URL clients use to reach the server.
func (s ServerConfig) URL() string {
	return "http://" + s.Addr()
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
