package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
store:
  backend: redis
  redis:
    host: cache.internal
    port: 6380
    db: 2
cache:
  threshold: 0.9
  namespace: llm
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Store.Redis.Host != "cache.internal" || cfg.Store.Redis.Port != 6380 || cfg.Store.Redis.DB != 2 {
		t.Errorf("unexpected redis config: %+v", cfg.Store.Redis)
	}
	if cfg.Cache.ThresholdOrDefault() != 0.9 || cfg.Cache.Namespace != "llm" {
		t.Errorf("unexpected cache config: %+v", cfg.Cache)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if !cfg.Metrics.EnabledOrDefault() {
		t.Error("metrics should default to enabled")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	path := writeConfig(t, `
debug: true
metrics:
  enabled: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
	if cfg.Metrics.EnabledOrDefault() {
		t.Error("metrics should be disabled when set to false")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: sqlite
  sqlite:
    path: "./data/semcache.db"
embedding:
  model_dir: "./models"
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "semcache.db"); cfg.Store.SQLite.Path != want {
		t.Errorf("sqlite path = %s, want %s", cfg.Store.SQLite.Path, want)
	}
	if want := filepath.Join(dir, "models"); cfg.Embedding.ModelDir != want {
		t.Errorf("model_dir = %s, want %s", cfg.Embedding.ModelDir, want)
	}
}

func TestLoad_envOverrides(t *testing.T) {
	t.Setenv(EnvRedisPassword, "from-env")
	t.Setenv(EnvGeminiAPIKey, "key-from-env")

	cfg, err := Load(writeConfig(t, "debug: false\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Redis.Password != "from-env" {
		t.Errorf("redis password = %q", cfg.Store.Redis.Password)
	}
	if cfg.Embedding.Gemini.APIKey != "key-from-env" {
		t.Errorf("gemini key = %q", cfg.Embedding.Gemini.APIKey)
	}

	cfg, err = Load(writeConfig(t, `
store:
  redis:
    password: from-file
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Redis.Password != "from-file" {
		t.Errorf("file value should win over env, got %q", cfg.Store.Redis.Password)
	}
}

func TestLoad_errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, "server: [")); err == nil {
		t.Error("expected error for malformed yaml")
	}
	_, err := Load(writeConfig(t, `
store:
  backend: memcached
cache:
  threshold: 1.5
`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"store.backend", "cache.threshold"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %s", err, want)
		}
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Store.Backend != "redis" || cfg.Store.Redis.Port != 6379 {
		t.Errorf("default store: got %+v", cfg.Store)
	}
	if cfg.Embedding.Provider != "onnx" || cfg.Embedding.ModelName != "Xenova/all-MiniLM-L6-v2" {
		t.Errorf("default embedding: got %+v", cfg.Embedding)
	}
	if cfg.Embedding.MaxTokens != 256 || cfg.Embedding.CacheSize != 10000 {
		t.Errorf("default embedding sizes: got %+v", cfg.Embedding)
	}
	if cfg.Cache.Threshold != nil || cfg.Cache.ThresholdOrDefault() != 0.85 {
		t.Errorf("default threshold: got %v, want unset (0.85)", cfg.Cache.Threshold)
	}
	if cfg.Cache.Namespace != "cache" {
		t.Errorf("default namespace: got %s", cfg.Cache.Namespace)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("default metrics path: got %s", cfg.Metrics.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_thresholdZeroKept(t *testing.T) {
	path := writeConfig(t, `
cache:
  threshold: 0
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.Threshold == nil {
		t.Fatal("explicit threshold 0 should be kept, got unset")
	}
	if got := cfg.Cache.ThresholdOrDefault(); got != 0 {
		t.Errorf("threshold = %v, want 0", got)
	}
}

func TestServerConfig_Addr(t *testing.T) {
	s := ServerConfig{Host: "localhost", Port: 8080}
	if s.Addr() != "localhost:8080" {
		t.Errorf("Addr = %s", s.Addr())
	}
	if s.URL() != "http://localhost:8080" {
		t.Errorf("URL = %s", s.URL())
	}
}
