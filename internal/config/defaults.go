package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "redis"
	}
	if cfg.Store.Redis.Host == "" {
		cfg.Store.Redis.Host = "localhost"
	}
	if cfg.Store.Redis.Port == 0 {
		cfg.Store.Redis.Port = 6379
	}
	if cfg.Store.SQLite.Path == "" {
		cfg.Store.SQLite.Path = "/usr/local/var/semcache/data/semcache.db"
	}
	if cfg.Store.ConnectTimeoutSeconds == 0 {
		cfg.Store.ConnectTimeoutSeconds = 10
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "onnx"
	}
	if cfg.Embedding.ModelName == "" {
		cfg.Embedding.ModelName = "Xenova/all-MiniLM-L6-v2"
	}
	if cfg.Embedding.ModelDir == "" {
		cfg.Embedding.ModelDir = "/usr/local/var/semcache/data/models"
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.Gemini.Model == "" {
		cfg.Embedding.Gemini.Model = "text-embedding-004"
	}
	if cfg.Embedding.Gemini.Dimensions == 0 {
		cfg.Embedding.Gemini.Dimensions = 768
	}
	if cfg.Cache.Namespace == "" {
		cfg.Cache.Namespace = "cache"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
