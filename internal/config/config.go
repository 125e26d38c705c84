// Package config loads and validates client config from env and an optional
// .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds client configuration loaded from the environment.
type Config struct {
	// BaseURL is the Career Compass API base URL.
	BaseURL string `mapstructure:"COMPASS_BASE_URL"`
	// DataFolder is where the encrypted token file lives.
	DataFolder string `mapstructure:"COMPASS_DATA_FOLDER"`
	// TokenPassphrase seals the token file at rest. Required.
	TokenPassphrase string `mapstructure:"COMPASS_TOKEN_PASSPHRASE"`
	// HTTPTimeout bounds each API request (e.g. "30s").
	HTTPTimeout string `mapstructure:"COMPASS_HTTP_TIMEOUT"`
	// CacheTTL is the staleness window for cached query results (e.g. "5m").
	CacheTTL string `mapstructure:"COMPASS_CACHE_TTL"`
	// RedisAddr enables the shared Redis query cache when set (host:port);
	// empty selects the in-memory cache.
	RedisAddr string `mapstructure:"COMPASS_REDIS_ADDR"`
	// RedisPassword is the optional Redis auth password.
	RedisPassword string `mapstructure:"COMPASS_REDIS_PASSWORD"`
	// RedisDB selects the Redis logical database.
	RedisDB int `mapstructure:"COMPASS_REDIS_DB"`
	// LogLevel is the zerolog level name (debug, info, warn, error).
	LogLevel string `mapstructure:"COMPASS_LOG_LEVEL"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment via Viper. Missing .env is ignored. Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("COMPASS_BASE_URL", "http://localhost:8000")
	v.SetDefault("COMPASS_DATA_FOLDER", "./data")
	v.SetDefault("COMPASS_TOKEN_PASSPHRASE", "")
	v.SetDefault("COMPASS_HTTP_TIMEOUT", "30s")
	v.SetDefault("COMPASS_CACHE_TTL", "5m")
	v.SetDefault("COMPASS_REDIS_ADDR", "")
	v.SetDefault("COMPASS_REDIS_PASSWORD", "")
	v.SetDefault("COMPASS_REDIS_DB", 0)
	v.SetDefault("COMPASS_LOG_LEVEL", "info")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.BaseURL == "" {
		return nil, errors.New("config: COMPASS_BASE_URL must be set")
	}
	if cfg.TokenPassphrase == "" {
		return nil, errors.New("config: COMPASS_TOKEN_PASSPHRASE must be set")
	}
	if _, err := time.ParseDuration(cfg.HTTPTimeout); err != nil {
		return nil, errors.New("config: COMPASS_HTTP_TIMEOUT must be a duration like 30s")
	}
	if _, err := time.ParseDuration(cfg.CacheTTL); err != nil {
		return nil, errors.New("config: COMPASS_CACHE_TTL must be a duration like 5m")
	}
	return &cfg, nil
}

// Timeout returns the parsed HTTP timeout.
func (c *Config) Timeout() time.Duration {
	d, _ := time.ParseDuration(c.HTTPTimeout)
	return d
}

// TTL returns the parsed cache TTL.
func (c *Config) TTL() time.Duration {
	d, _ := time.ParseDuration(c.CacheTTL)
	return d
}
