// Package config provides application configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the complete application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Breaker   BreakerConfig
	Gateway   GatewayConfig
	Worker    WorkerConfig
	FMP       FMPConfig       `mapstructure:"fmp"`
	Binance   BinanceConfig   `mapstructure:"binance"`
	Coinbase  CoinbaseConfig  `mapstructure:"coinbase"`
	CoinGecko CoinGeckoConfig `mapstructure:"coingecko"`
	Scrape    ScrapeConfig    `mapstructure:"scrape"`
	Fallback  FallbackConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          int  `mapstructure:"port"`
	ServeSwagger  bool `mapstructure:"serve_swagger"`
	ServeAsynqmon bool `mapstructure:"serve_asynqmon"`
}

// DatabaseConfig holds PostgreSQL connection settings for the quote history
// store. The history store is optional; with Enabled false the gateway runs
// without persistence.
type DatabaseConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	Name               string `mapstructure:"name"`
	SSLMode            string `mapstructure:"sslmode"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSec int    `mapstructure:"conn_max_lifetime_sec"`
	DSN                string
}

// RedisConfig holds connection settings for both Redis instances.
type RedisConfig struct {
	AsynqAddr string `mapstructure:"asynq_addr"` // Redis instance for the Asynq refresh queue (required).
	CacheAddr string `mapstructure:"cache_addr"` // Redis instance for the quote cache (required when cache.backend is redis).
}

// CacheConfig holds quote cache settings.
type CacheConfig struct {
	Backend          string         `mapstructure:"backend"` // "memory" (default) or "redis"
	LiveTTLSec       int            `mapstructure:"live_ttl_sec"`
	DefaultTTLSec    int            `mapstructure:"default_ttl_sec"`
	StaleTTLSec      int            `mapstructure:"stale_ttl_sec"`
	SweepIntervalSec int            `mapstructure:"sweep_interval_sec"` // 0 disables the memory-store janitor
	ClassTTLSec      map[string]int `mapstructure:"class_ttl_sec"`
}

// BreakerConfig holds circuit breaker settings.
type BreakerConfig struct {
	Threshold      int `mapstructure:"threshold"`
	ResetWindowSec int `mapstructure:"reset_window_sec"`
}

// GatewayConfig holds façade settings.
type GatewayConfig struct {
	ChainTimeoutSec  int `mapstructure:"chain_timeout_sec"`
	BatchLimit       int `mapstructure:"batch_limit"`
	BatchConcurrency int `mapstructure:"batch_concurrency"`
}

// WorkerConfig holds background refresh worker settings.
type WorkerConfig struct {
	Concurrency      int `mapstructure:"concurrency"`
	MaxRetry         int `mapstructure:"max_retry"`
	TimeoutSec       int `mapstructure:"timeout_sec"`
	CheckIntervalSec int `mapstructure:"check_interval_sec"`
}

// FMPConfig holds settings for the Financial Modeling Prep adapter.
type FMPConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

// BinanceConfig holds settings for the Binance adapter.
type BinanceConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

// CoinbaseConfig holds settings for the Coinbase adapter.
type CoinbaseConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

// CoinGeckoConfig holds settings for the CoinGecko adapter.
type CoinGeckoConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

// ScrapeConfig holds settings for the scrape-based adapter. It is the most
// brittle source and ships with its own kill switch.
type ScrapeConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	BaseURL    string `mapstructure:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

// FallbackConfig holds overrides for the curated approximate-price table,
// keyed by "class:SYMBOL".
type FallbackConfig struct {
	Overrides map[string]float64 `mapstructure:"overrides"`
}

// LoadConfig reads configuration from config files, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file found or error loading it: %v\n", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Config search paths
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("./internal/config")

	viper.SetEnvPrefix("MKTGW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.serve_swagger", true)
	viper.SetDefault("server.serve_asynqmon", true)
	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.host", "db")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.name", "marketgw")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_open_conns", 10)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime_sec", 300)
	viper.SetDefault("redis.asynq_addr", "redis_asynq:6380")
	viper.SetDefault("redis.cache_addr", "redis_cache:6381")
	viper.SetDefault("cache.backend", "memory")
	viper.SetDefault("cache.live_ttl_sec", 30)
	viper.SetDefault("cache.default_ttl_sec", 120)
	viper.SetDefault("cache.stale_ttl_sec", 3600)
	viper.SetDefault("cache.sweep_interval_sec", 600)
	viper.SetDefault("cache.class_ttl_sec", map[string]int{
		"stock":     60,
		"crypto":    60,
		"forex":     300,
		"index":     120,
		"commodity": 600,
	})
	viper.SetDefault("breaker.threshold", 3)
	viper.SetDefault("breaker.reset_window_sec", 300)
	viper.SetDefault("gateway.chain_timeout_sec", 20)
	viper.SetDefault("gateway.batch_limit", 50)
	viper.SetDefault("gateway.batch_concurrency", 8)
	viper.SetDefault("worker.concurrency", 2)
	viper.SetDefault("worker.max_retry", 2)
	viper.SetDefault("worker.timeout_sec", 30)
	viper.SetDefault("worker.check_interval_sec", 5)
	viper.SetDefault("fmp.base_url", "https://financialmodelingprep.com/api/v3")
	viper.SetDefault("fmp.api_key", "")
	viper.SetDefault("fmp.timeout_sec", 5)
	viper.SetDefault("binance.base_url", "https://api.binance.com")
	viper.SetDefault("binance.timeout_sec", 4)
	viper.SetDefault("coinbase.base_url", "https://api.exchange.coinbase.com")
	viper.SetDefault("coinbase.timeout_sec", 4)
	viper.SetDefault("coingecko.base_url", "https://api.coingecko.com/api/v3")
	viper.SetDefault("coingecko.api_key", "")
	viper.SetDefault("coingecko.timeout_sec", 5)
	viper.SetDefault("scrape.enabled", true)
	viper.SetDefault("scrape.base_url", "https://www.google.com/finance/quote")
	viper.SetDefault("scrape.timeout_sec", 5)

	if err := viper.ReadInConfig(); err != nil {
		// It's okay if no config file, we have defaults and env
		fmt.Printf("Config file not found: %v\n", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetimeSec <= 0 {
		cfg.Database.ConnMaxLifetimeSec = 300
	}

	cfg.Database.DSN = fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.User, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port,
		cfg.Database.Name, cfg.Database.SSLMode)

	return &cfg, nil
}

// Validate checks that all required configuration fields are set and valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be positive, got %d", c.Server.Port))
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, fmt.Errorf("database.host is required when database.enabled"))
		}
		if c.Database.Port <= 0 {
			errs = append(errs, fmt.Errorf("database.port must be positive, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, fmt.Errorf("database.user is required when database.enabled"))
		}
		if c.Database.Name == "" {
			errs = append(errs, fmt.Errorf("database.name is required when database.enabled"))
		}
	}

	if c.Redis.AsynqAddr == "" {
		errs = append(errs, fmt.Errorf("redis.asynq_addr is required (set MKTGW_REDIS_ASYNQ_ADDR)"))
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Redis.CacheAddr == "" {
			errs = append(errs, fmt.Errorf("redis.cache_addr is required when cache.backend is redis (set MKTGW_REDIS_CACHE_ADDR)"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend must be memory or redis, got %q", c.Cache.Backend))
	}

	if c.Cache.LiveTTLSec <= 0 {
		errs = append(errs, fmt.Errorf("cache.live_ttl_sec must be positive, got %d", c.Cache.LiveTTLSec))
	}
	if c.Cache.DefaultTTLSec <= 0 {
		errs = append(errs, fmt.Errorf("cache.default_ttl_sec must be positive, got %d", c.Cache.DefaultTTLSec))
	}
	if c.Cache.StaleTTLSec <= c.Cache.DefaultTTLSec {
		errs = append(errs, fmt.Errorf("cache.stale_ttl_sec (%d) must exceed cache.default_ttl_sec (%d)",
			c.Cache.StaleTTLSec, c.Cache.DefaultTTLSec))
	}

	if c.Breaker.Threshold <= 0 {
		errs = append(errs, fmt.Errorf("breaker.threshold must be positive, got %d", c.Breaker.Threshold))
	}
	if c.Breaker.ResetWindowSec <= 0 {
		errs = append(errs, fmt.Errorf("breaker.reset_window_sec must be positive, got %d", c.Breaker.ResetWindowSec))
	}

	if c.Gateway.ChainTimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("gateway.chain_timeout_sec must be positive, got %d", c.Gateway.ChainTimeoutSec))
	}
	if c.Gateway.BatchLimit <= 0 {
		errs = append(errs, fmt.Errorf("gateway.batch_limit must be positive, got %d", c.Gateway.BatchLimit))
	}

	if c.Worker.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("worker.concurrency must be positive, got %d", c.Worker.Concurrency))
	}
	if c.Worker.MaxRetry < 0 {
		errs = append(errs, fmt.Errorf("worker.max_retry must be non-negative, got %d", c.Worker.MaxRetry))
	}
	if c.Worker.TimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("worker.timeout_sec must be positive, got %d", c.Worker.TimeoutSec))
	}
	if c.Worker.CheckIntervalSec <= 0 {
		errs = append(errs, fmt.Errorf("worker.check_interval_sec must be positive, got %d", c.Worker.CheckIntervalSec))
	}

	return errors.Join(errs...)
}
