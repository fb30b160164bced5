package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Redis:  RedisConfig{AsynqAddr: "localhost:6379"},
		Cache: CacheConfig{
			Backend:       "memory",
			LiveTTLSec:    30,
			DefaultTTLSec: 120,
			StaleTTLSec:   3600,
		},
		Breaker: BreakerConfig{Threshold: 3, ResetWindowSec: 300},
		Gateway: GatewayConfig{ChainTimeoutSec: 20, BatchLimit: 50, BatchConcurrency: 8},
		Worker:  WorkerConfig{Concurrency: 2, MaxRetry: 2, TimeoutSec: 30, CheckIntervalSec: 5},
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("redis backend requires cache addr", func(t *testing.T) {
		cfg := validConfig()
		cfg.Cache.Backend = "redis"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis.cache_addr")

		cfg.Redis.CacheAddr = "localhost:6380"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown cache backend", func(t *testing.T) {
		cfg := validConfig()
		cfg.Cache.Backend = "memcached"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cache.backend")
	})

	t.Run("stale bound must exceed fresh default", func(t *testing.T) {
		cfg := validConfig()
		cfg.Cache.StaleTTLSec = cfg.Cache.DefaultTTLSec
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "stale_ttl_sec")
	})

	t.Run("database checks only apply when enabled", func(t *testing.T) {
		cfg := validConfig()
		cfg.Database.Enabled = true
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.host")

		cfg.Database = DatabaseConfig{
			Enabled: true, Host: "db", Port: 5432, User: "postgres", Name: "marketgw",
		}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("joined errors report every problem", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Port = 0
		cfg.Breaker.Threshold = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server.port")
		assert.Contains(t, err.Error(), "breaker.threshold")
	})
}
