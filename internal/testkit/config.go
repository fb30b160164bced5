// Package testkit provides container-backed infrastructure for integration tests.
package testkit

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config controls how integration test infrastructure is provisioned. All
// fields come from environment variables so CI can point tests at external
// services instead of spinning up containers.
type Config struct {
	PGImage        string
	RedisImage     string
	PGDSN          string        // external Postgres; skips the container when set
	RedisAddr      string        // external Redis; skips the container when set
	StartupTimeout time.Duration // max wait for containers to become ready
	KeepContainers bool          // leave containers running after the test run
}

// LoadConfig reads test infrastructure settings from the environment.
func LoadConfig() Config {
	return Config{
		PGImage:        envOrDefault("MKTGW_TEST_PG_IMAGE", "postgres:18.1-alpine"),
		RedisImage:     envOrDefault("MKTGW_TEST_REDIS_IMAGE", "redis:8.4.0-alpine"),
		PGDSN:          os.Getenv("MKTGW_TEST_PG_DSN"),
		RedisAddr:      os.Getenv("MKTGW_TEST_REDIS_ADDR"),
		StartupTimeout: envDurationOrDefault("MKTGW_TEST_STARTUP_TIMEOUT", 90*time.Second),
		KeepContainers: envBoolOrDefault("KEEP_CONTAINERS", false),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDurationOrDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// Accept plain seconds too.
		secs, err2 := strconv.Atoi(v)
		if err2 != nil {
			fmt.Fprintf(os.Stderr, "testkit: invalid value %q for %s (expected duration or seconds), using default %v\n", v, key, def)
			return def
		}
		return time.Duration(secs) * time.Second
	}
	return d
}

func envBoolOrDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "testkit: invalid value %q for %s (expected bool), using default %v\n", v, key, def)
		return def
	}
	return b
}
