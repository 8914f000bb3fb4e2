// Package config loads stockdash settings from the environment and .env files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cache backends.
const (
	CacheFile   = "file"
	CacheRedis  = "redis"
	CacheMemory = "memory"
)

type Config struct {
	APIURL  string
	Timeout time.Duration
	Cache   CacheConfig
	Log     LogConfig
	Mock    MockConfig
}

type CacheConfig struct {
	Backend       string
	File          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type LogConfig struct {
	Level  string
	File   string
	Format string
}

// MockConfig configures the reference backend started by `stockdash mock-server`.
type MockConfig struct {
	Addr      string
	JWTSecret string
}

// Load reads the configuration. A missing .env file is not an error; the
// process environment is used instead.
func Load(envFiles ...string) (Config, error) {
	_ = godotenv.Load(envFiles...)

	timeout, err := time.ParseDuration(getEnv("STOCKDASH_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid STOCKDASH_TIMEOUT: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("STOCKDASH_REDIS_DB", "0"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid STOCKDASH_REDIS_DB: %w", err)
	}

	cfg := Config{
		APIURL:  getEnv("STOCKDASH_API_URL", "http://localhost:8080"),
		Timeout: timeout,
		Cache: CacheConfig{
			Backend:       strings.ToLower(getEnv("STOCKDASH_CACHE", CacheFile)),
			File:          getEnv("STOCKDASH_CACHE_FILE", defaultCacheFile()),
			RedisAddr:     getEnv("STOCKDASH_REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("STOCKDASH_REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
		Log: LogConfig{
			Level:  getEnv("STOCKDASH_LOG_LEVEL", "warn"),
			File:   getEnv("STOCKDASH_LOG_FILE", ""),
			Format: getEnv("STOCKDASH_LOG_FORMAT", "text"),
		},
		Mock: MockConfig{
			Addr:      getEnv("STOCKDASH_MOCK_ADDR", ":8080"),
			JWTSecret: getEnv("STOCKDASH_JWT_SECRET", "stockdash-dev-secret"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheMemory:
	default:
		return fmt.Errorf("unknown cache backend %q (expected file, redis or memory)", c.Cache.Backend)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

func defaultCacheFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".stockdash", "cache.json")
	}
	return filepath.Join(home, ".stockdash", "cache.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
