package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Object backends
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Topic post sort orders
const (
	SortOldestToNewest = "oldest_to_newest"
	SortNewestToOldest = "newest_to_oldest"
	SortMostVotes      = "most_votes"
)

// Config holds all configuration for the application
type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Server    ServerConfig
	Ranking   RankingConfig
	Indexer   IndexerConfig
	Logging   LoggingConfig
	Telemetry TelemetryConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
	// Backend selects where post and topic records live
	Backend string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	PoolSize int
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int
	Host string
}

// RankingConfig holds the defaults used by position lookups
type RankingConfig struct {
	DefaultTopicPostSort string
	SettingsCacheSize    int
	SettingsCacheTTL     time.Duration
}

// IndexerConfig holds re-index configuration
type IndexerConfig struct {
	BatchSize  int
	MaxWorkers int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// TelemetryConfig holds observability configuration
type TelemetryConfig struct {
	Enabled           bool
	JaegerURL         string
	PrometheusEnabled bool
	ServiceName       string
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	setDefaults()

	viper.SetEnvPrefix("POSTRANK")
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.postrank")
	viper.AddConfigPath("/etc/postrank")

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found; this is OK if we have env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			URL:     getString("database_url", ""),
			Backend: strings.ToLower(getString("object_backend", BackendRedis)),
		},
		Redis: RedisConfig{
			URL:      getString("redis_url", "redis://localhost:6379/0"),
			PoolSize: getInt("redis_pool_size", 0),
		},
		Server: ServerConfig{
			Port: getInt("http_server_port", 8080),
			Host: getString("http_server_host", "0.0.0.0"),
		},
		Ranking: RankingConfig{
			DefaultTopicPostSort: getString("default_topic_post_sort", SortOldestToNewest),
			SettingsCacheSize:    getInt("settings_cache_size", 1000),
			SettingsCacheTTL:     GetDuration("settings_cache_ttl", time.Minute),
		},
		Indexer: IndexerConfig{
			BatchSize:  getInt("reindex_batch_size", 500),
			MaxWorkers: getInt("max_workers", 4),
		},
		Logging: LoggingConfig{
			Level:  getString("log_level", "INFO"),
			Format: getString("log_format", "json"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           getBool("telemetry_enabled", true),
			JaegerURL:         getString("jaeger_url", ""),
			PrometheusEnabled: getBool("prometheus_enabled", true),
			ServiceName:       getString("service_name", "postrank"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("redis_url", "redis://localhost:6379/0")
	viper.SetDefault("object_backend", BackendRedis)
	viper.SetDefault("http_server_port", 8080)
	viper.SetDefault("http_server_host", "0.0.0.0")
	viper.SetDefault("default_topic_post_sort", SortOldestToNewest)
	viper.SetDefault("settings_cache_size", 1000)
	viper.SetDefault("settings_cache_ttl", time.Minute)
	viper.SetDefault("reindex_batch_size", 500)
	viper.SetDefault("max_workers", 4)
	viper.SetDefault("log_level", "INFO")
	viper.SetDefault("log_format", "json")
	viper.SetDefault("telemetry_enabled", true)
	viper.SetDefault("prometheus_enabled", true)
	viper.SetDefault("service_name", "postrank")
}

func getString(key, defaultValue string) string {
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	if val := os.Getenv("POSTRANK_" + toEnvKey(key)); val != "" {
		return val
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	if val := os.Getenv("POSTRANK_" + toEnvKey(key)); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	if val := os.Getenv("POSTRANK_" + toEnvKey(key)); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultValue
}

func toEnvKey(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Backend {
	case BackendRedis, BackendMemory:
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database_url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown object_backend %q", c.Database.Backend)
	}
	if c.Database.Backend != BackendMemory && c.Redis.URL == "" {
		return fmt.Errorf("redis_url is required")
	}
	switch c.Ranking.DefaultTopicPostSort {
	case SortOldestToNewest, SortNewestToOldest, SortMostVotes:
	default:
		return fmt.Errorf("unknown default_topic_post_sort %q", c.Ranking.DefaultTopicPostSort)
	}
	if c.Ranking.SettingsCacheSize <= 0 {
		return fmt.Errorf("settings_cache_size must be positive")
	}
	if c.Indexer.BatchSize <= 0 || c.Indexer.BatchSize > 5000 {
		return fmt.Errorf("reindex_batch_size must be between 1 and 5000")
	}
	if c.Indexer.MaxWorkers <= 0 || c.Indexer.MaxWorkers > 64 {
		return fmt.Errorf("max_workers must be between 1 and 64")
	}
	return nil
}

// GetDuration returns a duration from config key, with default
func GetDuration(key string, defaultValue time.Duration) time.Duration {
	if viper.IsSet(key) {
		return viper.GetDuration(key)
	}
	return defaultValue
}
