package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// generateNodeID creates a unique node ID using hostname and PID
func generateNodeID() string {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "deal"
	}
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}

type Config struct {
	Port        string
	Environment string

	// Database
	DatabaseURL string
	RedisURL    string

	// Sources
	SourcesConfigPath string

	// Ingestion
	IngestConcurrency  int
	IngestFetchTimeout time.Duration
	FetchCacheTTL      time.Duration

	// Snowflake node
	NodeID          string
	SnowflakeWorker int64

	// Feed
	FeedDefaultLimit int
	FeedMaxLimit     int

	// Digest
	DigestDefaultLimit    int
	DigestMaxLimit        int
	DigestMinConfidence   float64
	DigestFloorConfidence float64

	// Rate limits
	SuggestionsPerDevicePerDay int
	VotesPerDevicePerDay       int

	// CORS
	AllowedOrigins []string

	// Scheduler
	SchedulerEnabled bool

	// Logging
	LogLevel string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		// Sources
		SourcesConfigPath: getEnv("SOURCES_CONFIG_PATH", "sources.config.json"),

		// Ingestion
		IngestConcurrency:  getEnvInt("INGEST_CONCURRENCY", 3),
		IngestFetchTimeout: time.Duration(getEnvInt("INGEST_FETCH_TIMEOUT_SEC", 25)) * time.Second,
		FetchCacheTTL:      time.Duration(getEnvInt("FETCH_CACHE_TTL_SEC", 60)) * time.Second,

		// Snowflake node
		NodeID:          getEnv("NODE_ID", generateNodeID()),
		SnowflakeWorker: int64(getEnvInt("SNOWFLAKE_WORKER_ID", 1)),

		// Feed
		FeedDefaultLimit: getEnvInt("FEED_DEFAULT_LIMIT", 20),
		FeedMaxLimit:     getEnvInt("FEED_MAX_LIMIT", 100),

		// Digest
		DigestDefaultLimit:    getEnvInt("DIGEST_DEFAULT_LIMIT", 5),
		DigestMaxLimit:        getEnvInt("DIGEST_MAX_LIMIT", 30),
		DigestMinConfidence:   getEnvFloat("DIGEST_MIN_CONFIDENCE", 75),
		DigestFloorConfidence: getEnvFloat("DIGEST_FLOOR_CONFIDENCE", 50),

		// Rate limits
		SuggestionsPerDevicePerDay: getEnvInt("SUGGESTIONS_PER_DEVICE_PER_DAY", 5),
		VotesPerDevicePerDay:       getEnvInt("VOTES_PER_DEVICE_PER_DAY", 10),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),

		// Scheduler
		SchedulerEnabled: getEnvBool("SCHEDULER_ENABLED", true),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
