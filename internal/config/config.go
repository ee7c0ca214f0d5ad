package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode        string // Set via flag, not env
	LogDevelopment bool

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtSecret string
	JwtTTL    time.Duration

	// Server
	ApiPort           string
	ServiceApiPort    string
	CorsAllowedOrigin string

	// Requests
	RequestTTL          time.Duration // PENDING requests older than this expire
	ExpirySweepInterval string        // asynq cron spec
	ChatCacheTTL        time.Duration
	AreaMatchMaxKM      float64

	// Client
	RefreshConcurrency int
	ClientTimeout      time.Duration
	BreakerMaxFailures int
	BreakerTimeout     time.Duration

	// Rate Limiting Defaults
	RateLimitBucketSize int
	RateLimitRefillRate int // tokens per second
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode,
	}

	var err error

	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	getInt := func(key, defaultValue string) (int, error) {
		v, err := strconv.Atoi(getEnv(key, defaultValue))
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return v, nil
	}

	getSeconds := func(key, defaultValue string, unit time.Duration) (time.Duration, error) {
		v, err := strconv.ParseInt(getEnv(key, defaultValue), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return time.Duration(v) * unit, nil
	}

	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "rentals")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.ServiceApiPort = getEnv("SERVICE_API_PORT", "12345")
	cfg.CorsAllowedOrigin = getEnv("CORS_ALLOWED_ORIGIN", "*")
	cfg.ExpirySweepInterval = getEnv("EXPIRY_SWEEP_INTERVAL", "@every 10m")

	cfg.LogDevelopment, err = strconv.ParseBool(getEnv("LOG_DEVELOPMENT", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_DEVELOPMENT: %w", err)
	}

	if cfg.RedisDB, err = getInt("REDIS_DB", "0"); err != nil {
		return nil, err
	}
	if cfg.JwtTTL, err = getSeconds("JWT_TTL_SECONDS", "3600", time.Second); err != nil {
		return nil, err
	}
	if cfg.RequestTTL, err = getSeconds("REQUEST_TTL_HOURS", "72", time.Hour); err != nil {
		return nil, err
	}
	if cfg.ChatCacheTTL, err = getSeconds("CHAT_CACHE_TTL_SECONDS", "60", time.Second); err != nil {
		return nil, err
	}

	cfg.AreaMatchMaxKM, err = strconv.ParseFloat(getEnv("AREA_MATCH_MAX_KM", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid AREA_MATCH_MAX_KM: %w", err)
	}

	if cfg.RefreshConcurrency, err = getInt("REFRESH_CONCURRENCY", "4"); err != nil {
		return nil, err
	}
	if cfg.RefreshConcurrency < 1 {
		return nil, fmt.Errorf("invalid REFRESH_CONCURRENCY: must be at least 1")
	}
	if cfg.ClientTimeout, err = getSeconds("CLIENT_TIMEOUT_SECONDS", "10", time.Second); err != nil {
		return nil, err
	}
	if cfg.BreakerMaxFailures, err = getInt("BREAKER_MAX_FAILURES", "5"); err != nil {
		return nil, err
	}
	if cfg.BreakerTimeout, err = getSeconds("BREAKER_TIMEOUT_SECONDS", "30", time.Second); err != nil {
		return nil, err
	}

	if cfg.RateLimitBucketSize, err = getInt("RATE_LIMIT_BUCKET_SIZE", "20"); err != nil {
		return nil, err
	}
	if cfg.RateLimitRefillRate, err = getInt("RATE_LIMIT_REFILL_RATE", "10"); err != nil {
		return nil, err
	}

	return cfg, nil
}
