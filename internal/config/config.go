package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Storage driver selection
	Storage StorageConfig

	// Redis configuration (rate limit backend, stats cache)
	Redis RedisConfig

	// View revalidation targets
	Revalidate RevalidateConfig

	// Admin authentication
	Auth AuthConfig

	// Submission rate limiting
	RateLimit RateLimitConfig

	// Duplicate and spam detection
	Abuse AbuseConfig

	// Content bounds
	Content ContentConfig

	// Admin listing pagination
	Pagination PaginationConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	TrustedProxies  []string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	MigrationsPath string
}

// StorageConfig selects the comment/document store
type StorageConfig struct {
	Driver           string // "postgres" or "memory"
	DocumentSeedPath string // JSON seed for the memory driver
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RevalidateConfig holds settings for post-write view revalidation
type RevalidateConfig struct {
	NATSURL    string
	Subject    string
	WebhookURL string
	Timeout    time.Duration
}

// AuthConfig holds admin token verification settings
type AuthConfig struct {
	AdminJWTSecret string
}

// RateLimitConfig holds submission throttling settings
type RateLimitConfig struct {
	Backend         string // "memory" or "redis"
	MaxPerWindow    int
	Window          time.Duration
	ReclaimInterval time.Duration
}

// AbuseConfig holds spam and duplicate detection settings
type AbuseConfig struct {
	SpamScoreThreshold float64
	DuplicateLookback  time.Duration
	ExtraSpamTokens    []string
	StatsCacheTTL      time.Duration
}

// ContentConfig holds comment content bounds
type ContentConfig struct {
	MinLength      int
	MaxLength      int
	MaxDisplayName int
}

// PaginationConfig holds admin listing page sizes
type PaginationConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			RequestTimeout:  getDurationEnv("SERVER_REQUEST_TIMEOUT", 10*time.Second),
			TrustedProxies:  getListEnv("TRUSTED_PROXIES", nil),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			Name:           getEnv("DB_NAME", "law_comments"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:    getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Storage: StorageConfig{
			Driver:           getEnv("STORAGE_DRIVER", "postgres"),
			DocumentSeedPath: getEnv("DOCUMENT_SEED_PATH", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Revalidate: RevalidateConfig{
			NATSURL:    getEnv("NATS_URL", ""),
			Subject:    getEnv("REVALIDATE_SUBJECT", "views.revalidate"),
			WebhookURL: getEnv("REVALIDATE_WEBHOOK_URL", ""),
			Timeout:    getDurationEnv("REVALIDATE_TIMEOUT", 3*time.Second),
		},
		Auth: AuthConfig{
			AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
		},
		RateLimit: RateLimitConfig{
			Backend:         getEnv("RATE_LIMIT_BACKEND", "memory"),
			MaxPerWindow:    getIntEnv("RATE_LIMIT_MAX_PER_WINDOW", 5),
			Window:          getMillisEnv("RATE_LIMIT_WINDOW_MS", time.Minute),
			ReclaimInterval: getMillisEnv("RATE_LIMIT_RECLAIM_INTERVAL_MS", 5*time.Minute),
		},
		Abuse: AbuseConfig{
			SpamScoreThreshold: getFloatEnv("SPAM_SCORE_THRESHOLD", 0.7),
			DuplicateLookback:  getMillisEnv("DUPLICATE_LOOKBACK_WINDOW_MS", 24*time.Hour),
			ExtraSpamTokens:    getListEnv("SPAM_TOKENS", nil),
			StatsCacheTTL:      getDurationEnv("STATS_CACHE_TTL", 30*time.Second),
		},
		Content: ContentConfig{
			MinLength:      getIntEnv("MIN_CONTENT_LENGTH", 3),
			MaxLength:      getIntEnv("MAX_CONTENT_LENGTH", 2000),
			MaxDisplayName: getIntEnv("MAX_DISPLAY_NAME_LENGTH", 100),
		},
		Pagination: PaginationConfig{
			DefaultPageSize: getIntEnv("DEFAULT_PAGE_SIZE", 20),
			MaxPageSize:     getIntEnv("MAX_PAGE_SIZE", 100),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
	case "memory":
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of: postgres, memory")
	}

	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required when RATE_LIMIT_BACKEND=redis")
		}
	default:
		return fmt.Errorf("RATE_LIMIT_BACKEND must be one of: memory, redis")
	}

	if c.RateLimit.MaxPerWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_PER_WINDOW must be positive")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_MS must be positive")
	}
	if c.Content.MinLength < 1 || c.Content.MaxLength < c.Content.MinLength {
		return fmt.Errorf("MIN_CONTENT_LENGTH must be >= 1 and <= MAX_CONTENT_LENGTH")
	}
	if c.Content.MaxDisplayName < 1 {
		return fmt.Errorf("MAX_DISPLAY_NAME_LENGTH must be positive")
	}
	if c.Pagination.DefaultPageSize < 1 || c.Pagination.MaxPageSize < c.Pagination.DefaultPageSize {
		return fmt.Errorf("DEFAULT_PAGE_SIZE must be >= 1 and <= MAX_PAGE_SIZE")
	}
	if c.Abuse.SpamScoreThreshold <= 0 || c.Abuse.SpamScoreThreshold > 1 {
		return fmt.Errorf("SPAM_SCORE_THRESHOLD must be in (0, 1]")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getMillisEnv reads an integer number of milliseconds
func getMillisEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
