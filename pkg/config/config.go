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

// Config holds all process configuration for the views service
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional: credibility overrides, market caps)
	Database DatabaseConfig

	// Redis (optional: classifier result cache)
	Redis RedisConfig

	// External collaborators
	FinBERT FinBERTConfig
	News    NewsConfig

	// Pipeline
	Pipeline PipelineConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// FinBERTConfig holds the sentiment inference server configuration
type FinBERTConfig struct {
	BaseURL       string
	Timeout       time.Duration
	MinTextLength int // 이보다 짧은 텍스트는 분류하지 않고 0 벡터 반환
	CacheTTL      time.Duration
}

// NewsConfig holds news discovery configuration
type NewsConfig struct {
	BaseURL     string
	Lang        string
	Region      string
	MaxArticles int
	RateLimit   float64 // requests per second
}

// PipelineConfig holds view generation settings
type PipelineConfig struct {
	ViewsConfigPath string // YAML, 비어있으면 viewconfig.Default()
	Concurrency     int
	Schedule        string // cron spec (with seconds)
	Instruments     []string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		FinBERT: FinBERTConfig{
			BaseURL:       getEnv("FINBERT_BASE_URL", "http://localhost:8000"),
			Timeout:       getEnvAsDuration("FINBERT_TIMEOUT", "30s"),
			MinTextLength: getEnvAsInt("FINBERT_MIN_TEXT_LENGTH", 150),
			CacheTTL:      getEnvAsDuration("FINBERT_CACHE_TTL", "24h"),
		},

		News: NewsConfig{
			BaseURL:     getEnv("NEWS_BASE_URL", "https://news.google.com"),
			Lang:        getEnv("NEWS_LANG", "en"),
			Region:      getEnv("NEWS_REGION", "US"),
			MaxArticles: getEnvAsInt("NEWS_MAX_ARTICLES", 5),
			RateLimit:   getEnvAsFloat("NEWS_RATE_LIMIT", 2),
		},

		Pipeline: PipelineConfig{
			ViewsConfigPath: getEnv("VIEWS_CONFIG_PATH", ""),
			Concurrency:     getEnvAsInt("PIPELINE_CONCURRENCY", 4),
			Schedule:        getEnv("PIPELINE_SCHEDULE", "0 30 8 * * 1-5"),
			Instruments:     getEnvAsList("PIPELINE_INSTRUMENTS", "MSFT,GOOGL,TSLA"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.FinBERT.BaseURL == "" {
		return fmt.Errorf("FINBERT_BASE_URL is required")
	}
	if c.FinBERT.MinTextLength < 0 {
		return fmt.Errorf("FINBERT_MIN_TEXT_LENGTH must be >= 0")
	}

	if c.News.MaxArticles <= 0 {
		return fmt.Errorf("NEWS_MAX_ARTICLES must be > 0")
	}
	if c.News.RateLimit <= 0 {
		return fmt.Errorf("NEWS_RATE_LIMIT must be > 0")
	}

	if c.Pipeline.Concurrency <= 0 {
		return fmt.Errorf("PIPELINE_CONCURRENCY must be > 0")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsList(key string, defaultValue string) []string {
	return SplitList(getEnv(key, defaultValue))
}

// SplitList splits a comma separated list, dropping blanks
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
