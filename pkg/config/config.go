package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process-level configuration.
// Only this package reads environment variables.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Pipeline
	OutputDir    string
	StrategyFile string // optional YAML strategy file, defaults apply when empty
	ScheduleCron string // cron expression for the serve command

	// Browser
	ChromeHeadless bool
	PageWaitTime   time.Duration // max wait for the listing table to render

	// HTTP
	HTTPTimeout     time.Duration
	HTTPMaxRetries  int
	HTTPRetryDelay  time.Duration
	RequestsPerSec  float64

	// Reddit collector
	Reddit RedditConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedditConfig holds Reddit API credentials for the social collector.
type RedditConfig struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		OutputDir:    getEnv("OUTPUT_DIR", "output"),
		StrategyFile: getEnv("STRATEGY_FILE", ""),
		ScheduleCron: getEnv("SCHEDULE_CRON", "0 30 22 * * MON-FRI"),

		ChromeHeadless: getEnvAsBool("CHROME_HEADLESS", true),
		PageWaitTime:   getEnvAsDuration("PAGE_WAIT_TIME", "60s"),

		HTTPTimeout:    getEnvAsDuration("HTTP_TIMEOUT", "30s"),
		HTTPMaxRetries: getEnvAsInt("HTTP_MAX_RETRIES", 3),
		HTTPRetryDelay: getEnvAsDuration("HTTP_RETRY_DELAY", "1s"),
		RequestsPerSec: getEnvAsFloat("REQUESTS_PER_SEC", 4.0),

		Reddit: RedditConfig{
			ClientID:     getEnv("REDDIT_CLIENT_ID", ""),
			ClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),
			Username:     getEnv("REDDIT_USERNAME", ""),
			Password:     getEnv("REDDIT_PASSWORD", ""),
			UserAgent:    getEnv("REDDIT_USER_AGENT", ""),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks that configuration values are usable.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR must not be empty")
	}

	if c.HTTPMaxRetries < 0 {
		return fmt.Errorf("HTTP_MAX_RETRIES must not be negative")
	}

	if c.RequestsPerSec <= 0 {
		return fmt.Errorf("REQUESTS_PER_SEC must be positive")
	}

	return nil
}

// RedditEnabled reports whether all Reddit credentials are present.
func (c *Config) RedditEnabled() bool {
	r := c.Reddit
	return r.ClientID != "" && r.ClientSecret != "" &&
		r.Username != "" && r.Password != "" && r.UserAgent != ""
}

// loadEnvFile tries to load .env from a few likely locations.
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
