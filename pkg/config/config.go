// Package config loads runtime settings from the environment and an optional
// .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// Config holds the settings shared by the CLI and library users that want
// environment-driven wiring.
type Config struct {
	GitHubURL   string
	GitHubToken string
	UserAgent   string

	RedisURL string
	RedisDB  int

	PerPage     int
	HTTPTimeout time.Duration
	MaxRetries  int

	LogLevel  string
	LogPretty bool

	// MetricsAddr is the listen address of the /metrics endpoint ("" disables it)
	MetricsAddr string
}

// Load reads the given .env files (".env" when none are named), then the
// environment. Variables already set in the environment win over .env values.
func Load(files ...string) *Config {
	// Missing .env files are fine
	_ = godotenv.Load(files...)

	return &Config{
		GitHubURL:   strings.TrimRight(getEnv("GITHUB_API_URL", "https://api.github.com"), "/"),
		GitHubToken: getEnv("GITHUB_TOKEN", ""),
		UserAgent:   getEnv("USER_AGENT", "jcabi-github/0.1.0"),
		RedisURL:    getEnv("REDIS_URL", "localhost:6379"),
		RedisDB:     getIntEnv("REDIS_DB", 0),
		PerPage:     getIntEnv("PER_PAGE", 30),
		HTTPTimeout: getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:  getIntEnv("MAX_RETRIES", 3),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogPretty:   getBoolEnv("LOG_PRETTY", false),
		MetricsAddr: getEnv("METRICS_ADDR", ""),
	}
}

// Validate reports settings the GitHub API would reject.
func (c *Config) Validate() error {
	if c.UserAgent == "" {
		return fmt.Errorf("USER_AGENT is required")
	}
	if c.PerPage < 1 || c.PerPage > 100 {
		return fmt.Errorf("PER_PAGE must be between 1 and 100 (got %d)", c.PerPage)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("MAX_RETRIES must be >= 1 (got %d)", c.MaxRetries)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive (got %s)", c.HTTPTimeout)
	}
	return nil
}

// RedisOptions turns REDIS_URL into client options. Both a redis:// URL and
// a bare host:port are accepted; REDIS_DB applies to the bare form.
func (c *Config) RedisOptions() (*redis.Options, error) {
	if strings.Contains(c.RedisURL, "://") {
		opts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: c.RedisURL, DB: c.RedisDB}, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		// Try parsing as duration string (e.g. "1m", "60s")
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		// Try parsing as integer seconds
		if i, err := strconv.Atoi(value); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}
