// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	DBDriver       string
	DBPath         string
	DatabaseURL    string
	SweepInterval  time.Duration // 0 disables the periodic sweep
	SweepWorkers   int
	LexiconPath    string
	CORSOrigins    []string
	MetricsEnabled bool
	LogLevel       slog.Level
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	interval, err := getEnvDuration("SWEEP_INTERVAL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBPath:         getEnv("DB_PATH", "./data/convoscore.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		SweepInterval:  interval,
		SweepWorkers:   getEnvInt("SWEEP_WORKERS", 4),
		LexiconPath:    getEnv("LEXICON_PATH", ""),
		CORSOrigins:    getEnvList("CORS_ORIGINS", []string{"*"}),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		LogLevel:       level,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite, postgres or memory, got %q", c.DBDriver)
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be >= 0")
	}
	if c.SweepWorkers <= 0 {
		return fmt.Errorf("SWEEP_WORKERS must be > 0")
	}
	if len(c.CORSOrigins) == 0 {
		return fmt.Errorf("CORS_ORIGINS cannot be empty")
	}
	return nil
}

// SweepEnabled reports whether the periodic sweep worker should run.
func (c *Config) SweepEnabled() bool {
	return c.SweepInterval > 0
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return level, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go duration strings; a bare "0" disables.
func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
