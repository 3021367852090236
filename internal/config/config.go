// Package config loads service configuration from an optional YAML
// file and the environment. Precedence: built-in defaults, then the
// file, then env vars.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr   string `yaml:"addr"`
	LogDir string `yaml:"log_dir"`
	// LogLevel is a zap level name: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// DatabaseURL selects the postgres store; empty means the embedded
	// sqlite store at SQLitePath.
	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`

	CheckInterval       time.Duration `yaml:"check_interval"`
	SystemInterval      time.Duration `yaml:"system_interval"`
	ProbeTimeout        time.Duration `yaml:"probe_timeout"`
	MaxConcurrentChecks int           `yaml:"max_concurrent_checks"`
	InsecureSkipVerify  bool          `yaml:"insecure_skip_verify"`

	AlertWebhookURL string `yaml:"alert_webhook_url"`
	SlackWebhookURL string `yaml:"slack_webhook_url"`

	SeedFile  string `yaml:"seed_file"`
	WatchSeed bool   `yaml:"watch_seed"`

	RateRPM   int `yaml:"rate_rpm"`
	RateBurst int `yaml:"rate_burst"`
}

func defaults() Config {
	return Config{
		Addr:                ":8000",
		LogDir:              "logs",
		LogLevel:            "info",
		SQLitePath:          "data/monitor.db",
		CheckInterval:       3 * time.Minute,
		SystemInterval:      time.Second,
		ProbeTimeout:        10 * time.Second,
		MaxConcurrentChecks: 10,
	}
}

// Load builds the config. path may be empty; a missing explicit file
// is an error, but no file at all just means env-over-defaults.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// FromEnv builds the config from defaults and environment only.
func FromEnv() Config {
	cfg := defaults()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	c.Addr = getEnv("ADDR", c.Addr)
	c.LogDir = getEnv("LOG_DIR", c.LogDir)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.CheckInterval = parseDuration("CHECK_INTERVAL", c.CheckInterval)
	c.SystemInterval = parseDuration("SYSTEM_INTERVAL", c.SystemInterval)
	c.ProbeTimeout = parseDuration("PROBE_TIMEOUT", c.ProbeTimeout)
	c.MaxConcurrentChecks = parseInt("MAX_CONCURRENT_CHECKS", c.MaxConcurrentChecks)
	c.InsecureSkipVerify = parseBool("INSECURE_SKIP_VERIFY", c.InsecureSkipVerify)
	c.AlertWebhookURL = getEnv("ALERT_WEBHOOK_URL", c.AlertWebhookURL)
	c.SlackWebhookURL = getEnv("SLACK_WEBHOOK_URL", c.SlackWebhookURL)
	c.SeedFile = getEnv("SEED_FILE", c.SeedFile)
	c.WatchSeed = parseBool("WATCH_SEED", c.WatchSeed)
	c.RateRPM = parseInt("RATE_RPM", c.RateRPM)
	c.RateBurst = parseInt("RATE_BURST", c.RateBurst)
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr cannot be empty")
	}
	if c.DatabaseURL == "" && c.SQLitePath == "" {
		return errors.New("either database_url or sqlite_path must be set")
	}
	if c.CheckInterval <= 0 {
		return errors.New("check_interval must be positive")
	}
	if c.SystemInterval <= 0 {
		return errors.New("system_interval must be positive")
	}
	if c.ProbeTimeout <= 0 {
		return errors.New("probe_timeout must be positive")
	}
	if c.MaxConcurrentChecks < 1 {
		return errors.New("max_concurrent_checks must be at least 1")
	}
	if c.RateRPM > 0 && c.RateBurst < 1 {
		return errors.New("rate_burst must be at least 1 when rate limiting is on")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func parseInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func parseDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, defaultValue.String()))
	if err != nil {
		return defaultValue
	}
	return value
}

func parseBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}
