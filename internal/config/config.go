// Package config loads the service configuration from YAML with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultReadTimeout is the default HTTP read timeout.
	DefaultReadTimeout = 10 * time.Second
	// DefaultWriteTimeout is the default HTTP write timeout.
	DefaultWriteTimeout = 30 * time.Second
	// DefaultAddress is the default HTTP listen address.
	DefaultAddress = ":8080"
)

// Config is the full service configuration.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Admin    AdminConfig    `yaml:"admin"`
	Posting  PostingConfig  `yaml:"posting"`
	Scanning ScanningConfig `yaml:"scanning"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Address      string        `yaml:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// RedisConfig configures the shared Redis client.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AdminConfig holds the operator credential for the trigger surface.
type AdminConfig struct {
	Token string `yaml:"token"`
}

// PostingConfig tunes the posting worker and slot table.
type PostingConfig struct {
	// SlotTimes are the fixed daily posting times in "HH:MM" local time,
	// one per slot index.
	SlotTimes       []string      `yaml:"slot_times"`
	LowWaterMark    int           `yaml:"low_water_mark"`
	ProcessInterval time.Duration `yaml:"process_interval"`
	StalePostingAge time.Duration `yaml:"stale_posting_age"`
}

// ScanningConfig tunes the scan orchestrator runtime.
type ScanningConfig struct {
	AdapterTimeout time.Duration `yaml:"adapter_timeout"`
	RetryAttempts  int           `yaml:"retry_attempts"`
	DailyQuota     int           `yaml:"daily_quota"`
	RatePerSecond  int           `yaml:"rate_per_second"`
	DedupTTL       time.Duration `yaml:"dedup_ttl"`
}

// DefaultSlotTimes is the reference six-slot daily posting table.
var DefaultSlotTimes = []string{"07:00", "10:00", "13:00", "16:00", "19:00", "22:00"}

func setDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = DefaultAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "5432"
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "content"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if len(cfg.Posting.SlotTimes) == 0 {
		cfg.Posting.SlotTimes = append([]string(nil), DefaultSlotTimes...)
	}
	if cfg.Posting.LowWaterMark == 0 {
		cfg.Posting.LowWaterMark = 3
	}
	if cfg.Posting.ProcessInterval == 0 {
		cfg.Posting.ProcessInterval = time.Minute
	}
	if cfg.Posting.StalePostingAge == 0 {
		cfg.Posting.StalePostingAge = 5 * time.Minute
	}
	if cfg.Scanning.AdapterTimeout == 0 {
		cfg.Scanning.AdapterTimeout = 30 * time.Second
	}
	if cfg.Scanning.RetryAttempts == 0 {
		cfg.Scanning.RetryAttempts = 3
	}
	if cfg.Scanning.DailyQuota == 0 {
		cfg.Scanning.DailyQuota = 500
	}
	if cfg.Scanning.RatePerSecond == 0 {
		cfg.Scanning.RatePerSecond = 2
	}
	if cfg.Scanning.DedupTTL == 0 {
		cfg.Scanning.DedupTTL = 30 * 24 * time.Hour
	}
}

func overrideWithEnvVars(cfg *Config) {
	if v := os.Getenv("APP_DEBUG"); v != "" {
		cfg.Debug = parseBool(v)
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		cfg.Server.Address = ":" + v
	}
	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("POSTGRES_PORT"); v != "" {
		cfg.Database.Port = v
	}
	if v := os.Getenv("POSTGRES_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("POSTGRES_DB"); v != "" {
		cfg.Database.DBName = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		cfg.Admin.Token = v
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return errors.New("database.host is required")
	}
	if c.Redis.Addr == "" {
		return errors.New("redis.addr is required")
	}
	if len(c.Posting.SlotTimes) == 0 {
		return errors.New("posting.slot_times must not be empty")
	}
	for i, st := range c.Posting.SlotTimes {
		if _, err := time.Parse("15:04", st); err != nil {
			return fmt.Errorf("posting.slot_times[%d]: %q is not HH:MM", i, st)
		}
	}
	if c.Posting.LowWaterMark < 0 {
		return errors.New("posting.low_water_mark must not be negative")
	}
	if c.Scanning.AdapterTimeout <= 0 {
		return errors.New("scanning.adapter_timeout must be positive")
	}
	return nil
}

// Load reads, defaults, env-overrides and validates the configuration.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	setDefaults(&cfg)
	overrideWithEnvVars(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// parseBool accepts "true", "1", "yes" (case-insensitive) as true.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}
