// Package config loads the server's YAML configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the config file omits a value.
const (
	defaultListenAddr    = ":8317"
	defaultDatabaseDSN   = "file:data/loyalty.db"
	defaultUserExpiry    = 72 * time.Hour
	defaultAdminExpiry   = 12 * time.Hour
	defaultSweepInterval = 24 * time.Hour
)

// Duration is a time.Duration that unmarshals from YAML strings like "24h".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, errParse := time.ParseDuration(strings.TrimSpace(value.Value))
	if errParse != nil {
		return fmt.Errorf("config: invalid duration %q: %w", value.Value, errParse)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration for the loyalty server.
type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Database string        `yaml:"database"` // GORM DSN, postgres or sqlite.
	Redis    RedisConfig   `yaml:"redis"`
	JWT      JWTConfig     `yaml:"jwt"`
	Logging  LoggingConfig `yaml:"logging"`
	Sweep    SweepConfig   `yaml:"sweep"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// RedisConfig holds the optional notification pub/sub backend. An empty Addr
// disables live push; notifications are then persisted only.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret      string   `yaml:"secret"`
	UserExpiry  Duration `yaml:"user-expiry"`
	AdminExpiry Duration `yaml:"admin-expiry"`
}

// LoggingConfig holds log output settings. An empty File logs to stderr.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAgeDays int    `yaml:"max-age-days"`
}

// SweepConfig holds the background expiry sweep settings.
type SweepConfig struct {
	Interval Duration `yaml:"interval"`
}

// ResolvePath returns the config path from the flag value, the LOYALTY_CONFIG
// environment variable, or the default, in that order.
func ResolvePath(flagValue string) string {
	if p := strings.TrimSpace(flagValue); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv("LOYALTY_CONFIG")); p != "" {
		return p
	}
	return "config.yaml"
}

// Load reads and validates the configuration file.
func Load(path string) (*Config, error) {
	data, errRead := os.ReadFile(path)
	if errRead != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, errRead)
	}

	var cfg Config
	if errDecode := yaml.Unmarshal(data, &cfg); errDecode != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, errDecode)
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		cfg.Server.Addr = defaultListenAddr
	}
	if strings.TrimSpace(cfg.Database) == "" {
		cfg.Database = defaultDatabaseDSN
	}
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, fmt.Errorf("config: jwt.secret is required")
	}
	if cfg.JWT.UserExpiry <= 0 {
		cfg.JWT.UserExpiry = Duration(defaultUserExpiry)
	}
	if cfg.JWT.AdminExpiry <= 0 {
		cfg.JWT.AdminExpiry = Duration(defaultAdminExpiry)
	}
	if cfg.Sweep.Interval <= 0 {
		cfg.Sweep.Interval = Duration(defaultSweepInterval)
	}

	return &cfg, nil
}
