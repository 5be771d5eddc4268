package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Log     LogConfig
	Pricing PricingConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `envconfig:"SERVER_PORT" default:"3000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"` // seconds
}

// DBConfig holds database-related configuration.
// WARNING: Default password is for local development only.
// In production, always set DB_PASSWORD via environment variable.
// In production, set DB_SSLMODE to "require" or "verify-full".
type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"` // CHANGE IN PRODUCTION
	Name     string `envconfig:"DB_NAME" default:"membership_db"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"` // Use "require" in production
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns int    `envconfig:"DB_MIN_CONNS" default:"5"`

	// AutoMigrate applies the embedded schema on startup.
	AutoMigrate bool `envconfig:"DB_AUTO_MIGRATE" default:"false"`

	// ConnectRetries is the number of connection attempts made before giving up.
	ConnectRetries int `envconfig:"DB_CONNECT_RETRIES" default:"5"`
}

// DSN returns the PostgreSQL connection string. Credentials are URL-escaped.
func (c DBConfig) DSN() string {
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	q.Set("pool_max_conns", strconv.Itoa(c.MaxConns))
	q.Set("pool_min_conns", strconv.Itoa(c.MinConns))

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// PricingConfig holds pricing engine configuration.
type PricingConfig struct {
	// SettingsCacheTTL is how long resolved discount settings are reused.
	// Zero reads the settings record on every evaluation.
	SettingsCacheTTL time.Duration `envconfig:"PRICING_SETTINGS_CACHE_TTL" default:"0s"`
}

// Load parses environment variables into the Config struct and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings that parse but cannot work together.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if c.DB.MaxConns < 1 {
		errs = append(errs, errors.New("DB_MAX_CONNS must be at least 1"))
	}
	if c.DB.MinConns < 0 || c.DB.MinConns > c.DB.MaxConns {
		errs = append(errs, fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS (%d)", c.DB.MaxConns))
	}
	if c.DB.ConnectRetries < 1 {
		errs = append(errs, errors.New("DB_CONNECT_RETRIES must be at least 1"))
	}
	if c.Pricing.SettingsCacheTTL < 0 {
		errs = append(errs, errors.New("PRICING_SETTINGS_CACHE_TTL must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
