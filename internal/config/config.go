// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/storefront-query/internal/filter"
)

// Config is the top-level application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Primary      PrimaryConfig      `yaml:"primary"`
	VisualSearch VisualSearchConfig `yaml:"visual_search"`
	Filters      FiltersConfig      `yaml:"filters"`
	Storage      StorageConfig      `yaml:"storage"`
	Paging       PagingConfig       `yaml:"paging"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// PrimaryConfig defines the OAuth1-signed catalog backend.
type PrimaryConfig struct {
	BaseURL        string          `yaml:"base_url"`
	ConsumerKey    string          `yaml:"consumer_key"`
	ConsumerSecret string          `yaml:"consumer_secret"`
	AccessToken    string          `yaml:"access_token"`
	TokenSecret    string          `yaml:"token_secret"`
	Timeout        time.Duration   `yaml:"timeout"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig defines catalog API rate limiting settings.
type RateLimitConfig struct {
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"` // 0 disables the daily quota
}

// VisualSearchConfig defines the bearer-authenticated search backend.
type VisualSearchConfig struct {
	DefaultBaseURL  string        `yaml:"default_base_url"`
	Timeout         time.Duration `yaml:"timeout"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// FiltersConfig overrides the parameter names used before the server has
// supplied its own.
type FiltersConfig struct {
	DefaultCategoryParam string            `yaml:"default_category_param"`
	Fallbacks            map[string]string `yaml:"fallbacks"` // dimension -> param name
}

// Resolver builds the filter resolver described by the config.
func (f *FiltersConfig) Resolver() (filter.Resolver, error) {
	r := filter.Resolver{DefaultCategoryParam: f.DefaultCategoryParam}
	if len(f.Fallbacks) == 0 {
		return r, nil
	}

	r.Fallbacks = make(map[filter.Dimension]string, len(f.Fallbacks))
	for name, param := range f.Fallbacks {
		d, err := filter.ParseDimension(name)
		if err != nil {
			return filter.Resolver{}, fmt.Errorf("filters.fallbacks: %w", err)
		}
		r.Fallbacks[d] = param
	}
	return r, nil
}

// StorageConfig selects the key-value backend for session state.
type StorageConfig struct {
	Backend  string         `yaml:"backend"` // bolt, postgres, memory
	Bolt     BoltConfig     `yaml:"bolt"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// BoltConfig defines the local bbolt file.
type BoltConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig defines PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns a PostgreSQL connection string.
func (d *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// PagingConfig bounds multi-page walks.
type PagingConfig struct {
	MaxPages int `yaml:"max_pages"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json, console
}

// Load reads a YAML config file, expands environment variables,
// applies defaults, and validates required fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyPrimaryDefaults(&cfg.Primary)
	applyVisualSearchDefaults(&cfg.VisualSearch)
	applyFiltersDefaults(&cfg.Filters)
	applyStorageDefaults(&cfg.Storage)
	applyPagingDefaults(&cfg.Paging)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "127.0.0.1"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 60 * time.Second
	}
}

func applyPrimaryDefaults(p *PrimaryConfig) {
	if p.Timeout == 0 {
		p.Timeout = 30 * time.Second
	}
	applyRateLimitDefaults(&p.RateLimit)
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.PerSecond == 0 {
		r.PerSecond = 5.0
	}
	if r.Burst == 0 {
		r.Burst = 10
	}
}

func applyVisualSearchDefaults(v *VisualSearchConfig) {
	if v.DefaultBaseURL == "" {
		v.DefaultBaseURL = "https://visual-search.storefront.example.com"
	}
	if v.Timeout == 0 {
		v.Timeout = 30 * time.Second
	}
	if v.RefreshInterval == 0 {
		v.RefreshInterval = time.Minute
	}
}

func applyFiltersDefaults(f *FiltersConfig) {
	if f.DefaultCategoryParam == "" {
		f.DefaultCategoryParam = filter.DefaultCategoryParam
	}
}

func applyStorageDefaults(s *StorageConfig) {
	if s.Backend == "" {
		s.Backend = "bolt"
	}
	if s.Bolt.Path == "" {
		s.Bolt.Path = "data/storefront-query.db"
	}
	if s.Postgres.Port == 0 {
		s.Postgres.Port = 5432
	}
	if s.Postgres.SSLMode == "" {
		s.Postgres.SSLMode = "disable"
	}
}

func applyPagingDefaults(p *PagingConfig) {
	if p.MaxPages == 0 {
		p.MaxPages = 10
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if err := validateAbsoluteURL("primary.base_url", cfg.Primary.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if cfg.Primary.ConsumerKey == "" {
		errs = append(errs, fmt.Errorf("primary.consumer_key is required"))
	}
	if cfg.Primary.ConsumerSecret == "" {
		errs = append(errs, fmt.Errorf("primary.consumer_secret is required"))
	}
	if err := validateAbsoluteURL("visual_search.default_base_url", cfg.VisualSearch.DefaultBaseURL); err != nil {
		errs = append(errs, err)
	}
	if cfg.Primary.RateLimit.DailyLimit < 0 {
		errs = append(errs, fmt.Errorf("primary.rate_limit.daily_limit must not be negative"))
	}
	if cfg.Paging.MaxPages < 0 {
		errs = append(errs, fmt.Errorf("paging.max_pages must not be negative"))
	}
	if _, err := cfg.Filters.Resolver(); err != nil {
		errs = append(errs, err)
	}

	switch cfg.Storage.Backend {
	case "bolt", "memory":
	case "postgres":
		if cfg.Storage.Postgres.Host == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.host is required when backend is postgres"))
		}
		if cfg.Storage.Postgres.Name == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.name is required when backend is postgres"))
		}
		if cfg.Storage.Postgres.User == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.user is required when backend is postgres"))
		}
	default:
		errs = append(
			errs,
			fmt.Errorf(
				"storage.backend must be one of: bolt, postgres, memory (got %q)",
				cfg.Storage.Backend,
			),
		)
	}

	switch cfg.Logging.Format {
	case "text", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be one of: text, json, console (got %q)", cfg.Logging.Format))
	}

	return errors.Join(errs...)
}

func validateAbsoluteURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL (got %q)", field, raw)
	}
	return nil
}
