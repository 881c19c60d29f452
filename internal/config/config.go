// Package config provides configuration loading and validation for the
// preflight server and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Defaults applied by MergeWithDefaults when a field is unset.
const (
	DefaultPort        = 8080
	DefaultSettingsDir = "settings"
	DefaultCacheTTL    = 24 * time.Hour
	DefaultParallelism = 1
	DefaultLinkTimeout = 5 * time.Second
	DefaultSessionIdle = 30 * time.Minute
)

// Duration is a time.Duration that reads and writes as a Go duration
// string such as "24h" or "5s".
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"5s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config represents the preflight configuration that can be loaded from a
// JSON file. Missing values use defaults; environment variables override
// the file.
type Config struct {
	// Server
	Port      int    `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	JWTSecret string `json:"jwt_secret,omitempty"` // Empty disables authentication

	// Storage
	DatabaseURL string `json:"database_url,omitempty" validate:"omitempty,url"` // Postgres; wins over settings_dir
	SettingsDir string `json:"settings_dir,omitempty"`                           // One JSON document per culture
	Site        string `json:"site,omitempty"`                                   // YAML site definition

	// Checking
	CacheTTL        Duration `json:"cache_ttl,omitempty"`
	Parallelism     int      `json:"parallelism,omitempty" validate:"omitempty,min=1,max=64"`
	LinkTimeout     Duration `json:"link_timeout,omitempty"`
	SessionIdle     Duration `json:"session_idle,omitempty"`
	FallbackOnCheck *bool    `json:"fallback_on_check,omitempty"` // Unset means true

	Verbose bool `json:"verbose,omitempty"`
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Load reads the optional config file at path, fills in defaults, applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	merged := cfg.MergeWithDefaults(Defaults())
	if err := merged.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Defaults returns the default configuration.
func Defaults() Config {
	fallback := true
	return Config{
		Port:            DefaultPort,
		SettingsDir:     DefaultSettingsDir,
		CacheTTL:        Duration(DefaultCacheTTL),
		Parallelism:     DefaultParallelism,
		LinkTimeout:     Duration(DefaultLinkTimeout),
		SessionIdle:     Duration(DefaultSessionIdle),
		FallbackOnCheck: &fallback,
	}
}

// ApplyEnv overrides fields from PREFLIGHT_PORT, DATABASE_URL,
// PREFLIGHT_SETTINGS_DIR, PREFLIGHT_SITE and JWT_SECRET.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("PREFLIGHT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PREFLIGHT_PORT: %w", err)
		}
		c.Port = port
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := getenv("PREFLIGHT_SETTINGS_DIR"); v != "" {
		c.SettingsDir = v
	}
	if v := getenv("PREFLIGHT_SITE"); v != "" {
		c.Site = v
	}
	if v := getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	return nil
}

var validate = validator.New()

// Validate checks that the configuration has valid values.
// Note: Required fields depend on the command, so they are checked by
// the caller.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	durations := []struct {
		name  string
		value Duration
	}{
		{"cache_ttl", c.CacheTTL},
		{"link_timeout", c.LinkTimeout},
		{"session_idle", c.SessionIdle},
	}
	for _, d := range durations {
		if d.value < 0 {
			return fmt.Errorf("config error: '%s' must be non-negative", d.name)
		}
	}

	if c.Site != "" {
		if _, err := os.Stat(c.Site); os.IsNotExist(err) {
			return fmt.Errorf("config error: site file not found: %s", c.Site)
		}
	}

	return nil
}

// Fallback reports whether check runs may use a fallback culture's
// settings.
func (c *Config) Fallback() bool {
	return c.FallbackOnCheck == nil || *c.FallbackOnCheck
}

// MergeWithDefaults returns a new Config with unset fields filled from
// defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.SettingsDir == "" {
		result.SettingsDir = defaults.SettingsDir
	}
	if result.Site == "" {
		result.Site = defaults.Site
	}
	if result.JWTSecret == "" {
		result.JWTSecret = defaults.JWTSecret
	}

	// Numeric fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.Parallelism == 0 {
		result.Parallelism = defaults.Parallelism
	}
	if result.CacheTTL == 0 {
		result.CacheTTL = defaults.CacheTTL
	}
	if result.LinkTimeout == 0 {
		result.LinkTimeout = defaults.LinkTimeout
	}
	if result.SessionIdle == 0 {
		result.SessionIdle = defaults.SessionIdle
	}

	if result.FallbackOnCheck == nil {
		result.FallbackOnCheck = defaults.FallbackOnCheck
	}

	// Verbose cannot distinguish unset from false, so the CLI flag wins

	return result
}
