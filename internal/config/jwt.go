package config

import (
	"fmt"
	"time"
)

// DefaultGroupsClaim is the token claim holding the editor's user groups.
const DefaultGroupsClaim = "groups"

// JWTConfig holds configuration for validating backoffice tokens.
type JWTConfig struct {
	Secret      string
	GroupsClaim string
	Leeway      time.Duration
}

// NewJWTConfig creates a JWT configuration. An empty secret yields a
// configuration with authentication disabled.
func NewJWTConfig(secret string, leeway time.Duration) (*JWTConfig, error) {
	cfg := &JWTConfig{
		Secret:      secret,
		GroupsClaim: DefaultGroupsClaim,
		Leeway:      leeway,
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// JWT returns the token configuration for c.
func (c *Config) JWT() (*JWTConfig, error) {
	return NewJWTConfig(c.JWTSecret, 30*time.Second)
}

// Enabled reports whether tokens are required.
func (c *JWTConfig) Enabled() bool {
	return c != nil && c.Secret != ""
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Leeway < 0 {
		return fmt.Errorf("JWT leeway must not be negative, got: %s", c.Leeway)
	}
	if c.Secret != "" && len(c.Secret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters, got: %d", len(c.Secret))
	}
	return nil
}
