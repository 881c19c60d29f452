package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeConfig(t, `{
		"port": 9090,
		"settings_dir": "/var/lib/preflight",
		"cache_ttl": "1h30m",
		"parallelism": 4,
		"link_timeout": "2s",
		"fallback_on_check": false,
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/var/lib/preflight", cfg.SettingsDir)
	assert.Equal(t, 90*time.Minute, cfg.CacheTTL.Std())
	assert.Equal(t, 4, cfg.Parallelism)
	assert.Equal(t, 2*time.Second, cfg.LinkTimeout.Std())
	assert.False(t, cfg.Fallback())
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{ invalid json }`))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{"cache_ttl": "one day"}`))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("PREFLIGHT_PORT", "7000")
	t.Setenv("PREFLIGHT_SETTINGS_DIR", "")
	t.Setenv("DATABASE_URL", "postgres://preflight@localhost:5432/preflight")
	t.Setenv("PREFLIGHT_SITE", "")
	t.Setenv("JWT_SECRET", "")

	path := writeConfig(t, `{"port": 9090, "parallelism": 2}`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Port, "environment wins over the file")
	assert.Equal(t, 2, cfg.Parallelism)
	assert.Equal(t, DefaultSettingsDir, cfg.SettingsDir)
	assert.Equal(t, DefaultCacheTTL, cfg.CacheTTL.Std())
	assert.Equal(t, DefaultLinkTimeout, cfg.LinkTimeout.Std())
	assert.Equal(t, "postgres://preflight@localhost:5432/preflight", cfg.DatabaseURL)
	assert.True(t, cfg.Fallback())
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv("PREFLIGHT_PORT", "")
	t.Setenv("PREFLIGHT_SETTINGS_DIR", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PREFLIGHT_SITE", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultParallelism, cfg.Parallelism)
}

func TestApplyEnv_InvalidPort(t *testing.T) {
	cfg := Defaults()
	err := cfg.ApplyEnv(func(key string) string {
		if key == "PREFLIGHT_PORT" {
			return "eighty"
		}
		return ""
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "PREFLIGHT_PORT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "port out of range", mutate: func(c *Config) { c.Port = 70000 }, wantErr: "Port"},
		{name: "parallelism too high", mutate: func(c *Config) { c.Parallelism = 1000 }, wantErr: "Parallelism"},
		{name: "bad database url", mutate: func(c *Config) { c.DatabaseURL = "not a url" }, wantErr: "DatabaseURL"},
		{name: "negative timeout", mutate: func(c *Config) { c.LinkTimeout = Duration(-time.Second) }, wantErr: "link_timeout"},
		{name: "missing site file", mutate: func(c *Config) { c.Site = "/nonexistent/site.yaml" }, wantErr: "site file not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	partial := Config{
		Port:        9000,
		SettingsDir: "custom",
	}

	merged := partial.MergeWithDefaults(Defaults())

	assert.Equal(t, 9000, merged.Port)
	assert.Equal(t, "custom", merged.SettingsDir)
	assert.Equal(t, DefaultParallelism, merged.Parallelism)
	assert.Equal(t, DefaultSessionIdle, merged.SessionIdle.Std())
	assert.True(t, merged.Fallback())
}

func TestMergeWithDefaults_KeepsExplicitFalse(t *testing.T) {
	off := false
	partial := Config{FallbackOnCheck: &off}

	merged := partial.MergeWithDefaults(Defaults())
	assert.False(t, merged.Fallback())
}

func TestDuration_MarshalJSON(t *testing.T) {
	data, err := Duration(90 * time.Second).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(data))
}
