package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "BACKEND_URL", "PUBLIC_BACKEND_URL", "SUMMARIES_FEED",
		"BACKEND_TIMEOUT", "SERVER_SHUTDOWN_TIMEOUT", "REDIS_ADDR", "METRICS_ENABLED", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "http://localhost:8000", cfg.BackendURL)
	assert.Equal(t, cfg.BackendURL, cfg.PublicBackendURL)
	assert.Equal(t, FeedActions, cfg.SummariesFeed)
	assert.Equal(t, 10*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("BACKEND_URL", "http://api.internal:8000")
	t.Setenv("PUBLIC_BACKEND_URL", "https://api.mailliam.app")
	t.Setenv("SUMMARIES_FEED", "inbox")
	t.Setenv("BACKEND_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("SERVER_SHUTDOWN_TIMEOUT", "25s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8088", cfg.Port)
	assert.Equal(t, "https://api.mailliam.app", cfg.PublicBackendURL)
	assert.Equal(t, FeedInbox, cfg.SummariesFeed)
	assert.Equal(t, 3*time.Second, cfg.BackendTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, 25*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("BACKEND_TIMEOUT", "soon")
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKEND_TIMEOUT")
	assert.Contains(t, err.Error(), "REDIS_DB")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:             "3000",
			BackendURL:       "http://localhost:8000",
			PublicBackendURL: "http://localhost:8000",
			SummariesFeed:    FeedActions,
			BackendTimeout:   time.Second,
			ClientStateTTL:   time.Hour,
			ShutdownTimeout:  time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Port = "http" }, wantErr: "invalid port"},
		{name: "port out of range", mutate: func(c *Config) { c.Port = "70000" }, wantErr: "invalid port"},
		{name: "backend without scheme", mutate: func(c *Config) { c.BackendURL = "localhost:8000" }, wantErr: "BACKEND_URL"},
		{
			name: "backend url ignored with consul",
			mutate: func(c *Config) {
				c.BackendURL = ""
				c.ConsulAddr = "localhost:8500"
			},
		},
		{name: "unknown feed", mutate: func(c *Config) { c.SummariesFeed = "rss" }, wantErr: "unknown summaries feed"},
		{name: "zero timeout", mutate: func(c *Config) { c.BackendTimeout = 0 }, wantErr: "BACKEND_TIMEOUT"},
		{name: "zero shutdown timeout", mutate: func(c *Config) { c.ShutdownTimeout = 0 }, wantErr: "SERVER_SHUTDOWN_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
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

func TestValidateEnv(t *testing.T) {
	t.Setenv("MAILLIAM_PRESENT", "yes")
	t.Setenv("MAILLIAM_MISSING", "")

	assert.NoError(t, ValidateEnv([]string{"MAILLIAM_PRESENT"}))

	err := ValidateEnv([]string{"MAILLIAM_PRESENT", "MAILLIAM_MISSING"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAILLIAM_MISSING")
}
