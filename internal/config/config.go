// Package config loads the web frontend configuration from the environment.
// A .env file in the working directory is loaded automatically.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Feed names accepted by SUMMARIES_FEED
const (
	FeedActions = "actions"
	FeedInbox   = "inbox"
)

// Config holds everything the web frontend needs at startup
type Config struct {
	Port   string
	AppEnv string

	// BackendURL is used for server-to-backend calls, PublicBackendURL for
	// browser redirects (the OAuth login hop).
	BackendURL       string
	PublicBackendURL string
	SummariesFeed    string
	BackendTimeout   time.Duration
	BackendService   string

	ConsulAddr     string
	ConsulToken    string
	ConsulRegister bool
	ServiceHost    string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	ClientStateTTL time.Duration

	CORSAllowedOrigins []string
	MetricsEnabled     bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// ShutdownTimeout bounds the graceful drain on SIGINT/SIGTERM
	ShutdownTimeout time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads the configuration from environment variables, applying defaults
func Load() (*Config, error) {
	cfg := &Config{
		Port:           GetEnvOrDefault("PORT", "3000"),
		AppEnv:         GetEnvOrDefault("APP_ENV", "development"),
		BackendURL:     GetEnvOrDefault("BACKEND_URL", "http://localhost:8000"),
		SummariesFeed:  GetEnvOrDefault("SUMMARIES_FEED", FeedActions),
		BackendService: GetEnvOrDefault("BACKEND_SERVICE", "mailliam-api"),
		ConsulAddr:     GetEnvOrDefault("CONSUL_HTTP_ADDR", ""),
		ConsulToken:    GetEnvOrDefault("CONSUL_HTTP_TOKEN", ""),
		ServiceHost:    GetEnvOrDefault("SERVICE_HOST", "localhost"),
		RedisAddr:      GetEnvOrDefault("REDIS_ADDR", ""),
		RedisPassword:  GetEnvOrDefault("REDIS_PASSWORD", ""),
		LogLevel:       GetEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:      GetEnvOrDefault("LOG_FORMAT", "json"),
		CORSAllowedOrigins: splitList(GetEnvOrDefault("CORS_ALLOWED_ORIGINS",
			"http://localhost:3000")),
	}
	cfg.PublicBackendURL = GetEnvOrDefault("PUBLIC_BACKEND_URL", cfg.BackendURL)

	var errs []error
	var err error

	if cfg.BackendTimeout, err = getEnvDuration("BACKEND_TIMEOUT", 10*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.ClientStateTTL, err = getEnvDuration("CLIENT_STATE_TTL", 365*24*time.Hour); err != nil {
		errs = append(errs, err)
	}
	if cfg.ReadTimeout, err = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.WriteTimeout, err = getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.IdleTimeout, err = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		errs = append(errs, err)
	}
	if cfg.ConsulRegister, err = getEnvBool("CONSUL_REGISTER", false); err != nil {
		errs = append(errs, err)
	}
	if cfg.MetricsEnabled, err = getEnvBool("METRICS_ENABLED", true); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return cfg, nil
}

// Validate checks the loaded values for consistency
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}

	if c.ConsulAddr == "" {
		if err := validateURL("BACKEND_URL", c.BackendURL); err != nil {
			return err
		}
	}
	if err := validateURL("PUBLIC_BACKEND_URL", c.PublicBackendURL); err != nil {
		return err
	}

	switch c.SummariesFeed {
	case FeedActions, FeedInbox:
	default:
		return fmt.Errorf("unknown summaries feed %q (want %q or %q)", c.SummariesFeed, FeedActions, FeedInbox)
	}

	if c.BackendTimeout <= 0 {
		return errors.New("BACKEND_TIMEOUT must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.ClientStateTTL <= 0 {
		return errors.New("CLIENT_STATE_TTL must be positive")
	}

	return nil
}

// IsProduction reports whether cookies should be marked Secure
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func validateURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s %q: scheme must be http or https", name, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid %s %q: missing host", name, raw)
	}
	return nil
}
