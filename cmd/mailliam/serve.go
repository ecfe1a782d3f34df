package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"mailliam/internal/backend"
	"mailliam/internal/config"
	"mailliam/internal/consul"
	"mailliam/internal/logger"
	"mailliam/internal/metrics"
	"mailliam/internal/server"
	"mailliam/internal/session"
	"mailliam/internal/theme"
	"mailliam/internal/web"
)

const serviceName = "mailliam-web"

// serveFlags override the matching environment settings when set
type serveFlags struct {
	port       string
	backendURL string
	feed       string
}

func (f serveFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Port = f.port
	}
	if cmd.Flags().Changed("backend-url") {
		cfg.BackendURL = f.backendURL
		if !cmd.Flags().Changed("public-backend-url") {
			cfg.PublicBackendURL = f.backendURL
		}
	}
	if cmd.Flags().Changed("feed") {
		cfg.SummariesFeed = f.feed
	}
}

func newServeCmd() *cobra.Command {
	var (
		flags            serveFlags
		publicBackendURL string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web frontend",
		Long: `Start the Mailliam web frontend.

Backend:
  BACKEND_URL (or --backend-url) is used for server-side calls and
  PUBLIC_BACKEND_URL for the browser's sign-in redirect. With
  CONSUL_HTTP_ADDR set, the backend is discovered as BACKEND_SERVICE instead.

Client state:
  Theme and saved summary times are kept in Redis when REDIS_ADDR is set,
  in memory otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			flags.apply(cmd, cfg)
			if cmd.Flags().Changed("public-backend-url") {
				cfg.PublicBackendURL = publicBackendURL
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&flags.port, "port", "3000", "Port to listen on (overrides PORT)")
	cmd.Flags().StringVar(&flags.backendURL, "backend-url", "http://localhost:8000", "Backend base URL (overrides BACKEND_URL)")
	cmd.Flags().StringVar(&publicBackendURL, "public-backend-url", "", "Backend URL as seen by browsers (overrides PUBLIC_BACKEND_URL)")
	cmd.Flags().StringVar(&flags.feed, "feed", config.FeedActions, "Summaries feed: actions or inbox (overrides SUMMARIES_FEED)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	logger.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	slog.Info("Starting Mailliam web frontend",
		"version", version,
		"port", cfg.Port,
		"backend_url", cfg.BackendURL,
		"feed", cfg.SummariesFeed,
		"consul_addr", cfg.ConsulAddr,
		"redis_addr", cfg.RedisAddr,
	)

	store := newStore(ctx, cfg)
	state := session.NewManager(store, cfg.ClientStateTTL)

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	var consulClient *consul.Client
	if cfg.ConsulAddr != "" {
		c, err := consul.NewClient(cfg.ConsulAddr, cfg.ConsulToken)
		if err != nil {
			return err
		}
		consulClient = c
		slog.Info("Connected to Consul")
	}

	var discovery consul.ServiceDiscovery
	if consulClient != nil {
		discovery = consulClient
	}
	client, err := newBackendClient(cfg, discovery, m, log)
	if err != nil {
		return err
	}

	router := web.SetupRouter(web.Deps{
		Backend:        client,
		State:          state,
		Store:          store,
		Themes:         theme.NewController(state, log),
		Logger:         log,
		ClientStateTTL: cfg.ClientStateTTL,
		SecureCookies:  cfg.IsProduction(),
		CORSOrigins:    cfg.CORSAllowedOrigins,
	}, m)

	srv := server.New(server.Config{
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}, router)

	if consulClient != nil && cfg.ConsulRegister {
		deregister, err := register(consulClient, cfg)
		if err != nil {
			return err
		}
		defer deregister()
	}

	if err := server.Run(ctx, srv, cfg.ShutdownTimeout); err != nil {
		slog.Error("Web frontend stopped with error", logger.Err(err))
		return err
	}

	slog.Info("Web frontend stopped")
	return nil
}

// newStore picks Redis when configured. An unreachable Redis is only logged;
// the health check reports it.
func newStore(ctx context.Context, cfg *config.Config) session.Store {
	if cfg.RedisAddr == "" {
		slog.Info("Using in-memory client state")
		return session.NewMemoryStore()
	}

	store := session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		slog.Warn("Redis is not reachable yet", "redis_addr", cfg.RedisAddr, logger.Err(err))
	} else {
		slog.Info("Connected to Redis")
	}
	return store
}

func newBackendClient(cfg *config.Config, discovery consul.ServiceDiscovery, m *metrics.Metrics, log *slog.Logger) (*backend.Client, error) {
	feed, err := backend.ParseFeed(cfg.SummariesFeed)
	if err != nil {
		return nil, err
	}

	var resolver backend.Resolver
	if discovery != nil {
		resolver = backend.NewDiscoveryResolver(discovery, cfg.BackendService)
	} else {
		static, err := backend.NewStaticResolver(cfg.BackendURL)
		if err != nil {
			return nil, err
		}
		resolver = static
	}

	bcfg := backend.Config{
		Resolver:   resolver,
		PublicURL:  cfg.PublicBackendURL,
		Feed:       feed,
		Timeout:    cfg.BackendTimeout,
		HTTPClient: &http.Client{},
		Logger:     log,
	}
	// A nil *Metrics must not end up inside the interface
	if m != nil {
		bcfg.Observer = m
	}

	return backend.NewClient(bcfg)
}

func register(c *consul.Client, cfg *config.Config) (func(), error) {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", cfg.Port, err)
	}

	id := fmt.Sprintf("%s-%s-%d", serviceName, cfg.ServiceHost, port)
	err = c.Register(consul.Registration{
		ID:         id,
		Name:       serviceName,
		Address:    cfg.ServiceHost,
		Port:       port,
		Tags:       []string{"web", "frontend"},
		HealthPath: "/health",
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Registered with Consul", "service_id", id)

	return func() {
		if err := c.Deregister(id); err != nil {
			slog.Error("Failed to deregister from Consul", "service_id", id, logger.Err(err))
		}
	}, nil
}
