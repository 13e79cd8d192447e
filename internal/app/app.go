// Package app provides the main application struct for centralized dependency management
// and lifecycle control of the chatstream server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"chatstream/config"
	"chatstream/internal/chat"
	"chatstream/internal/httpclient"
	"chatstream/internal/metrics"
	"chatstream/internal/modelcache"
	"chatstream/internal/profiles"
	"chatstream/internal/server"
)

// App represents the main application with all its dependencies.
// It provides centralized lifecycle management for all components.
type App struct {
	config   *config.Config
	logger   *slog.Logger
	profiles *profiles.Store
	cache    modelcache.Cache
	server   *server.Server

	shutdownMu sync.Mutex
	shutdown   bool
}

// Config holds the configuration options for creating an App.
type Config struct {
	// AppConfig is the configuration produced by config.Load.
	AppConfig *config.Config
	// Logger defaults to slog.Default.
	Logger *slog.Logger
	// HTTPClient overrides the provider HTTP client.
	HTTPClient *http.Client
}

// New creates a new App with all dependencies initialized.
// The caller must call Shutdown to release resources.
func New(cfg Config) (*App, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("app config is required")
	}
	appCfg := cfg.AppConfig
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := profiles.NewStore(appCfg.CoreProfiles(), appCfg.ActiveProfile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize profiles: %w", err)
	}

	cache, err := modelcache.New(modelcache.Config{
		Type:     appCfg.ModelsCache.Type,
		Path:     appCfg.ModelsCache.Path,
		RedisURL: appCfg.ModelsCache.RedisURL,
		TTL:      appCfg.ModelsCache.CacheTTL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize model cache: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = httpclient.NewDefaultHTTPClient()
	}
	client := chat.NewClient(
		chat.WithHTTPClient(httpClient),
		chat.WithMetrics(metrics.New(registry)),
		chat.WithLogger(logger),
	)
	service := chat.NewService(client, store, cache, logger)

	app := &App{
		config:   appCfg,
		logger:   logger,
		profiles: store,
		cache:    cache,
	}
	app.server = server.New(service, store, &server.Config{
		MasterKey:       appCfg.Server.MasterKey,
		MetricsEnabled:  appCfg.Metrics.Enabled,
		MetricsEndpoint: appCfg.Metrics.Endpoint,
		BodySizeLimit:   appCfg.Server.BodySizeLimit,
		Gatherer:        registry,
		Logger:          logger,
	})

	app.logStartupInfo()
	return app, nil
}

// Handler returns the HTTP handler of the local API.
func (a *App) Handler() http.Handler {
	return a.server
}

// Start starts the HTTP server on the given address.
// This is a blocking call that returns when the server stops.
func (a *App) Start(addr string) error {
	a.logger.Info("starting server", "address", addr)

	if err := a.server.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			a.logger.Info("server stopped gracefully")
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully tears down app components in dependency order:
// the HTTP server first, honoring ctx, then the model cache.
//
// Shutdown is idempotent; after the first call, subsequent calls are no-ops.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	if a.shutdown {
		a.shutdownMu.Unlock()
		return nil
	}
	a.shutdown = true
	a.shutdownMu.Unlock()

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Error("server shutdown error", "error", err)
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("model cache close error", "error", err)
			errs = append(errs, fmt.Errorf("cache close: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (a *App) logStartupInfo() {
	cfg := a.config

	names := a.profiles.Names()
	if len(names) == 0 {
		a.logger.Warn("no LLM profiles configured; set OPENAI_API_KEY, OPENROUTER_API_KEY or add profiles to the config file")
	} else {
		a.logger.Info("profiles loaded", "profiles", names, "active", a.profiles.Active())
	}

	if cfg.Server.MasterKey == "" {
		a.logger.Warn("MASTER_KEY not set - local API is unauthenticated")
	} else {
		a.logger.Info("authentication enabled", "mode", "master_key")
	}

	if cfg.Metrics.Enabled {
		a.logger.Info("prometheus metrics enabled", "endpoint", cfg.Metrics.Endpoint)
	}

	cacheType := cfg.ModelsCache.Type
	if a.cache == nil {
		cacheType = "none"
	}
	a.logger.Info("model cache", "type", cacheType, "ttl", cfg.ModelsCache.CacheTTL())
}
