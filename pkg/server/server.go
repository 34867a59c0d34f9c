package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"portico-hq/portico/pkg/admin"
	"portico-hq/portico/pkg/config"
	"portico-hq/portico/pkg/convert"
	"portico-hq/portico/pkg/credential"
	"portico-hq/portico/pkg/providers"
	"portico-hq/portico/pkg/providers/codewhisperer"
	"portico-hq/portico/pkg/proxy/handlers"
	"portico-hq/portico/pkg/proxy/middleware"
	"portico-hq/portico/pkg/telemetry/metrics"
	"portico-hq/portico/pkg/usage"
)

// poolGaugeInterval is how often the credential pool gauge is refreshed.
const poolGaugeInterval = 15 * time.Second

// Server is the assembled Portico service.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger

	creds      *credential.Manager
	client     *codewhisperer.Client
	orch       *providers.Orchestrator
	settings   *admin.Settings
	collector  *metrics.Collector
	usageStore *usage.Store
	pruner     *usage.Pruner
	watcher    *credential.Watcher
	refresher  *credential.Refresher
	health     *providers.HealthTracker

	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New builds the full component graph from the loaded configuration.
// Nothing is started; call Start to run the service.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:          cfg,
		logger:       logger,
		shutdownChan: make(chan struct{}),
	}

	// Credential pool.
	store := credential.NewStore()
	creds, err := credential.LoadFile(cfg.Credentials.Path)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	store.Replace(creds)
	logger.Info("credentials loaded", "path", cfg.Credentials.Path, "count", store.Len())

	refreshFunc := codewhisperer.NewRefreshFunc(codewhisperer.RefreshConfig{
		URL: cfg.Credentials.RefreshURL,
	}, logger)
	s.creds = credential.NewManager(store, refreshFunc, credential.ManagerConfig{
		RefreshMargin:      cfg.Credentials.RefreshMargin,
		TransientThreshold: cfg.Credentials.TransientThreshold,
	}, logger)
	s.refresher = credential.NewRefresher(s.creds, cfg.Credentials.RefreshSchedule, logger)

	if cfg.Credentials.Watch {
		watcher, err := credential.NewWatcher(cfg.Credentials.Path, store, cfg.Credentials.WatchDebounce, logger)
		if err != nil {
			return nil, fmt.Errorf("watch credentials: %w", err)
		}
		s.watcher = watcher
	}

	// Backend client and delivery orchestration.
	s.client = codewhisperer.New(codewhisperer.Config{
		Region:          cfg.Backend.Region,
		HeaderTimeout:   cfg.Backend.ResponseHeaderTimeout,
		HealthThreshold: cfg.Backend.HealthThreshold,
	}, logger)
	s.orch = providers.NewOrchestrator(s.client, s.creds, providers.RetryConfig{
		PerCredentialRetries: cfg.Retry.PerCredentialRetries,
		MaxAttempts:          cfg.Retry.MaxAttempts,
		BackoffBase:          cfg.Retry.BackoffBase,
		BackoffCap:           cfg.Retry.BackoffCap,
	}, logger)
	s.health = providers.NewHealthTracker(cfg.Backend.HealthThreshold)

	// Runtime settings. The mode was validated with the config.
	mode, err := convert.ParseMode(cfg.Compression.Mode)
	if err != nil {
		return nil, fmt.Errorf("compression mode: %w", err)
	}
	s.settings = admin.NewSettings(mode)

	if cfg.Telemetry.Metrics.Enabled {
		s.collector = metrics.NewCollector(metrics.Config{}, nil)
	}

	if cfg.Usage.Enabled {
		store, err := usage.Open(usage.Config{Path: cfg.Usage.Path}, logger)
		if err != nil {
			return nil, fmt.Errorf("open usage store: %w", err)
		}
		s.usageStore = store
		retention := time.Duration(cfg.Usage.RetentionDays) * 24 * time.Hour
		s.pruner = usage.NewPruner(store, retention, cfg.Usage.PruneSchedule, logger)
	}

	return s, nil
}

// Start runs the HTTP server and blocks until shutdown: context
// cancellation, SIGINT/SIGTERM, or a listener error.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := s.startBackground(runCtx); err != nil {
		return err
	}

	// WriteTimeout stays zero: it would cut off long event streams.
	// The per-request deadline comes from the timeout middleware.
	s.httpServer = &http.Server{
		Addr:              s.cfg.Server.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       s.cfg.Server.IdleTimeout,
		MaxHeaderBytes:    s.cfg.Server.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "address", s.cfg.Server.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// startBackground launches the watcher, refresher, pruner, endpoint
// health checker, and pool gauge loop.
func (s *Server) startBackground(ctx context.Context) error {
	if s.watcher != nil {
		go func() {
			if err := s.watcher.Watch(ctx); err != nil {
				s.logger.Error("credential watcher stopped", "error", err)
			}
		}()
	}
	if err := s.refresher.Start(); err != nil {
		return fmt.Errorf("start refresher: %w", err)
	}
	if s.pruner != nil {
		if err := s.pruner.Start(); err != nil {
			return fmt.Errorf("start usage pruner: %w", err)
		}
	}
	if s.cfg.Backend.HealthCheckInterval > 0 {
		providers.StartHealthChecker(ctx, s.client, s.health, s.cfg.Backend.HealthCheckInterval, s.logger)
	}
	if s.collector != nil {
		go s.runPoolGauge(ctx)
	}
	return nil
}

// runPoolGauge periodically publishes the credential pool composition.
func (s *Server) runPoolGauge(ctx context.Context) {
	ticker := time.NewTicker(poolGaugeInterval)
	defer ticker.Stop()
	for {
		s.publishPoolGauge()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) publishPoolGauge() {
	var active, cooling, disabled int
	for _, c := range s.creds.Store().List() {
		switch {
		case c.Disabled:
			disabled++
		case s.creds.Cooldowns().Remaining(c.ID) > 0:
			cooling++
		default:
			active++
		}
	}
	s.collector.Credentials().SetPool(active, cooling, disabled)
}

// Shutdown gracefully stops the server and all background components.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.cfg.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.refresher.Stop()
		if s.watcher != nil {
			if err := s.watcher.Stop(); err != nil {
				s.logger.Error("error stopping credential watcher", "error", err)
			}
		}
		if s.pruner != nil {
			s.pruner.Stop()
		}
		if s.usageStore != nil {
			if err := s.usageStore.Close(); err != nil {
				s.logger.Error("error closing usage store", "error", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// Handler assembles the route table and middleware chain. Exposed for
// tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	messages := handlers.NewMessagesHandler(s.orch, s.usageStore, s.collector, s.logger, handlers.MessagesConfig{
		CompressionSource: s.settings.CompressionMode,
		MaxBodyBytes:      s.cfg.Server.MaxBodyBytes,
	})
	mux.Handle("/v1/messages", middleware.AuthMiddleware(s.cfg.Server.APIKeys)(messages))

	mux.Handle("/health", handlers.NewHealthHandler())
	mux.Handle("/ready", handlers.NewReadyHandler(s.creds, s.client, s.health))

	if s.collector != nil {
		mux.Handle(s.cfg.Telemetry.Metrics.Path, s.collector.Handler())
	}

	if s.cfg.Admin.Enabled {
		adminHandler := admin.New(s.creds, s.settings, s.usageStore, s.cfg.Admin.Token, s.logger)
		mux.Handle("/api/admin/", adminHandler)
	}

	var handler http.Handler = mux
	handler = middleware.TimeoutMiddleware(s.cfg.Server.RequestTimeout)(handler)
	if s.cfg.Server.CORS.Enabled {
		corsConfig := middleware.DefaultCORSConfig()
		corsConfig.AllowedOrigins = s.cfg.Server.CORS.AllowedOrigins
		handler = middleware.CORSMiddleware(corsConfig)(handler)
	}
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)
	return handler
}

// IsRunning reports whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
