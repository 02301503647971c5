package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinicops/leadwatch/internal/api/router"
	"github.com/clinicops/leadwatch/internal/app/bootstrap"
	appconfig "github.com/clinicops/leadwatch/internal/config"
	"github.com/clinicops/leadwatch/internal/dashboard"
	"github.com/clinicops/leadwatch/internal/http/handlers"
	"github.com/clinicops/leadwatch/internal/observability/metrics"
	"github.com/clinicops/leadwatch/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting leadwatch",
		"env", cfg.Env,
		"port", cfg.Port,
		"dashboard", cfg.DashboardBaseURL,
	)

	ctx := context.Background()

	// Wire cursor persistence and optional email alerts
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	cursorStore := bootstrap.BuildCursorStore(redisClient, cfg, logger)

	var alerter dashboard.LeadAlerter
	if svc := bootstrap.BuildLeadAlerter(cfg, logger); svc != nil {
		alerter = svc
	}

	// Metrics
	watcherMetrics := metrics.NewWatcherMetrics(prometheus.DefaultRegisterer)

	// Dashboard client, view state and the watcher itself
	client := dashboard.NewClient(cfg.DashboardBaseURL,
		dashboard.WithToken(cfg.DashboardToken),
		dashboard.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		dashboard.WithLogger(logger),
	)
	controller := dashboard.NewController(client, logger)
	dispatcher := bootstrap.BuildDispatcher(cfg, logger)

	watcher := dashboard.NewWatcher(dashboard.WatcherConfig{
		Fetcher:     client,
		CursorStore: cursorStore,
		Dispatcher:  dispatcher,
		Controller:  controller,
		Alerter:     alerter,
		Metrics:     watcherMetrics,
		Poller: dashboard.PollerConfig{
			BusinessHourStart: cfg.BusinessHourStart,
			BusinessHourEnd:   cfg.BusinessHourEnd,
			BusinessInterval:  cfg.BusinessPollInterval,
			OffHoursInterval:  cfg.OffHoursPollInterval,
		},
		OnUnauthorized: func() {
			logger.Error("dashboard session rejected, polling stopped; restart with a fresh token")
		},
		Logger: logger,
	})

	if err := watcher.Start(ctx); err != nil {
		logger.Error("initial dashboard load failed", "error", err)
	}

	// Setup router
	watchHandler := handlers.NewWatchHandler(watcher, logger)
	r := router.New(&router.Config{
		Logger:         logger,
		WatchHandler:   watchHandler,
		MetricsHandler: promhttp.Handler(),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")
	watcher.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
