// Package main serves the generator over HTTP:
// - POST /v1/collide: one event for an incoming pair, three-part payload
// - /feed: websocket stream of every generated event
// - /health, /status, /metrics
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"collider-lab/internal/app"
	"collider-lab/internal/config"
	"collider-lab/internal/feed"
	"collider-lab/internal/logging"
	"collider-lab/internal/observability"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load .env file if exists
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Parse flags (env vars as defaults)
	fs := pflag.NewFlagSet("server", pflag.ExitOnError)
	cfg.BindFlags(fs)
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	_ = fs.Parse(os.Args[1:])

	// Setup logger
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger = logger.Named("server")

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider, closeCatalog, err := app.OpenCatalog(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open catalog", zap.Error(err))
	}
	defer closeCatalog()

	m := observability.DefaultMetrics
	hub := feed.NewHub(feed.Options{Logger: logger, Observer: m})
	defer hub.Close()

	server := NewServer(ServerOptions{
		Orchestrator: app.NewOrchestrator(cfg, provider, m, logger),
		Hub:          hub,
		Metrics:      m,
		Logger:       logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Closed once in-flight requests have drained
	drained := make(chan struct{})

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("initiating graceful shutdown", zap.Stringer("signal", sig))
		cancel()

		go func() {
			defer close(drained)
			shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stop()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("graceful shutdown failed, forcing exit", zap.Duration("timeout", shutdownTimeout), zap.Error(err))
				os.Exit(1)
			}
		}()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Warn("second signal, forcing immediate shutdown", zap.Stringer("signal", sig))
			os.Exit(1)
		case <-drained:
		}
	}()

	logger.Info("starting HTTP server", zap.String("addr", cfg.HTTPAddr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
	<-drained

	logger.Info("shutdown complete")
}
