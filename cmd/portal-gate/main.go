package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medrex/portal-gate/internal/app"
	"github.com/medrex/portal-gate/internal/portal"
	"github.com/medrex/portal-gate/internal/wallet"
	"github.com/medrex/portal-gate/pkg/config"
	"github.com/medrex/portal-gate/pkg/logger"
	"github.com/medrex/portal-gate/pkg/monitoring"
)

const (
	serviceName    = "portal-gate"
	serviceVersion = "1.0.0"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel)
	log.WithField("version", serviceVersion).Info("Starting portal gate")

	var metrics *monitoring.Collector
	if cfg.Monitoring.Enabled {
		metrics = monitoring.NewCollector(serviceName)
	}

	// Tracing is optional; ledger spans go to the no-op provider when disabled
	var tracing *monitoring.TracingManager
	if cfg.Monitoring.TracingEnabled {
		tracing, err = monitoring.NewTracingManager(&monitoring.TracingConfig{
			ServiceName:    serviceName,
			ServiceVersion: serviceVersion,
			JaegerEndpoint: cfg.Monitoring.JaegerEndpoint,
			Environment:    cfg.Monitoring.Environment,
			SamplingRate:   cfg.Monitoring.SamplingRate,
		})
		if err != nil {
			log.WithError(err).Error("Failed to initialize tracing")
			os.Exit(1)
		}
	}

	infra, err := app.Setup(context.Background(), cfg, log, metrics)
	if err != nil {
		log.WithError(err).Error("Failed to set up collaborators")
		os.Exit(1)
	}
	defer infra.Close()

	// Setup Gin router
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := portal.NewServer(portal.Options{
		Config:   cfg,
		Sessions: infra.Sessions,
		Wallets:  portal.BrowserWallets(wallet.NewBrowserBackend(log)),
		Oracle:   infra.Oracle,
		Logger:   log,
		Metrics:  metrics,
		Health:   monitoring.NewHealthManager(serviceName, serviceVersion),
	})

	// Setup HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.WithField("address", server.Addr).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Failed to start HTTP server")
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down portal gate...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	if err := tracing.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("Failed to flush traces")
	}

	log.Info("Portal gate stopped")
}
