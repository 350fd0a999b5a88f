package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	healthapi "arriendo-cajas-backend/internal/api/grpc"
	httpapi "arriendo-cajas-backend/internal/api/http"
	"arriendo-cajas-backend/internal/app"
	"arriendo-cajas-backend/internal/config"
	"arriendo-cajas-backend/internal/db"
	"arriendo-cajas-backend/internal/logger"
	"arriendo-cajas-backend/internal/security"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	migrateOnly := flag.Bool("migrate", false, "Apply database migrations and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Arriendo Cajas Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "health_grpc_port", cfg.Server.HealthGRPCPort)
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Rental configuration", "enforce_transitions", cfg.Rentals.EnforceTransitions, "reminder_dedupe", cfg.Reminders.Dedupe, "timezone", cfg.Reminders.Timezone)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	if *migrateOnly {
		if err := db.Migrate(application.DB); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		return
	}

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL())
	sessions, err := security.NewSessionManager(cfg.Session)
	if err != nil {
		log.Fatalf("Failed to initialize sessions: %v", err)
	}

	server := httpapi.NewServer(httpapi.ServerOpts{
		Services: application.Services,
		Tokens:   tokenManager,
		Sessions: sessions,
		Ready:    application.Ready,
		Config:   cfg,
	})

	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Set up gRPC health server
	var health *healthapi.HealthServer
	if cfg.Server.HealthGRPCPort > 0 {
		lis, err := net.Listen("tcp", cfg.GetHealthAddress())
		if err != nil {
			logger.Error("Failed to listen", "error", err, "address", cfg.GetHealthAddress())
			log.Fatalf("Failed to listen: %v", err)
		}
		health = healthapi.NewHealthServer(healthapi.Check(application.Ready), 15*time.Second)
		go health.Watch(ctx)
		go func() {
			logger.Info("gRPC health server listening", "address", lis.Addr().String())
			if err := health.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down servers...")
	case err := <-errCh:
		logger.Error("Server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if health != nil {
		health.Stop()
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
