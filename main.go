package main

import (
	"context"
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/username/perfsnap/src/config"
	"github.com/username/perfsnap/src/database"
	"github.com/username/perfsnap/src/handlers"
	"github.com/username/perfsnap/src/logger"
	"github.com/username/perfsnap/src/services"
	"golang.org/x/time/rate"
)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Performance snapshot server starting...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aliases, err := config.LoadColumnAliases(config.Cfg.ColumnAliasesPath)
	if err != nil {
		logger.L.Error("Failed to load column aliases", "path", config.Cfg.ColumnAliasesPath, "error", err)
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "driver", config.Cfg.DatabaseDriver, "path", config.Cfg.DatabasePath)
	store, err := database.Open(ctx, config.Cfg.DatabaseDriver, config.Cfg.DatabasePath, config.Cfg.DatabaseURL)
	if err != nil {
		logger.L.Error("Failed to open store", "driver", config.Cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing services and handlers...")
	importService, snapshotService := services.NewServices(store, config.Cfg, aliases)
	importHandler := handlers.NewImportHandler(importService, config.Cfg.MaxUploadSizeBytes)
	snapshotHandler := handlers.NewSnapshotHandler(snapshotService)
	healthHandler := handlers.NewHealthHandler(store)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	handlers.RegisterRoutes(rootMux, importHandler, snapshotHandler, healthHandler)
	rootMux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Performance snapshot backend is running"})
	})

	logger.L.Info("Applying global middleware...")
	limiter := rate.NewLimiter(rate.Limit(config.Cfg.RateLimitPerSecond), config.Cfg.RateLimitBurst)
	finalHandler := handlers.CORSMiddleware(config.Cfg.AllowedOrigins)(handlers.RateLimitMiddleware(limiter)(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.L.Error("Graceful shutdown failed", "error", err)
		}
	}()

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	}
	logger.L.Info("Server stopped gracefully.")
}
