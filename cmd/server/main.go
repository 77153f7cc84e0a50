/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the tuition payment server: configuration, logger,
  store, handler, router, graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (env / .env, defaults baked in)
  2. Build the zap logger
  3. Open the SQLite store
  4. Wire the API handler and router
  5. Serve with graceful shutdown on SIGINT/SIGTERM

CONFIGURATION:
  See config/config.go for the TUITION_* environment variables. The -port
  and -db flags override the environment for local runs.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qalam/tuition-engine/api"
	"github.com/qalam/tuition-engine/config"
	"github.com/qalam/tuition-engine/logger"
	"github.com/qalam/tuition-engine/store/sqlite"
)

func main() {
	port := flag.Int("port", 0, "HTTP server port (overrides TUITION_PORT)")
	dbPath := flag.String("db", "", "SQLite database path (overrides TUITION_DATABASE_PATH)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	pricing, err := cfg.Pricing()
	if err != nil {
		zlog.Fatalf("Invalid pricing configuration: %v", err)
	}

	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		zlog.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	handler := api.NewHandler(store, pricing, zlog)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Infow("server starting",
			"addr", server.Addr,
			"db", cfg.DatabasePath,
			"max_family_size", pricing.MaxFamilySize,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Infow("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zlog.Fatalf("Server forced to shutdown: %v", err)
	}
	zlog.Infow("server stopped")
}
