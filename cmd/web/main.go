package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ukpostcodes/internal/config"
	"github.com/ukpostcodes/internal/db"
	"github.com/ukpostcodes/internal/debug"
	"github.com/ukpostcodes/internal/service"
	"github.com/ukpostcodes/internal/web"
)

func main() {
	// Load environment configuration
	config.LoadEnv()
	settings := config.Load()
	logger := debug.NewLogger(settings.Debug, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A directory that cannot be opened is fatal; a spatial snapshot that
	// fails to load only degrades the service.
	conn, err := db.Open(ctx, settings, logger)
	if err != nil {
		log.Fatalf("Failed to open postcode directory: %v", err)
	}
	defer conn.Close()

	svc := service.New(ctx, conn.Store,
		service.WithLogger(logger),
		service.WithCacheSize(settings.CacheSize),
		service.WithMaxBulk(settings.Limits.MaxBulkRequests),
	)

	logger.Info("postcode service ready",
		"driver", conn.Driver,
		"spatial_ready", svc.Ready(),
		"api_key", settings.APIKey != "",
	)

	server := web.NewServer(web.ConfigFrom(settings), svc, logger)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
