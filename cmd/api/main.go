package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jcroft/spots/internal/adapters/geocode"
	"github.com/jcroft/spots/internal/adapters/http"
	natsadapter "github.com/jcroft/spots/internal/adapters/nats"
	"github.com/jcroft/spots/internal/adapters/postgres"
	"github.com/jcroft/spots/internal/adapters/valkey"
	"github.com/jcroft/spots/internal/core/ports"
	"github.com/jcroft/spots/internal/core/usecases"
	"github.com/jcroft/spots/internal/pkg/config"
	"github.com/jcroft/spots/internal/pkg/logging"
	"github.com/jcroft/spots/internal/pkg/metrics"
	"github.com/jcroft/spots/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("spots-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup("spots-api", cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache (optional: the API degrades to uncached reads without it)
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		cacheSvc = cache
		defer cache.Close()
	}

	// NATS (optional: spot events are dropped without it)
	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		events = pub
		defer pub.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Geocoding providers
	nominatim := geocode.NewNominatim(geocode.NominatimConfig{
		BaseURL:        cfg.Geocoder.BaseURL,
		UserAgent:      cfg.Geocoder.UserAgent,
		RequestsPerSec: cfg.Geocoder.RequestsPerSec,
		Timeout:        time.Duration(cfg.Geocoder.TimeoutSecs) * time.Second,
	})
	hoods := geocode.NewNeighborhoodClient(geocode.NeighborhoodConfig{
		BaseURL: cfg.Neighborhoods.BaseURL,
		APIKey:  cfg.Neighborhoods.APIKey,
	})

	// Repos
	cityRepo := postgres.NewCityRepo(db)
	hoodRepo := postgres.NewNeighborhoodRepo(db)
	spotRepo := postgres.NewSpotRepo(db)

	// Use cases
	resolver := usecases.NewResolverService(nominatim, nominatim, hoods, cityRepo, hoodRepo)
	spotSvc := usecases.NewSpotService(resolver, spotRepo, events)
	citySvc := usecases.NewCityService(cityRepo, hoodRepo, cacheSvc)
	proximitySvc := usecases.NewProximityService(spotRepo, cityRepo, cacheSvc)

	deps := &http.Dependencies{
		Spots:     spotSvc,
		Cities:    citySvc,
		Proximity: proximitySvc,
		NATS:      natsConn,
		DB:        db,
		Cache:     cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Spots API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Export pool gauges
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
