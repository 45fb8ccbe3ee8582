package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/jcroft/spots/internal/adapters/geocode"
	natsadapter "github.com/jcroft/spots/internal/adapters/nats"
	"github.com/jcroft/spots/internal/adapters/postgres"
	"github.com/jcroft/spots/internal/core/ports"
	"github.com/jcroft/spots/internal/core/usecases"
	"github.com/jcroft/spots/internal/pkg/config"
	"github.com/jcroft/spots/internal/pkg/logging"
	"github.com/jcroft/spots/internal/workflows"
)

func main() {
	cfg, err := config.Load("spots-refresher")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("spots-refresher", cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	cityRepo := postgres.NewCityRepo(db)
	hoodRepo := postgres.NewNeighborhoodRepo(db)
	spotRepo := postgres.NewSpotRepo(db)

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

	// NATS (optional: refresh events are dropped without it)
	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		events = pub
		defer pub.Close()
	}

	resolver := usecases.NewResolverService(nominatim, nominatim, hoods, cityRepo, hoodRepo)
	spotSvc := usecases.NewSpotService(resolver, spotRepo, events)

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.NeighborhoodRefreshWorkflow)
	w.RegisterActivity(&workflows.RefreshActivities{
		Spots:       spotRepo,
		SpotService: spotSvc,
	})

	// Nightly sweep. Starting an already-scheduled workflow is rejected by
	// the server and tolerated here.
	_, err = c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:           "neighborhood-refresh",
		TaskQueue:    cfg.Temporal.TaskQueue,
		CronSchedule: "0 4 * * *",
	}, workflows.NeighborhoodRefreshWorkflow, workflows.RefreshInput{PageSize: 100})
	if err != nil {
		slog.Warn("schedule refresh workflow", "error", err)
	}

	log.Println("neighborhood refresh worker started")
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
