package main

import (
	"context"
	"fmt"
	"time"

	"github.com/binsight/api/internal/app"
	"github.com/binsight/api/internal/config"
	"github.com/binsight/api/internal/infra/estimator"
	"github.com/binsight/api/internal/infra/redis"
	"github.com/binsight/api/internal/infra/storage"
	"github.com/binsight/api/internal/infra/websocket"
	"github.com/binsight/api/pkg/domain/zone"
	"github.com/binsight/api/pkg/logger"
)

const zoneCacheTTL = time.Minute

// Services holds all application services.
type Services struct {
	Campus    *app.CampusService
	Zone      *app.ZoneService
	Scan      *app.ScanService
	Processor *app.ScanProcessor

	Store *storage.Store
	Hub   *websocket.Hub
}

// ServiceDeps are the dependencies for building the services.
type ServiceDeps struct {
	Config      *config.Config
	Log         *logger.Logger
	Repos       *Repositories
	RedisClient *redis.Client
	Enqueuer    app.TaskEnqueuer
}

// NewServices wires the application services to their infrastructure.
func NewServices(ctx context.Context, deps *ServiceDeps) (*Services, error) {
	cfg := deps.Config

	store, err := storage.NewStore(ctx, cfg.Storage, cfg.Worker.FetchTimeout, cfg.Worker.ScratchDir)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	zoneCache, err := redis.NewCache[[]*zone.Zone](deps.RedisClient, "zones:campus", zoneCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("initializing zone cache: %w", err)
	}

	hub := websocket.NewHub(deps.Log)

	zoneService := app.NewZoneService(deps.Repos.Zone, zoneCache, hub, deps.Log)
	campusService := app.NewCampusService(deps.Repos.Campus, deps.Log)
	scanService := app.NewScanService(deps.Repos.Scan, deps.Repos.Campus, deps.Enqueuer, store, deps.Log)

	estimatorClient := estimator.NewClient(cfg.Estimator)
	processor := app.NewScanProcessor(deps.Repos.Scan, zoneService, store, estimatorClient, deps.Log)

	return &Services{
		Campus:    campusService,
		Zone:      zoneService,
		Scan:      scanService,
		Processor: processor,
		Store:     store,
		Hub:       hub,
	}, nil
}
