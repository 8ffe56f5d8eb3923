package main

import (
	"github.com/binsight/api/internal/infra/http/handler"
	"github.com/binsight/api/internal/infra/http/routes"
	"github.com/binsight/api/internal/infra/postgres"
	"github.com/binsight/api/internal/infra/redis"
	"github.com/binsight/api/pkg/logger"
	"github.com/binsight/api/pkg/validator"
)

// version is set at build time via -ldflags.
var version = "dev"

// HandlerDeps are the dependencies for building the HTTP handlers.
type HandlerDeps struct {
	Log         *logger.Logger
	Validator   *validator.Validator
	DB          *postgres.DB
	RedisClient *redis.Client
	Services    *Services
}

// NewHandlers creates all HTTP handlers.
func NewHandlers(deps *HandlerDeps) *routes.Handlers {
	return &routes.Handlers{
		Health: handler.NewHealthHandler(version, map[string]handler.Pinger{
			"database": deps.DB,
			"redis":    deps.RedisClient,
		}),
		Campus: handler.NewCampusHandler(deps.Services.Campus, deps.Validator, deps.Log),
		Zone:   handler.NewZoneHandler(deps.Services.Zone, deps.Validator, deps.Log),
		Scan:   handler.NewScanHandler(deps.Services.Scan, deps.Validator, deps.Log),
		WS:     handler.NewWSHandler(deps.Services.Hub, deps.Log),
	}
}
