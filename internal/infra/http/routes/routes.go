// Package routes registers all HTTP routes for the API.
package routes

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/binsight/api/internal/config"
	infrahttp "github.com/binsight/api/internal/infra/http"
	"github.com/binsight/api/internal/infra/http/handler"
	"github.com/binsight/api/internal/infra/http/middleware"
	"github.com/binsight/api/pkg/logger"
)

// Router is an alias to the http package's Router interface.
type Router = infrahttp.Router

// Handlers holds all HTTP handlers for route registration.
type Handlers struct {
	Health *handler.HealthHandler
	Campus *handler.CampusHandler
	Zone   *handler.ZoneHandler
	Scan   *handler.ScanHandler
	WS     *handler.WSHandler
}

// Register wires every route onto the router. Auth applies to the API
// surface; probes and metrics stay open for the platform.
func Register(r Router, h *Handlers, cfg *config.Config, log *logger.Logger) {
	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	r.GET("/metrics", func(w http.ResponseWriter, req *http.Request) {
		promhttp.Handler().ServeHTTP(w, req)
	})

	auth := middleware.Auth(&cfg.Auth, log)

	r.Group("/api/v1", func(api Router) {
		api.POST("/scans", h.Scan.SubmitScan)
		api.GET("/scans/results", h.Scan.ListResults)
		api.GET("/scans/{id}", h.Scan.GetScan)

		api.GET("/campuses", h.Campus.ListCampuses)
		api.GET("/campuses/{id}", h.Campus.GetCampus)
		api.GET("/campuses/{id}/zones", h.Zone.ListCampusZones)

		api.GET("/zones/{id}", h.Zone.GetZone)
		api.POST("/zones/{id}/recompute", h.Zone.RecomputeZone)

		api.GET("/ws", h.WS.Subscribe)
	}, auth)
}
