package handler

import (
	"net/http"
	"time"

	httpx "github.com/binsight/api/internal/infra/http"
	"github.com/binsight/api/internal/app"
	"github.com/binsight/api/internal/metrics"
	"github.com/binsight/api/pkg/domain/zone"
	"github.com/binsight/api/pkg/logger"
	"github.com/binsight/api/pkg/validator"
)

// ZoneHandler handles HTTP requests for zones.
type ZoneHandler struct {
	service   *app.ZoneService
	validator *validator.Validator
	logger    *logger.Logger
}

// NewZoneHandler creates a new ZoneHandler.
func NewZoneHandler(service *app.ZoneService, v *validator.Validator, log *logger.Logger) *ZoneHandler {
	return &ZoneHandler{
		service:   service,
		validator: v,
		logger:    log.With("handler", "zone"),
	}
}

// ZoneResponse is the API view of a zone.
type ZoneResponse struct {
	ID            string       `json:"id"`
	CampusID      string       `json:"campus_id"`
	Code          string       `json:"code"`
	Status        string       `json:"status"`
	LastScore     float64      `json:"last_score"`
	LastScannedAt *time.Time   `json:"last_scanned_at,omitempty"`
	Boundary      []zone.Point `json:"boundary,omitempty"`
}

// GetZone handles GET /zones/{id}.
func (h *ZoneHandler) GetZone(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(httpx.PathParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	z, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toZoneResponse(z, true))
}

// ListCampusZones handles GET /campuses/{id}/zones: each zone with its
// current status for the dashboard map.
func (h *ZoneHandler) ListCampusZones(w http.ResponseWriter, r *http.Request) {
	campusID, err := pathID(httpx.PathParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	zones, err := h.service.ListByCampus(r.Context(), campusID)
	if err != nil {
		writeError(w, err)
		return
	}

	includeBoundary := httpx.QueryParam(r, "boundary") == "true"
	data := make([]*ZoneResponse, 0, len(zones))
	for _, z := range zones {
		data = append(data, toZoneResponse(z, includeBoundary))
	}
	respondJSON(w, http.StatusOK, map[string]any{"data": data})
}

// RecomputeZone handles POST /zones/{id}/recompute, used by operators
// to force a status re-derivation.
func (h *ZoneHandler) RecomputeZone(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(httpx.PathParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	z, err := h.service.Recompute(r.Context(), id, metrics.TriggerAdmin)
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toZoneResponse(z, false))
}

func toZoneResponse(z *zone.Zone, includeBoundary bool) *ZoneResponse {
	resp := &ZoneResponse{
		ID:            z.ID.String(),
		CampusID:      z.CampusID.String(),
		Code:          z.Code,
		Status:        string(z.Status),
		LastScore:     z.LastScore,
		LastScannedAt: z.LastScannedAt,
	}
	if includeBoundary {
		resp.Boundary = []zone.Point(z.Boundary)
	}
	return resp
}
