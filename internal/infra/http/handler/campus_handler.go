package handler

import (
	"net/http"
	"time"

	httpx "github.com/binsight/api/internal/infra/http"
	"github.com/binsight/api/internal/app"
	"github.com/binsight/api/pkg/domain/campus"
	"github.com/binsight/api/pkg/logger"
	"github.com/binsight/api/pkg/validator"
)

// CampusHandler handles HTTP requests for campuses.
type CampusHandler struct {
	service   *app.CampusService
	validator *validator.Validator
	logger    *logger.Logger
}

// NewCampusHandler creates a new CampusHandler.
func NewCampusHandler(service *app.CampusService, v *validator.Validator, log *logger.Logger) *CampusHandler {
	return &CampusHandler{
		service:   service,
		validator: v,
		logger:    log.With("handler", "campus"),
	}
}

// CampusResponse is the API view of a campus.
type CampusResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	CenterLat float64   `json:"center_lat"`
	CenterLon float64   `json:"center_lon"`
	CreatedAt time.Time `json:"created_at"`
}

// GetCampus handles GET /campuses/{id}.
func (h *CampusHandler) GetCampus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(httpx.PathParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	c, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCampusResponse(c))
}

// ListCampuses handles GET /campuses.
func (h *CampusHandler) ListCampuses(w http.ResponseWriter, r *http.Request) {
	campuses, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	data := make([]*CampusResponse, 0, len(campuses))
	for _, c := range campuses {
		data = append(data, toCampusResponse(c))
	}
	respondJSON(w, http.StatusOK, map[string]any{"data": data})
}

func toCampusResponse(c *campus.Campus) *CampusResponse {
	return &CampusResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		City:      c.City,
		State:     c.State,
		CenterLat: c.CenterLat,
		CenterLon: c.CenterLon,
		CreatedAt: c.CreatedAt,
	}
}
