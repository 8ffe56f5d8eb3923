package handler

import (
	"net/http"

	httpx "github.com/binsight/api/internal/infra/http"
	"github.com/binsight/api/internal/infra/http/middleware"
	"github.com/binsight/api/internal/infra/websocket"
	"github.com/binsight/api/pkg/apierror"
	"github.com/binsight/api/pkg/domain/shared"
	"github.com/binsight/api/pkg/logger"
)

// WSHandler upgrades dashboard connections for live zone status
// updates.
type WSHandler struct {
	hub    *websocket.Hub
	logger *logger.Logger
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(hub *websocket.Hub, log *logger.Logger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		logger: log.With("handler", "ws"),
	}
}

// Subscribe handles GET /ws. Clients subscribe to one campus via the
// campus_id query parameter or their token claim.
func (h *WSHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	campusRaw := httpx.QueryParam(r, "campus_id")
	if campusRaw == "" {
		campusRaw = middleware.GetCampusID(r.Context())
	}
	campusID, err := shared.IDFromString(campusRaw)
	if err != nil {
		apierror.Write(w, apierror.BadRequest("campus_id is required"))
		return
	}

	if err := h.hub.Serve(w, r, campusID.String()); err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
	}
}
