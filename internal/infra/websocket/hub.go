// Package websocket pushes zone status changes to connected dashboard
// clients.
package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/binsight/api/pkg/logger"
)

// ZoneStatusEvent is the message broadcast when a zone's status or
// score changes.
type ZoneStatusEvent struct {
	Type      string    `json:"type"`
	CampusID  string    `json:"campus_id"`
	ZoneID    string    `json:"zone_id"`
	ZoneCode  string    `json:"zone_code"`
	Status    string    `json:"status"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub tracks connected clients and fans events out to them. Clients
// subscribe to a single campus; events for other campuses are not
// delivered to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *logger.Logger
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  log.With("component", "ws_hub"),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "campus_id", c.campusID, "clients", n)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client disconnected", "campus_id", c.campusID, "clients", n)
}

// BroadcastZoneStatus sends a zone status event to every client
// subscribed to the zone's campus. Implements app.StatusBroadcaster.
// Slow clients are dropped rather than blocking the pipeline.
func (h *Hub) BroadcastZoneStatus(campusID, zoneID, zoneCode, status string, score float64) {
	event := ZoneStatusEvent{
		Type:      "zone_status",
		CampusID:  campusID,
		ZoneID:    zoneID,
		ZoneCode:  zoneCode,
		Status:    status,
		Score:     score,
		Timestamp: time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal zone status event", "error", err)
		return
	}

	h.mu.RLock()
	var stale []*Client
	for c := range h.clients {
		if c.campusID != campusID {
			continue
		}
		select {
		case c.send <- data:
		default:
			stale = append(stale, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stale {
		h.unregister(c)
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}
