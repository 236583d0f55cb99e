package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for the session feed
type WebSocketHandler struct {
	connectionManager *ConnectionManager
}

func NewWebSocketHandler(cm *ConnectionManager) *WebSocketHandler {
	return &WebSocketHandler{connectionManager: cm}
}

// HandleSessionConnection handles GET /ws/session
func (h *WebSocketHandler) HandleSessionConnection(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = "anonymous"
	}

	// on failure the upgrader has already written the HTTP error
	if err := h.connectionManager.UpgradeConnection(w, r, clientID); err != nil {
		log.Error().
			Err(err).
			Str("client_id", clientID).
			Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats handles GET /ws/stats
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.connectionManager.GetConnectionStats()); err != nil {
		log.Error().Err(err).Msg("failed to encode connection stats")
	}
}

func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/session", h.HandleSessionConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}
