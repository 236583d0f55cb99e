package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/mcdev12/buzzwire/go/internal/models"
	"github.com/mcdev12/buzzwire/go/internal/session"
	"github.com/rs/zerolog/log"
)

// StateProvider exposes the latest session snapshot
type StateProvider interface {
	Snapshot() *session.Snapshot
}

// LeaderboardResponse is the body of GET /api/leaderboard
type LeaderboardResponse struct {
	Version int                       `json:"version"`
	Entries []models.LeaderboardEntry `json:"entries"`
}

// StateHandler serves the pull side of the session state
type StateHandler struct {
	stateProvider StateProvider
}

func NewStateHandler(provider StateProvider) *StateHandler {
	return &StateHandler{stateProvider: provider}
}

// HandleGetSessionState handles GET /api/session/state
func (h *StateHandler) HandleGetSessionState(w http.ResponseWriter, r *http.Request) {
	snap := h.stateProvider.Snapshot()
	if snap == nil {
		http.Error(w, "session not ready", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, snap)
}

// HandleGetLeaderboard handles GET /api/leaderboard
func (h *StateHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	snap := h.stateProvider.Snapshot()
	if snap == nil {
		http.Error(w, "session not ready", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, LeaderboardResponse{
		Version: snap.LeaderboardVersion,
		Entries: snap.Leaderboard,
	})
}

func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/session/state", h.HandleGetSessionState)
	mux.HandleFunc("GET /api/leaderboard", h.HandleGetLeaderboard)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
