package gateway

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles upgrade requests from downstream scoreboard
// clients.
type WebSocketHandler struct {
	connectionManager *ConnectionManager
}

func NewWebSocketHandler(cm *ConnectionManager) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
	}
}

// HandleCompetitionConnection upgrades a connection scoped to one
// competition. Scoreboard fanout is public read-only.
func (h *WebSocketHandler) HandleCompetitionConnection(w http.ResponseWriter, r *http.Request) {
	competitionID := r.URL.Query().Get("event_id")
	if competitionID == "" {
		http.Error(w, "event_id is required", http.StatusBadRequest)
		return
	}

	if err := h.connectionManager.UpgradeConnection(w, r, competitionID); err != nil {
		log.Error().
			Err(err).
			Str("competition_id", competitionID).
			Msg("failed to upgrade downstream connection")
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
		return
	}
}
