package handlers

import (
	"net/http"

	"tictactoe-server/internal/models"
)

// LobbyView is the read-only slice of the orchestrator the lobby endpoints
// expose.
type LobbyView interface {
	QueueCount() int
	QueueMembers() []models.UserInfo
	ActiveGames() []models.GameInfo
}

type MatchmakingHandler struct {
	lobby LobbyView
}

func NewMatchmakingHandler(lobby LobbyView) *MatchmakingHandler {
	return &MatchmakingHandler{lobby: lobby}
}

// GetQueue lists the users waiting for an opponent, oldest first.
// GET /api/v1/game/queue (admin)
func (h *MatchmakingHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.lobby.QueueMembers())
}

// GET /api/v1/game/queue/count
func (h *MatchmakingHandler) GetQueueCount(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, models.SearchCount{Count: h.lobby.QueueCount()})
}

// GetGames lists the matches in progress ordered by id.
// GET /api/v1/game/list (admin)
func (h *MatchmakingHandler) GetGames(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.lobby.ActiveGames())
}
