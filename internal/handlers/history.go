package handlers

import (
	"context"
	"net/http"
	"time"

	"tictactoe-server/internal/middleware"
	"tictactoe-server/internal/models"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// HistoryStore is the persistence the history endpoints read from.
type HistoryStore interface {
	UserExists(ctx context.Context, id string) (bool, error)
	ListMatchResultsByUser(ctx context.Context, id string) ([]models.MatchResult, error)
}

type HistoryHandler struct {
	store HistoryStore
	log   zerolog.Logger
}

func NewHistoryHandler(store HistoryStore, log zerolog.Logger) *HistoryHandler {
	return &HistoryHandler{store: store, log: log}
}

// GetOwnHistory returns the caller's match results, newest first.
// GET /api/v1/history/all
func (h *HistoryHandler) GetOwnHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	h.writeHistory(w, r, user.ID.Hex())
}

// GetPlayerHistory returns another player's match results.
// GET /api/v1/history/all/{id} (admin)
func (h *HistoryHandler) GetPlayerHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id := mux.Vars(r)["id"]
	exists, err := h.store.UserExists(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", id).Msg("user lookup failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	if !exists {
		respondWithError(w, http.StatusNotFound, "User not found")
		return
	}
	h.writeHistory(w, r, id)
}

func (h *HistoryHandler) writeHistory(w http.ResponseWriter, r *http.Request, userID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	results, err := h.store.ListMatchResultsByUser(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("history lookup failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	respondWithJSON(w, http.StatusOK, results)
}

// GetWinLoseRate summarises the caller's results.
// GET /api/v1/history/win-lose-rate
func (h *HistoryHandler) GetWinLoseRate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := user.ID.Hex()
	results, err := h.store.ListMatchResultsByUser(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("history lookup failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	respondWithJSON(w, http.StatusOK, winLoseRate(userID, results))
}

// winLoseRate counts a draw as half a win. No games yields a zero rate.
func winLoseRate(userID string, results []models.MatchResult) models.WinLoseRate {
	var out models.WinLoseRate
	for i := range results {
		score, ok := results[i].ScoreFor(userID)
		if !ok {
			continue
		}
		out.Total++
		switch score {
		case 1:
			out.Wins++
		case 0:
			out.Losses++
		default:
			out.Draws++
		}
	}
	if out.Total > 0 {
		out.WinLoseRate = (float64(out.Wins) + 0.5*float64(out.Draws)) / float64(out.Total) * 100
	}
	return out
}
