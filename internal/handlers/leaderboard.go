package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"tictactoe-server/internal/models"

	"github.com/rs/zerolog"
)

const (
	defaultLeaderboardSize = 50
	maxLeaderboardSize     = 200
)

// RankingStore lists users by rating.
type RankingStore interface {
	TopUsers(ctx context.Context, limit int) ([]models.User, error)
}

type LeaderboardHandler struct {
	store RankingStore
	log   zerolog.Logger
}

func NewLeaderboardHandler(store RankingStore, log zerolog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{store: store, log: log}
}

type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	Username string  `json:"username"`
	Rating   float64 `json:"mmr"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
}

// GetLeaderboard returns the top players by rating.
// GET /api/v1/leaderboard?limit=N
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	limit := defaultLeaderboardSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLeaderboardSize)
	}

	users, err := h.store.TopUsers(ctx, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("leaderboard lookup failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to load leaderboard")
		return
	}

	entries := make([]LeaderboardEntry, len(users))
	for i, u := range users {
		entries[i] = LeaderboardEntry{
			Rank:     i + 1,
			Username: u.Username,
			Rating:   u.Rating,
			Wins:     u.Wins,
			Losses:   u.Losses,
		}
	}
	respondWithJSON(w, http.StatusOK, entries)
}
