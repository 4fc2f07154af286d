package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tictactoe-server/internal/models"
)

func (s *testServer) get(t *testing.T, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, s.srv.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp := s.get(t, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(body))
}

func TestLobbyEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, player := s.user(t, "alice", 1000, false)
	_, admin := s.user(t, "root", 1000, true)

	conn := s.dial(t, player)
	var count models.SearchCount
	readUntil(t, conn, models.EventSearchCount, &count)
	send(t, conn, models.EventSearch, nil)
	readUntil(t, conn, models.EventSearchCount, &count)
	require.Equal(t, 1, count.Count)

	resp := s.get(t, "/api/v1/game/queue/count", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &count)
	assert.Equal(t, 1, count.Count)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	assert.Equal(t, http.StatusUnauthorized, s.get(t, "/api/v1/game/queue", "").StatusCode)
	assert.Equal(t, http.StatusForbidden, s.get(t, "/api/v1/game/queue", player).StatusCode)

	resp = s.get(t, "/api/v1/game/queue", admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var members []models.UserInfo
	decode(t, resp, &members)
	require.Len(t, members, 1)
	assert.Equal(t, "alice", members[0].Username)

	resp = s.get(t, "/api/v1/game/list", admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var games []models.GameInfo
	decode(t, resp, &games)
	assert.Empty(t, games)

	require.Eventually(t, func() bool { return len(s.store.AuditEvents()) == 2 }, time.Second, 10*time.Millisecond)
	for _, e := range s.store.AuditEvents() {
		assert.Equal(t, "admin_access", e.EventType)
	}
}

func TestHistoryEndpoints(t *testing.T) {
	s := newTestServer(t)
	aliceID, alice := s.user(t, "alice", 1000, false)
	bobID, _ := s.user(t, "bob", 1000, false)
	_, admin := s.user(t, "root", 1000, true)

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	outcomes := []models.Outcome{models.OutcomeFirstMoverWon, models.OutcomeSecondMoverWon, models.OutcomeDraw}
	for i, o := range outcomes {
		require.NoError(t, s.store.SaveMatchResult(ctx, &models.MatchResult{
			GameID:        i + 1,
			FirstMoverID:  aliceID,
			SecondMoverID: bobID,
			Outcome:       o,
			CompletedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	assert.Equal(t, http.StatusUnauthorized, s.get(t, "/api/v1/history/all", "").StatusCode)

	resp := s.get(t, "/api/v1/history/all", alice)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var results []models.MatchResult
	decode(t, resp, &results)
	require.Len(t, results, 3)
	assert.Equal(t, 3, results[0].GameID, "newest first")

	resp = s.get(t, "/api/v1/history/win-lose-rate", alice)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rate models.WinLoseRate
	decode(t, resp, &rate)
	assert.Equal(t, models.WinLoseRate{Wins: 1, Losses: 1, Draws: 1, Total: 3, WinLoseRate: 50}, rate)

	assert.Equal(t, http.StatusForbidden, s.get(t, "/api/v1/history/all/"+bobID, alice).StatusCode)
	assert.Equal(t, http.StatusNotFound, s.get(t, "/api/v1/history/all/65f000000000000000000000", admin).StatusCode)

	resp = s.get(t, "/api/v1/history/all/"+bobID, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &results)
	assert.Len(t, results, 3)
}

func TestWinLoseRateWithoutGames(t *testing.T) {
	assert.Equal(t, models.WinLoseRate{}, winLoseRate("u1", nil))

	rate := winLoseRate("u1", []models.MatchResult{
		{FirstMoverID: "u1", SecondMoverID: "u2", Outcome: models.OutcomeFirstMoverWon},
		{FirstMoverID: "u3", SecondMoverID: "u2", Outcome: models.OutcomeDraw},
	})
	assert.Equal(t, models.WinLoseRate{Wins: 1, Total: 1, WinLoseRate: 100}, rate)
}

func TestLeaderboard(t *testing.T) {
	s := newTestServer(t)
	s.user(t, "alice", 1010, false)
	s.user(t, "bob", 1200, false)
	s.user(t, "carol", 990, false)

	resp := s.get(t, "/api/v1/leaderboard?limit=2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []LeaderboardEntry
	decode(t, resp, &entries)
	require.Len(t, entries, 2)
	assert.Equal(t, LeaderboardEntry{Rank: 1, Username: "bob", Rating: 1200}, entries[0])
	assert.Equal(t, "alice", entries[1].Username)

	assert.Equal(t, http.StatusBadRequest, s.get(t, "/api/v1/leaderboard?limit=zero", "").StatusCode)
}
