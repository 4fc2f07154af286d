package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tictactoe-server/internal/audit"
	"tictactoe-server/internal/auth"
	"tictactoe-server/internal/connection"
	"tictactoe-server/internal/db"
	"tictactoe-server/internal/game"
	"tictactoe-server/internal/matchmaking"
	"tictactoe-server/internal/middleware"
	"tictactoe-server/internal/models"
	"tictactoe-server/internal/services"
)

type testServer struct {
	srv   *httptest.Server
	store *db.MemoryStore
	jwt   *auth.JWTService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zerolog.Nop()
	store := db.NewMemoryStore()
	jwt := auth.NewJWTService("test-secret", time.Hour)

	orch := services.NewOrchestrator(store, jwt,
		connection.NewRegistry(), matchmaking.NewQueue(), game.NewRegistry(10000, 100),
		services.NewGameCompletionService(store, log), log)

	limiter := middleware.NewRateLimiter()

	srv := httptest.NewServer(NewRouter(RouterConfig{
		Orchestrator: orch,
		Store:        store,
		Auth:         middleware.NewAuthMiddleware(jwt, store, log),
		Limiter:      limiter,
		Audit:        audit.NewLogger(store, log),
		FrontendURL:  "http://localhost:5173",
		Log:          log,
	}))
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, store: store, jwt: jwt}
}

func (s *testServer) user(t *testing.T, name string, rating float64, admin bool) (string, string) {
	t.Helper()
	id := s.store.AddUser(models.User{Username: name, Rating: rating, IsAdmin: admin})
	token, err := s.jwt.GenerateAccessToken(id, name)
	require.NoError(t, err)
	return id, token
}

func (s *testServer) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	frame := map[string]any{"event": event}
	if data != nil {
		frame["data"] = data
	}
	require.NoError(t, conn.WriteJSON(frame))
}

// readUntil skips frames until one named event arrives and decodes its data.
func readUntil(t *testing.T, conn *websocket.Conn, event string, v any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var env Envelope
		require.NoError(t, conn.ReadJSON(&env), "waiting for %s", event)
		if env.Event != event {
			continue
		}
		if v != nil {
			require.NoError(t, json.Unmarshal(env.Data, v))
		}
		return
	}
}

func TestWebSocketRejectsUnknownIdentity(t *testing.T) {
	s := newTestServer(t)
	conn := s.dial(t, "not-a-token")

	var msg models.ErrorMessage
	readUntil(t, conn, models.EventError, &msg)
	assert.Equal(t, services.ErrIdentity.Error(), msg.Error)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	require.Eventually(t, func() bool { return len(s.store.AuditEvents()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, audit.EventIdentityRejected, s.store.AuditEvents()[0].EventType)
}

func TestWebSocketAcceptsAuthorizationHeader(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "alice", 1000, false)

	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Authorization": {"Bearer " + token}})
	require.NoError(t, err)
	defer conn.Close()

	var count models.SearchCount
	readUntil(t, conn, models.EventSearchCount, &count)
	assert.Equal(t, 0, count.Count)
}

// startGame connects alice and bob and pairs them with alice moving first.
func startGame(t *testing.T, s *testServer) (*websocket.Conn, *websocket.Conn, int) {
	t.Helper()
	_, tokenA := s.user(t, "alice", 1000, false)
	_, tokenB := s.user(t, "bob", 1050, false)
	a := s.dial(t, tokenA)
	b := s.dial(t, tokenB)

	var count models.SearchCount
	readUntil(t, b, models.EventSearchCount, &count)

	send(t, a, models.EventSearch, nil)
	readUntil(t, b, models.EventSearchCount, &count)
	require.Equal(t, 1, count.Count)

	send(t, b, models.EventSearch, nil)

	var statusA, statusB models.GameStatus
	readUntil(t, a, models.EventGameNew, &statusA)
	readUntil(t, b, models.EventGameNew, &statusB)
	require.Equal(t, statusA.GameID, statusB.GameID)
	require.Equal(t, "alice", statusA.CurrentUsername)
	return a, b, statusA.GameID
}

func TestWebSocketGameToWin(t *testing.T) {
	s := newTestServer(t)
	a, b, id := startGame(t, s)

	moves := []struct {
		conn *websocket.Conn
		x, y int
	}{
		{a, 1, 1}, {b, 0, 0}, {a, 0, 1}, {b, 2, 2}, {a, 2, 1},
	}
	var status models.GameStatus
	for _, m := range moves {
		send(t, m.conn, models.EventGameMove, models.MakeMove{GameID: id, X: m.x, Y: m.y})
		readUntil(t, a, models.EventGameUpdate, &status)
		readUntil(t, b, models.EventGameUpdate, &status)
	}
	assert.Equal(t, 1, status.Field[2][1])

	var end models.GameEnd
	readUntil(t, a, models.EventGameEnd, &end)
	assert.Equal(t, models.GameEnd{GameID: id, Winner: "alice"}, end)
	readUntil(t, b, models.EventGameEnd, &end)
	assert.Equal(t, "alice", end.Winner)

	assert.Len(t, s.store.MatchResults(), 1)
}

func TestWebSocketRejectionsGoToSenderOnly(t *testing.T) {
	s := newTestServer(t)
	a, b, id := startGame(t, s)

	var msg models.ErrorMessage
	send(t, b, models.EventGameMove, models.MakeMove{GameID: id, X: 0, Y: 0})
	readUntil(t, b, models.EventError, &msg)
	assert.Equal(t, game.ErrNotYourTurn.Error(), msg.Error)

	send(t, a, "bogus", nil)
	readUntil(t, a, models.EventError, &msg)
	assert.Equal(t, "unknown event", msg.Error)

	send(t, a, models.EventGameMove, "not an object")
	readUntil(t, a, models.EventError, &msg)
	assert.Equal(t, "malformed message", msg.Error)

	// The next frame a sees after its own legal move is the update, proving
	// b's rejected move produced no broadcast.
	send(t, a, models.EventGameMove, models.MakeMove{GameID: id, X: 0, Y: 0})
	var status models.GameStatus
	readUntil(t, a, models.EventGameUpdate, &status)
	assert.Equal(t, 1, status.Field[0][0])
	assert.Equal(t, "bob", status.CurrentUsername)
}

func TestWebSocketChatUsesDisplayName(t *testing.T) {
	s := newTestServer(t)
	a, b, id := startGame(t, s)

	send(t, b, models.EventGameMessage, models.InGameMessage{GameID: id, Username: "spoofed", Message: "gl hf"})

	var msg models.InGameMessage
	readUntil(t, a, models.EventGameMessage, &msg)
	assert.Equal(t, models.InGameMessage{GameID: id, Username: "bob", Message: "gl hf"}, msg)
}

func TestWebSocketDisconnectAbortsGame(t *testing.T) {
	s := newTestServer(t)
	a, b, id := startGame(t, s)

	require.NoError(t, a.Close())

	var gone models.GameDisconnected
	readUntil(t, b, models.EventGameDisconnected, &gone)
	assert.Equal(t, id, gone.GameID)
	assert.Empty(t, s.store.MatchResults())
}
