package handlers

import (
	"net/http"

	"tictactoe-server/internal/audit"
	"tictactoe-server/internal/middleware"
	"tictactoe-server/internal/services"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

type RouterConfig struct {
	Orchestrator *services.Orchestrator
	Store        services.Store
	Auth         *middleware.AuthMiddleware
	Limiter      *middleware.RateLimiter
	Audit        *audit.Logger
	FrontendURL  string
	Log          zerolog.Logger
}

// NewRouter assembles the HTTP surface: the WebSocket endpoint and the REST
// API under /api/v1.
func NewRouter(cfg RouterConfig) http.Handler {
	wsHandler := NewWebSocketHandler(cfg.Orchestrator, cfg.Audit, cfg.Log)
	matchmakingHandler := NewMatchmakingHandler(cfg.Orchestrator)
	historyHandler := NewHistoryHandler(cfg.Store, cfg.Log)
	leaderboardHandler := NewLeaderboardHandler(cfg.Store, cfg.Log)

	router := mux.NewRouter()
	router.Use(middleware.RequestID(cfg.Log))

	// WebSocket route
	router.Handle("/ws",
		cfg.Limiter.IPRateLimitMiddleware(middleware.WebSocketUpgradeLimit)(http.HandlerFunc(wsHandler.HandleWebSocket)),
	).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.SecurityHeaders)
	api.Use(cfg.Limiter.IPRateLimitMiddleware(middleware.APIReadLimit))

	// Lobby routes
	api.HandleFunc("/game/queue/count", matchmakingHandler.GetQueueCount).Methods("GET")
	adminGame := api.PathPrefix("/game").Subrouter()
	adminGame.Use(cfg.Auth.RequireAdmin)
	adminGame.Use(cfg.Audit.AdminAccess)
	adminGame.HandleFunc("/queue", matchmakingHandler.GetQueue).Methods("GET")
	adminGame.HandleFunc("/list", matchmakingHandler.GetGames).Methods("GET")

	// History routes
	history := api.PathPrefix("/history").Subrouter()
	history.Handle("/all", cfg.Auth.RequireAuth(http.HandlerFunc(historyHandler.GetOwnHistory))).Methods("GET")
	history.Handle("/all/{id}", cfg.Auth.RequireAdmin(cfg.Audit.AdminAccess(http.HandlerFunc(historyHandler.GetPlayerHistory)))).Methods("GET")
	history.Handle("/win-lose-rate", cfg.Auth.RequireAuth(http.HandlerFunc(historyHandler.GetWinLoseRate))).Methods("GET")

	api.HandleFunc("/leaderboard", leaderboardHandler.GetLeaderboard).Methods("GET")

	// Health check
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return corsHandler.Handler(router)
}
