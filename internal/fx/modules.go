package fx

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tictactoe-server/internal/audit"
	"tictactoe-server/internal/auth"
	"tictactoe-server/internal/config"
	"tictactoe-server/internal/connection"
	"tictactoe-server/internal/db"
	"tictactoe-server/internal/game"
	"tictactoe-server/internal/handlers"
	"tictactoe-server/internal/housekeeping"
	"tictactoe-server/internal/logger"
	"tictactoe-server/internal/matchmaking"
	"tictactoe-server/internal/middleware"
	"tictactoe-server/internal/services"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideConfig() (*config.Config, error) {
	return config.Load(config.GetEnv())
}

func ProvideLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(cfg.Level())
}

// ProvideStore opens the configured backend and closes it on shutdown.
func ProvideStore(lc fx.Lifecycle, cfg *config.Config, log zerolog.Logger) (services.Store, error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn().Msg("using in-memory storage; data is lost on restart")
		return db.NewMemoryStore(), nil
	}

	mongodb, err := db.NewMongoDB(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.Database, log)
	if err != nil {
		return nil, err
	}
	log.Info().Str("database", cfg.MongoDB.Database).Msg("connected to MongoDB")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return mongodb.Close(ctx)
		},
	})
	return mongodb, nil
}

func ProvideJWTService(cfg *config.Config) *auth.JWTService {
	return auth.NewJWTService(cfg.JWT.AccessSecret, time.Duration(cfg.JWT.AccessTTL)*time.Minute)
}

func ProvideTokenResolver(jwt *auth.JWTService) auth.TokenResolver {
	return jwt
}

func ProvideGameRegistry(cfg *config.Config) *game.Registry {
	return game.NewRegistry(cfg.Game.IDSpace, cfg.Game.MaxIDAttempts)
}

func ProvideAuthMiddleware(tokens auth.TokenResolver, store services.Store, log zerolog.Logger) *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(tokens, store, log)
}

// ProvideAuditLogger persists audit events when the store supports it.
func ProvideAuditLogger(store services.Store, log zerolog.Logger) *audit.Logger {
	rec, _ := store.(audit.Recorder)
	return audit.NewLogger(rec, log)
}

func ProvideRateLimiter() *middleware.RateLimiter {
	return middleware.NewRateLimiter()
}

// ProvideHousekeeping schedules periodic maintenance for the lifetime of the app.
func ProvideHousekeeping(
	lc fx.Lifecycle,
	cfg *config.Config,
	limiter *middleware.RateLimiter,
	orchestrator *services.Orchestrator,
	store services.Store,
	log zerolog.Logger,
) (*housekeeping.Scheduler, error) {
	interval := time.Duration(cfg.Housekeeping.IntervalSeconds) * time.Second
	jobs := []housekeeping.Job{
		housekeeping.RateLimitSweep(limiter, interval, log),
		housekeeping.LobbyStats(orchestrator, interval, log),
	}
	if p, ok := store.(housekeeping.Pinger); ok {
		jobs = append(jobs, housekeeping.StorePing(p, interval))
	}

	sched, err := housekeeping.NewScheduler(log, jobs...)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			sched.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			return sched.Stop()
		},
	})
	return sched, nil
}

func ProvideRouter(
	cfg *config.Config,
	orchestrator *services.Orchestrator,
	store services.Store,
	authMiddleware *middleware.AuthMiddleware,
	limiter *middleware.RateLimiter,
	auditLog *audit.Logger,
	log zerolog.Logger,
) http.Handler {
	return handlers.NewRouter(handlers.RouterConfig{
		Orchestrator: orchestrator,
		Store:        store,
		Auth:         authMiddleware,
		Limiter:      limiter,
		Audit:        auditLog,
		FrontendURL:  cfg.Frontend.URL,
		Log:          log,
	})
}

func ProvideServer(cfg *config.Config, router http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

var Module = fx.Options(
	fx.Provide(ProvideConfig),
	fx.Provide(ProvideLogger),
	fx.Provide(ProvideStore),
	// identity
	fx.Provide(ProvideJWTService),
	fx.Provide(ProvideTokenResolver),
	// game state
	fx.Provide(connection.NewRegistry),
	fx.Provide(matchmaking.NewQueue),
	fx.Provide(ProvideGameRegistry),
	// svc
	fx.Provide(services.NewGameCompletionService),
	fx.Provide(services.NewOrchestrator),
	// http
	fx.Provide(ProvideAuthMiddleware),
	fx.Provide(ProvideAuditLogger),
	fx.Provide(ProvideRateLimiter),
	fx.Provide(ProvideRouter),
	fx.Provide(ProvideServer),
	fx.Provide(ProvideHousekeeping),
)
