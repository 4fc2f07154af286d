package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"tictactoe-server/internal/config"
	fxmodules "tictactoe-server/internal/fx"
	"tictactoe-server/internal/housekeeping"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

const shutdownTimeout = 10 * time.Second

func main() {
	fx.New(
		fxmodules.Module,
		fx.NopLogger,
		fx.Invoke(runServer),
		fx.Invoke(func(*housekeeping.Scheduler) {}),
	).Run()
}

func runServer(lc fx.Lifecycle, srv *http.Server, cfg *config.Config, logger zerolog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().
					Str("addr", srv.Addr).
					Str("env", cfg.Environment).
					Str("storage", cfg.Storage).
					Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
