package housekeeping

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper drops expired state, returning how many entries went.
type Sweeper interface {
	Sweep() int
}

// LobbySource reports the current lobby sizes.
type LobbySource interface {
	ConnectionCount() int
	QueueCount() int
	ActiveGameCount() int
}

type Pinger interface {
	Ping(ctx context.Context) error
}

func RateLimitSweep(s Sweeper, every time.Duration, log zerolog.Logger) Job {
	return Job{
		Name:  "rate_limit_sweep",
		Every: every,
		Run: func(context.Context) error {
			if n := s.Sweep(); n > 0 {
				log.Debug().Int("removed", n).Msg("swept rate limit windows")
			}
			return nil
		},
	}
}

func LobbyStats(src LobbySource, every time.Duration, log zerolog.Logger) Job {
	return Job{
		Name:  "lobby_stats",
		Every: every,
		Run: func(context.Context) error {
			log.Info().
				Int("connections", src.ConnectionCount()).
				Int("queued", src.QueueCount()).
				Int("games", src.ActiveGameCount()).
				Msg("lobby stats")
			return nil
		},
	}
}

func StorePing(p Pinger, every time.Duration) Job {
	return Job{
		Name:  "store_ping",
		Every: every,
		Run: func(ctx context.Context) error {
			if err := p.Ping(ctx); err != nil {
				return fmt.Errorf("store unreachable: %w", err)
			}
			return nil
		},
	}
}
