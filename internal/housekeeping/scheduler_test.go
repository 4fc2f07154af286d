package housekeeping

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct{ n int }

func (f *fakeSweeper) Sweep() int { return f.n }

type fakeLobby struct{}

func (fakeLobby) ConnectionCount() int { return 3 }
func (fakeLobby) QueueCount() int      { return 1 }
func (fakeLobby) ActiveGameCount() int { return 1 }

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestSchedulerRunsJobs(t *testing.T) {
	ran := make(chan struct{}, 1)
	s, err := NewScheduler(zerolog.Nop(), Job{
		Name:  "tick",
		Every: 20 * time.Millisecond,
		Run: func(context.Context) error {
			select {
			case ran <- struct{}{}:
			default:
			}
			return nil
		},
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
}

func TestLobbyStatsLogs(t *testing.T) {
	var buf bytes.Buffer
	job := LobbyStats(fakeLobby{}, time.Minute, zerolog.New(&buf))

	require.NoError(t, job.Run(context.Background()))
	assert.Contains(t, buf.String(), `"connections":3`)
	assert.Contains(t, buf.String(), `"queued":1`)
}

func TestRateLimitSweepAndPing(t *testing.T) {
	require.NoError(t, RateLimitSweep(&fakeSweeper{n: 2}, time.Minute, zerolog.Nop()).Run(context.Background()))

	ok := StorePing(pingFunc(func(context.Context) error { return nil }), time.Minute)
	assert.NoError(t, ok.Run(context.Background()))

	down := StorePing(pingFunc(func(context.Context) error { return errors.New("no route") }), time.Minute)
	assert.ErrorContains(t, down.Run(context.Background()), "store unreachable")
}
