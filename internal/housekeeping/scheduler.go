package housekeeping

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

const jobTimeout = 30 * time.Second

// Job is a periodic maintenance task.
type Job struct {
	Name  string
	Every time.Duration
	Run   func(ctx context.Context) error
}

// Scheduler runs maintenance jobs in the background. A job never overlaps
// with its own previous run.
type Scheduler struct {
	sched gocron.Scheduler
	log   zerolog.Logger
}

func NewScheduler(log zerolog.Logger, jobs ...Job) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	s := &Scheduler{
		sched: sched,
		log:   log.With().Str("component", "housekeeping").Logger(),
	}
	for _, job := range jobs {
		if err := s.add(job); err != nil {
			sched.Shutdown()
			return nil, err
		}
	}
	return s, nil
}

func (s *Scheduler) add(job Job) error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(job.Every),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			if err := job.Run(ctx); err != nil {
				s.log.Warn().Err(err).Str("job", job.Name).Msg("job failed")
			}
		}),
		gocron.WithName(job.Name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
	s.log.Info().Int("jobs", len(s.sched.Jobs())).Msg("scheduler started")
}

func (s *Scheduler) Stop() error {
	return s.sched.Shutdown()
}
