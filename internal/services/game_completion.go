package services

import (
	"context"
	"fmt"
	"time"

	"tictactoe-server/internal/elo"
	"tictactoe-server/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// PlayerSnapshot is a participant as seen at the moment the match concluded.
type PlayerSnapshot struct {
	UserID string
	Name   string
	Rating float64
}

// CompletedGame is the input to the completion pipeline.
type CompletedGame struct {
	GameID  int
	First   PlayerSnapshot
	Second  PlayerSnapshot
	Outcome models.Outcome
}

// GameCompletionResult holds the results of processing a completed game
type GameCompletionResult struct {
	FirstNewRating  float64
	SecondNewRating float64
	Match           *models.MatchResult
}

// GameCompletionService handles post-game processing: rating updates, win/loss
// counters and the match record.
type GameCompletionService struct {
	store      Store
	calculator *elo.Calculator
	log        zerolog.Logger
	now        func() time.Time
}

func NewGameCompletionService(store Store, log zerolog.Logger) *GameCompletionService {
	return &GameCompletionService{
		store:      store,
		calculator: elo.NewCalculator(),
		log:        log.With().Str("component", "game_completion").Logger(),
		now:        time.Now,
	}
}

// Complete settles ratings from the snapshots, persists both players and then
// the match record. The first persistence failure stops the pipeline and is
// returned wrapped in ErrPersistence; the result still carries the settled
// ratings.
func (s *GameCompletionService) Complete(ctx context.Context, game CompletedGame) (*GameCompletionResult, error) {
	firstNew, secondNew := s.calculator.Settle(game.First.Rating, game.Second.Rating, game.Outcome)

	s.log.Info().
		Int("game_id", game.GameID).
		Str("outcome", string(game.Outcome)).
		Float64("first_from", game.First.Rating).
		Float64("first_to", firstNew).
		Float64("second_from", game.Second.Rating).
		Float64("second_to", secondNew).
		Msg("settling match")

	result := &GameCompletionResult{
		FirstNewRating:  firstNew,
		SecondNewRating: secondNew,
	}

	firstCounter, secondCounter, counted := counters(game.Outcome)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.persistPlayer(gctx, game.First.UserID, firstNew, firstCounter, counted)
	})
	g.Go(func() error {
		return s.persistPlayer(gctx, game.Second.UserID, secondNew, secondCounter, counted)
	})
	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).Int("game_id", game.GameID).Msg("failed to persist player stats")
		return result, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	match := &models.MatchResult{
		GameID:                 game.GameID,
		FirstMoverID:           game.First.UserID,
		FirstMoverName:         game.First.Name,
		FirstMoverRatingStart:  game.First.Rating,
		FirstMoverRating:       firstNew,
		SecondMoverID:          game.Second.UserID,
		SecondMoverName:        game.Second.Name,
		SecondMoverRatingStart: game.Second.Rating,
		SecondMoverRating:      secondNew,
		Outcome:                game.Outcome,
		CompletedAt:            s.now(),
	}
	if err := s.store.SaveMatchResult(ctx, match); err != nil {
		s.log.Error().Err(err).Int("game_id", game.GameID).Msg("failed to save match result")
		return result, fmt.Errorf("%w: save match %d: %v", ErrPersistence, game.GameID, err)
	}
	result.Match = match

	return result, nil
}

func (s *GameCompletionService) persistPlayer(ctx context.Context, userID string, rating float64, counter models.CounterOutcome, counted bool) error {
	if err := s.store.UpdateRating(ctx, userID, rating); err != nil {
		return fmt.Errorf("update rating for %s: %w", userID, err)
	}
	if !counted {
		return nil
	}
	if err := s.store.IncrementOutcomeCounter(ctx, userID, counter); err != nil {
		return fmt.Errorf("increment %s for %s: %w", counter, userID, err)
	}
	return nil
}

// counters maps an outcome to each player's counter. Draws count nothing.
func counters(outcome models.Outcome) (first, second models.CounterOutcome, counted bool) {
	switch outcome {
	case models.OutcomeFirstMoverWon:
		return models.CounterWin, models.CounterLoss, true
	case models.OutcomeSecondMoverWon:
		return models.CounterLoss, models.CounterWin, true
	default:
		return "", "", false
	}
}
