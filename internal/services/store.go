package services

import (
	"context"

	"tictactoe-server/internal/models"
)

// Store is the persistence collaborator. GetUserByID returns
// models.ErrUserNotFound for unknown ids.
type Store interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UserExists(ctx context.Context, id string) (bool, error)
	UpdateRating(ctx context.Context, id string, rating float64) error
	IncrementOutcomeCounter(ctx context.Context, id string, outcome models.CounterOutcome) error
	SaveMatchResult(ctx context.Context, result *models.MatchResult) error
	ListMatchResultsByUser(ctx context.Context, id string) ([]models.MatchResult, error)
	TopUsers(ctx context.Context, limit int) ([]models.User, error)
}
