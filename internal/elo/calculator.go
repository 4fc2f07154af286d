package elo

import (
	"math"

	"tictactoe-server/internal/models"
)

// Score values fed into the rating formula.
const (
	Loss = 0.0
	Draw = 0.5
	Win  = 1.0
)

// KFactor is the fixed maximum rating swing per match.
const KFactor = 20

type Calculator struct {
	k float64
}

func NewCalculator() *Calculator {
	return &Calculator{k: KFactor}
}

// NewRating calculates the updated Elo rating for a player
// current: rating of the player before the match
// opponent: rating of the opponent before the match
// score: Win, Draw or Loss
func (c *Calculator) NewRating(current, opponent, score float64) float64 {
	// ΔR = K × (S - E)
	return current + c.k*(score-c.ExpectedScore(current, opponent))
}

// ExpectedScore calculates the expected score using the Elo formula
// E = 1 / (1 + 10^((OpponentRating - PlayerRating) / 400))
func (c *Calculator) ExpectedScore(current, opponent float64) float64 {
	exponent := (opponent - current) / 400.0
	return 1.0 / (1.0 + math.Pow(10, exponent))
}

// Settle returns both players' new ratings for a finished match. Both are
// computed from the pre-match values so the order of evaluation is irrelevant.
func (c *Calculator) Settle(first, second float64, outcome models.Outcome) (float64, float64) {
	firstScore, secondScore := Scores(outcome)
	return c.NewRating(first, second, firstScore), c.NewRating(second, first, secondScore)
}

// Scores converts an outcome to (firstMoverScore, secondMoverScore).
func Scores(outcome models.Outcome) (float64, float64) {
	switch outcome {
	case models.OutcomeFirstMoverWon:
		return Win, Loss
	case models.OutcomeSecondMoverWon:
		return Loss, Win
	default:
		return Draw, Draw
	}
}
