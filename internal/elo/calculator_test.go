package elo

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"tictactoe-server/internal/models"
)

func TestExpectedScore(t *testing.T) {
	c := NewCalculator()

	assert.InDelta(t, 0.5, c.ExpectedScore(1200, 1200), 1e-9)
	assert.InDelta(t, 1/(1+math.Pow(10, 0.125)), c.ExpectedScore(1000, 1050), 1e-9)

	// Expected scores of both sides sum to one
	for _, pair := range [][2]float64{{1000, 1050}, {800, 1600}, {1500, 1499}} {
		sum := c.ExpectedScore(pair[0], pair[1]) + c.ExpectedScore(pair[1], pair[0])
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestNewRatingDrawBetweenEqualsIsNeutral(t *testing.T) {
	c := NewCalculator()
	for _, r := range []float64{0, 400, 1000, 1234.5, 2800} {
		assert.InDelta(t, r, c.NewRating(r, r, Draw), 1e-9, "rating %v", r)
	}
}

func TestNewRatingMonotonicity(t *testing.T) {
	c := NewCalculator()
	ratings := []float64{600, 1000, 1050, 1400, 2200}

	for _, current := range ratings {
		for _, opponent := range ratings {
			t.Run(fmt.Sprintf("%v_vs_%v", current, opponent), func(t *testing.T) {
				assert.GreaterOrEqual(t, c.NewRating(current, opponent, Win), current)
				assert.LessOrEqual(t, c.NewRating(current, opponent, Loss), current)
				assert.LessOrEqual(t, c.NewRating(current, opponent, Win)-current, float64(KFactor))
				assert.GreaterOrEqual(t, c.NewRating(current, opponent, Loss)-current, -float64(KFactor))
			})
		}
	}
}

func TestSettleUsesPreMatchRatings(t *testing.T) {
	c := NewCalculator()

	first, second := c.Settle(1000, 1050, models.OutcomeFirstMoverWon)

	expectedFirst := 1 / (1 + math.Pow(10, 50.0/400))
	expectedSecond := 1 / (1 + math.Pow(10, -50.0/400))
	assert.InDelta(t, 1000+20*(1-expectedFirst), first, 1e-9)
	assert.InDelta(t, 1050+20*(0-expectedSecond), second, 1e-9)

	// Zero-sum for equal K
	assert.InDelta(t, 2050, first+second, 1e-9)
}

func TestScores(t *testing.T) {
	tests := []struct {
		outcome models.Outcome
		first   float64
		second  float64
	}{
		{models.OutcomeFirstMoverWon, Win, Loss},
		{models.OutcomeSecondMoverWon, Loss, Win},
		{models.OutcomeDraw, Draw, Draw},
	}

	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			first, second := Scores(tt.outcome)
			assert.Equal(t, tt.first, first)
			assert.Equal(t, tt.second, second)
		})
	}
}
