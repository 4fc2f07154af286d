package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Outcome string

const (
	OutcomeFirstMoverWon  Outcome = "FIRST_MOVER_WON"
	OutcomeSecondMoverWon Outcome = "SECOND_MOVER_WON"
	OutcomeDraw           Outcome = "DRAW"
)

// DrawWinnerText is sent as the winner of a game.end event when nobody won.
const DrawWinnerText = "It's a draw."

// MatchResult is the immutable record of a match that ended in a win or a draw.
type MatchResult struct {
	ID                     primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	GameID                 int                `json:"gameId" bson:"gameId"`
	FirstMoverID           string             `json:"player1" bson:"firstMoverId"`
	FirstMoverName         string             `json:"player1Name" bson:"firstMoverName"`
	FirstMoverRatingStart  float64            `json:"player1mmrStart" bson:"firstMoverRatingStart"`
	FirstMoverRating       float64            `json:"player1mmr" bson:"firstMoverRating"`
	SecondMoverID          string             `json:"player2" bson:"secondMoverId"`
	SecondMoverName        string             `json:"player2Name" bson:"secondMoverName"`
	SecondMoverRatingStart float64            `json:"player2mmrStart" bson:"secondMoverRatingStart"`
	SecondMoverRating      float64            `json:"player2mmr" bson:"secondMoverRating"`
	Outcome                Outcome            `json:"result" bson:"outcome"`
	CompletedAt            time.Time          `json:"completedAt" bson:"completedAt"`
}

// ScoreFor returns 1, 0.5 or 0 for the given user id, and false if the user
// did not take part.
func (r *MatchResult) ScoreFor(userID string) (float64, bool) {
	var first bool
	switch userID {
	case r.FirstMoverID:
		first = true
	case r.SecondMoverID:
		first = false
	default:
		return 0, false
	}

	switch r.Outcome {
	case OutcomeDraw:
		return 0.5, true
	case OutcomeFirstMoverWon:
		if first {
			return 1, true
		}
		return 0, true
	default:
		if first {
			return 0, true
		}
		return 1, true
	}
}

// GameStatus is the payload of game.new and game.update.
type GameStatus struct {
	GameID          int       `json:"gameId"`
	Player1ID       string    `json:"player1Id"`
	Player2ID       string    `json:"player2Id"`
	Player1Username string    `json:"player1Username"`
	Player2Username string    `json:"player2Username"`
	Player1Rating   float64   `json:"player1mmr"`
	Player2Rating   float64   `json:"player2mmr"`
	CurrentUsername string    `json:"currentUsername"`
	Field           [3][3]int `json:"field"`
}

type GameEnd struct {
	GameID int    `json:"gameId"`
	Winner string `json:"winner"`
}

type GameDisconnected struct {
	GameID int `json:"gameId"`
}

type GameInfo struct {
	GameID    int       `json:"gameId"`
	Player1   UserInfo  `json:"player1"`
	Player2   UserInfo  `json:"player2"`
	StartedAt time.Time `json:"startedAt"`
}

type InGameMessage struct {
	GameID   int    `json:"gameId"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

type MakeMove struct {
	GameID int `json:"gameId"`
	X      int `json:"xPos"`
	Y      int `json:"yPos"`
}

type ErrorMessage struct {
	Error string `json:"error"`
}

type SearchCount struct {
	Count int `json:"count"`
}

// WinLoseRate summarises a user's match history.
type WinLoseRate struct {
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	Draws       int     `json:"draws"`
	Total       int     `json:"total"`
	WinLoseRate float64 `json:"winLoseRate"`
}
