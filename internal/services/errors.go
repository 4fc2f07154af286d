package services

import (
	"errors"

	"tictactoe-server/internal/game"
	"tictactoe-server/internal/matchmaking"
)

var (
	ErrIdentity          = errors.New("no user found")
	ErrUnknownConnection = errors.New("connection is not registered")
	ErrGameNotFound      = errors.New("game not found")
	ErrNotParticipant    = errors.New("you are not a participant of this game")
	ErrAlreadyPlaying    = errors.New("already playing a game")
	ErrEmptyMessage      = errors.New("message is empty")
	ErrMessageTooLong    = errors.New("message is too long")
	ErrPersistence       = errors.New("failed to record match result")
)

// ClientMessage returns the text sent to a client in an error event.
// Internal details never leak past this point.
func ClientMessage(err error) string {
	known := []error{
		game.ErrNotYourTurn,
		game.ErrOutOfBounds,
		game.ErrCellOccupied,
		game.ErrIDSpaceExhausted,
		matchmaking.ErrAlreadyQueued,
		ErrIdentity,
		ErrUnknownConnection,
		ErrGameNotFound,
		ErrNotParticipant,
		ErrAlreadyPlaying,
		ErrEmptyMessage,
		ErrMessageTooLong,
		ErrPersistence,
	}
	for _, k := range known {
		if errors.Is(err, k) {
			if k == game.ErrIDSpaceExhausted {
				return "no game slot available, try again later"
			}
			return k.Error()
		}
	}
	return "internal server error"
}
