package game

import (
	"errors"
	"sync"
	"time"

	"tictactoe-server/internal/connection"
	"tictactoe-server/internal/models"
)

var (
	ErrNotYourTurn    = errors.New("it is not your turn")
	ErrOutOfBounds    = errors.New("move is outside the board")
	ErrCellOccupied   = errors.New("cell is already occupied")
	ErrNotParticipant = errors.New("you are not allowed to make a move in this game")
	ErrGameOver       = errors.New("game is already over")
)

type State int

const (
	StateActive State = iota
	StateWon
	StateDraw
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateWon:
		return "won"
	case StateDraw:
		return "draw"
	case StateAborted:
		return "aborted"
	default:
		return "active"
	}
}

// MoveResult describes an accepted move.
type MoveResult struct {
	Board Board
	State State
	// Concluded is true only for the move that ended the game.
	Concluded bool
	Winner    *connection.Connection
	// Status is the game.update payload as of this move.
	Status models.GameStatus
}

// Session is one match. The first mover always opens.
type Session struct {
	ID        int
	first     *connection.Connection
	second    *connection.Connection
	StartedAt time.Time

	mu          sync.Mutex
	board       Board
	firstToMove bool
	state       State
	winner      Cell
}

func NewSession(id int, first, second *connection.Connection) *Session {
	return &Session{
		ID:          id,
		first:       first,
		second:      second,
		StartedAt:   time.Now(),
		firstToMove: true,
	}
}

// SubmitMove validates and applies a move by player at (x, y). A rejected
// move leaves the session untouched.
func (s *Session) SubmitMove(player *connection.Connection, x, y int) (MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return MoveResult{}, ErrGameOver
	}

	mark, ok := s.markFor(player)
	if !ok {
		return MoveResult{}, ErrNotParticipant
	}
	if (mark == FirstMover) != s.firstToMove {
		return MoveResult{}, ErrNotYourTurn
	}
	if !inBounds(x, y) {
		return MoveResult{}, ErrOutOfBounds
	}
	if s.board[x][y] != Empty {
		return MoveResult{}, ErrCellOccupied
	}

	s.board[x][y] = mark
	s.firstToMove = !s.firstToMove

	concluded := s.detectOutcomeLocked()
	return MoveResult{
		Board:     s.board,
		State:     s.state,
		Concluded: concluded,
		Winner:    s.winnerLocked(),
		Status:    s.statusLocked(),
	}, nil
}

// CheckOutcome reports the current outcome, running detection if the game
// is still active. Once terminal the result never changes.
func (s *Session) CheckOutcome() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detectOutcomeLocked()
	return s.state
}

// Abort ends an active game without a result. It reports false if the game
// had already ended, in which case the earlier outcome stands.
func (s *Session) Abort() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return false
	}
	s.state = StateAborted
	return true
}

// detectOutcomeLocked moves an active game to its terminal state and reports
// whether this call made the transition.
func (s *Session) detectOutcomeLocked() bool {
	if s.state != StateActive {
		return false
	}
	if w := s.board.Winner(); w != Empty {
		s.state = StateWon
		s.winner = w
		return true
	}
	if s.board.Full() {
		s.state = StateDraw
		return true
	}
	return false
}

func (s *Session) markFor(player *connection.Connection) (Cell, bool) {
	switch {
	case player == nil:
		return Empty, false
	case player.SessionID == s.first.SessionID:
		return FirstMover, true
	case player.SessionID == s.second.SessionID:
		return SecondMover, true
	}
	return Empty, false
}

func (s *Session) winnerLocked() *connection.Connection {
	switch s.winner {
	case FirstMover:
		return s.first
	case SecondMover:
		return s.second
	}
	return nil
}

// Board returns a copy of the grid.
func (s *Session) Board() Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Winner() *connection.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.winnerLocked()
}

// Outcome maps a terminal state to the persisted outcome tag.
func (s *Session) Outcome() (models.Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.state == StateDraw:
		return models.OutcomeDraw, true
	case s.state == StateWon && s.winner == FirstMover:
		return models.OutcomeFirstMoverWon, true
	case s.state == StateWon:
		return models.OutcomeSecondMoverWon, true
	}
	return "", false
}

// ActivePlayerName returns the display name of the player whose turn it is.
func (s *Session) ActivePlayerName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeNameLocked()
}

func (s *Session) activeNameLocked() string {
	if s.firstToMove {
		return s.first.DisplayName
	}
	return s.second.DisplayName
}

func (s *Session) IsParticipant(conn *connection.Connection) bool {
	_, ok := s.markFor(conn)
	return ok
}

// Players returns (firstMover, secondMover).
func (s *Session) Players() (*connection.Connection, *connection.Connection) {
	return s.first, s.second
}

// Opponent returns the other participant, or nil if conn is not playing.
func (s *Session) Opponent(conn *connection.Connection) *connection.Connection {
	mark, ok := s.markFor(conn)
	if !ok {
		return nil
	}
	if mark == FirstMover {
		return s.second
	}
	return s.first
}

// Status builds the game.new/game.update payload.
func (s *Session) Status() models.GameStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() models.GameStatus {
	return models.GameStatus{
		GameID:          s.ID,
		Player1ID:       s.first.UserID,
		Player2ID:       s.second.UserID,
		Player1Username: s.first.DisplayName,
		Player2Username: s.second.DisplayName,
		Player1Rating:   s.first.Rating(),
		Player2Rating:   s.second.Rating(),
		CurrentUsername: s.activeNameLocked(),
		Field:           s.board.Ints(),
	}
}

// Info builds the admin game.list.info entry.
func (s *Session) Info() models.GameInfo {
	return models.GameInfo{
		GameID:    s.ID,
		Player1:   s.first.Info(),
		Player2:   s.second.Info(),
		StartedAt: s.StartedAt,
	}
}
