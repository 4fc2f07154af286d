package matchmaking

import (
	"errors"
	"math"
	"sync"

	"tictactoe-server/internal/connection"
)

// RatingThreshold is the exclusive upper bound on the rating gap between
// two paired players.
const RatingThreshold = 200

var ErrAlreadyQueued = errors.New("already in search queue")

// ChangeNotifier is called after every change to queue membership.
type ChangeNotifier func()

// Queue holds idle connections waiting for an opponent, in arrival order.
// Pairing takes the first compatible member rather than the closest one.
type Queue struct {
	mu             sync.Mutex
	entries        []*connection.Connection
	threshold      float64
	changeNotifier ChangeNotifier
}

func NewQueue() *Queue {
	return &Queue{threshold: RatingThreshold}
}

// SetChangeNotifier registers a callback invoked when the queue changes.
// The callback runs after the queue lock is released.
func (q *Queue) SetChangeNotifier(fn ChangeNotifier) {
	q.changeNotifier = fn
}

// Enqueue adds conn to the back of the queue.
func (q *Queue) Enqueue(conn *connection.Connection) error {
	q.mu.Lock()
	if q.indexOfUserLocked(conn.UserID) >= 0 {
		q.mu.Unlock()
		return ErrAlreadyQueued
	}
	q.entries = append(q.entries, conn)
	q.mu.Unlock()

	q.notify()
	return nil
}

// Dequeue removes conn if it is queued and reports whether it was.
func (q *Queue) Dequeue(conn *connection.Connection) bool {
	q.mu.Lock()
	i := q.indexOfSessionLocked(conn.SessionID)
	if i >= 0 {
		q.removeAtLocked(i)
	}
	q.mu.Unlock()

	if i >= 0 {
		q.notify()
	}
	return i >= 0
}

// FindOpponent returns the first queued member compatible with conn without
// modifying the queue.
func (q *Queue) FindOpponent(conn *connection.Connection) (*connection.Connection, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.findOpponentLocked(conn)
	if i < 0 {
		return nil, false
	}
	return q.entries[i], true
}

// Pair either matches conn with the first compatible queued member, removing
// that member, or appends conn to the queue. Both outcomes happen under one
// lock so no other operation sees a half-applied pairing.
func (q *Queue) Pair(conn *connection.Connection) (*connection.Connection, bool, error) {
	q.mu.Lock()
	if q.indexOfUserLocked(conn.UserID) >= 0 {
		q.mu.Unlock()
		return nil, false, ErrAlreadyQueued
	}

	var opponent *connection.Connection
	if i := q.findOpponentLocked(conn); i >= 0 {
		opponent = q.entries[i]
		q.removeAtLocked(i)
	} else {
		q.entries = append(q.entries, conn)
	}
	q.mu.Unlock()

	q.notify()
	return opponent, opponent != nil, nil
}

func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Snapshot returns the queued connections in arrival order.
func (q *Queue) Snapshot() []*connection.Connection {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*connection.Connection(nil), q.entries...)
}

// Contains reports whether conn's user is queued.
func (q *Queue) Contains(conn *connection.Connection) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.indexOfUserLocked(conn.UserID) >= 0
}

func (q *Queue) findOpponentLocked(conn *connection.Connection) int {
	rating := conn.Rating()
	for i, candidate := range q.entries {
		if candidate.UserID == conn.UserID {
			continue
		}
		if math.Abs(candidate.Rating()-rating) < q.threshold {
			return i
		}
	}
	return -1
}

func (q *Queue) indexOfUserLocked(userID string) int {
	for i, e := range q.entries {
		if e.UserID == userID {
			return i
		}
	}
	return -1
}

func (q *Queue) indexOfSessionLocked(sessionID string) int {
	for i, e := range q.entries {
		if e.SessionID == sessionID {
			return i
		}
	}
	return -1
}

func (q *Queue) removeAtLocked(i int) {
	copy(q.entries[i:], q.entries[i+1:])
	q.entries[len(q.entries)-1] = nil
	q.entries = q.entries[:len(q.entries)-1]
}

func (q *Queue) notify() {
	if q.changeNotifier != nil {
		q.changeNotifier()
	}
}
