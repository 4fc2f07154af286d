package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"tictactoe-server/internal/connection"
)

var ErrIDSpaceExhausted = errors.New("no free game id found")

// AbortNotifier is called for every game torn down because a participant
// left. remaining is the player still attached.
type AbortNotifier func(gameID int, remaining *connection.Connection)

// Registry owns every active Session keyed by its numeric id. Ids are only
// unique among active games and are reused once a game is removed.
type Registry struct {
	mu            sync.RWMutex
	sessions      map[int]*Session
	idSpace       int
	maxAttempts   int
	randID        func(n int) int
	abortNotifier AbortNotifier
}

func NewRegistry(idSpace, maxAttempts int) *Registry {
	return &Registry{
		sessions:    make(map[int]*Session),
		idSpace:     idSpace,
		maxAttempts: maxAttempts,
		randID:      rand.IntN,
	}
}

// SetAbortNotifier registers the callback used by TerminateAllInvolving.
func (r *Registry) SetAbortNotifier(fn AbortNotifier) {
	r.abortNotifier = fn
}

// Create starts a new game with first moving first. The id is drawn
// uniformly from [1, idSpace] and redrawn on collision, at most maxAttempts
// times.
func (r *Registry) Create(first, second *connection.Connection) (int, *Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		id := r.randID(r.idSpace) + 1
		if _, taken := r.sessions[id]; taken {
			continue
		}
		session := NewSession(id, first, second)
		r.sessions[id] = session
		return id, session, nil
	}

	return 0, nil, fmt.Errorf("%w after %d attempts (%d active of %d)",
		ErrIDSpaceExhausted, r.maxAttempts, len(r.sessions), r.idSpace)
}

func (r *Registry) Get(id int) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove deletes the game and reports whether it existed.
func (r *Registry) Remove(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ListActive returns every registered game ordered by id.
func (r *Registry) ListActive() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InActiveGame reports whether conn plays in a game that has not ended yet.
func (r *Registry) InActiveGame(conn *connection.Connection) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.IsParticipant(conn) && s.State() == StateActive {
			return true
		}
	}
	return false
}

// TerminateAllInvolving removes every still-active game conn takes part in,
// notifying the other participant. Games already in a terminal state are
// left to their completion path. Returns the removed ids.
func (r *Registry) TerminateAllInvolving(conn *connection.Connection) []int {
	type aborted struct {
		id        int
		remaining *connection.Connection
	}
	var removed []aborted

	r.mu.Lock()
	for id, s := range r.sessions {
		if !s.IsParticipant(conn) || !s.Abort() {
			continue
		}
		removed = append(removed, aborted{id: id, remaining: s.Opponent(conn)})
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	sort.Slice(removed, func(i, j int) bool { return removed[i].id < removed[j].id })

	ids := make([]int, 0, len(removed))
	for _, a := range removed {
		if r.abortNotifier != nil {
			r.abortNotifier(a.id, a.remaining)
		}
		ids = append(ids, a.id)
	}
	return ids
}
