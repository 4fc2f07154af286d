package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tictactoe-server/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps users and match results in process. It backs tests and
// the "memory" storage mode used for local play without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]models.User
	results []models.MatchResult
	audit   []models.AuditEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]models.User)}
}

// AddUser stores a copy of u, assigning an id if it has none, and returns the
// id in hex form.
func (s *MemoryStore) AddUser(u models.User) string {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	s.mu.Lock()
	s.users[u.ID.Hex()] = u
	s.mu.Unlock()
	return u.ID.Hex()
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return &u, nil
}

func (s *MemoryStore) UserExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[id]
	return ok, nil
}

func (s *MemoryStore) UpdateRating(_ context.Context, id string, rating float64) error {
	return s.updateUser(id, func(u *models.User) error {
		u.Rating = rating
		return nil
	})
}

func (s *MemoryStore) IncrementOutcomeCounter(_ context.Context, id string, outcome models.CounterOutcome) error {
	return s.updateUser(id, func(u *models.User) error {
		switch outcome {
		case models.CounterWin:
			u.Wins++
		case models.CounterLoss:
			u.Losses++
		default:
			return fmt.Errorf("unknown outcome counter %q", outcome)
		}
		return nil
	})
}

func (s *MemoryStore) updateUser(id string, fn func(*models.User) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.ErrUserNotFound
	}
	if err := fn(&u); err != nil {
		return err
	}
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return nil
}

func (s *MemoryStore) SaveMatchResult(_ context.Context, result *models.MatchResult) error {
	if result.ID.IsZero() {
		result.ID = primitive.NewObjectID()
	}
	s.mu.Lock()
	s.results = append(s.results, *result)
	s.mu.Unlock()
	return nil
}

// ListMatchResultsByUser returns every match the user played, newest first.
func (s *MemoryStore) ListMatchResultsByUser(_ context.Context, id string) ([]models.MatchResult, error) {
	s.mu.RLock()
	out := []models.MatchResult{}
	for _, r := range s.results {
		if r.FirstMoverID == id || r.SecondMoverID == id {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	return out, nil
}

// TopUsers returns up to limit users ordered by rating, highest first.
func (s *MemoryStore) TopUsers(_ context.Context, limit int) ([]models.User, error) {
	s.mu.RLock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].Username < out[j].Username
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MatchResults returns every stored result in insertion order.
func (s *MemoryStore) MatchResults() []models.MatchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.MatchResult(nil), s.results...)
}

func (s *MemoryStore) RecordAudit(_ context.Context, event *models.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, *event)
	return nil
}

func (s *MemoryStore) AuditEvents() []models.AuditEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AuditEvent(nil), s.audit...)
}
