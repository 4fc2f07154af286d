// Package connection tracks the authenticated WebSocket sessions currently
// attached to the server.
package connection

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tictactoe-server/internal/models"
)

// Sender pushes events to the transport session behind a Connection.
type Sender interface {
	Emit(event string, payload any) error
	Close() error
}

// Connection is one authenticated, attached client. The registry owns it;
// the queue and game sessions only hold references.
type Connection struct {
	SessionID   string
	UserID      string
	DisplayName string
	IsAdmin     bool
	ConnectedAt time.Time

	sender Sender

	mu     sync.RWMutex
	rating float64
}

func (c *Connection) Rating() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rating
}

func (c *Connection) SetRating(rating float64) {
	c.mu.Lock()
	c.rating = rating
	c.mu.Unlock()
}

// Emit sends an event to the client. Delivery is best effort.
func (c *Connection) Emit(event string, payload any) error {
	return c.sender.Emit(event, payload)
}

func (c *Connection) Close() error {
	return c.sender.Close()
}

// Info returns the public view used in observer broadcasts.
func (c *Connection) Info() models.UserInfo {
	return models.UserInfo{
		ID:       c.UserID,
		Username: c.DisplayName,
		Rating:   c.Rating(),
		IsAdmin:  c.IsAdmin,
	}
}

type Registry struct {
	mu          sync.RWMutex
	connections map[string]*Connection
}

func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[string]*Connection),
	}
}

// Register creates a Connection under a freshly generated session id.
func (r *Registry) Register(user *models.User, sender Sender) *Connection {
	return r.RegisterSession(uuid.NewString(), user, sender)
}

// RegisterSession creates a Connection for sessionID. An existing entry with
// the same session id is replaced without cleanup.
func (r *Registry) RegisterSession(sessionID string, user *models.User, sender Sender) *Connection {
	conn := &Connection{
		SessionID:   sessionID,
		UserID:      user.ID.Hex(),
		DisplayName: user.Username,
		IsAdmin:     user.IsAdmin,
		ConnectedAt: time.Now(),
		sender:      sender,
		rating:      user.Rating,
	}

	r.mu.Lock()
	r.connections[sessionID] = conn
	r.mu.Unlock()

	return conn
}

// Unregister removes the session and returns the Connection it held.
func (r *Registry) Unregister(sessionID string) (*Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[sessionID]
	if ok {
		delete(r.connections, sessionID)
	}
	return conn, ok
}

func (r *Registry) Lookup(sessionID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.connections[sessionID]
	return conn, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}

// All returns a snapshot of every connection ordered by connect time.
func (r *Registry) All() []*Connection {
	return r.filter(func(*Connection) bool { return true })
}

// Admins returns a snapshot of the connections flagged as administrator.
func (r *Registry) Admins() []*Connection {
	return r.filter(func(c *Connection) bool { return c.IsAdmin })
}

func (r *Registry) filter(keep func(*Connection) bool) []*Connection {
	r.mu.RLock()
	out := make([]*Connection, 0, len(r.connections))
	for _, c := range r.connections {
		if keep(c) {
			out = append(out, c)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ConnectedAt.Equal(out[j].ConnectedAt) {
			return out[i].SessionID < out[j].SessionID
		}
		return out[i].ConnectedAt.Before(out[j].ConnectedAt)
	})
	return out
}
