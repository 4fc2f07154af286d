package audit

import (
	"context"
	"net/http"
	"time"

	"tictactoe-server/internal/middleware"
	"tictactoe-server/internal/models"

	"github.com/rs/zerolog"
)

// Event types for audit logging
const (
	EventIdentityRejected = "identity_rejected"
	EventAdminAccess      = "admin_access"
)

const writeTimeout = 5 * time.Second

// Recorder persists audit events.
type Recorder interface {
	RecordAudit(ctx context.Context, event *models.AuditEvent) error
}

// Logger writes audit events to a Recorder without blocking the request. With
// no Recorder events only reach the application log. A nil *Logger is a no-op.
type Logger struct {
	rec Recorder
	log zerolog.Logger
}

func NewLogger(rec Recorder, log zerolog.Logger) *Logger {
	return &Logger{rec: rec, log: log.With().Str("component", "audit").Logger()}
}

// LogEvent records one event for the request (fire-and-forget).
func (l *Logger) LogEvent(r *http.Request, eventType, userID, details string) {
	if l == nil {
		return
	}
	event := &models.AuditEvent{
		EventType: eventType,
		UserID:    userID,
		IP:        middleware.GetClientIP(r),
		UserAgent: r.UserAgent(),
		Details:   details,
		CreatedAt: time.Now(),
	}
	l.log.Info().
		Str("event_type", eventType).
		Str("user_id", userID).
		Str("ip", event.IP).
		Str("details", details).
		Msg("audit event")

	if l.rec == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := l.rec.RecordAudit(ctx, event); err != nil {
			l.log.Warn().Err(err).Str("event_type", eventType).Msg("audit log write failed")
		}
	}()
}

// AdminAccess records every request that reaches an admin-only handler. It
// must run after the admin check so the user is in the context.
func (l *Logger) AdminAccess(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var userID string
		if user, ok := middleware.GetUserFromContext(r.Context()); ok {
			userID = user.ID.Hex()
		}
		l.LogEvent(r, EventAdminAccess, userID, r.Method+" "+r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
