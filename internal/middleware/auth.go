package middleware

import (
	"context"
	"errors"
	"net/http"

	"tictactoe-server/internal/auth"
	"tictactoe-server/internal/models"

	"github.com/rs/zerolog"
)

type contextKey string

const (
	UserContextKey contextKey = "user"
)

// UserLoader loads the account behind a token's user id.
type UserLoader interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type AuthMiddleware struct {
	tokens auth.TokenResolver
	users  UserLoader
	log    zerolog.Logger
}

func NewAuthMiddleware(tokens auth.TokenResolver, users UserLoader, log zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		users:  users,
		log:    log.With().Str("component", "auth").Logger(),
	}
}

// RequireAuth validates the bearer token and loads the user into context.
// Returns 401 if the token is missing or invalid, or the user is gone.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := m.tokens.ResolveUserID(r.Header.Get("Authorization"))
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrMissingToken):
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
			case errors.Is(err, auth.ErrExpiredToken):
				http.Error(w, "Token has expired", http.StatusUnauthorized)
			default:
				http.Error(w, "Invalid token", http.StatusUnauthorized)
			}
			return
		}

		user, err := m.users.GetUserByID(r.Context(), userID)
		if err != nil {
			if !errors.Is(err, models.ErrUserNotFound) {
				m.log.Error().Err(err).Str("user_id", userID).Msg("user lookup failed")
			}
			http.Error(w, "User not found", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin is RequireAuth plus a 403 for non-admin accounts.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUserFromContext(r.Context())
		if !ok || !user.IsAdmin {
			http.Error(w, "Admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// GetUserFromContext retrieves the authenticated user from the request context
func GetUserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok
}
