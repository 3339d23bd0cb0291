package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/redmonkez12/eventhub-auth/internal/httputil"
	"github.com/redmonkez12/eventhub-auth/internal/token"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const IdentityContextKey ContextKey = "identity"

// SessionAuthenticator validates session tokens. *Service implements it.
type SessionAuthenticator interface {
	AuthenticateSession(rawToken string) (*token.Claims, error)
}

// Middleware handles authentication for protected routes
type Middleware struct {
	sessions SessionAuthenticator
}

func NewMiddleware(sessions SessionAuthenticator) *Middleware {
	return &Middleware{sessions: sessions}
}

// RequireAuth is a middleware that validates the Bearer session token
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		claims, err := m.sessions.AuthenticateSession(parts[1])
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				httputil.RespondErrorWithCode(w, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
				return
			}
			httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, claims.Identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentityFromContext extracts the authenticated email from the request context
func GetIdentityFromContext(ctx context.Context) (string, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(string)
	return identity, ok && identity != ""
}
