package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ayush/hashfeed/backend/internal/apierr"
	"github.com/ayush/hashfeed/backend/internal/auth"
)

// SessionResolver maps a session id to a username, returning "" when the
// session does not exist.
type SessionResolver interface {
	Get(ctx context.Context, sessionID string) (string, error)
}

// resolve returns the session's username, or "" when the request carries
// no live session. An error means the session backend could not answer.
func resolve(sessions SessionResolver, r *http.Request) (string, error) {
	cookie, err := r.Cookie(auth.SessionCookie)
	if err != nil || cookie.Value == "" {
		return "", nil
	}
	username, err := sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		return "", fmt.Errorf("%w: session lookup: %v", apierr.ErrStorage, err)
	}
	return username, nil
}

// RequireAuth is middleware that validates the session cookie and
// injects the username into the request context.
func RequireAuth(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, err := resolve(sessions, r)
			if err != nil {
				apierr.Write(w, err)
				return
			}
			if username == "" {
				apierr.Write(w, apierr.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), username)))
		})
	}
}

// OptionalAuth injects the username when the request carries a live
// session and lets anonymous requests through. A failed lookup is logged
// and the request continues anonymously.
func OptionalAuth(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, err := resolve(sessions, r)
			if err != nil {
				slog.Error("session lookup failed", "err", err)
			}
			if username != "" {
				r = r.WithContext(auth.WithUser(r.Context(), username))
			}
			next.ServeHTTP(w, r)
		})
	}
}
