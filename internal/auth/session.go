package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/blogstack/internal/models"
	"github.com/isdelr/blogstack/internal/services"
)

// SessionCookieName carries the web UI session token.
const SessionCookieName = "session"

// SessionLookup resolves a session token.
type SessionLookup interface {
	GetSession(ctx context.Context, token string) (models.Session, error)
}

// LoadSession attaches the session's user id to the request when the
// cookie names a live session. Anonymous requests pass through.
func LoadSession(store SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err == nil && cookie.Value != "" {
				session, err := store.GetSession(r.Context(), cookie.Value)
				switch {
				case err == nil:
					r = r.WithContext(WithUserID(r.Context(), session.UserID))
				case errors.Is(err, services.ErrNotFound):
					ClearSessionCookie(w)
				default:
					// Keep the cookie; the store may be back on the next request.
					log.Warn().Err(err).Msg("Session lookup failed")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession redirects anonymous visitors to the login page.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SetSessionCookie writes the session cookie.
func SetSessionCookie(w http.ResponseWriter, session models.Session, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// SetTokenCookie stores an API token for browser clients.
func SetTokenCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
}
