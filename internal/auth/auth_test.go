package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/blogstack/internal/models"
	"github.com/isdelr/blogstack/internal/services"
)

var admin = models.User{ID: 7, Username: "admin"}

func TestGenerateAndValidateJWT(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.GenerateJWT(admin)
	require.NoError(t, err)

	claims, err := issuer.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "7", claims.Subject)
}

func TestValidateJWTRejects(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	other, err := NewTokenIssuer("other", time.Hour).GenerateJWT(admin)
	require.NoError(t, err)
	_, err = issuer.ValidateJWT(other)
	assert.Error(t, err, "wrong signature")

	expiredIssuer := NewTokenIssuer("secret", time.Hour)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredIssuer.GenerateJWT(admin)
	require.NoError(t, err)
	_, err = issuer.ValidateJWT(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: 1}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.ValidateJWT(unsigned)
	assert.Error(t, err, "alg none")
}

func whoAmI(w http.ResponseWriter, r *http.Request) {
	id, ok := UserIDFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	w.Header().Set("X-User", strconv.FormatInt(id, 10))
}

func TestMiddleware(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, err := issuer.GenerateJWT(admin)
	require.NoError(t, err)
	h := issuer.Middleware(http.HandlerFunc(whoAmI))

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "7", rec.Header().Get("X-User"))
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: token})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

type fakeSessions map[string]models.Session

func (f fakeSessions) GetSession(_ context.Context, token string) (models.Session, error) {
	if token == "down" {
		return models.Session{}, errors.New("connection refused")
	}
	s, ok := f[token]
	if !ok {
		return models.Session{}, fmt.Errorf("session: %w", services.ErrNotFound)
	}
	return s, nil
}

func TestSessionMiddleware(t *testing.T) {
	store := fakeSessions{"good": {Token: "good", UserID: 3}}
	h := LoadSession(store)(RequireSession(http.HandlerFunc(whoAmI)))

	req := httptest.NewRequest(http.MethodGet, "/posts/create", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "good"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-User"))

	req = httptest.NewRequest(http.MethodGet, "/posts/create", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), SessionCookieName+"=;")

	// A failing store leaves the cookie alone.
	req = httptest.NewRequest(http.MethodGet, "/posts/create", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "down"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, rec.Header().Get("Set-Cookie"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}
