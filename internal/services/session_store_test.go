package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLSessionStoreLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "alice")
	store := NewSQLSessionStore(f.db, time.Hour)

	s, err := store.CreateSession(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, s.Token)

	got, err := store.GetSession(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID)

	require.NoError(t, store.DeleteSession(ctx, s.Token))
	_, err = store.GetSession(ctx, s.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLSessionStoreExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "alice")
	store := NewSQLSessionStore(f.db, time.Hour)

	s, err := store.CreateSession(ctx, u.ID)
	require.NoError(t, err)
	_, err = store.CreateSession(ctx, u.ID)
	require.NoError(t, err)

	store.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }

	_, err = store.GetSession(ctx, s.Token)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, f.count(t, "sessions"))

	n, err := store.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Zero(t, f.count(t, "sessions"))
}
