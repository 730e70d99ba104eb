package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/blogstack/internal/models"
	"github.com/redis/go-redis/v9"
)

// SessionStore keeps server-side web UI sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, userID int64) (models.Session, error)
	GetSession(ctx context.Context, token string) (models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

// SQLSessionStore stores sessions in the sessions table.
type SQLSessionStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLSessionStore creates a session store backed by db.
func NewSQLSessionStore(db *sql.DB, ttl time.Duration) *SQLSessionStore {
	return &SQLSessionStore{db: db, ttl: ttl, now: utcNow}
}

// CreateSession opens a new session for userID.
func (s *SQLSessionStore) CreateSession(ctx context.Context, userID int64) (models.Session, error) {
	now := s.now()
	session := models.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions(token, user_id, expires_at, created_at) VALUES(?, ?, ?, ?)",
		session.Token, session.UserID, session.ExpiresAt, session.CreatedAt)
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// GetSession returns a live session. Expired sessions are removed and reported as not found.
func (s *SQLSessionStore) GetSession(ctx context.Context, token string) (models.Session, error) {
	var session models.Session
	err := s.db.QueryRowContext(ctx,
		"SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = ?", token).
		Scan(&session.Token, &session.UserID, &session.ExpiresAt, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, fmt.Errorf("session: %w", ErrNotFound)
		}
		return models.Session{}, err
	}

	if session.Expired(s.now()) {
		if err := s.DeleteSession(ctx, token); err != nil {
			return models.Session{}, err
		}
		return models.Session{}, fmt.Errorf("session expired: %w", ErrNotFound)
	}
	return session, nil
}

// DeleteSession ends a session. Unknown tokens are ignored.
func (s *SQLSessionStore) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return err
}

// CleanupExpiredSessions deletes every expired session and returns how many were removed.
func (s *SQLSessionStore) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", s.now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RedisSessionStore keeps sessions as expiring redis keys.
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewRedisSessionStore creates a session store backed by rdb.
func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl, now: utcNow}
}

func sessionKey(token string) string { return "session:" + token }

// CreateSession opens a new session for userID.
func (s *RedisSessionStore) CreateSession(ctx context.Context, userID int64) (models.Session, error) {
	now := s.now()
	session := models.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	data, err := json.Marshal(session)
	if err != nil {
		return models.Session{}, err
	}
	if err := s.rdb.Set(ctx, sessionKey(session.Token), data, s.ttl).Err(); err != nil {
		return models.Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// GetSession returns a live session.
func (s *RedisSessionStore) GetSession(ctx context.Context, token string) (models.Session, error) {
	data, err := s.rdb.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Session{}, fmt.Errorf("session: %w", ErrNotFound)
		}
		return models.Session{}, err
	}
	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return models.Session{}, fmt.Errorf("corrupt session %s: %w", token, err)
	}
	if session.Expired(s.now()) {
		return models.Session{}, fmt.Errorf("session expired: %w", ErrNotFound)
	}
	return session, nil
}

// DeleteSession ends a session.
func (s *RedisSessionStore) DeleteSession(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, sessionKey(token)).Err()
}

// CleanupExpiredSessions is a no-op; redis expires the keys itself.
func (s *RedisSessionStore) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return 0, nil
}
