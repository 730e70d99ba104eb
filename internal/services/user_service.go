package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/blogstack/internal/database"
	"github.com/isdelr/blogstack/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	ListUsers(ctx context.Context, page models.PageRequest) (models.Page[models.UserSummary], error)
	AllUsers(ctx context.Context) ([]models.UserSummary, error)
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	GetUserProfile(ctx context.Context, id int64) (models.UserProfile, error)
	CreateUser(ctx context.Context, in models.RegisterUser) (models.User, error)
	UpdateUser(ctx context.Context, actorID, id int64, in models.UpdateUser) (models.User, error)
	UpdatePassword(ctx context.Context, actorID, id int64, in models.ChangePassword) error
	DeleteUser(ctx context.Context, actorID, id int64) error
	AuthenticateUser(ctx context.Context, login, password string) (models.User, error)
	SearchUsers(ctx context.Context, q string, limit int) ([]models.UserSummary, error)
}

// UserService provides business logic for user management.
type UserService struct {
	db       *sql.DB
	hashCost int
	now      func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db, hashCost: bcrypt.DefaultCost, now: utcNow}
}

func utcNow() time.Time { return time.Now().UTC() }

const userSummaryColumns = `u.id, u.username, u.email, u.created_at,
	(SELECT COUNT(*) FROM posts p WHERE p.user_id = u.id),
	(SELECT COUNT(*) FROM comments c WHERE c.user_id = u.id)`

func scanUserSummaries(rows *sql.Rows) ([]models.UserSummary, error) {
	defer rows.Close()
	users := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt, &u.PostsCount, &u.CommentsCount); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListUsers returns one page of users ordered by id.
func (s *UserService) ListUsers(ctx context.Context, page models.PageRequest) (models.Page[models.UserSummary], error) {
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return models.Page[models.UserSummary]{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userSummaryColumns+" FROM users u ORDER BY u.id LIMIT ? OFFSET ?",
		page.PerPage, page.Offset())
	if err != nil {
		return models.Page[models.UserSummary]{}, err
	}
	users, err := scanUserSummaries(rows)
	if err != nil {
		return models.Page[models.UserSummary]{}, err
	}
	return models.Page[models.UserSummary]{Items: users, Pagination: models.NewPagination(page, total)}, nil
}

// AllUsers returns every user with activity counters.
func (s *UserService) AllUsers(ctx context.Context) ([]models.UserSummary, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userSummaryColumns+" FROM users u ORDER BY u.id")
	if err != nil {
		return nil, err
	}
	return scanUserSummaries(rows)
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	row := s.db.QueryRowContext(ctx, "SELECT id, username, email, created_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return models.User{}, err
	}
	return user, nil
}

// GetUserProfile returns a user with activity stats and their five latest posts.
func (s *UserService) GetUserProfile(ctx context.Context, id int64) (models.UserProfile, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return models.UserProfile{}, err
	}
	profile := models.UserProfile{User: user}

	err = s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM posts WHERE user_id = ?),
		(SELECT COUNT(*) FROM comments WHERE user_id = ?),
		(SELECT COUNT(*) FROM comments c JOIN posts p ON p.id = c.post_id WHERE p.user_id = ?)`,
		id, id, id).Scan(&profile.Stats.PostsCount, &profile.Stats.CommentsCount, &profile.Stats.CommentsReceived)
	if err != nil {
		return models.UserProfile{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		postSelect+" WHERE p.user_id = ? ORDER BY p.created_at DESC, p.id DESC LIMIT 5", id)
	if err != nil {
		return models.UserProfile{}, err
	}
	profile.RecentPosts, err = scanPosts(rows)
	if err != nil {
		return models.UserProfile{}, err
	}
	if len(profile.RecentPosts) > 0 {
		latest := profile.RecentPosts[0]
		profile.Stats.LatestPost = &latest.Title
		profile.Stats.LatestPostDate = &latest.CreatedAt
	}
	return profile, nil
}

// CreateUser creates a new user, hashing their password.
func (s *UserService) CreateUser(ctx context.Context, in models.RegisterUser) (models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := Validate(in); err != nil {
		return models.User{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username:  in.Username,
		Email:     in.Email,
		CreatedAt: s.now(),
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users(username, email, password_hash, created_at) VALUES(?, ?, ?, ?)",
		user.Username, user.Email, string(hashedPassword), user.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.User{}, s.conflictFor(ctx, user.Username, user.Email, 0)
		}
		return models.User{}, err
	}
	if user.ID, err = res.LastInsertId(); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// conflictFor re-queries the store to name the field that collided.
func (s *UserService) conflictFor(ctx context.Context, username, email string, exceptID int64) error {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE username = ? AND id <> ?", username, exceptID).Scan(&n)
	if err != nil {
		return err
	}
	if n > 0 {
		return &ConflictError{Field: "username"}
	}
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ? AND id <> ?", email, exceptID).Scan(&n)
	if err != nil {
		return err
	}
	if n > 0 {
		return &ConflictError{Field: "email"}
	}
	return &ConflictError{}
}

func (s *UserService) authorize(ctx context.Context, actorID, id int64) error {
	if _, err := s.GetUserByID(ctx, id); err != nil {
		return err
	}
	if actorID != id {
		return fmt.Errorf("user %d acting on user %d: %w", actorID, id, ErrForbidden)
	}
	return nil
}

// UpdateUser updates a user's non-sensitive information.
func (s *UserService) UpdateUser(ctx context.Context, actorID, id int64, in models.UpdateUser) (models.User, error) {
	if err := s.authorize(ctx, actorID, id); err != nil {
		return models.User{}, err
	}
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := Validate(in); err != nil {
		return models.User{}, err
	}

	_, err := s.db.ExecContext(ctx, "UPDATE users SET username = ?, email = ? WHERE id = ?", in.Username, in.Email, id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.User{}, s.conflictFor(ctx, in.Username, in.Email, id)
		}
		return models.User{}, err
	}
	return s.GetUserByID(ctx, id)
}

// UpdatePassword verifies the current password, then hashes and sets a new password for a user.
func (s *UserService) UpdatePassword(ctx context.Context, actorID, id int64, in models.ChangePassword) error {
	if err := s.authorize(ctx, actorID, id); err != nil {
		return err
	}
	if err := Validate(in); err != nil {
		return err
	}

	var hash string
	if err := s.db.QueryRowContext(ctx, "SELECT password_hash FROM users WHERE id = ?", id).Scan(&hash); err != nil {
		return fmt.Errorf("could not find user to update password: %w", err)
	}

	// Check if the current password is correct
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(in.CurrentPassword)); err != nil {
		return invalid("current_password", "is incorrect")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.hashCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	_, err = s.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", string(hashedPassword), id)
	return err
}

// DeleteUser removes a user together with their posts, comments and sessions.
func (s *UserService) DeleteUser(ctx context.Context, actorID, id int64) error {
	if err := s.authorize(ctx, actorID, id); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		"DELETE FROM comments WHERE post_id IN (SELECT id FROM posts WHERE user_id = ?)",
		"DELETE FROM comments WHERE user_id = ?",
		"DELETE FROM posts WHERE user_id = ?",
		"DELETE FROM sessions WHERE user_id = ?",
		"DELETE FROM users WHERE id = ?",
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("failed to delete user %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// AuthenticateUser verifies a user's credentials. login may be a username or an email.
func (s *UserService) AuthenticateUser(ctx context.Context, login, password string) (models.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return models.User{}, ErrInvalidCredentials
	}

	var user models.User
	row := s.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, created_at FROM users WHERE username = ? OR email = ? ORDER BY id LIMIT 1",
		login, login)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

// SearchUsers matches q against usernames and emails.
func (s *UserService) SearchUsers(ctx context.Context, q string, limit int) ([]models.UserSummary, error) {
	pattern := database.LikePattern(q)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userSummaryColumns+` FROM users u
		WHERE LOWER(u.username) LIKE ? ESCAPE '!' OR LOWER(u.email) LIKE ? ESCAPE '!'
		ORDER BY u.id LIMIT ?`,
		pattern, pattern, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return scanUserSummaries(rows)
}

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

func clampLimit(limit int) int {
	if limit < 1 {
		return defaultSearchLimit
	}
	if limit > maxSearchLimit {
		return maxSearchLimit
	}
	return limit
}
