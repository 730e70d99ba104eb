package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/blogstack/internal/database"
	"github.com/isdelr/blogstack/internal/models"
)

// CommentServiceProvider defines the interface for comment services.
type CommentServiceProvider interface {
	ListComments(ctx context.Context, postID int64) ([]models.Comment, error)
	GetComment(ctx context.Context, id int64) (models.Comment, error)
	CreateComment(ctx context.Context, actorID, postID int64, in models.CommentInput) (models.Comment, error)
	UpdateComment(ctx context.Context, actorID, id int64, in models.CommentInput) (models.Comment, error)
	DeleteComment(ctx context.Context, actorID, id int64) error
	SearchComments(ctx context.Context, q string, limit int) ([]models.Comment, error)
}

// CommentService provides business logic for comments.
type CommentService struct {
	db  *sql.DB
	now func() time.Time
}

// NewCommentService creates a new CommentService.
func NewCommentService(db *sql.DB) *CommentService {
	return &CommentService{db: db, now: utcNow}
}

const commentSelect = `SELECT c.id, c.content, c.post_id, p.title, c.user_id, u.username, c.created_at
	FROM comments c
	JOIN users u ON u.id = c.user_id
	JOIN posts p ON p.id = c.post_id`

func queryComments(ctx context.Context, db *sql.DB, tail string, args ...any) ([]models.Comment, error) {
	rows, err := db.QueryContext(ctx, commentSelect+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.Content, &c.PostID, &c.PostTitle, &c.UserID, &c.Author, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *CommentService) postExists(ctx context.Context, postID int64) error {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts WHERE id = ?", postID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}
	return nil
}

// ListComments returns a post's comments, oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID int64) ([]models.Comment, error) {
	if err := s.postExists(ctx, postID); err != nil {
		return nil, err
	}
	return queryComments(ctx, s.db, " WHERE c.post_id = ? ORDER BY c.created_at ASC, c.id ASC", postID)
}

// GetComment retrieves a single comment by its ID.
func (s *CommentService) GetComment(ctx context.Context, id int64) (models.Comment, error) {
	comments, err := queryComments(ctx, s.db, " WHERE c.id = ?", id)
	if err != nil {
		return models.Comment{}, err
	}
	if len(comments) == 0 {
		return models.Comment{}, fmt.Errorf("comment %d: %w", id, ErrNotFound)
	}
	return comments[0], nil
}

// CreateComment adds a comment by actorID to an existing post.
func (s *CommentService) CreateComment(ctx context.Context, actorID, postID int64, in models.CommentInput) (models.Comment, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := Validate(in); err != nil {
		return models.Comment{}, err
	}
	if err := s.postExists(ctx, postID); err != nil {
		return models.Comment{}, err
	}
	if err := requireActor(ctx, s.db, actorID); err != nil {
		return models.Comment{}, err
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO comments(content, post_id, user_id, created_at) VALUES(?, ?, ?, ?)",
		in.Content, postID, actorID, s.now())
	if err != nil {
		return models.Comment{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Comment{}, err
	}
	return s.GetComment(ctx, id)
}

func (s *CommentService) authorize(ctx context.Context, actorID, id int64) error {
	comment, err := s.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if comment.UserID != actorID {
		return fmt.Errorf("user %d editing comment %d: %w", actorID, id, ErrForbidden)
	}
	return nil
}

// UpdateComment replaces the text of a comment owned by actorID.
func (s *CommentService) UpdateComment(ctx context.Context, actorID, id int64, in models.CommentInput) (models.Comment, error) {
	if err := s.authorize(ctx, actorID, id); err != nil {
		return models.Comment{}, err
	}
	in.Content = strings.TrimSpace(in.Content)
	if err := Validate(in); err != nil {
		return models.Comment{}, err
	}
	if _, err := s.db.ExecContext(ctx, "UPDATE comments SET content = ? WHERE id = ?", in.Content, id); err != nil {
		return models.Comment{}, err
	}
	return s.GetComment(ctx, id)
}

// DeleteComment removes a comment owned by actorID.
func (s *CommentService) DeleteComment(ctx context.Context, actorID, id int64) error {
	if err := s.authorize(ctx, actorID, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM comments WHERE id = ?", id)
	return err
}

// SearchComments matches q against comment text, newest first.
func (s *CommentService) SearchComments(ctx context.Context, q string, limit int) ([]models.Comment, error) {
	return queryComments(ctx, s.db,
		" WHERE LOWER(c.content) LIKE ? ESCAPE '!' ORDER BY c.created_at DESC, c.id DESC LIMIT ?",
		database.LikePattern(q), clampLimit(limit))
}
