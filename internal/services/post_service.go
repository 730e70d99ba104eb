package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/isdelr/blogstack/internal/database"
	"github.com/isdelr/blogstack/internal/models"
)

// PostServiceProvider defines the interface for post services.
type PostServiceProvider interface {
	ListPosts(ctx context.Context, q models.PostQuery) (models.Page[models.Post], error)
	ListPostsByUser(ctx context.Context, userID int64, page models.PageRequest) (models.Page[models.Post], error)
	GetPost(ctx context.Context, id int64) (models.Post, error)
	GetPostWithComments(ctx context.Context, id int64) (models.PostWithComments, error)
	CreatePost(ctx context.Context, actorID int64, in models.PostInput) (models.Post, error)
	UpdatePost(ctx context.Context, actorID, id int64, in models.PostInput) (models.Post, error)
	TouchPost(ctx context.Context, actorID, id int64) (models.Post, error)
	DeletePost(ctx context.Context, actorID, id int64) error
	SearchPosts(ctx context.Context, q string, limit int) ([]models.PostHit, error)
	PostAnalytics(ctx context.Context, id int64) (models.PostAnalytics, error)
}

// PostService provides business logic for posts.
type PostService struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostService creates a new PostService.
func NewPostService(db *sql.DB) *PostService {
	return &PostService{db: db, now: utcNow}
}

const postSelect = `SELECT p.id, p.title, p.content, p.user_id, u.username, p.created_at, p.updated_at,
	(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id)
	FROM posts p JOIN users u ON u.id = p.user_id`

func scanPosts(rows *sql.Rows) ([]models.Post, error) {
	defer rows.Close()
	posts := []models.Post{}
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.UserID, &p.Author, &p.CreatedAt, &p.UpdatedAt, &p.CommentsCount); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListPosts returns one page of posts filtered by author and text.
func (s *PostService) ListPosts(ctx context.Context, q models.PostQuery) (models.Page[models.Post], error) {
	q.Normalize()

	var where []string
	var args []any
	if q.Author != "" {
		where = append(where, "LOWER(u.username) LIKE ? ESCAPE '!'")
		args = append(args, database.LikePattern(q.Author))
	}
	if q.Search != "" {
		pattern := database.LikePattern(q.Search)
		where = append(where, "(LOWER(p.title) LIKE ? ESCAPE '!' OR LOWER(p.content) LIKE ? ESCAPE '!')")
		args = append(args, pattern, pattern)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	// Sort and Order are whitelisted by Normalize.
	orderBy := fmt.Sprintf(" ORDER BY p.%s %s, p.id %s", q.Sort, strings.ToUpper(q.Order), strings.ToUpper(q.Order))
	return s.page(ctx, clause, orderBy, args, q.Page)
}

// ListPostsByUser returns one page of a user's posts, newest first.
func (s *PostService) ListPostsByUser(ctx context.Context, userID int64, page models.PageRequest) (models.Page[models.Post], error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE id = ?", userID).Scan(&exists)
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	if exists == 0 {
		return models.Page[models.Post]{}, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return s.page(ctx, " WHERE p.user_id = ?", " ORDER BY p.created_at DESC, p.id DESC", []any{userID}, page)
}

func (s *PostService) page(ctx context.Context, where, orderBy string, args []any, page models.PageRequest) (models.Page[models.Post], error) {
	var total int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts p JOIN users u ON u.id = p.user_id"+where, args...).Scan(&total)
	if err != nil {
		return models.Page[models.Post]{}, err
	}

	rows, err := s.db.QueryContext(ctx, postSelect+where+orderBy+" LIMIT ? OFFSET ?",
		append(args, page.PerPage, page.Offset())...)
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	posts, err := scanPosts(rows)
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	return models.Page[models.Post]{Items: posts, Pagination: models.NewPagination(page, total)}, nil
}

// GetPost retrieves a single post by its ID.
func (s *PostService) GetPost(ctx context.Context, id int64) (models.Post, error) {
	rows, err := s.db.QueryContext(ctx, postSelect+" WHERE p.id = ?", id)
	if err != nil {
		return models.Post{}, err
	}
	posts, err := scanPosts(rows)
	if err != nil {
		return models.Post{}, err
	}
	if len(posts) == 0 {
		return models.Post{}, fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	return posts[0], nil
}

// GetPostWithComments returns a post and its comments, oldest first.
func (s *PostService) GetPostWithComments(ctx context.Context, id int64) (models.PostWithComments, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return models.PostWithComments{}, err
	}
	comments, err := queryComments(ctx, s.db, " WHERE c.post_id = ? ORDER BY c.created_at ASC, c.id ASC", id)
	if err != nil {
		return models.PostWithComments{}, err
	}
	return models.PostWithComments{Post: post, Comments: comments}, nil
}

// requireActor fails with ErrUnauthenticated when actorID names no user,
// as happens with a token issued before the account was deleted.
func requireActor(ctx context.Context, db *sql.DB, actorID int64) error {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE id = ?", actorID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", actorID, ErrUnauthenticated)
	}
	return nil
}

// CreatePost stores a new post owned by actorID.
func (s *PostService) CreatePost(ctx context.Context, actorID int64, in models.PostInput) (models.Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if err := Validate(in); err != nil {
		return models.Post{}, err
	}
	if err := requireActor(ctx, s.db, actorID); err != nil {
		return models.Post{}, err
	}

	now := s.now()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO posts(title, content, user_id, created_at, updated_at) VALUES(?, ?, ?, ?, ?)",
		in.Title, in.Content, actorID, now, now)
	if err != nil {
		return models.Post{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Post{}, err
	}
	return s.GetPost(ctx, id)
}

func (s *PostService) authorize(ctx context.Context, actorID, id int64) (models.Post, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return models.Post{}, err
	}
	if post.UserID != actorID {
		return models.Post{}, fmt.Errorf("user %d editing post %d: %w", actorID, id, ErrForbidden)
	}
	return post, nil
}

// UpdatePost replaces the title and content of a post owned by actorID.
func (s *PostService) UpdatePost(ctx context.Context, actorID, id int64, in models.PostInput) (models.Post, error) {
	if _, err := s.authorize(ctx, actorID, id); err != nil {
		return models.Post{}, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if err := Validate(in); err != nil {
		return models.Post{}, err
	}

	_, err := s.db.ExecContext(ctx, "UPDATE posts SET title = ?, content = ?, updated_at = ? WHERE id = ?",
		in.Title, in.Content, s.now(), id)
	if err != nil {
		return models.Post{}, err
	}
	return s.GetPost(ctx, id)
}

// TouchPost marks a post as published by bumping its updated_at.
func (s *PostService) TouchPost(ctx context.Context, actorID, id int64) (models.Post, error) {
	if _, err := s.authorize(ctx, actorID, id); err != nil {
		return models.Post{}, err
	}
	if _, err := s.db.ExecContext(ctx, "UPDATE posts SET updated_at = ? WHERE id = ?", s.now(), id); err != nil {
		return models.Post{}, err
	}
	return s.GetPost(ctx, id)
}

// DeletePost removes a post and its comments.
func (s *PostService) DeletePost(ctx context.Context, actorID, id int64) error {
	if _, err := s.authorize(ctx, actorID, id); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM comments WHERE post_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// SearchPosts returns posts whose title or content contains q, most relevant first.
// Every match is scored before the limit is applied.
func (s *PostService) SearchPosts(ctx context.Context, q string, limit int) ([]models.PostHit, error) {
	if strings.TrimSpace(q) == "" {
		return nil, invalid("q", "is required")
	}
	pattern := database.LikePattern(q)
	rows, err := s.db.QueryContext(ctx,
		postSelect+" WHERE LOWER(p.title) LIKE ? ESCAPE '!' OR LOWER(p.content) LIKE ? ESCAPE '!' ORDER BY p.created_at DESC, p.id DESC",
		pattern, pattern)
	if err != nil {
		return nil, err
	}
	posts, err := scanPosts(rows)
	if err != nil {
		return nil, err
	}

	hits := make([]models.PostHit, 0, len(posts))
	for _, p := range posts {
		hits = append(hits, models.PostHit{Post: p, RelevanceScore: Relevance(q, p.Title, p.Content)})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].RelevanceScore > hits[j].RelevanceScore
	})

	if limit = clampLimit(limit); len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Relevance counts case-insensitive occurrences of q, weighting the title twice.
func Relevance(q, title, content string) int {
	q = strings.ToLower(q)
	if q == "" {
		return 0
	}
	return strings.Count(strings.ToLower(title), q)*2 + strings.Count(strings.ToLower(content), q)
}

// PostAnalytics computes content and comment metrics for a post.
func (s *PostService) PostAnalytics(ctx context.Context, id int64) (models.PostAnalytics, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return models.PostAnalytics{}, err
	}
	comments, err := queryComments(ctx, s.db, " WHERE c.post_id = ? ORDER BY c.id", id)
	if err != nil {
		return models.PostAnalytics{}, err
	}
	return Analyze(post, comments), nil
}
