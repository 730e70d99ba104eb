package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/isdelr/blogstack/internal/models"
)

// StatsServiceProvider defines the interface for blog-wide statistics.
type StatsServiceProvider interface {
	Counts(ctx context.Context) (models.Counts, error)
	Overview(ctx context.Context) (models.Overview, error)
	RecentActivity(ctx context.Context, limit int) (models.Activity, error)
}

// StatsService computes aggregate statistics.
type StatsService struct {
	db *sql.DB
}

// NewStatsService creates a new StatsService.
func NewStatsService(db *sql.DB) *StatsService {
	return &StatsService{db: db}
}

// Counts returns the number of users, posts and comments.
func (s *StatsService) Counts(ctx context.Context) (models.Counts, error) {
	var c models.Counts
	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM posts),
		(SELECT COUNT(*) FROM comments)`).Scan(&c.Users, &c.Posts, &c.Comments)
	return c, err
}

// Overview returns totals, leaders and averages.
func (s *StatsService) Overview(ctx context.Context) (models.Overview, error) {
	counts, err := s.Counts(ctx)
	if err != nil {
		return models.Overview{}, err
	}
	o := models.Overview{Counts: counts}

	o.MostActiveUser, err = s.optionalString(ctx, `SELECT u.username FROM users u
		JOIN posts p ON p.user_id = u.id
		GROUP BY u.id, u.username
		ORDER BY COUNT(p.id) DESC, u.id ASC LIMIT 1`)
	if err != nil {
		return models.Overview{}, err
	}
	o.MostCommentedPost, err = s.optionalString(ctx, `SELECT p.title FROM posts p
		JOIN comments c ON c.post_id = p.id
		GROUP BY p.id, p.title
		ORDER BY COUNT(c.id) DESC, p.id ASC LIMIT 1`)
	if err != nil {
		return models.Overview{}, err
	}

	if counts.Users > 0 {
		o.AveragePostsPerUser = round2(float64(counts.Posts) / float64(counts.Users))
	}
	if counts.Posts > 0 {
		o.AverageCommentsPerPost = round2(float64(counts.Comments) / float64(counts.Posts))
	}
	return o, nil
}

func (s *StatsService) optionalString(ctx context.Context, query string) (*string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, query).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// RecentActivity lists the newest posts and comments. Comment text is
// shortened to 50 characters.
func (s *StatsService) RecentActivity(ctx context.Context, limit int) (models.Activity, error) {
	if limit < 1 {
		limit = 5
	}

	rows, err := s.db.QueryContext(ctx, `SELECT p.id, p.title, u.username, p.created_at
		FROM posts p JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at DESC, p.id DESC LIMIT ?`, limit)
	if err != nil {
		return models.Activity{}, err
	}
	defer rows.Close()

	activity := models.Activity{RecentPosts: []models.ActivityPost{}}
	for rows.Next() {
		var p models.ActivityPost
		if err := rows.Scan(&p.ID, &p.Title, &p.Author, &p.CreatedAt); err != nil {
			return models.Activity{}, err
		}
		activity.RecentPosts = append(activity.RecentPosts, p)
	}
	if err := rows.Err(); err != nil {
		return models.Activity{}, err
	}
	rows.Close()

	activity.RecentComments, err = queryComments(ctx, s.db, " ORDER BY c.created_at DESC, c.id DESC LIMIT ?", limit)
	if err != nil {
		return models.Activity{}, err
	}
	for i := range activity.RecentComments {
		activity.RecentComments[i].Content = Excerpt(activity.RecentComments[i].Content, 50)
	}
	return activity, nil
}
