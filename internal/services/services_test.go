package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/isdelr/blogstack/internal/database/dbtest"
	"github.com/isdelr/blogstack/internal/models"
)

type fixture struct {
	db       *sql.DB
	users    *UserService
	posts    *PostService
	comments *CommentService
	stats    *StatsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	users := NewUserService(db)
	users.hashCost = bcrypt.MinCost
	return &fixture{
		db:       db,
		users:    users,
		posts:    NewPostService(db),
		comments: NewCommentService(db),
		stats:    NewStatsService(db),
	}
}

func (f *fixture) user(t *testing.T, name string) models.User {
	t.Helper()
	u, err := f.users.CreateUser(context.Background(), models.RegisterUser{
		Username: name,
		Email:    name + "@example.com",
		Password: "123456",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) post(t *testing.T, owner int64, title, content string) models.Post {
	t.Helper()
	p, err := f.posts.CreatePost(context.Background(), owner, models.PostInput{Title: title, Content: content})
	require.NoError(t, err)
	return p
}

func (f *fixture) comment(t *testing.T, author, postID int64, content string) models.Comment {
	t.Helper()
	c, err := f.comments.CreateComment(context.Background(), author, postID, models.CommentInput{Content: content})
	require.NoError(t, err)
	return c
}

func (f *fixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
