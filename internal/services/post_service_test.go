package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/blogstack/internal/models"
)

func TestPostOwnerOnlyMutations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	p := f.post(t, alice.ID, "Original title", "original content")

	_, err := f.posts.UpdatePost(ctx, bob.ID, p.ID, models.PostInput{Title: "Hijacked", Content: "x"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.posts.TouchPost(ctx, bob.ID, p.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, f.posts.DeletePost(ctx, bob.ID, p.ID), ErrForbidden)

	got, err := f.posts.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original title", got.Title)
	assert.Equal(t, "alice", got.Author)

	updated, err := f.posts.UpdatePost(ctx, alice.ID, p.ID, models.PostInput{Title: "New title", Content: "new content"})
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	assert.False(t, updated.UpdatedAt.Before(p.UpdatedAt))
}

func TestDeletePostCascadesComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	p := f.post(t, alice.ID, "Doomed", "soon gone")
	keep := f.post(t, alice.ID, "Keeper", "stays")
	f.comment(t, bob.ID, p.ID, "first")
	f.comment(t, alice.ID, p.ID, "second")
	f.comment(t, bob.ID, keep.ID, "third")

	require.NoError(t, f.posts.DeletePost(ctx, alice.ID, p.ID))

	assert.Equal(t, 1, f.count(t, "comments"))
	_, err := f.posts.GetPost(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPostsPaginationAndFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	f.post(t, alice.ID, "Alpha", "go concurrency")
	f.post(t, alice.ID, "Bravo", "sql joins")
	f.post(t, bob.ID, "Charlie", "Go modules")

	page, err := f.posts.ListPosts(ctx, models.PostQuery{Page: models.NewPageRequest(1, 2)})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.Pagination.Total)
	assert.True(t, page.Pagination.HasNext)
	assert.Equal(t, "Charlie", page.Items[0].Title)

	beyond, err := f.posts.ListPosts(ctx, models.PostQuery{Page: models.NewPageRequest(3, 2)})
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)

	byAuthor, err := f.posts.ListPosts(ctx, models.PostQuery{Page: models.NewPageRequest(1, 10), Author: "BO"})
	require.NoError(t, err)
	require.Len(t, byAuthor.Items, 1)
	assert.Equal(t, "Charlie", byAuthor.Items[0].Title)

	bySearch, err := f.posts.ListPosts(ctx, models.PostQuery{Page: models.NewPageRequest(1, 10), Search: "go", Sort: "title", Order: "asc"})
	require.NoError(t, err)
	require.Len(t, bySearch.Items, 2)
	assert.Equal(t, "Alpha", bySearch.Items[0].Title)
	assert.Equal(t, "Charlie", bySearch.Items[1].Title)
}

func TestListPostsByUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	f.post(t, alice.ID, "Mine", "by alice")

	page, err := f.posts.ListPostsByUser(ctx, alice.ID, models.NewPageRequest(1, 10))
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	_, err = f.posts.ListPostsByUser(ctx, 404, models.NewPageRequest(1, 10))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchPostsOrdersByRelevance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	low := f.post(t, alice.ID, "golang tips", "nothing here")
	mid := f.post(t, alice.ID, "misc", "golang golang golang")
	high := f.post(t, alice.ID, "Golang golang", "GOLANG")
	f.post(t, alice.ID, "unrelated", "python")

	hits, err := f.posts.SearchPosts(ctx, "golang", 0)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, high.ID, hits[0].ID)
	assert.Equal(t, 5, hits[0].RelevanceScore)
	assert.Equal(t, mid.ID, hits[1].ID)
	assert.Equal(t, low.ID, hits[2].ID)

	limited, err := f.posts.SearchPosts(ctx, "golang", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, high.ID, limited[0].ID)

	_, err = f.posts.SearchPosts(ctx, "  ", 10)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSearchPostsTitleMatchFirst(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	f.post(t, alice.ID, "Other things", "a note about rust")
	titled := f.post(t, alice.ID, "Rust", "systems language")

	hits, err := f.posts.SearchPosts(context.Background(), "rust", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, titled.ID, hits[0].ID)
}

func TestSearchFoldsNonASCII(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	olena, err := f.users.CreateUser(ctx, models.RegisterUser{Username: "Олена", Email: "olena@example.com", Password: "123456"})
	require.NoError(t, err)
	p := f.post(t, olena.ID, "ÜBER Kyiv", "Привіт світ")
	f.comment(t, olena.ID, p.ID, "Дякую за ПОСТ")

	for _, q := range []string{"über", "Привіт", "привіт", "СВІТ", "kyiv"} {
		hits, err := f.posts.SearchPosts(ctx, q, 10)
		require.NoError(t, err, q)
		assert.Len(t, hits, 1, q)
	}

	page, err := f.posts.ListPosts(ctx, models.PostQuery{Search: "світ", Author: "олена", Page: models.NewPageRequest(1, 10)})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	users, err := f.users.SearchUsers(ctx, "ОЛЕНА", 10)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	comments, err := f.comments.SearchComments(ctx, "пост", 10)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func TestPostAnalytics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	p := f.post(t, alice.ID, "Stats", "one two three\n\nfour five")
	f.comment(t, bob.ID, p.ID, "abcd")
	f.comment(t, bob.ID, p.ID, "abcdef")

	a, err := f.posts.PostAnalytics(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, a.Analytics.WordCount)
	assert.Equal(t, 2, a.Analytics.ParagraphCount)
	assert.Equal(t, 2, a.Analytics.CommentsCount)
	assert.InDelta(t, 4.5, a.Analytics.EngagementScore, 0.001)
	assert.InDelta(t, 99.5, a.Analytics.ReadabilityScore, 0.001)
	assert.Equal(t, 1, a.Comments.UniqueCommenters)
	assert.InDelta(t, 5.0, a.Comments.AverageCommentLength, 0.001)

	_, err = f.posts.PostAnalytics(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRelevance(t *testing.T) {
	assert.Equal(t, 3, Relevance("Go", "go", "Go"))
	assert.Equal(t, 0, Relevance("", "go", "go"))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("short", 10))
	assert.Equal(t, "abc...", Excerpt("abcdef", 3))
	assert.Equal(t, "привіт...", Excerpt("привіт світ", 6))
}

func TestWritesRequireExistingActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	p := f.post(t, bob.ID, "Bob's post", "body")
	require.NoError(t, f.users.DeleteUser(ctx, alice.ID, alice.ID))

	_, err := f.posts.CreatePost(ctx, alice.ID, models.PostInput{Title: "Ghost", Content: "boo"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.comments.CreateComment(ctx, alice.ID, p.ID, models.CommentInput{Content: "boo"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	assert.Equal(t, 1, f.count(t, "posts"))
	assert.Zero(t, f.count(t, "comments"))
}
