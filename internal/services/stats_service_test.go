package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverviewEmptyStore(t *testing.T) {
	f := newFixture(t)

	o, err := f.stats.Overview(context.Background())
	require.NoError(t, err)
	assert.Zero(t, o.Users)
	assert.Nil(t, o.MostActiveUser)
	assert.Nil(t, o.MostCommentedPost)
	assert.Zero(t, o.AveragePostsPerUser)
}

func TestOverview(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	f.user(t, "carol")
	p1 := f.post(t, alice.ID, "Popular", "x")
	f.post(t, alice.ID, "Quiet", "y")
	f.post(t, bob.ID, "Bob's", "z")
	f.comment(t, bob.ID, p1.ID, "one")
	f.comment(t, bob.ID, p1.ID, "two")

	o, err := f.stats.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, o.Users)
	assert.Equal(t, 3, o.Posts)
	assert.Equal(t, 2, o.Comments)
	require.NotNil(t, o.MostActiveUser)
	assert.Equal(t, "alice", *o.MostActiveUser)
	require.NotNil(t, o.MostCommentedPost)
	assert.Equal(t, "Popular", *o.MostCommentedPost)
	assert.Equal(t, 1.0, o.AveragePostsPerUser)
	assert.Equal(t, 0.67, o.AverageCommentsPerPost)
}

func TestRecentActivityTruncatesComments(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	p := f.post(t, alice.ID, "Post", "body")
	f.comment(t, alice.ID, p.ID, strings.Repeat("a", 80))

	a, err := f.stats.RecentActivity(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, a.RecentPosts, 1)
	require.Len(t, a.RecentComments, 1)
	assert.Equal(t, strings.Repeat("a", 50)+"...", a.RecentComments[0].Content)
}
