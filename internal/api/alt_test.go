package api

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAltPostsShortensContentAndEchoesFilters(t *testing.T) {
	app := newTestApp(t)
	_, ann := app.signup("ann")
	app.createPost(ann, "Long read", strings.Repeat("a", 250))

	status, body := app.call(http.MethodGet, "/alt/posts?author=an&sort=title&order=asc", "", nil)
	require.Equal(t, http.StatusOK, status)

	posts := body["posts"].([]any)
	require.Len(t, posts, 1)
	content := posts[0].(map[string]any)["content"].(string)
	assert.Equal(t, strings.Repeat("a", 200)+"...", content)

	assert.Equal(t, map[string]any{
		"author":  "an",
		"search":  nil,
		"sort_by": "title",
		"order":   "asc",
	}, body["filters"])
}

func TestAltSearchRanksByRelevance(t *testing.T) {
	app := newTestApp(t)
	_, ann := app.signup("ann")
	app.createPost(ann, "Go tips", "nothing here")   // score 2
	app.createPost(ann, "Other", "go go go")         // score 3
	app.createPost(ann, "Unrelated", "python only") // no match

	status, body := app.call(http.MethodGet, "/alt/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = app.call(http.MethodGet, "/alt/search?q=go&type=posts", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "posts", body["search_type"])
	assert.EqualValues(t, 2, body["total_found"])

	hits := body["results"].(map[string]any)["posts"].([]any)
	require.Len(t, hits, 2)
	assert.Equal(t, "Other", hits[0].(map[string]any)["title"])
	assert.EqualValues(t, 3, hits[0].(map[string]any)["relevance_score"])
	assert.EqualValues(t, 2, hits[1].(map[string]any)["relevance_score"])

	status, body = app.call(http.MethodGet, "/alt/search?q=ann", "", nil)
	require.Equal(t, http.StatusOK, status)
	results := body["results"].(map[string]any)
	assert.Len(t, results["users"], 1)
	assert.Contains(t, results, "comments")

	status, _ = app.call(http.MethodGet, "/alt/search?q=go&type=tags", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAltStatsAndHealth(t *testing.T) {
	app := newTestApp(t)
	_, ann := app.signup("ann")
	app.createPost(ann, "Hello", "world")

	status, body := app.call(http.MethodGet, "/alt/stats", "", nil)
	require.Equal(t, http.StatusOK, status)
	overview := body["overview"].(map[string]any)
	assert.EqualValues(t, 1, overview["total_users"])
	assert.EqualValues(t, 1, overview["total_posts"])
	assert.Equal(t, "ann", overview["most_active_user"])
	assert.Contains(t, body, "recent_activity")

	status, body = app.call(http.MethodGet, "/alt/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "alternative_api", body["service"])
}

func TestAltUserProfileAndAnalytics(t *testing.T) {
	app := newTestApp(t)
	annID, ann := app.signup("ann")
	postID := app.createPost(ann, "Counting", "one two three")

	status, body := app.call(http.MethodGet, fmt.Sprintf("/alt/users/%d", annID), "", nil)
	require.Equal(t, http.StatusOK, status)
	stats := body["stats"].(map[string]any)
	assert.EqualValues(t, 1, stats["posts_count"])
	assert.Equal(t, "Counting", stats["latest_post"])

	status, body = app.call(http.MethodGet, fmt.Sprintf("/alt/posts/%d/analytics", postID), "", nil)
	require.Equal(t, http.StatusOK, status)
	analytics := body["analytics"].(map[string]any)
	assert.EqualValues(t, 3, analytics["word_count"])

	status, _ = app.call(http.MethodGet, "/alt/users/999", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAltAddCommentNeedsTokenAndContent(t *testing.T) {
	app := newTestApp(t)
	_, ann := app.signup("ann")
	postID := app.createPost(ann, "Hello", "world")
	path := fmt.Sprintf("/alt/posts/%d/comments", postID)

	status, _ := app.call(http.MethodPost, path, "", map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := app.call(http.MethodPost, path, ann, map[string]string{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Content is required", body["message"])

	status, body = app.call(http.MethodPost, path, ann, map[string]string{"content": "First!"})
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Comment added successfully", body["message"])
	assert.Equal(t, "First!", body["comment"].(map[string]any)["content"])

	status, _ = app.call(http.MethodPost, "/alt/posts/999/comments", ann, map[string]string{"content": "lost"})
	assert.Equal(t, http.StatusNotFound, status)
}
