package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishRequiresOwnership(t *testing.T) {
	app := newTestApp(t)
	_, ann := app.signup("ann")
	_, bob := app.signup("bob")
	postID := app.createPost(ann, "Draft", "almost done")
	path := fmt.Sprintf("/api/v2/posts/%d/publish", postID)

	status, _ := app.call(http.MethodPut, path, bob, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := app.call(http.MethodPut, path, ann, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Post published successfully", body["message"])
	assert.EqualValues(t, postID, body["post_id"])
	assert.NotEmpty(t, body["published_at"])
}

func TestCommentDetailsAndApproval(t *testing.T) {
	app := newTestApp(t)
	_, ann := app.signup("ann")
	postID := app.createPost(ann, "Topic", "discuss")

	status, comment := app.call(http.MethodPost, fmt.Sprintf("/api/v2/posts/%d/comments", postID), ann, map[string]string{"content": "three word reply"})
	require.Equal(t, http.StatusCreated, status)
	commentID := int64(comment["id"].(float64))

	status, body := app.call(http.MethodGet, fmt.Sprintf("/api/v2/comments/%d/details", commentID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 3, body["word_count"])
	assert.Equal(t, "Topic", body["post"].(map[string]any)["title"])

	status, body = app.call(http.MethodPut, fmt.Sprintf("/api/v2/comments/%d/approve", commentID), ann, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "approved", body["status"])
	assert.Equal(t, "Comment approved", body["message"])

	status, _ = app.call(http.MethodPut, "/api/v2/comments/999/approve", ann, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestResourceStatsAndSearch(t *testing.T) {
	app := newTestApp(t)
	annID, ann := app.signup("ann")
	app.createPost(ann, "Searchable", "needle in a haystack")

	status, body := app.call(http.MethodGet, fmt.Sprintf("/api/v2/users/%d/stats", annID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ann", body["username"])

	status, body = app.call(http.MethodGet, fmt.Sprintf("/api/v2/users/%d/posts", annID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["posts"], 1)

	status, body = app.call(http.MethodGet, "/api/v2/stats/overview", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["total_posts"])

	status, body = app.call(http.MethodGet, "/api/v2/search/posts?q=needle", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])

	status, _ = app.call(http.MethodGet, "/api/v2/search/posts", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = app.call(http.MethodGet, "/api/v2/search/users", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}
