package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/isdelr/blogstack/internal/models"
	"github.com/isdelr/blogstack/internal/services"
)

// ResourceHandler serves the /api/v2 resource endpoints.
type ResourceHandler struct {
	users    services.UserServiceProvider
	posts    services.PostServiceProvider
	comments services.CommentServiceProvider
	stats    services.StatsServiceProvider
}

// NewResourceHandler creates a new ResourceHandler.
func NewResourceHandler(users services.UserServiceProvider, posts services.PostServiceProvider,
	comments services.CommentServiceProvider, stats services.StatsServiceProvider) *ResourceHandler {
	return &ResourceHandler{users: users, posts: posts, comments: comments, stats: stats}
}

// UserStats returns activity counters for a user.
func (h *ResourceHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	profile, err := h.users.GetUserProfile(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":  profile.ID,
		"username": profile.Username,
		"stats":    profile.Stats,
	})
}

// UserPosts returns a page of a user's posts.
func (h *ResourceHandler) UserPosts(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	page, err := h.posts.ListPostsByUser(r.Context(), id, pageFromQuery(r))
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":    id,
		"posts":      page.Items,
		"pagination": page.Pagination,
	})
}

// PostComments returns the comments of a post.
func (h *ResourceHandler) PostComments(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	comments, err := h.comments.ListComments(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"post_id":  id,
		"comments": comments,
		"total":    len(comments),
	})
}

// AddComment creates a comment for the caller.
func (h *ResourceHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in models.CommentInput
	if !decodeJSON(w, r, &in) {
		return
	}
	comment, err := h.comments.CreateComment(r.Context(), actor, id, in)
	if err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// PostAnalytics returns content metrics for a post.
func (h *ResourceHandler) PostAnalytics(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	analytics, err := h.posts.PostAnalytics(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

// Publish marks the caller's post as published.
func (h *ResourceHandler) Publish(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	post, err := h.posts.TouchPost(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Post published successfully",
		"post_id":      post.ID,
		"published_at": post.UpdatedAt.Format(time.RFC3339Nano),
	})
}

// CommentDetails returns a comment together with its post.
func (h *ResourceHandler) CommentDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	comment, err := h.comments.GetComment(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Comment")
		return
	}
	post, err := h.posts.GetPost(r.Context(), comment.PostID)
	if err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"comment_id": comment.ID,
		"content":    comment.Content,
		"author":     comment.Author,
		"created_at": comment.CreatedAt,
		"post": map[string]any{
			"id":     post.ID,
			"title":  post.Title,
			"author": post.Author,
		},
		"word_count": len(strings.Fields(comment.Content)),
	})
}

// Approve acknowledges a moderation approval. Comments carry no approval
// state, so this only confirms the comment exists.
func (h *ResourceHandler) Approve(w http.ResponseWriter, r *http.Request) {
	if _, ok := actorID(w, r); !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.comments.GetComment(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "Comment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Comment approved",
		"comment_id": id,
		"status":     "approved",
	})
}

// Overview returns blog-wide statistics.
func (h *ResourceHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.stats.Overview(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Statistics")
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// Activity returns recent posts and comments.
func (h *ResourceHandler) Activity(w http.ResponseWriter, r *http.Request) {
	activity, err := h.stats.RecentActivity(r.Context(), queryInt(r, "limit", 5))
	if err != nil {
		writeServiceError(w, r, err, "Statistics")
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

// SearchPosts returns posts matching q ordered by relevance.
func (h *ResourceHandler) SearchPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	hits, err := h.posts.SearchPosts(r.Context(), q, queryInt(r, "limit", 20))
	if err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": q, "results": hits, "total": len(hits)})
}

// SearchUsers returns users matching q.
func (h *ResourceHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeMessage(w, http.StatusBadRequest, "Query parameter q is required")
		return
	}
	users, err := h.users.SearchUsers(r.Context(), q, queryInt(r, "limit", 20))
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": q, "results": users, "total": len(users)})
}
