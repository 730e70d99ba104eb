package handlers

import (
	"net/http"
	"strings"

	"github.com/isdelr/blogstack/internal/models"
	"github.com/isdelr/blogstack/internal/services"
)

// AltHandler serves the read-mostly /alt JSON API.
type AltHandler struct {
	users    services.UserServiceProvider
	posts    services.PostServiceProvider
	comments services.CommentServiceProvider
	stats    services.StatsServiceProvider
}

// NewAltHandler creates a new AltHandler.
func NewAltHandler(users services.UserServiceProvider, posts services.PostServiceProvider,
	comments services.CommentServiceProvider, stats services.StatsServiceProvider) *AltHandler {
	return &AltHandler{users: users, posts: posts, comments: comments, stats: stats}
}

// Users returns a page of users with activity counters.
func (h *AltHandler) Users(w http.ResponseWriter, r *http.Request) {
	page, err := h.users.ListUsers(r.Context(), pageFromQuery(r))
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users":      page.Items,
		"pagination": page.Pagination,
	})
}

// User returns one user with stats and recent posts.
func (h *AltHandler) User(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	profile, err := h.users.GetUserProfile(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Posts returns a filtered, sorted page of posts with shortened content.
func (h *AltHandler) Posts(w http.ResponseWriter, r *http.Request) {
	q := postQueryFromRequest(r)
	page, err := h.posts.ListPosts(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	for i := range page.Items {
		page.Items[i].Content = services.Excerpt(page.Items[i].Content, 200)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"posts":      page.Items,
		"pagination": page.Pagination,
		"filters": map[string]any{
			"author":  nullable(q.Author),
			"search":  nullable(q.Search),
			"sort_by": q.Sort,
			"order":   q.Order,
		},
	})
}

// PostAnalytics returns content metrics for a post.
func (h *AltHandler) PostAnalytics(w http.ResponseWriter, r *http.Request) {
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

// Search looks for q across posts, users and comments.
func (h *AltHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeMessage(w, http.StatusBadRequest, "Query parameter q is required")
		return
	}
	searchType := r.URL.Query().Get("type")
	if searchType == "" {
		searchType = "all"
	}
	switch searchType {
	case "all", "posts", "users", "comments":
	default:
		writeMessage(w, http.StatusBadRequest, "type must be one of all, posts, users, comments")
		return
	}
	limit := queryInt(r, "limit", 20)

	results := map[string]any{}
	total := 0
	ctx := r.Context()

	if searchType == "all" || searchType == "posts" {
		hits, err := h.posts.SearchPosts(ctx, q, limit)
		if err != nil {
			writeServiceError(w, r, err, "Post")
			return
		}
		for i := range hits {
			hits[i].Content = services.Excerpt(hits[i].Content, 100)
		}
		results["posts"] = hits
		total += len(hits)
	}
	if searchType == "all" || searchType == "users" {
		users, err := h.users.SearchUsers(ctx, q, limit)
		if err != nil {
			writeServiceError(w, r, err, "User")
			return
		}
		results["users"] = users
		total += len(users)
	}
	if searchType == "all" || searchType == "comments" {
		comments, err := h.comments.SearchComments(ctx, q, limit)
		if err != nil {
			writeServiceError(w, r, err, "Comment")
			return
		}
		for i := range comments {
			comments[i].Content = services.Excerpt(comments[i].Content, 100)
		}
		results["comments"] = comments
		total += len(comments)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":       q,
		"search_type": searchType,
		"results":     results,
		"total_found": total,
	})
}

// Stats returns the blog overview and recent activity.
func (h *AltHandler) Stats(w http.ResponseWriter, r *http.Request) {
	overview, err := h.stats.Overview(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Statistics")
		return
	}
	activity, err := h.stats.RecentActivity(r.Context(), 5)
	if err != nil {
		writeServiceError(w, r, err, "Statistics")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"overview":        overview,
		"recent_activity": activity,
	})
}

// AddComment creates a comment for the bearer of the token.
func (h *AltHandler) AddComment(w http.ResponseWriter, r *http.Request) {
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
	if strings.TrimSpace(in.Content) == "" {
		writeMessage(w, http.StatusBadRequest, "Content is required")
		return
	}

	comment, err := h.comments.CreateComment(r.Context(), actor, id, in)
	if err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Comment added successfully",
		"comment": comment,
	})
}

// Health reports that the alternative API is up.
func (h *AltHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "alternative_api",
		"endpoints_available": []string{
			"/alt/users",
			"/alt/posts",
			"/alt/search",
			"/alt/stats",
		},
	})
}
