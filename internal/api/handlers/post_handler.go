package handlers

import (
	"net/http"

	"github.com/isdelr/blogstack/internal/models"
	"github.com/isdelr/blogstack/internal/services"
)

// PostHandler serves the REST post and comment endpoints.
type PostHandler struct {
	posts    services.PostServiceProvider
	comments services.CommentServiceProvider
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(posts services.PostServiceProvider, comments services.CommentServiceProvider) *PostHandler {
	return &PostHandler{posts: posts, comments: comments}
}

// List returns posts, newest first unless sort/order say otherwise.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.posts.ListPosts(r.Context(), postQueryFromRequest(r))
	if err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"posts":      page.Items,
		"pagination": page.Pagination,
	})
}

// Get returns a post with its comments.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	post, err := h.posts.GetPostWithComments(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Create stores a post owned by the caller.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	var in models.PostInput
	if !decodeJSON(w, r, &in) {
		return
	}
	post, err := h.posts.CreatePost(r.Context(), actor, in)
	if err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// Update edits a post owned by the caller.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in models.PostInput
	if !decodeJSON(w, r, &in) {
		return
	}
	post, err := h.posts.UpdatePost(r.Context(), actor, id, in)
	if err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Delete removes a post owned by the caller.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.posts.DeletePost(r.Context(), actor, id); err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	writeMessage(w, http.StatusOK, "Post deleted successfully")
}

// ListComments returns the comments of a post.
func (h *PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	comments, err := h.comments.ListComments(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"post_id": id, "comments": comments})
}

// CreateComment adds a comment by the caller to a post.
func (h *PostHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
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

// UpdateComment edits a comment owned by the caller.
func (h *PostHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
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
	comment, err := h.comments.UpdateComment(r.Context(), actor, id, in)
	if err != nil {
		writeServiceError(w, r, err, "Comment")
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

// DeleteComment removes a comment owned by the caller.
func (h *PostHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.comments.DeleteComment(r.Context(), actor, id); err != nil {
		writeServiceError(w, r, err, "Comment")
		return
	}
	writeMessage(w, http.StatusOK, "Comment deleted successfully")
}
