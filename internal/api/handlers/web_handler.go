package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/isdelr/blogstack/internal/auth"
	"github.com/isdelr/blogstack/internal/models"
	"github.com/isdelr/blogstack/internal/services"
	"github.com/rs/zerolog/hlog"
)

// WebHandler serves the session-based form routes. Pages answer their
// view model as JSON; successful submissions redirect.
type WebHandler struct {
	users         services.UserServiceProvider
	posts         services.PostServiceProvider
	comments      services.CommentServiceProvider
	stats         services.StatsServiceProvider
	sessions      services.SessionStore
	secureCookies bool
}

// NewWebHandler creates a new WebHandler.
func NewWebHandler(users services.UserServiceProvider, posts services.PostServiceProvider,
	comments services.CommentServiceProvider, stats services.StatsServiceProvider,
	sessions services.SessionStore, secureCookies bool) *WebHandler {
	return &WebHandler{
		users:         users,
		posts:         posts,
		comments:      comments,
		stats:         stats,
		sessions:      sessions,
		secureCookies: secureCookies,
	}
}

func seeOther(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (h *WebHandler) currentUser(r *http.Request) *models.User {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return nil
	}
	user, err := h.users.GetUserByID(r.Context(), id)
	if err != nil {
		return nil
	}
	return &user
}

// Home shows blog totals and the latest activity.
func (h *WebHandler) Home(w http.ResponseWriter, r *http.Request) {
	counts, err := h.stats.Counts(r.Context())
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
		"page":         "index",
		"current_user": h.currentUser(r),
		"stats":        counts,
		"recent_posts": activity.RecentPosts,
	})
}

// RegisterPage describes the registration form.
func (h *WebHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"page": "register", "fields": registerFields})
}

// Register creates an account and signs the new user in.
func (h *WebHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	form := registerForm{
		Username: formValue(r, "username"),
		Email:    formValue(r, "email"),
		Password: r.PostFormValue("password"),
	}
	if err := services.Validate(form); err != nil {
		writeServiceError(w, r, err, "User")
		return
	}

	user, err := h.users.CreateUser(r.Context(), models.RegisterUser(form))
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	h.startSession(w, r, user.ID)
}

// LoginPage describes the login form.
func (h *WebHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"page": "login", "fields": loginFields})
}

// Login verifies credentials and opens a session.
func (h *WebHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	form := loginForm{Username: formValue(r, "username"), Password: r.PostFormValue("password")}
	if err := services.Validate(form); err != nil {
		writeServiceError(w, r, err, "User")
		return
	}

	user, err := h.users.AuthenticateUser(r.Context(), form.Username, form.Password)
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	h.startSession(w, r, user.ID)
}

func (h *WebHandler) startSession(w http.ResponseWriter, r *http.Request, userID int64) {
	session, err := h.sessions.CreateSession(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "Session")
		return
	}
	auth.SetSessionCookie(w, session, h.secureCookies)
	hlog.FromRequest(r).Info().Int64("user_id", userID).Msg("Session started")
	seeOther(w, r, "/")
}

// Logout ends the current session.
func (h *WebHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.DeleteSession(r.Context(), cookie.Value); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("Failed to delete session")
		}
	}
	auth.ClearSessionCookie(w)
	seeOther(w, r, "/")
}

// Users lists every user with their activity counters.
func (h *WebHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.AllUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page":         "users",
		"current_user": h.currentUser(r),
		"users":        users,
	})
}

// EditUser updates the signed-in user's profile.
func (h *WebHandler) EditUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserIDFromContext(r.Context())
	id, ok := idParam(w, r, "id")
	if !ok || !parseForm(w, r) {
		return
	}
	form := userForm{Username: formValue(r, "username"), Email: formValue(r, "email")}
	if err := services.Validate(form); err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	if _, err := h.users.UpdateUser(r.Context(), actor, id, models.UpdateUser(form)); err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	seeOther(w, r, "/users")
}

// DeleteUser removes the signed-in user's account and ends the session.
func (h *WebHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserIDFromContext(r.Context())
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.users.DeleteUser(r.Context(), actor, id); err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	auth.ClearSessionCookie(w)
	seeOther(w, r, "/users")
}

// Posts lists posts, newest first.
func (h *WebHandler) Posts(w http.ResponseWriter, r *http.Request) {
	page, err := h.posts.ListPosts(r.Context(), postQueryFromRequest(r))
	if err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page":         "posts",
		"current_user": h.currentUser(r),
		"posts":        page.Items,
		"pagination":   page.Pagination,
	})
}

// CreatePost publishes a post for the signed-in user.
func (h *WebHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserIDFromContext(r.Context())
	if !parseForm(w, r) {
		return
	}
	form := postForm{Title: formValue(r, "title"), Content: formValue(r, "content")}
	if err := services.Validate(form); err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	if _, err := h.posts.CreatePost(r.Context(), actor, models.PostInput(form)); err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	seeOther(w, r, "/posts")
}

// ViewPost shows a post with its comments.
func (h *WebHandler) ViewPost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	post, err := h.posts.GetPostWithComments(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page":         "view_post",
		"current_user": h.currentUser(r),
		"post":         post,
	})
}

// EditPost updates a post owned by the signed-in user.
func (h *WebHandler) EditPost(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserIDFromContext(r.Context())
	id, ok := idParam(w, r, "id")
	if !ok || !parseForm(w, r) {
		return
	}
	form := postForm{Title: formValue(r, "title"), Content: formValue(r, "content")}
	if err := services.Validate(form); err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	if _, err := h.posts.UpdatePost(r.Context(), actor, id, models.PostInput(form)); err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	seeOther(w, r, "/posts")
}

// DeletePost removes a post owned by the signed-in user.
func (h *WebHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserIDFromContext(r.Context())
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.posts.DeletePost(r.Context(), actor, id); err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	seeOther(w, r, "/posts")
}

// CreateComment adds a comment to a post.
func (h *WebHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserIDFromContext(r.Context())
	postID, ok := idParam(w, r, "postID")
	if !ok || !parseForm(w, r) {
		return
	}
	form := commentForm{Content: formValue(r, "content")}
	if err := services.Validate(form); err != nil {
		writeServiceError(w, r, err, "Comment")
		return
	}
	if _, err := h.comments.CreateComment(r.Context(), actor, postID, models.CommentInput(form)); err != nil {
		writeServiceError(w, r, err, "Post")
		return
	}
	seeOther(w, r, fmt.Sprintf("/posts/%d", postID))
}

// DeleteComment removes a comment written by the signed-in user.
func (h *WebHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserIDFromContext(r.Context())
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	comment, err := h.comments.GetComment(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Comment")
		return
	}
	if err := h.comments.DeleteComment(r.Context(), actor, id); err != nil {
		if errors.Is(err, services.ErrForbidden) {
			writeMessage(w, http.StatusForbidden, "You can only delete your own comments")
			return
		}
		writeServiceError(w, r, err, "Comment")
		return
	}
	seeOther(w, r, fmt.Sprintf("/posts/%d", comment.PostID))
}
