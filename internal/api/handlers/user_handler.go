package handlers

import (
	"net/http"

	"github.com/isdelr/blogstack/internal/auth"
	"github.com/isdelr/blogstack/internal/models"
	"github.com/isdelr/blogstack/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles HTTP requests for user management.
type UserHandler struct {
	service       services.UserServiceProvider
	tokens        *auth.TokenIssuer
	secureCookies bool
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, tokens *auth.TokenIssuer, secureCookies bool) *UserHandler {
	return &UserHandler{service: service, tokens: tokens, secureCookies: secureCookies}
}

// AuthPayload defines the structure for login requests. Login accepts a
// username or an email.
type AuthPayload struct {
	Login    string `json:"login"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (p AuthPayload) identifier() string {
	for _, v := range []string{p.Login, p.Username, p.Email} {
		if v != "" {
			return v
		}
	}
	return ""
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload models.RegisterUser
	if !decodeJSON(w, r, &payload) {
		return
	}

	user, err := h.service.CreateUser(r.Context(), payload)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed to register user")
		writeServiceError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles user authentication and JWT generation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	user, err := h.service.AuthenticateUser(r.Context(), payload.identifier(), payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("login", payload.identifier()).Msg("Failed authentication attempt")
		writeServiceError(w, r, err, "User")
		return
	}

	token, err := h.tokens.GenerateJWT(user)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to generate JWT")
		writeMessage(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	auth.SetTokenCookie(w, token, h.tokens.TTL(), h.secureCookies)
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

// GetMe retrieves the currently authenticated user from the token.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	id, ok := actorID(w, r)
	if !ok {
		return
	}
	user, err := h.service.GetUserByID(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Int64("user_id", id).Msg("User from token not found in DB")
		writeServiceError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// List handles retrieving a page of users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListUsers(r.Context(), pageFromQuery(r))
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users":      page.Items,
		"pagination": page.Pagination,
	})
}

// Get handles retrieving a user by their ID.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	user, err := h.service.GetUserByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Update handles updating a user's profile information.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var payload models.UpdateUser
	if !decodeJSON(w, r, &payload) {
		return
	}

	user, err := h.service.UpdateUser(r.Context(), actor, id, payload)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", id).Msg("Failed to update user")
		writeServiceError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Delete handles the permanent deletion of a user account.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteUser(r.Context(), actor, id); err != nil {
		log.Warn().Err(err).Int64("user_id", id).Msg("Failed to delete user")
		writeServiceError(w, r, err, "User")
		return
	}
	writeMessage(w, http.StatusOK, "User deleted successfully")
}

// ChangePassword handles changing a user's password.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var payload models.ChangePassword
	if !decodeJSON(w, r, &payload) {
		return
	}

	if err := h.service.UpdatePassword(r.Context(), actor, id, payload); err != nil {
		log.Warn().Err(err).Int64("user_id", id).Msg("Failed to change password")
		writeServiceError(w, r, err, "User")
		return
	}
	writeMessage(w, http.StatusOK, "Password updated successfully")
}
