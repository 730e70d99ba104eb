package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/blogstack/internal/auth"
	"github.com/isdelr/blogstack/internal/models"
	"github.com/isdelr/blogstack/internal/services"
	"github.com/rs/zerolog/hlog"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeServiceError maps service errors onto HTTP statuses. entity names
// the resource in not-found messages.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, entity string) {
	var conflict *services.ConflictError
	var invalid *services.ValidationError
	switch {
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, map[string]string{"message": conflict.Error(), "field": conflict.Field})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Validation failed", "errors": invalid.Fields})
	case errors.Is(err, services.ErrNotFound):
		writeMessage(w, http.StatusNotFound, entity+" not found")
	case errors.Is(err, services.ErrForbidden):
		writeMessage(w, http.StatusForbidden, "Access denied")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, services.ErrUnauthenticated):
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
	default:
		hlog.FromRequest(r).Error().Err(err).Str("entity", entity).Msg("Request failed")
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s", name))
		return 0, false
	}
	return id, true
}

func actorID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
	}
	return id, ok
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return v
}

func pageFromQuery(r *http.Request) models.PageRequest {
	return models.NewPageRequest(queryInt(r, "page", 1), queryInt(r, "per_page", models.DefaultPerPage))
}

func postQueryFromRequest(r *http.Request) models.PostQuery {
	q := r.URL.Query()
	pq := models.PostQuery{
		Page:   pageFromQuery(r),
		Author: q.Get("author"),
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
		Order:  q.Get("order"),
	}
	pq.Normalize()
	return pq
}
