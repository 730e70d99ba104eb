// Package soap exposes a small SOAP 1.1 facade over the blog services.
package soap

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/isdelr/blogstack/internal/services"
	"github.com/rs/zerolog/hlog"
)

const maxEnvelopeBytes = 1 << 20

// Handler answers WSDL and operation requests on one path.
type Handler struct {
	users     services.UserServiceProvider
	stats     services.StatsServiceProvider
	namespace string
}

// NewHandler creates a new Handler. publicURL is the externally visible
// base URL, used to build the service namespace.
func NewHandler(users services.UserServiceProvider, stats services.StatsServiceProvider, publicURL string) *Handler {
	return &Handler{
		users:     users,
		stats:     stats,
		namespace: strings.TrimRight(publicURL, "/") + "/soap",
	}
}

func writeXML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}

// Describe serves the WSDL document.
func (h *Handler) Describe(w http.ResponseWriter, r *http.Request) {
	doc, err := WSDL(h.namespace)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to render WSDL")
		writeXML(w, http.StatusInternalServerError, Fault("Server", "Internal error: "+err.Error()))
		return
	}
	writeXML(w, http.StatusOK, doc)
}

// Invoke decodes an envelope and dispatches its operation.
func (h *Handler) Invoke(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEnvelopeBytes))
	if err != nil {
		writeXML(w, http.StatusBadRequest, Fault("Client", "Invalid SOAP request"))
		return
	}
	call, err := ParseRequest(data)
	if err != nil {
		hlog.FromRequest(r).Debug().Err(err).Msg("Rejected SOAP envelope")
		writeXML(w, http.StatusBadRequest, Fault("Client", "Invalid SOAP request"))
		return
	}

	var element, result, failure string
	switch call.Method {
	case "authenticateUser":
		element, failure = "result", "Authentication error: "
		result, err = h.authenticate(r, call.Params)
	case "getAllUsers":
		element, failure = "users", "Error getting users: "
		result, err = h.allUsers(r)
	case "getStatistics":
		element, failure = "stats", "Error getting statistics: "
		result, err = h.statistics(r)
	default:
		writeXML(w, http.StatusBadRequest, Fault("Client", "Unknown method: "+call.Method))
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("method", call.Method).Msg("SOAP operation failed")
		writeXML(w, http.StatusInternalServerError, Fault("Server", failure+err.Error()))
		return
	}

	body, err := Response(h.namespace, call.Method, element, result)
	if err != nil {
		writeXML(w, http.StatusInternalServerError, Fault("Server", "Internal error: "+err.Error()))
		return
	}
	writeXML(w, http.StatusOK, body)
}

func (h *Handler) authenticate(r *http.Request, params map[string]string) (string, error) {
	username, password := params["username"], params["password"]
	if username == "" || password == "" {
		return "Error: Username and password required", nil
	}
	_, err := h.users.AuthenticateUser(r.Context(), username, password)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		return "Authentication failed: Invalid credentials", nil
	case err != nil:
		return "", err
	}
	return "Authentication successful for user: " + username, nil
}

func (h *Handler) allUsers(r *http.Request) (string, error) {
	users, err := h.users.AllUsers(r.Context())
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "No users found", nil
	}
	lines := make([]string, 0, len(users))
	for _, u := range users {
		lines = append(lines, fmt.Sprintf("ID: %d, Username: %s, Email: %s, Posts: %d", u.ID, u.Username, u.Email, u.PostsCount))
	}
	return strings.Join(lines, "; "), nil
}

func (h *Handler) statistics(r *http.Request) (string, error) {
	counts, err := h.stats.Counts(r.Context())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Blog Statistics: %d users, %d posts, %d comments", counts.Users, counts.Posts, counts.Comments), nil
}
