package handlers

import (
	"net/http"
	"strings"
)

// Browser forms carry stricter rules than the JSON APIs.

type loginForm struct {
	Username string `form:"username" validate:"required,min=3,max=120"`
	Password string `form:"password" validate:"required,min=6"`
}

type registerForm struct {
	Username string `form:"username" validate:"required,min=3,max=80"`
	Email    string `form:"email" validate:"required,email,max=120"`
	Password string `form:"password" validate:"required,min=6"`
}

type userForm struct {
	Username string `form:"username" validate:"required,min=3,max=80"`
	Email    string `form:"email" validate:"required,email,max=120"`
}

type postForm struct {
	Title   string `form:"title" validate:"required,min=5,max=100"`
	Content string `form:"content" validate:"required,min=10"`
}

type commentForm struct {
	Content string `form:"content" validate:"required,min=5"`
}

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.PostFormValue(key))
}

// parseForm reads a urlencoded or multipart body, answering 400 on failure.
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid form submission")
		return false
	}
	return true
}

// formField describes one input of a page's form.
type formField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Min      int    `json:"min_length,omitempty"`
	Max      int    `json:"max_length,omitempty"`
}

var (
	loginFields = []formField{
		{Name: "username", Type: "text", Required: true, Min: 3, Max: 120},
		{Name: "password", Type: "password", Required: true, Min: 6},
	}
	registerFields = []formField{
		{Name: "username", Type: "text", Required: true, Min: 3, Max: 80},
		{Name: "email", Type: "email", Required: true, Max: 120},
		{Name: "password", Type: "password", Required: true, Min: 6},
	}
)
