package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/scrob-fm/scrob/internal/auth"
	"github.com/scrob-fm/scrob/internal/metrics"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Sessions *auth.Service
}

type credentialsInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// ==========================
// Signup
// ==========================
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input credentialsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}

	result, err := h.Sessions.Signup(r.Context(), input.Username, input.Password)
	if err != nil {
		metrics.RecordAuthAttempt("signup", signupResult(err))
		writeServiceError(w, err)
		return
	}

	metrics.RecordAuthAttempt("signup", "ok")
	JSON(w, http.StatusOK, sessionResponse{
		Token:    result.Token,
		Username: result.User.Username,
		IsAdmin:  result.User.IsAdmin,
	})
}

// ==========================
// Login
// ==========================
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input credentialsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}

	result, err := h.Sessions.Login(r.Context(), input.Username, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			metrics.RecordAuthAttempt("login", "invalid")
		} else {
			metrics.RecordAuthAttempt("login", "error")
		}
		writeServiceError(w, err)
		return
	}

	metrics.RecordAuthAttempt("login", "ok")
	JSON(w, http.StatusOK, sessionResponse{
		Token:    result.Token,
		Username: result.User.Username,
		IsAdmin:  result.User.IsAdmin,
	})
}

func signupResult(err error) string {
	switch {
	case auth.IsValidation(err):
		return "invalid"
	case errors.Is(err, auth.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
