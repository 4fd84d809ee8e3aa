package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/scrob-fm/scrob/internal/auth"
)

// ErrMessageInternal is the generic message for 500 responses. Do not expose internal details to clients.
const ErrMessageInternal = "internal server error"

// JSONError sends a JSON error response with a single "error" field.
func JSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// JSON sends a JSON success response.
func JSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeServiceError maps session-service failures onto status classes.
// Validation and conflict messages go out verbatim; storage and hashing
// faults are logged in full and surfaced as an opaque 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *auth.ValidationError
	switch {
	case errors.As(err, &ve):
		JSONError(w, ve.Msg, http.StatusBadRequest)
	case errors.Is(err, auth.ErrConflict):
		JSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, auth.ErrInvalidCredentials):
		JSONError(w, err.Error(), http.StatusUnauthorized)
	default:
		slog.Error("session service error", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
	}
}
