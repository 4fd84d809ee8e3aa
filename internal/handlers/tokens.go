package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/scrob-fm/scrob/internal/auth"
	"github.com/scrob-fm/scrob/internal/middleware"
	"github.com/scrob-fm/scrob/internal/models"
	"github.com/scrob-fm/scrob/internal/repo"
)

// ==========================
// Token Handler
// ==========================
type TokenHandler struct {
	Sessions *auth.Service
	Tokens   *repo.TokenRepo
}

// ==========================
// List Tokens (raw values never included)
// ==========================
func (h *TokenHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	tokens, err := h.Tokens.ListByUser(r.Context(), user.ID)
	if err != nil {
		slog.Error("list tokens", "user_id", user.ID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if tokens == nil {
		tokens = []models.APIToken{}
	}

	JSON(w, http.StatusOK, tokens)
}

// ==========================
// Create Token (raw value returned exactly once)
// ==========================
func (h *TokenHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	var input struct {
		Label *string `json:"label"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			JSONError(w, "invalid json", http.StatusBadRequest)
			return
		}
	}

	token, err := h.Sessions.IssueToken(r.Context(), user.ID, input.Label)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, token)
}

// ==========================
// Revoke Token
// ==========================
// A token that is not the caller's looks exactly like a token that does not
// exist.
func (h *TokenHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	tokenID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		JSONError(w, "invalid token id", http.StatusBadRequest)
		return
	}

	revoked, err := h.Sessions.RevokeToken(r.Context(), user.ID, tokenID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !revoked {
		JSONError(w, "token not found", http.StatusNotFound)
		return
	}

	JSON(w, http.StatusOK, map[string]bool{"revoked": true})
}
