package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/scrob-fm/scrob/internal/middleware"
	"github.com/scrob-fm/scrob/internal/repo"
)

// ==========================
// Settings Handler
// ==========================
type SettingsHandler struct {
	Users *repo.UserRepo
}

type privacyBody struct {
	IsPrivate bool `json:"is_private"`
}

// ==========================
// Get Privacy
// ==========================
func (h *SettingsHandler) GetPrivacy(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())
	JSON(w, http.StatusOK, privacyBody{IsPrivate: user.IsPrivate})
}

// ==========================
// Update Privacy (owner only)
// ==========================
func (h *SettingsHandler) UpdatePrivacy(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	var input privacyBody
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}

	if err := h.Users.SetPrivacy(r.Context(), user.ID, input.IsPrivate); err != nil {
		slog.Error("update privacy", "user_id", user.ID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, privacyBody{IsPrivate: input.IsPrivate})
}
