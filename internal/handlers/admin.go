package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
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
// Admin Handler
// ==========================
// All routes here sit behind RequireAdmin; operations that must not be
// self-applied additionally check AdminNotSelf so an administrator cannot
// lock themselves out.
type AdminHandler struct {
	Users     *repo.UserRepo
	Scrobbles *repo.ScrobbleRepo
}

type systemStats struct {
	TotalUsers     int64 `json:"total_users"`
	TotalScrobbles int64 `json:"total_scrobbles"`
	TotalArtists   int64 `json:"total_artists"`
	TotalTracks    int64 `json:"total_tracks"`
}

type adminStatsResponse struct {
	Stats    systemStats      `json:"stats"`
	TopUsers []models.TopUser `json:"top_users"`
}

// ==========================
// List Users
// ==========================
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		slog.Error("admin list users", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []models.UserListItem{}
	}
	JSON(w, http.StatusOK, users)
}

// ==========================
// Get User
// ==========================
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		JSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	user, err := h.Users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			JSONError(w, "User not found", http.StatusNotFound)
			return
		}
		slog.Error("admin get user", "user_id", userID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	count, err := h.Scrobbles.CountByUser(r.Context(), userID)
	if err != nil {
		slog.Error("admin count scrobbles", "user_id", userID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	last, err := h.Scrobbles.LastByUser(r.Context(), userID)
	if err != nil {
		slog.Error("admin last scrobble", "user_id", userID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, models.UserDetail{
		ID:            user.ID,
		Username:      user.Username,
		IsAdmin:       user.IsAdmin,
		CreatedAt:     user.CreatedAt,
		ScrobbleCount: count,
		LastScrobble:  last,
	})
}

// ==========================
// Delete User (cascading, never self)
// ==========================
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.UserFrom(r.Context())

	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		JSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	if decision := auth.Authorize(actor, auth.AdminNotSelf(userID)); !decision.Allowed {
		JSONError(w, "Cannot delete yourself", http.StatusBadRequest)
		return
	}

	deleted, err := h.Users.Delete(r.Context(), userID)
	if err != nil {
		slog.Error("admin delete user", "user_id", userID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if !deleted {
		JSONError(w, "User not found", http.StatusNotFound)
		return
	}

	slog.Info("user deleted", "user_id", userID, "by", actor.ID)
	w.WriteHeader(http.StatusOK)
}

// ==========================
// Set Admin Flag (never self)
// ==========================
func (h *AdminHandler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.UserFrom(r.Context())

	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		JSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	if decision := auth.Authorize(actor, auth.AdminNotSelf(userID)); !decision.Allowed {
		JSONError(w, "Cannot change your own admin status", http.StatusBadRequest)
		return
	}

	var input struct {
		IsAdmin bool `json:"is_admin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}

	changed, err := h.Users.SetAdmin(r.Context(), userID, input.IsAdmin)
	if err != nil {
		slog.Error("admin set admin flag", "user_id", userID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if !changed {
		JSONError(w, "User not found", http.StatusNotFound)
		return
	}

	slog.Info("admin flag changed", "user_id", userID, "is_admin", input.IsAdmin, "by", actor.ID)
	JSON(w, http.StatusOK, map[string]bool{"is_admin": input.IsAdmin})
}

// ==========================
// System Stats
// ==========================
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	totalUsers, err := h.Users.Count(r.Context())
	if err != nil {
		slog.Error("admin count users", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	scrobbles, artists, tracks, err := h.Scrobbles.Totals(r.Context())
	if err != nil {
		slog.Error("admin scrobble totals", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	topUsers, err := h.Scrobbles.TopUsers(r.Context(), 10)
	if err != nil {
		slog.Error("admin top users", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if topUsers == nil {
		topUsers = []models.TopUser{}
	}

	JSON(w, http.StatusOK, adminStatsResponse{
		Stats: systemStats{
			TotalUsers:     totalUsers,
			TotalScrobbles: scrobbles,
			TotalArtists:   artists,
			TotalTracks:    tracks,
		},
		TopUsers: topUsers,
	})
}

// ==========================
// Delete Scrobble (moderation)
// ==========================
func (h *AdminHandler) DeleteScrobble(w http.ResponseWriter, r *http.Request) {
	scrobbleID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		JSONError(w, "invalid scrobble id", http.StatusBadRequest)
		return
	}

	deleted, err := h.Scrobbles.Delete(r.Context(), scrobbleID)
	if err != nil {
		slog.Error("admin delete scrobble", "scrobble_id", scrobbleID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if !deleted {
		JSONError(w, "Scrobble not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
