package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/scrob-fm/scrob/internal/middleware"
	"github.com/scrob-fm/scrob/internal/models"
	"github.com/scrob-fm/scrob/internal/repo"
)

const (
	defaultStatsLimit = 20
	maxStatsLimit     = 100
)

// ==========================
// Stats Handler
// ==========================
type StatsHandler struct {
	Scrobbles *repo.ScrobbleRepo
}

// ==========================
// Recent Scrobbles
// ==========================
func (h *StatsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	limit := queryLimit(r, defaultStatsLimit)
	before := queryInt64(r, "before", math.MaxInt64)

	scrobbles, err := h.Scrobbles.Recent(r.Context(), user.ID, before, limit)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if scrobbles == nil {
		scrobbles = []models.Scrobble{}
	}

	JSON(w, http.StatusOK, scrobbles)
}

// ==========================
// Top Artists
// ==========================
func (h *StatsHandler) TopArtists(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	limit := queryLimit(r, defaultStatsLimit)
	from := queryInt64(r, "from", 0)
	to := queryInt64(r, "to", math.MaxInt64)

	artists, err := h.Scrobbles.TopArtists(r.Context(), user.ID, from, to, limit)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if artists == nil {
		artists = []models.TopArtist{}
	}

	JSON(w, http.StatusOK, artists)
}

// ==========================
// Top Tracks
// ==========================
func (h *StatsHandler) TopTracks(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	limit := queryLimit(r, defaultStatsLimit)
	from := queryInt64(r, "from", 0)
	to := queryInt64(r, "to", math.MaxInt64)

	tracks, err := h.Scrobbles.TopTracks(r.Context(), user.ID, from, to, limit)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if tracks == nil {
		tracks = []models.TopTrack{}
	}

	JSON(w, http.StatusOK, tracks)
}

func queryLimit(r *http.Request, fallback int64) int64 {
	limit := queryInt64(r, "limit", fallback)
	if limit <= 0 {
		limit = fallback
	}
	if limit > maxStatsLimit {
		limit = maxStatsLimit
	}
	return limit
}

func queryInt64(r *http.Request, key string, fallback int64) int64 {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
