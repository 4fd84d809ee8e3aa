package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/scrob-fm/scrob/internal/metrics"
	"github.com/scrob-fm/scrob/internal/middleware"
	"github.com/scrob-fm/scrob/internal/repo"
)

// MaxScrobbleBatch caps how many scrobbles one submission may carry.
const MaxScrobbleBatch = 50

// ==========================
// Scrobble Handler
// ==========================
type ScrobbleHandler struct {
	Scrobbles *repo.ScrobbleRepo
}

type nowPlayingInput struct {
	Artist      string  `json:"artist"`
	Track       string  `json:"track"`
	Album       *string `json:"album"`
	AlbumArtist *string `json:"album_artist"`
	Duration    *int64  `json:"duration"`
	TrackNumber *int    `json:"track_number"`
}

type scrobbleInput struct {
	Artist      string  `json:"artist"`
	Track       string  `json:"track"`
	Timestamp   int64   `json:"timestamp"`
	Album       *string `json:"album"`
	AlbumArtist *string `json:"album_artist"`
	Duration    *int64  `json:"duration"`
	TrackNumber *int    `json:"track_number"`
}

type scrobbleResponse struct {
	ID        int64  `json:"id"`
	Artist    string `json:"artist"`
	Track     string `json:"track"`
	Timestamp int64  `json:"timestamp"`
}

// ==========================
// Now Playing (logged, not stored)
// ==========================
func (h *ScrobbleHandler) NowPlaying(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	var input nowPlayingInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}
	if input.Artist == "" || input.Track == "" {
		JSONError(w, "artist and track are required", http.StatusBadRequest)
		return
	}

	slog.Info("now playing", "user_id", user.ID, "artist", input.Artist, "track", input.Track)
	w.WriteHeader(http.StatusOK)
}

// ==========================
// Scrobble (batch insert)
// ==========================
func (h *ScrobbleHandler) Scrobble(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	var inputs []scrobbleInput
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}
	if len(inputs) > MaxScrobbleBatch {
		JSONError(w, "Maximum 50 scrobbles per batch", http.StatusBadRequest)
		return
	}

	now := time.Now().Unix()
	results := make([]scrobbleResponse, 0, len(inputs))
	for _, in := range inputs {
		if in.Artist == "" || in.Track == "" {
			JSONError(w, "artist and track are required", http.StatusBadRequest)
			return
		}
		s, err := h.Scrobbles.Insert(r.Context(), user.ID, in.Artist, in.Track, in.Album, in.Duration, in.Timestamp, now)
		if err != nil {
			slog.Error("insert scrobble", "user_id", user.ID, "error", err)
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
			return
		}
		metrics.ScrobblesIngested.Inc()
		results = append(results, scrobbleResponse{
			ID:        s.ID,
			Artist:    s.Artist,
			Track:     s.Track,
			Timestamp: s.Timestamp,
		})
	}

	slog.Info("scrobbles stored", "user_id", user.ID, "count", len(results))
	JSON(w, http.StatusOK, results)
}
