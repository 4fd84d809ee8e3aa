package models

// Scrobble is one completed play reported by a client.
type Scrobble struct {
	ID        int64   `json:"id"`
	UserID    int64   `json:"user_id"`
	Artist    string  `json:"artist"`
	Track     string  `json:"track"`
	Album     *string `json:"album"`
	Duration  *int64  `json:"duration"`
	Timestamp int64   `json:"timestamp"`
	CreatedAt int64   `json:"created_at"`
}

type TopArtist struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type TopUser struct {
	Username      string `json:"username"`
	ScrobbleCount int64  `json:"scrobble_count"`
}

type TopTrack struct {
	Artist string `json:"artist"`
	Track  string `json:"track"`
	Count  int64  `json:"count"`
}
