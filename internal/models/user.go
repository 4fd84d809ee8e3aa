package models

type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	IsAdmin      bool   `json:"is_admin"`
	IsPrivate    bool   `json:"is_private"`
	CreatedAt    int64  `json:"created_at"`
}

// UserListItem is the admin-facing listing row.
type UserListItem struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	IsAdmin       bool   `json:"is_admin"`
	CreatedAt     int64  `json:"created_at"`
	ScrobbleCount int64  `json:"scrobble_count"`
}

// UserDetail is the admin-facing single-user view.
type UserDetail struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	IsAdmin       bool   `json:"is_admin"`
	CreatedAt     int64  `json:"created_at"`
	ScrobbleCount int64  `json:"scrobble_count"`
	LastScrobble  *int64 `json:"last_scrobble"`
}
