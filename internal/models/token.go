package models

// APIToken is a bearer credential bound to one user. The raw token value is
// only populated in the direct response of the creation call; every other
// read path leaves it empty so it is omitted from JSON.
type APIToken struct {
	ID         int64   `json:"id"`
	UserID     int64   `json:"user_id"`
	Token      string  `json:"token,omitempty"`
	Label      *string `json:"label"`
	CreatedAt  int64   `json:"created_at"`
	LastUsedAt *int64  `json:"last_used_at"`
	Revoked    bool    `json:"revoked"`
}
