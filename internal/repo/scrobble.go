package repo

import (
	"context"
	"database/sql"

	"github.com/scrob-fm/scrob/internal/models"
)

// ==========================
// ScrobbleRepo
// ==========================
type ScrobbleRepo struct {
	DB *sql.DB
}

// ==========================
// Constructor
// ==========================
func NewScrobbleRepo(db *sql.DB) *ScrobbleRepo {
	return &ScrobbleRepo{DB: db}
}

// ==========================
// Insert Scrobble
// ==========================
func (r *ScrobbleRepo) Insert(ctx context.Context, userID int64, artist, track string, album *string, duration *int64, timestamp, createdAt int64) (*models.Scrobble, error) {
	query := `
		INSERT INTO scrobbles (user_id, artist, track, album, duration, timestamp, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, user_id, artist, track, album, duration, timestamp, created_at
	`

	s := &models.Scrobble{}

	err := r.DB.QueryRowContext(ctx, query, userID, artist, track, album, duration, timestamp, createdAt).
		Scan(&s.ID, &s.UserID, &s.Artist, &s.Track, &s.Album, &s.Duration, &s.Timestamp, &s.CreatedAt)

	if err != nil {
		return nil, err
	}

	return s, nil
}

// ==========================
// Recent Scrobbles
// ==========================
func (r *ScrobbleRepo) Recent(ctx context.Context, userID int64, before int64, limit int64) ([]models.Scrobble, error) {
	query := `
		SELECT id, user_id, artist, track, album, duration, timestamp, created_at
		FROM scrobbles
		WHERE user_id = $1 AND timestamp < $2
		ORDER BY timestamp DESC
		LIMIT $3
	`

	rows, err := r.DB.QueryContext(ctx, query, userID, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scrobbles []models.Scrobble
	for rows.Next() {
		var s models.Scrobble
		if err := rows.Scan(&s.ID, &s.UserID, &s.Artist, &s.Track, &s.Album, &s.Duration, &s.Timestamp, &s.CreatedAt); err != nil {
			return nil, err
		}
		scrobbles = append(scrobbles, s)
	}

	return scrobbles, rows.Err()
}

// ==========================
// Top Artists
// ==========================
func (r *ScrobbleRepo) TopArtists(ctx context.Context, userID, from, to, limit int64) ([]models.TopArtist, error) {
	query := `
		SELECT artist, COUNT(*) AS count
		FROM scrobbles
		WHERE user_id = $1 AND timestamp >= $2 AND timestamp <= $3
		GROUP BY artist
		ORDER BY count DESC
		LIMIT $4
	`

	rows, err := r.DB.QueryContext(ctx, query, userID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artists []models.TopArtist
	for rows.Next() {
		var a models.TopArtist
		if err := rows.Scan(&a.Name, &a.Count); err != nil {
			return nil, err
		}
		artists = append(artists, a)
	}

	return artists, rows.Err()
}

// ==========================
// Top Tracks
// ==========================
func (r *ScrobbleRepo) TopTracks(ctx context.Context, userID, from, to, limit int64) ([]models.TopTrack, error) {
	query := `
		SELECT artist, track, COUNT(*) AS count
		FROM scrobbles
		WHERE user_id = $1 AND timestamp >= $2 AND timestamp <= $3
		GROUP BY artist, track
		ORDER BY count DESC
		LIMIT $4
	`

	rows, err := r.DB.QueryContext(ctx, query, userID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []models.TopTrack
	for rows.Next() {
		var t models.TopTrack
		if err := rows.Scan(&t.Artist, &t.Track, &t.Count); err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}

	return tracks, rows.Err()
}

// ==========================
// Delete Scrobble
// ==========================
func (r *ScrobbleRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM scrobbles WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ==========================
// User Detail Counters
// ==========================
func (r *ScrobbleRepo) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scrobbles WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

func (r *ScrobbleRepo) LastByUser(ctx context.Context, userID int64) (*int64, error) {
	var last sql.NullInt64
	err := r.DB.QueryRowContext(ctx,
		`SELECT MAX(timestamp) FROM scrobbles WHERE user_id = $1`, userID).Scan(&last)
	if err != nil {
		return nil, err
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Int64, nil
}

// ==========================
// System Totals
// ==========================
func (r *ScrobbleRepo) Totals(ctx context.Context) (scrobbles, artists, tracks int64, err error) {
	if err = r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM scrobbles`).Scan(&scrobbles); err != nil {
		return
	}
	if err = r.DB.QueryRowContext(ctx, `SELECT COUNT(DISTINCT artist) FROM scrobbles`).Scan(&artists); err != nil {
		return
	}
	err = r.DB.QueryRowContext(ctx, `SELECT COUNT(DISTINCT artist || ' - ' || track) FROM scrobbles`).Scan(&tracks)
	return
}

// ==========================
// Top Users (by scrobble count)
// ==========================
func (r *ScrobbleRepo) TopUsers(ctx context.Context, limit int64) ([]models.TopUser, error) {
	query := `
		SELECT u.username, COUNT(s.id) AS scrobble_count
		FROM users u
		LEFT JOIN scrobbles s ON u.id = s.user_id
		GROUP BY u.id, u.username
		HAVING COUNT(s.id) > 0
		ORDER BY COUNT(s.id) DESC
		LIMIT $1
	`

	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.TopUser
	for rows.Next() {
		var u models.TopUser
		if err := rows.Scan(&u.Username, &u.ScrobbleCount); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}
