package repo

import (
	"context"
	"database/sql"

	"github.com/scrob-fm/scrob/internal/models"
)

// ==========================
// TokenRepo
// ==========================
type TokenRepo struct {
	DB *sql.DB
}

// ==========================
// Constructor
// ==========================
func NewTokenRepo(db *sql.DB) *TokenRepo {
	return &TokenRepo{DB: db}
}

// ==========================
// Insert Token
// ==========================
func (r *TokenRepo) Insert(ctx context.Context, userID int64, token string, label *string, createdAt int64) (*models.APIToken, error) {
	query := `
		INSERT INTO api_tokens (user_id, token, label, created_at, revoked)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING id, user_id, label, created_at, last_used_at, revoked
	`

	t := &models.APIToken{}

	err := r.DB.QueryRowContext(ctx, query, userID, token, label, createdAt).
		Scan(&t.ID, &t.UserID, &t.Label, &t.CreatedAt, &t.LastUsedAt, &t.Revoked)

	if err != nil {
		return nil, err
	}

	return t, nil
}

// ==========================
// Find Active Token Owner
// ==========================
// Revoked tokens are excluded in the query itself, so revocation is visible
// on the very next lookup.
func (r *TokenRepo) FindActiveOwner(ctx context.Context, token string) (int64, error) {
	query := `
		SELECT user_id
		FROM api_tokens
		WHERE token = $1 AND revoked = FALSE
	`

	var userID int64
	err := r.DB.QueryRowContext(ctx, query, token).Scan(&userID)
	if err != nil {
		return 0, err
	}

	return userID, nil
}

// ==========================
// Touch Last Used
// ==========================
func (r *TokenRepo) Touch(ctx context.Context, token string, usedAt int64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE api_tokens SET last_used_at = $1 WHERE token = $2`, usedAt, token)
	return err
}

// ==========================
// Revoke Token
// ==========================
// The owner check lives in the WHERE clause so a token belonging to another
// user is indistinguishable from a token that does not exist.
func (r *TokenRepo) Revoke(ctx context.Context, tokenID, ownerID int64) (bool, error) {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE api_tokens SET revoked = TRUE WHERE id = $1 AND user_id = $2`, tokenID, ownerID)
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
// List Tokens By User
// ==========================
// The raw token value is never selected here; it only exists in the
// creation response.
func (r *TokenRepo) ListByUser(ctx context.Context, userID int64) ([]models.APIToken, error) {
	query := `
		SELECT id, user_id, label, created_at, last_used_at, revoked
		FROM api_tokens
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []models.APIToken
	for rows.Next() {
		var t models.APIToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.Label, &t.CreatedAt, &t.LastUsedAt, &t.Revoked); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}

	return tokens, rows.Err()
}

// ==========================
// Delete Long-Revoked Tokens
// ==========================
// Used by the maintenance job. Only rows that already fail every lookup are
// removed, so nothing observable changes.
func (r *TokenRepo) DeleteRevokedBefore(ctx context.Context, cutoff int64) (int64, error) {
	result, err := r.DB.ExecContext(ctx,
		`DELETE FROM api_tokens WHERE revoked = TRUE AND created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
