package repo

import (
	"context"
	"database/sql"

	"github.com/scrob-fm/scrob/internal/models"
)

// ==========================
// UserRepo
// ==========================
type UserRepo struct {
	DB *sql.DB
}

// ==========================
// Constructor
// ==========================
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// ==========================
// Create User
// ==========================
// The is_admin flag is computed inside the INSERT so the "first user in an
// empty system becomes admin" rule is decided by the same statement that
// creates the row. Username collisions surface as a unique-violation error
// from the constraint, never from a prior read.
func (r *UserRepo) Create(ctx context.Context, username, passwordHash string, createdAt int64) (*models.User, error) {
	query := `
		INSERT INTO users (username, password_hash, is_admin, is_private, created_at)
		VALUES ($1, $2, NOT EXISTS(SELECT 1 FROM users), FALSE, $3)
		RETURNING id, username, password_hash, is_admin, is_private, created_at
	`

	user := &models.User{}

	err := r.DB.QueryRowContext(ctx, query, username, passwordHash, createdAt).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.IsAdmin, &user.IsPrivate, &user.CreatedAt)

	if err != nil {
		return nil, err
	}

	return user, nil
}

// ==========================
// Get By ID
// ==========================
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, is_admin, is_private, created_at
		FROM users
		WHERE id = $1
	`

	user := &models.User{}

	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.IsAdmin, &user.IsPrivate, &user.CreatedAt)

	if err != nil {
		return nil, err
	}

	return user, nil
}

// ==========================
// Get By Username
// ==========================
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, is_admin, is_private, created_at
		FROM users
		WHERE username = $1
	`

	user := &models.User{}

	err := r.DB.QueryRowContext(ctx, query, username).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.IsAdmin, &user.IsPrivate, &user.CreatedAt)

	if err != nil {
		return nil, err
	}

	return user, nil
}

// ==========================
// Set Privacy Flag
// ==========================
func (r *UserRepo) SetPrivacy(ctx context.Context, id int64, isPrivate bool) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE users SET is_private = $1 WHERE id = $2`, isPrivate, id)
	return err
}

// ==========================
// Set Admin Flag
// ==========================
func (r *UserRepo) SetAdmin(ctx context.Context, id int64, isAdmin bool) (bool, error) {
	result, err := r.DB.ExecContext(ctx, `UPDATE users SET is_admin = $1 WHERE id = $2`, isAdmin, id)
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
// Delete User (cascading)
// ==========================
// Scrobbles and tokens go in the same transaction as the user row, so an
// interrupted delete never leaves tokens that still authenticate.
func (r *UserRepo) Delete(ctx context.Context, id int64) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scrobbles WHERE user_id = $1`, id); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM api_tokens WHERE user_id = $1`, id); err != nil {
		return false, err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ==========================
// Count Users
// ==========================
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// ==========================
// List Users (with scrobble counts)
// ==========================
func (r *UserRepo) List(ctx context.Context) ([]models.UserListItem, error) {
	query := `
		SELECT u.id, u.username, u.is_admin, u.created_at, COUNT(s.id)
		FROM users u
		LEFT JOIN scrobbles s ON u.id = s.user_id
		GROUP BY u.id, u.username, u.is_admin, u.created_at
		ORDER BY u.created_at DESC
	`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.UserListItem
	for rows.Next() {
		var u models.UserListItem
		if err := rows.Scan(&u.ID, &u.Username, &u.IsAdmin, &u.CreatedAt, &u.ScrobbleCount); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}
