package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/scrob-fm/scrob/internal/models"
)

// SessionLabel marks tokens issued implicitly by signup and login.
const SessionLabel = "session"

// UserStore is the slice of user persistence the session service needs.
type UserStore interface {
	Create(ctx context.Context, username, passwordHash string, createdAt int64) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// TokenStore is the slice of token persistence the session service needs.
type TokenStore interface {
	Insert(ctx context.Context, userID int64, token string, label *string, createdAt int64) (*models.APIToken, error)
	FindActiveOwner(ctx context.Context, token string) (int64, error)
	Touch(ctx context.Context, token string, usedAt int64) error
	Revoke(ctx context.Context, tokenID, ownerID int64) (bool, error)
}

// Service orchestrates signup, login, token issuance, revocation, and token
// resolution. It holds no state beyond its collaborators; every lookup asks
// the store for current truth so revocation is observed immediately.
type Service struct {
	users    UserStore
	tokens   TokenStore
	log      *slog.Logger
	now      func() time.Time
	newToken func() (string, error)
}

func NewService(users UserStore, tokens TokenStore, log *slog.Logger) *Service {
	return &Service{users: users, tokens: tokens, log: log, now: time.Now, newToken: GenerateToken}
}

// SessionResult is what signup and login hand back to both surfaces.
type SessionResult struct {
	User  *models.User
	Token string
}

// Signup validates the username and password policy before touching
// storage, creates the user, and issues a session token. The first user in
// an empty system becomes an administrator; the store decides that inside
// the insert itself.
func (s *Service) Signup(ctx context.Context, username, password string) (*SessionResult, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := s.now().Unix()
	user, err := s.users.Create(ctx, username, hash, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, &StorageError{Err: err}
	}

	token, err := s.issueSessionToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info("user signed up", "user_id", user.ID, "username", user.Username, "is_admin", user.IsAdmin)
	return &SessionResult{User: user, Token: token}, nil
}

// Login verifies credentials and issues a fresh session token. Unknown
// username and wrong password produce the identical error. Existing tokens
// stay valid; concurrent sessions are allowed.
func (s *Service) Login(ctx context.Context, username, password string) (*SessionResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, &StorageError{Err: err}
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueSessionToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info("user logged in", "user_id", user.ID)
	return &SessionResult{User: user, Token: token}, nil
}

// IssueToken creates a labeled API token for the user. The returned record
// carries the raw token value; this is the only place it is ever exposed.
func (s *Service) IssueToken(ctx context.Context, userID int64, label *string) (*models.APIToken, error) {
	raw, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	token, err := s.tokens.Insert(ctx, userID, raw, label, s.now().Unix())
	if err != nil {
		return nil, &StorageError{Err: err}
	}

	token.Token = raw
	return token, nil
}

// RevokeToken revokes the token only if it belongs to userID. A token that
// does not exist and a token owned by someone else both return false.
func (s *Service) RevokeToken(ctx context.Context, userID, tokenID int64) (bool, error) {
	revoked, err := s.tokens.Revoke(ctx, tokenID, userID)
	if err != nil {
		return false, &StorageError{Err: err}
	}
	if revoked {
		s.log.Info("token revoked", "user_id", userID, "token_id", tokenID)
	}
	return revoked, nil
}

// Resolve maps a raw token to its owning user, recording the use. A
// missing, revoked, or malformed token resolves to (nil, nil): absence of
// identity is an expected outcome, not a fault.
func (s *Service) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}

	userID, err := s.tokens.FindActiveOwner(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, &StorageError{Err: err}
	}

	// Best effort: a failed touch must not fail the request.
	if err := s.tokens.Touch(ctx, token, s.now().Unix()); err != nil {
		s.log.Warn("touch token last_used_at failed", "user_id", userID, "error", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, &StorageError{Err: err}
	}

	return user, nil
}

func (s *Service) issueSessionToken(ctx context.Context, userID int64) (string, error) {
	raw, err := s.newToken()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	label := SessionLabel
	if _, err := s.tokens.Insert(ctx, userID, raw, &label, s.now().Unix()); err != nil {
		return "", &StorageError{Err: err}
	}
	return raw, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
