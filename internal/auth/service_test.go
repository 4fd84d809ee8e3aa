package auth

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrob-fm/scrob/internal/models"
)

// memStore is an in-memory UserStore + TokenStore mirroring the adapter
// contract: unique usernames fail with a pq unique violation, first user
// becomes admin, revoked tokens are invisible to FindActiveOwner.
type memStore struct {
	users    map[int64]*models.User
	byName   map[string]*models.User
	tokens   map[int64]*models.APIToken
	byToken  map[string]*models.APIToken
	nextUser int64
	nextTok  int64

	touched  []string
	touchErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[int64]*models.User),
		byName:  make(map[string]*models.User),
		tokens:  make(map[int64]*models.APIToken),
		byToken: make(map[string]*models.APIToken),
	}
}

func (m *memStore) Create(_ context.Context, username, hash string, createdAt int64) (*models.User, error) {
	if _, exists := m.byName[username]; exists {
		return nil, &pq.Error{Code: "23505"}
	}
	m.nextUser++
	u := &models.User{
		ID:           m.nextUser,
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      len(m.users) == 0,
		CreatedAt:    createdAt,
	}
	m.users[u.ID] = u
	m.byName[username] = u
	return u, nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *memStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	u, ok := m.byName[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *memStore) Insert(_ context.Context, userID int64, token string, label *string, createdAt int64) (*models.APIToken, error) {
	m.nextTok++
	t := &models.APIToken{ID: m.nextTok, UserID: userID, Label: label, CreatedAt: createdAt}
	m.tokens[t.ID] = t
	m.byToken[token] = t
	return &models.APIToken{ID: t.ID, UserID: t.UserID, Label: t.Label, CreatedAt: t.CreatedAt}, nil
}

func (m *memStore) FindActiveOwner(_ context.Context, token string) (int64, error) {
	t, ok := m.byToken[token]
	if !ok || t.Revoked {
		return 0, sql.ErrNoRows
	}
	return t.UserID, nil
}

func (m *memStore) Touch(_ context.Context, token string, usedAt int64) error {
	if m.touchErr != nil {
		return m.touchErr
	}
	m.touched = append(m.touched, token)
	if t, ok := m.byToken[token]; ok {
		t.LastUsedAt = &usedAt
	}
	return nil
}

func (m *memStore) Revoke(_ context.Context, tokenID, ownerID int64) (bool, error) {
	t, ok := m.tokens[tokenID]
	if !ok || t.UserID != ownerID || t.Revoked {
		return false, nil
	}
	t.Revoked = true
	return true, nil
}

func newTestService(store *memStore) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, store, log)
}

func TestSignup_FirstUserIsAdmin(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	first, err := svc.Signup(ctx, "validUser_1", "Abcdef12")
	require.NoError(t, err)
	assert.True(t, first.User.IsAdmin)
	assert.NotEmpty(t, first.Token)

	second, err := svc.Signup(ctx, "validUser_2", "Abcdef12")
	require.NoError(t, err)
	assert.False(t, second.User.IsAdmin)
}

func TestSignup_ValidationBeforeStorage(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "ab", "Abcdef12")
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = svc.Signup(ctx, "validUser_1", "alllowercase1")
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	assert.Empty(t, store.users, "validation failures must not touch storage")
}

func TestSignup_Conflict(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "validUser_1", "Abcdef12")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "validUser_1", "Abcdef12")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLogin_IssuesFreshToken(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	signup, err := svc.Signup(ctx, "alice_99", "Abcdef12")
	require.NoError(t, err)

	login, err := svc.Login(ctx, "alice_99", "Abcdef12")
	require.NoError(t, err)
	assert.NotEqual(t, signup.Token, login.Token)

	// Prior sessions stay valid.
	user, err := svc.Resolve(ctx, signup.Token)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice_99", user.Username)
}

func TestLogin_InvalidCredentialsIndistinguishable(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "alice_99", "Abcdef12")
	require.NoError(t, err)

	_, errWrongPassword := svc.Login(ctx, "alice_99", "WrongPass1")
	_, errNoSuchUser := svc.Login(ctx, "nosuchuser", "x")

	assert.ErrorIs(t, errWrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, errNoSuchUser, ErrInvalidCredentials)
	assert.Equal(t, errWrongPassword.Error(), errNoSuchUser.Error())
}

func TestResolve(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	signup, err := svc.Signup(ctx, "alice_99", "Abcdef12")
	require.NoError(t, err)

	user, err := svc.Resolve(ctx, signup.Token)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, signup.User.ID, user.ID)
	assert.Contains(t, store.touched, signup.Token, "resolve must record use")

	// Unknown and empty tokens resolve to no identity, not an error.
	user, err = svc.Resolve(ctx, "deadbeef")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = svc.Resolve(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestResolve_TouchFailureDoesNotFail(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	signup, err := svc.Signup(ctx, "alice_99", "Abcdef12")
	require.NoError(t, err)

	store.touchErr = sql.ErrConnDone
	user, err := svc.Resolve(ctx, signup.Token)
	require.NoError(t, err)
	require.NotNil(t, user)
}

func TestIssueToken_GeneratorFailure(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	genErr := errors.New("entropy source unavailable")
	svc.newToken = func() (string, error) { return "", genErr }

	_, err := svc.IssueToken(ctx, 1, nil)
	require.ErrorIs(t, err, genErr)

	// Generator faults are not credential-codec faults.
	var he *HashingError
	assert.False(t, errors.As(err, &he))
	assert.Empty(t, store.tokens, "no token row on generator failure")
}

func TestRevokeToken(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	owner, err := svc.Signup(ctx, "alice_99", "Abcdef12")
	require.NoError(t, err)
	other, err := svc.Signup(ctx, "bob_77", "Abcdef12")
	require.NoError(t, err)

	token, err := svc.IssueToken(ctx, owner.User.ID, nil)
	require.NoError(t, err)
	require.NotEmpty(t, token.Token, "raw value must be present at creation")

	// Someone else's revocation attempt fails silently.
	revoked, err := svc.RevokeToken(ctx, other.User.ID, token.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	user, err := svc.Resolve(ctx, token.Token)
	require.NoError(t, err)
	require.NotNil(t, user, "token must remain active after foreign revoke")

	// The owner's revocation sticks immediately and permanently.
	revoked, err = svc.RevokeToken(ctx, owner.User.ID, token.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	user, err = svc.Resolve(ctx, token.Token)
	require.NoError(t, err)
	assert.Nil(t, user)
}
