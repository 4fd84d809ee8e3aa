package graphql

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/graphql-go/graphql"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/scrob-fm/scrob/internal/auth"
	"github.com/scrob-fm/scrob/internal/metrics"
	"github.com/scrob-fm/scrob/internal/middleware"
	"github.com/scrob-fm/scrob/internal/models"
	"github.com/scrob-fm/scrob/internal/repo"
)

func newTestSchema(t *testing.T, db *sql.DB) graphql.Schema {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := repo.NewTokenRepo(db)
	scrobbles := repo.NewScrobbleRepo(db)
	svc := auth.NewService(repo.NewUserRepo(db), tokens, log)

	schema, err := NewSchema(Deps{Sessions: svc, Scrobbles: scrobbles, Tokens: tokens})
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return schema
}

func TestQuery_Me(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	schema := newTestSchema(t, db)
	user := &models.User{ID: 1, Username: "alice_99", IsAdmin: true, CreatedAt: 1700000000}

	result := graphql.Do(graphql.Params{
		Schema:        schema,
		RequestString: `{ me { id username isAdmin } }`,
		Context:       middleware.WithUser(context.Background(), user),
	})
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	me, ok := result.Data.(map[string]interface{})["me"].(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected data: %v", result.Data)
	}
	if me["username"] != "alice_99" || me["isAdmin"] != true {
		t.Errorf("unexpected me: %v", me)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestQuery_Me_Unauthenticated(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	schema := newTestSchema(t, db)
	result := graphql.Do(graphql.Params{
		Schema:        schema,
		RequestString: `{ me { id username } }`,
		Context:       context.Background(),
	})
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if me := result.Data.(map[string]interface{})["me"]; me != nil {
		t.Errorf("expected null me without credentials, got: %v", me)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestQuery_RecentScrobs_RequiresAuth(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	schema := newTestSchema(t, db)
	result := graphql.Do(graphql.Params{
		Schema:        schema,
		RequestString: `{ recentScrobs { id artist track } }`,
		Context:       context.Background(),
	})
	if len(result.Errors) == 0 {
		t.Fatal("expected an error without credentials")
	}
	if result.Errors[0].Message != "Authentication required" {
		t.Errorf("unexpected error: %v", result.Errors[0].Message)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestMutation_Login(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	hash, err := auth.HashPassword("Abcdef12")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	mock.ExpectQuery(`SELECT id, username, password_hash, is_admin, is_private, created_at`).
		WithArgs("alice_99").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "is_admin", "is_private", "created_at"}).
			AddRow(1, "alice_99", hash, false, false, 1700000000))
	mock.ExpectQuery(`INSERT INTO api_tokens \(user_id, token, label, created_at, revoked\)`).
		WithArgs(int64(1), sqlmock.AnyArg(), "session", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "label", "created_at", "last_used_at", "revoked"}).
			AddRow(1, 1, "session", 1700000100, nil, false))

	schema := newTestSchema(t, db)
	result := graphql.Do(graphql.Params{
		Schema: schema,
		RequestString: `mutation {
			login(username: "alice_99", password: "Abcdef12") {
				token
				user { id username }
			}
		}`,
		Context: context.Background(),
	})
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	payload := result.Data.(map[string]interface{})["login"].(map[string]interface{})
	if payload["token"] == "" {
		t.Error("expected a session token")
	}
	user := payload["user"].(map[string]interface{})
	if user["username"] != "alice_99" {
		t.Errorf("unexpected user: %v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestMutation_Login_InvalidCredentials(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username, password_hash, is_admin, is_private, created_at`).
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	schema := newTestSchema(t, db)
	result := graphql.Do(graphql.Params{
		Schema:        schema,
		RequestString: `mutation { login(username: "nobody", password: "Abcdef12") { token } }`,
		Context:       context.Background(),
	})
	if len(result.Errors) == 0 {
		t.Fatal("expected an error for bad credentials")
	}
	if result.Errors[0].Message != "Invalid username or password" {
		t.Errorf("unexpected error: %v", result.Errors[0].Message)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestMutation_Login_StorageFaultIsOpaque(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	dbErr := errors.New("pq: password authentication failed for user scrob")
	mock.ExpectQuery(`SELECT id, username, password_hash, is_admin, is_private, created_at`).
		WithArgs("alice_99").
		WillReturnError(dbErr)

	before := testutil.ToFloat64(metrics.AuthAttempts.WithLabelValues("login", "error"))

	schema := newTestSchema(t, db)
	result := graphql.Do(graphql.Params{
		Schema:        schema,
		RequestString: `mutation { login(username: "alice_99", password: "Abcdef12") { token } }`,
		Context:       context.Background(),
	})
	if len(result.Errors) == 0 {
		t.Fatal("expected an error on a storage fault")
	}
	if result.Errors[0].Message != "internal server error" {
		t.Errorf("unexpected error message: %q", result.Errors[0].Message)
	}
	if strings.Contains(result.Errors[0].Message, "password authentication") {
		t.Error("storage fault detail leaked to the client")
	}

	after := testutil.ToFloat64(metrics.AuthAttempts.WithLabelValues("login", "error"))
	if after != before+1 {
		t.Errorf("expected login error counter to increment, got %v -> %v", before, after)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestQuery_ApiTokens(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, user_id, label, created_at, last_used_at, revoked\s+FROM api_tokens\s+WHERE user_id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "label", "created_at", "last_used_at", "revoked"}).
			AddRow(12, 1, "laptop", 1700000100, nil, false).
			AddRow(11, 1, "session", 1700000000, 1700000200, true))

	schema := newTestSchema(t, db)
	user := &models.User{ID: 1, Username: "alice_99"}

	result := graphql.Do(graphql.Params{
		Schema:        schema,
		RequestString: `{ apiTokens { id token label revoked } }`,
		Context:       middleware.WithUser(context.Background(), user),
	})
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	tokens := result.Data.(map[string]interface{})["apiTokens"].([]interface{})
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(tokens))
	}
	first := tokens[0].(map[string]interface{})
	if first["label"] != "laptop" || first["revoked"] != false {
		t.Errorf("unexpected first token: %v", first)
	}
	for _, tok := range tokens {
		if raw := tok.(map[string]interface{})["token"]; raw != nil && raw != "" {
			t.Errorf("listing must never expose raw token values, got %v", raw)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestMutation_ScrobBatch_Cap(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	schema := newTestSchema(t, db)
	user := &models.User{ID: 1, Username: "alice_99"}

	inputs := make([]interface{}, maxBatch+1)
	for i := range inputs {
		inputs[i] = map[string]interface{}{"artist": "a", "track": "t", "timestamp": 1700000000 + i}
	}

	result := graphql.Do(graphql.Params{
		Schema: schema,
		RequestString: `mutation ($inputs: [ScrobInput!]!) {
			scrobBatch(inputs: $inputs) { id }
		}`,
		VariableValues: map[string]interface{}{"inputs": inputs},
		Context:        middleware.WithUser(context.Background(), user),
	})
	if len(result.Errors) == 0 {
		t.Fatal("expected an error for an oversized batch")
	}
	if result.Errors[0].Message != "Maximum 50 scrobbles per batch" {
		t.Errorf("unexpected error: %v", result.Errors[0].Message)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestMutation_RevokeApiToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE api_tokens SET revoked = TRUE WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(3), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	schema := newTestSchema(t, db)
	user := &models.User{ID: 1, Username: "alice_99"}

	result := graphql.Do(graphql.Params{
		Schema:        schema,
		RequestString: `mutation { revokeApiToken(id: 3) }`,
		Context:       middleware.WithUser(context.Background(), user),
	})
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if revoked := result.Data.(map[string]interface{})["revokeApiToken"]; revoked != true {
		t.Errorf("expected revoked true, got: %v", revoked)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
