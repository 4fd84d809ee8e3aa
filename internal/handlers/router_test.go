package handlers

import (
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/scrob-fm/scrob/internal/auth"
	"github.com/scrob-fm/scrob/internal/repo"
)

func newTestRouter(db *sql.DB) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := repo.NewUserRepo(db)
	tokens := repo.NewTokenRepo(db)
	scrobbles := repo.NewScrobbleRepo(db)
	svc := auth.NewService(users, tokens, log)

	return NewRouter(Deps{
		Sessions:  svc,
		Resolver:  auth.NewResolver(svc),
		Users:     users,
		Tokens:    tokens,
		Scrobbles: scrobbles,
	})
}

func TestRouter_Health(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	router := newTestRouter(db)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("health status: got %d, want 200", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Errorf("health body: got %q, want ok", rr.Body.String())
	}
}

func TestRouter_ProtectedRoutesRequireAuth(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	router := newTestRouter(db)

	routes := []struct {
		method string
		path   string
	}{
		{"POST", "/scrobble"},
		{"GET", "/scrobbles/recent"},
		{"GET", "/tokens"},
		{"GET", "/settings/privacy"},
	}
	for _, rt := range routes {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(rt.method, rt.path, nil))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s %s status: got %d, want 401", rt.method, rt.path, rr.Code)
		}
		var out map[string]string
		if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if out["error"] != "Unauthorized" {
			t.Errorf("%s %s error: got %q, want Unauthorized", rt.method, rt.path, out["error"])
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestRouter_AdminRoutesForbiddenForNonAdmin(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT user_id\s+FROM api_tokens\s+WHERE token = \$1 AND revoked = FALSE`).
		WithArgs("usertoken").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(1))
	mock.ExpectExec(`UPDATE api_tokens SET last_used_at = \$1 WHERE token = \$2`).
		WithArgs(sqlmock.AnyArg(), "usertoken").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id, username, password_hash, is_admin, is_private, created_at`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "is_admin", "is_private", "created_at"}).
			AddRow(1, "alice", "hash", false, false, 1700000000))

	router := newTestRouter(db)
	req := httptest.NewRequest("GET", "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer usertoken")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("admin route status: got %d, want 403", rr.Code)
	}
	var out map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["error"] != "Admin access required" {
		t.Errorf("unexpected error: %v", out["error"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
