package repo

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestScrobbleRepo_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	album := "OK Computer"
	mock.ExpectQuery(`INSERT INTO scrobbles \(user_id, artist, track, album, duration, timestamp, created_at\)`).
		WithArgs(int64(1), "Radiohead", "Airbag", "OK Computer", nil, int64(1700000000), int64(1700000005)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "artist", "track", "album", "duration", "timestamp", "created_at"}).
			AddRow(1, 1, "Radiohead", "Airbag", "OK Computer", nil, 1700000000, 1700000005))

	repo := NewScrobbleRepo(db)
	s, err := repo.Insert(context.Background(), 1, "Radiohead", "Airbag", &album, nil, 1700000000, 1700000005)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if s.ID != 1 || s.Artist != "Radiohead" || s.Track != "Airbag" {
		t.Errorf("unexpected scrobble: %+v", s)
	}
	if s.Album == nil || *s.Album != "OK Computer" {
		t.Errorf("unexpected album: %+v", s.Album)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestScrobbleRepo_Recent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, user_id, artist, track, album, duration, timestamp, created_at\s+FROM scrobbles\s+WHERE user_id = \$1 AND timestamp < \$2`).
		WithArgs(int64(1), int64(1700001000), int64(20)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "artist", "track", "album", "duration", "timestamp", "created_at"}).
			AddRow(2, 1, "Radiohead", "Let Down", nil, nil, 1700000500, 1700000505).
			AddRow(1, 1, "Radiohead", "Airbag", nil, nil, 1700000000, 1700000005))

	repo := NewScrobbleRepo(db)
	scrobbles, err := repo.Recent(context.Background(), 1, 1700001000, 20)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(scrobbles) != 2 {
		t.Fatalf("expected 2 scrobbles, got %d", len(scrobbles))
	}
	if scrobbles[0].Track != "Let Down" {
		t.Errorf("expected newest first, got: %+v", scrobbles[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestScrobbleRepo_TopArtists(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT artist, COUNT\(\*\) AS count\s+FROM scrobbles`).
		WithArgs(int64(1), int64(0), int64(1700001000), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"artist", "count"}).
			AddRow("Radiohead", 42).
			AddRow("Portishead", 17))

	repo := NewScrobbleRepo(db)
	artists, err := repo.TopArtists(context.Background(), 1, 0, 1700001000, 10)
	if err != nil {
		t.Fatalf("TopArtists: %v", err)
	}
	if len(artists) != 2 || artists[0].Name != "Radiohead" || artists[0].Count != 42 {
		t.Errorf("unexpected artists: %+v", artists)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestScrobbleRepo_LastByUser_NoScrobbles(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT MAX\(timestamp\) FROM scrobbles WHERE user_id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	repo := NewScrobbleRepo(db)
	last, err := repo.LastByUser(context.Background(), 1)
	if err != nil {
		t.Fatalf("LastByUser: %v", err)
	}
	if last != nil {
		t.Errorf("expected nil for user with no scrobbles, got %v", *last)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestScrobbleRepo_Totals(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM scrobbles`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(100))
	mock.ExpectQuery(`SELECT COUNT\(DISTINCT artist\) FROM scrobbles`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`SELECT COUNT\(DISTINCT artist \|\| ' - ' \|\| track\) FROM scrobbles`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(57))

	repo := NewScrobbleRepo(db)
	scrobbles, artists, tracks, err := repo.Totals(context.Background())
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if scrobbles != 100 || artists != 12 || tracks != 57 {
		t.Errorf("unexpected totals: %d %d %d", scrobbles, artists, tracks)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestScrobbleRepo_TopUsers(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT u.username, COUNT\(s.id\) AS scrobble_count`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"username", "scrobble_count"}).
			AddRow("alice", 42).
			AddRow("bob", 7))

	repo := NewScrobbleRepo(db)
	users, err := repo.TopUsers(context.Background(), 10)
	if err != nil {
		t.Fatalf("TopUsers: %v", err)
	}
	if len(users) != 2 || users[0].Username != "alice" || users[0].ScrobbleCount != 42 {
		t.Errorf("unexpected users: %+v", users)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
