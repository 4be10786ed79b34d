package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/mkarpenko/songbrain/internal/core/domain"
)

func newSongRepoWithMock(t *testing.T) (*SongRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &SongRepository{db: db}, mock, func() { _ = db.Close() }
}

func songRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "artist", "difficulty", "genre", "decade", "mood", "key", "tempo_bpm", "lesson_path", "lesson_url",
	})
}

func TestQueryBuildsConjunctiveFilters(t *testing.T) {
	repo, mock, done := newSongRepoWithMock(t)
	defer done()

	mock.ExpectQuery(`SELECT id, title, artist, .+ FROM songs WHERE "artist"::text ILIKE .+ AND "difficulty"::text = .+ LIMIT`).
		WithArgs("Coldplay", "EASY", 20).
		WillReturnRows(songRows().AddRow("s1", "Clocks", "Coldplay", "EASY", "Rock", "2000s", "wistful", "Eb", 131, "/lessons/clocks", "https://example.com/clocks"))

	rows, err := repo.Query(context.Background(), domain.SongQuery{
		Filters: []domain.SongFilter{
			{Field: domain.FieldArtist, Match: domain.MatchContains, Value: "Coldplay"},
			{Field: domain.FieldDifficulty, Match: domain.MatchEquals, Value: "EASY"},
		},
		Limit: domain.DefaultSongLimit,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Title != "Clocks" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestQueryEmptyFiltersMatchesAll(t *testing.T) {
	repo, mock, done := newSongRepoWithMock(t)
	defer done()

	mock.ExpectQuery(`SELECT id, title, artist, .+ FROM songs LIMIT`).
		WithArgs(domain.MaxSongLimit).
		WillReturnRows(songRows().
			AddRow("s1", "Clocks", "Coldplay", "EASY", "Rock", "2000s", "wistful", "Eb", 131, "", "").
			AddRow("s2", "Let It Be", "The Beatles", "EASY", "Rock", "1970s", "hopeful", "C", 72, "", ""))

	rows, err := repo.Query(context.Background(), domain.SongQuery{Limit: 500})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestQueryCastsNumericColumnForContains(t *testing.T) {
	repo, mock, done := newSongRepoWithMock(t)
	defer done()

	mock.ExpectQuery(`SELECT id, title, artist, .+ FROM songs WHERE "tempo_bpm"::text ILIKE '%' \|\| \$1 \|\| '%' LIMIT`).
		WithArgs("13", 20).
		WillReturnRows(songRows().AddRow("s1", "Clocks", "Coldplay", "EASY", "Rock", "2000s", "wistful", "Eb", 131, "", ""))

	rows, err := repo.Query(context.Background(), domain.SongQuery{
		Filters: []domain.SongFilter{
			{Field: domain.FieldTempoBPM, Match: domain.MatchContains, Value: "13"},
		},
		Limit: domain.DefaultSongLimit,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].TempoBPM != 131 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestQueryAppliesSortDirection(t *testing.T) {
	repo, mock, done := newSongRepoWithMock(t)
	defer done()

	mock.ExpectQuery(`SELECT id, title, artist, .+ FROM songs ORDER BY "tempo_bpm" DESC LIMIT`).
		WithArgs(10).
		WillReturnRows(songRows())

	_, err := repo.Query(context.Background(), domain.SongQuery{
		SortBy:    domain.FieldTempoBPM,
		SortOrder: domain.SortDesc,
		Limit:     10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestQueryPropagatesDBError(t *testing.T) {
	repo, mock, done := newSongRepoWithMock(t)
	defer done()

	mock.ExpectQuery(`SELECT id, title, artist`).
		WillReturnError(errors.New("connection reset"))

	if _, err := repo.Query(context.Background(), domain.SongQuery{Limit: 5}); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestBulkUpsertNormalizesDifficulty(t *testing.T) {
	repo, mock, done := newSongRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO songs`)
	prep.ExpectExec().
		WithArgs("s1", "Clocks", "Coldplay", "MEDIUM", "Rock", "2000s", "wistful", "Eb", 131, "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("s2", "Let It Be", "The Beatles", "EASY", "Rock", "1970s", "hopeful", "C", 72, "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	count, err := repo.BulkUpsert(context.Background(), []domain.Song{
		{ID: "s1", Title: "Clocks", Artist: "Coldplay", Difficulty: "intermediate", Genre: "Rock", Decade: "2000s", Mood: "wistful", Key: "Eb", TempoBPM: 131},
		{ID: "s2", Title: "Let It Be", Artist: "The Beatles", Difficulty: "beginner", Genre: "Rock", Decade: "1970s", Mood: "hopeful", Key: "C", TempoBPM: 72},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 upserts, got %d", count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestBulkUpsertEmptyInputIsNoop(t *testing.T) {
	repo, mock, done := newSongRepoWithMock(t)
	defer done()

	count, err := repo.BulkUpsert(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 upserts, got %d", count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
