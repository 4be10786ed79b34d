package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mkarpenko/songbrain/internal/core/domain"
)

// SongRepository executes validated catalog queries against the songs table.
// It builds conjunctive parameterized SQL only from the whitelisted field
// set; filter values never reach the statement text.
type SongRepository struct {
	db *sql.DB
}

func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *SongRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026053001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS songs (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	artist TEXT NOT NULL,
	difficulty TEXT NOT NULL,
	genre TEXT NOT NULL DEFAULT '',
	decade TEXT NOT NULL DEFAULT '',
	mood TEXT NOT NULL DEFAULT '',
	key TEXT NOT NULL DEFAULT '',
	tempo_bpm INTEGER NOT NULL DEFAULT 0,
	lesson_path TEXT NOT NULL DEFAULT '',
	lesson_url TEXT NOT NULL DEFAULT '',
	UNIQUE (title, artist)
);

CREATE INDEX IF NOT EXISTS idx_songs_difficulty ON songs(difficulty);
CREATE INDEX IF NOT EXISTS idx_songs_genre ON songs(genre);
CREATE INDEX IF NOT EXISTS idx_songs_decade ON songs(decade);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const songColumns = `id, title, artist, difficulty, genre, decade, mood, key, tempo_bpm, lesson_path, lesson_url`

func (r *SongRepository) Query(ctx context.Context, query domain.SongQuery) ([]domain.Song, error) {
	query = query.Normalize()

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(songColumns)
	sb.WriteString(" FROM songs")

	args := make([]any, 0, len(query.Filters))
	if len(query.Filters) > 0 {
		sb.WriteString(" WHERE ")
		for i, filter := range query.Filters {
			if i > 0 {
				sb.WriteString(" AND ")
			}
			args = append(args, filter.Value)
			if filter.Match == domain.MatchContains {
				fmt.Fprintf(&sb, "%s::text ILIKE '%%' || $%d || '%%'", quoteColumn(filter.Field), len(args))
			} else {
				fmt.Fprintf(&sb, "%s::text = $%d", quoteColumn(filter.Field), len(args))
			}
		}
	}

	if query.SortBy != "" {
		direction := "ASC"
		if query.SortOrder == domain.SortDesc {
			direction = "DESC"
		}
		fmt.Fprintf(&sb, " ORDER BY %s %s", quoteColumn(query.SortBy), direction)
	}

	args = append(args, query.Limit)
	fmt.Fprintf(&sb, " LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query songs: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Song, 0, query.Limit)
	for rows.Next() {
		var song domain.Song
		if err := rows.Scan(
			&song.ID, &song.Title, &song.Artist, &song.Difficulty, &song.Genre,
			&song.Decade, &song.Mood, &song.Key, &song.TempoBPM, &song.LessonPath, &song.LessonURL,
		); err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		out = append(out, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}
	return out, nil
}

func (r *SongRepository) BulkUpsert(ctx context.Context, songs []domain.Song) (int, error) {
	if len(songs) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO songs (`+songColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (title, artist) DO UPDATE SET
	difficulty = EXCLUDED.difficulty,
	genre = EXCLUDED.genre,
	decade = EXCLUDED.decade,
	mood = EXCLUDED.mood,
	key = EXCLUDED.key,
	tempo_bpm = EXCLUDED.tempo_bpm,
	lesson_path = EXCLUDED.lesson_path,
	lesson_url = EXCLUDED.lesson_url
`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, song := range songs {
		if _, err := stmt.ExecContext(ctx,
			song.ID, song.Title, song.Artist, domain.NormalizeDifficulty(song.Difficulty), song.Genre,
			song.Decade, song.Mood, song.Key, song.TempoBPM, song.LessonPath, song.LessonURL,
		); err != nil {
			return 0, fmt.Errorf("upsert song %q: %w", song.Title, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert tx: %w", err)
	}
	return count, nil
}

// quoteColumn protects reserved words like key. Callers only pass fields the
// query normalizer already whitelisted.
func quoteColumn(field string) string {
	return `"` + field + `"`
}
