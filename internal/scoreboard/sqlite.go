// internal/scoreboard/sqlite.go
//
// SQLite-backed scoreboard store, selectable via SCOREBOARD_BACKEND=sqlite.
// Responsibilities:
//   - Opening the database with safe defaults (WAL, busy timeout).
//   - Bootstrapping the scores table on first open.
//   - Append/load with insertion order preserved via rowid.
//
// Appends are single INSERTs, so unlike the file store no extra
// serialization is needed here.

package scoreboard

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists entries in a scores table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if missing) the database at dsn and ensures the
// schema exists.
func OpenSQLite(dsn string) (*SQLiteStore, error) {
	// Ensure directory exists for ./data/scores.db, etc.
	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: mkdir %s: %v", ErrStorage, dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorage, dsn, err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS scores (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			puzzle_size INTEGER NOT NULL,
			name        TEXT    NOT NULL,
			turns       INTEGER NOT NULL,
			created_at  TEXT    NOT NULL DEFAULT (datetime('now'))
		);
		CREATE INDEX IF NOT EXISTS idx_scores_size ON scores(puzzle_size);
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: bootstrap schema: %v", ErrStorage, err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Load(ctx context.Context) (Board, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT puzzle_size, name, turns FROM scores ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: query scores: %v", ErrStorage, err)
	}
	defer rows.Close()

	board := Board{}
	for rows.Next() {
		var size int
		var e Entry
		if err := rows.Scan(&size, &e.Name, &e.Turns); err != nil {
			return nil, fmt.Errorf("%w: scan score row: %v", ErrStorage, err)
		}
		key := Key(size)
		board[key] = append(board[key], e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate scores: %v", ErrStorage, err)
	}
	return board, nil
}

func (s *SQLiteStore) All(ctx context.Context) (Board, error) {
	return s.Load(ctx)
}

func (s *SQLiteStore) Append(ctx context.Context, size int, e Entry) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO scores (puzzle_size, name, turns) VALUES (?, ?, ?)`,
		size, e.Name, e.Turns,
	); err != nil {
		return fmt.Errorf("%w: insert score: %v", ErrStorage, err)
	}
	return nil
}
