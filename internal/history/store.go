// Package history keeps a local log of the tracks the player has shown.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a play history backed by SQLite
type Store struct {
	db *sql.DB
}

// Play is one track that became the now playing item
type Play struct {
	ID        int64
	SessionID string
	TrackName string
	Artist    string
	Album     string
	Duration  time.Duration
	PlayedAt  time.Time
}

// Open opens (and creates if needed) the history database at dbPath.
// ":memory:" gives a throwaway store.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps in-memory databases consistent
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS plays (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			track_name TEXT NOT NULL,
			artist TEXT NOT NULL,
			album TEXT,
			duration INTEGER NOT NULL,
			played_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_played_at ON plays(played_at);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record adds a play and returns its id
func (s *Store) Record(ctx context.Context, p Play) (int64, error) {
	query := `
		INSERT INTO plays (session_id, track_name, artist, album, duration, played_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		p.SessionID,
		p.TrackName,
		p.Artist,
		p.Album,
		int64(p.Duration.Seconds()),
		p.PlayedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert play: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id: %w", err)
	}

	return id, nil
}

// Recent returns the latest plays, newest first. limit <= 0 returns all.
func (s *Store) Recent(ctx context.Context, limit int) ([]Play, error) {
	query := `
		SELECT id, session_id, track_name, artist, COALESCE(album, ''), duration, played_at
		FROM plays
		ORDER BY played_at DESC, id DESC
	`

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query plays: %w", err)
	}
	defer rows.Close()

	var plays []Play
	for rows.Next() {
		var p Play
		var durationSecs int64
		var playedAtUnix int64

		if err := rows.Scan(
			&p.ID,
			&p.SessionID,
			&p.TrackName,
			&p.Artist,
			&p.Album,
			&durationSecs,
			&playedAtUnix,
		); err != nil {
			return nil, fmt.Errorf("failed to scan play: %w", err)
		}

		p.Duration = time.Duration(durationSecs) * time.Second
		p.PlayedAt = time.Unix(playedAtUnix, 0)
		plays = append(plays, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plays: %w", err)
	}

	return plays, nil
}

// Count returns the number of recorded plays
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM plays").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count plays: %w", err)
	}
	return count, nil
}

// Cleanup removes plays older than maxAge
func (s *Store) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()

	result, err := s.db.ExecContext(ctx, "DELETE FROM plays WHERE played_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old plays: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
