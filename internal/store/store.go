// Package store handles SQLite persistence of completed sessions.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/beeckusu/project-music-ear-training-sub002/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for session data. The engine itself never
// reads prior sessions except to hand them to end-of-session presentation.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			session_uuid TEXT NOT NULL,
			mode TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			completed INTEGER NOT NULL,
			accuracy REAL NOT NULL,
			correct INTEGER NOT NULL,
			total INTEGER NOT NULL,
			longest_streak INTEGER NOT NULL,
			settings TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_guesses (
			session_id INTEGER NOT NULL,
			guess_uuid TEXT NOT NULL,
			at TEXT NOT NULL,
			actual TEXT NOT NULL,
			guess TEXT NOT NULL,
			notes TEXT NOT NULL,
			correct INTEGER NOT NULL,
			enharmonic INTEGER NOT NULL,
			partial_pct REAL NOT NULL,
			latency_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_chord_stats (
			session_id INTEGER NOT NULL,
			chord TEXT NOT NULL,
			correct INTEGER NOT NULL,
			incorrect INTEGER NOT NULL,
			latency_sum_ms INTEGER NOT NULL,
			latency_count INTEGER NOT NULL,
			PRIMARY KEY (session_id, chord)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_mode ON sessions(mode);`,
		`CREATE INDEX IF NOT EXISTS idx_session_guesses_session ON session_guesses(session_id);`,
		`CREATE INDEX IF NOT EXISTS idx_session_chord_stats_chord ON session_chord_stats(chord);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a completed session, its guess history, and its
// per-chord stats in one transaction.
func (s *Store) InsertSession(ctx context.Context, session model.GameSession, chords []model.ChordStats) (int64, error) {
	settingsJSON, err := json.Marshal(session.Settings)
	if err != nil {
		return 0, fmt.Errorf("failed to encode settings: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (session_uuid, mode, started_at, ended_at, duration_ms, completed, accuracy, correct, total, longest_streak, settings)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.Mode,
		session.StartedAt.Format(time.RFC3339Nano),
		session.EndedAt.Format(time.RFC3339Nano),
		session.DurationMs,
		boolToInt(session.Completed),
		session.Accuracy,
		session.CorrectAttempts,
		session.TotalAttempts,
		session.LongestStreak,
		string(settingsJSON),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(session.Guesses) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO session_guesses (session_id, guess_uuid, at, actual, guess, notes, correct, enharmonic, partial_pct, latency_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, g := range session.Guesses {
			if _, err := stmt.ExecContext(ctx,
				id, g.ID, g.At.Format(time.RFC3339Nano), g.Actual, g.Guess,
				strings.Join(g.Notes, ","), boolToInt(g.Correct),
				boolToInt(g.Enharmonic), g.PartialPct, g.LatencyMs,
			); err != nil {
				return 0, err
			}
		}
	}

	if len(chords) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO session_chord_stats (session_id, chord, correct, incorrect, latency_sum_ms, latency_count)
			 VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, cs := range chords {
			if _, err := stmt.ExecContext(ctx, id, cs.Chord, cs.Correct, cs.Incorrect, cs.LatencySumMs, cs.LatencyCount); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListSessions returns session aggregates filtered by stats config,
// oldest first.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Mode != "" {
		clauses = append(clauses, "mode = ?")
		args = append(args, cfg.Mode)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, mode, ended_at, correct, total, longest_streak, duration_ms
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var endedAt string
		if err := rows.Scan(&agg.SessionID, &agg.Mode, &endedAt, &agg.Correct, &agg.Total, &agg.LongestStreak, &agg.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// RecentSessions returns the most recent sessions for a mode, newest
// first, for end-of-session history comparisons. An empty mode matches all.
func (s *Store) RecentSessions(ctx context.Context, mode string, limit int) ([]model.GameSession, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_uuid, mode, started_at, ended_at, duration_ms, completed, accuracy, correct, total, longest_streak
		 FROM sessions
		 WHERE (? = '' OR mode = ?)
		 ORDER BY ended_at DESC
		 LIMIT ?`, mode, mode, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.GameSession
	for rows.Next() {
		var gs model.GameSession
		var startedAt, endedAt string
		var completed int
		if err := rows.Scan(&gs.ID, &gs.Mode, &startedAt, &endedAt, &gs.DurationMs, &completed, &gs.Accuracy, &gs.CorrectAttempts, &gs.TotalAttempts, &gs.LongestStreak); err != nil {
			return nil, err
		}
		if gs.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if gs.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		gs.Completed = completed != 0
		sessions = append(sessions, gs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetWeakChords aggregates chord stats over the most recent sessions.
func (s *Store) GetWeakChords(ctx context.Context, window int, mode string) ([]model.ChordAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent_sessions AS (
		SELECT id FROM sessions
		WHERE (? = '' OR mode = ?)
		ORDER BY ended_at DESC
		LIMIT ?
	)
	SELECT cs.chord, SUM(cs.correct) AS correct, SUM(cs.incorrect) AS incorrect,
		SUM(cs.latency_sum_ms) AS latency_sum_ms, SUM(cs.latency_count) AS latency_count
	FROM session_chord_stats cs
	JOIN recent_sessions r ON r.id = cs.session_id
	GROUP BY cs.chord`

	rows, err := s.db.QueryContext(ctx, query, mode, mode, window)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.ChordAggregate
	for rows.Next() {
		var agg model.ChordAggregate
		if err := rows.Scan(&agg.Chord, &agg.Correct, &agg.Incorrect, &agg.LatencySumMs, &agg.LatencyCount); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListChordAggregatesForSessions aggregates per-chord stats across sessions.
func (s *Store) ListChordAggregatesForSessions(ctx context.Context, sessionIDs []int64) ([]model.ChordAggregate, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(sessionIDs))
	args := make([]any, len(sessionIDs))
	for i, id := range sessionIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT chord, SUM(correct) AS correct, SUM(incorrect) AS incorrect,
		SUM(latency_sum_ms) AS latency_sum_ms, SUM(latency_count) AS latency_count
		FROM session_chord_stats
		WHERE session_id IN (%s)
		GROUP BY chord`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.ChordAggregate
	for rows.Next() {
		var agg model.ChordAggregate
		if err := rows.Scan(&agg.Chord, &agg.Correct, &agg.Incorrect, &agg.LatencySumMs, &agg.LatencyCount); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
