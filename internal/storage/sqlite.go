// Package storage keeps a history of finished loop runs in SQLite.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/arcadeloop/internal/config"
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// Run is one finished loop run.
type Run struct {
	ID         int64
	GameID     string
	Mode       string // "play", "serve" or "bench"
	UPS        int
	RefreshHz  float64
	RatioMode  string
	Duration   time.Duration
	Steps      uint64
	Frames     uint64
	Skipped    uint64
	Starved    uint64
	Dropped    uint64
	StepAvgMs  float64 // mean interval between steps
	FrameP95Ms float64
	Score      int
	Failure    string // empty when the loop stopped cleanly
	CreatedAt  time.Time
}

// GameStats aggregates the runs of one game.
type GameStats struct {
	GameID    string
	Runs      int
	Failures  int
	BestScore int
	AvgStepMs float64
	LastRun   time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("storage: empty database path")
	}
	dbPath = config.ExpandPath(dbPath)

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			ups INTEGER NOT NULL,
			refresh_hz REAL NOT NULL,
			ratio_mode TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			steps INTEGER NOT NULL DEFAULT 0,
			frames INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			starved INTEGER NOT NULL DEFAULT 0,
			dropped INTEGER NOT NULL DEFAULT 0,
			step_avg_ms REAL NOT NULL DEFAULT 0,
			frame_p95_ms REAL NOT NULL DEFAULT 0,
			score INTEGER NOT NULL DEFAULT 0,
			failure TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_game_id ON runs(game_id);
		CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun records a finished run and returns its ID.
func (s *Store) SaveRun(r Run) (int64, error) {
	var failure sql.NullString
	if r.Failure != "" {
		failure = sql.NullString{String: r.Failure, Valid: true}
	}

	res, err := s.db.Exec(
		`INSERT INTO runs
		 (game_id, mode, ups, refresh_hz, ratio_mode, duration_ms, steps, frames,
		  skipped, starved, dropped, step_avg_ms, frame_p95_ms, score, failure)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.GameID, r.Mode, r.UPS, r.RefreshHz, r.RatioMode, r.Duration.Milliseconds(),
		r.Steps, r.Frames, r.Skipped, r.Starved, r.Dropped,
		r.StepAvgMs, r.FrameP95Ms, r.Score, failure,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return id, nil
}

const runColumns = `id, game_id, mode, ups, refresh_hz, ratio_mode, duration_ms, steps, frames,
	skipped, starved, dropped, step_avg_ms, frame_p95_ms, score, failure, created_at`

// RecentRuns returns the latest runs across all games, newest first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryRuns(
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
}

// RunsForGame returns the latest runs of one game, newest first.
func (s *Store) RunsForGame(gameID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryRuns(
		`SELECT `+runColumns+` FROM runs WHERE game_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		gameID, limit,
	)
}

func (s *Store) queryRuns(query string, args ...any) ([]Run, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var durationMs int64
		var failure sql.NullString
		var createdAt any

		if err := rows.Scan(
			&r.ID, &r.GameID, &r.Mode, &r.UPS, &r.RefreshHz, &r.RatioMode, &durationMs,
			&r.Steps, &r.Frames, &r.Skipped, &r.Starved, &r.Dropped,
			&r.StepAvgMs, &r.FrameP95Ms, &r.Score, &failure, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}

		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.Failure = failure.String
		r.CreatedAt = parseTime(createdAt)
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return runs, nil
}

// Stats aggregates all runs of a game. A game without runs yields zero stats.
func (s *Store) Stats(gameID string) (*GameStats, error) {
	stats := &GameStats{GameID: gameID}

	var lastRun any
	err := s.db.QueryRow(
		`SELECT COUNT(*), COUNT(failure), COALESCE(MAX(score), 0), COALESCE(AVG(step_avg_ms), 0), MAX(created_at)
		 FROM runs WHERE game_id = ?`,
		gameID,
	).Scan(&stats.Runs, &stats.Failures, &stats.BestScore, &stats.AvgStepMs, &lastRun)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get game stats: %w", err)
	}
	stats.LastRun = parseTime(lastRun)

	return stats, nil
}

// parseTime handles both driver-decoded times and SQLite datetime strings.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
