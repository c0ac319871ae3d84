package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Run statuses recorded in the ledger.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one ledger entry.
type Run struct {
	ID            int64
	Source        string
	Target        string
	AudioCodes    []string
	SubtitleCodes []string
	Lines         int
	Status        string
	Error         string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Duration is the wall time the run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store manages run persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source TEXT NOT NULL,
    target TEXT NOT NULL,
    audio_codes_json TEXT NOT NULL DEFAULT '[]',
    subtitle_codes_json TEXT NOT NULL DEFAULT '[]',
    lines INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT '',
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Open initializes or connects to the ledger database at path, creating
// parent directories as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts one run and returns its assigned id.
func (s *Store) Record(ctx context.Context, run Run) (int64, error) {
	audio, err := json.Marshal(orEmpty(run.AudioCodes))
	if err != nil {
		return 0, fmt.Errorf("marshal audio codes: %w", err)
	}
	subtitles, err := json.Marshal(orEmpty(run.SubtitleCodes))
	if err != nil {
		return 0, fmt.Errorf("marshal subtitle codes: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO runs (source, target, audio_codes_json, subtitle_codes_json, lines, status, error, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Source, run.Target, string(audio), string(subtitles),
		run.Lines, run.Status, run.Error,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}
	return res.LastInsertId()
}

// List returns the most recent runs, newest first. A non-positive limit
// returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `
SELECT id, source, target, audio_codes_json, subtitle_codes_json, lines, status, error, started_at, finished_at
FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			audio     string
			subtitles string
			started   string
			finished  string
		)
		if err := rows.Scan(&run.ID, &run.Source, &run.Target, &audio, &subtitles,
			&run.Lines, &run.Status, &run.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(audio), &run.AudioCodes); err != nil {
			return nil, fmt.Errorf("decode audio codes: %w", err)
		}
		if err := json.Unmarshal([]byte(subtitles), &run.SubtitleCodes); err != nil {
			return nil, fmt.Errorf("decode subtitle codes: %w", err)
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func orEmpty(codes []string) []string {
	if codes == nil {
		return []string{}
	}
	return codes
}
