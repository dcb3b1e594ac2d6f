// Package store keeps a SQLite log of triage decisions.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"

	"yashubustudio/issuelabeler/labeler"
)

const schema = `
CREATE TABLE IF NOT EXISTS triage_log (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id           TEXT    NOT NULL,
	issue_id         TEXT    NOT NULL,
	title            TEXT    NOT NULL,
	top_label        TEXT,
	top_score        REAL,
	predictions_json TEXT    NOT NULL,
	recommended      INTEGER NOT NULL,
	created_at       TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_triage_log_run ON triage_log (run_id);
`

// Entry is a persisted triage decision.
type Entry struct {
	ID          int64
	RunID       string
	IssueID     string
	Title       string
	Predictions []labeler.Prediction
	Recommended bool
	CreatedAt   time.Time
}

// Store is a labeler.Reporter backed by SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to the SQLite database at dsn, applies pragmas and creates
// the schema when missing.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// EnsureDir creates the parent directory of path.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Emit records entry. It implements labeler.Reporter.
func (s *Store) Emit(ctx context.Context, entry labeler.Triage) error {
	preds, err := json.Marshal(entry.Predictions)
	if err != nil {
		return fmt.Errorf("encode predictions: %w", err)
	}
	var topLabel, topScore any
	if top, ok := entry.Top(); ok {
		topLabel = top.Label
		topScore = float64(top.Score)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO triage_log (run_id, issue_id, title, top_label, top_score, predictions_json, recommended, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Issue.ID,
		entry.Issue.Title,
		topLabel,
		topScore,
		string(preds),
		boolToInt(entry.Recommended),
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert triage entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. A run ID narrows the
// result to a single run.
func (s *Store) Recent(ctx context.Context, runID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, run_id, issue_id, title, predictions_json, recommended, created_at FROM triage_log`
	args := []any{}
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query triage log: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e           Entry
			preds       string
			recommended int
			createdAt   string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.IssueID, &e.Title, &preds, &recommended, &createdAt); err != nil {
			return nil, fmt.Errorf("scan triage entry: %w", err)
		}
		if err := json.Unmarshal([]byte(preds), &e.Predictions); err != nil {
			return nil, fmt.Errorf("decode predictions for entry %d: %w", e.ID, err)
		}
		e.Recommended = recommended != 0
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse timestamp for entry %d: %w", e.ID, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate triage log: %w", err)
	}
	return out, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
