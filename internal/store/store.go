// Package store keeps a local sqlite history of scrub runs and per-post
// deletion outcomes, so every skip and failure stays auditable after the run.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Run is one invocation of the scrub pipeline.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool
	Platforms  []string
	Candidates int
	Deleted    int
	Skipped    int
	Failed     int
}

// Result is the recorded outcome for a single candidate post.
type Result struct {
	RunID       string
	Platform    string
	PostID      string
	Outcome     string // deleted | skipped-dry-run | failed
	Error       string
	Archived    bool
	ArchivePath string
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun persists a run and its per-post results in one transaction.
func (s *Store) SaveRun(ctx context.Context, run Run, results []Result) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is required")
	}
	if run.StartedAt.IsZero() {
		return errors.New("started_at is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, dry_run, platforms, candidates, deleted, skipped, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		boolToInt(run.DryRun),
		strings.Join(run.Platforms, ","),
		run.Candidates,
		run.Deleted,
		run.Skipped,
		run.Failed,
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert run: %w", err)
	}

	for _, r := range results {
		var errVal, pathVal sql.NullString
		if r.Error != "" {
			errVal = sql.NullString{String: r.Error, Valid: true}
		}
		if r.ArchivePath != "" {
			pathVal = sql.NullString{String: r.ArchivePath, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO results (run_id, platform, post_id, outcome, error, archived, archive_path)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, run.ID, r.Platform, r.PostID, r.Outcome, errVal, boolToInt(r.Archived), pathVal)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert result: %w", err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, dry_run, platforms, candidates, deleted, skipped, failed
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			run               Run
			started, finished string
			dryRun            int
			platforms         string
		)
		if err := rows.Scan(&run.ID, &started, &finished, &dryRun, &platforms,
			&run.Candidates, &run.Deleted, &run.Skipped, &run.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if run.FinishedAt, err = parseTime(finished); err != nil {
			return nil, err
		}
		run.DryRun = dryRun != 0
		if platforms != "" {
			run.Platforms = strings.Split(platforms, ",")
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunResults returns the per-post outcomes recorded for a run.
func (s *Store) RunResults(ctx context.Context, runID string) ([]Result, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, platform, post_id, outcome, error, archived, archive_path
		FROM results
		WHERE run_id = ?
		ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("run results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Result
	for rows.Next() {
		var (
			r               Result
			errVal, pathVal sql.NullString
			archived        int
		)
		if err := rows.Scan(&r.RunID, &r.Platform, &r.PostID, &r.Outcome, &errVal, &archived, &pathVal); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Error = errVal.String
		r.ArchivePath = pathVal.String
		r.Archived = archived != 0
		results = append(results, r)
	}
	return results, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
