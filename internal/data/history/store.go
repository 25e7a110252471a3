// Package history records compile runs in SQLite.
package history

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"umlc/internal/engine/ast"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
	// Fixed-width so ts_utc sorts lexically.
	timestampLayout = "2006-01-02T15:04:05.000000000Z"
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}
	if busyTimeout <= 0 {
		busyTimeout = 2 * time.Second
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// HashSource returns the hex sha256 of a source text.
func HashSource(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// SaveRun stores run and its diagnostics in one transaction. A missing ID is
// assigned; the stored run is returned.
func (s *Store) SaveRun(ctx context.Context, run Run) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}
	run.Source = strings.TrimSpace(run.Source)
	if run.Source == "" {
		return Run{}, fmt.Errorf("run source must not be empty")
	}

	err := s.withRetry("save run", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO runs (
  id, source, source_hash, ts_utc, duration_us, valid,
  entity_count, implicit_count, relationship_count, diagram_json
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.Source,
			run.SourceHash,
			run.Timestamp.UTC().Format(timestampLayout),
			run.Duration.Microseconds(),
			run.Valid,
			run.EntityCount,
			run.ImplicitCount,
			run.RelationshipCount,
			run.DiagramJSON,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
		for i, d := range run.Diagnostics {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO run_diagnostics (run_id, seq, line, col, message) VALUES (?, ?, ?, ?, ?)`,
				run.ID, i, d.Line, d.Column, d.Message,
			); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

const runColumns = `
  id, source, source_hash, ts_utc, duration_us, valid,
  entity_count, implicit_count, relationship_count, diagram_json`

// ListRuns returns runs newest first. An empty source lists every source;
// limit <= 0 means no limit. Diagnostics are loaded for each run.
func (s *Store) ListRuns(ctx context.Context, source string, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := "SELECT" + runColumns + " FROM runs"
	args := make([]any, 0, 2)
	if source = strings.TrimSpace(source); source != "" {
		query += " WHERE source = ?"
		args = append(args, source)
	}
	query += " ORDER BY ts_utc DESC, id ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var runs []Run
	err := s.withRetry("list runs", func() error {
		var qErr error
		runs, qErr = s.queryRuns(ctx, query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}

	for i := range runs {
		diags, err := s.diagnostics(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Diagnostics = diags
	}
	return runs, nil
}

// LatestRun returns the newest run for source, or ok=false when none exists.
func (s *Store) LatestRun(ctx context.Context, source string) (Run, bool, error) {
	runs, err := s.ListRuns(ctx, source, 1)
	if err != nil || len(runs) == 0 {
		return Run{}, false, err
	}
	return runs[0], true, nil
}

// Prune keeps the newest keep runs per source and deletes the rest.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	err := s.withRetry("prune runs", func() error {
		res, err := s.db.ExecContext(ctx, `
DELETE FROM runs WHERE id IN (
  SELECT id FROM (
    SELECT id, ROW_NUMBER() OVER (PARTITION BY source ORDER BY ts_utc DESC, id ASC) AS rn
    FROM runs
  ) WHERE rn > ?
)`, keep)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	return deleted, err
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			run        Run
			tsRaw      string
			durationUS int64
		)
		if err := rows.Scan(
			&run.ID,
			&run.Source,
			&run.SourceHash,
			&tsRaw,
			&durationUS,
			&run.Valid,
			&run.EntityCount,
			&run.ImplicitCount,
			&run.RelationshipCount,
			&run.DiagramJSON,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}

		ts, err := time.Parse(timestampLayout, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		run.Timestamp = ts.UTC()
		run.Duration = time.Duration(durationUS) * time.Microsecond
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

func (s *Store) diagnostics(ctx context.Context, runID string) ([]ast.Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT line, col, message FROM run_diagnostics WHERE run_id = ? ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("load diagnostics for %s: %w", runID, err)
	}
	defer rows.Close()

	out := make([]ast.Diagnostic, 0)
	for rows.Next() {
		var d ast.Diagnostic
		if err := rows.Scan(&d.Line, &d.Column, &d.Message); err != nil {
			return nil, fmt.Errorf("scan diagnostic row: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
