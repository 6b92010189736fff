// Package cache persists per-input build fingerprints and a log of build
// runs in SQLite.
package cache

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Entry is the fingerprint of one successful translation.
type Entry struct {
	Input       string
	SourceHash  string
	OptionsHash string
	DepsHash    string
	HeaderPath  string
	SourcePath  string
	UpdatedAt   time.Time
}

// Matches reports whether e was produced from the same inputs.
func (e Entry) Matches(sourceHash, optionsHash, depsHash string) bool {
	return e.SourceHash == sourceHash && e.OptionsHash == optionsHash && e.DepsHash == depsHash
}

// Run is one invocation of the builder over a set of inputs.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Files      int
	Cached     int
	Failed     int
	Duration   time.Duration
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("cache path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("cache path %q is a directory, expected file", cleanPath)
	}
	if dir := filepath.Dir(cleanPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite cache %q: %w", cleanPath, err)
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

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Lookup returns the entry recorded for input.
func (s *Store) Lookup(input string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		e       Entry
		updated string
	)
	err := s.db.QueryRow(`
SELECT input, source_hash, options_hash, deps_hash, header_path, source_path, updated_at_utc
FROM entries WHERE input = ?`, input).Scan(
		&e.Input, &e.SourceHash, &e.OptionsHash, &e.DepsHash, &e.HeaderPath, &e.SourcePath, &updated)
	if stderrors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("lookup %q: %w", input, err)
	}
	e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return e, true, nil
}

// Record stores e, replacing any earlier entry for the same input.
func (s *Store) Record(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now().UTC()
	}
	return s.withRetry("record entry", func() error {
		_, err := s.db.Exec(`
INSERT INTO entries (input, source_hash, options_hash, deps_hash, header_path, source_path, updated_at_utc)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(input) DO UPDATE SET
  source_hash=excluded.source_hash,
  options_hash=excluded.options_hash,
  deps_hash=excluded.deps_hash,
  header_path=excluded.header_path,
  source_path=excluded.source_path,
  updated_at_utc=excluded.updated_at_utc
`, e.Input, e.SourceHash, e.OptionsHash, e.DepsHash, e.HeaderPath, e.SourcePath, e.UpdatedAt.UTC().Format(time.RFC3339Nano))
		return err
	})
}

// Forget drops the entry for input, forcing the next build to translate it.
func (s *Store) Forget(input string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withRetry("forget entry", func() error {
		_, err := s.db.Exec(`DELETE FROM entries WHERE input = ?`, input)
		return err
	})
}

// BeginRun records the start of a build run and returns its ID.
func (s *Store) BeginRun(started time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	err := s.withRetry("begin run", func() error {
		_, err := s.db.Exec(`INSERT INTO runs (id, started_at_utc) VALUES (?, ?)`,
			id, started.UTC().Format(time.RFC3339Nano))
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// FinishRun stores the totals of run.
func (s *Store) FinishRun(run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := uuid.Parse(run.ID); err != nil {
		return fmt.Errorf("invalid run id %q: %w", run.ID, err)
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	return s.withRetry("finish run", func() error {
		res, err := s.db.Exec(`
UPDATE runs SET finished_at_utc = ?, files = ?, cached = ?, failed = ?, duration_ms = ?
WHERE id = ?`,
			run.FinishedAt.UTC().Format(time.RFC3339Nano), run.Files, run.Cached, run.Failed,
			run.Duration.Milliseconds(), run.ID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("run %s not found", run.ID)
		}
		return nil
	})
}

// Runs returns the latest runs, newest first.
func (s *Store) Runs(limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
SELECT id, started_at_utc, finished_at_utc, files, cached, failed, duration_ms
FROM runs ORDER BY started_at_utc DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
			ms                int64
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.Files, &r.Cached, &r.Failed, &ms); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		r.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, r)
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
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
