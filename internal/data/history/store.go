package history

import (
	"database/sql"
	"errors"
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
	driverName         = "sqlite"
	maxAttempts        = 5
	defaultBusyTimeout = 2 * time.Second
)

// Outcomes of a recorded run. A rejected document converted but was
// refused by the fail-on-issues policy.
const (
	OutcomeOK       = "ok"
	OutcomeIssues   = "issues"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Run is one conversion of one test document.
type Run struct {
	ID               string
	Path             string
	Outcome          string
	Error            string
	ScenarioCount    int
	DeclarationCount int
	IssueCount       int
	RewriteCount     int
	Duration         time.Duration
	Timestamp        time.Time
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// uriPathEscaper keeps a file name from being read as URI query or fragment.
// SQLite decodes the escapes before opening the file.
var uriPathEscaper = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

// Open creates or migrates the history database at path. A non-positive
// busyTimeout falls back to two seconds.
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
		busyTimeout = defaultBusyTimeout
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		uriPathEscaper.Replace(cleanPath), busyTimeout.Milliseconds())
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

// Record stores run, filling in a fresh id, the outcome and the timestamp
// when they are unset. It returns the stored run.
func (s *Store) Record(run Run) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(run.Path) == "" {
		return run, fmt.Errorf("run path must not be empty")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Outcome == "" {
		run.Outcome = OutcomeOK
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}
	run.Timestamp = run.Timestamp.UTC()

	query := `
INSERT INTO runs (
  run_id, path, outcome, error, scenario_count, declaration_count, issue_count,
  rewrite_count, duration_ms, ts_utc
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`
	err := s.withRetry("record run", func() error {
		_, err := s.db.Exec(
			query,
			run.ID,
			run.Path,
			run.Outcome,
			run.Error,
			run.ScenarioCount,
			run.DeclarationCount,
			run.IssueCount,
			run.RewriteCount,
			run.Duration.Milliseconds(),
			run.Timestamp.Format(time.RFC3339Nano),
		)
		return err
	})
	return run, err
}

// Recent returns at most limit runs, newest first. A non-positive limit
// returns every run.
func (s *Store) Recent(limit int) ([]Run, error) {
	return s.query("load recent runs", "", limit)
}

// ForPath returns the runs recorded for one document, newest first.
func (s *Store) ForPath(path string, limit int) ([]Run, error) {
	return s.query("load runs for path", path, limit)
}

func (s *Store) query(op, path string, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := `
SELECT
  run_id, path, outcome, error, scenario_count, declaration_count, issue_count,
  rewrite_count, duration_ms, ts_utc
FROM runs
`
	args := make([]any, 0, 2)
	if path != "" {
		base += " WHERE path = ?"
		args = append(args, path)
	}
	base += " ORDER BY ts_utc DESC, rowid DESC"
	if limit > 0 {
		base += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry(op, func() error {
		var qErr error
		rows, qErr = s.db.Query(base, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			tsRaw      string
			durationMS int64
			run        Run
		)
		if err := rows.Scan(
			&run.ID,
			&run.Path,
			&run.Outcome,
			&run.Error,
			&run.ScenarioCount,
			&run.DeclarationCount,
			&run.IssueCount,
			&run.RewriteCount,
			&durationMS,
			&tsRaw,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		run.Timestamp = ts.UTC()
		run.Duration = time.Duration(durationMS) * time.Millisecond

		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping() error {
	if s == nil || s.db == nil {
		return fmt.Errorf("history store is closed")
	}
	return s.db.Ping()
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
