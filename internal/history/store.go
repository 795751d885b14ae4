// Package history keeps a local log of finished calls in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("history: store closed")

// DefaultLimit is the number of calls Recent returns when limit <= 0.
const DefaultLimit = 20

// Call is one finished call
type Call struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
	Direction    string    `json:"direction,omitempty"`
	CallerID     string    `json:"caller_id,omitempty"`
	FinalState   string    `json:"final_state"`
	Answered     bool      `json:"answered"`
	DurationSecs float64   `json:"duration_secs"`
}

// Store persists calls in a SQLite database
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	path   string
	closed bool
}

// DefaultPath returns the database location under the XDG data directory
func DefaultPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "calls.db"
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "telwatch", "calls.db")
}

// Open opens (creating if needed) the database at path. ":memory:" keeps
// the log in memory for the life of the Store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	// one connection: an in-memory database is private to its connection
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS calls (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		ended_at TEXT NOT NULL,
		direction TEXT NOT NULL DEFAULT '',
		caller_id TEXT NOT NULL DEFAULT '',
		final_state TEXT NOT NULL,
		answered INTEGER NOT NULL DEFAULT 0,
		duration_secs REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_calls_started ON calls(started_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("creating calls table: %w", err)
	}
	return nil
}

// Path returns the database path
func (s *Store) Path() string { return s.path }

// Insert stores a finished call.
func (s *Store) Insert(ctx context.Context, c Call) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	answered := 0
	if c.Answered {
		answered = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO calls (id, started_at, ended_at, direction, caller_id, final_state, answered, duration_secs)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, formatTime(c.StartedAt), formatTime(c.EndedAt),
		c.Direction, c.CallerID, c.FinalState, answered, c.DurationSecs,
	)
	if err != nil {
		return fmt.Errorf("inserting call %s: %w", c.ID, err)
	}
	return nil
}

// Recent returns the latest calls, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, ended_at, direction, caller_id, final_state, answered, duration_secs
		 FROM calls ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying calls: %w", err)
	}
	defer rows.Close()

	calls := []Call{}
	for rows.Next() {
		var (
			c              Call
			started, ended string
			answered       int
		)
		if err := rows.Scan(&c.ID, &started, &ended, &c.Direction, &c.CallerID, &c.FinalState, &answered, &c.DurationSecs); err != nil {
			return nil, fmt.Errorf("scanning call: %w", err)
		}
		c.StartedAt = parseTime(started)
		c.EndedAt = parseTime(ended)
		c.Answered = answered != 0
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading calls: %w", err)
	}
	return calls, nil
}

// Close closes the database. Further calls return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// timeLayout is fixed width so started_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
