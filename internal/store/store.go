// Package store provides SQLite persistence for the dashboard: the cached
// analyst API key and summaries of completed moderation runs.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// apiKeyName is the fixed key the analyst credential is stored under.
const apiKeyName = "analyst_api_key"

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// RunRecord is the stored summary of one completed moderation run.
type RunRecord struct {
	ID          string
	Subreddit   string
	Limit       int
	HumanReview bool
	Processed   int
	Approved    int
	Removed     int
	APICalls    int
	Started     time.Time
	Finished    time.Time
	Outcome     string // "complete", "error", "batch"
}

// Open creates a new Store at the given database path, creating tables if
// they don't exist. Uses WAL mode for file-based databases.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS credentials (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		subreddit TEXT NOT NULL,
		item_limit INTEGER NOT NULL,
		human_review INTEGER NOT NULL,
		processed INTEGER NOT NULL,
		approved INTEGER NOT NULL,
		removed INTEGER NOT NULL,
		api_calls INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		outcome TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_finished ON runs(finished_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveAPIKey stores the analyst API key. Written only on an explicit
// "remember" opt-in.
func (s *Store) SaveAPIKey(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO credentials (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, apiKeyName, key, time.Now())
	return err
}

// APIKey returns the cached analyst API key, or "" if none is stored.
func (s *Store) APIKey() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRow("SELECT value FROM credentials WHERE name = ?", apiKeyName).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// ClearAPIKey removes the cached credential. Called on logout.
func (s *Store) ClearAPIKey() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM credentials WHERE name = ?", apiKeyName)
	return err
}

// SaveRun stores a completed run summary.
func (s *Store) SaveRun(r RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO runs (
			id, subreddit, item_limit, human_review, processed, approved,
			removed, api_calls, started_at, finished_at, outcome
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, r.Subreddit, r.Limit, boolToInt(r.HumanReview), r.Processed,
		r.Approved, r.Removed, r.APICalls, r.Started, r.Finished, r.Outcome,
	)
	return err
}

// RecentRuns returns the most recently finished runs, newest first.
func (s *Store) RecentRuns(limit int) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, subreddit, item_limit, human_review, processed, approved,
			removed, api_calls, started_at, finished_at, outcome
		FROM runs
		ORDER BY finished_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var review int
		err := rows.Scan(
			&r.ID, &r.Subreddit, &r.Limit, &review, &r.Processed,
			&r.Approved, &r.Removed, &r.APICalls, &r.Started, &r.Finished,
			&r.Outcome,
		)
		if err != nil {
			return nil, err
		}
		r.HumanReview = review != 0
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
