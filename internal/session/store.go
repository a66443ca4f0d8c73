// Package session persists completed interaction cycles to SQLite and
// exports them as JSON conversation archives. One row per answered query;
// the store is append-only from the loop's point of view.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"taskseek/internal/logging"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Record is one persisted interaction cycle.
type Record struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	AgentName string    `json:"agent_name"`
	AgentRole string    `json:"agent_role"`
	Answer    string    `json:"answer"`
	Reasoning string    `json:"reasoning,omitempty"`
	Success   bool      `json:"success"`
	CreatedAt time.Time `json:"created_at"`
}

// Store wraps the SQLite session database.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the session database at path. Parent directories are
// created as needed. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	// SQLite handles one writer; a single connection avoids lock contention.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping session database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Session("Session store ready at %s", path)
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS interactions (
		id         TEXT PRIMARY KEY,
		query      TEXT NOT NULL,
		agent_name TEXT NOT NULL,
		agent_role TEXT NOT NULL,
		answer     TEXT NOT NULL,
		reasoning  TEXT NOT NULL DEFAULT '',
		success    INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_interactions_agent ON interactions(agent_name);
	CREATE INDEX IF NOT EXISTS idx_interactions_created ON interactions(created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create session schema: %w", err)
	}
	return nil
}

// Append stores one record, assigning an ID and timestamp if unset.
func (s *Store) Append(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interactions (id, query, agent_name, agent_role, answer, reasoning, success, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Query, rec.AgentName, rec.AgentRole, rec.Answer, rec.Reasoning, rec.Success, rec.CreatedAt)
	if err != nil {
		return rec, fmt.Errorf("failed to append interaction: %w", err)
	}

	logging.SessionDebug("Appended interaction %s (agent=%s, success=%v)", rec.ID, rec.AgentName, rec.Success)
	return rec, nil
}

// History returns the most recent records, newest first, up to limit.
// A limit of zero or less means all records.
func (s *Store) History(ctx context.Context, limit int) ([]Record, error) {
	query := `
		SELECT id, query, agent_name, agent_role, answer, reasoning, success, created_at
		FROM interactions ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Query, &rec.AgentName, &rec.AgentRole,
			&rec.Answer, &rec.Reasoning, &rec.Success, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ByAgent returns all records for a given agent name, oldest first.
func (s *Store) ByAgent(ctx context.Context, agentName string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query, agent_name, agent_role, answer, reasoning, success, created_at
		FROM interactions WHERE agent_name = ? ORDER BY created_at ASC`, agentName)
	if err != nil {
		return nil, fmt.Errorf("failed to query agent history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Query, &rec.AgentName, &rec.AgentRole,
			&rec.Answer, &rec.Reasoning, &rec.Success, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the number of stored interactions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM interactions").Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	logging.Session("Closing session store")
	return s.db.Close()
}
