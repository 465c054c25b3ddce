// Package history persists agent execution records using SQLite.
//
// The store is append-and-trim only: records are never mutated, and once the
// configured cap is exceeded the oldest entries are evicted.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	// SQLite driver (required for database/sql registration).
	_ "github.com/mattn/go-sqlite3"

	"github.com/paralens-ai/paralens/internal/logging"
	"github.com/paralens-ai/paralens/pkg/protocol"
)

// Record is one task execution outcome.
type Record struct {
	ID         string                `json:"id"`
	Timestamp  int64                 `json:"timestamp"`
	TaskType   protocol.TaskType     `json:"taskType"`
	Context    protocol.AgentContext `json:"context"`
	Result     string                `json:"result"`
	AIConfigID string                `json:"aiConfigId"`
	DurationMs int64                 `json:"duration,omitempty"`
	Model      string                `json:"model,omitempty"`
}

// Store manages the execution history database.
type Store struct {
	db     *sql.DB
	cap    int
	logger logging.Logger
}

// Open opens the SQLite database at the given path, creating the schema if
// needed. cap bounds the number of retained records.
func Open(path string, cap int, logger logging.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		db.Close()
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS executions (
		id          TEXT PRIMARY KEY,
		timestamp   INTEGER NOT NULL,
		task_type   TEXT NOT NULL,
		context     TEXT NOT NULL,
		result      TEXT NOT NULL,
		ai_config_id TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		model       TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_executions_timestamp ON executions(timestamp DESC);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	if cap <= 0 {
		cap = 100
	}

	return &Store{
		db:     db,
		cap:    cap,
		logger: logging.OrNop(logger),
	}, nil
}

// Append stores a record and evicts the oldest entries past the cap.
// A zero ID or Timestamp is filled in.
func (s *Store) Append(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().UnixMilli()
	}

	ctxJSON, err := json.Marshal(rec.Context)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO executions (id, timestamp, task_type, context, result, ai_config_id, duration_ms, model)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Timestamp, string(rec.TaskType), string(ctxJSON), rec.Result, rec.AIConfigID, rec.DurationMs, rec.Model,
	)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		DELETE FROM executions WHERE id NOT IN (
			SELECT id FROM executions ORDER BY timestamp DESC, id DESC LIMIT ?
		)`, s.cap)
	return err
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > s.cap {
		limit = s.cap
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, task_type, context, result, ai_config_id, duration_ms, model
		FROM executions ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var taskType, ctxJSON string
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &taskType, &ctxJSON, &rec.Result, &rec.AIConfigID, &rec.DurationMs, &rec.Model); err != nil {
			return nil, err
		}
		rec.TaskType = protocol.TaskType(taskType)
		if err := json.Unmarshal([]byte(ctxJSON), &rec.Context); err != nil {
			s.logger.Warn("corrupt context for history record %s: %v", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the number of retained records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM executions`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
