// Package postgres provides a CheckpointStore backed by PostgreSQL. Each
// checkpoint is one row; a unique (thread_id, seq) index makes the append
// conditional so concurrent writers on the same thread cannot interleave.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/stewardhq/steward"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS checkpoints (
	thread_id    TEXT        NOT NULL,
	seq          INTEGER     NOT NULL,
	status       TEXT        NOT NULL,
	next_node    TEXT        NOT NULL DEFAULT '',
	pending_node TEXT        NOT NULL DEFAULT '',
	prompt       TEXT        NOT NULL DEFAULT '',
	preview      TEXT        NOT NULL DEFAULT '',
	state        JSONB       NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (thread_id, seq)
)`

// Store persists checkpoints in PostgreSQL.
type Store struct {
	db *sql.DB
}

// Options configure the Postgres store.
type Options struct {
	DSN string
	DB  *sql.DB
}

// New opens a connection (or adopts the provided one) and ensures the
// checkpoint table exists.
func New(ctx context.Context, opts Options) (*Store, error) {
	db := opts.DB
	if db == nil {
		if opts.DSN == "" {
			return nil, steward.NewValidationError("postgres store requires a dsn or an open db")
		}
		var err error
		db, err = sql.Open("postgres", opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres connection: %w", err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save appends the checkpoint if it extends the thread's history by exactly
// one sequence number. A duplicate or out-of-order sequence is a conflict.
func (s *Store) Save(ctx context.Context, checkpoint *steward.Checkpoint) error {
	if err := steward.ValidateCheckpoint(checkpoint); err != nil {
		return err
	}

	stateJSON, err := json.Marshal(checkpoint.State)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint state: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var latest int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM checkpoints WHERE thread_id = $1`,
		checkpoint.ThreadID).Scan(&latest)
	if err != nil {
		return fmt.Errorf("failed to query latest sequence: %w", err)
	}
	if checkpoint.Seq != latest+1 {
		return steward.NewConflictError("checkpoint seq %d does not extend thread %q (latest %d)",
			checkpoint.Seq, checkpoint.ThreadID, latest)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO checkpoints
			(thread_id, seq, status, next_node, pending_node, prompt, preview, state, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		checkpoint.ThreadID, checkpoint.Seq, string(checkpoint.Status),
		checkpoint.NextNode, checkpoint.PendingNode, checkpoint.Prompt,
		checkpoint.Preview, stateJSON, checkpoint.CreatedAt)
	if err != nil {
		// Concurrent appends race past the MAX check and land on the
		// primary key instead.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return steward.NewConflictError("checkpoint seq %d already exists for thread %q",
				checkpoint.Seq, checkpoint.ThreadID)
		}
		return fmt.Errorf("failed to insert checkpoint: %w", err)
	}
	return tx.Commit()
}

func (s *Store) Load(ctx context.Context, threadID string) (*steward.Checkpoint, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT thread_id, seq, status, next_node, pending_node, prompt, preview, state, created_at
		 FROM checkpoints WHERE thread_id = $1 ORDER BY seq DESC LIMIT 1`, threadID)
	checkpoint, err := scanCheckpoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, steward.NewNotFoundError("no checkpoints found for thread %q", threadID)
	}
	return checkpoint, err
}

func (s *Store) History(ctx context.Context, threadID string) ([]*steward.Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT thread_id, seq, status, next_node, pending_node, prompt, preview, state, created_at
		 FROM checkpoints WHERE thread_id = $1 ORDER BY seq ASC`, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query checkpoint history: %w", err)
	}
	defer rows.Close()

	var history []*steward.Checkpoint
	for rows.Next() {
		checkpoint, err := scanCheckpoint(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, checkpoint)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, steward.NewNotFoundError("no checkpoints found for thread %q", threadID)
	}
	return history, nil
}

func (s *Store) ListThreads(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT thread_id FROM checkpoints ORDER BY thread_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	var threads []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		threads = append(threads, id)
	}
	return threads, rows.Err()
}

func (s *Store) Delete(ctx context.Context, threadID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM checkpoints WHERE thread_id = $1`, threadID)
	if err != nil {
		return fmt.Errorf("failed to delete thread %q: %w", threadID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheckpoint(row rowScanner) (*steward.Checkpoint, error) {
	var checkpoint steward.Checkpoint
	var status string
	var stateJSON []byte
	err := row.Scan(&checkpoint.ThreadID, &checkpoint.Seq, &status,
		&checkpoint.NextNode, &checkpoint.PendingNode, &checkpoint.Prompt,
		&checkpoint.Preview, &stateJSON, &checkpoint.CreatedAt)
	if err != nil {
		return nil, err
	}
	checkpoint.Status = steward.TurnStatus(status)
	checkpoint.State = &steward.WorkflowState{}
	if err := json.Unmarshal(stateJSON, checkpoint.State); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint state: %w", err)
	}
	return &checkpoint, nil
}
