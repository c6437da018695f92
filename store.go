package steward

import "context"

// CheckpointStore is a durable keyed store mapping thread id to checkpoint
// history. Implementations must make Save a per-key atomic conditional
// append: a checkpoint whose sequence number is not exactly one past the
// latest stored sequence for that thread is rejected with a conflict error.
// Access to different thread ids must not serialize against each other.
type CheckpointStore interface {
	// Save appends a checkpoint for its thread. Returns a conflict error
	// when the sequence number is out of order.
	Save(ctx context.Context, checkpoint *Checkpoint) error

	// Load returns the latest checkpoint for a thread, or a not-found
	// error if the thread is unknown.
	Load(ctx context.Context, threadID string) (*Checkpoint, error)

	// History returns all checkpoints for a thread in sequence order.
	History(ctx context.Context, threadID string) ([]*Checkpoint, error)

	// ListThreads enumerates all known thread identifiers.
	ListThreads(ctx context.Context) ([]string, error)

	// Delete removes all checkpoint data for a thread.
	Delete(ctx context.Context, threadID string) error
}

// ValidateCheckpoint rejects checkpoints a store must never accept.
// Store implementations call it at the top of Save.
func ValidateCheckpoint(checkpoint *Checkpoint) error {
	if checkpoint == nil {
		return NewValidationError("checkpoint is required")
	}
	if checkpoint.ThreadID == "" {
		return NewValidationError("checkpoint thread id is required")
	}
	if checkpoint.Seq < 1 {
		return NewValidationError("checkpoint sequence must be positive")
	}
	if checkpoint.State == nil {
		return NewValidationError("checkpoint state is required")
	}
	return nil
}
