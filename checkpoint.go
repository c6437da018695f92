package steward

import "time"

// TurnStatus describes where a thread's latest turn stands.
type TurnStatus string

const (
	TurnStatusRunning   TurnStatus = "running"
	TurnStatusSuspended TurnStatus = "suspended"
	TurnStatusCompleted TurnStatus = "completed"
)

// Checkpoint is an immutable snapshot of a thread's workflow state plus the
// engine's execution position, written after every completed node. The
// sequence number increases by exactly one per checkpoint; the latest
// checkpoint for a thread is the resume point.
type Checkpoint struct {
	ThreadID string     `json:"thread_id"`
	Seq      int        `json:"seq"`
	Status   TurnStatus `json:"status"`

	// NextNode is the node the engine will run next while the turn is
	// still in flight. Empty once the turn has completed.
	NextNode string `json:"next_node,omitempty"`

	// PendingNode is set while suspended: the node that raised the
	// interrupt and will be re-entered on resume.
	PendingNode string `json:"pending_node,omitempty"`

	// Prompt and Preview echo the interrupt payload while suspended.
	Prompt  string `json:"prompt,omitempty"`
	Preview string `json:"preview,omitempty"`

	State *WorkflowState `json:"state"`

	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a deep copy so stores never hand out aliased state.
func (c *Checkpoint) Clone() *Checkpoint {
	dup := *c
	if c.State != nil {
		dup.State = c.State.Clone()
	}
	return &dup
}

// Suspended reports whether this checkpoint is awaiting human input.
func (c *Checkpoint) Suspended() bool {
	return c.Status == TurnStatusSuspended
}
