package steward

import (
	"context"
	"io"
	"log/slog"
	"time"

	"go.jetify.com/typeid"
)

// NewThreadID returns a new identifier for a conversation thread.
func NewThreadID() string {
	id, err := typeid.WithPrefix("thread")
	if err != nil {
		panic(err)
	}
	return id.String()
}

// OutcomeStatus classifies how a turn ended from the caller's perspective.
type OutcomeStatus string

const (
	// OutcomeSuspended means the workflow paused for human input.
	OutcomeSuspended OutcomeStatus = "interrupt"

	// OutcomeCompleted means the turn ran to a terminal node.
	OutcomeCompleted OutcomeStatus = "completed"
)

// Outcome is the result of starting or resuming a turn.
type Outcome struct {
	Status   OutcomeStatus  `json:"status"`
	ThreadID string         `json:"thread_id"`
	Seq      int            `json:"seq"`
	Prompt   string         `json:"prompt,omitempty"`
	Preview  string         `json:"preview,omitempty"`
	Result   *ActionResult  `json:"result,omitempty"`
	State    *WorkflowState `json:"state,omitempty"`
}

// ThreadHistory is a read-only projection of a thread's latest checkpoint.
type ThreadHistory struct {
	ThreadID     string         `json:"thread_id"`
	Conversation []Message      `json:"conversation"`
	State        *WorkflowState `json:"state"`
}

// EngineOptions configures a workflow engine.
type EngineOptions struct {
	Graph  *Graph
	Store  CheckpointStore
	Logger *slog.Logger

	// MaxStepsPerTurn bounds the node transitions within one turn so a
	// routing bug cannot loop forever. Defaults to 50.
	MaxStepsPerTurn int
}

// Engine drives a workflow graph over durable per-thread state: it runs
// nodes until the graph suspends or terminates, checkpointing after every
// node transition. Engines hold no per-thread mutable state and may be
// shared across goroutines; the checkpoint store's conditional writes
// serialize turns racing on the same thread id.
type Engine struct {
	graph    *Graph
	store    CheckpointStore
	logger   *slog.Logger
	maxSteps int
}

// NewEngine creates a new Engine.
func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Graph == nil {
		return nil, NewValidationError("graph is required")
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.MaxStepsPerTurn <= 0 {
		opts.MaxStepsPerTurn = 50
	}
	return &Engine{
		graph:    opts.Graph,
		store:    opts.Store,
		logger:   opts.Logger,
		maxSteps: opts.MaxStepsPerTurn,
	}, nil
}

// StartTurn begins a new top-level turn for a thread. A prior conversation
// with the same thread id is continued from its latest checkpoint; an empty
// thread id starts a new thread with a generated identifier. Execution
// always enters the graph at its entry node.
func (e *Engine) StartTurn(ctx context.Context, threadID, requestText string) (*Outcome, error) {
	if requestText == "" {
		return nil, NewValidationError("request text must not be empty")
	}
	if threadID == "" {
		threadID = NewThreadID()
	}
	logger := e.logger.With("thread_id", threadID)

	var state *WorkflowState
	seq := 0
	latest, err := e.store.Load(ctx, threadID)
	switch {
	case err == nil:
		state = latest.State.Clone()
		seq = latest.Seq
	case IsNotFound(err):
		state = NewWorkflowState()
	default:
		return nil, WrapError(ErrorTypeStore, err)
	}

	state.BeginTurn(requestText)
	logger.Info("turn started", "request_chars", len(requestText), "seq", seq)

	return e.run(ctx, logger, threadID, state, e.graph.Entry(), seq, "")
}

// ResumeTurn feeds a human response into a suspended thread. The node that
// raised the interrupt is re-entered with the response as its only new
// input. Resuming a thread whose latest checkpoint is not suspended is a
// stale resume and is rejected without mutating state.
func (e *Engine) ResumeTurn(ctx context.Context, threadID, humanResponse string) (*Outcome, error) {
	if threadID == "" {
		return nil, NewValidationError("thread id must not be empty")
	}
	if humanResponse == "" {
		return nil, NewValidationError("human response must not be empty")
	}
	logger := e.logger.With("thread_id", threadID)

	latest, err := e.store.Load(ctx, threadID)
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, WrapError(ErrorTypeStore, err)
	}
	if !latest.Suspended() {
		return nil, NewStaleResumeError("thread %s has no pending interrupt at seq %d", threadID, latest.Seq)
	}

	state := latest.State.Clone()
	logger.Info("turn resumed", "pending_node", latest.PendingNode, "seq", latest.Seq)

	return e.run(ctx, logger, threadID, state, latest.PendingNode, latest.Seq, humanResponse)
}

// ThreadHistory returns a read-only projection of a thread's latest state.
func (e *Engine) ThreadHistory(ctx context.Context, threadID string) (*ThreadHistory, error) {
	if threadID == "" {
		return nil, NewValidationError("thread id must not be empty")
	}
	latest, err := e.store.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return &ThreadHistory{
		ThreadID:     threadID,
		Conversation: latest.State.Conversation,
		State:        latest.State,
	}, nil
}

// ListThreads enumerates all thread identifiers known to the store.
func (e *Engine) ListThreads(ctx context.Context) ([]string, error) {
	return e.store.ListThreads(ctx)
}

// run executes nodes starting at next until the graph suspends or reaches a
// terminal state, checkpointing after every node. The resume value is
// delivered to the first node only.
func (e *Engine) run(ctx context.Context, logger *slog.Logger, threadID string, state *WorkflowState, next string, seq int, resume string) (*Outcome, error) {
	resuming := resume != ""

	for steps := 0; ; steps++ {
		if steps >= e.maxSteps {
			state.Error = "turn aborted: node transition limit reached"
			state.Result = &ActionResult{Status: ResultStatusError, Message: state.Error}
			logger.Error("node transition limit reached", "node", next)
			return e.complete(ctx, logger, threadID, state, seq)
		}

		node, ok := e.graph.Node(next)
		if !ok {
			state.Error = "turn aborted: unknown node " + next
			state.Result = &ActionResult{Status: ResultStatusError, Message: state.Error}
			logger.Error("unknown node", "node", next)
			return e.complete(ctx, logger, threadID, state, seq)
		}

		nc := &NodeContext{
			State:    state,
			Resume:   resume,
			Resuming: resuming,
			Logger:   logger.With("node", node.Name()),
		}
		result, err := node.Run(ctx, nc)
		resume, resuming = "", false

		if err != nil {
			// Nodes absorb their own domain errors; anything that escapes
			// aborts the turn with the failure reported, never a stuck
			// thread.
			state.Error = err.Error()
			state.Result = &ActionResult{Status: ResultStatusError, Message: err.Error()}
			logger.Error("node failed", "node", node.Name(), "error", err)
			return e.complete(ctx, logger, threadID, state, seq)
		}

		if result.Interrupt != nil {
			seq++
			checkpoint := &Checkpoint{
				ThreadID:    threadID,
				Seq:         seq,
				Status:      TurnStatusSuspended,
				PendingNode: node.Name(),
				Prompt:      result.Interrupt.Prompt,
				Preview:     result.Interrupt.Preview,
				State:       state,
				CreatedAt:   time.Now(),
			}
			if err := e.save(ctx, checkpoint); err != nil {
				return nil, err
			}
			logger.Info("turn suspended", "node", node.Name(), "seq", seq)
			return &Outcome{
				Status:   OutcomeSuspended,
				ThreadID: threadID,
				Seq:      seq,
				Prompt:   result.Interrupt.Prompt,
				Preview:  result.Interrupt.Preview,
				State:    state,
			}, nil
		}

		if result.End {
			return e.complete(ctx, logger, threadID, state, seq)
		}

		nextNode := result.Next
		if nextNode == "" {
			routed, err := e.graph.Next(ctx, node.Name(), state.Snapshot())
			if err != nil {
				state.Error = err.Error()
				state.Result = &ActionResult{Status: ResultStatusError, Message: err.Error()}
				logger.Error("routing failed", "node", node.Name(), "error", err)
				return e.complete(ctx, logger, threadID, state, seq)
			}
			nextNode = routed
		}
		if nextNode == "" {
			return e.complete(ctx, logger, threadID, state, seq)
		}

		seq++
		checkpoint := &Checkpoint{
			ThreadID:  threadID,
			Seq:       seq,
			Status:    TurnStatusRunning,
			NextNode:  nextNode,
			State:     state,
			CreatedAt: time.Now(),
		}
		if err := e.save(ctx, checkpoint); err != nil {
			return nil, err
		}
		logger.Debug("node completed", "node", node.Name(), "next", nextNode, "seq", seq)
		next = nextNode
	}
}

// complete writes the terminal checkpoint for the turn and reports the
// completed outcome.
func (e *Engine) complete(ctx context.Context, logger *slog.Logger, threadID string, state *WorkflowState, seq int) (*Outcome, error) {
	seq++
	checkpoint := &Checkpoint{
		ThreadID:  threadID,
		Seq:       seq,
		Status:    TurnStatusCompleted,
		State:     state,
		CreatedAt: time.Now(),
	}
	if err := e.save(ctx, checkpoint); err != nil {
		return nil, err
	}
	logger.Info("turn completed", "seq", seq, "error", state.Error)
	return &Outcome{
		Status:   OutcomeCompleted,
		ThreadID: threadID,
		Seq:      seq,
		Result:   state.Result,
		State:    state,
	}, nil
}

// save persists a checkpoint. A sequence conflict means another call
// advanced this thread concurrently, which surfaces as a stale resume; any
// other store failure is fatal.
func (e *Engine) save(ctx context.Context, checkpoint *Checkpoint) error {
	err := e.store.Save(ctx, checkpoint)
	if err == nil {
		return nil
	}
	if IsConflict(err) {
		return NewStaleResumeError("thread %s advanced concurrently: %s", checkpoint.ThreadID, err.Error())
	}
	return WrapError(ErrorTypeStore, err)
}
