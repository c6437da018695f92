package steward

import (
	"context"
	"log/slog"
)

// Interrupt is the payload of a suspension: what to show the human before
// the workflow can continue. It is consumed exactly once by the caller.
type Interrupt struct {
	Prompt  string `json:"prompt"`
	Preview string `json:"preview,omitempty"`
}

// NodeResult tells the engine what to do after a node completes. Exactly one
// of the three shapes is meaningful: a transition (Next, possibly empty to
// let the graph's edges route), a suspension (Interrupt), or a terminal
// marker (End).
type NodeResult struct {
	Next      string
	End       bool
	Interrupt *Interrupt
}

// Goto returns a result that transitions to a named node.
func Goto(next string) *NodeResult {
	return &NodeResult{Next: next}
}

// Route returns a result that lets the graph's edges pick the next node.
func Route() *NodeResult {
	return &NodeResult{}
}

// Suspend returns a result that pauses the workflow for human input.
func Suspend(prompt, preview string) *NodeResult {
	return &NodeResult{Interrupt: &Interrupt{Prompt: prompt, Preview: preview}}
}

// Terminate returns a result that ends the turn.
func Terminate() *NodeResult {
	return &NodeResult{End: true}
}

// NodeContext carries the mutable workflow state and per-entry inputs into a
// node's Run call.
type NodeContext struct {
	State *WorkflowState

	// Resume holds the human response when the node is re-entered after an
	// interrupt it raised; empty on a fresh entry.
	Resume string

	// Resuming is true on the first node executed by a resume call.
	Resuming bool

	Logger *slog.Logger
}

// Node is a single step in the workflow graph. A node receives the current
// state, mutates it, and returns a NodeResult. Nodes must absorb their own
// domain errors into state; a returned error aborts the turn.
type Node interface {

	// Name returns the node's unique name within the graph.
	Name() string

	// Run executes the node against the current state.
	Run(ctx context.Context, nc *NodeContext) (*NodeResult, error)
}

// NodeFunc adapts a function to the Node interface.
type NodeFunc struct {
	name string
	fn   func(ctx context.Context, nc *NodeContext) (*NodeResult, error)
}

// NewNodeFunc creates a Node from a function.
func NewNodeFunc(name string, fn func(ctx context.Context, nc *NodeContext) (*NodeResult, error)) *NodeFunc {
	return &NodeFunc{name: name, fn: fn}
}

func (n *NodeFunc) Name() string {
	return n.name
}

func (n *NodeFunc) Run(ctx context.Context, nc *NodeContext) (*NodeResult, error) {
	return n.fn(ctx, nc)
}
