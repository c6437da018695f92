package steward

import (
	"context"
	"fmt"

	"github.com/stewardhq/steward/script"
)

// Edge is a directed transition between two nodes. An empty Condition always
// matches; otherwise the condition is a script expression evaluated against
// a snapshot of the workflow state, exposed as the "state" map.
type Edge struct {
	From      string
	To        string
	Condition string
}

// GraphOptions are used to configure a workflow graph.
type GraphOptions struct {
	Name     string
	Entry    string
	Nodes    []Node
	Edges    []*Edge
	Compiler script.Compiler
}

// Graph is a validated, immutable workflow graph: named nodes plus directed
// edges with optional routing conditions.
type Graph struct {
	name        string
	entry       string
	nodesByName map[string]Node
	edges       map[string][]*compiledEdge
}

type compiledEdge struct {
	to        string
	condition script.Script
}

// NewGraph returns a new Graph configured with the given options. Every edge
// endpoint must reference a declared node and all conditions must compile.
func NewGraph(opts GraphOptions) (*Graph, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("graph name required")
	}
	if len(opts.Nodes) == 0 {
		return nil, fmt.Errorf("nodes required")
	}
	if opts.Compiler == nil {
		opts.Compiler = script.NewRisorEngine(script.DefaultGlobals())
	}

	nodesByName := make(map[string]Node, len(opts.Nodes))
	for _, node := range opts.Nodes {
		if node.Name() == "" {
			return nil, fmt.Errorf("node name required")
		}
		if _, exists := nodesByName[node.Name()]; exists {
			return nil, fmt.Errorf("duplicate node name %q", node.Name())
		}
		nodesByName[node.Name()] = node
	}

	entry := opts.Entry
	if entry == "" {
		entry = opts.Nodes[0].Name()
	}
	if _, ok := nodesByName[entry]; !ok {
		return nil, fmt.Errorf("entry node %q not found", entry)
	}

	edges := map[string][]*compiledEdge{}
	for _, edge := range opts.Edges {
		if _, ok := nodesByName[edge.From]; !ok {
			return nil, fmt.Errorf("edge from unknown node %q", edge.From)
		}
		if _, ok := nodesByName[edge.To]; !ok {
			return nil, fmt.Errorf("edge to unknown node %q", edge.To)
		}
		compiled := &compiledEdge{to: edge.To}
		if edge.Condition != "" {
			condition, err := opts.Compiler.Compile(context.Background(), edge.Condition)
			if err != nil {
				return nil, fmt.Errorf("failed to compile edge condition %q: %w", edge.Condition, err)
			}
			compiled.condition = condition
		}
		edges[edge.From] = append(edges[edge.From], compiled)
	}

	return &Graph{
		name:        opts.Name,
		entry:       entry,
		nodesByName: nodesByName,
		edges:       edges,
	}, nil
}

// Name returns the graph name.
func (g *Graph) Name() string {
	return g.name
}

// Entry returns the name of the graph's entry node.
func (g *Graph) Entry() string {
	return g.entry
}

// Node returns a node by name.
func (g *Graph) Node(name string) (Node, bool) {
	node, ok := g.nodesByName[name]
	return node, ok
}

// Next picks the first outgoing edge of a node whose condition is truthy
// against the state snapshot, in declaration order. An empty result means
// the graph has no onward transition and the turn ends.
func (g *Graph) Next(ctx context.Context, from string, snapshot map[string]any) (string, error) {
	for _, edge := range g.edges[from] {
		if edge.condition == nil {
			return edge.to, nil
		}
		value, err := edge.condition.Evaluate(ctx, map[string]any{"state": snapshot})
		if err != nil {
			return "", fmt.Errorf("failed to evaluate edge condition from %q: %w", from, err)
		}
		if value.IsTruthy() {
			return edge.to, nil
		}
	}
	return "", nil
}
