// Package nodes implements the task-routing agent's workflow graph: intent
// classification, the per-channel composers with their edit sub-flows, the
// shared approval gate, the terminal send nodes, and the chat responder.
package nodes

import (
	"github.com/stewardhq/steward"
	"github.com/stewardhq/steward/script"
)

// Node names within the agent graph.
const (
	NodeIntent          = "intent"
	NodeComposeEmail    = "compose_email"
	NodeComposeSocial   = "compose_social"
	NodeComposeCalendar = "compose_calendar"
	NodeHumanGate       = "human_gate"
	NodeEmailEdits      = "email_edits"
	NodeSocialEdits     = "social_edits"
	NodeCalendarEdits   = "calendar_edits"
	NodeSendEmail       = "send_email"
	NodePublishPost     = "publish_post"
	NodeCreateEvent     = "create_event"
	NodeChat            = "chat"
)

// Options configure the agent graph. Classifier, Extractor, Generator, and
// Actions are required; Search is optional and only consulted by chat.
type Options struct {
	Classifier steward.Classifier
	Extractor  steward.Extractor
	Generator  steward.Generator
	Actions    steward.Actions
	Search     steward.Searcher
	Compiler   script.Compiler
}

// NewGraph assembles the standard agent graph. The intent node routes
// through conditional edges on the classified intent; all downstream
// transitions are explicit.
func NewGraph(opts Options) (*steward.Graph, error) {
	if opts.Classifier == nil {
		return nil, steward.NewValidationError("classifier is required")
	}
	if opts.Extractor == nil {
		return nil, steward.NewValidationError("extractor is required")
	}
	if opts.Generator == nil {
		return nil, steward.NewValidationError("generator is required")
	}
	if opts.Actions == nil {
		return nil, steward.NewValidationError("actions are required")
	}

	graphNodes := []steward.Node{
		NewIntentNode(opts.Classifier),
		NewEmailComposer(opts.Extractor, opts.Generator),
		NewSocialComposer(opts.Extractor, opts.Generator),
		NewCalendarComposer(opts.Extractor, opts.Generator),
		NewApprovalGate(),
		NewEmailEdits(opts.Generator),
		NewSocialEdits(opts.Generator),
		NewCalendarEdits(opts.Generator),
		NewSendEmail(opts.Actions),
		NewPublishPost(opts.Actions),
		NewCreateEvent(opts.Actions),
		NewChatResponder(opts.Generator, opts.Search),
	}

	edges := []*steward.Edge{
		{From: NodeIntent, To: NodeComposeEmail, Condition: `state["intent"] == "email"`},
		{From: NodeIntent, To: NodeComposeSocial, Condition: `state["intent"] == "social"`},
		{From: NodeIntent, To: NodeComposeCalendar, Condition: `state["intent"] == "calendar"`},
		{From: NodeIntent, To: NodeChat},
	}

	return steward.NewGraph(steward.GraphOptions{
		Name:     "steward-agent",
		Entry:    NodeIntent,
		Nodes:    graphNodes,
		Edges:    edges,
		Compiler: opts.Compiler,
	})
}

// editNodeFor maps an intent to its edit sub-flow node.
func editNodeFor(intent steward.Intent) string {
	switch intent {
	case steward.IntentSocial:
		return NodeSocialEdits
	case steward.IntentCalendar:
		return NodeCalendarEdits
	default:
		return NodeEmailEdits
	}
}

// sendNodeFor maps an intent to its terminal send node.
func sendNodeFor(intent steward.Intent) string {
	switch intent {
	case steward.IntentSocial:
		return NodePublishPost
	case steward.IntentCalendar:
		return NodeCreateEvent
	default:
		return NodeSendEmail
	}
}
