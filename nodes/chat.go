package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/stewardhq/steward"
)

// ChatResponder handles requests that map to no action channel. It answers
// from the conversation so far, optionally augmented with a web search when
// the request looks time-sensitive. Chat turns never suspend.
type ChatResponder struct {
	generator steward.Generator
	search    steward.Searcher
}

func NewChatResponder(generator steward.Generator, search steward.Searcher) *ChatResponder {
	return &ChatResponder{generator: generator, search: search}
}

func (n *ChatResponder) Name() string {
	return NodeChat
}

var searchCues = []string{"latest", "news", "today", "current", "right now", "weather", "search"}

func (n *ChatResponder) Run(ctx context.Context, nc *steward.NodeContext) (*steward.NodeResult, error) {
	state := nc.State

	var findings string
	if n.search != nil && containsAnyFold(state.RequestText, searchCues) {
		found, err := n.search.Search(ctx, state.RequestText)
		if err != nil {
			nc.Logger.Warn("chat search failed", "error", err)
		} else {
			findings = found
		}
	}

	reply := n.reply(ctx, nc, findings)
	state.Preview = renderPreview("💬 CHAT REPLY", reply, "")
	state.Result = &steward.ActionResult{Status: steward.ResultStatusSuccess, Message: reply}
	state.AppendMessage(steward.RoleAssistant, reply)
	return steward.Terminate(), nil
}

func (n *ChatResponder) reply(ctx context.Context, nc *steward.NodeContext, findings string) string {
	state := nc.State

	var b strings.Builder
	b.WriteString("You are a helpful assistant. Answer the user's latest message directly and concisely.\n\n")
	if findings != "" {
		fmt.Fprintf(&b, "Relevant search findings:\n%s\n\n", findings)
	}
	b.WriteString("Conversation:\n")
	for _, msg := range state.Conversation {
		fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
	}
	b.WriteString("assistant:")

	out, err := n.generator.Generate(ctx, b.String())
	if err != nil {
		nc.Logger.Warn("chat generation failed", "error", err)
		return "I can help you send emails, publish posts, and schedule events. What would you like to do?"
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "I can help you send emails, publish posts, and schedule events. What would you like to do?"
	}
	return out
}

func containsAnyFold(text string, needles []string) bool {
	lower := strings.ToLower(text)
	for _, needle := range needles {
		if strings.Contains(lower, needle) {
			return true
		}
	}
	return false
}
