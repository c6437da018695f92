package nodes

import (
	"context"
	"strings"

	"github.com/stewardhq/steward"
)

// ApprovalGate is the human-in-the-loop checkpoint. On first entry it
// suspends with the channel preview and a decision prompt; on resume it
// routes the decision. Unrecognized input re-suspends with the same prompt
// and leaves the awaiting phase untouched.
type ApprovalGate struct{}

func NewApprovalGate() *ApprovalGate {
	return &ApprovalGate{}
}

func (n *ApprovalGate) Name() string {
	return NodeHumanGate
}

func (n *ApprovalGate) Run(ctx context.Context, nc *steward.NodeContext) (*steward.NodeResult, error) {
	state := nc.State
	prompt := decisionPrompt(state.Intent)

	if nc.Resume == "" {
		state.HumanPrompt = prompt
		return steward.Suspend(prompt, state.Preview), nil
	}

	decision := strings.ToLower(strings.TrimSpace(nc.Resume))
	switch {
	case decision == approveKeyword(state.Intent) || decision == "approve" || decision == "yes":
		state.SetApproved(true)
		state.HumanPrompt = ""
		nc.Logger.Info("action approved", "intent", state.Intent)
		return steward.Goto(sendNodeFor(state.Intent)), nil

	case decision == "edit":
		state.Awaiting = steward.AwaitEdits
		state.HumanPrompt = ""
		return steward.Goto(editNodeFor(state.Intent)), nil

	case decision == "cancel":
		state.SetApproved(false)
		state.Error = "cancelled by user"
		state.Result = &steward.ActionResult{Status: steward.ResultStatusError, Message: "cancelled by user"}
		state.AppendMessage(steward.RoleAssistant, "Okay, cancelled. Nothing was sent.")
		nc.Logger.Info("action cancelled", "intent", state.Intent)
		return steward.Terminate(), nil

	default:
		nc.Logger.Debug("unrecognized gate decision", "input", decision)
		state.HumanPrompt = prompt
		return steward.Suspend(prompt, state.Preview), nil
	}
}

func decisionPrompt(intent steward.Intent) string {
	switch intent {
	case steward.IntentSocial:
		return "Review the post above. Type 'post' to approve, 'edit' to modify, or 'cancel' to abort."
	case steward.IntentCalendar:
		return "Review the event above. Type 'create' to approve, 'edit' to modify, or 'cancel' to abort."
	default:
		return "Review the email above. Type 'send' to approve, 'edit' to modify, or 'cancel' to abort."
	}
}

func approveKeyword(intent steward.Intent) string {
	switch intent {
	case steward.IntentSocial:
		return "post"
	case steward.IntentCalendar:
		return "create"
	default:
		return "send"
	}
}
