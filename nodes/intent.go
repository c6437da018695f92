package nodes

import (
	"context"
	"regexp"
	"strings"

	"github.com/stewardhq/steward"
)

// IntentNode is the graph's entry: it labels the incoming request with one
// of the known intents and lets the graph's conditional edges dispatch to
// the matching composer. It never suspends.
type IntentNode struct {
	classifier steward.Classifier
}

func NewIntentNode(classifier steward.Classifier) *IntentNode {
	return &IntentNode{classifier: classifier}
}

func (n *IntentNode) Name() string {
	return NodeIntent
}

func (n *IntentNode) Run(ctx context.Context, nc *steward.NodeContext) (*steward.NodeResult, error) {
	intent, err := n.classifier.Classify(ctx, nc.State.RequestText)
	if err != nil || !steward.ValidIntent(intent) {
		if err != nil {
			nc.Logger.Warn("classifier failed, falling back to keywords", "error", err)
		}
		intent = fallbackIntent(nc.State.RequestText)
	}
	nc.State.Intent = intent
	nc.Logger.Info("intent classified", "intent", intent)
	return steward.Route(), nil
}

var addressPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// fallbackIntent applies keyword heuristics when classification fails,
// defaulting to chat when nothing matches.
func fallbackIntent(text string) steward.Intent {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "email") || strings.Contains(lower, "send to") || addressPattern.MatchString(text):
		return steward.IntentEmail
	case strings.Contains(lower, "linkedin") || strings.Contains(lower, "post") || strings.Contains(lower, "share"):
		return steward.IntentSocial
	case strings.Contains(lower, "meeting") || strings.Contains(lower, "schedule") || strings.Contains(lower, "remind"):
		return steward.IntentCalendar
	}
	return steward.IntentChat
}
