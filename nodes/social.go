package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/stewardhq/steward"
)

// SocialComposer prepares a social post draft. Topic is the only critical
// field; tone, length, and audience fall back to sensible defaults.
type SocialComposer struct {
	extractor steward.Extractor
	generator steward.Generator
}

func NewSocialComposer(extractor steward.Extractor, generator steward.Generator) *SocialComposer {
	return &SocialComposer{extractor: extractor, generator: generator}
}

func (n *SocialComposer) Name() string {
	return NodeComposeSocial
}

func (n *SocialComposer) Run(ctx context.Context, nc *steward.NodeContext) (*steward.NodeResult, error) {
	state := nc.State
	text := state.RequestText
	if nc.Resume != "" {
		text = nc.Resume
	}

	record, err := n.extractor.Extract(ctx, text, socialSchema)
	if err != nil {
		nc.Logger.Warn("social extraction failed", "error", err)
		state.Error = err.Error()
		state.NeedsInput = true
		state.HumanPrompt = extractionFailurePrompt("social post", []string{"topic"})
		return steward.Suspend(state.HumanPrompt, ""), nil
	}

	mergeField(&state.Social.Topic, record.Get("topic"))
	mergeField(&state.Social.Tone, record.Get("tone"))
	mergeField(&state.Social.Length, record.Get("length"))
	mergeField(&state.Social.Audience, record.Get("audience"))
	mergeList(&state.Social.Hashtags, record.GetList("hashtags"))
	mergeList(&state.Social.Mentions, record.GetList("mentions"))
	mergeList(&state.Social.URLs, record.GetList("urls"))

	if state.Social.Topic == "" {
		state.NeedsInput = true
		state.HumanPrompt = missingPrompt("social post", []string{"topic"})
		return steward.Suspend(state.HumanPrompt, ""), nil
	}

	if state.Social.Tone == "" {
		state.Social.Tone = "professional"
	}
	if state.Social.Length == "" {
		state.Social.Length = "medium"
	}

	state.NeedsInput = false
	state.HumanPrompt = ""
	state.Error = ""
	n.draft(ctx, nc)

	state.Preview = renderSocialPreview(state.Social)
	state.Awaiting = steward.AwaitDecision
	return steward.Goto(NodeHumanGate), nil
}

func (n *SocialComposer) draft(ctx context.Context, nc *steward.NodeContext) {
	social := &nc.State.Social
	if social.GeneratedText != "" {
		return
	}

	var extras []string
	if len(social.Hashtags) > 0 {
		extras = append(extras, "Hashtags to include: "+strings.Join(social.Hashtags, " "))
	}
	if len(social.Mentions) > 0 {
		extras = append(extras, "Mentions to include: "+strings.Join(social.Mentions, " "))
	}
	if len(social.URLs) > 0 {
		extras = append(extras, "Links to include: "+strings.Join(social.URLs, " "))
	}
	if social.Audience != "" {
		extras = append(extras, "Audience: "+social.Audience)
	}

	prompt := fmt.Sprintf(`Write a LinkedIn-style post.
Topic: %s
Tone: %s
Length: %s
%s
Return ONLY the post text, no surrounding quotes or commentary.`,
		social.Topic, social.Tone, social.Length, strings.Join(extras, "\n"))

	out, err := n.generator.Generate(ctx, prompt)
	if err != nil {
		nc.Logger.Warn("social draft generation failed", "error", err)
		social.GeneratedText = fallbackPost(social)
		return
	}
	out = strings.TrimSpace(out)
	if out == "" {
		out = fallbackPost(social)
	}
	social.GeneratedText = out
}

// fallbackPost builds a minimal post from confirmed fields when no text
// generator is available.
func fallbackPost(social *steward.SocialFields) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sharing some thoughts on %s.", social.Topic)
	if len(social.Mentions) > 0 {
		fmt.Fprintf(&b, " With %s.", strings.Join(social.Mentions, " "))
	}
	if len(social.URLs) > 0 {
		b.WriteString("\n\n" + strings.Join(social.URLs, "\n"))
	}
	if len(social.Hashtags) > 0 {
		b.WriteString("\n\n" + strings.Join(social.Hashtags, " "))
	}
	return b.String()
}

func renderSocialPreview(social steward.SocialFields) string {
	body := fmt.Sprintf("Topic: %s\nTone: %s | Length: %s\n\n%s",
		social.Topic, social.Tone, social.Length, social.GeneratedText)
	return renderPreview("📣 SOCIAL POST PREVIEW", body, "Ready to post? Please review above.")
}

// SocialEdits rewrites the draft post from a free-text change request and
// returns to the decision phase.
type SocialEdits struct {
	generator steward.Generator
}

func NewSocialEdits(generator steward.Generator) *SocialEdits {
	return &SocialEdits{generator: generator}
}

func (n *SocialEdits) Name() string {
	return NodeSocialEdits
}

func (n *SocialEdits) Run(ctx context.Context, nc *steward.NodeContext) (*steward.NodeResult, error) {
	state := nc.State
	if nc.Resume == "" {
		return steward.Suspend("What would you like to change? Describe your edits.", state.Preview), nil
	}

	prompt := fmt.Sprintf(`Rewrite the social post below to satisfy the edit request.
Keep hashtags, mentions, and links unless the request removes them.
Return ONLY the revised post text.

Current post:
%s

Edit request: %s`, state.Social.GeneratedText, nc.Resume)

	out, err := n.generator.Generate(ctx, prompt)
	if err != nil {
		nc.Logger.Warn("social edit generation failed", "error", err)
	} else if out = strings.TrimSpace(out); out != "" {
		state.Social.GeneratedText = out
	}

	state.Preview = renderSocialPreview(state.Social)
	state.Awaiting = steward.AwaitDecision
	return steward.Goto(NodeHumanGate), nil
}

// PublishPost is the social channel's terminal node.
type PublishPost struct {
	actions steward.Actions
}

func NewPublishPost(actions steward.Actions) *PublishPost {
	return &PublishPost{actions: actions}
}

func (n *PublishPost) Name() string {
	return NodePublishPost
}

func (n *PublishPost) Run(ctx context.Context, nc *steward.NodeContext) (*steward.NodeResult, error) {
	state := nc.State

	var result *steward.ActionResult
	if strings.TrimSpace(state.Social.GeneratedText) == "" {
		result = &steward.ActionResult{Status: steward.ResultStatusError, Message: "missing post text"}
	} else {
		posted, err := n.actions.PublishPost(ctx, state.Social.GeneratedText)
		if err != nil {
			result = &steward.ActionResult{Status: steward.ResultStatusError, Message: err.Error()}
		} else {
			result = posted
		}
	}

	state.Result = result
	state.Preview += resultFooter(result)
	state.AppendMessage(steward.RoleAssistant, fmt.Sprintf("Post publish status: %s — %s", result.Status, result.Message))
	nc.Logger.Info("post publish finished", "status", result.Status)
	return steward.Terminate(), nil
}
