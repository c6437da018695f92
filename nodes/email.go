package nodes

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/stewardhq/steward"
	"github.com/stewardhq/steward/capability"
)

// EmailComposer owns the extract → ask → draft → preview cycle for the
// email channel. Critical fields are the recipient and the body; the
// composer suspends once per entry while either is missing.
type EmailComposer struct {
	extractor steward.Extractor
	generator steward.Generator
}

func NewEmailComposer(extractor steward.Extractor, generator steward.Generator) *EmailComposer {
	return &EmailComposer{extractor: extractor, generator: generator}
}

func (n *EmailComposer) Name() string {
	return NodeComposeEmail
}

func (n *EmailComposer) Run(ctx context.Context, nc *steward.NodeContext) (*steward.NodeResult, error) {
	state := nc.State
	text := state.RequestText
	if nc.Resume != "" {
		text = nc.Resume
	}

	record, err := n.extractor.Extract(ctx, text, emailSchema)
	if err != nil {
		nc.Logger.Warn("email extraction failed", "error", err)
		state.Error = err.Error()
		state.NeedsInput = true
		state.HumanPrompt = extractionFailurePrompt("email", []string{"to", "subject", "body"})
		return steward.Suspend(state.HumanPrompt, ""), nil
	}

	mergeField(&state.Email.To, record.Get("to"))
	mergeField(&state.Email.Subject, record.Get("subject"))
	mergeField(&state.Email.Body, record.Get("body"))
	mergeField(&state.Email.SenderName, record.Get("sender_name"))
	if state.Email.SenderName == "" {
		state.Email.SenderName = greetingNameFromAddress(state.Email.To)
	}

	var missing []string
	if state.Email.To == "" {
		missing = append(missing, "to")
	}
	if state.Email.Body == "" {
		missing = append(missing, "body")
	}
	if len(missing) > 0 {
		state.NeedsInput = true
		state.HumanPrompt = missingPrompt("email", missing)
		return steward.Suspend(state.HumanPrompt, ""), nil
	}

	state.NeedsInput = false
	state.HumanPrompt = ""
	state.Error = ""
	n.draft(ctx, nc)

	state.Preview = renderEmailPreview(state.Email)
	state.Awaiting = steward.AwaitDecision
	return steward.Goto(NodeHumanGate), nil
}

// draft fills subject and body gaps with generated text, preserving fields
// the user already provided. Generation failure is not fatal: deterministic
// fallbacks keep the draft usable.
func (n *EmailComposer) draft(ctx context.Context, nc *steward.NodeContext) {
	email := &nc.State.Email
	needSubject := len(email.Subject) < 4
	needBody := len(email.Body) < 8
	if !needSubject && !needBody {
		return
	}

	prompt := fmt.Sprintf(`You draft a ready-to-send email from partial fields.
Return ONLY one valid JSON object with keys "subject" and "body". No prose.

Rules:
- Only fill fields that are missing or clearly too short; preserve provided ones.
- Use a greeting with the recipient name when plausible, else "Hello".
- Clear, direct, courteous. No emojis. Do not invent unknown facts.

Request: %s
To: %s
Recipient name: %s
Subject: %s
Body: %s`, nc.State.RequestText, email.To, email.SenderName, email.Subject, email.Body)

	out, err := n.generator.Generate(ctx, prompt)
	if err == nil {
		var draft struct {
			Subject string `json:"subject"`
			Body    string `json:"body"`
		}
		if decodeErr := capability.DecodeModelJSON(out, &draft); decodeErr == nil {
			if needSubject {
				mergeField(&email.Subject, draft.Subject)
			}
			if needBody {
				mergeField(&email.Body, draft.Body)
			}
		} else {
			nc.Logger.Warn("email draft output unparseable", "error", decodeErr)
		}
	} else {
		nc.Logger.Warn("email draft generation failed", "error", err)
	}

	if len(email.Subject) < 4 {
		email.Subject = firstWords(email.Body, 8)
	}
}

func renderEmailPreview(email steward.EmailFields) string {
	body := fmt.Sprintf("To: %s\nSubject: %s\n\nBody:\n%s", email.To, email.Subject, email.Body)
	return renderPreview("📧 EMAIL PREVIEW", body, "Ready to send? Please review above.")
}

var localPartSeparators = regexp.MustCompile(`[\d._\-]+`)

// greetingNameFromAddress derives a greeting name from an email address
// local-part, stripping digits and separators.
func greetingNameFromAddress(addr string) string {
	at := strings.Index(addr, "@")
	if at <= 0 {
		return ""
	}
	local := localPartSeparators.ReplaceAllString(addr[:at], " ")
	fields := strings.Fields(local)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

func firstWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// EmailEdits collects a free-text change request, applies it to the email
// payload, and returns to the approval gate's decision phase.
type EmailEdits struct {
	generator steward.Generator
}

func NewEmailEdits(generator steward.Generator) *EmailEdits {
	return &EmailEdits{generator: generator}
}

func (n *EmailEdits) Name() string {
	return NodeEmailEdits
}

func (n *EmailEdits) Run(ctx context.Context, nc *steward.NodeContext) (*steward.NodeResult, error) {
	state := nc.State
	if nc.Resume == "" {
		return steward.Suspend("What would you like to change? Describe your edits.", state.Preview), nil
	}

	prompt := fmt.Sprintf(`Edit the email below based on the request.
Respond ONLY with a JSON object with keys "to", "subject", "body".

Current email:
To: %s
Subject: %s
Body: %s

Edit request: %s`, state.Email.To, state.Email.Subject, state.Email.Body, nc.Resume)

	out, err := n.generator.Generate(ctx, prompt)
	if err == nil {
		var edited struct {
			To      string `json:"to"`
			Subject string `json:"subject"`
			Body    string `json:"body"`
		}
		// Parse failures leave the payload unchanged; the human can retry
		// from the decision phase.
		if decodeErr := capability.DecodeModelJSON(out, &edited); decodeErr == nil {
			mergeField(&state.Email.To, edited.To)
			mergeField(&state.Email.Subject, edited.Subject)
			mergeField(&state.Email.Body, edited.Body)
		} else {
			nc.Logger.Warn("email edit output unparseable", "error", decodeErr)
		}
	} else {
		nc.Logger.Warn("email edit generation failed", "error", err)
	}

	state.Preview = renderEmailPreview(state.Email)
	state.Awaiting = steward.AwaitDecision
	return steward.Goto(NodeHumanGate), nil
}

// SendEmail is the email channel's terminal node: it validates the minimum
// required field, invokes the injected send action, and records the result.
type SendEmail struct {
	actions steward.Actions
}

func NewSendEmail(actions steward.Actions) *SendEmail {
	return &SendEmail{actions: actions}
}

func (n *SendEmail) Name() string {
	return NodeSendEmail
}

func (n *SendEmail) Run(ctx context.Context, nc *steward.NodeContext) (*steward.NodeResult, error) {
	state := nc.State

	var result *steward.ActionResult
	if strings.TrimSpace(state.Email.To) == "" {
		result = &steward.ActionResult{Status: steward.ResultStatusError, Message: "missing recipient email"}
	} else {
		sent, err := n.actions.SendEmail(ctx, state.Email)
		if err != nil {
			result = &steward.ActionResult{Status: steward.ResultStatusError, Message: err.Error()}
		} else {
			result = sent
		}
	}

	state.Result = result
	state.Preview += resultFooter(result)
	state.AppendMessage(steward.RoleAssistant, fmt.Sprintf("Email send status: %s — %s", result.Status, result.Message))
	nc.Logger.Info("email send finished", "status", result.Status)
	return steward.Terminate(), nil
}
