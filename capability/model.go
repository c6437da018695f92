package capability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/stewardhq/steward"
)

// Model implements the classification, extraction, and generation
// capabilities on top of a langchaingo chat model.
type Model struct {
	llm    llms.Model
	logger *slog.Logger
}

// NewModel wraps a langchaingo model as a steward capability set.
func NewModel(llm llms.Model, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Model{llm: llm, logger: logger}
}

const classifyPrompt = `Classify the user's request into one of: email, social, calendar, chat.

- email: composing/sending an email, mentions email, mail, reply, forward, an @address, etc.
- social: publishing a social post, share on LinkedIn, post about, etc.
- calendar: scheduling a meeting or event, setting a reminder, booking time.
- chat: everything else (jokes, Q&A, small talk, general tasks).

Respond with ONLY one token: email | social | calendar | chat

User input: %s`

func (m *Model) Classify(ctx context.Context, text string) (steward.Intent, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, m.llm, fmt.Sprintf(classifyPrompt, text))
	if err != nil {
		return "", steward.WrapError(steward.ErrorTypeExtraction, err)
	}
	label := strings.ToLower(strings.TrimSpace(out))
	for _, intent := range []steward.Intent{steward.IntentEmail, steward.IntentSocial, steward.IntentCalendar, steward.IntentChat} {
		if strings.Contains(label, string(intent)) {
			return intent, nil
		}
	}
	return "", steward.NewExtractionError("unrecognized intent label %q", label)
}

func (m *Model) Extract(ctx context.Context, text string, schema steward.Schema) (*steward.Record, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You extract structured %s fields from a single user input.\n", schema.Channel)
	sb.WriteString("Return ONLY a valid JSON object. No prose, no code fences, no explanations.\n\nExtract:\n")
	for _, field := range schema.Fields {
		fmt.Fprintf(&sb, "- %q: %s\n", field.Name, field.Description)
	}
	sb.WriteString(`- "missing": array of field names clearly absent from the input

Rules:
- If a field is clearly absent, set it to "" (or [] for lists) and include it in "missing".
- Normalize placeholders like "Missing", "None", "Unknown" to "" and include them in "missing".
- Do not treat meta-instructions ("send mail", "write a post", "schedule it") as content.
- Do not add any text outside the JSON object.

`)
	fmt.Fprintf(&sb, "User input: %s", text)

	out, err := llms.GenerateFromSinglePrompt(ctx, m.llm, sb.String())
	if err != nil {
		return nil, steward.WrapError(steward.ErrorTypeExtraction, err)
	}

	var decoded map[string]any
	if err := DecodeModelJSON(out, &decoded); err != nil {
		m.logger.Warn("extractor returned unparseable JSON", "channel", schema.Channel, "error", err)
		return nil, steward.NewExtractionError("unparseable %s extraction output", schema.Channel)
	}
	return recordFromJSON(decoded, schema), nil
}

func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, m.llm, prompt)
	if err != nil {
		return "", steward.WrapError(steward.ErrorTypeExtraction, err)
	}
	return strings.TrimSpace(out), nil
}

// recordFromJSON maps a decoded extraction object onto the schema, keeping
// only non-placeholder values.
func recordFromJSON(decoded map[string]any, schema steward.Schema) *steward.Record {
	record := &steward.Record{
		Fields: map[string]string{},
		Lists:  map[string][]string{},
	}
	for _, field := range schema.Fields {
		switch value := decoded[field.Name].(type) {
		case string:
			if normalized := normalizeValue(value); normalized != "" {
				record.Fields[field.Name] = normalized
			}
		case []any:
			var items []string
			for _, item := range value {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					items = append(items, strings.TrimSpace(s))
				}
			}
			if len(items) > 0 {
				record.Lists[field.Name] = items
			}
		}
	}
	if missing, ok := decoded["missing"].([]any); ok {
		for _, item := range missing {
			if s, ok := item.(string); ok && s != "" {
				record.Missing = append(record.Missing, s)
			}
		}
	}
	return record
}

// normalizeValue trims a scalar and maps placeholder words to empty.
func normalizeValue(value string) string {
	trimmed := strings.TrimSpace(value)
	switch strings.ToLower(trimmed) {
	case "missing", "none", "unknown", "null", "n/a":
		return ""
	}
	return trimmed
}
