package nodes

import (
	"fmt"
	"strings"

	"github.com/stewardhq/steward"
)

const previewRule = "========================================"

var emailSchema = steward.Schema{
	Channel: string(steward.IntentEmail),
	Fields: []steward.FieldSpec{
		{Name: "to", Description: "email recipient (address, or a name if no address is given)", Critical: true},
		{Name: "subject", Description: "concise subject line, only when clearly inferable from the input"},
		{Name: "body", Description: "the actual message content intended to be sent; never meta-instructions like \"send mail\"", Critical: true},
		{Name: "sender_name", Description: "greeting name for the recipient, derived from the address local-part when not given"},
	},
}

var socialSchema = steward.Schema{
	Channel: string(steward.IntentSocial),
	Fields: []steward.FieldSpec{
		{Name: "topic", Description: "the publishable content or subject of the post; never meta-intent like \"write a post\"", Critical: true},
		{Name: "tone", Description: "one of professional|conversational|thought_leadership, when indicated"},
		{Name: "length", Description: "one of short|medium|long, when indicated"},
		{Name: "audience", Description: "the named target audience, when indicated"},
		{Name: "hashtags", Description: "list of #hashtag tokens present in the input"},
		{Name: "mentions", Description: "list of @mention tokens present in the input"},
		{Name: "urls", Description: "list of http(s) URLs present in the input"},
	},
}

var calendarSchema = steward.Schema{
	Channel: string(steward.IntentCalendar),
	Fields: []steward.FieldSpec{
		{Name: "summary", Description: "event title"},
		{Name: "description", Description: "event details"},
		{Name: "start", Description: "start datetime in ISO 8601 format"},
		{Name: "end", Description: "end datetime in ISO 8601 format"},
	},
}

// missingPrompt enumerates exactly which fields the human must supply.
func missingPrompt(channel string, missing []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Missing %s information: %s. Please provide:", channel, strings.Join(missing, ", "))
	for _, field := range missing {
		fmt.Fprintf(&sb, "\n- %s: ", field)
	}
	return sb.String()
}

// extractionFailurePrompt is the generic re-ask used when extraction itself
// fails rather than merely coming back incomplete.
func extractionFailurePrompt(channel string, fields []string) string {
	return fmt.Sprintf("Could not extract %s details. Please provide: %s", channel, strings.Join(fields, ", "))
}

func renderPreview(title, body, question string) string {
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s\n%s", title, previewRule, body, previewRule, question)
}

// resultFooter is appended to the preview after a terminal action runs.
func resultFooter(result *steward.ActionResult) string {
	return fmt.Sprintf("\n\nSend result: %s — %s", result.Status, result.Message)
}

// mergeField assigns a newly extracted value only when it is non-empty, so
// a later partial extraction never blanks a previously confirmed field.
func mergeField(dst *string, extracted string) {
	if extracted != "" {
		*dst = extracted
	}
}

func mergeList(dst *[]string, extracted []string) {
	if len(extracted) > 0 {
		*dst = extracted
	}
}
