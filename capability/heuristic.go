package capability

import (
	"context"
	"regexp"
	"strings"

	"github.com/stewardhq/steward"
)

// Heuristic implements the capability set with keyword and pattern matching
// only, for deployments without a model configured and as the fallback when
// a model response cannot be used.
type Heuristic struct{}

func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

var (
	emailAddrPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	hashtagPattern   = regexp.MustCompile(`#[\w]+`)
	mentionPattern   = regexp.MustCompile(`@[\w]+`)
	urlPattern       = regexp.MustCompile(`https?://\S+`)
	quotedPattern    = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
)

var (
	emailKeywords    = []string{"email", "mail", "send to", "reply to", "forward"}
	socialKeywords   = []string{"linkedin", "post", "share", "publish", "tweet"}
	calendarKeywords = []string{"meeting", "schedule", "calendar", "remind", "appointment", "book a", "event"}
)

func (h *Heuristic) Classify(ctx context.Context, text string) (steward.Intent, error) {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, emailKeywords) || emailAddrPattern.MatchString(text):
		return steward.IntentEmail, nil
	case containsAny(lower, socialKeywords):
		return steward.IntentSocial, nil
	case containsAny(lower, calendarKeywords):
		return steward.IntentCalendar, nil
	}
	return steward.IntentChat, nil
}

func (h *Heuristic) Extract(ctx context.Context, text string, schema steward.Schema) (*steward.Record, error) {
	record := &steward.Record{
		Fields: map[string]string{},
		Lists:  map[string][]string{},
	}
	switch schema.Channel {
	case string(steward.IntentEmail):
		h.extractEmail(text, record)
	case string(steward.IntentSocial):
		h.extractSocial(text, record)
	case string(steward.IntentCalendar):
		h.extractCalendar(text, record)
	}
	for _, name := range schema.CriticalFields() {
		if record.Fields[name] == "" {
			record.Missing = append(record.Missing, name)
		}
	}
	return record, nil
}

// Generate is not supported without a model; callers fall back to their
// deterministic drafting paths.
func (h *Heuristic) Generate(ctx context.Context, prompt string) (string, error) {
	return "", steward.NewExtractionError("text generation requires a model capability")
}

func (h *Heuristic) extractEmail(text string, record *steward.Record) {
	if addr := emailAddrPattern.FindString(text); addr != "" {
		record.Fields["to"] = addr
	}
	if body := trailingContent(text, []string{"saying ", "saying: ", "that says ", "telling them "}); body != "" {
		record.Fields["body"] = strings.Trim(body, `"'`)
	} else if quoted := firstQuoted(text); quoted != "" {
		record.Fields["body"] = quoted
	}
	if subject := trailingContent(text, []string{"about ", "subject ", "regarding "}); subject != "" {
		record.Fields["subject"] = firstClause(subject)
	}
}

func (h *Heuristic) extractSocial(text string, record *steward.Record) {
	if quoted := firstQuoted(text); quoted != "" {
		record.Fields["topic"] = quoted
	} else if topic := trailingContent(text, []string{"about ", "on "}); topic != "" {
		record.Fields["topic"] = topic
	}
	lower := strings.ToLower(text)
	for _, tone := range []string{"professional", "conversational", "thought_leadership"} {
		if strings.Contains(lower, strings.ReplaceAll(tone, "_", " ")) || strings.Contains(lower, tone) {
			record.Fields["tone"] = tone
			break
		}
	}
	for _, length := range []string{"short", "medium", "long"} {
		if strings.Contains(lower, length) {
			record.Fields["length"] = length
			break
		}
	}
	if audience := trailingContent(text, []string{"for an audience of ", "aimed at ", "targeting "}); audience != "" {
		record.Fields["audience"] = firstClause(audience)
	}
	if tags := hashtagPattern.FindAllString(text, -1); len(tags) > 0 {
		record.Lists["hashtags"] = tags
	}
	if urls := urlPattern.FindAllString(text, -1); len(urls) > 0 {
		record.Lists["urls"] = urls
	}
	// Mentions share a sigil with email addresses; only keep tokens that
	// are not part of an address.
	var mentions []string
	for _, mention := range mentionPattern.FindAllString(stripEmailAddresses(text), -1) {
		mentions = append(mentions, mention)
	}
	if len(mentions) > 0 {
		record.Lists["mentions"] = mentions
	}
}

func (h *Heuristic) extractCalendar(text string, record *steward.Record) {
	if summary := trailingContent(text, []string{"remind me to ", "meeting about ", "schedule a ", "schedule "}); summary != "" {
		record.Fields["summary"] = firstClause(summary)
	} else if quoted := firstQuoted(text); quoted != "" {
		record.Fields["summary"] = quoted
	}
	// Natural-language datetimes are left to the composer's placeholder
	// defaults; parsing them reliably needs the model path.
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// trailingContent returns the text after the first matching marker.
func trailingContent(text string, markers []string) string {
	lower := strings.ToLower(text)
	for _, marker := range markers {
		if idx := strings.Index(lower, marker); idx >= 0 {
			return strings.TrimSpace(text[idx+len(marker):])
		}
	}
	return ""
}

func firstQuoted(text string) string {
	match := quotedPattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	if match[1] != "" {
		return match[1]
	}
	return match[2]
}

// firstClause cuts a phrase at the first sentence or clause boundary.
func firstClause(text string) string {
	if idx := strings.IndexAny(text, ".,;\n"); idx > 0 {
		return strings.TrimSpace(text[:idx])
	}
	return strings.TrimSpace(text)
}

func stripEmailAddresses(text string) string {
	return emailAddrPattern.ReplaceAllString(text, "")
}
