package nodes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stewardhq/steward"
	"github.com/stewardhq/steward/capability"
)

// CalendarComposer prepares a calendar event draft. The calendar channel is
// best-effort: no field is critical, and gaps are filled with defaults so
// the turn always reaches the approval gate.
type CalendarComposer struct {
	extractor steward.Extractor
	generator steward.Generator
	now       func() time.Time
}

func NewCalendarComposer(extractor steward.Extractor, generator steward.Generator) *CalendarComposer {
	return &CalendarComposer{extractor: extractor, generator: generator, now: time.Now}
}

func (n *CalendarComposer) Name() string {
	return NodeComposeCalendar
}

func (n *CalendarComposer) Run(ctx context.Context, nc *steward.NodeContext) (*steward.NodeResult, error) {
	state := nc.State
	text := state.RequestText
	if nc.Resume != "" {
		text = nc.Resume
	}

	record, err := n.extractor.Extract(ctx, text, calendarSchema)
	if err != nil {
		nc.Logger.Warn("calendar extraction failed", "error", err)
		state.Error = err.Error()
	} else {
		mergeField(&state.Calendar.Summary, record.Get("summary"))
		mergeField(&state.Calendar.Description, record.Get("description"))
		mergeField(&state.Calendar.Start, record.Get("start"))
		mergeField(&state.Calendar.End, record.Get("end"))
	}

	n.applyDefaults(state)

	state.NeedsInput = false
	state.HumanPrompt = ""
	state.Preview = renderCalendarPreview(state.Calendar)
	state.Awaiting = steward.AwaitDecision
	return steward.Goto(NodeHumanGate), nil
}

// applyDefaults fills gaps so the event is always creatable: summary falls
// back to the request text, start to the next day at 09:00 local time, end
// to one hour after start.
func (n *CalendarComposer) applyDefaults(state *steward.WorkflowState) {
	event := &state.Calendar
	if event.Summary == "" {
		event.Summary = firstWords(state.RequestText, 10)
	}
	if event.Summary == "" {
		event.Summary = "New event"
	}

	start, startOK := parseEventTime(event.Start)
	if !startOK {
		start = n.now().AddDate(0, 0, 1)
		start = time.Date(start.Year(), start.Month(), start.Day(), 9, 0, 0, 0, start.Location())
		event.Start = start.Format(time.RFC3339)
	}
	if _, endOK := parseEventTime(event.End); !endOK {
		event.End = start.Add(time.Hour).Format(time.RFC3339)
	}
}

func parseEventTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func renderCalendarPreview(event steward.CalendarFields) string {
	body := fmt.Sprintf("Summary: %s\nStart: %s\nEnd: %s", event.Summary, event.Start, event.End)
	if event.Description != "" {
		body += "\n\nDescription:\n" + event.Description
	}
	return renderPreview("📅 CALENDAR EVENT PREVIEW", body, "Ready to create? Please review above.")
}

// CalendarEdits applies a free-text change request to the event payload and
// returns to the decision phase.
type CalendarEdits struct {
	generator steward.Generator
}

func NewCalendarEdits(generator steward.Generator) *CalendarEdits {
	return &CalendarEdits{generator: generator}
}

func (n *CalendarEdits) Name() string {
	return NodeCalendarEdits
}

func (n *CalendarEdits) Run(ctx context.Context, nc *steward.NodeContext) (*steward.NodeResult, error) {
	state := nc.State
	if nc.Resume == "" {
		return steward.Suspend("What would you like to change? Describe your edits.", state.Preview), nil
	}

	prompt := fmt.Sprintf(`Edit the calendar event below based on the request.
Respond ONLY with a JSON object with keys "summary", "description", "start", "end".
Times must be ISO 8601 strings.

Current event:
Summary: %s
Description: %s
Start: %s
End: %s

Edit request: %s`, state.Calendar.Summary, state.Calendar.Description,
		state.Calendar.Start, state.Calendar.End, nc.Resume)

	out, err := n.generator.Generate(ctx, prompt)
	if err == nil {
		var edited struct {
			Summary     string `json:"summary"`
			Description string `json:"description"`
			Start       string `json:"start"`
			End         string `json:"end"`
		}
		if decodeErr := capability.DecodeModelJSON(out, &edited); decodeErr == nil {
			mergeField(&state.Calendar.Summary, edited.Summary)
			mergeField(&state.Calendar.Description, edited.Description)
			mergeField(&state.Calendar.Start, edited.Start)
			mergeField(&state.Calendar.End, edited.End)
		} else {
			nc.Logger.Warn("calendar edit output unparseable", "error", decodeErr)
		}
	} else {
		nc.Logger.Warn("calendar edit generation failed", "error", err)
	}

	state.Preview = renderCalendarPreview(state.Calendar)
	state.Awaiting = steward.AwaitDecision
	return steward.Goto(NodeHumanGate), nil
}

// CreateEvent is the calendar channel's terminal node.
type CreateEvent struct {
	actions steward.Actions
}

func NewCreateEvent(actions steward.Actions) *CreateEvent {
	return &CreateEvent{actions: actions}
}

func (n *CreateEvent) Name() string {
	return NodeCreateEvent
}

func (n *CreateEvent) Run(ctx context.Context, nc *steward.NodeContext) (*steward.NodeResult, error) {
	state := nc.State

	var result *steward.ActionResult
	if strings.TrimSpace(state.Calendar.Summary) == "" || strings.TrimSpace(state.Calendar.Start) == "" {
		result = &steward.ActionResult{Status: steward.ResultStatusError, Message: "missing event summary or start time"}
	} else {
		created, err := n.actions.CreateCalendarEvent(ctx, state.Calendar)
		if err != nil {
			result = &steward.ActionResult{Status: steward.ResultStatusError, Message: err.Error()}
		} else {
			result = created
		}
	}

	state.Result = result
	state.Preview += resultFooter(result)
	state.AppendMessage(steward.RoleAssistant, fmt.Sprintf("Event creation status: %s — %s", result.Status, result.Message))
	nc.Logger.Info("event creation finished", "status", result.Status)
	return steward.Terminate(), nil
}
