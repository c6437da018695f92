package steward

import (
	"context"
	"fmt"
	"log/slog"
)

// NullActions is an Actions implementation that performs no side effects and
// reports success. Useful for tests and dry runs.
type NullActions struct {
	Logger *slog.Logger
}

func NewNullActions(logger *slog.Logger) *NullActions {
	return &NullActions{Logger: logger}
}

func (a *NullActions) log(msg string, args ...any) {
	if a.Logger != nil {
		a.Logger.Info(msg, args...)
	}
}

func (a *NullActions) SendEmail(ctx context.Context, email EmailFields) (*ActionResult, error) {
	a.log("dry-run email send", "to", email.To, "subject", email.Subject)
	return &ActionResult{
		Status:  ResultStatusSuccess,
		Message: fmt.Sprintf("email to %s accepted (dry run)", email.To),
	}, nil
}

func (a *NullActions) PublishPost(ctx context.Context, text string) (*ActionResult, error) {
	a.log("dry-run post publish", "chars", len(text))
	return &ActionResult{
		Status:  ResultStatusSuccess,
		Message: "post accepted (dry run)",
	}, nil
}

func (a *NullActions) CreateCalendarEvent(ctx context.Context, event CalendarFields) (*ActionResult, error) {
	a.log("dry-run calendar event", "summary", event.Summary, "start", event.Start)
	return &ActionResult{
		Status:  ResultStatusSuccess,
		Message: fmt.Sprintf("event %q accepted (dry run)", event.Summary),
	}, nil
}
