package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/stewardhq/steward"
	"github.com/stretchr/testify/require"
)

// fakeCaps is a deterministic capability set. Extract pops one record per
// call so tests can script multi-entry composer flows.
type fakeCaps struct {
	intent      steward.Intent
	classifyErr error

	extracts   []*steward.Record
	extractErr error
	calls      int

	generated   string
	generateErr error
}

func (f *fakeCaps) Classify(ctx context.Context, text string) (steward.Intent, error) {
	if f.classifyErr != nil {
		return "", f.classifyErr
	}
	return f.intent, nil
}

func (f *fakeCaps) Extract(ctx context.Context, text string, schema steward.Schema) (*steward.Record, error) {
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	if f.calls >= len(f.extracts) {
		return &steward.Record{}, nil
	}
	record := f.extracts[f.calls]
	f.calls++
	return record, nil
}

func (f *fakeCaps) Generate(ctx context.Context, prompt string) (string, error) {
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return f.generated, nil
}

func fields(kv map[string]string) *steward.Record {
	return &steward.Record{Fields: kv}
}

func newTestEngine(t *testing.T, caps *fakeCaps) *steward.Engine {
	t.Helper()
	graph, err := NewGraph(Options{
		Classifier: caps,
		Extractor:  caps,
		Generator:  caps,
		Actions:    steward.NewNullActions(nil),
	})
	require.NoError(t, err)
	engine, err := steward.NewEngine(steward.EngineOptions{Graph: graph})
	require.NoError(t, err)
	return engine
}

func TestEmailFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("complete request reaches the gate and sends on approval", func(t *testing.T) {
		caps := &fakeCaps{
			intent: steward.IntentEmail,
			extracts: []*steward.Record{
				fields(map[string]string{
					"to":      "bob@example.com",
					"subject": "Lunch plans",
					"body":    "Want to grab lunch at noon tomorrow?",
				}),
			},
		}
		engine := newTestEngine(t, caps)

		outcome, err := engine.StartTurn(ctx, "", "Email bob@example.com about lunch")
		require.NoError(t, err)
		require.Equal(t, steward.OutcomeSuspended, outcome.Status)
		require.Contains(t, outcome.Preview, "EMAIL PREVIEW")
		require.Contains(t, outcome.Preview, "bob@example.com")
		require.Contains(t, outcome.Prompt, "Type 'send' to approve")
		require.False(t, outcome.State.NeedsInput)
		require.Equal(t, steward.AwaitDecision, outcome.State.Awaiting)

		final, err := engine.ResumeTurn(ctx, outcome.ThreadID, "send")
		require.NoError(t, err)
		require.Equal(t, steward.OutcomeCompleted, final.Status)
		require.Equal(t, steward.ResultStatusSuccess, final.Result.Status)
		require.NotNil(t, final.State.Approved)
		require.True(t, *final.State.Approved)
		require.Contains(t, final.State.Preview, "Send result: success")
	})

	t.Run("missing criticals suspend with an exact field list", func(t *testing.T) {
		caps := &fakeCaps{
			intent: steward.IntentEmail,
			extracts: []*steward.Record{
				fields(map[string]string{"to": "bob@example.com"}),
				fields(map[string]string{"body": "The deploy is done, all green."}),
			},
			generateErr: errors.New("no model"),
		}
		engine := newTestEngine(t, caps)

		outcome, err := engine.StartTurn(ctx, "", "Email bob@example.com")
		require.NoError(t, err)
		require.Equal(t, steward.OutcomeSuspended, outcome.Status)
		require.Contains(t, outcome.Prompt, "Missing email information: body")
		require.True(t, outcome.State.NeedsInput)

		// The reply re-enters the composer; the confirmed recipient must
		// survive the second extraction pass.
		second, err := engine.ResumeTurn(ctx, outcome.ThreadID, "Say the deploy is done, all green.")
		require.NoError(t, err)
		require.Equal(t, steward.OutcomeSuspended, second.Status)
		require.Contains(t, second.Preview, "bob@example.com")
		require.Contains(t, second.Preview, "all green")
		require.False(t, second.State.NeedsInput)
	})

	t.Run("unrecognized decision re-suspends with the same prompt", func(t *testing.T) {
		caps := &fakeCaps{
			intent: steward.IntentEmail,
			extracts: []*steward.Record{
				fields(map[string]string{"to": "bob@example.com", "subject": "Hi", "body": "A quick hello."}),
			},
		}
		engine := newTestEngine(t, caps)

		outcome, err := engine.StartTurn(ctx, "", "email bob")
		require.NoError(t, err)
		require.Equal(t, steward.OutcomeSuspended, outcome.Status)

		again, err := engine.ResumeTurn(ctx, outcome.ThreadID, "maybe")
		require.NoError(t, err)
		require.Equal(t, steward.OutcomeSuspended, again.Status)
		require.Equal(t, outcome.Prompt, again.Prompt)
		require.Equal(t, steward.AwaitDecision, again.State.Awaiting)
		require.Nil(t, again.State.Approved)
	})

	t.Run("edit loop revises the draft then sends", func(t *testing.T) {
		caps := &fakeCaps{
			intent: steward.IntentEmail,
			extracts: []*steward.Record{
				fields(map[string]string{"to": "bob@example.com", "subject": "Lunch plans", "body": "Want to grab lunch at noon tomorrow?"}),
			},
			generated: `{"to": "", "subject": "", "body": "Lunch at noon tomorrow?"}`,
		}
		engine := newTestEngine(t, caps)

		outcome, err := engine.StartTurn(ctx, "", "email bob about lunch")
		require.NoError(t, err)

		edits, err := engine.ResumeTurn(ctx, outcome.ThreadID, "edit")
		require.NoError(t, err)
		require.Equal(t, steward.OutcomeSuspended, edits.Status)
		require.Contains(t, edits.Prompt, "What would you like to change?")
		require.Equal(t, steward.AwaitEdits, edits.State.Awaiting)

		revised, err := engine.ResumeTurn(ctx, outcome.ThreadID, "make it shorter")
		require.NoError(t, err)
		require.Equal(t, steward.OutcomeSuspended, revised.Status)
		require.Contains(t, revised.Preview, "Lunch at noon tomorrow?")
		require.Equal(t, steward.AwaitDecision, revised.State.Awaiting)
		// The empty edited fields must not blank confirmed values.
		require.Equal(t, "bob@example.com", revised.State.Email.To)
		require.Equal(t, "Lunch plans", revised.State.Email.Subject)

		final, err := engine.ResumeTurn(ctx, outcome.ThreadID, "send")
		require.NoError(t, err)
		require.Equal(t, steward.ResultStatusSuccess, final.Result.Status)
	})

	t.Run("cancel aborts without sending", func(t *testing.T) {
		caps := &fakeCaps{
			intent: steward.IntentEmail,
			extracts: []*steward.Record{
				fields(map[string]string{"to": "bob@example.com", "subject": "Hi", "body": "A quick hello."}),
			},
		}
		engine := newTestEngine(t, caps)

		outcome, err := engine.StartTurn(ctx, "", "email bob")
		require.NoError(t, err)

		final, err := engine.ResumeTurn(ctx, outcome.ThreadID, "cancel")
		require.NoError(t, err)
		require.Equal(t, steward.OutcomeCompleted, final.Status)
		require.Equal(t, steward.ResultStatusError, final.Result.Status)
		require.Equal(t, "cancelled by user", final.Result.Message)
		require.NotNil(t, final.State.Approved)
		require.False(t, *final.State.Approved)

		_, err = engine.ResumeTurn(ctx, outcome.ThreadID, "send")
		require.True(t, steward.IsStaleResume(err))
	})

	t.Run("extraction failure suspends with a generic re-ask", func(t *testing.T) {
		caps := &fakeCaps{
			intent:     steward.IntentEmail,
			extractErr: errors.New("model unavailable"),
		}
		engine := newTestEngine(t, caps)

		outcome, err := engine.StartTurn(ctx, "", "email bob")
		require.NoError(t, err)
		require.Equal(t, steward.OutcomeSuspended, outcome.Status)
		require.Contains(t, outcome.Prompt, "Could not extract email details")
		require.NotEmpty(t, outcome.State.Error)
	})
}

func TestSocialFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("missing topic suspends, then posts after approval", func(t *testing.T) {
		caps := &fakeCaps{
			intent: steward.IntentSocial,
			extracts: []*steward.Record{
				fields(map[string]string{}),
				fields(map[string]string{"topic": "our beta launch"}),
			},
			generateErr: errors.New("no model"),
		}
		engine := newTestEngine(t, caps)

		outcome, err := engine.StartTurn(ctx, "", "write a linkedin post")
		require.NoError(t, err)
		require.Equal(t, steward.OutcomeSuspended, outcome.Status)
		require.Contains(t, outcome.Prompt, "Missing social post information: topic")

		gate, err := engine.ResumeTurn(ctx, outcome.ThreadID, "it's about our beta launch")
		require.NoError(t, err)
		require.Equal(t, steward.OutcomeSuspended, gate.Status)
		require.Contains(t, gate.Preview, "SOCIAL POST PREVIEW")
		require.Contains(t, gate.Preview, "our beta launch")
		require.Contains(t, gate.Prompt, "Type 'post' to approve")
		require.Equal(t, "professional", gate.State.Social.Tone)
		require.Equal(t, "medium", gate.State.Social.Length)

		final, err := engine.ResumeTurn(ctx, outcome.ThreadID, "post")
		require.NoError(t, err)
		require.Equal(t, steward.ResultStatusSuccess, final.Result.Status)
	})

	t.Run("fallback draft carries tags and links", func(t *testing.T) {
		caps := &fakeCaps{
			intent: steward.IntentSocial,
			extracts: []*steward.Record{
				{
					Fields: map[string]string{"topic": "hiring Go engineers"},
					Lists: map[string][]string{
						"hashtags": {"#golang"},
						"urls":     {"https://example.com/jobs"},
					},
				},
			},
			generateErr: errors.New("no model"),
		}
		engine := newTestEngine(t, caps)

		outcome, err := engine.StartTurn(ctx, "", "post about hiring #golang https://example.com/jobs")
		require.NoError(t, err)
		require.Equal(t, steward.OutcomeSuspended, outcome.Status)
		require.Contains(t, outcome.Preview, "hiring Go engineers")
		require.Contains(t, outcome.Preview, "#golang")
		require.Contains(t, outcome.Preview, "https://example.com/jobs")
	})
}

func TestCalendarFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("sparse request still reaches the gate", func(t *testing.T) {
		caps := &fakeCaps{
			intent: steward.IntentCalendar,
			extracts: []*steward.Record{
				fields(map[string]string{"summary": "submit the report"}),
			},
		}
		engine := newTestEngine(t, caps)

		outcome, err := engine.StartTurn(ctx, "", "Remind me to submit the report")
		require.NoError(t, err)
		require.Equal(t, steward.OutcomeSuspended, outcome.Status)
		require.Contains(t, outcome.Preview, "CALENDAR EVENT PREVIEW")
		require.Contains(t, outcome.Preview, "submit the report")
		require.Contains(t, outcome.Prompt, "Type 'create' to approve")
		require.False(t, outcome.State.NeedsInput)
		require.NotEmpty(t, outcome.State.Calendar.Start)
		require.NotEmpty(t, outcome.State.Calendar.End)

		final, err := engine.ResumeTurn(ctx, outcome.ThreadID, "create")
		require.NoError(t, err)
		require.Equal(t, steward.ResultStatusSuccess, final.Result.Status)
	})

	t.Run("extraction failure still produces a draft", func(t *testing.T) {
		caps := &fakeCaps{
			intent:     steward.IntentCalendar,
			extractErr: errors.New("model unavailable"),
		}
		engine := newTestEngine(t, caps)

		outcome, err := engine.StartTurn(ctx, "", "Schedule something for tomorrow")
		require.NoError(t, err)
		require.Equal(t, steward.OutcomeSuspended, outcome.Status)
		require.Contains(t, outcome.Preview, "CALENDAR EVENT PREVIEW")
		require.NotEmpty(t, outcome.State.Calendar.Summary)
	})
}

func TestChatFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("chat completes in one shot", func(t *testing.T) {
		caps := &fakeCaps{
			intent:    steward.IntentChat,
			generated: "Why do programmers prefer dark mode? Light attracts bugs.",
		}
		engine := newTestEngine(t, caps)

		outcome, err := engine.StartTurn(ctx, "", "tell me a joke")
		require.NoError(t, err)
		require.Equal(t, steward.OutcomeCompleted, outcome.Status)
		require.Equal(t, steward.ResultStatusSuccess, outcome.Result.Status)
		require.Contains(t, outcome.Result.Message, "dark mode")

		conversation := outcome.State.Conversation
		require.Len(t, conversation, 2)
		require.Equal(t, steward.RoleUser, conversation[0].Role)
		require.Equal(t, steward.RoleAssistant, conversation[1].Role)
	})

	t.Run("generation failure falls back to a canned reply", func(t *testing.T) {
		caps := &fakeCaps{
			intent:      steward.IntentChat,
			generateErr: errors.New("no model"),
		}
		engine := newTestEngine(t, caps)

		outcome, err := engine.StartTurn(ctx, "", "hello there")
		require.NoError(t, err)
		require.Equal(t, steward.OutcomeCompleted, outcome.Status)
		require.Contains(t, outcome.Result.Message, "send emails")
	})

	t.Run("classifier failure falls back to keywords", func(t *testing.T) {
		caps := &fakeCaps{
			classifyErr: errors.New("model unavailable"),
			extracts: []*steward.Record{
				fields(map[string]string{"to": "bob@example.com", "subject": "Hi", "body": "A quick hello."}),
			},
		}
		engine := newTestEngine(t, caps)

		outcome, err := engine.StartTurn(ctx, "", "Email bob@example.com saying hi")
		require.NoError(t, err)
		require.Equal(t, steward.OutcomeSuspended, outcome.Status)
		require.Equal(t, steward.IntentEmail, outcome.State.Intent)
	})
}

func TestConversationGrowsAcrossTurns(t *testing.T) {
	ctx := context.Background()
	caps := &fakeCaps{intent: steward.IntentChat, generated: "hi back"}
	engine := newTestEngine(t, caps)

	first, err := engine.StartTurn(ctx, "", "hello")
	require.NoError(t, err)
	second, err := engine.StartTurn(ctx, first.ThreadID, "still there?")
	require.NoError(t, err)

	require.Len(t, second.State.Conversation, 4)
	require.Equal(t, "hello", second.State.Conversation[0].Content)
	require.Equal(t, "still there?", second.State.Conversation[2].Content)
}

func TestNewGraphValidation(t *testing.T) {
	caps := &fakeCaps{intent: steward.IntentChat}

	_, err := NewGraph(Options{Extractor: caps, Generator: caps, Actions: steward.NewNullActions(nil)})
	require.True(t, steward.IsValidation(err))

	_, err = NewGraph(Options{Classifier: caps, Generator: caps, Actions: steward.NewNullActions(nil)})
	require.True(t, steward.IsValidation(err))

	_, err = NewGraph(Options{Classifier: caps, Extractor: caps, Actions: steward.NewNullActions(nil)})
	require.True(t, steward.IsValidation(err))

	_, err = NewGraph(Options{Classifier: caps, Extractor: caps, Generator: caps})
	require.True(t, steward.IsValidation(err))
}
