package capability

import (
	"context"
	"testing"

	"github.com/stewardhq/steward"
	"github.com/stretchr/testify/require"
)

func TestHeuristicClassify(t *testing.T) {
	heuristic := NewHeuristic()
	ctx := context.Background()

	tests := []struct {
		text string
		want steward.Intent
	}{
		{"Email bob@example.com about the launch", steward.IntentEmail},
		{"send to alice@corp.io saying hi", steward.IntentEmail},
		{"Share a LinkedIn post about our new release", steward.IntentSocial},
		{"publish something about hiring", steward.IntentSocial},
		{"Schedule a meeting with the platform team", steward.IntentCalendar},
		{"Remind me to submit the report", steward.IntentCalendar},
		{"Tell me a joke", steward.IntentChat},
		{"what's the capital of France?", steward.IntentChat},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			intent, err := heuristic.Classify(ctx, tt.text)
			require.NoError(t, err)
			require.Equal(t, tt.want, intent)
		})
	}
}

func TestHeuristicExtract(t *testing.T) {
	heuristic := NewHeuristic()
	ctx := context.Background()

	emailSchema := steward.Schema{
		Channel: string(steward.IntentEmail),
		Fields: []steward.FieldSpec{
			{Name: "to", Critical: true},
			{Name: "subject"},
			{Name: "body", Critical: true},
		},
	}

	t.Run("email address and quoted body", func(t *testing.T) {
		record, err := heuristic.Extract(ctx, `Email bob@example.com saying "lunch at noon?"`, emailSchema)
		require.NoError(t, err)
		require.Equal(t, "bob@example.com", record.Get("to"))
		require.Equal(t, "lunch at noon?", record.Get("body"))
		require.Empty(t, record.Missing)
	})

	t.Run("missing criticals are reported", func(t *testing.T) {
		record, err := heuristic.Extract(ctx, "send an email", emailSchema)
		require.NoError(t, err)
		require.Equal(t, []string{"to", "body"}, record.Missing)
	})

	t.Run("social topic tags and mentions", func(t *testing.T) {
		schema := steward.Schema{
			Channel: string(steward.IntentSocial),
			Fields: []steward.FieldSpec{
				{Name: "topic", Critical: true},
				{Name: "tone"},
				{Name: "hashtags"},
				{Name: "mentions"},
				{Name: "urls"},
			},
		}
		record, err := heuristic.Extract(ctx,
			`Post about our beta launch with @acme, keep it professional #golang https://example.com`, schema)
		require.NoError(t, err)
		require.Contains(t, record.Get("topic"), "beta launch")
		require.Equal(t, "professional", record.Get("tone"))
		require.Equal(t, []string{"#golang"}, record.GetList("hashtags"))
		require.Equal(t, []string{"@acme"}, record.GetList("mentions"))
		require.Equal(t, []string{"https://example.com"}, record.GetList("urls"))
	})

	t.Run("email addresses are not mentions", func(t *testing.T) {
		schema := steward.Schema{
			Channel: string(steward.IntentSocial),
			Fields:  []steward.FieldSpec{{Name: "topic", Critical: true}, {Name: "mentions"}},
		}
		record, err := heuristic.Extract(ctx, "Post about reaching me at bob@example.com", schema)
		require.NoError(t, err)
		require.Empty(t, record.GetList("mentions"))
	})

	t.Run("calendar summary", func(t *testing.T) {
		schema := steward.Schema{
			Channel: string(steward.IntentCalendar),
			Fields:  []steward.FieldSpec{{Name: "summary"}, {Name: "start"}},
		}
		record, err := heuristic.Extract(ctx, "Remind me to submit the report", schema)
		require.NoError(t, err)
		require.Equal(t, "submit the report", record.Get("summary"))
		require.Empty(t, record.Missing)
	})
}

func TestHeuristicGenerate(t *testing.T) {
	_, err := NewHeuristic().Generate(context.Background(), "write anything")
	require.Error(t, err)
	require.True(t, steward.IsErrorType(err, steward.ErrorTypeExtraction))
}
