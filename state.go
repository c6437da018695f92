package steward

// Intent labels the kind of action a user request maps to.
type Intent string

const (
	IntentEmail    Intent = "email"
	IntentSocial   Intent = "social"
	IntentCalendar Intent = "calendar"
	IntentChat     Intent = "chat"
)

// ValidIntent reports whether the given label is a known intent.
func ValidIntent(i Intent) bool {
	switch i {
	case IntentEmail, IntentSocial, IntentCalendar, IntentChat:
		return true
	}
	return false
}

// Message roles in the conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn in the conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AwaitPhase marks which phase of the approval gate a paused thread is in.
type AwaitPhase string

const (
	AwaitDecision AwaitPhase = "decision"
	AwaitEdits    AwaitPhase = "edits"
)

// ActionResult is the outcome of a terminal action for one turn.
type ActionResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

const (
	ResultStatusSuccess = "success"
	ResultStatusError   = "error"
)

// EmailFields is the structured payload for the email channel.
type EmailFields struct {
	To         string `json:"to,omitempty"`
	Subject    string `json:"subject,omitempty"`
	Body       string `json:"body,omitempty"`
	SenderName string `json:"sender_name,omitempty"`
}

// SocialFields is the structured payload for the social post channel.
type SocialFields struct {
	Topic         string   `json:"topic,omitempty"`
	Tone          string   `json:"tone,omitempty"`
	Length        string   `json:"length,omitempty"`
	Audience      string   `json:"audience,omitempty"`
	Hashtags      []string `json:"hashtags,omitempty"`
	Mentions      []string `json:"mentions,omitempty"`
	URLs          []string `json:"urls,omitempty"`
	GeneratedText string   `json:"generated_text,omitempty"`
}

// CalendarFields is the structured payload for the calendar channel.
// Start and End are ISO 8601 datetime strings.
type CalendarFields struct {
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start,omitempty"`
	End         string `json:"end,omitempty"`
}

// WorkflowState is the full per-thread conversation state. It is designed to
// be fully JSON serializable so every field survives a checkpoint round trip.
type WorkflowState struct {
	// Conversation is append-only: new turns are concatenated, never
	// rewritten.
	Conversation []Message `json:"conversation"`

	// RequestText is the latest raw user utterance for this turn.
	RequestText string `json:"request_text,omitempty"`

	Intent Intent `json:"intent,omitempty"`

	Email    EmailFields    `json:"email,omitzero"`
	Social   SocialFields   `json:"social,omitzero"`
	Calendar CalendarFields `json:"calendar,omitzero"`

	Awaiting    AwaitPhase `json:"awaiting,omitempty"`
	NeedsInput  bool       `json:"needs_input,omitempty"`
	HumanPrompt string     `json:"human_prompt,omitempty"`
	Preview     string     `json:"preview,omitempty"`

	// Approved is tri-state: nil until the human decides.
	Approved *bool `json:"approved,omitempty"`

	Result *ActionResult `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// NewWorkflowState returns the state for a brand new thread.
func NewWorkflowState() *WorkflowState {
	return &WorkflowState{
		Conversation: []Message{},
		Awaiting:     AwaitDecision,
	}
}

// Clone returns a deep copy of the state.
func (s *WorkflowState) Clone() *WorkflowState {
	dup := *s
	dup.Conversation = make([]Message, len(s.Conversation))
	copy(dup.Conversation, s.Conversation)
	dup.Social.Hashtags = copyStrings(s.Social.Hashtags)
	dup.Social.Mentions = copyStrings(s.Social.Mentions)
	dup.Social.URLs = copyStrings(s.Social.URLs)
	if s.Approved != nil {
		v := *s.Approved
		dup.Approved = &v
	}
	if s.Result != nil {
		r := *s.Result
		dup.Result = &r
	}
	return &dup
}

// AppendMessage concatenates a message onto the conversation history.
func (s *WorkflowState) AppendMessage(role, content string) {
	s.Conversation = append(s.Conversation, Message{Role: role, Content: content})
}

// SetApproved records the human's approval decision.
func (s *WorkflowState) SetApproved(approved bool) {
	s.Approved = &approved
}

// BeginTurn resets all turn-scoped fields for a fresh top-level request,
// preserving the conversation history. The new user message is appended and
// becomes the request text for the turn.
func (s *WorkflowState) BeginTurn(requestText string) {
	s.RequestText = requestText
	s.Intent = ""
	s.Email = EmailFields{}
	s.Social = SocialFields{}
	s.Calendar = CalendarFields{}
	s.Awaiting = AwaitDecision
	s.NeedsInput = false
	s.HumanPrompt = ""
	s.Preview = ""
	s.Approved = nil
	s.Result = nil
	s.Error = ""
	s.AppendMessage(RoleUser, requestText)
}

// Snapshot returns a flat view of the routing-relevant fields, used as the
// globals for edge condition evaluation.
func (s *WorkflowState) Snapshot() map[string]any {
	approved := false
	if s.Approved != nil {
		approved = *s.Approved
	}
	return map[string]any{
		"intent":      string(s.Intent),
		"awaiting":    string(s.Awaiting),
		"needs_input": s.NeedsInput,
		"approved":    approved,
		"error":       s.Error,
	}
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
