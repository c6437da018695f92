package steward

import "context"

// FieldSpec describes one field a channel extractor should pull from text.
type FieldSpec struct {
	Name        string
	Description string

	// Critical fields block the composer until the human supplies them.
	Critical bool
}

// Schema is the target shape for a field extraction call.
type Schema struct {
	Channel string
	Fields  []FieldSpec
}

// CriticalFields returns the names of the schema's critical fields.
func (s Schema) CriticalFields() []string {
	var names []string
	for _, field := range s.Fields {
		if field.Critical {
			names = append(names, field.Name)
		}
	}
	return names
}

// Record is a partial extraction result: the non-empty fields that were
// found plus the required fields the extractor could not fill.
type Record struct {
	Fields  map[string]string
	Lists   map[string][]string
	Missing []string
}

// Get returns a scalar field value, empty when absent.
func (r *Record) Get(name string) string {
	if r == nil || r.Fields == nil {
		return ""
	}
	return r.Fields[name]
}

// GetList returns a list field value, nil when absent.
func (r *Record) GetList(name string) []string {
	if r == nil || r.Lists == nil {
		return nil
	}
	return r.Lists[name]
}

// Classifier labels a request with one of the known intents.
type Classifier interface {
	Classify(ctx context.Context, text string) (Intent, error)
}

// Extractor pulls a partial structured record out of free text.
type Extractor interface {
	Extract(ctx context.Context, text string, schema Schema) (*Record, error)
}

// Generator produces text from a prompt: drafting, editing, chat replies.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Searcher is an optional lookup capability consulted by the chat responder.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Actions are the side-effecting channel operations, implemented externally
// and injected into the terminal send nodes.
type Actions interface {
	SendEmail(ctx context.Context, email EmailFields) (*ActionResult, error)
	PublishPost(ctx context.Context, text string) (*ActionResult, error)
	CreateCalendarEvent(ctx context.Context, event CalendarFields) (*ActionResult, error)
}
