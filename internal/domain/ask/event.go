package ask

// EventType discriminates stream events on the wire.
type EventType string

// Stream event types. A well-formed stream matches the grammar
// Retrieval? Token* (Stats Done | Error) with exactly one terminal
// event (Done or Error).
const (
	EventRetrieval EventType = "retrieval"
	EventToken     EventType = "token"
	EventStats     EventType = "stats"
	EventDone      EventType = "done"
	EventError     EventType = "error"
)

// Stats summarizes a completed answer.
type Stats struct {
	ChunksRetrieved int     `json:"chunks_retrieved"`
	TokensUsed      int     `json:"tokens_used"`
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
}

// Event is one element of the ordered answer stream.
type Event struct {
	Type    EventType `json:"type"`
	Content string    `json:"content,omitempty"`
	Chunks  int       `json:"chunks,omitempty"`
	Stats   *Stats    `json:"stats,omitempty"`
	Error   string    `json:"error,omitempty"`
	Code    string    `json:"code,omitempty"`
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}

// Retrieval builds a retrieval notice event.
func Retrieval(chunks int) Event { return Event{Type: EventRetrieval, Chunks: chunks} }

// Token builds a token delta event.
func Token(text string) Event { return Event{Type: EventToken, Content: text} }

// StatsEvent builds a stats event.
func StatsEvent(s Stats) Event { return Event{Type: EventStats, Stats: &s} }

// Done builds the success terminal event.
func Done() Event { return Event{Type: EventDone} }

// Error builds the failure terminal event.
func Error(code, message string) Event { return Event{Type: EventError, Code: code, Error: message} }
