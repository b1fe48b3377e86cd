package realtime

import "strings"

// AssistantTurn accumulates the streamed output of a single response: text
// deltas, audio transcript deltas, and completion flags. The Coordinator
// owns one turn at a time and guards it with its own mutex, so the type
// itself is not synchronized.
type AssistantTurn struct {
	// ResponseID identifies the response this turn belongs to.
	ResponseID string

	text       strings.Builder
	transcript strings.Builder

	// TextDone reports whether the text stream finished.
	TextDone bool
	// AudioDone reports whether the audio stream finished.
	AudioDone bool

	// Usage holds token accounting from response.done, when present.
	Usage *Usage
}

// NewAssistantTurn starts an empty turn for the given response.
func NewAssistantTurn(responseID string) *AssistantTurn {
	return &AssistantTurn{ResponseID: responseID}
}

// AppendText adds a text delta to the turn.
func (t *AssistantTurn) AppendText(delta string) {
	t.text.WriteString(delta)
}

// AppendTranscript adds an audio transcript delta to the turn.
func (t *AssistantTurn) AppendTranscript(delta string) {
	t.transcript.WriteString(delta)
}

// Text returns the accumulated text so far.
func (t *AssistantTurn) Text() string {
	return t.text.String()
}

// Transcript returns the accumulated audio transcript so far.
func (t *AssistantTurn) Transcript() string {
	return t.transcript.String()
}
