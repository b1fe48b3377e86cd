package realtime

// envelope is used for initial JSON parsing to determine the event type
// before unmarshaling into the specific event struct.
type envelope struct {
	Type string `json:"type"`
}

// ProxyConnected is the relay's readiness acknowledgment: the upstream leg is
// established and frames will be forwarded from now on. The client does not
// report itself connected until this event arrives.
type ProxyConnected struct {
	Type string `json:"type"` // Always "proxy.connected"
}

// ErrorEvent represents an error reported by the vendor endpoint.
// These are surfaced to the user and do not terminate the session.
type ErrorEvent struct {
	Type  string `json:"type"` // Always "error"
	Error struct {
		Type    string `json:"type,omitempty"`    // Error category (e.g., "invalid_request_error")
		Code    string `json:"code,omitempty"`    // Vendor error code, if any
		Message string `json:"message,omitempty"` // Human-readable error description
	} `json:"error"`
}

// APIError converts the wire event into the package error type.
func (e ErrorEvent) APIError() *APIError {
	return &APIError{Kind: e.Error.Type, Code: e.Error.Code, Message: e.Error.Message}
}

// SessionCreated is sent by the server when a new session is established.
type SessionCreated struct {
	Type    string `json:"type"`     // Always "session.created"
	EventID string `json:"event_id"` // Unique identifier for this event
	Session struct {
		ID         string   `json:"id"`                   // Unique session identifier
		Model      string   `json:"model"`                // Model serving this session
		Modalities []string `json:"modalities,omitempty"` // Supported modalities: ["text", "audio"]
		Voice      string   `json:"voice,omitempty"`      // Voice used for audio responses
	} `json:"session"`
}

// SessionUpdated is sent after a session.update event is accepted.
type SessionUpdated struct {
	Type    string `json:"type"`               // Always "session.updated"
	EventID string `json:"event_id,omitempty"` // Event identifier (may be empty)
	Session any    `json:"session"`            // Updated session configuration (dynamic structure)
}

// ConversationCreated is sent when the server opens the conversation that
// subsequent items belong to.
type ConversationCreated struct {
	Type         string `json:"type"`     // Always "conversation.created"
	EventID      string `json:"event_id"` // Unique identifier for this event
	Conversation struct {
		ID string `json:"id"` // Unique conversation identifier
	} `json:"conversation"`
}

// ContentPart is one piece of content inside a conversation item.
type ContentPart struct {
	Type       string `json:"type"`                 // "input_text", "input_audio", "text", "audio"
	Text       string `json:"text,omitempty"`       // Text content
	Transcript string `json:"transcript,omitempty"` // Transcript of audio content
}

// ConversationItem is a single message or audio utterance in the conversation.
type ConversationItem struct {
	ID      string        `json:"id,omitempty"`      // Unique item identifier
	Type    string        `json:"type,omitempty"`    // "message" or "function_call"
	Role    string        `json:"role,omitempty"`    // "user", "assistant" or "system"
	Status  string        `json:"status,omitempty"`  // "completed", "in_progress", ...
	Content []ContentPart `json:"content,omitempty"` // Content parts
}

// Transcript returns the first transcript or text found in the item's content.
// User items created from committed audio carry their transcription here.
func (i ConversationItem) Transcript() string {
	for _, p := range i.Content {
		if p.Transcript != "" {
			return p.Transcript
		}
		if p.Text != "" {
			return p.Text
		}
	}
	return ""
}

// ConversationItemCreated indicates that a conversation item has been created.
// For user items this carries the transcript of the committed audio.
type ConversationItemCreated struct {
	Type           string           `json:"type"`             // Always "conversation.item.created"
	EventID        string           `json:"event_id"`         // Unique identifier for this event
	PreviousItemID string           `json:"previous_item_id"` // The ID of the preceding item
	Item           ConversationItem `json:"item"`             // The created conversation item
}

// ConversationItemDeleted indicates that a conversation item has been deleted.
type ConversationItemDeleted struct {
	Type    string `json:"type"`     // Always "conversation.item.deleted"
	EventID string `json:"event_id"` // Unique identifier for this event
	ItemID  string `json:"item_id"`  // The ID of the deleted item
}

// InputAudioBufferCommitted acknowledges an input_audio_buffer.commit: the
// buffered audio span is now a complete user utterance.
type InputAudioBufferCommitted struct {
	Type           string `json:"type"`             // Always "input_audio_buffer.committed"
	EventID        string `json:"event_id"`         // Unique identifier for this event
	PreviousItemID string `json:"previous_item_id"` // The ID of the preceding item in the conversation
	ItemID         string `json:"item_id"`          // The ID of the user message item that will be created
}

// InputAudioBufferCleared acknowledges an input_audio_buffer.clear.
type InputAudioBufferCleared struct {
	Type    string `json:"type"`     // Always "input_audio_buffer.cleared"
	EventID string `json:"event_id"` // Unique identifier for this event
}

// Usage summarizes token consumption for a completed response.
type Usage struct {
	TotalTokens  int `json:"total_tokens"`
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ResponseObject is the response resource carried by response lifecycle events.
type ResponseObject struct {
	ID     string             `json:"id"`               // Unique response identifier
	Status string             `json:"status,omitempty"` // "in_progress", "completed", "cancelled", ...
	Output []ConversationItem `json:"output,omitempty"` // Output items produced so far
	Usage  *Usage             `json:"usage,omitempty"`  // Token usage (response.done only)
}

// ResponseCreated indicates a new assistant response has started.
// This is the event that lifts stale-event suppression after barge-in.
type ResponseCreated struct {
	Type     string         `json:"type"`     // Always "response.created"
	EventID  string         `json:"event_id"` // Unique identifier for this event
	Response ResponseObject `json:"response"` // The response resource
}

// ResponseDone indicates that a response is complete, carrying usage counters.
type ResponseDone struct {
	Type     string         `json:"type"`     // Always "response.done"
	EventID  string         `json:"event_id"` // Unique identifier for this event
	Response ResponseObject `json:"response"` // The final response resource
}

// ResponseOutputItemAdded indicates a new output item was added to a response.
type ResponseOutputItemAdded struct {
	Type        string           `json:"type"`         // Always "response.output_item.added"
	EventID     string           `json:"event_id"`     // Unique identifier for this event
	ResponseID  string           `json:"response_id"`  // The ID of the response
	OutputIndex int              `json:"output_index"` // The index of the output item
	Item        ConversationItem `json:"item"`         // The item that was added
}

// ResponseOutputItemDone indicates an output item is complete.
type ResponseOutputItemDone struct {
	Type        string           `json:"type"`         // Always "response.output_item.done"
	EventID     string           `json:"event_id"`     // Unique identifier for this event
	ResponseID  string           `json:"response_id"`  // The ID of the response
	OutputIndex int              `json:"output_index"` // The index of the output item
	Item        ConversationItem `json:"item"`         // The completed item
}

// ResponseTextDelta contains incremental text content from the assistant.
type ResponseTextDelta struct {
	Type         string `json:"type"`          // Always "response.text.delta"
	ResponseID   string `json:"response_id"`   // Unique identifier for the response
	ItemID       string `json:"item_id"`       // Identifier for the content item
	OutputIndex  int    `json:"output_index"`  // Index of this output in the response
	ContentIndex int    `json:"content_index"` // Index of this content within the output
	Delta        string `json:"delta"`         // Incremental text content
}

// ResponseTextDone signals completion of a text response.
type ResponseTextDone struct {
	Type         string `json:"type"`          // Always "response.text.done"
	ResponseID   string `json:"response_id"`   // Unique identifier for the response
	ItemID       string `json:"item_id"`       // Identifier for the content item
	OutputIndex  int    `json:"output_index"`  // Index of this output in the response
	ContentIndex int    `json:"content_index"` // Index of this content within the output
	Text         string `json:"text"`          // Complete text content (may be empty if using deltas)
}

// ResponseAudioDelta contains incremental audio from the assistant:
// base64-encoded PCM16, mono, 24 kHz.
type ResponseAudioDelta struct {
	Type         string `json:"type"`          // Always "response.audio.delta"
	ResponseID   string `json:"response_id"`   // Unique identifier for the response
	ItemID       string `json:"item_id"`       // Identifier for the content item
	OutputIndex  int    `json:"output_index"`  // Index of this output in the response
	ContentIndex int    `json:"content_index"` // Index of this content within the output
	DeltaBase64  string `json:"delta"`         // Base64-encoded PCM16 audio data
}

// ResponseAudioDone signals the server has finished streaming audio for a
// response. Local playback may still be draining when this arrives.
type ResponseAudioDone struct {
	Type         string `json:"type"`          // Always "response.audio.done"
	ResponseID   string `json:"response_id"`   // Unique identifier for the response
	ItemID       string `json:"item_id"`       // Identifier for the content item
	OutputIndex  int    `json:"output_index"`  // Index of this output in the response
	ContentIndex int    `json:"content_index"` // Index of this content within the output
}

// ResponseAudioTranscriptDelta contains incremental transcript of the
// assistant's audio response.
type ResponseAudioTranscriptDelta struct {
	Type         string `json:"type"`          // Always "response.audio_transcript.delta"
	EventID      string `json:"event_id"`      // Unique identifier for this event
	ResponseID   string `json:"response_id"`   // The ID of the response
	ItemID       string `json:"item_id"`       // The ID of the item
	OutputIndex  int    `json:"output_index"`  // The index of the output item
	ContentIndex int    `json:"content_index"` // The index of the content part
	Delta        string `json:"delta"`         // The incremental transcript text
}

// ResponseAudioTranscriptDone indicates the audio transcript is complete.
type ResponseAudioTranscriptDone struct {
	Type         string `json:"type"`          // Always "response.audio_transcript.done"
	EventID      string `json:"event_id"`      // Unique identifier for this event
	ResponseID   string `json:"response_id"`   // The ID of the response
	ItemID       string `json:"item_id"`       // The ID of the item
	OutputIndex  int    `json:"output_index"`  // The index of the output item
	ContentIndex int    `json:"content_index"` // The index of the content part
	Transcript   string `json:"transcript"`    // The final transcript text
}
