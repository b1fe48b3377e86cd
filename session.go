package realtime

import (
	"context"
	"errors"
	"fmt"
)

// Session defines the configuration for a realtime conversation session.
// A session update built from the client Config is sent automatically once
// per Ready transition; further updates may be sent at any time.
type Session struct {
	// Modalities selects the output types the assistant should produce.
	// Supported values: "text", "audio".
	Modalities []string `json:"modalities,omitempty"`

	// Instructions provide system-level guidance to the assistant.
	Instructions *string `json:"instructions,omitempty"`

	// Voice specifies which voice to use for audio responses.
	Voice *string `json:"voice,omitempty"`

	// InputAudioFormat specifies the format for audio input from the client.
	// Only "pcm16" (16-bit little-endian PCM at 24kHz) is used here.
	InputAudioFormat *string `json:"input_audio_format,omitempty"`

	// OutputAudioFormat specifies the format for assistant audio output.
	OutputAudioFormat *string `json:"output_audio_format,omitempty"`

	// Temperature controls sampling randomness (0.0-2.0).
	Temperature *float64 `json:"temperature,omitempty"`
}

// SessionUpdate sends a session configuration update to the endpoint.
func (c *Client) SessionUpdate(ctx context.Context, s Session) error {
	if ctx == nil {
		return errors.New("realtime: context cannot be nil")
	}
	if err := ValidateSession(s); err != nil {
		return err
	}
	payload := map[string]any{"type": "session.update", "session": s}
	return c.send(ctx, payload)
}

// ValidateSession performs validation on session configuration.
func ValidateSession(s Session) error {
	for _, m := range s.Modalities {
		if m != "text" && m != "audio" {
			return fmt.Errorf("realtime: invalid modality %q, must be 'text' or 'audio'", m)
		}
	}
	if s.Temperature != nil && (*s.Temperature < 0 || *s.Temperature > 2) {
		return fmt.Errorf("realtime: temperature must be between 0.0 and 2.0, got %f", *s.Temperature)
	}
	if s.InputAudioFormat != nil && *s.InputAudioFormat != "pcm16" {
		return fmt.Errorf("realtime: invalid input audio format %q, must be 'pcm16'", *s.InputAudioFormat)
	}
	if s.OutputAudioFormat != nil && *s.OutputAudioFormat != "pcm16" {
		return fmt.Errorf("realtime: invalid output audio format %q, must be 'pcm16'", *s.OutputAudioFormat)
	}
	if s.Instructions != nil && len(*s.Instructions) > 10000 {
		return fmt.Errorf("realtime: instructions too long (%d characters), maximum is 10000", len(*s.Instructions))
	}
	return nil
}

// sendSessionInit sends the session-initialization update derived from the
// client configuration. Called exactly once per Ready transition.
func (c *Client) sendSessionInit() error {
	s := Session{
		Modalities:        []string{"text", "audio"},
		InputAudioFormat:  Ptr("pcm16"),
		OutputAudioFormat: Ptr("pcm16"),
	}
	if c.cfg.Voice != "" {
		s.Voice = Ptr(c.cfg.Voice)
	}
	if c.cfg.Instructions != "" {
		s.Instructions = Ptr(c.cfg.Instructions)
	}
	if c.cfg.Temperature != 0 {
		s.Temperature = Ptr(c.cfg.Temperature)
	}
	return c.SessionUpdate(context.Background(), s)
}

// ResponseOptions configures a response.create request.
type ResponseOptions struct {
	// Modalities selects output types for this response. Empty means the
	// session default.
	Modalities []string `json:"modalities,omitempty"`

	// Instructions provide response-specific guidance, overriding session
	// instructions for this one response.
	Instructions string `json:"instructions,omitempty"`

	// InputText, when set, is sent as an inline user message so a text turn
	// can be requested without committing audio.
	InputText string `json:"-"`
}

// CreateResponse requests the assistant to generate a response.
// The response itself is delivered through the registered event handlers.
func (c *Client) CreateResponse(ctx context.Context, opts ResponseOptions) error {
	if ctx == nil {
		return errors.New("realtime: context cannot be nil")
	}
	for _, m := range opts.Modalities {
		if m != "text" && m != "audio" {
			return fmt.Errorf("realtime: invalid modality %q, must be 'text' or 'audio'", m)
		}
	}
	if len(opts.Instructions) > 10000 {
		return fmt.Errorf("realtime: instructions too long (%d characters), maximum is 10000", len(opts.Instructions))
	}

	response := map[string]any{}
	if len(opts.Modalities) > 0 {
		response["modalities"] = opts.Modalities
	}
	if opts.Instructions != "" {
		response["instructions"] = opts.Instructions
	}
	if opts.InputText != "" {
		response["input"] = []any{
			map[string]any{
				"type": "message",
				"role": "user",
				"content": []any{
					map[string]any{"type": "input_text", "text": opts.InputText},
				},
			},
		}
	}
	payload := map[string]any{"type": "response.create", "response": response}
	return c.send(ctx, payload)
}

// DeleteItem removes a conversation item from the server-side history.
func (c *Client) DeleteItem(ctx context.Context, itemID string) error {
	if ctx == nil {
		return errors.New("realtime: context cannot be nil")
	}
	if itemID == "" {
		return errors.New("realtime: item ID is required")
	}
	payload := map[string]any{"type": "conversation.item.delete", "item_id": itemID}
	return c.send(ctx, payload)
}

// KeepAlive sends the no-op ping event used as the session heartbeat.
func (c *Client) KeepAlive(ctx context.Context) error {
	if ctx == nil {
		return errors.New("realtime: context cannot be nil")
	}
	return c.send(ctx, map[string]any{"type": "ping"})
}
