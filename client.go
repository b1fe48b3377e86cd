package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

// State is the connection state of a Client.
//
// The lifecycle is Disconnected -> Connecting -> Open -> Ready, with Error
// reachable from Connecting/Open on failure. Sends are only effective in
// Ready; the heartbeat runs only in Ready; listening may only start after
// Ready.
type State int

const (
	// StateDisconnected means no connection exists. Terminal after Close or
	// after reconnect attempts are exhausted.
	StateDisconnected State = iota
	// StateConnecting means a dial is in progress.
	StateConnecting
	// StateOpen means the socket to the relay is open but the upstream leg is
	// not yet confirmed.
	StateOpen
	// StateReady means the relay acknowledged upstream readiness; the session
	// is fully usable.
	StateReady
	// StateError is a transient state surfaced on socket failure before the
	// client settles in StateDisconnected.
	StateError
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Client is the transport session: it owns one full-duplex connection to the
// relay, handles connect/reconnect/heartbeat, and dispatches inbound frames
// as typed events to registered handlers.
//
// The client uses an event-driven architecture where you register callback
// functions to handle different types of events received from the endpoint.
// Callbacks run synchronously in the read loop goroutine, in arrival order,
// and must not block.
type Client struct {
	cfg    Config
	logger *contextualLogger // cfg.Logger carrying per-session fields

	// Connection state
	writeMu sync.Mutex      // Protects writes to the WebSocket
	conn    *websocket.Conn // Underlying WebSocket connection

	mu            sync.Mutex    // Protects the fields below
	state         State         // Connection state machine
	manualClose   bool          // Set by Close; suppresses auto-reconnect
	heartbeatStop chan struct{} // Stops the keep-alive ticker

	closedCh  chan struct{} // Signals when the client is closed
	closeOnce sync.Once     // Ensures closedCh is only closed once

	// Event handlers - called when corresponding events are received
	handlerMu                      sync.RWMutex
	onStateChange                  func(State)                        // Called on every state transition
	onDisconnected                 func(error)                        // Called when the session is terminally disconnected
	onProtocolError                func(*ProtocolError)               // Called when a malformed frame is dropped
	onProxyConnected               func(ProxyConnected)               // Called on the relay readiness acknowledgment
	onError                        func(ErrorEvent)                   // Called for endpoint errors
	onSessionCreated               func(SessionCreated)               // Called when session is established
	onSessionUpdated               func(SessionUpdated)               // Called when session config changes
	onConversationCreated          func(ConversationCreated)          // Called when the conversation opens
	onConversationItemCreated      func(ConversationItemCreated)      // Called when a conversation item is created
	onConversationItemDeleted      func(ConversationItemDeleted)      // Called when a conversation item is deleted
	onInputAudioBufferCommitted    func(InputAudioBufferCommitted)    // Called when the audio buffer is committed
	onInputAudioBufferCleared      func(InputAudioBufferCleared)      // Called when the audio buffer is cleared
	onResponseCreated              func(ResponseCreated)              // Called when a response starts
	onResponseDone                 func(ResponseDone)                 // Called when a response completes
	onResponseOutputItemAdded      func(ResponseOutputItemAdded)      // Called when an output item is added
	onResponseOutputItemDone       func(ResponseOutputItemDone)       // Called when an output item completes
	onResponseTextDelta            func(ResponseTextDelta)            // Called for streaming text
	onResponseTextDone             func(ResponseTextDone)             // Called when text completes
	onResponseAudioDelta           func(ResponseAudioDelta)           // Called for streaming audio
	onResponseAudioDone            func(ResponseAudioDone)            // Called when audio streaming completes
	onResponseAudioTranscriptDelta func(ResponseAudioTranscriptDelta) // Called for streaming audio transcript
	onResponseAudioTranscriptDone  func(ResponseAudioTranscriptDone)  // Called when the transcript completes
}

// Dial connects to the relay and blocks until the relay confirms upstream
// readiness with a proxy.connected event. On readiness the client sends the
// session-initialization update and starts the keep-alive heartbeat, so the
// returned client is immediately usable.
//
// Returns a ConnectionError if the socket cannot be opened, and
// ErrUpstreamRejected if the socket opens but closes again before the
// readiness acknowledgment arrives.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	c := &Client{cfg: cfg, state: StateDisconnected, closedCh: make(chan struct{})}
	sessionFields := map[string]any{"relay": cfg.RelayURL}
	if cfg.Model != "" {
		sessionFields["model"] = cfg.Model
	}
	c.logger = cfg.Logger.WithContext(sessionFields)
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// relayURL builds the relay websocket URL carrying the credential and model
// as query parameters. Query parameters are the only channel a browser-style
// client has for credentials on a socket upgrade, and the relay contract
// mirrors that here.
func (c *Client) relayURL() (string, error) {
	u, err := url.Parse(c.cfg.RelayURL)
	if err != nil {
		return "", NewConfigError("RelayURL", c.cfg.RelayURL, "invalid URL format")
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	q := u.Query()
	if c.cfg.Token != "" {
		q.Set("token", c.cfg.Token)
	} else {
		q.Set("api_key", c.cfg.APIKey)
	}
	if c.cfg.Model != "" {
		q.Set("model", c.cfg.Model)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// connect performs one dial attempt and waits for the readiness
// acknowledgment. On success a supervisor goroutine watches the connection
// for unexpected closes.
func (c *Client) connect(ctx context.Context) error {
	u, err := c.relayURL()
	if err != nil {
		return err
	}

	c.setState(StateConnecting)

	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	defer cancel()

	ws, _, err := websocket.Dial(dialCtx, u, nil)
	if err != nil {
		c.setState(StateError)
		c.setState(StateDisconnected)
		return NewConnectionError(u, "dial", err)
	}
	// Audio deltas carry a few hundred ms of base64 PCM each; the default
	// 32KiB read limit is too small.
	ws.SetReadLimit(16 << 20)

	c.writeMu.Lock()
	c.conn = ws
	c.writeMu.Unlock()
	c.setState(StateOpen)
	c.log("ws_connected", map[string]any{"url": c.cfg.RelayURL})

	ready := make(chan struct{})
	done := make(chan struct{})
	go c.readLoop(ws, ready, done)

	select {
	case <-ready:
		go c.supervise(done)
		return nil
	case <-done:
		// Socket closed before the relay confirmed upstream readiness.
		c.stopHeartbeat()
		c.setState(StateError)
		c.setState(StateDisconnected)
		return ErrUpstreamRejected
	case <-ctx.Done():
		_ = ws.Close(websocket.StatusNormalClosure, "handshake abandoned")
		c.setState(StateError)
		c.setState(StateDisconnected)
		return NewConnectionError(u, "handshake", ctx.Err())
	}
}

// supervise waits for the current connection to end and drives the reconnect
// policy: after an unexpected close, up to MaxReconnectAttempts redials with
// a fixed ReconnectDelay between them. Attempts reset on a successful
// reconnect (connect starts a fresh supervisor). After exhausting attempts
// the session is terminally disconnected.
func (c *Client) supervise(done chan struct{}) {
	<-done
	c.stopHeartbeat()

	if c.isManualClose() {
		return // Close() owns the state transition
	}
	c.logWarn("connection_lost", nil)

	var lastErr error = ErrConnectionFailed
	for attempt := 1; attempt <= c.cfg.MaxReconnectAttempts; attempt++ {
		select {
		case <-c.closedCh:
			return
		case <-time.After(c.cfg.ReconnectDelay):
		}
		if c.isManualClose() {
			return
		}
		c.log("reconnect_attempt", map[string]any{"attempt": attempt, "max": c.cfg.MaxReconnectAttempts})
		if err := c.connect(context.Background()); err != nil {
			lastErr = err
			c.logError("reconnect_failed", map[string]any{"attempt": attempt, "err": err})
			continue
		}
		c.log("reconnected", map[string]any{"attempt": attempt})
		return
	}

	c.logError("reconnect_exhausted", map[string]any{"attempts": c.cfg.MaxReconnectAttempts})
	c.setState(StateDisconnected)
	c.handlerMu.RLock()
	fn := c.onDisconnected
	c.handlerMu.RUnlock()
	if fn != nil {
		fn(lastErr)
	}
}

// becomeReady handles the relay readiness acknowledgment: transition to
// Ready, send the session-initialization update (exactly once per Ready
// transition), and start the heartbeat.
func (c *Client) becomeReady() {
	c.mu.Lock()
	alreadyReady := c.state == StateReady
	c.mu.Unlock()
	if alreadyReady {
		return // duplicate proxy.connected
	}
	c.setState(StateReady)
	if err := c.sendSessionInit(); err != nil {
		c.logError("session_init_failed", map[string]any{"err": err})
	}
	c.startHeartbeat()
}

// Close marks the session as deliberately closed (suppressing auto-reconnect),
// stops the heartbeat, and closes the socket. Safe to call multiple times.
func (c *Client) Close() error {
	c.mu.Lock()
	c.manualClose = true
	c.mu.Unlock()

	c.stopHeartbeat()

	c.writeMu.Lock()
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "closing")
		c.conn = nil
	}
	c.writeMu.Unlock()

	c.closeOnce.Do(func() {
		close(c.closedCh)
	})
	c.setState(StateDisconnected)
	return nil
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) isManualClose() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.manualClose
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	old := c.state
	c.state = s
	c.mu.Unlock()

	c.log("state_change", map[string]any{"from": old.String(), "to": s.String()})
	c.handlerMu.RLock()
	fn := c.onStateChange
	c.handlerMu.RUnlock()
	if fn != nil {
		fn(s)
	}
}

// startHeartbeat emits a keep-alive no-op on a fixed interval, strictly
// shorter than the server's idle-timeout window, so silent periods do not
// drop the connection. Runs only while the session is Ready.
func (c *Client) startHeartbeat() {
	c.mu.Lock()
	if c.heartbeatStop != nil {
		close(c.heartbeatStop)
	}
	stop := make(chan struct{})
	c.heartbeatStop = stop
	c.mu.Unlock()

	go func() {
		t := time.NewTicker(c.cfg.HeartbeatInterval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-c.closedCh:
				return
			case <-t.C:
				_ = c.KeepAlive(context.Background())
			}
		}
	}()
}

func (c *Client) stopHeartbeat() {
	c.mu.Lock()
	if c.heartbeatStop != nil {
		close(c.heartbeatStop)
		c.heartbeatStop = nil
	}
	c.mu.Unlock()
}

// readLoop continuously reads frames from one WebSocket connection, parses
// them as events, and dispatches synchronously in arrival order. Malformed
// frames are logged and dropped without terminating the connection. The loop
// exits when the connection closes for any reason; done is closed on exit.
func (c *Client) readLoop(ws *websocket.Conn, ready chan struct{}, done chan struct{}) {
	defer close(done)

	confirmed := false
	for {
		typ, data, err := ws.Read(context.Background())
		if err != nil {
			return // Connection closed or error occurred
		}
		if typ != websocket.MessageText {
			continue
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logError("bad_event_json", map[string]any{"err": err})
			c.dispatchProtocolError(data, err)
			continue
		}

		if env.Type == "proxy.connected" && !confirmed {
			confirmed = true
			c.becomeReady()
			close(ready)
		}

		c.dispatch(env, data)
	}
}

func (c *Client) dispatchProtocolError(raw []byte, cause error) {
	c.handlerMu.RLock()
	fn := c.onProtocolError
	c.handlerMu.RUnlock()
	if fn != nil {
		if len(raw) > 512 {
			raw = raw[:512]
		}
		fn(NewProtocolError(raw, cause))
	}
}

func (c *Client) dispatch(env envelope, raw []byte) {
	switch env.Type {
	case "proxy.connected":
		var e ProxyConnected
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		if c.onProxyConnected != nil {
			c.onProxyConnected(e)
		}
		c.handlerMu.RUnlock()
	case "error":
		var e ErrorEvent
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		if c.onError != nil {
			c.onError(e)
		}
		c.handlerMu.RUnlock()
	case "session.created":
		var e SessionCreated
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		if c.onSessionCreated != nil {
			c.onSessionCreated(e)
		}
		c.handlerMu.RUnlock()
	case "session.updated":
		var e SessionUpdated
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		if c.onSessionUpdated != nil {
			c.onSessionUpdated(e)
		}
		c.handlerMu.RUnlock()
	case "conversation.created":
		var e ConversationCreated
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		if c.onConversationCreated != nil {
			c.onConversationCreated(e)
		}
		c.handlerMu.RUnlock()
	case "conversation.item.created":
		var e ConversationItemCreated
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		if c.onConversationItemCreated != nil {
			c.onConversationItemCreated(e)
		}
		c.handlerMu.RUnlock()
	case "conversation.item.deleted":
		var e ConversationItemDeleted
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		if c.onConversationItemDeleted != nil {
			c.onConversationItemDeleted(e)
		}
		c.handlerMu.RUnlock()
	case "input_audio_buffer.committed":
		var e InputAudioBufferCommitted
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		if c.onInputAudioBufferCommitted != nil {
			c.onInputAudioBufferCommitted(e)
		}
		c.handlerMu.RUnlock()
	case "input_audio_buffer.cleared":
		var e InputAudioBufferCleared
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		if c.onInputAudioBufferCleared != nil {
			c.onInputAudioBufferCleared(e)
		}
		c.handlerMu.RUnlock()
	case "response.created":
		var e ResponseCreated
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		if c.onResponseCreated != nil {
			c.onResponseCreated(e)
		}
		c.handlerMu.RUnlock()
	case "response.done":
		var e ResponseDone
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		if c.onResponseDone != nil {
			c.onResponseDone(e)
		}
		c.handlerMu.RUnlock()
	case "response.output_item.added":
		var e ResponseOutputItemAdded
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		if c.onResponseOutputItemAdded != nil {
			c.onResponseOutputItemAdded(e)
		}
		c.handlerMu.RUnlock()
	case "response.output_item.done":
		var e ResponseOutputItemDone
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		if c.onResponseOutputItemDone != nil {
			c.onResponseOutputItemDone(e)
		}
		c.handlerMu.RUnlock()
	case "response.text.delta":
		var e ResponseTextDelta
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		if c.onResponseTextDelta != nil {
			c.onResponseTextDelta(e)
		}
		c.handlerMu.RUnlock()
	case "response.text.done":
		var e ResponseTextDone
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		if c.onResponseTextDone != nil {
			c.onResponseTextDone(e)
		}
		c.handlerMu.RUnlock()
	case "response.audio.delta":
		var e ResponseAudioDelta
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		if c.onResponseAudioDelta != nil {
			c.onResponseAudioDelta(e)
		}
		c.handlerMu.RUnlock()
	case "response.audio.done":
		var e ResponseAudioDone
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		if c.onResponseAudioDone != nil {
			c.onResponseAudioDone(e)
		}
		c.handlerMu.RUnlock()
	case "response.audio_transcript.delta":
		var e ResponseAudioTranscriptDelta
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		if c.onResponseAudioTranscriptDelta != nil {
			c.onResponseAudioTranscriptDelta(e)
		}
		c.handlerMu.RUnlock()
	case "response.audio_transcript.done":
		var e ResponseAudioTranscriptDone
		_ = json.Unmarshal(raw, &e)
		c.handlerMu.RLock()
		if c.onResponseAudioTranscriptDone != nil {
			c.onResponseAudioTranscriptDone(e)
		}
		c.handlerMu.RUnlock()
	default:
		// Unknown event types are a distinct tolerated path, not an error.
		c.logger.Debug("unknown_event", map[string]any{"type": env.Type})
	}
}

// send transmits one structured event. If the session is not Ready the event
// is dropped with a warning rather than an error: sends during a transient
// disconnect are non-fatal by design, since the caller cannot always know
// the exact instant of closure.
func (c *Client) send(ctx context.Context, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("realtime: marshal payload: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil || c.State() != StateReady {
		c.logWarn("send_dropped", map[string]any{"state": c.State().String()})
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := c.conn.Write(ctx, websocket.MessageText, b); err != nil {
		c.logWarn("send_failed", map[string]any{"err": err})
		return nil
	}
	return nil
}

func (c *Client) log(event string, fields map[string]any) {
	c.logger.Info(event, fields)
}

func (c *Client) logWarn(event string, fields map[string]any) {
	c.logger.Warn(event, fields)
}

func (c *Client) logError(event string, fields map[string]any) {
	c.logger.Error(event, fields)
}

// Event handler registration methods. Callbacks are executed in the read
// loop goroutine, so they should not block.

// OnStateChange registers a callback for connection state transitions.
func (c *Client) OnStateChange(fn func(State)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onStateChange = fn
}

// OnDisconnected registers a callback invoked when the session becomes
// terminally disconnected after exhausting reconnect attempts.
func (c *Client) OnDisconnected(fn func(error)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onDisconnected = fn
}

// OnProtocolError registers a callback for malformed frames dropped at the
// parse boundary.
func (c *Client) OnProtocolError(fn func(*ProtocolError)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onProtocolError = fn
}

// OnProxyConnected registers a callback for the relay readiness event.
func (c *Client) OnProxyConnected(fn func(ProxyConnected)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onProxyConnected = fn
}

// OnError registers a callback for endpoint error events.
func (c *Client) OnError(fn func(ErrorEvent)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onError = fn
}

// OnSessionCreated registers a callback for session creation events.
func (c *Client) OnSessionCreated(fn func(SessionCreated)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onSessionCreated = fn
}

// OnSessionUpdated registers a callback for session update events.
func (c *Client) OnSessionUpdated(fn func(SessionUpdated)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onSessionUpdated = fn
}

// OnConversationCreated registers a callback for conversation creation events.
func (c *Client) OnConversationCreated(fn func(ConversationCreated)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onConversationCreated = fn
}

// OnConversationItemCreated registers a callback for conversation item created events.
func (c *Client) OnConversationItemCreated(fn func(ConversationItemCreated)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onConversationItemCreated = fn
}

// OnConversationItemDeleted registers a callback for conversation item deleted events.
func (c *Client) OnConversationItemDeleted(fn func(ConversationItemDeleted)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onConversationItemDeleted = fn
}

// OnInputAudioBufferCommitted registers a callback for audio buffer committed events.
func (c *Client) OnInputAudioBufferCommitted(fn func(InputAudioBufferCommitted)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onInputAudioBufferCommitted = fn
}

// OnInputAudioBufferCleared registers a callback for audio buffer cleared events.
func (c *Client) OnInputAudioBufferCleared(fn func(InputAudioBufferCleared)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onInputAudioBufferCleared = fn
}

// OnResponseCreated registers a callback for response created events.
func (c *Client) OnResponseCreated(fn func(ResponseCreated)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onResponseCreated = fn
}

// OnResponseDone registers a callback for response done events.
func (c *Client) OnResponseDone(fn func(ResponseDone)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onResponseDone = fn
}

// OnResponseOutputItemAdded registers a callback for response output item added events.
func (c *Client) OnResponseOutputItemAdded(fn func(ResponseOutputItemAdded)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onResponseOutputItemAdded = fn
}

// OnResponseOutputItemDone registers a callback for response output item done events.
func (c *Client) OnResponseOutputItemDone(fn func(ResponseOutputItemDone)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onResponseOutputItemDone = fn
}

// OnResponseTextDelta registers a callback for streaming text response events.
func (c *Client) OnResponseTextDelta(fn func(ResponseTextDelta)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onResponseTextDelta = fn
}

// OnResponseTextDone registers a callback for completed text response events.
func (c *Client) OnResponseTextDone(fn func(ResponseTextDone)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onResponseTextDone = fn
}

// OnResponseAudioDelta registers a callback for streaming audio response events.
func (c *Client) OnResponseAudioDelta(fn func(ResponseAudioDelta)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onResponseAudioDelta = fn
}

// OnResponseAudioDone registers a callback for completed audio response events.
func (c *Client) OnResponseAudioDone(fn func(ResponseAudioDone)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onResponseAudioDone = fn
}

// OnResponseAudioTranscriptDelta registers a callback for audio transcript delta events.
func (c *Client) OnResponseAudioTranscriptDelta(fn func(ResponseAudioTranscriptDelta)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onResponseAudioTranscriptDelta = fn
}

// OnResponseAudioTranscriptDone registers a callback for audio transcript done events.
func (c *Client) OnResponseAudioTranscriptDone(fn func(ResponseAudioTranscriptDone)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onResponseAudioTranscriptDone = fn
}
