package realtime

import (
	"context"
	"sync"
)

// Transport is the subset of the client the Coordinator drives. *Client
// satisfies it; tests substitute a recorder.
type Transport interface {
	AppendPCM16(ctx context.Context, pcmLE []byte) error
	InputCommit(ctx context.Context) error
	InputClear(ctx context.Context) error
	CreateResponse(ctx context.Context, opts ResponseOptions) error
}

// Player is the playback surface the Coordinator controls.
type Player interface {
	Enqueue(pcm []byte) // schedules audio for gapless playback
	Stop()
	IsPlaying() bool
}

// schedulerPlayer adapts *Scheduler to Player, discarding the scheduled
// start time Enqueue reports.
type schedulerPlayer struct{ *Scheduler }

func (p schedulerPlayer) Enqueue(pcm []byte) { p.Scheduler.Enqueue(pcm) }

// PlayerFromScheduler wraps a Scheduler for use with a Coordinator.
func PlayerFromScheduler(s *Scheduler) Player { return schedulerPlayer{s} }

// Coordinator owns the half-duplex turn-taking state machine: it forwards
// microphone frames while listening, turns end-of-speech into a committed
// user turn, routes response events into an AssistantTurn, and handles
// barge-in by cutting playback and suppressing the remainder of the
// interrupted response. All state lives under one mutex; callbacks fire
// after it is released.
type Coordinator struct {
	ctx       context.Context
	transport Transport
	player    Player
	vad       *Detector
	source    FrameSource
	log       *Logger

	mu               sync.Mutex
	continuous       bool
	listening        bool
	responding       bool
	hasSpeech        bool
	suppress         bool
	audioDone        bool
	activeResponseID string
	turn             *AssistantTurn

	onTurnComplete     func(*AssistantTurn)
	onUserTranscript   func(string)
	onAssistantText    func(string)
	onTranscriptDelta  func(string)
	onVolume           func(float64)
	onContinuousChange func(bool)
}

// NewCoordinator builds a coordinator over the given transport and player.
// ctx bounds every outbound transport call. vadCfg zero values take the
// package defaults. The frame source is wired separately with UseSource.
func NewCoordinator(ctx context.Context, transport Transport, player Player, vadCfg VADConfig, log *Logger) *Coordinator {
	c := &Coordinator{
		ctx:       ctx,
		transport: transport,
		player:    player,
		log:       log,
	}
	c.vad = NewDetector(vadCfg, log)
	c.vad.OnSpeechStart(c.handleSpeechStart)
	c.vad.OnSpeechEnd(c.handleSpeechEnd)
	c.vad.OnVolume(func(v float64) {
		if fn := c.onVolume; fn != nil {
			fn(v)
		}
	})
	return c
}

// UseSource attaches the capture pipeline started and stopped with
// continuous mode. The source must deliver frames to HandleFrame.
func (c *Coordinator) UseSource(src FrameSource) {
	c.mu.Lock()
	c.source = src
	c.mu.Unlock()
}

// Bind registers the coordinator's event handlers on a client.
func (c *Coordinator) Bind(client *Client) {
	client.OnResponseCreated(c.HandleResponseCreated)
	client.OnResponseTextDelta(c.HandleTextDelta)
	client.OnResponseTextDone(c.HandleTextDone)
	client.OnResponseAudioDelta(c.HandleAudioDelta)
	client.OnResponseAudioDone(c.HandleAudioDone)
	client.OnResponseAudioTranscriptDelta(c.HandleTranscriptDelta)
	client.OnResponseDone(c.HandleResponseDone)
	client.OnConversationItemCreated(c.HandleConversationItemCreated)
	client.OnDisconnected(c.HandleDisconnected)
}

// OnTurnComplete sets the callback fired when an assistant turn has both
// finished streaming and finished playing.
func (c *Coordinator) OnTurnComplete(fn func(*AssistantTurn)) { c.onTurnComplete = fn }

// OnUserTranscript sets the callback fired with the transcript of a
// completed user item.
func (c *Coordinator) OnUserTranscript(fn func(string)) { c.onUserTranscript = fn }

// OnAssistantText sets the callback fired per assistant text delta.
func (c *Coordinator) OnAssistantText(fn func(string)) { c.onAssistantText = fn }

// OnTranscriptDelta sets the callback fired per assistant audio transcript delta.
func (c *Coordinator) OnTranscriptDelta(fn func(string)) { c.onTranscriptDelta = fn }

// OnVolume sets the callback fired with the 0..1 level of each mic frame.
func (c *Coordinator) OnVolume(fn func(float64)) { c.onVolume = fn }

// OnContinuousChange sets the callback fired when continuous mode toggles.
func (c *Coordinator) OnContinuousChange(fn func(bool)) { c.onContinuousChange = fn }

// EnterContinuous starts hands-free conversation: the capture source runs
// and end-of-speech commits a user turn automatically. An in-flight
// assistant response is barged in first. If the source fails to start the
// previous mode is left intact and the device error returned.
func (c *Coordinator) EnterContinuous() error {
	c.mu.Lock()
	if c.continuous {
		c.mu.Unlock()
		return nil
	}
	if c.responding {
		c.bargeInLocked()
	}
	src := c.source
	c.mu.Unlock()

	if src != nil {
		if err := src.Start(); err != nil {
			c.log.Error("continuous_start_failed", map[string]any{"error": err.Error()})
			return err
		}
	}

	c.mu.Lock()
	c.continuous = true
	c.listening = true
	c.hasSpeech = false
	c.mu.Unlock()
	c.vad.Reset()
	c.log.Info("continuous_enabled", nil)
	if fn := c.onContinuousChange; fn != nil {
		fn(true)
	}
	return nil
}

// ExitContinuous stops the capture source, barges in on any in-flight
// assistant response, and discards any uncommitted input audio on the
// server.
func (c *Coordinator) ExitContinuous() error {
	c.mu.Lock()
	if !c.continuous {
		c.mu.Unlock()
		return nil
	}
	c.continuous = false
	c.listening = false
	c.hasSpeech = false
	barged := false
	if c.responding {
		c.bargeInLocked()
		barged = true
	}
	src := c.source
	c.mu.Unlock()

	c.vad.Reset()
	if src != nil {
		if err := src.Stop(); err != nil {
			c.log.Warn("capture_stop_failed", map[string]any{"error": err.Error()})
		}
	}
	// Barge-in already cleared the input buffer.
	if !barged {
		if err := c.transport.InputClear(c.ctx); err != nil {
			c.log.Warn("input_clear_failed", map[string]any{"error": err.Error()})
		}
	}
	c.log.Info("continuous_disabled", nil)
	if fn := c.onContinuousChange; fn != nil {
		fn(false)
	}
	return nil
}

// Continuous reports whether hands-free mode is active.
func (c *Coordinator) Continuous() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.continuous
}

// Responding reports whether an assistant response is in flight.
func (c *Coordinator) Responding() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.responding
}

// Interrupt cuts off the current assistant response: playback stops, the
// input buffer is cleared, and any further events for the interrupted
// response are dropped. Calling it with no response in flight is a no-op.
func (c *Coordinator) Interrupt() {
	c.mu.Lock()
	if !c.responding {
		c.mu.Unlock()
		return
	}
	c.bargeInLocked()
	c.mu.Unlock()
}

// bargeInLocked abandons the in-flight response. Suppression stays set
// until the next response.created so late deltas from the dead response
// cannot resurrect it.
func (c *Coordinator) bargeInLocked() {
	c.responding = false
	c.suppress = true
	c.audioDone = false
	c.activeResponseID = ""
	c.turn = nil
	if c.continuous {
		c.listening = true
	}
	c.player.Stop()
	if err := c.transport.InputClear(c.ctx); err != nil {
		c.log.Warn("input_clear_failed", map[string]any{"error": err.Error()})
	}
	c.log.Info("barge_in", nil)
}

// SendText submits a typed user message and requests a response. Usable in
// both modes; in continuous mode it behaves like an immediate committed turn.
func (c *Coordinator) SendText(text string) error {
	c.mu.Lock()
	if c.responding {
		c.bargeInLocked()
	}
	c.mu.Unlock()
	return c.transport.CreateResponse(c.ctx, ResponseOptions{InputText: text})
}

// HandleFrame receives one capture frame. The detector always sees it so
// barge-in works while the assistant is speaking; the frame is only
// forwarded upstream while listening.
func (c *Coordinator) HandleFrame(frame []float32) {
	c.vad.Process(frame)

	c.mu.Lock()
	forward := c.listening
	c.mu.Unlock()
	if !forward {
		return
	}
	if err := c.transport.AppendPCM16(c.ctx, EncodePCM16(frame)); err != nil {
		c.log.Warn("append_failed", map[string]any{"error": err.Error()})
	}
}

func (c *Coordinator) handleSpeechStart() {
	c.mu.Lock()
	c.hasSpeech = true
	bargedIn := false
	if c.responding {
		c.bargeInLocked()
		bargedIn = true
	}
	c.mu.Unlock()
	if bargedIn {
		c.log.Debug("speech_start_interrupt", nil)
	}
}

func (c *Coordinator) handleSpeechEnd() {
	c.mu.Lock()
	// A speech end that races a freshly created response carries no new
	// audio worth committing.
	if c.responding || !c.continuous || !c.hasSpeech {
		c.mu.Unlock()
		return
	}
	c.hasSpeech = false
	c.mu.Unlock()

	c.vad.Reset()
	if err := c.transport.InputCommit(c.ctx); err != nil {
		c.log.Warn("input_commit_failed", map[string]any{"error": err.Error()})
		return
	}
	if err := c.transport.CreateResponse(c.ctx, ResponseOptions{}); err != nil {
		c.log.Warn("response_create_failed", map[string]any{"error": err.Error()})
	}
}

// HandleResponseCreated begins a new assistant turn and lifts any
// suppression left over from a barge-in.
func (c *Coordinator) HandleResponseCreated(ev ResponseCreated) {
	c.mu.Lock()
	c.suppress = false
	c.responding = true
	c.audioDone = false
	c.activeResponseID = ev.Response.ID
	c.turn = NewAssistantTurn(ev.Response.ID)
	c.mu.Unlock()
	c.log.Debug("turn_started", map[string]any{"response_id": ev.Response.ID})
}

// acceptLocked reports whether an event for responseID belongs to the live
// turn. Empty IDs are accepted for servers that omit them on deltas.
func (c *Coordinator) acceptLocked(responseID string) bool {
	if c.suppress || c.turn == nil {
		return false
	}
	return responseID == "" || responseID == c.activeResponseID
}

// HandleTextDelta appends streamed text to the live turn.
func (c *Coordinator) HandleTextDelta(ev ResponseTextDelta) {
	c.mu.Lock()
	if !c.acceptLocked(ev.ResponseID) {
		c.mu.Unlock()
		return
	}
	c.turn.AppendText(ev.Delta)
	c.mu.Unlock()
	if fn := c.onAssistantText; fn != nil {
		fn(ev.Delta)
	}
}

// HandleTextDone marks the text stream finished.
func (c *Coordinator) HandleTextDone(ev ResponseTextDone) {
	c.mu.Lock()
	if c.acceptLocked(ev.ResponseID) {
		c.turn.TextDone = true
	}
	c.mu.Unlock()
}

// HandleAudioDelta schedules a streamed audio chunk for playback.
func (c *Coordinator) HandleAudioDelta(ev ResponseAudioDelta) {
	c.mu.Lock()
	if !c.acceptLocked(ev.ResponseID) {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	pcm, err := DecodeAudioDelta(ev.DeltaBase64)
	if err != nil {
		c.log.Warn("audio_delta_decode_failed", map[string]any{"error": err.Error()})
		return
	}
	c.player.Enqueue(pcm)
}

// HandleAudioDone marks the audio stream finished; the turn completes once
// playback drains.
func (c *Coordinator) HandleAudioDone(ev ResponseAudioDone) {
	c.mu.Lock()
	if c.acceptLocked(ev.ResponseID) {
		c.turn.AudioDone = true
		c.audioDone = true
	}
	c.mu.Unlock()
}

// HandleTranscriptDelta appends streamed audio transcript to the live turn.
func (c *Coordinator) HandleTranscriptDelta(ev ResponseAudioTranscriptDelta) {
	c.mu.Lock()
	if !c.acceptLocked(ev.ResponseID) {
		c.mu.Unlock()
		return
	}
	c.turn.AppendTranscript(ev.Delta)
	c.mu.Unlock()
	if fn := c.onTranscriptDelta; fn != nil {
		fn(ev.Delta)
	}
}

// HandleResponseDone records usage and completes the turn if nothing is
// left to play.
func (c *Coordinator) HandleResponseDone(ev ResponseDone) {
	c.mu.Lock()
	if !c.acceptLocked(ev.Response.ID) {
		c.mu.Unlock()
		return
	}
	c.turn.Usage = ev.Response.Usage
	c.audioDone = true
	c.turn.AudioDone = true
	var done *AssistantTurn
	if !c.player.IsPlaying() {
		done = c.finishTurnLocked()
	}
	c.mu.Unlock()
	c.emitTurnComplete(done)
}

// HandlePlaybackDrained completes the turn once its last scheduled audio
// has played out.
func (c *Coordinator) HandlePlaybackDrained() {
	c.mu.Lock()
	var done *AssistantTurn
	if c.responding && c.audioDone {
		done = c.finishTurnLocked()
	}
	c.mu.Unlock()
	c.emitTurnComplete(done)
}

func (c *Coordinator) finishTurnLocked() *AssistantTurn {
	done := c.turn
	c.turn = nil
	c.responding = false
	c.audioDone = false
	c.activeResponseID = ""
	if c.continuous {
		c.listening = true
	}
	return done
}

func (c *Coordinator) emitTurnComplete(done *AssistantTurn) {
	if done == nil {
		return
	}
	c.log.Info("turn_complete", map[string]any{"response_id": done.ResponseID})
	if fn := c.onTurnComplete; fn != nil {
		fn(done)
	}
}

// HandleConversationItemCreated surfaces the transcript of completed user
// items.
func (c *Coordinator) HandleConversationItemCreated(ev ConversationItemCreated) {
	if ev.Item.Role != "user" {
		return
	}
	transcript := ev.Item.Transcript()
	if transcript == "" {
		return
	}
	if fn := c.onUserTranscript; fn != nil {
		fn(transcript)
	}
}

// HandleDisconnected tears down the live turn and leaves continuous mode;
// the session on the far side is gone, so local state must not pretend
// otherwise.
func (c *Coordinator) HandleDisconnected(err error) {
	c.mu.Lock()
	wasContinuous := c.continuous
	c.continuous = false
	c.listening = false
	c.responding = false
	c.suppress = false
	c.audioDone = false
	c.hasSpeech = false
	c.activeResponseID = ""
	c.turn = nil
	src := c.source
	c.mu.Unlock()

	c.player.Stop()
	c.vad.Reset()
	if wasContinuous && src != nil {
		if stopErr := src.Stop(); stopErr != nil {
			c.log.Warn("capture_stop_failed", map[string]any{"error": stopErr.Error()})
		}
	}
	fields := map[string]any{}
	if err != nil {
		fields["error"] = err.Error()
	}
	c.log.Warn("session_lost", fields)
	if wasContinuous {
		if fn := c.onContinuousChange; fn != nil {
			fn(false)
		}
	}
}
