package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeTransport records the coordinator's outbound calls.
type fakeTransport struct {
	mu        sync.Mutex
	appends   int
	commits   int
	clears    int
	responses []ResponseOptions
}

func (f *fakeTransport) AppendPCM16(_ context.Context, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appends++
	return nil
}

func (f *fakeTransport) InputCommit(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits++
	return nil
}

func (f *fakeTransport) InputClear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	return nil
}

func (f *fakeTransport) CreateResponse(_ context.Context, opts ResponseOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, opts)
	return nil
}

func (f *fakeTransport) snapshot() (appends, commits, clears, responses int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appends, f.commits, f.clears, len(f.responses)
}

// fakePlayer records playback control.
type fakePlayer struct {
	mu      sync.Mutex
	stops   int
	chunks  int
	playing bool
}

func (f *fakePlayer) Enqueue(pcm []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunks++
	f.playing = true
}

func (f *fakePlayer) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	f.playing = false
}

func (f *fakePlayer) IsPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *fakePlayer) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

// fakeSource is a controllable capture pipeline.
type fakeSource struct {
	mu       sync.Mutex
	running  bool
	startErr error
	starts   int
	stops    int
}

func (f *fakeSource) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.startErr != nil {
		return f.startErr
	}
	f.running = true
	return nil
}

func (f *fakeSource) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	f.running = false
	return nil
}

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeTransport, *fakePlayer, *fakeSource) {
	t.Helper()
	transport := &fakeTransport{}
	player := &fakePlayer{}
	source := &fakeSource{}
	coord := NewCoordinator(context.Background(), transport, player, VADConfig{
		SpeechThreshold:  0.02,
		SilenceThreshold: 0.01,
		SilenceDuration:  60 * time.Millisecond,
	}, nil)
	coord.UseSource(source)
	return coord, transport, player, source
}

func respCreated(id string) ResponseCreated {
	var ev ResponseCreated
	ev.Response.ID = id
	return ev
}

func respDone(id string) ResponseDone {
	var ev ResponseDone
	ev.Response.ID = id
	return ev
}

func TestCoordinatorContinuousLifecycle(t *testing.T) {
	coord, transport, _, source := newTestCoordinator(t)

	if err := coord.EnterContinuous(); err != nil {
		t.Fatalf("EnterContinuous: %v", err)
	}
	if !coord.Continuous() {
		t.Fatal("Continuous = false after enter")
	}
	if source.starts != 1 {
		t.Errorf("source starts = %d, want 1", source.starts)
	}

	// Re-entering is a no-op.
	if err := coord.EnterContinuous(); err != nil {
		t.Fatalf("second EnterContinuous: %v", err)
	}
	if source.starts != 1 {
		t.Errorf("source starts after re-enter = %d, want 1", source.starts)
	}

	if err := coord.ExitContinuous(); err != nil {
		t.Fatalf("ExitContinuous: %v", err)
	}
	if coord.Continuous() {
		t.Fatal("Continuous = true after exit")
	}
	if source.stops != 1 {
		t.Errorf("source stops = %d, want 1", source.stops)
	}
	// Uncommitted audio is discarded, never committed.
	_, commits, clears, _ := transport.snapshot()
	if commits != 0 {
		t.Errorf("commits on exit = %d, want 0", commits)
	}
	if clears != 1 {
		t.Errorf("clears on exit = %d, want 1", clears)
	}
}

func TestCoordinatorCaptureFailurePreservesMode(t *testing.T) {
	coord, _, _, source := newTestCoordinator(t)
	source.startErr = NewDeviceError("microphone", errors.New("permission denied"))

	err := coord.EnterContinuous()
	if err == nil {
		t.Fatal("EnterContinuous succeeded with failing source")
	}
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		t.Errorf("error type = %T, want *DeviceError", err)
	}
	if coord.Continuous() {
		t.Error("Continuous = true after failed start")
	}
}

func TestCoordinatorFramesForwardedWhileListening(t *testing.T) {
	coord, transport, _, _ := newTestCoordinator(t)

	// Not listening: frames feed the detector only.
	coord.HandleFrame(frameAt(0.005))
	if appends, _, _, _ := transport.snapshot(); appends != 0 {
		t.Fatalf("appends before listening = %d, want 0", appends)
	}

	if err := coord.EnterContinuous(); err != nil {
		t.Fatal(err)
	}
	coord.HandleFrame(frameAt(0.005))
	coord.HandleFrame(frameAt(0.05))
	if appends, _, _, _ := transport.snapshot(); appends != 2 {
		t.Errorf("appends while listening = %d, want 2", appends)
	}
}

func TestCoordinatorSpeechEndCommitsTurn(t *testing.T) {
	coord, transport, _, _ := newTestCoordinator(t)
	if err := coord.EnterContinuous(); err != nil {
		t.Fatal(err)
	}

	coord.HandleFrame(frameAt(0.05))  // speech
	coord.HandleFrame(frameAt(0.002)) // silence begins

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, commits, _, responses := transport.snapshot()
		if commits == 1 && responses == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("commit/response never happened: commits=%d responses=%d", commits, responses)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Microphone stays open for barge-in while the model responds.
	coord.HandleFrame(frameAt(0.003))
	if appends, _, _, _ := transport.snapshot(); appends < 3 {
		t.Errorf("appends = %d, capture should remain active after commit", appends)
	}
}

func TestCoordinatorSilenceWithoutSpeechCommitsNothing(t *testing.T) {
	coord, transport, _, _ := newTestCoordinator(t)
	if err := coord.EnterContinuous(); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		coord.HandleFrame(frameAt(0.002))
	}
	time.Sleep(150 * time.Millisecond)

	_, commits, _, responses := transport.snapshot()
	if commits != 0 || responses != 0 {
		t.Errorf("commits=%d responses=%d for pure silence, want 0/0", commits, responses)
	}
}

func TestCoordinatorBargeIn(t *testing.T) {
	coord, transport, player, _ := newTestCoordinator(t)
	if err := coord.EnterContinuous(); err != nil {
		t.Fatal(err)
	}

	coord.HandleResponseCreated(respCreated("resp_1"))
	if !coord.Responding() {
		t.Fatal("Responding = false after response.created")
	}
	coord.HandleAudioDelta(ResponseAudioDelta{ResponseID: "resp_1", DeltaBase64: EncodePCM16Base64(frameAt(0.1))})
	if !player.IsPlaying() {
		t.Fatal("player idle after audio delta")
	}

	// User speaks over the assistant.
	coord.HandleFrame(frameAt(0.05))

	if coord.Responding() {
		t.Error("Responding = true after barge-in")
	}
	if player.stopCount() != 1 {
		t.Errorf("player stops = %d, want 1", player.stopCount())
	}
	if _, _, clears, _ := transport.snapshot(); clears != 1 {
		t.Errorf("input clears = %d, want 1", clears)
	}

	// Trailing deltas for the dead response are dropped.
	got := ""
	coord.OnAssistantText(func(d string) { got += d })
	coord.HandleTextDelta(ResponseTextDelta{ResponseID: "resp_1", Delta: "stale"})
	coord.HandleAudioDelta(ResponseAudioDelta{ResponseID: "resp_1", DeltaBase64: EncodePCM16Base64(frameAt(0.1))})
	if got != "" {
		t.Errorf("stale text delivered: %q", got)
	}
	if player.IsPlaying() {
		t.Error("stale audio resumed playback")
	}

	// The next genuine response lifts suppression.
	coord.HandleResponseCreated(respCreated("resp_2"))
	coord.HandleTextDelta(ResponseTextDelta{ResponseID: "resp_2", Delta: "fresh"})
	if got != "fresh" {
		t.Errorf("text after new response = %q, want %q", got, "fresh")
	}
}

func TestCoordinatorEnterContinuousWhileRespondingBargesIn(t *testing.T) {
	coord, transport, player, _ := newTestCoordinator(t)

	coord.HandleResponseCreated(respCreated("resp_1"))
	coord.HandleAudioDelta(ResponseAudioDelta{ResponseID: "resp_1", DeltaBase64: EncodePCM16Base64(frameAt(0.1))})
	if !player.IsPlaying() {
		t.Fatal("player idle after audio delta")
	}

	if err := coord.EnterContinuous(); err != nil {
		t.Fatalf("EnterContinuous: %v", err)
	}

	if coord.Responding() {
		t.Error("Responding = true after entering continuous mid-response")
	}
	if !coord.Continuous() {
		t.Error("Continuous = false after enter")
	}
	if player.stopCount() != 1 {
		t.Errorf("player stops = %d, want 1", player.stopCount())
	}
	if _, _, clears, _ := transport.snapshot(); clears != 1 {
		t.Errorf("input clears = %d, want 1", clears)
	}

	// The abandoned response stays suppressed until the next response.created.
	coord.HandleAudioDelta(ResponseAudioDelta{ResponseID: "resp_1", DeltaBase64: EncodePCM16Base64(frameAt(0.1))})
	if player.IsPlaying() {
		t.Error("stale audio resumed playback")
	}
}

func TestCoordinatorExitContinuousWhileRespondingBargesIn(t *testing.T) {
	coord, transport, player, source := newTestCoordinator(t)
	if err := coord.EnterContinuous(); err != nil {
		t.Fatal(err)
	}

	coord.HandleResponseCreated(respCreated("resp_1"))
	coord.HandleAudioDelta(ResponseAudioDelta{ResponseID: "resp_1", DeltaBase64: EncodePCM16Base64(frameAt(0.1))})

	if err := coord.ExitContinuous(); err != nil {
		t.Fatalf("ExitContinuous: %v", err)
	}

	if coord.Continuous() {
		t.Error("Continuous = true after exit")
	}
	if coord.Responding() {
		t.Error("Responding = true after exiting continuous mid-response")
	}
	if player.stopCount() != 1 {
		t.Errorf("player stops = %d, want 1", player.stopCount())
	}
	if source.stops != 1 {
		t.Errorf("source stops = %d, want 1", source.stops)
	}
	// Barge-in clears the buffer once; no second clear on the exit path.
	if _, _, clears, _ := transport.snapshot(); clears != 1 {
		t.Errorf("input clears = %d, want 1", clears)
	}

	coord.HandleAudioDelta(ResponseAudioDelta{ResponseID: "resp_1", DeltaBase64: EncodePCM16Base64(frameAt(0.1))})
	if player.IsPlaying() {
		t.Error("stale delta resumed playback after exit")
	}
}

func TestCoordinatorInterruptIdempotent(t *testing.T) {
	coord, _, player, _ := newTestCoordinator(t)

	// No response in flight: no-op.
	coord.Interrupt()
	if player.stopCount() != 0 {
		t.Fatalf("player stops = %d for idle interrupt, want 0", player.stopCount())
	}

	coord.HandleResponseCreated(respCreated("resp_1"))
	coord.Interrupt()
	coord.Interrupt() // second interrupt finds nothing responding
	if player.stopCount() != 1 {
		t.Errorf("player stops = %d after double interrupt, want 1", player.stopCount())
	}
}

func TestCoordinatorSpeechEndIgnoredWhileResponding(t *testing.T) {
	coord, transport, _, _ := newTestCoordinator(t)
	if err := coord.EnterContinuous(); err != nil {
		t.Fatal(err)
	}
	coord.HandleResponseCreated(respCreated("resp_1"))

	// Quiet frames while the assistant responds must not commit a turn.
	for i := 0; i < 3; i++ {
		coord.HandleFrame(frameAt(0.002))
	}
	time.Sleep(150 * time.Millisecond)

	_, commits, _, responses := transport.snapshot()
	if commits != 0 || responses != 0 {
		t.Errorf("commits=%d responses=%d while responding, want 0/0", commits, responses)
	}
}

func TestCoordinatorTurnCompletion(t *testing.T) {
	coord, _, player, _ := newTestCoordinator(t)

	var mu sync.Mutex
	var completed []*AssistantTurn
	coord.OnTurnComplete(func(turn *AssistantTurn) {
		mu.Lock()
		completed = append(completed, turn)
		mu.Unlock()
	})

	coord.HandleResponseCreated(respCreated("resp_1"))
	coord.HandleTextDelta(ResponseTextDelta{ResponseID: "resp_1", Delta: "hello "})
	coord.HandleTextDelta(ResponseTextDelta{ResponseID: "resp_1", Delta: "world"})
	coord.HandleTranscriptDelta(ResponseAudioTranscriptDelta{ResponseID: "resp_1", Delta: "hello world"})
	coord.HandleAudioDelta(ResponseAudioDelta{ResponseID: "resp_1", DeltaBase64: EncodePCM16Base64(frameAt(0.1))})
	coord.HandleAudioDone(ResponseAudioDone{ResponseID: "resp_1"})
	coord.HandleResponseDone(respDone("resp_1"))

	// Audio still draining: turn not complete yet.
	mu.Lock()
	n := len(completed)
	mu.Unlock()
	if n != 0 {
		t.Fatal("turn completed while playback still draining")
	}

	// Natural drain: the queue empties without a Stop.
	player.mu.Lock()
	player.playing = false
	player.mu.Unlock()
	coord.HandlePlaybackDrained()

	mu.Lock()
	defer mu.Unlock()
	if len(completed) != 1 {
		t.Fatalf("completed turns = %d, want 1", len(completed))
	}
	turn := completed[0]
	if turn.ResponseID != "resp_1" {
		t.Errorf("ResponseID = %q, want resp_1", turn.ResponseID)
	}
	if turn.Text() != "hello world" {
		t.Errorf("Text = %q, want %q", turn.Text(), "hello world")
	}
	if turn.Transcript() != "hello world" {
		t.Errorf("Transcript = %q", turn.Transcript())
	}
	if coord.Responding() {
		t.Error("Responding = true after completion")
	}
}

func TestCoordinatorTurnCompletesImmediatelyWithoutAudio(t *testing.T) {
	coord, _, _, _ := newTestCoordinator(t)

	done := make(chan *AssistantTurn, 1)
	coord.OnTurnComplete(func(turn *AssistantTurn) { done <- turn })

	coord.HandleResponseCreated(respCreated("resp_1"))
	coord.HandleTextDelta(ResponseTextDelta{ResponseID: "resp_1", Delta: "text only"})
	coord.HandleResponseDone(respDone("resp_1"))

	select {
	case turn := <-done:
		if turn.Text() != "text only" {
			t.Errorf("Text = %q", turn.Text())
		}
	default:
		t.Fatal("text-only turn did not complete on response.done")
	}
}

func TestCoordinatorStaleResponseDone(t *testing.T) {
	coord, _, _, _ := newTestCoordinator(t)

	done := make(chan *AssistantTurn, 1)
	coord.OnTurnComplete(func(turn *AssistantTurn) { done <- turn })

	coord.HandleResponseCreated(respCreated("resp_2"))
	coord.HandleResponseDone(respDone("resp_1")) // stale ID

	select {
	case <-done:
		t.Fatal("stale response.done completed the live turn")
	default:
	}
	if !coord.Responding() {
		t.Error("live turn lost to a stale response.done")
	}
}

func TestCoordinatorUserTranscript(t *testing.T) {
	coord, _, _, _ := newTestCoordinator(t)

	var got string
	coord.OnUserTranscript(func(text string) { got = text })

	var ev ConversationItemCreated
	ev.Item.Role = "user"
	ev.Item.Content = []ContentPart{{Type: "input_audio", Transcript: "turn it up"}}
	coord.HandleConversationItemCreated(ev)
	if got != "turn it up" {
		t.Errorf("transcript = %q, want %q", got, "turn it up")
	}

	// Assistant items are not surfaced on this path.
	got = ""
	ev.Item.Role = "assistant"
	coord.HandleConversationItemCreated(ev)
	if got != "" {
		t.Errorf("assistant item surfaced as user transcript: %q", got)
	}
}

func TestCoordinatorDisconnectForcesExit(t *testing.T) {
	coord, _, player, source := newTestCoordinator(t)
	if err := coord.EnterContinuous(); err != nil {
		t.Fatal(err)
	}
	coord.HandleResponseCreated(respCreated("resp_1"))

	coord.HandleDisconnected(errors.New("socket closed"))

	if coord.Continuous() {
		t.Error("Continuous = true after disconnect")
	}
	if coord.Responding() {
		t.Error("Responding = true after disconnect")
	}
	if source.stops != 1 {
		t.Errorf("source stops = %d, want 1", source.stops)
	}
	if player.stopCount() != 1 {
		t.Errorf("player stops = %d, want 1", player.stopCount())
	}
}

func TestCoordinatorSendText(t *testing.T) {
	coord, transport, player, _ := newTestCoordinator(t)

	if err := coord.SendText("hello"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	transport.mu.Lock()
	if len(transport.responses) != 1 || transport.responses[0].InputText != "hello" {
		t.Errorf("responses = %+v, want one with InputText hello", transport.responses)
	}
	transport.mu.Unlock()

	// Sending while responding interrupts first.
	coord.HandleResponseCreated(respCreated("resp_1"))
	if err := coord.SendText("never mind"); err != nil {
		t.Fatal(err)
	}
	if player.stopCount() != 1 {
		t.Errorf("player stops = %d, want 1 from implicit interrupt", player.stopCount())
	}
}
