// Package realtime implements the client side of a full-duplex spoken
// conversation with a realtime language-model endpoint, reached through a
// credential-injecting relay (see the relay subpackage).
//
// The package is organized around five cooperating components:
//   - Client: the transport session. One WebSocket connection to the relay,
//     connect/reconnect/heartbeat handling, and typed event dispatch.
//   - Microphone: the capture pipeline. Pulls fixed-size PCM frames from the
//     default input device at 24 kHz mono.
//   - Detector: energy-based voice activity detection with hysteresis and a
//     debounced silence window.
//   - Scheduler: gapless playback of streamed assistant audio, with an
//     instantaneous stop for interruption.
//   - Coordinator: the turn-taking state machine tying the above together.
//     It decides when a user turn is committed, executes barge-in when the
//     user speaks over the assistant, and suppresses trailing events from
//     interrupted responses.
//
// Basic Usage:
//
//	cfg := realtime.Config{
//		RelayURL: "ws://localhost:8080",
//		APIKey:   os.Getenv("REALTIME_API_KEY"),
//		Voice:    "alloy",
//	}
//	client, err := realtime.Dial(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
// Dial resolves only after the relay confirms the upstream connection, so a
// non-nil client is ready to send. Event handlers (OnResponseTextDelta,
// OnResponseAudioDelta, OnError, ...) are invoked synchronously in arrival
// order from the read loop and must not block.
//
// All audio on the wire is 16-bit little-endian PCM, mono, 24 kHz,
// base64-encoded per chunk.
package realtime
