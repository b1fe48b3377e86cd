package realtime

import (
	"sync"
	"time"
)

// Sink is the audio output a Scheduler feeds. Write appends PCM16 bytes to
// the device buffer and must not block for the duration of the audio; Reset
// drops everything buffered but not yet sounded, immediately.
type Sink interface {
	Write(pcm []byte) error
	Reset() error
	Close() error
}

// Scheduler queues decoded audio chunks on a logical timeline so consecutive
// chunks play back-to-back with no audible gap, even though chunks arrive at
// irregular network intervals.
//
// Each chunk's start time is max(now, end of previously scheduled chunk);
// its end becomes the new "next play time". A chunk is therefore never
// scheduled in the past and never overlaps its predecessor. Stop silences
// output instantly: the sink's buffer is dropped, the pending timeline is
// cleared, and the scheduling clock resets to idle.
type Scheduler struct {
	sink Sink
	log  *Logger
	rate int
	now  func() time.Time // test hook

	onDrained func()

	mu           sync.Mutex
	nextPlayTime time.Time
	drainTimer   *time.Timer
	gen          int // invalidates in-flight drain timers on Stop
}

// NewScheduler creates a playback scheduler over the given sink.
// sampleRate is the PCM16 sample rate of enqueued chunks. log may be nil.
func NewScheduler(sink Sink, sampleRate int, log *Logger) *Scheduler {
	return &Scheduler{
		sink: sink,
		log:  log,
		rate: sampleRate,
		now:  time.Now,
	}
}

// OnDrained registers a callback fired when the scheduled timeline has been
// fully consumed: the moment the last queued chunk's end time passes with
// nothing further enqueued. This is the explicit queue-became-empty
// notification used for assistant-turn completion, in place of polling.
// Not fired on Stop.
func (s *Scheduler) OnDrained(fn func()) {
	s.onDrained = fn
}

// Enqueue schedules one PCM16 chunk at the tail of the timeline and hands it
// to the sink. If nothing is currently scheduled, playback begins
// immediately. Returns the chunk's scheduled start time.
func (s *Scheduler) Enqueue(pcm []byte) time.Time {
	dur := PCM16Duration(len(pcm), s.rate)

	s.mu.Lock()
	now := s.now()
	start := now
	if s.nextPlayTime.After(now) {
		start = s.nextPlayTime
	}
	s.nextPlayTime = start.Add(dur)

	if s.drainTimer != nil {
		s.drainTimer.Stop()
	}
	gen := s.gen
	s.drainTimer = time.AfterFunc(s.nextPlayTime.Sub(now), func() {
		s.drained(gen)
	})
	s.mu.Unlock()

	if err := s.sink.Write(pcm); err != nil {
		s.log.Error("playback_write_failed", map[string]any{"err": err})
	}
	s.log.Debug("chunk_scheduled", map[string]any{"bytes": len(pcm), "dur_ms": dur.Milliseconds()})
	return start
}

// drained fires when the timeline should be consumed. A Stop or a later
// Enqueue invalidates it through the generation counter or by extending
// nextPlayTime.
func (s *Scheduler) drained(gen int) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	now := s.now()
	if s.nextPlayTime.After(now) {
		// The timeline was extended after this timer was armed.
		s.mu.Unlock()
		return
	}
	s.nextPlayTime = time.Time{}
	s.drainTimer = nil
	s.mu.Unlock()

	s.log.Debug("playback_drained", nil)
	if s.onDrained != nil {
		s.onDrained()
	}
}

// Stop immediately halts whatever is currently sounding (tolerating the case
// where it already finished naturally), clears the pending queue, and resets
// the scheduling clock to idle. Used for barge-in and manual interrupt.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.gen++
	if s.drainTimer != nil {
		s.drainTimer.Stop()
		s.drainTimer = nil
	}
	s.nextPlayTime = time.Time{}
	s.mu.Unlock()

	if err := s.sink.Reset(); err != nil {
		s.log.Error("playback_reset_failed", map[string]any{"err": err})
	}
	s.log.Debug("playback_stopped", nil)
}

// IsPlaying reports whether a chunk is currently scheduled or sounding.
func (s *Scheduler) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextPlayTime.After(s.now())
}

// Close stops playback and releases the sink.
func (s *Scheduler) Close() error {
	s.Stop()
	return s.sink.Close()
}
