package realtime

import (
	"math"
	"sync"
	"time"
)

// VAD defaults, tuned for 4096-sample frames of normalized audio at 24 kHz.
const (
	// DefaultSpeechThreshold is the RMS energy above which speech onset is
	// declared.
	DefaultSpeechThreshold = 0.02

	// DefaultSilenceThreshold is the RMS energy below which silence starts
	// accumulating. The band between the two thresholds is a hold zone:
	// neither speech onset nor silence accumulation.
	DefaultSilenceThreshold = 0.01

	// DefaultSilenceDuration is how long energy must stay below the silence
	// threshold before speech is declared over.
	DefaultSilenceDuration = 1500 * time.Millisecond

	// DefaultVolumeGain scales RMS energy into the normalized 0-1 volume
	// reported for UI feedback.
	DefaultVolumeGain = 8.0
)

// VADConfig tunes the voice activity detector. Zero values take the
// package defaults above.
type VADConfig struct {
	SpeechThreshold  float64       // RMS level required to declare speech onset
	SilenceThreshold float64       // RMS level below which silence accumulates
	SilenceDuration  time.Duration // continuous silence required to end speech
	VolumeGain       float64       // RMS-to-volume scale for the volume callback
}

func (cfg VADConfig) withDefaults() VADConfig {
	if cfg.SpeechThreshold == 0 {
		cfg.SpeechThreshold = DefaultSpeechThreshold
	}
	if cfg.SilenceThreshold == 0 {
		cfg.SilenceThreshold = DefaultSilenceThreshold
	}
	if cfg.SilenceDuration == 0 {
		cfg.SilenceDuration = DefaultSilenceDuration
	}
	if cfg.VolumeGain == 0 {
		cfg.VolumeGain = DefaultVolumeGain
	}
	return cfg
}

// Detector classifies capture frames into speech and silence segments using
// RMS energy with asymmetric thresholds and a debounced silence window.
//
// Speech onset fires immediately when a frame's RMS crosses the speech
// threshold. Speech end fires only after RMS has stayed below the silence
// threshold continuously for SilenceDuration; a frame at or above the
// silence threshold interrupts the accumulation and cancels the pending
// timer, so a dip into the hold band never counts toward silence.
//
// Callbacks are invoked synchronously from Process (speech start, volume) or
// from the silence timer goroutine (speech end), never while the detector's
// lock is held, so a callback may call Reset or Process.
type Detector struct {
	cfg VADConfig
	log *Logger

	onSpeechStart func()
	onSpeechEnd   func()
	onVolume      func(float64)

	mu           sync.Mutex
	speaking     bool
	silenceStart time.Time
	silenceTimer *time.Timer
	lastRMS      float64
	gen          int // invalidates in-flight timers on reset/cancel
}

// NewDetector creates a voice activity detector. log may be nil.
func NewDetector(cfg VADConfig, log *Logger) *Detector {
	return &Detector{cfg: cfg.withDefaults(), log: log}
}

// OnSpeechStart registers the speech-onset callback.
func (d *Detector) OnSpeechStart(fn func()) { d.onSpeechStart = fn }

// OnSpeechEnd registers the speech-end callback.
func (d *Detector) OnSpeechEnd(fn func()) { d.onSpeechEnd = fn }

// OnVolume registers the per-frame volume callback. Volume is reported for
// every frame regardless of speech state, normalized to 0-1.
func (d *Detector) OnVolume(fn func(float64)) { d.onVolume = fn }

// Speaking reports whether the detector currently considers speech active.
func (d *Detector) Speaking() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.speaking
}

// Process consumes one frame of normalized samples and advances the
// detector state. It is the caller's job to deliver frames at the capture
// cadence; the detector only looks at energy, not timing, except through
// the silence timer.
func (d *Detector) Process(frame []float32) {
	rms := RMS(frame)
	volume := rms * d.cfg.VolumeGain
	if volume > 1 {
		volume = 1
	}

	var started bool

	d.mu.Lock()
	d.lastRMS = rms
	switch {
	case !d.speaking && rms >= d.cfg.SpeechThreshold:
		// Speech onset: cancel any pending silence timer and clear the
		// silence mark before announcing.
		d.speaking = true
		started = true
		d.cancelSilenceLocked()

	case d.speaking && rms < d.cfg.SilenceThreshold:
		if d.silenceStart.IsZero() {
			d.silenceStart = time.Now()
		}
		if d.silenceTimer == nil {
			gen := d.gen
			d.silenceTimer = time.AfterFunc(d.cfg.SilenceDuration, func() {
				d.silenceElapsed(gen)
			})
		}

	case d.speaking && rms >= d.cfg.SilenceThreshold:
		// Back into the hold band (or louder): silence was interrupted, so
		// the continuous-silence clock restarts from scratch.
		d.cancelSilenceLocked()
	}
	d.mu.Unlock()

	if started {
		d.log.Debug("speech_start", map[string]any{"rms": rms})
		if d.onSpeechStart != nil {
			d.onSpeechStart()
		}
	}
	if d.onVolume != nil {
		d.onVolume(volume)
	}
}

// silenceElapsed runs when the silence timer fires. The generation check
// discards timers that were cancelled by a later speech onset or reset, so a
// stale timer can never fire into a no-longer-valid state.
func (d *Detector) silenceElapsed(gen int) {
	d.mu.Lock()
	if gen != d.gen || !d.speaking {
		d.mu.Unlock()
		return
	}
	if d.lastRMS >= d.cfg.SilenceThreshold || d.silenceStart.IsZero() {
		d.mu.Unlock()
		return
	}
	if elapsed := time.Since(d.silenceStart); elapsed < d.cfg.SilenceDuration {
		// Rearm for the remainder.
		gen := d.gen
		d.silenceTimer = time.AfterFunc(d.cfg.SilenceDuration-elapsed, func() {
			d.silenceElapsed(gen)
		})
		d.mu.Unlock()
		return
	}
	d.speaking = false
	d.silenceStart = time.Time{}
	d.silenceTimer = nil
	d.gen++
	d.mu.Unlock()

	d.log.Debug("speech_end", nil)
	if d.onSpeechEnd != nil {
		d.onSpeechEnd()
	}
}

func (d *Detector) cancelSilenceLocked() {
	if d.silenceTimer != nil {
		d.silenceTimer.Stop()
		d.silenceTimer = nil
	}
	d.silenceStart = time.Time{}
	d.gen++
}

// Reset clears all timers and flags. Used after a committed turn and on
// capture stop.
func (d *Detector) Reset() {
	d.mu.Lock()
	d.speaking = false
	d.lastRMS = 0
	d.cancelSilenceLocked()
	d.mu.Unlock()
}

// RMS computes the root-mean-square energy of a frame of normalized samples.
func RMS(frame []float32) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(frame)))
}
