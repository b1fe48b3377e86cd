package realtime

import (
	"sync"

	"github.com/gen2brain/malgo"
)

// Speaker plays PCM16 little-endian mono audio on the default output device.
// It implements Sink for the playback Scheduler: Write appends bytes to an
// internal buffer that the device callback drains, and Reset discards
// whatever has not reached the device yet.
type Speaker struct {
	sampleRate int
	log        *Logger

	mu     sync.Mutex
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	buf    []byte
	open   bool
}

// NewSpeaker acquires the default playback device at the given sample rate.
// The device runs continuously and renders silence while the buffer is empty.
func NewSpeaker(sampleRate int, log *Logger) (*Speaker, error) {
	s := &Speaker{sampleRate: sampleRate, log: log}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, NewDeviceError("speaker", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = 1
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: s.onSendFrames,
	})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, NewDeviceError("speaker", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return nil, NewDeviceError("speaker", err)
	}

	s.ctx = ctx
	s.device = device
	s.open = true
	s.log.Info("speaker_started", map[string]any{"rate": sampleRate})
	return s, nil
}

// Write queues PCM16 bytes for playback.
func (s *Speaker) Write(pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrClosed
	}
	s.buf = append(s.buf, pcm...)
	return nil
}

// Reset drops all buffered audio that has not yet reached the device.
func (s *Speaker) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = s.buf[:0]
	return nil
}

// Close stops the device and releases it. Further Writes return ErrClosed.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil
	}
	s.device.Uninit()
	_ = s.ctx.Uninit()
	s.ctx.Free()
	s.device = nil
	s.ctx = nil
	s.buf = nil
	s.open = false
	s.log.Info("speaker_stopped", nil)
	return nil
}

// onSendFrames runs on the device's render goroutine. Unfilled output is
// zeroed so an empty buffer plays silence instead of stale samples.
func (s *Speaker) onSendFrames(pOutput, _ []byte, frameCount uint32) {
	s.mu.Lock()
	n := copy(pOutput, s.buf)
	s.buf = s.buf[:copy(s.buf, s.buf[n:])]
	s.mu.Unlock()

	for i := n; i < len(pOutput); i++ {
		pOutput[i] = 0
	}
}
