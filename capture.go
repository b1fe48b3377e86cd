package realtime

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// FrameSource is the capture-pipeline contract the Coordinator depends on.
// Start begins delivering frames to the callback given at construction;
// Stop halts delivery and releases the device. Implementations must tolerate
// Stop without a prior Start.
type FrameSource interface {
	Start() error
	Stop() error
}

// Microphone captures from the default input device at 24 kHz mono and
// re-chunks the stream into fixed CaptureFrameSize frames of normalized
// float32 samples. Each complete frame is handed to the onFrame callback
// from the device's capture goroutine.
type Microphone struct {
	sampleRate int
	frameSize  int
	onFrame    func(frame []float32)
	log        *Logger

	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	buf     []float32
	started bool
}

// NewMicrophone creates a capture pipeline. onFrame is invoked once per
// complete frame, from the device's capture goroutine, and owns the slice it
// receives. log may be nil.
func NewMicrophone(sampleRate, frameSize int, onFrame func([]float32), log *Logger) *Microphone {
	return &Microphone{
		sampleRate: sampleRate,
		frameSize:  frameSize,
		onFrame:    onFrame,
		log:        log,
	}
}

// Start acquires the default capture device and begins frame delivery.
// Failures (no device, permission denied) are returned as a DeviceError and
// leave the microphone stopped.
func (m *Microphone) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return NewDeviceError("microphone", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(m.sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: m.onRecvFrames,
	})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return NewDeviceError("microphone", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return NewDeviceError("microphone", err)
	}

	m.ctx = ctx
	m.device = device
	m.buf = m.buf[:0]
	m.started = true
	m.log.Info("capture_started", map[string]any{"rate": m.sampleRate, "frame": m.frameSize})
	return nil
}

// Stop halts capture and releases the device. Any partial frame is dropped.
func (m *Microphone) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return nil
	}
	m.device.Uninit()
	_ = m.ctx.Uninit()
	m.ctx.Free()
	m.device = nil
	m.ctx = nil
	m.buf = nil
	m.started = false
	m.log.Info("capture_stopped", nil)
	return nil
}

// onRecvFrames runs on the device's capture goroutine. Samples accumulate
// until a full frame is available, then the frame is emitted.
func (m *Microphone) onRecvFrames(_, pSample []byte, frameCount uint32) {
	if frameCount == 0 {
		return
	}

	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	n := int(frameCount) // mono: one sample per frame
	for i := 0; i < n && (i+1)*4 <= len(pSample); i++ {
		m.buf = append(m.buf, float32FromBytes(pSample[i*4:]))
	}

	var frames [][]float32
	for len(m.buf) >= m.frameSize {
		frame := make([]float32, m.frameSize)
		copy(frame, m.buf[:m.frameSize])
		m.buf = append(m.buf[:0], m.buf[m.frameSize:]...)
		frames = append(frames, frame)
	}
	m.mu.Unlock()

	for _, frame := range frames {
		m.onFrame(frame)
	}
}

func float32FromBytes(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
