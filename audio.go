package realtime

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// Audio format constants. All audio on the wire is 16-bit little-endian
// signed PCM, mono, 24 kHz, base64-encoded per chunk.
const (
	// SampleRate is the sample rate used on both capture and playback.
	SampleRate = 24000

	// CaptureFrameSize is the number of samples per capture frame (~170ms at
	// 24 kHz), the cadence at which the VAD sees audio.
	CaptureFrameSize = 4096

	// BytesPerSample is the width of one PCM16 sample.
	BytesPerSample = 2
)

// EncodePCM16 converts normalized float32 samples in [-1, 1] to 16-bit
// little-endian PCM. Out-of-range samples are clamped.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(math.Round(float64(s) * 32767))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// DecodePCM16 converts 16-bit little-endian PCM back to normalized float32
// samples. The inverse of EncodePCM16 within the quantization bound 1/32767.
func DecodePCM16(pcm []byte) []float32 {
	n := len(pcm) / BytesPerSample
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		out[i] = float32(v) / 32767
	}
	return out
}

// EncodePCM16Base64 encodes normalized samples straight to the wire format.
func EncodePCM16Base64(samples []float32) string {
	return base64.StdEncoding.EncodeToString(EncodePCM16(samples))
}

// DecodeAudioDelta decodes the base64 payload of a ResponseAudioDelta into
// raw PCM16 bytes ready for playback.
func DecodeAudioDelta(deltaBase64 string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(deltaBase64)
}

// PCM16Duration returns the play time of n bytes of PCM16 at the given rate.
func PCM16Duration(n int, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := n / BytesPerSample
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

// AppendPCM16 sends PCM16 audio data to the input audio buffer.
// The audio must be 16-bit little-endian PCM at 24kHz sample rate.
// Audio data is automatically base64-encoded before transmission.
func (c *Client) AppendPCM16(ctx context.Context, pcmLE []byte) error {
	if ctx == nil {
		return errors.New("realtime: context cannot be nil")
	}
	if len(pcmLE) == 0 {
		return nil // Empty data is valid (no-op)
	}
	if len(pcmLE)%2 != 0 {
		return errors.New("realtime: PCM16 data must have even number of bytes")
	}

	// Bound single appends (prevent massive payloads)
	const maxChunkSize = 1024 * 1024
	if len(pcmLE) > maxChunkSize {
		return fmt.Errorf("realtime: PCM data too large (%d bytes), maximum is %d bytes", len(pcmLE), maxChunkSize)
	}

	payload := map[string]any{
		"type":  "input_audio_buffer.append",
		"audio": base64.StdEncoding.EncodeToString(pcmLE),
	}
	return c.send(ctx, payload)
}

// InputCommit finalizes the buffered audio span so the endpoint treats it as
// a complete user utterance.
func (c *Client) InputCommit(ctx context.Context) error {
	if ctx == nil {
		return errors.New("realtime: context cannot be nil")
	}
	return c.send(ctx, map[string]any{"type": "input_audio_buffer.commit"})
}

// InputClear removes all uncommitted audio from the input buffer.
// Used when exiting conversation mode and as part of barge-in.
func (c *Client) InputClear(ctx context.Context) error {
	if ctx == nil {
		return errors.New("realtime: context cannot be nil")
	}
	return c.send(ctx, map[string]any{"type": "input_audio_buffer.clear"})
}

// WAVFromPCM16Mono converts raw PCM16 audio data to a complete WAV file.
// Useful for saving assistant audio to disk.
func WAVFromPCM16Mono(pcm []byte, sampleRate int) []byte {
	blockAlign := uint16(2)
	byteRate := uint32(sampleRate) * uint32(blockAlign)
	dataLen := uint32(len(pcm))
	riffLen := 36 + dataLen
	out := make([]byte, 44+len(pcm))

	// RIFF header
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], riffLen)
	copy(out[8:], []byte("WAVE"))

	// Format chunk
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(out[20:], 1)  // audio format (PCM)
	binary.LittleEndian.PutUint16(out[22:], 1)  // num channels (mono)
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], byteRate)
	binary.LittleEndian.PutUint16(out[32:], blockAlign)
	binary.LittleEndian.PutUint16(out[34:], 16) // bits per sample

	// Data chunk
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], dataLen)
	copy(out[44:], pcm)
	return out
}
