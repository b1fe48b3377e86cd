package realtime

import (
	"bytes"
	"encoding/base64"
	"math"
	"testing"
	"time"
)

func TestEncodePCM16RoundTrip(t *testing.T) {
	in := []float32{0, 0.25, -0.25, 0.999, -0.999, 1, -1}
	out := DecodePCM16(EncodePCM16(in))
	if len(out) != len(in) {
		t.Fatalf("round trip length = %d, want %d", len(out), len(in))
	}
	for i := range in {
		want := in[i]
		if want > 1 {
			want = 1
		}
		if want < -1 {
			want = -1
		}
		if math.Abs(float64(out[i]-want)) > 1.0/32767 {
			t.Errorf("sample %d: got %v, want %v within 1/32767", i, out[i], want)
		}
	}
}

func TestEncodePCM16Clamps(t *testing.T) {
	pcm := EncodePCM16([]float32{2.0, -2.0})
	if len(pcm) != 4 {
		t.Fatalf("len = %d, want 4", len(pcm))
	}
	out := DecodePCM16(pcm)
	if out[0] < 0.999 || out[0] > 1 {
		t.Errorf("clamped positive = %v, want ~1", out[0])
	}
	if out[1] > -0.999 || out[1] < -1.001 {
		t.Errorf("clamped negative = %v, want ~-1", out[1])
	}
}

func TestDecodeAudioDelta(t *testing.T) {
	pcm := EncodePCM16([]float32{0.5, -0.5, 0.1})
	delta := base64.StdEncoding.EncodeToString(pcm)

	got, err := DecodeAudioDelta(delta)
	if err != nil {
		t.Fatalf("DecodeAudioDelta: %v", err)
	}
	if !bytes.Equal(got, pcm) {
		t.Error("decoded bytes differ from encoded input")
	}

	if _, err := DecodeAudioDelta("not base64!!!"); err == nil {
		t.Error("garbage input decoded without error")
	}
}

func TestPCM16Duration(t *testing.T) {
	tests := []struct {
		bytes int
		rate  int
		want  time.Duration
	}{
		{48000, 24000, time.Second},
		{4800, 24000, 100 * time.Millisecond},
		{8192, 24000, time.Duration(4096) * time.Second / 24000},
		{0, 24000, 0},
	}
	for _, tt := range tests {
		if got := PCM16Duration(tt.bytes, tt.rate); got != tt.want {
			t.Errorf("PCM16Duration(%d, %d) = %v, want %v", tt.bytes, tt.rate, got, tt.want)
		}
	}
}

func TestWAVFromPCM16Mono(t *testing.T) {
	pcm := EncodePCM16([]float32{0.1, -0.1, 0.2, -0.2})
	wav := WAVFromPCM16Mono(pcm, SampleRate)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("wav length = %d, want %d", len(wav), 44+len(pcm))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE markers")
	}
	if string(wav[36:40]) != "data" {
		t.Error("missing data chunk marker")
	}
	if !bytes.Equal(wav[44:], pcm) {
		t.Error("payload differs from input PCM")
	}
}
