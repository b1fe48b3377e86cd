package realtime

import (
	"strings"
	"testing"
)

func TestValidateSession(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		wantErr bool
	}{
		{"empty", Session{}, false},
		{"text and audio", Session{Modalities: []string{"text", "audio"}}, false},
		{"bad modality", Session{Modalities: []string{"video"}}, true},
		{"pcm16 both ways", Session{InputAudioFormat: Ptr("pcm16"), OutputAudioFormat: Ptr("pcm16")}, false},
		{"unsupported input format", Session{InputAudioFormat: Ptr("g711_ulaw")}, true},
		{"unsupported output format", Session{OutputAudioFormat: Ptr("mp3")}, true},
		{"temperature in range", Session{Temperature: Ptr(0.8)}, false},
		{"temperature too high", Session{Temperature: Ptr(2.1)}, true},
		{"temperature negative", Session{Temperature: Ptr(-0.1)}, true},
		{"instructions at limit", Session{Instructions: Ptr(strings.Repeat("a", 10000))}, false},
		{"instructions too long", Session{Instructions: Ptr(strings.Repeat("a", 10001))}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSession(tt.session)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSession() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
