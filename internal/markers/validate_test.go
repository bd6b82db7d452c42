package markers

import (
	"testing"

	"github.com/vietddude/markerbridge/internal/core/domain"
)

func session(fps float64, sampleRate int) *domain.Session {
	return &domain.Session{
		Name:         "Test Session",
		SampleRate:   sampleRate,
		TimecodeRate: domain.TimecodeRate{FPS: fps},
	}
}

func TestValidateSession(t *testing.T) {
	tests := []struct {
		name        string
		session     *domain.Session
		expectedFPS float64
		wantErr     bool
		wantWarns   int
	}{
		{"exact match", session(24, 48000), 24, false, 0},
		{"no expectation", session(24, 48000), 0, false, 0},
		{"slight mismatch warns", session(23.976, 48000), 24, false, 1},
		{"large mismatch errors", session(30, 48000), 24, true, 0},
		{"odd sample rate warns", session(24, 22050), 24, false, 1},
		{"both warnings", session(23.976, 11025), 24, false, 2},
	}

	for _, tt := range tests {
		warns, err := ValidateSession(tt.session, tt.expectedFPS)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if len(warns) != tt.wantWarns {
			t.Errorf("%s: warnings = %v, want %d", tt.name, warns, tt.wantWarns)
		}
	}
}

func TestColorFor(t *testing.T) {
	tests := []struct {
		comment domain.Comment
		expect  domain.MarkerColor
	}{
		{domain.Comment{IsReply: true, Text: "error everywhere"}, domain.ColorReply},
		{domain.Comment{Text: "there is an error in the mix"}, domain.ColorError},
		{domain.Comment{Text: "Warning: clipping at 2k"}, domain.ColorWarning},
		{domain.Comment{Text: "note: ref track attached"}, domain.ColorNote},
		{domain.Comment{Text: "sounds great"}, domain.ColorComment},
		{domain.Comment{}, domain.ColorDefault},
	}

	for _, tt := range tests {
		if got := ColorFor(tt.comment); got != tt.expect {
			t.Errorf("ColorFor(%+v) = %v, want %v", tt.comment, got, tt.expect)
		}
	}
}

func TestMarkerName_Degradation(t *testing.T) {
	tests := []struct {
		comment domain.Comment
		expect  string
	}{
		{domain.Comment{Author: "Rowan", Text: "hi", Timecode: "00:00:01:00"}, "Rowan"},
		{domain.Comment{Text: "short note", Timecode: "00:00:01:00"}, "short note"},
		{domain.Comment{Timecode: "00:00:01:00"}, "00:00:01:00"},
	}

	for _, tt := range tests {
		if got := markerName(tt.comment); got != tt.expect {
			t.Errorf("markerName(%+v) = %q, want %q", tt.comment, got, tt.expect)
		}
	}

	long := domain.Comment{Text: "this comment is far too long to be a usable marker name at all"}
	if got := markerName(long); len(got) > markerNameLimit {
		t.Errorf("long text not truncated: %q", got)
	}
}
