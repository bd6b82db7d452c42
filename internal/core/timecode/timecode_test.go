package timecode

import (
	"errors"
	"testing"

	"github.com/vietddude/markerbridge/internal/core/domain"
)

var dropFrame = domain.TimecodeRate{FPS: 29.97, DropFrame: true}
var film24 = domain.TimecodeRate{FPS: 24}

func TestParse(t *testing.T) {
	tests := []struct {
		in     string
		fps    int
		expect Timecode
		err    error
	}{
		{"01:02:03:04", 24, Timecode{1, 2, 3, 4}, nil},
		{"00:00:00:00", 24, Timecode{}, nil},
		{"01:02:03.04", 24, Timecode{1, 2, 3, 4}, nil}, // fractional-seconds form
		{"23:59:59:23", 24, Timecode{23, 59, 59, 23}, nil},
		{"01:02:03", 24, Timecode{}, ErrBadShape},
		{"1:2:3:4", 24, Timecode{}, ErrBadShape},
		{"aa:bb:cc:dd", 24, Timecode{}, ErrBadShape},
		{"", 24, Timecode{}, ErrBadShape},
		{"00:60:00:00", 24, Timecode{}, ErrFieldRange},
		{"00:00:60:00", 24, Timecode{}, ErrFieldRange},
		{"00:00:00:24", 24, Timecode{}, ErrFieldRange},
		{"00:00:00:30", 30, Timecode{}, ErrFieldRange},
		{"00:00:00:29", 30, Timecode{0, 0, 0, 29}, nil},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in, tt.fps)
		if tt.err != nil {
			if !errors.Is(err, tt.err) {
				t.Errorf("Parse(%q) err = %v, want %v", tt.in, err, tt.err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.expect {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.expect)
		}
	}
}

func TestNormalize_Identity(t *testing.T) {
	// Valid non-drop-frame input normalizes to itself.
	inputs := []string{"00:00:00:00", "01:30:15:12", "23:59:59:23"}
	for _, in := range inputs {
		got, err := Normalize(in, film24)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		if got != in {
			t.Errorf("Normalize(%q) = %q, want identity", in, got)
		}
	}
}

func TestNormalize_DropFrame(t *testing.T) {
	tests := []struct {
		in     string
		expect string
	}{
		{"00:01:00:00", "00:01:00:02"}, // skipped frame advances
		{"00:01:00:01", "00:01:00:02"},
		{"00:01:00:02", "00:01:00:02"},
		{"00:10:00:00", "00:10:00:00"}, // multiples of ten exempt
		{"00:20:00:01", "00:20:00:02"},
		{"00:09:00:00", "00:09:00:02"},
		{"00:01:01:00", "00:01:01:00"}, // only second zero is affected
		{"01:00:00:00", "01:00:00:00"}, // minute zero exempt
	}

	for _, tt := range tests {
		got, err := Normalize(tt.in, dropFrame)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", tt.in, err)
		}
		if got != tt.expect {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.expect)
		}
	}
}

func TestNormalize_NoCorrectionAtNonDropRates(t *testing.T) {
	got, err := Normalize("00:01:00:00", film24)
	if err != nil {
		t.Fatal(err)
	}
	if got != "00:01:00:00" {
		t.Errorf("24fps normalization altered input: %q", got)
	}
}

func TestAdd(t *testing.T) {
	tests := []struct {
		a, b   string
		fps    int
		expect string
	}{
		{"00:00:30:00", "01:00:00:00", 24, "01:00:30:00"},
		{"23:59:59:23", "00:00:00:02", 24, "24:00:00:01"}, // frame overflow carries up
		{"00:00:00:23", "00:00:00:01", 24, "00:00:01:00"},
		{"00:00:59:29", "00:00:00:01", 30, "00:01:00:00"},
		{"00:59:00:00", "00:01:00:00", 24, "01:00:00:00"},
	}

	for _, tt := range tests {
		a, err := Parse(tt.a, 0)
		if err != nil {
			t.Fatal(err)
		}
		b, err := Parse(tt.b, 0)
		if err != nil {
			t.Fatal(err)
		}
		if got := Add(a, b, tt.fps).String(); got != tt.expect {
			t.Errorf("Add(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.expect)
		}
	}
}

func TestTotalFrames(t *testing.T) {
	tc := Timecode{Hours: 1, Minutes: 0, Seconds: 0, Frames: 12}
	if got := tc.TotalFrames(24); got != 3600*24+12 {
		t.Errorf("TotalFrames = %d", got)
	}
}

func TestFramesPerSecond(t *testing.T) {
	if got := dropFrame.FramesPerSecond(); got != 30 {
		t.Errorf("29.97 boundary = %d, want 30", got)
	}
	if got := film24.FramesPerSecond(); got != 24 {
		t.Errorf("24 boundary = %d, want 24", got)
	}
}
