// Package timecode implements parsing, validation and arithmetic for
// hh:mm:ss:ff positions at a session-dependent frame rate.
package timecode

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vietddude/markerbridge/internal/core/domain"
)

var (
	// ErrBadShape is returned when the input is not hh:mm:ss:ff.
	ErrBadShape = errors.New("timecode must be hh:mm:ss:ff")

	// ErrFieldRange is returned when a field exceeds its natural bound.
	ErrFieldRange = errors.New("timecode field out of range")
)

var shapeRe = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2}):(\d{2})$`)

// Timecode is a parsed hh:mm:ss:ff position.
type Timecode struct {
	Hours   int
	Minutes int
	Seconds int
	Frames  int
}

// Parse validates and parses a timecode string against the session's
// per-second frame count. External sources may use a fractional-seconds
// separator before the frame field (hh:mm:ss.ff); that form is accepted
// and treated as hh:mm:ss:ff.
func Parse(s string, fps int) (Timecode, error) {
	s = canonicalSeparators(s)

	m := shapeRe.FindStringSubmatch(s)
	if m == nil {
		return Timecode{}, fmt.Errorf("%w: %q", ErrBadShape, s)
	}

	var t Timecode
	t.Hours, _ = strconv.Atoi(m[1])
	t.Minutes, _ = strconv.Atoi(m[2])
	t.Seconds, _ = strconv.Atoi(m[3])
	t.Frames, _ = strconv.Atoi(m[4])

	if t.Minutes > 59 {
		return Timecode{}, fmt.Errorf("%w: minutes %d", ErrFieldRange, t.Minutes)
	}
	if t.Seconds > 59 {
		return Timecode{}, fmt.Errorf("%w: seconds %d", ErrFieldRange, t.Seconds)
	}
	if fps > 0 && t.Frames >= fps {
		return Timecode{}, fmt.Errorf("%w: frame %d at %d fps", ErrFieldRange, t.Frames, fps)
	}

	return t, nil
}

// canonicalSeparators rewrites the fractional-seconds form hh:mm:ss.ff
// to hh:mm:ss:ff. Only the final separator may be a dot.
func canonicalSeparators(s string) string {
	if i := strings.LastIndex(s, "."); i != -1 && strings.Count(s, ":") == 2 && i > strings.LastIndex(s, ":") {
		return s[:i] + ":" + s[i+1:]
	}
	return s
}

// String formats the timecode as hh:mm:ss:ff.
func (t Timecode) String() string {
	return fmt.Sprintf("%02d:%02d:%02d:%02d", t.Hours, t.Minutes, t.Seconds, t.Frames)
}

// DropFrameCorrect applies the NTSC drop-frame skip rule: frame numbers
// 0 and 1 do not exist at the start of any minute that is not a multiple
// of ten, and are advanced to frame 2.
func (t Timecode) DropFrameCorrect(rate domain.TimecodeRate) Timecode {
	if !rate.IsNTSCDropFrame() {
		return t
	}
	if t.Seconds == 0 && t.Frames < 2 && t.Minutes%10 != 0 {
		t.Frames = 2
	}
	return t
}

// Add sums two timecodes field-wise, carrying overflow from frames into
// seconds, seconds into minutes, and minutes into hours at the session's
// frame-count boundary.
func Add(a, b Timecode, fps int) Timecode {
	if fps <= 0 {
		fps = 24
	}

	sum := Timecode{
		Hours:   a.Hours + b.Hours,
		Minutes: a.Minutes + b.Minutes,
		Seconds: a.Seconds + b.Seconds,
		Frames:  a.Frames + b.Frames,
	}

	sum.Seconds += sum.Frames / fps
	sum.Frames %= fps
	sum.Minutes += sum.Seconds / 60
	sum.Seconds %= 60
	sum.Hours += sum.Minutes / 60
	sum.Minutes %= 60

	return sum
}

// TotalFrames converts the timecode to an absolute frame count from
// midnight at the given frame boundary. Used for conflict distance.
func (t Timecode) TotalFrames(fps int) int64 {
	if fps <= 0 {
		fps = 24
	}
	seconds := int64(t.Hours)*3600 + int64(t.Minutes)*60 + int64(t.Seconds)
	return seconds*int64(fps) + int64(t.Frames)
}

// Normalize parses s at the session rate, applies drop-frame correction
// and returns the canonical hh:mm:ss:ff form. For valid non-drop-frame
// input this is the identity transform.
func Normalize(s string, rate domain.TimecodeRate) (string, error) {
	t, err := Parse(s, rate.FramesPerSecond())
	if err != nil {
		return "", err
	}
	return t.DropFrameCorrect(rate).String(), nil
}
