package domain

// Session is a read-only snapshot of the host's open editing session.
// It is refreshed on every (re)connect and cached until disconnect.
type Session struct {
	Name         string       `json:"name"`
	SampleRate   int          `json:"sample_rate"`
	TimecodeRate TimecodeRate `json:"timecode_rate"`
}

// TimecodeRate describes the session's frame labeling.
type TimecodeRate struct {
	FPS       float64 `json:"fps"`
	DropFrame bool    `json:"drop_frame"`
}

// NTSCDropFrameFPS is the true NTSC rate labeled as 30fps drop-frame.
const NTSCDropFrameFPS = 29.97

// FramesPerSecond returns the integer frame-count boundary used for
// timecode arithmetic (29.97 counts 30 frame labels per second).
func (r TimecodeRate) FramesPerSecond() int {
	fps := int(r.FPS)
	if r.FPS > float64(fps) {
		fps++
	}
	return fps
}

// IsNTSCDropFrame reports whether the rate is the 29.97 drop-frame rate.
func (r TimecodeRate) IsNTSCDropFrame() bool {
	return r.DropFrame && r.FPS > 29.9 && r.FPS < 30.0
}

// SupportedSampleRates lists sample rates the pipeline accepts without warning.
var SupportedSampleRates = []int{44100, 48000, 88200, 96000, 176400, 192000}

// SampleRateSupported reports whether rate is in the supported set.
func SampleRateSupported(rate int) bool {
	for _, r := range SupportedSampleRates {
		if r == rate {
			return true
		}
	}
	return false
}
