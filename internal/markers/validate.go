package markers

import (
	"fmt"
	"math"

	"github.com/vietddude/markerbridge/internal/core/domain"
)

// frameRateErrorTolerance is the mismatch beyond which session
// validation fails outright; smaller mismatches only warn.
const frameRateErrorTolerance = 1.0

const frameRateWarnTolerance = 0.01

// ValidateSession checks the session against the caller's expectations.
// A frame-rate mismatch beyond one fps is an error (a markedly wrong
// session must not silently produce wrong-time markers); smaller
// mismatches and unusual sample rates only produce warnings.
func ValidateSession(s *domain.Session, expectedFPS float64) ([]string, error) {
	var warnings []string

	if expectedFPS > 0 {
		diff := math.Abs(s.TimecodeRate.FPS - expectedFPS)
		if diff > frameRateErrorTolerance {
			return warnings, fmt.Errorf(
				"session frame rate %.2f differs from expected %.2f by more than %v fps",
				s.TimecodeRate.FPS, expectedFPS, frameRateErrorTolerance)
		}
		if diff > frameRateWarnTolerance {
			warnings = append(warnings, fmt.Sprintf(
				"session frame rate %.2f differs slightly from expected %.2f",
				s.TimecodeRate.FPS, expectedFPS))
		}
	}

	if !domain.SampleRateSupported(s.SampleRate) {
		warnings = append(warnings, fmt.Sprintf(
			"unusual session sample rate %d Hz", s.SampleRate))
	}

	return warnings, nil
}
