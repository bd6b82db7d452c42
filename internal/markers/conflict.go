package markers

import (
	"context"

	"github.com/vietddude/markerbridge/internal/core/domain"
	"github.com/vietddude/markerbridge/internal/core/timecode"
)

// ConflictStrategy selects how collisions with existing markers are
// resolved.
type ConflictStrategy string

const (
	// ConflictAskEach prompts per conflict.
	ConflictAskEach ConflictStrategy = "ask_each"
	// ConflictSkip drops every conflicting candidate.
	ConflictSkip ConflictStrategy = "skip_conflicting"
	// ConflictAutoOffset shifts conflicting candidates forward in time.
	ConflictAutoOffset ConflictStrategy = "auto_offset"
	// ConflictAskOnce prompts once and applies the decision to all.
	ConflictAskOnce ConflictStrategy = "ask_once"
)

// ConflictDecision is a resolution for one (or all) conflicts.
type ConflictDecision string

const (
	DecisionSkip   ConflictDecision = "skip"
	DecisionOffset ConflictDecision = "offset"
	DecisionCreate ConflictDecision = "create"
)

// ConflictPrompt is the optional interactive channel for ask-each and
// ask-once strategies. When nil, both degrade to skipping.
type ConflictPrompt interface {
	PromptConflict(ctx context.Context, c Conflict) (ConflictDecision, error)
}

// Conflict reports one candidate colliding with an existing marker.
type Conflict struct {
	CandidateIndex int
	Candidate      domain.Marker
	Existing       domain.ExistingMarker
	FrameDistance  int64
	Exact          bool
}

// Detector finds near and exact collisions between candidates and the
// session's existing markers, at the session's frame rate.
type Detector struct {
	fps       int
	rate      domain.TimecodeRate
	threshold int64
}

// NewDetector creates a detector with a proximity threshold of one
// second's worth of frames.
func NewDetector(rate domain.TimecodeRate) *Detector {
	fps := rate.FramesPerSecond()
	return &Detector{fps: fps, rate: rate, threshold: int64(fps)}
}

// Detect compares each candidate against every existing marker. An
// existing marker whose start time cannot be parsed is ignored rather
// than blocking the run.
func (d *Detector) Detect(candidates []domain.Marker, existing []domain.ExistingMarker) []Conflict {
	var conflicts []Conflict

	for i, cand := range candidates {
		ct, err := timecode.Parse(cand.Timecode, d.fps)
		if err != nil {
			continue
		}
		cf := ct.TotalFrames(d.fps)

		for _, ex := range existing {
			et, err := timecode.Parse(ex.Start, d.fps)
			if err != nil {
				continue
			}
			dist := cf - et.TotalFrames(d.fps)
			if dist < 0 {
				dist = -dist
			}
			if dist <= d.threshold {
				conflicts = append(conflicts, Conflict{
					CandidateIndex: i,
					Candidate:      cand,
					Existing:       ex,
					FrameDistance:  dist,
					Exact:          dist == 0,
				})
				break
			}
		}
	}

	return conflicts
}

// Offset shifts a candidate's timecode forward by one second, past the
// proximity threshold.
func (d *Detector) Offset(tc string) (string, error) {
	t, err := timecode.Parse(tc, d.fps)
	if err != nil {
		return "", err
	}
	shifted := timecode.Add(t, timecode.Timecode{Seconds: 1}, d.fps)
	return shifted.DropFrameCorrect(d.rate).String(), nil
}

// resolution is the fold of conflict decisions back onto the candidates.
type resolution struct {
	skip     map[int]bool
	modified map[int]string // index -> shifted timecode
}

// Resolve applies the chosen strategy to the detected conflicts. With
// no prompt configured, interactive strategies degrade to skipping.
func (d *Detector) Resolve(ctx context.Context, conflicts []Conflict, strategy ConflictStrategy, prompt ConflictPrompt) (resolution, error) {
	res := resolution{
		skip:     make(map[int]bool),
		modified: make(map[int]string),
	}

	var once *ConflictDecision
	for _, c := range conflicts {
		decision := DecisionSkip

		switch strategy {
		case ConflictAutoOffset:
			decision = DecisionOffset
		case ConflictAskEach:
			if prompt != nil {
				dec, err := prompt.PromptConflict(ctx, c)
				if err != nil {
					return res, err
				}
				decision = dec
			}
		case ConflictAskOnce:
			if once == nil && prompt != nil {
				dec, err := prompt.PromptConflict(ctx, c)
				if err != nil {
					return res, err
				}
				once = &dec
			}
			if once != nil {
				decision = *once
			}
		}

		switch decision {
		case DecisionOffset:
			shifted, err := d.Offset(c.Candidate.Timecode)
			if err != nil {
				res.skip[c.CandidateIndex] = true
				continue
			}
			res.modified[c.CandidateIndex] = shifted
		case DecisionCreate:
			// keep as-is
		default:
			res.skip[c.CandidateIndex] = true
		}
	}

	return res, nil
}
