package markers

import (
	"context"
	"testing"

	"github.com/vietddude/markerbridge/internal/core/domain"
)

var rate24 = domain.TimecodeRate{FPS: 24}

func TestDetector_ExactAndNearCollisions(t *testing.T) {
	d := NewDetector(rate24)

	candidates := []domain.Marker{
		{Name: "a", Timecode: "00:00:10:00"}, // exact hit
		{Name: "b", Timecode: "00:00:20:12"}, // within one second
		{Name: "c", Timecode: "00:01:00:00"}, // clear
	}
	existing := []domain.ExistingMarker{
		{Name: "mix note", Start: "00:00:10:00"},
		{Name: "edit", Start: "00:00:20:00"},
	}

	conflicts := d.Detect(candidates, existing)
	if len(conflicts) != 2 {
		t.Fatalf("conflicts = %d, want 2", len(conflicts))
	}
	if !conflicts[0].Exact || conflicts[0].CandidateIndex != 0 {
		t.Errorf("first conflict = %+v, want exact at 0", conflicts[0])
	}
	if conflicts[1].Exact || conflicts[1].FrameDistance != 12 {
		t.Errorf("second conflict = %+v, want near at 12 frames", conflicts[1])
	}
}

func TestDetector_UnparseableExistingIgnored(t *testing.T) {
	d := NewDetector(rate24)

	conflicts := d.Detect(
		[]domain.Marker{{Timecode: "00:00:10:00"}},
		[]domain.ExistingMarker{{Name: "bad", Start: "garbage"}},
	)
	if len(conflicts) != 0 {
		t.Errorf("conflicts = %d, want 0", len(conflicts))
	}
}

func TestDetector_Offset(t *testing.T) {
	d := NewDetector(rate24)

	got, err := d.Offset("00:00:10:05")
	if err != nil {
		t.Fatal(err)
	}
	if got != "00:00:11:05" {
		t.Errorf("Offset = %q", got)
	}
}

func TestResolve_SkipStrategy(t *testing.T) {
	d := NewDetector(rate24)
	conflicts := []Conflict{{CandidateIndex: 1, Candidate: domain.Marker{Timecode: "00:00:10:00"}}}

	res, err := d.Resolve(context.Background(), conflicts, ConflictSkip, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.skip[1] {
		t.Error("conflicting index not skipped")
	}
}

func TestResolve_AutoOffset(t *testing.T) {
	d := NewDetector(rate24)
	conflicts := []Conflict{{CandidateIndex: 0, Candidate: domain.Marker{Timecode: "00:00:10:00"}}}

	res, err := d.Resolve(context.Background(), conflicts, ConflictAutoOffset, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.modified[0]; got != "00:00:11:00" {
		t.Errorf("modified = %q", got)
	}
}

type scriptedConflictPrompt struct {
	decision ConflictDecision
	calls    int
}

func (s *scriptedConflictPrompt) PromptConflict(ctx context.Context, c Conflict) (ConflictDecision, error) {
	s.calls++
	return s.decision, nil
}

func TestResolve_AskOncePromptsOnce(t *testing.T) {
	d := NewDetector(rate24)
	prompt := &scriptedConflictPrompt{decision: DecisionCreate}
	conflicts := []Conflict{
		{CandidateIndex: 0, Candidate: domain.Marker{Timecode: "00:00:10:00"}},
		{CandidateIndex: 1, Candidate: domain.Marker{Timecode: "00:00:20:00"}},
	}

	res, err := d.Resolve(context.Background(), conflicts, ConflictAskOnce, prompt)
	if err != nil {
		t.Fatal(err)
	}
	if prompt.calls != 1 {
		t.Errorf("prompt calls = %d, want 1", prompt.calls)
	}
	if len(res.skip) != 0 || len(res.modified) != 0 {
		t.Errorf("create-all left modifications: %+v", res)
	}
}

func TestResolve_AskEachWithoutPromptSkips(t *testing.T) {
	d := NewDetector(rate24)
	conflicts := []Conflict{{CandidateIndex: 0, Candidate: domain.Marker{Timecode: "00:00:10:00"}}}

	res, err := d.Resolve(context.Background(), conflicts, ConflictAskEach, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.skip[0] {
		t.Error("ask-each without a prompt should degrade to skip")
	}
}
