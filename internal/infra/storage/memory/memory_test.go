package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/markerbridge/internal/core/domain"
	"github.com/vietddude/markerbridge/internal/infra/storage"
)

func TestJournalRuns(t *testing.T) {
	repo := NewJournalRepo()
	ctx := context.Background()

	if _, err := repo.GetRun(ctx, "missing"); !errors.Is(err, storage.ErrRunNotFound) {
		t.Fatalf("GetRun missing = %v", err)
	}

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	runs := []*domain.ImportRun{
		{ID: "r1", SessionName: "Mix v3", FinishedAt: base, Created: 5},
		{ID: "r2", SessionName: "Mix v3", FinishedAt: base.Add(time.Hour), Created: 2},
		{ID: "r3", SessionName: "Other", FinishedAt: base.Add(2 * time.Hour)},
	}
	for _, run := range runs {
		if err := repo.SaveRun(ctx, run); err != nil {
			t.Fatal(err)
		}
	}

	latest, err := repo.LatestRun(ctx, "Mix v3")
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != "r2" {
		t.Errorf("latest for session = %s", latest.ID)
	}

	latest, err = repo.LatestRun(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != "r3" {
		t.Errorf("latest overall = %s", latest.ID)
	}

	listed, err := repo.ListRuns(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 2 || listed[0].ID != "r3" || listed[1].ID != "r2" {
		t.Errorf("ListRuns = %v %v", listed[0].ID, listed[1].ID)
	}
}

func TestJournalFailedMarkers(t *testing.T) {
	repo := NewJournalRepo()
	ctx := context.Background()

	err := repo.SaveFailedMarkers(ctx, []*domain.FailedMarker{
		{RunID: "r1", Name: "A", Timecode: "00:01:00:00", Reason: "timeout"},
		{RunID: "r1", Name: "B", Timecode: "00:02:00:00", Reason: "timeout"},
	})
	if err != nil {
		t.Fatal(err)
	}

	markers, err := repo.FailedMarkers(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if len(markers) != 2 {
		t.Fatalf("len = %d", len(markers))
	}
	if markers[0].ID == 0 || markers[1].ID == markers[0].ID {
		t.Errorf("ids not assigned: %d %d", markers[0].ID, markers[1].ID)
	}

	if err := repo.ClearFailedMarkers(ctx, "r1"); err != nil {
		t.Fatal(err)
	}
	markers, err = repo.FailedMarkers(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if len(markers) != 0 {
		t.Errorf("markers after clear = %d", len(markers))
	}
}
