package control

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/vietddude/markerbridge/internal/core/config"
	"github.com/vietddude/markerbridge/internal/core/domain"
	"github.com/vietddude/markerbridge/internal/infra/storage/memory"
	"github.com/vietddude/markerbridge/internal/markers"
)

func TestHostConfigMapping(t *testing.T) {
	hc := hostConfig(config.HostConfig{
		Endpoint:        "10.0.0.5:31416",
		CompanyName:     "acme",
		ApplicationName: "bridge",
		RequestTimeout:  3 * time.Second,
		Reconnect: config.ReconnectConfig{
			Base:        time.Second,
			Cap:         10 * time.Second,
			MaxAttempts: 2,
		},
	})

	if hc.Endpoint != "10.0.0.5:31416" || hc.CompanyName != "acme" {
		t.Errorf("identity = %+v", hc)
	}
	if hc.RequestTimeout != 3*time.Second {
		t.Errorf("request timeout = %v", hc.RequestTimeout)
	}
	if hc.Reconnect.Base != time.Second || hc.Reconnect.MaxAttempts != 2 {
		t.Errorf("reconnect = %+v", hc.Reconnect)
	}
	// Fields the app config doesn't carry keep their defaults.
	if hc.ReadyTimeout == 0 || hc.Reconnect.Multiplier == 0 {
		t.Errorf("defaults not preserved: %+v", hc)
	}
}

func TestJournalRun(t *testing.T) {
	journal := memory.NewJournalRepo()
	b := &Bridge{journal: journal, log: slog.Default()}

	comments := []domain.Comment{
		{ID: "c1", Timecode: "00:00:01:00"},
		{ID: "c2", Timecode: "00:00:02:00"},
	}
	result := &markers.Result{
		SessionName: "Mix v3",
		Created:     1,
		Failed:      1,
		Results: []markers.ItemResult{
			{Index: 0, Status: markers.StatusCreated},
			{Index: 1, Name: "B", Timecode: "00:00:02:00", Status: markers.StatusFailed, Reason: "timeout"},
		},
	}

	ctx := context.Background()
	b.journalRun(ctx, time.Now().Add(-time.Minute), comments, result)

	run, err := journal.LatestRun(ctx, "Mix v3")
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if run.Created != 1 || run.Failed != 1 {
		t.Errorf("run = %+v", run)
	}

	failed, err := journal.FailedMarkers(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 1 || failed[0].CommentID != "c2" || failed[0].Reason != "timeout" {
		t.Errorf("failed markers = %+v", failed)
	}
}
