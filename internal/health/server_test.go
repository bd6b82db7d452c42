package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/markerbridge/internal/core/domain"
	"github.com/vietddude/markerbridge/internal/host"
	"github.com/vietddude/markerbridge/internal/infra/storage/memory"
)

type staticState struct {
	state host.State
}

func (s staticState) State() host.State { return s.state }

func TestHandleHealth(t *testing.T) {
	journal := memory.NewJournalRepo()
	err := journal.SaveRun(context.Background(), &domain.ImportRun{
		ID:          "r1",
		SessionName: "Mix v3",
		FinishedAt:  time.Now(),
		Created:     4,
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		state      host.State
		wantStatus string
		wantCode   int
	}{
		{"connected", host.StateConnected, "healthy", http.StatusOK},
		{"reconnecting", host.StateReconnecting, "degraded", http.StatusOK},
		{"failed", host.StateFailed, "critical", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(staticState{tt.state}, journal, 0)
			rec := httptest.NewRecorder()
			s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			var report Report
			if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if report.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", report.Status, tt.wantStatus)
			}
			if report.Connection != tt.state.String() {
				t.Errorf("connection = %q", report.Connection)
			}
			if report.LastImport == nil || report.LastImport.ID != "r1" {
				t.Errorf("last import = %+v", report.LastImport)
			}
		})
	}
}

func TestHandleHealth_NoJournal(t *testing.T) {
	s := NewServer(staticState{host.StateConnected}, nil, 0)
	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var report Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.LastImport != nil {
		t.Errorf("last import = %+v", report.LastImport)
	}
}
