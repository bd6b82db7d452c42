// Package memory provides the in-memory journal used when no database
// is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vietddude/markerbridge/internal/core/domain"
	"github.com/vietddude/markerbridge/internal/infra/storage"
)

// JournalRepo implements storage.JournalRepository in memory.
type JournalRepo struct {
	mu     sync.RWMutex
	runs   map[string]*domain.ImportRun
	failed map[string][]*domain.FailedMarker
	nextID int64
}

// NewJournalRepo creates an empty in-memory journal.
func NewJournalRepo() *JournalRepo {
	return &JournalRepo{
		runs:   make(map[string]*domain.ImportRun),
		failed: make(map[string][]*domain.FailedMarker),
	}
}

func (r *JournalRepo) SaveRun(ctx context.Context, run *domain.ImportRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *run
	r.runs[run.ID] = &cp
	return nil
}

func (r *JournalRepo) GetRun(ctx context.Context, id string) (*domain.ImportRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, storage.ErrRunNotFound
	}
	cp := *run
	return &cp, nil
}

func (r *JournalRepo) LatestRun(ctx context.Context, session string) (*domain.ImportRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *domain.ImportRun
	for _, run := range r.runs {
		if session != "" && run.SessionName != session {
			continue
		}
		if latest == nil || run.FinishedAt.After(latest.FinishedAt) {
			latest = run
		}
	}
	if latest == nil {
		return nil, storage.ErrRunNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *JournalRepo) ListRuns(ctx context.Context, limit int) ([]*domain.ImportRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 {
		limit = 20
	}
	runs := make([]*domain.ImportRun, 0, len(r.runs))
	for _, run := range r.runs {
		cp := *run
		runs = append(runs, &cp)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].FinishedAt.After(runs[j].FinishedAt)
	})
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (r *JournalRepo) SaveFailedMarkers(ctx context.Context, markers []*domain.FailedMarker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range markers {
		cp := *m
		r.nextID++
		cp.ID = r.nextID
		r.failed[m.RunID] = append(r.failed[m.RunID], &cp)
	}
	return nil
}

func (r *JournalRepo) FailedMarkers(ctx context.Context, runID string) ([]*domain.FailedMarker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	markers := make([]*domain.FailedMarker, 0, len(r.failed[runID]))
	for _, m := range r.failed[runID] {
		cp := *m
		markers = append(markers, &cp)
	}
	return markers, nil
}

func (r *JournalRepo) ClearFailedMarkers(ctx context.Context, runID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.failed, runID)
	return nil
}
