package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vietddude/markerbridge/internal/core/domain"
	"github.com/vietddude/markerbridge/internal/infra/storage"
)

// JournalRepo implements storage.JournalRepository using PostgreSQL.
type JournalRepo struct {
	db *DB
}

// NewJournalRepo creates a new PostgreSQL journal repository.
func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// SaveRun saves a completed import run.
func (r *JournalRepo) SaveRun(ctx context.Context, run *domain.ImportRun) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO import_runs (id, session_name, started_at, finished_at, created, skipped, failed)
		VALUES (:id, :session_name, :started_at, :finished_at, :created, :skipped, :failed)
		ON CONFLICT (id) DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			created     = EXCLUDED.created,
			skipped     = EXCLUDED.skipped,
			failed      = EXCLUDED.failed`, run)
	if err != nil {
		return fmt.Errorf("failed to save import run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by id.
func (r *JournalRepo) GetRun(ctx context.Context, id string) (*domain.ImportRun, error) {
	var run domain.ImportRun
	err := r.db.GetContext(ctx, &run, `SELECT * FROM import_runs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import run: %w", err)
	}
	return &run, nil
}

// LatestRun retrieves the most recently finished run for a session.
func (r *JournalRepo) LatestRun(ctx context.Context, session string) (*domain.ImportRun, error) {
	var run domain.ImportRun
	err := r.db.GetContext(ctx, &run, `
		SELECT * FROM import_runs
		WHERE $1 = '' OR session_name = $1
		ORDER BY finished_at DESC
		LIMIT 1`, session)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return &run, nil
}

// ListRuns retrieves recent runs, newest first.
func (r *JournalRepo) ListRuns(ctx context.Context, limit int) ([]*domain.ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []*domain.ImportRun
	err := r.db.SelectContext(ctx, &runs, `
		SELECT * FROM import_runs
		ORDER BY finished_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// SaveFailedMarkers records the markers a run could not create.
func (r *JournalRepo) SaveFailedMarkers(ctx context.Context, markers []*domain.FailedMarker) error {
	if len(markers) == 0 {
		return nil
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO failed_markers (run_id, comment_id, name, timecode, reason)
		VALUES (:run_id, :comment_id, :name, :timecode, :reason)`, markers)
	if err != nil {
		return fmt.Errorf("failed to save failed markers: %w", err)
	}
	return nil
}

// FailedMarkers retrieves the failed markers of a run.
func (r *JournalRepo) FailedMarkers(ctx context.Context, runID string) ([]*domain.FailedMarker, error) {
	var markers []*domain.FailedMarker
	err := r.db.SelectContext(ctx, &markers, `
		SELECT * FROM failed_markers
		WHERE run_id = $1
		ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get failed markers: %w", err)
	}
	return markers, nil
}

// ClearFailedMarkers removes a run's failed markers.
func (r *JournalRepo) ClearFailedMarkers(ctx context.Context, runID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM failed_markers WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("failed to clear failed markers: %w", err)
	}
	return nil
}
