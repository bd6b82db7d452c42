// Package storage defines the persistence interfaces for the import
// journal. Postgres and in-memory implementations live in subpackages.
package storage

import (
	"context"
	"errors"

	"github.com/vietddude/markerbridge/internal/core/domain"
)

// ErrRunNotFound is returned when an import run doesn't exist.
var ErrRunNotFound = errors.New("import run not found")

// JournalRepository persists import runs and their failed markers.
type JournalRepository interface {
	// SaveRun saves a completed import run.
	SaveRun(ctx context.Context, run *domain.ImportRun) error

	// GetRun retrieves a run by id.
	GetRun(ctx context.Context, id string) (*domain.ImportRun, error)

	// LatestRun retrieves the most recently finished run for a session.
	// Empty session matches any session.
	LatestRun(ctx context.Context, session string) (*domain.ImportRun, error)

	// ListRuns retrieves recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*domain.ImportRun, error)

	// SaveFailedMarkers records the markers a run could not create.
	SaveFailedMarkers(ctx context.Context, markers []*domain.FailedMarker) error

	// FailedMarkers retrieves the failed markers of a run.
	FailedMarkers(ctx context.Context, runID string) ([]*domain.FailedMarker, error)

	// ClearFailedMarkers removes a run's failed markers after a
	// successful retry.
	ClearFailedMarkers(ctx context.Context, runID string) error
}
