package recovery

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// BatchFailure is one failed item within a batch.
type BatchFailure struct {
	Index int
	Err   error
}

// BatchOperation tracks one processing batch. It is created and owned by
// the pipeline and passed by handle into the engine's calls, so its
// lifetime is scope-bound and no engine-side cleanup is needed.
type BatchOperation struct {
	ID        string
	Total     int
	StartedAt time.Time

	mu      sync.Mutex
	failed  []BatchFailure
	retries int
}

// NewBatchOperation starts bookkeeping for a batch of total items.
func NewBatchOperation(total int) *BatchOperation {
	return &BatchOperation{
		ID:        uuid.New().String(),
		Total:     total,
		StartedAt: time.Now(),
	}
}

// RecordFailure appends a failed index. Duplicate indices collapse onto
// the latest error.
func (b *BatchOperation) RecordFailure(index int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.failed {
		if b.failed[i].Index == index {
			b.failed[i].Err = err
			return
		}
	}
	b.failed = append(b.failed, BatchFailure{Index: index, Err: err})
}

// ClearFailures resets the failure list before a retry pass.
func (b *BatchOperation) ClearFailures() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failed = nil
}

// Failures returns a copy of the recorded failures.
func (b *BatchOperation) Failures() []BatchFailure {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]BatchFailure, len(b.failed))
	copy(out, b.failed)
	return out
}

// FailureCount returns the number of failed indices.
func (b *BatchOperation) FailureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.failed)
}

// NoteRetry counts one retry pass and reports whether the batch is still
// within the given retry limit.
func (b *BatchOperation) NoteRetry(limit int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.retries >= limit {
		return false
	}
	b.retries++
	return true
}

// Retries returns how many retry passes have run.
func (b *BatchOperation) Retries() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.retries
}
