package recovery

import (
	"sync"
	"time"
)

// historyLimit bounds the in-memory error history.
const historyLimit = 100

// ErrorRecord is one entry of the error history. The history is never
// persisted across process restarts.
type ErrorRecord struct {
	Time        time.Time
	Summary     string
	Operation   string
	Category    Category
	Consecutive int
}

// History keeps the last hundred failures so repeated transient errors
// stay visible in aggregate even when every immediate recovery succeeds.
type History struct {
	mu      sync.Mutex
	records []ErrorRecord
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{records: make([]ErrorRecord, 0, historyLimit)}
}

// Append records a failure. The consecutive count continues from the
// previous record when category and operation match, otherwise restarts.
func (h *History) Append(err error, op string, cat Category) ErrorRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	rec := ErrorRecord{
		Time:        time.Now(),
		Summary:     err.Error(),
		Operation:   op,
		Category:    cat,
		Consecutive: 1,
	}

	if n := len(h.records); n > 0 {
		last := h.records[n-1]
		if last.Category == cat && last.Operation == op {
			rec.Consecutive = last.Consecutive + 1
		}
	}

	h.records = append(h.records, rec)
	if len(h.records) > historyLimit {
		h.records = h.records[len(h.records)-historyLimit:]
	}

	return rec
}

// Records returns a copy of the history, oldest first.
func (h *History) Records() []ErrorRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]ErrorRecord, len(h.records))
	copy(out, h.records)
	return out
}

// Len returns the number of retained records.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}
