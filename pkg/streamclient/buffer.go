package streamclient

import (
	"sync"

	"github.com/logwell/logwell/internal/model"
)

// DefaultMaxLogs bounds a RingBuffer when no maximum is given.
const DefaultMaxLogs = 1000

// RingBuffer holds the most recent log records for display, newest first,
// trimmed to a fixed maximum. It has no reactivity of its own; the caller
// re-reads Logs after mutating.
type RingBuffer struct {
	mu    sync.Mutex
	max   int
	scope string
	logs  []model.LogRecord
}

// NewRingBuffer creates a buffer retaining at most max records.
func NewRingBuffer(max int) *RingBuffer {
	if max <= 0 {
		max = DefaultMaxLogs
	}
	return &RingBuffer{max: max}
}

// AddBatch prepends recs (already newest-first) to the buffer. When the
// batch alone meets the maximum the buffer becomes the batch truncated to
// max; otherwise existing records are trimmed from the tail to make room.
// The retained side is sliced before concatenation so an oversized
// intermediate slice is never built.
func (b *RingBuffer) AddBatch(recs []model.LogRecord) {
	if len(recs) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(recs) >= b.max {
		b.logs = append([]model.LogRecord(nil), recs[:b.max]...)
		return
	}
	keep := b.max - len(recs)
	if keep > len(b.logs) {
		keep = len(b.logs)
	}
	merged := make([]model.LogRecord, 0, len(recs)+keep)
	merged = append(merged, recs...)
	merged = append(merged, b.logs[:keep]...)
	b.logs = merged
}

// Logs returns a copy of the buffer contents, newest first.
func (b *RingBuffer) Logs() []model.LogRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.LogRecord(nil), b.logs...)
}

// Len returns the number of buffered records.
func (b *RingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.logs)
}

// Clear empties the buffer.
func (b *RingBuffer) Clear() {
	b.mu.Lock()
	b.logs = nil
	b.mu.Unlock()
}

// SetScope associates the buffer with a scope key (typically the project
// being viewed) and clears it when the key changes. Setting the same key
// again is a no-op, so a re-render never wipes live data.
func (b *RingBuffer) SetScope(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.scope == key {
		return
	}
	b.scope = key
	b.logs = nil
}
