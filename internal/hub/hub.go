package hub

import (
	"sync"

	"github.com/logwell/logwell/internal/model"
)

// Listener receives one published record. Listeners must not block: a stream
// session's listener hands the record to its own bounded channel and returns.
type Listener func(rec model.LogRecord)

// Hub routes published log records to the listeners registered for the
// record's project. Safe for concurrent Publish and Subscribe/Unsubscribe.
type Hub struct {
	mu       sync.RWMutex
	nextID   uint64
	projects map[string]map[uint64]Listener
}

// New creates an empty Hub.
func New() *Hub {
	return &Hub{projects: make(map[string]map[uint64]Listener)}
}

// Subscribe registers a listener for the given project and returns an
// unsubscribe func. Unsubscribing more than once is a no-op; the last
// listener leaving a project removes the project entry entirely.
func (h *Hub) Subscribe(projectID string, fn Listener) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	ls := h.projects[projectID]
	if ls == nil {
		ls = make(map[uint64]Listener)
		h.projects[projectID] = ls
	}
	ls[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			if ls := h.projects[projectID]; ls != nil {
				delete(ls, id)
				if len(ls) == 0 {
					delete(h.projects, projectID)
				}
			}
			h.mu.Unlock()
		})
	}
}

// Publish delivers rec to every listener registered for rec.ProjectID at the
// time of the call. Listeners added concurrently may or may not see this
// record; listeners removed concurrently may still receive it once. The
// fan-out iterates a snapshot taken under the read lock, so unsubscribing
// during delivery never corrupts iteration. Publishing to a project with no
// listeners is a no-op.
func (h *Hub) Publish(rec model.LogRecord) {
	h.mu.RLock()
	ls := h.projects[rec.ProjectID]
	if len(ls) == 0 {
		h.mu.RUnlock()
		return
	}
	snapshot := make([]Listener, 0, len(ls))
	for _, fn := range ls {
		snapshot = append(snapshot, fn)
	}
	h.mu.RUnlock()

	for _, fn := range snapshot {
		fn(rec)
	}
}

// ListenerCount returns the number of listeners currently registered for the
// project.
func (h *Hub) ListenerCount(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.projects[projectID])
}

// Clear removes all subscriptions. Test helper.
func (h *Hub) Clear() {
	h.mu.Lock()
	h.projects = make(map[string]map[uint64]Listener)
	h.mu.Unlock()
}
