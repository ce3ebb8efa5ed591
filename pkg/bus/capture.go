package bus

import (
	"context"
	"sync"
)

// CaptureHandler records events for assertions in tests.
type CaptureHandler struct {
	Events []Event
	Err    error
	mu     sync.Mutex
}

// Handle records the event and returns any configured error.
func (h *CaptureHandler) Handle(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = append(h.Events, NormalizeEvent(event))
	return h.Err
}

// Snapshot returns a copy of the recorded events.
func (h *CaptureHandler) Snapshot() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Event(nil), h.Events...)
}
