package ai

import (
	"sync"

	"github.com/google/uuid"
)

// BusyTracker tracks in-flight gateway requests. The source this module
// replaces used a single shared boolean, which produced a false-done
// flicker when two overlapping calls finished at different times; this
// keeps a request-id keyed set instead, so Busy stays true until every
// in-flight request has completed.
type BusyTracker struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewBusyTracker returns an empty tracker.
func NewBusyTracker() *BusyTracker {
	return &BusyTracker{inflight: make(map[string]struct{})}
}

// Begin registers a new request and returns the function that marks it
// complete. The done function is safe to call exactly once, typically
// via defer so it runs on success and failure alike.
func (b *BusyTracker) Begin() func() {
	id := uuid.NewString()
	b.mu.Lock()
	b.inflight[id] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.inflight, id)
			b.mu.Unlock()
		})
	}
}

// Busy reports whether any request is in flight.
func (b *BusyTracker) Busy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.inflight) > 0
}

// InFlight returns the number of outstanding requests.
func (b *BusyTracker) InFlight() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.inflight)
}
