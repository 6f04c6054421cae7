package snapshot

import "sync"

// Reconciler holds the optional single-page cache snapshot of a session.
// The snapshot is shown while page 1 is in flight and dropped, exactly once,
// when live data arrives.
type Reconciler[T any] struct {
	mu      sync.RWMutex
	records []T
	present bool
}

// New creates a reconciler. A nil records slice means "no cache".
func New[T any](records []T) *Reconciler[T] {
	if records == nil {
		return &Reconciler[T]{}
	}
	return &Reconciler[T]{
		records: append([]T(nil), records...),
		present: true,
	}
}

// Current returns the cached records and whether a snapshot is held.
func (r *Reconciler[T]) Current() ([]T, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.present {
		return nil, false
	}
	return append([]T(nil), r.records...), true
}

// Clear drops the snapshot. It is a no-op when nothing is held.
func (r *Reconciler[T]) Clear() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.present {
		return
	}
	r.records = nil
	r.present = false
	SnapshotsCleared.Inc()
}
