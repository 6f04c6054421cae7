package listview

import "github.com/Sternrassler/ghlist/pkg/pagination"

// State is an immutable snapshot of a list as seen by the presentation layer.
// New states are produced by Reduce; a State is never mutated in place.
type State[T any] struct {
	Status pagination.Status
	// Page is the page in flight while loading, otherwise the last attempted page.
	Page   int
	Cursor pagination.Cursor

	// Items are the live records accumulated by the session.
	Items []T
	// Cache holds the snapshot records while HasCache is true.
	Cache    []T
	HasCache bool

	// Refreshing is true while a page 1 load is in flight.
	Refreshing bool
	// Resolved is set once page 1 has loaded or the cursor went terminal.
	Resolved bool

	// LastError is the user-facing message of the last failed load.
	LastError string
	Err       *pagination.FetchError

	Closed bool
}

// InitialState returns the state of a session before any load.
func InitialState[T any](cache []T, hasCache bool) State[T] {
	s := State[T]{
		Status: pagination.StatusIdle,
		Cursor: pagination.Cursor{Next: 1},
	}
	if hasCache {
		s.Cache = append([]T(nil), cache...)
		s.HasCache = true
	}
	return s
}

// DisplayItems returns what the list should show: the cache snapshot while it
// is held, otherwise the live items.
func (s State[T]) DisplayItems() []T {
	if s.HasCache {
		return s.Cache
	}
	return s.Items
}

// IsEmpty distinguishes "confirmed zero results" from "no data yet".
func (s State[T]) IsEmpty() bool {
	return len(s.DisplayItems()) == 0 && (s.Resolved || s.Cursor.Exhausted())
}

// Loading reports whether a page is in flight.
func (s State[T]) Loading() bool {
	return s.Status == pagination.StatusLoading
}

// CanLoadMore reports whether RequestNextPage would start a load.
func (s State[T]) CanLoadMore() bool {
	return !s.Closed && !s.Loading() && !s.Cursor.Exhausted()
}

// Action is a state transition. The set of actions is closed.
type Action interface {
	action()
}

// LoadStarted marks page Page as in flight.
type LoadStarted struct {
	Page int
}

// PageLoaded carries a successful page load.
type PageLoaded[T any] struct {
	Page   int
	Items  []T
	Cursor pagination.Cursor
}

// LoadFailed carries a failed page load.
type LoadFailed struct {
	Page int
	Err  *pagination.FetchError
}

// CacheCleared drops the cache snapshot.
type CacheCleared struct{}

// SessionClosed marks the session as discarded.
type SessionClosed struct{}

func (LoadStarted) action()   {}
func (PageLoaded[T]) action() {}
func (LoadFailed) action()    {}
func (CacheCleared) action()  {}
func (SessionClosed) action() {}

// Reduce applies a to s and returns the next state.
// Unknown actions and actions on a closed session return s unchanged.
func Reduce[T any](s State[T], a Action) State[T] {
	if s.Closed {
		return s
	}

	switch a := a.(type) {
	case LoadStarted:
		s.Status = pagination.StatusLoading
		s.Page = a.Page
		s.Refreshing = a.Page == 1

	case PageLoaded[T]:
		if a.Page == 1 {
			s.Items = append([]T(nil), a.Items...)
		} else {
			s.Items = append(append([]T(nil), s.Items...), a.Items...)
		}
		s.Status = pagination.StatusLoaded
		s.Page = a.Page
		s.Cursor = a.Cursor
		s.Refreshing = false
		s.Resolved = s.Resolved || a.Page == 1 || a.Cursor.Exhausted()
		s.LastError = ""
		s.Err = nil

	case LoadFailed:
		s.Status = pagination.StatusFailed
		s.Page = a.Page
		s.Refreshing = false
		s.Err = a.Err
		if a.Err != nil {
			s.LastError = a.Err.Message()
		}

	case CacheCleared:
		s.Cache = nil
		s.HasCache = false

	case SessionClosed:
		s.Closed = true
		s.Refreshing = false
	}

	return s
}
