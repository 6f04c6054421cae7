package pagination

import "fmt"

// UnknownTotal marks a page result whose endpoint did not report a page count.
// Paging continues until an empty page is returned.
const UnknownTotal = 0

// DefaultPageSize is the page size used when a controller is built without one.
const DefaultPageSize = 30

// Request identifies one page of a paging session.
type Request struct {
	// Page is the 1-based page index.
	Page int
	// PerPage is the requested page size.
	PerPage int
}

// Validate reports whether the request is well-formed.
func (r Request) Validate() error {
	if r.Page < 1 {
		return fmt.Errorf("page must be >= 1 (got %d)", r.Page)
	}
	if r.PerPage <= 0 {
		return fmt.Errorf("per_page must be > 0 (got %d)", r.PerPage)
	}
	return nil
}

// Result is one page of raw items as returned by a Fetcher.
type Result[R any] struct {
	// Items are the raw items in server order.
	Items []R
	// TotalPages is the page count reported by the endpoint, or UnknownTotal.
	TotalPages int
}

// Status is the controller state.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

// String returns the status name used in logs.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Cursor is the paging bookkeeping of one session.
type Cursor struct {
	// LastRequested is the page index of the last completed fetch attempt (0 before any).
	LastRequested int
	// Next is the page to request next. 0 means the session is exhausted.
	Next int
	// FirstPageArrived is set once the first non-empty page 1 has loaded.
	FirstPageArrived bool
}

// Exhausted reports whether no further pages exist.
func (c Cursor) Exhausted() bool {
	return c.Next == 0
}

func initialCursor() Cursor {
	return Cursor{LastRequested: 0, Next: 1}
}

// nextAfter derives the page that follows a successful load of page n.
func nextAfter(n, totalPages, rawCount int) int {
	if rawCount == 0 {
		return 0
	}
	if totalPages != UnknownTotal && n >= totalPages {
		return 0
	}
	return n + 1
}

// Page is the outcome of a successful load.
type Page[T any] struct {
	// Index is the page that was loaded.
	Index int
	// Items are the transformed records of this page.
	Items []T
	// Cursor is the cursor after the load.
	Cursor Cursor
	// FirstArrival is true when this load fired the first-page-arrival signal.
	FirstArrival bool
}
