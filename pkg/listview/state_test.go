package listview

import (
	"testing"

	"github.com/Sternrassler/ghlist/pkg/pagination"
)

func TestInitialState(t *testing.T) {
	tests := []struct {
		name        string
		cache       []string
		hasCache    bool
		wantDisplay int
		wantEmpty   bool
	}{
		{name: "no cache", wantDisplay: 0, wantEmpty: false},
		{name: "with cache", cache: []string{"a", "b"}, hasCache: true, wantDisplay: 2},
		{name: "empty cache held", cache: []string{}, hasCache: true, wantDisplay: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := InitialState(tt.cache, tt.hasCache)
			if s.Status != pagination.StatusIdle {
				t.Errorf("Status = %v, want idle", s.Status)
			}
			if s.Cursor.Next != 1 {
				t.Errorf("Cursor.Next = %d, want 1", s.Cursor.Next)
			}
			if got := len(s.DisplayItems()); got != tt.wantDisplay {
				t.Errorf("len(DisplayItems()) = %d, want %d", got, tt.wantDisplay)
			}
			if s.IsEmpty() != tt.wantEmpty {
				t.Errorf("IsEmpty() = %v, want %v", s.IsEmpty(), tt.wantEmpty)
			}
			if !s.CanLoadMore() {
				t.Error("initial state should allow loading")
			}
		})
	}
}

func TestReduce_CacheShownUntilCleared(t *testing.T) {
	s := InitialState([]string{"cached"}, true)

	s = Reduce(s, LoadStarted{Page: 1})
	if !s.Refreshing || !s.Loading() {
		t.Errorf("after LoadStarted(1): Refreshing=%v Loading=%v", s.Refreshing, s.Loading())
	}

	s = Reduce(s, PageLoaded[string]{Page: 1, Items: []string{"live"}, Cursor: pagination.Cursor{LastRequested: 1, Next: 2}})
	if got := s.DisplayItems(); len(got) != 1 || got[0] != "cached" {
		t.Errorf("DisplayItems() = %v, want cache while held", got)
	}

	s = Reduce(s, CacheCleared{})
	if got := s.DisplayItems(); len(got) != 1 || got[0] != "live" {
		t.Errorf("DisplayItems() = %v, want live items", got)
	}
}

func TestReduce_AppendAndReplace(t *testing.T) {
	s := InitialState[string](nil, false)
	s = Reduce(s, PageLoaded[string]{Page: 1, Items: []string{"a"}, Cursor: pagination.Cursor{Next: 2}})
	s = Reduce(s, PageLoaded[string]{Page: 2, Items: []string{"b"}, Cursor: pagination.Cursor{Next: 3}})
	if len(s.Items) != 2 || s.Items[1] != "b" {
		t.Fatalf("Items = %v, want [a b]", s.Items)
	}

	prev := s
	s = Reduce(s, PageLoaded[string]{Page: 1, Items: []string{"z"}, Cursor: pagination.Cursor{Next: 2}})
	if len(s.Items) != 1 || s.Items[0] != "z" {
		t.Errorf("Items after page 1 = %v, want [z]", s.Items)
	}
	if len(prev.Items) != 2 {
		t.Errorf("previous state was mutated: %v", prev.Items)
	}
}

func TestReduce_FailureKeepsCursor(t *testing.T) {
	s := InitialState[string](nil, false)
	s = Reduce(s, PageLoaded[string]{Page: 1, Items: []string{"a"}, Cursor: pagination.Cursor{LastRequested: 1, Next: 2}})
	s = Reduce(s, LoadStarted{Page: 2})
	s = Reduce(s, LoadFailed{Page: 2, Err: pagination.HTTPError(502, "")})

	if s.Status != pagination.StatusFailed {
		t.Errorf("Status = %v, want failed", s.Status)
	}
	if s.Cursor.Next != 2 {
		t.Errorf("Cursor.Next = %d, want 2", s.Cursor.Next)
	}
	if s.LastError != "request failed with status 502" {
		t.Errorf("LastError = %q", s.LastError)
	}
	if len(s.Items) != 1 {
		t.Errorf("Items = %v, want untouched", s.Items)
	}

	s = Reduce(s, PageLoaded[string]{Page: 2, Items: []string{"b"}, Cursor: pagination.Cursor{LastRequested: 2, Next: 0}})
	if s.LastError != "" || s.Err != nil {
		t.Errorf("error not cleared after success: %q", s.LastError)
	}
	if s.CanLoadMore() {
		t.Error("exhausted cursor should not allow loading")
	}
}

func TestReduce_EmptyResult(t *testing.T) {
	s := InitialState[string](nil, false)
	s = Reduce(s, PageLoaded[string]{Page: 1, Cursor: pagination.Cursor{LastRequested: 1, Next: 0}})
	if !s.IsEmpty() {
		t.Error("empty terminal page 1 should be reported as empty")
	}
}

func TestReduce_ClosedIgnoresActions(t *testing.T) {
	s := InitialState[string](nil, false)
	s = Reduce(s, SessionClosed{})
	s = Reduce(s, PageLoaded[string]{Page: 1, Items: []string{"late"}, Cursor: pagination.Cursor{Next: 2}})
	if len(s.Items) != 0 {
		t.Errorf("closed state accepted a page: %v", s.Items)
	}
	if s.CanLoadMore() {
		t.Error("closed state should not allow loading")
	}
}
