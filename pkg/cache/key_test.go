package cache

import (
	"net/url"
	"testing"
)

func TestCacheKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  CacheKey
		want string
	}{
		{
			name: "endpoint only",
			key:  CacheKey{Endpoint: "/notifications"},
			want: "github:notifications",
		},
		{
			name: "sorted query params",
			key: CacheKey{
				Endpoint:    "/repos/golang/go/issues",
				QueryParams: url.Values{"state": {"open"}, "page": {"2"}, "per_page": {"30"}},
			},
			want: "github:repos/golang/go/issues:page=2:per_page=30:state=open",
		},
		{
			name: "multi-valued param",
			key: CacheKey{
				Endpoint:    "/search/issues",
				QueryParams: url.Values{"q": {"is:open", "repo:golang/go"}},
			},
			want: "github:search/issues:q=is:open,repo:golang/go",
		},
		{
			name: "viewer scoped",
			key: CacheKey{
				Endpoint: "/users/octocat/received_events",
				Viewer:   "abc123",
			},
			want: "github:users/octocat/received_events:viewer=abc123",
		},
		{
			name: "empty endpoint",
			key:  CacheKey{},
			want: "github",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCacheKey_ViewerIsolation(t *testing.T) {
	a := CacheKey{Endpoint: "/notifications", Viewer: "alice"}
	b := CacheKey{Endpoint: "/notifications", Viewer: "bob"}
	if a.String() == b.String() {
		t.Error("keys for different viewers must differ")
	}
}

func TestCacheKey_Deterministic(t *testing.T) {
	key := CacheKey{
		Endpoint:    "/search/repositories",
		QueryParams: url.Values{"q": {"created:>2024-01-01"}, "sort": {"stars"}, "order": {"desc"}},
	}
	first := key.String()
	for i := 0; i < 20; i++ {
		if got := key.String(); got != first {
			t.Fatalf("String() not deterministic: %q vs %q", got, first)
		}
	}
}
