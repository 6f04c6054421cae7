package cache

import (
	"net/url"
	"sort"
	"strings"
)

// CacheKey represents a unique identifier for a cached GitHub response.
type CacheKey struct {
	// Endpoint is the API path (e.g., "/repos/golang/go/issues")
	Endpoint string

	// QueryParams are the query parameters (e.g., {"state": "open", "page": "2"})
	QueryParams url.Values

	// Viewer identifies the authenticated user; responses differ per token.
	// Empty for anonymous requests.
	Viewer string
}

// String generates a deterministic cache key string.
// Format: github:endpoint:query1=val1:query2=val2:viewer=abc
//
// Example:
//
//	github:repos/golang/go/issues:page=2:state=open:viewer=1f2e3d4c
func (k CacheKey) String() string {
	parts := []string{"github"}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Add query params (sorted for determinism)
	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, key+"="+strings.Join(k.QueryParams[key], ","))
		}
	}

	if k.Viewer != "" {
		parts = append(parts, "viewer="+k.Viewer)
	}

	return strings.Join(parts, ":")
}
