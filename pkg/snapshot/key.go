package snapshot

import (
	"fmt"
	"sort"
	"strings"
)

// Key identifies the stored first page of one session configuration.
type Key struct {
	// Feed is the feed label (e.g. "trending", "repo_issues").
	Feed string

	// Params are the session filters (e.g. {"since": "daily", "language": "go"}).
	Params map[string]string

	// Viewer is the login the data was fetched for ("" for public feeds).
	Viewer string
}

// String generates a deterministic Redis key.
// Format: ghlist:snapshot:feed:param1=val1:param2=val2:viewer=login
//
// Example:
//
//	ghlist:snapshot:trending:language=go:since=daily
func (k Key) String() string {
	parts := []string{"ghlist", "snapshot"}

	if feed := strings.TrimSpace(k.Feed); feed != "" {
		parts = append(parts, feed)
	}

	if len(k.Params) > 0 {
		names := make([]string, 0, len(k.Params))
		for name := range k.Params {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, k.Params[name]))
		}
	}

	if k.Viewer != "" {
		parts = append(parts, fmt.Sprintf("viewer=%s", k.Viewer))
	}

	return strings.Join(parts, ":")
}
