package feeds

import (
	"context"
	"errors"
	"strings"

	"github.com/Sternrassler/ghlist/pkg/pagination"
	"github.com/google/go-github/github"
)

var errNilClient = errors.New("github client is required")

// SearchQuery is a free-text repository search.
type SearchQuery struct {
	Query string
	// Sort is one of stars, forks, help-wanted-issues, updated; empty means best match.
	Sort string
	// Order is asc or desc; ignored without Sort.
	Order    string
	Language string
}

// Blank reports whether the query has no search terms.
func (q SearchQuery) Blank() bool {
	return strings.TrimSpace(q.Query) == ""
}

func (q SearchQuery) terms() string {
	s := strings.TrimSpace(q.Query)
	if lang := strings.TrimSpace(q.Language); lang != "" {
		s += " language:" + lang
	}
	return s
}

// SearchRepos returns a fetcher over repository search results. A blank
// query yields a single empty page without calling GitHub. Search sessions
// are never snapshotted.
func SearchRepos(gh *github.Client, q SearchQuery) (pagination.Fetcher[*github.Repository], error) {
	if gh == nil {
		return nil, errNilClient
	}

	return pagination.FetcherFunc[*github.Repository](func(ctx context.Context, req pagination.Request) (pagination.Result[*github.Repository], error) {
		if q.Blank() {
			return pagination.Result[*github.Repository]{Items: []*github.Repository{}}, nil
		}
		opt := &github.SearchOptions{
			Sort:        q.Sort,
			ListOptions: listOptions(req),
		}
		if q.Sort != "" {
			opt.Order = q.Order
		}
		return searchRepositories(ctx, gh, q.terms(), opt, req)
	}), nil
}
