package feeds

import (
	"context"
	"fmt"

	"github.com/Sternrassler/ghlist/pkg/pagination"
	"github.com/google/go-github/github"
)

// UserRepoFilter selects a user's repositories. An empty User lists the
// authenticated viewer's repositories.
type UserRepoFilter struct {
	User string
	// Sort is one of created, updated, pushed, full_name; empty means full_name.
	Sort string
}

var repoSorts = map[string]bool{"": true, "created": true, "updated": true, "pushed": true, "full_name": true}

// UserRepos returns a fetcher over a user's repositories.
func UserRepos(gh *github.Client, f UserRepoFilter) (pagination.Fetcher[*github.Repository], error) {
	if gh == nil {
		return nil, errNilClient
	}
	if !repoSorts[f.Sort] {
		return nil, fmt.Errorf("unknown repository sort %q", f.Sort)
	}

	return pagination.FetcherFunc[*github.Repository](func(ctx context.Context, req pagination.Request) (pagination.Result[*github.Repository], error) {
		repos, resp, err := gh.Repositories.List(ctx, f.User, &github.RepositoryListOptions{
			Sort:        f.Sort,
			ListOptions: listOptions(req),
		})
		return pageResult(req, repos, resp, err)
	}), nil
}
