package feeds

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/ghlist/pkg/pagination"
	"github.com/google/go-github/github"
)

// Since is the creation window of a trending list.
type Since string

const (
	SinceDaily   Since = "daily"
	SinceWeekly  Since = "weekly"
	SinceMonthly Since = "monthly"
)

func (s Since) days() (int, error) {
	switch s {
	case SinceDaily:
		return 1, nil
	case SinceWeekly:
		return 7, nil
	case SinceMonthly:
		return 30, nil
	default:
		return 0, fmt.Errorf("unknown trending window %q", s)
	}
}

// TrendingFilter selects repositories created within Since, optionally
// restricted to Language, ordered by stars.
type TrendingFilter struct {
	Since    Since
	Language string
}

func (f TrendingFilter) normalize() TrendingFilter {
	if f.Since == "" {
		f.Since = SinceDaily
	}
	f.Language = strings.ToLower(strings.TrimSpace(f.Language))
	return f
}

// Query builds the search query for the window ending at now.
func (f TrendingFilter) Query(now time.Time) (string, error) {
	f = f.normalize()
	days, err := f.Since.days()
	if err != nil {
		return "", err
	}

	q := "created:>" + now.UTC().AddDate(0, 0, -days).Format("2006-01-02")
	if f.Language != "" {
		q += " language:" + f.Language
	}
	return q, nil
}

// now is replaced in tests.
var now = time.Now

// Trending returns a fetcher over recently created repositories.
func Trending(gh *github.Client, f TrendingFilter) (pagination.Fetcher[*github.Repository], error) {
	if gh == nil {
		return nil, errNilClient
	}
	f = f.normalize()
	if _, err := f.Since.days(); err != nil {
		return nil, err
	}

	return pagination.FetcherFunc[*github.Repository](func(ctx context.Context, req pagination.Request) (pagination.Result[*github.Repository], error) {
		// The window slides with the clock, so each page rebuilds it.
		q, err := f.Query(now())
		if err != nil {
			return pagination.Result[*github.Repository]{}, err
		}
		return searchRepositories(ctx, gh, q, &github.SearchOptions{
			Sort:        "stars",
			Order:       "desc",
			ListOptions: listOptions(req),
		}, req)
	}), nil
}

// searchRepositories runs a repository search and flattens the result.
func searchRepositories(ctx context.Context, gh *github.Client, q string, opt *github.SearchOptions, req pagination.Request) (pagination.Result[*github.Repository], error) {
	result, resp, err := gh.Search.Repositories(ctx, q, opt)
	if err != nil {
		return pagination.Result[*github.Repository]{}, fetchError(err)
	}
	if result == nil || (result.Total == nil && result.Repositories == nil) {
		return pagination.Result[*github.Repository]{}, pagination.EmptyBodyError(statusCode(resp))
	}

	items := make([]*github.Repository, 0, len(result.Repositories))
	for i := range result.Repositories {
		items = append(items, &result.Repositories[i])
	}
	return pagination.Result[*github.Repository]{
		Items:      items,
		TotalPages: totalPages(resp, req.Page),
	}, nil
}
