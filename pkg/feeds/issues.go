package feeds

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/ghlist/pkg/pagination"
	"github.com/google/go-github/github"
)

// IssueState filters issues by state.
type IssueState string

const (
	IssueOpen   IssueState = "open"
	IssueClosed IssueState = "closed"
	IssueAll    IssueState = "all"
)

// IssueQuery selects the issues of one repository. A non-blank Query switches
// to issue search scoped to the repository.
type IssueQuery struct {
	Owner string
	Repo  string
	State IssueState
	Query string
}

func (q IssueQuery) normalize() IssueQuery {
	q.Owner = strings.TrimSpace(q.Owner)
	q.Repo = strings.TrimSpace(q.Repo)
	q.Query = strings.TrimSpace(q.Query)
	if q.State == "" {
		q.State = IssueOpen
	}
	return q
}

func (q IssueQuery) validate() error {
	if q.Owner == "" || q.Repo == "" {
		return errors.New("owner and repo are required")
	}
	switch q.State {
	case IssueOpen, IssueClosed, IssueAll:
		return nil
	default:
		return fmt.Errorf("unknown issue state %q", q.State)
	}
}

// searchTerms builds the issue search query.
func (q IssueQuery) searchTerms() string {
	s := fmt.Sprintf("%s repo:%s/%s", q.Query, q.Owner, q.Repo)
	if q.State != IssueAll {
		s += " state:" + string(q.State)
	}
	return s
}

// RepoIssues returns a fetcher over a repository's issues.
func RepoIssues(gh *github.Client, q IssueQuery) (pagination.Fetcher[*github.Issue], error) {
	if gh == nil {
		return nil, errNilClient
	}
	q = q.normalize()
	if err := q.validate(); err != nil {
		return nil, err
	}

	return pagination.FetcherFunc[*github.Issue](func(ctx context.Context, req pagination.Request) (pagination.Result[*github.Issue], error) {
		if q.Query == "" {
			issues, resp, err := gh.Issues.ListByRepo(ctx, q.Owner, q.Repo, &github.IssueListByRepoOptions{
				State:       string(q.State),
				ListOptions: listOptions(req),
			})
			return pageResult(req, issues, resp, err)
		}

		result, resp, err := gh.Search.Issues(ctx, q.searchTerms(), &github.SearchOptions{ListOptions: listOptions(req)})
		if err != nil {
			return pagination.Result[*github.Issue]{}, fetchError(err)
		}
		if result == nil || (result.Total == nil && result.Issues == nil) {
			return pagination.Result[*github.Issue]{}, pagination.EmptyBodyError(statusCode(resp))
		}
		items := make([]*github.Issue, 0, len(result.Issues))
		for i := range result.Issues {
			items = append(items, &result.Issues[i])
		}
		return pagination.Result[*github.Issue]{Items: items, TotalPages: totalPages(resp, req.Page)}, nil
	}), nil
}

// IssueComments returns a fetcher over the comments of one issue.
func IssueComments(gh *github.Client, owner, repo string, number int) (pagination.Fetcher[*github.IssueComment], error) {
	if gh == nil {
		return nil, errNilClient
	}
	if owner == "" || repo == "" {
		return nil, errors.New("owner and repo are required")
	}
	if number <= 0 {
		return nil, fmt.Errorf("issue number must be > 0 (got %d)", number)
	}

	return pagination.FetcherFunc[*github.IssueComment](func(ctx context.Context, req pagination.Request) (pagination.Result[*github.IssueComment], error) {
		comments, resp, err := gh.Issues.ListComments(ctx, owner, repo, number, &github.IssueListCommentsOptions{
			ListOptions: listOptions(req),
		})
		return pageResult(req, comments, resp, err)
	}), nil
}
