package feeds

import (
	"strconv"

	"github.com/Sternrassler/ghlist/pkg/snapshot"
)

// Feed names, used as pagination.Config.Feed and snapshot key prefixes.
const (
	FeedTrending      = "trending"
	FeedRepoIssues    = "repo_issues"
	FeedIssueComments = "issue_comments"
	FeedNotifications = "notifications"
	FeedEvents        = "events"
	FeedSearchRepos   = "search_repos"
	FeedUserRepos     = "user_repos"
)

// SessionKey returns the snapshot key of a trending session. Always cacheable.
func (f TrendingFilter) SessionKey() (snapshot.Key, bool) {
	f = f.normalize()
	return snapshot.Key{
		Feed:   FeedTrending,
		Params: map[string]string{"since": string(f.Since), "language": f.Language},
	}, true
}

// SessionKey returns the snapshot key of an issue list. Search sessions are
// not cacheable.
func (q IssueQuery) SessionKey() (snapshot.Key, bool) {
	q = q.normalize()
	return snapshot.Key{
		Feed:   FeedRepoIssues,
		Params: map[string]string{"owner": q.Owner, "repo": q.Repo, "state": string(q.State)},
	}, q.Query == ""
}

// SessionKey returns the snapshot key of an event session. Always cacheable.
func (f EventFilter) SessionKey() (snapshot.Key, bool) {
	return snapshot.Key{
		Feed:   FeedEvents,
		Params: map[string]string{"user": f.User, "performed": strconv.FormatBool(f.Performed)},
	}, true
}

// SessionKey returns the snapshot key of a repository list. viewer scopes the
// authenticated user's own list.
func (f UserRepoFilter) SessionKey(viewer string) (snapshot.Key, bool) {
	key := snapshot.Key{
		Feed:   FeedUserRepos,
		Params: map[string]string{"user": f.User, "sort": f.Sort},
	}
	if f.User == "" {
		key.Viewer = viewer
	}
	return key, true
}
