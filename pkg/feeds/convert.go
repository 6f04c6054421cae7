package feeds

import (
	"fmt"
	"strings"

	"github.com/google/go-github/github"
)

// ToRepoRecord maps a repository. Repositories without a full name are dropped.
func ToRepoRecord(r *github.Repository) (RepoRecord, error) {
	if r == nil || r.GetFullName() == "" {
		return RepoRecord{}, ErrIncompleteItem
	}

	owner := r.GetOwner().GetLogin()
	name := r.GetName()
	if owner == "" || name == "" {
		if i := strings.IndexByte(r.GetFullName(), '/'); i > 0 {
			owner, name = r.GetFullName()[:i], r.GetFullName()[i+1:]
		}
	}

	return RepoRecord{
		FullName:    r.GetFullName(),
		Owner:       owner,
		Name:        name,
		Description: r.GetDescription(),
		Language:    r.GetLanguage(),
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		Watchers:    r.GetWatchersCount(),
		Fork:        r.GetFork(),
		HTMLURL:     r.GetHTMLURL(),
		UpdatedAt:   r.GetUpdatedAt().Time,
	}, nil
}

// ToIssueRecord maps an issue or pull request.
func ToIssueRecord(i *github.Issue) (IssueRecord, error) {
	if i == nil || i.GetNumber() == 0 {
		return IssueRecord{}, ErrIncompleteItem
	}
	return IssueRecord{
		Number:    i.GetNumber(),
		Title:     i.GetTitle(),
		Body:      i.GetBody(),
		State:     i.GetState(),
		Author:    i.GetUser().GetLogin(),
		Comments:  i.GetComments(),
		IsPull:    i.IsPullRequest(),
		HTMLURL:   i.GetHTMLURL(),
		CreatedAt: i.GetCreatedAt(),
	}, nil
}

// CommentToIssueRecord maps an issue comment.
func CommentToIssueRecord(c *github.IssueComment) (IssueRecord, error) {
	if c == nil || c.GetID() == 0 {
		return IssueRecord{}, ErrIncompleteItem
	}
	return IssueRecord{
		CommentID: c.GetID(),
		Body:      c.GetBody(),
		Author:    c.GetUser().GetLogin(),
		HTMLURL:   c.GetHTMLURL(),
		CreatedAt: c.GetCreatedAt(),
	}, nil
}

// EventToEventRecord maps an activity event.
func EventToEventRecord(e *github.Event) (EventRecord, error) {
	if e == nil || e.GetID() == "" || e.GetType() == "" {
		return EventRecord{}, ErrIncompleteItem
	}
	return EventRecord{
		ID:        e.GetID(),
		Kind:      e.GetType(),
		Actor:     e.GetActor().GetLogin(),
		Repo:      e.GetRepo().GetName(),
		Title:     eventTitle(e),
		CreatedAt: e.GetCreatedAt(),
	}, nil
}

// NotificationToEventRecord maps a notification thread.
func NotificationToEventRecord(n *github.Notification) (EventRecord, error) {
	if n == nil || n.GetID() == "" {
		return EventRecord{}, ErrIncompleteItem
	}
	return EventRecord{
		ID:        n.GetID(),
		Kind:      n.GetReason(),
		Repo:      n.GetRepository().GetFullName(),
		Title:     n.GetSubject().GetTitle(),
		Unread:    n.GetUnread(),
		CreatedAt: n.GetUpdatedAt(),
	}, nil
}

func eventTitle(e *github.Event) string {
	repo := e.GetRepo().GetName()
	switch e.GetType() {
	case "WatchEvent":
		return "starred " + repo
	case "ForkEvent":
		return "forked " + repo
	case "CreateEvent":
		return "created " + repo
	case "PushEvent":
		return "pushed to " + repo
	case "IssuesEvent":
		return "updated an issue on " + repo
	case "IssueCommentEvent":
		return "commented on " + repo
	case "PullRequestEvent":
		return "opened a pull request on " + repo
	default:
		return fmt.Sprintf("%s on %s", strings.TrimSuffix(e.GetType(), "Event"), repo)
	}
}
