package feeds

import (
	"context"
	"errors"

	"github.com/Sternrassler/ghlist/pkg/pagination"
	"github.com/google/go-github/github"
)

// NotifyFilter selects notification threads. The zero value lists unread
// threads only.
type NotifyFilter struct {
	All           bool
	Participating bool
}

// Notifications returns a fetcher over the viewer's notification threads.
// Notifications change on every read and are never snapshotted.
func Notifications(gh *github.Client, f NotifyFilter) (pagination.Fetcher[*github.Notification], error) {
	if gh == nil {
		return nil, errNilClient
	}

	return pagination.FetcherFunc[*github.Notification](func(ctx context.Context, req pagination.Request) (pagination.Result[*github.Notification], error) {
		threads, resp, err := gh.Activity.ListNotifications(ctx, &github.NotificationListOptions{
			All:           f.All,
			Participating: f.Participating,
			ListOptions:   listOptions(req),
		})
		return pageResult(req, threads, resp, err)
	}), nil
}

// EventFilter selects the events a user received (their news feed) or
// performed.
type EventFilter struct {
	User      string
	Performed bool
}

// Events returns a fetcher over a user's event stream.
func Events(gh *github.Client, f EventFilter) (pagination.Fetcher[*github.Event], error) {
	if gh == nil {
		return nil, errNilClient
	}
	if f.User == "" {
		return nil, errors.New("user is required")
	}

	return pagination.FetcherFunc[*github.Event](func(ctx context.Context, req pagination.Request) (pagination.Result[*github.Event], error) {
		opt := listOptions(req)
		var (
			events []*github.Event
			resp   *github.Response
			err    error
		)
		if f.Performed {
			events, resp, err = gh.Activity.ListEventsPerformedByUser(ctx, f.User, false, &opt)
		} else {
			events, resp, err = gh.Activity.ListEventsReceivedByUser(ctx, f.User, false, &opt)
		}
		return pageResult(req, events, resp, err)
	}), nil
}
