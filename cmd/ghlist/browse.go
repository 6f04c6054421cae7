package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Sternrassler/ghlist/pkg/feeds"
	"github.com/Sternrassler/ghlist/pkg/listview"
	"github.com/Sternrassler/ghlist/pkg/pagination"
	"github.com/Sternrassler/ghlist/pkg/snapshot"
	"github.com/spf13/cobra"
)

// browseOptions holds the filters of every feed; each feed reads its own.
type browseOptions struct {
	pages   int
	format  string
	noCache bool

	since         string
	language      string
	repo          string
	state         string
	query         string
	number        int
	user          string
	performed     bool
	all           bool
	participating bool
	sort          string
	order         string
}

var feedNames = []string{
	feeds.FeedTrending,
	feeds.FeedRepoIssues,
	feeds.FeedIssueComments,
	feeds.FeedNotifications,
	feeds.FeedEvents,
	feeds.FeedSearchRepos,
	feeds.FeedUserRepos,
}

func newBrowseCommand() *cobra.Command {
	var o browseOptions

	cmd := &cobra.Command{
		Use:       "browse <feed>",
		Aliases:   []string{"b"},
		Short:     "Print pages of a GitHub list",
		Long:      "Print pages of a GitHub list. Feeds: " + strings.Join(feedNames, ", ") + ".",
		Args:      cobra.ExactArgs(1),
		ValidArgs: feedNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.format != "text" && o.format != "json" {
				return fmt.Errorf("unknown format %q (want text or json)", o.format)
			}
			if o.pages < 0 {
				return fmt.Errorf("pages must be >= 0 (got %d)", o.pages)
			}

			ctx := cmd.Context()
			rt, err := newRuntime(ctx, configFrom(ctx))
			if err != nil {
				return err
			}
			defer rt.Close()

			return browse(ctx, cmd.OutOrStdout(), rt, args[0], o)
		},
	}

	f := cmd.Flags()
	f.IntVar(&o.pages, "pages", 1, "Pages to load, 0 for all")
	f.StringVar(&o.format, "format", "text", "Output format: text or json")
	f.BoolVar(&o.noCache, "no-cache", false, "Ignore and do not update the stored first page")
	f.StringVar(&o.since, "since", string(feeds.SinceDaily), "trending: daily, weekly or monthly")
	f.StringVar(&o.language, "language", "", "trending, search_repos: language filter")
	f.StringVar(&o.repo, "repo", "", "repo_issues, issue_comments: owner/name")
	f.StringVar(&o.state, "state", string(feeds.IssueOpen), "repo_issues: open, closed or all")
	f.StringVar(&o.query, "query", "", "repo_issues, search_repos: search terms")
	f.IntVar(&o.number, "number", 0, "issue_comments: issue number")
	f.StringVar(&o.user, "user", "", "events, user_repos: login (user_repos defaults to the token owner)")
	f.BoolVar(&o.performed, "performed", false, "events: events the user performed instead of received")
	f.BoolVar(&o.all, "all", false, "notifications: include read threads")
	f.BoolVar(&o.participating, "participating", false, "notifications: only threads the viewer participates in")
	f.StringVar(&o.sort, "sort", "", "search_repos, user_repos: sort field")
	f.StringVar(&o.order, "order", "desc", "search_repos: asc or desc")

	return cmd
}

// splitRepo parses owner/name.
func splitRepo(s string) (string, string, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("repo must be owner/name (got %q)", s)
	}
	return owner, name, nil
}

// sessionKey returns the snapshot key to use, or nil when the session is not cached.
func sessionKey(key snapshot.Key, cacheable, noCache bool) *snapshot.Key {
	if !cacheable || noCache {
		return nil
	}
	return &key
}

func browse(ctx context.Context, out io.Writer, rt *runtime, feed string, o browseOptions) error {
	switch feed {
	case feeds.FeedTrending:
		f := feeds.TrendingFilter{Since: feeds.Since(o.since), Language: o.language}
		fetcher, err := feeds.Trending(rt.gh, f)
		if err != nil {
			return err
		}
		key, ok := f.SessionKey()
		return runSession(ctx, out, rt, feed, fetcher, feeds.ToRepoRecord, sessionKey(key, ok, o.noCache), renderRepo, o)

	case feeds.FeedRepoIssues:
		owner, name, err := splitRepo(o.repo)
		if err != nil {
			return err
		}
		q := feeds.IssueQuery{Owner: owner, Repo: name, State: feeds.IssueState(o.state), Query: o.query}
		fetcher, err := feeds.RepoIssues(rt.gh, q)
		if err != nil {
			return err
		}
		key, ok := q.SessionKey()
		return runSession(ctx, out, rt, feed, fetcher, feeds.ToIssueRecord, sessionKey(key, ok, o.noCache), renderIssue, o)

	case feeds.FeedIssueComments:
		owner, name, err := splitRepo(o.repo)
		if err != nil {
			return err
		}
		fetcher, err := feeds.IssueComments(rt.gh, owner, name, o.number)
		if err != nil {
			return err
		}
		return runSession(ctx, out, rt, feed, fetcher, feeds.CommentToIssueRecord, nil, renderIssue, o)

	case feeds.FeedNotifications:
		fetcher, err := feeds.Notifications(rt.gh, feeds.NotifyFilter{All: o.all, Participating: o.participating})
		if err != nil {
			return err
		}
		return runSession(ctx, out, rt, feed, fetcher, feeds.NotificationToEventRecord, nil, renderEvent, o)

	case feeds.FeedEvents:
		f := feeds.EventFilter{User: o.user, Performed: o.performed}
		fetcher, err := feeds.Events(rt.gh, f)
		if err != nil {
			return err
		}
		key, ok := f.SessionKey()
		return runSession(ctx, out, rt, feed, fetcher, feeds.EventToEventRecord, sessionKey(key, ok, o.noCache), renderEvent, o)

	case feeds.FeedSearchRepos:
		fetcher, err := feeds.SearchRepos(rt.gh, feeds.SearchQuery{Query: o.query, Sort: o.sort, Order: o.order, Language: o.language})
		if err != nil {
			return err
		}
		return runSession(ctx, out, rt, feed, fetcher, feeds.ToRepoRecord, nil, renderRepo, o)

	case feeds.FeedUserRepos:
		f := feeds.UserRepoFilter{User: o.user, Sort: o.sort}
		fetcher, err := feeds.UserRepos(rt.gh, f)
		if err != nil {
			return err
		}
		key, ok := f.SessionKey(rt.viewer)
		return runSession(ctx, out, rt, feed, fetcher, feeds.ToRepoRecord, sessionKey(key, ok, o.noCache), renderRepo, o)

	default:
		return fmt.Errorf("unknown feed %q (want one of %s)", feed, strings.Join(feedNames, ", "))
	}
}

// runSession drives one list session: the stored first page is printed
// first, then up to o.pages live pages.
func runSession[R, T any](ctx context.Context, out io.Writer, rt *runtime, feed string, fetcher pagination.Fetcher[R], transform pagination.Transformer[R, T], key *snapshot.Key, render func(io.Writer, T), o browseOptions) error {
	var (
		cache *snapshot.Reconciler[T]
		opts  []listview.Option[T]
	)
	if key != nil {
		cache = snapshot.Restore[T](ctx, rt.store, *key)
		opts = append(opts, listview.WithPersist(snapshot.Persister[T](rt.store, *key)))
	}

	list, err := listview.New(ctx, fetcher, transform, pagination.Config{Feed: feed, PageSize: rt.cfg.PageSize}, cache, opts...)
	if err != nil {
		return err
	}
	defer list.Close()

	p := newPrinter[T](out, o.format, render)

	if st := list.State(); st.HasCache {
		p.heading("cached")
		if err := p.records(st.Cache); err != nil {
			return err
		}
	}

	printed := 0
	for loaded := 0; o.pages == 0 || loaded < o.pages; loaded++ {
		if !list.RequestNextPage() {
			break
		}
		list.Wait()

		st := list.State()
		if st.Status == pagination.StatusFailed {
			return fmt.Errorf("load page %d: %s", st.Page, st.LastError)
		}
		if loaded == 0 {
			p.heading("live")
		}
		if err := p.records(st.Items[printed:]); err != nil {
			return err
		}
		printed = len(st.Items)
	}

	st := list.State()
	switch {
	case st.IsEmpty():
		p.note("no results")
	case st.CanLoadMore():
		p.note(fmt.Sprintf("more results: rerun with --pages %d", st.Cursor.Next))
	}
	return nil
}
