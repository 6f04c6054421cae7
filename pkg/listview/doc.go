// Package listview turns a paging session into observable list state.
//
// A List pairs a pagination.Controller with an optional snapshot of records
// from a previous session. The snapshot is shown until the session's first
// non-empty page 1 arrives, then dropped for good; later loads never bring it
// back. Every change is expressed as an Action folded into an immutable State
// by Reduce, so the presentation layer only ever renders values.
//
// Usage:
//
//	cache := snapshot.Restore[feeds.RepoRecord](ctx, store, key)
//	list, err := listview.New(ctx, fetcher, feeds.ToRepoRecord, cfg, cache,
//	    listview.WithPersist(snapshot.Persister[feeds.RepoRecord](store, key)))
//	if err != nil {
//	    return err
//	}
//	defer list.Close()
//
//	list.RequestNextPage()
//	for st := range list.Updates() {
//	    render(st.DisplayItems(), st.Loading(), st.LastError)
//	}
package listview
