// Package snapshot holds the single-page cache shown before a session's live
// data arrives.
//
// A Reconciler is created once per session from prior data (usually the
// stored first page of the previous session with the same filters) and is
// cleared by the controller's first-page-arrival signal:
//
//	rec := snapshot.Restore[feeds.RepoRecord](ctx, store, key)
//	ctrl, _ := pagination.NewController(fetcher, transform, cfg,
//		pagination.WithFirstPageHook(rec.Clear))
//
// The snapshot is a placeholder, not a fallback: a failed load does not
// bring it back once cleared, and sessions without prior data (search) pass
// a nil reconciler.
//
// Store persists first pages in Redis with a TTL. Warmer refreshes stored
// first pages for many session configurations with a bounded worker pool.
package snapshot
