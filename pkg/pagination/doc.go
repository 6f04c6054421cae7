// Package pagination drives forward-only paging sessions over paged REST endpoints.
//
// A session pairs a Fetcher (one call to a paged endpoint, with the session's
// filters bound in) and a Transformer (raw item to presentation record). The
// Controller owns the cursor and enforces single-flight loading:
//
//	ctrl, err := pagination.NewController(fetcher, transform,
//		pagination.DefaultConfig("notifications"),
//		pagination.WithFirstPageHook(reconciler.Clear),
//	)
//	page, err := ctrl.Next(ctx)   // page 1, then 2, 3, ...
//	page, err = ctrl.Refresh(ctx) // page 1 again, items replaced
//
// Termination:
//   - the endpoint reported a page count and the loaded page is the last one
//   - the endpoint returned an empty page (the only signal when no count is reported)
//
// Failed loads leave the cursor untouched; calling Next again retries the same page.
package pagination
