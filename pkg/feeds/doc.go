// Package feeds binds GitHub list endpoints to the paging controller.
//
// Each feed is a constructor returning a pagination.Fetcher over go-github
// items, a transformer into a presentation record (RepoRecord, IssueRecord or
// EventRecord), and a SessionKey for feeds whose first page is worth keeping
// as a snapshot between sessions.
//
// Pagination follows the Link header: rel="last" gives the page count, a
// page without rel="next" is the last one, and a response without any Link
// header leaves the total unknown so paging continues until an empty page.
package feeds
