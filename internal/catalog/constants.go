package catalog

import "time"

// DebounceInterval is how long the controller waits after the last
// keystroke before searching. Matches the dashboard's input debounce.
const DebounceInterval = 300 * time.Millisecond

// DefaultPageSize is the number of entries shown per page
const DefaultPageSize = 10

// OverfetchFactor is how many raw entries to request per displayed
// entry. The broker cannot filter on auth type server-side, so we fetch
// extra and filter the non-connectable ones locally.
const OverfetchFactor = 2

// Log messages
const (
	LogMsgSearchStarted   = "Catalog search started"
	LogMsgSearchFailed    = "Catalog search failed, serving empty results"
	LogMsgSearchApplied   = "Catalog search results applied"
	LogMsgStaleSearch     = "Dropping stale search response"
	LogMsgLoadMoreSkipped = "Load more skipped, nothing to fetch"
	LogMsgLoadMoreFailed  = "Load more failed, keeping accumulated results"
)
