package domain

// Event type names shared by the event bus, SSE layer and metrics.
const (
	// EventTypeAccountConnected fires exactly once per successful connect
	// attempt. This is the dashboard's onAccountConnected notification.
	EventTypeAccountConnected = "connect.account_connected"

	// EventTypeConnectFailed fires for terminal connect failures. User
	// cancellation never produces this event.
	EventTypeConnectFailed = "connect.failed"

	// EventTypeSearchCompleted carries debounced catalog search results
	// back to the dashboard.
	EventTypeSearchCompleted = "catalog.search_completed"
)
