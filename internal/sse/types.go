package sse

// ConnectedPayload is the first event sent on every new stream
type ConnectedPayload struct {
	ClientID string `json:"client_id"`
	Message  string `json:"message"`
}

// KeepalivePayload is sent periodically to keep proxies from closing
// idle streams
type KeepalivePayload struct {
	Time int64 `json:"time"`
}

// AccountConnectedPayload mirrors the bus payload for browser consumption
type AccountConnectedPayload struct {
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
	AppSlug     string `json:"app_slug"`
}

// ConnectFailedPayload carries the terminal failure message verbatim
type ConnectFailedPayload struct {
	AppSlug string `json:"app_slug"`
	Message string `json:"message"`
}

// SearchCompletedPayload tells the dashboard a debounced search landed
type SearchCompletedPayload struct {
	Query       string `json:"query"`
	ResultCount int    `json:"result_count"`
	HasMore     bool   `json:"has_more"`
}
