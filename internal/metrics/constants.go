package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished    = "events_published_total"
	MetricNameEventHandlerErrors = "event_handler_errors_total"
)

// Business metric names
const (
	MetricNameTokensIssued         = "connect_tokens_issued_total"
	MetricNameTokenRefreshesShared = "connect_token_refreshes_shared_total"
	MetricNameConnectAttempts      = "connect_attempts_total"
	MetricNameAccountsResolved     = "connect_accounts_resolved_total"
	MetricNameCatalogSearches      = "catalog_searches_total"
	MetricNameCatalogSearchesStale = "catalog_searches_stale_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Event metric help text
const (
	HelpTextEventsPublished    = "Total number of events published"
	HelpTextEventHandlerErrors = "Total number of event handler errors"
)

// Business metric help text
const (
	HelpTextTokensIssued         = "Total number of connect tokens issued by the broker"
	HelpTextTokenRefreshesShared = "Total number of refresh callers that piggybacked on an in-flight broker call"
	HelpTextConnectAttempts      = "Total number of connect attempts by terminal outcome"
	HelpTextAccountsResolved     = "Total number of account resolutions by result"
	HelpTextCatalogSearches      = "Total number of catalog searches sent to the broker"
	HelpTextCatalogSearchesStale = "Total number of search responses dropped as stale"
)

// ============================================================================
// Metric Label Names
// ============================================================================

// Common label names used across metrics
const (
	LabelMethod  = "method"
	LabelPath    = "path"
	LabelStatus  = "status"
	LabelType    = "type"
	LabelReason  = "reason"
	LabelOutcome = "outcome"
	LabelResult  = "result"
)

// Connect attempt outcome label values
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeClosed    = "closed"
)

// Token issue reason label values
const (
	ReasonRefresh  = "refresh"
	ReasonRotation = "rotation"
)

// Account resolution result label values
const (
	ResultMatched   = "matched"
	ResultSynthetic = "synthetic"
	ResultError     = "error"
)

// ============================================================================
// Histogram Buckets
// ============================================================================

// HTTPLatencyBuckets defines the histogram buckets for HTTP request duration
// in seconds. These buckets range from 1ms to 10s to capture various latency
// patterns: fast (1-10ms), normal (10-100ms), slow (100ms-1s), very slow (1-10s)
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// ============================================================================
// Log Messages
// ============================================================================

const (
	LogMsgMetricsRecorded = "Metrics recorded for event"
)
