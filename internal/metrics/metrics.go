package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Event Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsPublished,
			Help: HelpTextEventsPublished,
		},
		[]string{LabelType},
	)

	EventHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventHandlerErrors,
			Help: HelpTextEventHandlerErrors,
		},
		[]string{LabelType},
	)
)

// Business Metrics
var (
	TokensIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameTokensIssued,
			Help: HelpTextTokensIssued,
		},
		[]string{LabelReason},
	)

	TokenRefreshesShared = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameTokenRefreshesShared,
			Help: HelpTextTokenRefreshesShared,
		},
	)

	ConnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameConnectAttempts,
			Help: HelpTextConnectAttempts,
		},
		[]string{LabelOutcome},
	)

	AccountsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameAccountsResolved,
			Help: HelpTextAccountsResolved,
		},
		[]string{LabelResult},
	)

	CatalogSearches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameCatalogSearches,
			Help: HelpTextCatalogSearches,
		},
	)

	CatalogSearchesStale = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameCatalogSearchesStale,
			Help: HelpTextCatalogSearchesStale,
		},
	)
)
