package broker

import "time"

// API paths (relative to the broker host)
const (
	PathOAuthToken = "/v1/oauth/token"
	PathTokens     = "/v1/connect/%s/tokens"   // project id
	PathAccounts   = "/v1/connect/%s/accounts" // project id
	PathApps       = "/v1/apps"
)

// Request headers
const (
	HeaderEnvironment = "X-PD-Environment"
	HeaderContentType = "Content-Type"
	ContentTypeJSON   = "application/json"
)

// Query parameters for catalog search
const (
	ParamQuery         = "q"
	ParamLimit         = "limit"
	ParamAfter         = "after"
	ParamSortKey       = "sort_key"
	ParamSortDirection = "sort_direction"

	SortKeyFeatured = "featured_weight"
	SortDesc        = "desc"
)

// DefaultTimeout bounds every broker round trip. The core controllers
// carry no per-call deadlines, so this is the only thing standing
// between a hung broker and a hung goroutine.
const DefaultTimeout = 30 * time.Second

// Log messages
const (
	LogMsgRequestFailed  = "Broker request failed"
	LogMsgBadStatus      = "Broker returned non-success status"
	LogMsgDecodeFailed   = "Failed to decode broker response"
	LogMsgTokenCreated   = "Connect token created"
	LogMsgAccountsListed = "Accounts listed"
)
