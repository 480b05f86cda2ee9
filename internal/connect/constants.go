package connect

import "time"

// Resolver cache sizing. Resolved accounts are immutable, so the TTL
// only bounds memory, not staleness.
const (
	ResolverCacheSize = 256
	ResolverCacheTTL  = 15 * time.Minute
)

// Connect URL query parameter carrying the target app
const ConnectURLAppParam = "app"

// Log messages
const (
	LogMsgAttemptStarted      = "Connect attempt started"
	LogMsgAttemptBlocked      = "Connect attempt blocked, one already in flight"
	LogMsgTokenUnavailable    = "Connect attempt failed, no usable token"
	LogMsgHandshakeDone       = "Widget handshake completed"
	LogMsgHandshakeAbandoned  = "Widget handshake abandoned"
	LogMsgWidgetClosed        = "Widget closed without connecting"
	LogMsgWidgetError         = "Widget reported an error"
	LogMsgAccountResolved     = "Linked account resolved"
	LogMsgAccountSynthetic    = "Account missing from listing, using synthetic fallback"
	LogMsgResolutionFailed    = "Account resolution failed"
	LogMsgAttemptSucceeded    = "Connect attempt succeeded"
	LogMsgRotationFailed      = "Post-connect token rotation failed"
	LogMsgStaleOutcomeDropped = "Dropping handshake outcome for a finished attempt"
)
