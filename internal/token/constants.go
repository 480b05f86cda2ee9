package token

// Log messages
const (
	LogMsgTokenIssued       = "Connect token issued"
	LogMsgTokenIssueFailed  = "Connect token issue failed"
	LogMsgServingLastKnown  = "Issuer failed, serving last known valid token"
	LogMsgTokenRotated      = "Connect token rotated"
	LogMsgRefreshPiggyback  = "Refresh joined in-flight broker call"
	LogMsgTokenCacheCleared = "Token cache cleared"
)

// refreshKey is the singleflight key. The cache is bound to a single
// external user, so one key collapses every concurrent refresh.
const refreshKey = "refresh"
