package handler

// Generic HTTP error messages for client responses.
// These messages intentionally do not expose internal error details.
// Both handlers and tests should reference these constants to maintain
// consistency.
const (
	// HTTP status messages
	ErrMsgMethodNotAllowed      = "Method not allowed"
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request"

	// Query parameter error messages
	ErrMsgMissingQueryParam = "Missing %s query parameter"

	// Token error messages
	ErrMsgIssueTokenFailed = "Failed to issue connect token"

	// Catalog error messages
	ErrMsgSearchFailed = "Failed to search apps"

	// Connect flow error messages
	ErrMsgStartConnectFailed = "Failed to start connect attempt"
	ErrMsgAppNotFound        = "App not found in catalog"
	ErrMsgInvalidStatus      = "Invalid callback status"
)
