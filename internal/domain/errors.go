package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// Token errors
	ErrMsgTokenUnavailable = "connect token unavailable"

	// Connect flow errors
	ErrMsgConnectInProgress = "a connect attempt is already in progress"
	ErrMsgNoActiveHandshake = "no handshake awaiting completion"
	ErrMsgHandshakeFailed   = "authorization handshake failed"
	ErrMsgAppNotConnectable = "app does not support account connections"

	// Account resolution errors
	// The exact text is part of the upward contract with the dashboard.
	ErrMsgAccountResolution = "Failed to fetch account details"

	// Catalog errors
	ErrMsgSearchUnavailable = "catalog search unavailable"

	// Broker/system errors
	ErrMsgBrokerUnavailable = "broker request failed"

	// Session errors
	ErrMsgSessionNotFound = "session not found"

	// Input errors
	ErrMsgInvalidInput = "invalid input"
)

// Common domain errors
// These errors should be used consistently across all layers of the application.
// Wrap these errors with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	// Token errors
	ErrTokenUnavailable = errors.New(ErrMsgTokenUnavailable)

	// Connect flow errors
	ErrConnectInProgress = errors.New(ErrMsgConnectInProgress)
	ErrNoActiveHandshake = errors.New(ErrMsgNoActiveHandshake)
	ErrHandshakeFailed   = errors.New(ErrMsgHandshakeFailed)
	ErrAppNotConnectable = errors.New(ErrMsgAppNotConnectable)

	// Account resolution errors
	ErrAccountResolution = errors.New(ErrMsgAccountResolution)

	// Catalog errors
	ErrSearchUnavailable = errors.New(ErrMsgSearchUnavailable)

	// Broker/system errors
	ErrBrokerUnavailable = errors.New(ErrMsgBrokerUnavailable)

	// Session errors
	ErrSessionNotFound = errors.New(ErrMsgSessionNotFound)

	// Validation errors
	ErrInvalidInput = errors.New(ErrMsgInvalidInput)
)
