package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ninelinehq/ConnectPortal_Go/internal/domain"
)

// Standard response types for consistent API responses

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// DataResponse represents a response with data payload
type DataResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// bufferPool is a pool of bytes.Buffer to reduce allocations during JSON encoding
var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	buf := bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufferPool.Put(buf)
	}()

	// Encode to the buffer first; headers are already sent, so encoding
	// failures can only be logged.
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		return
	}

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// User-facing error messages for service errors
const (
	ErrMsgGenericServerError  = "Something went wrong"
	ErrMsgUnknownError        = "Unknown error"
	ErrMsgUnavailableError    = "Upstream service is unavailable. Please try again later."
	ErrMsgTokenUnavailableErr = "Could not obtain a connect token. Please try again later."
	ErrMsgInProgressError     = "A connect attempt is already in progress"
	ErrMsgNoHandshakeError    = "No connect attempt is awaiting completion"
	ErrMsgNotConnectableError = "That app does not support account connections"
	ErrMsgSessionNotFoundErr  = "Session not found"
	ErrMsgInvalidInputError   = "Invalid request. Please check your inputs."
)

// mapServiceErrorToUserMessage maps domain errors to user-friendly HTTP
// responses. Broker failures surface as bad-gateway so callers can tell
// an upstream outage from their own mistake.
func mapServiceErrorToUserMessage(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgUnknownError
	}

	switch {
	case errors.Is(err, domain.ErrTokenUnavailable):
		return http.StatusBadGateway, ErrMsgTokenUnavailableErr
	case errors.Is(err, domain.ErrBrokerUnavailable):
		return http.StatusBadGateway, ErrMsgUnavailableError
	case errors.Is(err, domain.ErrAccountResolution):
		return http.StatusBadGateway, domain.ErrMsgAccountResolution
	case errors.Is(err, domain.ErrConnectInProgress):
		return http.StatusConflict, ErrMsgInProgressError
	case errors.Is(err, domain.ErrNoActiveHandshake):
		return http.StatusNotFound, ErrMsgNoHandshakeError
	case errors.Is(err, domain.ErrAppNotConnectable):
		return http.StatusBadRequest, ErrMsgNotConnectableError
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, ErrMsgSessionNotFoundErr
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrMsgInvalidInputError
	}

	return http.StatusInternalServerError, ErrMsgGenericServerError
}
