package handler

import (
	"net/http"
	"time"

	"github.com/ninelinehq/ConnectPortal_Go/internal/logger"
	"github.com/ninelinehq/ConnectPortal_Go/internal/session"
)

// TokenHandlers contains handlers for connect token issuance
type TokenHandlers struct {
	sessions *session.Manager
}

// NewTokenHandlers creates new token handlers
func NewTokenHandlers(sessions *session.Manager) *TokenHandlers {
	return &TokenHandlers{sessions: sessions}
}

// TokenRequest is the request body for creating a connect token
type TokenRequest struct {
	ExternalUserID string `json:"external_user_id" validate:"required,max=128"`
}

// TokenResponse is the response body for a connect token
type TokenResponse struct {
	Token          string    `json:"token"`
	ConnectLinkURL string    `json:"connect_link_url"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// HandleCreateToken handles POST /connect/token
// @Summary Issue a connect token
// @Description Returns the session's connect token, refreshing it at the broker when missing or expired
// @Tags connect
// @Accept json
// @Produce json
// @Param request body TokenRequest true "Token request"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} ValidationErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /connect/token [post]
func (h *TokenHandlers) HandleCreateToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TokenRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Create token"); err != nil {
			return
		}

		ctx := logger.WithExternalUserID(r.Context(), req.ExternalUserID)
		log := logger.FromContext(ctx)

		sess := h.sessions.Get(req.ExternalUserID)
		tok, err := sess.Tokens.EnsureFresh(ctx)
		if err != nil {
			log.Error(ErrMsgIssueTokenFailed, "error", err)
			statusCode, userMsg := mapServiceErrorToUserMessage(err)
			respondError(w, statusCode, userMsg)
			return
		}

		respondJSON(w, http.StatusOK, TokenResponse{
			Token:          tok.Value,
			ConnectLinkURL: tok.ConnectLinkURL,
			ExpiresAt:      tok.ExpiresAt,
		})
	}
}
