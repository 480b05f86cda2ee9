package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ninelinehq/ConnectPortal_Go/internal/logger"
	"github.com/ninelinehq/ConnectPortal_Go/internal/session"
)

// AccountHandlers contains handlers for linked account lookup
type AccountHandlers struct {
	sessions *session.Manager
}

// NewAccountHandlers creates new account handlers
func NewAccountHandlers(sessions *session.Manager) *AccountHandlers {
	return &AccountHandlers{sessions: sessions}
}

// HandleGetAccount handles GET /connect/accounts/{accountID}
// @Summary Resolve a linked account
// @Description Returns account details for a broker account id, falling back to a synthetic placeholder when the listing has not caught up yet
// @Tags connect
// @Produce json
// @Param accountID path string true "Broker account id"
// @Param external_user_id query string true "External user id"
// @Success 200 {object} domain.LinkedAccount
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /connect/accounts/{accountID} [get]
func (h *AccountHandlers) HandleGetAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		externalUserID, ok := GetQueryParam(r, w, "external_user_id")
		if !ok {
			return
		}
		accountID := chi.URLParam(r, "accountID")
		if accountID == "" {
			http.Error(w, ErrMsgInvalidRequestSummary, http.StatusBadRequest)
			return
		}

		ctx := logger.WithExternalUserID(r.Context(), externalUserID)
		log := logger.FromContext(ctx)

		sess := h.sessions.Get(externalUserID)
		account, err := sess.Resolver.Resolve(ctx, externalUserID, accountID)
		if err != nil {
			log.Error("Failed to resolve account", "account_id", accountID, "error", err)
			statusCode, userMsg := mapServiceErrorToUserMessage(err)
			respondError(w, statusCode, userMsg)
			return
		}

		respondJSON(w, http.StatusOK, account)
	}
}
