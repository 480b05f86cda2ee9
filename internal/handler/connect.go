package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ninelinehq/ConnectPortal_Go/internal/catalog"
	"github.com/ninelinehq/ConnectPortal_Go/internal/connect"
	"github.com/ninelinehq/ConnectPortal_Go/internal/domain"
	"github.com/ninelinehq/ConnectPortal_Go/internal/logger"
	"github.com/ninelinehq/ConnectPortal_Go/internal/session"
)

// ConnectHandlers contains handlers for the connect flow
type ConnectHandlers struct {
	sessions *session.Manager
	catalog  catalog.Client
}

// NewConnectHandlers creates new connect flow handlers
func NewConnectHandlers(sessions *session.Manager, catalogClient catalog.Client) *ConnectHandlers {
	return &ConnectHandlers{sessions: sessions, catalog: catalogClient}
}

// StartRequest is the request body for starting a connect attempt
type StartRequest struct {
	ExternalUserID string `json:"external_user_id" validate:"required,max=128"`
	AppSlug        string `json:"app_slug" validate:"required,app_slug,max=128"`
}

// StartResponse is the response body for a started connect attempt
type StartResponse struct {
	AttemptID  string              `json:"attempt_id"`
	State      domain.AttemptState `json:"state"`
	AppSlug    string              `json:"app_slug"`
	ConnectURL string              `json:"connect_url"`
}

// CallbackRequest is the request body the widget posts back after the
// authorization handshake ends.
type CallbackRequest struct {
	ExternalUserID string `json:"external_user_id" validate:"required,max=128"`
	Status         string `json:"status" validate:"required,oneof=connected error closed"`
	AccountID      string `json:"account_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

// HandleStart handles POST /connect/start
// @Summary Start a connect attempt
// @Description Secures a connect token and returns the widget URL. The outcome arrives later on the event stream.
// @Tags connect
// @Accept json
// @Produce json
// @Param request body StartRequest true "Start request"
// @Success 202 {object} StartResponse
// @Failure 400 {object} ValidationErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /connect/start [post]
func (h *ConnectHandlers) HandleStart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Start connect"); err != nil {
			return
		}

		ctx := logger.WithExternalUserID(r.Context(), req.ExternalUserID)
		log := logger.FromContext(ctx)

		sess := h.sessions.Get(req.ExternalUserID)

		entry, found := h.findEntry(ctx, sess, req.AppSlug)
		if !found {
			log.Warn(ErrMsgAppNotFound, "app_slug", req.AppSlug)
			respondError(w, http.StatusNotFound, ErrMsgAppNotFound)
			return
		}

		attempt, connectURL, err := sess.Connect.Start(ctx, entry)
		if err != nil {
			log.Warn(ErrMsgStartConnectFailed, "app_slug", req.AppSlug, "error", err)
			statusCode, userMsg := mapServiceErrorToUserMessage(err)
			respondError(w, statusCode, userMsg)
			return
		}

		respondJSON(w, http.StatusAccepted, StartResponse{
			AttemptID:  attempt.ID,
			State:      attempt.State,
			AppSlug:    attempt.TargetSlug,
			ConnectURL: connectURL,
		})
	}
}

// HandleCallback handles POST /connect/callback
// @Summary Complete a widget handshake
// @Description Relays the widget's reported outcome to the attempt awaiting it
// @Tags connect
// @Accept json
// @Produce json
// @Param request body CallbackRequest true "Callback request"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ValidationErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /connect/callback [post]
func (h *ConnectHandlers) HandleCallback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CallbackRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Connect callback"); err != nil {
			return
		}

		ctx := logger.WithExternalUserID(r.Context(), req.ExternalUserID)
		log := logger.FromContext(ctx)

		sess := h.sessions.Get(req.ExternalUserID)
		outcome := connect.HandshakeOutcome{
			Status:    connect.OutcomeStatus(req.Status),
			AccountID: req.AccountID,
			Message:   req.Error,
		}

		if err := sess.Connect.CompleteHandshake(ctx, outcome); err != nil {
			log.Warn("Failed to complete handshake", "status", req.Status, "error", err)
			statusCode, userMsg := mapServiceErrorToUserMessage(err)
			respondError(w, statusCode, userMsg)
			return
		}

		respondJSON(w, http.StatusOK, SuccessResponse{Message: "Callback accepted"})
	}
}

// findEntry locates the catalog entry for a slug, preferring the
// session's accumulated results and falling back to a direct broker
// lookup when the dashboard skipped the search step.
func (h *ConnectHandlers) findEntry(ctx context.Context, sess *session.Session, appSlug string) (domain.CatalogEntry, bool) {
	entries, _ := sess.Catalog.Results()
	for _, e := range entries {
		if strings.EqualFold(e.Slug, appSlug) {
			return e, true
		}
	}

	if h.catalog == nil {
		return domain.CatalogEntry{}, false
	}

	lookupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	page, err := h.catalog.SearchApps(lookupCtx, appSlug, catalog.DefaultPageSize, "")
	if err != nil {
		logger.FromContext(ctx).Warn("Catalog lookup failed", "app_slug", appSlug, "error", err)
		return domain.CatalogEntry{}, false
	}
	for _, e := range page.Entries {
		if strings.EqualFold(e.Slug, appSlug) {
			return e, true
		}
	}
	return domain.CatalogEntry{}, false
}
