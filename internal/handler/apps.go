package handler

import (
	"net/http"

	"github.com/ninelinehq/ConnectPortal_Go/internal/domain"
	"github.com/ninelinehq/ConnectPortal_Go/internal/logger"
	"github.com/ninelinehq/ConnectPortal_Go/internal/session"
)

// CatalogHandlers contains handlers for catalog search
type CatalogHandlers struct {
	sessions *session.Manager
}

// NewCatalogHandlers creates new catalog handlers
func NewCatalogHandlers(sessions *session.Manager) *CatalogHandlers {
	return &CatalogHandlers{sessions: sessions}
}

// AppsResponse is the response body for catalog search results
type AppsResponse struct {
	Data    []domain.CatalogEntry `json:"data"`
	HasMore bool                  `json:"has_more"`
}

// LoadMoreRequest is the request body for fetching the next results page
type LoadMoreRequest struct {
	ExternalUserID string `json:"external_user_id" validate:"required,max=128"`
}

// HandleSearchApps handles GET /connect/apps
// @Summary Search the app catalog
// @Description Runs a catalog search for the session. Only connectable apps are returned; an empty query clears the search session.
// @Tags catalog
// @Produce json
// @Param external_user_id query string true "External user id"
// @Param q query string false "Search text"
// @Success 200 {object} AppsResponse
// @Failure 400 {object} ErrorResponse
// @Router /connect/apps [get]
func (h *CatalogHandlers) HandleSearchApps() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		externalUserID, ok := GetQueryParam(r, w, "external_user_id")
		if !ok {
			return
		}
		query := GetOptionalQueryParam(r, "q", "")

		ctx := logger.WithExternalUserID(r.Context(), externalUserID)

		sess := h.sessions.Get(externalUserID)
		entries, hasMore := sess.Catalog.Search(ctx, query)

		respondJSON(w, http.StatusOK, AppsResponse{
			Data:    entriesOrEmpty(entries),
			HasMore: hasMore,
		})
	}
}

// HandleLoadMore handles POST /connect/apps/more
// @Summary Fetch the next catalog page
// @Description Appends the next page of results for the session's current search. A no-op without a prior search.
// @Tags catalog
// @Accept json
// @Produce json
// @Param request body LoadMoreRequest true "Load more request"
// @Success 200 {object} AppsResponse
// @Failure 400 {object} ValidationErrorResponse
// @Router /connect/apps/more [post]
func (h *CatalogHandlers) HandleLoadMore() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoadMoreRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Load more apps"); err != nil {
			return
		}

		ctx := logger.WithExternalUserID(r.Context(), req.ExternalUserID)

		sess := h.sessions.Get(req.ExternalUserID)
		entries, hasMore := sess.Catalog.LoadMore(ctx)

		respondJSON(w, http.StatusOK, AppsResponse{
			Data:    entriesOrEmpty(entries),
			HasMore: hasMore,
		})
	}
}

// entriesOrEmpty keeps the data field a JSON array instead of null
func entriesOrEmpty(entries []domain.CatalogEntry) []domain.CatalogEntry {
	if entries == nil {
		return []domain.CatalogEntry{}
	}
	return entries
}
