package broker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ninelinehq/ConnectPortal_Go/internal/domain"
	"github.com/ninelinehq/ConnectPortal_Go/internal/logger"
)

type accountEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	App  struct {
		NameSlug string `json:"name_slug"`
	} `json:"app"`
}

type accountsResponse struct {
	Data []accountEntry `json:"data"`
}

// ListAccounts returns every account the broker holds for the external
// user. The broker has no per-account lookup for connect users, so
// callers scan this list for the id they want.
func (c *Client) ListAccounts(ctx context.Context, externalUserID string) ([]domain.LinkedAccount, error) {
	path := fmt.Sprintf(PathAccounts, c.projectID)
	q := url.Values{}
	q.Set("external_user_id", externalUserID)

	var resp accountsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, q, nil, &resp); err != nil {
		return nil, err
	}

	accounts := make([]domain.LinkedAccount, 0, len(resp.Data))
	for _, a := range resp.Data {
		accounts = append(accounts, domain.LinkedAccount{
			ID:          a.ID,
			DisplayName: a.Name,
			SourceSlug:  a.App.NameSlug,
		})
	}

	logger.FromContext(ctx).Debug(LogMsgAccountsListed,
		"external_user_id", externalUserID, "count", len(accounts))

	return accounts, nil
}
