package broker

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ninelinehq/ConnectPortal_Go/internal/domain"
	"github.com/ninelinehq/ConnectPortal_Go/internal/logger"
)

type createTokenRequest struct {
	ExternalUserID string `json:"external_user_id"`
}

type createTokenResponse struct {
	Token          string    `json:"token"`
	ExpiresAt      time.Time `json:"expires_at"`
	ConnectLinkURL string    `json:"connect_link_url"`
}

// CreateToken issues a short-lived connect token for the external user.
// Every call mints a fresh token; caching and rotation policy live in
// the token package, not here.
func (c *Client) CreateToken(ctx context.Context, externalUserID string) (domain.ConnectToken, error) {
	path := fmt.Sprintf(PathTokens, c.projectID)
	body := createTokenRequest{ExternalUserID: externalUserID}

	var resp createTokenResponse
	if err := c.doJSON(ctx, http.MethodPost, path, nil, body, &resp); err != nil {
		return domain.ConnectToken{}, err
	}

	logger.FromContext(ctx).Debug(LogMsgTokenCreated,
		"external_user_id", externalUserID, "expires_at", resp.ExpiresAt)

	return domain.ConnectToken{
		Value:          resp.Token,
		ConnectLinkURL: resp.ConnectLinkURL,
		ExpiresAt:      resp.ExpiresAt,
	}, nil
}
