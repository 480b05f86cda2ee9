package token

import (
	"context"

	"github.com/ninelinehq/ConnectPortal_Go/internal/domain"
	"github.com/ninelinehq/ConnectPortal_Go/internal/logger"
)

// Issuer mints connect tokens for an external user
type Issuer interface {
	Issue(ctx context.Context, externalUserID string) (domain.ConnectToken, error)
}

// TokenCreator is the slice of the broker client the issuer needs
type TokenCreator interface {
	CreateToken(ctx context.Context, externalUserID string) (domain.ConnectToken, error)
}

type brokerIssuer struct {
	broker TokenCreator
}

// NewIssuer creates an Issuer backed by the broker client
func NewIssuer(broker TokenCreator) Issuer {
	return &brokerIssuer{broker: broker}
}

// Issue mints a fresh token. Stateless; freshness and rotation policy
// belong to the Cache.
func (i *brokerIssuer) Issue(ctx context.Context, externalUserID string) (domain.ConnectToken, error) {
	tok, err := i.broker.CreateToken(ctx, externalUserID)
	if err != nil {
		logger.FromContext(ctx).Warn(LogMsgTokenIssueFailed,
			"external_user_id", externalUserID, "error", err)
		return domain.ConnectToken{}, err
	}

	logger.FromContext(ctx).Debug(LogMsgTokenIssued,
		"external_user_id", externalUserID, "expires_at", tok.ExpiresAt)
	return tok, nil
}
