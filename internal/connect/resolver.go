package connect

import (
	"context"
	"fmt"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/ninelinehq/ConnectPortal_Go/internal/domain"
	"github.com/ninelinehq/ConnectPortal_Go/internal/logger"
	"github.com/ninelinehq/ConnectPortal_Go/internal/metrics"
)

// AccountLister is the slice of the broker client the resolver needs
type AccountLister interface {
	ListAccounts(ctx context.Context, externalUserID string) ([]domain.LinkedAccount, error)
}

// Resolver turns the account id reported by the widget into a full
// LinkedAccount. The broker offers no per-account lookup for connect
// users, so resolution lists the user's accounts and scans for the id.
type Resolver struct {
	lister AccountLister
	cache  *expirable.LRU[string, domain.LinkedAccount]
}

// NewResolver creates a resolver with an expiring account cache
func NewResolver(lister AccountLister) *Resolver {
	return &Resolver{
		lister: lister,
		cache:  expirable.NewLRU[string, domain.LinkedAccount](ResolverCacheSize, nil, ResolverCacheTTL),
	}
}

// Resolve finds the account by id among the user's accounts. An id
// missing from the listing degrades to a synthetic account carrying the
// id as its display name; only a failed listing call is an error.
func (r *Resolver) Resolve(ctx context.Context, externalUserID, accountID string) (domain.LinkedAccount, error) {
	log := logger.FromContext(ctx)
	key := externalUserID + ":" + accountID

	if account, ok := r.cache.Get(key); ok {
		return account, nil
	}

	accounts, err := r.lister.ListAccounts(ctx, externalUserID)
	if err != nil {
		metrics.AccountsResolved.WithLabelValues(metrics.ResultError).Inc()
		log.Warn(LogMsgResolutionFailed, "account_id", accountID, "error", err)
		return domain.LinkedAccount{}, fmt.Errorf("%w: %v", domain.ErrAccountResolution, err)
	}

	for _, account := range accounts {
		if account.ID == accountID {
			r.cache.Add(key, account)
			metrics.AccountsResolved.WithLabelValues(metrics.ResultMatched).Inc()
			log.Debug(LogMsgAccountResolved,
				"account_id", account.ID, "app_slug", account.SourceSlug)
			return account, nil
		}
	}

	// The broker listing can lag right after authorization. The id is
	// authoritative, so fall back to it for the display name too.
	synthetic := domain.LinkedAccount{ID: accountID, DisplayName: accountID}
	metrics.AccountsResolved.WithLabelValues(metrics.ResultSynthetic).Inc()
	log.Info(LogMsgAccountSynthetic, "account_id", accountID)
	return synthetic, nil
}
