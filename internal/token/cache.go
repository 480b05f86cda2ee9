package token

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ninelinehq/ConnectPortal_Go/internal/domain"
	"github.com/ninelinehq/ConnectPortal_Go/internal/logger"
	"github.com/ninelinehq/ConnectPortal_Go/internal/metrics"
)

// Cache holds the single live connect token for one external user.
// Reads are lock-cheap; refreshes are collapsed so N concurrent callers
// produce exactly one broker call. The cache is the token's only writer.
type Cache struct {
	issuer         Issuer
	externalUserID string

	mu       sync.RWMutex
	current  domain.ConnectToken
	hasToken bool

	group singleflight.Group

	// now is swappable for tests
	now func() time.Time
}

// NewCache creates a cache bound to one external user for the life of
// a session.
func NewCache(issuer Issuer, externalUserID string) *Cache {
	return &Cache{
		issuer:         issuer,
		externalUserID: externalUserID,
		now:            time.Now,
	}
}

// Current returns the cached token without blocking. The second return
// is false when no valid token is held.
func (c *Cache) Current() (domain.ConnectToken, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.hasToken && c.current.Valid(c.now()) {
		return c.current, true
	}
	return domain.ConnectToken{}, false
}

// EnsureFresh returns a valid token, issuing a new one only when the
// cached token is missing or expired. Concurrent callers share a single
// issuer call. If issuing fails but a previously issued token is still
// valid, that token is served; otherwise ErrTokenUnavailable.
func (c *Cache) EnsureFresh(ctx context.Context) (domain.ConnectToken, error) {
	if tok, ok := c.Current(); ok {
		return tok, nil
	}

	result, err, shared := c.group.Do(refreshKey, func() (interface{}, error) {
		// Another caller may have completed a refresh between our
		// freshness check and entering the flight.
		if tok, ok := c.Current(); ok {
			return tok, nil
		}
		return c.refresh(ctx, metrics.ReasonRefresh)
	})

	if shared {
		metrics.TokenRefreshesShared.Inc()
		logger.FromContext(ctx).Debug(LogMsgRefreshPiggyback,
			"external_user_id", c.externalUserID)
	}

	if err != nil {
		// Last-known-good fallback. A rotation may have landed while we
		// were in flight.
		if tok, ok := c.Current(); ok {
			logger.FromContext(ctx).Warn(LogMsgServingLastKnown,
				"external_user_id", c.externalUserID, "error", err)
			return tok, nil
		}
		return domain.ConnectToken{}, fmt.Errorf("%w: %v", domain.ErrTokenUnavailable, err)
	}

	return result.(domain.ConnectToken), nil
}

// Rotate unconditionally issues a replacement token, discarding the
// current one. Called after a successful connect because the broker
// invalidates a token once its authorization flow completes.
func (c *Cache) Rotate(ctx context.Context) (domain.ConnectToken, error) {
	tok, err := c.refresh(ctx, metrics.ReasonRotation)
	if err != nil {
		return domain.ConnectToken{}, fmt.Errorf("%w: %v", domain.ErrTokenUnavailable, err)
	}
	logger.FromContext(ctx).Debug(LogMsgTokenRotated,
		"external_user_id", c.externalUserID, "expires_at", tok.ExpiresAt)
	return tok, nil
}

// Clear drops the cached token. Used when the owning session is evicted.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.current = domain.ConnectToken{}
	c.hasToken = false
	c.mu.Unlock()
	logger.FromContext(context.Background()).Debug(LogMsgTokenCacheCleared,
		"external_user_id", c.externalUserID)
}

// refresh issues and stores a new token. Failure leaves the previous
// token in place for the last-known-good path.
func (c *Cache) refresh(ctx context.Context, reason string) (domain.ConnectToken, error) {
	tok, err := c.issuer.Issue(ctx, c.externalUserID)
	if err != nil {
		return domain.ConnectToken{}, err
	}

	c.mu.Lock()
	c.current = tok
	c.hasToken = true
	c.mu.Unlock()

	metrics.TokensIssued.WithLabelValues(reason).Inc()
	return tok, nil
}
