package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninelinehq/ConnectPortal_Go/internal/broker"
	"github.com/ninelinehq/ConnectPortal_Go/internal/domain"
)

type stubIssuer struct{}

func (stubIssuer) Issue(ctx context.Context, externalUserID string) (domain.ConnectToken, error) {
	return domain.ConnectToken{Value: "ctok_" + externalUserID, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

type stubCatalog struct{}

func (stubCatalog) SearchApps(ctx context.Context, query string, limit int, cursor string) (broker.AppsPage, error) {
	return broker.AppsPage{}, nil
}

type stubAccounts struct{}

func (stubAccounts) ListAccounts(ctx context.Context, externalUserID string) ([]domain.LinkedAccount, error) {
	return nil, nil
}

func newTestManager() *Manager {
	return NewManager(Deps{
		Issuer:   stubIssuer{},
		Catalog:  stubCatalog{},
		Accounts: stubAccounts{},
		PageSize: 10,
	})
}

func TestManager_Get(t *testing.T) {
	t.Run("creates a session on first use", func(t *testing.T) {
		m := newTestManager()

		s := m.Get("user_123")

		require.NotNil(t, s)
		assert.Equal(t, "user_123", s.ExternalUserID)
		assert.NotNil(t, s.Tokens)
		assert.NotNil(t, s.Catalog)
		assert.NotNil(t, s.Connect)
		assert.Equal(t, 1, m.Len())
	})

	t.Run("returns the same session for the same user", func(t *testing.T) {
		m := newTestManager()

		first := m.Get("user_123")
		second := m.Get("user_123")

		assert.Same(t, first, second)
		assert.Equal(t, 1, m.Len())
	})

	t.Run("sessions are isolated per user", func(t *testing.T) {
		m := newTestManager()

		a := m.Get("user_a")
		b := m.Get("user_b")

		assert.NotSame(t, a, b)
		assert.NotSame(t, a.Tokens, b.Tokens, "token caches must not be shared")

		tokA, err := a.Tokens.EnsureFresh(context.Background())
		require.NoError(t, err)
		tokB, err := b.Tokens.EnsureFresh(context.Background())
		require.NoError(t, err)
		assert.NotEqual(t, tokA.Value, tokB.Value)
	})

	t.Run("peek does not create", func(t *testing.T) {
		m := newTestManager()

		_, ok := m.Peek("user_123")
		assert.False(t, ok)
		assert.Zero(t, m.Len())
	})

	t.Run("eviction clears the token cache", func(t *testing.T) {
		m := newTestManager()

		s := m.Get("user_123")
		_, err := s.Tokens.EnsureFresh(context.Background())
		require.NoError(t, err)
		_, ok := s.Tokens.Current()
		require.True(t, ok)

		m.onEvict("user_123", s)

		_, ok = s.Tokens.Current()
		assert.False(t, ok, "evicted sessions must not hold live tokens")
	})
}
