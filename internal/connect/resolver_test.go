package connect

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninelinehq/ConnectPortal_Go/internal/domain"
)

type stubLister struct {
	calls    atomic.Int32
	accounts []domain.LinkedAccount
	err      error
}

func (s *stubLister) ListAccounts(ctx context.Context, externalUserID string) ([]domain.LinkedAccount, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.accounts, nil
}

func TestResolver_Resolve(t *testing.T) {
	t.Run("finds the account in the listing", func(t *testing.T) {
		lister := &stubLister{accounts: []domain.LinkedAccount{
			{ID: "acc_1", DisplayName: "Other", SourceSlug: "github"},
			{ID: "acc_42", DisplayName: "Team Workspace", SourceSlug: "slack"},
		}}
		resolver := NewResolver(lister)

		account, err := resolver.Resolve(context.Background(), "user_123", "acc_42")

		require.NoError(t, err)
		assert.Equal(t, "acc_42", account.ID)
		assert.Equal(t, "Team Workspace", account.DisplayName)
		assert.Equal(t, "slack", account.SourceSlug)
	})

	t.Run("falls back to a synthetic account when absent", func(t *testing.T) {
		lister := &stubLister{accounts: []domain.LinkedAccount{
			{ID: "acc_1", DisplayName: "Other", SourceSlug: "github"},
		}}
		resolver := NewResolver(lister)

		account, err := resolver.Resolve(context.Background(), "user_123", "acc_99")

		require.NoError(t, err)
		assert.Equal(t, "acc_99", account.ID)
		assert.Equal(t, "acc_99", account.DisplayName, "synthetic account uses the id as its name")
	})

	t.Run("listing failure is a resolution error", func(t *testing.T) {
		lister := &stubLister{err: errors.New("broker down")}
		resolver := NewResolver(lister)

		_, err := resolver.Resolve(context.Background(), "user_123", "acc_42")

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrAccountResolution)
		assert.Contains(t, err.Error(), "Failed to fetch account details")
	})

	t.Run("resolved accounts are cached", func(t *testing.T) {
		lister := &stubLister{accounts: []domain.LinkedAccount{
			{ID: "acc_42", DisplayName: "Team Workspace", SourceSlug: "slack"},
		}}
		resolver := NewResolver(lister)

		_, err := resolver.Resolve(context.Background(), "user_123", "acc_42")
		require.NoError(t, err)
		_, err = resolver.Resolve(context.Background(), "user_123", "acc_42")
		require.NoError(t, err)

		assert.Equal(t, int32(1), lister.calls.Load())
	})

	t.Run("synthetic accounts are not cached", func(t *testing.T) {
		lister := &stubLister{}
		resolver := NewResolver(lister)

		_, err := resolver.Resolve(context.Background(), "user_123", "acc_42")
		require.NoError(t, err)

		// The listing may catch up; a second resolve should look again
		lister.accounts = []domain.LinkedAccount{
			{ID: "acc_42", DisplayName: "Team Workspace", SourceSlug: "slack"},
		}
		account, err := resolver.Resolve(context.Background(), "user_123", "acc_42")

		require.NoError(t, err)
		assert.Equal(t, "Team Workspace", account.DisplayName)
		assert.Equal(t, int32(2), lister.calls.Load())
	})
}
