package connect

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninelinehq/ConnectPortal_Go/internal/domain"
	"github.com/ninelinehq/ConnectPortal_Go/internal/event"
)

type stubTokens struct {
	mu         sync.Mutex
	ensureErr  error
	rotateErr  error
	rotations  int
	sequence   *recorder
	connectURL string
}

func (s *stubTokens) EnsureFresh(ctx context.Context) (domain.ConnectToken, error) {
	if s.ensureErr != nil {
		return domain.ConnectToken{}, s.ensureErr
	}
	url := s.connectURL
	if url == "" {
		url = "https://broker.example.com/connect?token=ctok_abc"
	}
	return domain.ConnectToken{
		Value:          "ctok_abc",
		ConnectLinkURL: url,
		ExpiresAt:      time.Now().Add(time.Hour),
	}, nil
}

func (s *stubTokens) Rotate(ctx context.Context) (domain.ConnectToken, error) {
	s.mu.Lock()
	s.rotations++
	s.mu.Unlock()
	if s.sequence != nil {
		s.sequence.record("rotate")
	}
	if s.rotateErr != nil {
		return domain.ConnectToken{}, s.rotateErr
	}
	return domain.ConnectToken{Value: "ctok_next", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (s *stubTokens) Rotations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotations
}

// scriptedHandshaker returns a fixed outcome as soon as the flow asks
type scriptedHandshaker struct {
	outcome HandshakeOutcome
	err     error
	block   chan struct{} // when set, handshake waits on it
}

func (s *scriptedHandshaker) Handshake(ctx context.Context, token domain.ConnectToken, appSlug string) (HandshakeOutcome, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return HandshakeOutcome{}, ctx.Err()
		}
	}
	return s.outcome, s.err
}

type stubResolver struct {
	account domain.LinkedAccount
	err     error
}

func (s *stubResolver) Resolve(ctx context.Context, externalUserID, accountID string) (domain.LinkedAccount, error) {
	if s.err != nil {
		return domain.LinkedAccount{}, s.err
	}
	return s.account, nil
}

// recorder captures the order of observable side effects
type recorder struct {
	mu    sync.Mutex
	steps []string
}

func (r *recorder) record(step string) {
	r.mu.Lock()
	r.steps = append(r.steps, step)
	r.mu.Unlock()
}

func (r *recorder) Steps() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.steps...)
}


// capture is a mutex-guarded holder for values written by bus handlers
type capture[T any] struct {
	mu  sync.Mutex
	v   T
	set bool
}

func (c *capture[T]) put(v T) {
	c.mu.Lock()
	c.v = v
	c.set = true
	c.mu.Unlock()
}

func (c *capture[T]) get() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v, c.set
}

func oauthApp(slug string) domain.CatalogEntry {
	auth := "oauth"
	return domain.CatalogEntry{Slug: slug, DisplayName: slug, AuthType: &auth}
}

func TestService_SuccessScenario(t *testing.T) {
	seq := &recorder{}
	tokens := &stubTokens{sequence: seq}
	bus := event.NewMemoryBus()

	var payload event.AccountConnectedPayloadV1
	bus.Subscribe(event.Type(domain.EventTypeAccountConnected), func(ctx context.Context, evt event.Event) error {
		seq.record("event")
		payload, _ = event.DecodePayload[event.AccountConnectedPayloadV1](evt.Payload)
		return nil
	})

	svc := NewService(Deps{
		Tokens:     tokens,
		Handshaker: &scriptedHandshaker{outcome: HandshakeOutcome{Status: OutcomeConnected, AccountID: "acc_42"}},
		Resolver: &stubResolver{account: domain.LinkedAccount{
			ID: "acc_42", DisplayName: "Team Workspace", SourceSlug: "slack",
		}},
		Bus:            bus,
		ExternalUserID: "user_123",
	})

	attempt, connectURL, err := svc.Start(context.Background(), oauthApp("slack"))

	require.NoError(t, err)
	assert.Equal(t, "slack", attempt.TargetSlug)
	assert.True(t, strings.HasSuffix(connectURL, "&app=slack"))

	assert.Eventually(t, func() bool {
		return svc.Attempt().State == domain.AttemptSucceeded
	}, 2*time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		return tokens.Rotations() == 1
	}, 2*time.Second, 5*time.Millisecond, "token must rotate after success")

	assert.Equal(t, "acc_42", payload.AccountID)
	assert.Equal(t, "Team Workspace", payload.AccountName)
	assert.Equal(t, "slack", payload.AppSlug)

	steps := seq.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, []string{"event", "rotate"}, steps,
		"success notification must precede rotation")
}

func TestService_Start(t *testing.T) {
	t.Run("rejects non-connectable entries", func(t *testing.T) {
		svc := NewService(Deps{Tokens: &stubTokens{}, Handshaker: &scriptedHandshaker{}, ExternalUserID: "user_123"})

		_, _, err := svc.Start(context.Background(), domain.CatalogEntry{Slug: "rss"})

		assert.ErrorIs(t, err, domain.ErrAppNotConnectable)
		assert.Equal(t, domain.AttemptIdle, svc.Attempt().State)
	})

	t.Run("guards against a second attempt while handshaking", func(t *testing.T) {
		block := make(chan struct{})
		defer close(block)

		svc := NewService(Deps{
			Tokens:         &stubTokens{},
			Handshaker:     &scriptedHandshaker{block: block, outcome: HandshakeOutcome{Status: OutcomeClosed}},
			ExternalUserID: "user_123",
		})

		_, _, err := svc.Start(context.Background(), oauthApp("slack"))
		require.NoError(t, err)

		_, _, err = svc.Start(context.Background(), oauthApp("github"))
		assert.ErrorIs(t, err, domain.ErrConnectInProgress)
		assert.Equal(t, "slack", svc.Attempt().TargetSlug, "first attempt must survive")
	})

	t.Run("token failure fails the attempt and publishes a banner", func(t *testing.T) {
		bus := event.NewMemoryBus()
		var failure event.ConnectFailedPayloadV1
		bus.Subscribe(event.Type(domain.EventTypeConnectFailed), func(ctx context.Context, evt event.Event) error {
			failure, _ = event.DecodePayload[event.ConnectFailedPayloadV1](evt.Payload)
			return nil
		})

		svc := NewService(Deps{
			Tokens:         &stubTokens{ensureErr: domain.ErrTokenUnavailable},
			Handshaker:     &scriptedHandshaker{},
			Bus:            bus,
			ExternalUserID: "user_123",
		})

		attempt, _, err := svc.Start(context.Background(), oauthApp("slack"))

		assert.ErrorIs(t, err, domain.ErrTokenUnavailable)
		assert.Equal(t, domain.AttemptFailed, attempt.State)
		assert.Equal(t, domain.ErrMsgTokenUnavailable, attempt.Error)
		assert.Equal(t, "slack", failure.AppSlug)
	})

	t.Run("a terminal attempt does not block the next one", func(t *testing.T) {
		svc := NewService(Deps{
			Tokens:         &stubTokens{},
			Handshaker:     &scriptedHandshaker{outcome: HandshakeOutcome{Status: OutcomeError, Message: "denied"}},
			ExternalUserID: "user_123",
		})

		_, _, err := svc.Start(context.Background(), oauthApp("slack"))
		require.NoError(t, err)

		assert.Eventually(t, func() bool {
			return svc.Attempt().State == domain.AttemptFailed
		}, 2*time.Second, 5*time.Millisecond)

		_, _, err = svc.Start(context.Background(), oauthApp("github"))
		assert.NoError(t, err, "failed is terminal, not blocking")
	})
}

func TestService_WidgetOutcomes(t *testing.T) {
	t.Run("close resets to idle without a failure event", func(t *testing.T) {
		bus := event.NewMemoryBus()
		failures := 0
		bus.Subscribe(event.Type(domain.EventTypeConnectFailed), func(ctx context.Context, evt event.Event) error {
			failures++
			return nil
		})

		svc := NewService(Deps{
			Tokens:         &stubTokens{},
			Handshaker:     &scriptedHandshaker{outcome: HandshakeOutcome{Status: OutcomeClosed}},
			Bus:            bus,
			ExternalUserID: "user_123",
		})

		_, _, err := svc.Start(context.Background(), oauthApp("slack"))
		require.NoError(t, err)

		assert.Eventually(t, func() bool {
			return svc.Attempt().State == domain.AttemptIdle
		}, 2*time.Second, 5*time.Millisecond)
		assert.Zero(t, failures, "user cancellation is silent")
	})

	t.Run("widget error message is relayed verbatim", func(t *testing.T) {
		bus := event.NewMemoryBus()
		failure := &capture[event.ConnectFailedPayloadV1]{}
		bus.Subscribe(event.Type(domain.EventTypeConnectFailed), func(ctx context.Context, evt event.Event) error {
			payload, _ := event.DecodePayload[event.ConnectFailedPayloadV1](evt.Payload)
			failure.put(payload)
			return nil
		})

		svc := NewService(Deps{
			Tokens:         &stubTokens{},
			Handshaker:     &scriptedHandshaker{outcome: HandshakeOutcome{Status: OutcomeError, Message: "User denied access to workspace"}},
			Bus:            bus,
			ExternalUserID: "user_123",
		})

		_, _, err := svc.Start(context.Background(), oauthApp("slack"))
		require.NoError(t, err)

		assert.Eventually(t, func() bool {
			_, ok := failure.get()
			return ok
		}, 2*time.Second, 5*time.Millisecond)

		payload, _ := failure.get()
		assert.Equal(t, "User denied access to workspace", payload.Message)
		assert.Equal(t, "User denied access to workspace", svc.Attempt().Error)
	})

	t.Run("resolution failure uses the contract message", func(t *testing.T) {
		svc := NewService(Deps{
			Tokens:         &stubTokens{},
			Handshaker:     &scriptedHandshaker{outcome: HandshakeOutcome{Status: OutcomeConnected, AccountID: "acc_42"}},
			Resolver:       &stubResolver{err: domain.ErrAccountResolution},
			ExternalUserID: "user_123",
		})

		_, _, err := svc.Start(context.Background(), oauthApp("slack"))
		require.NoError(t, err)

		assert.Eventually(t, func() bool {
			return svc.Attempt().State == domain.AttemptFailed
		}, 2*time.Second, 5*time.Millisecond)
		assert.Equal(t, "Failed to fetch account details", svc.Attempt().Error)
	})

	t.Run("synthetic account inherits the attempt's app slug", func(t *testing.T) {
		bus := event.NewMemoryBus()
		connected := &capture[event.AccountConnectedPayloadV1]{}
		bus.Subscribe(event.Type(domain.EventTypeAccountConnected), func(ctx context.Context, evt event.Event) error {
			payload, _ := event.DecodePayload[event.AccountConnectedPayloadV1](evt.Payload)
			connected.put(payload)
			return nil
		})

		svc := NewService(Deps{
			Tokens:         &stubTokens{},
			Handshaker:     &scriptedHandshaker{outcome: HandshakeOutcome{Status: OutcomeConnected, AccountID: "acc_99"}},
			Resolver:       &stubResolver{account: domain.LinkedAccount{ID: "acc_99", DisplayName: "acc_99"}},
			Bus:            bus,
			ExternalUserID: "user_123",
		})

		_, _, err := svc.Start(context.Background(), oauthApp("slack"))
		require.NoError(t, err)

		assert.Eventually(t, func() bool {
			_, ok := connected.get()
			return ok
		}, 2*time.Second, 5*time.Millisecond)

		payload, _ := connected.get()
		assert.Equal(t, "slack", payload.AppSlug)
	})

	t.Run("rotation failure never demotes a success", func(t *testing.T) {
		tokens := &stubTokens{rotateErr: errors.New("broker down")}
		svc := NewService(Deps{
			Tokens:         tokens,
			Handshaker:     &scriptedHandshaker{outcome: HandshakeOutcome{Status: OutcomeConnected, AccountID: "acc_42"}},
			Resolver:       &stubResolver{account: domain.LinkedAccount{ID: "acc_42", DisplayName: "W", SourceSlug: "slack"}},
			ExternalUserID: "user_123",
		})

		_, _, err := svc.Start(context.Background(), oauthApp("slack"))
		require.NoError(t, err)

		assert.Eventually(t, func() bool {
			return tokens.Rotations() == 1
		}, 2*time.Second, 5*time.Millisecond)
		assert.Equal(t, domain.AttemptSucceeded, svc.Attempt().State)
	})
}

func TestService_CompleteHandshake(t *testing.T) {
	t.Run("drives a relay-backed flow end to end", func(t *testing.T) {
		relay := NewRelayHandshaker()
		svc := NewService(Deps{
			Tokens:         &stubTokens{},
			Handshaker:     relay,
			Resolver:       &stubResolver{account: domain.LinkedAccount{ID: "acc_42", DisplayName: "W", SourceSlug: "slack"}},
			ExternalUserID: "user_123",
		})

		_, _, err := svc.Start(context.Background(), oauthApp("slack"))
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return svc.CompleteHandshake(context.Background(),
				HandshakeOutcome{Status: OutcomeConnected, AccountID: "acc_42"}) == nil
		}, 2*time.Second, 5*time.Millisecond)

		assert.Eventually(t, func() bool {
			return svc.Attempt().State == domain.AttemptSucceeded
		}, 2*time.Second, 5*time.Millisecond)
	})

	t.Run("fails without an active handshake", func(t *testing.T) {
		svc := NewService(Deps{Tokens: &stubTokens{}, Handshaker: NewRelayHandshaker(), ExternalUserID: "user_123"})

		err := svc.CompleteHandshake(context.Background(), HandshakeOutcome{Status: OutcomeClosed})

		assert.ErrorIs(t, err, domain.ErrNoActiveHandshake)
	})
}
