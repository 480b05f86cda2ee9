package connect

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ninelinehq/ConnectPortal_Go/internal/domain"
	"github.com/ninelinehq/ConnectPortal_Go/internal/event"
	"github.com/ninelinehq/ConnectPortal_Go/internal/logger"
	"github.com/ninelinehq/ConnectPortal_Go/internal/metrics"
)

// TokenSource is the slice of the token cache the flow needs
type TokenSource interface {
	EnsureFresh(ctx context.Context) (domain.ConnectToken, error)
	Rotate(ctx context.Context) (domain.ConnectToken, error)
}

// AccountResolver resolves widget-reported account ids
type AccountResolver interface {
	Resolve(ctx context.Context, externalUserID, accountID string) (domain.LinkedAccount, error)
}

// Service drives the account-linking state machine for one session
type Service interface {
	// Start begins a connect attempt for a catalog entry and returns
	// the attempt plus the widget URL the dashboard should open.
	Start(ctx context.Context, entry domain.CatalogEntry) (domain.ConnectAttempt, string, error)

	// CompleteHandshake feeds the widget's callback into the parked
	// handshake.
	CompleteHandshake(ctx context.Context, outcome HandshakeOutcome) error

	// Attempt returns a snapshot of the current attempt.
	Attempt() domain.ConnectAttempt
}

// Deps collects the flow's collaborators
type Deps struct {
	Tokens         TokenSource
	Handshaker     Handshaker
	Resolver       AccountResolver
	Bus            event.Bus
	ExternalUserID string
}

type service struct {
	tokens         TokenSource
	handshaker     Handshaker
	resolver       AccountResolver
	bus            event.Bus
	externalUserID string

	mu      sync.Mutex
	attempt domain.ConnectAttempt
}

// NewService creates the connect flow for one external user
func NewService(deps Deps) Service {
	return &service{
		tokens:         deps.Tokens,
		handshaker:     deps.Handshaker,
		resolver:       deps.Resolver,
		bus:            deps.Bus,
		externalUserID: deps.ExternalUserID,
		attempt:        domain.ConnectAttempt{State: domain.AttemptIdle},
	}
}

// Start guards against concurrent attempts, secures a token and hands
// the handshake to a background goroutine. It returns as soon as the
// widget URL is known; the outcome arrives later via the event bus.
func (s *service) Start(ctx context.Context, entry domain.CatalogEntry) (domain.ConnectAttempt, string, error) {
	log := logger.FromContext(ctx)

	if !entry.Connectable() {
		return s.Attempt(), "", domain.ErrAppNotConnectable
	}

	s.mu.Lock()
	if s.attempt.InFlight() {
		current := s.attempt
		s.mu.Unlock()
		log.Info(LogMsgAttemptBlocked, "app_slug", entry.Slug, "current", current.TargetSlug)
		return current, "", domain.ErrConnectInProgress
	}
	attempt := domain.ConnectAttempt{
		ID:         uuid.NewString(),
		TargetSlug: entry.Slug,
		State:      domain.AttemptAwaitingToken,
		StartedAt:  time.Now(),
	}
	s.attempt = attempt
	s.mu.Unlock()

	log.Info(LogMsgAttemptStarted, "attempt_id", attempt.ID, "app_slug", entry.Slug)

	tok, err := s.tokens.EnsureFresh(ctx)
	if err != nil {
		log.Warn(LogMsgTokenUnavailable, "attempt_id", attempt.ID, "error", err)
		s.fail(ctx, attempt.ID, entry.Slug, domain.ErrMsgTokenUnavailable)
		return s.Attempt(), "", err
	}

	s.mu.Lock()
	if s.attempt.ID == attempt.ID {
		s.attempt.State = domain.AttemptHandshaking
	}
	s.mu.Unlock()

	// The handshake outlives the HTTP request that started it.
	handshakeCtx := logger.WithExternalUserID(context.Background(), s.externalUserID)
	go s.runHandshake(handshakeCtx, attempt.ID, entry.Slug, tok)

	return s.Attempt(), ConnectURL(tok, entry.Slug), nil
}

// CompleteHandshake relays the widget callback to the parked handshake
func (s *service) CompleteHandshake(ctx context.Context, outcome HandshakeOutcome) error {
	s.mu.Lock()
	handshaking := s.attempt.State == domain.AttemptHandshaking
	s.mu.Unlock()
	if !handshaking {
		return domain.ErrNoActiveHandshake
	}

	completer, ok := s.handshaker.(interface{ Deliver(HandshakeOutcome) error })
	if !ok {
		return domain.ErrNoActiveHandshake
	}
	return completer.Deliver(outcome)
}

// Attempt returns a snapshot of the current attempt
func (s *service) Attempt() domain.ConnectAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt
}

// runHandshake waits for the widget outcome and applies the single
// terminal transition for the attempt.
func (s *service) runHandshake(ctx context.Context, attemptID, appSlug string, tok domain.ConnectToken) {
	log := logger.FromContext(ctx)

	outcome, err := s.handshaker.Handshake(ctx, tok, appSlug)
	if err != nil {
		// Context cancellation means the session is gone; nobody is
		// left to show a banner to.
		log.Info(LogMsgHandshakeAbandoned, "attempt_id", attemptID, "error", err)
		s.reset(attemptID)
		return
	}

	log.Debug(LogMsgHandshakeDone, "attempt_id", attemptID, "status", outcome.Status)
	s.finish(ctx, attemptID, appSlug, outcome)
}

// finish consumes the handshake outcome. It is the only place terminal
// transitions happen, so every path agrees on ordering: state first,
// then notification, then rotation.
func (s *service) finish(ctx context.Context, attemptID, appSlug string, outcome HandshakeOutcome) {
	log := logger.FromContext(ctx)

	switch outcome.Status {
	case OutcomeClosed:
		// User dismissal is not a failure. No event, no banner.
		log.Info(LogMsgWidgetClosed, "attempt_id", attemptID)
		metrics.ConnectAttempts.WithLabelValues(metrics.OutcomeClosed).Inc()
		s.reset(attemptID)

	case OutcomeError:
		log.Warn(LogMsgWidgetError, "attempt_id", attemptID, "message", outcome.Message)
		message := outcome.Message
		if message == "" {
			message = domain.ErrMsgHandshakeFailed
		}
		s.fail(ctx, attemptID, appSlug, message)

	case OutcomeConnected:
		s.resolve(ctx, attemptID, appSlug, outcome.AccountID)

	default:
		log.Warn(LogMsgStaleOutcomeDropped, "attempt_id", attemptID, "status", outcome.Status)
	}
}

// resolve runs the account-resolution leg of a successful handshake
func (s *service) resolve(ctx context.Context, attemptID, appSlug, accountID string) {
	log := logger.FromContext(ctx)

	s.mu.Lock()
	if s.attempt.ID != attemptID || !s.attempt.InFlight() {
		s.mu.Unlock()
		log.Debug(LogMsgStaleOutcomeDropped, "attempt_id", attemptID)
		return
	}
	s.attempt.State = domain.AttemptResolvingAccount
	s.mu.Unlock()

	account, err := s.resolver.Resolve(ctx, s.externalUserID, accountID)
	if err != nil {
		s.fail(ctx, attemptID, appSlug, domain.ErrMsgAccountResolution)
		return
	}
	if account.SourceSlug == "" {
		account.SourceSlug = appSlug
	}

	s.mu.Lock()
	if s.attempt.ID != attemptID {
		s.mu.Unlock()
		return
	}
	s.attempt.State = domain.AttemptSucceeded
	s.mu.Unlock()

	log.Info(LogMsgAttemptSucceeded,
		"attempt_id", attemptID, "account_id", account.ID, "app_slug", account.SourceSlug)

	// Notify first. Rotation is housekeeping and must never delay or
	// mask the success signal.
	if s.bus != nil {
		//nolint:errcheck // resilient publisher handles retries
		s.bus.Publish(ctx, event.NewAccountConnectedEvent(s.externalUserID, account))
	}

	go func() {
		rotateCtx := logger.WithExternalUserID(context.Background(), s.externalUserID)
		if _, err := s.tokens.Rotate(rotateCtx); err != nil {
			logger.FromContext(rotateCtx).Warn(LogMsgRotationFailed,
				"attempt_id", attemptID, "error", err)
		}
	}()
}

// fail marks the attempt failed and publishes the failure banner
func (s *service) fail(ctx context.Context, attemptID, appSlug, message string) {
	s.mu.Lock()
	if s.attempt.ID != attemptID {
		s.mu.Unlock()
		return
	}
	s.attempt.State = domain.AttemptFailed
	s.attempt.Error = message
	s.mu.Unlock()

	if s.bus != nil {
		//nolint:errcheck // resilient publisher handles retries
		s.bus.Publish(ctx, event.NewConnectFailedEvent(s.externalUserID, appSlug, message))
	}
}

// reset returns the flow to idle if the attempt is still current
func (s *service) reset(attemptID string) {
	s.mu.Lock()
	if s.attempt.ID == attemptID {
		s.attempt = domain.ConnectAttempt{State: domain.AttemptIdle}
	}
	s.mu.Unlock()
}
