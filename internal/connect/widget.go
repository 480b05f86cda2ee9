package connect

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/ninelinehq/ConnectPortal_Go/internal/domain"
)

// OutcomeStatus tags the three ways a widget handshake can end
type OutcomeStatus string

const (
	// OutcomeConnected means the user completed authorization
	OutcomeConnected OutcomeStatus = "connected"
	// OutcomeError means the widget reported a failure
	OutcomeError OutcomeStatus = "error"
	// OutcomeClosed means the user dismissed the widget
	OutcomeClosed OutcomeStatus = "closed"
)

// HandshakeOutcome is the tagged result of one widget handshake.
// AccountID is set only for OutcomeConnected; Message only for
// OutcomeError, and its text is relayed to the user verbatim.
type HandshakeOutcome struct {
	Status    OutcomeStatus `json:"status"`
	AccountID string        `json:"account_id,omitempty"`
	Message   string        `json:"message,omitempty"`
}

// Handshaker runs the widget authorization handshake for a token and
// app. It blocks until the widget reports back or ctx is done.
type Handshaker interface {
	Handshake(ctx context.Context, token domain.ConnectToken, appSlug string) (HandshakeOutcome, error)
}

// RelayHandshaker bridges the hosted widget to the flow controller.
// Handshake parks until the widget's callback arrives via Deliver; the
// callback HTTP route is the only producer.
type RelayHandshaker struct {
	mu      sync.Mutex
	waiting chan HandshakeOutcome
}

// NewRelayHandshaker creates an idle relay
func NewRelayHandshaker() *RelayHandshaker {
	return &RelayHandshaker{}
}

// Handshake parks until Deliver is called or ctx is done. Only one
// handshake may be parked at a time; the flow controller's in-flight
// guard makes a second call a programming error.
func (r *RelayHandshaker) Handshake(ctx context.Context, token domain.ConnectToken, appSlug string) (HandshakeOutcome, error) {
	r.mu.Lock()
	if r.waiting != nil {
		r.mu.Unlock()
		return HandshakeOutcome{}, domain.ErrConnectInProgress
	}
	ch := make(chan HandshakeOutcome, 1)
	r.waiting = ch
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		if r.waiting == ch {
			r.waiting = nil
		}
		r.mu.Unlock()
	}()

	select {
	case outcome := <-ch:
		return outcome, nil
	case <-ctx.Done():
		return HandshakeOutcome{}, ctx.Err()
	}
}

// Deliver hands the widget's outcome to the parked handshake. Returns
// ErrNoActiveHandshake when nothing is waiting, which the handler maps
// to a client error.
func (r *RelayHandshaker) Deliver(outcome HandshakeOutcome) error {
	r.mu.Lock()
	ch := r.waiting
	r.waiting = nil
	r.mu.Unlock()

	if ch == nil {
		return domain.ErrNoActiveHandshake
	}
	ch <- outcome
	return nil
}

// ConnectURL builds the widget URL for a token, preselecting the app.
// The broker's connect_link_url already carries the token; we only
// append the app parameter.
func ConnectURL(token domain.ConnectToken, appSlug string) string {
	sep := "?"
	if strings.Contains(token.ConnectLinkURL, "?") {
		sep = "&"
	}
	return token.ConnectLinkURL + sep + ConnectURLAppParam + "=" + url.QueryEscape(appSlug)
}
