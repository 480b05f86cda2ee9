package domain

import "time"

// ConnectToken is a short-lived credential issued by the broker for one
// external user. Tokens are replaced, never mutated; the token cache owns
// the single live value per session.
type ConnectToken struct {
	Value          string    `json:"token"`
	ConnectLinkURL string    `json:"connect_link_url"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Valid reports whether the token is usable at the given instant.
func (t ConnectToken) Valid(now time.Time) bool {
	return t.Value != "" && t.ExpiresAt.After(now)
}

// CatalogEntry is one third-party app listed in the broker catalog.
// Entries without an auth type cannot be connected and must be filtered
// out before display.
type CatalogEntry struct {
	Slug        string  `json:"slug"`
	DisplayName string  `json:"name"`
	IconURL     string  `json:"icon_url"`
	AuthType    *string `json:"auth_type"`
}

// Connectable reports whether the entry supports an authorization flow.
func (e CatalogEntry) Connectable() bool {
	return e.AuthType != nil
}

// LinkedAccount is the terminal artifact of a successful connect attempt.
// Immutable once created; persistence is the host's responsibility.
type LinkedAccount struct {
	ID          string `json:"id"`
	DisplayName string `json:"name"`
	SourceSlug  string `json:"app_slug"`
}

// AttemptState enumerates the connect flow states
type AttemptState string

const (
	AttemptIdle             AttemptState = "idle"
	AttemptAwaitingToken    AttemptState = "awaiting_token"
	AttemptHandshaking      AttemptState = "handshaking"
	AttemptResolvingAccount AttemptState = "resolving_account"
	AttemptSucceeded        AttemptState = "succeeded"
	AttemptFailed           AttemptState = "failed"
)

// ConnectAttempt records a single linking attempt for one catalog entry
type ConnectAttempt struct {
	ID         string       `json:"id"`
	TargetSlug string       `json:"target_slug"`
	State      AttemptState `json:"state"`
	Error      string       `json:"error,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
}

// InFlight reports whether the attempt blocks starting a new one.
// Only handshaking and account resolution hold the slot; terminal states
// and idle do not.
func (a ConnectAttempt) InFlight() bool {
	return a.State == AttemptHandshaking || a.State == AttemptResolvingAccount
}
