package session

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/ninelinehq/ConnectPortal_Go/internal/catalog"
	"github.com/ninelinehq/ConnectPortal_Go/internal/connect"
	"github.com/ninelinehq/ConnectPortal_Go/internal/event"
	"github.com/ninelinehq/ConnectPortal_Go/internal/token"
)

// Session sizing. Eviction drops in-memory tokens; the dashboard starts
// a fresh session on reload anyway, so losing state here is by design.
const (
	CacheSize  = 1024
	SessionTTL = 30 * time.Minute
)

// Session owns the per-user controller triple. Everything in it is
// keyed to one external user and dies with the session.
type Session struct {
	ExternalUserID string
	Tokens         *token.Cache
	Catalog        *catalog.Controller
	Connect        connect.Service
	Resolver       connect.AccountResolver
}

// Deps are the shared collaborators every session is built from
type Deps struct {
	Issuer   token.Issuer
	Catalog  catalog.Client
	Accounts connect.AccountLister
	Bus      event.Bus
	PageSize int
}

// Manager hands out one Session per external user, creating on first
// use and evicting idle ones by TTL.
type Manager struct {
	deps Deps

	mu       sync.Mutex
	sessions *expirable.LRU[string, *Session]
}

// NewManager creates a session manager
func NewManager(deps Deps) *Manager {
	m := &Manager{deps: deps}
	m.sessions = expirable.NewLRU[string, *Session](CacheSize, m.onEvict, SessionTTL)
	return m
}

// Get returns the session for the external user, creating it if needed
func (m *Manager) Get(externalUserID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions.Get(externalUserID); ok {
		return s
	}

	s := m.newSession(externalUserID)
	m.sessions.Add(externalUserID, s)
	return s
}

// Peek returns the session without creating or refreshing it
func (m *Manager) Peek(externalUserID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions.Peek(externalUserID)
}

// Len reports the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions.Len()
}

func (m *Manager) newSession(externalUserID string) *Session {
	tokens := token.NewCache(m.deps.Issuer, externalUserID)
	relay := connect.NewRelayHandshaker()
	resolver := connect.NewResolver(m.deps.Accounts)

	return &Session{
		ExternalUserID: externalUserID,
		Tokens:         tokens,
		Catalog:        catalog.NewController(m.deps.Catalog, m.deps.Bus, externalUserID, m.deps.PageSize),
		Resolver:       resolver,
		Connect: connect.NewService(connect.Deps{
			Tokens:         tokens,
			Handshaker:     relay,
			Resolver:       resolver,
			Bus:            m.deps.Bus,
			ExternalUserID: externalUserID,
		}),
	}
}

// onEvict drops the session's in-memory token so an evicted session can
// never serve a stale credential if its pointer is still held somewhere.
func (m *Manager) onEvict(_ string, s *Session) {
	s.Tokens.Clear()
}
