package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ninelinehq/ConnectPortal_Go/internal/domain"
)

// Type represents the type of an event
type Type string

// Metadata defines the type for event metadata
type Metadata interface{}

// Event represents a generic event in the system
type Event struct {
	Version  string      `json:"version"` // Event schema version (e.g., "1.0")
	Type     Type        `json:"type"`
	Payload  interface{} `json:"payload"`
	Metadata Metadata    `json:"metadata"`
}

// GetMetadataValue extracts a value from the event metadata safely
func (e Event) GetMetadataValue(key string) interface{} {
	if e.Metadata == nil {
		return nil
	}
	if m, ok := e.Metadata.(map[string]interface{}); ok {
		return m[key]
	}
	return nil
}

// Typed event payloads for type safety

// AccountConnectedPayloadV1 is the typed payload for successful connect attempts
type AccountConnectedPayloadV1 struct {
	ExternalUserID string `json:"external_user_id"`
	AccountID      string `json:"account_id"`
	AccountName    string `json:"account_name"`
	AppSlug        string `json:"app_slug"`
	Timestamp      int64  `json:"timestamp"`
}

// ConnectFailedPayloadV1 is the typed payload for terminal connect failures
type ConnectFailedPayloadV1 struct {
	ExternalUserID string `json:"external_user_id"`
	AppSlug        string `json:"app_slug"`
	Message        string `json:"message"`
	Timestamp      int64  `json:"timestamp"`
}

// SearchCompletedPayloadV1 is the typed payload for debounced catalog searches
type SearchCompletedPayloadV1 struct {
	ExternalUserID string `json:"external_user_id"`
	Query          string `json:"query"`
	ResultCount    int    `json:"result_count"`
	HasMore        bool   `json:"has_more"`
	Timestamp      int64  `json:"timestamp"`
}

// Type-safe event constructors

// NewAccountConnectedEvent creates the event fired exactly once per
// successful connect attempt.
func NewAccountConnectedEvent(externalUserID string, account domain.LinkedAccount) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    Type(domain.EventTypeAccountConnected),
		Payload: AccountConnectedPayloadV1{
			ExternalUserID: externalUserID,
			AccountID:      account.ID,
			AccountName:    account.DisplayName,
			AppSlug:        account.SourceSlug,
			Timestamp:      time.Now().Unix(),
		},
		Metadata: nil,
	}
}

// NewConnectFailedEvent creates the event for a terminal connect failure.
// User-cancelled attempts never produce one.
func NewConnectFailedEvent(externalUserID, appSlug, message string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    Type(domain.EventTypeConnectFailed),
		Payload: ConnectFailedPayloadV1{
			ExternalUserID: externalUserID,
			AppSlug:        appSlug,
			Message:        message,
			Timestamp:      time.Now().Unix(),
		},
		Metadata: nil,
	}
}

// NewSearchCompletedEvent creates the event carrying applied search results
func NewSearchCompletedEvent(externalUserID, query string, resultCount int, hasMore bool) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    Type(domain.EventTypeSearchCompleted),
		Payload: SearchCompletedPayloadV1{
			ExternalUserID: externalUserID,
			Query:          query,
			ResultCount:    resultCount,
			HasMore:        hasMore,
			Timestamp:      time.Now().Unix(),
		},
		Metadata: nil,
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish publishes an event to all subscribers
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers, ok := b.handlers[event.Type]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	// Handlers run synchronously. The SSE hub and metrics collector are
	// both non-blocking, so a slow browser can never stall a publish.
	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(LogMsgHandlerErrorFormat, len(errs), event.Type, errs)
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
