package sse

import (
	"context"

	"github.com/ninelinehq/ConnectPortal_Go/internal/domain"
	"github.com/ninelinehq/ConnectPortal_Go/internal/event"
	"github.com/ninelinehq/ConnectPortal_Go/internal/logger"
)

// Subscriber bridges connect events from the bus to the SSE hub. Each
// bus payload carries the external user ID it belongs to, which scopes
// delivery to that user's streams.
type Subscriber struct {
	hub *Hub
}

// NewSubscriber creates a subscriber feeding the given hub
func NewSubscriber(hub *Hub) *Subscriber {
	return &Subscriber{hub: hub}
}

// Register subscribes the bridge to every event type the dashboard
// streams out.
func (s *Subscriber) Register(bus event.Bus) {
	bus.Subscribe(event.Type(domain.EventTypeAccountConnected), s.handleAccountConnected)
	bus.Subscribe(event.Type(domain.EventTypeConnectFailed), s.handleConnectFailed)
	bus.Subscribe(event.Type(domain.EventTypeSearchCompleted), s.handleSearchCompleted)
}

func (s *Subscriber) handleAccountConnected(ctx context.Context, evt event.Event) error {
	payload, err := event.DecodePayload[event.AccountConnectedPayloadV1](evt.Payload)
	if err != nil {
		logger.FromContext(ctx).Warn(LogMsgInvalidPayload, "type", evt.Type, "error", err)
		return nil
	}

	s.hub.Broadcast(EventTypeAccountConnected, payload.ExternalUserID, AccountConnectedPayload{
		AccountID:   payload.AccountID,
		AccountName: payload.AccountName,
		AppSlug:     payload.AppSlug,
	})
	return nil
}

func (s *Subscriber) handleConnectFailed(ctx context.Context, evt event.Event) error {
	payload, err := event.DecodePayload[event.ConnectFailedPayloadV1](evt.Payload)
	if err != nil {
		logger.FromContext(ctx).Warn(LogMsgInvalidPayload, "type", evt.Type, "error", err)
		return nil
	}

	s.hub.Broadcast(EventTypeConnectFailed, payload.ExternalUserID, ConnectFailedPayload{
		AppSlug: payload.AppSlug,
		Message: payload.Message,
	})
	return nil
}

func (s *Subscriber) handleSearchCompleted(ctx context.Context, evt event.Event) error {
	payload, err := event.DecodePayload[event.SearchCompletedPayloadV1](evt.Payload)
	if err != nil {
		logger.FromContext(ctx).Warn(LogMsgInvalidPayload, "type", evt.Type, "error", err)
		return nil
	}

	s.hub.Broadcast(EventTypeSearchCompleted, payload.ExternalUserID, SearchCompletedPayload{
		Query:       payload.Query,
		ResultCount: payload.ResultCount,
		HasMore:     payload.HasMore,
	})
	return nil
}
