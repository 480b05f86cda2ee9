package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninelinehq/ConnectPortal_Go/internal/domain"
)

func TestMemoryBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryBus()
	eventType := Type("test_event")
	handled := false

	bus.Subscribe(eventType, func(ctx context.Context, event Event) error {
		assert.Equal(t, eventType, event.Type)
		assert.Equal(t, "payload", event.Payload.(string))
		handled = true
		return nil
	})

	err := bus.Publish(context.Background(), Event{
		Version: "1.0",
		Type:    eventType,
		Payload: "payload",
	})

	require.NoError(t, err)
	assert.True(t, handled, "Handler was not called")
}

func TestMemoryBus_PublishMultipleHandlers(t *testing.T) {
	bus := NewMemoryBus()
	eventType := Type("test_event")
	count := 0

	handler := func(ctx context.Context, event Event) error {
		count++
		return nil
	}

	bus.Subscribe(eventType, handler)
	bus.Subscribe(eventType, handler)

	err := bus.Publish(context.Background(), Event{Version: "1.0", Type: eventType})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMemoryBus_PublishError(t *testing.T) {
	bus := NewMemoryBus()
	eventType := Type("test_event")

	bus.Subscribe(eventType, func(ctx context.Context, event Event) error {
		return errors.New("handler error")
	})

	err := bus.Publish(context.Background(), Event{Version: "1.0", Type: eventType})
	assert.Error(t, err)
}

func TestMemoryBus_NoSubscribers(t *testing.T) {
	bus := NewMemoryBus()

	err := bus.Publish(context.Background(), Event{Version: "1.0", Type: Type("nobody_listens")})
	assert.NoError(t, err)
}

func TestNewAccountConnectedEvent(t *testing.T) {
	evt := NewAccountConnectedEvent("user_123", domain.LinkedAccount{
		ID:          "acc_42",
		DisplayName: "Team Workspace",
		SourceSlug:  "slack",
	})

	assert.Equal(t, Type(domain.EventTypeAccountConnected), evt.Type)
	assert.Equal(t, EventSchemaVersion, evt.Version)

	payload, err := DecodePayload[AccountConnectedPayloadV1](evt.Payload)
	require.NoError(t, err)
	assert.Equal(t, "acc_42", payload.AccountID)
	assert.Equal(t, "Team Workspace", payload.AccountName)
	assert.Equal(t, "slack", payload.AppSlug)
	assert.NotZero(t, payload.Timestamp)
}

func TestNewConnectFailedEvent(t *testing.T) {
	evt := NewConnectFailedEvent("user_123", "slack", "authorization handshake failed")

	payload, err := DecodePayload[ConnectFailedPayloadV1](evt.Payload)
	require.NoError(t, err)
	assert.Equal(t, "slack", payload.AppSlug)
	assert.Equal(t, "authorization handshake failed", payload.Message)
}

func TestDecodePayload_JSONFallback(t *testing.T) {
	// Simulates a payload that arrived as a generic map
	raw := map[string]interface{}{
		"query":        "slack",
		"result_count": 3,
		"has_more":     true,
	}

	payload, err := DecodePayload[SearchCompletedPayloadV1](raw)
	require.NoError(t, err)
	assert.Equal(t, "slack", payload.Query)
	assert.Equal(t, 3, payload.ResultCount)
	assert.True(t, payload.HasMore)
}
