package metrics

import (
	"context"

	"github.com/ninelinehq/ConnectPortal_Go/internal/domain"
	"github.com/ninelinehq/ConnectPortal_Go/internal/event"
	"github.com/ninelinehq/ConnectPortal_Go/internal/logger"
)

// EventMetricsCollector subscribes to events and records metrics
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to all events
func (e *EventMetricsCollector) Register(bus event.Bus) error {
	eventTypes := []event.Type{
		event.Type(domain.EventTypeAccountConnected),
		event.Type(domain.EventTypeConnectFailed),
		event.Type(domain.EventTypeSearchCompleted),
	}

	for _, eventType := range eventTypes {
		bus.Subscribe(eventType, e.HandleEvent)
	}

	return nil
}

// HandleEvent processes events and updates metrics
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	// Always increment event counter
	EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	switch string(evt.Type) {
	case domain.EventTypeAccountConnected:
		ConnectAttempts.WithLabelValues(OutcomeSucceeded).Inc()
	case domain.EventTypeConnectFailed:
		ConnectAttempts.WithLabelValues(OutcomeFailed).Inc()
	}

	log.Debug(LogMsgMetricsRecorded, "type", evt.Type)
	return nil
}
