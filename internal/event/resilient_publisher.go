package event

import (
	"context"
	"sync"
	"time"

	"github.com/ninelinehq/ConnectPortal_Go/internal/logger"
)

// ResilientPublisher wraps an Event Bus to add retry logic and dead-letter
// queuing. Failed publishes are retried in the background with exponential
// backoff; events that exhaust their retries are appended to a dead-letter
// file for manual replay.
type ResilientPublisher struct {
	inner      Bus
	maxRetries int
	baseDelay  time.Duration
	deadLetter *DeadLetterWriter

	wg       sync.WaitGroup
	shutdown chan struct{}
	once     sync.Once
}

// NewResilientPublisher creates a publisher backed by the given bus
func NewResilientPublisher(inner Bus, maxRetries int, baseDelay time.Duration, deadLetterPath string) (*ResilientPublisher, error) {
	dlw, err := NewDeadLetterWriter(deadLetterPath)
	if err != nil {
		return nil, err
	}
	return &ResilientPublisher{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		deadLetter: dlw,
		shutdown:   make(chan struct{}),
	}, nil
}

// Publish implements Bus. Alias for PublishWithRetry so the publisher can
// stand in wherever a Bus is expected.
func (p *ResilientPublisher) Publish(ctx context.Context, event Event) error {
	p.PublishWithRetry(ctx, event)
	return nil
}

// PublishWithRetry attempts to publish an event. If the first attempt
// fails, a background retry loop takes over; the caller never blocks on
// retries and never sees the failure.
func (p *ResilientPublisher) PublishWithRetry(ctx context.Context, event Event) {
	if err := p.inner.Publish(ctx, event); err == nil {
		return
	} else {
		logger.FromContext(ctx).Warn(LogMsgEventPublishFailed,
			"event_type", event.Type,
			"error", err,
			"max_retries", p.maxRetries)
	}

	p.wg.Add(1)
	go p.retryLoop(event)
}

func (p *ResilientPublisher) retryLoop(event Event) {
	defer p.wg.Done()

	// Detached context: the originating request is long gone by the
	// time retries run.
	ctx := context.Background()
	log := logger.FromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		select {
		case <-p.shutdown:
			p.writeDeadLetter(event, attempt-1, lastErr)
			return
		case <-time.After(CalculateRetryDelay(p.baseDelay, attempt)):
		}

		lastErr = p.inner.Publish(ctx, event)
		if lastErr == nil {
			log.Info(LogMsgEventRetrySucceeded, "event_type", event.Type, "attempt", attempt)
			return
		}
		log.Warn(LogMsgEventRetryFailed,
			"event_type", event.Type, "attempt", attempt, "error", lastErr)
	}

	log.Error(LogMsgEventRetryExhausted, "event_type", event.Type)
	p.writeDeadLetter(event, p.maxRetries, lastErr)
}

func (p *ResilientPublisher) writeDeadLetter(event Event, attempts int, lastErr error) {
	if err := p.deadLetter.Write(event, attempts, lastErr); err != nil {
		logger.FromContext(context.Background()).Error(LogMsgDeadLetterWriteFailed, "error", err)
	}
}

// Subscribe delegates to the inner bus
func (p *ResilientPublisher) Subscribe(eventType Type, handler Handler) {
	p.inner.Subscribe(eventType, handler)
}

// Shutdown stops accepting retries and waits for in-flight retry loops,
// bounded by the context deadline. Pending events are dead-lettered.
func (p *ResilientPublisher) Shutdown(ctx context.Context) error {
	p.once.Do(func() { close(p.shutdown) })

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return p.deadLetter.Close()
}
