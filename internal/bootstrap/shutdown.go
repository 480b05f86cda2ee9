package bootstrap

import (
	"context"
	"log/slog"

	"github.com/ninelinehq/ConnectPortal_Go/internal/event"
	"github.com/ninelinehq/ConnectPortal_Go/internal/server"
	"github.com/ninelinehq/ConnectPortal_Go/internal/sse"
)

// ShutdownComponents holds all components that need graceful shutdown.
type ShutdownComponents struct {
	Server             *server.Server
	Hub                *sse.Hub
	ResilientPublisher *event.ResilientPublisher
}

// GracefulShutdown performs graceful shutdown of all application
// components in order:
// 1. HTTP server (stop accepting new requests)
// 2. SSE hub (close browser streams)
// 3. Event publisher (flush pending events to the dead letter)
//
// Errors during shutdown are logged but do not stop the sequence.
func GracefulShutdown(ctx context.Context, components ShutdownComponents) {
	slog.Info(LogMsgShuttingDownServer)

	if err := components.Server.Stop(ctx); err != nil {
		slog.Error(LogMsgServerForcedShutdown, "error", err)
	}

	if components.Hub != nil {
		slog.Info(LogMsgShuttingDownSSEHub)
		components.Hub.Stop()
	}

	slog.Info(LogMsgShuttingDownEventPublisher)
	if err := components.ResilientPublisher.Shutdown(ctx); err != nil {
		slog.Error(LogMsgResilientPublisherFailed, "error", err)
	}

	slog.Info(LogMsgServerStopped)
}
