package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ninelinehq/ConnectPortal_Go/internal/bootstrap"
	"github.com/ninelinehq/ConnectPortal_Go/internal/broker"
	"github.com/ninelinehq/ConnectPortal_Go/internal/config"
	"github.com/ninelinehq/ConnectPortal_Go/internal/server"
	"github.com/ninelinehq/ConnectPortal_Go/internal/session"
	"github.com/ninelinehq/ConnectPortal_Go/internal/sse"
	"github.com/ninelinehq/ConnectPortal_Go/internal/token"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logFile, err := bootstrap.SetupLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	brokerClient := broker.NewClient(broker.Config{
		Host:         cfg.BrokerAPIHost,
		ProjectID:    cfg.BrokerProjectID,
		ClientID:     cfg.BrokerClientID,
		ClientSecret: cfg.BrokerClientSecret,
		Environment:  cfg.BrokerEnvironment,
	})

	eventBus, resilientPublisher, err := bootstrap.InitializeEventSystem(cfg)
	if err != nil {
		slog.Error("Failed to initialize event system", "error", err)
		os.Exit(1)
	}

	hub := sse.NewHub()
	hub.Start()

	if err := bootstrap.RegisterEventHandlers(eventBus, hub); err != nil {
		slog.Error("Failed to register event handlers", "error", err)
		os.Exit(1)
	}

	sessions := session.NewManager(session.Deps{
		Issuer:   token.NewIssuer(brokerClient),
		Catalog:  brokerClient,
		Accounts: brokerClient,
		Bus:      resilientPublisher,
		PageSize: cfg.CatalogPageSize,
	})

	srv := server.NewServer(cfg.Port, cfg.APIKey, cfg.TrustedProxies, server.Deps{
		Broker:   brokerClient,
		Sessions: sessions,
		Hub:      hub,
	})

	// Serve until interrupted
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	case sig := <-stop:
		slog.Info("Received shutdown signal", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	bootstrap.GracefulShutdown(ctx, bootstrap.ShutdownComponents{
		Server:             srv,
		Hub:                hub,
		ResilientPublisher: resilientPublisher,
	})
}
