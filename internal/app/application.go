// Package app assembles the service: configuration, session store, event
// router, hub, WebSocket transport, and HTTP API, in dependency order.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"promate/internal/api"
	"promate/internal/config"
	"promate/internal/core"
	"promate/internal/hub"
	"promate/internal/store"
	"promate/internal/websocket"
)

// Application coordinates all system components.
type Application struct {
	config     *config.Config
	store      *store.Store
	registry   *websocket.Registry
	core       *core.Core
	eventHub   *hub.Hub
	apiServer  *api.Server
	httpServer *http.Server
}

// NewApplication wires all components. Initialization order:
// Store → Registry → Core → Hub → WebSocket handler → API → HTTP.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	sessionStore := store.NewStore(cfg.SessionDefaults())

	registry := websocket.NewRegistry()

	eventCore := core.New(sessionStore, registry, nil, core.Config{
		ChatHistoryLimit: cfg.Session.ChatHistoryLimit,
		ChatRateLimit:    cfg.Session.ChatRateLimit,
	})

	eventHub := hub.NewHub(eventCore)

	wsHandler := websocket.NewHandler(registry, eventHub, websocket.Timing{
		PingInterval: cfg.WebSocket.PingInterval,
		ReadTimeout:  cfg.WebSocket.ReadTimeout,
		WriteTimeout: cfg.WebSocket.WriteTimeout,
	})

	apiServer := api.NewServer(eventCore, registry)

	router := chi.NewRouter()
	router.Mount("/", apiServer)
	router.Get("/ws", wsHandler.HandleWebSocket)

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:     cfg,
		store:      sessionStore,
		registry:   registry,
		core:       eventCore,
		eventHub:   eventHub,
		apiServer:  apiServer,
		httpServer: httpServer,
	}, nil
}

// Start begins serving. The hub starts first so the transport never accepts
// a frame it cannot dispatch.
func (app *Application) Start(ctx context.Context) error {
	log.Printf("Starting Promate application on %s", app.httpServer.Addr)

	if err := app.eventHub.Start(ctx); err != nil {
		return fmt.Errorf("failed to start event hub: %w", err)
	}

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		app.eventHub.Stop()
		return err
	case <-time.After(100 * time.Millisecond):
		log.Printf("Promate application started successfully")
		return nil
	case <-ctx.Done():
		app.eventHub.Stop()
		return ctx.Err()
	}
}

// Stop shuts down in reverse dependency order: HTTP first so no new frames
// arrive, then the hub.
func (app *Application) Stop(ctx context.Context) error {
	log.Printf("Shutting down Promate application")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if err := app.eventHub.Stop(); err != nil {
		log.Printf("Event hub shutdown error: %v", err)
	}

	log.Printf("Promate application shutdown complete")
	return nil
}

// GetAddr returns the server address for external connections.
func (app *Application) GetAddr() string {
	return app.httpServer.Addr
}
