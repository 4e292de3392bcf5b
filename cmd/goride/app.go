package main

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/api"
	"github.com/MrEthical07/goSession/config"
	"github.com/MrEthical07/goSession/middleware"
	"github.com/MrEthical07/goSession/route"
)

// app is everything one command invocation needs.
type app struct {
	settings config.Settings
	logger   *zap.Logger
	client   *goSession.Client
	api      *api.Client
	guard    *route.Guard

	closeStore func() error
}

// newApp opens the configured store and builds the session client, the gateway
// HTTP client, and the guard on top of it. Session events, when enabled, are
// written as JSON lines to events.
func newApp(ctx context.Context, s config.Settings, logger *zap.Logger, events io.Writer) (*app, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	store, closeStore, err := s.OpenStore(ctx)
	if err != nil {
		return nil, err
	}

	builder := goSession.New().
		WithConfig(s.ClientConfig()).
		WithStore(store).
		WithHTTPClient(&http.Client{Timeout: s.HTTPTimeout}).
		WithLogger(logger)
	if s.EventsEnabled && events != nil {
		builder = builder.WithEventSink(goSession.NewJSONWriterSink(events))
	}
	client, err := builder.Build()
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	gateway := middleware.NewHTTPClient(client, http.DefaultTransport, s.HTTPTimeout, logger)
	return &app{
		settings:   s,
		logger:     logger,
		client:     client,
		api:        api.New(s.APIURL, gateway),
		guard:      route.NewGuard(client, nil, logger),
		closeStore: closeStore,
	}, nil
}

// Close flushes events and releases the store.
func (a *app) Close() error {
	if a == nil {
		return nil
	}
	a.client.Close()
	_ = a.logger.Sync()
	if a.closeStore != nil {
		return a.closeStore()
	}
	return nil
}
