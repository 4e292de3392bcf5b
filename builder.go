package goSession

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MrEthical07/goSession/internal/events"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/session"
	"go.uber.org/zap"
)

const defaultHTTPTimeout = 30 * time.Second

// Builder assembles a Client. A Builder can be used once.
type Builder struct {
	config     Config
	store      session.Store
	httpClient *http.Client
	logger     *zap.Logger
	eventSink  EventSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. Build validates it.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStore sets the credential store. The default is a fresh MemoryStore.
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithHTTPClient sets the client used for authentication backend calls. It must
// not be wrapped in middleware.Transport: the backend's 401 on refresh would
// recurse into another refresh.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithLogger sets the logger for session warnings. The default discards them.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithEventSink sets the session event sink and enables event delivery.
func (b *Builder) WithEventSink(sink EventSink) *Builder {
	b.eventSink = sink
	b.config.Events.Enabled = sink != nil
	return b
}

// WithMetricsEnabled turns the in-process counters on or off.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms turns the refresh latency histogram on or off. It
// requires metrics to be enabled.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if err := b.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	store := b.store
	if store == nil {
		store = session.NewMemoryStore()
	}
	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		config:  b.config,
		store:   store,
		logger:  logger,
		metrics: NewMetrics(b.config.Metrics),
		events: events.NewDispatcher(events.Config{
			Enabled:    b.config.Events.Enabled,
			BufferSize: b.config.Events.BufferSize,
			DropIfFull: b.config.Events.DropIfFull,
		}, b.eventSink),
	}
	c.flows = flows.Deps{
		Login: flows.LoginDeps{
			HTTP:      httpClient,
			URL:       b.config.Endpoints.loginURL(),
			Store:     store,
			RoleClaim: c.roleClaim,
		},
		Verify: flows.VerifyDeps{
			HTTP:  httpClient,
			URL:   b.config.Endpoints.verifyURL(),
			Store: store,
		},
		Refresh: flows.RefreshDeps{
			HTTP:      httpClient,
			URL:       b.config.Endpoints.refreshURL(),
			Store:     store,
			RoleClaim: c.roleClaim,
		},
		Logout: flows.LogoutDeps{
			Store: store,
		},
	}

	b.built = true
	return c, nil
}
