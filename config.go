package goSession

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config is the Client configuration. Start from [DefaultConfig] and override.
type Config struct {
	Endpoints EndpointsConfig
	Timeouts  TimeoutsConfig
	Events    EventsConfig
	Metrics   MetricsConfig
}

// EndpointsConfig locates the authentication backend.
//
// AuthURL is the login endpoint, used verbatim. The refresh and verify endpoints
// are derived from it by appending "refresh" and "verify" after exactly one
// slash, so ".../token/" yields ".../token/refresh".
type EndpointsConfig struct {
	AuthURL string
}

// TimeoutsConfig bounds each backend call. The HTTP client's own timeout still
// applies on top.
type TimeoutsConfig struct {
	Login   time.Duration
	Verify  time.Duration
	Refresh time.Duration
}

// EventsConfig controls async session event delivery. Client.Close gives the
// dispatcher DrainTimeout to hand buffered events to the sink.
type EventsConfig struct {
	Enabled      bool
	BufferSize   int
	DropIfFull   bool
	DrainTimeout time.Duration
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration without an AuthURL.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Timeouts: TimeoutsConfig{
			Login:   10 * time.Second,
			Verify:  10 * time.Second,
			Refresh: 10 * time.Second,
		},
		Events: EventsConfig{
			Enabled:      false,
			BufferSize:   64,
			DropIfFull:   true,
			DrainTimeout: 2 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Endpoints.AuthURL) == "" {
		return errors.New("Endpoints AuthURL is required")
	}
	u, err := url.Parse(c.Endpoints.AuthURL)
	if err != nil {
		return fmt.Errorf("Endpoints AuthURL invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("Endpoints AuthURL must be http or https")
	}
	if u.Host == "" {
		return errors.New("Endpoints AuthURL must include a host")
	}

	if c.Timeouts.Login <= 0 {
		return errors.New("Timeouts Login must be > 0")
	}
	if c.Timeouts.Verify <= 0 {
		return errors.New("Timeouts Verify must be > 0")
	}
	if c.Timeouts.Refresh <= 0 {
		return errors.New("Timeouts Refresh must be > 0")
	}

	if c.Events.Enabled && c.Events.BufferSize <= 0 {
		return errors.New("Events BufferSize must be > 0 when enabled")
	}
	if c.Events.Enabled && c.Events.DrainTimeout <= 0 {
		return errors.New("Events DrainTimeout must be > 0 when enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}
	return nil
}

func (e EndpointsConfig) loginURL() string {
	return e.AuthURL
}

func (e EndpointsConfig) refreshURL() string {
	return joinAuth(e.AuthURL, "refresh")
}

func (e EndpointsConfig) verifyURL() string {
	return joinAuth(e.AuthURL, "verify")
}

func joinAuth(base, leaf string) string {
	return strings.TrimSuffix(base, "/") + "/" + leaf
}
