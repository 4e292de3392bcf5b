// Package config loads process settings for the goride CLI from the environment,
// optionally seeded from a .env file.
package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/session"
)

// EnvPrefix prefixes every variable read by Load.
const EnvPrefix = "GORIDE_"

// Store backends.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Settings is the full process configuration.
type Settings struct {
	// APIURL is the data API base, e.g. http://127.0.0.1:8000/api/v1/.
	APIURL string `env:"API_URL,required"`
	// AuthURL is the login endpoint, e.g. http://127.0.0.1:8000/authentication/token/.
	AuthURL string `env:"AUTHENTICATION_URL,required"`

	Store StoreSettings `envPrefix:"STORE_"`
	Redis RedisSettings `envPrefix:"REDIS_"`
	Log   LogSettings   `envPrefix:"LOG_"`

	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	LoginTimeout   time.Duration `env:"LOGIN_TIMEOUT" envDefault:"10s"`
	VerifyTimeout  time.Duration `env:"VERIFY_TIMEOUT" envDefault:"10s"`
	RefreshTimeout time.Duration `env:"REFRESH_TIMEOUT" envDefault:"10s"`
	PollInterval   time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`
	EventsEnabled  bool `env:"EVENTS_ENABLED" envDefault:"false"`
}

// StoreSettings selects the credential store.
type StoreSettings struct {
	Backend string `env:"BACKEND" envDefault:"file"`
	// Path of the credential file. Empty means <user config dir>/goride/credentials.json.
	Path string `env:"PATH"`
}

// RedisSettings configures the Redis credential store.
type RedisSettings struct {
	Addr     string        `env:"ADDR" envDefault:"localhost:6379"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB" envDefault:"0"`
	Prefix   string        `env:"PREFIX" envDefault:"goride:"`
	TTL      time.Duration `env:"TTL" envDefault:"0s"`
}

// LogSettings configures the process logger.
type LogSettings struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

// Load reads files (default ".env") when present, then the environment.
func Load(files ...string) (Settings, error) {
	if err := godotenv.Load(files...); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Settings{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var s Settings
	if err := env.ParseWithOptions(&s, env.Options{Prefix: EnvPrefix}); err != nil {
		return s, fmt.Errorf("parse config: %w", err)
	}

	s.Sanitize()
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Sanitize normalizes values and applies guardrails.
func (s *Settings) Sanitize() {
	s.APIURL = strings.TrimSpace(s.APIURL)
	s.AuthURL = strings.TrimSpace(s.AuthURL)
	s.Store.Backend = strings.ToLower(strings.TrimSpace(s.Store.Backend))
	if s.Store.Backend == "" {
		s.Store.Backend = StoreFile
	}
	if s.Store.Backend == StoreFile && s.Store.Path == "" {
		s.Store.Path = defaultStorePath()
	}
	s.Log.Level = strings.ToLower(strings.TrimSpace(s.Log.Level))
	s.Log.Format = strings.ToLower(strings.TrimSpace(s.Log.Format))

	if s.HTTPTimeout <= 0 {
		s.HTTPTimeout = 30 * time.Second
	}
	for _, d := range []*time.Duration{&s.LoginTimeout, &s.VerifyTimeout, &s.RefreshTimeout} {
		if *d <= 0 {
			*d = 10 * time.Second
		}
	}
	if s.PollInterval < time.Second {
		s.PollInterval = time.Second
	}
	if s.Redis.TTL < 0 {
		s.Redis.TTL = 0
	}
}

// Validate reports the first invalid setting.
func (s *Settings) Validate() error {
	if err := validateURL("API_URL", s.APIURL); err != nil {
		return err
	}
	if err := validateURL("AUTHENTICATION_URL", s.AuthURL); err != nil {
		return err
	}
	switch s.Store.Backend {
	case StoreFile, StoreMemory:
	case StoreRedis:
		if s.Redis.Addr == "" {
			return errors.New("REDIS_ADDR is required for the redis store")
		}
	default:
		return fmt.Errorf("STORE_BACKEND %q: want file, redis, or memory", s.Store.Backend)
	}
	return nil
}

func validateURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s%s invalid: %w", EnvPrefix, name, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s%s must be an absolute http(s) URL", EnvPrefix, name)
	}
	return nil
}

// ClientConfig maps the settings onto the session client configuration.
func (s Settings) ClientConfig() goSession.Config {
	cfg := goSession.DefaultConfig()
	cfg.Endpoints.AuthURL = s.AuthURL
	cfg.Timeouts.Login = s.LoginTimeout
	cfg.Timeouts.Verify = s.VerifyTimeout
	cfg.Timeouts.Refresh = s.RefreshTimeout
	cfg.Metrics.Enabled = s.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = s.MetricsEnabled
	cfg.Events.Enabled = s.EventsEnabled
	return cfg
}

// OpenStore builds the configured credential store. The returned close func
// releases its resources.
func (s Settings) OpenStore(ctx context.Context) (session.Store, func() error, error) {
	noop := func() error { return nil }
	switch s.Store.Backend {
	case StoreMemory:
		return session.NewMemoryStore(), noop, nil
	case StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     s.Redis.Addr,
			Password: s.Redis.Password,
			DB:       s.Redis.DB,
		})
		store := session.NewRedisStore(rdb, s.Redis.Prefix, s.Redis.TTL)
		if _, err := store.Ping(ctx); err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		return store, rdb.Close, nil
	default:
		store, err := session.NewFileStore(s.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	}
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "goride", "credentials.json")
}
