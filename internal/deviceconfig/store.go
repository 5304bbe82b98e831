package deviceconfig

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/chalkydri/chalkydri-cfg/internal/logging"
	"github.com/chalkydri/chalkydri-cfg/internal/transport"
)

// PathConfiguration is the device endpoint for reading and writing the configuration.
const PathConfiguration = "/api/configuration"

var (
	// ErrBusy is returned when a Load, Save or Persist is already in flight.
	ErrBusy = fmt.Errorf("configuration store: %w", transport.ErrBusy)

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("configuration store is closed")
)

// Requester is the subset of *transport.Client the store needs.
type Requester interface {
	Get(ctx context.Context, path string, out interface{}) error
	Post(ctx context.Context, path string, in, out interface{}) error
	Put(ctx context.Context, path string, in, out interface{}) error
}

// Store mirrors the device configuration.
//
// The cached value is only replaced by a successful Load, Save or Persist,
// and always with what the device returned. At most one of those operations
// runs at a time; overlapping calls fail fast with ErrBusy.
type Store struct {
	client Requester

	busy   atomic.Bool
	closed atomic.Bool

	mu       sync.RWMutex
	cached   *Config
	loadedAt time.Time
}

// NewStore creates a store that talks to the device through client.
func NewStore(client Requester) *Store {
	return &Store{client: client}
}

// Load fetches the configuration from the device and replaces the cache.
func (s *Store) Load(ctx context.Context) (*Config, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.busy.Store(false)

	var config Config
	if err := s.client.Get(ctx, PathConfiguration, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return s.accept(&config, "load")
}

// Save sends cfg to the device and returns the device's normalized version,
// which also becomes the cached value. cfg is checked locally first; an invalid
// cfg returns a *ValidationError and no request is made.
func (s *Store) Save(ctx context.Context, cfg *Config) (*Config, error) {
	return s.write(ctx, cfg, false)
}

// Persist is Save followed by the device writing its configuration to disk.
func (s *Store) Persist(ctx context.Context, cfg *Config) (*Config, error) {
	return s.write(ctx, cfg, true)
}

func (s *Store) write(ctx context.Context, cfg *Config, persist bool) (*Config, error) {
	if cfg == nil {
		return nil, NewValidationError("", "configuration is nil")
	}
	if errs := ValidateConfig(cfg); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.busy.Store(false)

	op := "save"
	send := s.client.Post
	if persist {
		op = "persist"
		send = s.client.Put
	}

	var normalized Config
	if err := send(ctx, PathConfiguration, cfg, &normalized); err != nil {
		return nil, fmt.Errorf("failed to %s configuration: %w", op, err)
	}

	return s.accept(&normalized, op)
}

// accept validates a device response and installs it as the cached value.
func (s *Store) accept(config *Config, op string) (*Config, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to %s configuration: %w", op,
			transport.NewParseError("device returned an inconsistent configuration", err))
	}

	s.mu.Lock()
	// A reply that lands after Close is returned but not cached.
	if !s.closed.Load() {
		s.cached = config
		s.loadedAt = time.Now()
	}
	s.mu.Unlock()

	logging.Debug("Configuration synchronized",
		zap.String("op", op),
		zap.Int("cameras", len(config.Cameras)),
		zap.Bool("provisioned", config.Provisioned()))

	return config.Clone(), nil
}

func (s *Store) acquire() error {
	if s.closed.Load() {
		return ErrClosed
	}
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

// Cached returns a copy of the last authoritative configuration, or nil if
// none has been received yet.
func (s *Store) Cached() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cached.Clone()
}

// LoadedAt returns when the cache was last replaced (zero if never).
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// InFlight reports whether a Load, Save or Persist is currently running.
func (s *Store) InFlight() bool {
	return s.busy.Load()
}

// Close drops the cached configuration. Further operations return ErrClosed.
func (s *Store) Close() {
	s.closed.Store(true)

	s.mu.Lock()
	s.cached = nil
	s.loadedAt = time.Time{}
	s.mu.Unlock()
}
