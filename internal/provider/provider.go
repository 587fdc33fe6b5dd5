// Package provider implements the event streams capability provider: the
// per-actor client registry, the operation dispatcher and the provider lifecycle.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rmacdonaldsmith/eventstreams-go/internal/observability"
	"github.com/rmacdonaldsmith/eventstreams-go/internal/redisstore"
	"github.com/rmacdonaldsmith/eventstreams-go/internal/registry"
	"github.com/rmacdonaldsmith/eventstreams-go/internal/streamadapter"
	"github.com/rmacdonaldsmith/eventstreams-go/pkg/capability"
	"github.com/rmacdonaldsmith/eventstreams-go/pkg/codec"
	"github.com/rmacdonaldsmith/eventstreams-go/pkg/eventstreams"
)

var (
	// ErrNilDispatcher is returned when the host supplies a nil dispatcher
	ErrNilDispatcher = errors.New("dispatcher cannot be nil")
	// ErrClosed is returned for calls made after Close
	ErrClosed = errors.New("provider is closed")
)

// Provider is a multi-tenant event streams capability provider.
// Create one per process with New and share it between all call sites.
type Provider struct {
	mu         sync.RWMutex
	dispatcher capability.Dispatcher
	closed     bool

	registry *registry.Registry
	adapter  *streamadapter.Adapter
	codec    codec.Codec
	logger   *slog.Logger
	observer observability.Observer
}

type options struct {
	connector eventstreams.Connector
	codec     codec.Codec
	logger    *slog.Logger
	observer  observability.Observer
}

// Option configures a Provider.
type Option func(*options)

// WithConnector sets the store connector. The default is a Redis connector with default settings.
func WithConnector(connector eventstreams.Connector) Option {
	return func(o *options) {
		if connector != nil {
			o.connector = connector
		}
	}
}

// WithCodec sets the payload codec. The default is MessagePack.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver sets the call observer. The default records nothing.
func WithObserver(observer observability.Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// New creates a Provider. A NullDispatcher is installed until the host calls ConfigureDispatch.
func New(opts ...Option) (*Provider, error) {
	o := &options{
		codec:    codec.MsgPack{},
		logger:   slog.Default(),
		observer: observability.Nop{},
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.connector == nil {
		connector, err := redisstore.NewConnector(redisstore.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis connector: %w", err)
		}
		o.connector = connector
	}

	reg, err := registry.New(o.connector, o.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	adapter, err := streamadapter.New(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream adapter: %w", err)
	}

	return &Provider{
		dispatcher: capability.NewNullDispatcher(),
		registry:   reg,
		adapter:    adapter,
		codec:      o.codec,
		logger:     o.logger,
		observer:   o.observer,
	}, nil
}

// ConfigureDispatch stores the host's dispatcher for the lifetime of the provider.
func (p *Provider) ConfigureDispatch(dispatcher capability.Dispatcher) error {
	if dispatcher == nil {
		return ErrNilDispatcher
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.dispatcher = dispatcher
	p.logger.Debug("dispatcher received")
	return nil
}

// Dispatcher returns the current dispatcher.
func (p *Provider) Dispatcher() capability.Dispatcher {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dispatcher
}

// Codec returns the codec used for call payloads.
func (p *Provider) Codec() codec.Codec {
	return p.codec
}

// Actors returns the configured actors in sorted order.
func (p *Provider) Actors() []string {
	return p.registry.Actors()
}

// HealthStatus summarizes the provider's state.
type HealthStatus struct {
	Healthy              bool
	DispatcherConfigured bool
	BoundActors          int
	Message              string
}

// Health reports the provider's state.
func (p *Provider) Health(ctx context.Context) (HealthStatus, error) {
	select {
	case <-ctx.Done():
		return HealthStatus{}, ctx.Err()
	default:
	}

	p.mu.RLock()
	closed := p.closed
	_, isNull := p.dispatcher.(*capability.NullDispatcher)
	p.mu.RUnlock()

	status := HealthStatus{
		Healthy:              !closed,
		DispatcherConfigured: !isNull,
		BoundActors:          p.registry.Len(),
		Message:              "ok",
	}
	if closed {
		status.Message = ErrClosed.Error()
	}
	return status, nil
}

// Close waits for in-flight calls, then releases every store client.
// Subsequent calls fail with a dispatch error. Close is idempotent.
func (p *Provider) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	return p.registry.Close()
}

