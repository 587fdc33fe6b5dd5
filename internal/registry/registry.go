package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/rmacdonaldsmith/eventstreams-go/pkg/capability"
	"github.com/rmacdonaldsmith/eventstreams-go/pkg/eventstreams"
)

var (
	// ErrEmptyActor is returned when a configuration names no actor
	ErrEmptyActor = errors.New("actor cannot be empty")
	// ErrNilConnector is returned when the registry is created without a connector
	ErrNilConnector = errors.New("connector cannot be nil")
)

// Registry maps caller identities to store clients.
// Lookups run concurrently with each other; Configure and Deconfigure are exclusive.
// No network I/O happens while the lock is held.
type Registry struct {
	mu        sync.RWMutex
	clients   map[string]eventstreams.Client // actor -> client
	connector eventstreams.Connector
	logger    *slog.Logger
}

// New creates an empty registry that opens clients through connector.
func New(connector eventstreams.Connector, logger *slog.Logger) (*Registry, error) {
	if connector == nil {
		return nil, ErrNilConnector
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		clients:   make(map[string]eventstreams.Client),
		connector: connector,
		logger:    logger,
	}, nil
}

// Configure opens a client from the configuration and installs it under cfg.Module,
// replacing any previous client for that actor.
func (r *Registry) Configure(ctx context.Context, cfg capability.Configuration) error {
	if cfg.Module == "" {
		return eventstreams.NewError(eventstreams.KindConfiguration, "configure", ErrEmptyActor)
	}

	url := cfg.Value(capability.OptionURL, "")
	r.logger.Info("attempting to connect actor to store",
		"actor", cfg.Module,
		"url", url)

	client, err := r.connector.Open(ctx, url)
	if err != nil {
		if eventstreams.KindOf(err) == eventstreams.KindUnknown {
			err = eventstreams.NewError(eventstreams.KindConfiguration, "configure", err)
		}
		return fmt.Errorf("failed to configure actor %s: %w", cfg.Module, err)
	}

	r.mu.Lock()
	previous := r.clients[cfg.Module]
	r.clients[cfg.Module] = client
	r.mu.Unlock()

	if previous != nil {
		r.closeClient(cfg.Module, previous)
	}
	return nil
}

// Deconfigure removes the actor's client. Removing an absent actor succeeds.
func (r *Registry) Deconfigure(actor string) error {
	r.mu.Lock()
	client, exists := r.clients[actor]
	delete(r.clients, actor)
	r.mu.Unlock()

	if exists {
		r.logger.Info("actor removed", "actor", actor)
		r.closeClient(actor, client)
	}
	return nil
}

// Resolve returns a fresh connection from the actor's client.
// The caller owns the connection and must close it.
func (r *Registry) Resolve(ctx context.Context, actor string) (eventstreams.Conn, error) {
	r.mu.RLock()
	client, exists := r.clients[actor]
	r.mu.RUnlock()

	if !exists {
		return nil, eventstreams.NewError(eventstreams.KindRegistry, "resolve",
			fmt.Errorf("no client for actor %q, did the host configure it?", actor))
	}

	conn, err := client.Conn(ctx)
	if err != nil {
		if eventstreams.KindOf(err) == eventstreams.KindUnknown {
			err = eventstreams.NewError(eventstreams.KindStore, "resolve", err)
		}
		return nil, err
	}
	return conn, nil
}

// Actors returns the configured actors in sorted order.
func (r *Registry) Actors() []string {
	r.mu.RLock()
	actors := make([]string, 0, len(r.clients))
	for actor := range r.clients {
		actors = append(actors, actor)
	}
	r.mu.RUnlock()

	sort.Strings(actors)
	return actors
}

// Len returns the number of configured actors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Close removes and closes every client. The registry stays usable afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[string]eventstreams.Client)
	r.mu.Unlock()

	var errs []error
	for actor, client := range clients {
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close client for %s: %w", actor, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) closeClient(actor string, client eventstreams.Client) {
	if err := client.Close(); err != nil {
		r.logger.Warn("failed to close store client", "actor", actor, "error", err)
	}
}
