package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rmacdonaldsmith/eventstreams-go/internal/storetest"
	"github.com/rmacdonaldsmith/eventstreams-go/pkg/capability"
	"github.com/rmacdonaldsmith/eventstreams-go/pkg/eventstreams"
)

func newTestRegistry(t *testing.T) (*Registry, *storetest.Connector) {
	t.Helper()

	connector := storetest.NewConnector()
	reg, err := New(connector, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return reg, connector
}

func bindConfig(actor, url string) capability.Configuration {
	return capability.Configuration{
		Module: actor,
		Values: map[string]string{capability.OptionURL: url},
	}
}

func TestNew_NilConnector(t *testing.T) {
	_, err := New(nil, nil)
	if !errors.Is(err, ErrNilConnector) {
		t.Fatalf("Expected ErrNilConnector, got %v", err)
	}
}

func TestRegistry_ConfigureAndResolve(t *testing.T) {
	reg, connector := newTestRegistry(t)
	ctx := context.Background()

	if err := reg.Configure(ctx, bindConfig("actor-1", "redis://a:6379/")); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	conn, err := reg.Resolve(ctx, "actor-1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Append(ctx, "s1", []eventstreams.Field{{Name: "k", Value: "v"}}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if connector.Len("redis://a:6379/", "s1") != 1 {
		t.Error("Expected the append to reach the configured store")
	}
}

func TestRegistry_Configure_NoURLUsesConnectorDefault(t *testing.T) {
	reg, connector := newTestRegistry(t)

	err := reg.Configure(context.Background(), capability.Configuration{Module: "actor-1"})
	if err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	opened := connector.Opened()
	if len(opened) != 1 || opened[0] != "" {
		t.Errorf("Expected an empty URL to be passed through, got %v", opened)
	}
}

func TestRegistry_Configure_EmptyActor(t *testing.T) {
	reg, _ := newTestRegistry(t)

	err := reg.Configure(context.Background(), bindConfig("", "redis://a:6379/"))
	if !errors.Is(err, eventstreams.ErrConfiguration) {
		t.Fatalf("Expected configuration error, got %v", err)
	}
	if reg.Len() != 0 {
		t.Errorf("Expected empty registry, got %d entries", reg.Len())
	}
}

func TestRegistry_Configure_Unreachable(t *testing.T) {
	reg, connector := newTestRegistry(t)
	ctx := context.Background()
	connector.Unreachable("redis://down:6379/")

	if err := reg.Configure(ctx, bindConfig("actor-1", "redis://up:6379/")); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	err := reg.Configure(ctx, bindConfig("actor-1", "redis://down:6379/"))
	if !errors.Is(err, eventstreams.ErrConfiguration) {
		t.Fatalf("Expected configuration error, got %v", err)
	}

	// The failed bind must leave the previous client in place
	conn, err := reg.Resolve(ctx, "actor-1")
	if err != nil {
		t.Fatalf("Resolve failed after failed reconfigure: %v", err)
	}
	conn.Append(ctx, "s1", []eventstreams.Field{{Name: "k", Value: "v"}})
	if connector.Len("redis://up:6379/", "s1") != 1 {
		t.Error("Expected the original store to still be in use")
	}
}

func TestRegistry_ReplaceOnReconfigure(t *testing.T) {
	reg, connector := newTestRegistry(t)
	ctx := context.Background()

	if err := reg.Configure(ctx, bindConfig("actor-1", "redis://first:6379/")); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if err := reg.Configure(ctx, bindConfig("actor-1", "redis://second:6379/")); err != nil {
		t.Fatalf("Reconfigure failed: %v", err)
	}

	if reg.Len() != 1 {
		t.Fatalf("Expected exactly one entry, got %d", reg.Len())
	}

	closed := connector.Closed()
	if len(closed) != 1 || closed[0] != "redis://first:6379/" {
		t.Errorf("Expected the replaced client to be closed, got %v", closed)
	}

	conn, err := reg.Resolve(ctx, "actor-1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	conn.Append(ctx, "s1", []eventstreams.Field{{Name: "k", Value: "v"}})

	if connector.Len("redis://first:6379/", "s1") != 0 {
		t.Error("First endpoint should no longer receive writes")
	}
	if connector.Len("redis://second:6379/", "s1") != 1 {
		t.Error("Second endpoint should receive writes")
	}
}

func TestRegistry_Deconfigure(t *testing.T) {
	reg, connector := newTestRegistry(t)
	ctx := context.Background()

	reg.Configure(ctx, bindConfig("actor-1", "redis://a:6379/"))

	if err := reg.Deconfigure("actor-1"); err != nil {
		t.Fatalf("Deconfigure failed: %v", err)
	}
	// Removing twice is a no-op success
	if err := reg.Deconfigure("actor-1"); err != nil {
		t.Fatalf("Second Deconfigure failed: %v", err)
	}
	if err := reg.Deconfigure("never-configured"); err != nil {
		t.Fatalf("Deconfigure of unknown actor failed: %v", err)
	}

	if len(connector.Closed()) != 1 {
		t.Errorf("Expected exactly one client close, got %v", connector.Closed())
	}

	_, err := reg.Resolve(ctx, "actor-1")
	if !errors.Is(err, eventstreams.ErrRegistry) {
		t.Fatalf("Expected registry error after removal, got %v", err)
	}
}

func TestRegistry_Resolve_Unconfigured(t *testing.T) {
	reg, _ := newTestRegistry(t)

	conn, err := reg.Resolve(context.Background(), "ghost")
	if conn != nil {
		t.Error("Expected nil connection")
	}
	if !errors.Is(err, eventstreams.ErrRegistry) {
		t.Fatalf("Expected registry error, got %v", err)
	}
}

func TestRegistry_ActorsAndClose(t *testing.T) {
	reg, connector := newTestRegistry(t)
	ctx := context.Background()

	for _, actor := range []string{"charlie", "alpha", "bravo"} {
		reg.Configure(ctx, bindConfig(actor, "redis://"+actor+":6379/"))
	}

	actors := reg.Actors()
	expected := []string{"alpha", "bravo", "charlie"}
	if fmt.Sprint(actors) != fmt.Sprint(expected) {
		t.Errorf("Expected %v, got %v", expected, actors)
	}

	if err := reg.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if reg.Len() != 0 {
		t.Errorf("Expected empty registry after Close, got %d", reg.Len())
	}
	if len(connector.Closed()) != 3 {
		t.Errorf("Expected 3 closed clients, got %d", len(connector.Closed()))
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	reg.Configure(ctx, bindConfig("stable", "redis://stable:6379/"))

	var wg sync.WaitGroup
	errs := make(chan error, 200)

	// Readers on a stable actor never observe a missing entry
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				conn, err := reg.Resolve(ctx, "stable")
				if err != nil {
					errs <- err
					return
				}
				conn.Close()
			}
		}()
	}

	// Writers churn other actors concurrently
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := fmt.Sprintf("churn-%d", i%3)
			for j := 0; j < 20; j++ {
				if err := reg.Configure(ctx, bindConfig(actor, fmt.Sprintf("redis://%s-%d:6379/", actor, j))); err != nil {
					errs <- err
					return
				}
				reg.Deconfigure(actor)
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error under concurrency: %v", err)
	}
}
