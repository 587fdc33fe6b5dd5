// Package streamadapter translates generic event stream requests into store commands.
package streamadapter

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/rmacdonaldsmith/eventstreams-go/pkg/eventstreams"
)

// Placeholder replaces field values that cannot be represented as text.
const Placeholder = "??"

// ErrNilResolver is returned when the adapter is created without a resolver.
var ErrNilResolver = errors.New("resolver cannot be nil")

// Resolver yields a per-call store connection for an actor.
type Resolver interface {
	Resolve(ctx context.Context, actor string) (eventstreams.Conn, error)
}

// Adapter implements the write and query paths on top of a Resolver.
// It holds no state of its own and is safe for concurrent use.
type Adapter struct {
	resolver Resolver
}

// New creates an Adapter.
func New(resolver Resolver) (*Adapter, error) {
	if resolver == nil {
		return nil, ErrNilResolver
	}
	return &Adapter{resolver: resolver}, nil
}

// WriteEvent appends the event to its stream and returns the store-assigned id.
// Any id set on the incoming event is ignored.
func (a *Adapter) WriteEvent(ctx context.Context, actor string, event eventstreams.Event) (eventstreams.WriteResponse, error) {
	conn, err := a.resolver.Resolve(ctx, actor)
	if err != nil {
		return eventstreams.WriteResponse{}, err
	}
	defer conn.Close()

	id, err := conn.Append(ctx, event.Stream, event.Fields())
	if err != nil {
		return eventstreams.WriteResponse{}, storeError("write event", err)
	}

	return eventstreams.WriteResponse{EventID: id}, nil
}

// QueryStream reads events from a stream, bounded by the query's time range and count.
// Results keep the store's ascending id order.
func (a *Adapter) QueryStream(ctx context.Context, actor string, query eventstreams.StreamQuery) (eventstreams.StreamResults, error) {
	conn, err := a.resolver.Resolve(ctx, actor)
	if err != nil {
		return eventstreams.StreamResults{}, err
	}
	defer conn.Close()

	start, end := eventstreams.RangeStart, eventstreams.RangeEnd
	if query.Range != nil {
		start, end = query.Range.Bounds()
	}

	// Count zero reads without a cap.
	entries, err := conn.Range(ctx, query.StreamID, start, end, query.Count)
	if err != nil {
		return eventstreams.StreamResults{}, storeError("query stream", err)
	}

	events := make([]eventstreams.Event, 0, len(entries))
	for _, entry := range entries {
		values := make(map[string]string, len(entry.Values))
		for k, v := range entry.Values {
			values[k] = ValueToString(v)
		}
		events = append(events, eventstreams.Event{
			EventID: entry.ID,
			Stream:  query.StreamID,
			Values:  values,
		})
	}

	return eventstreams.StreamResults{Events: events}, nil
}

// ValueToString renders a raw store value as text. Values that are not valid
// UTF-8 text become Placeholder; the original bytes are not recoverable.
func ValueToString(v any) string {
	switch val := v.(type) {
	case string:
		if utf8.ValidString(val) {
			return val
		}
	case []byte:
		if utf8.Valid(val) {
			return string(val)
		}
	}
	return Placeholder
}

func storeError(op string, err error) error {
	if eventstreams.KindOf(err) != eventstreams.KindUnknown {
		return fmt.Errorf("%s: %w", op, err)
	}
	return eventstreams.NewError(eventstreams.KindStore, op, err)
}
