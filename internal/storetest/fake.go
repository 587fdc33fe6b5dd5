// Package storetest provides an in-memory implementation of the store contract for tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rmacdonaldsmith/eventstreams-go/pkg/eventstreams"
)

// ErrUnreachable is returned by Open for URLs registered with Unreachable.
var ErrUnreachable = errors.New("store unreachable")

// RangeCall records the arguments of one Range invocation.
type RangeCall struct {
	URL    string
	Stream string
	Start  string
	End    string
	Count  uint64
}

// Connector is an in-memory eventstreams.Connector. Each URL gets its own set of streams.
type Connector struct {
	mu          sync.Mutex
	stores      map[string]*store
	unreachable map[string]bool
	opened      []string
	closed      []string
	ranges      []RangeCall

	// AppendErr, when set, is returned by every Append
	AppendErr error
	// RangeEntries, when set, replaces the stored entries returned by Range
	RangeEntries []eventstreams.Entry
}

type store struct {
	streams map[string][]eventstreams.Entry
	lastMs  uint64
}

// NewConnector creates an empty Connector.
func NewConnector() *Connector {
	return &Connector{
		stores:      make(map[string]*store),
		unreachable: make(map[string]bool),
	}
}

// Unreachable makes Open fail for url.
func (c *Connector) Unreachable(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unreachable[url] = true
}

// Open returns a client bound to the store for url.
func (c *Connector) Open(ctx context.Context, url string) (eventstreams.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unreachable[url] {
		return nil, eventstreams.NewError(eventstreams.KindConfiguration, "open", fmt.Errorf("%w: %s", ErrUnreachable, url))
	}
	if _, ok := c.stores[url]; !ok {
		c.stores[url] = &store{streams: make(map[string][]eventstreams.Entry)}
	}
	c.opened = append(c.opened, url)
	return &Client{connector: c, url: url}, nil
}

// Opened returns the URLs passed to Open, in order.
func (c *Connector) Opened() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.opened...)
}

// Closed returns the URLs of closed clients, in order.
func (c *Connector) Closed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.closed...)
}

// Ranges returns every recorded Range call.
func (c *Connector) Ranges() []RangeCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]RangeCall(nil), c.ranges...)
}

// Len returns the number of entries in a stream of the store for url.
func (c *Connector) Len(url, stream string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.stores[url]; ok {
		return len(s.streams[stream])
	}
	return 0
}

// Seed appends an entry with an explicit id to the store for url.
func (c *Connector) Seed(url, stream, id string, values map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.stores[url]
	if !ok {
		s = &store{streams: make(map[string][]eventstreams.Entry)}
		c.stores[url] = s
	}
	s.streams[stream] = append(s.streams[stream], eventstreams.Entry{ID: id, Values: values})
}

// Client is an in-memory eventstreams.Client.
type Client struct {
	connector *Connector
	url       string
}

// Conn returns a connection to the client's store.
func (c *Client) Conn(ctx context.Context) (eventstreams.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, eventstreams.NewError(eventstreams.KindStore, "conn", err)
	}
	return &Conn{client: c}, nil
}

// Close records the close.
func (c *Client) Close() error {
	c.connector.mu.Lock()
	defer c.connector.mu.Unlock()
	c.connector.closed = append(c.connector.closed, c.url)
	return nil
}

// Conn is an in-memory eventstreams.Conn.
type Conn struct {
	client *Client
}

// Append stores the fields under a monotonically increasing id of the form "<n>-0".
func (c *Conn) Append(ctx context.Context, stream string, fields []eventstreams.Field) (string, error) {
	conn := c.client.connector
	conn.mu.Lock()
	defer conn.mu.Unlock()

	if conn.AppendErr != nil {
		return "", eventstreams.NewError(eventstreams.KindStore, "append", conn.AppendErr)
	}

	s := conn.stores[c.client.url]
	s.lastMs++
	id := fmt.Sprintf("%d-0", s.lastMs)

	values := make(map[string]any, len(fields))
	for _, f := range fields {
		values[f.Name] = f.Value
	}
	s.streams[stream] = append(s.streams[stream], eventstreams.Entry{ID: id, Values: values})
	return id, nil
}

// Range records the call and returns the stream's entries, honouring count but not the bounds.
func (c *Conn) Range(ctx context.Context, stream, start, end string, count uint64) ([]eventstreams.Entry, error) {
	conn := c.client.connector
	conn.mu.Lock()
	defer conn.mu.Unlock()

	conn.ranges = append(conn.ranges, RangeCall{
		URL:    c.client.url,
		Stream: stream,
		Start:  start,
		End:    end,
		Count:  count,
	})

	entries := conn.RangeEntries
	if entries == nil {
		entries = conn.stores[c.client.url].streams[stream]
	}
	if count > 0 && uint64(len(entries)) > count {
		entries = entries[:count]
	}
	return append([]eventstreams.Entry(nil), entries...), nil
}

// Close is a no-op.
func (c *Conn) Close() error {
	return nil
}

var (
	_ eventstreams.Connector = (*Connector)(nil)
	_ eventstreams.Client    = (*Client)(nil)
	_ eventstreams.Conn      = (*Conn)(nil)
)
