package redisstore

import (
	"context"
	"fmt"
	"math"

	"github.com/redis/go-redis/v9"

	"github.com/rmacdonaldsmith/eventstreams-go/pkg/eventstreams"
)

// Connector opens Redis clients. It implements eventstreams.Connector.
type Connector struct {
	config Config
}

// NewConnector creates a Connector with the given configuration.
func NewConnector(config Config) (*Connector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	configCopy := config
	configCopy.SetDefaults()

	return &Connector{config: configCopy}, nil
}

// Open parses the URL and returns a client for it. An empty URL selects DefaultURL.
// The returned client does not hold a live connection unless VerifyOnOpen is set.
func (c *Connector) Open(ctx context.Context, url string) (eventstreams.Client, error) {
	if url == "" {
		url = DefaultURL
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, eventstreams.NewError(eventstreams.KindConfiguration, "open",
			fmt.Errorf("failed to parse redis url: %w", err))
	}
	opts.DialTimeout = c.config.DialTimeout
	opts.PoolSize = c.config.PoolSize

	rdb := redis.NewClient(opts)

	if c.config.VerifyOnOpen {
		pingCtx, cancel := context.WithTimeout(ctx, c.config.DialTimeout)
		defer cancel()

		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, eventstreams.NewError(eventstreams.KindConfiguration, "open",
				fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err))
		}
	}

	return &Client{rdb: rdb, addr: opts.Addr}, nil
}

// Client wraps a pooled Redis client. It implements eventstreams.Client.
type Client struct {
	rdb  *redis.Client
	addr string
}

// Addr returns the host:port the client talks to.
func (c *Client) Addr() string {
	return c.addr
}

// Conn takes a dedicated connection for one logical operation.
func (c *Client) Conn(ctx context.Context) (eventstreams.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, eventstreams.NewError(eventstreams.KindStore, "conn", err)
	}
	return &Conn{conn: c.rdb.Conn()}, nil
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Conn is a single Redis connection. It implements eventstreams.Conn.
type Conn struct {
	conn *redis.Conn
}

// Append issues XADD with a server-assigned id.
func (c *Conn) Append(ctx context.Context, stream string, fields []eventstreams.Field) (string, error) {
	values := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		values = append(values, f.Name, f.Value)
	}

	id, err := c.conn.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		ID:     eventstreams.AutoID,
		Values: values,
	}).Result()
	if err != nil {
		return "", eventstreams.NewError(eventstreams.KindStore, "xadd", err)
	}
	return id, nil
}

// Range issues XRANGE, adding COUNT when count is non-zero.
func (c *Conn) Range(ctx context.Context, stream, start, end string, count uint64) ([]eventstreams.Entry, error) {
	var (
		msgs []redis.XMessage
		err  error
	)
	if count > math.MaxInt64 {
		count = math.MaxInt64
	}
	if count > 0 {
		msgs, err = c.conn.XRangeN(ctx, stream, start, end, int64(count)).Result()
	} else {
		msgs, err = c.conn.XRange(ctx, stream, start, end).Result()
	}
	if err != nil {
		return nil, eventstreams.NewError(eventstreams.KindStore, "xrange", err)
	}

	entries := make([]eventstreams.Entry, 0, len(msgs))
	for _, m := range msgs {
		entries = append(entries, eventstreams.Entry{ID: m.ID, Values: m.Values})
	}
	return entries, nil
}

// Close returns the connection to the pool.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// Verify that the Redis types implement the store contract at compile time
var (
	_ eventstreams.Connector = (*Connector)(nil)
	_ eventstreams.Client    = (*Client)(nil)
	_ eventstreams.Conn      = (*Conn)(nil)
)
