package eventstreams

import (
	"context"
	"io"
)

// Connector opens clients against a backing store endpoint.
type Connector interface {
	// Open validates the URL and returns a reusable client. It does not
	// necessarily establish a live connection.
	Open(ctx context.Context, url string) (Client, error)
}

// Client is a reusable handle to a backing store that hands out connections on demand.
type Client interface {
	io.Closer

	// Conn returns a connection for a single logical operation.
	// The caller must close it when the operation completes.
	Conn(ctx context.Context) (Conn, error)
}

// Conn is the command contract the stream adapter needs from the backing store.
type Conn interface {
	io.Closer

	// Append adds an entry to the end of a stream with a store-assigned id and returns that id.
	Append(ctx context.Context, stream string, fields []Field) (string, error)

	// Range returns the entries with ids between start and end, inclusive, in ascending order.
	// A count of zero returns every matching entry.
	Range(ctx context.Context, stream, start, end string, count uint64) ([]Entry, error)
}

// Entry is a raw stream entry as returned by the store.
// Values are whatever the store client decoded: usually string, sometimes []byte or nil.
type Entry struct {
	ID     string
	Values map[string]any
}
