package capability

import (
	"context"
	"errors"
)

// ErrNoDispatcher is returned by NullDispatcher.
var ErrNoDispatcher = errors.New("no dispatcher configured")

// Dispatcher is the channel a provider uses to call back into the host.
type Dispatcher interface {
	Dispatch(ctx context.Context, actor, op string, msg []byte) ([]byte, error)
}

// NullDispatcher is the placeholder Dispatcher in place until the host supplies a real one.
type NullDispatcher struct{}

// NewNullDispatcher creates a NullDispatcher.
func NewNullDispatcher() *NullDispatcher {
	return &NullDispatcher{}
}

// Dispatch always fails with ErrNoDispatcher.
func (d *NullDispatcher) Dispatch(ctx context.Context, actor, op string, msg []byte) ([]byte, error) {
	return nil, ErrNoDispatcher
}

var _ Dispatcher = (*NullDispatcher)(nil)
