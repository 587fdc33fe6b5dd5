package hostlink

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/rmacdonaldsmith/eventstreams-go/pkg/eventstreams"
)

// Dial opens an insecure client connection to target. Extra options are appended.
func Dial(target string, maxMessageSize int, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if maxMessageSize > 0 {
		base = append(base, grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(maxMessageSize),
			grpc.MaxCallSendMsgSize(maxMessageSize),
		))
	}
	return grpc.NewClient(target, append(base, opts...)...)
}

// Client calls a provider's HandleCall over an existing connection.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient wraps conn. The caller keeps ownership of conn.
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

// HandleCall sends one call to the provider. Provider errors come back as
// *eventstreams.Error values of the original kind.
func (c *Client) HandleCall(ctx context.Context, actor, op string, msg []byte) ([]byte, error) {
	return invoke(ctx, c.conn, fullMethod(ProviderServiceName, handleCallMethod), actor, op, msg)
}

// GRPCDispatcher implements capability.Dispatcher by calling the host's Dispatch service.
type GRPCDispatcher struct {
	conn *grpc.ClientConn
}

// NewGRPCDispatcher wraps conn. The caller keeps ownership of conn.
func NewGRPCDispatcher(conn *grpc.ClientConn) *GRPCDispatcher {
	return &GRPCDispatcher{conn: conn}
}

// Dispatch sends msg to the host on behalf of actor.
func (d *GRPCDispatcher) Dispatch(ctx context.Context, actor, op string, msg []byte) ([]byte, error) {
	return invoke(ctx, d.conn, fullMethod(HostServiceName, dispatchMethod), actor, op, msg)
}

func invoke(ctx context.Context, conn *grpc.ClientConn, method, actor, op string, msg []byte) ([]byte, error) {
	ctx = metadata.AppendToOutgoingContext(ctx, MetadataActor, actor, MetadataOperation, op)

	var trailer metadata.MD
	out := new(wrapperspb.BytesValue)
	if err := conn.Invoke(ctx, method, wrapperspb.Bytes(msg), out, grpc.Trailer(&trailer)); err != nil {
		return nil, fromStatus(op, err, trailer)
	}
	return out.GetValue(), nil
}

func fromStatus(op string, err error, trailer metadata.MD) error {
	kind := eventstreams.ParseKind(first(trailer, MetadataErrorKind))
	if kind == eventstreams.KindUnknown {
		return err
	}
	st, ok := status.FromError(err)
	if !ok {
		return eventstreams.NewError(kind, op, err)
	}
	return eventstreams.NewError(kind, op, errors.New(st.Message()))
}
