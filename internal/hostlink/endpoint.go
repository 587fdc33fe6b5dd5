package hostlink

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/rmacdonaldsmith/eventstreams-go/pkg/capability"
	"github.com/rmacdonaldsmith/eventstreams-go/pkg/eventstreams"
)

// endpoint adapts a Handler to the gRPC byte service.
type endpoint struct {
	handler Handler
	logger  *slog.Logger
}

// EndpointOption configures a registered endpoint.
type EndpointOption func(*endpoint)

// WithEndpointLogger sets the logger for a registered endpoint.
func WithEndpointLogger(logger *slog.Logger) EndpointOption {
	return func(e *endpoint) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func newEndpoint(handler Handler, opts ...EndpointOption) *endpoint {
	e := &endpoint{handler: handler, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *endpoint) Call(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	actor := first(md, MetadataActor)
	op := first(md, MetadataOperation)

	if actor == "" {
		return nil, status.Error(codes.InvalidArgument, "missing "+MetadataActor+" metadata")
	}
	if op == "" {
		return nil, status.Error(codes.InvalidArgument, "missing "+MetadataOperation+" metadata")
	}

	resp, err := e.handler.HandleCall(ctx, actor, op, in.GetValue())
	if err != nil {
		e.logger.Debug("host link call failed", "actor", actor, "operation", op, "error", err)
		if kind := eventstreams.KindOf(err); kind != eventstreams.KindUnknown {
			_ = grpc.SetTrailer(ctx, metadata.Pairs(MetadataErrorKind, kind.String()))
		}
		return nil, status.Error(StatusCode(op, err), err.Error())
	}
	return wrapperspb.Bytes(resp), nil
}

// StatusCode maps a provider error to a gRPC status code.
func StatusCode(op string, err error) codes.Code {
	switch eventstreams.KindOf(err) {
	case eventstreams.KindDispatch:
		if capability.ParseOperation(op) == capability.Unknown {
			return codes.Unimplemented
		}
		return codes.PermissionDenied
	case eventstreams.KindDecode, eventstreams.KindConfiguration:
		return codes.InvalidArgument
	case eventstreams.KindRegistry:
		return codes.FailedPrecondition
	case eventstreams.KindStore:
		return codes.Unavailable
	}

	switch {
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	}
	return codes.Internal
}

func first(md metadata.MD, key string) string {
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}
