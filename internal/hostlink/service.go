// Package hostlink carries provider calls between the host runtime and the
// provider over gRPC.
//
// The link defines two unary services. The provider serves
// eventstreams.hostlink.v1.Provider/HandleCall and the host serves
// eventstreams.hostlink.v1.Host/Dispatch. Both take and return a
// google.protobuf.BytesValue holding the codec-encoded payload. The caller
// identity and operation name travel as request metadata.
package hostlink

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ProviderServiceName = "eventstreams.hostlink.v1.Provider"
	HostServiceName     = "eventstreams.hostlink.v1.Host"

	handleCallMethod = "HandleCall"
	dispatchMethod   = "Dispatch"

	// MetadataActor carries the caller identity
	MetadataActor = "x-actor"
	// MetadataOperation carries the operation name
	MetadataOperation = "x-operation"
	// MetadataErrorKind is a trailer naming the eventstreams.Kind of a failed call
	MetadataErrorKind = "x-error-kind"
)

// Handler processes one call carried over the link.
type Handler interface {
	HandleCall(ctx context.Context, actor, op string, msg []byte) ([]byte, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, actor, op string, msg []byte) ([]byte, error)

// HandleCall calls f.
func (f HandlerFunc) HandleCall(ctx context.Context, actor, op string, msg []byte) ([]byte, error) {
	return f(ctx, actor, op, msg)
}

// bytesService is the server-side shape of both link services.
type bytesService interface {
	Call(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

func fullMethod(service, method string) string {
	return "/" + service + "/" + method
}

func serviceDesc(service, method string) *grpc.ServiceDesc {
	full := fullMethod(service, method)
	return &grpc.ServiceDesc{
		ServiceName: service,
		HandlerType: (*bytesService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: method,
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := new(wrapperspb.BytesValue)
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return srv.(bytesService).Call(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
					handler := func(ctx context.Context, req any) (any, error) {
						return srv.(bytesService).Call(ctx, req.(*wrapperspb.BytesValue))
					}
					return interceptor(ctx, in, info, handler)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "eventstreams/hostlink/v1/hostlink.proto",
	}
}

// RegisterProvider registers handler as the Provider service on s.
func RegisterProvider(s grpc.ServiceRegistrar, handler Handler, opts ...EndpointOption) {
	s.RegisterService(serviceDesc(ProviderServiceName, handleCallMethod), newEndpoint(handler, opts...))
}

// RegisterHost registers handler as the Host service on s.
// Hosts and test harnesses use it to receive provider dispatches.
func RegisterHost(s grpc.ServiceRegistrar, handler Handler, opts ...EndpointOption) {
	s.RegisterService(serviceDesc(HostServiceName, dispatchMethod), newEndpoint(handler, opts...))
}
