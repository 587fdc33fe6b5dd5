package hostlink

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/rmacdonaldsmith/eventstreams-go/internal/provider"
	"github.com/rmacdonaldsmith/eventstreams-go/internal/storetest"
	"github.com/rmacdonaldsmith/eventstreams-go/pkg/capability"
	"github.com/rmacdonaldsmith/eventstreams-go/pkg/codec"
	"github.com/rmacdonaldsmith/eventstreams-go/pkg/eventstreams"
)

const bufSize = 1024 * 1024

func dialBuf(t *testing.T, lis *bufconn.Listener) *grpc.ClientConn {
	t.Helper()
	conn, err := Dial("passthrough:///bufnet", 0,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// startServer serves handler over an in-process listener and returns a connected client.
func startServer(t *testing.T, handler Handler) *Client {
	t.Helper()
	server, err := NewServer(&Config{ListenAddress: "bufnet"}, handler, nil)
	require.NoError(t, err)

	lis := bufconn.Listen(bufSize)
	go server.Serve(lis)
	t.Cleanup(func() { server.Stop(context.Background()) })

	return NewClient(dialBuf(t, lis))
}

func TestNewServer_InvalidConfig(t *testing.T) {
	handler := HandlerFunc(func(ctx context.Context, actor, op string, msg []byte) ([]byte, error) {
		return nil, nil
	})

	_, err := NewServer(nil, handler, nil)
	assert.Error(t, err)

	_, err = NewServer(&Config{}, handler, nil)
	assert.Error(t, err)

	_, err = NewServer(&Config{ListenAddress: "localhost:0"}, nil, nil)
	assert.Error(t, err)
}

func TestClient_HandleCallCarriesActorAndOperation(t *testing.T) {
	var gotActor, gotOp string
	var gotMsg []byte
	client := startServer(t, HandlerFunc(func(ctx context.Context, actor, op string, msg []byte) ([]byte, error) {
		gotActor, gotOp, gotMsg = actor, op, msg
		return []byte("pong"), nil
	}))

	resp, err := client.HandleCall(context.Background(), "actor-1", capability.OpWriteEvent, []byte("ping"))
	require.NoError(t, err)
	assert.Equal(t, []byte("pong"), resp)
	assert.Equal(t, "actor-1", gotActor)
	assert.Equal(t, capability.OpWriteEvent, gotOp)
	assert.Equal(t, []byte("ping"), gotMsg)
}

func TestClient_MissingMetadata(t *testing.T) {
	client := startServer(t, HandlerFunc(func(ctx context.Context, actor, op string, msg []byte) ([]byte, error) {
		return nil, nil
	}))

	_, err := client.HandleCall(context.Background(), "", capability.OpWriteEvent, nil)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.HandleCall(context.Background(), "actor-1", "", nil)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestClient_ErrorKindsSurviveTheLink(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     eventstreams.Kind
		sentinel error
	}{
		{"registry", capability.OpWriteEvent, eventstreams.KindRegistry, eventstreams.ErrRegistry},
		{"store", capability.OpQueryStream, eventstreams.KindStore, eventstreams.ErrStore},
		{"decode", capability.OpWriteEvent, eventstreams.KindDecode, eventstreams.ErrDecode},
		{"dispatch", "Nope", eventstreams.KindDispatch, eventstreams.ErrDispatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := startServer(t, HandlerFunc(func(ctx context.Context, actor, op string, msg []byte) ([]byte, error) {
				return nil, eventstreams.NewError(tt.kind, op, errors.New("boom"))
			}))

			_, err := client.HandleCall(context.Background(), "actor-1", tt.op, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Contains(t, err.Error(), "boom")
		})
	}
}

func TestClient_UnclassifiedErrorIsStatus(t *testing.T) {
	client := startServer(t, HandlerFunc(func(ctx context.Context, actor, op string, msg []byte) ([]byte, error) {
		return nil, errors.New("kaboom")
	}))

	_, err := client.HandleCall(context.Background(), "actor-1", capability.OpWriteEvent, nil)
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.Equal(t, eventstreams.KindUnknown, eventstreams.KindOf(err))
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		op   string
		err  error
		want codes.Code
	}{
		{"unknown operation", "Nope", eventstreams.NewError(eventstreams.KindDispatch, "Nope", nil), codes.Unimplemented},
		{"privileged operation", capability.OpBindActor, eventstreams.NewError(eventstreams.KindDispatch, capability.OpBindActor, nil), codes.PermissionDenied},
		{"decode", capability.OpWriteEvent, eventstreams.NewError(eventstreams.KindDecode, "", nil), codes.InvalidArgument},
		{"configuration", capability.OpBindActor, eventstreams.NewError(eventstreams.KindConfiguration, "", nil), codes.InvalidArgument},
		{"registry", capability.OpWriteEvent, eventstreams.NewError(eventstreams.KindRegistry, "", nil), codes.FailedPrecondition},
		{"store", capability.OpWriteEvent, eventstreams.NewError(eventstreams.KindStore, "", nil), codes.Unavailable},
		{"canceled", capability.OpWriteEvent, context.Canceled, codes.Canceled},
		{"deadline", capability.OpWriteEvent, context.DeadlineExceeded, codes.DeadlineExceeded},
		{"other", capability.OpWriteEvent, errors.New("x"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.op, tt.err))
		})
	}
}

func TestGRPCDispatcher_Dispatch(t *testing.T) {
	type call struct {
		actor, op string
		msg       []byte
	}
	var mu sync.Mutex
	var calls []call

	host := grpc.NewServer()
	RegisterHost(host, HandlerFunc(func(ctx context.Context, actor, op string, msg []byte) ([]byte, error) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, call{actor, op, msg})
		return []byte("ack"), nil
	}))
	lis := bufconn.Listen(bufSize)
	go host.Serve(lis)
	t.Cleanup(host.Stop)

	var d capability.Dispatcher = NewGRPCDispatcher(dialBuf(t, lis))
	resp, err := d.Dispatch(context.Background(), "actor-1", "OnEvent", []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, []byte("ack"), resp)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 1)
	assert.Equal(t, call{"actor-1", "OnEvent", []byte("payload")}, calls[0])
}

func TestServer_StartStop(t *testing.T) {
	handler := HandlerFunc(func(ctx context.Context, actor, op string, msg []byte) ([]byte, error) {
		return msg, nil
	})
	server, err := NewServer(&Config{ListenAddress: "127.0.0.1:0"}, handler, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, server.Start(ctx))
	assert.NotEmpty(t, server.Addr())
	assert.Error(t, server.Start(ctx), "second start should fail")

	conn, err := Dial(server.Addr(), 0)
	require.NoError(t, err)
	defer conn.Close()

	resp, err := NewClient(conn).HandleCall(ctx, "actor-1", capability.OpQueryStream, []byte("echo"))
	require.NoError(t, err)
	assert.Equal(t, []byte("echo"), resp)

	require.NoError(t, server.Stop(ctx))
	require.NoError(t, server.Stop(ctx))
}

func TestProviderOverLink(t *testing.T) {
	connector := storetest.NewConnector()
	p, err := provider.New(provider.WithConnector(connector))
	require.NoError(t, err)
	defer p.Close()

	client := startServer(t, p)
	ctx := context.Background()
	msgpack := codec.MsgPack{}

	cfg, err := msgpack.Marshal(capability.Configuration{
		Module: "actor-1",
		Values: map[string]string{capability.OptionURL: "mem://one"},
	})
	require.NoError(t, err)

	_, err = client.HandleCall(ctx, "actor-1", capability.OpBindActor, cfg)
	assert.ErrorIs(t, err, eventstreams.ErrDispatch)

	_, err = client.HandleCall(ctx, capability.SystemActor, capability.OpBindActor, cfg)
	require.NoError(t, err)

	event, err := msgpack.Marshal(eventstreams.NewEvent("s1", map[string]string{"scruffy-looking": "nerf-herder"}))
	require.NoError(t, err)
	resp, err := client.HandleCall(ctx, "actor-1", capability.OpWriteEvent, event)
	require.NoError(t, err)

	var written eventstreams.WriteResponse
	require.NoError(t, msgpack.Unmarshal(resp, &written))
	assert.Equal(t, "1-0", written.EventID)

	_, err = client.HandleCall(ctx, "actor-2", capability.OpWriteEvent, event)
	assert.ErrorIs(t, err, eventstreams.ErrRegistry)
}
