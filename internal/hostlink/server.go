package hostlink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"google.golang.org/grpc"
)

// Server serves the Provider service for a Handler.
type Server struct {
	config     *Config
	logger     *slog.Logger
	grpcServer *grpc.Server

	mu       sync.Mutex
	listener net.Listener
	started  bool
	closed   bool
}

// NewServer creates a Server that routes HandleCall requests to handler.
func NewServer(config *Config, handler Handler, logger *slog.Logger) (*Server, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}
	if handler == nil {
		return nil, errors.New("handler cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Make a copy and set defaults
	configCopy := *config
	configCopy.SetDefaults()

	grpcServer := grpc.NewServer(
		grpc.MaxRecvMsgSize(configCopy.MaxMessageSize),
		grpc.MaxSendMsgSize(configCopy.MaxMessageSize),
	)
	RegisterProvider(grpcServer, handler, WithEndpointLogger(logger))

	return &Server{
		config:     &configCopy,
		logger:     logger,
		grpcServer: grpcServer,
	}, nil
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	lis, err := lc.Listen(ctx, "tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}

	if err := s.attach(lis); err != nil {
		lis.Close()
		return err
	}

	go func() {
		if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			s.logger.Error("host link server stopped", "error", err)
		}
	}()
	return nil
}

// Serve serves on lis until Stop is called. It is used with in-process listeners.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.attach(lis); err != nil {
		return err
	}
	return s.grpcServer.Serve(lis)
}

func (s *Server) attach(lis net.Listener) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("host link server is closed")
	}
	if s.started {
		return errors.New("host link server already started")
	}
	s.started = true
	s.listener = lis
	s.logger.Info("host link listening", "address", lis.Addr().String())
	return nil
}

// Addr returns the listening address, or an empty string before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop drains in-flight calls, forcing the stop when ctx or the shutdown timeout expires.
// Stop is safe to call multiple times.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.grpcServer.Stop()
		<-done
		return ctx.Err()
	}
}
