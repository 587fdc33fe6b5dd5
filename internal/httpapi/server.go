package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rmacdonaldsmith/eventstreams-go/internal/provider"
)

const (
	streamsPrefix = "/api/v1/streams/"
	actorsPath    = "/api/v1/admin/actors"
	eventsSuffix  = "/events"
)

// Server represents the HTTP API server
type Server struct {
	provider   *provider.Provider
	jwtAuth    *JWTAuth
	handlers   *Handlers
	middleware *Middleware
	server     *http.Server
	logger     *slog.Logger
}

// Config holds server configuration
type Config struct {
	ListenAddress string
	SecretKey     string
	// AdminKey, when set, lets a login request a system token
	AdminKey string
	// NoAuth bypasses authentication on stream endpoints (development only)
	NoAuth   bool
	TokenTTL time.Duration
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ListenAddress == "" {
		return errors.New("listen address cannot be empty")
	}
	if c.SecretKey == "" {
		return errors.New("secret key cannot be empty")
	}
	return nil
}

// NewServer creates a new HTTP API server
func NewServer(p *provider.Provider, config Config, logger *slog.Logger) (*Server, error) {
	if p == nil {
		return nil, errors.New("provider cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	jwtAuth := NewJWTAuth(config.SecretKey, config.TokenTTL)
	server := &Server{
		provider:   p,
		jwtAuth:    jwtAuth,
		handlers:   NewHandlers(p, jwtAuth, config.AdminKey, logger),
		middleware: NewMiddleware(jwtAuth, config.NoAuth, logger),
		logger:     logger,
	}

	server.server = &http.Server{
		Addr:              config.ListenAddress,
		Handler:           server.setupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}
	return server, nil
}

// Handler returns the routed handler with all middleware applied
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("http gateway listening", "address", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Apply global middleware
	withMiddleware := func(handler http.HandlerFunc) http.Handler {
		return s.middleware.Recovery(
			s.middleware.RequestID(
				s.middleware.Logging(
					s.middleware.CORS(
						s.middleware.ContentType(handler)))))
	}

	// Authentication endpoints (no auth required)
	mux.Handle("/api/v1/auth/login", withMiddleware(s.methods(map[string]http.HandlerFunc{
		http.MethodPost: s.handlers.Login,
	})))

	// Stream endpoints (auth required)
	mux.Handle(streamsPrefix, withMiddleware(s.middleware.AuthRequired(s.handleStreamEvents)))

	// Admin endpoints (system token required)
	mux.Handle(actorsPath, withMiddleware(s.middleware.AdminRequired(s.methods(map[string]http.HandlerFunc{
		http.MethodGet:  s.handlers.AdminListActors,
		http.MethodPost: s.handlers.AdminBindActor,
	}))))
	mux.Handle(actorsPath+"/", withMiddleware(s.middleware.AdminRequired(s.handleActorByName)))
	mux.Handle("/api/v1/admin/descriptor", withMiddleware(s.middleware.AdminRequired(s.methods(map[string]http.HandlerFunc{
		http.MethodGet: s.handlers.AdminDescriptor,
	}))))

	// Health endpoint (no auth required)
	mux.Handle("/api/v1/health", withMiddleware(s.methods(map[string]http.HandlerFunc{
		http.MethodGet: s.handlers.Health,
	})))

	// Root endpoint with API info
	mux.Handle("/", withMiddleware(s.handleRoot))

	return mux
}

// methods routes a request by HTTP method
func (s *Server) methods(byMethod map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handler, ok := byMethod[r.Method]
		if !ok {
			s.writeError(w, r, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}

// handleStreamEvents handles /api/v1/streams/{stream}/events. Stream names may contain slashes.
func (s *Server) handleStreamEvents(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, streamsPrefix)
	if !strings.HasSuffix(rest, eventsSuffix) {
		s.writeError(w, r, "Invalid path, expected /events", http.StatusNotFound)
		return
	}

	stream := strings.TrimSuffix(rest, eventsSuffix)
	if stream == "" {
		s.writeError(w, r, "Stream name required", http.StatusBadRequest)
		return
	}

	r = r.WithContext(context.WithValue(r.Context(), StreamKey, stream))
	switch r.Method {
	case http.MethodPost:
		s.handlers.WriteEvent(w, r)
	case http.MethodGet:
		s.handlers.QueryStream(w, r)
	default:
		s.writeError(w, r, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleActorByName handles /api/v1/admin/actors/{actor}
func (s *Server) handleActorByName(w http.ResponseWriter, r *http.Request) {
	actor := strings.TrimPrefix(r.URL.Path, actorsPath+"/")
	if actor == "" {
		s.writeError(w, r, "Actor name required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodDelete:
		s.handlers.AdminRemoveActor(w, r.WithContext(context.WithValue(r.Context(), ActorKey, actor)))
	default:
		s.writeError(w, r, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleRoot provides API information
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeError(w, r, "Not found", http.StatusNotFound)
		return
	}

	desc := provider.Describe()
	info := map[string]interface{}{
		"service":     desc.Name,
		"capability":  desc.ID,
		"version":     desc.Version,
		"description": desc.LongDescription,
		"endpoints": map[string]interface{}{
			"auth": map[string]string{
				"login": "POST /api/v1/auth/login",
			},
			"streams": map[string]string{
				"write": "POST /api/v1/streams/{stream}/events",
				"query": "GET /api/v1/streams/{stream}/events?min={ms}&max={ms}&count={n}",
			},
			"admin": map[string]string{
				"listActors": "GET /api/v1/admin/actors",
				"bindActor":  "POST /api/v1/admin/actors",
				"remove":     "DELETE /api/v1/admin/actors/{actor}",
				"descriptor": "GET /api/v1/admin/descriptor",
			},
			"health": "GET /api/v1/health",
		},
		"authentication": "Bearer JWT token required for stream and admin endpoints",
	}

	writeJSON(w, info, http.StatusOK)
}

// writeError writes an error response as JSON
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	writeJSON(w, ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   message,
		Code:      statusCode,
		RequestID: GetRequestID(r, w),
	}, statusCode)
}
