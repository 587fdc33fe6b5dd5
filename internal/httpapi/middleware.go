package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContextKey type for context keys to avoid collisions
type ContextKey string

const (
	// ClientIDKey is the context key for the authenticated client ID
	ClientIDKey ContextKey = "client_id"
	// IdentityKey is the context key for the caller identity passed to the provider
	IdentityKey ContextKey = "identity"
	// ClaimsKey is the context key for JWT claims
	ClaimsKey ContextKey = "jwt_claims"
	// RequestIDKey is the context key for the request id
	RequestIDKey ContextKey = "request_id"
	// StreamKey is the context key for the stream name from the URL path
	StreamKey ContextKey = "stream"
	// ActorKey is the context key for the actor name from the URL path
	ActorKey ContextKey = "actor"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// devClientID is the identity used when authentication is disabled
const devClientID = "dev-client"

// Middleware provides HTTP middleware functions
type Middleware struct {
	jwtAuth *JWTAuth
	noAuth  bool // Development mode: bypass authentication on stream endpoints
	logger  *slog.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(jwtAuth *JWTAuth, noAuth bool, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{
		jwtAuth: jwtAuth,
		noAuth:  noAuth,
		logger:  logger,
	}
}

// AuthRequired middleware requires valid JWT authentication
func (m *Middleware) AuthRequired(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.noAuth {
			next(w, r.WithContext(withClaims(r.Context(), &JWTClaims{ClientID: devClientID})))
			return
		}

		claims, err := m.authenticate(r)
		if err != nil {
			m.writeError(w, r, err.Error(), http.StatusUnauthorized)
			return
		}

		next(w, r.WithContext(withClaims(r.Context(), claims)))
	}
}

// AdminRequired middleware requires a system token.
// Admin endpoints are never bypassed, even in no-auth mode.
func (m *Middleware) AdminRequired(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.authenticate(r)
		if err != nil {
			m.writeError(w, r, err.Error()+" for admin access", http.StatusUnauthorized)
			return
		}

		if !claims.System {
			m.writeError(w, r, "System privileges required", http.StatusForbidden)
			return
		}

		next(w, r.WithContext(withClaims(r.Context(), claims)))
	}
}

func (m *Middleware) authenticate(r *http.Request) (*JWTClaims, error) {
	token := extractToken(r)
	if token == "" {
		return nil, errAuthorizationRequired
	}

	claims, err := m.jwtAuth.ValidateToken(token)
	if err != nil {
		return nil, &authError{msg: "Invalid token: " + err.Error()}
	}
	return claims, nil
}

type authError struct{ msg string }

func (e *authError) Error() string { return e.msg }

var errAuthorizationRequired = &authError{msg: "Authorization header required"}

func withClaims(ctx context.Context, claims *JWTClaims) context.Context {
	ctx = context.WithValue(ctx, ClientIDKey, claims.ClientID)
	ctx = context.WithValue(ctx, IdentityKey, claims.Identity())
	return context.WithValue(ctx, ClaimsKey, claims)
}

// RequestID middleware assigns every request an id, reusing a caller-supplied one
func (m *Middleware) RequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next(w, r.WithContext(context.WithValue(r.Context(), RequestIDKey, id)))
	}
}

// CORS middleware adds CORS headers for browser compatibility
func (m *Middleware) CORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+RequestIDHeader)
		w.Header().Set("Access-Control-Max-Age", "86400")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// ContentType middleware sets the content type to JSON
func (m *Middleware) ContentType(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next(w, r)
	}
}

// statusRecorder remembers the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging middleware logs HTTP requests
func (m *Middleware) Logging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		m.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", GetRequestID(r, w))
	}
}

// Recovery middleware recovers from panics and returns 500 error
func (m *Middleware) Recovery(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				m.logger.Error("panic in http handler", "path", r.URL.Path, "panic", err)
				m.writeError(w, r, "Internal server error", http.StatusInternalServerError)
			}
		}()

		next(w, r)
	}
}

// extractToken extracts the JWT token from the Authorization header
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	// Support both "Bearer token" and "token" formats
	return strings.TrimPrefix(authHeader, "Bearer ")
}

// writeError writes an error response as JSON
func (m *Middleware) writeError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	writeJSON(w, ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   message,
		Code:      statusCode,
		RequestID: GetRequestID(r, w),
	}, statusCode)
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Default().Error("failed to encode response", "error", err)
	}
}

// GetClientID extracts the client ID from the request context
func GetClientID(r *http.Request) string {
	if clientID, ok := r.Context().Value(ClientIDKey).(string); ok {
		return clientID
	}
	return ""
}

// GetIdentity extracts the caller identity from the request context
func GetIdentity(r *http.Request) string {
	if identity, ok := r.Context().Value(IdentityKey).(string); ok {
		return identity
	}
	return ""
}

// GetClaims extracts the JWT claims from the request context
func GetClaims(r *http.Request) *JWTClaims {
	if claims, ok := r.Context().Value(ClaimsKey).(*JWTClaims); ok {
		return claims
	}
	return nil
}

// GetRequestID returns the request id from the context, falling back to the response header
func GetRequestID(r *http.Request, w http.ResponseWriter) string {
	if id, ok := r.Context().Value(RequestIDKey).(string); ok {
		return id
	}
	if w != nil {
		return w.Header().Get(RequestIDHeader)
	}
	return ""
}

// GetStreamFromPath extracts the stream name from the request context
func GetStreamFromPath(r *http.Request) string {
	if stream, ok := r.Context().Value(StreamKey).(string); ok {
		return stream
	}
	return ""
}

// GetActorFromPath extracts the actor name from the request context
func GetActorFromPath(r *http.Request) string {
	if actor, ok := r.Context().Value(ActorKey).(string); ok {
		return actor
	}
	return ""
}
