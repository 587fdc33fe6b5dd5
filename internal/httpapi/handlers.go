package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/rmacdonaldsmith/eventstreams-go/internal/provider"
	"github.com/rmacdonaldsmith/eventstreams-go/pkg/capability"
	"github.com/rmacdonaldsmith/eventstreams-go/pkg/eventstreams"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// Handlers contains all HTTP request handlers. Every stream and admin
// request is routed through Provider.HandleCall with the caller's identity.
type Handlers struct {
	provider *provider.Provider
	jwtAuth  *JWTAuth
	adminKey string
	logger   *slog.Logger
}

// NewHandlers creates a new handlers instance
func NewHandlers(p *provider.Provider, jwtAuth *JWTAuth, adminKey string, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		provider: p,
		jwtAuth:  jwtAuth,
		adminKey: adminKey,
		logger:   logger,
	}
}

// Auth endpoints

// Login handles POST /api/v1/auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req AuthRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.validateAuthRequest(&req); err != nil {
		h.writeError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	system := false
	if req.AdminKey != "" {
		if h.adminKey == "" || subtle.ConstantTimeCompare([]byte(req.AdminKey), []byte(h.adminKey)) != 1 {
			h.writeError(w, r, "Invalid admin key", http.StatusUnauthorized)
			return
		}
		system = true
	}

	token, expiresAt, err := h.jwtAuth.GenerateToken(req.ClientID, system)
	if err != nil {
		h.writeError(w, r, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, AuthResponse{
		Token:     token,
		ClientID:  req.ClientID,
		System:    system,
		ExpiresAt: expiresAt,
	}, http.StatusOK)
}

// Stream endpoints

// WriteEvent handles POST /api/v1/streams/{stream}/events
func (h *Handlers) WriteEvent(w http.ResponseWriter, r *http.Request) {
	stream := GetStreamFromPath(r)

	var req WriteEventRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	var resp eventstreams.WriteResponse
	if !h.call(w, r, capability.OpWriteEvent, eventstreams.NewEvent(stream, req.Values), &resp) {
		return
	}

	writeJSON(w, WriteEventResponse{EventID: resp.EventID, Stream: stream}, http.StatusCreated)
}

// QueryStream handles GET /api/v1/streams/{stream}/events?min=&max=&count=
func (h *Handlers) QueryStream(w http.ResponseWriter, r *http.Request) {
	query, err := parseStreamQuery(GetStreamFromPath(r), r)
	if err != nil {
		h.writeError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	var results eventstreams.StreamResults
	if !h.call(w, r, capability.OpQueryStream, query, &results) {
		return
	}

	events := make([]EventResponse, 0, len(results.Events))
	for _, e := range results.Events {
		events = append(events, EventResponse{EventID: e.EventID, Stream: e.Stream, Values: e.Values})
	}
	writeJSON(w, QueryStreamResponse{
		Stream: query.StreamID,
		Events: events,
		Count:  len(events),
	}, http.StatusOK)
}

// parseStreamQuery reads min, max and count. min and max must be given together.
func parseStreamQuery(stream string, r *http.Request) (eventstreams.StreamQuery, error) {
	q := r.URL.Query()
	query := eventstreams.StreamQuery{StreamID: stream}

	if raw := q.Get("count"); raw != "" {
		count, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return query, fmt.Errorf("count must be a non-negative integer")
		}
		query.Count = count
	}

	minRaw, maxRaw := q.Get("min"), q.Get("max")
	if minRaw == "" && maxRaw == "" {
		return query, nil
	}
	if minRaw == "" || maxRaw == "" {
		return query, fmt.Errorf("min and max must be supplied together")
	}
	minTime, err := strconv.ParseUint(minRaw, 10, 64)
	if err != nil {
		return query, fmt.Errorf("min must be a millisecond timestamp")
	}
	maxTime, err := strconv.ParseUint(maxRaw, 10, 64)
	if err != nil {
		return query, fmt.Errorf("max must be a millisecond timestamp")
	}
	query.Range = &eventstreams.TimeRange{MinTime: minTime, MaxTime: maxTime}
	return query, nil
}

// Admin endpoints

// AdminListActors handles GET /api/v1/admin/actors
func (h *Handlers) AdminListActors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, ActorsResponse{Actors: h.provider.Actors()}, http.StatusOK)
}

// AdminBindActor handles POST /api/v1/admin/actors
func (h *Handlers) AdminBindActor(w http.ResponseWriter, r *http.Request) {
	var req BindActorRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.Actor == "" {
		h.writeError(w, r, "actor is required", http.StatusBadRequest)
		return
	}

	values := make(map[string]string, len(req.Values)+1)
	for k, v := range req.Values {
		values[k] = v
	}
	if req.URL != "" {
		values[capability.OptionURL] = req.URL
	}

	cfg := capability.Configuration{Module: req.Actor, Values: values}
	if !h.call(w, r, capability.OpBindActor, cfg, nil) {
		return
	}

	writeJSON(w, ActorResponse{Actor: req.Actor}, http.StatusCreated)
}

// AdminRemoveActor handles DELETE /api/v1/admin/actors/{actor}
func (h *Handlers) AdminRemoveActor(w http.ResponseWriter, r *http.Request) {
	cfg := capability.Configuration{Module: GetActorFromPath(r)}
	if !h.call(w, r, capability.OpRemoveActor, cfg, nil) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminDescriptor handles GET /api/v1/admin/descriptor
func (h *Handlers) AdminDescriptor(w http.ResponseWriter, r *http.Request) {
	var desc capability.Descriptor
	if !h.call(w, r, capability.OpGetCapabilityDescriptor, nil, &desc) {
		return
	}
	writeJSON(w, desc, http.StatusOK)
}

// Health handles GET /api/v1/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status, err := h.provider.Health(r.Context())
	if err != nil {
		h.writeError(w, r, "Health check failed: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, HealthResponse{
		Healthy:              status.Healthy,
		DispatcherConfigured: status.DispatcherConfigured,
		BoundActors:          status.BoundActors,
		Version:              provider.Version,
		Message:              status.Message,
	}, code)
}

// Helper methods

// call encodes req with the provider codec, routes it through HandleCall as the
// request's identity and decodes the response into resp when resp is non-nil.
// It writes the error response and returns false on failure.
func (h *Handlers) call(w http.ResponseWriter, r *http.Request, op string, req any, resp any) bool {
	c := h.provider.Codec()

	var msg []byte
	if req != nil {
		var err error
		if msg, err = c.Marshal(req); err != nil {
			h.writeError(w, r, "Failed to encode request", http.StatusInternalServerError)
			return false
		}
	}

	out, err := h.provider.HandleCall(r.Context(), GetIdentity(r), op, msg)
	if err != nil {
		h.writeProviderError(w, r, err)
		return false
	}

	if resp != nil {
		if err := c.Unmarshal(out, resp); err != nil {
			h.writeError(w, r, "Failed to decode provider response", http.StatusInternalServerError)
			return false
		}
	}
	return true
}

// statusFor maps a provider error kind to an HTTP status code
func statusFor(err error) int {
	switch eventstreams.KindOf(err) {
	case eventstreams.KindDispatch:
		if errors.Is(err, provider.ErrClosed) {
			return http.StatusServiceUnavailable
		}
		return http.StatusForbidden
	case eventstreams.KindDecode, eventstreams.KindConfiguration:
		return http.StatusBadRequest
	case eventstreams.KindRegistry:
		return http.StatusPreconditionFailed
	case eventstreams.KindStore:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *Handlers) writeProviderError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	h.logger.Warn("provider call failed",
		"identity", GetIdentity(r),
		"path", r.URL.Path,
		"status", code,
		"error", err)

	writeJSON(w, ErrorResponse{
		Error:     http.StatusText(code),
		Message:   err.Error(),
		Code:      code,
		Kind:      eventstreams.KindOf(err).String(),
		RequestID: GetRequestID(r, w),
	}, code)
}

// decodeJSON validates the content type and decodes the body into v
func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		h.writeError(w, r, "Content-Type must be application/json", http.StatusBadRequest)
		return false
	}

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		h.writeError(w, r, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// validateAuthRequest validates authentication request fields
func (h *Handlers) validateAuthRequest(req *AuthRequest) error {
	if req.ClientID == "" {
		return fmt.Errorf("clientId is required")
	}
	if req.ClientID == capability.SystemActor {
		return fmt.Errorf("clientId %q is reserved", capability.SystemActor)
	}
	return nil
}

// writeError writes an error response as JSON
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	writeJSON(w, ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   message,
		Code:      statusCode,
		RequestID: GetRequestID(r, w),
	}, statusCode)
}
