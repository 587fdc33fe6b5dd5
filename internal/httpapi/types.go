package httpapi

import "time"

// Request/Response types for the HTTP API

// AuthRequest represents a login request. AdminKey requests a system token.
type AuthRequest struct {
	ClientID string `json:"clientId"`
	AdminKey string `json:"adminKey,omitempty"`
}

// AuthResponse represents a login response
type AuthResponse struct {
	Token     string    `json:"token"`
	ClientID  string    `json:"clientId"`
	System    bool      `json:"system"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// WriteEventRequest is the body of POST /api/v1/streams/{stream}/events
type WriteEventRequest struct {
	Values map[string]string `json:"values"`
}

// WriteEventResponse reports the id the store assigned
type WriteEventResponse struct {
	EventID string `json:"eventId"`
	Stream  string `json:"stream"`
}

// EventResponse is one event in a query result
type EventResponse struct {
	EventID string            `json:"eventId"`
	Stream  string            `json:"stream"`
	Values  map[string]string `json:"values"`
}

// QueryStreamResponse is the body of GET /api/v1/streams/{stream}/events
type QueryStreamResponse struct {
	Stream string          `json:"stream"`
	Events []EventResponse `json:"events"`
	Count  int             `json:"count"`
}

// BindActorRequest binds an actor to a store endpoint
type BindActorRequest struct {
	Actor  string            `json:"actor"`
	URL    string            `json:"url,omitempty"`
	Values map[string]string `json:"values,omitempty"`
}

// ActorResponse acknowledges an actor bind
type ActorResponse struct {
	Actor string `json:"actor"`
}

// ActorsResponse lists the bound actors
type ActorsResponse struct {
	Actors []string `json:"actors"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Healthy              bool   `json:"healthy"`
	DispatcherConfigured bool   `json:"dispatcherConfigured"`
	BoundActors          int    `json:"boundActors"`
	Version              string `json:"version"`
	Message              string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}
