package httpclient

import (
	"fmt"
	"time"
)

// Config holds client configuration
type Config struct {
	// ServerURL is the base URL of the event streams HTTP gateway (e.g., "http://localhost:8082")
	ServerURL string

	// ClientID is the identity this client writes and queries as
	ClientID string

	// AdminKey requests a system token at login (optional)
	AdminKey string

	// Timeout for HTTP requests
	Timeout time.Duration
}

// SetDefaults sets reasonable default values for the config
func (c *Config) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

// AuthRequest represents a login request
type AuthRequest struct {
	ClientID string `json:"clientId"`
	AdminKey string `json:"adminKey,omitempty"`
}

// AuthResponse represents the response from authentication
type AuthResponse struct {
	Token     string    `json:"token"`
	ClientID  string    `json:"clientId"`
	System    bool      `json:"system"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// WriteEventRequest is the body of a stream write
type WriteEventRequest struct {
	Values map[string]string `json:"values"`
}

// WriteEventResponse reports the id the store assigned
type WriteEventResponse struct {
	EventID string `json:"eventId"`
	Stream  string `json:"stream"`
}

// QueryOptions narrows a stream query. The zero value returns the whole stream.
type QueryOptions struct {
	// MinTime and MaxTime bound the query in milliseconds when HasRange is set
	MinTime  uint64
	MaxTime  uint64
	HasRange bool

	// Count caps the number of events returned when positive
	Count uint64
}

// Event is one event in a query result
type Event struct {
	EventID string            `json:"eventId"`
	Stream  string            `json:"stream"`
	Values  map[string]string `json:"values"`
}

// QueryStreamResponse holds the events returned by a query
type QueryStreamResponse struct {
	Stream string  `json:"stream"`
	Events []Event `json:"events"`
	Count  int     `json:"count"`
}

// BindActorRequest binds an actor to a store endpoint
type BindActorRequest struct {
	Actor  string            `json:"actor"`
	URL    string            `json:"url,omitempty"`
	Values map[string]string `json:"values,omitempty"`
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

// APIError is returned for every non-2xx response
type APIError struct {
	StatusCode int
	// Kind is the provider error kind, when the gateway reported one
	Kind      string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("API error (%d, %s): %s", e.StatusCode, e.Kind, e.Message)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}
