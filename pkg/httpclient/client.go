package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rmacdonaldsmith/eventstreams-go/pkg/capability"
)

// ErrNotAuthenticated is returned by calls that need a token before Authenticate succeeded
var ErrNotAuthenticated = errors.New("client not authenticated - call Authenticate() first")

// Client provides HTTP client for the event streams gateway
type Client struct {
	config     Config
	httpClient *http.Client
	token      string
	system     bool
	baseURL    *url.URL
}

// NewClient creates a new event streams HTTP client
func NewClient(config Config) (*Client, error) {
	config.SetDefaults()

	if config.ServerURL == "" {
		return nil, fmt.Errorf("ServerURL is required")
	}
	if config.ClientID == "" {
		return nil, fmt.Errorf("ClientID is required")
	}

	baseURL, err := url.Parse(config.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ServerURL: %w", err)
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		baseURL:    baseURL,
	}, nil
}

// Authenticate logs in and stores the token. With an AdminKey the token acts as the system identity.
func (c *Client) Authenticate(ctx context.Context) error {
	req := AuthRequest{
		ClientID: c.config.ClientID,
		AdminKey: c.config.AdminKey,
	}

	var resp AuthResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", nil, req, &resp, false); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	c.token = resp.Token
	c.system = resp.System
	return nil
}

// WriteEvent appends an event to stream
func (c *Client) WriteEvent(ctx context.Context, stream string, values map[string]string) (*WriteEventResponse, error) {
	if c.token == "" {
		return nil, ErrNotAuthenticated
	}

	var resp WriteEventResponse
	err := c.doRequest(ctx, http.MethodPost, streamPath(stream), nil, WriteEventRequest{Values: values}, &resp, true)
	if err != nil {
		return nil, fmt.Errorf("failed to write event: %w", err)
	}
	return &resp, nil
}

// QueryStream reads events from stream in id order
func (c *Client) QueryStream(ctx context.Context, stream string, opts QueryOptions) (*QueryStreamResponse, error) {
	if c.token == "" {
		return nil, ErrNotAuthenticated
	}

	query := url.Values{}
	if opts.HasRange {
		query.Set("min", strconv.FormatUint(opts.MinTime, 10))
		query.Set("max", strconv.FormatUint(opts.MaxTime, 10))
	}
	if opts.Count > 0 {
		query.Set("count", strconv.FormatUint(opts.Count, 10))
	}

	var resp QueryStreamResponse
	if err := c.doRequest(ctx, http.MethodGet, streamPath(stream), query, nil, &resp, true); err != nil {
		return nil, fmt.Errorf("failed to query stream: %w", err)
	}
	return &resp, nil
}

// GetHealth returns the health status of the gateway
func (c *Client) GetHealth(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", nil, nil, &resp, false); err != nil {
		return nil, fmt.Errorf("failed to get health status: %w", err)
	}
	return &resp, nil
}

// Admin Methods (require a system token)

// BindActor configures actor to use the store at storeURL. An empty storeURL uses the provider default.
func (c *Client) BindActor(ctx context.Context, actor, storeURL string, values map[string]string) error {
	if c.token == "" {
		return ErrNotAuthenticated
	}

	req := BindActorRequest{Actor: actor, URL: storeURL, Values: values}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/admin/actors", nil, req, nil, true); err != nil {
		return fmt.Errorf("failed to bind actor: %w", err)
	}
	return nil
}

// RemoveActor drops the actor's binding. Removing an unbound actor succeeds.
func (c *Client) RemoveActor(ctx context.Context, actor string) error {
	if c.token == "" {
		return ErrNotAuthenticated
	}

	path := "/api/v1/admin/actors/" + url.PathEscape(actor)
	if err := c.doRequest(ctx, http.MethodDelete, path, nil, nil, nil, true); err != nil {
		return fmt.Errorf("failed to remove actor: %w", err)
	}
	return nil
}

// ListActors returns the bound actors
func (c *Client) ListActors(ctx context.Context) ([]string, error) {
	if c.token == "" {
		return nil, ErrNotAuthenticated
	}

	var resp ActorsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/admin/actors", nil, nil, &resp, true); err != nil {
		return nil, fmt.Errorf("failed to list actors: %w", err)
	}
	return resp.Actors, nil
}

// GetDescriptor returns the provider's capability descriptor
func (c *Client) GetDescriptor(ctx context.Context) (*capability.Descriptor, error) {
	if c.token == "" {
		return nil, ErrNotAuthenticated
	}

	var resp capability.Descriptor
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/admin/descriptor", nil, nil, &resp, true); err != nil {
		return nil, fmt.Errorf("failed to get descriptor: %w", err)
	}
	return &resp, nil
}

func streamPath(stream string) string {
	return "/api/v1/streams/" + url.PathEscape(stream) + "/events"
}

// doRequest performs an HTTP request with optional query parameters and authentication
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, reqBody interface{}, respBody interface{}, requireAuth bool) error {
	u, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("invalid path %q: %w", path, err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	fullURL := c.baseURL.ResolveReference(u)

	var bodyReader io.Reader
	if reqBody != nil {
		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL.String(), bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requireAuth && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(bodyBytes)}
		var errResp ErrorResponse
		if err := json.Unmarshal(bodyBytes, &errResp); err == nil && errResp.Message != "" {
			apiErr.Message = errResp.Message
			apiErr.Kind = errResp.Kind
			apiErr.RequestID = errResp.RequestID
		}
		return apiErr
	}

	if respBody != nil && len(bodyBytes) > 0 {
		if err := json.Unmarshal(bodyBytes, respBody); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// IsAuthenticated returns whether the client has a valid token
func (c *Client) IsAuthenticated() bool {
	return c.token != ""
}

// IsSystem reports whether the current token acts as the system identity
func (c *Client) IsSystem() bool {
	return c.system
}

// GetToken returns the current authentication token
func (c *Client) GetToken() string {
	return c.token
}

// SetToken sets the authentication token (useful for testing or token reuse)
func (c *Client) SetToken(token string) {
	c.token = token
}
