package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rmacdonaldsmith/eventstreams-go/internal/provider"
	"github.com/rmacdonaldsmith/eventstreams-go/internal/storetest"
)

const (
	testSecretKey = "test-secret-key"
	testAdminKey  = "test-admin-key"
)

// TestServerSetup holds common test dependencies
type TestServerSetup struct {
	Provider  *provider.Provider
	Connector *storetest.Connector
	Server    *Server
	Auth      *JWTAuth
}

// NewTestServerSetup creates a provider backed by the in-memory store and an HTTP server in front of it
func NewTestServerSetup(t *testing.T, opts ...func(*Config)) *TestServerSetup {
	t.Helper()

	connector := storetest.NewConnector()
	p, err := provider.New(provider.WithConnector(connector))
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	t.Cleanup(func() { p.Close() })

	config := Config{
		ListenAddress: "127.0.0.1:0",
		SecretKey:     testSecretKey,
		AdminKey:      testAdminKey,
	}
	for _, opt := range opts {
		opt(&config)
	}

	server, err := NewServer(p, config, nil)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	return &TestServerSetup{
		Provider:  p,
		Connector: connector,
		Server:    server,
		Auth:      server.jwtAuth,
	}
}

// GenerateTestToken creates a JWT token for testing
func (setup *TestServerSetup) GenerateTestToken(t *testing.T, clientID string, system bool) string {
	t.Helper()

	token, _, err := setup.Auth.GenerateToken(clientID, system)
	if err != nil {
		t.Fatalf("Failed to generate test token: %v", err)
	}
	return token
}

// Do sends a request through the full middleware chain. A nil body sends no body.
func (setup *TestServerSetup) Do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	setup.Server.Handler().ServeHTTP(w, req)
	return w
}

// BindActor binds actor to url through the admin API
func (setup *TestServerSetup) BindActor(t *testing.T, actor, url string) {
	t.Helper()

	w := setup.Do(t, http.MethodPost, "/api/v1/admin/actors", setup.GenerateTestToken(t, "operator", true),
		BindActorRequest{Actor: actor, URL: url})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201 binding %s, got %d. Body: %s", actor, w.Code, w.Body.String())
	}
}
