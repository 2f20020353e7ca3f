package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/Odenfis/sedimApp/cmd/server"
	"github.com/Odenfis/sedimApp/internal/api"
	"github.com/Odenfis/sedimApp/internal/auth"
	"github.com/Odenfis/sedimApp/internal/equipment"
	"github.com/Odenfis/sedimApp/internal/model"
	"github.com/Odenfis/sedimApp/internal/storage"
)

// TestServer is a helper for integration tests
type TestServer struct {
	server    *httptest.Server
	client    *http.Client
	equipment *equipment.DocumentStore
	storage   *storage.SQLiteStorage
}

// NewTestServer serves the full mux over temp stores with one account,
// admin/admin123
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	tmpDir := t.TempDir()

	eq, err := equipment.NewFileStore(filepath.Join(tmpDir, "data.json"))
	if err != nil {
		t.Fatalf("Failed to create equipment store: %v", err)
	}
	store, err := storage.NewSQLiteStorage(context.Background(), filepath.Join(tmpDir, "sedim.db"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	hash, err := auth.HashPassword("admin123")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if err := store.CreateUser(context.Background(), &model.User{Username: "admin", Name: "Admin", PasswordHash: hash}); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	sessions, err := auth.NewSessionManager(auth.SessionConfig{Secret: "integration", Dir: filepath.Join(tmpDir, "sessions")})
	if err != nil {
		t.Fatalf("Failed to create session manager: %v", err)
	}
	handler := api.NewHandler(eq, store, sessions)
	srv := httptest.NewServer(server.NewMux(handler))

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New() error = %v", err)
	}

	ts := &TestServer{
		server:    srv,
		client:    &http.Client{Jar: jar, CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }},
		equipment: eq,
		storage:   store,
	}
	t.Cleanup(ts.Close)
	return ts
}

// Close stops the test server and releases the stores
func (ts *TestServer) Close() {
	if ts.server != nil {
		ts.server.Close()
		ts.server = nil
		ts.storage.Close()
		ts.equipment.Close()
	}
}

// URL returns the base URL of the test server
func (ts *TestServer) URL() string {
	return ts.server.URL
}

// Do sends a request with the session cookies collected so far. body is
// encoded as JSON unless it is nil.
func (ts *TestServer) Do(t *testing.T, method, path string, body any, header map[string]string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL()+path, r)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := ts.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	return resp, data
}

// Login signs in as the seeded admin account
func (ts *TestServer) Login(t *testing.T) {
	t.Helper()
	resp, body := ts.Do(t, "POST", "/api/login", map[string]string{"usuario": "admin", "password": "admin123"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Login failed: %d %s", resp.StatusCode, body)
	}
}

// ComputerJSON builds a computer request body
func ComputerJSON(name, hostname string, typ model.ComputerType, status bool) map[string]any {
	return map[string]any{
		"name":     name,
		"hostname": hostname,
		"type":     typ,
		"status":   status,
	}
}
