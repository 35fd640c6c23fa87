package galaxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()

	config := DefaultConfig().
		WithBaseURL(serverURL).
		WithAPIKey("test-key").
		WithRetries(3, time.Millisecond)

	client, err := NewClient(config, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestNewClient_RequiresConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"no base url", DefaultConfig().WithAPIKey("k")},
		{"no api key", DefaultConfig().WithBaseURL("https://galaxy.example")},
		{"empty", DefaultConfig()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(tt.config, nil); err != ErrNotConfigured {
				t.Errorf("NewClient() error = %v, want ErrNotConfigured", err)
			}
		})
	}
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	config := DefaultConfig().WithBaseURL("https://galaxy.example/").WithAPIKey("k")
	client, err := NewClient(config, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client.BaseURL() != "https://galaxy.example" {
		t.Errorf("BaseURL() = %q, want trimmed", client.BaseURL())
	}
}

func TestClient_SendsAPIKeyHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q, want test-key", r.Header.Get("x-api-key"))
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	if _, err := testClient(t, server.URL).ListWorkflows(context.Background()); err != nil {
		t.Fatalf("ListWorkflows() error = %v", err)
	}
}

func TestClient_RetriesOnServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	if _, err := testClient(t, server.URL).ListWorkflows(context.Background()); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := testClient(t, server.URL).ListWorkflows(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if attempts != 1 {
		t.Errorf("4xx must not be retried; got %d attempts", attempts)
	}
}

func TestClient_PostSendsJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload["name"] != "run_inputs" {
			t.Errorf("name = %v, want run_inputs", payload["name"])
		}
		w.Write([]byte(`{"id":"hist1","name":"run_inputs"}`))
	}))
	defer server.Close()

	id, err := testClient(t, server.URL).CreateHistory(context.Background(), "run_inputs")
	if err != nil {
		t.Fatalf("CreateHistory() error = %v", err)
	}
	if id != "hist1" {
		t.Errorf("history id = %q, want hist1", id)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"429", &HTTPError{StatusCode: 429}, true},
		{"500", &HTTPError{StatusCode: 500}, true},
		{"404", &HTTPError{StatusCode: 404}, false},
		{"wrapped 503", WrapError("Op", &HTTPError{StatusCode: 503}), true},
		{"plain error", NewError("Op", "nope"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(&HTTPError{StatusCode: 404}) {
		t.Error("expected 404 to be not-found")
	}
	if IsNotFound(&HTTPError{StatusCode: 500}) {
		t.Error("500 is not not-found")
	}
	if !IsNotFound(WrapError("GetWorkflow", &HTTPError{StatusCode: 404})) {
		t.Error("wrapped 404 should unwrap to not-found")
	}
}
