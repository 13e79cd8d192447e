package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chatstream/internal/core"
)

func TestClient_Do_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"hello"}`))
	}))
	defer server.Close()

	client := NewWithHTTPClient(server.Client())

	resp, err := client.Do(context.Background(), Request{
		Method: http.MethodGet,
		URL:    server.URL + "/test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Body) != `{"message":"hello"}` {
		t.Errorf("unexpected body: %s", resp.Body)
	}
}

func TestClient_Do_WithRequestBodyAndHeaders(t *testing.T) {
	var receivedBody map[string]interface{}
	var receivedHeaders http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedHeaders = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &receivedBody)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewWithHTTPClient(server.Client())

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Authorization", "Bearer token")

	_, err := client.Do(context.Background(), Request{
		Method: http.MethodPost,
		URL:    server.URL,
		Header: header,
		Body:   map[string]string{"input": "test"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receivedBody["input"] != "test" {
		t.Errorf("expected input 'test', got '%v'", receivedBody["input"])
	}
	if receivedHeaders.Get("Authorization") != "Bearer token" {
		t.Errorf("expected Authorization header 'Bearer token', got '%s'", receivedHeaders.Get("Authorization"))
	}
	if receivedHeaders.Get("Content-Type") != "application/json" {
		t.Errorf("expected Content-Type 'application/json', got '%s'", receivedHeaders.Get("Content-Type"))
	}
}

func TestClient_Do_ErrorKeepsBody(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
	}{
		{"unauthorized", http.StatusUnauthorized, "unauthorized"},
		{"rate limit", http.StatusTooManyRequests, `{"error":{"message":"Rate limited"}}`},
		{"server error", http.StatusInternalServerError, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewWithHTTPClient(server.Client())
			_, err := client.Do(context.Background(), Request{Provider: "test", Method: http.MethodGet, URL: server.URL})

			var coreErr *core.Error
			if !errors.As(err, &coreErr) {
				t.Fatalf("expected *core.Error, got %T", err)
			}
			if coreErr.Type != core.ErrorTypeAPI {
				t.Errorf("Type = %s, want %s", coreErr.Type, core.ErrorTypeAPI)
			}
			if coreErr.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", coreErr.StatusCode, tt.statusCode)
			}
			if coreErr.Body != tt.body {
				t.Errorf("Body = %q, want %q", coreErr.Body, tt.body)
			}
			if coreErr.Provider != "test" {
				t.Errorf("Provider = %q, want test", coreErr.Provider)
			}
		})
	}
}

func TestClient_Do_AcceptsAny2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	resp, err := NewWithHTTPClient(server.Client()).Do(context.Background(), Request{Method: http.MethodGet, URL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}
}

func TestClient_DoStream_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"chunk\":1}\n\n"))
		_, _ = w.Write([]byte("data: {\"chunk\":2}\n\n"))
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer server.Close()

	client := NewWithHTTPClient(server.Client())

	stream, err := client.DoStream(context.Background(), Request{
		Method: http.MethodPost,
		URL:    server.URL + "/stream",
		Body:   map[string]bool{"stream": true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer stream.Close()

	body, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("failed to read stream: %v", err)
	}

	if !strings.Contains(string(body), "chunk") {
		t.Errorf("expected body to contain 'chunk', got: %s", string(body))
	}
}

func TestClient_DoStream_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`unauthorized`))
	}))
	defer server.Close()

	client := NewWithHTTPClient(server.Client())

	_, err := client.DoStream(context.Background(), Request{
		Method: http.MethodPost,
		URL:    server.URL,
	})

	var coreErr *core.Error
	if !errors.As(err, &coreErr) {
		t.Fatalf("expected *core.Error, got %T", err)
	}
	if coreErr.Type != core.ErrorTypeAPI || coreErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("unexpected error: %v", coreErr)
	}
	if coreErr.Body != "unauthorized" {
		t.Errorf("Body = %q, want unauthorized", coreErr.Body)
	}
}

func TestClient_RequestFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := New().DoStream(context.Background(), Request{Method: http.MethodPost, URL: url})

	var coreErr *core.Error
	if !errors.As(err, &coreErr) {
		t.Fatalf("expected *core.Error, got %T", err)
	}
	if coreErr.Type != core.ErrorTypeRequestFailure {
		t.Errorf("Type = %s, want %s", coreErr.Type, core.ErrorTypeRequestFailure)
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewWithHTTPClient(server.Client()).Do(ctx, Request{Method: http.MethodGet, URL: server.URL})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded in chain, got %v", err)
	}
}

func TestIsSuccess(t *testing.T) {
	for code, want := range map[int]bool{199: false, 200: true, 204: true, 299: true, 300: false, 401: false} {
		if got := IsSuccess(code); got != want {
			t.Errorf("IsSuccess(%d) = %v, want %v", code, got, want)
		}
	}
}
