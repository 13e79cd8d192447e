// Package llmclient provides the HTTP transport used to talk to
// OpenAI-compatible providers:
// - JSON request bodies with caller-built headers
// - a single, non-retried attempt per call
// - non-2xx responses turned into core API errors that keep the body
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"chatstream/internal/core"
	"chatstream/internal/httpclient"
)

const (
	// maxErrorBodySize bounds how much of an error response is kept.
	maxErrorBodySize = 64 * 1024
	// maxBodySize bounds non-streaming response bodies.
	maxBodySize = 10 * 1024 * 1024
)

// Client is the HTTP client shared by all profiles.
type Client struct {
	httpClient *http.Client
}

// New creates a client backed by httpclient.NewDefaultHTTPClient.
func New() *Client {
	return NewWithHTTPClient(nil)
}

// NewWithHTTPClient creates a client with a custom HTTP client.
// If httpClient is nil, the default provider client is used.
func NewWithHTTPClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = httpclient.NewDefaultHTTPClient()
	}
	return &Client{httpClient: httpClient}
}

// Request represents an HTTP request to be made
type Request struct {
	// Provider names the upstream in errors and logs.
	Provider string
	Method   string
	URL      string
	Header   http.Header
	Body     interface{} // Will be JSON marshaled if not nil
}

// Response represents a fully read HTTP response
type Response struct {
	StatusCode int
	Body       []byte
}

// IsSuccess reports whether statusCode is in the 2xx range.
func IsSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// Do executes a request and reads the whole response body.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if !IsSuccess(resp.StatusCode) {
		return nil, core.NewAPIError(req.Provider, resp.StatusCode, readErrorBody(resp.Body))
	}

	limited := io.LimitReader(resp.Body, maxBodySize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, core.NewRequestFailureError(req.Provider, err)
	}
	if len(body) > maxBodySize {
		return nil, core.NewDecodeError(req.Provider, "response body too large")
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// DoStream executes a streaming request, returning the open body.
// The status is checked exactly once, before any of the body is consumed.
// The caller must close the returned reader.
func (c *Client) DoStream(ctx context.Context, req Request) (io.ReadCloser, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	if !IsSuccess(resp.StatusCode) {
		body := readErrorBody(resp.Body)
		_ = resp.Body.Close()
		return nil, core.NewAPIError(req.Provider, resp.StatusCode, body)
	}

	return resp.Body, nil
}

func (c *Client) send(ctx context.Context, req Request) (*http.Response, error) {
	httpReq, err := buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.NewRequestFailureError(req.Provider, err)
	}
	return resp, nil
}

// buildRequest creates an HTTP request from a Request
func buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		bodyBytes, err := json.Marshal(req.Body)
		if err != nil {
			return nil, core.NewRequestFailureError(req.Provider, err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		return nil, core.NewRequestFailureError(req.Provider, err)
	}

	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	return httpReq, nil
}

// readErrorBody reads an error response best-effort; an unreadable body
// yields an empty slice.
func readErrorBody(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte{}
	}
	return body
}
