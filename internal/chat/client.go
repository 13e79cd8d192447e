package chat

import (
	"log/slog"
	"net/http"

	"chatstream/internal/llmclient"
	"chatstream/internal/metrics"
)

// readBufferSize is the size of a single read from the response body.
const readBufferSize = 32 * 1024

// Client talks to OpenAI-compatible providers. Profiles are passed per call,
// so a single Client serves any number of concurrent calls and profiles.
type Client struct {
	llm     *llmclient.Client
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for provider requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.llm = llmclient.NewWithHTTPClient(httpClient)
	}
}

// WithMetrics records stream and model list counters on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client.
func NewClient(opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.llm == nil {
		c.llm = llmclient.New()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}
