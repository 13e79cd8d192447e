package chat

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
)

// roundTripFunc lets a test answer requests without a network.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// chunkReader returns one chunk per Read call, then err (io.EOF when nil).
type chunkReader struct {
	chunks [][]byte
	err    error
	closed bool
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	if n < len(r.chunks[0]) {
		r.chunks[0] = r.chunks[0][n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func (r *chunkReader) Close() error {
	r.closed = true
	return nil
}

// splitAt cuts s at the given offsets.
func splitAt(s string, cuts ...int) [][]byte {
	var chunks [][]byte
	prev := 0
	for _, c := range append(cuts, len(s)) {
		chunks = append(chunks, []byte(s[prev:c]))
		prev = c
	}
	return chunks
}

// streamClient returns a Client whose provider answers with body and
// records the last request it saw.
func streamClient(status int, body io.ReadCloser, captured **http.Request, capturedBody *[]byte) *Client {
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if captured != nil {
			*captured = r
		}
		if capturedBody != nil && r.Body != nil {
			*capturedBody, _ = io.ReadAll(r.Body)
		}
		return &http.Response{
			StatusCode: status,
			Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
			Body:       body,
			Request:    r,
		}, nil
	})
	return NewClient(WithHTTPClient(&http.Client{Transport: transport}))
}

func stringBody(s string) io.ReadCloser {
	return io.NopCloser(bytes.NewBufferString(s))
}

// recordingSink collects fragments in order.
type recordingSink struct {
	mu        sync.Mutex
	fragments []string
	err       error
}

func (s *recordingSink) OnFragment(_ context.Context, fragment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fragments = append(s.fragments, fragment)
	return s.err
}

func (s *recordingSink) got() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.fragments...)
}
