package chat

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatstream/internal/core"
	"chatstream/internal/modelcache"
)

type fakeResolver struct {
	active   string
	profiles map[string]core.Profile
}

func (r fakeResolver) ActiveProfile() (core.Profile, bool) {
	if r.active == "" {
		return core.Profile{}, false
	}
	return r.Lookup(r.active)
}

func (r fakeResolver) Lookup(name string) (core.Profile, bool) {
	p, ok := r.profiles[name]
	return p, ok
}

type memoryCache struct {
	entries map[string]*modelcache.Entry
	getErr  error
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]*modelcache.Entry{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (*modelcache.Entry, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.entries[key], nil
}

func (c *memoryCache) Set(_ context.Context, key string, entry *modelcache.Entry) error {
	c.sets++
	c.entries[key] = entry
	return nil
}

func (c *memoryCache) Close() error { return nil }

// countingModelsClient answers every models request with two ids.
func countingModelsClient(calls *int32) *Client {
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		atomic.AddInt32(calls, 1)
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       stringBody(`{"data":[{"id":"b"},{"id":"a"}]}`),
			Request:    r,
		}, nil
	})
	return NewClient(WithHTTPClient(&http.Client{Transport: transport}))
}

func testResolver() fakeResolver {
	second := testProfile
	second.Name = "second"
	second.BaseURL = "https://other.example.com/v1"
	return fakeResolver{
		active:   "test",
		profiles: map[string]core.Profile{"test": testProfile, "second": second},
	}
}

func TestService_Resolve(t *testing.T) {
	svc := NewService(NewClient(), testResolver(), nil, nil)

	p, err := svc.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "test", p.Name)

	p, err = svc.Resolve("second")
	require.NoError(t, err)
	assert.Equal(t, "second", p.Name)

	_, err = svc.Resolve("missing")
	var coreErr *core.Error
	require.True(t, errors.As(err, &coreErr))
	assert.Equal(t, core.ErrorTypeProfileMissing, coreErr.Type)
	assert.Contains(t, coreErr.Message, "missing")
}

func TestService_NoActiveProfile(t *testing.T) {
	svc := NewService(NewClient(), fakeResolver{}, nil, nil)

	_, err := svc.Stream(context.Background(), "", userMessages, nil)

	var coreErr *core.Error
	require.True(t, errors.As(err, &coreErr))
	assert.Equal(t, core.ErrorTypeProfileMissing, coreErr.Type)
	assert.Equal(t, "no active LLM profile", coreErr.Message)
}

func TestService_NilResolver(t *testing.T) {
	svc := NewService(NewClient(), nil, nil, nil)

	_, err := svc.Models(context.Background(), "")

	var coreErr *core.Error
	require.True(t, errors.As(err, &coreErr))
	assert.Equal(t, core.ErrorTypeProfileMissing, coreErr.Type)
}

func TestService_ModelsUsesCache(t *testing.T) {
	var calls int32
	cache := newMemoryCache()
	svc := NewService(countingModelsClient(&calls), testResolver(), cache, nil)
	ctx := context.Background()

	first, err := svc.Models(ctx, "")
	require.NoError(t, err)
	second, err := svc.Models(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 1, cache.sets)

	// A different endpoint is a different cache key.
	_, err = svc.Models(ctx, "second")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestService_ModelsCacheReadErrorFallsBack(t *testing.T) {
	var calls int32
	cache := newMemoryCache()
	cache.getErr = errors.New("redis down")
	svc := NewService(countingModelsClient(&calls), testResolver(), cache, nil)

	models, err := svc.Models(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, models)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestService_ProbeBypassesCache(t *testing.T) {
	var calls int32
	cache := newMemoryCache()
	svc := NewService(countingModelsClient(&calls), testResolver(), cache, nil)
	ctx := context.Background()

	_, err := svc.Models(ctx, "")
	require.NoError(t, err)

	msg, err := svc.Probe(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Success! Found 2 models.", msg)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 2, cache.sets)
}

func TestService_Stream(t *testing.T) {
	client := streamClient(http.StatusOK, stringBody(helloWorldStream), nil, nil)
	svc := NewService(client, testResolver(), nil, nil)
	sink := &recordingSink{}

	result, err := svc.Stream(context.Background(), "test", userMessages, sink)

	require.NoError(t, err)
	assert.Equal(t, "Hello world", result.Text)
	assert.Equal(t, []string{"Hello", " world"}, sink.got())
}
