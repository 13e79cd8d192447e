// Package modelcache caches provider model lists.
// Supports a local file backend for single-user setups and Redis for shared deployments.
package modelcache

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// DefaultTTL is how long a cached model list stays valid.
const DefaultTTL = 24 * time.Hour

// Entry is one cached model list.
type Entry struct {
	Models    []string  `json:"models"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Cache defines the interface for model list storage.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the entry stored under key.
	// Returns nil, nil if there is no entry or it has expired.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set stores entry under key.
	Set(ctx context.Context, key string, entry *Entry) error

	// Close releases any resources held by the cache.
	Close() error
}

// Key derives the cache key for a models endpoint and credential. The key
// is a hash, so credentials never appear in cache files or Redis keys.
func Key(modelsURL, apiKey string) string {
	d := xxhash.New()
	_, _ = d.WriteString(modelsURL)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(apiKey)

	var sum [8]byte
	binary.BigEndian.PutUint64(sum[:], d.Sum64())
	return hex.EncodeToString(sum[:])
}

// Config selects and configures a backend.
type Config struct {
	// Type is "none", "local" or "redis".
	Type string
	// Path is the cache file for the local backend.
	Path string
	// RedisURL is the connection URL for the redis backend.
	RedisURL string
	// TTL defaults to DefaultTTL.
	TTL time.Duration
}

// New builds the configured backend. It returns nil, nil when caching is disabled.
func New(cfg Config) (Cache, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "local":
		if cfg.Path == "" {
			return nil, fmt.Errorf("local model cache requires a path")
		}
		return NewLocalCache(cfg.Path, ttl), nil
	case "redis":
		c, err := NewRedisCache(RedisConfig{URL: cfg.RedisURL, TTL: ttl})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown model cache type: %q", cfg.Type)
	}
}
