package modelcache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LocalCache implements Cache using a single JSON file holding every entry.
type LocalCache struct {
	mu       sync.RWMutex
	filePath string
	ttl      time.Duration
	now      func() time.Time
}

// NewLocalCache creates a file-based cache stored at filePath.
func NewLocalCache(filePath string, ttl time.Duration) *LocalCache {
	return &LocalCache{
		filePath: filePath,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get retrieves an entry from the cache file.
func (c *LocalCache) Get(ctx context.Context, key string) (*Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries, err := c.load()
	if err != nil {
		return nil, err
	}

	entry, ok := entries[key]
	if !ok || c.now().Sub(entry.UpdatedAt) > c.ttl {
		return nil, nil
	}
	return entry, nil
}

// Set stores an entry, rewriting the cache file atomically.
func (c *LocalCache) Set(ctx context.Context, key string, entry *Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.load()
	if err != nil {
		// A corrupt file is replaced rather than blocking every write.
		entries = map[string]*Entry{}
	}
	entries[key] = entry

	// Drop expired entries so the file does not grow without bound.
	for k, e := range entries {
		if c.now().Sub(e.UpdatedAt) > c.ttl {
			delete(entries, k)
		}
	}

	if err := os.MkdirAll(filepath.Dir(c.filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	tmpFile := c.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmpFile, c.filePath); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}
	return nil
}

// Close is a no-op for the local cache.
func (c *LocalCache) Close() error {
	return nil
}

func (c *LocalCache) load() (map[string]*Entry, error) {
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	entries := map[string]*Entry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse cache file: %w", err)
	}
	return entries, nil
}
