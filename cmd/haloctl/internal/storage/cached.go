package storage

import (
	"errors"
	"fmt"
	"io"

	"github.com/halolight/halolight/pkg/sdk"
	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStore puts a read-through LRU cache in front of another store.
// Writes go to the backing store first and only then update the cache, so a
// failed write never leaves the cache ahead of storage. Misses are not cached.
type CachedStore struct {
	backend sdk.KeyValueStore
	cache   *lru.Cache[string, string]
}

// Ensure CachedStore implements sdk.KeyValueStore at compile time.
var _ sdk.KeyValueStore = (*CachedStore)(nil)

// NewCachedStore wraps backend with an LRU cache holding up to size entries.
func NewCachedStore(backend sdk.KeyValueStore, size int) (*CachedStore, error) {
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &CachedStore{backend: backend, cache: cache}, nil
}

// Get returns the cached value or loads it from the backend.
func (c *CachedStore) Get(key string) (string, error) {
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	v, err := c.backend.Get(key)
	if err != nil {
		return "", err
	}
	c.cache.Add(key, v)
	return v, nil
}

// Set writes through to the backend.
func (c *CachedStore) Set(key, value string) error {
	if err := c.backend.Set(key, value); err != nil {
		c.cache.Remove(key)
		return err
	}
	c.cache.Add(key, value)
	return nil
}

// Delete removes key from the backend and the cache.
func (c *CachedStore) Delete(key string) error {
	c.cache.Remove(key)
	return c.backend.Delete(key)
}

// Len returns the number of cached entries.
func (c *CachedStore) Len() int {
	return c.cache.Len()
}

// Close purges the cache and closes the backend when it is closable.
func (c *CachedStore) Close() error {
	c.cache.Purge()
	if closer, ok := c.backend.(io.Closer); ok {
		if err := closer.Close(); err != nil && !errors.Is(err, ErrClosed) {
			return err
		}
	}
	return nil
}
