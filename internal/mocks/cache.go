package mocks

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	sharedCache "github.com/davicafu/hexablog/internal/shared/infra/platform/cache"
)

// DummyCache es una caché en memoria sin expiración, segura para concurrencia.
type DummyCache struct {
	store map[string][]byte
	mu    sync.RWMutex
}

var _ sharedCache.Cache = (*DummyCache)(nil)

func NewDummyCache() *DummyCache {
	return &DummyCache{store: make(map[string][]byte)}
}

func (c *DummyCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, ok := c.store[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *DummyCache) Set(ctx context.Context, key string, val interface{}, ttlSecs int) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = data
	return nil
}

func (c *DummyCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

// Has indica si la clave está cacheada.
func (c *DummyCache) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.store[key]
	return ok
}

// BrokenCache falla en todas las operaciones.
type BrokenCache struct{}

var _ sharedCache.Cache = BrokenCache{}

var errCacheDown = errors.New("cache down")

func (BrokenCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, errCacheDown
}

func (BrokenCache) Set(ctx context.Context, key string, val interface{}, ttlSecs int) error {
	return errCacheDown
}

func (BrokenCache) Delete(ctx context.Context, key string) error {
	return errCacheDown
}
