package dedup

import (
	"context"
	"sync"
	"time"
)

// InMemoryDeduplicator es la alternativa local cuando Redis no está disponible.
// Sólo deduplica dentro de un mismo proceso.
type InMemoryDeduplicator struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	window time.Duration
	now    func() time.Time
}

var _ Deduplicator = (*InMemoryDeduplicator)(nil)

func NewInMemoryDeduplicator(window time.Duration) *InMemoryDeduplicator {
	return &InMemoryDeduplicator{
		seen:   make(map[string]time.Time),
		window: window,
		now:    time.Now,
	}
}

func (d *InMemoryDeduplicator) Claim(ctx context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if expiresAt, ok := d.seen[key]; ok && now.Before(expiresAt) {
		return false, nil
	}

	d.evictExpired(now)
	d.seen[key] = now.Add(d.window)
	return true, nil
}

func (d *InMemoryDeduplicator) Release(ctx context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
	return nil
}

// evictExpired se llama con el mutex tomado.
func (d *InMemoryDeduplicator) evictExpired(now time.Time) {
	for k, expiresAt := range d.seen {
		if !now.Before(expiresAt) {
			delete(d.seen, k)
		}
	}
}
