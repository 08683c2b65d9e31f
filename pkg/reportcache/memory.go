package reportcache

import (
	"context"
	"sync"
	"time"

	"github.com/munitrack/munitrack/internal/utils"
	log "github.com/sirupsen/logrus"
)

type MemoryCache[T any] struct {
	mu      sync.RWMutex
	entries map[int]Entry[T]
	ttl     time.Duration
	clock   utils.Clock
}

func NewMemoryCache[T any](ttl time.Duration, clock utils.Clock) *MemoryCache[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache[T]{
		entries: make(map[int]Entry[T]),
		ttl:     ttl,
		clock:   clock,
	}
}

func (c *MemoryCache[T]) Get(ctx context.Context, year int) (Entry[T], bool) {
	c.mu.RLock()
	entry, ok := c.entries[year]
	c.mu.RUnlock()
	if !ok {
		return Entry[T]{}, false
	}
	if c.clock.Now().Sub(entry.CreatedAt) >= c.ttl {
		log.Debugf("cached report for %d expired at %s", year, entry.CreatedAt.Add(c.ttl))
		return Entry[T]{}, false
	}
	return entry, true
}

func (c *MemoryCache[T]) Put(ctx context.Context, year int, value T) {
	entry := Entry[T]{Value: value, CreatedAt: c.clock.Now()}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[year] = entry
}

func (c *MemoryCache[T]) Invalidate(ctx context.Context, year int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, year)
}
