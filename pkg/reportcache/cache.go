package reportcache

import (
	"context"
	"time"
)

const DefaultTTL = 300 * time.Second

// Entry is a cached value with its insertion time. Entries are replaced wholesale, never updated.
type Entry[T any] struct {
	Value     T
	CreatedAt time.Time
}

// Cache memoizes one value per fiscal year.
type Cache[T any] interface {
	// Get returns the entry for year. Expired entries are reported as a miss.
	Get(ctx context.Context, year int) (Entry[T], bool)
	Put(ctx context.Context, year int, value T)
	Invalidate(ctx context.Context, year int)
}
