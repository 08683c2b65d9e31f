package reportcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/munitrack/munitrack/internal/utils"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const keyPrefix = "munitrack:area-summary:"

// RedisCache shares cached reports between service instances. Redis failures are logged and
// reported as a miss so that reports keep working while the cache is down.
type RedisCache[T any] struct {
	client redis.UniversalClient
	ttl    time.Duration
	clock  utils.Clock
}

func NewRedisCache[T any](client redis.UniversalClient, ttl time.Duration, clock utils.Clock) *RedisCache[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache[T]{client: client, ttl: ttl, clock: clock}
}

func key(year int) string {
	return fmt.Sprintf("%s%d", keyPrefix, year)
}

func (c *RedisCache[T]) Get(ctx context.Context, year int) (Entry[T], bool) {
	payload, err := c.client.Get(ctx, key(year)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Errorf("redis GET %s failed: %v", key(year), err)
		}
		return Entry[T]{}, false
	}

	var entry Entry[T]
	if err := json.Unmarshal(payload, &entry); err != nil {
		log.Warnf("discarding unreadable cached report for %d: %v", year, err)
		return Entry[T]{}, false
	}
	// the key TTL is authoritative, this guards against clock drift between instances
	if c.clock.Now().Sub(entry.CreatedAt) >= c.ttl {
		return Entry[T]{}, false
	}
	return entry, true
}

func (c *RedisCache[T]) Put(ctx context.Context, year int, value T) {
	payload, err := json.Marshal(Entry[T]{Value: value, CreatedAt: c.clock.Now()})
	if err != nil {
		log.Errorf("failed to encode report for cache: %v", err)
		return
	}
	if err := c.client.Set(ctx, key(year), payload, c.ttl).Err(); err != nil {
		log.Errorf("redis SET %s failed: %v", key(year), err)
	}
}

func (c *RedisCache[T]) Invalidate(ctx context.Context, year int) {
	if err := c.client.Del(ctx, key(year)).Err(); err != nil {
		log.Errorf("redis DEL %s failed: %v", key(year), err)
	}
}

// Connect opens a client to addr and verifies it answers.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to connect to redis at %s: %w", addr, err)
	}
	log.Infof("Connected to redis at %s", addr)
	return client, nil
}
