package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"marketgateway/internal/quote"
)

// RedisStore is a Redis-backed Store. It is a drop-in replacement for
// MemoryStore for deployments that run more than one gateway instance and
// want shared cache hits. Freshness tiers are computed client-side from the
// stored_at field; the Redis TTL only bounds how long stale entries survive.
type RedisStore struct {
	client   *redis.Client
	maxStale time.Duration
	nowFunc  func() time.Time
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore. maxStale controls the key expiry and
// must cover the stale read bound.
func NewRedisStore(client *redis.Client, maxStale time.Duration) *RedisStore {
	return &RedisStore{client: client, maxStale: maxStale, nowFunc: time.Now}
}

func redisKey(key string) string {
	// Hash tag keeps all fields of one quote on one cluster slot.
	return "quote_cache:{" + key + "}"
}

// Get returns the cached quote for key if it is younger than maxAge.
func (s *RedisStore) Get(ctx context.Context, key string, maxAge time.Duration) (*quote.Quote, bool) {
	return s.read(ctx, key, maxAge)
}

// GetStale returns the cached quote for key if it is younger than maxStale.
func (s *RedisStore) GetStale(ctx context.Context, key string, maxStale time.Duration) (*quote.Quote, bool) {
	return s.read(ctx, key, maxStale)
}

func (s *RedisStore) read(ctx context.Context, key string, bound time.Duration) (*quote.Quote, bool) {
	vals, err := s.client.HMGet(ctx, redisKey(key), "quote", "stored_at").Result()
	if err != nil || len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return nil, false
	}
	raw, ok1 := asString(vals[0])
	tsStr, ok2 := asString(vals[1])
	if !ok1 || !ok2 {
		return nil, false
	}
	storedAt, err := time.Parse(time.RFC3339Nano, tsStr)
	if err != nil || s.nowFunc().Sub(storedAt) >= bound {
		return nil, false
	}
	var q quote.Quote
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return nil, false
	}
	return &q, true
}

// Set stores a quote under key, superseding any previous entry.
func (s *RedisStore) Set(ctx context.Context, key string, q *quote.Quote) {
	if q == nil {
		return
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return
	}
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, redisKey(key), "quote", string(raw), "stored_at", s.nowFunc().Format(time.RFC3339Nano))
	pipe.Expire(ctx, redisKey(key), s.maxStale)
	_, _ = pipe.Exec(ctx)
}

func asString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	default:
		return "", false
	}
}
