package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	pkgredis "github.com/angelmondragon/tristore-backend/pkg/redis"
	"github.com/google/uuid"
)

// ErrCacheMiss is returned when no cached view exists.
var ErrCacheMiss = errors.New("cache miss")

// ErrCacheStale is returned by Set when the cart was invalidated after the version was read.
var ErrCacheStale = errors.New("cache version is stale")

// Cache stores rendered cart views keyed by user. A reader takes Version before
// loading the cart and hands it to Set, so a view loaded before a concurrent
// Delete is never written back.
type Cache interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartView, error)
	Version(ctx context.Context, userID uuid.UUID) (string, error)
	Set(ctx context.Context, userID uuid.UUID, view *CartView, version string) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Eval(ctx context.Context, script string, keys []string, args ...any) (any, error)
	CartKey(userID string) string
	CartVersionKey(userID string) string
}

// versionTTL outlives any cached view.
const versionTTL = 24 * time.Hour

// KEYS: version, view. ARGV: expected version, payload, ttl ms.
const setIfVersionScript = `
local current = redis.call('GET', KEYS[1])
if not current then current = '0' end
if current ~= ARGV[1] then return 0 end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`

// KEYS: version, view. ARGV: version ttl ms.
const invalidateScript = `
redis.call('INCR', KEYS[1])
redis.call('PEXPIRE', KEYS[1], ARGV[1])
redis.call('DEL', KEYS[2])
return 1
`

// RedisCache is a read-through cache with a jittered TTL so carts don't expire in lockstep.
type RedisCache struct {
	store   cacheStore
	baseTTL time.Duration
}

func NewRedisCache(store cacheStore, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RedisCache{store: store, baseTTL: ttl}
}

func (c *RedisCache) Get(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	data, err := c.store.Get(ctx, c.store.CartKey(userID.String()))
	if errors.Is(err, pkgredis.ErrNil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var view CartView
	if err := json.Unmarshal([]byte(data), &view); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &view, nil
}

func (c *RedisCache) Version(ctx context.Context, userID uuid.UUID) (string, error) {
	version, err := c.store.Get(ctx, c.store.CartVersionKey(userID.String()))
	if errors.Is(err, pkgredis.ErrNil) {
		return "0", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get version failed: %w", err)
	}
	return version, nil
}

func (c *RedisCache) Set(ctx context.Context, userID uuid.UUID, view *CartView, version string) error {
	payload, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := c.baseTTL + jitter
	keys := []string{c.store.CartVersionKey(userID.String()), c.store.CartKey(userID.String())}
	res, err := c.store.Eval(ctx, setIfVersionScript, keys, version, string(payload), ttl.Milliseconds())
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	if written, _ := res.(int64); written != 1 {
		return ErrCacheStale
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, userID uuid.UUID) error {
	keys := []string{c.store.CartVersionKey(userID.String()), c.store.CartKey(userID.String())}
	if _, err := c.store.Eval(ctx, invalidateScript, keys, versionTTL.Milliseconds()); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
