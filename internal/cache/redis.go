package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis shares cached responses between API replicas. Failures are logged
// and treated as misses so a redis outage only costs latency.
type Redis struct {
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	log       *slog.Logger
}

func NewRedis(rdb *redis.Client, ttl time.Duration, log *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	return &Redis{rdb: rdb, ttl: ttl, namespace: "recipehub:", log: log}
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.rdb.Get(ctx, c.namespace+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache get failed", "key", key, "err", err)
		}
		return nil, false
	}
	return val, true
}

func (c *Redis) Set(ctx context.Context, key string, val []byte) {
	if err := c.rdb.Set(ctx, c.namespace+key, val, c.ttl).Err(); err != nil {
		c.log.Warn("cache set failed", "key", key, "err", err)
	}
}

func (c *Redis) genKey(family string) string {
	return c.namespace + "gen:" + family
}

func (c *Redis) Generation(ctx context.Context, family string) (uint64, bool) {
	gen, err := c.rdb.Get(ctx, c.genKey(family)).Uint64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, true
		}
		c.log.Warn("cache generation read failed", "family", family, "err", err)
		return 0, false
	}
	return gen, true
}

func (c *Redis) Bump(ctx context.Context, family string) {
	if err := c.rdb.Incr(ctx, c.genKey(family)).Err(); err != nil {
		c.log.Warn("cache generation bump failed", "family", family, "err", err)
	}
}

func (c *Redis) DeletePrefix(ctx context.Context, prefix string) {
	iter := c.rdb.Scan(ctx, 0, c.namespace+prefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("cache scan failed", "prefix", prefix, "err", err)
		return
	}

	if len(keys) == 0 {
		return
	}

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("cache invalidate failed", "prefix", prefix, "err", err)
	}
}
