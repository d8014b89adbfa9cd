// Package cache keeps rendered read responses keyed by route so repeated
// GETs are served without touching the store.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Store is the read cache contract shared by the memory and redis backends.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
	DeletePrefix(ctx context.Context, prefix string)

	// Generation returns the invalidation generation of a key family. ok is
	// false when the backend cannot answer; callers then bypass the cache.
	Generation(ctx context.Context, family string) (gen uint64, ok bool)
	// Bump moves the family to a new generation. Entries filled under an
	// older generation are never read again.
	Bump(ctx context.Context, family string)
}

type Memory struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]entry
	gen map[string]uint64
	now func() time.Time
}

type entry struct {
	val []byte
	exp time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Memory{
		ttl: ttl,
		m:   make(map[string]entry),
		gen: make(map[string]uint64),
		now: time.Now,
	}
}

func (c *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}

	return e.val, true
}

func (c *Memory) Set(_ context.Context, key string, val []byte) {
	cp := make([]byte, len(val))
	copy(cp, val)

	c.mu.Lock()
	c.m[key] = entry{val: cp, exp: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *Memory) DeletePrefix(_ context.Context, prefix string) {
	c.mu.Lock()
	for k := range c.m {
		if strings.HasPrefix(k, prefix) {
			delete(c.m, k)
		}
	}
	c.mu.Unlock()
}

func (c *Memory) Generation(_ context.Context, family string) (uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen[family], true
}

func (c *Memory) Bump(_ context.Context, family string) {
	c.mu.Lock()
	c.gen[family]++
	c.mu.Unlock()
}

// Noop disables caching; every Get misses.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool)        { return nil, false }
func (Noop) Set(context.Context, string, []byte)               {}
func (Noop) DeletePrefix(context.Context, string)              {}
func (Noop) Generation(context.Context, string) (uint64, bool) { return 0, false }
func (Noop) Bump(context.Context, string)                      {}
