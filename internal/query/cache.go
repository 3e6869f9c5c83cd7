package query

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/LhacenMed/admin-dashboard/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultStaleTime = time.Minute
	DefaultGCTime    = 5 * time.Minute
	loadTimeout      = 30 * time.Second
)

type entry struct {
	value     any
	updatedAt time.Time
	usedAt    time.Time
}

// Cache holds read results per key. Entries younger than staleTime are served as is, older
// ones are served while one background refresh runs. Entries unused for gcTime are evicted.
type Cache struct {
	staleTime time.Duration
	gcTime    time.Duration
	now       func() time.Time
	metrics   *metrics.Metrics

	group singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry
	// generation is bumped by Invalidate so a load that started earlier does not
	// write its result back.
	generation map[string]uint64
}

type Option func(*Cache)

func WithStaleTime(d time.Duration) Option {
	return func(c *Cache) {
		c.staleTime = d
	}
}

func WithGCTime(d time.Duration) Option {
	return func(c *Cache) {
		c.gcTime = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

func New(opts ...Option) *Cache {
	c := &Cache{
		staleTime:  DefaultStaleTime,
		gcTime:     DefaultGCTime,
		now:        time.Now,
		entries:    map[string]*entry{},
		generation: map[string]uint64{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is the outcome of a cached read. Err is set instead of Data on failure.
type Result[T any] struct {
	Data      T
	Err       error
	UpdatedAt time.Time
	Stale     bool
}

// Key joins parts into a cache key, for example Key("trips", companyID).
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Fetch reads key through the cache. Concurrent callers of a missing key share one call to
// fn. Failed calls are not cached and are not retried.
func Fetch[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error)) Result[T] {
	now := c.now()

	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		e.usedAt = now
	}
	c.mu.Unlock()

	if ok {
		value, typed := e.value.(T)
		if typed {
			if now.Sub(e.updatedAt) < c.staleTime {
				c.metrics.CacheRequest("hit")
				return Result[T]{Data: value, UpdatedAt: e.updatedAt}
			}
			c.metrics.CacheRequest("stale")
			c.refresh(key, func(ctx context.Context) (any, error) { return fn(ctx) })
			return Result[T]{Data: value, UpdatedAt: e.updatedAt, Stale: true}
		}
	}

	c.metrics.CacheRequest("miss")
	ch := c.group.DoChan(key, c.load(ctx, key, func(ctx context.Context) (any, error) { return fn(ctx) }))
	select {
	case res := <-ch:
		if res.Err != nil {
			return Result[T]{Err: res.Err}
		}
		loaded := res.Val.(*entry)
		value, _ := loaded.value.(T)
		return Result[T]{Data: value, UpdatedAt: loaded.updatedAt}
	case <-ctx.Done():
		return Result[T]{Err: ctx.Err()}
	}
}

// load returns the shared call for key. It runs detached from parent's cancellation so a
// caller that gives up does not fail the others waiting on the same key.
func (c *Cache) load(parent context.Context, key string, fn func(context.Context) (any, error)) func() (any, error) {
	c.mu.Lock()
	gen, ok := c.generation[key]
	if !ok {
		c.generation[key] = 0
	}
	c.mu.Unlock()

	return func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), loadTimeout)
		defer cancel()

		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		now := c.now()
		e := &entry{value: value, updatedAt: now, usedAt: now}

		c.mu.Lock()
		if c.generation[key] == gen {
			c.entries[key] = e
		}
		c.mu.Unlock()
		return e, nil
	}
}

// refresh reloads key in the background.
func (c *Cache) refresh(key string, fn func(context.Context) (any, error)) {
	c.group.DoChan(key, c.load(context.Background(), key, fn))
}

// Invalidate drops every entry whose key starts with prefix.
func (c *Cache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	for key := range c.generation {
		if strings.HasPrefix(key, prefix) {
			c.generation[key]++
			c.group.Forget(key)
		}
	}
}

// Sweep evicts entries that have not been read for gcTime and returns how many it removed.
func (c *Cache) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if now.Sub(e.usedAt) >= c.gcTime {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Run sweeps every interval until ctx is done.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}
