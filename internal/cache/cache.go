// Package cache is the freshness cache: TTL memoisation with one producer in
// flight per key and an optional shared second tier.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/fortuna/courtvision/internal/logging"
)

const defaultCapacity = 512

// ErrMiss is returned by a Store that does not hold a key.
var ErrMiss = errors.New("cache miss")

// Store is a shared second tier, such as Redis. Values are opaque bytes.
// Clear drops every entry the tier holds for this cache, including entries
// written by other processes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
}

// cachedValue is a memoised value with the instant it was produced.
type cachedValue struct {
	value       interface{}
	refreshedAt time.Time
	generation  uint64
}

// envelope is the second-tier encoding of a cachedValue.
type envelope struct {
	RefreshedAt time.Time       `json:"refreshed_at"`
	Value       json.RawMessage `json:"value"`
}

// Cache memoises producer results per key for a caller-chosen TTL.
type Cache struct {
	mem   *lru.Cache
	group singleflight.Group
	store Store
	now   func() time.Time
	log   *logrus.Entry

	mu         sync.Mutex
	generation uint64
	keys       map[string]struct{}
}

// New creates a cache holding at most capacity keys in memory. store may be
// nil.
func New(capacity int, store Store, log *logrus.Logger) (*Cache, error) {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	mem, err := lru.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru: %w", err)
	}
	return &Cache{
		mem:   mem,
		store: store,
		now:   time.Now,
		log:   logging.Component(log, "cache"),
		keys:  make(map[string]struct{}),
	}, nil
}

// WithClock replaces the wall clock. Used by tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// RefreshedAt reports when the in-memory value for key was produced.
func (c *Cache) RefreshedAt(key string) (time.Time, bool) {
	raw, ok := c.mem.Peek(key)
	if !ok {
		return time.Time{}, false
	}
	return raw.(cachedValue).refreshedAt, true
}

// Keys returns every key produced since the last invalidation.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.keys))
	for k := range c.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Invalidate drops every entry in both tiers, not only the keys this
// process produced. Results of producers already running when it is called
// are returned to their callers but stored in neither tier.
func (c *Cache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	c.generation++
	local := len(c.keys)
	c.keys = make(map[string]struct{})
	c.mu.Unlock()

	c.mem.Purge()
	c.log.WithField("keys", local).Info("Cache invalidated")

	if c.store == nil {
		return nil
	}
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear shared cache: %w", err)
	}
	return nil
}

// InvalidateKey drops a single key from both tiers.
func (c *Cache) InvalidateKey(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.keys, key)
	c.mu.Unlock()

	c.mem.Remove(key)
	if c.store == nil {
		return nil
	}
	return c.store.Delete(ctx, key)
}

func (c *Cache) currentGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *Cache) fresh(key string, ttl time.Duration) (cachedValue, bool) {
	raw, ok := c.mem.Get(key)
	if !ok {
		return cachedValue{}, false
	}
	cv := raw.(cachedValue)
	if cv.generation != c.currentGeneration() || c.now().Sub(cv.refreshedAt) >= ttl {
		return cachedValue{}, false
	}
	return cv, true
}

// remember stores cv unless an invalidation happened since it was started.
// It reports whether the value was kept.
func (c *Cache) remember(key string, cv cachedValue) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cv.generation != c.generation {
		return false
	}
	c.keys[key] = struct{}{}
	c.mem.Add(key, cv)
	return true
}

type outcome struct {
	value interface{}
	err   error
}

// Cached returns the value memoised under key if it was produced less than
// ttl ago; otherwise it runs produce. Concurrent callers for the same key
// share one producer run. The run is detached from the caller that started
// it: cancelling ctx only stops that caller from waiting. A producer error
// is returned with whatever value the producer supplied, and nothing is
// memoised.
func Cached[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, produce func(context.Context) (T, error)) (T, error) {
	if cv, ok := c.fresh(key, ttl); ok {
		if v, ok := cv.value.(T); ok {
			return v, nil
		}
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		ctx := shared

		if cv, ok := c.fresh(key, ttl); ok {
			if v, ok := cv.value.(T); ok {
				return outcome{value: v}, nil
			}
		}

		gen := c.currentGeneration()
		if v, at, ok := loadShared[T](ctx, c, key, ttl); ok {
			c.remember(key, cachedValue{value: v, refreshedAt: at, generation: gen})
			return outcome{value: v}, nil
		}

		started := c.now()
		v, err := produce(ctx)
		if err != nil {
			c.log.WithError(err).WithField("key", key).Warn("Producer failed, result not cached")
			return outcome{value: v, err: err}, nil
		}

		if !c.remember(key, cachedValue{value: v, refreshedAt: started, generation: gen}) {
			c.log.WithField("key", key).Debug("Cache invalidated during produce, result not stored")
			return outcome{value: v}, nil
		}
		storeShared(ctx, c, key, ttl, v, started)
		c.log.WithFields(logrus.Fields{
			"key":      key,
			"duration": c.now().Sub(started).String(),
		}).Debug("Cache refreshed")
		return outcome{value: v}, nil
	})

	select {
	case res := <-ch:
		out := res.Val.(outcome)
		v, _ := out.value.(T)
		return v, out.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func loadShared[T any](ctx context.Context, c *Cache, key string, ttl time.Duration) (T, time.Time, bool) {
	var zero T
	if c.store == nil {
		return zero, time.Time{}, false
	}

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.log.WithError(err).WithField("key", key).Warn("Shared cache read failed")
		}
		return zero, time.Time{}, false
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("Discarding undecodable shared entry")
		return zero, time.Time{}, false
	}
	if c.now().Sub(env.RefreshedAt) >= ttl {
		return zero, time.Time{}, false
	}

	var v T
	if err := json.Unmarshal(env.Value, &v); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("Discarding undecodable shared value")
		return zero, time.Time{}, false
	}
	return v, env.RefreshedAt, true
}

func storeShared[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, v T, at time.Time) {
	if c.store == nil {
		return
	}
	value, err := json.Marshal(v)
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("Value not shareable")
		return
	}
	data, err := json.Marshal(envelope{RefreshedAt: at, Value: value})
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, key, data, ttl); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("Shared cache write failed")
	}
}
