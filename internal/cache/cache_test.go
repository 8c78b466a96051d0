package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/courtvision/internal/logging"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

type memStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	sets   int
	clears int
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrMiss
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	m.data = make(map[string][]byte)
	return nil
}

func newTestCache(t *testing.T, store Store) (*Cache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	c, err := New(16, store, logging.Discard())
	require.NoError(t, err)
	return c.WithClock(clock.Now), clock
}

func counter(calls *int32, prefix string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		n := atomic.AddInt32(calls, 1)
		return prefix + string(rune('0'+n)), nil
	}
}

func TestCachedWithinTTL(t *testing.T) {
	c, clock := newTestCache(t, nil)
	ctx := context.Background()
	var calls int32

	v1, err := Cached(ctx, c, "trends", 10*time.Minute, counter(&calls, "v"))
	require.NoError(t, err)
	clock.Advance(9 * time.Minute)
	v2, err := Cached(ctx, c, "trends", 10*time.Minute, counter(&calls, "v"))
	require.NoError(t, err)

	assert.Equal(t, "v1", v1)
	assert.Equal(t, v1, v2)
	assert.EqualValues(t, 1, calls)

	at, ok := c.RefreshedAt("trends")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC), at)
}

func TestCachedExpires(t *testing.T) {
	c, clock := newTestCache(t, nil)
	ctx := context.Background()
	var calls int32

	_, _ = Cached(ctx, c, "schedule", time.Minute, counter(&calls, "v"))
	clock.Advance(time.Minute)
	v, err := Cached(ctx, c, "schedule", time.Minute, counter(&calls, "v"))

	require.NoError(t, err)
	assert.Equal(t, "v2", v)
	assert.EqualValues(t, 2, calls)
}

func TestInvalidateForcesRefresh(t *testing.T) {
	store := newMemStore()
	c, _ := newTestCache(t, store)
	ctx := context.Background()
	var calls int32

	_, _ = Cached(ctx, c, "injuries", time.Hour, counter(&calls, "v"))
	_, _ = Cached(ctx, c, "roster", time.Hour, counter(&calls, "r"))
	assert.Equal(t, []string{"injuries", "roster"}, c.Keys())
	assert.Len(t, store.data, 2)

	require.NoError(t, c.Invalidate(ctx))
	assert.Empty(t, c.Keys())
	assert.Empty(t, store.data)

	v, err := Cached(ctx, c, "injuries", time.Hour, counter(&calls, "v"))
	require.NoError(t, err)
	assert.Equal(t, "v3", v)
}

func TestInvalidateKey(t *testing.T) {
	c, _ := newTestCache(t, nil)
	ctx := context.Background()
	var calls int32

	_, _ = Cached(ctx, c, "a", time.Hour, counter(&calls, "a"))
	_, _ = Cached(ctx, c, "b", time.Hour, counter(&calls, "b"))
	require.NoError(t, c.InvalidateKey(ctx, "a"))

	_, ok := c.RefreshedAt("a")
	assert.False(t, ok)
	_, ok = c.RefreshedAt("b")
	assert.True(t, ok)
}

func TestFailedProducerIsNotMemoised(t *testing.T) {
	c, _ := newTestCache(t, nil)
	ctx := context.Background()
	boom := errors.New("upstream down")
	calls := 0

	produce := func(context.Context) ([]string, error) {
		calls++
		if calls == 1 {
			return []string{}, boom
		}
		return []string{"ok"}, nil
	}

	v, err := Cached(ctx, c, "stats", time.Hour, produce)
	require.ErrorIs(t, err, boom)
	assert.NotNil(t, v, "producer's fallback value is passed through")
	assert.Empty(t, v)

	v, err = Cached(ctx, c, "stats", time.Hour, produce)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, v)
	assert.Equal(t, 2, calls)
}

func TestSingleProducerPerKey(t *testing.T) {
	c, _ := newTestCache(t, nil)
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	produce := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]int, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Cached(ctx, c, "defense", time.Hour, produce)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, 42, r)
	}
}

func TestInvalidateDuringProduceDiscardsResult(t *testing.T) {
	c, _ := newTestCache(t, nil)
	ctx := context.Background()

	v, err := Cached(ctx, c, "k", time.Hour, func(ctx context.Context) (string, error) {
		require.NoError(t, c.Invalidate(ctx))
		return "stale", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "stale", v)

	_, ok := c.RefreshedAt("k")
	assert.False(t, ok)
}

func TestSharedTier(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	first, clock := newTestCache(t, store)
	var calls int32
	_, err := Cached(ctx, first, "roster", time.Hour, func(context.Context) (map[string]string, error) {
		atomic.AddInt32(&calls, 1)
		return map[string]string{"Jayson Tatum": "BOS"}, nil
	})
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(store.data["roster"], &env))
	assert.True(t, clock.Now().Equal(env.RefreshedAt))

	// A second process sharing the store reuses the value.
	second, _ := newTestCache(t, store)
	second.WithClock(func() time.Time { return clock.Now().Add(30 * time.Minute) })
	v, err := Cached(ctx, second, "roster", time.Hour, func(context.Context) (map[string]string, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Jayson Tatum": "BOS"}, v)
	assert.EqualValues(t, 1, calls)

	// Past the TTL the shared copy is ignored.
	third, _ := newTestCache(t, store)
	third.WithClock(func() time.Time { return clock.Now().Add(2 * time.Hour) })
	v, err = Cached(ctx, third, "roster", time.Hour, func(context.Context) (map[string]string, error) {
		atomic.AddInt32(&calls, 1)
		return map[string]string{}, nil
	})
	require.NoError(t, err)
	assert.Empty(t, v)
	assert.EqualValues(t, 2, calls)
}

func TestInvalidateDuringProduceSkipsSharedTier(t *testing.T) {
	store := newMemStore()
	c, _ := newTestCache(t, store)
	ctx := context.Background()

	v, err := Cached(ctx, c, "trends", time.Hour, func(ctx context.Context) (string, error) {
		require.NoError(t, c.Invalidate(ctx))
		return "stale", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "stale", v)
	assert.NotContains(t, store.data, "trends")

	v, err = Cached(ctx, c, "trends", time.Hour, func(context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestInvalidateClearsEntriesFromOtherProcesses(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	first, clock := newTestCache(t, store)
	_, err := Cached(ctx, first, "injuries", time.Hour, func(context.Context) (string, error) {
		return "old", nil
	})
	require.NoError(t, err)

	// A restarted process never produced "injuries" itself.
	second, _ := newTestCache(t, store)
	second.WithClock(clock.Now)
	assert.Empty(t, second.Keys())
	require.NoError(t, second.Invalidate(ctx))
	assert.Equal(t, 1, store.clears)

	v, err := Cached(ctx, second, "injuries", time.Hour, func(context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestCancelledCallerDoesNotFailOthers(t *testing.T) {
	c, _ := newTestCache(t, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	produce := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		close(started)
		select {
		case <-release:
			return "stats", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := Cached(leaderCtx, c, "stats", time.Hour, produce)
		leaderErr <- err
	}()
	<-started

	type result struct {
		v   string
		err error
	}
	follower := make(chan result, 1)
	go func() {
		v, err := Cached(context.Background(), c, "stats", time.Hour, produce)
		follower <- result{v, err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)

	time.Sleep(20 * time.Millisecond)
	close(release)

	got := <-follower
	require.NoError(t, got.err)
	assert.Equal(t, "stats", got.v)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	_, ok := c.RefreshedAt("stats")
	assert.True(t, ok)
}
