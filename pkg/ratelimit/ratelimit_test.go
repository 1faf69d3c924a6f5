package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemoryLimiter(limit int, window time.Duration, now *time.Time) *MemoryLimiter {
	l := &MemoryLimiter{
		entries: make(map[string]*memoryWindow),
		limit:   limit,
		window:  window,
		now:     func() time.Time { return *now },
		done:    make(chan struct{}),
	}
	return l
}

func TestMemoryLimiterAllowsWithinLimit(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	l := newTestMemoryLimiter(3, time.Minute, &now)
	defer l.Close()

	for i := 0; i < 3; i++ {
		d, err := l.Allow("key")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 3, d.Limit)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := l.Allow("key")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	l := newTestMemoryLimiter(1, time.Minute, &now)
	defer l.Close()

	d, _ := l.Allow("a")
	assert.True(t, d.Allowed)
	d, _ = l.Allow("a")
	assert.False(t, d.Allowed)

	d, _ = l.Allow("b")
	assert.True(t, d.Allowed)
}

func TestMemoryLimiterSlidingWindow(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	l := newTestMemoryLimiter(10, time.Minute, &now)
	defer l.Close()

	for i := 0; i < 10; i++ {
		d, _ := l.Allow("key")
		require.True(t, d.Allowed)
	}
	d, _ := l.Allow("key")
	require.False(t, d.Allowed)

	// Just into the next window the previous 10 still weigh almost fully.
	now = now.Add(time.Minute + time.Second)
	d, _ = l.Allow("key")
	assert.False(t, d.Allowed)

	// Near the end of the next window most of the old count has slid out.
	now = now.Add(55 * time.Second)
	d, _ = l.Allow("key")
	assert.True(t, d.Allowed)
}

func TestMemoryLimiterResetsAfterTwoIdleWindows(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	l := newTestMemoryLimiter(1, time.Minute, &now)
	defer l.Close()

	d, _ := l.Allow("key")
	require.True(t, d.Allowed)
	d, _ = l.Allow("key")
	require.False(t, d.Allowed)

	now = now.Add(3 * time.Minute)
	d, _ = l.Allow("key")
	assert.True(t, d.Allowed)
}

func TestMemoryLimiterCleanupDropsIdleKeys(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	l := newTestMemoryLimiter(5, time.Minute, &now)
	defer l.Close()

	l.Allow("stale")
	now = now.Add(5 * time.Minute)
	l.Allow("fresh")

	l.cleanup()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.entries, "stale")
	assert.Contains(t, l.entries, "fresh")
}

type fakeWindowStore struct {
	counts map[string]int
	purged time.Time
}

func newFakeWindowStore() *fakeWindowStore {
	return &fakeWindowStore{counts: make(map[string]int)}
}

func (s *fakeWindowStore) key(key string, start time.Time) string {
	return key + "|" + start.Format(time.RFC3339)
}

func (s *fakeWindowStore) IncrementWindow(key string, start time.Time) (int, error) {
	s.counts[s.key(key, start)]++
	return s.counts[s.key(key, start)], nil
}

func (s *fakeWindowStore) WindowCount(key string, start time.Time) (int, error) {
	return s.counts[s.key(key, start)], nil
}

func (s *fakeWindowStore) PurgeWindowsBefore(cutoff time.Time) error {
	s.purged = cutoff
	return nil
}

func TestStoreLimiterAllowsWithinLimit(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 30, 0, time.UTC)
	store := newFakeWindowStore()
	l := &StoreLimiter{
		store:  store,
		limit:  2,
		window: time.Minute,
		now:    func() time.Time { return now },
		done:   make(chan struct{}),
	}
	defer l.Close()

	d, err := l.Allow("key")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	d, err = l.Allow("key")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, err = l.Allow("key")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Positive(t, d.RetryAfter)
}

func TestStoreLimiterWeighsPreviousWindow(t *testing.T) {
	window := time.Minute
	windowStart := time.Date(2026, 8, 25, 12, 1, 0, 0, time.UTC)
	now := windowStart.Add(30 * time.Second)

	store := newFakeWindowStore()
	prev := windowStart.Add(-window)
	for i := 0; i < 10; i++ {
		store.IncrementWindow("key", prev)
	}

	l := &StoreLimiter{
		store:  store,
		limit:  10,
		window: window,
		now:    func() time.Time { return now },
		done:   make(chan struct{}),
	}
	defer l.Close()

	// Half the previous window still counts: weighted 5 of 10, so allowed.
	d, err := l.Allow("key")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	// At the start of the window the full previous count applies.
	now = windowStart
	d, err = l.Allow("key")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestStoreLimiterDoesNotIncrementWhenDenied(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 30, 0, time.UTC)
	store := newFakeWindowStore()
	l := &StoreLimiter{
		store:  store,
		limit:  1,
		window: time.Minute,
		now:    func() time.Time { return now },
		done:   make(chan struct{}),
	}
	defer l.Close()

	l.Allow("key")
	l.Allow("key")
	l.Allow("key")

	count, _ := store.WindowCount("key", now.Truncate(time.Minute))
	assert.Equal(t, 1, count)
}

func TestStoreLimiterCloseIsIdempotent(t *testing.T) {
	l := NewStoreLimiter(newFakeWindowStore(), 1, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Close())
		}()
	}
	wg.Wait()
	assert.NoError(t, l.Close())
}
