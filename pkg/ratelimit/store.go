package ratelimit

import (
	"sync"
	"time"
)

// WindowStore persists window counters for the store-backed limiter.
// Implementations live in pkg/server/store/gorm.
type WindowStore interface {
	// IncrementWindow adds one to the (key, windowStart) counter and returns
	// the new count.
	IncrementWindow(key string, windowStart time.Time) (int, error)

	// WindowCount returns the counter for (key, windowStart), 0 if absent.
	WindowCount(key string, windowStart time.Time) (int, error)

	// PurgeWindowsBefore deletes counters older than cutoff.
	PurgeWindowsBefore(cutoff time.Time) error
}

// StoreLimiter is a sliding-window limiter backed by a shared store, for
// deployments running more than one server process. The read-increment pair
// is not atomic across processes; a brief overshoot under contention is
// accepted, matching the last-write-wins semantics of the counters.
type StoreLimiter struct {
	store  WindowStore
	limit  int
	window time.Duration

	now  func() time.Time
	done chan struct{}
	once sync.Once
}

// NewStoreLimiter creates a store-backed limiter allowing limit requests
// per window.
func NewStoreLimiter(store WindowStore, limit int, window time.Duration) *StoreLimiter {
	l := &StoreLimiter{
		store:  store,
		limit:  limit,
		window: window,
		now:    time.Now,
		done:   make(chan struct{}),
	}
	go l.purgeLoop()
	return l
}

// Allow records a request for key and reports whether it is within limits.
func (l *StoreLimiter) Allow(key string) (Decision, error) {
	now := l.now()
	windowStart := now.Truncate(l.window)
	prevStart := windowStart.Add(-l.window)

	current, err := l.store.WindowCount(key, windowStart)
	if err != nil {
		return Decision{}, err
	}
	previous, err := l.store.WindowCount(key, prevStart)
	if err != nil {
		return Decision{}, err
	}

	weighted := float64(current) + float64(previous)*previousWeight(now, windowStart, l.window)
	d := decide(weighted, l.limit, windowStart, l.window)
	if !d.Allowed {
		return d, nil
	}

	if _, err := l.store.IncrementWindow(key, windowStart); err != nil {
		return Decision{}, err
	}
	return d, nil
}

// Close stops the purge goroutine. Safe to call more than once.
func (l *StoreLimiter) Close() error {
	l.once.Do(func() { close(l.done) })
	return nil
}

func (l *StoreLimiter) purgeLoop() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			_ = l.store.PurgeWindowsBefore(l.now().Add(-2 * l.window))
		}
	}
}
