package ratelimit

import (
	"sync"
	"time"
)

type memoryWindow struct {
	start    time.Time
	count    int
	previous int
}

// MemoryLimiter is a process-local sliding-window rate limiter with a
// periodic cleanup pass over idle keys.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*memoryWindow
	limit   int
	window  time.Duration

	now  func() time.Time
	done chan struct{}
	once sync.Once
}

// NewMemoryLimiter creates a limiter allowing limit requests per window.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		entries: make(map[string]*memoryWindow),
		limit:   limit,
		window:  window,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow records a request for key and reports whether it is within limits.
func (l *MemoryLimiter) Allow(key string) (Decision, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &memoryWindow{start: now}
		l.entries[key] = e
	}

	// Roll the window forward, carrying the last full window's count.
	elapsed := now.Sub(e.start)
	switch {
	case elapsed >= 2*l.window:
		e.start = now
		e.previous = 0
		e.count = 0
	case elapsed >= l.window:
		e.start = e.start.Add(l.window)
		e.previous = e.count
		e.count = 0
	}

	weighted := float64(e.count) + float64(e.previous)*previousWeight(now, e.start, l.window)
	d := decide(weighted, l.limit, e.start, l.window)
	if d.Allowed {
		e.count++
	}
	return d, nil
}

// Close stops the cleanup goroutine.
func (l *MemoryLimiter) Close() error {
	l.once.Do(func() { close(l.done) })
	return nil
}

func (l *MemoryLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

func (l *MemoryLimiter) cleanup() {
	cutoff := l.now().Add(-2 * l.window)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.entries {
		if e.start.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}
