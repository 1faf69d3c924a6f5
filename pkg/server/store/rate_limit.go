package store

import "time"

// RateLimitStore persists sliding-window counters. It satisfies
// ratelimit.WindowStore.
type RateLimitStore interface {
	// IncrementWindow adds one to the (key, windowStart) counter and
	// returns the new count, creating the row if needed.
	IncrementWindow(key string, windowStart time.Time) (int, error)

	// WindowCount returns the counter for (key, windowStart), 0 if absent.
	WindowCount(key string, windowStart time.Time) (int, error)

	// PurgeWindowsBefore deletes counters older than cutoff.
	PurgeWindowsBefore(cutoff time.Time) error
}
