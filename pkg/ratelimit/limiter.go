// Package ratelimit implements sliding-window request rate limiting.
//
// Two limiters are provided: MemoryLimiter keeps per-key counters in
// process-local state and suits a single server; StoreLimiter keeps window
// counters in the database so limits hold across processes. Both use the
// two-window weighted approximation of a sliding window: the previous
// window's count contributes proportionally to how much of it still overlaps
// the sliding window.
package ratelimit

import "time"

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(key string) (Decision, error)
	Close() error
}

func decide(weighted float64, limit int, windowStart time.Time, window time.Duration) Decision {
	d := Decision{
		Limit:   limit,
		ResetAt: windowStart.Add(window),
	}
	if int(weighted) >= limit {
		d.Allowed = false
		d.Remaining = 0
		d.RetryAfter = time.Until(d.ResetAt)
		if d.RetryAfter < 0 {
			d.RetryAfter = 0
		}
		return d
	}
	d.Allowed = true
	d.Remaining = limit - int(weighted) - 1
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	return d
}

// previousWeight returns the fraction of the previous window still inside
// the sliding window at time now.
func previousWeight(now, windowStart time.Time, window time.Duration) float64 {
	elapsed := now.Sub(windowStart)
	w := 1 - float64(elapsed)/float64(window)
	if w < 0 {
		return 0
	}
	return w
}
