package npm

import (
	"context"
	"math/rand"
	"time"
)

const (
	defaultMaxAttempts = 4
	baseDelay          = 500 * time.Millisecond
	maxDelay           = 8 * time.Second
)

// retry runs fn up to maxAttempts times with jittered exponential backoff.
// fn reports whether its error is retryable; non-retryable errors are
// returned immediately.
func retry(ctx context.Context, maxAttempts int, fn func() (retryable bool, err error)) error {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := baseDelay << uint(attempt-1)
			if delay > maxDelay {
				delay = maxDelay
			}
			delay += time.Duration(rand.Int63n(int64(delay / 2)))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		var retryable bool
		retryable, err = fn()
		if err == nil {
			return nil
		}
		if !retryable {
			return err
		}
	}
	return err
}
