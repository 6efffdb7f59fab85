package fetch

import (
	"context"
	"time"
)

// Policy configures the explicit retry loop around a fetch call. Delays grow
// exponentially from MinDelay and are capped at MaxDelay.
type Policy struct {
	MaxAttempts int
	MinDelay    time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy mirrors the upstream API's tolerance: a few attempts with
// short exponential backoff.
var DefaultPolicy = Policy{
	MaxAttempts: 3,
	MinDelay:    1 * time.Second,
	MaxDelay:    10 * time.Second,
}

func (p Policy) delay(attempt int) time.Duration {
	d := p.MinDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return d
}

// Do runs fn up to p.MaxAttempts times, sleeping between attempts, until fn
// succeeds, fn returns a non-retryable error, or ctx is done. The last error
// is returned on exhaustion.
func Do(ctx context.Context, p Policy, retryable func(error) bool, fn func() error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(p.delay(attempt - 1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
