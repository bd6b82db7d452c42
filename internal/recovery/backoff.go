package recovery

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Backoff computes exponential delays with random jitter. The same
// formula serves operation retries and reconnection scheduling, each
// with its own parameters.
type Backoff struct {
	Base        time.Duration
	Multiplier  float64
	Cap         time.Duration
	Jitter      time.Duration
	MaxAttempts int
}

// DefaultRetryBackoff is the per-operation retry schedule: 1s, 2s, 4s
// capped at 30s, three attempts.
func DefaultRetryBackoff() Backoff {
	return Backoff{
		Base:        1 * time.Second,
		Multiplier:  2.0,
		Cap:         30 * time.Second,
		Jitter:      1 * time.Second,
		MaxAttempts: 3,
	}
}

// Delay returns the backoff for the given attempt (0-indexed), jittered
// by up to Jitter to avoid synchronized retries. The un-jittered delay
// is monotonically non-decreasing up to Cap.
func (b Backoff) Delay(attempt int) time.Duration {
	delay := float64(b.Base) * math.Pow(b.Multiplier, float64(attempt))
	if delay > float64(b.Cap) {
		delay = float64(b.Cap)
	}
	d := time.Duration(delay)
	if b.Jitter > 0 {
		d += time.Duration(rand.Int63n(int64(b.Jitter)))
	}
	return d
}

// Exhausted reports whether attempt is past the retry budget.
func (b Backoff) Exhausted(attempt int) bool {
	return b.MaxAttempts > 0 && attempt >= b.MaxAttempts
}

// Wait sleeps for the attempt's delay, returning early if ctx expires.
func (b Backoff) Wait(ctx context.Context, attempt int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(b.Delay(attempt)):
		return nil
	}
}
