package agent

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/forgeloop/forgeloop/llm"
)

const backoffMaxDelay = 60 * time.Second

// backoffDelay computes the wait before provider retry n (0-indexed):
// exponential from base, capped, with +/- 50% jitter. A rate limit error
// carrying Retry-After overrides the computed delay.
func backoffDelay(err error, attempt int, base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}

	var rl *llm.RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter != nil {
		d := time.Duration(*rl.RetryAfter * float64(time.Second))
		if d > backoffMaxDelay {
			return backoffMaxDelay
		}
		return d
	}

	d := float64(base) * math.Pow(2, float64(attempt))
	d *= 0.5 + rand.Float64() // jitter in [0.5, 1.5)
	if d > float64(backoffMaxDelay) {
		return backoffMaxDelay
	}
	return time.Duration(d)
}

// sleepBackoff waits for the given delay unless the context ends first.
// It returns the context error when interrupted.
func sleepBackoff(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
