// Package retry provides a fixed-delay bounded retry combinator. There is no
// backoff: the point of the bound is a deterministic worst-case duration, so
// a wake cycle can never stall waiting on a resource.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrExhausted = errors.New("retry: attempts exhausted")

// Attempt calls fn up to maxTimes with a fixed delay between calls. It
// returns nil on the first nil error from fn, ctx.Err() if the context ends
// while waiting, and otherwise ErrExhausted wrapping the last error from fn.
func Attempt(ctx context.Context, maxTimes int, delay time.Duration, fn func(context.Context) error) error {
	if maxTimes <= 0 {
		return fmt.Errorf("retry: maxTimes must be positive, got %d", maxTimes)
	}

	var lastErr error
	for i := 0; i < maxTimes; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if i == maxTimes-1 {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrExhausted, maxTimes, lastErr)
}
