// Package retry applies an exponential back-off policy around any
// operation. It knows nothing about platforms; callers supply the
// predicate that decides which failures are worth retrying.
package retry

import (
	"context"
	"time"
)

// Policy is a value object: attempts, base delay and the retryable
// predicate. The zero values of MaxAttempts/BaseDelay mean "no retries"
// and "no wait"; use Default for the production policy.
type Policy struct {
	// MaxAttempts is the number of retries after the first failure, so
	// the wrapped operation runs at most MaxAttempts+1 times.
	MaxAttempts int

	// BaseDelay is the wait before the first retry; attempt k (0-indexed)
	// waits BaseDelay * 2^k.
	BaseDelay time.Duration

	// Retryable reports whether a failure is transient. A nil predicate
	// treats every failure as terminal.
	Retryable func(error) bool

	// Sleep is the wait primitive, injectable for tests. Nil means a
	// context-aware timer sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Default returns the production policy: 3 retries, 1s base delay.
func Default(retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Retryable:   retryable,
	}
}

// Do runs op under the policy. Terminal failures surface immediately; a
// transient failure after the last retry surfaces as-is.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var zero T
	for attempt := 0; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= p.MaxAttempts || p.Retryable == nil || !p.Retryable(err) {
			return zero, err
		}
		if serr := sleep(ctx, p.BaseDelay<<uint(attempt)); serr != nil {
			return zero, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
