package cache

import (
	"context"
	"errors"
	"time"
)

// retryable marks a failure as transient.
type retryable struct{ err error }

func (r retryable) Error() string { return r.err.Error() }
func (r retryable) Unwrap() error { return r.err }

// Retryable marks err as transient so that [Backoff.Retry] tries again.
// A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return retryable{err}
}

// IsRetryable reports whether err, or any error it wraps, was marked with
// [Retryable].
func IsRetryable(err error) bool {
	var r retryable
	return errors.As(err, &r)
}

// Backoff is an exponential retry policy. The wait starts at Initial and
// doubles after every failed attempt, capped at Max when Max is positive.
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// DefaultBackoff makes three attempts, waiting one and then two seconds.
var DefaultBackoff = Backoff{Attempts: 3, Initial: time.Second, Max: 8 * time.Second}

// Delay returns the wait after the n-th failed attempt, counting from zero.
func (b Backoff) Delay(n int) time.Duration {
	d := b.Initial
	for ; n > 0; n-- {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	return d
}

// Retry calls fn until it succeeds, fails with an error not marked
// [Retryable], or runs out of attempts. It returns ctx.Err() if ctx ends
// while waiting.
func (b Backoff) Retry(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	for n := 0; ; n++ {
		err := fn()
		if err == nil || !IsRetryable(err) || n == attempts-1 {
			return err
		}

		timer := time.NewTimer(b.Delay(n))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
