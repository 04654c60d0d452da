package interview

import (
	"context"
	"time"
)

// RetryPolicy bounds how often an outbound generation is attempted.
// The delay before attempt i+1 is Backoff * 2^i.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

func DefaultRetry() RetryPolicy {
	return RetryPolicy{Attempts: 3, Backoff: 300 * time.Millisecond}
}

// Do runs fn until it succeeds, the attempts are used up, or ctx is done.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var last error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if last = fn(ctx); last == nil {
			return nil
		}
		if i == attempts-1 || p.Backoff <= 0 {
			continue
		}
		t := time.NewTimer(p.Backoff * time.Duration(1<<i))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return last
}
